package query

import (
	"fmt"

	"github.com/rs/halrest/schema"
)

func validateExpressions(exps []Expression, s schema.Schema) error {
	for _, exp := range exps {
		if err := exp.Validate(s); err != nil {
			return err
		}
	}
	return nil
}

func getSchemaField(field string, s schema.Schema) (*schema.Field, error) {
	f := s.GetField(field)
	if f == nil {
		return nil, fmt.Errorf("%s: unknown query field", field)
	}
	if !f.Filterable {
		return nil, fmt.Errorf("%s: field is not filterable", field)
	}
	return f, nil
}

func validateValue(field string, value Value, s schema.Schema) (Value, error) {
	f, err := getSchemaField(field, s)
	if err != nil {
		return nil, err
	}
	if f.Validator == nil || value == nil {
		return value, nil
	}
	v, err := f.Validator.Validate(value)
	if err != nil {
		return nil, fmt.Errorf("%s: invalid query expression: %v", field, err)
	}
	return v, nil
}

func validateValues(field string, values []Value, s schema.Schema) error {
	for i, v := range values {
		nv, err := validateValue(field, v, s)
		if err != nil {
			return err
		}
		values[i] = nv
	}
	return nil
}
