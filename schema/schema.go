package schema

import (
	"context"
	"fmt"
	"sort"
)

// Schema defines the fields of an entity kind and how their values are
// validated and normalized.
type Schema struct {
	// Description of the entity kind, used for documentation.
	Description string
	// Fields defines the schema's allowed fields.
	Fields Fields
}

// GetField returns the field for the given name if present in the schema.
func (s Schema) GetField(name string) *Field {
	if f, found := s.Fields[name]; found {
		return &f
	}
	return nil
}

// Compile compiles all the field validators and reports the first error.
func (s Schema) Compile() error {
	names := make([]string, 0, len(s.Fields))
	for name := range s.Fields {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if err := s.Fields[name].Compile(); err != nil {
			return fmt.Errorf("%s: %v", name, err)
		}
	}
	return nil
}

// Validate validates and coerces the payload against the schema.
//
// When group is nil, the whole schema is checked: required fields must be
// present and defaults are applied to missing fields. When group is not nil,
// only the listed fields are checked and nothing else is required, which is
// what partial updates need.
//
// The returned doc holds the normalized value of every checked field present
// in the payload (plus defaults on full validation). Fields of the payload
// unknown to the schema are ignored.
func (s Schema) Validate(payload map[string]interface{}, group []string) (doc map[string]interface{}, errs ErrorMap) {
	doc = map[string]interface{}{}
	errs = ErrorMap{}
	names := group
	if names == nil {
		names = make([]string, 0, len(s.Fields))
		for name := range s.Fields {
			names = append(names, name)
		}
	}
	for _, name := range names {
		field, found := s.Fields[name]
		if !found {
			continue
		}
		value, present := payload[name]
		if present && field.ReadOnly {
			errs.Add(name, "read-only")
			continue
		}
		if !present || value == nil {
			if group == nil && field.Default != nil {
				doc[name] = field.Default
				continue
			}
			if field.Required && !field.ReadOnly {
				errs.Add(name, "required")
				continue
			}
			if present {
				doc[name] = nil
			}
			continue
		}
		if field.Validator != nil {
			v, err := field.Validator.Validate(value)
			if err != nil {
				errs.Add(name, err.Error())
				continue
			}
			value = v
		}
		doc[name] = value
	}
	if len(errs) == 0 {
		errs = nil
	}
	return doc, errs
}

// OnInit calls the OnInit hook of each field on the payload.
func (s Schema) OnInit(ctx context.Context, payload map[string]interface{}) {
	for name, field := range s.Fields {
		if field.OnInit == nil {
			continue
		}
		payload[name] = field.OnInit(ctx, payload[name])
	}
}

// OnUpdate calls the OnUpdate hook of each field on the payload.
func (s Schema) OnUpdate(ctx context.Context, payload map[string]interface{}) {
	for name, field := range s.Fields {
		if field.OnUpdate == nil {
			continue
		}
		payload[name] = field.OnUpdate(ctx, payload[name])
	}
}
