package schema

import (
	"context"
	"errors"
	"reflect"
)

// Fields defines a map of name -> field pairs.
type Fields map[string]Field

// Field specifies the info for a single field of a schema.
type Field struct {
	// Description stores a short description of the field useful for automatic
	// documentation generation.
	Description string
	// Required throws an error when the field is not provided at creation or
	// replacement.
	Required bool
	// ReadOnly throws an error when a field is submitted by the client.
	// Default and OnInit/OnUpdate hooks can be used to set/change read-only
	// fields.
	ReadOnly bool
	// Hidden allows writes but hides the field's content from the client.
	Hidden bool
	// Default defines the value be stored on the field when the entity is
	// created and this field is not provided by the client.
	Default interface{}
	// OnInit can be set to a function to generate the value of this field
	// when the entity is created. The function takes the current value if any
	// and returns the value to be stored.
	OnInit func(ctx context.Context, value interface{}) interface{}
	// OnUpdate can be set to a function to generate the value of this field
	// when the entity is updated. The function takes the current value if any
	// and returns the value to be stored.
	OnUpdate func(ctx context.Context, value interface{}) interface{}
	// Validator is used to validate the field's format. Pointers must be used
	// so the schema is able to discover the Compiler interface.
	Validator FieldValidator
	// Filterable defines that the field can be used with the `q` parameter.
	Filterable bool
	// Sortable defines that the field can be used with the `sort` parameter.
	Sortable bool
}

// Compile compiles the field validator when it implements the Compiler
// interface.
func (f Field) Compile() error {
	if f.Validator == nil {
		return nil
	}
	if c, ok := f.Validator.(Compiler); ok {
		if err := c.Compile(); err != nil {
			return err
		}
	}
	if reflect.ValueOf(f.Validator).Kind() != reflect.Ptr {
		return errors.New("not a schema.FieldValidator pointer")
	}
	return nil
}

// FieldValidator is an interface for all individual validators. It takes a
// value to validate as argument and returned the normalized value or an error
// if validation failed.
type FieldValidator interface {
	Validate(value interface{}) (interface{}, error)
}

// FieldValidatorFunc is an adapter to allow the use of ordinary functions as
// field validators. If f is a function with the appropriate signature,
// FieldValidatorFunc(f) is a FieldValidator that calls f.
type FieldValidatorFunc func(value interface{}) (interface{}, error)

// Validate calls f(value).
func (f FieldValidatorFunc) Validate(value interface{}) (interface{}, error) {
	return f(value)
}

// Compiler is implemented by validators needing a preparation step (i.e.:
// regexp compilation) before being used.
type Compiler interface {
	Compile() error
}

// LessFunc is a function that returns true only when value is less than other,
// and false in all other circumstances, including error conditions.
type LessFunc func(value, other interface{}) bool

// FieldComparator may be implemented by a FieldValidator to customize how the
// in-memory mapper orders values of this field.
type FieldComparator interface {
	LessFunc() LessFunc
}
