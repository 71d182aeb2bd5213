package schema

import (
	"context"
	"errors"
	"time"
)

var (
	// Now is a field hook handler that returns the current time, to be used in
	// schema with OnInit and OnUpdate.
	Now = func(ctx context.Context, value interface{}) interface{} {
		return time.Now().UTC().Truncate(time.Second)
	}

	// CreatedField is a common schema field configuration for "created" fields.
	CreatedField = Field{
		Description: "The time at which the entity has been inserted",
		ReadOnly:    true,
		OnInit:      Now,
		Sortable:    true,
		Validator:   &Time{},
	}

	// UpdatedField is a common schema field configuration for "updated" fields.
	UpdatedField = Field{
		Description: "The time at which the entity has been last updated",
		ReadOnly:    true,
		OnInit:      Now,
		OnUpdate:    Now,
		Sortable:    true,
		Validator:   &Time{},
	}

	formats = []string{
		time.RFC3339,
		time.RFC3339Nano,
		time.RFC1123,
		time.RFC1123Z,
		"2006-01-02 15:04:05",
		"2006-01-02",
	}
)

// Time validates time based values. Strings are parsed using TimeLayouts, or
// a set of common layouts when none is given.
type Time struct {
	TimeLayouts []string
}

// Validate validates and normalize time based value.
func (v Time) Validate(value interface{}) (interface{}, error) {
	if s, ok := value.(string); ok {
		layouts := v.TimeLayouts
		if len(layouts) == 0 {
			layouts = formats
		}
		for _, layout := range layouts {
			if t, err := time.Parse(layout, s); err == nil {
				value = t
				break
			}
		}
	}
	if _, ok := value.(time.Time); !ok {
		return nil, errors.New("not a time")
	}
	return value, nil
}

// LessFunc implements the FieldComparator interface.
func (v Time) LessFunc() LessFunc {
	return func(value, other interface{}) bool {
		t, ok1 := value.(time.Time)
		o, ok2 := other.(time.Time)
		if !ok1 || !ok2 {
			return false
		}
		return t.Before(o)
	}
}
