package schema

import (
	"encoding/json"
	"errors"
	"fmt"
	"slices"
)

// Float validates floating point values. Integers are promoted.
type Float struct {
	Allowed []float64
	// Min and Max are inclusive bounds, ignored when nil.
	Min *float64
	Max *float64
}

func toFloat(value interface{}) (float64, bool) {
	switch n := value.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	}
	return 0, false
}

// Validate implements FieldValidator.
func (v Float) Validate(value interface{}) (interface{}, error) {
	f, ok := toFloat(value)
	if !ok {
		return nil, errors.New("not a float")
	}
	if v.Min != nil && f < *v.Min {
		return nil, fmt.Errorf("is lower than %f", *v.Min)
	}
	if v.Max != nil && f > *v.Max {
		return nil, fmt.Errorf("is greater than %f", *v.Max)
	}
	if len(v.Allowed) > 0 && !slices.Contains(v.Allowed, f) {
		return nil, errors.New("not one of the allowed values")
	}
	return f, nil
}
