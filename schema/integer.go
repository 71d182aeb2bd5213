package schema

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"slices"
	"strings"
)

// Boundaries defines the inclusive min and max of an Integer.
type Boundaries struct {
	Min float64
	Max float64
}

// Integer validates integer values. JSON numbers are accepted as long as
// they carry no fraction.
type Integer struct {
	Allowed    []int
	Boundaries *Boundaries
}

var errFloat = errors.New("found float, integer expected")

func toInt(value interface{}) (int, error) {
	switch n := value.(type) {
	case int:
		return n, nil
	case int64:
		return int(n), nil
	case float64:
		if n != math.Trunc(n) {
			return 0, errFloat
		}
		return int(n), nil
	case json.Number:
		if strings.ContainsAny(n.String(), ".eE") {
			return 0, errFloat
		}
		i, err := n.Int64()
		if err != nil {
			return 0, errors.New("not an integer")
		}
		return int(i), nil
	}
	return 0, errors.New("not an integer")
}

// Validate implements FieldValidator.
func (v Integer) Validate(value interface{}) (interface{}, error) {
	i, err := toInt(value)
	if err != nil {
		return nil, err
	}
	if b := v.Boundaries; b != nil {
		if float64(i) < b.Min {
			return nil, fmt.Errorf("is lower than %.0f", b.Min)
		}
		if float64(i) > b.Max {
			return nil, fmt.Errorf("is greater than %.0f", b.Max)
		}
	}
	if len(v.Allowed) > 0 && !slices.Contains(v.Allowed, i) {
		return nil, errors.New("not one of the allowed values")
	}
	return i, nil
}
