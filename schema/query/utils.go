package query

import (
	"encoding/json"
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"time"
)

// isNumber takes an interface as input, and returns a float64 if the type is
// compatible (int* or float*).
func isNumber(n interface{}) (float64, bool) {
	switch n := n.(type) {
	case int:
		return float64(n), true
	case int8:
		return float64(n), true
	case int16:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint8:
		return float64(n), true
	case uint16:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint64:
		return float64(n), true
	case float32:
		return float64(n), true
	case float64:
		return n, true
	default:
		return 0, false
	}
}

// equalValues compares numbers by value whatever their type and falls back to
// a deep comparison for anything else.
func equalValues(a, b interface{}) bool {
	if na, ok := isNumber(a); ok {
		if nb, ok := isNumber(b); ok {
			return na == nb
		}
	}
	if ta, ok := a.(time.Time); ok {
		if tb, ok := b.(time.Time); ok {
			return ta.Equal(tb)
		}
	}
	return reflect.DeepEqual(a, b)
}

// compareValues returns -1, 0 or 1 when a is lower, equal or greater than b.
// The boolean is false if the values can't be ordered.
func compareValues(a, b interface{}) (int, bool) {
	if na, ok := isNumber(a); ok {
		nb, ok := isNumber(b)
		if !ok {
			return 0, false
		}
		switch {
		case na < nb:
			return -1, true
		case na > nb:
			return 1, true
		}
		return 0, true
	}
	switch va := a.(type) {
	case string:
		vb, ok := b.(string)
		if !ok {
			return 0, false
		}
		return strings.Compare(va, vb), true
	case time.Time:
		vb, ok := b.(time.Time)
		if !ok {
			return 0, false
		}
		switch {
		case va.Before(vb):
			return -1, true
		case va.After(vb):
			return 1, true
		}
		return 0, true
	}
	return 0, false
}

// quoteField return the field quoted if needed.
func quoteField(field string) string {
	for i := 0; i < len(field); i++ {
		b := field[i]
		if (b >= '0' && b <= '9') ||
			(b >= 'a' && b <= 'z') ||
			(b >= 'A' && b <= 'Z') ||
			b == '$' || b == '.' || b == '_' || b == '-' {
			continue
		}
		return strconv.Quote(field)
	}
	return field
}

func valueString(v Value) string {
	switch t := v.(type) {
	case string:
		return strconv.Quote(t)
	case int:
		return strconv.Itoa(t)
	case int64:
		return strconv.FormatInt(t, 10)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case time.Time:
		return strconv.Quote(t.Format(time.RFC3339Nano))
	default:
		if s, ok := v.(fmt.Stringer); ok {
			return strconv.Quote(s.String())
		}
		b, _ := json.Marshal(v)
		return string(b)
	}
}

func valuesString(values []Value) string {
	s := make([]string, 0, len(values))
	for _, v := range values {
		s = append(s, valueString(v))
	}
	return "[" + strings.Join(s, ", ") + "]"
}

// getField gets the value of a given field by supporting sub-field path. A get
// on field.subfield is equivalent to payload["field"]["subfield"].
func getField(payload map[string]interface{}, name string) interface{} {
	val, _ := getFieldExist(payload, name)
	return val
}

func getFieldExist(payload map[string]interface{}, name string) (interface{}, bool) {
	path := strings.SplitN(name, ".", 2)
	value, found := payload[path[0]]
	if !found {
		return nil, false
	}
	if len(path) == 2 {
		if subPayload, ok := value.(map[string]interface{}); ok {
			return getFieldExist(subPayload, path[1])
		}
		return nil, false
	}
	return value, true
}
