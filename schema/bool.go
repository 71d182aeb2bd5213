package schema

import "errors"

// Bool validates Boolean based values. The "true" and "false" strings are
// coerced to their Boolean value.
type Bool struct{}

// Validate validates and normalize Boolean based value.
func (v Bool) Validate(value interface{}) (interface{}, error) {
	switch b := value.(type) {
	case bool:
		return b, nil
	case string:
		switch b {
		case "true":
			return true, nil
		case "false":
			return false, nil
		}
	}
	return nil, errors.New("not a Boolean")
}
