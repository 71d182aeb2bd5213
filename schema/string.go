package schema

import (
	"errors"
	"fmt"
	"regexp"
	"slices"
	"strings"
)

// String validates string values.
type String struct {
	// Regexp, when set, must match the whole value.
	Regexp string
	// Allowed restricts the value to an enumeration.
	Allowed []string
	MinLen  int
	MaxLen  int

	re *regexp.Regexp
}

// Compile implements Compiler.
func (v *String) Compile() error {
	if v.Regexp == "" {
		return nil
	}
	re, err := regexp.Compile(v.Regexp)
	if err != nil {
		return fmt.Errorf("invalid regexp: %s", err)
	}
	v.re = re
	return nil
}

// Validate implements FieldValidator.
func (v String) Validate(value interface{}) (interface{}, error) {
	s, ok := value.(string)
	if !ok {
		return nil, errors.New("not a string")
	}
	switch l := len(s); {
	case l < v.MinLen:
		return nil, fmt.Errorf("is shorter than %d", v.MinLen)
	case v.MaxLen > 0 && l > v.MaxLen:
		return nil, fmt.Errorf("is longer than %d", v.MaxLen)
	}
	if len(v.Allowed) > 0 && !slices.Contains(v.Allowed, s) {
		return nil, fmt.Errorf("not one of [%s]", strings.Join(v.Allowed, ", "))
	}
	if v.Regexp != "" {
		if v.re == nil {
			if err := v.Compile(); err != nil {
				return nil, err
			}
		}
		if !v.re.MatchString(s) {
			return nil, fmt.Errorf("does not match %s", v.Regexp)
		}
	}
	return s, nil
}
