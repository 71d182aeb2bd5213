package schema

import (
	"fmt"
	"sort"
	"strings"
)

// ErrorMap holds the validation messages of a payload, by field name.
type ErrorMap map[string][]interface{}

// Add records a message for field.
func (err ErrorMap) Add(field string, msg interface{}) {
	err[field] = append(err[field], msg)
}

// Fields returns the names of the invalid fields, sorted.
func (err ErrorMap) Fields() []string {
	names := make([]string, 0, len(err))
	for name := range err {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Error implements the built-in error interface. Fields are listed in
// lexical order with their messages, i.e.: "age: not an integer; name:
// required".
func (err ErrorMap) Error() string {
	parts := make([]string, 0, len(err))
	for _, name := range err.Fields() {
		msgs := make([]string, 0, len(err[name]))
		for _, m := range err[name] {
			msgs = append(msgs, fmt.Sprint(m))
		}
		parts = append(parts, name+": "+strings.Join(msgs, ", "))
	}
	return strings.Join(parts, "; ")
}
