package query

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
)

// MustParsePredicate parses a predicate expression and panics in case of error.
func MustParsePredicate(query string) Predicate {
	q, err := ParsePredicate(query)
	if err != nil {
		panic(fmt.Sprintf("query: ParsePredicate(%q): %v", query, err))
	}
	return q
}

// ParsePredicate parses the JSON object carried by the q query-string
// parameter.
//
// Examples:
//
//	{"name": "john"}
//	{"age": {"$gte": 18}, "name": {"$like": "jo%"}}
//	{"$or": [{"role": "admin"}, {"role": {"$in": ["owner", "editor"]}}]}
func ParsePredicate(predicate string) (Predicate, error) {
	if strings.TrimSpace(predicate) == "" {
		return Predicate{}, nil
	}
	q, err := decodeObject([]byte(predicate))
	if err != nil {
		return nil, err
	}
	return NewPredicate(q)
}

// NewPredicate builds a predicate from an already decoded query object.
// Fields are processed in lexical order so the resulting predicate is
// deterministic.
func NewPredicate(q map[string]interface{}) (Predicate, error) {
	labels := make([]string, 0, len(q))
	for label := range q {
		labels = append(labels, label)
	}
	sort.Strings(labels)
	p := Predicate{}
	for _, label := range labels {
		exp, err := parseExpression(label, q[label])
		if err != nil {
			return nil, err
		}
		p = append(p, exp)
	}
	return p, nil
}

func parseExpression(label string, value interface{}) (Expression, error) {
	switch label {
	case opAnd, opOr:
		subExps, err := parseSubExpressions(value)
		if err != nil {
			return nil, fmt.Errorf("%s: %v", label, err)
		}
		if len(subExps) < 1 {
			return nil, fmt.Errorf("%s: one expressions or more required", label)
		}
		if label == opAnd {
			and := And(subExps)
			return &and, nil
		}
		or := Or(subExps)
		return &or, nil
	}
	if strings.HasPrefix(label, "$") {
		return nil, fmt.Errorf("%s: invalid placement", label)
	}
	exp, err := parseCommand(label, value)
	if err != nil {
		return nil, fmt.Errorf("%s: %v", label, err)
	}
	return exp, nil
}

// parseSubExpressions parses [{exp}, {exp, exp}...].
func parseSubExpressions(value interface{}) ([]Expression, error) {
	list, ok := value.([]interface{})
	if !ok {
		return nil, errors.New("expected an array")
	}
	subExps := []Expression{}
	for _, item := range list {
		obj, ok := item.(map[string]interface{})
		if !ok {
			return nil, errors.New("expected an array of objects")
		}
		exps, err := NewPredicate(obj)
		if err != nil {
			return nil, err
		}
		switch len(exps) {
		case 0:
		case 1:
			subExps = append(subExps, exps[0])
		default:
			and := And(exps)
			subExps = append(subExps, &and)
		}
	}
	return subExps, nil
}

// parseCommand parses the value that comes after a field label: either a
// plain value (equality) or an object of operators.
func parseCommand(field string, value interface{}) (Expression, error) {
	ops, ok := value.(map[string]interface{})
	if !ok || !isOperatorObject(ops) {
		return &Equal{Field: field, Value: value}, nil
	}
	names := make([]string, 0, len(ops))
	for op := range ops {
		names = append(names, op)
	}
	sort.Strings(names)
	exps := make([]Expression, 0, len(names))
	for _, op := range names {
		exp, err := parseOperator(field, op, ops[op])
		if err != nil {
			return nil, fmt.Errorf("%s: %v", op, err)
		}
		exps = append(exps, exp)
	}
	if len(exps) == 1 {
		return exps[0], nil
	}
	and := And(exps)
	return &and, nil
}

func isOperatorObject(obj map[string]interface{}) bool {
	if len(obj) == 0 {
		return false
	}
	for k := range obj {
		if !strings.HasPrefix(k, "$") {
			return false
		}
	}
	return true
}

func parseOperator(field, op string, value interface{}) (Expression, error) {
	switch op {
	case opExists:
		b, ok := value.(bool)
		if !ok {
			return nil, errors.New("not a boolean")
		}
		if b {
			return &Exist{Field: field}, nil
		}
		return &NotExist{Field: field}, nil
	case opIn, opNotIn:
		list, ok := value.([]interface{})
		if !ok {
			return nil, errors.New("expected an array")
		}
		values := make([]Value, 0, len(list))
		for _, v := range list {
			values = append(values, v)
		}
		if op == opIn {
			return &In{Field: field, Values: values}, nil
		}
		return &NotIn{Field: field, Values: values}, nil
	case opNotEqual:
		return &NotEqual{Field: field, Value: value}, nil
	case opGreaterThan, opGreaterOrEqual, opLowerThan, opLowerOrEqual:
		if _, ok := isNumber(value); !ok {
			if _, ok := value.(string); !ok {
				return nil, errors.New("not a number or a string")
			}
		}
		switch op {
		case opGreaterThan:
			return &GreaterThan{Field: field, Value: value}, nil
		case opGreaterOrEqual:
			return &GreaterOrEqual{Field: field, Value: value}, nil
		case opLowerThan:
			return &LowerThan{Field: field, Value: value}, nil
		default:
			return &LowerOrEqual{Field: field, Value: value}, nil
		}
	case opLike:
		s, ok := value.(string)
		if !ok {
			return nil, errors.New("not a string")
		}
		return &Like{Field: field, Pattern: s, re: likeRegexp(s)}, nil
	}
	return nil, errors.New("unknown operator")
}

// decodeObject decodes a JSON object, turning numbers into int when they have
// no fractional part and into float64 otherwise.
func decodeObject(b []byte) (map[string]interface{}, error) {
	dec := json.NewDecoder(bytes.NewReader(b))
	dec.UseNumber()
	var v interface{}
	if err := dec.Decode(&v); err != nil {
		return nil, fmt.Errorf("invalid JSON: %v", err)
	}
	if dec.More() {
		return nil, errors.New("invalid JSON: trailing data")
	}
	obj, ok := normalizeNumbers(v).(map[string]interface{})
	if !ok {
		return nil, errors.New("expected a JSON object")
	}
	return obj, nil
}

func normalizeNumbers(v interface{}) interface{} {
	switch t := v.(type) {
	case json.Number:
		if i, err := t.Int64(); err == nil {
			return int(i)
		}
		f, _ := t.Float64()
		return f
	case []interface{}:
		for i := range t {
			t[i] = normalizeNumbers(t[i])
		}
	case map[string]interface{}:
		for k := range t {
			t[k] = normalizeNumbers(t[k])
		}
	}
	return v
}
