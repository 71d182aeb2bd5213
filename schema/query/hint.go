package query

import (
	"errors"
	"fmt"
	"strings"
)

// Hint holds the query options carried by the h query-string parameter. Zero
// values mean "not set".
type Hint struct {
	Sort         string
	Order        string
	Page         int
	ItemsPerPage int
	Limit        int
	Offset       int
	Group        []string
	Having       Predicate
	Fields       []string
}

// ParseHint parses the JSON object carried by the h query-string parameter.
//
// Example:
//
//	{"sort": "name", "order": "DESC", "group": ["role"], "having": {"role": {"$ne": "guest"}}}
//
// Lists (group and fields) are accepted either as arrays of strings or as a
// single comma separated string.
func ParseHint(hint string) (Hint, error) {
	h := Hint{}
	if strings.TrimSpace(hint) == "" {
		return h, nil
	}
	obj, err := decodeObject([]byte(hint))
	if err != nil {
		return h, err
	}
	for key, value := range obj {
		switch key {
		case "sort":
			h.Sort, err = hintString(value)
		case "order":
			h.Order, err = hintString(value)
			h.Order = strings.ToUpper(h.Order)
		case "page":
			h.Page, err = hintInt(value)
		case "items_per_page":
			h.ItemsPerPage, err = hintInt(value)
		case "limit":
			h.Limit, err = hintInt(value)
		case "offset":
			h.Offset, err = hintInt(value)
		case "group":
			h.Group, err = hintList(value)
		case "fields":
			h.Fields, err = hintList(value)
		case "having":
			having, ok := value.(map[string]interface{})
			if !ok {
				err = errors.New("expected an object")
				break
			}
			h.Having, err = NewPredicate(having)
		default:
			// Unknown hints are ignored.
		}
		if err != nil {
			return Hint{}, fmt.Errorf("%s: %v", key, err)
		}
	}
	return h, nil
}

func hintString(v interface{}) (string, error) {
	s, ok := v.(string)
	if !ok {
		return "", errors.New("not a string")
	}
	return s, nil
}

func hintInt(v interface{}) (int, error) {
	i, ok := v.(int)
	if !ok || i < 0 {
		return 0, errors.New("not a positive integer")
	}
	return i, nil
}

func hintList(v interface{}) ([]string, error) {
	switch t := v.(type) {
	case string:
		return SplitList(t), nil
	case []interface{}:
		l := make([]string, 0, len(t))
		for _, item := range t {
			s, ok := item.(string)
			if !ok {
				return nil, errors.New("not a list of strings")
			}
			if s = strings.TrimSpace(s); s != "" {
				l = append(l, s)
			}
		}
		return l, nil
	}
	return nil, errors.New("not a list of strings")
}

// SplitList splits a comma separated list, dropping empty items.
func SplitList(s string) []string {
	l := []string{}
	for _, item := range strings.Split(s, ",") {
		if item = strings.TrimSpace(item); item != "" {
			l = append(l, item)
		}
	}
	return l
}
