package mem

import (
	"time"

	"github.com/rs/halrest/schema"
)

// sortableRows is a row slice implementing sort.Interface.
type sortableRows struct {
	field    string
	reversed bool
	less     schema.LessFunc
	rows     []map[string]interface{}
}

func (s sortableRows) Len() int {
	return len(s.rows)
}

func (s sortableRows) Swap(i, j int) {
	s.rows[i], s.rows[j] = s.rows[j], s.rows[i]
}

func (s sortableRows) Less(i, j int) bool {
	a, b := s.rows[i][s.field], s.rows[j][s.field]
	if s.reversed {
		a, b = b, a
	}
	return s.less(a, b)
}

// lessFunc returns the comparator of field: the one of its validator when it
// implements schema.FieldComparator, a generic one otherwise.
func (m *Mapper) lessFunc(field string) schema.LessFunc {
	if s := m.kind.Schema(); s != nil {
		if f := s.GetField(field); f != nil {
			if c, ok := f.Validator.(schema.FieldComparator); ok {
				return c.LessFunc()
			}
		}
	}
	return less
}

// less orders nil values first, then numbers, strings, booleans and times
// with their natural order. Values of mismatching types are not ordered.
func less(a, b interface{}) bool {
	if a == nil || b == nil {
		return a == nil && b != nil
	}
	switch t := a.(type) {
	case int:
		switch o := b.(type) {
		case int:
			return t < o
		case float64:
			return float64(t) < o
		}
	case float64:
		switch o := b.(type) {
		case int:
			return t < float64(o)
		case float64:
			return t < o
		}
	case string:
		if o, ok := b.(string); ok {
			return t < o
		}
	case bool:
		if o, ok := b.(bool); ok {
			return !t && o
		}
	case time.Time:
		if o, ok := b.(time.Time); ok {
			return t.Before(o)
		}
	}
	return false
}
