package entity

import (
	"errors"
	"fmt"
	"sort"

	"github.com/rs/halrest/schema"
)

// IDField is the name of the identifier attribute every kind carries.
const IDField = "id"

// Kind describes a family of entities: its name, its ordered list of declared
// attributes and the optional schema used to validate incoming data. A Kind is
// immutable once created and can be shared by concurrent requests.
type Kind struct {
	name   string
	attrs  []string
	index  map[string]int
	schema *schema.Schema
}

// NewKind creates a kind named name. The declared attributes are given by
// fields, in order; the identifier is always implied as the first one. When
// fields is empty and s is not nil, the schema fields are used in lexical
// order. Every listed field must be declared by the schema if one is given.
func NewKind(name string, s *schema.Schema, fields ...string) (*Kind, error) {
	if name == "" {
		return nil, errors.New("entity: missing kind name")
	}
	if s != nil {
		if err := s.Compile(); err != nil {
			return nil, fmt.Errorf("entity: %s: schema compilation error: %v", name, err)
		}
		if len(fields) == 0 {
			for f := range s.Fields {
				fields = append(fields, f)
			}
			sort.Strings(fields)
		}
	}
	k := &Kind{
		name:   name,
		attrs:  []string{IDField},
		index:  map[string]int{IDField: 0},
		schema: s,
	}
	for _, f := range fields {
		if _, dup := k.index[f]; dup {
			continue
		}
		if s != nil && s.GetField(f) == nil {
			return nil, fmt.Errorf("entity: %s: field %q not declared in schema", name, f)
		}
		k.index[f] = len(k.attrs)
		k.attrs = append(k.attrs, f)
	}
	return k, nil
}

// MustNewKind is like NewKind but panics on error.
func MustNewKind(name string, s *schema.Schema, fields ...string) *Kind {
	k, err := NewKind(name, s, fields...)
	if err != nil {
		panic(err)
	}
	return k
}

// Name returns the kind name. It is used as the embedded key of collections.
func (k *Kind) Name() string {
	return k.name
}

// Schema returns the kind's schema or nil if the kind has no validation.
func (k *Kind) Schema() *schema.Schema {
	return k.schema
}

// Attributes returns a copy of the declared attribute names, identifier first.
func (k *Kind) Attributes() []string {
	a := make([]string, len(k.attrs))
	copy(a, k.attrs)
	return a
}

// Declares returns true if name is a declared attribute of the kind.
func (k *Kind) Declares(name string) bool {
	_, found := k.index[name]
	return found
}

func (k *Kind) hidden(name string) bool {
	if k.schema == nil {
		return false
	}
	if f := k.schema.GetField(name); f != nil {
		return f.Hidden
	}
	return false
}
