// Package entity defines the records exchanged between the REST layer and
// the mappers: entities of a given kind and paginated collections of them.
package entity

import (
	"errors"
	"fmt"
)

// ErrUnknownField is returned when setting an attribute the kind does not
// declare.
var ErrUnknownField = errors.New("unknown field")

// Entity is a single record of a Kind. Entities are created per request and
// must not be shared between goroutines.
type Entity struct {
	kind   *Kind
	values map[string]interface{}
	fields []string
}

// New creates an empty entity of kind k.
func New(k *Kind) *Entity {
	return &Entity{
		kind:   k,
		values: map[string]interface{}{},
	}
}

// Kind returns the entity kind.
func (e *Entity) Kind() *Kind {
	return e.kind
}

// Get returns the value of the named attribute and whether it is set.
func (e *Entity) Get(name string) (interface{}, bool) {
	v, found := e.values[name]
	return v, found
}

// Set sets a declared attribute.
func (e *Entity) Set(name string, value interface{}) error {
	if !e.kind.Declares(name) {
		return fmt.Errorf("%w: %s", ErrUnknownField, name)
	}
	e.values[name] = value
	return nil
}

// ID returns the entity identifier or nil when not yet persisted.
func (e *Entity) ID() interface{} {
	return e.values[IDField]
}

// Exchange assigns every declared attribute found in data. Keys the kind does
// not declare are ignored.
func (e *Entity) Exchange(data map[string]interface{}) {
	for name, value := range data {
		if e.kind.Declares(name) {
			e.values[name] = value
		}
	}
}

// SetFields restricts the attributes returned by Attributes to the given
// fields. The identifier is always included and undeclared names are
// ignored. An empty list removes the projection.
func (e *Entity) SetFields(fields []string) {
	if len(fields) == 0 {
		e.fields = nil
		return
	}
	seen := map[string]bool{IDField: true}
	e.fields = []string{IDField}
	for _, f := range fields {
		if seen[f] || !e.kind.Declares(f) {
			continue
		}
		seen[f] = true
		e.fields = append(e.fields, f)
	}
}

// Fields returns the current projection, nil if none is set.
func (e *Entity) Fields() []string {
	return e.fields
}

// Attributes returns the projected attributes in declaration order (or
// projection order when one is set). Hidden fields are never returned and
// declared fields without a value are returned as nil.
func (e *Entity) Attributes() Attributes {
	names := e.fields
	if names == nil {
		names = e.kind.attrs
	}
	attrs := make(Attributes, 0, len(names))
	for _, name := range names {
		if e.kind.hidden(name) {
			continue
		}
		attrs = append(attrs, Attribute{Name: name, Value: e.values[name]})
	}
	return attrs
}

// Map returns a copy of every set attribute, including hidden ones and
// regardless of the projection.
func (e *Entity) Map() map[string]interface{} {
	m := make(map[string]interface{}, len(e.values))
	for k, v := range e.values {
		m[k] = v
	}
	return m
}

// FilterData assigns data to the entity and returns the resulting projected
// attributes, dropping anything the kind does not declare.
func (e *Entity) FilterData(data map[string]interface{}) map[string]interface{} {
	e.Exchange(data)
	return e.Attributes().Map()
}

// PrepareForStorage returns the data to hand to a storage engine. When data
// is empty, the full set of attributes of the entity is used.
func (e *Entity) PrepareForStorage(data map[string]interface{}) map[string]interface{} {
	if len(data) == 0 {
		return e.Map()
	}
	return data
}
