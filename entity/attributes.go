package entity

import (
	"bytes"
	"encoding/json"
)

// Attribute is a single name/value pair.
type Attribute struct {
	Name  string
	Value interface{}
}

// Attributes is an ordered list of attributes. It serializes as a JSON
// object with keys in list order.
type Attributes []Attribute

// Get returns the value of the named attribute.
func (a Attributes) Get(name string) (interface{}, bool) {
	for _, attr := range a {
		if attr.Name == name {
			return attr.Value, true
		}
	}
	return nil, false
}

// Keys returns the attribute names in order.
func (a Attributes) Keys() []string {
	keys := make([]string, 0, len(a))
	for _, attr := range a {
		keys = append(keys, attr.Name)
	}
	return keys
}

// Map returns the attributes as an unordered map.
func (a Attributes) Map() map[string]interface{} {
	m := make(map[string]interface{}, len(a))
	for _, attr := range a {
		m[attr.Name] = attr.Value
	}
	return m
}

// MarshalJSON implements json.Marshaler.
func (a Attributes) MarshalJSON() ([]byte, error) {
	buf := &bytes.Buffer{}
	buf.WriteByte('{')
	for i, attr := range a {
		if i > 0 {
			buf.WriteByte(',')
		}
		k, err := json.Marshal(attr.Name)
		if err != nil {
			return nil, err
		}
		buf.Write(k)
		buf.WriteByte(':')
		v, err := json.Marshal(attr.Value)
		if err != nil {
			return nil, err
		}
		buf.Write(v)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}
