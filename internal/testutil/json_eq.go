// Package testutil holds assertions shared by the HTTP level tests.
package testutil

import (
	"bytes"
	"encoding/json"
	"reflect"
	"testing"
)

func decode(b []byte) (interface{}, error) {
	var v interface{}
	d := json.NewDecoder(bytes.NewReader(b))
	d.UseNumber()
	if err := d.Decode(&v); err != nil {
		return nil, err
	}
	return v, nil
}

// JSONEq reports an error to t unless expect and actual hold equivalent JSON
// documents. Numbers are compared by their literal representation. Returns
// true if no error was reported.
func JSONEq(t testing.TB, expect, actual []byte) bool {
	t.Helper()
	ev, err := decode(expect)
	if err != nil {
		t.Errorf("invalid expected JSON %q: %s", expect, err)
		return false
	}
	av, err := decode(actual)
	if err != nil {
		t.Errorf("invalid JSON %q: %s", actual, err)
		return false
	}
	if !reflect.DeepEqual(ev, av) {
		t.Errorf("JSON not equal\nexpect: `%s`\nactual: `%s`", expect, actual)
		return false
	}
	return true
}

// KeysInOrder reports an error to t unless the top level object in b lists
// exactly the given keys, in that order.
func KeysInOrder(t testing.TB, b []byte, keys ...string) bool {
	t.Helper()
	d := json.NewDecoder(bytes.NewReader(b))
	if tok, err := d.Token(); err != nil || tok != json.Delim('{') {
		t.Errorf("not a JSON object: %q", b)
		return false
	}
	var got []string
	for d.More() {
		tok, err := d.Token()
		if err != nil {
			t.Errorf("invalid JSON %q: %s", b, err)
			return false
		}
		got = append(got, tok.(string))
		var skip json.RawMessage
		if err := d.Decode(&skip); err != nil {
			t.Errorf("invalid JSON %q: %s", b, err)
			return false
		}
	}
	if !reflect.DeepEqual(keys, got) {
		t.Errorf("keys not in order\nexpect: %q\nactual: %q", keys, got)
		return false
	}
	return true
}
