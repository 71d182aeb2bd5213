package rest

import (
	"bytes"
	"encoding/json"
	"net/http"

	"github.com/rs/halrest/entity"
)

// decodeBody parses body as a JSON object. Anything else, an empty or
// malformed body included, gives an empty map.
func decodeBody(body []byte) map[string]interface{} {
	data := map[string]interface{}{}
	if len(bytes.TrimSpace(body)) == 0 {
		return data
	}
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()
	if err := dec.Decode(&data); err != nil || data == nil {
		return map[string]interface{}{}
	}
	return data
}

// validateBody validates and coerces the body of a POST, PUT or PATCH
// request against the schema of k.
//
// PATCH bodies are validated on their own keys only. The returned map only
// holds keys present in the submitted body, so defaults are never
// reintroduced.
func validateBody(k *entity.Kind, method string, body []byte) (map[string]interface{}, error) {
	data := decodeBody(body)
	s := k.Schema()
	if s == nil {
		return data, nil
	}
	var group []string
	if method == http.MethodPatch {
		group = make([]string, 0, len(data))
		for key := range data {
			group = append(group, key)
		}
	}
	doc, errs := s.Validate(data, group)
	if len(errs) > 0 {
		return nil, NewValidationError(errs)
	}
	parsed := make(map[string]interface{}, len(data))
	for key, value := range doc {
		if _, found := data[key]; found {
			parsed[key] = value
		}
	}
	return parsed, nil
}
