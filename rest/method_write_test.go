package rest_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rs/halrest/mapper"
	"github.com/rs/halrest/schema"
	"github.com/rs/halrest/schema/query"
)

type problem struct {
	Status   int                 `json:"status"`
	Detail   string              `json:"detail"`
	Messages map[string][]string `json:"messages"`
}

func decodeProblem(t *testing.T, w *httptest.ResponseRecorder) problem {
	t.Helper()
	p := problem{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &p))
	return p
}

func count(t *testing.T, m mapper.Mapper) int {
	t.Helper()
	n, err := m.Count(context.Background(), query.Predicate{})
	require.NoError(t, err)
	return n
}

func stored(t *testing.T, vars *requestTestVars, id string) map[string]interface{} {
	t.Helper()
	e, err := vars.Mapper.FindByID(context.Background(), id, mapper.Options{})
	require.NoError(t, err)
	if e == nil {
		return nil
	}
	return e.Map()
}

func TestHandlerPost(t *testing.T) {
	tests := map[string]requestTest{
		"created": {
			Init:         usersInit(0),
			NewRequest:   newRequest("POST", "/users", `{"name": "john", "email": "john@example.com", "age": 30, "password": "secret", "foo": "bar"}`),
			ResponseCode: http.StatusCreated,
			ResponseHeader: http.Header{
				"Content-Type": []string{"application/hal+json"},
			},
			ExtraTest: func(t *testing.T, vars *requestTestVars, w *httptest.ResponseRecorder) {
				doc := map[string]interface{}{}
				require.NoError(t, json.Unmarshal(w.Body.Bytes(), &doc))
				id, _ := doc["id"].(string)
				assert.Len(t, id, 20)
				assert.Equal(t, "/users/"+id, w.Header().Get("Location"))
				assert.Equal(t, "john", doc["name"])
				assert.Equal(t, float64(30), doc["age"])
				assert.NotContains(t, doc, "password")
				assert.NotContains(t, doc, "foo")
				assert.Equal(t, 1, count(t, vars.Mapper))
				row := stored(t, vars, id)
				require.NotNil(t, row)
				assert.True(t, schema.VerifyPassword(row["password"], []byte("secret")))
			},
		},
		"validation-failed": {
			Init:         usersInit(0),
			NewRequest:   newRequest("POST", "/users", `{"name": "john", "email": "john", "age": "thirty"}`),
			ResponseCode: http.StatusUnprocessableEntity,
			ResponseHeader: http.Header{
				"Content-Type": []string{"application/problem+json"},
			},
			ResponseBody: `{
				"type": "about:blank",
				"title": "Unprocessable Entity",
				"status": 422,
				"detail": "Unprocessable Entity",
				"messages": {
					"email": ["does not match ^[^@]+@[^@]+$"],
					"age": ["not an integer"]
				}
			}`,
			ExtraTest: func(t *testing.T, vars *requestTestVars, w *httptest.ResponseRecorder) {
				assert.Equal(t, 0, count(t, vars.Mapper))
			},
		},
		"read-only-id": {
			Init:         usersInit(0),
			NewRequest:   newRequest("POST", "/users", `{"id": "u01", "name": "john", "email": "john@example.com"}`),
			ResponseCode: http.StatusUnprocessableEntity,
			ExtraTest: func(t *testing.T, vars *requestTestVars, w *httptest.ResponseRecorder) {
				p := decodeProblem(t, w)
				assert.Equal(t, map[string][]string{"id": {"read-only"}}, p.Messages)
			},
		},
		"unparsable-body": {
			Init:         usersInit(0),
			NewRequest:   newRequest("POST", "/users", `not json`),
			ResponseCode: http.StatusUnprocessableEntity,
			ExtraTest: func(t *testing.T, vars *requestTestVars, w *httptest.ResponseRecorder) {
				p := decodeProblem(t, w)
				assert.Equal(t, map[string][]string{
					"name":  {"required"},
					"email": {"required"},
				}, p.Messages)
				assert.Equal(t, 0, count(t, vars.Mapper))
			},
		},
		"member": {
			Init:         usersInit(1),
			NewRequest:   newRequest("POST", "/users/u01", `{"name": "john", "email": "john@example.com"}`),
			ResponseCode: http.StatusMethodNotAllowed,
			ResponseBody: `{
				"type": "about:blank",
				"title": "Method Not Allowed",
				"status": 405,
				"detail": "Method Not Allowed for Entity"
			}`,
		},
	}
	for n, tc := range tests {
		tc := tc // capture range variable
		t.Run(n, tc.Test)
	}
}

func TestHandlerPatch(t *testing.T) {
	tests := map[string]requestTest{
		"partial": {
			Init:         usersInit(2),
			NewRequest:   newRequest("PATCH", "/users/u01", `{"name": "x"}`),
			ResponseCode: http.StatusOK,
			ResponseBody: `{
				"id": "u01",
				"name": "x",
				"email": "user1@example.com",
				"age": 21,
				"_links": {"self": {"href": "/users/u01"}}
			}`,
			ExtraTest: func(t *testing.T, vars *requestTestVars, w *httptest.ResponseRecorder) {
				assert.Equal(t, "x", stored(t, vars, "u01")["name"])
				assert.Equal(t, "user 2", stored(t, vars, "u02")["name"])
			},
		},
		"fields": {
			Init:         usersInit(1),
			NewRequest:   newRequest("PATCH", "/users/u01?fields=age", `{"age": 40}`),
			ResponseCode: http.StatusOK,
			ResponseBody: `{
				"id": "u01",
				"age": 40,
				"_links": {"self": {"href": "/users/u01?fields=age"}}
			}`,
		},
		"invalid": {
			Init:         usersInit(1),
			NewRequest:   newRequest("PATCH", "/users/u01", `{"email": "nope"}`),
			ResponseCode: http.StatusUnprocessableEntity,
			ExtraTest: func(t *testing.T, vars *requestTestVars, w *httptest.ResponseRecorder) {
				p := decodeProblem(t, w)
				assert.Equal(t, map[string][]string{"email": {"does not match ^[^@]+@[^@]+$"}}, p.Messages)
				assert.Equal(t, "user1@example.com", stored(t, vars, "u01")["email"])
			},
		},
		"not-found": {
			Init:         usersInit(1),
			NewRequest:   newRequest("PATCH", "/users/u99", `{"name": "x"}`),
			ResponseCode: http.StatusNotFound,
			ResponseBody: `{"type": "about:blank", "title": "Not Found", "status": 404, "detail": "Entity Not Found"}`,
		},
		"list": {
			Init:         usersInit(1),
			NewRequest:   newRequest("PATCH", "/users", `{"name": "x"}`),
			ResponseCode: http.StatusMethodNotAllowed,
			ResponseBody: `{"type": "about:blank", "title": "Method Not Allowed", "status": 405, "detail": "Method Not Allowed"}`,
		},
	}
	for n, tc := range tests {
		tc := tc // capture range variable
		t.Run(n, tc.Test)
	}
}

func TestHandlerPut(t *testing.T) {
	tests := map[string]requestTest{
		"replaced": {
			Init:         usersInit(1),
			NewRequest:   newRequest("PUT", "/users/u01", `{"name": "jane", "email": "jane@example.com"}`),
			ResponseCode: http.StatusOK,
			ResponseBody: `{
				"id": "u01",
				"name": "jane",
				"email": "jane@example.com",
				"age": 21,
				"_links": {"self": {"href": "/users/u01"}}
			}`,
		},
		"missing-required": {
			Init:         usersInit(1),
			NewRequest:   newRequest("PUT", "/users/u01", `{"name": "jane"}`),
			ResponseCode: http.StatusUnprocessableEntity,
			ExtraTest: func(t *testing.T, vars *requestTestVars, w *httptest.ResponseRecorder) {
				p := decodeProblem(t, w)
				assert.Equal(t, map[string][]string{"email": {"required"}}, p.Messages)
			},
		},
		"not-found": {
			Init:         usersInit(1),
			NewRequest:   newRequest("PUT", "/users/u99", `{"name": "jane", "email": "jane@example.com"}`),
			ResponseCode: http.StatusNotFound,
			ResponseBody: `{"type": "about:blank", "title": "Not Found", "status": 404, "detail": "Entity Not Found"}`,
		},
		"list": {
			Init:         usersInit(1),
			NewRequest:   newRequest("PUT", "/users", `{"name": "jane", "email": "jane@example.com"}`),
			ResponseCode: http.StatusMethodNotAllowed,
			ResponseBody: `{"type": "about:blank", "title": "Method Not Allowed", "status": 405, "detail": "Method Not Allowed"}`,
		},
	}
	for n, tc := range tests {
		tc := tc // capture range variable
		t.Run(n, tc.Test)
	}
}

func TestHandlerDelete(t *testing.T) {
	tests := map[string]requestTest{
		"deleted": {
			Init:         usersInit(2),
			NewRequest:   newRequest("DELETE", "/users/u01", ""),
			ResponseCode: http.StatusNoContent,
			ExtraTest: func(t *testing.T, vars *requestTestVars, w *httptest.ResponseRecorder) {
				assert.Equal(t, 0, w.Body.Len())
				assert.Empty(t, w.Header().Get("Content-Type"))
				assert.Nil(t, stored(t, vars, "u01"))
				assert.Equal(t, 1, count(t, vars.Mapper))
			},
		},
		"not-found": {
			Init:         usersInit(1),
			NewRequest:   newRequest("DELETE", "/users/u99", ""),
			ResponseCode: http.StatusNotFound,
			ResponseBody: `{"type": "about:blank", "title": "Not Found", "status": 404, "detail": "Entity Not Found"}`,
		},
		"list": {
			Init:         usersInit(1),
			NewRequest:   newRequest("DELETE", "/users", ""),
			ResponseCode: http.StatusMethodNotAllowed,
			ResponseBody: `{"type": "about:blank", "title": "Method Not Allowed", "status": 405, "detail": "Method Not Allowed"}`,
			ExtraTest: func(t *testing.T, vars *requestTestVars, w *httptest.ResponseRecorder) {
				assert.Equal(t, 1, count(t, vars.Mapper))
			},
		},
	}
	for n, tc := range tests {
		tc := tc // capture range variable
		t.Run(n, tc.Test)
	}
}

func TestHandlerHeadOptions(t *testing.T) {
	tests := map[string]requestTest{
		"head-list": {
			Init:         usersInit(3),
			NewRequest:   newRequest("HEAD", "/users", ""),
			ResponseCode: http.StatusOK,
			ResponseHeader: http.Header{
				"X-Total": []string{"3"},
			},
		},
		"head-filtered-list": {
			Init:         usersInit(3),
			NewRequest:   newRequest("HEAD", `/users?q=%7B%22name%22%3A%22user+2%22%7D`, ""),
			ResponseCode: http.StatusOK,
			ResponseHeader: http.Header{
				"X-Total": []string{"1"},
			},
		},
		"head-item": {
			Init:         usersInit(3),
			NewRequest:   newRequest("HEAD", "/users/u02", ""),
			ResponseCode: http.StatusOK,
		},
		"head-item-not-found": {
			Init:         usersInit(3),
			NewRequest:   newRequest("HEAD", "/users/u99", ""),
			ResponseCode: http.StatusNotFound,
		},
		"options-list": {
			Init:         usersInit(0),
			NewRequest:   newRequest("OPTIONS", "/users", ""),
			ResponseCode: http.StatusNoContent,
			ResponseHeader: http.Header{
				"Allow": []string{"GET, HEAD, OPTIONS, POST"},
			},
		},
		"options-item": {
			Init:         usersInit(0),
			NewRequest:   newRequest("OPTIONS", "/users/u01", ""),
			ResponseCode: http.StatusNoContent,
			ResponseHeader: http.Header{
				"Allow": []string{"DELETE, GET, HEAD, OPTIONS, PATCH, PUT"},
			},
		},
		"unknown-verb": {
			Init:         usersInit(1),
			NewRequest:   newRequest("TRACE", "/users/u01", ""),
			ResponseCode: http.StatusMethodNotAllowed,
			ResponseBody: `{"type": "about:blank", "title": "Method Not Allowed", "status": 405, "detail": "Method Not Allowed"}`,
		},
	}
	for n, tc := range tests {
		tc := tc // capture range variable
		t.Run(n, tc.Test)
	}
}
