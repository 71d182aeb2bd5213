package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rs/halrest/config"
)

func TestServer(t *testing.T) {
	conf := config.Default()
	conf.Auth = config.Auth{
		Mode:         "basic",
		Clients:      map[string]string{"admin": "secret"},
		AllowedPaths: []string{"/api/ping"},
	}
	conf.CORS.AllowedOrigins = []string{"*"}
	conf.Breaker.Enabled = true
	require.NoError(t, conf.Validate())

	logs := &bytes.Buffer{}
	h, closer, err := newServer(context.Background(), conf, zerolog.New(logs))
	require.NoError(t, err)
	defer closer()

	do := func(method, target, body string, authorized bool) *httptest.ResponseRecorder {
		r := httptest.NewRequest(method, target, strings.NewReader(body))
		if authorized {
			r.SetBasicAuth("admin", "secret")
		}
		w := httptest.NewRecorder()
		h.ServeHTTP(w, r)
		return w
	}

	w := do("GET", "/api/ping", "", false)
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = do("GET", "/api/users", "", false)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, `Basic realm="API"`, w.Header().Get("WWW-Authenticate"))

	w = do("POST", "/api/users", `{"name": "John", "email": "john@example.com", "password": "secret"}`, true)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	created := map[string]interface{}{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	assert.NotContains(t, created, "password")
	assert.Contains(t, created, "created")
	assert.Equal(t, "/api/users/"+created["id"].(string), w.Header().Get("Location"))
	assert.NotEmpty(t, w.Header().Get("Request-Id"))

	w = do("GET", "/api/users?fields=name", "", true)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "1", w.Header().Get("X-Total"))
	assert.Contains(t, w.Body.String(), `"name":"John"`)
	assert.NotContains(t, w.Body.String(), `"email"`)

	w = do("POST", "/api/users", `{"name": "Jane"}`, true)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

	w = do("OPTIONS", "/api/users", "", true)
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "GET, HEAD, OPTIONS, POST", w.Header().Get("Allow"))

	assert.Contains(t, logs.String(), `"method":"POST"`)
}

func TestServerInvalidStorage(t *testing.T) {
	conf := config.Default()
	conf.Storage = config.Storage{Driver: "mongo", DSN: "x", Table: "users"}
	_, _, err := newServer(context.Background(), conf, zerolog.Nop())
	assert.EqualError(t, err, `sqlmapper: unsupported driver "mongo"`)
}
