package rest_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/rs/halrest/rest"
)

func TestDefaultResponseSender(t *testing.T) {
	s := rest.DefaultResponseSender{}

	w := httptest.NewRecorder()
	s.Send(context.Background(), w, http.StatusNoContent, http.Header{"Allow": {"GET"}}, nil)
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "GET", w.Header().Get("Allow"))
	assert.Empty(t, w.Header().Get("Content-Type"))
	assert.Equal(t, 0, w.Body.Len())

	w = httptest.NewRecorder()
	s.Send(context.Background(), w, http.StatusOK, http.Header{}, map[string]interface{}{"foo": "bar"})
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
	assert.Equal(t, `{"foo":"bar"}`, w.Body.String())

	w = httptest.NewRecorder()
	s.Send(context.Background(), w, http.StatusOK, http.Header{"Content-Type": {rest.ContentTypeHAL}}, map[string]interface{}{})
	assert.Equal(t, rest.ContentTypeHAL, w.Header().Get("Content-Type"))

	w = httptest.NewRecorder()
	s.Send(context.Background(), w, http.StatusOK, http.Header{}, func() {})
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, rest.ContentTypeProblem, w.Header().Get("Content-Type"))
}
