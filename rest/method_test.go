package rest_test

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/rs/halrest/entity"
	"github.com/rs/halrest/internal/testutil"
	"github.com/rs/halrest/mapper/mem"
	"github.com/rs/halrest/rest"
	"github.com/rs/halrest/schema"
)

// requestTest is a reusable type for testing requests. Best used in a map,
// E.g.:
//
//	tests := map[string]requestTest{...}
//	for n, tc := range tests {
//		tc := tc
//		t.Run(n, tc.Test)
//	}
type requestTest struct {
	Init           func() *requestTestVars
	NewRequest     func() (*http.Request, error)
	ResponseCode   int
	ResponseHeader http.Header // Only checks provided headers, not that all headers are equal.
	ResponseBody   string
	ExtraTest      requestCheckerFunc
}

type requestCheckerFunc func(*testing.T, *requestTestVars, *httptest.ResponseRecorder)

// requestTestVars provides test runtime variables.
type requestTestVars struct {
	Handler *rest.Handler // required
	Mapper  *mem.Mapper   // optional: may be used by ExtraTest function
}

// Test runs tt in parallel mode. It can be passed as a second parameter to
// Run(name, f) for the *testing.T type.
func (tt *requestTest) Test(t *testing.T) {
	t.Parallel()
	vars := tt.Init()
	router := chi.NewRouter()
	rest.Mount(router, vars.Handler)
	r, err := tt.NewRequest()
	if err != nil || r == nil {
		t.Errorf("tt.NewRequest failed: %s", err)
		return
	}
	w := httptest.NewRecorder()

	router.ServeHTTP(w, r)
	if tt.ResponseCode != w.Code {
		t.Errorf("Expected HTTP response code %d, got %d", tt.ResponseCode, w.Code)
	}
	header := w.Header()
	for k, evs := range tt.ResponseHeader {
		if eCnt, aCnt := len(evs), len(header[k]); eCnt != aCnt {
			t.Errorf("expected HTTP Header %q to have %d items, got %d items", k, eCnt, aCnt)
			continue
		}
		for i, ev := range evs {
			if av := header[k][i]; ev != av {
				t.Errorf("Expected HTTP header[%q][%d] to equal %q, got %q", k, i, ev, av)
			}
		}
	}
	b, _ := io.ReadAll(w.Body)
	if len(tt.ResponseBody) > 0 {
		testutil.JSONEq(t, []byte(tt.ResponseBody), b)
	} else if len(b) > 0 && tt.ExtraTest == nil {
		t.Errorf("Expected empty response body, got:\n%s", b)
	}

	if tt.ExtraTest != nil {
		w.Body.Write(b)
		tt.ExtraTest(t, vars, w)
	}
}

var userSchema = schema.Schema{
	Description: "A user",
	Fields: schema.Fields{
		"id": schema.IDField,
		"name": {
			Required:   true,
			Filterable: true,
			Sortable:   true,
			Validator:  &schema.String{MaxLen: 20},
		},
		"email": {
			Required:   true,
			Filterable: true,
			Validator:  &schema.String{Regexp: "^[^@]+@[^@]+$"},
		},
		"age": {
			Filterable: true,
			Sortable:   true,
			Validator:  &schema.Integer{},
		},
		"password": {
			Hidden:    true,
			Validator: &schema.Password{Cost: 4},
		},
	},
}

var userKind = entity.MustNewKind("user", &userSchema, "name", "email", "age", "password")

// newUsers returns a users resource over a memory mapper holding n users
// with ids u01 to u<n>.
func newUsers(n int) (*rest.MapperResource, *mem.Mapper) {
	m := mem.New(userKind)
	for i := 1; i <= n; i++ {
		e := entity.New(userKind)
		e.Exchange(map[string]interface{}{
			"id":    fmt.Sprintf("u%02d", i),
			"name":  fmt.Sprintf("user %d", i),
			"email": fmt.Sprintf("user%d@example.com", i),
			"age":   20 + i,
		})
		if _, err := m.Insert(context.Background(), e); err != nil {
			panic(err)
		}
	}
	return rest.NewMapperResource("users", m), m
}

func usersInit(n int) func() *requestTestVars {
	return func() *requestTestVars {
		res, m := newUsers(n)
		h, err := rest.NewHandler(res, "/users")
		if err != nil {
			panic(err)
		}
		return &requestTestVars{Handler: h, Mapper: m}
	}
}

func newRequest(method, target, body string) func() (*http.Request, error) {
	return func() (*http.Request, error) {
		var r io.Reader
		if body != "" {
			r = strings.NewReader(body)
		}
		return http.NewRequest(method, target, r)
	}
}
