// Package auth provides the credential checking middlewares guarding the REST
// handlers: HTTP basic authentication against a static list of clients and
// JWT bearer tokens.
//
// Failures are answered with a 401 problem details document and a
// WWW-Authenticate challenge.
package auth

import (
	"context"
	"crypto/subtle"
	"encoding/base64"
	"net/http"
	"strings"

	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/rs/halrest/rest"
)

// Errors reported by the middlewares.
var (
	ErrMissingHeader = &rest.Error{Code: http.StatusUnauthorized, Message: "Missing Authorization header"}
	ErrInvalidHeader = &rest.Error{Code: http.StatusUnauthorized, Message: "Invalid Authorization header"}
	ErrUnparsable    = &rest.Error{Code: http.StatusUnauthorized, Message: "Unable to parse Authorization header"}
	ErrInvalidParse  = &rest.Error{Code: http.StatusUnauthorized, Message: "Invalid Authorization header during parse"}
	ErrFailed        = &rest.Error{Code: http.StatusUnauthorized, Message: "Authorization failed"}
)

type key int

const identityKey key = 0

// NewContextWithIdentity stores the authenticated identity into ctx.
func NewContextWithIdentity(ctx context.Context, identity string) context.Context {
	return context.WithValue(ctx, identityKey, identity)
}

// IdentityFromContext retrieves the authenticated identity from ctx.
func IdentityFromContext(ctx context.Context) (string, bool) {
	identity, ok := ctx.Value(identityKey).(string)
	return identity, ok
}

// Basic authenticates requests with HTTP basic auth.
type Basic struct {
	// Clients maps identities to their credential, either in clear text or as
	// a bcrypt hash.
	Clients map[string]string
	// AllowedPaths lists the paths served without authentication.
	AllowedPaths []string
	// Realm is sent in the WWW-Authenticate challenge, "API" by default.
	Realm string
}

// Handler returns a middleware authenticating requests before handing them to
// next.
func (b Basic) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if allowed(r, b.AllowedPaths) {
			next.ServeHTTP(w, r)
			return
		}
		identity, err := b.authenticate(r.Header.Get("Authorization"))
		if err != nil {
			challenge(w, r, "Basic", b.Realm, err)
			return
		}
		next.ServeHTTP(w, r.WithContext(withIdentity(r.Context(), identity)))
	})
}

func (b Basic) authenticate(header string) (string, *rest.Error) {
	if header == "" {
		return "", ErrMissingHeader
	}
	if len(header) < 5 || !strings.EqualFold(header[:5], "basic") {
		return "", ErrInvalidHeader
	}
	raw, err := base64.StdEncoding.DecodeString(strings.TrimSpace(header[5:]))
	if err != nil || len(raw) == 0 {
		return "", ErrUnparsable
	}
	tokens := strings.Split(string(raw), ":")
	if len(tokens) != 2 {
		return "", ErrInvalidParse
	}
	identity, credential := tokens[0], tokens[1]
	stored, found := b.Clients[identity]
	if !found || !verify(stored, credential) {
		return "", ErrFailed
	}
	return identity, nil
}

// verify compares credential with the stored one, hashed or not.
func verify(stored, credential string) bool {
	if _, err := bcrypt.Cost([]byte(stored)); err == nil {
		return bcrypt.CompareHashAndPassword([]byte(stored), []byte(credential)) == nil
	}
	return subtle.ConstantTimeCompare([]byte(stored), []byte(credential)) == 1
}

func allowed(r *http.Request, paths []string) bool {
	for _, p := range paths {
		if r.URL.Path == p {
			return true
		}
	}
	return false
}

// withIdentity stores identity in the context and in the context logger.
func withIdentity(ctx context.Context, identity string) context.Context {
	zerolog.Ctx(ctx).UpdateContext(func(c zerolog.Context) zerolog.Context {
		return c.Str("identity", identity)
	})
	return NewContextWithIdentity(ctx, identity)
}

// challenge answers a 401 with the given error.
func challenge(w http.ResponseWriter, r *http.Request, scheme, realm string, err *rest.Error) {
	if realm == "" {
		realm = "API"
	}
	headers := http.Header{}
	headers.Set("WWW-Authenticate", scheme+` realm="`+realm+`"`)
	zerolog.Ctx(r.Context()).Debug().Str("scheme", scheme).Msg(err.Message)
	body := rest.DefaultResponseFormatter{}.FormatError(r.Context(), headers, err, r.Method == http.MethodHead)
	rest.DefaultResponseSender{}.Send(r.Context(), w, err.Code, headers, body)
}
