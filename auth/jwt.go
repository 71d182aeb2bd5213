package auth

import (
	"context"
	"fmt"
	"net/http"

	"github.com/dgrijalva/jwt-go"
	"github.com/dgrijalva/jwt-go/request"
)

type claimsKey struct{}

// ClaimsFromContext retrieves the claims of the token authenticated by JWT.
func ClaimsFromContext(ctx context.Context) (jwt.MapClaims, bool) {
	claims, ok := ctx.Value(claimsKey{}).(jwt.MapClaims)
	return claims, ok
}

// JWT authenticates requests carrying a HMAC signed bearer token. The sub
// claim is used as identity.
type JWT struct {
	// Secret is the HMAC key.
	Secret []byte
	// AllowedPaths lists the paths served without authentication.
	AllowedPaths []string
	// Realm is sent in the WWW-Authenticate challenge, "API" by default.
	Realm string
}

func (j JWT) keyFunc(token *jwt.Token) (interface{}, error) {
	if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
		return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
	}
	return j.Secret, nil
}

// Handler returns a middleware authenticating requests before handing them to
// next.
func (j JWT) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if allowed(r, j.AllowedPaths) {
			next.ServeHTTP(w, r)
			return
		}
		token, err := request.ParseFromRequest(r, request.OAuth2Extractor, j.keyFunc)
		if err == request.ErrNoTokenInRequest {
			challenge(w, r, "Bearer", j.Realm, ErrMissingHeader)
			return
		}
		if err != nil || !token.Valid {
			challenge(w, r, "Bearer", j.Realm, ErrFailed)
			return
		}
		claims, ok := token.Claims.(jwt.MapClaims)
		if !ok {
			challenge(w, r, "Bearer", j.Realm, ErrInvalidParse)
			return
		}
		ctx := context.WithValue(r.Context(), claimsKey{}, claims)
		if sub, ok := claims["sub"].(string); ok && sub != "" {
			ctx = withIdentity(ctx, sub)
		}
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
