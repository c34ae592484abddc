// Package auth verifies bearer tokens and exposes the caller's identity
// through the request context.
//
// Tokens are HS256 JWTs issued by the identity provider; the subject claim
// carries the user id that the rest of the application treats as opaque.
package auth

import (
	"context"
	"net/http"
	"strings"

	jwt "github.com/golang-jwt/jwt/v5"
)

type ctxKey string

const currentUserKey ctxKey = "currentUser"

// UserID returns the authenticated caller's id and a "found?" flag.
func UserID(r *http.Request) (string, bool) {
	id, ok := r.Context().Value(currentUserKey).(string)
	return id, ok && id != ""
}

// WithUserID injects a user id into the request context. Exposed for tests
// that exercise handlers without going through the middleware.
func WithUserID(r *http.Request, id string) *http.Request {
	return r.WithContext(context.WithValue(r.Context(), currentUserKey, id))
}

// Middleware returns a chi-compatible middleware that rejects requests
// without a valid bearer token and stores the token subject in context.
func Middleware(secret []byte) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authz := r.Header.Get("Authorization")
			if !strings.HasPrefix(authz, "Bearer ") {
				http.Error(w, "missing token", http.StatusUnauthorized)
				return
			}
			tokenStr := strings.TrimPrefix(authz, "Bearer ")
			token, err := jwt.Parse(tokenStr, func(token *jwt.Token) (interface{}, error) {
				if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
					return nil, jwt.ErrSignatureInvalid
				}
				return secret, nil
			})
			if err != nil || !token.Valid {
				http.Error(w, "invalid token", http.StatusUnauthorized)
				return
			}
			claims, ok := token.Claims.(jwt.MapClaims)
			if !ok {
				http.Error(w, "invalid claims", http.StatusUnauthorized)
				return
			}
			sub, ok := claims["sub"].(string)
			if !ok || sub == "" {
				http.Error(w, "invalid subject", http.StatusUnauthorized)
				return
			}
			next.ServeHTTP(w, WithUserID(r, sub))
		})
	}
}

// Token mints an HS256 token for the given user id. Used by tests and by
// local tooling; production tokens come from the identity provider.
func Token(secret []byte, userID string) (string, error) {
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"sub": userID})
	return t.SignedString(secret)
}
