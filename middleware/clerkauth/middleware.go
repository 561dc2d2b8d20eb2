// Package clerkauth provides HTTP middleware that authenticates requests
// with Clerk session tokens.
package clerkauth

import (
	"context"
	"net/http"
	"strings"
)

type contextKey struct{}

var userIDKey contextKey

// TokenVerifier validates a session token and returns the user ID it
// was issued for.
type TokenVerifier interface {
	Verify(ctx context.Context, token string) (string, error)
}

// TokenExtractor extracts the raw session token from an HTTP request.
// Return empty string if the request carries no token.
type TokenExtractor func(r *http.Request) string

// Config holds middleware configuration
type Config struct {
	// Verifier validates session tokens (required)
	Verifier TokenVerifier

	// GetToken extracts the token from the request
	// Default: Authorization bearer token
	GetToken TokenExtractor

	// OnUnauthorized is called when the token is missing or invalid
	// If nil, returns 401 Unauthorized
	OnUnauthorized func(w http.ResponseWriter, r *http.Request, err error)
}

// BearerToken extracts a token from the Authorization header.
func BearerToken(r *http.Request) string {
	auth := r.Header.Get("Authorization")
	if auth == "" {
		return ""
	}
	const prefix = "Bearer "
	if len(auth) > len(prefix) && strings.EqualFold(auth[:len(prefix)], prefix) {
		return auth[len(prefix):]
	}
	return ""
}

// Middleware creates an HTTP middleware that authenticates requests and
// stores the resolved user ID in the request context.
func Middleware(config Config) func(http.Handler) http.Handler {
	if config.GetToken == nil {
		config.GetToken = BearerToken
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := config.GetToken(r)
			if token == "" {
				unauthorized(config, w, r, nil)
				return
			}

			userID, err := config.Verifier.Verify(r.Context(), token)
			if err != nil {
				unauthorized(config, w, r, err)
				return
			}

			ctx := context.WithValue(r.Context(), userIDKey, userID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func unauthorized(config Config, w http.ResponseWriter, r *http.Request, err error) {
	if config.OnUnauthorized != nil {
		config.OnUnauthorized(w, r, err)
		return
	}
	http.Error(w, "Unauthorized", http.StatusUnauthorized)
}

// UserIDFromContext returns the authenticated user ID stored by the
// middleware, or empty string if the request was not authenticated.
func UserIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(userIDKey).(string)
	return id
}
