package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/jobtrail/extension-host/internal/auth"
)

type ctxKey string

const userKey ctxKey = "user"

// openPaths are reachable without a token: the login endpoints so clients
// can authenticate, and verify, whose handler reports token validity
// itself rather than having the middleware reject first.
var openPaths = map[string]bool{
	"/auth/register":      true,
	"/auth/login":         true,
	"/auth/session/login": true,
	"/auth/session":       true,
	"/auth/verify":        true,
}

// BearerAuth enforces bearer-token authentication.
//
// It checks the Authorization header for a valid signed token, excluding
// the login and cookie-session endpoints so clients can obtain one. On
// success the token's user ID is stored in the request context for
// downstream handlers.
func BearerAuth(secret []byte) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if openPaths[r.URL.Path] {
				next.ServeHTTP(w, r)
				return
			}

			header := r.Header.Get("Authorization")
			token, ok := strings.CutPrefix(header, "Bearer ")
			if !ok || token == "" {
				http.Error(w, `{"error":"missing bearer token"}`, http.StatusUnauthorized)
				return
			}

			userID, err := auth.GetUserIDFromToken(token, secret)
			if err != nil {
				http.Error(w, `{"error":"invalid or expired token"}`, http.StatusUnauthorized)
				return
			}

			ctx := context.WithValue(r.Context(), userKey, userID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// WithUserID returns a context carrying the authenticated user ID, as the
// middleware would set it.
func WithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, userKey, userID)
}

// GetUserIDFromContext extracts the authenticated user ID from the request
// context. Returns an empty string if not found.
func GetUserIDFromContext(ctx context.Context) string {
	val := ctx.Value(userKey)
	if s, ok := val.(string); ok {
		return s
	}
	return ""
}
