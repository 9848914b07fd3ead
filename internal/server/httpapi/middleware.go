package httpapi

import (
	"context"
	"net/http"
	"strings"

	"github.com/vikinglab/contentvault/internal/server/auth"
)

type ctxKey string

const usernameKey ctxKey = "username"

// GetUsername returns the authenticated username placed in the context by
// Authenticator. The empty string means the request never passed through it.
func GetUsername(ctx context.Context) string {
	username, _ := ctx.Value(usernameKey).(string)
	return username
}

// Authenticator verifies the Bearer token and stores the username in the
// request context for the handlers downstream.
func Authenticator(secretKey []byte) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			token, ok := strings.CutPrefix(header, "Bearer ")
			if !ok || token == "" {
				writeError(w, http.StatusUnauthorized, "unauthorized", "missing bearer token")
				return
			}

			username, err := auth.GetUsernameFromToken(token, secretKey)
			if err != nil {
				writeError(w, http.StatusUnauthorized, "unauthorized", "invalid or expired token")
				return
			}

			ctx := context.WithValue(r.Context(), usernameKey, username)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
