package middleware

import (
	"net/http"
	"strings"

	"github.com/navidved/vitrine/internal/apperr"
	"github.com/navidved/vitrine/internal/auth"
	"github.com/navidved/vitrine/internal/response"
	"github.com/navidved/vitrine/internal/session"
)

// RequireSession returns middleware that validates a Bearer BFF token, resolves
// its session tracker, and injects the tracker into the request context.
func RequireSession(tokens *auth.TokenIssuer, manager *session.Manager) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				response.Unauthorized(w, "authorization header required")
				return
			}

			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || parts[0] != "Bearer" {
				response.Unauthorized(w, "invalid authorization header format")
				return
			}

			claims, err := tokens.Parse(parts[1])
			if err != nil {
				response.Unauthorized(w, "invalid or expired token")
				return
			}

			t, err := manager.Get(r.Context(), claims.SessionID)
			if err != nil {
				response.Fail(w, err)
				return
			}
			// The platform session may have ended behind our back (refresh
			// failure, remote sign-out); the token alone is not enough.
			if t.OwnerID() != claims.UserID {
				manager.Drop(r.Context(), claims.SessionID)
				response.Unauthorized(w, apperr.Message(session.ErrExpired))
				return
			}

			next.ServeHTTP(w, r.WithContext(session.WithTracker(r.Context(), t)))
		})
	}
}
