package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/videotube/backend/internal/auth"
	"github.com/videotube/backend/internal/logging"
	"github.com/videotube/backend/internal/models"
)

// Authenticator resolves a bearer access token to the user it was issued to.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (models.User, error)
}

// AccessTokenFromRequest extracts the access token from the accessToken
// cookie, falling back to the Authorization header for non-browser clients.
func AccessTokenFromRequest(r *http.Request) string {
	if cookie, err := r.Cookie("accessToken"); err == nil && cookie.Value != "" {
		return cookie.Value
	}
	header := r.Header.Get("Authorization")
	if token, ok := strings.CutPrefix(header, "Bearer "); ok {
		return strings.TrimSpace(token)
	}
	return ""
}

// RequireAuth rejects requests without a valid access token and stores the
// authenticated user on the request context for downstream handlers.
func RequireAuth(authenticator Authenticator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := AccessTokenFromRequest(r)
			if token == "" {
				unauthorized(w, "missing access token")
				return
			}

			user, err := authenticator.Authenticate(r.Context(), token)
			if err != nil {
				logging.FromContext(r.Context()).Debug("access token rejected", "error", err)
				unauthorized(w, "invalid or expired access token")
				return
			}

			next.ServeHTTP(w, r.WithContext(auth.WithUser(r.Context(), user)))
		})
	}
}

func unauthorized(w http.ResponseWriter, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_, _ = w.Write([]byte(`{"success":false,"message":"` + message + `"}`))
}
