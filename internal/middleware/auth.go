package middleware

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/onnwee/venuefinder/internal/auth"
)

// TokenValidator resolves a bearer token to a user ID.
type TokenValidator interface {
	UserID(token string) (string, error)
}

// BearerToken extracts the token from an "Authorization: Bearer <token>"
// header. The scheme is matched case-insensitively.
func BearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}

// OptionalAuth attaches the authenticated user ID to the request context when
// a valid bearer token is present. Venue search works for anonymous callers,
// so a missing, malformed or expired token never fails the request; it only
// disables personalization. metrics may be nil.
func OptionalAuth(tokens TokenValidator, metrics *Metrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := BearerToken(r)
			if token == "" || tokens == nil {
				next.ServeHTTP(w, r)
				return
			}

			userID, err := tokens.UserID(token)
			if err != nil {
				reason := "invalid"
				if errors.Is(err, auth.ErrExpiredToken) {
					reason = "expired"
				}
				slog.DebugContext(r.Context(), "ignoring bearer token", "reason", reason)
				if metrics != nil {
					metrics.IncAuthRejected(reason)
				}
				next.ServeHTTP(w, r)
				return
			}

			next.ServeHTTP(w, r.WithContext(SetUserID(r.Context(), userID)))
		})
	}
}
