package auth

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/isdelr/yellownote-be/internal/services"
	"github.com/rs/zerolog/log"
)

type contextKey string

// userIDKey is the context key for the session-resolved user id.
const userIDKey = contextKey("userID")

// SessionResolver maps a bearer token to the id of its user.
type SessionResolver interface {
	ResolveSession(ctx context.Context, token string) (string, error)
}

// WithUserID returns a copy of ctx carrying userID as the acting identity.
func WithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, userIDKey, userID)
}

// UserID is the only accessor for the acting identity of a request.
func UserID(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(userIDKey).(string)
	return id, ok && id != ""
}

// BearerToken extracts the token from an "Authorization: Bearer <token>" header.
func BearerToken(r *http.Request) string {
	scheme, token, ok := strings.Cut(strings.TrimSpace(r.Header.Get("Authorization")), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}

// SessionMiddleware rejects requests without an unexpired session and stores
// the session's user id in the request context.
func SessionMiddleware(sessions SessionResolver) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := BearerToken(r)
			if token == "" {
				unauthorized(w, "Unauthorized")
				return
			}

			userID, err := sessions.ResolveSession(r.Context(), token)
			if err != nil {
				if errors.Is(err, services.ErrUnauthorized) {
					unauthorized(w, "Invalid session")
					return
				}
				log.Error().Err(err).Msg("Failed to resolve session")
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusInternalServerError)
				json.NewEncoder(w).Encode(map[string]string{"error": "Internal Server Error"})
				return
			}

			next.ServeHTTP(w, r.WithContext(WithUserID(r.Context(), userID)))
		})
	}
}

func unauthorized(w http.ResponseWriter, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}
