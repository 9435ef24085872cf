package auth

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/isdelr/yellownote-be/internal/services"
	"github.com/stretchr/testify/assert"
)

type fakeResolver map[string]string

func (f fakeResolver) ResolveSession(_ context.Context, token string) (string, error) {
	if token == "broken" {
		return "", errors.New("database is gone")
	}
	if id, ok := f[token]; ok {
		return id, nil
	}
	return "", services.ErrUnauthorized
}

func TestBearerToken(t *testing.T) {
	tests := []struct {
		header string
		want   string
	}{
		{"Bearer abc", "abc"},
		{"bearer abc", "abc"},
		{"  Bearer   abc  ", "abc"},
		{"abc", ""},
		{"Basic abc", ""},
		{"", ""},
	}
	for _, tt := range tests {
		r := httptest.NewRequest(http.MethodGet, "/", nil)
		if tt.header != "" {
			r.Header.Set("Authorization", tt.header)
		}
		assert.Equal(t, tt.want, BearerToken(r), "header %q", tt.header)
	}
}

func TestSessionMiddleware(t *testing.T) {
	resolver := fakeResolver{"good-token": "user-1"}

	var seen string
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, ok := UserID(r.Context())
		if !ok {
			t.Error("expected user id in context")
		}
		seen = id
		w.WriteHeader(http.StatusOK)
	})

	tests := []struct {
		name           string
		header         string
		expectedStatus int
		expectedBody   string
	}{
		{"valid session", "Bearer good-token", http.StatusOK, ""},
		{"missing header", "", http.StatusUnauthorized, `{"error":"Unauthorized"}`},
		{"raw user id is not a credential", "user-1", http.StatusUnauthorized, `{"error":"Unauthorized"}`},
		{"unknown token", "Bearer nope", http.StatusUnauthorized, `{"error":"Invalid session"}`},
		{"resolver failure", "Bearer broken", http.StatusInternalServerError, `{"error":"Internal Server Error"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			seen = ""
			req := httptest.NewRequest(http.MethodGet, "/api/user/me", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rr := httptest.NewRecorder()

			SessionMiddleware(resolver)(next).ServeHTTP(rr, req)

			assert.Equal(t, tt.expectedStatus, rr.Code)
			if tt.expectedBody != "" {
				assert.JSONEq(t, tt.expectedBody, rr.Body.String())
			}
			if tt.expectedStatus == http.StatusOK {
				assert.Equal(t, "user-1", seen)
			} else {
				assert.Empty(t, seen, "next handler must not run")
			}
		})
	}
}

func TestUserIDAbsent(t *testing.T) {
	_, ok := UserID(context.Background())
	assert.False(t, ok)

	_, ok = UserID(WithUserID(context.Background(), ""))
	assert.False(t, ok)
}
