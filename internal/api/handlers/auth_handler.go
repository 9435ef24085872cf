package handlers

import (
	"net/http"

	"github.com/isdelr/yellownote-be/internal/auth"
	"github.com/isdelr/yellownote-be/internal/services"
	"github.com/rs/zerolog/log"
)

// AuthHandler handles login, registration and logout.
type AuthHandler struct {
	users    services.UserServiceProvider
	sessions services.SessionServiceProvider
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(users services.UserServiceProvider, sessions services.SessionServiceProvider) *AuthHandler {
	return &AuthHandler{users: users, sessions: sessions}
}

// AuthPayload defines the structure for login requests.
type AuthPayload struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// RegisterPayload defines the structure for registration requests.
type RegisterPayload struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type registeredUser struct {
	ID    string  `json:"uuid"`
	Name  string  `json:"name"`
	Email *string `json:"email"`
}

// Login exchanges credentials for a session token.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var payload AuthPayload
	if err := readJSON(r, &payload); err != nil {
		WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	user, err := h.users.Authenticate(r.Context(), payload.Email, payload.Password)
	if err != nil {
		writeServiceError(w, r, err, "User not found")
		return
	}

	session, err := h.sessions.CreateSession(r.Context(), user.ID)
	if err != nil {
		writeServiceError(w, r, err, "User not found")
		return
	}

	log.Info().Str("user_id", user.ID).Msg("User logged in")
	writeJSON(w, http.StatusOK, map[string]string{"token": session.Token})
}

// Register handles new user registration.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var payload RegisterPayload
	if err := readJSON(r, &payload); err != nil {
		WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	user, err := h.users.Register(r.Context(), payload.Name, payload.Email, payload.Password)
	if err != nil {
		writeServiceError(w, r, err, "User not found")
		return
	}

	log.Info().Str("user_id", user.ID).Msg("User registered")
	writeJSON(w, http.StatusCreated, registeredUser{ID: user.ID, Name: user.Name, Email: user.Email})
}

// Logout deletes the session presented with the request.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if err := h.sessions.DeleteSession(r.Context(), auth.BearerToken(r)); err != nil {
		writeServiceError(w, r, err, "Session not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
