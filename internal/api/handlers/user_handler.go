package handlers

import (
	"net/http"

	"github.com/isdelr/yellownote-be/internal/models"
	"github.com/isdelr/yellownote-be/internal/services"
)

// UserHandler handles the current user's profile.
type UserHandler struct {
	service services.UserServiceProvider
}

// NewUserHandler creates a new UserHandler.
func NewUserHandler(service services.UserServiceProvider) *UserHandler {
	return &UserHandler{service: service}
}

// GetMe returns the acting user's profile.
func (h *UserHandler) GetMe(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	user, err := h.service.GetUserByID(r.Context(), userID)
	if err != nil {
		writeServiceError(w, r, err, "User not found")
		return
	}
	writeJSON(w, http.StatusOK, user)
}

// UpdateMe applies a partial profile update.
func (h *UserHandler) UpdateMe(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	var patch models.ProfilePatch
	if err := readJSON(r, &patch); err != nil {
		WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	user, err := h.service.UpdateProfile(r.Context(), userID, patch)
	if err != nil {
		writeServiceError(w, r, err, "User not found")
		return
	}
	writeJSON(w, http.StatusOK, user)
}
