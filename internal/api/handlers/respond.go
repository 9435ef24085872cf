package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/isdelr/yellownote-be/internal/auth"
	"github.com/isdelr/yellownote-be/internal/services"
	"github.com/rs/zerolog/log"
)

// maxBodyBytes caps request bodies decoded by readJSON.
const maxBodyBytes = 1 << 20

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("Failed to encode response")
	}
}

// WriteError writes a {"error": message} body with the given status.
func WriteError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

// readJSON decodes the request body into v. An empty body leaves v untouched.
func readJSON(r *http.Request, v interface{}) error {
	err := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes)).Decode(v)
	if errors.Is(err, io.EOF) {
		return nil
	}
	return err
}

// writeServiceError maps a service error onto a status. Unclassified errors
// are logged and reported without detail.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error, notFound string) {
	switch {
	case errors.Is(err, services.ErrInvalidInput):
		WriteError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, services.ErrUnauthorized):
		WriteError(w, http.StatusUnauthorized, "Invalid credentials")
	case errors.Is(err, services.ErrNotFound):
		WriteError(w, http.StatusNotFound, notFound)
	case errors.Is(err, services.ErrConflict):
		WriteError(w, http.StatusConflict, err.Error())
	default:
		log.Error().Err(err).Str("method", r.Method).Str("path", r.URL.Path).Msg("Request failed")
		WriteError(w, http.StatusInternalServerError, "Internal Server Error")
	}
}

// requireUser returns the acting user id or answers 401.
func requireUser(w http.ResponseWriter, r *http.Request) (string, bool) {
	userID, ok := auth.UserID(r.Context())
	if !ok {
		WriteError(w, http.StatusUnauthorized, "Unauthorized")
	}
	return userID, ok
}
