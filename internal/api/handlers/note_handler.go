package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/isdelr/yellownote-be/internal/models"
	"github.com/isdelr/yellownote-be/internal/services"
)

// NoteHandler handles HTTP requests related to notes.
type NoteHandler struct {
	service services.NoteServiceProvider
}

// NewNoteHandler creates a new NoteHandler.
func NewNoteHandler(service services.NoteServiceProvider) *NoteHandler {
	return &NoteHandler{service: service}
}

// Create adds a note to one of the acting user's boards.
func (h *NoteHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	var in models.NoteInput
	if err := readJSON(r, &in); err != nil {
		WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	note, err := h.service.CreateNote(r.Context(), userID, in)
	if err != nil {
		writeServiceError(w, r, err, "Board not found")
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"uuid": note.ID})
}

// Update applies a partial update and returns the full note.
func (h *NoteHandler) Update(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	var patch models.NotePatch
	if err := readJSON(r, &patch); err != nil {
		WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	note, err := h.service.UpdateNote(r.Context(), userID, chi.URLParam(r, "id"), patch)
	if err != nil {
		writeServiceError(w, r, err, "Note not found")
		return
	}
	writeJSON(w, http.StatusOK, note)
}

// Delete removes a note.
func (h *NoteHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	if err := h.service.DeleteNote(r.Context(), userID, chi.URLParam(r, "id")); err != nil {
		writeServiceError(w, r, err, "Note not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
