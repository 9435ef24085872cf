package handlers

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/isdelr/yellownote-be/internal/auth"
	"github.com/isdelr/yellownote-be/internal/services"
	"github.com/rs/zerolog/log"
)

// BoardHandler handles HTTP requests related to boards.
type BoardHandler struct {
	service services.BoardServiceProvider
	tickets *auth.TicketIssuer
}

// NewBoardHandler creates a new BoardHandler.
func NewBoardHandler(service services.BoardServiceProvider, tickets *auth.TicketIssuer) *BoardHandler {
	return &BoardHandler{service: service, tickets: tickets}
}

type createBoardPayload struct {
	Name string `json:"name"`
}

type ticketResponse struct {
	Ticket    string    `json:"ticket"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Create handles the request to create a new board.
func (h *BoardHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	var payload createBoardPayload
	if err := readJSON(r, &payload); err != nil {
		WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	board, err := h.service.CreateBoard(r.Context(), userID, payload.Name)
	if err != nil {
		writeServiceError(w, r, err, "Board not found")
		return
	}
	writeJSON(w, http.StatusCreated, board)
}

// List returns the acting user's boards.
func (h *BoardHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	boards, err := h.service.ListBoards(r.Context(), userID)
	if err != nil {
		writeServiceError(w, r, err, "Board not found")
		return
	}
	writeJSON(w, http.StatusOK, boards)
}

// Get returns a board with its notes.
func (h *BoardHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	board, err := h.service.GetBoard(r.Context(), userID, chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, r, err, "Board not found")
		return
	}
	writeJSON(w, http.StatusOK, board)
}

// Ticket issues a short-lived ticket for watching the board over a websocket.
func (h *BoardHandler) Ticket(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	boardID := chi.URLParam(r, "id")
	if err := h.service.CheckOwnership(r.Context(), userID, boardID); err != nil {
		writeServiceError(w, r, err, "Board not found")
		return
	}

	ticket, expiresAt, err := h.tickets.Issue(userID, boardID)
	if err != nil {
		log.Error().Err(err).Str("board_id", boardID).Msg("Failed to sign websocket ticket")
		WriteError(w, http.StatusInternalServerError, "Internal Server Error")
		return
	}
	writeJSON(w, http.StatusOK, ticketResponse{Ticket: ticket, ExpiresAt: expiresAt})
}
