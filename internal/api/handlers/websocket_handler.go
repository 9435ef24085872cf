package handlers

import (
	"net/http"

	"github.com/gorilla/websocket"
	"github.com/isdelr/yellownote-be/internal/auth"
	ws "github.com/isdelr/yellownote-be/internal/websocket"
	"github.com/rs/zerolog/log"
)

// WebSocketHandler upgrades ticket-bearing requests to board subscriptions.
type WebSocketHandler struct {
	hub      *ws.Hub
	tickets  *auth.TicketIssuer
	upgrader websocket.Upgrader
}

// NewWebSocketHandler creates a new WebSocketHandler. Upgrades are accepted
// from allowedOrigin and from clients that send no Origin header.
func NewWebSocketHandler(hub *ws.Hub, tickets *auth.TicketIssuer, allowedOrigin string) *WebSocketHandler {
	return &WebSocketHandler{
		hub:     hub,
		tickets: tickets,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				return origin == "" || allowedOrigin == "*" || origin == allowedOrigin
			},
		},
	}
}

// Serve handles the WebSocket connection request.
func (h *WebSocketHandler) Serve(w http.ResponseWriter, r *http.Request) {
	claims, err := h.tickets.Validate(r.URL.Query().Get("ticket"))
	if err != nil {
		log.Debug().Err(err).Msg("Rejected websocket ticket")
		WriteError(w, http.StatusUnauthorized, "Invalid ticket")
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Error().Err(err).Msg("Failed to upgrade websocket connection")
		return
	}

	client := ws.NewClient(h.hub, conn, claims.UserID, claims.BoardID)
	if !h.hub.Subscribe(client) {
		conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseGoingAway, "shutting down"))
		conn.Close()
		return
	}

	go client.WritePump()
	go client.ReadPump()
}
