package websocket

import (
	"encoding/json"
	"sync/atomic"

	"github.com/isdelr/yellownote-be/internal/models"
	"github.com/rs/zerolog/log"
)

type boardMessage struct {
	boardID string
	data    []byte
}

// Hub maintains the set of active clients and fans note events out to the
// clients watching the affected board. All maps are owned by Run.
type Hub struct {
	// Registered clients.
	clients map[*Client]bool

	// Register requests from the clients.
	Register chan *Client

	// Unregister requests from clients.
	Unregister chan *Client

	// A map of board IDs to a set of clients subscribed to it.
	subscriptions map[string]map[*Client]bool

	publish chan boardMessage
	done    chan struct{}
	stopped chan struct{}

	count atomic.Int64
}

// NewHub creates a new Hub.
func NewHub() *Hub {
	return &Hub{
		Register:      make(chan *Client),
		Unregister:    make(chan *Client),
		clients:       make(map[*Client]bool),
		subscriptions: make(map[string]map[*Client]bool),
		publish:       make(chan boardMessage, 64),
		done:          make(chan struct{}),
		stopped:       make(chan struct{}),
	}
}

// Run starts the Hub's message processing loop. It returns after Stop.
func (h *Hub) Run() {
	defer close(h.stopped)
	for {
		select {
		case <-h.done:
			for client := range h.clients {
				h.drop(client)
			}
			return
		case client := <-h.Register:
			h.clients[client] = true
			h.count.Store(int64(len(h.clients)))
			h.addSubscription(client, client.BoardID)
			log.Info().Int("total_clients", len(h.clients)).Str("board_id", client.BoardID).Str("user_id", client.UserID).Msg("Client connected")
		case client := <-h.Unregister:
			if _, ok := h.clients[client]; ok {
				h.drop(client)
				log.Info().Int("total_clients", len(h.clients)).Str("user_id", client.UserID).Msg("Client disconnected")
			}
		case msg := <-h.publish:
			for client := range h.subscriptions[msg.boardID] {
				select {
				case client.Send <- msg.data:
				default:
					// Slow consumer; cut it loose rather than block the hub.
					h.drop(client)
				}
			}
		}
	}
}

// Stop terminates Run and closes every client's send channel.
func (h *Hub) Stop() {
	close(h.done)
	<-h.stopped
}

// Subscribe registers client with the running hub. It reports false once the
// hub has stopped.
func (h *Hub) Subscribe(client *Client) bool {
	select {
	case h.Register <- client:
		return true
	case <-h.done:
		return false
	}
}

// Unsubscribe removes client from the hub; it is a no-op after Stop.
func (h *Hub) Unsubscribe(client *Client) {
	select {
	case h.Unregister <- client:
	case <-h.done:
	}
}

// PublishNote broadcasts a note event to all clients watching boardID.
func (h *Hub) PublishNote(boardID, action string, note models.Note) {
	data, err := json.Marshal(Message{Action: action, Payload: note})
	if err != nil {
		log.Error().Err(err).Str("board_id", boardID).Msg("Failed to encode note event")
		return
	}
	h.BroadcastTo(boardID, data)
}

// BroadcastTo sends a message to all clients subscribed to a specific board ID.
// It never blocks the caller for long: once the hub has stopped the message is dropped.
func (h *Hub) BroadcastTo(boardID string, message []byte) {
	select {
	case h.publish <- boardMessage{boardID: boardID, data: message}:
	case <-h.done:
	}
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	return int(h.count.Load())
}

func (h *Hub) drop(client *Client) {
	delete(h.clients, client)
	h.count.Store(int64(len(h.clients)))
	close(client.Send)
	h.removeSubscription(client)
}

func (h *Hub) addSubscription(client *Client, boardID string) {
	if h.subscriptions[boardID] == nil {
		h.subscriptions[boardID] = make(map[*Client]bool)
	}
	h.subscriptions[boardID][client] = true
}

func (h *Hub) removeSubscription(client *Client) {
	subs, ok := h.subscriptions[client.BoardID]
	if !ok {
		return
	}
	delete(subs, client)
	if len(subs) == 0 {
		delete(h.subscriptions, client.BoardID)
	}
}
