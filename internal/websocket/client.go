package websocket

import (
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 4096
	sendBuffer     = 32
)

// Client is a websocket connection watching a single board.
type Client struct {
	hub     *Hub
	conn    *websocket.Conn
	BoardID string
	UserID  string

	// Buffered channel of outbound messages. Closed by the hub.
	Send chan []byte
}

// NewClient creates a client for conn subscribed to boardID.
func NewClient(hub *Hub, conn *websocket.Conn, userID, boardID string) *Client {
	return &Client{
		hub:     hub,
		conn:    conn,
		BoardID: boardID,
		UserID:  userID,
		Send:    make(chan []byte, sendBuffer),
	}
}

// ReadPump drains inbound frames so that control messages are processed.
// Clients only listen; any data frame they send is ignored.
func (c *Client) ReadPump() {
	defer func() {
		c.hub.Unsubscribe(c)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Warn().Err(err).Str("board_id", c.BoardID).Str("user_id", c.UserID).Msg("Websocket closed unexpectedly")
			}
			return
		}
	}
}

// WritePump forwards hub messages to the connection and keeps it alive with pings.
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.Send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
