package websocket

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const (
	// writeWait is time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// pongWait is time allowed to read the next pong message from the peer
	pongWait = 60 * time.Second

	// pingPeriod must be less than pongWait
	pingPeriod = (pongWait * 9) / 10

	// maxMessageSize bounds inbound frames; the stream is server to client
	maxMessageSize = 512

	// sendBuffer is how many events may queue before a client counts as too slow
	sendBuffer = 64
)

// CloseTokenExpired is sent as the close code when the access token that
// opened the connection expires. Clients reconnect with a fresh token.
const CloseTokenExpired = 4001

// Client is one push-event connection of a signed-in user
type Client struct {
	id        string
	grant     Grant
	conn      *websocket.Conn
	hub       *Hub
	send      chan []byte
	logger    zerolog.Logger
	closed    bool
	mu        sync.RWMutex
	closeOnce sync.Once
}

// NewClient creates a client for conn on behalf of the grant's user
func NewClient(conn *websocket.Conn, grant Grant, hub *Hub) *Client {
	id := uuid.New().String()
	return &Client{
		id:    id,
		grant: grant,
		conn:  conn,
		hub:   hub,
		send:  make(chan []byte, sendBuffer),
		logger: log.With().
			Str("client_id", id).
			Str("user_id", grant.UserID.String()).
			Logger(),
	}
}

// ID returns the client's unique identifier
func (c *Client) ID() string {
	return c.id
}

// UserID returns the ID of the user the connection belongs to
func (c *Client) UserID() uuid.UUID {
	return c.grant.UserID
}

// Send queues a message. A full queue means the client is too slow and
// is reported as closed so the hub drops it.
func (c *Client) Send(data []byte) error {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.closed {
		return ErrClientClosed
	}

	select {
	case c.send <- data:
		return nil
	default:
		return ErrClientClosed
	}
}

// Close closes the connection. Safe to call more than once.
func (c *Client) Close() error {
	var closeErr error
	c.closeOnce.Do(func() {
		c.mu.Lock()
		c.closed = true
		close(c.send)
		c.mu.Unlock()

		closeErr = c.conn.Close()
	})
	return closeErr
}

// IsClosed returns whether the client is closed
func (c *Client) IsClosed() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.closed
}

// ReadPump keeps the read deadline fresh and unregisters the client once
// the peer goes away. Run it in its own goroutine.
func (c *Client) ReadPump() {
	defer func() {
		c.hub.Unregister(c)
		c.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure, CloseTokenExpired) {
				c.logger.Warn().Err(err).Msg("WebSocket unexpected close")
			}
			return
		}
		// inbound frames are ignored
	}
}

// WritePump delivers queued events, pings the peer and closes the
// connection when the grant expires. Run it in its own goroutine.
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	var expired <-chan time.Time
	if !c.grant.ExpiresAt.IsZero() {
		timer := time.NewTimer(time.Until(c.grant.ExpiresAt))
		defer timer.Stop()
		expired = timer.C
	}
	defer func() {
		ticker.Stop()
		c.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// the hub closed this client
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				c.logger.Warn().Err(err).Msg("WebSocket write error")
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}

		case <-expired:
			c.logger.Debug().Msg("Closing WebSocket, access token expired")
			c.conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(CloseTokenExpired, "token expired"),
				time.Now().Add(writeWait))
			return
		}
	}
}
