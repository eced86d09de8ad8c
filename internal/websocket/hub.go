package websocket

import (
	"errors"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// ErrClientClosed is returned when attempting to send to a closed client
var ErrClientClosed = errors.New("client is closed")

// DefaultMaxConnectionsPerUser bounds how many devices of one shopper stay connected
const DefaultMaxConnectionsPerUser = 8

// ClientInterface defines the interface that clients must implement
type ClientInterface interface {
	ID() string
	UserID() uuid.UUID
	Send(data []byte) error
	Close() error
}

// HubOption configures a Hub
type HubOption func(*Hub)

// WithMaxConnectionsPerUser sets the per-user connection cap. When a user
// opens one more, their oldest connection is closed.
func WithMaxConnectionsPerUser(n int) HubOption {
	return func(h *Hub) {
		if n > 0 {
			h.maxPerUser = n
		}
	}
}

// Hub routes events to the open connections of each user, oldest first.
// It is safe for concurrent use.
type Hub struct {
	mu         sync.RWMutex
	users      map[uuid.UUID][]ClientInterface
	maxPerUser int
	shutdown   bool
}

// NewHub creates a new Hub instance
func NewHub(opts ...HubOption) *Hub {
	h := &Hub{
		users:      make(map[uuid.UUID][]ClientInterface),
		maxPerUser: DefaultMaxConnectionsPerUser,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Register adds a client under its user. A hub that has shut down closes
// the client instead.
func (h *Hub) Register(client ClientInterface) {
	userID := client.UserID()

	h.mu.Lock()
	if h.shutdown {
		h.mu.Unlock()
		_ = client.Close()
		return
	}

	conns := append(h.users[userID], client)
	var evicted []ClientInterface
	if over := len(conns) - h.maxPerUser; over > 0 {
		evicted = append(evicted, conns[:over]...)
		conns = append([]ClientInterface(nil), conns[over:]...)
	}
	h.users[userID] = conns
	h.mu.Unlock()

	log.Debug().
		Str("user_id", userID.String()).
		Str("client_id", client.ID()).
		Int("connections", len(conns)).
		Msg("WebSocket client registered")

	for _, old := range evicted {
		log.Info().
			Str("user_id", userID.String()).
			Str("client_id", old.ID()).
			Msg("Closing oldest WebSocket connection, per-user limit reached")
		_ = old.Close()
	}
}

// Unregister removes a client from the hub
func (h *Hub) Unregister(client ClientInterface) {
	userID := client.UserID()

	h.mu.Lock()
	defer h.mu.Unlock()

	conns := h.users[userID]
	for i, c := range conns {
		if c.ID() != client.ID() {
			continue
		}
		conns = append(conns[:i:i], conns[i+1:]...)
		if len(conns) == 0 {
			delete(h.users, userID)
		} else {
			h.users[userID] = conns
		}
		log.Debug().
			Str("user_id", userID.String()).
			Str("client_id", client.ID()).
			Msg("WebSocket client unregistered")
		return
	}
}

// Broadcast sends an event to all connections of a specific user
func (h *Hub) Broadcast(userID uuid.UUID, event Event) {
	data, err := event.ToJSON()
	if err != nil {
		log.Error().
			Err(err).
			Str("user_id", userID.String()).
			Str("event_type", event.Type).
			Msg("Failed to serialize event")
		return
	}

	h.mu.RLock()
	conns := append([]ClientInterface(nil), h.users[userID]...)
	h.mu.RUnlock()
	if len(conns) == 0 {
		return
	}

	// Send never blocks; a full queue reports the client as closed
	for _, c := range conns {
		if err := c.Send(data); err != nil {
			log.Warn().
				Err(err).
				Str("user_id", userID.String()).
				Str("client_id", c.ID()).
				Msg("Failed to send to client")
		}
	}

	log.Debug().
		Str("user_id", userID.String()).
		Str("event_type", event.Type).
		Int("client_count", len(conns)).
		Msg("Broadcast event")
}

// ClientCount returns the number of connections a user has open
func (h *Hub) ClientCount(userID uuid.UUID) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.users[userID])
}

// TotalClientCount returns the total number of connected clients across all users
func (h *Hub) TotalClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	total := 0
	for _, conns := range h.users {
		total += len(conns)
	}
	return total
}

// Shutdown closes every connection and refuses new ones
func (h *Hub) Shutdown() {
	h.mu.Lock()
	var all []ClientInterface
	for _, conns := range h.users {
		all = append(all, conns...)
	}
	h.users = make(map[uuid.UUID][]ClientInterface)
	h.shutdown = true
	h.mu.Unlock()

	for _, c := range all {
		_ = c.Close()
	}
	log.Info().Int("client_count", len(all)).Msg("WebSocket hub shut down")
}
