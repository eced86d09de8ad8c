package websocket

import (
	"encoding/json"
	"fmt"
	"time"
)

// EventType represents what happened to the entity
type EventType string

const (
	EventTypeCreated EventType = "created"
	EventTypeUpdated EventType = "updated"
	EventTypeDeleted EventType = "deleted"
	EventTypeCleared EventType = "cleared"
)

// EntityType represents the per-user collection the event is about
type EntityType string

const (
	EntityTypeCart     EntityType = "cart"
	EntityTypeWishlist EntityType = "wishlist"
	EntityTypeAddress  EntityType = "address"
)

// Event represents a WebSocket event message sent to clients
// Format: { type, entity, payload, timestamp }
type Event struct {
	Type      string      `json:"type"`      // Combined type e.g. "cart.updated"
	Entity    EntityType  `json:"entity"`    // Entity type e.g. "cart"
	Payload   interface{} `json:"payload"`   // Current collection or entity
	Timestamp time.Time   `json:"timestamp"` // Event timestamp
}

// NewEvent creates a new event with the given type, entity, and payload
func NewEvent(eventType EventType, entityType EntityType, payload interface{}) Event {
	return Event{
		Type:      fmt.Sprintf("%s.%s", entityType, eventType),
		Entity:    entityType,
		Payload:   payload,
		Timestamp: time.Now().UTC(),
	}
}

// ToJSON serializes the event to JSON bytes
func (e Event) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

// CartUpdated creates a cart.updated event carrying the cart lines
func CartUpdated(payload interface{}) Event {
	return NewEvent(EventTypeUpdated, EntityTypeCart, payload)
}

// CartCleared creates a cart.cleared event
func CartCleared() Event {
	return NewEvent(EventTypeCleared, EntityTypeCart, nil)
}

// WishlistUpdated creates a wishlist.updated event carrying the wishlist lines
func WishlistUpdated(payload interface{}) Event {
	return NewEvent(EventTypeUpdated, EntityTypeWishlist, payload)
}

// AddressCreated creates an address.created event
func AddressCreated(payload interface{}) Event {
	return NewEvent(EventTypeCreated, EntityTypeAddress, payload)
}

// AddressUpdated creates an address.updated event
func AddressUpdated(payload interface{}) Event {
	return NewEvent(EventTypeUpdated, EntityTypeAddress, payload)
}

// AddressDeleted creates an address.deleted event
func AddressDeleted(payload interface{}) Event {
	return NewEvent(EventTypeDeleted, EntityTypeAddress, payload)
}
