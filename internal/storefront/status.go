package storefront

import "errors"

// Status is the lifecycle of a collection's most recent operation
type Status string

const (
	StatusIdle      Status = "idle"
	StatusLoading   Status = "loading"
	StatusSucceeded Status = "succeeded"
	StatusFailed    Status = "failed"
)

var (
	// ErrItemNotFound is returned synchronously when an operation names a
	// key that is not in the collection. No request is sent.
	ErrItemNotFound = errors.New("item not found")
	// ErrInvalidQuantity is returned when a cart quantity below 1 is requested
	ErrInvalidQuantity = errors.New("quantity must be at least 1")
	// ErrClosed is returned by operations on a closed State
	ErrClosed = errors.New("storefront state is closed")
)
