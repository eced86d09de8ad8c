package apiclient

import (
	"sync"
	"time"
)

// TokenHolder keeps the current session's tokens. It is safe for concurrent use.
type TokenHolder struct {
	mu        sync.RWMutex
	access    string
	refresh   string
	expiresAt time.Time
	onChange  func(TokenPair)
}

// NewTokenHolder creates an empty TokenHolder
func NewTokenHolder() *TokenHolder {
	return &TokenHolder{}
}

// OnChange registers fn to be called after every Set or Clear.
// A cleared holder reports an empty TokenPair.
func (h *TokenHolder) OnChange(fn func(TokenPair)) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.onChange = fn
}

// Set replaces the held tokens
func (h *TokenHolder) Set(pair TokenPair) {
	h.mu.Lock()
	h.access = pair.AccessToken
	h.refresh = pair.RefreshToken
	h.expiresAt = pair.ExpiresAt
	fn := h.onChange
	h.mu.Unlock()

	if fn != nil {
		fn(pair)
	}
}

// Clear drops all tokens
func (h *TokenHolder) Clear() {
	h.mu.Lock()
	h.access = ""
	h.refresh = ""
	h.expiresAt = time.Time{}
	fn := h.onChange
	h.mu.Unlock()

	if fn != nil {
		fn(TokenPair{})
	}
}

// Access returns the current access token
func (h *TokenHolder) Access() string {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.access
}

// Refresh returns the current refresh token
func (h *TokenHolder) Refresh() string {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.refresh
}

// Pair returns a copy of the held tokens
func (h *TokenHolder) Pair() TokenPair {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return TokenPair{
		AccessToken:  h.access,
		RefreshToken: h.refresh,
		TokenType:    "Bearer",
		ExpiresAt:    h.expiresAt,
	}
}

// IsAuthenticated reports whether an access token is held
func (h *TokenHolder) IsAuthenticated() bool {
	return h.Access() != ""
}
