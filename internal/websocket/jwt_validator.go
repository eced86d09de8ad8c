package websocket

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/vastra/storefront/internal/token"
)

var (
	// ErrInvalidToken is returned when the connection token fails validation
	ErrInvalidToken = errors.New("invalid token")
	// ErrTokenExpired is returned for a well-formed token past its expiry
	ErrTokenExpired = errors.New("token expired")
)

// Grant is what a validated connection token entitles the connection to
type Grant struct {
	UserID uuid.UUID
	// ExpiresAt closes the connection; zero means it stays open
	ExpiresAt time.Time
}

// TokenValidator resolves the user behind a connection token
type TokenValidator interface {
	ValidateToken(ctx context.Context, raw string) (Grant, error)
}

// AccessTokenValidator validates storefront access tokens for WebSocket connections
type AccessTokenValidator struct {
	validator *token.Validator
}

// NewAccessTokenValidator creates a new AccessTokenValidator
func NewAccessTokenValidator(v *token.Validator) *AccessTokenValidator {
	return &AccessTokenValidator{validator: v}
}

// ValidateToken validates an access token. The grant lasts as long as the token.
func (v *AccessTokenValidator) ValidateToken(ctx context.Context, raw string) (Grant, error) {
	identity, err := v.validator.Validate(ctx, raw)
	if errors.Is(err, token.ErrTokenExpired) {
		return Grant{}, ErrTokenExpired
	}
	if err != nil {
		return Grant{}, ErrInvalidToken
	}
	return Grant{UserID: identity.UserID, ExpiresAt: identity.ExpiresAt}, nil
}
