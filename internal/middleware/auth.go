package middleware

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"
	"github.com/vastra/storefront/internal/domain"
	"github.com/vastra/storefront/internal/token"
)

// contextKey is a custom type for context keys to avoid collisions
type contextKey string

const (
	// IdentityKey is the context key for the authenticated caller
	IdentityKey contextKey = "identity"
)

// TokenValidator validates access tokens
type TokenValidator interface {
	Validate(ctx context.Context, raw string) (*token.Identity, error)
}

// AuthMiddleware provides access token validation middleware
type AuthMiddleware struct {
	validator TokenValidator
}

// NewAuthMiddleware creates a new AuthMiddleware
func NewAuthMiddleware(validator TokenValidator) *AuthMiddleware {
	return &AuthMiddleware{validator: validator}
}

// Authenticate returns an Echo middleware that validates bearer tokens.
// Expired tokens are reported with the token-expired problem type so clients
// know a refresh will help.
func (m *AuthMiddleware) Authenticate() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			authHeader := c.Request().Header.Get("Authorization")
			if authHeader == "" {
				return unauthorizedError(c, "missing authorization header")
			}

			// Check Bearer prefix
			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" || parts[1] == "" {
				return unauthorizedError(c, "invalid authorization header format")
			}

			identity, err := m.validator.Validate(c.Request().Context(), parts[1])
			if err != nil {
				if errors.Is(err, token.ErrTokenExpired) {
					return tokenExpiredError(c)
				}
				log.Debug().Err(err).Msg("Token validation failed")
				return unauthorizedError(c, "invalid token")
			}

			ctx := context.WithValue(c.Request().Context(), IdentityKey, identity)
			c.SetRequest(c.Request().WithContext(ctx))

			return next(c)
		}
	}
}

// RequireRole rejects callers without role. It must run after Authenticate.
func RequireRole(role domain.Role) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			identity := GetIdentity(c)
			if identity == nil {
				return unauthorizedError(c, "authentication required")
			}
			if identity.Role != role {
				log.Debug().
					Str("user_id", identity.UserID.String()).
					Str("role", string(identity.Role)).
					Msg("Role check failed")
				return forbiddenError(c, "insufficient permissions")
			}
			return next(c)
		}
	}
}

// GetIdentity extracts the authenticated caller from the context
func GetIdentity(c echo.Context) *token.Identity {
	if identity, ok := c.Request().Context().Value(IdentityKey).(*token.Identity); ok {
		return identity
	}
	return nil
}

// GetUserID extracts the authenticated user ID from the context
func GetUserID(c echo.Context) uuid.UUID {
	if identity := GetIdentity(c); identity != nil {
		return identity.UserID
	}
	return uuid.Nil
}

// WithIdentity returns ctx carrying identity. Handler tests use it to skip token validation.
func WithIdentity(ctx context.Context, identity *token.Identity) context.Context {
	return context.WithValue(ctx, IdentityKey, identity)
}
