// Package token issues and validates the HS256 access tokens used by the
// storefront API and its websocket endpoint.
package token

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/auth0/go-jwt-middleware/v2/validator"
	"github.com/google/uuid"
	"github.com/vastra/storefront/internal/clock"
	"github.com/vastra/storefront/internal/config"
	"github.com/vastra/storefront/internal/domain"
	jose "gopkg.in/go-jose/go-jose.v2"
	"gopkg.in/go-jose/go-jose.v2/jwt"
)

var (
	// ErrInvalidToken is returned when a token fails validation
	ErrInvalidToken = errors.New("invalid token")
	// ErrTokenExpired is returned when an otherwise valid token is past its expiry
	ErrTokenExpired = errors.New("token expired")

	errMissingRole = errors.New("role claim is required")
)

// Claims are the private claims carried next to the registered ones
type Claims struct {
	Role  domain.Role `json:"role"`
	Email string      `json:"email,omitempty"`
}

// Validate implements validator.CustomClaims
func (c *Claims) Validate(ctx context.Context) error {
	if c.Role == "" {
		return errMissingRole
	}
	return nil
}

// Identity is the authenticated caller extracted from a valid token
type Identity struct {
	UserID    uuid.UUID
	Role      domain.Role
	Email     string
	ExpiresAt time.Time
}

// IsAdmin reports whether the caller holds the admin role
func (i *Identity) IsAdmin() bool {
	return i.Role == domain.RoleAdmin
}

// Issuer signs access tokens
type Issuer struct {
	signer   jose.Signer
	issuer   string
	audience string
	ttl      time.Duration
	clock    clock.Clock
}

// NewIssuer creates an Issuer from the JWT settings
func NewIssuer(cfg config.JWTConfig, clk clock.Clock) (*Issuer, error) {
	signer, err := jose.NewSigner(
		jose.SigningKey{Algorithm: jose.HS256, Key: []byte(cfg.Secret)},
		(&jose.SignerOptions{}).WithType("JWT"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create token signer: %w", err)
	}
	return &Issuer{
		signer:   signer,
		issuer:   cfg.Issuer,
		audience: cfg.Audience,
		ttl:      cfg.AccessTTL,
		clock:    clk,
	}, nil
}

// Issue returns a signed access token for user and its expiry
func (i *Issuer) Issue(user *domain.User) (string, time.Time, error) {
	now := i.clock.Now()
	expiresAt := now.Add(i.ttl)

	registered := jwt.Claims{
		Issuer:    i.issuer,
		Subject:   user.ID.String(),
		Audience:  jwt.Audience{i.audience},
		IssuedAt:  jwt.NewNumericDate(now),
		NotBefore: jwt.NewNumericDate(now),
		Expiry:    jwt.NewNumericDate(expiresAt),
		ID:        uuid.NewString(),
	}
	private := Claims{Role: user.Role, Email: user.Email}

	raw, err := jwt.Signed(i.signer).Claims(registered).Claims(private).CompactSerialize()
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to sign access token: %w", err)
	}
	return raw, expiresAt, nil
}

// Validator checks access tokens issued by Issuer
type Validator struct {
	validator *validator.Validator
}

// NewValidator creates a Validator from the JWT settings
func NewValidator(cfg config.JWTConfig) (*Validator, error) {
	key := []byte(cfg.Secret)
	keyFunc := func(ctx context.Context) (interface{}, error) {
		return key, nil
	}

	jwtValidator, err := validator.New(
		keyFunc,
		validator.HS256,
		cfg.Issuer,
		[]string{cfg.Audience},
		validator.WithCustomClaims(func() validator.CustomClaims {
			return &Claims{}
		}),
		validator.WithAllowedClockSkew(30*time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create token validator: %w", err)
	}
	return &Validator{validator: jwtValidator}, nil
}

// Validate checks raw and returns the caller it identifies.
// Expired tokens yield ErrTokenExpired, every other failure ErrInvalidToken.
func (v *Validator) Validate(ctx context.Context, raw string) (*Identity, error) {
	claims, err := v.validator.ValidateToken(ctx, raw)
	if err != nil {
		if errors.Is(err, jwt.ErrExpired) {
			return nil, ErrTokenExpired
		}
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	validated, ok := claims.(*validator.ValidatedClaims)
	if !ok {
		return nil, ErrInvalidToken
	}
	custom, ok := validated.CustomClaims.(*Claims)
	if !ok {
		return nil, ErrInvalidToken
	}

	userID, err := uuid.Parse(validated.RegisteredClaims.Subject)
	if err != nil {
		return nil, fmt.Errorf("%w: subject is not a user id", ErrInvalidToken)
	}

	return &Identity{
		UserID:    userID,
		Role:      custom.Role,
		Email:     custom.Email,
		ExpiresAt: time.Unix(validated.RegisteredClaims.Expiry, 0).UTC(),
	}, nil
}
