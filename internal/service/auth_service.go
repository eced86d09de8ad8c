package service

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/vastra/storefront/internal/clock"
	"github.com/vastra/storefront/internal/domain"
	"github.com/vastra/storefront/internal/token"
	"golang.org/x/crypto/bcrypt"
)

const (
	// refreshTokenBytes is the number of random bytes in a refresh token (256 bits)
	refreshTokenBytes = 32
	tokenTypeBearer   = "Bearer"
)

// AuthService handles registration, login and the token lifecycle
type AuthService struct {
	userRepo   domain.UserRepository
	tokenRepo  domain.RefreshTokenRepository
	issuer     *token.Issuer
	refreshTTL time.Duration
	clock      clock.Clock
	bcryptCost int
}

// NewAuthService creates a new AuthService
func NewAuthService(userRepo domain.UserRepository, tokenRepo domain.RefreshTokenRepository, issuer *token.Issuer, refreshTTL time.Duration, clk clock.Clock) *AuthService {
	return &AuthService{
		userRepo:   userRepo,
		tokenRepo:  tokenRepo,
		issuer:     issuer,
		refreshTTL: refreshTTL,
		clock:      clk,
		bcryptCost: bcrypt.DefaultCost,
	}
}

// AuthResult is returned by Register and Login
type AuthResult struct {
	User   *domain.User
	Tokens *domain.TokenPair
}

// RegisterInput contains input for creating a shopper account
type RegisterInput struct {
	Name     string
	Email    string
	Password string
}

// Register creates a customer account and signs it in
func (s *AuthService) Register(ctx context.Context, input RegisterInput) (*AuthResult, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, domain.ErrNameRequired
	}
	if len(name) > domain.MaxNameLength {
		return nil, domain.ErrNameTooLong
	}

	email := domain.NormalizeEmail(input.Email)
	if err := domain.ValidateEmail(email); err != nil {
		return nil, err
	}
	if len(input.Password) < domain.MinPasswordLength {
		return nil, domain.ErrPasswordTooShort
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), s.bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user, err := s.userRepo.Create(ctx, &domain.User{
		Email:        email,
		Name:         name,
		Role:         domain.RoleCustomer,
		PasswordHash: string(hash),
	})
	if err != nil {
		return nil, err
	}

	tokens, err := s.issueTokens(ctx, user)
	if err != nil {
		return nil, err
	}

	log.Info().Str("user_id", user.ID.String()).Msg("User registered")
	return &AuthResult{User: user, Tokens: tokens}, nil
}

// Login checks the credentials and issues a new token pair
func (s *AuthService) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	user, err := s.userRepo.GetByEmail(ctx, domain.NormalizeEmail(email))
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil, domain.ErrInvalidCredentials
		}
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		log.Debug().Str("user_id", user.ID.String()).Msg("Password mismatch")
		return nil, domain.ErrInvalidCredentials
	}

	tokens, err := s.issueTokens(ctx, user)
	if err != nil {
		return nil, err
	}

	log.Info().Str("user_id", user.ID.String()).Msg("User logged in")
	return &AuthResult{User: user, Tokens: tokens}, nil
}

// Refresh exchanges a refresh token for a new pair. The presented token is
// revoked; presenting a revoked token again revokes every token of the user.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*domain.TokenPair, error) {
	stored, err := s.tokenRepo.GetByHash(ctx, hashToken(refreshToken))
	if err != nil {
		return nil, err
	}

	if err := stored.Usable(s.clock.Now()); err != nil {
		if errors.Is(err, domain.ErrRefreshTokenRevoked) {
			log.Warn().Str("user_id", stored.UserID.String()).Msg("Revoked refresh token reused, revoking all sessions")
			if revokeErr := s.tokenRepo.RevokeAllForUser(ctx, stored.UserID); revokeErr != nil {
				log.Error().Err(revokeErr).Str("user_id", stored.UserID.String()).Msg("Failed to revoke sessions")
			}
		}
		return nil, err
	}

	user, err := s.userRepo.GetByID(ctx, stored.UserID)
	if err != nil {
		return nil, err
	}

	if err := s.tokenRepo.Revoke(ctx, stored.ID); err != nil {
		return nil, err
	}

	return s.issueTokens(ctx, user)
}

// Logout revokes the given refresh token. Unknown tokens are ignored.
func (s *AuthService) Logout(ctx context.Context, refreshToken string) error {
	stored, err := s.tokenRepo.GetByHash(ctx, hashToken(refreshToken))
	if err != nil {
		if errors.Is(err, domain.ErrRefreshTokenNotFound) {
			return nil
		}
		return err
	}
	if err := s.tokenRepo.Revoke(ctx, stored.ID); err != nil {
		return err
	}
	log.Info().Str("user_id", stored.UserID.String()).Msg("User logged out")
	return nil
}

// Me returns the signed-in user
func (s *AuthService) Me(ctx context.Context, userID uuid.UUID) (*domain.User, error) {
	return s.userRepo.GetByID(ctx, userID)
}

func (s *AuthService) issueTokens(ctx context.Context, user *domain.User) (*domain.TokenPair, error) {
	access, expiresAt, err := s.issuer.Issue(user)
	if err != nil {
		return nil, err
	}

	refresh, err := generateSecureToken()
	if err != nil {
		return nil, fmt.Errorf("failed to generate refresh token: %w", err)
	}

	err = s.tokenRepo.Create(ctx, &domain.RefreshToken{
		UserID:    user.ID,
		TokenHash: hashToken(refresh),
		ExpiresAt: s.clock.Now().Add(s.refreshTTL),
	})
	if err != nil {
		return nil, err
	}

	return &domain.TokenPair{
		AccessToken:  access,
		RefreshToken: refresh,
		TokenType:    tokenTypeBearer,
		ExpiresAt:    expiresAt,
	}, nil
}

// generateSecureToken generates a cryptographically secure random token
func generateSecureToken() (string, error) {
	bytes := make([]byte, refreshTokenBytes)
	if _, err := rand.Read(bytes); err != nil {
		return "", err
	}
	// Use URL-safe base64 encoding without padding
	return base64.RawURLEncoding.EncodeToString(bytes), nil
}

// hashToken creates a SHA-256 hash of the token
func hashToken(raw string) string {
	hash := sha256.Sum256([]byte(raw))
	return fmt.Sprintf("%x", hash)
}
