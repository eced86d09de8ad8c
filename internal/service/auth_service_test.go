package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vastra/storefront/internal/clock"
	"github.com/vastra/storefront/internal/config"
	"github.com/vastra/storefront/internal/domain"
	"github.com/vastra/storefront/internal/testutil"
	"github.com/vastra/storefront/internal/token"
	"golang.org/x/crypto/bcrypt"
)

type authFixture struct {
	svc       *AuthService
	users     *testutil.MockUserRepository
	tokens    *testutil.MockRefreshTokenRepository
	clock     *clock.FakeClock
	validator *token.Validator
}

func newAuthFixture(t *testing.T) *authFixture {
	t.Helper()
	cfg := config.JWTConfig{
		Secret:     strings.Repeat("a", 32),
		Issuer:     "vastra-api",
		Audience:   "vastra-storefront",
		AccessTTL:  15 * time.Minute,
		RefreshTTL: 7 * 24 * time.Hour,
	}
	clk := clock.NewFake(time.Now().UTC())
	issuer, err := token.NewIssuer(cfg, clk)
	require.NoError(t, err)
	validator, err := token.NewValidator(cfg)
	require.NoError(t, err)

	users := testutil.NewMockUserRepository()
	tokens := testutil.NewMockRefreshTokenRepository()
	svc := NewAuthService(users, tokens, issuer, cfg.RefreshTTL, clk)
	svc.bcryptCost = bcrypt.MinCost

	return &authFixture{svc: svc, users: users, tokens: tokens, clock: clk, validator: validator}
}

func (f *authFixture) register(t *testing.T) *AuthResult {
	t.Helper()
	result, err := f.svc.Register(context.Background(), RegisterInput{
		Name:     "Asha Rao",
		Email:    "  Asha@Example.com ",
		Password: "kanjivaram",
	})
	require.NoError(t, err)
	return result
}

func TestRegister_Success(t *testing.T) {
	f := newAuthFixture(t)

	result := f.register(t)

	assert.Equal(t, "asha@example.com", result.User.Email)
	assert.Equal(t, domain.RoleCustomer, result.User.Role)
	assert.NotEqual(t, "kanjivaram", result.User.PasswordHash)
	assert.Equal(t, "Bearer", result.Tokens.TokenType)
	assert.NotEmpty(t, result.Tokens.RefreshToken)

	identity, err := f.validator.Validate(context.Background(), result.Tokens.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, result.User.ID, identity.UserID)

	// Only the hash is stored
	_, stored := f.tokens.Tokens[result.Tokens.RefreshToken]
	assert.False(t, stored)
	assert.Equal(t, 1, f.tokens.Live(result.User.ID))
}

func TestRegister_Validation(t *testing.T) {
	tests := []struct {
		name    string
		input   RegisterInput
		wantErr error
	}{
		{"missing name", RegisterInput{Email: "a@b.com", Password: "longenough"}, domain.ErrNameRequired},
		{"bad email", RegisterInput{Name: "A", Email: "not-an-email", Password: "longenough"}, domain.ErrInvalidEmail},
		{"short password", RegisterInput{Name: "A", Email: "a@b.com", Password: "short"}, domain.ErrPasswordTooShort},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newAuthFixture(t)
			_, err := f.svc.Register(context.Background(), tt.input)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("expected %v, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestRegister_DuplicateEmail(t *testing.T) {
	f := newAuthFixture(t)
	f.register(t)

	_, err := f.svc.Register(context.Background(), RegisterInput{Name: "Other", Email: "asha@example.com", Password: "password1"})
	assert.ErrorIs(t, err, domain.ErrEmailTaken)
}

func TestLogin(t *testing.T) {
	f := newAuthFixture(t)
	registered := f.register(t)

	t.Run("correct credentials", func(t *testing.T) {
		result, err := f.svc.Login(context.Background(), "ASHA@example.com", "kanjivaram")
		require.NoError(t, err)
		assert.Equal(t, registered.User.ID, result.User.ID)
	})

	t.Run("wrong password", func(t *testing.T) {
		_, err := f.svc.Login(context.Background(), "asha@example.com", "banarasi!")
		assert.ErrorIs(t, err, domain.ErrInvalidCredentials)
	})

	t.Run("unknown email", func(t *testing.T) {
		_, err := f.svc.Login(context.Background(), "nobody@example.com", "kanjivaram")
		assert.ErrorIs(t, err, domain.ErrInvalidCredentials)
	})
}

func TestRefresh_RotatesToken(t *testing.T) {
	f := newAuthFixture(t)
	registered := f.register(t)

	pair, err := f.svc.Refresh(context.Background(), registered.Tokens.RefreshToken)
	require.NoError(t, err)
	assert.NotEqual(t, registered.Tokens.RefreshToken, pair.RefreshToken)
	assert.Equal(t, 1, f.tokens.Live(registered.User.ID), "old token is revoked, new one is live")

	_, err = f.validator.Validate(context.Background(), pair.AccessToken)
	assert.NoError(t, err)
}

func TestRefresh_ReuseRevokesAllSessions(t *testing.T) {
	f := newAuthFixture(t)
	registered := f.register(t)

	_, err := f.svc.Refresh(context.Background(), registered.Tokens.RefreshToken)
	require.NoError(t, err)

	_, err = f.svc.Refresh(context.Background(), registered.Tokens.RefreshToken)
	assert.ErrorIs(t, err, domain.ErrRefreshTokenRevoked)
	assert.Equal(t, 0, f.tokens.Live(registered.User.ID))
}

func TestRefresh_Expired(t *testing.T) {
	f := newAuthFixture(t)
	registered := f.register(t)

	f.clock.Advance(8 * 24 * time.Hour)

	_, err := f.svc.Refresh(context.Background(), registered.Tokens.RefreshToken)
	assert.ErrorIs(t, err, domain.ErrRefreshTokenExpired)
}

func TestRefresh_Unknown(t *testing.T) {
	f := newAuthFixture(t)

	_, err := f.svc.Refresh(context.Background(), "made-up")
	assert.ErrorIs(t, err, domain.ErrRefreshTokenNotFound)
}

func TestLogout(t *testing.T) {
	f := newAuthFixture(t)
	registered := f.register(t)

	require.NoError(t, f.svc.Logout(context.Background(), registered.Tokens.RefreshToken))
	assert.Equal(t, 0, f.tokens.Live(registered.User.ID))

	// Logging out twice or with an unknown token is not an error
	assert.NoError(t, f.svc.Logout(context.Background(), registered.Tokens.RefreshToken))
	assert.NoError(t, f.svc.Logout(context.Background(), "unknown"))
}

func TestMe(t *testing.T) {
	f := newAuthFixture(t)
	registered := f.register(t)

	user, err := f.svc.Me(context.Background(), registered.User.ID)
	require.NoError(t, err)
	assert.Equal(t, "Asha Rao", user.Name)
}

func TestHashToken_Deterministic(t *testing.T) {
	raw, err := generateSecureToken()
	require.NoError(t, err)
	assert.Len(t, raw, 43)
	assert.Equal(t, hashToken(raw), hashToken(raw))
	assert.Len(t, hashToken(raw), 64)
}
