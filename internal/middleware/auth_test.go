package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vastra/storefront/internal/clock"
	"github.com/vastra/storefront/internal/config"
	"github.com/vastra/storefront/internal/domain"
	"github.com/vastra/storefront/internal/token"
)

func testJWTConfig() config.JWTConfig {
	return config.JWTConfig{
		Secret:    strings.Repeat("m", 32),
		Issuer:    "vastra-api",
		Audience:  "vastra-storefront",
		AccessTTL: 15 * time.Minute,
	}
}

func issue(t *testing.T, clk clock.Clock, role domain.Role) (string, uuid.UUID) {
	t.Helper()
	issuer, err := token.NewIssuer(testJWTConfig(), clk)
	require.NoError(t, err)
	userID := uuid.New()
	raw, _, err := issuer.Issue(&domain.User{ID: userID, Role: role})
	require.NoError(t, err)
	return raw, userID
}

func newAuth(t *testing.T) *AuthMiddleware {
	t.Helper()
	v, err := token.NewValidator(testJWTConfig())
	require.NoError(t, err)
	return NewAuthMiddleware(v)
}

func run(t *testing.T, mw echo.MiddlewareFunc, header string) (*httptest.ResponseRecorder, *token.Identity) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/cart", nil)
	if header != "" {
		req.Header.Set("Authorization", header)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	var seen *token.Identity
	err := mw(func(c echo.Context) error {
		seen = GetIdentity(c)
		return c.NoContent(http.StatusOK)
	})(c)
	require.NoError(t, err)
	return rec, seen
}

func problemType(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body problemDetails
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body.Type
}

func TestAuthenticate_ValidToken(t *testing.T) {
	raw, userID := issue(t, clock.RealClock{}, domain.RoleCustomer)

	rec, identity := run(t, newAuth(t).Authenticate(), "Bearer "+raw)

	assert.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, identity)
	assert.Equal(t, userID, identity.UserID)
}

func TestAuthenticate_Rejections(t *testing.T) {
	tests := []struct {
		name   string
		header string
	}{
		{"missing header", ""},
		{"wrong scheme", "Basic abc"},
		{"empty token", "Bearer "},
		{"garbage token", "Bearer not-a-token"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, identity := run(t, newAuth(t).Authenticate(), tt.header)
			assert.Equal(t, http.StatusUnauthorized, rec.Code)
			assert.Nil(t, identity)
			assert.Equal(t, errorTypeUnauthorized, problemType(t, rec))
		})
	}
}

func TestAuthenticate_ExpiredToken(t *testing.T) {
	raw, _ := issue(t, clock.NewFake(time.Now().Add(-time.Hour)), domain.RoleCustomer)

	rec, identity := run(t, newAuth(t).Authenticate(), "Bearer "+raw)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Nil(t, identity)
	assert.Equal(t, errorTypeTokenExpired, problemType(t, rec))
}

func TestRequireRole(t *testing.T) {
	e := echo.New()

	tests := []struct {
		name     string
		identity *token.Identity
		want     int
	}{
		{"admin passes", &token.Identity{UserID: uuid.New(), Role: domain.RoleAdmin}, http.StatusOK},
		{"customer forbidden", &token.Identity{UserID: uuid.New(), Role: domain.RoleCustomer}, http.StatusForbidden},
		{"anonymous unauthorized", nil, http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/api/v1/admin/products", nil)
			if tt.identity != nil {
				req = req.WithContext(WithIdentity(req.Context(), tt.identity))
			}
			rec := httptest.NewRecorder()
			c := e.NewContext(req, rec)

			err := RequireRole(domain.RoleAdmin)(func(c echo.Context) error {
				return c.NoContent(http.StatusOK)
			})(c)
			require.NoError(t, err)
			assert.Equal(t, tt.want, rec.Code)
		})
	}
}

func TestGetUserID(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	c := e.NewContext(req, httptest.NewRecorder())

	if got := GetUserID(c); got != uuid.Nil {
		t.Errorf("Expected uuid.Nil without identity, got %s", got)
	}

	id := uuid.New()
	c.SetRequest(req.WithContext(context.WithValue(req.Context(), IdentityKey, &token.Identity{UserID: id})))
	if got := GetUserID(c); got != id {
		t.Errorf("Expected %s, got %s", id, got)
	}
}
