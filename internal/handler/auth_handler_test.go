package handler

import (
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
	"github.com/vastra/storefront/internal/middleware"
	"github.com/vastra/storefront/internal/service"
	"github.com/vastra/storefront/internal/testutil"
	"github.com/vastra/storefront/internal/token"
)

var testJWTConfig = config.JWTConfig{
	Secret:     strings.Repeat("k", 32),
	Issuer:     "vastra-api",
	Audience:   "vastra-storefront",
	AccessTTL:  15 * time.Minute,
	RefreshTTL: 24 * time.Hour,
}

// setupAuthContext marks the request as coming from userID with role
func setupAuthContext(c echo.Context, userID uuid.UUID, role domain.Role) {
	ctx := middleware.WithIdentity(c.Request().Context(), &token.Identity{
		UserID: userID,
		Role:   role,
		Email:  "shopper@example.com",
	})
	c.SetRequest(c.Request().WithContext(ctx))
}

func newJSONContext(e *echo.Echo, method, target, body string) (echo.Context, *httptest.ResponseRecorder) {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func decodeProblem(t *testing.T, rec *httptest.ResponseRecorder) ProblemDetails {
	t.Helper()
	var problem ProblemDetails
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &problem))
	return problem
}

func newTestAuthService(t *testing.T) (*service.AuthService, *testutil.MockUserRepository) {
	t.Helper()
	issuer, err := token.NewIssuer(testJWTConfig, clock.RealClock{})
	require.NoError(t, err)
	users := testutil.NewMockUserRepository()
	svc := service.NewAuthService(users, testutil.NewMockRefreshTokenRepository(), issuer, testJWTConfig.RefreshTTL, clock.RealClock{})
	return svc, users
}

func TestRegister_Success(t *testing.T) {
	e := echo.New()
	svc, users := newTestAuthService(t)
	handler := NewAuthHandler(svc)

	c, rec := newJSONContext(e, http.MethodPost, "/api/v1/auth/register",
		`{"name": "Asha Rao", "email": "Asha@Example.com", "password": "handloom99"}`)

	err := handler.Register(c)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Fatalf("Expected status 201, got %d: %s", rec.Code, rec.Body.String())
	}

	var response AuthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &response))
	assert.NotEmpty(t, response.AccessToken)
	assert.NotEmpty(t, response.RefreshToken)
	assert.Equal(t, "Bearer", response.TokenType)
	assert.Equal(t, "asha@example.com", response.User.Email)
	assert.Equal(t, "customer", response.User.Role)
	assert.Contains(t, users.ByEmail, "asha@example.com")
}

func TestRegister_Validation(t *testing.T) {
	tests := []struct {
		name  string
		body  string
		field string
	}{
		{"missing name", `{"email": "a@example.com", "password": "handloom99"}`, "name"},
		{"bad email", `{"name": "A", "email": "not-an-email", "password": "handloom99"}`, "email"},
		{"short password", `{"name": "A", "email": "a@example.com", "password": "short"}`, "password"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := echo.New()
			svc, _ := newTestAuthService(t)
			handler := NewAuthHandler(svc)

			c, rec := newJSONContext(e, http.MethodPost, "/api/v1/auth/register", tt.body)
			require.NoError(t, handler.Register(c))

			assert.Equal(t, http.StatusBadRequest, rec.Code)
			problem := decodeProblem(t, rec)
			assert.Equal(t, ErrorTypeValidation, problem.Type)
			require.Len(t, problem.Errors, 1)
			assert.Equal(t, tt.field, problem.Errors[0].Field)
		})
	}
}

func TestRegister_EmailTaken(t *testing.T) {
	e := echo.New()
	svc, _ := newTestAuthService(t)
	handler := NewAuthHandler(svc)
	body := `{"name": "Asha", "email": "asha@example.com", "password": "handloom99"}`

	c, rec := newJSONContext(e, http.MethodPost, "/api/v1/auth/register", body)
	require.NoError(t, handler.Register(c))
	require.Equal(t, http.StatusCreated, rec.Code)

	c, rec = newJSONContext(e, http.MethodPost, "/api/v1/auth/register", body)
	require.NoError(t, handler.Register(c))
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestLogin(t *testing.T) {
	e := echo.New()
	svc, _ := newTestAuthService(t)
	handler := NewAuthHandler(svc)

	c, rec := newJSONContext(e, http.MethodPost, "/api/v1/auth/register",
		`{"name": "Asha", "email": "asha@example.com", "password": "handloom99"}`)
	require.NoError(t, handler.Register(c))
	require.Equal(t, http.StatusCreated, rec.Code)

	t.Run("correct password", func(t *testing.T) {
		c, rec := newJSONContext(e, http.MethodPost, "/api/v1/auth/login",
			`{"email": "asha@example.com", "password": "handloom99"}`)
		require.NoError(t, handler.Login(c))
		assert.Equal(t, http.StatusOK, rec.Code)

		var response AuthResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &response))
		assert.NotEmpty(t, response.AccessToken)
		assert.Equal(t, "Asha", response.User.Name)
	})

	t.Run("wrong password", func(t *testing.T) {
		c, rec := newJSONContext(e, http.MethodPost, "/api/v1/auth/login",
			`{"email": "asha@example.com", "password": "wrong-password"}`)
		require.NoError(t, handler.Login(c))
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Equal(t, ErrorTypeUnauthorized, decodeProblem(t, rec).Type)
	})

	t.Run("missing fields", func(t *testing.T) {
		c, rec := newJSONContext(e, http.MethodPost, "/api/v1/auth/login", `{"email": "asha@example.com"}`)
		require.NoError(t, handler.Login(c))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestRefreshToken_RotatesAndRejectsReuse(t *testing.T) {
	e := echo.New()
	svc, _ := newTestAuthService(t)
	handler := NewAuthHandler(svc)

	c, rec := newJSONContext(e, http.MethodPost, "/api/v1/auth/register",
		`{"name": "Asha", "email": "asha@example.com", "password": "handloom99"}`)
	require.NoError(t, handler.Register(c))
	var registered AuthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &registered))

	body := `{"refreshToken": "` + registered.RefreshToken + `"}`

	c, rec = newJSONContext(e, http.MethodPost, "/api/v1/auth/refresh-token", body)
	require.NoError(t, handler.RefreshToken(c))
	require.Equal(t, http.StatusOK, rec.Code)

	var pair TokenPairResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &pair))
	assert.NotEqual(t, registered.RefreshToken, pair.RefreshToken)
	assert.NotEmpty(t, pair.AccessToken)

	c, rec = newJSONContext(e, http.MethodPost, "/api/v1/auth/refresh-token", body)
	require.NoError(t, handler.RefreshToken(c))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRefreshToken_Missing(t *testing.T) {
	e := echo.New()
	svc, _ := newTestAuthService(t)
	handler := NewAuthHandler(svc)

	c, rec := newJSONContext(e, http.MethodPost, "/api/v1/auth/refresh-token", `{}`)
	require.NoError(t, handler.RefreshToken(c))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestLogout(t *testing.T) {
	e := echo.New()
	svc, _ := newTestAuthService(t)
	handler := NewAuthHandler(svc)

	c, rec := newJSONContext(e, http.MethodPost, "/api/v1/auth/register",
		`{"name": "Asha", "email": "asha@example.com", "password": "handloom99"}`)
	require.NoError(t, handler.Register(c))
	var registered AuthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &registered))
	body := `{"refreshToken": "` + registered.RefreshToken + `"}`

	c, rec = newJSONContext(e, http.MethodPost, "/api/v1/auth/logout", body)
	require.NoError(t, handler.Logout(c))
	assert.Equal(t, http.StatusNoContent, rec.Code)

	// The revoked token can no longer be exchanged
	c, rec = newJSONContext(e, http.MethodPost, "/api/v1/auth/refresh-token", body)
	require.NoError(t, handler.RefreshToken(c))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestMe(t *testing.T) {
	e := echo.New()
	svc, users := newTestAuthService(t)
	handler := NewAuthHandler(svc)

	user := &domain.User{ID: uuid.New(), Email: "meera@example.com", Name: "Meera", Role: domain.RoleAdmin, CreatedAt: time.Now()}
	users.AddUser(user)

	c, rec := newJSONContext(e, http.MethodGet, "/api/v1/auth/me", "")
	setupAuthContext(c, user.ID, domain.RoleAdmin)

	require.NoError(t, handler.Me(c))
	assert.Equal(t, http.StatusOK, rec.Code)

	var response UserResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &response))
	assert.Equal(t, user.ID.String(), response.ID)
	assert.Equal(t, "admin", response.Role)
}

func TestMe_UnknownUser(t *testing.T) {
	e := echo.New()
	svc, _ := newTestAuthService(t)
	handler := NewAuthHandler(svc)

	c, rec := newJSONContext(e, http.MethodGet, "/api/v1/auth/me", "")
	setupAuthContext(c, uuid.New(), domain.RoleCustomer)

	require.NoError(t, handler.Me(c))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
