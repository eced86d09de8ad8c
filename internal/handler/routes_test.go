package handler

import (
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
	"github.com/vastra/storefront/internal/domain"
	"github.com/vastra/storefront/internal/middleware"
	"github.com/vastra/storefront/internal/service"
	"github.com/vastra/storefront/internal/testutil"
	"github.com/vastra/storefront/internal/token"
	"github.com/vastra/storefront/internal/websocket"
)

type routedServer struct {
	e        *echo.Echo
	clock    *clock.FakeClock
	issuer   *token.Issuer
	products *testutil.MockProductRepository
	limiter  *middleware.RateLimiter
}

func newRoutedServer(t *testing.T, loginsPerMinute int) *routedServer {
	t.Helper()

	clk := clock.NewFake(time.Now().UTC())
	issuer, err := token.NewIssuer(testJWTConfig, clk)
	require.NoError(t, err)
	validator, err := token.NewValidator(testJWTConfig)
	require.NoError(t, err)

	users := testutil.NewMockUserRepository()
	products := testutil.NewMockProductRepository()
	categories := testutil.NewMockCategoryRepository()
	hub := websocket.NewHub()
	limiter := middleware.NewRateLimiter(loginsPerMinute, loginsPerMinute)
	t.Cleanup(limiter.Stop)
	t.Cleanup(hub.Shutdown)

	authService := service.NewAuthService(users, testutil.NewMockRefreshTokenRepository(), issuer, testJWTConfig.RefreshTTL, clk)

	e := echo.New()
	RegisterRoutes(e, middleware.NewAuthMiddleware(validator), limiter, Handlers{
		Health:    NewHealthHandler(nil),
		Auth:      NewAuthHandler(authService),
		Cart:      NewCartHandler(service.NewCartService(testutil.NewMockCartRepository(), products)),
		Wishlist:  NewWishlistHandler(service.NewWishlistService(testutil.NewMockWishlistRepository(), products)),
		Address:   NewAddressHandler(service.NewAddressService(testutil.NewMockAddressRepository())),
		Product:   NewProductHandler(service.NewProductService(products, categories)),
		Category:  NewCategoryHandler(service.NewCategoryService(categories)),
		Image:     NewImageHandler(service.NewImageService(nil, products)),
		WebSocket: NewWebSocketHandler(hub, websocket.NewAccessTokenValidator(validator), nil),
	})

	return &routedServer{e: e, clock: clk, issuer: issuer, products: products, limiter: limiter}
}

func (s *routedServer) accessToken(t *testing.T, role domain.Role) string {
	t.Helper()
	raw, _, err := s.issuer.Issue(&domain.User{ID: uuid.New(), Email: "shopper@example.com", Role: role})
	require.NoError(t, err)
	return raw
}

func (s *routedServer) do(method, target, bearer, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	if bearer != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+bearer)
	}
	rec := httptest.NewRecorder()
	s.e.ServeHTTP(rec, req)
	return rec
}

func TestRoutes_PublicCatalog(t *testing.T) {
	s := newRoutedServer(t, 10)
	s.products.NewActiveProduct("Kanjivaram", 12500, 3)

	rec := s.do(http.MethodGet, "/api/v1/products", "", "")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = s.do(http.MethodGet, "/api/v1/categories", "", "")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = s.do(http.MethodGet, "/health", "", "")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRoutes_CartRequiresToken(t *testing.T) {
	s := newRoutedServer(t, 10)

	rec := s.do(http.MethodGet, "/api/v1/cart", "", "")
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, ErrorTypeUnauthorized, decodeProblem(t, rec).Type)

	rec = s.do(http.MethodGet, "/api/v1/cart", "not-a-jwt", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = s.do(http.MethodGet, "/api/v1/cart", s.accessToken(t, domain.RoleCustomer), "")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRoutes_ExpiredToken(t *testing.T) {
	s := newRoutedServer(t, 10)

	s.clock.Advance(-2 * testJWTConfig.AccessTTL)
	stale := s.accessToken(t, domain.RoleCustomer)

	rec := s.do(http.MethodGet, "/api/v1/wishlist", stale, "")
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, ErrorTypeTokenExpired, decodeProblem(t, rec).Type)
}

func TestRoutes_AdminRequiresRole(t *testing.T) {
	s := newRoutedServer(t, 10)
	body := `{"name": "Chanderi", "price": "3200", "stock": 2, "active": true}`

	rec := s.do(http.MethodPost, "/api/v1/admin/products", s.accessToken(t, domain.RoleCustomer), body)
	require.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, ErrorTypeForbidden, decodeProblem(t, rec).Type)

	rec = s.do(http.MethodPost, "/api/v1/admin/products", s.accessToken(t, domain.RoleAdmin), body)
	assert.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = s.do(http.MethodGet, "/api/v1/products?search=chanderi", "", "")
	assert.Contains(t, rec.Body.String(), "Chanderi")
}

func TestRoutes_LoginRateLimited(t *testing.T) {
	s := newRoutedServer(t, 2)
	body := `{"email": "nobody@example.com", "password": "whatever1"}`

	for i := 0; i < 2; i++ {
		rec := s.do(http.MethodPost, "/api/v1/auth/login", "", body)
		require.Equal(t, http.StatusUnauthorized, rec.Code)
	}

	rec := s.do(http.MethodPost, "/api/v1/auth/login", "", body)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("Retry-After"))

	// Refresh is not limited
	rec = s.do(http.MethodPost, "/api/v1/auth/refresh-token", "", `{"refreshToken": "unknown"}`)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
