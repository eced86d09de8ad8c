package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	ws "github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vastra/storefront/internal/websocket"
)

// mockTokenValidator is a test double for connection token validation
type mockTokenValidator struct {
	userID    uuid.UUID
	expiresAt time.Time
	err       error
}

func (m *mockTokenValidator) ValidateToken(ctx context.Context, token string) (websocket.Grant, error) {
	if m.err != nil {
		return websocket.Grant{}, m.err
	}
	return websocket.Grant{UserID: m.userID, ExpiresAt: m.expiresAt}, nil
}

var testAllowedOrigins = []string{"http://localhost:3000", "https://vastra.shop"}

func TestWebSocketHandler_HandleWS_Rejections(t *testing.T) {
	tests := []struct {
		name      string
		validator *mockTokenValidator
		target    string
		wantType  string
	}{
		{
			name:      "missing token",
			validator: &mockTokenValidator{userID: uuid.New()},
			target:    "/ws",
			wantType:  ErrorTypeUnauthorized,
		},
		{
			name:      "invalid token",
			validator: &mockTokenValidator{err: websocket.ErrInvalidToken},
			target:    "/ws?token=invalid-jwt",
			wantType:  ErrorTypeUnauthorized,
		},
		{
			name:      "expired token",
			validator: &mockTokenValidator{err: websocket.ErrTokenExpired},
			target:    "/ws?token=expired-jwt",
			wantType:  ErrorTypeTokenExpired,
		},
		{
			name:      "token about to expire",
			validator: &mockTokenValidator{userID: uuid.New(), expiresAt: time.Now().Add(MinStreamLifetime / 2)},
			target:    "/ws?token=valid-jwt",
			wantType:  ErrorTypeTokenExpired,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := echo.New()
			hub := websocket.NewHub()
			h := NewWebSocketHandler(hub, tt.validator, testAllowedOrigins)

			req := httptest.NewRequest(http.MethodGet, tt.target, nil)
			rec := httptest.NewRecorder()

			require.NoError(t, h.HandleWS(e.NewContext(req, rec)))
			assert.Equal(t, http.StatusUnauthorized, rec.Code)
			assert.Equal(t, tt.wantType, decodeProblem(t, rec).Type)
			assert.Equal(t, 0, hub.TotalClientCount())
		})
	}
}

func TestWebSocketHandler_HandleWS_ValidToken_NoUpgrade(t *testing.T) {
	e := echo.New()
	hub := websocket.NewHub()
	h := NewWebSocketHandler(hub, &mockTokenValidator{userID: uuid.New()}, testAllowedOrigins)

	// valid token but not a websocket handshake
	req := httptest.NewRequest(http.MethodGet, "/ws?token=valid-jwt", nil)
	rec := httptest.NewRecorder()

	require.NoError(t, h.HandleWS(e.NewContext(req, rec)))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, 0, hub.TotalClientCount())
}

func TestStreamToken(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/ws?token=from-query", nil)
	assert.Equal(t, "from-query", streamToken(req))

	req.Header.Set(echo.HeaderAuthorization, "Bearer from-header")
	assert.Equal(t, "from-header", streamToken(req))

	req.Header.Set(echo.HeaderAuthorization, "Basic dXNlcjpwYXNz")
	assert.Equal(t, "from-query", streamToken(req))
}

func TestWebSocketHandler_HandleWS_BearerHeader(t *testing.T) {
	userID := uuid.New()
	hub := websocket.NewHub()
	defer hub.Shutdown()
	h := NewWebSocketHandler(hub, &mockTokenValidator{userID: userID}, testAllowedOrigins)

	e := echo.New()
	e.GET("/ws", h.HandleWS)
	srv := httptest.NewServer(e)
	defer srv.Close()

	header := http.Header{}
	header.Set(echo.HeaderAuthorization, "Bearer valid-jwt")
	conn, _, err := ws.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http")+"/ws", header)
	require.NoError(t, err)
	defer conn.Close()

	require.Eventually(t, func() bool { return hub.ClientCount(userID) == 1 }, time.Second, 10*time.Millisecond)
}

func TestWebSocketHandler_HandleWS_DeliversUserEvents(t *testing.T) {
	userID := uuid.New()
	hub := websocket.NewHub()
	defer hub.Shutdown()
	h := NewWebSocketHandler(hub, &mockTokenValidator{userID: userID}, testAllowedOrigins)

	e := echo.New()
	e.GET("/ws", h.HandleWS)
	srv := httptest.NewServer(e)
	defer srv.Close()

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws?token=valid-jwt"
	conn, resp, err := ws.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer conn.Close()
	assert.Equal(t, http.StatusSwitchingProtocols, resp.StatusCode)

	require.Eventually(t, func() bool { return hub.ClientCount(userID) == 1 }, time.Second, 10*time.Millisecond)

	hub.Broadcast(uuid.New(), websocket.CartCleared())
	hub.Broadcast(userID, websocket.CartCleared())

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)

	var event websocket.Event
	require.NoError(t, json.Unmarshal(data, &event))
	assert.Equal(t, "cart.cleared", event.Type)
	assert.Equal(t, websocket.EntityTypeCart, event.Entity)
}

func TestWebSocketHandler_HandleWS_ClosesWhenTokenExpires(t *testing.T) {
	userID := uuid.New()
	hub := websocket.NewHub()
	defer hub.Shutdown()
	h := NewWebSocketHandler(hub, &mockTokenValidator{userID: userID, expiresAt: time.Now().Add(200 * time.Millisecond)}, testAllowedOrigins)
	// admit the short-lived token
	h.now = func() time.Time { return time.Now().Add(-MinStreamLifetime) }

	e := echo.New()
	e.GET("/ws", h.HandleWS)
	srv := httptest.NewServer(e)
	defer srv.Close()

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws?token=valid-jwt"
	conn, _, err := ws.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer conn.Close()

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(3*time.Second)))
	_, _, err = conn.ReadMessage()
	require.Error(t, err)
	assert.True(t, ws.IsCloseError(err, websocket.CloseTokenExpired), "got %v", err)

	require.Eventually(t, func() bool { return hub.ClientCount(userID) == 0 }, 2*time.Second, 10*time.Millisecond)
}

func TestOriginPolicy(t *testing.T) {
	tests := []struct {
		name     string
		allowed  []string
		origin   string
		expected bool
	}{
		{"allowed origin", testAllowedOrigins, "http://localhost:3000", true},
		{"allowed origin https", testAllowedOrigins, "https://vastra.shop", true},
		{"case and trailing slash", []string{"https://Vastra.shop/"}, "https://vastra.SHOP", true},
		{"disallowed origin", testAllowedOrigins, "https://evil.com", false},
		{"empty origin (non-browser)", testAllowedOrigins, "", true},
		{"wildcard", []string{"*"}, "https://preview.vastra.dev", true},
		{"nothing configured", nil, "https://vastra.shop", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/ws", nil)
			if tt.origin != "" {
				req.Header.Set("Origin", tt.origin)
			}
			assert.Equal(t, tt.expected, newOriginPolicy(tt.allowed).check(req))
		})
	}
}
