package handler

import (
	"errors"
	"net/http"
	"strings"
	"time"

	ws "github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"
	"github.com/vastra/storefront/internal/websocket"
)

// MinStreamLifetime is the least time a token must have left to open the
// event stream. A token closer to expiry gets token-expired so the client
// refreshes before connecting instead of right after.
const MinStreamLifetime = 5 * time.Second

// WebSocketHandler opens push event streams for signed-in shoppers
type WebSocketHandler struct {
	hub       *websocket.Hub
	validator websocket.TokenValidator
	origins   originPolicy
	upgrader  ws.Upgrader
	now       func() time.Time
}

// originPolicy decides which browser origins may open a stream. An entry
// of "*" admits any origin.
type originPolicy struct {
	any     bool
	allowed map[string]bool
}

func newOriginPolicy(origins []string) originPolicy {
	p := originPolicy{allowed: make(map[string]bool, len(origins))}
	for _, o := range origins {
		o = strings.TrimRight(strings.TrimSpace(o), "/")
		if o == "*" {
			p.any = true
			continue
		}
		p.allowed[strings.ToLower(o)] = true
	}
	return p
}

func (p originPolicy) check(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	// non-browser clients send no Origin
	if origin == "" || p.any || p.allowed[strings.ToLower(origin)] {
		return true
	}
	log.Warn().Str("origin", origin).Msg("WebSocket connection rejected: origin not allowed")
	return false
}

// NewWebSocketHandler creates a new WebSocketHandler
func NewWebSocketHandler(hub *websocket.Hub, validator websocket.TokenValidator, allowedOrigins []string) *WebSocketHandler {
	h := &WebSocketHandler{
		hub:       hub,
		validator: validator,
		origins:   newOriginPolicy(allowedOrigins),
		now:       time.Now,
	}
	h.upgrader = ws.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     h.origins.check,
	}
	return h
}

// streamToken reads the access token from the Authorization header, or
// from the token query parameter for browsers, which cannot set headers on
// the handshake.
func streamToken(r *http.Request) string {
	if auth := r.Header.Get(echo.HeaderAuthorization); auth != "" {
		if raw, ok := strings.CutPrefix(auth, "Bearer "); ok {
			return strings.TrimSpace(raw)
		}
	}
	return r.URL.Query().Get("token")
}

// HandleWS upgrades an authenticated request to the push event stream. The
// stream closes with code 4001 when the access token expires.
// @Summary Push event stream
// @Tags events
// @Param token query string false "Access token, when no Authorization header is sent"
// @Success 101
// @Failure 401 {object} ProblemDetails
// @Router /ws [get]
func (h *WebSocketHandler) HandleWS(c echo.Context) error {
	req := c.Request()
	raw := streamToken(req)
	if raw == "" {
		log.Debug().Msg("WebSocket connection rejected: missing token")
		return NewUnauthorizedError(c, "missing access token")
	}

	grant, err := h.validator.ValidateToken(req.Context(), raw)
	switch {
	case errors.Is(err, websocket.ErrTokenExpired):
		log.Debug().Msg("WebSocket connection rejected: token expired")
		return NewTokenExpiredError(c)
	case err != nil:
		log.Debug().Err(err).Msg("WebSocket connection rejected: invalid token")
		return NewUnauthorizedError(c, "invalid access token")
	}

	if !grant.ExpiresAt.IsZero() && grant.ExpiresAt.Sub(h.now()) < MinStreamLifetime {
		log.Debug().
			Str("user_id", grant.UserID.String()).
			Time("expires_at", grant.ExpiresAt).
			Msg("WebSocket connection rejected: token about to expire")
		return NewTokenExpiredError(c)
	}

	conn, err := h.upgrader.Upgrade(c.Response(), req, nil)
	if err != nil {
		// the upgrader has already written the handshake error
		log.Error().Err(err).Msg("WebSocket upgrade failed")
		return nil
	}

	client := websocket.NewClient(conn, grant, h.hub)
	h.hub.Register(client)

	log.Info().
		Str("user_id", grant.UserID.String()).
		Str("client_id", client.ID()).
		Time("expires_at", grant.ExpiresAt).
		Msg("Push stream opened")

	go client.WritePump()
	go client.ReadPump()
	return nil
}
