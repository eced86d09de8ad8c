package apiclient

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

const eventBuffer = 32

// closeTokenExpired is the close code the server sends when the access
// token the stream was opened with expires
const closeTokenExpired = 4001

// Subscribe opens the push-event stream for the signed-in user. A handshake
// refused because the access token expired is retried once after a
// refresh. The returned channel is closed when ctx is done, the connection
// drops or the access token expires; callers subscribe again to continue.
func (c *Client) Subscribe(ctx context.Context) (<-chan Event, error) {
	if c.tokens.Access() == "" && c.tokens.Refresh() != "" {
		if err := c.refreshAfter(ctx, ""); err != nil {
			return nil, err
		}
	}
	token := c.tokens.Access()
	if token == "" {
		return nil, ErrNotAuthenticated
	}

	conn, err := c.dialEvents(ctx, token)
	if IsTokenExpired(err) {
		if rerr := c.refreshAfter(ctx, token); rerr != nil {
			log.Debug().Err(rerr).Msg("Token refresh for event stream failed")
			return nil, err
		}
		conn, err = c.dialEvents(ctx, c.tokens.Access())
	}
	if err != nil {
		return nil, err
	}

	events := make(chan Event, eventBuffer)
	done := make(chan struct{})

	go func() {
		select {
		case <-ctx.Done():
		case <-done:
		}
		conn.Close()
	}()

	go func() {
		defer close(events)
		defer close(done)

		for {
			_, data, err := conn.ReadMessage()
			if err != nil {
				switch {
				case ctx.Err() != nil:
				case websocket.IsCloseError(err, closeTokenExpired):
					log.Debug().Msg("Event stream closed, access token expired")
				case websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway):
					log.Warn().Err(err).Msg("Event stream closed unexpectedly")
				}
				return
			}

			var event Event
			if err := json.Unmarshal(data, &event); err != nil {
				log.Warn().Err(err).Msg("Discarding malformed event")
				continue
			}

			select {
			case events <- event:
			case <-ctx.Done():
				return
			}
		}
	}()

	return events, nil
}

// dialEvents opens the stream with token. A refused handshake is returned
// as an *APIError decoded from the problem body.
func (c *Client) dialEvents(ctx context.Context, token string) (*websocket.Conn, error) {
	wsURL, err := c.eventsURL(token)
	if err != nil {
		return nil, err
	}

	dialer := websocket.Dialer{HandshakeTimeout: 10 * time.Second}
	conn, resp, err := dialer.DialContext(ctx, wsURL, nil)
	if err != nil {
		if resp != nil && resp.StatusCode != http.StatusSwitchingProtocols {
			apiErr := decodeProblem(resp)
			log.Debug().Err(err).Int("status", resp.StatusCode).Msg("Event stream handshake refused")
			return nil, apiErr
		}
		return nil, fmt.Errorf("failed to open event stream: %w", err)
	}
	return conn, nil
}

// eventsURL derives the websocket URL from the REST base URL
func (c *Client) eventsURL(token string) (string, error) {
	u, err := url.Parse(c.baseURL + "/ws")
	if err != nil {
		return "", fmt.Errorf("invalid base URL: %w", err)
	}
	switch strings.ToLower(u.Scheme) {
	case "https":
		u.Scheme = "wss"
	default:
		u.Scheme = "ws"
	}
	q := u.Query()
	q.Set("token", token)
	u.RawQuery = q.Encode()
	return u.String(), nil
}
