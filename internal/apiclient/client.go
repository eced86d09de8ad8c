// Package apiclient is the storefront's REST client. It attaches the bearer
// token, decodes problem-detail errors and performs a single silent
// refresh-and-retry when the access token has expired.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	semconv "go.opentelemetry.io/otel/semconv/v1.4.0"
	"go.opentelemetry.io/otel/trace"
)

const (
	// DefaultTimeout bounds a single HTTP round trip
	DefaultTimeout = 15 * time.Second

	tracerName = "github.com/vastra/storefront/internal/apiclient"
)

// Client talks to the storefront REST API. It is safe for concurrent use.
type Client struct {
	baseURL    string
	httpClient *http.Client
	tokens     *TokenHolder
	tracer     trace.Tracer

	// refreshMu serializes refreshes so concurrent 401s exchange the
	// refresh token once.
	refreshMu sync.Mutex
}

// Option configures a Client
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client. Its transport is
// used as is; wrap it with otelhttp to keep propagating trace context.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithTimeout sets the per-request timeout of the default HTTP client
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.httpClient.Timeout = d
	}
}

// WithTokens shares an existing token holder
func WithTokens(h *TokenHolder) Option {
	return func(c *Client) {
		c.tokens = h
	}
}

// New creates a Client for the API rooted at baseURL, e.g. http://localhost:8080/api/v1
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout:   DefaultTimeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		tokens: NewTokenHolder(),
		tracer: otel.Tracer(tracerName),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Tokens returns the client's token holder
func (c *Client) Tokens() *TokenHolder {
	return c.tokens
}

// BaseURL returns the API root the client was created with
func (c *Client) BaseURL() string {
	return c.baseURL
}

type request struct {
	method      string
	path        string
	body        interface{}
	raw         []byte
	contentType string
	public      bool
}

// do sends req and decodes a successful response into out. An authenticated
// request that fails with an expired token is retried once after a refresh.
func (c *Client) do(ctx context.Context, req request, out interface{}) error {
	if !req.public && c.tokens.Access() == "" && c.tokens.Refresh() != "" {
		if err := c.refreshAfter(ctx, ""); err != nil {
			return err
		}
	}

	sentWith, err := c.send(ctx, req, out)
	if err == nil || req.public || !IsTokenExpired(err) {
		return err
	}
	if rerr := c.refreshAfter(ctx, sentWith); rerr != nil {
		log.Debug().Err(rerr).Str("path", req.path).Msg("Token refresh failed")
		return err
	}

	_, err = c.send(ctx, req, out)
	return err
}

// refreshAfter exchanges the refresh token unless another caller already
// replaced the access token that was rejected.
func (c *Client) refreshAfter(ctx context.Context, rejected string) error {
	c.refreshMu.Lock()
	defer c.refreshMu.Unlock()

	if current := c.tokens.Access(); current != "" && current != rejected {
		return nil
	}

	refreshToken := c.tokens.Refresh()
	if refreshToken == "" {
		c.tokens.Clear()
		return ErrNoRefreshToken
	}

	pair, err := c.RefreshToken(ctx, refreshToken)
	if err != nil {
		c.tokens.Clear()
		return err
	}
	c.tokens.Set(*pair)
	return nil
}

// send performs one HTTP round trip and returns the access token it used
func (c *Client) send(ctx context.Context, req request, out interface{}) (string, error) {
	ctx, span := c.tracer.Start(ctx, req.method+" "+req.path, trace.WithSpanKind(trace.SpanKindClient))
	defer span.End()

	span.SetAttributes(
		semconv.HTTPMethodKey.String(req.method),
		semconv.HTTPTargetKey.String(req.path),
	)

	var body io.Reader
	contentType := req.contentType
	switch {
	case req.raw != nil:
		body = bytes.NewReader(req.raw)
	case req.body != nil:
		buf, err := json.Marshal(req.body)
		if err != nil {
			return "", fmt.Errorf("failed to encode request: %w", err)
		}
		body = bytes.NewReader(buf)
		contentType = "application/json"
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.method, c.baseURL+req.path, body)
	if err != nil {
		return "", fmt.Errorf("failed to build request: %w", err)
	}
	httpReq.Header.Set("Accept", "application/json")
	if contentType != "" {
		httpReq.Header.Set("Content-Type", contentType)
	}

	var token string
	if !req.public {
		token = c.tokens.Access()
		if token != "" {
			httpReq.Header.Set("Authorization", "Bearer "+token)
		}
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "transport error")
		return token, fmt.Errorf("%s %s: %w", req.method, req.path, err)
	}
	defer resp.Body.Close()

	span.SetAttributes(semconv.HTTPStatusCodeKey.Int(resp.StatusCode))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := decodeProblem(resp)
		span.SetAttributes(attribute.String("problem.type", apiErr.Type))
		span.SetStatus(codes.Error, apiErr.Error())
		return token, apiErr
	}

	if out == nil || resp.StatusCode == http.StatusNoContent {
		_, _ = io.Copy(io.Discard, resp.Body)
		return token, nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		span.RecordError(err)
		return token, fmt.Errorf("failed to decode %s %s response: %w", req.method, req.path, err)
	}
	return token, nil
}

func decodeProblem(resp *http.Response) *APIError {
	data, err := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if err != nil || len(data) == 0 {
		return newStatusError(resp.StatusCode)
	}

	apiErr := &APIError{}
	if err := json.Unmarshal(data, apiErr); err != nil {
		return newStatusError(resp.StatusCode)
	}
	if apiErr.StatusCode == 0 {
		apiErr.StatusCode = resp.StatusCode
	}
	if apiErr.Title == "" && apiErr.Detail == "" {
		// echo's default error body is {"message": "..."}
		var plain struct {
			Message string `json:"message"`
		}
		if json.Unmarshal(data, &plain) == nil {
			apiErr.Detail = plain.Message
		}
	}
	return apiErr
}

// decodeList accepts either a bare JSON array or a {"data": [...]} envelope
func decodeList[T any](raw json.RawMessage) ([]T, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return []T{}, nil
	}
	if trimmed[0] == '[' {
		var items []T
		if err := json.Unmarshal(trimmed, &items); err != nil {
			return nil, err
		}
		return items, nil
	}
	var envelope struct {
		Data []T `json:"data"`
	}
	if err := json.Unmarshal(trimmed, &envelope); err != nil {
		return nil, err
	}
	if envelope.Data == nil {
		return []T{}, nil
	}
	return envelope.Data, nil
}

// list performs req and decodes a list response
func list[T any](ctx context.Context, c *Client, req request) ([]T, error) {
	var raw json.RawMessage
	if err := c.do(ctx, req, &raw); err != nil {
		return nil, err
	}
	items, err := decodeList[T](raw)
	if err != nil {
		return nil, fmt.Errorf("failed to decode %s %s response: %w", req.method, req.path, err)
	}
	return items, nil
}
