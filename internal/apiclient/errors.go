package apiclient

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// Problem type suffixes the storefront API uses in RFC 7807 responses
const (
	problemTokenExpired = "/errors/token-expired"
	problemNotFound     = "/errors/not-found"
)

var (
	// ErrNoRefreshToken is returned when an access token expired and the
	// holder has no refresh token to exchange.
	ErrNoRefreshToken = errors.New("no refresh token available")
	// ErrNotAuthenticated is returned by calls that need a session when none is held
	ErrNotAuthenticated = errors.New("not authenticated")
)

// FieldError is a single validation failure reported by the API
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// APIError is a non-2xx response decoded from RFC 7807 problem details
type APIError struct {
	StatusCode int          `json:"status"`
	Type       string       `json:"type"`
	Title      string       `json:"title"`
	Detail     string       `json:"detail"`
	Instance   string       `json:"instance"`
	Errors     []FieldError `json:"errors"`
}

// Error returns the most specific message the server supplied
func (e *APIError) Error() string {
	switch {
	case e.Detail != "":
		return e.Detail
	case e.Title != "":
		return e.Title
	default:
		return fmt.Sprintf("request failed with status %d", e.StatusCode)
	}
}

func newStatusError(status int) *APIError {
	return &APIError{StatusCode: status, Title: http.StatusText(status)}
}

// IsTokenExpired reports whether err is a 401 caused by an expired access token
func IsTokenExpired(err error) bool {
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		return false
	}
	return apiErr.StatusCode == http.StatusUnauthorized && strings.HasSuffix(apiErr.Type, problemTokenExpired)
}

// IsNotFound reports whether err is a 404 from the API
func IsNotFound(err error) bool {
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		return false
	}
	return apiErr.StatusCode == http.StatusNotFound || strings.HasSuffix(apiErr.Type, problemNotFound)
}

// IsUnauthorized reports whether err is any 401 from the API
func IsUnauthorized(err error) bool {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode == http.StatusUnauthorized
	}
	return errors.Is(err, ErrNoRefreshToken) || errors.Is(err, ErrNotAuthenticated)
}

// Message returns a user-facing message for err: the server's problem
// detail when there is one, otherwise a generic message.
func Message(err error) string {
	if err == nil {
		return ""
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Error()
	}
	if errors.Is(err, ErrNoRefreshToken) || errors.Is(err, ErrNotAuthenticated) {
		return "Please sign in again"
	}
	return "Something went wrong. Please try again."
}
