package apiclient

import (
	"context"
	"net/http"
)

// Login signs in and stores the returned tokens
func (c *Client) Login(ctx context.Context, email, password string) (*AuthResponse, error) {
	var out AuthResponse
	req := request{
		method: http.MethodPost,
		path:   "/auth/login",
		body:   loginRequest{Email: email, Password: password},
		public: true,
	}
	if err := c.do(ctx, req, &out); err != nil {
		return nil, err
	}
	c.tokens.Set(out.TokenPair)
	return &out, nil
}

// Register creates an account, signs in and stores the returned tokens
func (c *Client) Register(ctx context.Context, name, email, password string) (*AuthResponse, error) {
	var out AuthResponse
	req := request{
		method: http.MethodPost,
		path:   "/auth/register",
		body:   registerRequest{Name: name, Email: email, Password: password},
		public: true,
	}
	if err := c.do(ctx, req, &out); err != nil {
		return nil, err
	}
	c.tokens.Set(out.TokenPair)
	return &out, nil
}

// RefreshToken exchanges a refresh token for a new pair. The held tokens
// are not modified; the caller decides what to keep.
func (c *Client) RefreshToken(ctx context.Context, refreshToken string) (*TokenPair, error) {
	var out TokenPair
	req := request{
		method: http.MethodPost,
		path:   "/auth/refresh-token",
		body:   refreshRequest{RefreshToken: refreshToken},
		public: true,
	}
	if err := c.do(ctx, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Logout revokes the held refresh token and clears the session. The local
// session is cleared even when the server call fails.
func (c *Client) Logout(ctx context.Context) error {
	refreshToken := c.tokens.Refresh()
	defer c.tokens.Clear()

	if refreshToken == "" {
		return nil
	}
	return c.do(ctx, request{
		method: http.MethodPost,
		path:   "/auth/logout",
		body:   refreshRequest{RefreshToken: refreshToken},
		public: true,
	}, nil)
}

// Me returns the signed-in user
func (c *Client) Me(ctx context.Context) (*User, error) {
	if !c.tokens.IsAuthenticated() && c.tokens.Refresh() == "" {
		return nil, ErrNotAuthenticated
	}
	var out User
	if err := c.do(ctx, request{method: http.MethodGet, path: "/auth/me"}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
