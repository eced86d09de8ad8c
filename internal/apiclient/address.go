package apiclient

import (
	"context"
	"net/http"
	"net/url"
)

// ListAddresses returns the signed-in user's addresses
func (c *Client) ListAddresses(ctx context.Context) ([]Address, error) {
	return list[Address](ctx, c, request{method: http.MethodGet, path: "/address"})
}

// CreateAddress stores a new address and returns it with its server-assigned ID
func (c *Client) CreateAddress(ctx context.Context, input AddressInput) (*Address, error) {
	var out Address
	if err := c.do(ctx, request{method: http.MethodPost, path: "/address", body: input}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// UpdateAddress replaces the fields of address id
func (c *Client) UpdateAddress(ctx context.Context, id string, input AddressInput) (*Address, error) {
	var out Address
	req := request{method: http.MethodPut, path: "/address/" + url.PathEscape(id), body: input}
	if err := c.do(ctx, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// DeleteAddress removes address id
func (c *Client) DeleteAddress(ctx context.Context, id string) error {
	return c.do(ctx, request{method: http.MethodDelete, path: "/address/" + url.PathEscape(id)}, nil)
}
