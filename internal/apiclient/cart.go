package apiclient

import (
	"context"
	"net/http"
	"net/url"
)

// GetCart returns the signed-in user's cart
func (c *Client) GetCart(ctx context.Context) ([]CartLine, error) {
	return list[CartLine](ctx, c, request{method: http.MethodGet, path: "/cart"})
}

// AddToCart sets the absolute quantity of productID in the cart
func (c *Client) AddToCart(ctx context.Context, productID string, quantity int) ([]CartLine, error) {
	return list[CartLine](ctx, c, request{
		method: http.MethodPost,
		path:   "/cart/add",
		body:   cartItemRequest{ProductID: productID, Quantity: quantity},
	})
}

// UpdateCartItem changes the quantity of a product already in the cart
func (c *Client) UpdateCartItem(ctx context.Context, productID string, quantity int) ([]CartLine, error) {
	return list[CartLine](ctx, c, request{
		method: http.MethodPut,
		path:   "/cart/update",
		body:   cartItemRequest{ProductID: productID, Quantity: quantity},
	})
}

// RemoveFromCart deletes productID from the cart
func (c *Client) RemoveFromCart(ctx context.Context, productID string) ([]CartLine, error) {
	return list[CartLine](ctx, c, request{
		method: http.MethodDelete,
		path:   "/cart/remove/" + url.PathEscape(productID),
	})
}

// ClearCart empties the cart on the server
func (c *Client) ClearCart(ctx context.Context) error {
	return c.do(ctx, request{method: http.MethodDelete, path: "/cart"}, nil)
}
