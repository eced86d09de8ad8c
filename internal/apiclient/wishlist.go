package apiclient

import (
	"context"
	"net/http"
	"net/url"
)

// GetWishlist returns the signed-in user's wishlist
func (c *Client) GetWishlist(ctx context.Context) ([]WishlistLine, error) {
	return list[WishlistLine](ctx, c, request{method: http.MethodGet, path: "/wishlist"})
}

// AddToWishlist saves productID to the wishlist
func (c *Client) AddToWishlist(ctx context.Context, productID string) ([]WishlistLine, error) {
	return list[WishlistLine](ctx, c, request{
		method: http.MethodPost,
		path:   "/wishlist/add",
		body:   wishlistItemRequest{ProductID: productID},
	})
}

// RemoveFromWishlist deletes productID from the wishlist
func (c *Client) RemoveFromWishlist(ctx context.Context, productID string) ([]WishlistLine, error) {
	return list[WishlistLine](ctx, c, request{
		method: http.MethodDelete,
		path:   "/wishlist/remove/" + url.PathEscape(productID),
	})
}
