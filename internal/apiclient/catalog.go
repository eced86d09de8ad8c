package apiclient

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
)

// ListProducts returns one page of active products
func (c *Client) ListProducts(ctx context.Context, q ProductQuery) (*ProductPage, error) {
	values := url.Values{}
	if q.Category != "" {
		values.Set("category", q.Category)
	}
	if q.Search != "" {
		values.Set("search", q.Search)
	}
	if q.Page > 0 {
		values.Set("page", strconv.Itoa(q.Page))
	}
	if q.Limit > 0 {
		values.Set("limit", strconv.Itoa(q.Limit))
	}

	path := "/products"
	if encoded := values.Encode(); encoded != "" {
		path += "?" + encoded
	}

	var page ProductPage
	if err := c.do(ctx, request{method: http.MethodGet, path: path, public: true}, &page); err != nil {
		return nil, err
	}
	if page.Data == nil {
		page.Data = []Product{}
	}
	return &page, nil
}

// GetProduct returns a single product
func (c *Client) GetProduct(ctx context.Context, id string) (*Product, error) {
	var out Product
	req := request{method: http.MethodGet, path: "/products/" + url.PathEscape(id), public: true}
	if err := c.do(ctx, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ListCategories returns all categories
func (c *Client) ListCategories(ctx context.Context) ([]Category, error) {
	return list[Category](ctx, c, request{method: http.MethodGet, path: "/categories", public: true})
}
