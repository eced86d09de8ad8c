package apiclient

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strconv"
)

// CreateProduct adds a product to the catalog. Requires the admin role.
func (c *Client) CreateProduct(ctx context.Context, input ProductInput) (*Product, error) {
	var out Product
	if err := c.do(ctx, request{method: http.MethodPost, path: "/admin/products", body: input}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// UpdateProduct replaces the fields of product id. Requires the admin role.
func (c *Client) UpdateProduct(ctx context.Context, id string, input ProductInput) (*Product, error) {
	var out Product
	req := request{method: http.MethodPut, path: "/admin/products/" + url.PathEscape(id), body: input}
	if err := c.do(ctx, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// DeleteProduct removes product id. Requires the admin role.
func (c *Client) DeleteProduct(ctx context.Context, id string) error {
	return c.do(ctx, request{method: http.MethodDelete, path: "/admin/products/" + url.PathEscape(id)}, nil)
}

// UploadProductImage sends an image as the product's picture. Requires the admin role.
func (c *Client) UploadProductImage(ctx context.Context, id, filename string, image io.Reader) (*Product, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	part, err := w.CreateFormFile("file", filename)
	if err != nil {
		return nil, fmt.Errorf("failed to create form file: %w", err)
	}
	if _, err := io.Copy(part, image); err != nil {
		return nil, fmt.Errorf("failed to read image: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("failed to finish form: %w", err)
	}

	var out Product
	req := request{
		method:      http.MethodPost,
		path:        "/admin/products/" + url.PathEscape(id) + "/image",
		raw:         buf.Bytes(),
		contentType: w.FormDataContentType(),
	}
	if err := c.do(ctx, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// CreateCategory adds a category. Requires the admin role.
func (c *Client) CreateCategory(ctx context.Context, input CategoryInput) (*Category, error) {
	var out Category
	if err := c.do(ctx, request{method: http.MethodPost, path: "/admin/categories", body: input}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// UpdateCategory replaces the fields of category id. Requires the admin role.
func (c *Client) UpdateCategory(ctx context.Context, id int32, input CategoryInput) (*Category, error) {
	var out Category
	req := request{method: http.MethodPut, path: "/admin/categories/" + strconv.Itoa(int(id)), body: input}
	if err := c.do(ctx, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// DeleteCategory removes category id. Requires the admin role.
func (c *Client) DeleteCategory(ctx context.Context, id int32) error {
	return c.do(ctx, request{method: http.MethodDelete, path: "/admin/categories/" + strconv.Itoa(int(id))}, nil)
}
