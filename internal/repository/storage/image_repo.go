// Package storage holds product images in object storage.
package storage

import (
	"context"
	"io"
)

// ImageRepository defines the interface for image storage operations
type ImageRepository interface {
	// Upload stores data under objectPath and returns objectPath
	Upload(ctx context.Context, objectPath string, data io.Reader, contentType string, size int64) (string, error)
	Delete(ctx context.Context, objectPath string) error
	// DeletePrefix removes every object under prefix and returns how many were removed
	DeletePrefix(ctx context.Context, prefix string) (int, error)
	// PublicURL returns the URL shoppers load objectPath from
	PublicURL(objectPath string) string
}
