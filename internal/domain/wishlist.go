package domain

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var ErrWishlistItemNotFound = errors.New("wishlist item not found")

// WishlistItem is a stored wishlist row
type WishlistItem struct {
	UserID    uuid.UUID `json:"userId"`
	ProductID uuid.UUID `json:"productId"`
	AddedAt   time.Time `json:"addedAt"`
}

// WishlistLine is a wishlist row joined with the product's display fields
type WishlistLine struct {
	ProductID uuid.UUID       `json:"productId"`
	Price     decimal.Decimal `json:"price"`
	Name      string          `json:"name"`
	ImageURL  string          `json:"imageUrl"`
	AltText   string          `json:"altText"`
}

// WishlistRepository defines the interface for wishlist persistence.
// Add is idempotent; Remove of an absent product returns ErrWishlistItemNotFound.
type WishlistRepository interface {
	List(ctx context.Context, userID uuid.UUID) ([]*WishlistItem, error)
	Add(ctx context.Context, userID, productID uuid.UUID) error
	Remove(ctx context.Context, userID, productID uuid.UUID) error
}
