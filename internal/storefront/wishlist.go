package storefront

import (
	"context"
	"errors"

	"github.com/vastra/storefront/internal/apiclient"
)

// WishlistBackend is the part of the REST API the wishlist uses
type WishlistBackend interface {
	GetWishlist(ctx context.Context) ([]apiclient.WishlistLine, error)
	AddToWishlist(ctx context.Context, productID string) ([]apiclient.WishlistLine, error)
	RemoveFromWishlist(ctx context.Context, productID string) ([]apiclient.WishlistLine, error)
}

// Wishlist is the shopper's saved products. Every entry has quantity 1.
type Wishlist struct {
	*Collection
	backend WishlistBackend
}

// NewWishlist creates an idle, empty wishlist backed by backend
func NewWishlist(backend WishlistBackend) *Wishlist {
	return &Wishlist{Collection: newCollection("wishlist"), backend: backend}
}

// Fetch replaces the wishlist with the server's copy
func (w *Wishlist) Fetch(ctx context.Context) error {
	return w.fetch(ctx, func(ctx context.Context) ([]Item, error) {
		lines, err := w.backend.GetWishlist(ctx)
		if err != nil {
			return nil, err
		}
		items := make([]Item, 0, len(lines))
		for _, l := range lines {
			items = append(items, Item{
				ProductID: l.ProductID,
				Name:      l.Name,
				Price:     l.Price,
				Quantity:  1,
				ImageURL:  l.ImageURL,
				AltText:   l.AltText,
			})
		}
		return items, nil
	}, mergeDisplay)
}

// FetchIfIdle fetches only if the wishlist has not been loaded this session
func (w *Wishlist) FetchIfIdle(ctx context.Context) error {
	if w.Status() != StatusIdle {
		return nil
	}
	return w.Fetch(ctx)
}

// Add saves product. Adding a product that is already saved does nothing.
func (w *Wishlist) Add(ctx context.Context, product ProductInfo) error {
	prepare := func() (func(), func(), error) {
		if w.indexOf(product.ProductID) >= 0 {
			return nil, nil, nil
		}
		apply := func() {
			w.items = append(w.items, product.item(1))
		}
		invert := func() {
			w.removeKey(product.ProductID)
		}
		return apply, invert, nil
	}

	return w.mutate(ctx, product.ProductID, prepare, func(ctx context.Context) error {
		_, err := w.backend.AddToWishlist(ctx, product.ProductID)
		return err
	})
}

// Remove deletes a saved product, restoring it if the server rejects the removal
func (w *Wishlist) Remove(ctx context.Context, productID string) error {
	prepare := func() (func(), func(), error) {
		i := w.indexOf(productID)
		if i < 0 {
			return nil, nil, ErrItemNotFound
		}
		original := w.items[i]
		apply := func() {
			w.removeKey(productID)
		}
		invert := func() {
			w.put(original)
		}
		return apply, invert, nil
	}

	return w.mutate(ctx, productID, prepare, func(ctx context.Context) error {
		_, err := w.backend.RemoveFromWishlist(ctx, productID)
		return err
	})
}

// Toggle adds product if it is not saved, otherwise removes it
func (w *Wishlist) Toggle(ctx context.Context, product ProductInfo) error {
	if w.Contains(product.ProductID) {
		err := w.Remove(ctx, product.ProductID)
		if !errors.Is(err, ErrItemNotFound) {
			return err
		}
	}
	return w.Add(ctx, product)
}
