package storefront

import (
	"context"

	"github.com/vastra/storefront/internal/apiclient"
)

// CartBackend is the part of the REST API the cart uses
type CartBackend interface {
	GetCart(ctx context.Context) ([]apiclient.CartLine, error)
	AddToCart(ctx context.Context, productID string, quantity int) ([]apiclient.CartLine, error)
	UpdateCartItem(ctx context.Context, productID string, quantity int) ([]apiclient.CartLine, error)
	RemoveFromCart(ctx context.Context, productID string) ([]apiclient.CartLine, error)
	ClearCart(ctx context.Context) error
}

// Cart is the shopper's cart with optimistic add, update and remove
type Cart struct {
	*Collection
	backend CartBackend
}

// NewCart creates an idle, empty cart backed by backend
func NewCart(backend CartBackend) *Cart {
	return &Cart{Collection: newCollection("cart"), backend: backend}
}

// Fetch replaces the cart with the server's copy
func (c *Cart) Fetch(ctx context.Context) error {
	return c.fetch(ctx, func(ctx context.Context) ([]Item, error) {
		lines, err := c.backend.GetCart(ctx)
		if err != nil {
			return nil, err
		}
		items := make([]Item, 0, len(lines))
		for _, l := range lines {
			items = append(items, Item{
				ProductID: l.ProductID,
				Name:      l.Name,
				Price:     l.Price,
				Quantity:  l.Quantity,
				ImageURL:  l.ImageURL,
				AltText:   l.AltText,
			})
		}
		return items, nil
	}, mergeDisplay)
}

// FetchIfIdle fetches only if the cart has not been loaded this session
func (c *Cart) FetchIfIdle(ctx context.Context) error {
	if c.Status() != StatusIdle {
		return nil
	}
	return c.Fetch(ctx)
}

// Add puts one more unit of product in the cart: an existing entry is
// incremented, otherwise a new entry with quantity 1 is appended. The
// server receives the new absolute quantity.
func (c *Cart) Add(ctx context.Context, product ProductInfo) error {
	var quantity int
	prepare := func() (func(), func(), error) {
		i := c.indexOf(product.ProductID)
		if i < 0 {
			quantity = 1
			apply := func() {
				c.items = append(c.items, product.item(1))
			}
			invert := func() {
				c.removeKey(product.ProductID)
			}
			return apply, invert, nil
		}

		original := c.items[i]
		quantity = original.Quantity + 1
		apply := func() {
			c.items[i].Quantity = quantity
		}
		invert := func() {
			if j := c.indexOf(product.ProductID); j >= 0 {
				c.items[j].Quantity = original.Quantity
				return
			}
			c.items = append(c.items, original)
		}
		return apply, invert, nil
	}

	return c.mutate(ctx, product.ProductID, prepare, func(ctx context.Context) error {
		_, err := c.backend.AddToCart(ctx, product.ProductID, quantity)
		return err
	})
}

// UpdateQuantity sets the quantity of an entry already in the cart
func (c *Cart) UpdateQuantity(ctx context.Context, productID string, quantity int) error {
	if quantity < 1 {
		return ErrInvalidQuantity
	}

	prepare := func() (func(), func(), error) {
		i := c.indexOf(productID)
		if i < 0 {
			return nil, nil, ErrItemNotFound
		}
		original := c.items[i]
		apply := func() {
			c.items[i].Quantity = quantity
		}
		invert := func() {
			if j := c.indexOf(productID); j >= 0 {
				c.items[j].Quantity = original.Quantity
				return
			}
			c.items = append(c.items, original)
		}
		return apply, invert, nil
	}

	return c.mutate(ctx, productID, prepare, func(ctx context.Context) error {
		_, err := c.backend.UpdateCartItem(ctx, productID, quantity)
		return err
	})
}

// Remove deletes an entry. If the server rejects the removal the full
// original entry is put back at the end of the cart.
func (c *Cart) Remove(ctx context.Context, productID string) error {
	prepare := func() (func(), func(), error) {
		i := c.indexOf(productID)
		if i < 0 {
			return nil, nil, ErrItemNotFound
		}
		original := c.items[i]
		apply := func() {
			c.removeKey(productID)
		}
		invert := func() {
			c.put(original)
		}
		return apply, invert, nil
	}

	return c.mutate(ctx, productID, prepare, func(ctx context.Context) error {
		_, err := c.backend.RemoveFromCart(ctx, productID)
		return err
	})
}

// ClearRemote empties the cart on the server, then locally. On failure the
// local cart is kept and the error recorded.
func (c *Cart) ClearRemote(ctx context.Context) error {
	epoch := c.currentEpoch()
	if err := c.backend.ClearCart(ctx); err != nil {
		c.fail(epoch, err)
		return err
	}
	c.Clear()
	return nil
}

// Count returns the total number of units in the cart
func (c *Cart) Count() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	n := 0
	for _, item := range c.items {
		n += item.Quantity
	}
	return n
}
