package domain

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var (
	ErrCartItemNotFound  = errors.New("cart item not found")
	ErrInvalidQuantity   = errors.New("quantity must be between 1 and 99")
	ErrInsufficientStock = errors.New("not enough stock for requested quantity")
)

// MaxCartQuantity caps the quantity of a single cart line
const MaxCartQuantity = 99

// CartItem is a stored cart row. Quantity is always absolute.
type CartItem struct {
	UserID    uuid.UUID `json:"userId"`
	ProductID uuid.UUID `json:"productId"`
	Quantity  int32     `json:"quantity"`
	AddedAt   time.Time `json:"addedAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// ValidateQuantity checks a requested cart quantity
func ValidateQuantity(quantity int32) error {
	if quantity < 1 || quantity > MaxCartQuantity {
		return ErrInvalidQuantity
	}
	return nil
}

// CartLine is a cart row joined with the product's display fields
type CartLine struct {
	ProductID uuid.UUID       `json:"productId"`
	Quantity  int32           `json:"quantity"`
	Name      string          `json:"name"`
	Price     decimal.Decimal `json:"price"`
	ImageURL  string          `json:"imageUrl"`
	AltText   string          `json:"altText"`
}

// Subtotal returns price times quantity
func (l CartLine) Subtotal() decimal.Decimal {
	return l.Price.Mul(decimal.NewFromInt32(l.Quantity))
}

// CartTotal sums the subtotals of lines
func CartTotal(lines []CartLine) decimal.Decimal {
	total := decimal.Zero
	for _, l := range lines {
		total = total.Add(l.Subtotal())
	}
	return total
}

// CartRepository defines the interface for cart persistence.
// Items are returned in the order they were first added.
type CartRepository interface {
	List(ctx context.Context, userID uuid.UUID) ([]*CartItem, error)
	Upsert(ctx context.Context, userID, productID uuid.UUID, quantity int32) error
	Remove(ctx context.Context, userID, productID uuid.UUID) error
	Clear(ctx context.Context, userID uuid.UUID) error
}
