package postgres

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/vastra/storefront/internal/domain"
)

// CartRepository implements domain.CartRepository using PostgreSQL
type CartRepository struct {
	pool *pgxpool.Pool
}

// NewCartRepository creates a new CartRepository
func NewCartRepository(pool *pgxpool.Pool) *CartRepository {
	return &CartRepository{pool: pool}
}

// List returns the user's cart rows in the order they were first added
func (r *CartRepository) List(ctx context.Context, userID uuid.UUID) ([]*domain.CartItem, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT user_id, product_id, quantity, added_at, updated_at
		FROM cart_items WHERE user_id = $1
		ORDER BY added_at, product_id`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]*domain.CartItem, 0)
	for rows.Next() {
		var item domain.CartItem
		if err := rows.Scan(&item.UserID, &item.ProductID, &item.Quantity, &item.AddedAt, &item.UpdatedAt); err != nil {
			return nil, err
		}
		items = append(items, &item)
	}
	return items, rows.Err()
}

// Upsert sets the absolute quantity of a product in the cart
func (r *CartRepository) Upsert(ctx context.Context, userID, productID uuid.UUID, quantity int32) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO cart_items (user_id, product_id, quantity)
		VALUES ($1, $2, $3)
		ON CONFLICT (user_id, product_id)
		DO UPDATE SET quantity = EXCLUDED.quantity, updated_at = NOW()`,
		userID, productID, quantity)
	if isPgForeignKeyViolation(err) {
		return domain.ErrProductNotFound
	}
	return err
}

// Remove deletes a product from the cart
func (r *CartRepository) Remove(ctx context.Context, userID, productID uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM cart_items WHERE user_id = $1 AND product_id = $2`, userID, productID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrCartItemNotFound
	}
	return nil
}

// Clear empties the user's cart
func (r *CartRepository) Clear(ctx context.Context, userID uuid.UUID) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM cart_items WHERE user_id = $1`, userID)
	return err
}
