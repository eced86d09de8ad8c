package postgres

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/vastra/storefront/internal/domain"
)

// WishlistRepository implements domain.WishlistRepository using PostgreSQL
type WishlistRepository struct {
	pool *pgxpool.Pool
}

// NewWishlistRepository creates a new WishlistRepository
func NewWishlistRepository(pool *pgxpool.Pool) *WishlistRepository {
	return &WishlistRepository{pool: pool}
}

// List returns the user's saved products, oldest first
func (r *WishlistRepository) List(ctx context.Context, userID uuid.UUID) ([]*domain.WishlistItem, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT user_id, product_id, added_at
		FROM wishlist_items WHERE user_id = $1
		ORDER BY added_at, product_id`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]*domain.WishlistItem, 0)
	for rows.Next() {
		var item domain.WishlistItem
		if err := rows.Scan(&item.UserID, &item.ProductID, &item.AddedAt); err != nil {
			return nil, err
		}
		items = append(items, &item)
	}
	return items, rows.Err()
}

// Add saves a product; saving it again is a no-op
func (r *WishlistRepository) Add(ctx context.Context, userID, productID uuid.UUID) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO wishlist_items (user_id, product_id)
		VALUES ($1, $2)
		ON CONFLICT (user_id, product_id) DO NOTHING`, userID, productID)
	if isPgForeignKeyViolation(err) {
		return domain.ErrProductNotFound
	}
	return err
}

// Remove deletes a saved product
func (r *WishlistRepository) Remove(ctx context.Context, userID, productID uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM wishlist_items WHERE user_id = $1 AND product_id = $2`, userID, productID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrWishlistItemNotFound
	}
	return nil
}
