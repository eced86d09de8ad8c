package postgres

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/vastra/storefront/internal/domain"
)

// AddressRepository implements domain.AddressRepository using PostgreSQL
type AddressRepository struct {
	pool *pgxpool.Pool
}

// NewAddressRepository creates a new AddressRepository
func NewAddressRepository(pool *pgxpool.Pool) *AddressRepository {
	return &AddressRepository{pool: pool}
}

const addressColumns = `id, user_id, full_name, phone, line1, line2, city, state, postal_code, country,
	is_default, created_at, updated_at`

// Create inserts an address. A default address demotes the user's others.
func (r *AddressRepository) Create(ctx context.Context, address *domain.Address) (*domain.Address, error) {
	if address.ID == uuid.Nil {
		address.ID = uuid.New()
	}

	var created *domain.Address
	err := pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		if address.IsDefault {
			if err := clearDefault(ctx, tx, address.UserID, address.ID); err != nil {
				return err
			}
		}
		row := tx.QueryRow(ctx, `
			INSERT INTO addresses (id, user_id, full_name, phone, line1, line2, city, state, postal_code, country, is_default)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
			RETURNING `+addressColumns,
			address.ID, address.UserID, address.FullName, address.Phone, address.Line1, address.Line2,
			address.City, address.State, address.PostalCode, address.Country, address.IsDefault)

		var err error
		created, err = scanAddress(row)
		return err
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

// GetByID retrieves one of the user's addresses
func (r *AddressRepository) GetByID(ctx context.Context, userID, id uuid.UUID) (*domain.Address, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+addressColumns+` FROM addresses WHERE id = $1 AND user_id = $2`, id, userID)
	address, err := scanAddress(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrAddressNotFound
	}
	return address, err
}

// List returns the user's addresses, oldest first
func (r *AddressRepository) List(ctx context.Context, userID uuid.UUID) ([]*domain.Address, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+addressColumns+` FROM addresses WHERE user_id = $1 ORDER BY created_at, id`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := make([]*domain.Address, 0)
	for rows.Next() {
		address, err := scanAddress(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, address)
	}
	return result, rows.Err()
}

// Update replaces the address fields. A default address demotes the user's others.
func (r *AddressRepository) Update(ctx context.Context, address *domain.Address) (*domain.Address, error) {
	var updated *domain.Address
	err := pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		if address.IsDefault {
			if err := clearDefault(ctx, tx, address.UserID, address.ID); err != nil {
				return err
			}
		}
		row := tx.QueryRow(ctx, `
			UPDATE addresses SET full_name = $3, phone = $4, line1 = $5, line2 = $6, city = $7, state = $8,
				postal_code = $9, country = $10, is_default = $11, updated_at = NOW()
			WHERE id = $1 AND user_id = $2
			RETURNING `+addressColumns,
			address.ID, address.UserID, address.FullName, address.Phone, address.Line1, address.Line2,
			address.City, address.State, address.PostalCode, address.Country, address.IsDefault)

		var err error
		updated, err = scanAddress(row)
		return err
	})
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrAddressNotFound
	}
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// Delete removes one of the user's addresses
func (r *AddressRepository) Delete(ctx context.Context, userID, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM addresses WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrAddressNotFound
	}
	return nil
}

// Count returns how many addresses the user has
func (r *AddressRepository) Count(ctx context.Context, userID uuid.UUID) (int, error) {
	var n int
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM addresses WHERE user_id = $1`, userID).Scan(&n)
	return n, err
}

func clearDefault(ctx context.Context, tx pgx.Tx, userID, except uuid.UUID) error {
	_, err := tx.Exec(ctx, `
		UPDATE addresses SET is_default = FALSE, updated_at = NOW()
		WHERE user_id = $1 AND id <> $2 AND is_default`, userID, except)
	return err
}

func scanAddress(row pgx.Row) (*domain.Address, error) {
	var a domain.Address
	err := row.Scan(&a.ID, &a.UserID, &a.FullName, &a.Phone, &a.Line1, &a.Line2, &a.City, &a.State,
		&a.PostalCode, &a.Country, &a.IsDefault, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &a, nil
}
