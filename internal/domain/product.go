package domain

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var (
	ErrProductNotFound    = errors.New("product not found")
	ErrProductUnavailable = errors.New("product is not available")
	ErrInvalidPrice       = errors.New("price must be greater than zero")
	ErrInvalidStock       = errors.New("stock cannot be negative")
)

// Pagination defaults for product listings
const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// Product is a saree offered in the storefront
type Product struct {
	ID          uuid.UUID       `json:"id"`
	CategoryID  *int32          `json:"categoryId,omitempty"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Fabric      string          `json:"fabric"`
	Color       string          `json:"color"`
	Price       decimal.Decimal `json:"price"`
	Stock       int32           `json:"stock"`
	ImageURL    string          `json:"imageUrl"`
	AltText     string          `json:"altText"`
	Active      bool            `json:"active"`
	CreatedAt   time.Time       `json:"createdAt"`
	UpdatedAt   time.Time       `json:"updatedAt"`
}

// Validate checks the product fields
func (p *Product) Validate() error {
	p.Name = strings.TrimSpace(p.Name)
	if p.Name == "" {
		return ErrNameRequired
	}
	if len(p.Name) > MaxNameLength {
		return ErrNameTooLong
	}
	if len(p.Description) > MaxDescriptionLength {
		return ErrInvalidInput
	}
	if !p.Price.IsPositive() {
		return ErrInvalidPrice
	}
	if p.Stock < 0 {
		return ErrInvalidStock
	}
	return nil
}

// DisplayAltText falls back to the product name when no alt text is set
func (p *Product) DisplayAltText() string {
	if p.AltText != "" {
		return p.AltText
	}
	return p.Name
}

// ProductFilter narrows a product listing
type ProductFilter struct {
	CategorySlug    string
	Search          string
	Page            int
	Limit           int
	IncludeInactive bool
}

// Normalize clamps paging values to their allowed ranges
func (f *ProductFilter) Normalize() {
	f.Search = strings.TrimSpace(f.Search)
	f.CategorySlug = strings.TrimSpace(f.CategorySlug)
	if f.Page < 1 {
		f.Page = 1
	}
	if f.Limit < 1 {
		f.Limit = DefaultPageSize
	}
	if f.Limit > MaxPageSize {
		f.Limit = MaxPageSize
	}
}

// Offset returns the row offset for the filter's page
func (f *ProductFilter) Offset() int {
	return (f.Page - 1) * f.Limit
}

// PaginatedProducts is one page of a product listing
type PaginatedProducts struct {
	Data  []*Product `json:"data"`
	Total int64      `json:"total"`
	Page  int        `json:"page"`
	Limit int        `json:"limit"`
}

// ProductRepository defines the interface for product persistence
type ProductRepository interface {
	Create(ctx context.Context, product *Product) (*Product, error)
	GetByID(ctx context.Context, id uuid.UUID) (*Product, error)
	GetByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]*Product, error)
	List(ctx context.Context, filter ProductFilter) ([]*Product, int64, error)
	Update(ctx context.Context, product *Product) (*Product, error)
	UpdateImage(ctx context.Context, id uuid.UUID, imageURL string) (*Product, error)
	Delete(ctx context.Context, id uuid.UUID) error
}
