package service

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"github.com/vastra/storefront/internal/domain"
)

// ImageRemover deletes the stored photos of a product
type ImageRemover interface {
	RemoveProductImages(ctx context.Context, productID uuid.UUID) error
}

// ProductService handles catalog reads and back-office product management
type ProductService struct {
	productRepo  domain.ProductRepository
	categoryRepo domain.CategoryRepository
	images       ImageRemover
}

// NewProductService creates a new ProductService
func NewProductService(productRepo domain.ProductRepository, categoryRepo domain.CategoryRepository) *ProductService {
	return &ProductService{
		productRepo:  productRepo,
		categoryRepo: categoryRepo,
	}
}

// SetImageRemover makes DeleteProduct also remove the product's photos
func (s *ProductService) SetImageRemover(r ImageRemover) {
	s.images = r
}

// ListProducts returns one page of products. Shoppers only see active products.
func (s *ProductService) ListProducts(ctx context.Context, filter domain.ProductFilter) (*domain.PaginatedProducts, error) {
	filter.Normalize()
	products, total, err := s.productRepo.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	return &domain.PaginatedProducts{
		Data:  products,
		Total: total,
		Page:  filter.Page,
		Limit: filter.Limit,
	}, nil
}

// GetProduct returns a product. Inactive products are hidden unless includeInactive is set.
func (s *ProductService) GetProduct(ctx context.Context, id uuid.UUID, includeInactive bool) (*domain.Product, error) {
	product, err := s.productRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !product.Active && !includeInactive {
		return nil, domain.ErrProductNotFound
	}
	return product, nil
}

// ProductInput contains the writable product fields
type ProductInput struct {
	CategoryID  *int32
	Name        string
	Description string
	Fabric      string
	Color       string
	Price       decimal.Decimal
	Stock       int32
	AltText     string
	Active      bool
}

func (in ProductInput) apply(p *domain.Product) {
	p.CategoryID = in.CategoryID
	p.Name = in.Name
	p.Description = strings.TrimSpace(in.Description)
	p.Fabric = strings.TrimSpace(in.Fabric)
	p.Color = strings.TrimSpace(in.Color)
	p.Price = in.Price
	p.Stock = in.Stock
	p.AltText = strings.TrimSpace(in.AltText)
	p.Active = in.Active
}

// CreateProduct adds a product to the catalog
func (s *ProductService) CreateProduct(ctx context.Context, input ProductInput) (*domain.Product, error) {
	product := &domain.Product{}
	input.apply(product)
	if err := product.Validate(); err != nil {
		return nil, err
	}
	if err := s.checkCategory(ctx, product.CategoryID); err != nil {
		return nil, err
	}

	created, err := s.productRepo.Create(ctx, product)
	if err != nil {
		return nil, err
	}
	log.Info().Str("product_id", created.ID.String()).Str("name", created.Name).Msg("Product created")
	return created, nil
}

// UpdateProduct replaces the writable fields of a product
func (s *ProductService) UpdateProduct(ctx context.Context, id uuid.UUID, input ProductInput) (*domain.Product, error) {
	existing, err := s.productRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	updated := *existing
	input.apply(&updated)
	if err := updated.Validate(); err != nil {
		return nil, err
	}
	if err := s.checkCategory(ctx, updated.CategoryID); err != nil {
		return nil, err
	}

	result, err := s.productRepo.Update(ctx, &updated)
	if err != nil {
		return nil, err
	}
	log.Info().Str("product_id", id.String()).Msg("Product updated")
	return result, nil
}

// DeleteProduct removes a product from the catalog
func (s *ProductService) DeleteProduct(ctx context.Context, id uuid.UUID) error {
	if err := s.productRepo.Delete(ctx, id); err != nil {
		return err
	}
	log.Info().Str("product_id", id.String()).Msg("Product deleted")

	// A storage failure leaves orphaned photos but does not fail the delete
	if s.images != nil {
		if err := s.images.RemoveProductImages(ctx, id); err != nil {
			log.Warn().Err(err).Str("product_id", id.String()).Msg("Failed to remove product images")
		}
	}
	return nil
}

func (s *ProductService) checkCategory(ctx context.Context, categoryID *int32) error {
	if categoryID == nil {
		return nil
	}
	_, err := s.categoryRepo.GetByID(ctx, *categoryID)
	return err
}
