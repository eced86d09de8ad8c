package service

import (
	"context"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/vastra/storefront/internal/domain"
	"github.com/vastra/storefront/internal/util"
)

// CategoryService handles product categories
type CategoryService struct {
	categoryRepo domain.CategoryRepository
}

// NewCategoryService creates a new CategoryService
func NewCategoryService(categoryRepo domain.CategoryRepository) *CategoryService {
	return &CategoryService{categoryRepo: categoryRepo}
}

// CategoryInput contains the writable category fields. An empty slug is derived from the name.
type CategoryInput struct {
	Name        string
	Slug        string
	Description string
}

func (in CategoryInput) toCategory() (*domain.Category, error) {
	category := &domain.Category{
		Name:        in.Name,
		Slug:        util.Slugify(in.Slug),
		Description: strings.TrimSpace(in.Description),
	}
	if err := category.Validate(); err != nil {
		return nil, err
	}
	if category.Slug == "" {
		category.Slug = util.Slugify(category.Name)
	}
	if category.Slug == "" {
		return nil, domain.ErrInvalidInput
	}
	return category, nil
}

// ListCategories returns every category ordered by name
func (s *CategoryService) ListCategories(ctx context.Context) ([]*domain.Category, error) {
	return s.categoryRepo.List(ctx)
}

// CreateCategory adds a category
func (s *CategoryService) CreateCategory(ctx context.Context, input CategoryInput) (*domain.Category, error) {
	category, err := input.toCategory()
	if err != nil {
		return nil, err
	}

	created, err := s.categoryRepo.Create(ctx, category)
	if err != nil {
		return nil, err
	}
	log.Info().Int32("category_id", created.ID).Str("slug", created.Slug).Msg("Category created")
	return created, nil
}

// UpdateCategory replaces a category's fields
func (s *CategoryService) UpdateCategory(ctx context.Context, id int32, input CategoryInput) (*domain.Category, error) {
	if _, err := s.categoryRepo.GetByID(ctx, id); err != nil {
		return nil, err
	}

	category, err := input.toCategory()
	if err != nil {
		return nil, err
	}
	category.ID = id

	updated, err := s.categoryRepo.Update(ctx, category)
	if err != nil {
		return nil, err
	}
	log.Info().Int32("category_id", id).Msg("Category updated")
	return updated, nil
}

// DeleteCategory removes a category that has no products
func (s *CategoryService) DeleteCategory(ctx context.Context, id int32) error {
	if err := s.categoryRepo.Delete(ctx, id); err != nil {
		return err
	}
	log.Info().Int32("category_id", id).Msg("Category deleted")
	return nil
}
