package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"
	"github.com/vastra/storefront/internal/domain"
	"github.com/vastra/storefront/internal/service"
)

// CategoryHandler handles category HTTP requests
type CategoryHandler struct {
	categoryService *service.CategoryService
}

// NewCategoryHandler creates a new CategoryHandler
func NewCategoryHandler(categoryService *service.CategoryService) *CategoryHandler {
	return &CategoryHandler{categoryService: categoryService}
}

// CategoryRequest represents the create and update category request body
type CategoryRequest struct {
	Name        string `json:"name"`
	Slug        string `json:"slug"`
	Description string `json:"description"`
}

// CategoryResponse represents a category in API responses
type CategoryResponse struct {
	ID          int32  `json:"id"`
	Name        string `json:"name"`
	Slug        string `json:"slug"`
	Description string `json:"description"`
}

// CategoryListResponse wraps the category list
type CategoryListResponse struct {
	Data []CategoryResponse `json:"data"`
}

// ListCategories returns every category
// @Summary List categories
// @Tags products
// @Produce json
// @Success 200 {object} CategoryListResponse
// @Router /categories [get]
func (h *CategoryHandler) ListCategories(c echo.Context) error {
	categories, err := h.categoryService.ListCategories(c.Request().Context())
	if err != nil {
		log.Error().Err(err).Msg("Failed to list categories")
		return NewInternalError(c, "Failed to list categories")
	}

	data := make([]CategoryResponse, len(categories))
	for i, cat := range categories {
		data[i] = toCategoryResponse(cat)
	}
	return c.JSON(http.StatusOK, CategoryListResponse{Data: data})
}

// CreateCategory adds a category. An empty slug is derived from the name.
// @Summary Create category
// @Tags admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body CategoryRequest true "Category"
// @Success 201 {object} CategoryResponse
// @Failure 400 {object} ProblemDetails
// @Failure 409 {object} ProblemDetails
// @Router /admin/categories [post]
func (h *CategoryHandler) CreateCategory(c echo.Context) error {
	var req CategoryRequest
	if err := c.Bind(&req); err != nil {
		return NewValidationError(c, "Invalid request body", nil)
	}

	category, err := h.categoryService.CreateCategory(c.Request().Context(), req.toInput())
	if err != nil {
		return h.mutationError(c, err, "Failed to create category")
	}
	return c.JSON(http.StatusCreated, toCategoryResponse(category))
}

// UpdateCategory replaces a category's fields
// @Summary Update category
// @Tags admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Category ID"
// @Param request body CategoryRequest true "Category"
// @Success 200 {object} CategoryResponse
// @Failure 400 {object} ProblemDetails
// @Failure 404 {object} ProblemDetails
// @Failure 409 {object} ProblemDetails
// @Router /admin/categories/{id} [put]
func (h *CategoryHandler) UpdateCategory(c echo.Context) error {
	id, err := parseCategoryID(c)
	if err != nil {
		return NewNotFoundError(c, "Category not found")
	}

	var req CategoryRequest
	if err := c.Bind(&req); err != nil {
		return NewValidationError(c, "Invalid request body", nil)
	}

	category, err := h.categoryService.UpdateCategory(c.Request().Context(), id, req.toInput())
	if err != nil {
		return h.mutationError(c, err, "Failed to update category")
	}
	return c.JSON(http.StatusOK, toCategoryResponse(category))
}

// DeleteCategory removes a category that has no products
// @Summary Delete category
// @Tags admin
// @Security BearerAuth
// @Param id path int true "Category ID"
// @Success 204
// @Failure 404 {object} ProblemDetails
// @Failure 409 {object} ProblemDetails
// @Router /admin/categories/{id} [delete]
func (h *CategoryHandler) DeleteCategory(c echo.Context) error {
	id, err := parseCategoryID(c)
	if err != nil {
		return NewNotFoundError(c, "Category not found")
	}

	if err := h.categoryService.DeleteCategory(c.Request().Context(), id); err != nil {
		return h.mutationError(c, err, "Failed to delete category")
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *CategoryHandler) mutationError(c echo.Context, err error, msg string) error {
	switch {
	case errors.Is(err, domain.ErrCategoryNotFound):
		return NewNotFoundError(c, "Category not found")
	case errors.Is(err, domain.ErrCategorySlugExists):
		return NewConflictError(c, "A category with this slug already exists")
	case errors.Is(err, domain.ErrCategoryInUse):
		return NewConflictError(c, "Category still has products")
	case errors.Is(err, domain.ErrNameRequired):
		return fieldError(c, "name", "Name is required")
	case errors.Is(err, domain.ErrNameTooLong):
		return fieldError(c, "name", "Name must be 255 characters or less")
	case errors.Is(err, domain.ErrInvalidInput):
		return fieldError(c, "slug", "Slug must contain letters or digits")
	}
	log.Error().Err(err).Msg(msg)
	return NewInternalError(c, msg)
}

func parseCategoryID(c echo.Context) (int32, error) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 32)
	if err != nil {
		return 0, err
	}
	return int32(id), nil
}

func (r CategoryRequest) toInput() service.CategoryInput {
	return service.CategoryInput{
		Name:        r.Name,
		Slug:        r.Slug,
		Description: r.Description,
	}
}

func toCategoryResponse(c *domain.Category) CategoryResponse {
	return CategoryResponse{
		ID:          c.ID,
		Name:        c.Name,
		Slug:        c.Slug,
		Description: c.Description,
	}
}
