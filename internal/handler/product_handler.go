package handler

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"github.com/vastra/storefront/internal/domain"
	"github.com/vastra/storefront/internal/service"
)

// ProductHandler handles catalog and back-office product requests
type ProductHandler struct {
	productService *service.ProductService
}

// NewProductHandler creates a new ProductHandler
func NewProductHandler(productService *service.ProductService) *ProductHandler {
	return &ProductHandler{productService: productService}
}

// ProductRequest represents the create and update product request body
type ProductRequest struct {
	CategoryID  *int32 `json:"categoryId"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Fabric      string `json:"fabric"`
	Color       string `json:"color"`
	Price       string `json:"price"`
	Stock       int32  `json:"stock"`
	AltText     string `json:"altText"`
	Active      bool   `json:"active"`
}

// ProductResponse represents a product in API responses
type ProductResponse struct {
	ID          string `json:"id"`
	CategoryID  *int32 `json:"categoryId,omitempty"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Fabric      string `json:"fabric"`
	Color       string `json:"color"`
	Price       string `json:"price"`
	Stock       int32  `json:"stock"`
	ImageURL    string `json:"imageUrl"`
	AltText     string `json:"altText"`
	Active      bool   `json:"active"`
	CreatedAt   string `json:"createdAt"`
	UpdatedAt   string `json:"updatedAt"`
}

// ProductPageResponse is one page of a product listing
type ProductPageResponse struct {
	Data  []ProductResponse `json:"data"`
	Total int64             `json:"total"`
	Page  int               `json:"page"`
	Limit int               `json:"limit"`
}

// ListProducts returns one page of active products
// @Summary List products
// @Tags products
// @Produce json
// @Param category query string false "Category slug"
// @Param search query string false "Matches name, description, fabric and color"
// @Param page query int false "Page number" default(1)
// @Param limit query int false "Page size" default(20)
// @Success 200 {object} ProductPageResponse
// @Failure 400 {object} ProblemDetails
// @Router /products [get]
func (h *ProductHandler) ListProducts(c echo.Context) error {
	return h.listProducts(c, false)
}

// AdminListProducts returns one page of products including inactive ones
// @Summary List products (admin)
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Param category query string false "Category slug"
// @Param search query string false "Matches name, description, fabric and color"
// @Param page query int false "Page number" default(1)
// @Param limit query int false "Page size" default(20)
// @Success 200 {object} ProductPageResponse
// @Failure 403 {object} ProblemDetails
// @Router /admin/products [get]
func (h *ProductHandler) AdminListProducts(c echo.Context) error {
	return h.listProducts(c, true)
}

func (h *ProductHandler) listProducts(c echo.Context, includeInactive bool) error {
	filter := domain.ProductFilter{
		CategorySlug:    c.QueryParam("category"),
		Search:          c.QueryParam("search"),
		IncludeInactive: includeInactive,
	}

	if raw := c.QueryParam("page"); raw != "" {
		page, err := strconv.Atoi(raw)
		if err != nil || page < 1 {
			return fieldError(c, "page", "Page must be a positive integer")
		}
		filter.Page = page
	}
	if raw := c.QueryParam("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 1 {
			return fieldError(c, "limit", "Limit must be a positive integer")
		}
		filter.Limit = limit
	}

	page, err := h.productService.ListProducts(c.Request().Context(), filter)
	if err != nil {
		log.Error().Err(err).Msg("Failed to list products")
		return NewInternalError(c, "Failed to list products")
	}

	data := make([]ProductResponse, len(page.Data))
	for i, p := range page.Data {
		data[i] = toProductResponse(p)
	}
	return c.JSON(http.StatusOK, ProductPageResponse{
		Data:  data,
		Total: page.Total,
		Page:  page.Page,
		Limit: page.Limit,
	})
}

// GetProduct returns a single active product
// @Summary Get product
// @Tags products
// @Produce json
// @Param id path string true "Product ID"
// @Success 200 {object} ProductResponse
// @Failure 404 {object} ProblemDetails
// @Router /products/{id} [get]
func (h *ProductHandler) GetProduct(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return NewNotFoundError(c, "Product not found")
	}

	product, err := h.productService.GetProduct(c.Request().Context(), id, false)
	if err != nil {
		if errors.Is(err, domain.ErrProductNotFound) {
			return NewNotFoundError(c, "Product not found")
		}
		log.Error().Err(err).Str("product_id", id.String()).Msg("Failed to get product")
		return NewInternalError(c, "Failed to get product")
	}
	return c.JSON(http.StatusOK, toProductResponse(product))
}

// CreateProduct adds a product to the catalog
// @Summary Create product
// @Tags admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body ProductRequest true "Product"
// @Success 201 {object} ProductResponse
// @Failure 400 {object} ProblemDetails
// @Failure 403 {object} ProblemDetails
// @Router /admin/products [post]
func (h *ProductHandler) CreateProduct(c echo.Context) error {
	var req ProductRequest
	if err := c.Bind(&req); err != nil {
		return NewValidationError(c, "Invalid request body", nil)
	}
	input, verr := req.toInput()
	if verr != nil {
		return NewValidationError(c, "Validation failed", []ValidationError{*verr})
	}

	product, err := h.productService.CreateProduct(c.Request().Context(), input)
	if err != nil {
		if verr := productValidationError(err); verr != nil {
			return NewValidationError(c, "Validation failed", []ValidationError{*verr})
		}
		log.Error().Err(err).Msg("Failed to create product")
		return NewInternalError(c, "Failed to create product")
	}
	return c.JSON(http.StatusCreated, toProductResponse(product))
}

// UpdateProduct replaces the writable fields of a product
// @Summary Update product
// @Tags admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Product ID"
// @Param request body ProductRequest true "Product"
// @Success 200 {object} ProductResponse
// @Failure 400 {object} ProblemDetails
// @Failure 404 {object} ProblemDetails
// @Router /admin/products/{id} [put]
func (h *ProductHandler) UpdateProduct(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return NewNotFoundError(c, "Product not found")
	}

	var req ProductRequest
	if err := c.Bind(&req); err != nil {
		return NewValidationError(c, "Invalid request body", nil)
	}
	input, verr := req.toInput()
	if verr != nil {
		return NewValidationError(c, "Validation failed", []ValidationError{*verr})
	}

	product, err := h.productService.UpdateProduct(c.Request().Context(), id, input)
	if err != nil {
		if errors.Is(err, domain.ErrProductNotFound) {
			return NewNotFoundError(c, "Product not found")
		}
		if verr := productValidationError(err); verr != nil {
			return NewValidationError(c, "Validation failed", []ValidationError{*verr})
		}
		log.Error().Err(err).Str("product_id", id.String()).Msg("Failed to update product")
		return NewInternalError(c, "Failed to update product")
	}
	return c.JSON(http.StatusOK, toProductResponse(product))
}

// DeleteProduct removes a product from the catalog
// @Summary Delete product
// @Tags admin
// @Security BearerAuth
// @Param id path string true "Product ID"
// @Success 204
// @Failure 404 {object} ProblemDetails
// @Router /admin/products/{id} [delete]
func (h *ProductHandler) DeleteProduct(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return NewNotFoundError(c, "Product not found")
	}

	if err := h.productService.DeleteProduct(c.Request().Context(), id); err != nil {
		if errors.Is(err, domain.ErrProductNotFound) {
			return NewNotFoundError(c, "Product not found")
		}
		log.Error().Err(err).Str("product_id", id.String()).Msg("Failed to delete product")
		return NewInternalError(c, "Failed to delete product")
	}
	return c.NoContent(http.StatusNoContent)
}

func (r ProductRequest) toInput() (service.ProductInput, *ValidationError) {
	price, err := decimal.NewFromString(r.Price)
	if err != nil {
		return service.ProductInput{}, &ValidationError{Field: "price", Message: "Must be a valid decimal number"}
	}
	return service.ProductInput{
		CategoryID:  r.CategoryID,
		Name:        r.Name,
		Description: r.Description,
		Fabric:      r.Fabric,
		Color:       r.Color,
		Price:       price,
		Stock:       r.Stock,
		AltText:     r.AltText,
		Active:      r.Active,
	}, nil
}

func productValidationError(err error) *ValidationError {
	switch {
	case errors.Is(err, domain.ErrNameRequired):
		return &ValidationError{Field: "name", Message: "Name is required"}
	case errors.Is(err, domain.ErrNameTooLong):
		return &ValidationError{Field: "name", Message: "Name must be 255 characters or less"}
	case errors.Is(err, domain.ErrInvalidPrice):
		return &ValidationError{Field: "price", Message: "Price must be greater than zero"}
	case errors.Is(err, domain.ErrInvalidStock):
		return &ValidationError{Field: "stock", Message: "Stock cannot be negative"}
	case errors.Is(err, domain.ErrCategoryNotFound):
		return &ValidationError{Field: "categoryId", Message: "Category does not exist"}
	case errors.Is(err, domain.ErrInvalidInput):
		return &ValidationError{Field: "description", Message: "Description is too long"}
	}
	return nil
}

func toProductResponse(p *domain.Product) ProductResponse {
	return ProductResponse{
		ID:          p.ID.String(),
		CategoryID:  p.CategoryID,
		Name:        p.Name,
		Description: p.Description,
		Fabric:      p.Fabric,
		Color:       p.Color,
		Price:       p.Price.StringFixed(2),
		Stock:       p.Stock,
		ImageURL:    p.ImageURL,
		AltText:     p.DisplayAltText(),
		Active:      p.Active,
		CreatedAt:   p.CreatedAt.Format(time.RFC3339),
		UpdatedAt:   p.UpdatedAt.Format(time.RFC3339),
	}
}
