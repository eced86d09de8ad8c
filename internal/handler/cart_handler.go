package handler

import (
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"
	"github.com/vastra/storefront/internal/domain"
	"github.com/vastra/storefront/internal/middleware"
	"github.com/vastra/storefront/internal/service"
)

// CartHandler handles cart-related HTTP requests
type CartHandler struct {
	cartService *service.CartService
}

// NewCartHandler creates a new CartHandler
func NewCartHandler(cartService *service.CartService) *CartHandler {
	return &CartHandler{cartService: cartService}
}

// CartItemRequest sets the absolute quantity of a product in the cart
type CartItemRequest struct {
	ProductID string `json:"productId"`
	Quantity  int32  `json:"quantity"`
}

// CartLineResponse represents one cart line in API responses
type CartLineResponse struct {
	ProductID string `json:"productId"`
	Quantity  int32  `json:"quantity"`
	Name      string `json:"name"`
	Price     string `json:"price"`
	ImageURL  string `json:"imageUrl"`
	AltText   string `json:"altText"`
}

// CartResponse wraps the cart lines and their total
type CartResponse struct {
	Data  []CartLineResponse `json:"data"`
	Total string             `json:"total"`
}

// GetCart returns the caller's cart
// @Summary Get cart
// @Tags cart
// @Produce json
// @Security BearerAuth
// @Success 200 {object} CartResponse
// @Failure 401 {object} ProblemDetails
// @Router /cart [get]
func (h *CartHandler) GetCart(c echo.Context) error {
	userID := middleware.GetUserID(c)

	lines, err := h.cartService.GetCart(c.Request().Context(), userID)
	if err != nil {
		log.Error().Err(err).Str("user_id", userID.String()).Msg("Failed to get cart")
		return NewInternalError(c, "Failed to get cart")
	}
	return c.JSON(http.StatusOK, toCartResponse(lines))
}

// AddItem sets the quantity of a product, adding it if absent
// @Summary Add to cart
// @Description Sets the absolute quantity of a product in the cart
// @Tags cart
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body CartItemRequest true "Product and quantity"
// @Success 200 {object} CartResponse
// @Failure 400 {object} ProblemDetails
// @Failure 404 {object} ProblemDetails
// @Failure 422 {object} ProblemDetails
// @Router /cart/add [post]
func (h *CartHandler) AddItem(c echo.Context) error {
	userID := middleware.GetUserID(c)

	var req CartItemRequest
	if err := c.Bind(&req); err != nil {
		return NewValidationError(c, "Invalid request body", nil)
	}
	productID, verr := parseCartItem(req)
	if verr != nil {
		return NewValidationError(c, "Validation failed", []ValidationError{*verr})
	}
	quantity := req.Quantity

	lines, err := h.cartService.AddItem(c.Request().Context(), userID, productID, quantity)
	if err != nil {
		return h.mutationError(c, err, userID, "Failed to add cart item")
	}

	return c.JSON(http.StatusOK, toCartResponse(lines))
}

// UpdateItem changes the quantity of a product already in the cart
// @Summary Update cart item
// @Tags cart
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body CartItemRequest true "Product and quantity"
// @Success 200 {object} CartResponse
// @Failure 400 {object} ProblemDetails
// @Failure 404 {object} ProblemDetails
// @Failure 422 {object} ProblemDetails
// @Router /cart/update [put]
func (h *CartHandler) UpdateItem(c echo.Context) error {
	userID := middleware.GetUserID(c)

	var req CartItemRequest
	if err := c.Bind(&req); err != nil {
		return NewValidationError(c, "Invalid request body", nil)
	}
	productID, verr := parseCartItem(req)
	if verr != nil {
		return NewValidationError(c, "Validation failed", []ValidationError{*verr})
	}
	quantity := req.Quantity

	lines, err := h.cartService.UpdateItem(c.Request().Context(), userID, productID, quantity)
	if err != nil {
		return h.mutationError(c, err, userID, "Failed to update cart item")
	}

	return c.JSON(http.StatusOK, toCartResponse(lines))
}

// RemoveItem deletes a product from the cart
// @Summary Remove cart item
// @Tags cart
// @Produce json
// @Security BearerAuth
// @Param productId path string true "Product ID"
// @Success 200 {object} CartResponse
// @Failure 400 {object} ProblemDetails
// @Failure 404 {object} ProblemDetails
// @Router /cart/remove/{productId} [delete]
func (h *CartHandler) RemoveItem(c echo.Context) error {
	userID := middleware.GetUserID(c)

	productID, err := uuid.Parse(c.Param("productId"))
	if err != nil {
		return fieldError(c, "productId", "Product ID must be a UUID")
	}

	lines, err := h.cartService.RemoveItem(c.Request().Context(), userID, productID)
	if err != nil {
		return h.mutationError(c, err, userID, "Failed to remove cart item")
	}

	return c.JSON(http.StatusOK, toCartResponse(lines))
}

// Clear empties the cart
// @Summary Clear cart
// @Tags cart
// @Security BearerAuth
// @Success 204
// @Failure 401 {object} ProblemDetails
// @Router /cart [delete]
func (h *CartHandler) Clear(c echo.Context) error {
	userID := middleware.GetUserID(c)

	if err := h.cartService.Clear(c.Request().Context(), userID); err != nil {
		log.Error().Err(err).Str("user_id", userID.String()).Msg("Failed to clear cart")
		return NewInternalError(c, "Failed to clear cart")
	}

	return c.NoContent(http.StatusNoContent)
}

func (h *CartHandler) mutationError(c echo.Context, err error, userID uuid.UUID, msg string) error {
	switch {
	case errors.Is(err, domain.ErrInvalidQuantity):
		return fieldError(c, "quantity", "Quantity must be between 1 and 99")
	case errors.Is(err, domain.ErrProductNotFound):
		return NewNotFoundError(c, "Product not found")
	case errors.Is(err, domain.ErrCartItemNotFound):
		return NewNotFoundError(c, "Product is not in the cart")
	case errors.Is(err, domain.ErrProductUnavailable):
		return NewUnprocessableError(c, "Product is not available")
	case errors.Is(err, domain.ErrInsufficientStock):
		return NewUnprocessableError(c, "Not enough stock for requested quantity")
	}
	log.Error().Err(err).Str("user_id", userID.String()).Msg(msg)
	return NewInternalError(c, msg)
}

func parseCartItem(req CartItemRequest) (uuid.UUID, *ValidationError) {
	productID, err := uuid.Parse(req.ProductID)
	if err != nil {
		return uuid.Nil, &ValidationError{Field: "productId", Message: "Product ID must be a UUID"}
	}
	if err := domain.ValidateQuantity(req.Quantity); err != nil {
		return uuid.Nil, &ValidationError{Field: "quantity", Message: "Quantity must be between 1 and 99"}
	}
	return productID, nil
}

func toCartResponse(lines []domain.CartLine) CartResponse {
	data := make([]CartLineResponse, len(lines))
	for i, l := range lines {
		data[i] = CartLineResponse{
			ProductID: l.ProductID.String(),
			Quantity:  l.Quantity,
			Name:      l.Name,
			Price:     l.Price.StringFixed(2),
			ImageURL:  l.ImageURL,
			AltText:   l.AltText,
		}
	}
	return CartResponse{Data: data, Total: domain.CartTotal(lines).StringFixed(2)}
}
