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

// WishlistHandler handles wishlist-related HTTP requests
type WishlistHandler struct {
	wishlistService *service.WishlistService
}

// NewWishlistHandler creates a new WishlistHandler
func NewWishlistHandler(wishlistService *service.WishlistService) *WishlistHandler {
	return &WishlistHandler{wishlistService: wishlistService}
}

// WishlistItemRequest represents the add-to-wishlist request body
type WishlistItemRequest struct {
	ProductID string `json:"productId"`
}

// WishlistLineResponse represents one wishlist entry in API responses
type WishlistLineResponse struct {
	ProductID string `json:"productId"`
	Price     string `json:"price"`
	Name      string `json:"name"`
	ImageURL  string `json:"imageUrl"`
	AltText   string `json:"altText"`
}

// WishlistResponse wraps the wishlist lines
type WishlistResponse struct {
	Data []WishlistLineResponse `json:"data"`
}

// GetWishlist returns the caller's wishlist
// @Summary Get wishlist
// @Tags wishlist
// @Produce json
// @Security BearerAuth
// @Success 200 {object} WishlistResponse
// @Failure 401 {object} ProblemDetails
// @Router /wishlist [get]
func (h *WishlistHandler) GetWishlist(c echo.Context) error {
	userID := middleware.GetUserID(c)

	lines, err := h.wishlistService.GetWishlist(c.Request().Context(), userID)
	if err != nil {
		log.Error().Err(err).Str("user_id", userID.String()).Msg("Failed to get wishlist")
		return NewInternalError(c, "Failed to get wishlist")
	}
	return c.JSON(http.StatusOK, toWishlistResponse(lines))
}

// AddItem saves a product to the wishlist. Adding a saved product is a no-op.
// @Summary Add to wishlist
// @Tags wishlist
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body WishlistItemRequest true "Product"
// @Success 200 {object} WishlistResponse
// @Failure 400 {object} ProblemDetails
// @Failure 404 {object} ProblemDetails
// @Failure 422 {object} ProblemDetails
// @Router /wishlist/add [post]
func (h *WishlistHandler) AddItem(c echo.Context) error {
	userID := middleware.GetUserID(c)

	var req WishlistItemRequest
	if err := c.Bind(&req); err != nil {
		return NewValidationError(c, "Invalid request body", nil)
	}
	productID, err := uuid.Parse(req.ProductID)
	if err != nil {
		return fieldError(c, "productId", "Product ID must be a UUID")
	}

	lines, err := h.wishlistService.AddItem(c.Request().Context(), userID, productID)
	if err != nil {
		if errors.Is(err, domain.ErrProductNotFound) {
			return NewNotFoundError(c, "Product not found")
		}
		if errors.Is(err, domain.ErrProductUnavailable) {
			return NewUnprocessableError(c, "Product is not available")
		}
		log.Error().Err(err).Str("user_id", userID.String()).Msg("Failed to add wishlist item")
		return NewInternalError(c, "Failed to add wishlist item")
	}
	return c.JSON(http.StatusOK, toWishlistResponse(lines))
}

// RemoveItem deletes a product from the wishlist
// @Summary Remove wishlist item
// @Tags wishlist
// @Produce json
// @Security BearerAuth
// @Param productId path string true "Product ID"
// @Success 200 {object} WishlistResponse
// @Failure 400 {object} ProblemDetails
// @Failure 404 {object} ProblemDetails
// @Router /wishlist/remove/{productId} [delete]
func (h *WishlistHandler) RemoveItem(c echo.Context) error {
	userID := middleware.GetUserID(c)

	productID, err := uuid.Parse(c.Param("productId"))
	if err != nil {
		return fieldError(c, "productId", "Product ID must be a UUID")
	}

	lines, err := h.wishlistService.RemoveItem(c.Request().Context(), userID, productID)
	if err != nil {
		if errors.Is(err, domain.ErrWishlistItemNotFound) {
			return NewNotFoundError(c, "Product is not in the wishlist")
		}
		log.Error().Err(err).Str("user_id", userID.String()).Msg("Failed to remove wishlist item")
		return NewInternalError(c, "Failed to remove wishlist item")
	}
	return c.JSON(http.StatusOK, toWishlistResponse(lines))
}

func toWishlistResponse(lines []domain.WishlistLine) WishlistResponse {
	data := make([]WishlistLineResponse, len(lines))
	for i, l := range lines {
		data[i] = WishlistLineResponse{
			ProductID: l.ProductID.String(),
			Price:     l.Price.StringFixed(2),
			Name:      l.Name,
			ImageURL:  l.ImageURL,
			AltText:   l.AltText,
		}
	}
	return WishlistResponse{Data: data}
}
