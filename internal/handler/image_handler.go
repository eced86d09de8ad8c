package handler

import (
	"errors"
	"io"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"
	"github.com/vastra/storefront/internal/domain"
	"github.com/vastra/storefront/internal/service"
)

// ImageHandler handles product photo uploads
type ImageHandler struct {
	imageService *service.ImageService
}

// NewImageHandler creates a new ImageHandler
func NewImageHandler(imageService *service.ImageService) *ImageHandler {
	return &ImageHandler{imageService: imageService}
}

// UploadProductImage replaces a product's photo
// @Summary Upload product image
// @Description Stores thumbnail, display and original variants. The display variant becomes the product image.
// @Tags admin
// @Accept multipart/form-data
// @Produce json
// @Security BearerAuth
// @Param id path string true "Product ID"
// @Param file formData file true "JPEG or PNG, at least 200x200, at most 5MB"
// @Success 200 {object} ProductResponse
// @Failure 400 {object} ProblemDetails
// @Failure 404 {object} ProblemDetails
// @Failure 503 {object} ProblemDetails
// @Router /admin/products/{id}/image [post]
func (h *ImageHandler) UploadProductImage(c echo.Context) error {
	// If storage isn't configured, don't attempt to process/upload (would panic on nil storage).
	if h.imageService == nil || !h.imageService.IsEnabled() {
		return NewServiceUnavailableError(c, "Image uploads are disabled (storage not configured)")
	}

	productID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return NewNotFoundError(c, "Product not found")
	}

	file, err := c.FormFile("file")
	if err != nil {
		return fieldError(c, "file", "File is required")
	}
	if file.Size > service.MaxImageSize {
		return fieldError(c, "file", "File too large. Maximum size is 5MB")
	}

	src, err := file.Open()
	if err != nil {
		log.Error().Err(err).Msg("Failed to open uploaded file")
		return NewInternalError(c, "Failed to process file")
	}
	defer src.Close()

	data, err := io.ReadAll(io.LimitReader(src, service.MaxImageSize+1))
	if err != nil {
		log.Error().Err(err).Msg("Failed to read uploaded file")
		return NewInternalError(c, "Failed to read file")
	}

	product, err := h.imageService.SetProductImage(c.Request().Context(), productID, data, file.Filename)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrProductNotFound):
			return NewNotFoundError(c, "Product not found")
		case errors.Is(err, service.ErrImageTooLarge):
			return fieldError(c, "file", "File too large. Maximum size is 5MB")
		case errors.Is(err, service.ErrInvalidFormat):
			return fieldError(c, "file", "Invalid format. Supported: JPEG, PNG")
		case errors.Is(err, service.ErrImageTooSmall):
			return fieldError(c, "file", "Image too small. Minimum 200x200 pixels")
		case errors.Is(err, service.ErrInvalidImageData):
			return fieldError(c, "file", "Invalid image data")
		case errors.Is(err, service.ErrImageStorageNotConfigured):
			return NewServiceUnavailableError(c, "Image uploads are disabled (storage not configured)")
		}
		log.Error().Err(err).Str("product_id", productID.String()).Msg("Failed to upload product image")
		return NewInternalError(c, "Failed to upload image")
	}

	return c.JSON(http.StatusOK, toProductResponse(product))
}
