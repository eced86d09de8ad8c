package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"
	"github.com/vastra/storefront/internal/domain"
	"github.com/vastra/storefront/internal/middleware"
	"github.com/vastra/storefront/internal/service"
)

// AddressHandler handles address book HTTP requests
type AddressHandler struct {
	addressService *service.AddressService
}

// NewAddressHandler creates a new AddressHandler
func NewAddressHandler(addressService *service.AddressService) *AddressHandler {
	return &AddressHandler{addressService: addressService}
}

// AddressRequest represents the create and update address request body
type AddressRequest struct {
	FullName   string `json:"fullName"`
	Phone      string `json:"phone"`
	Line1      string `json:"line1"`
	Line2      string `json:"line2"`
	City       string `json:"city"`
	State      string `json:"state"`
	PostalCode string `json:"postalCode"`
	Country    string `json:"country"`
	IsDefault  bool   `json:"isDefault"`
}

// AddressResponse represents an address in API responses
type AddressResponse struct {
	ID         string `json:"id"`
	FullName   string `json:"fullName"`
	Phone      string `json:"phone"`
	Line1      string `json:"line1"`
	Line2      string `json:"line2"`
	City       string `json:"city"`
	State      string `json:"state"`
	PostalCode string `json:"postalCode"`
	Country    string `json:"country"`
	IsDefault  bool   `json:"isDefault"`
	CreatedAt  string `json:"createdAt"`
	UpdatedAt  string `json:"updatedAt"`
}

// AddressListResponse wraps the address book
type AddressListResponse struct {
	Data []AddressResponse `json:"data"`
}

// ListAddresses returns the caller's addresses
// @Summary List addresses
// @Tags address
// @Produce json
// @Security BearerAuth
// @Success 200 {object} AddressListResponse
// @Failure 401 {object} ProblemDetails
// @Router /address [get]
func (h *AddressHandler) ListAddresses(c echo.Context) error {
	userID := middleware.GetUserID(c)

	addresses, err := h.addressService.ListAddresses(c.Request().Context(), userID)
	if err != nil {
		log.Error().Err(err).Str("user_id", userID.String()).Msg("Failed to list addresses")
		return NewInternalError(c, "Failed to list addresses")
	}

	data := make([]AddressResponse, len(addresses))
	for i, a := range addresses {
		data[i] = toAddressResponse(a)
	}
	return c.JSON(http.StatusOK, AddressListResponse{Data: data})
}

// CreateAddress adds an address. The first address becomes the default.
// @Summary Create address
// @Tags address
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body AddressRequest true "Address"
// @Success 201 {object} AddressResponse
// @Failure 400 {object} ProblemDetails
// @Failure 422 {object} ProblemDetails
// @Router /address [post]
func (h *AddressHandler) CreateAddress(c echo.Context) error {
	userID := middleware.GetUserID(c)

	var req AddressRequest
	if err := c.Bind(&req); err != nil {
		return NewValidationError(c, "Invalid request body", nil)
	}

	address, err := h.addressService.CreateAddress(c.Request().Context(), userID, req.toInput())
	if err != nil {
		if errors.Is(err, domain.ErrAddressLimitReached) {
			return NewUnprocessableError(c, "Address book is full")
		}
		if verr := addressValidationError(err); verr != nil {
			return NewValidationError(c, "Validation failed", []ValidationError{*verr})
		}
		log.Error().Err(err).Str("user_id", userID.String()).Msg("Failed to create address")
		return NewInternalError(c, "Failed to create address")
	}
	return c.JSON(http.StatusCreated, toAddressResponse(address))
}

// UpdateAddress replaces an address
// @Summary Update address
// @Tags address
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Address ID"
// @Param request body AddressRequest true "Address"
// @Success 200 {object} AddressResponse
// @Failure 400 {object} ProblemDetails
// @Failure 404 {object} ProblemDetails
// @Router /address/{id} [put]
func (h *AddressHandler) UpdateAddress(c echo.Context) error {
	userID := middleware.GetUserID(c)

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return fieldError(c, "id", "Address ID must be a UUID")
	}

	var req AddressRequest
	if err := c.Bind(&req); err != nil {
		return NewValidationError(c, "Invalid request body", nil)
	}

	address, err := h.addressService.UpdateAddress(c.Request().Context(), userID, id, req.toInput())
	if err != nil {
		if errors.Is(err, domain.ErrAddressNotFound) {
			return NewNotFoundError(c, "Address not found")
		}
		if verr := addressValidationError(err); verr != nil {
			return NewValidationError(c, "Validation failed", []ValidationError{*verr})
		}
		log.Error().Err(err).Str("user_id", userID.String()).Str("address_id", id.String()).Msg("Failed to update address")
		return NewInternalError(c, "Failed to update address")
	}
	return c.JSON(http.StatusOK, toAddressResponse(address))
}

// DeleteAddress removes an address
// @Summary Delete address
// @Tags address
// @Security BearerAuth
// @Param id path string true "Address ID"
// @Success 204
// @Failure 400 {object} ProblemDetails
// @Failure 404 {object} ProblemDetails
// @Router /address/{id} [delete]
func (h *AddressHandler) DeleteAddress(c echo.Context) error {
	userID := middleware.GetUserID(c)

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return fieldError(c, "id", "Address ID must be a UUID")
	}

	if err := h.addressService.DeleteAddress(c.Request().Context(), userID, id); err != nil {
		if errors.Is(err, domain.ErrAddressNotFound) {
			return NewNotFoundError(c, "Address not found")
		}
		log.Error().Err(err).Str("user_id", userID.String()).Str("address_id", id.String()).Msg("Failed to delete address")
		return NewInternalError(c, "Failed to delete address")
	}
	return c.NoContent(http.StatusNoContent)
}

func (r AddressRequest) toInput() service.AddressInput {
	return service.AddressInput{
		FullName:   r.FullName,
		Phone:      r.Phone,
		Line1:      r.Line1,
		Line2:      r.Line2,
		City:       r.City,
		State:      r.State,
		PostalCode: r.PostalCode,
		Country:    r.Country,
		IsDefault:  r.IsDefault,
	}
}

func addressValidationError(err error) *ValidationError {
	switch {
	case errors.Is(err, domain.ErrNameRequired):
		return &ValidationError{Field: "fullName", Message: "Full name is required"}
	case errors.Is(err, domain.ErrNameTooLong):
		return &ValidationError{Field: "fullName", Message: "Full name must be 255 characters or less"}
	case errors.Is(err, domain.ErrPhoneRequired):
		return &ValidationError{Field: "phone", Message: "Phone is required"}
	case errors.Is(err, domain.ErrAddressLineRequired):
		return &ValidationError{Field: "line1", Message: "Address line 1 is required"}
	case errors.Is(err, domain.ErrCityRequired):
		return &ValidationError{Field: "city", Message: "City is required"}
	case errors.Is(err, domain.ErrPostalCodeRequired):
		return &ValidationError{Field: "postalCode", Message: "Postal code is required"}
	case errors.Is(err, domain.ErrInvalidInput):
		return &ValidationError{Field: "address", Message: "Address is invalid"}
	}
	return nil
}

func toAddressResponse(a *domain.Address) AddressResponse {
	return AddressResponse{
		ID:         a.ID.String(),
		FullName:   a.FullName,
		Phone:      a.Phone,
		Line1:      a.Line1,
		Line2:      a.Line2,
		City:       a.City,
		State:      a.State,
		PostalCode: a.PostalCode,
		Country:    a.Country,
		IsDefault:  a.IsDefault,
		CreatedAt:  a.CreatedAt.Format(time.RFC3339),
		UpdatedAt:  a.UpdatedAt.Format(time.RFC3339),
	}
}
