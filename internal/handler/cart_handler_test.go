package handler

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vastra/storefront/internal/domain"
	"github.com/vastra/storefront/internal/service"
	"github.com/vastra/storefront/internal/testutil"
)

func newCartHandler() (*CartHandler, *testutil.MockProductRepository) {
	products := testutil.NewMockProductRepository()
	svc := service.NewCartService(testutil.NewMockCartRepository(), products)
	return NewCartHandler(svc), products
}

func decodeCart(t *testing.T, body []byte) CartResponse {
	t.Helper()
	var response CartResponse
	require.NoError(t, json.Unmarshal(body, &response))
	return response
}

func TestCartHandler_AddItem(t *testing.T) {
	e := echo.New()
	handler, products := newCartHandler()
	silk := products.NewActiveProduct("Kanjivaram", 12500, 5)
	userID := uuid.New()

	c, rec := newJSONContext(e, http.MethodPost, "/api/v1/cart/add",
		`{"productId": "`+silk.ID.String()+`", "quantity": 2}`)
	setupAuthContext(c, userID, domain.RoleCustomer)

	require.NoError(t, handler.AddItem(c))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	cart := decodeCart(t, rec.Body.Bytes())
	require.Len(t, cart.Data, 1)
	assert.Equal(t, silk.ID.String(), cart.Data[0].ProductID)
	assert.Equal(t, int32(2), cart.Data[0].Quantity)
	assert.Equal(t, "12500.00", cart.Data[0].Price)
	assert.Equal(t, "25000.00", cart.Total)

	// Adding again sets the absolute quantity
	c, rec = newJSONContext(e, http.MethodPost, "/api/v1/cart/add",
		`{"productId": "`+silk.ID.String()+`", "quantity": 3}`)
	setupAuthContext(c, userID, domain.RoleCustomer)
	require.NoError(t, handler.AddItem(c))

	cart = decodeCart(t, rec.Body.Bytes())
	require.Len(t, cart.Data, 1)
	assert.Equal(t, int32(3), cart.Data[0].Quantity)
}

func TestCartHandler_AddItem_Errors(t *testing.T) {
	e := echo.New()
	handler, products := newCartHandler()
	silk := products.NewActiveProduct("Kanjivaram", 12500, 5)
	retired := products.NewActiveProduct("Retired", 900, 5)
	retired.Active = false

	tests := []struct {
		name       string
		body       string
		wantStatus int
		wantType   string
	}{
		{"bad product id", `{"productId": "nope", "quantity": 1}`, http.StatusBadRequest, ErrorTypeValidation},
		{"zero quantity", `{"productId": "` + silk.ID.String() + `", "quantity": 0}`, http.StatusBadRequest, ErrorTypeValidation},
		{"unknown product", `{"productId": "` + uuid.NewString() + `", "quantity": 1}`, http.StatusNotFound, ErrorTypeNotFound},
		{"inactive product", `{"productId": "` + retired.ID.String() + `", "quantity": 1}`, http.StatusUnprocessableEntity, ErrorTypeUnprocessable},
		{"over stock", `{"productId": "` + silk.ID.String() + `", "quantity": 6}`, http.StatusUnprocessableEntity, ErrorTypeUnprocessable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, rec := newJSONContext(e, http.MethodPost, "/api/v1/cart/add", tt.body)
			setupAuthContext(c, uuid.New(), domain.RoleCustomer)

			require.NoError(t, handler.AddItem(c))
			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Equal(t, tt.wantType, decodeProblem(t, rec).Type)
		})
	}
}

func TestCartHandler_UpdateItem_NotInCart(t *testing.T) {
	e := echo.New()
	handler, products := newCartHandler()
	silk := products.NewActiveProduct("Kanjivaram", 12500, 5)

	c, rec := newJSONContext(e, http.MethodPut, "/api/v1/cart/update",
		`{"productId": "`+silk.ID.String()+`", "quantity": 1}`)
	setupAuthContext(c, uuid.New(), domain.RoleCustomer)

	require.NoError(t, handler.UpdateItem(c))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCartHandler_RemoveAndClear(t *testing.T) {
	e := echo.New()
	handler, products := newCartHandler()
	silk := products.NewActiveProduct("Kanjivaram", 12500, 5)
	cotton := products.NewActiveProduct("Chanderi", 3200, 5)
	userID := uuid.New()

	for _, p := range []*domain.Product{silk, cotton} {
		c, rec := newJSONContext(e, http.MethodPost, "/api/v1/cart/add",
			`{"productId": "`+p.ID.String()+`", "quantity": 1}`)
		setupAuthContext(c, userID, domain.RoleCustomer)
		require.NoError(t, handler.AddItem(c))
		require.Equal(t, http.StatusOK, rec.Code)
	}

	c, rec := newJSONContext(e, http.MethodDelete, "/api/v1/cart/remove/"+silk.ID.String(), "")
	c.SetParamNames("productId")
	c.SetParamValues(silk.ID.String())
	setupAuthContext(c, userID, domain.RoleCustomer)
	require.NoError(t, handler.RemoveItem(c))
	require.Equal(t, http.StatusOK, rec.Code)

	cart := decodeCart(t, rec.Body.Bytes())
	require.Len(t, cart.Data, 1)
	assert.Equal(t, cotton.ID.String(), cart.Data[0].ProductID)

	// Removing an absent item is a 404
	c, rec = newJSONContext(e, http.MethodDelete, "/api/v1/cart/remove/"+silk.ID.String(), "")
	c.SetParamNames("productId")
	c.SetParamValues(silk.ID.String())
	setupAuthContext(c, userID, domain.RoleCustomer)
	require.NoError(t, handler.RemoveItem(c))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	c, rec = newJSONContext(e, http.MethodDelete, "/api/v1/cart", "")
	setupAuthContext(c, userID, domain.RoleCustomer)
	require.NoError(t, handler.Clear(c))
	assert.Equal(t, http.StatusNoContent, rec.Code)

	c, rec = newJSONContext(e, http.MethodGet, "/api/v1/cart", "")
	setupAuthContext(c, userID, domain.RoleCustomer)
	require.NoError(t, handler.GetCart(c))
	assert.Empty(t, decodeCart(t, rec.Body.Bytes()).Data)
}
