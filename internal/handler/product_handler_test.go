package handler

import (
	"encoding/json"
	"net/http"
	"strconv"
	"testing"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vastra/storefront/internal/domain"
	"github.com/vastra/storefront/internal/service"
	"github.com/vastra/storefront/internal/testutil"
)

type catalogFixture struct {
	products   *ProductHandler
	categories *CategoryHandler
	productDB  *testutil.MockProductRepository
	categoryDB *testutil.MockCategoryRepository
}

func newCatalogFixture() *catalogFixture {
	productRepo := testutil.NewMockProductRepository()
	categoryRepo := testutil.NewMockCategoryRepository()
	return &catalogFixture{
		products:   NewProductHandler(service.NewProductService(productRepo, categoryRepo)),
		categories: NewCategoryHandler(service.NewCategoryService(categoryRepo)),
		productDB:  productRepo,
		categoryDB: categoryRepo,
	}
}

func TestListProducts_FiltersAndPages(t *testing.T) {
	e := echo.New()
	f := newCatalogFixture()
	f.categoryDB.AddCategory(&domain.Category{ID: 1, Name: "Silk", Slug: "silk"})
	f.productDB.Slugs[1] = "silk"

	silkID := int32(1)
	for _, name := range []string{"Kanjivaram", "Mysore", "Paithani"} {
		p := f.productDB.NewActiveProduct(name, 9000, 3)
		p.CategoryID = &silkID
		p.Fabric = "silk"
	}
	f.productDB.NewActiveProduct("Chanderi", 2500, 3)
	hidden := f.productDB.NewActiveProduct("Hidden", 2500, 3)
	hidden.Active = false

	c, rec := newJSONContext(e, http.MethodGet, "/api/v1/products?category=silk&page=2&limit=2", "")
	require.NoError(t, f.products.ListProducts(c))
	require.Equal(t, http.StatusOK, rec.Code)

	var page ProductPageResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &page))
	assert.Equal(t, int64(3), page.Total)
	assert.Equal(t, 2, page.Page)
	assert.Equal(t, 2, page.Limit)
	require.Len(t, page.Data, 1)
	assert.Equal(t, "Paithani", page.Data[0].Name)
	assert.Equal(t, "9000.00", page.Data[0].Price)

	// Inactive products only show up for admins
	c, rec = newJSONContext(e, http.MethodGet, "/api/v1/products?search=hidden", "")
	require.NoError(t, f.products.ListProducts(c))
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &page))
	assert.Zero(t, page.Total)

	c, rec = newJSONContext(e, http.MethodGet, "/api/v1/admin/products?search=hidden", "")
	require.NoError(t, f.products.AdminListProducts(c))
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &page))
	assert.Equal(t, int64(1), page.Total)
}

func TestListProducts_BadPaging(t *testing.T) {
	e := echo.New()
	f := newCatalogFixture()

	c, rec := newJSONContext(e, http.MethodGet, "/api/v1/products?page=zero", "")
	require.NoError(t, f.products.ListProducts(c))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetProduct(t *testing.T) {
	e := echo.New()
	f := newCatalogFixture()
	silk := f.productDB.NewActiveProduct("Kanjivaram", 12500, 3)
	retired := f.productDB.NewActiveProduct("Retired", 100, 0)
	retired.Active = false

	tests := []struct {
		name       string
		id         string
		wantStatus int
	}{
		{"active product", silk.ID.String(), http.StatusOK},
		{"inactive product", retired.ID.String(), http.StatusNotFound},
		{"unknown product", uuid.NewString(), http.StatusNotFound},
		{"malformed id", "42", http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, rec := newJSONContext(e, http.MethodGet, "/api/v1/products/"+tt.id, "")
			c.SetParamNames("id")
			c.SetParamValues(tt.id)

			require.NoError(t, f.products.GetProduct(c))
			assert.Equal(t, tt.wantStatus, rec.Code)
		})
	}
}

func TestAdminProductLifecycle(t *testing.T) {
	e := echo.New()
	f := newCatalogFixture()
	f.categoryDB.AddCategory(&domain.Category{ID: 7, Name: "Cotton", Slug: "cotton"})

	c, rec := newJSONContext(e, http.MethodPost, "/api/v1/admin/products",
		`{"categoryId": 7, "name": "Chanderi", "fabric": "cotton silk", "color": "ivory",
		"price": "3200.50", "stock": 4, "active": true}`)
	require.NoError(t, f.products.CreateProduct(c))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var created ProductResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	assert.Equal(t, "3200.50", created.Price)
	assert.Equal(t, "Chanderi", created.AltText, "alt text falls back to the name")

	c, rec = newJSONContext(e, http.MethodPut, "/api/v1/admin/products/"+created.ID,
		`{"categoryId": 7, "name": "Chanderi", "price": "2999", "stock": 2, "altText": "Ivory Chanderi drape", "active": false}`)
	c.SetParamNames("id")
	c.SetParamValues(created.ID)
	require.NoError(t, f.products.UpdateProduct(c))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var updated ProductResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &updated))
	assert.Equal(t, "2999.00", updated.Price)
	assert.False(t, updated.Active)

	c, rec = newJSONContext(e, http.MethodDelete, "/api/v1/admin/products/"+created.ID, "")
	c.SetParamNames("id")
	c.SetParamValues(created.ID)
	require.NoError(t, f.products.DeleteProduct(c))
	assert.Equal(t, http.StatusNoContent, rec.Code)

	c, rec = newJSONContext(e, http.MethodDelete, "/api/v1/admin/products/"+created.ID, "")
	c.SetParamNames("id")
	c.SetParamValues(created.ID)
	require.NoError(t, f.products.DeleteProduct(c))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCreateProduct_Validation(t *testing.T) {
	tests := []struct {
		name  string
		body  string
		field string
	}{
		{"bad price", `{"name": "Saree", "price": "cheap", "stock": 1}`, "price"},
		{"zero price", `{"name": "Saree", "price": "0", "stock": 1}`, "price"},
		{"negative stock", `{"name": "Saree", "price": "10", "stock": -1}`, "stock"},
		{"missing name", `{"price": "10", "stock": 1}`, "name"},
		{"unknown category", `{"categoryId": 99, "name": "Saree", "price": "10", "stock": 1}`, "categoryId"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := echo.New()
			f := newCatalogFixture()

			c, rec := newJSONContext(e, http.MethodPost, "/api/v1/admin/products", tt.body)
			require.NoError(t, f.products.CreateProduct(c))

			assert.Equal(t, http.StatusBadRequest, rec.Code)
			problem := decodeProblem(t, rec)
			require.Len(t, problem.Errors, 1)
			assert.Equal(t, tt.field, problem.Errors[0].Field)
		})
	}
}

func TestCategoryHandlers(t *testing.T) {
	e := echo.New()
	f := newCatalogFixture()

	c, rec := newJSONContext(e, http.MethodPost, "/api/v1/admin/categories", `{"name": "Banarasi Silk"}`)
	require.NoError(t, f.categories.CreateCategory(c))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var created CategoryResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	assert.Equal(t, "banarasi-silk", created.Slug)

	// Same slug again conflicts
	c, rec = newJSONContext(e, http.MethodPost, "/api/v1/admin/categories", `{"name": "Banarasi  silk"}`)
	require.NoError(t, f.categories.CreateCategory(c))
	assert.Equal(t, http.StatusConflict, rec.Code)

	id := strconv.Itoa(int(created.ID))
	c, rec = newJSONContext(e, http.MethodPut, "/api/v1/admin/categories/"+id,
		`{"name": "Banarasi", "description": "Woven in Varanasi"}`)
	c.SetParamNames("id")
	c.SetParamValues(id)
	require.NoError(t, f.categories.UpdateCategory(c))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	c, rec = newJSONContext(e, http.MethodGet, "/api/v1/categories", "")
	require.NoError(t, f.categories.ListCategories(c))
	var list CategoryListResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	require.Len(t, list.Data, 1)
	assert.Equal(t, "banarasi", list.Data[0].Slug)

	f.categoryDB.InUse[created.ID] = true
	c, rec = newJSONContext(e, http.MethodDelete, "/api/v1/admin/categories/"+id, "")
	c.SetParamNames("id")
	c.SetParamValues(id)
	require.NoError(t, f.categories.DeleteCategory(c))
	assert.Equal(t, http.StatusConflict, rec.Code)

	delete(f.categoryDB.InUse, created.ID)
	c, rec = newJSONContext(e, http.MethodDelete, "/api/v1/admin/categories/"+id, "")
	c.SetParamNames("id")
	c.SetParamValues(id)
	require.NoError(t, f.categories.DeleteCategory(c))
	assert.Equal(t, http.StatusNoContent, rec.Code)
}
