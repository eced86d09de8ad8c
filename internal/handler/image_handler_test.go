package handler

import (
	"bytes"
	"encoding/json"
	"image"
	"image/color"
	"image/jpeg"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/vastra/storefront/internal/service"
	"github.com/vastra/storefront/internal/testutil"
)

// createTestImageData creates a valid JPEG image for testing
func createTestImageData(width, height int) []byte {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, color.RGBA{R: 200, G: 30, B: 80, A: 255})
		}
	}
	var buf bytes.Buffer
	jpeg.Encode(&buf, img, &jpeg.Options{Quality: 85})
	return buf.Bytes()
}

// createMultipartForm creates a multipart form with file data
func createMultipartForm(fieldName, filename string, data []byte) (*bytes.Buffer, string) {
	body := new(bytes.Buffer)
	writer := multipart.NewWriter(body)

	part, _ := writer.CreateFormFile(fieldName, filename)
	part.Write(data)

	writer.Close()
	return body, writer.FormDataContentType()
}

func newUploadContext(e *echo.Echo, productID string, body *bytes.Buffer, contentType string) (echo.Context, *httptest.ResponseRecorder) {
	var req *http.Request
	if body == nil {
		req = httptest.NewRequest(http.MethodPost, "/api/v1/admin/products/"+productID+"/image", nil)
	} else {
		req = httptest.NewRequest(http.MethodPost, "/api/v1/admin/products/"+productID+"/image", body)
		req.Header.Set(echo.HeaderContentType, contentType)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues(productID)
	return c, rec
}

func TestUploadProductImage_Success(t *testing.T) {
	store := testutil.NewMockImageStorage()
	products := testutil.NewMockProductRepository()
	silk := products.NewActiveProduct("Kanjivaram", 12500, 3)
	handler := NewImageHandler(service.NewImageService(store, products))

	body, contentType := createMultipartForm("file", "drape.jpg", createTestImageData(400, 600))
	c, rec := newUploadContext(echo.New(), silk.ID.String(), body, contentType)

	err := handler.UploadProductImage(c)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d: %s", http.StatusOK, rec.Code, rec.Body.String())
	}

	var response ProductResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &response); err != nil {
		t.Fatalf("failed to unmarshal response: %v", err)
	}
	if !strings.HasPrefix(response.ImageURL, "https://cdn.test/products/"+silk.ID.String()+"/") {
		t.Errorf("unexpected image URL %s", response.ImageURL)
	}
	if !strings.HasSuffix(response.ImageURL, "_display.jpg") {
		t.Errorf("expected display variant, got %s", response.ImageURL)
	}
	if len(store.Objects) != 3 {
		t.Errorf("expected 3 stored variants, got %d", len(store.Objects))
	}
}

func TestUploadProductImage_StorageDisabled(t *testing.T) {
	handler := NewImageHandler(service.NewImageService(nil, testutil.NewMockProductRepository()))

	body, contentType := createMultipartForm("file", "drape.jpg", createTestImageData(400, 400))
	c, rec := newUploadContext(echo.New(), uuid.NewString(), body, contentType)

	if err := handler.UploadProductImage(c); err != nil {
		t.Fatalf("expected error response, got error: %v", err)
	}
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("expected status %d, got %d", http.StatusServiceUnavailable, rec.Code)
	}
}

func TestUploadProductImage_NoFile(t *testing.T) {
	products := testutil.NewMockProductRepository()
	silk := products.NewActiveProduct("Kanjivaram", 12500, 3)
	handler := NewImageHandler(service.NewImageService(testutil.NewMockImageStorage(), products))

	c, rec := newUploadContext(echo.New(), silk.ID.String(), nil, "")

	if err := handler.UploadProductImage(c); err != nil {
		t.Fatalf("expected error response, got error: %v", err)
	}
	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected status %d, got %d", http.StatusBadRequest, rec.Code)
	}
}

func TestUploadProductImage_Rejections(t *testing.T) {
	tests := []struct {
		name       string
		filename   string
		data       []byte
		wantStatus int
	}{
		{"too small", "small.jpg", createTestImageData(100, 100), http.StatusBadRequest},
		{"wrong extension", "drape.gif", createTestImageData(400, 400), http.StatusBadRequest},
		{"not an image", "drape.jpg", []byte("definitely not a jpeg"), http.StatusBadRequest},
		{"too large", "drape.jpg", make([]byte, 6*1024*1024), http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := testutil.NewMockImageStorage()
			products := testutil.NewMockProductRepository()
			silk := products.NewActiveProduct("Kanjivaram", 12500, 3)
			handler := NewImageHandler(service.NewImageService(store, products))

			body, contentType := createMultipartForm("file", tt.filename, tt.data)
			c, rec := newUploadContext(echo.New(), silk.ID.String(), body, contentType)

			if err := handler.UploadProductImage(c); err != nil {
				t.Fatalf("expected error response, got error: %v", err)
			}
			if rec.Code != tt.wantStatus {
				t.Errorf("expected status %d, got %d", tt.wantStatus, rec.Code)
			}
			if len(store.Objects) != 0 {
				t.Errorf("expected nothing stored, got %d objects", len(store.Objects))
			}
		})
	}
}

func TestUploadProductImage_UnknownProduct(t *testing.T) {
	store := testutil.NewMockImageStorage()
	handler := NewImageHandler(service.NewImageService(store, testutil.NewMockProductRepository()))

	body, contentType := createMultipartForm("file", "drape.jpg", createTestImageData(400, 400))
	c, rec := newUploadContext(echo.New(), uuid.NewString(), body, contentType)

	if err := handler.UploadProductImage(c); err != nil {
		t.Fatalf("expected error response, got error: %v", err)
	}
	if rec.Code != http.StatusNotFound {
		t.Errorf("expected status %d, got %d", http.StatusNotFound, rec.Code)
	}
}
