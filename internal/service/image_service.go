package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	"path/filepath"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/vastra/storefront/internal/domain"
	"github.com/vastra/storefront/internal/repository/storage"
)

const (
	MaxImageSize   = 5 * 1024 * 1024 // 5MB
	MinImageWidth  = 200
	MinImageHeight = 200
	ThumbnailWidth = 200
	DisplayWidth   = 800
	JPEGQuality    = 85
)

var (
	ErrImageTooLarge             = errors.New("file too large. Maximum size is 5MB")
	ErrInvalidFormat             = errors.New("invalid format. Supported: JPEG, PNG")
	ErrImageTooSmall             = errors.New("image too small. Minimum 200x200 pixels")
	ErrInvalidImageData          = errors.New("invalid image data")
	ErrImageStorageNotConfigured = errors.New("image storage not configured")
)

// AllowedExtensions maps extensions to content types
var AllowedExtensions = map[string]string{
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
}

// imageVariants are the sizes stored for every product image. A zero width keeps the original size.
var imageVariants = []struct {
	name     string
	maxWidth int
}{
	{"thumb", ThumbnailWidth},
	{"display", DisplayWidth},
	{"original", 0},
}

// ImageMetadata contains URLs for different image sizes
type ImageMetadata struct {
	ID           string `json:"id"`
	ThumbnailURL string `json:"thumbnailUrl"`
	DisplayURL   string `json:"displayUrl"`
	OriginalURL  string `json:"originalUrl"`
}

// ImageService stores product photos in object storage and points the product at them
type ImageService struct {
	storage     storage.ImageRepository
	productRepo domain.ProductRepository
}

// NewImageService creates a new ImageService. A nil storage disables uploads.
func NewImageService(storage storage.ImageRepository, productRepo domain.ProductRepository) *ImageService {
	return &ImageService{storage: storage, productRepo: productRepo}
}

// IsEnabled indicates whether uploads/deletes are supported (storage configured).
func (s *ImageService) IsEnabled() bool {
	return s != nil && s.storage != nil
}

// ValidateImage validates image format and size
func (s *ImageService) ValidateImage(data []byte, filename string) error {
	_, err := s.validateAndDecode(data, filename)
	return err
}

// validateAndDecode validates the image and returns the decoded image
func (s *ImageService) validateAndDecode(data []byte, filename string) (image.Image, error) {
	if len(data) > MaxImageSize {
		return nil, ErrImageTooLarge
	}

	ext := strings.ToLower(filepath.Ext(filename))
	if _, ok := AllowedExtensions[ext]; !ok {
		return nil, ErrInvalidFormat
	}

	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, ErrInvalidImageData
	}

	bounds := img.Bounds()
	if bounds.Dx() < MinImageWidth || bounds.Dy() < MinImageHeight {
		return nil, ErrImageTooSmall
	}

	return img, nil
}

// SetProductImage uploads a new photo for a product and makes its display
// variant the product's image. The previous photo is removed afterwards.
func (s *ImageService) SetProductImage(ctx context.Context, productID uuid.UUID, data []byte, filename string) (*domain.Product, error) {
	if !s.IsEnabled() {
		return nil, ErrImageStorageNotConfigured
	}

	existing, err := s.productRepo.GetByID(ctx, productID)
	if err != nil {
		return nil, err
	}

	// taken before the update, which may rewrite existing in place
	old := s.variantPaths(existing.ImageURL)

	meta, paths, err := s.processAndUpload(ctx, productID, data, filename)
	if err != nil {
		return nil, err
	}

	updated, err := s.productRepo.UpdateImage(ctx, productID, meta.DisplayURL)
	if err != nil {
		s.cleanup(ctx, paths)
		return nil, err
	}

	if len(old) > 0 {
		s.cleanup(ctx, old)
	}

	log.Info().Str("product_id", productID.String()).Str("image_id", meta.ID).Msg("Product image updated")
	return updated, nil
}

// RemoveProductImages deletes every stored photo of a product. It does
// nothing when storage is not configured.
func (s *ImageService) RemoveProductImages(ctx context.Context, productID uuid.UUID) error {
	if !s.IsEnabled() {
		return nil
	}
	n, err := s.storage.DeletePrefix(ctx, productPrefix(productID))
	if err != nil {
		return fmt.Errorf("failed to remove product images: %w", err)
	}
	log.Debug().Str("product_id", productID.String()).Int("objects", n).Msg("Product images removed")
	return nil
}

func productPrefix(productID uuid.UUID) string {
	return "products/" + productID.String() + "/"
}

// processAndUpload resizes the image and uploads all variants
func (s *ImageService) processAndUpload(ctx context.Context, productID uuid.UUID, data []byte, filename string) (*ImageMetadata, []string, error) {
	img, err := s.validateAndDecode(data, filename)
	if err != nil {
		return nil, nil, err
	}

	imageID := uuid.New().String()
	urls := make(map[string]string)
	uploaded := make([]string, 0, len(imageVariants))

	for _, variant := range imageVariants {
		processed := img
		if variant.maxWidth > 0 && img.Bounds().Dx() > variant.maxWidth {
			// Resize maintaining aspect ratio
			processed = imaging.Resize(img, variant.maxWidth, 0, imaging.Lanczos)
		}

		var buf bytes.Buffer
		if err := jpeg.Encode(&buf, processed, &jpeg.Options{Quality: JPEGQuality}); err != nil {
			s.cleanup(ctx, uploaded)
			return nil, nil, fmt.Errorf("failed to encode image: %w", err)
		}

		objectPath := fmt.Sprintf("%s%s_%s.jpg", productPrefix(productID), imageID, variant.name)
		if _, err := s.storage.Upload(ctx, objectPath, bytes.NewReader(buf.Bytes()), "image/jpeg", int64(buf.Len())); err != nil {
			s.cleanup(ctx, uploaded)
			return nil, nil, fmt.Errorf("failed to upload %s variant: %w", variant.name, err)
		}

		uploaded = append(uploaded, objectPath)
		urls[variant.name] = s.storage.PublicURL(objectPath)
	}

	return &ImageMetadata{
		ID:           imageID,
		ThumbnailURL: urls["thumb"],
		DisplayURL:   urls["display"],
		OriginalURL:  urls["original"],
	}, uploaded, nil
}

// cleanup removes objects best effort
func (s *ImageService) cleanup(ctx context.Context, paths []string) {
	for _, p := range paths {
		if err := s.storage.Delete(ctx, p); err != nil {
			log.Warn().Err(err).Str("path", p).Msg("Failed to delete image object")
		}
	}
}

// variantPaths derives the object paths of every variant from a display URL.
// URLs that were not produced by this service yield nil.
func (s *ImageService) variantPaths(imageURL string) []string {
	idx := strings.Index(imageURL, "products/")
	if idx < 0 || !strings.HasSuffix(imageURL, "_display.jpg") {
		return nil
	}
	base := strings.TrimSuffix(imageURL[idx:], "_display.jpg")

	paths := make([]string, 0, len(imageVariants))
	for _, variant := range imageVariants {
		paths = append(paths, base+"_"+variant.name+".jpg")
	}
	return paths
}
