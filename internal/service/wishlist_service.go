package service

import (
	"context"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/vastra/storefront/internal/domain"
	"github.com/vastra/storefront/internal/websocket"
)

// WishlistService handles wishlist business logic
type WishlistService struct {
	wishlistRepo   domain.WishlistRepository
	productRepo    domain.ProductRepository
	eventPublisher websocket.EventPublisher
}

// NewWishlistService creates a new WishlistService
func NewWishlistService(wishlistRepo domain.WishlistRepository, productRepo domain.ProductRepository) *WishlistService {
	return &WishlistService{
		wishlistRepo: wishlistRepo,
		productRepo:  productRepo,
	}
}

// SetEventPublisher sets the event publisher for real-time updates
func (s *WishlistService) SetEventPublisher(publisher websocket.EventPublisher) {
	s.eventPublisher = publisher
}

// GetWishlist returns the user's saved products in the order they were saved
func (s *WishlistService) GetWishlist(ctx context.Context, userID uuid.UUID) ([]domain.WishlistLine, error) {
	items, err := s.wishlistRepo.List(ctx, userID)
	if err != nil {
		return nil, err
	}

	ids := make([]uuid.UUID, len(items))
	for i, item := range items {
		ids[i] = item.ProductID
	}
	products, err := s.productRepo.GetByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}

	lines := make([]domain.WishlistLine, 0, len(items))
	for _, item := range items {
		product, ok := products[item.ProductID]
		if !ok {
			continue
		}
		lines = append(lines, domain.WishlistLine{
			ProductID: item.ProductID,
			Price:     product.Price,
			Name:      product.Name,
			ImageURL:  product.ImageURL,
			AltText:   product.DisplayAltText(),
		})
	}
	return lines, nil
}

// AddItem saves a product. Saving a product twice is not an error.
func (s *WishlistService) AddItem(ctx context.Context, userID, productID uuid.UUID) ([]domain.WishlistLine, error) {
	product, err := s.productRepo.GetByID(ctx, productID)
	if err != nil {
		return nil, err
	}
	if !product.Active {
		return nil, domain.ErrProductUnavailable
	}

	if err := s.wishlistRepo.Add(ctx, userID, productID); err != nil {
		return nil, err
	}

	log.Info().Str("user_id", userID.String()).Str("product_id", productID.String()).Msg("Wishlist item added")
	return s.publishWishlist(ctx, userID)
}

// RemoveItem deletes a saved product
func (s *WishlistService) RemoveItem(ctx context.Context, userID, productID uuid.UUID) ([]domain.WishlistLine, error) {
	if err := s.wishlistRepo.Remove(ctx, userID, productID); err != nil {
		return nil, err
	}

	log.Info().Str("user_id", userID.String()).Str("product_id", productID.String()).Msg("Wishlist item removed")
	return s.publishWishlist(ctx, userID)
}

func (s *WishlistService) publishWishlist(ctx context.Context, userID uuid.UUID) ([]domain.WishlistLine, error) {
	lines, err := s.GetWishlist(ctx, userID)
	if err != nil {
		return nil, err
	}
	if s.eventPublisher != nil {
		s.eventPublisher.Publish(userID, websocket.WishlistUpdated(lines))
	}
	return lines, nil
}
