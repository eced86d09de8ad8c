package service

import (
	"context"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/vastra/storefront/internal/domain"
	"github.com/vastra/storefront/internal/websocket"
)

// CartService handles cart business logic. Every mutation returns the whole
// cart so clients can replace their local copy.
type CartService struct {
	cartRepo       domain.CartRepository
	productRepo    domain.ProductRepository
	eventPublisher websocket.EventPublisher
}

// NewCartService creates a new CartService
func NewCartService(cartRepo domain.CartRepository, productRepo domain.ProductRepository) *CartService {
	return &CartService{
		cartRepo:    cartRepo,
		productRepo: productRepo,
	}
}

// SetEventPublisher sets the event publisher for real-time updates
func (s *CartService) SetEventPublisher(publisher websocket.EventPublisher) {
	s.eventPublisher = publisher
}

// publishEvent publishes a WebSocket event if a publisher is configured
func (s *CartService) publishEvent(userID uuid.UUID, event websocket.Event) {
	if s.eventPublisher != nil {
		s.eventPublisher.Publish(userID, event)
	}
}

// GetCart returns the user's cart lines in the order they were added
func (s *CartService) GetCart(ctx context.Context, userID uuid.UUID) ([]domain.CartLine, error) {
	items, err := s.cartRepo.List(ctx, userID)
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

	lines := make([]domain.CartLine, 0, len(items))
	for _, item := range items {
		product, ok := products[item.ProductID]
		if !ok {
			// Product was deleted after it was added
			continue
		}
		lines = append(lines, domain.CartLine{
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
			Name:      product.Name,
			Price:     product.Price,
			ImageURL:  product.ImageURL,
			AltText:   product.DisplayAltText(),
		})
	}
	return lines, nil
}

// AddItem sets the absolute quantity of a product, adding it when absent
func (s *CartService) AddItem(ctx context.Context, userID, productID uuid.UUID, quantity int32) ([]domain.CartLine, error) {
	if err := s.checkAvailable(ctx, productID, quantity); err != nil {
		return nil, err
	}
	if err := s.cartRepo.Upsert(ctx, userID, productID, quantity); err != nil {
		return nil, err
	}

	log.Info().
		Str("user_id", userID.String()).
		Str("product_id", productID.String()).
		Int32("quantity", quantity).
		Msg("Cart item set")
	return s.publishCart(ctx, userID)
}

// UpdateItem changes the quantity of a product already in the cart
func (s *CartService) UpdateItem(ctx context.Context, userID, productID uuid.UUID, quantity int32) ([]domain.CartLine, error) {
	items, err := s.cartRepo.List(ctx, userID)
	if err != nil {
		return nil, err
	}
	found := false
	for _, item := range items {
		if item.ProductID == productID {
			found = true
			break
		}
	}
	if !found {
		return nil, domain.ErrCartItemNotFound
	}

	return s.AddItem(ctx, userID, productID, quantity)
}

// RemoveItem deletes a product from the cart
func (s *CartService) RemoveItem(ctx context.Context, userID, productID uuid.UUID) ([]domain.CartLine, error) {
	if err := s.cartRepo.Remove(ctx, userID, productID); err != nil {
		return nil, err
	}

	log.Info().
		Str("user_id", userID.String()).
		Str("product_id", productID.String()).
		Msg("Cart item removed")
	return s.publishCart(ctx, userID)
}

// Clear empties the cart, e.g. after checkout
func (s *CartService) Clear(ctx context.Context, userID uuid.UUID) error {
	if err := s.cartRepo.Clear(ctx, userID); err != nil {
		return err
	}
	log.Info().Str("user_id", userID.String()).Msg("Cart cleared")
	s.publishEvent(userID, websocket.CartCleared())
	return nil
}

func (s *CartService) checkAvailable(ctx context.Context, productID uuid.UUID, quantity int32) error {
	if err := domain.ValidateQuantity(quantity); err != nil {
		return err
	}
	product, err := s.productRepo.GetByID(ctx, productID)
	if err != nil {
		return err
	}
	if !product.Active {
		return domain.ErrProductUnavailable
	}
	if product.Stock < quantity {
		return domain.ErrInsufficientStock
	}
	return nil
}

func (s *CartService) publishCart(ctx context.Context, userID uuid.UUID) ([]domain.CartLine, error) {
	lines, err := s.GetCart(ctx, userID)
	if err != nil {
		return nil, err
	}
	s.publishEvent(userID, websocket.CartUpdated(lines))
	return lines, nil
}
