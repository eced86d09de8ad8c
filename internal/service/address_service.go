package service

import (
	"context"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/vastra/storefront/internal/domain"
	"github.com/vastra/storefront/internal/websocket"
)

// AddressService handles the shopper's address book. A user with any
// addresses always has exactly one default.
type AddressService struct {
	addressRepo    domain.AddressRepository
	eventPublisher websocket.EventPublisher
}

// NewAddressService creates a new AddressService
func NewAddressService(addressRepo domain.AddressRepository) *AddressService {
	return &AddressService{addressRepo: addressRepo}
}

// SetEventPublisher sets the event publisher for real-time updates
func (s *AddressService) SetEventPublisher(publisher websocket.EventPublisher) {
	s.eventPublisher = publisher
}

// AddressInput contains the writable address fields
type AddressInput struct {
	FullName   string
	Phone      string
	Line1      string
	Line2      string
	City       string
	State      string
	PostalCode string
	Country    string
	IsDefault  bool
}

func (in AddressInput) toAddress(userID uuid.UUID) *domain.Address {
	return &domain.Address{
		UserID:     userID,
		FullName:   in.FullName,
		Phone:      in.Phone,
		Line1:      in.Line1,
		Line2:      in.Line2,
		City:       in.City,
		State:      in.State,
		PostalCode: in.PostalCode,
		Country:    in.Country,
		IsDefault:  in.IsDefault,
	}
}

// ListAddresses returns the user's addresses, oldest first
func (s *AddressService) ListAddresses(ctx context.Context, userID uuid.UUID) ([]*domain.Address, error) {
	return s.addressRepo.List(ctx, userID)
}

// CreateAddress adds an address. The first address becomes the default.
func (s *AddressService) CreateAddress(ctx context.Context, userID uuid.UUID, input AddressInput) (*domain.Address, error) {
	address := input.toAddress(userID)
	if err := address.Validate(); err != nil {
		return nil, err
	}

	count, err := s.addressRepo.Count(ctx, userID)
	if err != nil {
		return nil, err
	}
	if count >= domain.MaxAddressesPerUser {
		return nil, domain.ErrAddressLimitReached
	}
	if count == 0 {
		address.IsDefault = true
	}

	created, err := s.addressRepo.Create(ctx, address)
	if err != nil {
		return nil, err
	}

	log.Info().Str("user_id", userID.String()).Str("address_id", created.ID.String()).Msg("Address created")
	s.publishEvent(userID, websocket.AddressCreated(created))
	return created, nil
}

// UpdateAddress replaces an address. The default cannot be unset directly;
// mark another address as default instead.
func (s *AddressService) UpdateAddress(ctx context.Context, userID, id uuid.UUID, input AddressInput) (*domain.Address, error) {
	existing, err := s.addressRepo.GetByID(ctx, userID, id)
	if err != nil {
		return nil, err
	}

	address := input.toAddress(userID)
	address.ID = id
	if existing.IsDefault {
		address.IsDefault = true
	}
	if err := address.Validate(); err != nil {
		return nil, err
	}

	updated, err := s.addressRepo.Update(ctx, address)
	if err != nil {
		return nil, err
	}

	log.Info().Str("user_id", userID.String()).Str("address_id", id.String()).Msg("Address updated")
	s.publishEvent(userID, websocket.AddressUpdated(updated))
	return updated, nil
}

// DeleteAddress removes an address. Deleting the default promotes the oldest remaining address.
func (s *AddressService) DeleteAddress(ctx context.Context, userID, id uuid.UUID) error {
	existing, err := s.addressRepo.GetByID(ctx, userID, id)
	if err != nil {
		return err
	}
	if err := s.addressRepo.Delete(ctx, userID, id); err != nil {
		return err
	}

	if existing.IsDefault {
		if err := s.promoteOldest(ctx, userID); err != nil {
			log.Error().Err(err).Str("user_id", userID.String()).Msg("Failed to promote default address")
		}
	}

	log.Info().Str("user_id", userID.String()).Str("address_id", id.String()).Msg("Address deleted")
	s.publishEvent(userID, websocket.AddressDeleted(map[string]string{"id": id.String()}))
	return nil
}

func (s *AddressService) promoteOldest(ctx context.Context, userID uuid.UUID) error {
	remaining, err := s.addressRepo.List(ctx, userID)
	if err != nil || len(remaining) == 0 {
		return err
	}
	next := *remaining[0]
	next.IsDefault = true
	_, err = s.addressRepo.Update(ctx, &next)
	return err
}

// publishEvent publishes a WebSocket event if a publisher is configured
func (s *AddressService) publishEvent(userID uuid.UUID, event websocket.Event) {
	if s.eventPublisher != nil {
		s.eventPublisher.Publish(userID, event)
	}
}
