package domain

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

var (
	ErrAddressNotFound     = errors.New("address not found")
	ErrAddressLineRequired = errors.New("address line 1 is required")
	ErrCityRequired        = errors.New("city is required")
	ErrPostalCodeRequired  = errors.New("postal code is required")
	ErrPhoneRequired       = errors.New("phone is required")
	ErrAddressLimitReached = errors.New("address book is full")
)

// MaxAddressesPerUser caps the size of a user's address book
const MaxAddressesPerUser = 10

// DefaultCountry is used when an address omits its country
const DefaultCountry = "IN"

// Address is a shipping address belonging to a user
type Address struct {
	ID         uuid.UUID `json:"id"`
	UserID     uuid.UUID `json:"userId"`
	FullName   string    `json:"fullName"`
	Phone      string    `json:"phone"`
	Line1      string    `json:"line1"`
	Line2      string    `json:"line2"`
	City       string    `json:"city"`
	State      string    `json:"state"`
	PostalCode string    `json:"postalCode"`
	Country    string    `json:"country"`
	IsDefault  bool      `json:"isDefault"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

// Validate trims and checks the address fields
func (a *Address) Validate() error {
	a.FullName = strings.TrimSpace(a.FullName)
	a.Phone = strings.TrimSpace(a.Phone)
	a.Line1 = strings.TrimSpace(a.Line1)
	a.Line2 = strings.TrimSpace(a.Line2)
	a.City = strings.TrimSpace(a.City)
	a.State = strings.TrimSpace(a.State)
	a.PostalCode = strings.TrimSpace(a.PostalCode)
	a.Country = strings.ToUpper(strings.TrimSpace(a.Country))

	if a.FullName == "" {
		return ErrNameRequired
	}
	if len(a.FullName) > MaxNameLength {
		return ErrNameTooLong
	}
	if a.Phone == "" {
		return ErrPhoneRequired
	}
	if a.Line1 == "" {
		return ErrAddressLineRequired
	}
	if a.City == "" {
		return ErrCityRequired
	}
	if a.PostalCode == "" {
		return ErrPostalCodeRequired
	}
	if a.Country == "" {
		a.Country = DefaultCountry
	}
	return nil
}

// AddressRepository defines the interface for address persistence.
// Setting IsDefault on one address clears it on the user's others.
type AddressRepository interface {
	Create(ctx context.Context, address *Address) (*Address, error)
	GetByID(ctx context.Context, userID, id uuid.UUID) (*Address, error)
	List(ctx context.Context, userID uuid.UUID) ([]*Address, error)
	Update(ctx context.Context, address *Address) (*Address, error)
	Delete(ctx context.Context, userID, id uuid.UUID) error
	Count(ctx context.Context, userID uuid.UUID) (int, error)
}
