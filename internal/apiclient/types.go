package apiclient

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
)

// TokenPair is returned by login, register and refresh
type TokenPair struct {
	AccessToken  string    `json:"accessToken"`
	RefreshToken string    `json:"refreshToken"`
	TokenType    string    `json:"tokenType"`
	ExpiresAt    time.Time `json:"expiresAt"`
}

// User is the signed-in account
type User struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"createdAt"`
}

// AuthResponse is returned by login and register
type AuthResponse struct {
	TokenPair
	User User `json:"user"`
}

// CartLine is one cart entry as the API reports it
type CartLine struct {
	ProductID string          `json:"productId"`
	Quantity  int             `json:"quantity"`
	Name      string          `json:"name,omitempty"`
	Price     decimal.Decimal `json:"price"`
	ImageURL  string          `json:"imageUrl,omitempty"`
	AltText   string          `json:"altText,omitempty"`
}

// WishlistLine is one wishlist entry as the API reports it
type WishlistLine struct {
	ProductID string          `json:"productId"`
	Price     decimal.Decimal `json:"price"`
	Name      string          `json:"name,omitempty"`
	ImageURL  string          `json:"imageUrl,omitempty"`
	AltText   string          `json:"altText,omitempty"`
}

// Address is a shipping address
type Address struct {
	ID         string `json:"id"`
	FullName   string `json:"fullName"`
	Phone      string `json:"phone"`
	Line1      string `json:"line1"`
	Line2      string `json:"line2,omitempty"`
	City       string `json:"city"`
	State      string `json:"state,omitempty"`
	PostalCode string `json:"postalCode"`
	Country    string `json:"country,omitempty"`
	IsDefault  bool   `json:"isDefault"`
}

// AddressInput carries the writable address fields
type AddressInput struct {
	FullName   string `json:"fullName"`
	Phone      string `json:"phone"`
	Line1      string `json:"line1"`
	Line2      string `json:"line2,omitempty"`
	City       string `json:"city"`
	State      string `json:"state,omitempty"`
	PostalCode string `json:"postalCode"`
	Country    string `json:"country,omitempty"`
	IsDefault  bool   `json:"isDefault"`
}

// Input returns the writable fields of a
func (a Address) Input() AddressInput {
	return AddressInput{
		FullName:   a.FullName,
		Phone:      a.Phone,
		Line1:      a.Line1,
		Line2:      a.Line2,
		City:       a.City,
		State:      a.State,
		PostalCode: a.PostalCode,
		Country:    a.Country,
		IsDefault:  a.IsDefault,
	}
}

// Product is a catalog entry
type Product struct {
	ID          string          `json:"id"`
	CategoryID  *int32          `json:"categoryId,omitempty"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Fabric      string          `json:"fabric"`
	Color       string          `json:"color"`
	Price       decimal.Decimal `json:"price"`
	Stock       int             `json:"stock"`
	ImageURL    string          `json:"imageUrl"`
	AltText     string          `json:"altText"`
	Active      bool            `json:"active"`
}

// ProductInput carries the writable product fields for admin calls
type ProductInput struct {
	CategoryID  *int32          `json:"categoryId,omitempty"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Fabric      string          `json:"fabric"`
	Color       string          `json:"color"`
	Price       decimal.Decimal `json:"price"`
	Stock       int             `json:"stock"`
	AltText     string          `json:"altText"`
	Active      bool            `json:"active"`
}

// ProductPage is one page of a product listing
type ProductPage struct {
	Data  []Product `json:"data"`
	Total int64     `json:"total"`
	Page  int       `json:"page"`
	Limit int       `json:"limit"`
}

// ProductQuery filters a product listing. Zero values are omitted.
type ProductQuery struct {
	Category string
	Search   string
	Page     int
	Limit    int
}

// Category is a product grouping
type Category struct {
	ID          int32  `json:"id"`
	Name        string `json:"name"`
	Slug        string `json:"slug"`
	Description string `json:"description"`
}

// CategoryInput carries the writable category fields for admin calls
type CategoryInput struct {
	Name        string `json:"name"`
	Slug        string `json:"slug,omitempty"`
	Description string `json:"description"`
}

// Event is a push notification from the server
type Event struct {
	Type      string          `json:"type"`
	Entity    string          `json:"entity"`
	Payload   json.RawMessage `json:"payload"`
	Timestamp time.Time       `json:"timestamp"`
}

type cartItemRequest struct {
	ProductID string `json:"productId"`
	Quantity  int    `json:"quantity"`
}

type wishlistItemRequest struct {
	ProductID string `json:"productId"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type registerRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}
