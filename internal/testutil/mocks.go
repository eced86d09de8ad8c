package testutil

import (
	"context"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/vastra/storefront/internal/domain"
)

// MockUserRepository is a mock implementation of domain.UserRepository
type MockUserRepository struct {
	ByEmail map[string]*domain.User
	ByID    map[uuid.UUID]*domain.User
}

// NewMockUserRepository creates a new MockUserRepository
func NewMockUserRepository() *MockUserRepository {
	return &MockUserRepository{
		ByEmail: make(map[string]*domain.User),
		ByID:    make(map[uuid.UUID]*domain.User),
	}
}

// AddUser adds a user to the mock repository
func (m *MockUserRepository) AddUser(user *domain.User) {
	m.ByEmail[user.Email] = user
	m.ByID[user.ID] = user
}

// Create creates a new user
func (m *MockUserRepository) Create(ctx context.Context, user *domain.User) (*domain.User, error) {
	if _, ok := m.ByEmail[user.Email]; ok {
		return nil, domain.ErrEmailTaken
	}
	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}
	user.CreatedAt = time.Now()
	user.UpdatedAt = user.CreatedAt
	m.AddUser(user)
	return user, nil
}

// GetByID retrieves a user by ID
func (m *MockUserRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	if user, ok := m.ByID[id]; ok {
		return user, nil
	}
	return nil, domain.ErrUserNotFound
}

// GetByEmail retrieves a user by email
func (m *MockUserRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	if user, ok := m.ByEmail[email]; ok {
		return user, nil
	}
	return nil, domain.ErrUserNotFound
}

// MockRefreshTokenRepository is a mock implementation of domain.RefreshTokenRepository
type MockRefreshTokenRepository struct {
	Tokens    map[string]*domain.RefreshToken
	DeleteErr error
}

// NewMockRefreshTokenRepository creates a new MockRefreshTokenRepository
func NewMockRefreshTokenRepository() *MockRefreshTokenRepository {
	return &MockRefreshTokenRepository{Tokens: make(map[string]*domain.RefreshToken)}
}

// Create stores a token by hash
func (m *MockRefreshTokenRepository) Create(ctx context.Context, token *domain.RefreshToken) error {
	if token.ID == uuid.Nil {
		token.ID = uuid.New()
	}
	token.CreatedAt = time.Now()
	m.Tokens[token.TokenHash] = token
	return nil
}

// GetByHash retrieves a token by hash
func (m *MockRefreshTokenRepository) GetByHash(ctx context.Context, hash string) (*domain.RefreshToken, error) {
	if token, ok := m.Tokens[hash]; ok {
		copied := *token
		return &copied, nil
	}
	return nil, domain.ErrRefreshTokenNotFound
}

// Revoke marks a token revoked
func (m *MockRefreshTokenRepository) Revoke(ctx context.Context, id uuid.UUID) error {
	for _, token := range m.Tokens {
		if token.ID == id {
			if token.RevokedAt == nil {
				now := time.Now()
				token.RevokedAt = &now
			}
			return nil
		}
	}
	return domain.ErrRefreshTokenNotFound
}

// RevokeAllForUser revokes every token of a user
func (m *MockRefreshTokenRepository) RevokeAllForUser(ctx context.Context, userID uuid.UUID) error {
	now := time.Now()
	for _, token := range m.Tokens {
		if token.UserID == userID && token.RevokedAt == nil {
			token.RevokedAt = &now
		}
	}
	return nil
}

// DeleteExpired removes tokens that expired before cutoff
func (m *MockRefreshTokenRepository) DeleteExpired(ctx context.Context, cutoff time.Time) (int64, error) {
	if m.DeleteErr != nil {
		return 0, m.DeleteErr
	}
	var n int64
	for hash, token := range m.Tokens {
		if token.ExpiresAt.Before(cutoff) {
			delete(m.Tokens, hash)
			n++
		}
	}
	return n, nil
}

// Live returns the number of tokens of userID that are not revoked
func (m *MockRefreshTokenRepository) Live(userID uuid.UUID) int {
	n := 0
	for _, token := range m.Tokens {
		if token.UserID == userID && token.RevokedAt == nil {
			n++
		}
	}
	return n
}

// MockCategoryRepository is a mock implementation of domain.CategoryRepository
type MockCategoryRepository struct {
	Categories map[int32]*domain.Category
	// InUse holds category IDs that still have products
	InUse  map[int32]bool
	nextID int32
}

// NewMockCategoryRepository creates a new MockCategoryRepository
func NewMockCategoryRepository() *MockCategoryRepository {
	return &MockCategoryRepository{
		Categories: make(map[int32]*domain.Category),
		InUse:      make(map[int32]bool),
		nextID:     1,
	}
}

// AddCategory adds a category to the mock repository
func (m *MockCategoryRepository) AddCategory(category *domain.Category) {
	m.Categories[category.ID] = category
	if category.ID >= m.nextID {
		m.nextID = category.ID + 1
	}
}

// Create creates a new category
func (m *MockCategoryRepository) Create(ctx context.Context, category *domain.Category) (*domain.Category, error) {
	for _, c := range m.Categories {
		if c.Slug == category.Slug {
			return nil, domain.ErrCategorySlugExists
		}
	}
	category.ID = m.nextID
	m.nextID++
	category.CreatedAt = time.Now()
	category.UpdatedAt = category.CreatedAt
	m.Categories[category.ID] = category
	return category, nil
}

// GetByID retrieves a category by ID
func (m *MockCategoryRepository) GetByID(ctx context.Context, id int32) (*domain.Category, error) {
	if c, ok := m.Categories[id]; ok {
		return c, nil
	}
	return nil, domain.ErrCategoryNotFound
}

// GetBySlug retrieves a category by slug
func (m *MockCategoryRepository) GetBySlug(ctx context.Context, slug string) (*domain.Category, error) {
	for _, c := range m.Categories {
		if c.Slug == slug {
			return c, nil
		}
	}
	return nil, domain.ErrCategoryNotFound
}

// List returns all categories ordered by name
func (m *MockCategoryRepository) List(ctx context.Context) ([]*domain.Category, error) {
	result := make([]*domain.Category, 0, len(m.Categories))
	for _, c := range m.Categories {
		result = append(result, c)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Name < result[j].Name })
	return result, nil
}

// Update updates a category
func (m *MockCategoryRepository) Update(ctx context.Context, category *domain.Category) (*domain.Category, error) {
	if _, ok := m.Categories[category.ID]; !ok {
		return nil, domain.ErrCategoryNotFound
	}
	for id, c := range m.Categories {
		if id != category.ID && c.Slug == category.Slug {
			return nil, domain.ErrCategorySlugExists
		}
	}
	category.UpdatedAt = time.Now()
	m.Categories[category.ID] = category
	return category, nil
}

// Delete removes a category
func (m *MockCategoryRepository) Delete(ctx context.Context, id int32) error {
	if _, ok := m.Categories[id]; !ok {
		return domain.ErrCategoryNotFound
	}
	if m.InUse[id] {
		return domain.ErrCategoryInUse
	}
	delete(m.Categories, id)
	return nil
}

// MockProductRepository is a mock implementation of domain.ProductRepository
type MockProductRepository struct {
	Products map[uuid.UUID]*domain.Product
	// Slugs maps category IDs to slugs for filtering
	Slugs map[int32]string
}

// NewMockProductRepository creates a new MockProductRepository
func NewMockProductRepository() *MockProductRepository {
	return &MockProductRepository{
		Products: make(map[uuid.UUID]*domain.Product),
		Slugs:    make(map[int32]string),
	}
}

// AddProduct adds a product to the mock repository
func (m *MockProductRepository) AddProduct(product *domain.Product) {
	m.Products[product.ID] = product
}

// NewActiveProduct adds an active product with the given name and price
func (m *MockProductRepository) NewActiveProduct(name string, price int64, stock int32) *domain.Product {
	p := &domain.Product{
		ID:        uuid.New(),
		Name:      name,
		Price:     decimal.NewFromInt(price),
		Stock:     stock,
		ImageURL:  "https://cdn.vastra.example/products/" + strings.ToLower(name) + ".jpg",
		Active:    true,
		CreatedAt: time.Now(),
	}
	m.AddProduct(p)
	return p
}

// Create creates a new product
func (m *MockProductRepository) Create(ctx context.Context, product *domain.Product) (*domain.Product, error) {
	if product.ID == uuid.Nil {
		product.ID = uuid.New()
	}
	product.CreatedAt = time.Now()
	product.UpdatedAt = product.CreatedAt
	m.Products[product.ID] = product
	return product, nil
}

// GetByID retrieves a copy of a product by ID, as a database read would
func (m *MockProductRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Product, error) {
	if p, ok := m.Products[id]; ok {
		cp := *p
		return &cp, nil
	}
	return nil, domain.ErrProductNotFound
}

// GetByIDs retrieves the products with the given IDs
func (m *MockProductRepository) GetByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]*domain.Product, error) {
	result := make(map[uuid.UUID]*domain.Product, len(ids))
	for _, id := range ids {
		if p, ok := m.Products[id]; ok {
			result[id] = p
		}
	}
	return result, nil
}

// List filters, orders by name and pages the products
func (m *MockProductRepository) List(ctx context.Context, filter domain.ProductFilter) ([]*domain.Product, int64, error) {
	filter.Normalize()
	search := strings.ToLower(filter.Search)

	matched := make([]*domain.Product, 0)
	for _, p := range m.Products {
		if !filter.IncludeInactive && !p.Active {
			continue
		}
		if filter.CategorySlug != "" && (p.CategoryID == nil || m.Slugs[*p.CategoryID] != filter.CategorySlug) {
			continue
		}
		if search != "" && !strings.Contains(strings.ToLower(p.Name+" "+p.Description+" "+p.Fabric+" "+p.Color), search) {
			continue
		}
		matched = append(matched, p)
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].Name < matched[j].Name })

	total := int64(len(matched))
	start := filter.Offset()
	if start > len(matched) {
		start = len(matched)
	}
	end := start + filter.Limit
	if end > len(matched) {
		end = len(matched)
	}
	return matched[start:end], total, nil
}

// Update updates a product
func (m *MockProductRepository) Update(ctx context.Context, product *domain.Product) (*domain.Product, error) {
	existing, ok := m.Products[product.ID]
	if !ok {
		return nil, domain.ErrProductNotFound
	}
	product.ImageURL = existing.ImageURL
	product.CreatedAt = existing.CreatedAt
	product.UpdatedAt = time.Now()
	m.Products[product.ID] = product
	return product, nil
}

// UpdateImage sets a product's image URL
func (m *MockProductRepository) UpdateImage(ctx context.Context, id uuid.UUID, imageURL string) (*domain.Product, error) {
	p, ok := m.Products[id]
	if !ok {
		return nil, domain.ErrProductNotFound
	}
	p.ImageURL = imageURL
	p.UpdatedAt = time.Now()
	cp := *p
	return &cp, nil
}

// Delete removes a product
func (m *MockProductRepository) Delete(ctx context.Context, id uuid.UUID) error {
	if _, ok := m.Products[id]; !ok {
		return domain.ErrProductNotFound
	}
	delete(m.Products, id)
	return nil
}

// MockCartRepository is a mock implementation of domain.CartRepository
type MockCartRepository struct {
	mu    sync.Mutex
	Items map[uuid.UUID][]*domain.CartItem
	// Err, if set, is returned by every call
	Err error
}

// NewMockCartRepository creates a new MockCartRepository
func NewMockCartRepository() *MockCartRepository {
	return &MockCartRepository{Items: make(map[uuid.UUID][]*domain.CartItem)}
}

// List returns the user's cart rows in insertion order
func (m *MockCartRepository) List(ctx context.Context, userID uuid.UUID) ([]*domain.CartItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}
	return append([]*domain.CartItem{}, m.Items[userID]...), nil
}

// Upsert sets the absolute quantity of a product
func (m *MockCartRepository) Upsert(ctx context.Context, userID, productID uuid.UUID, quantity int32) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	now := time.Now()
	for _, item := range m.Items[userID] {
		if item.ProductID == productID {
			item.Quantity = quantity
			item.UpdatedAt = now
			return nil
		}
	}
	m.Items[userID] = append(m.Items[userID], &domain.CartItem{
		UserID: userID, ProductID: productID, Quantity: quantity, AddedAt: now, UpdatedAt: now,
	})
	return nil
}

// Remove deletes a product from the cart
func (m *MockCartRepository) Remove(ctx context.Context, userID, productID uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	items := m.Items[userID]
	for i, item := range items {
		if item.ProductID == productID {
			m.Items[userID] = append(items[:i:i], items[i+1:]...)
			return nil
		}
	}
	return domain.ErrCartItemNotFound
}

// Clear empties the user's cart
func (m *MockCartRepository) Clear(ctx context.Context, userID uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	delete(m.Items, userID)
	return nil
}

// MockWishlistRepository is a mock implementation of domain.WishlistRepository
type MockWishlistRepository struct {
	Items map[uuid.UUID][]*domain.WishlistItem
}

// NewMockWishlistRepository creates a new MockWishlistRepository
func NewMockWishlistRepository() *MockWishlistRepository {
	return &MockWishlistRepository{Items: make(map[uuid.UUID][]*domain.WishlistItem)}
}

// List returns the user's saved products in insertion order
func (m *MockWishlistRepository) List(ctx context.Context, userID uuid.UUID) ([]*domain.WishlistItem, error) {
	return append([]*domain.WishlistItem{}, m.Items[userID]...), nil
}

// Add saves a product once
func (m *MockWishlistRepository) Add(ctx context.Context, userID, productID uuid.UUID) error {
	for _, item := range m.Items[userID] {
		if item.ProductID == productID {
			return nil
		}
	}
	m.Items[userID] = append(m.Items[userID], &domain.WishlistItem{UserID: userID, ProductID: productID, AddedAt: time.Now()})
	return nil
}

// Remove deletes a saved product
func (m *MockWishlistRepository) Remove(ctx context.Context, userID, productID uuid.UUID) error {
	items := m.Items[userID]
	for i, item := range items {
		if item.ProductID == productID {
			m.Items[userID] = append(items[:i:i], items[i+1:]...)
			return nil
		}
	}
	return domain.ErrWishlistItemNotFound
}

// MockAddressRepository is a mock implementation of domain.AddressRepository
type MockAddressRepository struct {
	Addresses []*domain.Address
}

// NewMockAddressRepository creates a new MockAddressRepository
func NewMockAddressRepository() *MockAddressRepository {
	return &MockAddressRepository{}
}

func (m *MockAddressRepository) clearDefault(userID, except uuid.UUID) {
	for _, a := range m.Addresses {
		if a.UserID == userID && a.ID != except {
			a.IsDefault = false
		}
	}
}

// Create inserts an address
func (m *MockAddressRepository) Create(ctx context.Context, address *domain.Address) (*domain.Address, error) {
	if address.ID == uuid.Nil {
		address.ID = uuid.New()
	}
	if address.IsDefault {
		m.clearDefault(address.UserID, address.ID)
	}
	address.CreatedAt = time.Now()
	address.UpdatedAt = address.CreatedAt
	m.Addresses = append(m.Addresses, address)
	return address, nil
}

// GetByID retrieves one of the user's addresses
func (m *MockAddressRepository) GetByID(ctx context.Context, userID, id uuid.UUID) (*domain.Address, error) {
	for _, a := range m.Addresses {
		if a.ID == id && a.UserID == userID {
			return a, nil
		}
	}
	return nil, domain.ErrAddressNotFound
}

// List returns the user's addresses
func (m *MockAddressRepository) List(ctx context.Context, userID uuid.UUID) ([]*domain.Address, error) {
	result := make([]*domain.Address, 0)
	for _, a := range m.Addresses {
		if a.UserID == userID {
			result = append(result, a)
		}
	}
	return result, nil
}

// Update replaces an address
func (m *MockAddressRepository) Update(ctx context.Context, address *domain.Address) (*domain.Address, error) {
	for i, a := range m.Addresses {
		if a.ID == address.ID && a.UserID == address.UserID {
			if address.IsDefault {
				m.clearDefault(address.UserID, address.ID)
			}
			address.CreatedAt = a.CreatedAt
			address.UpdatedAt = time.Now()
			m.Addresses[i] = address
			return address, nil
		}
	}
	return nil, domain.ErrAddressNotFound
}

// Delete removes one of the user's addresses
func (m *MockAddressRepository) Delete(ctx context.Context, userID, id uuid.UUID) error {
	for i, a := range m.Addresses {
		if a.ID == id && a.UserID == userID {
			m.Addresses = append(m.Addresses[:i:i], m.Addresses[i+1:]...)
			return nil
		}
	}
	return domain.ErrAddressNotFound
}

// Count returns how many addresses the user has
func (m *MockAddressRepository) Count(ctx context.Context, userID uuid.UUID) (int, error) {
	n := 0
	for _, a := range m.Addresses {
		if a.UserID == userID {
			n++
		}
	}
	return n, nil
}

// MockImageStorage is an in-memory image store
type MockImageStorage struct {
	Objects map[string][]byte
	// UploadErr, if set, fails uploads whose path contains UploadErrOn
	UploadErr   error
	UploadErrOn string
}

// NewMockImageStorage creates a new MockImageStorage
func NewMockImageStorage() *MockImageStorage {
	return &MockImageStorage{Objects: make(map[string][]byte)}
}

// Upload stores data under objectPath
func (m *MockImageStorage) Upload(ctx context.Context, objectPath string, data io.Reader, contentType string, size int64) (string, error) {
	if m.UploadErr != nil && strings.Contains(objectPath, m.UploadErrOn) {
		return "", m.UploadErr
	}
	b, err := io.ReadAll(data)
	if err != nil {
		return "", err
	}
	m.Objects[objectPath] = b
	return objectPath, nil
}

// Delete removes an object
func (m *MockImageStorage) Delete(ctx context.Context, objectPath string) error {
	delete(m.Objects, objectPath)
	return nil
}

// DeletePrefix removes every object under prefix
func (m *MockImageStorage) DeletePrefix(ctx context.Context, prefix string) (int, error) {
	n := 0
	for path := range m.Objects {
		if strings.HasPrefix(path, prefix) {
			delete(m.Objects, path)
			n++
		}
	}
	return n, nil
}

// PublicURL returns a fake CDN URL for objectPath
func (m *MockImageStorage) PublicURL(objectPath string) string {
	return fmt.Sprintf("https://cdn.test/%s", objectPath)
}
