package storefront

import (
	"context"
	"sync"

	"github.com/vastra/storefront/internal/apiclient"
)

// CatalogBackend is the part of the REST API the catalog uses
type CatalogBackend interface {
	ListProducts(ctx context.Context, q apiclient.ProductQuery) (*apiclient.ProductPage, error)
	GetProduct(ctx context.Context, id string) (*apiclient.Product, error)
	ListCategories(ctx context.Context) ([]apiclient.Category, error)
}

// CatalogSnapshot is a point-in-time copy of the loaded catalog
type CatalogSnapshot struct {
	Products   []apiclient.Product    `json:"products"`
	Categories []apiclient.Category   `json:"categories"`
	Query      apiclient.ProductQuery `json:"query"`
	Total      int64                  `json:"total"`
	Status     Status                 `json:"status"`
	Error      string                 `json:"error,omitempty"`
}

// Catalog caches the current product page and the category list. Every
// product seen is remembered so cart and wishlist entries can be hydrated.
type Catalog struct {
	backend CatalogBackend

	mu         sync.Mutex
	products   []apiclient.Product
	categories []apiclient.Category
	query      apiclient.ProductQuery
	total      int64
	known      map[string]apiclient.Product
	status     Status
	lastErr    string
	fetchSeq   uint64
}

// NewCatalog creates an empty catalog backed by backend
func NewCatalog(backend CatalogBackend) *Catalog {
	return &Catalog{
		backend:  backend,
		products: []apiclient.Product{},
		known:    make(map[string]apiclient.Product),
		status:   StatusIdle,
	}
}

// Fetch loads one page of products matching q. The last fetch issued wins.
func (c *Catalog) Fetch(ctx context.Context, q apiclient.ProductQuery) error {
	c.mu.Lock()
	c.fetchSeq++
	seq := c.fetchSeq
	c.status = StatusLoading
	c.mu.Unlock()

	page, err := c.backend.ListProducts(ctx, q)

	c.mu.Lock()
	defer c.mu.Unlock()
	if seq != c.fetchSeq {
		return err
	}
	if err != nil {
		c.status = StatusFailed
		c.lastErr = apiclient.Message(err)
		return err
	}
	c.products = page.Data
	c.query = q
	c.total = page.Total
	for _, p := range page.Data {
		c.known[p.ID] = p
	}
	c.status = StatusSucceeded
	c.lastErr = ""
	return nil
}

// FetchCategories loads the category list
func (c *Catalog) FetchCategories(ctx context.Context) error {
	categories, err := c.backend.ListCategories(ctx)

	c.mu.Lock()
	defer c.mu.Unlock()
	if err != nil {
		c.lastErr = apiclient.Message(err)
		return err
	}
	c.categories = categories
	return nil
}

// Product returns a product by ID, fetching it if it has not been seen
func (c *Catalog) Product(ctx context.Context, id string) (apiclient.Product, error) {
	c.mu.Lock()
	p, ok := c.known[id]
	c.mu.Unlock()
	if ok {
		return p, nil
	}

	fetched, err := c.backend.GetProduct(ctx, id)
	if err != nil {
		return apiclient.Product{}, err
	}

	c.mu.Lock()
	c.known[id] = *fetched
	c.mu.Unlock()
	return *fetched, nil
}

// Lookup returns the display fields of a product already seen
func (c *Catalog) Lookup(productID string) (ProductInfo, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	p, ok := c.known[productID]
	if !ok {
		return ProductInfo{}, false
	}
	return ProductInfoFrom(p), true
}

// Snapshot returns a copy of the loaded catalog
func (c *Catalog) Snapshot() CatalogSnapshot {
	c.mu.Lock()
	defer c.mu.Unlock()

	products := make([]apiclient.Product, len(c.products))
	copy(products, c.products)
	categories := make([]apiclient.Category, len(c.categories))
	copy(categories, c.categories)

	return CatalogSnapshot{
		Products:   products,
		Categories: categories,
		Query:      c.query,
		Total:      c.total,
		Status:     c.status,
		Error:      c.lastErr,
	}
}
