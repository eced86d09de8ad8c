package storefront

import (
	"github.com/shopspring/decimal"
	"github.com/vastra/storefront/internal/apiclient"
)

// Item is one entry of a cart or wishlist. Name, Price, ImageURL and
// AltText may be placeholders until the product has been fetched.
type Item struct {
	ProductID string          `json:"productId"`
	Name      string          `json:"name"`
	Price     decimal.Decimal `json:"price"`
	Quantity  int             `json:"quantity"`
	ImageURL  string          `json:"imageUrl"`
	AltText   string          `json:"altText"`
}

// Subtotal returns price times quantity
func (i Item) Subtotal() decimal.Decimal {
	return i.Price.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// ProductInfo describes a product being added to a collection
type ProductInfo struct {
	ProductID string
	Name      string
	Price     decimal.Decimal
	ImageURL  string
	AltText   string
}

// ProductInfoFrom extracts the display fields of a catalog product
func ProductInfoFrom(p apiclient.Product) ProductInfo {
	alt := p.AltText
	if alt == "" {
		alt = p.Name
	}
	return ProductInfo{
		ProductID: p.ID,
		Name:      p.Name,
		Price:     p.Price,
		ImageURL:  p.ImageURL,
		AltText:   alt,
	}
}

func (p ProductInfo) item(quantity int) Item {
	return Item{
		ProductID: p.ProductID,
		Name:      p.Name,
		Price:     p.Price,
		Quantity:  quantity,
		ImageURL:  p.ImageURL,
		AltText:   p.AltText,
	}
}

// Snapshot is a point-in-time copy of a collection for display
type Snapshot struct {
	Items  []Item          `json:"items"`
	Total  decimal.Decimal `json:"total"`
	Status Status          `json:"status"`
	Error  string          `json:"error,omitempty"`
}

// Find returns the entry for productID
func (s Snapshot) Find(productID string) (Item, bool) {
	for _, item := range s.Items {
		if item.ProductID == productID {
			return item, true
		}
	}
	return Item{}, false
}

// Collection is the state shared by the cart and the wishlist: an ordered
// list of items unique by ProductID and a total recomputed after every change.
type Collection struct {
	store[Item]
	total decimal.Decimal
}

func newCollection(name string) *Collection {
	c := &Collection{total: decimal.Zero}
	c.init(name, func(i Item) string { return i.ProductID })
	c.changed = c.recompute
	return c
}

// recompute derives the total from the items. Caller holds mu.
func (c *Collection) recompute() {
	total := decimal.Zero
	for _, item := range c.items {
		total = total.Add(item.Subtotal())
	}
	c.total = total
}

// Snapshot returns a copy of the collection's state
func (c *Collection) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Snapshot{
		Items:  c.copyItems(),
		Total:  c.total,
		Status: c.status,
		Error:  c.lastErr,
	}
}

// Items returns a copy of the entries
func (c *Collection) Items() []Item {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.copyItems()
}

// Total returns Σ price × quantity over the current entries
func (c *Collection) Total() decimal.Decimal {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.total
}

// Contains reports whether productID is in the collection
func (c *Collection) Contains(productID string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.indexOf(productID) >= 0
}

// Clear empties the collection locally, unconditionally and without a
// network call. Responses to requests still in flight are discarded.
func (c *Collection) Clear() {
	c.clear()
}

// Hydrate fills placeholder display fields from lookup. Quantities are
// never changed.
func (c *Collection) Hydrate(lookup func(productID string) (ProductInfo, bool)) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for i := range c.items {
		info, ok := lookup(c.items[i].ProductID)
		if !ok {
			continue
		}
		c.items[i] = fillDisplay(c.items[i], info.item(c.items[i].Quantity))
	}
	c.recompute()
}

// fillDisplay copies display fields from src into any empty field of dst
func fillDisplay(dst, src Item) Item {
	if dst.Name == "" {
		dst.Name = src.Name
	}
	if dst.Price.IsZero() {
		dst.Price = src.Price
	}
	if dst.ImageURL == "" {
		dst.ImageURL = src.ImageURL
	}
	if dst.AltText == "" {
		dst.AltText = src.AltText
	}
	return dst
}

// mergeDisplay keeps known display fields for fetched items the server
// returned without them.
func mergeDisplay(fetched, current []Item) []Item {
	known := make(map[string]Item, len(current))
	for _, item := range current {
		known[item.ProductID] = item
	}
	for i, item := range fetched {
		if prev, ok := known[item.ProductID]; ok {
			fetched[i] = fillDisplay(item, prev)
		}
	}
	return fetched
}
