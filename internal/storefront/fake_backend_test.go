package storefront

import (
	"context"
	"fmt"
	"net/http"
	"sync"

	"github.com/shopspring/decimal"
	"github.com/vastra/storefront/internal/apiclient"
)

// fakeBackend is an in-memory REST API. Every call goes through gate,
// which tests use to fail or block individual requests.
type fakeBackend struct {
	mu        sync.Mutex
	cart      []apiclient.CartLine
	wishlist  []apiclient.WishlistLine
	addresses []apiclient.Address
	products  map[string]apiclient.Product
	calls     map[string]int
	nextID    int

	// gate runs before every call with the operation name; a non-nil
	// error fails the call without touching server state.
	gate func(ctx context.Context, op string) error

	events chan apiclient.Event
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{
		products: make(map[string]apiclient.Product),
		calls:    make(map[string]int),
	}
}

func serverError(detail string) error {
	return &apiclient.APIError{StatusCode: http.StatusInternalServerError, Title: "Internal Server Error", Detail: detail}
}

// failOn makes every call to op fail with detail
func (f *fakeBackend) failOn(op, detail string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.gate = func(ctx context.Context, called string) error {
		if called == op {
			return serverError(detail)
		}
		return nil
	}
}

func (f *fakeBackend) enter(ctx context.Context, op string) error {
	f.mu.Lock()
	f.calls[op]++
	gate := f.gate
	f.mu.Unlock()

	if gate != nil {
		return gate(ctx, op)
	}
	return nil
}

func (f *fakeBackend) callCount(op string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[op]
}

func (f *fakeBackend) totalCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.calls {
		n += c
	}
	return n
}

func (f *fakeBackend) addProduct(id, name string, price int64) apiclient.Product {
	f.mu.Lock()
	defer f.mu.Unlock()
	p := apiclient.Product{ID: id, Name: name, Price: decimal.NewFromInt(price), ImageURL: "https://img.example/" + id + ".jpg", Active: true}
	f.products[id] = p
	return p
}

func (f *fakeBackend) seedCart(lines ...apiclient.CartLine) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cart = append([]apiclient.CartLine{}, lines...)
}

func (f *fakeBackend) serverCart() []apiclient.CartLine {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]apiclient.CartLine{}, f.cart...)
}

func (f *fakeBackend) GetCart(ctx context.Context) ([]apiclient.CartLine, error) {
	if err := f.enter(ctx, "GetCart"); err != nil {
		return nil, err
	}
	return f.serverCart(), nil
}

func (f *fakeBackend) setCartLine(productID string, quantity int) []apiclient.CartLine {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.cart {
		if f.cart[i].ProductID == productID {
			f.cart[i].Quantity = quantity
			return append([]apiclient.CartLine{}, f.cart...)
		}
	}
	p := f.products[productID]
	f.cart = append(f.cart, apiclient.CartLine{ProductID: productID, Quantity: quantity, Name: p.Name, Price: p.Price})
	return append([]apiclient.CartLine{}, f.cart...)
}

func (f *fakeBackend) AddToCart(ctx context.Context, productID string, quantity int) ([]apiclient.CartLine, error) {
	if err := f.enter(ctx, "AddToCart"); err != nil {
		return nil, err
	}
	return f.setCartLine(productID, quantity), nil
}

func (f *fakeBackend) UpdateCartItem(ctx context.Context, productID string, quantity int) ([]apiclient.CartLine, error) {
	if err := f.enter(ctx, "UpdateCartItem"); err != nil {
		return nil, err
	}
	return f.setCartLine(productID, quantity), nil
}

func (f *fakeBackend) RemoveFromCart(ctx context.Context, productID string) ([]apiclient.CartLine, error) {
	if err := f.enter(ctx, "RemoveFromCart"); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	kept := f.cart[:0]
	for _, l := range f.cart {
		if l.ProductID != productID {
			kept = append(kept, l)
		}
	}
	f.cart = kept
	return append([]apiclient.CartLine{}, f.cart...), nil
}

func (f *fakeBackend) ClearCart(ctx context.Context) error {
	if err := f.enter(ctx, "ClearCart"); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cart = nil
	return nil
}

func (f *fakeBackend) GetWishlist(ctx context.Context) ([]apiclient.WishlistLine, error) {
	if err := f.enter(ctx, "GetWishlist"); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]apiclient.WishlistLine{}, f.wishlist...), nil
}

func (f *fakeBackend) AddToWishlist(ctx context.Context, productID string) ([]apiclient.WishlistLine, error) {
	if err := f.enter(ctx, "AddToWishlist"); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, l := range f.wishlist {
		if l.ProductID == productID {
			return append([]apiclient.WishlistLine{}, f.wishlist...), nil
		}
	}
	p := f.products[productID]
	f.wishlist = append(f.wishlist, apiclient.WishlistLine{ProductID: productID, Price: p.Price, Name: p.Name})
	return append([]apiclient.WishlistLine{}, f.wishlist...), nil
}

func (f *fakeBackend) RemoveFromWishlist(ctx context.Context, productID string) ([]apiclient.WishlistLine, error) {
	if err := f.enter(ctx, "RemoveFromWishlist"); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	kept := f.wishlist[:0]
	for _, l := range f.wishlist {
		if l.ProductID != productID {
			kept = append(kept, l)
		}
	}
	f.wishlist = kept
	return append([]apiclient.WishlistLine{}, f.wishlist...), nil
}

func (f *fakeBackend) ListAddresses(ctx context.Context) ([]apiclient.Address, error) {
	if err := f.enter(ctx, "ListAddresses"); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]apiclient.Address{}, f.addresses...), nil
}

func (f *fakeBackend) CreateAddress(ctx context.Context, input apiclient.AddressInput) (*apiclient.Address, error) {
	if err := f.enter(ctx, "CreateAddress"); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	addr := addressFromInput(fmt.Sprintf("addr-%d", f.nextID), input)
	f.addresses = append(f.addresses, addr)
	return &addr, nil
}

func (f *fakeBackend) UpdateAddress(ctx context.Context, id string, input apiclient.AddressInput) (*apiclient.Address, error) {
	if err := f.enter(ctx, "UpdateAddress"); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	addr := addressFromInput(id, input)
	for i := range f.addresses {
		if f.addresses[i].ID == id {
			f.addresses[i] = addr
		}
	}
	return &addr, nil
}

func (f *fakeBackend) DeleteAddress(ctx context.Context, id string) error {
	if err := f.enter(ctx, "DeleteAddress"); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	kept := f.addresses[:0]
	for _, a := range f.addresses {
		if a.ID != id {
			kept = append(kept, a)
		}
	}
	f.addresses = kept
	return nil
}

func (f *fakeBackend) ListProducts(ctx context.Context, q apiclient.ProductQuery) (*apiclient.ProductPage, error) {
	if err := f.enter(ctx, "ListProducts"); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	page := &apiclient.ProductPage{Data: []apiclient.Product{}, Page: 1, Limit: 20}
	for _, p := range f.products {
		page.Data = append(page.Data, p)
	}
	page.Total = int64(len(page.Data))
	return page, nil
}

func (f *fakeBackend) GetProduct(ctx context.Context, id string) (*apiclient.Product, error) {
	if err := f.enter(ctx, "GetProduct"); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.products[id]
	if !ok {
		return nil, &apiclient.APIError{StatusCode: http.StatusNotFound, Detail: "Product not found"}
	}
	return &p, nil
}

func (f *fakeBackend) ListCategories(ctx context.Context) ([]apiclient.Category, error) {
	if err := f.enter(ctx, "ListCategories"); err != nil {
		return nil, err
	}
	return []apiclient.Category{{ID: 1, Name: "Silk", Slug: "silk"}}, nil
}

func (f *fakeBackend) Login(ctx context.Context, email, password string) (*apiclient.AuthResponse, error) {
	if err := f.enter(ctx, "Login"); err != nil {
		return nil, err
	}
	if password != "correct-horse" {
		return nil, &apiclient.APIError{StatusCode: http.StatusUnauthorized, Detail: "Invalid email or password"}
	}
	return &apiclient.AuthResponse{
		TokenPair: apiclient.TokenPair{AccessToken: "access", RefreshToken: "refresh"},
		User:      apiclient.User{ID: "u1", Email: email, Role: "customer"},
	}, nil
}

func (f *fakeBackend) Register(ctx context.Context, name, email, password string) (*apiclient.AuthResponse, error) {
	if err := f.enter(ctx, "Register"); err != nil {
		return nil, err
	}
	return &apiclient.AuthResponse{User: apiclient.User{ID: "u2", Name: name, Email: email, Role: "customer"}}, nil
}

func (f *fakeBackend) Logout(ctx context.Context) error {
	return f.enter(ctx, "Logout")
}

func (f *fakeBackend) Me(ctx context.Context) (*apiclient.User, error) {
	if err := f.enter(ctx, "Me"); err != nil {
		return nil, err
	}
	return &apiclient.User{ID: "u1", Email: "meera@example.com", Role: "admin"}, nil
}

func (f *fakeBackend) Subscribe(ctx context.Context) (<-chan apiclient.Event, error) {
	if err := f.enter(ctx, "Subscribe"); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.events == nil {
		f.events = make(chan apiclient.Event, 8)
	}
	return f.events, nil
}
