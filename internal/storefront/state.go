// Package storefront holds the client-side state of a shopping session:
// the cart and wishlist with optimistic mutations, the address book, the
// catalog and the signed-in session. A State is created per session and
// torn down explicitly; there is no package-level instance.
package storefront

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/rs/zerolog/log"
	"github.com/vastra/storefront/internal/apiclient"
)

// Backend is everything a State needs from the REST API.
// *apiclient.Client implements it.
type Backend interface {
	CartBackend
	WishlistBackend
	AddressBackend
	CatalogBackend
	AuthBackend
}

// EventSource delivers server push events
type EventSource interface {
	Subscribe(ctx context.Context) (<-chan apiclient.Event, error)
}

var _ Backend = (*apiclient.Client)(nil)
var _ EventSource = (*apiclient.Client)(nil)

// State bundles the stores of one shopping session
type State struct {
	Session   *Session
	Catalog   *Catalog
	Cart      *Cart
	Wishlist  *Wishlist
	Addresses *AddressBook

	events EventSource

	mu     sync.Mutex
	closed bool
}

// Option configures a State
type Option func(*State)

// WithEventSource sets where Sync reads push events from. By default a
// backend that can subscribe is used.
func WithEventSource(src EventSource) Option {
	return func(s *State) {
		s.events = src
	}
}

// New creates a State whose stores all talk to backend
func New(backend Backend, opts ...Option) *State {
	s := &State{
		Session:   NewSession(backend),
		Catalog:   NewCatalog(backend),
		Cart:      NewCart(backend),
		Wishlist:  NewWishlist(backend),
		Addresses: NewAddressBook(backend),
	}
	if src, ok := backend.(EventSource); ok {
		s.events = src
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Load fetches every per-user collection that has not been loaded yet
func (s *State) Load(ctx context.Context) error {
	if s.isClosed() {
		return ErrClosed
	}
	return errors.Join(
		s.Cart.FetchIfIdle(ctx),
		s.Wishlist.FetchIfIdle(ctx),
		s.Addresses.FetchIfIdle(ctx),
	)
}

// Login signs in and loads the user's collections
func (s *State) Login(ctx context.Context, email, password string) (*apiclient.User, error) {
	if s.isClosed() {
		return nil, ErrClosed
	}
	s.clearCollections()
	user, err := s.Session.Login(ctx, email, password)
	if err != nil {
		return nil, err
	}
	return user, s.Load(ctx)
}

// Hydrate fills placeholder display fields of cart and wishlist entries
// from products the catalog has seen.
func (s *State) Hydrate() {
	s.Cart.Hydrate(s.Catalog.Lookup)
	s.Wishlist.Hydrate(s.Catalog.Lookup)
}

// Logout revokes the session server-side and clears every collection. The
// collections are cleared even if the server call fails.
func (s *State) Logout(ctx context.Context) error {
	err := s.Session.Logout(ctx)
	s.clearCollections()
	return err
}

// Close clears all per-user state. A closed State rejects further loads.
func (s *State) Close() {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()

	s.clearCollections()
	s.Session.reset()
}

// Sync re-fetches a collection whenever the server reports it changed,
// e.g. from another device. It returns when ctx is done or the stream ends.
// Events for a collection with requests of its own in flight are skipped;
// those requests already carry the latest intent.
func (s *State) Sync(ctx context.Context) error {
	if s.isClosed() {
		return ErrClosed
	}
	if s.events == nil {
		return errors.New("no event source configured")
	}

	events, err := s.events.Subscribe(ctx)
	if err != nil {
		return err
	}

	for ev := range events {
		entity := ev.Entity
		if entity == "" {
			entity, _, _ = strings.Cut(ev.Type, ".")
		}

		var fetchErr error
		switch entity {
		case "cart":
			if !s.Cart.busy() {
				fetchErr = s.Cart.Fetch(ctx)
			}
		case "wishlist":
			if !s.Wishlist.busy() {
				fetchErr = s.Wishlist.Fetch(ctx)
			}
		case "address":
			if !s.Addresses.busy() {
				fetchErr = s.Addresses.Fetch(ctx)
			}
		default:
			log.Debug().Str("type", ev.Type).Msg("Ignoring event")
			continue
		}
		if fetchErr != nil {
			log.Warn().Err(fetchErr).Str("type", ev.Type).Msg("Re-sync failed")
		}
	}
	return ctx.Err()
}

func (s *State) clearCollections() {
	s.Cart.Clear()
	s.Wishlist.Clear()
	s.Addresses.Clear()
}

func (s *State) isClosed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}
