package storefront

import (
	"context"
	"strconv"

	"github.com/rs/zerolog/log"
	"github.com/vastra/storefront/internal/apiclient"
)

// AddressBackend is the part of the REST API the address book uses
type AddressBackend interface {
	ListAddresses(ctx context.Context) ([]apiclient.Address, error)
	CreateAddress(ctx context.Context, input apiclient.AddressInput) (*apiclient.Address, error)
	UpdateAddress(ctx context.Context, id string, input apiclient.AddressInput) (*apiclient.Address, error)
	DeleteAddress(ctx context.Context, id string) error
}

// AddressSnapshot is a point-in-time copy of the address book
type AddressSnapshot struct {
	Addresses []apiclient.Address `json:"addresses"`
	Status    Status              `json:"status"`
	Error     string              `json:"error,omitempty"`
}

// createKeyPrefix sequences address creations, which have no ID until the
// server answers. Like fetchKey it cannot collide with an address ID.
const createKeyPrefix = "\x00create:"

// AddressBook holds the shopper's shipping addresses. Updates and deletes
// are optimistic; creation waits for the server-assigned ID.
type AddressBook struct {
	store[apiclient.Address]
	backend AddressBackend

	// creates numbers Add calls; guarded by mu
	creates uint64
}

// NewAddressBook creates an idle, empty address book backed by backend
func NewAddressBook(backend AddressBackend) *AddressBook {
	b := &AddressBook{backend: backend}
	b.init("address", func(a apiclient.Address) string { return a.ID })
	return b
}

// Fetch replaces the address book with the server's copy
func (b *AddressBook) Fetch(ctx context.Context) error {
	return b.fetch(ctx, b.backend.ListAddresses, nil)
}

// FetchIfIdle fetches only if the address book has not been loaded this session
func (b *AddressBook) FetchIfIdle(ctx context.Context) error {
	if b.Status() != StatusIdle {
		return nil
	}
	return b.Fetch(ctx)
}

// Add creates an address on the server and appends the stored copy. A
// response that arrives after Clear is returned to the caller but not
// added to the book.
func (b *AddressBook) Add(ctx context.Context, input apiclient.AddressInput) (*apiclient.Address, error) {
	b.mu.Lock()
	b.status = StatusLoading
	b.creates++
	key := createKeyPrefix + strconv.FormatUint(b.creates, 10)
	seq := b.seq.Next(key)
	epoch := b.epoch
	b.mu.Unlock()

	created, err := b.backend.CreateAddress(ctx, input)

	b.mu.Lock()
	defer b.mu.Unlock()

	latest := b.seq.Complete(key, seq)
	if b.epoch != epoch {
		log.Debug().Str("collection", b.name).Msg("Discarded address created before clear")
		if err != nil {
			return nil, err
		}
		return created, nil
	}
	if err != nil {
		if latest {
			b.status = StatusFailed
			b.lastErr = apiclient.Message(err)
		}
		return nil, err
	}

	// a fetch that completed meanwhile may already hold the address; put
	// replaces it by ID
	if created.IsDefault {
		b.clearDefaultExcept(created.ID)
	}
	b.put(*created)
	b.changed()
	if latest && b.seq.Pending() == 0 {
		b.status = StatusSucceeded
		b.lastErr = ""
	}
	return created, nil
}

// Update replaces the fields of address id
func (b *AddressBook) Update(ctx context.Context, id string, input apiclient.AddressInput) error {
	prepare := func() (func(), func(), error) {
		i := b.indexOf(id)
		if i < 0 {
			return nil, nil, ErrItemNotFound
		}
		original := b.items[i]
		var demoted []string

		apply := func() {
			updated := addressFromInput(id, input)
			b.items[i] = updated
			if updated.IsDefault {
				demoted = b.clearDefaultExcept(id)
			}
		}
		invert := func() {
			b.put(original)
			for _, other := range demoted {
				if j := b.indexOf(other); j >= 0 {
					b.items[j].IsDefault = true
				}
			}
		}
		return apply, invert, nil
	}

	return b.mutate(ctx, id, prepare, func(ctx context.Context) error {
		_, err := b.backend.UpdateAddress(ctx, id, input)
		return err
	})
}

// Delete removes address id, restoring it in place if the server refuses
func (b *AddressBook) Delete(ctx context.Context, id string) error {
	prepare := func() (func(), func(), error) {
		i := b.indexOf(id)
		if i < 0 {
			return nil, nil, ErrItemNotFound
		}
		original := b.items[i]
		apply := func() {
			b.removeKey(id)
		}
		invert := func() {
			if b.indexOf(id) >= 0 {
				b.put(original)
				return
			}
			at := i
			if at > len(b.items) {
				at = len(b.items)
			}
			b.items = append(b.items[:at], append([]apiclient.Address{original}, b.items[at:]...)...)
		}
		return apply, invert, nil
	}

	return b.mutate(ctx, id, prepare, func(ctx context.Context) error {
		return b.backend.DeleteAddress(ctx, id)
	})
}

// Snapshot returns a copy of the address book's state
func (b *AddressBook) Snapshot() AddressSnapshot {
	b.mu.Lock()
	defer b.mu.Unlock()
	return AddressSnapshot{
		Addresses: b.copyItems(),
		Status:    b.status,
		Error:     b.lastErr,
	}
}

// Default returns the default address, or the first one if none is marked
func (b *AddressBook) Default() (apiclient.Address, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for _, a := range b.items {
		if a.IsDefault {
			return a, true
		}
	}
	if len(b.items) > 0 {
		return b.items[0], true
	}
	return apiclient.Address{}, false
}

// Clear empties the address book locally
func (b *AddressBook) Clear() {
	b.clear()
}

// clearDefaultExcept unsets IsDefault on every other address and returns
// the IDs it changed. Caller holds mu.
func (b *AddressBook) clearDefaultExcept(id string) []string {
	var changed []string
	for i := range b.items {
		if b.items[i].ID != id && b.items[i].IsDefault {
			b.items[i].IsDefault = false
			changed = append(changed, b.items[i].ID)
		}
	}
	return changed
}

func addressFromInput(id string, in apiclient.AddressInput) apiclient.Address {
	return apiclient.Address{
		ID:         id,
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
