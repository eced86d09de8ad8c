package storefront

import (
	"context"
	"sync"

	"github.com/rs/zerolog/log"
	"github.com/vastra/storefront/internal/apiclient"
	"github.com/vastra/storefront/internal/optimistic"
)

// fetchKey sequences whole-collection loads. Product and address IDs never
// contain a NUL byte, so it cannot collide with an item key.
const fetchKey = "\x00fetch"

// prepareFunc runs with the store locked. It validates the request against
// the current items and returns the apply and invert halves of the change.
// Returning nil halves and a nil error means there is nothing to do.
type prepareFunc func() (apply, invert func(), err error)

// store is an ordered, keyed list with collection-level status and
// per-key response sequencing. The zero value is not usable; see init.
type store[T any] struct {
	name  string
	keyOf func(T) string

	mu      sync.Mutex
	items   []T
	status  Status
	lastErr string
	seq     *optimistic.Sequencer[string]

	// epoch counts clears; responses to requests issued in an earlier
	// epoch are dropped
	epoch uint64

	// changed runs with mu held after every change to items
	changed func()
}

func (s *store[T]) init(name string, keyOf func(T) string) {
	s.name = name
	s.keyOf = keyOf
	s.items = []T{}
	s.status = StatusIdle
	s.seq = optimistic.NewSequencer[string]()
	s.changed = func() {}
}

// indexOf returns the position of key or -1. Caller holds mu.
func (s *store[T]) indexOf(key string) int {
	for i, item := range s.items {
		if s.keyOf(item) == key {
			return i
		}
	}
	return -1
}

// removeKey deletes every entry for key. Caller holds mu.
func (s *store[T]) removeKey(key string) {
	kept := s.items[:0]
	for _, item := range s.items {
		if s.keyOf(item) != key {
			kept = append(kept, item)
		}
	}
	s.items = kept
}

// put replaces the entry for key or appends it. Caller holds mu.
func (s *store[T]) put(item T) {
	if i := s.indexOf(s.keyOf(item)); i >= 0 {
		s.items[i] = item
		return
	}
	s.items = append(s.items, item)
}

func (s *store[T]) copyItems() []T {
	out := make([]T, len(s.items))
	copy(out, s.items)
	return out
}

// fetch loads the whole collection. The last fetch issued wins; a
// successful fetch is authoritative and retires every in-flight mutation.
func (s *store[T]) fetch(ctx context.Context, load func(context.Context) ([]T, error), merge func(fetched, current []T) []T) error {
	s.mu.Lock()
	s.status = StatusLoading
	seq := s.seq.Next(fetchKey)
	s.mu.Unlock()

	fetched, err := load(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.seq.Complete(fetchKey, seq) {
		log.Debug().Str("collection", s.name).Msg("Discarded stale fetch response")
		return err
	}
	if err != nil {
		s.status = StatusFailed
		s.lastErr = apiclient.Message(err)
		log.Warn().Err(err).Str("collection", s.name).Msg("Fetch failed")
		return err
	}

	if merge != nil {
		fetched = merge(fetched, s.items)
	}
	s.items = dedupe(fetched, s.keyOf)
	s.changed()
	s.seq.Reset()
	s.status = StatusSucceeded
	s.lastErr = ""
	return nil
}

// mutate applies a change locally, commits it and inverts it if the commit
// fails. Only the response to the latest intent for key may roll back or
// settle the status; older responses are discarded.
func (s *store[T]) mutate(ctx context.Context, key string, prepare prepareFunc, commit func(context.Context) error) error {
	s.mu.Lock()
	apply, invert, err := prepare()
	if err != nil || apply == nil {
		s.mu.Unlock()
		return err
	}

	var seq uint64
	var commitErr error
	m := optimistic.Mutation{
		// prepare and apply share one lock hold so the precondition
		// cannot change underneath them
		Apply: func() {
			defer s.mu.Unlock()
			apply()
			s.changed()
			s.status = StatusLoading
			seq = s.seq.Next(key)
		},
		Commit: func(ctx context.Context) error {
			commitErr = commit(ctx)
			return commitErr
		},
		Invert: func() {
			s.mu.Lock()
			defer s.mu.Unlock()

			if !s.seq.Complete(key, seq) {
				log.Debug().Str("collection", s.name).Str("key", key).Msg("Discarded stale failure")
				return
			}
			invert()
			s.changed()
			s.status = StatusFailed
			s.lastErr = apiclient.Message(commitErr)
			log.Warn().Err(commitErr).Str("collection", s.name).Str("key", key).Msg("Rolled back optimistic change")
		},
	}

	if err := optimistic.Run(ctx, m); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.seq.Complete(key, seq) {
		log.Debug().Str("collection", s.name).Str("key", key).Msg("Discarded stale success")
		return nil
	}
	if s.seq.Pending() == 0 {
		s.status = StatusSucceeded
		s.lastErr = ""
	}
	return nil
}

// currentEpoch returns the epoch a request is issued in
func (s *store[T]) currentEpoch() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.epoch
}

// fail records err as the collection's last failure unless the store has
// been cleared since epoch
func (s *store[T]) fail(epoch uint64, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.epoch != epoch {
		return
	}
	s.status = StatusFailed
	s.lastErr = apiclient.Message(err)
}

// clear empties the store without a network call and invalidates every
// in-flight response.
func (s *store[T]) clear() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.items = []T{}
	s.changed()
	s.seq.Reset()
	s.epoch++
	s.status = StatusIdle
	s.lastErr = ""
}

// Status returns the collection's current status
func (s *store[T]) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

// Err returns the last error message, or "" after a successful operation
func (s *store[T]) Err() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastErr
}

// busy reports whether any request for this store is in flight
func (s *store[T]) busy() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.seq.Pending() > 0
}

// Len returns the number of entries
func (s *store[T]) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.items)
}

// dedupe keeps the first entry for every key
func dedupe[T any](items []T, keyOf func(T) string) []T {
	seen := make(map[string]bool, len(items))
	out := make([]T, 0, len(items))
	for _, item := range items {
		k := keyOf(item)
		if seen[k] {
			continue
		}
		seen[k] = true
		out = append(out, item)
	}
	return out
}
