package optimistic

import "sync"

// Sequencer hands out monotonically increasing sequence numbers per key so
// that only the response to the most recent intent for a key is applied.
// It is safe for concurrent use.
type Sequencer[K comparable] struct {
	mu     sync.Mutex
	next   uint64
	latest map[K]uint64
}

// NewSequencer creates an empty Sequencer
func NewSequencer[K comparable]() *Sequencer[K] {
	return &Sequencer[K]{latest: make(map[K]uint64)}
}

// Next records a new intent for key and returns its sequence number
func (s *Sequencer[K]) Next(key K) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.next++
	s.latest[key] = s.next
	return s.next
}

// IsLatest reports whether seq is still the latest intent issued for key.
// A forgotten or reset key has no latest intent.
func (s *Sequencer[K]) IsLatest(key K, seq uint64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	latest, ok := s.latest[key]
	return ok && latest == seq
}

// Complete reports whether seq is the latest intent for key and, if so,
// retires it so the key no longer counts as pending.
func (s *Sequencer[K]) Complete(key K, seq uint64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	latest, ok := s.latest[key]
	if !ok || latest != seq {
		return false
	}
	delete(s.latest, key)
	return true
}

// Forget drops key; responses to any outstanding intent become stale
func (s *Sequencer[K]) Forget(key K) {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.latest, key)
}

// Reset forgets every key. The counter keeps increasing so numbers issued
// before the reset never match a later intent.
func (s *Sequencer[K]) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.latest = make(map[K]uint64)
}

// Pending returns the number of keys with an outstanding intent
func (s *Sequencer[K]) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return len(s.latest)
}
