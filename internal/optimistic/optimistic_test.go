package optimistic

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRun_CommitSucceeds(t *testing.T) {
	value := 1
	inverted := false

	err := Run(context.Background(), Mutation{
		Apply:  func() { value = 2 },
		Invert: func() { inverted = true },
		Commit: func(ctx context.Context) error { return nil },
	})

	require.NoError(t, err)
	assert.Equal(t, 2, value)
	assert.False(t, inverted)
}

func TestRun_CommitFailsInverts(t *testing.T) {
	value := 1
	commitErr := errors.New("boom")

	err := Run(context.Background(), Mutation{
		Apply: func() { value = 2 },
		Invert: func() {
			value = 1
		},
		Commit: func(ctx context.Context) error {
			assert.Equal(t, 2, value, "commit must observe the applied state")
			return commitErr
		},
	})

	assert.ErrorIs(t, err, commitErr)
	assert.Equal(t, 1, value)
}

func TestRun_PassesContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := Run(ctx, Mutation{
		Apply:  func() {},
		Invert: func() {},
		Commit: func(ctx context.Context) error { return ctx.Err() },
	})

	assert.ErrorIs(t, err, context.Canceled)
}

func TestRun_NilCommitOnlyApplies(t *testing.T) {
	applied := false
	err := Run(context.Background(), Mutation{Apply: func() { applied = true }})

	require.NoError(t, err)
	assert.True(t, applied)
}

func TestSequencer_LatestWins(t *testing.T) {
	s := NewSequencer[string]()

	first := s.Next("p1")
	second := s.Next("p1")

	assert.Greater(t, second, first)
	assert.False(t, s.IsLatest("p1", first))
	assert.True(t, s.IsLatest("p1", second))
}

func TestSequencer_KeysAreIndependent(t *testing.T) {
	s := NewSequencer[string]()

	a := s.Next("a")
	b := s.Next("b")

	assert.True(t, s.IsLatest("a", a))
	assert.True(t, s.IsLatest("b", b))
	assert.Equal(t, 2, s.Pending())
}

func TestSequencer_Complete(t *testing.T) {
	s := NewSequencer[string]()

	stale := s.Next("p1")
	latest := s.Next("p1")

	assert.False(t, s.Complete("p1", stale))
	assert.Equal(t, 1, s.Pending())
	assert.True(t, s.Complete("p1", latest))
	assert.Equal(t, 0, s.Pending())
	assert.False(t, s.Complete("p1", latest), "a retired intent cannot complete twice")
}

func TestSequencer_ForgetAndReset(t *testing.T) {
	s := NewSequencer[string]()

	a := s.Next("a")
	b := s.Next("b")

	s.Forget("a")
	assert.False(t, s.IsLatest("a", a))
	assert.True(t, s.IsLatest("b", b))

	s.Reset()
	assert.False(t, s.IsLatest("b", b))
	assert.Equal(t, 0, s.Pending())

	next := s.Next("b")
	assert.Greater(t, next, b, "numbers keep increasing across a reset")
}

func TestSequencer_ConcurrentNext(t *testing.T) {
	s := NewSequencer[int]()

	var wg sync.WaitGroup
	seen := make(chan uint64, 100)
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func(k int) {
			defer wg.Done()
			seen <- s.Next(k % 5)
		}(i)
	}
	wg.Wait()
	close(seen)

	unique := make(map[uint64]bool)
	for n := range seen {
		unique[n] = true
	}
	assert.Len(t, unique, 100)
	assert.Equal(t, 5, s.Pending())
}
