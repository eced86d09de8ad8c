package service

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/vastra/storefront/internal/clock"
	"github.com/vastra/storefront/internal/domain"
)

// DefaultSweepInterval is how often expired refresh tokens are purged
const DefaultSweepInterval = 1 * time.Hour

// TokenSweeper is a background worker that periodically deletes expired refresh tokens
type TokenSweeper struct {
	tokenRepo domain.RefreshTokenRepository
	clock     clock.Clock
	logger    zerolog.Logger
	interval  time.Duration
	stopCh    chan struct{}
	doneCh    chan struct{}
	mu        sync.Mutex
	running   bool
}

// NewTokenSweeper creates a new token sweeper
func NewTokenSweeper(tokenRepo domain.RefreshTokenRepository, clk clock.Clock, logger zerolog.Logger, interval time.Duration) *TokenSweeper {
	if interval <= 0 {
		interval = DefaultSweepInterval
	}
	if clk == nil {
		clk = clock.RealClock{}
	}

	return &TokenSweeper{
		tokenRepo: tokenRepo,
		clock:     clk,
		logger:    logger.With().Str("component", "token_sweeper").Logger(),
		interval:  interval,
		stopCh:    make(chan struct{}),
		doneCh:    make(chan struct{}),
	}
}

// Start begins sweeping in the background. Calling Start twice is a no-op.
func (w *TokenSweeper) Start(ctx context.Context) {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return
	}
	w.running = true
	w.mu.Unlock()

	w.logger.Info().Dur("interval", w.interval).Msg("Starting token sweeper")

	go w.run(ctx)
}

// Stop halts the sweeper and waits for the current sweep to finish
func (w *TokenSweeper) Stop() {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return
	}
	w.mu.Unlock()

	close(w.stopCh)
	<-w.doneCh
	w.logger.Info().Msg("Token sweeper stopped")
}

func (w *TokenSweeper) run(ctx context.Context) {
	defer close(w.doneCh)
	defer func() {
		w.mu.Lock()
		w.running = false
		w.mu.Unlock()
	}()

	// Run immediately on startup
	w.Sweep(ctx)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-w.stopCh:
			return
		case <-ticker.C:
			w.Sweep(ctx)
		}
	}
}

// Sweep deletes every refresh token that has expired and returns the count
func (w *TokenSweeper) Sweep(ctx context.Context) int64 {
	start := time.Now()
	n, err := w.tokenRepo.DeleteExpired(ctx, w.clock.Now())
	if err != nil {
		w.logger.Error().Err(err).Msg("Failed to delete expired refresh tokens")
		return 0
	}

	w.logger.Debug().
		Int64("deleted", n).
		Dur("elapsed", time.Since(start)).
		Msg("Swept expired refresh tokens")
	return n
}

// IsRunning returns whether the sweeper is currently running
func (w *TokenSweeper) IsRunning() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.running
}
