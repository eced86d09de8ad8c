// Package redis stores carts in Redis hashes, one hash per user keyed by
// product ID. It is used instead of the PostgreSQL cart table when
// CART_STORE=redis.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/vastra/storefront/internal/clock"
	"github.com/vastra/storefront/internal/domain"
)

// cartTTL expires carts that have not been touched for a while
const cartTTL = 30 * 24 * time.Hour

// maxUpsertAttempts bounds the WATCH/EXEC loop. Each lost race means
// another writer committed.
const maxUpsertAttempts = 1000

// CartRepository implements domain.CartRepository using Redis
type CartRepository struct {
	client *redis.Client
	clock  clock.Clock
}

// storedLine is the value of one hash field
type storedLine struct {
	Quantity  int32     `json:"q"`
	AddedAt   time.Time `json:"a"`
	UpdatedAt time.Time `json:"u"`
}

// NewClient parses a redis:// URL, or a bare host:port address
func NewClient(redisURL string) *redis.Client {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		opts = &redis.Options{
			Addr:         redisURL,
			MinIdleConns: 1,
			DialTimeout:  5 * time.Second,
			ReadTimeout:  3 * time.Second,
			WriteTimeout: 3 * time.Second,
			PoolSize:     10,
		}
	}
	return redis.NewClient(opts)
}

// NewCartRepository creates a new CartRepository
func NewCartRepository(client *redis.Client, clk clock.Clock) *CartRepository {
	if clk == nil {
		clk = clock.RealClock{}
	}
	return &CartRepository{client: client, clock: clk}
}

// Initialize waits until Redis answers a ping, backing off between attempts
func (r *CartRepository) Initialize(ctx context.Context, attempts int) error {
	backoff := 250 * time.Millisecond
	for i := 1; i <= attempts; i++ {
		pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
		err := r.client.Ping(pingCtx).Err()
		cancel()
		if err == nil {
			log.Info().Int("attempt", i).Msg("Connected to Redis")
			return nil
		}
		log.Warn().Err(err).Int("attempt", i).Dur("backoff", backoff).Msg("Redis ping failed")

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff):
		}
		if backoff *= 2; backoff > 10*time.Second {
			backoff = 10 * time.Second
		}
	}
	return fmt.Errorf("redis not reachable after %d attempts", attempts)
}

func cartKey(userID uuid.UUID) string {
	return "cart:" + userID.String()
}

// List returns the user's cart rows in the order they were first added
func (r *CartRepository) List(ctx context.Context, userID uuid.UUID) ([]*domain.CartItem, error) {
	fields, err := r.client.HGetAll(ctx, cartKey(userID)).Result()
	if err != nil {
		return nil, err
	}
	return decodeCart(userID, fields)
}

// Upsert sets the absolute quantity of a product in the cart
func (r *CartRepository) Upsert(ctx context.Context, userID, productID uuid.UUID, quantity int32) error {
	key := cartKey(userID)
	field := productID.String()
	now := r.clock.Now()

	txf := func(tx *redis.Tx) error {
		line := storedLine{AddedAt: now}
		raw, err := tx.HGet(ctx, key, field).Bytes()
		switch {
		case errors.Is(err, redis.Nil):
		case err != nil:
			return err
		default:
			if err := json.Unmarshal(raw, &line); err != nil {
				return fmt.Errorf("decode cart line: %w", err)
			}
		}
		line.Quantity = quantity
		line.UpdatedAt = now

		encoded, err := json.Marshal(line)
		if err != nil {
			return err
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.HSet(ctx, key, field, encoded)
			pipe.Expire(ctx, key, cartTTL)
			return nil
		})
		return err
	}

	for attempt := 1; attempt <= maxUpsertAttempts; attempt++ {
		err := r.client.Watch(ctx, txf, key)
		if !errors.Is(err, redis.TxFailedErr) {
			return err
		}
		// another write to this cart landed between WATCH and EXEC
		if err := ctx.Err(); err != nil {
			return err
		}
	}
	log.Warn().Str("user_id", userID.String()).Int("attempts", maxUpsertAttempts).Msg("Cart upsert kept losing to concurrent writes")
	return fmt.Errorf("cart upsert: %w", redis.TxFailedErr)
}

// Remove deletes a product from the cart
func (r *CartRepository) Remove(ctx context.Context, userID, productID uuid.UUID) error {
	n, err := r.client.HDel(ctx, cartKey(userID), productID.String()).Result()
	if err != nil {
		return err
	}
	if n == 0 {
		return domain.ErrCartItemNotFound
	}
	return nil
}

// Clear empties the user's cart
func (r *CartRepository) Clear(ctx context.Context, userID uuid.UUID) error {
	return r.client.Del(ctx, cartKey(userID)).Err()
}

// decodeCart turns hash fields into cart rows ordered by AddedAt.
// Unreadable fields are skipped and logged.
func decodeCart(userID uuid.UUID, fields map[string]string) ([]*domain.CartItem, error) {
	items := make([]*domain.CartItem, 0, len(fields))
	for field, raw := range fields {
		productID, err := uuid.Parse(field)
		if err != nil {
			log.Warn().Str("field", field).Msg("Skipping cart field with invalid product ID")
			continue
		}
		var line storedLine
		if err := json.Unmarshal([]byte(raw), &line); err != nil {
			log.Warn().Err(err).Str("field", field).Msg("Skipping unreadable cart line")
			continue
		}
		items = append(items, &domain.CartItem{
			UserID:    userID,
			ProductID: productID,
			Quantity:  line.Quantity,
			AddedAt:   line.AddedAt,
			UpdatedAt: line.UpdatedAt,
		})
	}

	sort.Slice(items, func(i, j int) bool {
		if !items[i].AddedAt.Equal(items[j].AddedAt) {
			return items[i].AddedAt.Before(items[j].AddedAt)
		}
		return items[i].ProductID.String() < items[j].ProductID.String()
	})
	return items, nil
}
