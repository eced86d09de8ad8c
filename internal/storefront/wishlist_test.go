package storefront

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vastra/storefront/internal/apiclient"
)

func TestWishlist_AddExistingIsNoop(t *testing.T) {
	backend := newFakeBackend()
	wishlist := NewWishlist(backend)
	ctx := context.Background()

	require.NoError(t, wishlist.Add(ctx, product("p1", 1200)))
	require.NoError(t, wishlist.Add(ctx, product("p1", 1200)))

	assert.Equal(t, 1, backend.callCount("AddToWishlist"))
	snap := wishlist.Snapshot()
	require.Len(t, snap.Items, 1)
	assert.Equal(t, 1, snap.Items[0].Quantity)
	assert.True(t, snap.Total.Equal(decimal.NewFromInt(1200)))
}

func TestWishlist_AddRollback(t *testing.T) {
	backend := newFakeBackend()
	backend.failOn("AddToWishlist", "not allowed")
	wishlist := NewWishlist(backend)

	require.Error(t, wishlist.Add(context.Background(), product("p1", 1200)))

	snap := wishlist.Snapshot()
	assert.Empty(t, snap.Items)
	assert.True(t, snap.Total.IsZero())
	assert.Equal(t, StatusFailed, snap.Status)
	assert.Equal(t, "not allowed", snap.Error)
}

func TestWishlist_RemoveRollback(t *testing.T) {
	backend := newFakeBackend()
	backend.addProduct("p1", "Banarasi", 4200)
	wishlist := NewWishlist(backend)
	ctx := context.Background()
	require.NoError(t, wishlist.Add(ctx, product("p1", 4200)))

	backend.failOn("RemoveFromWishlist", "boom")
	require.Error(t, wishlist.Remove(ctx, "p1"))

	item, ok := wishlist.Snapshot().Find("p1")
	require.True(t, ok)
	assert.True(t, item.Price.Equal(decimal.NewFromInt(4200)))
	assert.Equal(t, "Saree p1", item.Name)
}

func TestWishlist_RemoveMissing(t *testing.T) {
	backend := newFakeBackend()
	wishlist := NewWishlist(backend)

	assert.ErrorIs(t, wishlist.Remove(context.Background(), "nope"), ErrItemNotFound)
	assert.Equal(t, 0, backend.totalCalls())
	assert.Equal(t, StatusIdle, wishlist.Status())
}

func TestWishlist_Toggle(t *testing.T) {
	backend := newFakeBackend()
	wishlist := NewWishlist(backend)
	ctx := context.Background()

	require.NoError(t, wishlist.Toggle(ctx, product("p1", 100)))
	assert.True(t, wishlist.Contains("p1"))

	require.NoError(t, wishlist.Toggle(ctx, product("p1", 100)))
	assert.False(t, wishlist.Contains("p1"))
	assert.Equal(t, 0, wishlist.Len())
}

func TestWishlist_FetchSetsQuantityOne(t *testing.T) {
	backend := newFakeBackend()
	backend.wishlist = []apiclient.WishlistLine{
		{ProductID: "p1", Name: "Chanderi", Price: decimal.NewFromInt(900)},
		{ProductID: "p1", Name: "Chanderi", Price: decimal.NewFromInt(900)},
		{ProductID: "p2", Name: "Tussar", Price: decimal.NewFromInt(1100)},
	}
	wishlist := NewWishlist(backend)

	require.NoError(t, wishlist.Fetch(context.Background()))

	snap := wishlist.Snapshot()
	require.Len(t, snap.Items, 2, "duplicate product IDs collapse to one entry")
	for _, item := range snap.Items {
		assert.Equal(t, 1, item.Quantity)
	}
	assert.True(t, snap.Total.Equal(decimal.NewFromInt(2000)))
}
