package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jcmexdev/lvs-storefront/internal/pkg/cache"
	"github.com/jcmexdev/lvs-storefront/internal/storefront/domain"
)

func newCache(t *testing.T) (cache.Cache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return cache.NewRedisCache(client, "storefront"), mr
}

func TestCartStore_RoundTripAndExpiry(t *testing.T) {
	ctx := context.Background()
	c, mr := newCache(t)
	store := NewCartStore(c, time.Hour)

	lines, err := store.LoadCart(ctx, "s1")
	require.NoError(t, err)
	assert.Empty(t, lines)

	saved := []domain.CartLine{{
		ProductID:         "7",
		Name:              "Mug",
		Quantity:          2,
		UnitPrice:         decimal.RequireFromString("5.5"),
		ListPriceSnapshot: decimal.NewFromInt(10),
	}}
	require.NoError(t, store.SaveCart(ctx, "s1", saved))
	assert.True(t, mr.Exists("storefront:cart:s1"))

	lines, err = store.LoadCart(ctx, "s1")
	require.NoError(t, err)
	require.Len(t, lines, 1)
	assert.Equal(t, domain.ID("7"), lines[0].ProductID)
	assert.Equal(t, 2, lines[0].Quantity)
	assert.True(t, decimal.RequireFromString("5.5").Equal(lines[0].UnitPrice))

	mr.FastForward(2 * time.Hour)
	lines, err = store.LoadCart(ctx, "s1")
	require.NoError(t, err)
	assert.Empty(t, lines)
}

func TestCartStore_Delete(t *testing.T) {
	ctx := context.Background()
	c, mr := newCache(t)
	store := NewCartStore(c, 0)

	require.NoError(t, store.SaveCart(ctx, "s1", []domain.CartLine{{ProductID: "1", Quantity: 1}}))
	require.NoError(t, store.DeleteCart(ctx, "s1"))
	assert.False(t, mr.Exists("storefront:cart:s1"))
}

func TestCartStore_CorruptPayload(t *testing.T) {
	ctx := context.Background()
	c, mr := newCache(t)
	require.NoError(t, mr.Set("storefront:cart:s1", "not json"))

	_, err := NewCartStore(c, 0).LoadCart(ctx, "s1")
	assert.Error(t, err)
}

func TestGuestMemory(t *testing.T) {
	ctx := context.Background()
	c, _ := newCache(t)
	guests := NewGuestMemory(c, time.Hour)

	require.NoError(t, guests.Remember(ctx, "s1", "ORD-100001", ""))
	require.NoError(t, guests.Remember(ctx, "s1", "ORD-100002", " Guest@Example.com "))
	require.NoError(t, guests.Remember(ctx, "s1", "ORD-100002", ""))

	id, err := guests.Recall(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, "guest@example.com", id.Email)
	assert.Equal(t, []domain.ID{"ORD-100001", "ORD-100002"}, id.OrderIDs)

	require.NoError(t, guests.Forget(ctx, "s1", "ORD-100001"))
	id, err = guests.Recall(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, []domain.ID{"ORD-100002"}, id.OrderIDs)

	other, err := guests.Recall(ctx, "s2")
	require.NoError(t, err)
	assert.Empty(t, other.OrderIDs)
}
