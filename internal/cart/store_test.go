package cart

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/nbenhadid/foodcart/internal/catalog"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	m := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: m.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return NewStore(rdb, d("2.00"), time.Hour)
}

func TestStoreAddItemPersists(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	p1 := dish("p1", "r1", "10")

	_, err := store.AddItem(ctx, "u1", p1, nil, 2)
	require.NoError(t, err)

	// fresh read, not the returned pointer
	c, err := store.Get(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, c.Groups, 1)
	assert.Equal(t, 2, c.Groups[0].Lines[0].Quantity)
	assert.True(t, c.Groups[0].Lines[0].UnitPrice.Equal(d("10")))
}

func TestStoreAddItemAppliesActivePromotion(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	p1 := dish("p1", "r1", "100")
	promo := &catalog.Promotion{
		PlatID:     "p1",
		Percentage: 20,
		Start:      time.Now().Add(-time.Hour),
		End:        time.Now().Add(time.Hour),
	}

	c, err := store.AddItem(ctx, "u1", p1, promo, 1)
	require.NoError(t, err)
	assert.True(t, c.Groups[0].Lines[0].UnitPrice.Equal(d("80")))
}

func TestStoreAddItemIgnoresExpiredPromotion(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	p1 := dish("p1", "r1", "100")
	promo := &catalog.Promotion{
		PlatID:     "p1",
		Percentage: 20,
		Start:      time.Now().Add(-3 * time.Hour),
		End:        time.Now().Add(-time.Hour),
	}

	c, err := store.AddItem(ctx, "u1", p1, promo, 1)
	require.NoError(t, err)
	assert.True(t, c.Groups[0].Lines[0].UnitPrice.Equal(d("100")))
}

func TestStoreStoredPriceNeverRepriced(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	p1 := dish("p1", "r1", "100")
	promo := &catalog.Promotion{
		PlatID:     "p1",
		Percentage: 20,
		Start:      time.Now().Add(-time.Hour),
		End:        time.Now().Add(time.Hour),
	}

	_, err := store.AddItem(ctx, "u1", p1, promo, 1)
	require.NoError(t, err)

	// quantity changes must not touch the captured unit price
	c, err := store.UpdateQuantity(ctx, "u1", "r1", "p1", 4)
	require.NoError(t, err)
	assert.True(t, c.Groups[0].Lines[0].UnitPrice.Equal(d("80")))
	total, err := store.RestaurantTotal(ctx, "u1", "r1")
	require.NoError(t, err)
	assert.True(t, total.Equal(d("320")))
}

func TestStoreGrandTotalIncludesFee(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	p1 := dish("p1", "r1", "10")

	_, err := store.AddItem(ctx, "u1", p1, nil, 2)
	require.NoError(t, err)

	grand, err := store.GrandTotal(ctx, "u1", "r1")
	require.NoError(t, err)
	assert.True(t, grand.Equal(d("22.00")))

	// unknown restaurant still returns the fee on top of a zero subtotal
	grand, err = store.GrandTotal(ctx, "u1", "unknown")
	require.NoError(t, err)
	assert.True(t, grand.Equal(d("2.00")))
}

func TestStoreEmptyCartDeletesKey(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	p1 := dish("p1", "r1", "10")

	_, err := store.AddItem(ctx, "u1", p1, nil, 1)
	require.NoError(t, err)
	_, err = store.RemoveItem(ctx, "u1", "r1", "p1")
	require.NoError(t, err)

	c, err := store.Get(ctx, "u1")
	require.NoError(t, err)
	assert.True(t, c.IsEmpty())

	n, err := store.TotalItemCount(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, 0, n)
}

func TestStoreClearRestaurantLeavesOthers(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	p1 := dish("p1", "r1", "10")
	p2 := dish("p2", "r2", "15")

	_, err := store.AddItem(ctx, "u1", p1, nil, 1)
	require.NoError(t, err)
	_, err = store.AddItem(ctx, "u1", p2, nil, 3)
	require.NoError(t, err)

	_, err = store.ClearRestaurant(ctx, "u1", "r1")
	require.NoError(t, err)

	c, err := store.Get(ctx, "u1")
	require.NoError(t, err)
	assert.Nil(t, c.Group("r1"))
	require.NotNil(t, c.Group("r2"))
	assert.Equal(t, 3, c.TotalItemCount())
}

func TestStoreClearDropsEverything(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	_, err := store.AddItem(ctx, "u1", dish("p1", "r1", "10"), nil, 1)
	require.NoError(t, err)
	_, err = store.AddItem(ctx, "u1", dish("p2", "r2", "15"), nil, 1)
	require.NoError(t, err)

	require.NoError(t, store.Clear(ctx, "u1"))

	c, err := store.Get(ctx, "u1")
	require.NoError(t, err)
	assert.True(t, c.IsEmpty())
}

func TestStoreUsersAreIsolated(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	_, err := store.AddItem(ctx, "u1", dish("p1", "r1", "10"), nil, 1)
	require.NoError(t, err)

	c, err := store.Get(ctx, "u2")
	require.NoError(t, err)
	assert.True(t, c.IsEmpty())

	total, err := store.RestaurantTotal(ctx, "u2", "r1")
	require.NoError(t, err)
	assert.True(t, total.Equal(decimal.Zero))
}
