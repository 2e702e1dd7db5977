package postgres

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/piperxprotocol/piperxBackend/internal/domain"
)

func TestPriceBucketStore_UpsertLastWriteWins(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	store := NewPriceBucketStore(pool)

	err := store.Upsert(ctx, &domain.PriceBucket{
		TokenID: "0xa", HourBucket: 1000, ObservedAt: 3600000, PriceUSD: 100,
	})
	require.NoError(t, err)

	// Same bucket, earlier observation: still replaces.
	err = store.Upsert(ctx, &domain.PriceBucket{
		TokenID: "0xa", HourBucket: 1000, ObservedAt: 3599000, PriceUSD: 50,
	})
	require.NoError(t, err)

	rows, err := store.GetWindow(ctx, 1000, 1, []string{"0xa"})
	require.NoError(t, err)

	require.Len(t, rows, 1)
	assert.Equal(t, float64(50), rows[0].PriceUSD)
	assert.Equal(t, int64(3599000), rows[0].ObservedAt)
}

func TestPriceBucketStore_GetWindowBounds(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	store := NewPriceBucketStore(pool)

	for _, hb := range []int64{1000, 999, 998, 997} {
		err := store.Upsert(ctx, &domain.PriceBucket{
			TokenID: "0xa", HourBucket: hb, ObservedAt: hb * 3600, PriceUSD: float64(hb),
		})
		require.NoError(t, err)
	}

	// Window (997, 1000]: 997 excluded.
	rows, err := store.GetWindow(ctx, 1000, 3, []string{"0xa"})
	require.NoError(t, err)

	require.Len(t, rows, 3)
	assert.Equal(t, int64(998), rows[0].HourBucket)
	assert.Equal(t, int64(1000), rows[2].HourBucket)
}

func TestPriceBucketStore_GetWindowTokenFilter(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	store := NewPriceBucketStore(pool)

	require.NoError(t, store.Upsert(ctx, &domain.PriceBucket{TokenID: "0xa", HourBucket: 1000, PriceUSD: 1}))
	require.NoError(t, store.Upsert(ctx, &domain.PriceBucket{TokenID: "0xb", HourBucket: 1000, PriceUSD: 2}))

	rows, err := store.GetWindow(ctx, 1000, 48, []string{"0xb"})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "0xb", rows[0].TokenID)

	// Empty filter returns every token in the window.
	rows, err = store.GetWindow(ctx, 1000, 48, nil)
	require.NoError(t, err)
	assert.Len(t, rows, 2)
}
