package postgres

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/piperxprotocol/piperxBackend/internal/domain"
)

func TestVolumeBucketStore_AccumulateAdds(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	store := NewVolumeBucketStore(pool)

	b := &domain.VolumeBucket{
		TokenID: "0xa", Pool: "0xp", Source: "dex", HourBucket: 1000,
		VolumeUSD: 100, VolumeNative: 1,
	}
	require.NoError(t, store.Accumulate(ctx, b))

	b.VolumeUSD = 250
	b.VolumeNative = 2.5
	require.NoError(t, store.Accumulate(ctx, b))

	groups, err := store.GroupedWindow(ctx, 999)
	require.NoError(t, err)

	require.Len(t, groups, 1)
	assert.Equal(t, "0xa", groups[0].TokenID)
	assert.InDelta(t, 350, groups[0].TotalVolume, 0.0001)
}

func TestVolumeBucketStore_GroupedWindowOrdering(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	store := NewVolumeBucketStore(pool)

	require.NoError(t, store.Accumulate(ctx, &domain.VolumeBucket{
		TokenID: "0xa", Pool: "0xp1", Source: "dex", HourBucket: 1000, VolumeUSD: 100,
	}))
	require.NoError(t, store.Accumulate(ctx, &domain.VolumeBucket{
		TokenID: "0xb", Pool: "0xp2", Source: "dex", HourBucket: 1000, VolumeUSD: 900,
	}))
	// Outside the window.
	require.NoError(t, store.Accumulate(ctx, &domain.VolumeBucket{
		TokenID: "0xc", Pool: "0xp3", Source: "dex", HourBucket: 900, VolumeUSD: 5000,
	}))

	groups, err := store.GroupedWindow(ctx, 950)
	require.NoError(t, err)

	require.Len(t, groups, 2)
	assert.Equal(t, "0xb", groups[0].TokenID) // total DESC
	assert.Equal(t, "0xa", groups[1].TokenID)
}

func TestVolumeBucketStore_SumWindowCollapsesVenues(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	store := NewVolumeBucketStore(pool)

	require.NoError(t, store.Accumulate(ctx, &domain.VolumeBucket{
		TokenID: "0xa", Pool: "0xp1", Source: "dex", HourBucket: 1000, VolumeUSD: 100,
	}))
	require.NoError(t, store.Accumulate(ctx, &domain.VolumeBucket{
		TokenID: "0xa", Pool: "0xp2", Source: "other", HourBucket: 1000, VolumeUSD: 50,
	}))
	require.NoError(t, store.Accumulate(ctx, &domain.VolumeBucket{
		TokenID: "0xa", Pool: "0xp1", Source: "dex", HourBucket: 999, VolumeUSD: 30,
	}))
	require.NoError(t, store.Accumulate(ctx, &domain.VolumeBucket{
		TokenID: "0xb", Pool: "0xp1", Source: "dex", HourBucket: 1000, VolumeUSD: 7,
	}))

	sums, err := store.SumWindow(ctx, 1000, 48, []string{"0xa"})
	require.NoError(t, err)

	require.Len(t, sums, 2)
	// hour_bucket ASC.
	assert.Equal(t, int64(999), sums[0].HourBucket)
	assert.InDelta(t, 30, sums[0].VolumeUSD, 0.0001)
	assert.Equal(t, int64(1000), sums[1].HourBucket)
	assert.InDelta(t, 150, sums[1].VolumeUSD, 0.0001)
}
