package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/piperxprotocol/piperxBackend/internal/domain"
	"github.com/piperxprotocol/piperxBackend/internal/storage"
)

// VolumeBucketStore is an in-memory implementation of storage.VolumeBucketStore.
type VolumeBucketStore struct {
	mu   sync.RWMutex
	data map[string]*domain.VolumeBucket // keyed by (token_id, pool, source, hour_bucket)
}

// NewVolumeBucketStore creates a new in-memory volume bucket store.
func NewVolumeBucketStore() *VolumeBucketStore {
	return &VolumeBucketStore{data: make(map[string]*domain.VolumeBucket)}
}

// Compile-time interface check.
var _ storage.VolumeBucketStore = (*VolumeBucketStore)(nil)

// volumeKey generates a unique key for a volume bucket.
func volumeKey(tokenID, pool, source string, hourBucket int64) string {
	return fmt.Sprintf("%s|%s|%s|%d", tokenID, pool, source, hourBucket)
}

// Accumulate increments the bucket, inserting it if absent. The whole
// operation runs under the lock, mirroring the store-side atomicity of
// the SQL additive upsert.
func (s *VolumeBucketStore) Accumulate(_ context.Context, b *domain.VolumeBucket) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := volumeKey(b.TokenID, b.Pool, b.Source, b.HourBucket)
	if existing, ok := s.data[key]; ok {
		existing.VolumeUSD += b.VolumeUSD
		existing.VolumeNative += b.VolumeNative
		return nil
	}

	copy := *b
	s.data[key] = &copy
	return nil
}

// GroupedWindow retrieves per-(token, pool, source) sums for buckets
// newer than sinceHour, ordered by total DESC. Equal totals sort by key
// so result order is deterministic, as a SQL store's would be.
func (s *VolumeBucketStore) GroupedWindow(_ context.Context, sinceHour int64) ([]*domain.VolumeGroup, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sums := make(map[string]*domain.VolumeGroup)
	for _, b := range s.data {
		if b.HourBucket <= sinceHour {
			continue
		}
		key := fmt.Sprintf("%s|%s|%s", b.TokenID, b.Pool, b.Source)
		g, ok := sums[key]
		if !ok {
			g = &domain.VolumeGroup{TokenID: b.TokenID, Pool: b.Pool, Source: b.Source}
			sums[key] = g
		}
		g.TotalVolume += b.VolumeUSD
	}

	result := make([]*domain.VolumeGroup, 0, len(sums))
	for _, g := range sums {
		result = append(result, g)
	}

	sort.Slice(result, func(i, j int) bool {
		if result[i].TotalVolume != result[j].TotalVolume {
			return result[i].TotalVolume > result[j].TotalVolume
		}
		if result[i].TokenID != result[j].TokenID {
			return result[i].TokenID < result[j].TokenID
		}
		if result[i].Pool != result[j].Pool {
			return result[i].Pool < result[j].Pool
		}
		return result[i].Source < result[j].Source
	})

	return result, nil
}

// SumWindow retrieves per-(token, hour) totals across venues for the
// trailing window, restricted to tokenIDs, ordered by hour_bucket ASC.
func (s *VolumeBucketStore) SumWindow(_ context.Context, nowHour int64, points int, tokenIDs []string) ([]*domain.VolumeSum, error) {
	if len(tokenIDs) == 0 {
		return nil, nil
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	filter := make(map[string]bool, len(tokenIDs))
	for _, id := range tokenIDs {
		filter[id] = true
	}

	sums := make(map[string]*domain.VolumeSum)
	for _, b := range s.data {
		if b.HourBucket > nowHour || b.HourBucket < nowHour-int64(points) {
			continue
		}
		if !filter[b.TokenID] {
			continue
		}
		key := fmt.Sprintf("%s|%d", b.TokenID, b.HourBucket)
		v, ok := sums[key]
		if !ok {
			v = &domain.VolumeSum{TokenID: b.TokenID, HourBucket: b.HourBucket}
			sums[key] = v
		}
		v.VolumeUSD += b.VolumeUSD
	}

	result := make([]*domain.VolumeSum, 0, len(sums))
	for _, v := range sums {
		result = append(result, v)
	}

	sort.Slice(result, func(i, j int) bool {
		if result[i].HourBucket != result[j].HourBucket {
			return result[i].HourBucket < result[j].HourBucket
		}
		return result[i].TokenID < result[j].TokenID
	})

	return result, nil
}
