package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/piperxprotocol/piperxBackend/internal/domain"
	"github.com/piperxprotocol/piperxBackend/internal/storage"
)

// PriceBucketStore is an in-memory implementation of storage.PriceBucketStore.
type PriceBucketStore struct {
	mu   sync.RWMutex
	data map[string]*domain.PriceBucket // keyed by (token_id, hour_bucket)
}

// NewPriceBucketStore creates a new in-memory price bucket store.
func NewPriceBucketStore() *PriceBucketStore {
	return &PriceBucketStore{data: make(map[string]*domain.PriceBucket)}
}

// Compile-time interface check.
var _ storage.PriceBucketStore = (*PriceBucketStore)(nil)

// priceKey generates a unique key for a price bucket.
func priceKey(tokenID string, hourBucket int64) string {
	return fmt.Sprintf("%s|%d", tokenID, hourBucket)
}

// Upsert writes a price observation; last delivery wins unconditionally.
func (s *PriceBucketStore) Upsert(_ context.Context, b *domain.PriceBucket) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	copy := *b
	s.data[priceKey(b.TokenID, b.HourBucket)] = &copy
	return nil
}

// GetWindow retrieves rows within the trailing window, ordered by
// hour_bucket ASC.
func (s *PriceBucketStore) GetWindow(_ context.Context, nowHour int64, points int, tokenIDs []string) ([]*domain.PriceBucket, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var filter map[string]bool
	if len(tokenIDs) > 0 {
		filter = make(map[string]bool, len(tokenIDs))
		for _, id := range tokenIDs {
			filter[id] = true
		}
	}

	var result []*domain.PriceBucket
	for _, b := range s.data {
		if b.HourBucket > nowHour || b.HourBucket <= nowHour-int64(points) {
			continue
		}
		if filter != nil && !filter[b.TokenID] {
			continue
		}
		copy := *b
		result = append(result, &copy)
	}

	sort.Slice(result, func(i, j int) bool {
		if result[i].HourBucket != result[j].HourBucket {
			return result[i].HourBucket < result[j].HourBucket
		}
		return result[i].TokenID < result[j].TokenID
	})

	return result, nil
}
