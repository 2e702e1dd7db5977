package memory

import (
	"context"
	"sync"

	"github.com/piperxprotocol/piperxBackend/internal/domain"
	"github.com/piperxprotocol/piperxBackend/internal/storage"
)

// SwapStore is an in-memory implementation of storage.SwapStore.
type SwapStore struct {
	mu   sync.Mutex
	data map[string]*domain.Swap // keyed by swap id
}

// NewSwapStore creates a new in-memory swap store.
func NewSwapStore() *SwapStore {
	return &SwapStore{data: make(map[string]*domain.Swap)}
}

// Compile-time interface check.
var _ storage.SwapStore = (*SwapStore)(nil)

// InsertIgnore adds a swap keyed by its unique id; duplicates are discarded.
func (s *SwapStore) InsertIgnore(_ context.Context, sw *domain.Swap) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.data[sw.ID]; ok {
		return false, nil
	}

	copy := *sw
	s.data[sw.ID] = &copy
	return true, nil
}

// Len reports the number of stored swaps.
func (s *SwapStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.data)
}
