package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/piperxprotocol/piperxBackend/internal/domain"
	"github.com/piperxprotocol/piperxBackend/internal/storage"
)

// TokenStore is an in-memory implementation of storage.TokenStore.
type TokenStore struct {
	mu   sync.RWMutex
	data map[string]*domain.Token // keyed by lowercase id
}

// NewTokenStore creates a new in-memory token store.
func NewTokenStore() *TokenStore {
	return &TokenStore{data: make(map[string]*domain.Token)}
}

// Compile-time interface check.
var _ storage.TokenStore = (*TokenStore)(nil)

// Upsert inserts a token or replaces its identity fields on conflict.
func (s *TokenStore) Upsert(_ context.Context, t *domain.Token) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := domain.NormalizeTokenID(t.ID)
	copy := *t
	copy.ID = id

	// Identity replace keeps the holder count, matching the SQL upsert
	// which does not list holder_count in its SET clause.
	if existing, ok := s.data[id]; ok {
		copy.HolderCount = existing.HolderCount
	}
	s.data[id] = &copy
	return nil
}

// UpdateHolderCount sets holder_count for an existing token.
func (s *TokenStore) UpdateHolderCount(_ context.Context, tokenID string, count int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if t, ok := s.data[domain.NormalizeTokenID(tokenID)]; ok {
		t.HolderCount = &count
	}
	return nil
}

// GetByIDs retrieves tokens for the given id set.
func (s *TokenStore) GetByIDs(_ context.Context, ids []string) ([]*domain.Token, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.Token
	for _, id := range ids {
		if t, ok := s.data[domain.NormalizeTokenID(id)]; ok {
			copy := *t
			result = append(result, &copy)
		}
	}
	return result, nil
}

// GetCreatedSince retrieves tokens with created_at >= since.
func (s *TokenStore) GetCreatedSince(_ context.Context, since int64) ([]*domain.Token, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.Token
	for _, t := range s.data {
		if t.CreatedAt != nil && *t.CreatedAt >= since {
			copy := *t
			result = append(result, &copy)
		}
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].ID < result[j].ID
	})

	return result, nil
}
