package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/piperxprotocol/piperxBackend/internal/domain"
	"github.com/piperxprotocol/piperxBackend/internal/storage"
)

// SnapshotCache is an in-memory implementation of storage.SnapshotCache
// with per-key expiry, used as a test fake and for --use-memory mode.
type SnapshotCache struct {
	mu      sync.RWMutex
	entries map[string]cacheEntry
	now     func() time.Time
}

type cacheEntry struct {
	value     []byte
	expiresAt time.Time
}

// NewSnapshotCache creates a new in-memory snapshot cache.
func NewSnapshotCache() *SnapshotCache {
	return &SnapshotCache{
		entries: make(map[string]cacheEntry),
		now:     time.Now,
	}
}

// Compile-time interface check.
var _ storage.SnapshotCache = (*SnapshotCache)(nil)

// SetClock overrides the cache clock, for expiry tests.
func (c *SnapshotCache) SetClock(now func() time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = now
}

func (c *SnapshotCache) get(key string) []byte {
	c.mu.RLock()
	defer c.mu.RUnlock()

	e, ok := c.entries[key]
	if !ok || c.now().After(e.expiresAt) {
		return nil
	}
	return e.value
}

func (c *SnapshotCache) set(key string, value []byte, ttl time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = cacheEntry{value: value, expiresAt: c.now().Add(ttl)}
}

// GetActive reads the tokens:active snapshot. Nil means stale/absent.
func (c *SnapshotCache) GetActive(_ context.Context) (*domain.ActiveSnapshot, error) {
	data := c.get(storage.KeyActiveTokens)
	if data == nil {
		return nil, nil
	}

	var snap domain.ActiveSnapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, nil
	}
	return &snap, nil
}

// SetActive replaces the tokens:active snapshot with a 3600s TTL.
func (c *SnapshotCache) SetActive(_ context.Context, snap *domain.ActiveSnapshot) error {
	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("marshal active snapshot: %w", err)
	}
	c.set(storage.KeyActiveTokens, data, storage.ActiveTTL)
	return nil
}

// GetRecords reads the tokens:records recent-launch list.
func (c *SnapshotCache) GetRecords(_ context.Context) ([]domain.TokenRecord, error) {
	data := c.get(storage.KeyTokenRecords)
	if data == nil {
		return nil, nil
	}

	var records []domain.TokenRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, nil
	}
	return records, nil
}

// SetRecords replaces the tokens:records list with a 172800s TTL.
func (c *SnapshotCache) SetRecords(_ context.Context, records []domain.TokenRecord) error {
	data, err := json.Marshal(records)
	if err != nil {
		return fmt.Errorf("marshal token records: %w", err)
	}
	c.set(storage.KeyTokenRecords, data, storage.RecordsTTL)
	return nil
}

// GetToken reads a per-token metadata record.
func (c *SnapshotCache) GetToken(_ context.Context, id string) (*domain.TokenRecord, error) {
	data := c.get(storage.KeyTokenPrefix + domain.NormalizeTokenID(id))
	if data == nil {
		return nil, nil
	}

	var rec domain.TokenRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, nil
	}
	return &rec, nil
}

// SetToken writes a per-token metadata record with a 172800s TTL.
func (c *SnapshotCache) SetToken(_ context.Context, rec *domain.TokenRecord) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal token record: %w", err)
	}
	c.set(storage.KeyTokenPrefix+domain.NormalizeTokenID(rec.ID), data, storage.RecordsTTL)
	return nil
}

// Put stores a raw payload under an arbitrary key, for malformed-JSON tests.
func (c *SnapshotCache) Put(key string, value []byte, ttl time.Duration) {
	c.set(key, value, ttl)
}
