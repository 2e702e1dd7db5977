package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"

	"github.com/redis/go-redis/v9"

	"github.com/piperxprotocol/piperxBackend/internal/domain"
	"github.com/piperxprotocol/piperxBackend/internal/storage"
)

// SnapshotCache implements storage.SnapshotCache using Redis.
// Values are JSON; a missing key or malformed payload reads as empty.
type SnapshotCache struct {
	client *redis.Client
	logger *log.Logger
}

// NewSnapshotCache creates a new Redis-backed snapshot cache.
func NewSnapshotCache(client *redis.Client, logger *log.Logger) *SnapshotCache {
	return &SnapshotCache{client: client, logger: logger}
}

// NewClient creates a Redis client for the given address.
func NewClient(addr, password string, db int) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
}

// Compile-time interface check.
var _ storage.SnapshotCache = (*SnapshotCache)(nil)

// GetActive reads the tokens:active snapshot. Nil means stale/absent.
func (c *SnapshotCache) GetActive(ctx context.Context) (*domain.ActiveSnapshot, error) {
	data, err := c.client.Get(ctx, storage.KeyActiveTokens).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("get %s: %w", storage.KeyActiveTokens, err)
	}

	var snap domain.ActiveSnapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		c.logger.Printf("malformed %s payload, treating as empty: %v", storage.KeyActiveTokens, err)
		return nil, nil
	}
	return &snap, nil
}

// SetActive replaces the tokens:active snapshot with a 3600s TTL.
func (c *SnapshotCache) SetActive(ctx context.Context, snap *domain.ActiveSnapshot) error {
	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("marshal active snapshot: %w", err)
	}

	if err := c.client.Set(ctx, storage.KeyActiveTokens, data, storage.ActiveTTL).Err(); err != nil {
		return fmt.Errorf("set %s: %w", storage.KeyActiveTokens, err)
	}
	return nil
}

// GetRecords reads the tokens:records recent-launch list.
func (c *SnapshotCache) GetRecords(ctx context.Context) ([]domain.TokenRecord, error) {
	data, err := c.client.Get(ctx, storage.KeyTokenRecords).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("get %s: %w", storage.KeyTokenRecords, err)
	}

	var records []domain.TokenRecord
	if err := json.Unmarshal(data, &records); err != nil {
		c.logger.Printf("malformed %s payload, treating as empty: %v", storage.KeyTokenRecords, err)
		return nil, nil
	}
	return records, nil
}

// SetRecords replaces the tokens:records list with a 172800s TTL.
func (c *SnapshotCache) SetRecords(ctx context.Context, records []domain.TokenRecord) error {
	data, err := json.Marshal(records)
	if err != nil {
		return fmt.Errorf("marshal token records: %w", err)
	}

	if err := c.client.Set(ctx, storage.KeyTokenRecords, data, storage.RecordsTTL).Err(); err != nil {
		return fmt.Errorf("set %s: %w", storage.KeyTokenRecords, err)
	}
	return nil
}

// GetToken reads a per-token metadata record.
func (c *SnapshotCache) GetToken(ctx context.Context, id string) (*domain.TokenRecord, error) {
	key := storage.KeyTokenPrefix + domain.NormalizeTokenID(id)

	data, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("get %s: %w", key, err)
	}

	var rec domain.TokenRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		c.logger.Printf("malformed %s payload, treating as empty: %v", key, err)
		return nil, nil
	}
	return &rec, nil
}

// SetToken writes a per-token metadata record with a 172800s TTL.
func (c *SnapshotCache) SetToken(ctx context.Context, rec *domain.TokenRecord) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal token record: %w", err)
	}

	key := storage.KeyTokenPrefix + domain.NormalizeTokenID(rec.ID)
	if err := c.client.Set(ctx, key, data, storage.RecordsTTL).Err(); err != nil {
		return fmt.Errorf("set %s: %w", key, err)
	}
	return nil
}
