// Package metadata merges token identity from the relational store, the
// cached recent-records list, and the active snapshot.
package metadata

import (
	"context"
	"fmt"
	"log"

	"github.com/piperxprotocol/piperxBackend/internal/domain"
	"github.com/piperxprotocol/piperxBackend/internal/storage"
)

// Metadata is the merged per-token view served by the read API.
type Metadata struct {
	Name        *string
	Symbol      *string
	Decimals    *int
	CreatedAt   *int64
	Pool        *string
	Source      *string
	HolderCount *int64
}

// DecimalsOrDefault returns merged decimals, defaulting to 18.
func (m *Metadata) DecimalsOrDefault() int {
	if m.Decimals == nil {
		return domain.DefaultDecimals
	}
	return *m.Decimals
}

// Resolver folds token metadata from its three sources in precedence
// order: relational store rows, then cached recent records, then active
// snapshot entries. The first writer for a key wins per field, never a
// wholesale record replace.
type Resolver struct {
	tokens storage.TokenStore
	cache  storage.SnapshotCache
	logger *log.Logger
}

// NewResolver creates a Resolver.
func NewResolver(tokens storage.TokenStore, cache storage.SnapshotCache, logger *log.Logger) *Resolver {
	return &Resolver{tokens: tokens, cache: cache, logger: logger}
}

// Resolve builds a lowercase-keyed metadata map for the given token ids.
// Cache failures degrade to the sources that did load; only the
// relational query is fatal.
func (r *Resolver) Resolve(ctx context.Context, tokenIDs []string) (map[string]Metadata, error) {
	rows, err := r.tokens.GetByIDs(ctx, tokenIDs)
	if err != nil {
		return nil, fmt.Errorf("load token rows: %w", err)
	}

	records, err := r.cache.GetRecords(ctx)
	if err != nil {
		r.logger.Printf("read token records from cache: %v", err)
		records = nil
	}

	snap, err := r.cache.GetActive(ctx)
	if err != nil {
		r.logger.Printf("read active snapshot from cache: %v", err)
		snap = nil
	}

	return Merge(rows, records, snap), nil
}

// Merge folds the three sources without touching any store. Exported so
// read handlers that already hold the data can reuse the fold.
func Merge(rows []*domain.Token, records []domain.TokenRecord, snap *domain.ActiveSnapshot) map[string]Metadata {
	merged := make(map[string]Metadata)

	for _, t := range rows {
		fill(merged, t.ID, Metadata{
			Name:        t.Name,
			Symbol:      t.Symbol,
			Decimals:    t.Decimals,
			CreatedAt:   t.CreatedAt,
			Pool:        t.Pool,
			Source:      t.Source,
			HolderCount: t.HolderCount,
		})
	}

	for _, rec := range records {
		fill(merged, rec.ID, Metadata{
			Name:        rec.Name,
			Symbol:      rec.Symbol,
			Decimals:    rec.Decimals,
			CreatedAt:   rec.CreatedAt,
			Pool:        rec.Pool,
			Source:      rec.Source,
			HolderCount: rec.HolderCount,
		})
	}

	if snap != nil {
		for i := range snap.Tokens {
			t := &snap.Tokens[i]
			holders := t.HolderCount
			pool := t.ActivePool
			source := t.Source
			fill(merged, t.TokenID, Metadata{
				Name:        t.Name,
				Symbol:      t.Symbol,
				Decimals:    t.Decimals,
				CreatedAt:   t.CreatedAt,
				Pool:        &pool,
				Source:      &source,
				HolderCount: &holders,
			})
		}
	}

	return merged
}

// fill merges src into the entry for id, keeping every field already
// set by an earlier (higher-precedence) source.
func fill(merged map[string]Metadata, id string, src Metadata) {
	key := domain.NormalizeTokenID(id)
	if key == "" {
		return
	}

	dst := merged[key]
	if dst.Name == nil {
		dst.Name = src.Name
	}
	if dst.Symbol == nil {
		dst.Symbol = src.Symbol
	}
	if dst.Decimals == nil {
		dst.Decimals = src.Decimals
	}
	if dst.CreatedAt == nil {
		dst.CreatedAt = src.CreatedAt
	}
	if dst.Pool == nil {
		dst.Pool = src.Pool
	}
	if dst.Source == nil {
		dst.Source = src.Source
	}
	if dst.HolderCount == nil {
		dst.HolderCount = src.HolderCount
	}
	merged[key] = dst
}
