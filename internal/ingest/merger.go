package ingest

import (
	"context"
	"log"
	"time"

	"github.com/piperxprotocol/piperxBackend/internal/domain"
	"github.com/piperxprotocol/piperxBackend/internal/storage"
)

// Merger folds incoming webhook observations into bucketed storage.
// Batch operations never abort on a per-record failure: the record is
// logged and skipped, and the returned count is records attempted.
type Merger struct {
	tokens  storage.TokenStore
	prices  storage.PriceBucketStore
	volumes storage.VolumeBucketStore
	swaps   storage.SwapStore
	cache   storage.SnapshotCache
	logger  *log.Logger
	now     func() time.Time
}

// NewMerger creates a Merger over the given stores.
func NewMerger(
	tokens storage.TokenStore,
	prices storage.PriceBucketStore,
	volumes storage.VolumeBucketStore,
	swaps storage.SwapStore,
	cache storage.SnapshotCache,
	logger *log.Logger,
) *Merger {
	return &Merger{
		tokens:  tokens,
		prices:  prices,
		volumes: volumes,
		swaps:   swaps,
		cache:   cache,
		logger:  logger,
		now:     time.Now,
	}
}

// MergePriceBatch upserts each observation into its (token, hour) bucket.
// Last delivery wins for a bucket, with no ordering check against the
// observed timestamp.
func (m *Merger) MergePriceBatch(ctx context.Context, records []PriceRecord) int {
	for _, rec := range records {
		ts := int64(rec.Timestamp)
		bucket := &domain.PriceBucket{
			TokenID:    rec.TokenID,
			HourBucket: domain.HourBucket(ts),
			ObservedAt: ts,
			PriceUSD:   rec.PriceUSD,
		}
		if err := m.prices.Upsert(ctx, bucket); err != nil {
			m.logger.Printf("price upsert failed for %s: %v", rec.TokenID, err)
		}
	}
	return len(records)
}

// MergeSwapBatch inserts each raw swap idempotently, then accumulates
// its usd/native amounts into the volume buckets of both token legs.
// A duplicate swap id is discarded before any accumulation, so repeat
// deliveries never double-count.
func (m *Merger) MergeSwapBatch(ctx context.Context, records []SwapRecord) int {
	for _, rec := range records {
		swap := rec.Swap()

		inserted, err := m.swaps.InsertIgnore(ctx, swap)
		if err != nil {
			m.logger.Printf("swap insert failed for %s: %v", swap.ID, err)
			continue
		}
		if !inserted {
			continue
		}

		hourBucket := domain.HourBucket(swap.Timestamp)
		for _, tokenID := range []string{swap.Token0, swap.Token1} {
			bucket := &domain.VolumeBucket{
				TokenID:      tokenID,
				Pool:         swap.Pair,
				Source:       swap.Source,
				HourBucket:   hourBucket,
				VolumeUSD:    swap.AmountUSD,
				VolumeNative: swap.AmountNative,
			}
			if err := m.volumes.Accumulate(ctx, bucket); err != nil {
				m.logger.Printf("volume accumulate failed for %s (swap %s): %v", tokenID, swap.ID, err)
			}
		}
	}
	return len(records)
}

// MergeTokenBatch upserts token identities into the relational store and
// moves each to the front of the cached recent-records list. Records
// missing an id or symbol are skipped.
func (m *Merger) MergeTokenBatch(ctx context.Context, records []TokenRecord) int {
	cached, err := m.cache.GetRecords(ctx)
	if err != nil {
		m.logger.Printf("read token records from cache: %v", err)
		cached = nil
	}

	for _, rec := range records {
		if rec.ID == "" || rec.Symbol == nil || *rec.Symbol == "" {
			m.logger.Printf("skip invalid token record: id=%q", rec.ID)
			continue
		}

		token := &domain.Token{
			ID:        rec.ID,
			Name:      rec.Name,
			Symbol:    rec.Symbol,
			Decimals:  rec.Decimals,
			CreatedAt: rec.CreatedAt,
			Pool:      rec.Pool,
			Source:    rec.Source,
		}
		if err := m.tokens.Upsert(ctx, token); err != nil {
			m.logger.Printf("token upsert failed for %s: %v", rec.ID, err)
			continue
		}

		cached = moveToFront(cached, m.cacheRecord(rec))
	}

	if err := m.cache.SetRecords(ctx, cached); err != nil {
		m.logger.Printf("write token records to cache: %v", err)
	}

	return len(records)
}

// cacheRecord builds the cache-resident form of a token record, filling
// the defaults the read side otherwise assumes.
func (m *Merger) cacheRecord(rec TokenRecord) domain.TokenRecord {
	out := domain.TokenRecord{
		ID:        domain.NormalizeTokenID(rec.ID),
		Name:      rec.Name,
		Symbol:    rec.Symbol,
		Decimals:  rec.Decimals,
		CreatedAt: rec.CreatedAt,
		Pool:      rec.Pool,
		Source:    rec.Source,
	}
	if out.Decimals == nil {
		d := domain.DefaultDecimals
		out.Decimals = &d
	}
	if out.CreatedAt == nil {
		ts := m.now().Unix()
		out.CreatedAt = &ts
	}
	return out
}

// moveToFront replaces any existing entry with the same id and places
// the record at the head of the list, newest launch first.
func moveToFront(records []domain.TokenRecord, rec domain.TokenRecord) []domain.TokenRecord {
	out := make([]domain.TokenRecord, 0, len(records)+1)
	out = append(out, rec)
	for _, r := range records {
		if r.ID != rec.ID {
			out = append(out, r)
		}
	}
	return out
}

// MergeHolderBatch updates holder counts. Records without an id are
// skipped; unknown ids are a silent no-op.
func (m *Merger) MergeHolderBatch(ctx context.Context, records []HolderRecord) int {
	for _, rec := range records {
		if rec.ID == "" {
			continue
		}
		if err := m.tokens.UpdateHolderCount(ctx, domain.NormalizeTokenID(rec.ID), rec.HolderCount); err != nil {
			m.logger.Printf("holder count update failed for %s: %v", rec.ID, err)
		}
	}
	return len(records)
}
