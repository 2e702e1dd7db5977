package storage

import (
	"context"

	"github.com/piperxprotocol/piperxBackend/internal/domain"
)

// TokenStore provides access to tokens storage.
type TokenStore interface {
	// Upsert inserts a token or replaces its identity fields on conflict.
	Upsert(ctx context.Context, t *domain.Token) error

	// UpdateHolderCount sets holder_count for an existing token.
	// Unknown ids are a no-op, not an error.
	UpdateHolderCount(ctx context.Context, tokenID string, count int64) error

	// GetByIDs retrieves tokens for the given id set. Missing ids are
	// simply absent from the result. Callers batch large id sets to
	// respect query-parameter limits.
	GetByIDs(ctx context.Context, ids []string) ([]*domain.Token, error)

	// GetCreatedSince retrieves tokens with created_at >= since (unix seconds).
	GetCreatedSince(ctx context.Context, since int64) ([]*domain.Token, error)
}

// PriceBucketStore provides access to per-token-per-hour price rows.
type PriceBucketStore interface {
	// Upsert writes a price observation into its (token_id, hour_bucket)
	// row. An existing row is replaced unconditionally: last delivery
	// wins, with no ordering check against the observed timestamp.
	Upsert(ctx context.Context, b *domain.PriceBucket) error

	// GetWindow retrieves rows with hour_bucket <= nowHour and
	// hour_bucket > nowHour - points, ordered by hour_bucket ASC.
	// A non-empty tokenIDs set restricts the result.
	GetWindow(ctx context.Context, nowHour int64, points int, tokenIDs []string) ([]*domain.PriceBucket, error)
}

// VolumeBucketStore provides access to additive volume accumulators.
type VolumeBucketStore interface {
	// Accumulate increments the (token_id, pool, source, hour_bucket)
	// bucket by the given usd/native amounts, inserting it if absent.
	// The increment must be atomic at the store; callers never
	// read-modify-write.
	Accumulate(ctx context.Context, b *domain.VolumeBucket) error

	// GroupedWindow retrieves per-(token, pool, source) volume sums for
	// buckets with hour_bucket > sinceHour, ordered by total DESC.
	GroupedWindow(ctx context.Context, sinceHour int64) ([]*domain.VolumeGroup, error)

	// SumWindow retrieves per-(token, hour) volume totals across venues
	// for hour_bucket <= nowHour and hour_bucket >= nowHour - points,
	// restricted to tokenIDs, ordered by hour_bucket ASC.
	SumWindow(ctx context.Context, nowHour int64, points int, tokenIDs []string) ([]*domain.VolumeSum, error)
}

// SwapStore provides access to raw swap rows.
type SwapStore interface {
	// InsertIgnore adds a swap keyed by its unique id. A duplicate id is
	// discarded, not an error; inserted reports whether the row is new.
	InsertIgnore(ctx context.Context, s *domain.Swap) (inserted bool, err error)
}

// SnapshotCache provides access to the TTL-bound key-value cache.
// A missing key reads as nil with no error; malformed stored JSON is
// treated the same way.
type SnapshotCache interface {
	// GetActive reads the tokens:active snapshot. Nil means stale/absent.
	GetActive(ctx context.Context) (*domain.ActiveSnapshot, error)

	// SetActive replaces the tokens:active snapshot with a 3600s TTL.
	SetActive(ctx context.Context, snap *domain.ActiveSnapshot) error

	// GetRecords reads the tokens:records recent-launch list.
	GetRecords(ctx context.Context) ([]domain.TokenRecord, error)

	// SetRecords replaces the tokens:records list with a 172800s TTL.
	SetRecords(ctx context.Context, records []domain.TokenRecord) error

	// GetToken reads a per-token metadata record (token:<id> key).
	GetToken(ctx context.Context, id string) (*domain.TokenRecord, error)

	// SetToken writes a per-token metadata record with a 172800s TTL.
	SetToken(ctx context.Context, rec *domain.TokenRecord) error
}
