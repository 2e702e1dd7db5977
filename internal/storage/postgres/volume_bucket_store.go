package postgres

import (
	"context"
	"fmt"

	"github.com/piperxprotocol/piperxBackend/internal/domain"
	"github.com/piperxprotocol/piperxBackend/internal/storage"
)

// VolumeBucketStore implements storage.VolumeBucketStore using PostgreSQL.
type VolumeBucketStore struct {
	pool *Pool
}

// NewVolumeBucketStore creates a new VolumeBucketStore.
func NewVolumeBucketStore(pool *Pool) *VolumeBucketStore {
	return &VolumeBucketStore{pool: pool}
}

// Compile-time interface check.
var _ storage.VolumeBucketStore = (*VolumeBucketStore)(nil)

// Accumulate increments the (token_id, pool, source, hour_bucket) bucket.
// The increment happens inside the upsert so it is atomic at the store.
func (s *VolumeBucketStore) Accumulate(ctx context.Context, b *domain.VolumeBucket) error {
	query := `
		INSERT INTO volume (token_id, pool, source, hour_bucket, volume_usd, volume_native)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (token_id, pool, source, hour_bucket)
		DO UPDATE SET
			volume_usd = volume.volume_usd + excluded.volume_usd,
			volume_native = volume.volume_native + excluded.volume_native
	`

	_, err := s.pool.Exec(ctx, query,
		b.TokenID,
		b.Pool,
		b.Source,
		b.HourBucket,
		b.VolumeUSD,
		b.VolumeNative,
	)
	if err != nil {
		return fmt.Errorf("accumulate volume bucket: %w", err)
	}
	return nil
}

// GroupedWindow retrieves per-(token, pool, source) sums for buckets
// newer than sinceHour, ordered by total DESC. The ordering is part of
// the contract: the ranking fold's tie-break follows result order.
func (s *VolumeBucketStore) GroupedWindow(ctx context.Context, sinceHour int64) ([]*domain.VolumeGroup, error) {
	query := `
		SELECT token_id, pool, source, SUM(volume_usd) AS total_volume
		FROM volume
		WHERE hour_bucket > $1
		GROUP BY token_id, pool, source
		ORDER BY total_volume DESC
	`

	rows, err := s.pool.Query(ctx, query, sinceHour)
	if err != nil {
		return nil, fmt.Errorf("get grouped volume window: %w", err)
	}
	defer rows.Close()

	var groups []*domain.VolumeGroup
	for rows.Next() {
		var g domain.VolumeGroup
		if err := rows.Scan(&g.TokenID, &g.Pool, &g.Source, &g.TotalVolume); err != nil {
			return nil, fmt.Errorf("scan volume group row: %w", err)
		}
		groups = append(groups, &g)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate volume group rows: %w", err)
	}

	return groups, nil
}

// SumWindow retrieves per-(token, hour) totals across venues for the
// trailing window, restricted to tokenIDs, ordered by hour_bucket ASC.
func (s *VolumeBucketStore) SumWindow(ctx context.Context, nowHour int64, points int, tokenIDs []string) ([]*domain.VolumeSum, error) {
	if len(tokenIDs) == 0 {
		return nil, nil
	}

	query := `
		SELECT token_id, hour_bucket, SUM(volume_usd) AS volume_usd
		FROM volume
		WHERE hour_bucket <= $1 AND hour_bucket >= $1 - $2 AND token_id = ANY($3)
		GROUP BY token_id, hour_bucket
		ORDER BY hour_bucket ASC
	`

	rows, err := s.pool.Query(ctx, query, nowHour, points, tokenIDs)
	if err != nil {
		return nil, fmt.Errorf("get volume sum window: %w", err)
	}
	defer rows.Close()

	var sums []*domain.VolumeSum
	for rows.Next() {
		var v domain.VolumeSum
		if err := rows.Scan(&v.TokenID, &v.HourBucket, &v.VolumeUSD); err != nil {
			return nil, fmt.Errorf("scan volume sum row: %w", err)
		}
		sums = append(sums, &v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate volume sum rows: %w", err)
	}

	return sums, nil
}
