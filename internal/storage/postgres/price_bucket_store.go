package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/piperxprotocol/piperxBackend/internal/domain"
	"github.com/piperxprotocol/piperxBackend/internal/storage"
)

// PriceBucketStore implements storage.PriceBucketStore using PostgreSQL.
type PriceBucketStore struct {
	pool *Pool
}

// NewPriceBucketStore creates a new PriceBucketStore.
func NewPriceBucketStore(pool *Pool) *PriceBucketStore {
	return &PriceBucketStore{pool: pool}
}

// Compile-time interface check.
var _ storage.PriceBucketStore = (*PriceBucketStore)(nil)

// Upsert writes a price observation into its (token_id, hour_bucket) row.
// Last delivery wins: an existing row is replaced with no ordering check
// against the observed timestamp.
func (s *PriceBucketStore) Upsert(ctx context.Context, b *domain.PriceBucket) error {
	query := `
		INSERT INTO prices (token_id, hour_bucket, ts, price_usd)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (token_id, hour_bucket)
		DO UPDATE SET ts = excluded.ts, price_usd = excluded.price_usd
	`

	_, err := s.pool.Exec(ctx, query,
		b.TokenID,
		b.HourBucket,
		b.ObservedAt,
		b.PriceUSD,
	)
	if err != nil {
		return fmt.Errorf("upsert price bucket: %w", err)
	}
	return nil
}

// GetWindow retrieves rows within the trailing window, ordered by
// hour_bucket ASC. A non-empty tokenIDs set restricts the result.
func (s *PriceBucketStore) GetWindow(ctx context.Context, nowHour int64, points int, tokenIDs []string) ([]*domain.PriceBucket, error) {
	var (
		rows pgx.Rows
		err  error
	)

	if len(tokenIDs) > 0 {
		query := `
			SELECT token_id, hour_bucket, ts, price_usd
			FROM prices
			WHERE hour_bucket <= $1 AND hour_bucket > $1 - $2 AND token_id = ANY($3)
			ORDER BY hour_bucket ASC
		`
		rows, err = s.pool.Query(ctx, query, nowHour, points, tokenIDs)
	} else {
		query := `
			SELECT token_id, hour_bucket, ts, price_usd
			FROM prices
			WHERE hour_bucket <= $1 AND hour_bucket > $1 - $2
			ORDER BY hour_bucket ASC
		`
		rows, err = s.pool.Query(ctx, query, nowHour, points)
	}
	if err != nil {
		return nil, fmt.Errorf("get price window: %w", err)
	}
	defer rows.Close()

	return scanPriceBuckets(rows)
}

// scanPriceBuckets scans multiple rows into a slice of PriceBucket.
func scanPriceBuckets(rows pgx.Rows) ([]*domain.PriceBucket, error) {
	var buckets []*domain.PriceBucket

	for rows.Next() {
		var b domain.PriceBucket

		err := rows.Scan(
			&b.TokenID,
			&b.HourBucket,
			&b.ObservedAt,
			&b.PriceUSD,
		)
		if err != nil {
			return nil, fmt.Errorf("scan price bucket row: %w", err)
		}

		buckets = append(buckets, &b)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate price bucket rows: %w", err)
	}

	return buckets, nil
}
