package postgres

import (
	"context"
	"fmt"

	"github.com/piperxprotocol/piperxBackend/internal/domain"
	"github.com/piperxprotocol/piperxBackend/internal/storage"
)

// SwapStore implements storage.SwapStore using PostgreSQL.
type SwapStore struct {
	pool *Pool
}

// NewSwapStore creates a new SwapStore.
func NewSwapStore(pool *Pool) *SwapStore {
	return &SwapStore{pool: pool}
}

// Compile-time interface check.
var _ storage.SwapStore = (*SwapStore)(nil)

// InsertIgnore adds a swap keyed by its unique id. A duplicate delivery
// is discarded; inserted reports whether the row is new so callers know
// whether to accumulate volume.
func (s *SwapStore) InsertIgnore(ctx context.Context, sw *domain.Swap) (bool, error) {
	query := `
		INSERT INTO swaps (
			id, vid, timestamp, pair, token0, token1,
			token0_amount, token1_amount, account, amount_usd, amount_native, source
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		ON CONFLICT (id) DO NOTHING
	`

	tag, err := s.pool.Exec(ctx, query,
		sw.ID,
		sw.VID,
		sw.Timestamp,
		sw.Pair,
		sw.Token0,
		sw.Token1,
		sw.Token0Amount,
		sw.Token1Amount,
		sw.Account,
		sw.AmountUSD,
		sw.AmountNative,
		sw.Source,
	)
	if err != nil {
		return false, fmt.Errorf("insert swap: %w", err)
	}

	return tag.RowsAffected() > 0, nil
}
