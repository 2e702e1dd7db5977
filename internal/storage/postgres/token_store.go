package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/piperxprotocol/piperxBackend/internal/domain"
	"github.com/piperxprotocol/piperxBackend/internal/storage"
)

// TokenStore implements storage.TokenStore using PostgreSQL.
type TokenStore struct {
	pool *Pool
}

// NewTokenStore creates a new TokenStore.
func NewTokenStore(pool *Pool) *TokenStore {
	return &TokenStore{pool: pool}
}

// Compile-time interface check.
var _ storage.TokenStore = (*TokenStore)(nil)

// Upsert inserts a token or replaces its identity fields on conflict.
func (s *TokenStore) Upsert(ctx context.Context, t *domain.Token) error {
	query := `
		INSERT INTO tokens (id, name, symbol, decimals, created_at, pool, source)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (id) DO UPDATE SET
			name = excluded.name,
			symbol = excluded.symbol,
			decimals = excluded.decimals,
			created_at = excluded.created_at,
			pool = excluded.pool,
			source = excluded.source
	`

	_, err := s.pool.Exec(ctx, query,
		domain.NormalizeTokenID(t.ID),
		t.Name,
		t.Symbol,
		t.Decimals,
		t.CreatedAt,
		t.Pool,
		t.Source,
	)
	if err != nil {
		return fmt.Errorf("upsert token: %w", err)
	}
	return nil
}

// UpdateHolderCount sets holder_count for an existing token.
func (s *TokenStore) UpdateHolderCount(ctx context.Context, tokenID string, count int64) error {
	query := `UPDATE tokens SET holder_count = $1 WHERE id = $2`

	_, err := s.pool.Exec(ctx, query, count, domain.NormalizeTokenID(tokenID))
	if err != nil {
		return fmt.Errorf("update holder count: %w", err)
	}
	return nil
}

// GetByIDs retrieves tokens for the given id set.
func (s *TokenStore) GetByIDs(ctx context.Context, ids []string) ([]*domain.Token, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	normalized := make([]string, len(ids))
	for i, id := range ids {
		normalized[i] = domain.NormalizeTokenID(id)
	}

	query := `
		SELECT id, name, symbol, decimals, created_at, pool, source, holder_count
		FROM tokens
		WHERE id = ANY($1)
	`

	rows, err := s.pool.Query(ctx, query, normalized)
	if err != nil {
		return nil, fmt.Errorf("get tokens by ids: %w", err)
	}
	defer rows.Close()

	return scanTokens(rows)
}

// GetCreatedSince retrieves tokens with created_at >= since.
func (s *TokenStore) GetCreatedSince(ctx context.Context, since int64) ([]*domain.Token, error) {
	query := `
		SELECT id, name, symbol, decimals, created_at, pool, source, holder_count
		FROM tokens
		WHERE created_at >= $1
	`

	rows, err := s.pool.Query(ctx, query, since)
	if err != nil {
		return nil, fmt.Errorf("get tokens created since: %w", err)
	}
	defer rows.Close()

	return scanTokens(rows)
}

// scanTokens scans multiple rows into a slice of Token.
func scanTokens(rows pgx.Rows) ([]*domain.Token, error) {
	var tokens []*domain.Token

	for rows.Next() {
		var t domain.Token

		err := rows.Scan(
			&t.ID,
			&t.Name,
			&t.Symbol,
			&t.Decimals,
			&t.CreatedAt,
			&t.Pool,
			&t.Source,
			&t.HolderCount,
		)
		if err != nil {
			return nil, fmt.Errorf("scan token row: %w", err)
		}

		tokens = append(tokens, &t)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate token rows: %w", err)
	}

	return tokens, nil
}
