// Package ranking computes the active-token snapshot: the set of tokens
// whose trailing-window volume clears a fixed threshold, ranked with the
// dominant trading venue picked per token.
package ranking

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/piperxprotocol/piperxBackend/internal/domain"
	"github.com/piperxprotocol/piperxBackend/internal/storage"
)

// Config holds aggregation parameters.
type Config struct {
	WindowHours     int     // trailing volume window (default 48)
	VolumeThreshold float64 // minimum trailing volume to rank (default 5e8)
	MetadataBatch   int     // token-id batch size for metadata lookups (default 80)
}

// DefaultConfig returns the production aggregation parameters.
func DefaultConfig() Config {
	return Config{
		WindowHours:     48,
		VolumeThreshold: 5e8,
		MetadataBatch:   80,
	}
}

// Aggregator owns no state across runs; every Refresh reads fresh from
// the stores and replaces the cached snapshot wholesale.
type Aggregator struct {
	config  Config
	volumes storage.VolumeBucketStore
	tokens  storage.TokenStore
	cache   storage.SnapshotCache
	logger  *log.Logger
	now     func() time.Time
}

// NewAggregator creates an Aggregator.
func NewAggregator(
	config Config,
	volumes storage.VolumeBucketStore,
	tokens storage.TokenStore,
	cache storage.SnapshotCache,
	logger *log.Logger,
) *Aggregator {
	return &Aggregator{
		config:  config,
		volumes: volumes,
		tokens:  tokens,
		cache:   cache,
		logger:  logger,
		now:     time.Now,
	}
}

// SetClock overrides the aggregator clock, for tests.
func (a *Aggregator) SetClock(now func() time.Time) {
	a.now = now
}

// tokenStat is the per-token fold state over the grouped volume rows.
type tokenStat struct {
	tokenID     string
	totalVolume float64
	topPool     string
	topSource   string
	topVolume   float64
}

// Refresh recomputes the active-token snapshot and replaces it in the
// cache. A failed volume query aborts before any cache write, so the
// previous snapshot stays authoritative until the next successful run.
func (a *Aggregator) Refresh(ctx context.Context) error {
	currentHour := domain.HourBucket(a.now().Unix())
	sinceHour := currentHour - int64(a.config.WindowHours)

	groups, err := a.volumes.GroupedWindow(ctx, sinceHour)
	if err != nil {
		return fmt.Errorf("query volume window: %w", err)
	}
	if len(groups) == 0 {
		a.logger.Printf("no volume records in trailing %dh window", a.config.WindowHours)
		return nil
	}
	a.logger.Printf("loaded %d token-venue volume groups", len(groups))

	// Fold per-token totals and track the single highest-volume venue.
	// Ties keep the first group in store result order; the fold never
	// re-sorts equal groups.
	stats := make(map[string]*tokenStat)
	var order []string
	for _, g := range groups {
		id := domain.NormalizeTokenID(g.TokenID)
		stat, ok := stats[id]
		if !ok {
			stat = &tokenStat{
				tokenID:   id,
				topPool:   domain.NormalizeTokenID(g.Pool),
				topSource: g.Source,
				topVolume: g.TotalVolume,
			}
			stats[id] = stat
			order = append(order, id)
		}

		stat.totalVolume += g.TotalVolume

		if g.TotalVolume > stat.topVolume {
			stat.topVolume = g.TotalVolume
			stat.topPool = domain.NormalizeTokenID(g.Pool)
			stat.topSource = g.Source
		}
	}

	var active []domain.ActiveToken
	for _, id := range order {
		stat := stats[id]
		if stat.totalVolume <= a.config.VolumeThreshold {
			continue
		}
		active = append(active, domain.ActiveToken{
			TokenID:     stat.tokenID,
			TotalVolume: stat.totalVolume,
			ActivePool:  stat.topPool,
			Source:      stat.topSource,
		})
	}

	a.logger.Printf("active tokens above %.0f volume: %d", a.config.VolumeThreshold, len(active))
	if len(active) == 0 {
		return nil
	}

	meta, err := a.resolveMetadata(ctx, active)
	if err != nil {
		return fmt.Errorf("resolve active token metadata: %w", err)
	}

	for i := range active {
		t, ok := meta[active[i].TokenID]
		if !ok {
			continue
		}
		active[i].Name = t.Name
		active[i].Symbol = t.Symbol
		active[i].Decimals = t.Decimals
		active[i].CreatedAt = t.CreatedAt
		if t.HolderCount != nil {
			active[i].HolderCount = *t.HolderCount
		}
	}

	snap := &domain.ActiveSnapshot{
		UpdatedAt: a.now().UnixMilli(),
		Tokens:    active,
	}
	if err := a.cache.SetActive(ctx, snap); err != nil {
		return fmt.Errorf("write active snapshot: %w", err)
	}

	a.logger.Printf("refreshed active tokens: %d", len(active))
	return nil
}

// resolveMetadata loads display metadata for the surviving token set in
// fixed-size batches to respect query-parameter limits.
func (a *Aggregator) resolveMetadata(ctx context.Context, active []domain.ActiveToken) (map[string]*domain.Token, error) {
	ids := make([]string, len(active))
	for i, t := range active {
		ids[i] = t.TokenID
	}

	meta := make(map[string]*domain.Token, len(ids))
	for start := 0; start < len(ids); start += a.config.MetadataBatch {
		end := start + a.config.MetadataBatch
		if end > len(ids) {
			end = len(ids)
		}

		tokens, err := a.tokens.GetByIDs(ctx, ids[start:end])
		if err != nil {
			return nil, err
		}
		for _, t := range tokens {
			meta[domain.NormalizeTokenID(t.ID)] = t
		}
	}

	return meta, nil
}
