package httpapi

import (
	"context"
	"net/http"

	"github.com/piperxprotocol/piperxBackend/internal/domain"
	"github.com/piperxprotocol/piperxBackend/internal/history"
	"github.com/piperxprotocol/piperxBackend/internal/metadata"
)

// tokenPriceView is one entry of the /prices response.
type tokenPriceView struct {
	ID        string             `json:"id"`
	Symbol    string             `json:"symbol"`
	CreatedAt *int64             `json:"created_at"`
	Now       float64            `json:"now"`
	History   map[string]float64 `json:"history"`
}

// tokenInfoView is one entry of the richer /tokeninfo response.
type tokenInfoView struct {
	ID          string             `json:"id"`
	Name        *string            `json:"name"`
	Symbol      *string            `json:"symbol"`
	HolderCount int64              `json:"holder_count"`
	Decimals    int                `json:"decimals"`
	CreatedAt   *int64             `json:"created_at"`
	Now         float64            `json:"now"`
	History     map[string]float64 `json:"history"`
	Volume      map[string]float64 `json:"volume"`
	ActivePool  activePoolView     `json:"active_pool"`
}

type activePoolView struct {
	Pool   *string `json:"pool"`
	Source *string `json:"source"`
}

// readContext is the shared working set of a read request: the resolved
// token-id set plus the snapshot it was partly derived from.
type readContext struct {
	tokenIDs []string
	snapshot *domain.ActiveSnapshot
	nowHour  int64
}

// resolveTokenSet builds the token-id set for a read: tokens created in
// the trailing window, unioned with the active snapshot's ids. A stale
// or absent snapshot contributes nothing.
func (h *Handlers) resolveTokenSet(ctx context.Context) (*readContext, error) {
	nowUnix := h.now().Unix()
	since := nowUnix - history.DefaultPoints*domain.SecondsPerBucket

	recent, err := h.tokens.GetCreatedSince(ctx, since)
	if err != nil {
		return nil, err
	}

	snap, err := h.cache.GetActive(ctx)
	if err != nil {
		h.logger.Printf("read active snapshot: %v", err)
		snap = nil
	}

	seen := make(map[string]bool)
	var ids []string
	for _, t := range recent {
		id := domain.NormalizeTokenID(t.ID)
		if !seen[id] {
			seen[id] = true
			ids = append(ids, id)
		}
	}
	if snap != nil {
		for _, id := range snap.IDs() {
			id = domain.NormalizeTokenID(id)
			if id != "" && !seen[id] {
				seen[id] = true
				ids = append(ids, id)
			}
		}
	}

	return &readContext{
		tokenIDs: ids,
		snapshot: snap,
		nowHour:  domain.HourBucket(nowUnix),
	}, nil
}

// fallbackPrices builds the gap-fill fallback map: the most recent
// bucket price per token, topped up with live indexer prices for tokens
// that have no buckets at all. Indexer failure degrades to zero.
func (h *Handlers) fallbackPrices(ctx context.Context, rc *readContext, rows []*domain.PriceBucket) map[string]float64 {
	fallback := history.NowPrices(rows)

	if h.priceSource == nil {
		return fallback
	}

	var missing []string
	for _, id := range rc.tokenIDs {
		if _, ok := fallback[id]; !ok {
			missing = append(missing, id)
		}
	}
	if len(missing) == 0 {
		return fallback
	}

	live, err := h.priceSource.NowPrices(ctx, missing)
	if err != nil {
		h.logger.Printf("fetch live prices: %v", err)
		return fallback
	}
	for id, price := range live {
		fallback[domain.NormalizeTokenID(id)] = price
	}
	return fallback
}

// Prices serves gap-filled 48-point price history per token.
func (h *Handlers) Prices(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	rc, err := h.resolveTokenSet(ctx)
	if err != nil {
		h.logger.Printf("resolve token set: %v", err)
		h.writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if len(rc.tokenIDs) == 0 {
		h.writeError(w, http.StatusNotFound, "no tokens")
		return
	}

	rows, err := h.prices.GetWindow(ctx, rc.nowHour, history.DefaultPoints, rc.tokenIDs)
	if err != nil {
		h.logger.Printf("load price window: %v", err)
		h.writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	fallback := h.fallbackPrices(ctx, rc, rows)
	series := history.BuildHistory(rc.nowHour, rows, rc.tokenIDs, history.DefaultPoints, fallback)

	meta, err := h.resolver.Resolve(ctx, rc.tokenIDs)
	if err != nil {
		h.logger.Printf("resolve metadata: %v", err)
		h.writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	result := make(map[string]tokenPriceView, len(rc.tokenIDs))
	for _, id := range rc.tokenIDs {
		m := meta[id]
		decimals := m.DecimalsOrDefault()

		symbol := "-"
		if m.Symbol != nil && *m.Symbol != "" {
			symbol = *m.Symbol
		}

		adjusted := make(map[string]float64, len(series[id]))
		for label, v := range series[id] {
			adjusted[label] = history.AdjustPrice(v, decimals)
		}

		result[id] = tokenPriceView{
			ID:        id,
			Symbol:    symbol,
			CreatedAt: m.CreatedAt,
			Now:       history.AdjustPrice(fallback[id], decimals),
			History:   adjusted,
		}
	}

	h.writeJSON(w, http.StatusOK, map[string]any{"prices": result})
}

// TokenInfo serves the richer per-token view: identity, holder count,
// price and volume history, and the dominant venue.
func (h *Handlers) TokenInfo(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	rc, err := h.resolveTokenSet(ctx)
	if err != nil {
		h.logger.Printf("resolve token set: %v", err)
		h.writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if len(rc.tokenIDs) == 0 {
		h.writeError(w, http.StatusNotFound, "no tokens")
		return
	}

	rows, err := h.prices.GetWindow(ctx, rc.nowHour, history.DefaultPoints, rc.tokenIDs)
	if err != nil {
		h.logger.Printf("load price window: %v", err)
		h.writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	volumeRows, err := h.volumes.SumWindow(ctx, rc.nowHour, history.DefaultPoints, rc.tokenIDs)
	if err != nil {
		h.logger.Printf("load volume window: %v", err)
		h.writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	fallback := h.fallbackPrices(ctx, rc, rows)
	series := history.BuildHistory(rc.nowHour, rows, rc.tokenIDs, history.DefaultPoints, fallback)
	volumeSeries := history.BuildVolumeHistory(rc.nowHour, volumeRows, rc.tokenIDs, history.DefaultPoints)

	meta, err := h.resolver.Resolve(ctx, rc.tokenIDs)
	if err != nil {
		h.logger.Printf("resolve metadata: %v", err)
		h.writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	result := make(map[string]tokenInfoView, len(rc.tokenIDs))
	for _, id := range rc.tokenIDs {
		m := meta[id]
		decimals := m.DecimalsOrDefault()

		adjusted := make(map[string]float64, len(series[id]))
		for label, v := range series[id] {
			adjusted[label] = history.AdjustPrice(v, decimals)
		}

		// Volume buckets store USD scaled by 1e6 for display.
		volume := make(map[string]float64, len(volumeSeries[id]))
		for label, v := range volumeSeries[id] {
			volume[label] = v / 1e6
		}

		var holderCount int64
		if m.HolderCount != nil {
			holderCount = *m.HolderCount
		}

		result[id] = tokenInfoView{
			ID:          id,
			Name:        m.Name,
			Symbol:      m.Symbol,
			HolderCount: holderCount,
			Decimals:    decimals,
			CreatedAt:   m.CreatedAt,
			Now:         history.AdjustPrice(fallback[id], decimals),
			History:     adjusted,
			Volume:      volume,
			ActivePool:  h.activePool(rc.snapshot, id, m),
		}
	}

	h.writeJSON(w, http.StatusOK, map[string]any{"tokenInfo": result})
}

// activePool picks the dominant venue from the snapshot entry when the
// token is active, falling back to the token row's launch pool/source.
func (h *Handlers) activePool(snap *domain.ActiveSnapshot, id string, m metadata.Metadata) activePoolView {
	if snap != nil {
		for i := range snap.Tokens {
			t := &snap.Tokens[i]
			if domain.NormalizeTokenID(t.TokenID) == id {
				pool := t.ActivePool
				source := t.Source
				return activePoolView{Pool: &pool, Source: &source}
			}
		}
	}
	return activePoolView{Pool: m.Pool, Source: m.Source}
}

// Tokens serves the merged recent-launch and active token lists.
func (h *Handlers) Tokens(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	records, err := h.cache.GetRecords(ctx)
	if err != nil {
		h.logger.Printf("read token records: %v", err)
		records = nil
	}

	snap, err := h.cache.GetActive(ctx)
	if err != nil {
		h.logger.Printf("read active snapshot: %v", err)
		snap = nil
	}

	// Active entries overwrite recent records with the same id.
	merged := make(map[string]any)
	var order []string
	for _, rec := range records {
		id := domain.NormalizeTokenID(rec.ID)
		if _, ok := merged[id]; !ok {
			order = append(order, id)
		}
		merged[id] = rec
	}
	if snap != nil {
		for _, t := range snap.Tokens {
			id := domain.NormalizeTokenID(t.TokenID)
			if _, ok := merged[id]; !ok {
				order = append(order, id)
			}
			merged[id] = t
		}
	}

	tokens := make([]any, 0, len(order))
	for _, id := range order {
		tokens = append(tokens, merged[id])
	}

	h.writeJSON(w, http.StatusOK, map[string]any{"tokens": tokens})
}

// DebugRecords dumps the raw tokens:records cache entry.
func (h *Handlers) DebugRecords(w http.ResponseWriter, r *http.Request) {
	records, err := h.cache.GetRecords(r.Context())
	if err != nil || records == nil {
		h.writeJSON(w, http.StatusOK, map[string]string{"message": "KV empty"})
		return
	}
	h.writeJSON(w, http.StatusOK, records)
}

// DebugActive dumps the raw tokens:active cache entry.
func (h *Handlers) DebugActive(w http.ResponseWriter, r *http.Request) {
	snap, err := h.cache.GetActive(r.Context())
	if err != nil || snap == nil {
		h.writeJSON(w, http.StatusOK, map[string]string{"message": "KV empty"})
		return
	}
	h.writeJSON(w, http.StatusOK, snap)
}

// DebugRefresh runs the active-token aggregation synchronously.
func (h *Handlers) DebugRefresh(w http.ResponseWriter, r *http.Request) {
	if err := h.aggregator.Refresh(r.Context()); err != nil {
		h.logger.Printf("debug refresh: %v", err)
		h.writeError(w, http.StatusInternalServerError, "refresh failed")
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}
