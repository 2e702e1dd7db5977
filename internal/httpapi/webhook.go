package httpapi

import (
	"io"
	"net/http"

	"github.com/piperxprotocol/piperxBackend/internal/ingest"
)

// Webhook responses report the count of records attempted, not
// succeeded: per-record persistence failures are logged and skipped so
// one bad record never blocks its siblings.

// WebhookTokens ingests token identity records.
func (h *Handlers) WebhookTokens(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "read body failed")
		return
	}

	batch, err := ingest.DecodeTokenBatch(body)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid payload, expected token(s)")
		return
	}
	h.logger.Printf("received %d token records", len(batch))

	count := h.merger.MergeTokenBatch(r.Context(), batch)
	h.writeJSON(w, http.StatusOK, map[string]any{"status": "ok", "count": count})
}

// WebhookPrices ingests price observations.
func (h *Handlers) WebhookPrices(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "read body failed")
		return
	}

	batch, err := ingest.DecodePriceBatch(body)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid payload, expected price records")
		return
	}
	h.logger.Printf("received %d price records", len(batch))

	count := h.merger.MergePriceBatch(r.Context(), batch)
	h.writeJSON(w, http.StatusOK, map[string]any{"ok": true, "count": count})
}

// WebhookSwaps ingests swap observations.
func (h *Handlers) WebhookSwaps(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "read body failed")
		return
	}

	batch, err := ingest.DecodeSwapBatch(body)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid payload, expected swap records")
		return
	}
	h.logger.Printf("received %d swap records", len(batch))

	count := h.merger.MergeSwapBatch(r.Context(), batch)
	h.writeJSON(w, http.StatusOK, map[string]any{"ok": true, "count": count})
}

// WebhookHolders ingests holder-count updates.
func (h *Handlers) WebhookHolders(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "read body failed")
		return
	}

	batch, err := ingest.DecodeHolderBatch(body)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid payload, expected holder records")
		return
	}
	h.logger.Printf("received %d holder records", len(batch))

	count := h.merger.MergeHolderBatch(r.Context(), batch)
	h.writeJSON(w, http.StatusOK, map[string]any{"ok": true, "count": count})
}
