package httpapi

import (
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/piperxprotocol/piperxBackend/internal/ingest"
	"github.com/piperxprotocol/piperxBackend/internal/metadata"
	"github.com/piperxprotocol/piperxBackend/internal/ranking"
	"github.com/piperxprotocol/piperxBackend/internal/storage"
	"github.com/piperxprotocol/piperxBackend/internal/subgraph"
)

// Handlers serves the webhook and read endpoints.
type Handlers struct {
	merger      *ingest.Merger
	aggregator  *ranking.Aggregator
	resolver    *metadata.Resolver
	tokens      storage.TokenStore
	prices      storage.PriceBucketStore
	volumes     storage.VolumeBucketStore
	cache       storage.SnapshotCache
	priceSource subgraph.PriceSource
	logger      *log.Logger
	now         func() time.Time
}

// HandlersOptions configures Handlers.
type HandlersOptions struct {
	Merger      *ingest.Merger
	Aggregator  *ranking.Aggregator
	Resolver    *metadata.Resolver
	TokenStore  storage.TokenStore
	PriceStore  storage.PriceBucketStore
	VolumeStore storage.VolumeBucketStore
	Cache       storage.SnapshotCache
	PriceSource subgraph.PriceSource
	Logger      *log.Logger
}

// NewHandlers creates Handlers.
func NewHandlers(opts HandlersOptions) *Handlers {
	return &Handlers{
		merger:      opts.Merger,
		aggregator:  opts.Aggregator,
		resolver:    opts.Resolver,
		tokens:      opts.TokenStore,
		prices:      opts.PriceStore,
		volumes:     opts.VolumeStore,
		cache:       opts.Cache,
		priceSource: opts.PriceSource,
		logger:      opts.Logger,
		now:         time.Now,
	}
}

// SetClock overrides the handler clock, for tests.
func (h *Handlers) SetClock(now func() time.Time) {
	h.now = now
}

func (h *Handlers) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.logger.Printf("encode response: %v", err)
	}
}

func (h *Handlers) writeError(w http.ResponseWriter, status int, message string) {
	h.writeJSON(w, status, map[string]string{"error": message})
}
