package httpapi

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// NewRouter builds the service router.
func NewRouter(h *Handlers) *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	r.Route("/api/launchpad", func(r chi.Router) {
		r.Post("/webhook/tokens", h.WebhookTokens)
		r.Post("/webhook/prices", h.WebhookPrices)
		r.Post("/webhook/swaps", h.WebhookSwaps)
		r.Post("/webhook/holders", h.WebhookHolders)

		r.Get("/tokens", h.Tokens)
		r.Get("/prices", h.Prices)
		r.Get("/tokeninfo", h.TokenInfo)

		r.Get("/debug/kv/tokensrecords", h.DebugRecords)
		r.Get("/debug/kv/tokensactive", h.DebugActive)
		r.Post("/debug/refresh", h.DebugRefresh)
	})

	return r
}
