// Package main runs the launchpad market-data service:
// - Webhook ingestion (tokens, prices, swaps, holders)
// - Scheduled active-token aggregation into the snapshot cache
// - Gap-filled price/volume history read API
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/piperxprotocol/piperxBackend/internal/httpapi"
	"github.com/piperxprotocol/piperxBackend/internal/ingest"
	"github.com/piperxprotocol/piperxBackend/internal/metadata"
	"github.com/piperxprotocol/piperxBackend/internal/ranking"
	"github.com/piperxprotocol/piperxBackend/internal/storage"
	"github.com/piperxprotocol/piperxBackend/internal/storage/memory"
	"github.com/piperxprotocol/piperxBackend/internal/storage/migrations"
	pgstore "github.com/piperxprotocol/piperxBackend/internal/storage/postgres"
	redisstore "github.com/piperxprotocol/piperxBackend/internal/storage/redis"
	"github.com/piperxprotocol/piperxBackend/internal/subgraph"
)

// Server holds the wired components and scheduler state.
type Server struct {
	refreshInterval time.Duration
	aggregator      *ranking.Aggregator
	logger          *log.Logger

	mu             sync.Mutex
	refreshRunning bool
	lastRefresh    time.Time
	refreshRuns    int
}

// allStores holds all storage implementations.
type allStores struct {
	tokenStore  storage.TokenStore
	priceStore  storage.PriceBucketStore
	volumeStore storage.VolumeBucketStore
	swapStore   storage.SwapStore
	cache       storage.SnapshotCache
}

func main() {
	// Load .env file if exists
	loadEnvFile()

	// Parse flags (env vars as defaults)
	httpAddr := flag.String("http-addr", envOr("HTTP_ADDR", ":8080"), "HTTP listen address")
	postgresDSN := flag.String("postgres-dsn", os.Getenv("POSTGRES_DSN"), "PostgreSQL connection string")
	redisAddr := flag.String("redis-addr", envOr("REDIS_ADDR", "localhost:6379"), "Redis address")
	redisPassword := flag.String("redis-password", os.Getenv("REDIS_PASSWORD"), "Redis password")
	redisDB := flag.Int("redis-db", envIntOr("REDIS_DB", 0), "Redis database number")
	subgraphURL := flag.String("subgraph-url", os.Getenv("SUBGRAPH_URL"), "Indexer GraphQL endpoint for live prices")
	refreshInterval := flag.Duration("refresh-interval", 1*time.Hour, "Active-token aggregation interval")
	useMemory := flag.Bool("use-memory", false, "Use in-memory storage instead of PostgreSQL and Redis")

	flag.Parse()

	// Setup logger
	logger := log.New(os.Stdout, "[server] ", log.LstdFlags|log.Lshortfile)

	if !*useMemory && *postgresDSN == "" {
		logger.Fatal("--postgres-dsn is required (use --use-memory for in-memory storage)")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	stores, cleanup, err := createStores(ctx, *postgresDSN, *redisAddr, *redisPassword, *redisDB, *useMemory)
	if err != nil {
		logger.Fatalf("Failed to create stores: %v", err)
	}
	defer cleanup()

	merger := ingest.NewMerger(
		stores.tokenStore,
		stores.priceStore,
		stores.volumeStore,
		stores.swapStore,
		stores.cache,
		log.New(os.Stdout, "[ingest] ", log.LstdFlags|log.Lshortfile),
	)

	aggregator := ranking.NewAggregator(
		ranking.DefaultConfig(),
		stores.volumeStore,
		stores.tokenStore,
		stores.cache,
		log.New(os.Stdout, "[ranking] ", log.LstdFlags|log.Lshortfile),
	)

	resolver := metadata.NewResolver(
		stores.tokenStore,
		stores.cache,
		log.New(os.Stdout, "[metadata] ", log.LstdFlags|log.Lshortfile),
	)

	var priceSource subgraph.PriceSource
	if *subgraphURL != "" {
		priceSource = subgraph.NewClient(*subgraphURL)
	}

	handlers := httpapi.NewHandlers(httpapi.HandlersOptions{
		Merger:      merger,
		Aggregator:  aggregator,
		Resolver:    resolver,
		TokenStore:  stores.tokenStore,
		PriceStore:  stores.priceStore,
		VolumeStore: stores.volumeStore,
		Cache:       stores.cache,
		PriceSource: priceSource,
		Logger:      log.New(os.Stdout, "[http] ", log.LstdFlags|log.Lshortfile),
	})

	server := &Server{
		refreshInterval: *refreshInterval,
		aggregator:      aggregator,
		logger:          logger,
	}

	httpServer := &http.Server{
		Addr:         *httpAddr,
		Handler:      httpapi.NewRouter(handlers),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Handle shutdown signals
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-sigCh
		logger.Printf("Received signal %v, initiating graceful shutdown...", sig)
		cancel()

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Printf("HTTP shutdown error: %v", err)
		}
	}()

	// Start refresh scheduler
	go server.runRefreshScheduler(ctx)

	logger.Printf("Starting HTTP server on %s", *httpAddr)
	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Fatalf("HTTP server error: %v", err)
	}

	logger.Println("Shutdown complete")
}

// createStores creates all required stores.
func createStores(ctx context.Context, postgresDSN, redisAddr, redisPassword string, redisDB int, useMemory bool) (*allStores, func(), error) {
	if useMemory {
		stores := &allStores{
			tokenStore:  memory.NewTokenStore(),
			priceStore:  memory.NewPriceBucketStore(),
			volumeStore: memory.NewVolumeBucketStore(),
			swapStore:   memory.NewSwapStore(),
			cache:       memory.NewSnapshotCache(),
		}
		return stores, func() {}, nil
	}

	pool, err := pgstore.NewPool(ctx, postgresDSN)
	if err != nil {
		return nil, nil, fmt.Errorf("connect to postgres: %w", err)
	}

	if err := migrations.RunPostgresMigrations(ctx, pool); err != nil {
		pool.Close()
		return nil, nil, fmt.Errorf("run migrations: %w", err)
	}

	redisClient := redisstore.NewClient(redisAddr, redisPassword, redisDB)
	if err := redisClient.Ping(ctx).Err(); err != nil {
		pool.Close()
		return nil, nil, fmt.Errorf("ping redis: %w", err)
	}

	stores := &allStores{
		tokenStore:  pgstore.NewTokenStore(pool),
		priceStore:  pgstore.NewPriceBucketStore(pool),
		volumeStore: pgstore.NewVolumeBucketStore(pool),
		swapStore:   pgstore.NewSwapStore(pool),
		cache: redisstore.NewSnapshotCache(redisClient,
			log.New(os.Stdout, "[cache] ", log.LstdFlags|log.Lshortfile)),
	}

	cleanup := func() {
		redisClient.Close()
		pool.Close()
	}

	return stores, cleanup, nil
}

// runRefreshScheduler runs the active-token aggregation on schedule.
func (s *Server) runRefreshScheduler(ctx context.Context) {
	s.logger.Printf("Starting refresh scheduler (interval: %v)...", s.refreshInterval)

	// Run immediately on start
	s.runRefresh(ctx)

	ticker := time.NewTicker(s.refreshInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.runRefresh(ctx)
		}
	}
}

// runRefresh executes one aggregation run.
func (s *Server) runRefresh(ctx context.Context) {
	s.mu.Lock()
	if s.refreshRunning {
		s.mu.Unlock()
		s.logger.Println("Refresh already running, skipping...")
		return
	}
	s.refreshRunning = true
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.refreshRunning = false
		s.lastRefresh = time.Now()
		s.refreshRuns++
		s.mu.Unlock()
	}()

	start := time.Now()
	if err := s.aggregator.Refresh(ctx); err != nil {
		s.logger.Printf("Refresh error (previous snapshot retained): %v", err)
		return
	}
	s.logger.Printf("Refresh completed in %v", time.Since(start))
}

// envOr returns the env var value or a default.
func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// envIntOr returns the env var parsed as int or a default.
func envIntOr(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

// loadEnvFile loads environment variables from .env file if it exists.
func loadEnvFile() {
	data, err := os.ReadFile(".env")
	if err != nil {
		return // File doesn't exist, use system env vars
	}

	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		parts := strings.SplitN(line, "=", 2)
		if len(parts) != 2 {
			continue
		}

		key := strings.TrimSpace(parts[0])
		value := strings.TrimSpace(parts[1])

		// Don't override existing env vars
		if os.Getenv(key) == "" {
			os.Setenv(key, value)
		}
	}
}
