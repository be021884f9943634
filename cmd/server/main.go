// Package main provides the scheduled scanning service:
// - Scanner (scheduled): full pipeline over the profile watchlist
// - Alerting: log/webhook delivery for flagged tokens
// - HTTP: /healthz, /metrics, /status, /results/{scan_id}
// - Price feed (optional): live tick cache surfaced on /status
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"gemscan/internal/alerting"
	"gemscan/internal/artifacts"
	"gemscan/internal/domain"
	"gemscan/internal/market"
	"gemscan/internal/market/stub"
	"gemscan/internal/narrative"
	"gemscan/internal/news"
	"gemscan/internal/observability"
	"gemscan/internal/safety"
	"gemscan/internal/scan"
	"gemscan/internal/storage"
	chstore "gemscan/internal/storage/clickhouse"
	"gemscan/internal/storage/memory"
	"gemscan/internal/storage/migrations"
	pgstore "gemscan/internal/storage/postgres"
)

// Server holds all components of the scanning service.
type Server struct {
	profile      *scan.Profile
	scanner      *scan.Scanner
	alerts       *alerting.Manager
	tracker      *alerting.PrecisionTracker
	scanInterval time.Duration

	resultStore   storage.ScanResultStore
	snapshotStore storage.FeatureSnapshotStore

	stream *market.PriceStream

	logger  *zap.Logger
	metrics *observability.Metrics

	// State
	mu          sync.Mutex
	started     time.Time
	lastRun     time.Time
	lastRunID   string
	runs        int
	scanRunning bool
	prices      map[string]market.PriceTick
}

func main() {
	loadEnvFile()

	profilePath := flag.String("profile", "profile.yaml", "Scan profile YAML path")
	postgresDSN := flag.String("postgres-dsn", os.Getenv("POSTGRES_DSN"), "PostgreSQL connection string")
	clickhouseDSN := flag.String("clickhouse-dsn", os.Getenv("CLICKHOUSE_DSN"), "ClickHouse connection string")
	useMemory := flag.Bool("use-memory", false, "Use in-memory storage instead of PostgreSQL/ClickHouse")
	useStubs := flag.Bool("use-stubs", false, "Use deterministic stub clients instead of live APIs")
	scanInterval := flag.Duration("scan-interval", 1*time.Hour, "Interval between scan cycles")
	httpAddr := flag.String("http-addr", ":9090", "HTTP address for metrics/status/results")
	webhookURL := flag.String("webhook-url", os.Getenv("ALERT_WEBHOOK_URL"), "Optional webhook for flag alerts")
	priceFeedURL := flag.String("price-feed-url", os.Getenv("PRICE_FEED_URL"), "Optional WebSocket price feed for live prices")
	coingeckoKey := flag.String("coingecko-key", os.Getenv("COINGECKO_API_KEY"), "CoinGecko API key")
	etherscanKey := flag.String("etherscan-key", os.Getenv("ETHERSCAN_API_KEY"), "Etherscan API key")
	signingSeed := flag.String("signing-seed", os.Getenv("ARTIFACT_SIGNING_SEED"), "Hex ed25519 seed for artifact signing")

	flag.Parse()

	logger, err := zap.NewProduction()
	if err != nil {
		fmt.Fprintf(os.Stderr, "build logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	profile, err := scan.LoadProfile(*profilePath)
	if err != nil {
		logger.Fatal("load profile", zap.Error(err))
	}
	if !*useMemory && *postgresDSN == "" {
		logger.Fatal("--postgres-dsn is required (use --use-memory for in-memory storage)")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	resultStore, snapshotStore, cleanup, err := createStores(ctx, *postgresDSN, *clickhouseDSN, *useMemory)
	if err != nil {
		logger.Fatal("create stores", zap.Error(err))
	}
	defer cleanup()

	metrics := observability.NewMetrics("")

	scanner, err := buildScanner(profile, *useStubs, *coingeckoKey, *etherscanKey, *signingSeed, logger, metrics)
	if err != nil {
		logger.Fatal("build scanner", zap.Error(err))
	}

	sinks := []alerting.Sink{alerting.NewLogSink(logger)}
	if *webhookURL != "" {
		sinks = append(sinks, alerting.NewWebhookSink(*webhookURL, nil))
	}

	server := &Server{
		profile:       profile,
		scanner:       scanner,
		alerts:        alerting.NewManager(logger, sinks...),
		tracker:       alerting.NewPrecisionTracker(),
		scanInterval:  *scanInterval,
		resultStore:   resultStore,
		snapshotStore: snapshotStore,
		logger:        logger,
		metrics:       metrics,
		started:       time.Now(),
		prices:        make(map[string]market.PriceTick),
	}

	if *priceFeedURL != "" {
		if err := server.startPriceStream(ctx, *priceFeedURL); err != nil {
			logger.Fatal("connect price feed", zap.Error(err))
		}
		defer server.stream.Close()
	}

	done := make(chan error, 1)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-sigCh
		logger.Info("initiating graceful shutdown", zap.String("signal", sig.String()))
		cancel()

		select {
		case sig := <-sigCh:
			logger.Warn("forcing immediate shutdown", zap.String("signal", sig.String()))
			os.Exit(1)
		case <-time.After(30 * time.Second):
			logger.Warn("graceful shutdown timed out, forcing exit")
			os.Exit(1)
		case <-done:
		}
	}()

	go server.startHTTPServer(*httpAddr)

	err = server.Run(ctx)
	done <- err
	cancel()

	if err != nil && !errors.Is(err, context.Canceled) {
		logger.Fatal("server error", zap.Error(err))
	}
	logger.Info("shutdown complete")
}

// createStores wires real or in-memory storage. The ClickHouse snapshot
// store is optional; without a DSN feature snapshots stay in memory.
func createStores(ctx context.Context, postgresDSN, clickhouseDSN string, useMemory bool) (storage.ScanResultStore, storage.FeatureSnapshotStore, func(), error) {
	if useMemory {
		return memory.NewScanResultStore(), memory.NewFeatureSnapshotStore(), func() {}, nil
	}

	pool, err := pgstore.NewPool(ctx, postgresDSN)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("connect to postgres: %w", err)
	}
	if err := migrations.RunPostgresMigrations(ctx, pool); err != nil {
		pool.Close()
		return nil, nil, nil, fmt.Errorf("run postgres migrations: %w", err)
	}

	if clickhouseDSN == "" {
		cleanup := func() { pool.Close() }
		return pgstore.NewScanResultStore(pool), memory.NewFeatureSnapshotStore(), cleanup, nil
	}

	chConn, err := migrations.RunClickhouseMigrations(ctx, clickhouseDSN)
	if err != nil {
		pool.Close()
		return nil, nil, nil, fmt.Errorf("run clickhouse migrations: %w", err)
	}

	cleanup := func() {
		chConn.Close()
		pool.Close()
	}
	return pgstore.NewScanResultStore(pool), chstore.NewFeatureSnapshotStore(chConn), cleanup, nil
}

// buildScanner assembles the pipeline with live or stub collaborators.
func buildScanner(profile *scan.Profile, useStubs bool, coingeckoKey, etherscanKey, signingSeed string, logger *zap.Logger, metrics *observability.Metrics) (*scan.Scanner, error) {
	engine, err := profile.Engine()
	if err != nil {
		return nil, fmt.Errorf("build score engine: %w", err)
	}

	opts := scan.Options{
		Narrative:       narrative.NewHeuristicAnalyzer(),
		Safety:          safety.NewAnalyzer(),
		Renderer:        artifacts.NewRenderer(),
		Engine:          engine,
		Thresholds:      profile.FlagThresholds(),
		ChartDays:       profile.ChartDays,
		NewsFeeds:       profile.NewsFeeds,
		NewsLimit:       profile.NewsLimit,
		MinLiquidityUSD: profile.MinLiquidityUSD,
		Logger:          logger,
		Metrics:         metrics,
	}

	if useStubs {
		opts.Market = stub.MarketClient{}
		opts.Liquidity = stub.LiquidityClient{}
		opts.Contract = stub.ContractClient{}
		opts.News = stub.NewsClient{}
	} else {
		base := market.NewClient()
		opts.Market = market.NewCoinGeckoClient(base, "", coingeckoKey)
		opts.Liquidity = market.NewDexScreenerClient(base, "")
		opts.Contract = market.NewEtherscanClient(base, "", etherscanKey)
		if len(profile.NewsFeeds) > 0 {
			opts.News = news.NewAggregator(news.WithLogger(logger))
		}
	}

	if signingSeed != "" {
		signer, err := artifacts.NewSignerFromSeed(signingSeed)
		if err != nil {
			return nil, fmt.Errorf("parse signing seed: %w", err)
		}
		opts.Signer = signer
	}

	return scan.New(opts)
}

// Run starts the scan scheduler. The first cycle runs immediately.
func (s *Server) Run(ctx context.Context) error {
	s.logger.Info("starting scan scheduler",
		zap.String("profile", s.profile.Name),
		zap.Int("tokens", len(s.profile.Tokens)),
		zap.Duration("interval", s.scanInterval))

	s.runCycle(ctx)

	ticker := time.NewTicker(s.scanInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			s.runCycle(ctx)
		}
	}
}

// runCycle scans every token in the profile once.
func (s *Server) runCycle(ctx context.Context) {
	s.mu.Lock()
	if s.scanRunning {
		s.mu.Unlock()
		s.logger.Info("scan cycle already running, skipping")
		return
	}
	s.scanRunning = true
	runID := uuid.NewString()
	s.lastRunID = runID
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.scanRunning = false
		s.lastRun = time.Now()
		s.runs++
		s.mu.Unlock()
	}()

	start := time.Now()
	s.logger.Info("scan cycle started", zap.String("run_id", runID))

	scanned, flagged := 0, 0
	for _, token := range s.profile.TokenConfigs() {
		if ctx.Err() != nil {
			return
		}
		res, _, err := s.scanner.Scan(ctx, token)
		if err != nil {
			s.logger.Warn("scan failed",
				zap.String("run_id", runID),
				zap.String("token", token.TokenID),
				zap.Error(err))
			continue
		}
		scanned++
		if res.Flagged {
			flagged++
			s.tracker.RecordFlag(res.ScanID, token.TokenID, res.GemScore.Score, res.CompletedAt)
			s.alerts.Notify(ctx, res)
		}
		s.persist(ctx, res)
	}

	s.logger.Info("scan cycle completed",
		zap.String("run_id", runID),
		zap.Duration("elapsed", time.Since(start)),
		zap.Int("scanned", scanned),
		zap.Int("flagged", flagged))
}

// persist stores the result and its feature snapshot rows. Storage
// failures are logged; the cycle continues.
func (s *Server) persist(ctx context.Context, res *domain.ScanResult) {
	if err := s.resultStore.Insert(ctx, res); err != nil {
		s.logger.Warn("store scan result",
			zap.String("scan_id", res.ScanID), zap.Error(err))
		return
	}

	rows := make([]*domain.FeatureSnapshot, 0, len(res.RawFeatures)+len(res.AdjustedFeatures))
	for feature, value := range res.RawFeatures {
		rows = append(rows, &domain.FeatureSnapshot{
			ScanID: res.ScanID, TokenID: res.Token.TokenID,
			TimestampMs: res.CompletedAt, Feature: feature, Value: value,
		})
	}
	for feature, value := range res.AdjustedFeatures {
		rows = append(rows, &domain.FeatureSnapshot{
			ScanID: res.ScanID, TokenID: res.Token.TokenID,
			TimestampMs: res.CompletedAt, Feature: feature, Value: value,
			Adjusted: true,
		})
	}
	if err := s.snapshotStore.InsertBulk(ctx, rows); err != nil {
		s.logger.Warn("store feature snapshots",
			zap.String("scan_id", res.ScanID), zap.Error(err))
	}
}

// startPriceStream subscribes to the price feed for every profile token
// and keeps the latest tick per token for the /status endpoint.
func (s *Server) startPriceStream(ctx context.Context, endpoint string) error {
	stream, err := market.NewPriceStream(ctx, endpoint, nil)
	if err != nil {
		return err
	}
	s.stream = stream

	for _, token := range s.profile.TokenConfigs() {
		ch, err := stream.Subscribe(token.TokenID)
		if err != nil {
			stream.Close()
			return fmt.Errorf("subscribe %s: %w", token.TokenID, err)
		}
		go func(ch <-chan market.PriceTick) {
			for tick := range ch {
				s.mu.Lock()
				s.prices[tick.TokenID] = tick
				s.mu.Unlock()
			}
		}(ch)
	}

	s.logger.Info("price feed connected",
		zap.String("endpoint", endpoint),
		zap.Int("tokens", len(s.profile.Tokens)))
	return nil
}

// startHTTPServer starts the HTTP server for health/metrics/status/results.
func (s *Server) startHTTPServer(addr string) {
	mux := http.NewServeMux()

	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	mux.Handle("/metrics", observability.Handler())
	mux.HandleFunc("/status", s.handleStatus)
	mux.HandleFunc("/results/", s.handleResult)

	s.logger.Info("starting http server", zap.String("addr", addr))
	if err := http.ListenAndServe(addr, mux); err != nil && err != http.ErrServerClosed {
		s.logger.Error("http server error", zap.Error(err))
	}
}

// StatusResponse is the JSON response for the /status endpoint.
type StatusResponse struct {
	Status      string    `json:"status"`
	Uptime      string    `json:"uptime"`
	LastRun     time.Time `json:"last_run,omitempty"`
	LastRunID   string    `json:"last_run_id,omitempty"`
	Runs        int       `json:"runs"`
	ScanRunning bool      `json:"scan_running"`
	Tokens      int       `json:"tokens"`

	// LivePrices maps token ID to the latest streamed price in USD.
	// Present only when a price feed is configured.
	LivePrices map[string]float64 `json:"live_prices,omitempty"`
}

// handleStatus returns server status as JSON.
func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	resp := StatusResponse{
		Status:      "running",
		Uptime:      time.Since(s.started).String(),
		LastRun:     s.lastRun,
		LastRunID:   s.lastRunID,
		Runs:        s.runs,
		ScanRunning: s.scanRunning,
		Tokens:      len(s.profile.Tokens),
	}
	if len(s.prices) > 0 {
		resp.LivePrices = make(map[string]float64, len(s.prices))
		for id, tick := range s.prices {
			resp.LivePrices[id] = tick.PriceUSD
		}
	}
	s.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}

// handleResult serves one stored scan result by scan ID.
func (s *Server) handleResult(w http.ResponseWriter, r *http.Request) {
	scanID := strings.TrimPrefix(r.URL.Path, "/results/")
	if scanID == "" {
		http.Error(w, "scan id required", http.StatusBadRequest)
		return
	}

	res, err := s.resultStore.GetByID(r.Context(), scanID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			http.Error(w, "not found", http.StatusNotFound)
			return
		}
		s.logger.Error("load scan result", zap.String("scan_id", scanID), zap.Error(err))
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(res)
}

// loadEnvFile loads environment variables from .env file if it exists.
func loadEnvFile() {
	data, err := os.ReadFile(".env")
	if err != nil {
		return
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
