package scan

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"gemscan/internal/domain"
	"gemscan/internal/observability"
	"gemscan/internal/score"
)

// ErrNoResult is returned when a load-bearing branch failed and the scan
// produced no ScanResult. The trace shows which node failed and why.
var ErrNoResult = errors.New("scan produced no result")

// Collaborator contracts consumed by node actions. All are synchronous;
// timeouts and retries are the clients' responsibility.
type (
	// MarketDataClient fetches price/volume history for a token.
	MarketDataClient interface {
		FetchMarketChart(ctx context.Context, tokenID string, days int) (*domain.MarketChart, error)
	}

	// LiquidityClient fetches DEX pool depth for a contract address.
	LiquidityClient interface {
		FetchPairs(ctx context.Context, address string) (*domain.LiquidityInfo, error)
	}

	// ContractMetadataClient fetches contract verification data.
	ContractMetadataClient interface {
		FetchContractSource(ctx context.Context, address string) (*domain.ContractMetadata, error)
	}

	// NarrativeAnalyzer scores sentiment/themes over collected texts.
	NarrativeAnalyzer interface {
		Analyze(texts []string) domain.NarrativeInsight
	}

	// NewsAggregator collects news items matching keywords. Optional.
	NewsAggregator interface {
		Collect(ctx context.Context, feeds []string, keywords []string, limit int) ([]domain.NewsItem, error)
	}

	// SafetyAnalyzer converts contract metadata into a safety report.
	SafetyAnalyzer interface {
		Evaluate(meta *domain.ContractMetadata) *domain.SafetyReport
	}

	// ArtifactRenderer renders the final scan payload.
	ArtifactRenderer interface {
		RenderMarkdown(res *domain.ScanResult) string
		RenderHTML(res *domain.ScanResult) (string, error)
	}

	// ArtifactSigner signs the rendered markdown artifact. Optional.
	ArtifactSigner interface {
		Sign(payload []byte) string
	}
)

// Default scanner configuration values.
const (
	DefaultChartDays       = 30
	DefaultNewsLimit       = 20
	DefaultMinLiquidityUSD = 50_000
)

// Options configures a Scanner.
type Options struct {
	// Required collaborators.
	Market    MarketDataClient
	Liquidity LiquidityClient
	Contract  ContractMetadataClient
	Narrative NarrativeAnalyzer
	Safety    SafetyAnalyzer
	Renderer  ArtifactRenderer

	// Optional collaborators.
	News   NewsAggregator
	Signer ArtifactSigner

	// Scoring configuration. Zero values fall back to package defaults.
	Engine     *score.Engine
	Thresholds score.FlagThresholds

	// Pipeline tuning.
	ChartDays       int
	NewsFeeds       []string
	NewsLimit       int
	MinLiquidityUSD float64

	Logger  *zap.Logger
	Metrics *observability.Metrics
	Clock   func() time.Time
}

// Scanner runs the scan pipeline for one token at a time. The tree shape
// is built once and shared; per-run outcomes live in the Outcomes map
// returned by each run, so a single Scanner is safe for concurrent scans.
type Scanner struct {
	market    MarketDataClient
	liquidity LiquidityClient
	contract  ContractMetadataClient
	narrative NarrativeAnalyzer
	safety    SafetyAnalyzer
	renderer  ArtifactRenderer
	news      NewsAggregator
	signer    ArtifactSigner

	engine     *score.Engine
	thresholds score.FlagThresholds

	chartDays       int
	newsFeeds       []string
	newsLimit       int
	minLiquidityUSD float64

	tree    *Tree
	logger  *zap.Logger
	metrics *observability.Metrics
	clock   func() time.Time
}

// New creates a Scanner and validates its static execution tree.
func New(opts Options) (*Scanner, error) {
	if opts.Market == nil || opts.Liquidity == nil || opts.Contract == nil {
		return nil, fmt.Errorf("market, liquidity and contract clients are required")
	}
	if opts.Narrative == nil {
		return nil, fmt.Errorf("narrative analyzer is required")
	}
	if opts.Safety == nil {
		return nil, fmt.Errorf("safety analyzer is required")
	}
	if opts.Renderer == nil {
		return nil, fmt.Errorf("artifact renderer is required")
	}

	engine := opts.Engine
	if engine == nil {
		var err error
		engine, err = score.NewEngine(score.DefaultWeights())
		if err != nil {
			return nil, fmt.Errorf("build default score engine: %w", err)
		}
	}

	thresholds := opts.Thresholds
	if thresholds == (score.FlagThresholds{}) {
		thresholds = score.DefaultThresholds()
	}

	s := &Scanner{
		market:          opts.Market,
		liquidity:       opts.Liquidity,
		contract:        opts.Contract,
		narrative:       opts.Narrative,
		safety:          opts.Safety,
		renderer:        opts.Renderer,
		news:            opts.News,
		signer:          opts.Signer,
		engine:          engine,
		thresholds:      thresholds,
		chartDays:       opts.ChartDays,
		newsFeeds:       opts.NewsFeeds,
		newsLimit:       opts.NewsLimit,
		minLiquidityUSD: opts.MinLiquidityUSD,
		logger:          opts.Logger,
		metrics:         opts.Metrics,
		clock:           opts.Clock,
	}
	if s.chartDays <= 0 {
		s.chartDays = DefaultChartDays
	}
	if s.newsLimit <= 0 {
		s.newsLimit = DefaultNewsLimit
	}
	if s.minLiquidityUSD <= 0 {
		s.minLiquidityUSD = DefaultMinLiquidityUSD
	}
	if s.logger == nil {
		s.logger = zap.NewNop()
	}
	if s.clock == nil {
		s.clock = func() time.Time { return time.Now().UTC() }
	}

	tree, err := NewTree(s.buildTree())
	if err != nil {
		return nil, fmt.Errorf("build execution tree: %w", err)
	}
	s.tree = tree
	return s, nil
}

// buildTree declares the static pipeline shape. Child order is load-bearing:
// each sibling reads context fields written by the ones before it.
func (s *Scanner) buildTree() *Node {
	return &Node{
		Key:   "scan",
		Title: "Token Scan",
		Children: []*Node{
			{
				Key:   "collect",
				Title: "Data Collection",
				Children: []*Node{
					{Key: "market_chart", Title: "Market Chart", Description: "price/volume history", Action: s.fetchMarketChart},
					{Key: "liquidity_pairs", Title: "Liquidity Pairs", Description: "DEX pool depth", Action: s.fetchLiquidity},
					{Key: "contract_metadata", Title: "Contract Metadata", Description: "verification and source", Action: s.fetchContract},
					{Key: "news_feed", Title: "News Feed", Description: "keyword-matched news items", Action: s.collectNews},
				},
			},
			{
				Key:   "derive",
				Title: "Feature Derivation",
				Children: []*Node{
					{Key: "technical_indicators", Title: "Technical Indicators", Description: "RSI/MACD/volatility from price series", Action: s.computeIndicators},
					{Key: "market_snapshot", Title: "Market Snapshot", Description: "point-in-time market view", Action: s.buildSnapshot},
					{Key: "narrative_insight", Title: "Narrative Insight", Description: "sentiment and themes", Action: s.analyzeNarrative},
					{Key: "unlock_pressure", Title: "Unlock Pressure", Description: "decay-weighted dilution risk", Action: s.computeUnlockRisk},
				},
			},
			{
				Key:   "gate",
				Title: "Safety Gate",
				Children: []*Node{
					{Key: "contract_safety", Title: "Contract Safety", Description: "safety report from contract metadata", Action: s.evaluateSafety},
					{Key: "liquidity_guard", Title: "Liquidity Guard", Description: "minimum pool depth check", Action: s.checkLiquidityGuard},
				},
			},
			{
				Key:   "decide",
				Title: "Scoring & Decision",
				Children: []*Node{
					{Key: "feature_vector", Title: "Feature Vector", Description: "normalized features from all signals", Action: s.buildFeatures},
					{Key: "penalty_application", Title: "Penalty Application", Description: "safety and liquidity penalties", Action: s.applyPenalties},
					{Key: "gem_score", Title: "Gem Score", Description: "weighted composite score", Action: s.computeScore},
					{Key: "review_flag", Title: "Review Flag", Description: "threshold decision with debug trail", Action: s.decideFlag},
					{Key: "scan_artifact", Title: "Scan Artifact", Description: "result assembly and rendering", Action: s.assembleResult},
				},
			},
		},
	}
}

// Scan runs the pipeline for one token. On success the result is complete
// and the trace explains every stage; on failure the result is nil and the
// trace shows exactly which branch failed.
func (s *Scanner) Scan(ctx context.Context, token domain.TokenConfig) (*domain.ScanResult, TraceNode, error) {
	if err := token.Validate(); err != nil {
		return nil, TraceNode{}, err
	}

	started := s.clock()
	sc := NewScanContext(token)
	outcomes := s.tree.Run(ctx, sc)
	trace := s.tree.Trace(outcomes)

	s.observe(token, outcomes, sc, started)

	if sc.Result == nil {
		return nil, trace, fmt.Errorf("%w: %s", ErrNoResult, firstFailure(outcomes))
	}
	return sc.Result, trace, nil
}

// observe records run metrics and logs the outcome summary.
func (s *Scanner) observe(token domain.TokenConfig, outcomes Outcomes, sc *ScanContext, started time.Time) {
	elapsed := s.clock().Sub(started)
	status := "ok"
	if sc.Result == nil {
		status = "failed"
	}

	if s.metrics != nil {
		s.metrics.ScansTotal.WithLabelValues(status).Inc()
		s.metrics.ScanDuration.Observe(elapsed.Seconds())
		for key, out := range outcomes {
			s.metrics.NodeOutcomes.WithLabelValues(key, string(out.Status)).Inc()
		}
		if sc.Result != nil {
			s.metrics.GemScore.Observe(sc.Result.GemScore.Score)
			s.metrics.LastSuccessfulScan.SetToCurrentTime()
			if sc.Result.Flagged {
				s.metrics.FlagsTotal.Inc()
			}
		}
	}

	fields := []zap.Field{
		zap.String("token", token.TokenID),
		zap.Duration("elapsed", elapsed),
		zap.Int("nodes_run", len(outcomes)),
	}
	if sc.Result != nil {
		fields = append(fields,
			zap.Float64("score", sc.Result.GemScore.Score),
			zap.Float64("confidence", sc.Result.GemScore.Confidence),
			zap.Bool("flagged", sc.Result.Flagged),
		)
		s.logger.Info("scan completed", fields...)
	} else {
		fields = append(fields, zap.String("failure", firstFailure(outcomes)))
		s.logger.Warn("scan failed", fields...)
	}
}

// firstFailure summarizes the failed node that stopped the result path.
func firstFailure(outcomes Outcomes) string {
	for key, out := range outcomes {
		if out.Status == StatusFailure && !out.Proceed {
			return fmt.Sprintf("node %s failed: %s", key, out.Summary)
		}
	}
	return "no failing node recorded"
}
