package scan

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gemscan/internal/artifacts"
	"gemscan/internal/domain"
	"gemscan/internal/market/stub"
	"gemscan/internal/narrative"
	"gemscan/internal/safety"
)

func testToken() domain.TokenConfig {
	return domain.TokenConfig{
		TokenID:         "glowcoin",
		Symbol:          "GLOW",
		Name:            "Glowcoin",
		Chain:           domain.ChainEthereum,
		ContractAddress: "0x1111111111111111111111111111111111111111",
		Keywords:        []string{"glow", "defi"},
	}
}

func newTestScanner(t *testing.T, mutate func(*Options)) *Scanner {
	t.Helper()

	opts := Options{
		Market:    stub.MarketClient{},
		Liquidity: stub.LiquidityClient{},
		Contract:  stub.ContractClient{},
		News:      stub.NewsClient{},
		Narrative: narrative.NewHeuristicAnalyzer(),
		Safety:    safety.NewAnalyzer(),
		Renderer:  artifacts.NewRenderer(),
		NewsFeeds: []string{"stub://feed"},
		Clock:     func() time.Time { return stub.Clock },
	}
	if mutate != nil {
		mutate(&opts)
	}

	s, err := New(opts)
	require.NoError(t, err)
	return s
}

func TestNewRequiresCollaborators(t *testing.T) {
	_, err := New(Options{})
	require.Error(t, err)
}

func TestScanProducesCompleteResult(t *testing.T) {
	s := newTestScanner(t, nil)

	res, trace, err := s.Scan(context.Background(), testToken())
	require.NoError(t, err)
	require.NotNil(t, res)

	assert.Len(t, res.ScanID, 64)
	assert.Equal(t, "glowcoin", res.Token.TokenID)
	assert.Equal(t, stub.Clock.UnixMilli(), res.CompletedAt)

	require.NotNil(t, res.Market)
	require.NotNil(t, res.Narrative)
	require.NotNil(t, res.Safety)
	assert.NotEmpty(t, res.News)
	assert.NotEmpty(t, res.RawFeatures)
	assert.NotEmpty(t, res.AdjustedFeatures)
	assert.NotEmpty(t, res.ArtifactMarkdown)
	assert.NotEmpty(t, res.ArtifactHTML)
	assert.Len(t, res.FlagDebug, 4)

	// Contributions sum exactly to the reported score.
	var sum float64
	for _, c := range res.GemScore.Contributions {
		sum += c
	}
	assert.InDelta(t, res.GemScore.Score, sum, 1e-9)

	assert.Equal(t, "scan", trace.Key)
	require.NotNil(t, trace.Outcome)
	assert.Equal(t, StatusSuccess, trace.Outcome.Status)
}

func TestScanIsDeterministic(t *testing.T) {
	s := newTestScanner(t, nil)

	first, _, err := s.Scan(context.Background(), testToken())
	require.NoError(t, err)
	second, _, err := s.Scan(context.Background(), testToken())
	require.NoError(t, err)

	assert.Equal(t, first.ScanID, second.ScanID)
	assert.Equal(t, first.GemScore.Score, second.GemScore.Score)
	assert.Equal(t, first.GemScore.Confidence, second.GemScore.Confidence)
	assert.Equal(t, first.Flagged, second.Flagged)
	assert.Equal(t, first.ArtifactMarkdown, second.ArtifactMarkdown)
}

func TestScanRejectsInvalidToken(t *testing.T) {
	s := newTestScanner(t, nil)

	_, _, err := s.Scan(context.Background(), domain.TokenConfig{})
	require.ErrorIs(t, err, domain.ErrInvalidTokenConfig)
}

func TestScanWithoutNewsSkipsAndStillSucceeds(t *testing.T) {
	s := newTestScanner(t, func(opts *Options) {
		opts.News = nil
		opts.NewsFeeds = nil
	})

	res, trace, err := s.Scan(context.Background(), testToken())
	require.NoError(t, err)
	require.NotNil(t, res)

	outcomes := flattenTrace(trace)
	assert.Equal(t, StatusSkipped, outcomes["news_feed"].Status)
	// No texts reach the narrative stage, so it degrades to neutral.
	assert.Equal(t, StatusPartialSuccess, outcomes["narrative_insight"].Status)
	assert.Equal(t, StatusSuccess, outcomes["gem_score"].Status)
	assert.Empty(t, res.News)
	assert.Nil(t, res.Narrative)

	// Neutral sentiment default applies.
	assert.Equal(t, 0.5, res.RawFeatures[domain.FeatureSentimentScore])
}

type failingMarketClient struct{}

func (failingMarketClient) FetchMarketChart(context.Context, string, int) (*domain.MarketChart, error) {
	return nil, errors.New("provider down")
}

func TestScanDegradesWhenMarketDataUnavailable(t *testing.T) {
	s := newTestScanner(t, func(opts *Options) {
		opts.Market = failingMarketClient{}
	})

	res, trace, err := s.Scan(context.Background(), testToken())
	require.NoError(t, err)
	require.NotNil(t, res)

	outcomes := flattenTrace(trace)
	assert.Equal(t, StatusPartialSuccess, outcomes["market_chart"].Status)
	assert.Equal(t, StatusPartialSuccess, outcomes["technical_indicators"].Status)
	// Liquidity data still produces a snapshot.
	assert.Equal(t, StatusSuccess, outcomes["market_snapshot"].Status)
	assert.Less(t, res.GemScore.Confidence, 100.0)
}

func TestScanTokenWithoutContractSkipsContractStages(t *testing.T) {
	s := newTestScanner(t, nil)

	token := testToken()
	token.ContractAddress = ""

	res, trace, err := s.Scan(context.Background(), token)
	require.NoError(t, err)
	require.NotNil(t, res)

	outcomes := flattenTrace(trace)
	assert.Equal(t, StatusSkipped, outcomes["liquidity_pairs"].Status)
	assert.Equal(t, StatusSkipped, outcomes["contract_metadata"].Status)
	// Conservative safety default keeps the token below the flag floor.
	assert.Equal(t, StatusPartialSuccess, outcomes["contract_safety"].Status)
	assert.True(t, res.Safety.Flagged(domain.SafetyFlagMetadataMissing))
	assert.False(t, res.Flagged)
	assert.False(t, res.FlagDebug["contract_safety"].Pass)
}

func TestScanUnhealthyLiquidityCapsDepth(t *testing.T) {
	s := newTestScanner(t, func(opts *Options) {
		// Stub pools carry 200k+ liquidity; an absurd floor forces the guard to fail.
		opts.MinLiquidityUSD = 10_000_000_000
	})

	res, _, err := s.Scan(context.Background(), testToken())
	require.NoError(t, err)

	assert.LessOrEqual(t, res.AdjustedFeatures[domain.FeatureLiquidityDepth], 0.3)
}

// flattenTrace collects node outcomes from a trace by key.
func flattenTrace(tn TraceNode) map[string]NodeOutcome {
	out := make(map[string]NodeOutcome)
	var walk func(TraceNode)
	walk = func(n TraceNode) {
		if n.Outcome != nil {
			out[n.Key] = *n.Outcome
		}
		for _, c := range n.Children {
			walk(c)
		}
	}
	walk(tn)
	return out
}
