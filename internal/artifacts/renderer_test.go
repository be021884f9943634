package artifacts

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gemscan/internal/domain"
)

func sampleResult() *domain.ScanResult {
	return &domain.ScanResult{
		ScanID: strings.Repeat("ab", 32),
		Token: domain.TokenConfig{
			TokenID: "glowcoin",
			Symbol:  "GLOW",
			Name:    "Glowcoin",
		},
		CompletedAt: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC).UnixMilli(),
		Market: &domain.MarketSnapshot{
			PriceUSD:     1.234567,
			LiquidityUSD: 420000,
			Volume24hUSD: 900000,
			HolderCount:  1500,
		},
		Narrative: &domain.NarrativeInsight{
			SentimentScore: 0.72,
			Momentum:       0.4,
			Themes:         []string{"defi", "l2"},
		},
		Safety: &domain.SafetyReport{
			Score:    0.85,
			Severity: "low",
			Findings: []domain.SafetyFinding{
				{Name: "proxy_pattern", Detail: "upgradeable proxy pattern present", Severity: "low", Penalty: 0.1},
			},
		},
		RawFeatures: domain.FeatureVector{
			domain.FeatureContractSafety: 0.9,
			domain.FeatureLiquidityDepth: 0.42,
		},
		AdjustedFeatures: domain.FeatureVector{
			domain.FeatureContractSafety: 0.85,
			domain.FeatureLiquidityDepth: 0.42,
		},
		GemScore: domain.GemScoreResult{
			Score:      68.4,
			Confidence: 90,
			Contributions: map[string]float64{
				domain.FeatureContractSafety: 12.75,
				domain.FeatureLiquidityDepth: 4.62,
			},
		},
		Flagged: true,
		FlagDebug: map[string]domain.FlagCheck{
			"score":      {Threshold: ">= 60.0", Actual: "68.40", Pass: true},
			"confidence": {Threshold: ">= 50.0", Actual: "90.00", Pass: true},
		},
		News: []domain.NewsItem{
			{Title: "Glowcoin ships v2", Link: "https://example.com/v2", Source: "Crypto Wire"},
		},
	}
}

func TestRenderMarkdown(t *testing.T) {
	md := NewRenderer().RenderMarkdown(sampleResult())

	assert.Contains(t, md, "# Gem Scan: Glowcoin (GLOW)")
	assert.Contains(t, md, "## Verdict: FLAGGED FOR REVIEW")
	assert.Contains(t, md, "GemScore: **68.40** / 100 (confidence 90.0)")
	assert.Contains(t, md, "2026-03-01T12:00:00Z")
	assert.Contains(t, md, "| score | >= 60.0 | 68.40 | PASS |")
	assert.Contains(t, md, "| Liquidity USD | 420000 |")
	assert.Contains(t, md, "**proxy_pattern** (low): upgradeable proxy pattern present")
	assert.Contains(t, md, "Themes: defi, l2")
	assert.Contains(t, md, "[Glowcoin ships v2](https://example.com/v2)")

	// Contributions render largest first with raw and adjusted values.
	safetyRow := strings.Index(md, "| ContractSafety | 0.900 | 0.850 | 12.75 |")
	liquidityRow := strings.Index(md, "| LiquidityDepth | 0.420 | 0.420 | 4.62 |")
	require.GreaterOrEqual(t, safetyRow, 0)
	require.GreaterOrEqual(t, liquidityRow, 0)
	assert.Less(t, safetyRow, liquidityRow)
}

func TestRenderMarkdownOmitsEmptySections(t *testing.T) {
	res := sampleResult()
	res.Flagged = false
	res.Market = nil
	res.Narrative = nil
	res.Safety = nil
	res.News = nil

	md := NewRenderer().RenderMarkdown(res)
	assert.Contains(t, md, "## Verdict: NOT FLAGGED")
	assert.NotContains(t, md, "## Market")
	assert.NotContains(t, md, "## Narrative")
	assert.NotContains(t, md, "## Contract Safety")
	assert.NotContains(t, md, "## News")
}

func TestRenderMarkdownDeterministic(t *testing.T) {
	r := NewRenderer()
	assert.Equal(t, r.RenderMarkdown(sampleResult()), r.RenderMarkdown(sampleResult()))
}

func TestRenderHTML(t *testing.T) {
	page, err := NewRenderer().RenderHTML(sampleResult())
	require.NoError(t, err)

	assert.Contains(t, page, "<title>Gem Scan: GLOW</title>")
	assert.Contains(t, page, `<h2 class="flagged">Flagged for review</h2>`)
	assert.Contains(t, page, "<strong>68.40</strong>")
	assert.Contains(t, page, "<td>confidence</td>")
	assert.Contains(t, page, "proxy_pattern")
}

func TestRenderHTMLEscapesContent(t *testing.T) {
	res := sampleResult()
	res.Token.Name = `<script>alert("x")</script>`

	page, err := NewRenderer().RenderHTML(res)
	require.NoError(t, err)
	assert.NotContains(t, page, "<script>alert")
}
