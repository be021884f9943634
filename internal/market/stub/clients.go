// Package stub provides deterministic in-memory collaborators for tests
// and for running the CLIs without live API access.
package stub

import (
	"context"
	"hash/fnv"
	"math"
	"time"

	"gemscan/internal/domain"
)

// Clock is the fixed timestamp all stub data is anchored to, so repeated
// runs over the same token produce identical results.
var Clock = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

// MarketClient synthesizes a plausible price/volume history from the
// token ID. The same token always yields the same chart.
type MarketClient struct{}

func (MarketClient) FetchMarketChart(_ context.Context, tokenID string, days int) (*domain.MarketChart, error) {
	seed := float64(hashOf(tokenID)%1000) / 1000.0
	basePrice := 0.05 + seed*2.0
	baseVolume := 100_000 + seed*1_500_000

	samples := days * 4
	chart := &domain.MarketChart{
		TokenID: tokenID,
		Prices:  make([]domain.PricePoint, 0, samples),
		Volumes: make([]domain.PricePoint, 0, samples),
	}
	start := Clock.Add(-time.Duration(days) * 24 * time.Hour)
	for i := 0; i < samples; i++ {
		ts := start.Add(time.Duration(i) * 6 * time.Hour).UnixMilli()
		// Gentle uptrend with a deterministic wobble.
		drift := 1 + 0.002*float64(i)
		wobble := 1 + 0.05*math.Sin(float64(i)*0.7+seed*10)
		chart.Prices = append(chart.Prices, domain.PricePoint{
			TimestampMs: ts,
			Value:       basePrice * drift * wobble,
		})
		chart.Volumes = append(chart.Volumes, domain.PricePoint{
			TimestampMs: ts,
			Value:       baseVolume * (1 + 0.1*math.Cos(float64(i)*0.5)),
		})
	}
	return chart, nil
}

// LiquidityClient returns a fixed healthy pool derived from the address.
type LiquidityClient struct{}

func (LiquidityClient) FetchPairs(_ context.Context, address string) (*domain.LiquidityInfo, error) {
	seed := float64(hashOf(address)%1000) / 1000.0
	return &domain.LiquidityInfo{
		LiquidityUSD: 200_000 + seed*800_000,
		Volume24hUSD: 300_000 + seed*1_200_000,
		PairAddress:  address,
		DexID:        "stubswap",
	}, nil
}

// ContractClient returns verified metadata with a benign source body.
type ContractClient struct{}

func (ContractClient) FetchContractSource(_ context.Context, address string) (*domain.ContractMetadata, error) {
	return &domain.ContractMetadata{
		Address:     address,
		Verified:    true,
		ABI:         `[{"type":"function","name":"transfer"}]`,
		SourceCode:  "contract Token { function transfer(address to, uint256 amount) public {} }",
		HolderCount: 1200 + int64(hashOf(address)%5000),
		FetchedAt:   Clock.UnixMilli(),
	}, nil
}

// NewsClient returns a small positive batch without touching the network.
type NewsClient struct{}

func (NewsClient) Collect(_ context.Context, _ []string, keywords []string, limit int) ([]domain.NewsItem, error) {
	items := []domain.NewsItem{
		{
			Title:       "Protocol ships long-awaited mainnet upgrade",
			Link:        "https://news.example.com/upgrade",
			Source:      "stubwire",
			Summary:     "A bullish launch milestone with growth in active wallets.",
			PublishedAt: Clock.Add(-3 * time.Hour),
		},
		{
			Title:       "New exchange listing announced for next week",
			Link:        "https://news.example.com/listing",
			Source:      "stubwire",
			Summary:     "Listing and partnership expand the community reach.",
			PublishedAt: Clock.Add(-26 * time.Hour),
		},
		{
			Title:       "Ecosystem report highlights rising adoption",
			Link:        "https://news.example.com/report",
			Source:      "stubwire",
			Summary:     "Adoption surge across DeFi integrations.",
			PublishedAt: Clock.Add(-50 * time.Hour),
		},
	}
	if limit > 0 && len(items) > limit {
		items = items[:limit]
	}
	_ = keywords
	return items, nil
}

func hashOf(s string) uint64 {
	h := fnv.New64a()
	h.Write([]byte(s))
	return h.Sum64()
}
