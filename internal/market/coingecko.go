package market

import (
	"context"
	"fmt"
	"net/url"

	"gemscan/internal/domain"
)

// DefaultCoinGeckoBaseURL is the public API endpoint.
const DefaultCoinGeckoBaseURL = "https://api.coingecko.com/api/v3"

// CoinGeckoClient fetches market charts from the CoinGecko API.
type CoinGeckoClient struct {
	base    *Client
	baseURL string
	apiKey  string
}

// NewCoinGeckoClient creates a market-data client. apiKey may be empty
// for the public rate-limited tier.
func NewCoinGeckoClient(base *Client, baseURL, apiKey string) *CoinGeckoClient {
	if baseURL == "" {
		baseURL = DefaultCoinGeckoBaseURL
	}
	return &CoinGeckoClient{base: base, baseURL: baseURL, apiKey: apiKey}
}

// marketChartResponse mirrors the /coins/{id}/market_chart payload:
// arrays of [timestamp_ms, value] pairs.
type marketChartResponse struct {
	Prices       [][]float64 `json:"prices"`
	TotalVolumes [][]float64 `json:"total_volumes"`
}

// FetchMarketChart fetches daily price and volume history for a token.
func (c *CoinGeckoClient) FetchMarketChart(ctx context.Context, tokenID string, days int) (*domain.MarketChart, error) {
	endpoint := fmt.Sprintf("%s/coins/%s/market_chart?vs_currency=usd&days=%d",
		c.baseURL, url.PathEscape(tokenID), days)

	headers := map[string]string{}
	if c.apiKey != "" {
		headers["x-cg-demo-api-key"] = c.apiKey
	}

	var resp marketChartResponse
	if err := c.base.getJSON(ctx, endpoint, headers, &resp); err != nil {
		return nil, fmt.Errorf("fetch market chart for %s: %w", tokenID, err)
	}

	chart := &domain.MarketChart{
		TokenID: tokenID,
		Prices:  toPoints(resp.Prices),
		Volumes: toPoints(resp.TotalVolumes),
	}
	return chart, nil
}

// toPoints converts [timestamp_ms, value] pairs, skipping malformed rows.
func toPoints(pairs [][]float64) []domain.PricePoint {
	points := make([]domain.PricePoint, 0, len(pairs))
	for _, p := range pairs {
		if len(p) != 2 {
			continue
		}
		points = append(points, domain.PricePoint{TimestampMs: int64(p[0]), Value: p[1]})
	}
	return points
}
