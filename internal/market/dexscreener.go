package market

import (
	"context"
	"fmt"
	"net/url"

	"gemscan/internal/domain"
)

// DefaultDexScreenerBaseURL is the public API endpoint.
const DefaultDexScreenerBaseURL = "https://api.dexscreener.com/latest/dex"

// DexScreenerClient fetches DEX pair liquidity from the DexScreener API.
type DexScreenerClient struct {
	base    *Client
	baseURL string
}

// NewDexScreenerClient creates a liquidity client.
func NewDexScreenerClient(base *Client, baseURL string) *DexScreenerClient {
	if baseURL == "" {
		baseURL = DefaultDexScreenerBaseURL
	}
	return &DexScreenerClient{base: base, baseURL: baseURL}
}

type dexScreenerResponse struct {
	Pairs []struct {
		PairAddress string `json:"pairAddress"`
		DexID       string `json:"dexId"`
		Liquidity   struct {
			USD float64 `json:"usd"`
		} `json:"liquidity"`
		Volume struct {
			H24 float64 `json:"h24"`
		} `json:"volume"`
	} `json:"pairs"`
}

// FetchPairs fetches pairs for a token address and returns the deepest
// pool. Returns an error when no pair is listed.
func (c *DexScreenerClient) FetchPairs(ctx context.Context, address string) (*domain.LiquidityInfo, error) {
	endpoint := fmt.Sprintf("%s/tokens/%s", c.baseURL, url.PathEscape(address))

	var resp dexScreenerResponse
	if err := c.base.getJSON(ctx, endpoint, nil, &resp); err != nil {
		return nil, fmt.Errorf("fetch pairs for %s: %w", address, err)
	}
	if len(resp.Pairs) == 0 {
		return nil, fmt.Errorf("no DEX pairs listed for %s", address)
	}

	best := resp.Pairs[0]
	for _, p := range resp.Pairs[1:] {
		if p.Liquidity.USD > best.Liquidity.USD {
			best = p
		}
	}
	return &domain.LiquidityInfo{
		LiquidityUSD: best.Liquidity.USD,
		Volume24hUSD: best.Volume.H24,
		PairAddress:  best.PairAddress,
		DexID:        best.DexID,
	}, nil
}
