package market

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"gemscan/internal/domain"
)

// DefaultEtherscanBaseURL is the public API endpoint.
const DefaultEtherscanBaseURL = "https://api.etherscan.io/api"

// EtherscanClient fetches contract verification data from an
// Etherscan-compatible explorer API.
type EtherscanClient struct {
	base    *Client
	baseURL string
	apiKey  string
	clock   func() time.Time
}

// NewEtherscanClient creates a contract-metadata client.
func NewEtherscanClient(base *Client, baseURL, apiKey string) *EtherscanClient {
	if baseURL == "" {
		baseURL = DefaultEtherscanBaseURL
	}
	return &EtherscanClient{
		base:    base,
		baseURL: baseURL,
		apiKey:  apiKey,
		clock:   func() time.Time { return time.Now().UTC() },
	}
}

type etherscanSourceResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
	Result  []struct {
		SourceCode   string `json:"SourceCode"`
		ABI          string `json:"ABI"`
		ContractName string `json:"ContractName"`
	} `json:"result"`
}

type etherscanCountResponse struct {
	Status string `json:"status"`
	Result string `json:"result"`
}

// FetchContractSource fetches verification status and source for a
// contract. The holder count uses a separate endpoint and degrades to 0
// when unavailable.
func (c *EtherscanClient) FetchContractSource(ctx context.Context, address string) (*domain.ContractMetadata, error) {
	endpoint := fmt.Sprintf("%s?module=contract&action=getsourcecode&address=%s&apikey=%s",
		c.baseURL, url.QueryEscape(address), url.QueryEscape(c.apiKey))

	var resp etherscanSourceResponse
	if err := c.base.getJSON(ctx, endpoint, nil, &resp); err != nil {
		return nil, fmt.Errorf("fetch contract source for %s: %w", address, err)
	}
	if resp.Status != "1" || len(resp.Result) == 0 {
		return nil, fmt.Errorf("explorer returned no source for %s: %s", address, resp.Message)
	}

	result := resp.Result[0]
	meta := &domain.ContractMetadata{
		Address:    address,
		Verified:   result.SourceCode != "" && result.ABI != "Contract source code not verified",
		ABI:        result.ABI,
		SourceCode: result.SourceCode,
		FetchedAt:  c.clock().UnixMilli(),
	}
	meta.HolderCount = c.fetchHolderCount(ctx, address)
	return meta, nil
}

// fetchHolderCount asks the explorer for the token holder count.
// Requires a pro API tier on some explorers; 0 means unknown.
func (c *EtherscanClient) fetchHolderCount(ctx context.Context, address string) int64 {
	endpoint := fmt.Sprintf("%s?module=token&action=tokenholdercount&contractaddress=%s&apikey=%s",
		c.baseURL, url.QueryEscape(address), url.QueryEscape(c.apiKey))

	var resp etherscanCountResponse
	if err := c.base.getJSON(ctx, endpoint, nil, &resp); err != nil {
		return 0
	}
	if resp.Status != "1" {
		return 0
	}
	count, err := strconv.ParseInt(resp.Result, 10, 64)
	if err != nil {
		return 0
	}
	return count
}
