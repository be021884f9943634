package market

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gemscan/internal/domain"
)

func TestFetchMarketChart(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/coins/glowcoin/market_chart", r.URL.Path)
		assert.Equal(t, "usd", r.URL.Query().Get("vs_currency"))
		assert.Equal(t, "14", r.URL.Query().Get("days"))
		assert.Equal(t, "demo-key", r.Header.Get("x-cg-demo-api-key"))
		fmt.Fprint(w, `{
			"prices": [[1700000000000, 1.25], [1700086400000, 1.30]],
			"total_volumes": [[1700000000000, 50000], [1700086400000, 60000]]
		}`)
	}))
	t.Cleanup(srv.Close)

	client := NewCoinGeckoClient(fastClient(), srv.URL, "demo-key")
	chart, err := client.FetchMarketChart(context.Background(), "glowcoin", 14)
	require.NoError(t, err)

	assert.Equal(t, "glowcoin", chart.TokenID)
	require.Len(t, chart.Prices, 2)
	assert.Equal(t, domain.PricePoint{TimestampMs: 1700000000000, Value: 1.25}, chart.Prices[0])
	require.Len(t, chart.Volumes, 2)
	assert.Equal(t, 60000.0, chart.Volumes[1].Value)
}

func TestFetchMarketChartSkipsMalformedPairs(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, `{"prices": [[1700000000000, 1.25], [1700086400000], []], "total_volumes": []}`)
	}))
	t.Cleanup(srv.Close)

	client := NewCoinGeckoClient(fastClient(), srv.URL, "")
	chart, err := client.FetchMarketChart(context.Background(), "glowcoin", 7)
	require.NoError(t, err)
	assert.Len(t, chart.Prices, 1)
	assert.Empty(t, chart.Volumes)
}

func TestFetchMarketChartNoAPIKeyHeader(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, present := r.Header[http.CanonicalHeaderKey("x-cg-demo-api-key")]
		assert.False(t, present, "no key header on the public tier")
		fmt.Fprint(w, `{"prices": [], "total_volumes": []}`)
	}))
	t.Cleanup(srv.Close)

	client := NewCoinGeckoClient(fastClient(), srv.URL, "")
	chart, err := client.FetchMarketChart(context.Background(), "glowcoin", 7)
	require.NoError(t, err)
	assert.True(t, chart.Empty())
}

func TestFetchMarketChartUpstreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	t.Cleanup(srv.Close)

	client := NewCoinGeckoClient(fastClient(), srv.URL, "")
	_, err := client.FetchMarketChart(context.Background(), "unknown-token", 7)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown-token")
}

func TestFetchMarketChartEscapesTokenID(t *testing.T) {
	var path string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path = r.URL.EscapedPath()
		fmt.Fprint(w, `{"prices": [], "total_volumes": []}`)
	}))
	t.Cleanup(srv.Close)

	client := NewCoinGeckoClient(NewClient(WithMaxRetries(0), WithRetryDelay(time.Millisecond)), srv.URL, "")
	_, err := client.FetchMarketChart(context.Background(), "weird/id", 7)
	require.NoError(t, err)
	assert.Contains(t, path, "weird%2Fid")
}
