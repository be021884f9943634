package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMarketChartEmpty(t *testing.T) {
	var nilChart *MarketChart
	assert.True(t, nilChart.Empty())
	assert.True(t, (&MarketChart{}).Empty())

	chart := &MarketChart{Prices: []PricePoint{{TimestampMs: 1, Value: 2}}}
	assert.False(t, chart.Empty())
}

func TestMarketChartLastPrice(t *testing.T) {
	var nilChart *MarketChart
	_, ok := nilChart.LastPrice()
	assert.False(t, ok)

	chart := &MarketChart{Prices: []PricePoint{
		{TimestampMs: 1, Value: 10},
		{TimestampMs: 2, Value: 20},
		{TimestampMs: 3, Value: 30},
	}}
	last, ok := chart.LastPrice()
	require.True(t, ok)
	assert.Equal(t, PricePoint{TimestampMs: 3, Value: 30}, last)
}

func TestSafetyReportFlagged(t *testing.T) {
	var nilReport *SafetyReport
	assert.False(t, nilReport.Flagged(SafetyFlagOwnerCanMint))
	assert.False(t, (&SafetyReport{}).Flagged(SafetyFlagOwnerCanMint))

	report := &SafetyReport{Flags: map[string]bool{SafetyFlagBlacklist: true}}
	assert.True(t, report.Flagged(SafetyFlagBlacklist))
	assert.False(t, report.Flagged(SafetyFlagProxy))
}

func TestFeatureVectorClone(t *testing.T) {
	orig := FeatureVector{FeatureRSI: 0.5}
	clone := orig.Clone()
	clone[FeatureRSI] = 0.9

	assert.Equal(t, 0.5, orig[FeatureRSI])

	var nilVec FeatureVector
	assert.NotNil(t, nilVec.Clone(), "clone of nil is an empty usable vector")
}

func TestFeatureVectorGet(t *testing.T) {
	v := FeatureVector{FeatureRSI: 0.5}
	assert.Equal(t, 0.5, v.Get(FeatureRSI, 0.1))
	assert.Equal(t, 0.1, v.Get(FeatureMACD, 0.1))
}
