package domain

// PricePoint is one (timestamp, value) sample in a market series.
type PricePoint struct {
	TimestampMs int64
	Value       float64
}

// MarketChart holds raw price and volume history for one token.
type MarketChart struct {
	TokenID string
	Prices  []PricePoint
	Volumes []PricePoint
}

// Empty reports whether the chart carries no price samples.
func (m *MarketChart) Empty() bool {
	return m == nil || len(m.Prices) == 0
}

// LastPrice returns the most recent price sample, or (0, false) if empty.
func (m *MarketChart) LastPrice() (PricePoint, bool) {
	if m.Empty() {
		return PricePoint{}, false
	}
	return m.Prices[len(m.Prices)-1], true
}

// LiquidityInfo holds DEX pool depth for one token.
type LiquidityInfo struct {
	LiquidityUSD float64
	Volume24hUSD float64
	PairAddress  string
	DexID        string
}

// MarketSnapshot is the point-in-time market view embedded in a ScanResult.
type MarketSnapshot struct {
	Symbol       string
	PriceUSD     float64
	LiquidityUSD float64
	Volume24hUSD float64
	HolderCount  int64
	TimestampMs  int64
}
