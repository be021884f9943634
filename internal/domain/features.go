package domain

// Feature vector keys. All keys except MACD hold normalized values in [0,1];
// MACD is sign-carrying and excluded from the score weight table.
const (
	FeatureSentimentScore    = "SentimentScore"
	FeatureAccumulationScore = "AccumulationScore"
	FeatureOnchainActivity   = "OnchainActivity"
	FeatureLiquidityDepth    = "LiquidityDepth"
	FeatureTokenomicsRisk    = "TokenomicsRisk"
	FeatureContractSafety    = "ContractSafety"
	FeatureNarrativeMomentum = "NarrativeMomentum"
	FeatureCommunityGrowth   = "CommunityGrowth"
	FeatureUpcomingUnlock    = "UpcomingUnlockRisk"
	FeatureRSI               = "RSI"
	FeatureMACD              = "MACD"
	FeatureVolatility        = "Volatility"
	FeatureRecency           = "Recency"
	FeatureDataCompleteness  = "DataCompleteness"
)

// FeatureVector maps feature keys to values.
type FeatureVector map[string]float64

// Clone returns an independent copy of the vector.
func (v FeatureVector) Clone() FeatureVector {
	out := make(FeatureVector, len(v))
	for k, val := range v {
		out[k] = val
	}
	return out
}

// Get returns the value for key, or fallback if the key is absent.
func (v FeatureVector) Get(key string, fallback float64) float64 {
	if val, ok := v[key]; ok {
		return val
	}
	return fallback
}

// GemScoreResult is the composite score output.
// Score and Confidence are in [0,100]; Contributions sums to Score.
type GemScoreResult struct {
	Score         float64
	Confidence    float64
	Contributions map[string]float64
}
