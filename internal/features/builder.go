package features

import (
	"gemscan/internal/domain"
)

// Normalization ceilings. Values at or above the ceiling map to 1.0.
const (
	liquidityNormUSD  = 1_000_000.0 // pool depth considered "deep"
	activityNormUSD   = 2_000_000.0 // 24h volume considered "very active"
	communityNormHits = 25.0        // news items considered "loud"
	volumeTrendNorm   = 2.0         // 2x recent/overall volume ratio saturates
	volatilityNorm    = 0.5         // stddev of returns considered extreme
)

// Documented defaults for absent inputs.
const (
	defaultSentiment      = 0.5 // neutral
	defaultContractSafety = 0.5 // unknown contract
)

// unlockRiskCapThreshold and tokenomicsRiskCap implement the dilution
// dominance rule: a large near-term unlock caps the tokenomics score
// regardless of its computed value.
const (
	unlockRiskCapThreshold = 0.5
	tokenomicsRiskCap      = 0.4
)

// BuildInput carries the signals available to the feature builder.
// Nil fields mean the corresponding upstream stage produced nothing;
// each maps to a documented default rather than an error.
type BuildInput struct {
	Snapshot      *domain.MarketSnapshot
	Technical     map[string]float64
	Narrative     *domain.NarrativeInsight
	ContractScore *float64
	UnlockRisk    *float64
	NewsCount     int
	HasLiquidity  bool
}

// requiredInputs is the number of signal-bearing inputs counted by
// DataCompleteness: market snapshot, technicals, narrative, contract
// score, and liquidity.
const requiredInputs = 5

// Normalize maps value into [0,1] against an expected maximum.
func Normalize(value, maxValue float64) float64 {
	if maxValue <= 0 {
		return 0
	}
	return Clamp(value/maxValue, 0, 1)
}

// Clamp bounds v to [lo, hi].
func Clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// BuildFeatureVector assembles the normalized feature vector. Every key
// except MACD lies in [0,1]; MACD is sign-carrying and excluded from the
// score weight table.
func BuildFeatureVector(in BuildInput) domain.FeatureVector {
	v := make(domain.FeatureVector, 14)

	unlockRisk := 0.0
	if in.UnlockRisk != nil {
		unlockRisk = Clamp(*in.UnlockRisk, 0, 1)
	}
	v[domain.FeatureUpcomingUnlock] = unlockRisk

	// Market-derived features. Absent liquidity/activity default to 0.
	if in.Snapshot != nil {
		v[domain.FeatureLiquidityDepth] = Normalize(in.Snapshot.LiquidityUSD, liquidityNormUSD)
		v[domain.FeatureOnchainActivity] = Normalize(in.Snapshot.Volume24hUSD, activityNormUSD)
	} else {
		v[domain.FeatureLiquidityDepth] = 0
		v[domain.FeatureOnchainActivity] = 0
	}

	// Technical features.
	if in.Technical != nil {
		v[domain.FeatureRSI] = Normalize(in.Technical[IndicatorRSI], 100)
		v[domain.FeatureMACD] = in.Technical[IndicatorMACD]
		v[domain.FeatureVolatility] = Normalize(in.Technical[IndicatorVolatility], volatilityNorm)
		v[domain.FeatureRecency] = Clamp(in.Technical[IndicatorRecency], 0, 1)
		v[domain.FeatureAccumulationScore] = Normalize(in.Technical[IndicatorVolumeTrend], volumeTrendNorm)
	} else {
		v[domain.FeatureRSI] = 0.5
		v[domain.FeatureMACD] = 0
		v[domain.FeatureVolatility] = 0
		v[domain.FeatureRecency] = 0
		v[domain.FeatureAccumulationScore] = 0
	}

	// Narrative features. Absent sentiment defaults to neutral.
	if in.Narrative != nil {
		v[domain.FeatureSentimentScore] = Clamp(in.Narrative.SentimentScore, 0, 1)
		v[domain.FeatureNarrativeMomentum] = Clamp(in.Narrative.Momentum, 0, 1)
		v[domain.FeatureCommunityGrowth] = Clamp(
			0.5*Normalize(float64(in.NewsCount), communityNormHits)+0.5*in.Narrative.MemeMomentum, 0, 1)
	} else {
		v[domain.FeatureSentimentScore] = defaultSentiment
		v[domain.FeatureNarrativeMomentum] = 0
		v[domain.FeatureCommunityGrowth] = Normalize(float64(in.NewsCount), communityNormHits)
	}

	// Contract safety; the safety gate overwrites this from the report.
	if in.ContractScore != nil {
		v[domain.FeatureContractSafety] = Clamp(*in.ContractScore, 0, 1)
	} else {
		v[domain.FeatureContractSafety] = defaultContractSafety
	}

	// Tokenomics: healthy supply schedule scores high; near-term dilution
	// always dominates the computed value.
	tokenomics := 1 - 0.5*unlockRisk
	if unlockRisk >= unlockRiskCapThreshold {
		tokenomics = min(tokenomics, tokenomicsRiskCap)
	}
	v[domain.FeatureTokenomicsRisk] = tokenomics

	v[domain.FeatureDataCompleteness] = completeness(in)
	return v
}

// completeness is the fraction of signal-bearing inputs actually present.
func completeness(in BuildInput) float64 {
	present := 0
	if in.Snapshot != nil {
		present++
	}
	if in.Technical != nil {
		present++
	}
	if in.Narrative != nil {
		present++
	}
	if in.ContractScore != nil {
		present++
	}
	if in.HasLiquidity {
		present++
	}
	return float64(present) / float64(requiredInputs)
}
