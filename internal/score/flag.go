package score

import (
	"fmt"

	"gemscan/internal/domain"
)

// Debug map keys for the four flag sub-conditions.
const (
	CheckScore          = "score"
	CheckConfidence     = "confidence"
	CheckContractSafety = "contract_safety"
	CheckLiquidity      = "liquidity"
)

// FlagThresholds holds the review-flag policy thresholds.
type FlagThresholds struct {
	Score       float64 // minimum gem score, in [0,100]
	Confidence  float64 // minimum confidence, in [0,100]
	SafetyFloor float64 // minimum ContractSafety, in [0,1]
}

// DefaultThresholds returns the default flag policy.
func DefaultThresholds() FlagThresholds {
	return FlagThresholds{
		Score:       60,
		Confidence:  50,
		SafetyFloor: 0.5,
	}
}

// ShouldFlag converts a gem score and penalized feature vector into a
// review-flag decision. Pure function of its inputs: no state is retained
// between calls. The debug map records every sub-condition and the
// threshold it was compared against, so a human can reconstruct exactly
// why a token was or was not flagged.
func ShouldFlag(gs domain.GemScoreResult, v domain.FeatureVector, th FlagThresholds) (bool, map[string]domain.FlagCheck) {
	contractSafety := v.Get(domain.FeatureContractSafety, 0)
	liquidityDepth := v.Get(domain.FeatureLiquidityDepth, 0)

	debug := map[string]domain.FlagCheck{
		CheckScore: {
			Threshold: fmt.Sprintf(">= %.1f", th.Score),
			Actual:    fmt.Sprintf("%.2f", gs.Score),
			Pass:      gs.Score >= th.Score,
		},
		CheckConfidence: {
			Threshold: fmt.Sprintf(">= %.1f", th.Confidence),
			Actual:    fmt.Sprintf("%.2f", gs.Confidence),
			Pass:      gs.Confidence >= th.Confidence,
		},
		CheckContractSafety: {
			Threshold: fmt.Sprintf(">= %.2f", th.SafetyFloor),
			Actual:    fmt.Sprintf("%.2f", contractSafety),
			Pass:      contractSafety >= th.SafetyFloor,
		},
		CheckLiquidity: {
			Threshold: "> 0",
			Actual:    fmt.Sprintf("%.2f", liquidityDepth),
			Pass:      liquidityDepth > 0,
		},
	}

	flagged := true
	for _, c := range debug {
		if !c.Pass {
			flagged = false
			break
		}
	}
	return flagged, debug
}
