package features

import (
	"gemscan/internal/domain"
)

// liquidityPenaltyCap bounds LiquidityDepth when the liquidity guard
// failed upstream.
const liquidityPenaltyCap = 0.3

// ApplySafetyPenalties returns a new vector with contract-safety and
// liquidity penalties applied. Penalty rules are monotone: they only ever
// lower ContractSafety, LiquidityDepth and TokenomicsRisk, never raise
// them, and no other key is modified. The input vector is never mutated.
func ApplySafetyPenalties(v domain.FeatureVector, report *domain.SafetyReport, liquidityOK bool) domain.FeatureVector {
	out := v.Clone()

	if report != nil {
		out[domain.FeatureContractSafety] = min(out.Get(domain.FeatureContractSafety, 1), Clamp(report.Score, 0, 1))
	}

	if !liquidityOK {
		out[domain.FeatureLiquidityDepth] = min(out.Get(domain.FeatureLiquidityDepth, 0), liquidityPenaltyCap)
	}

	if report.Flagged(domain.SafetyFlagOwnerCanMint) || out.Get(domain.FeatureUpcomingUnlock, 0) >= unlockRiskCapThreshold {
		out[domain.FeatureTokenomicsRisk] = min(out.Get(domain.FeatureTokenomicsRisk, 1), tokenomicsRiskCap)
	}

	return out
}
