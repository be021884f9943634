// Package score computes the weighted composite gem score and the review
// flag decision from a penalized feature vector.
package score

import (
	"fmt"
	"math"

	"gemscan/internal/domain"
)

// weightSumTolerance absorbs floating error when validating that weights
// sum to exactly 1.
const weightSumTolerance = 1e-9

// DefaultWeights returns the fixed weight table. Only bounded [0,1]
// features are weighted; MACD, Volatility, Recency and the bookkeeping
// keys are excluded. Weights sum to 1.0.
func DefaultWeights() map[string]float64 {
	return map[string]float64{
		domain.FeatureSentimentScore:    0.13,
		domain.FeatureAccumulationScore: 0.11,
		domain.FeatureOnchainActivity:   0.13,
		domain.FeatureLiquidityDepth:    0.11,
		domain.FeatureTokenomicsRisk:    0.13,
		domain.FeatureContractSafety:    0.15,
		domain.FeatureNarrativeMomentum: 0.09,
		domain.FeatureCommunityGrowth:   0.07,
		domain.FeatureRSI:               0.08,
	}
}

// ValidateWeights checks that weights are non-negative and sum to 1.0.
func ValidateWeights(weights map[string]float64) error {
	if len(weights) == 0 {
		return fmt.Errorf("weight table is empty")
	}
	var sum float64
	for k, w := range weights {
		if w < 0 {
			return fmt.Errorf("weight for %s is negative: %f", k, w)
		}
		sum += w
	}
	if math.Abs(sum-1.0) > weightSumTolerance {
		return fmt.Errorf("weights sum to %f, want 1.0", sum)
	}
	return nil
}

// Engine computes gem scores from a validated weight table. The engine
// trusts its input contract: a weighted feature outside [0,1] is a
// builder bug, not something handled defensively here.
type Engine struct {
	weights map[string]float64
}

// NewEngine creates a score engine, validating the weight table.
func NewEngine(weights map[string]float64) (*Engine, error) {
	if err := ValidateWeights(weights); err != nil {
		return nil, err
	}
	copied := make(map[string]float64, len(weights))
	for k, w := range weights {
		copied[k] = w
	}
	return &Engine{weights: copied}, nil
}

// Weights returns a copy of the engine's weight table.
func (e *Engine) Weights() map[string]float64 {
	out := make(map[string]float64, len(e.weights))
	for k, w := range e.weights {
		out[k] = w
	}
	return out
}

// Compute produces the composite score, confidence, and per-feature
// contributions. Contributions sum exactly to the score. Confidence is
// reported separately rather than multiplied in, so a low-confidence
// high-score result stays visible but clearly marked as uncertain.
func (e *Engine) Compute(v domain.FeatureVector) domain.GemScoreResult {
	contributions := make(map[string]float64, len(e.weights))

	var rawScore float64
	missing := 0
	for k, w := range e.weights {
		val, ok := v[k]
		if !ok {
			missing++
			contributions[k] = 0
			continue
		}
		c := 100 * w * val
		contributions[k] = c
		rawScore += c
	}

	confidence := 100 * e.completeness(v, missing)

	return domain.GemScoreResult{
		Score:         rawScore,
		Confidence:    confidence,
		Contributions: contributions,
	}
}

// completeness prefers the builder-reported DataCompleteness feature and
// falls back to the fraction of weighted keys present in the vector.
func (e *Engine) completeness(v domain.FeatureVector, missing int) float64 {
	if dc, ok := v[domain.FeatureDataCompleteness]; ok {
		return math.Min(math.Max(dc, 0), 1)
	}
	return float64(len(e.weights)-missing) / float64(len(e.weights))
}
