package scan

import (
	"gemscan/internal/domain"
)

// ScanContext is the mutable state bag for one scan, threaded through
// every node. Fields are grouped by owning pipeline stage; each field has
// exactly one writer node and is written once per run. A context is
// exclusively owned by the run that created it and must not be shared
// across concurrent scans.
//
// Pointer fields distinguish "not yet computed" (nil) from "computed as
// empty or zero".
type ScanContext struct {
	Token domain.TokenConfig

	// Raw fetch results, nil on fetch failure.
	MarketChart *domain.MarketChart
	Liquidity   *domain.LiquidityInfo
	Contract    *domain.ContractMetadata
	News        []domain.NewsItem

	// Derived series and metrics.
	Technical   map[string]float64 // indicator outputs keyed by name
	Snapshot    *domain.MarketSnapshot
	HolderCount int64

	// Narrative and risk inputs.
	Narrative  *domain.NarrativeInsight
	UnlockRisk *float64

	// Safety gate inputs.
	Safety      *domain.SafetyReport
	LiquidityOK *bool

	// Feature vectors, raw then penalty-adjusted.
	RawFeatures      domain.FeatureVector
	AdjustedFeatures domain.FeatureVector

	// Decision outputs.
	GemScore  *domain.GemScoreResult
	Flagged   *bool
	FlagDebug map[string]domain.FlagCheck

	// Final output; nil means the scan failed to produce a result.
	Result *domain.ScanResult
}

// NewScanContext creates the state bag for one token scan.
func NewScanContext(token domain.TokenConfig) *ScanContext {
	return &ScanContext{Token: token}
}
