package domain

// FlagCheck records one review-flag sub-condition and the threshold it was
// compared against, so a reader can reconstruct why a token was flagged.
type FlagCheck struct {
	Threshold string `json:"threshold"`
	Actual    string `json:"actual"`
	Pass      bool   `json:"pass"`
}

// ScanResult is the immutable snapshot assembled by the terminal scan node.
// Constructed once per scan; the authoritative output of the pipeline.
type ScanResult struct {
	ScanID      string
	Token       TokenConfig
	CompletedAt int64 // Unix timestamp in milliseconds

	Market    *MarketSnapshot
	Narrative *NarrativeInsight
	News      []NewsItem
	Safety    *SafetyReport

	RawFeatures      FeatureVector
	AdjustedFeatures FeatureVector
	GemScore         GemScoreResult

	Flagged   bool
	FlagDebug map[string]FlagCheck

	ArtifactMarkdown string
	ArtifactHTML     string
	Signature        string // base64 ed25519 signature over the markdown artifact
}

// FeatureSnapshot is one per-scan feature value, stored as a timeseries row
// in ClickHouse for backtesting and precision tracking.
type FeatureSnapshot struct {
	ScanID      string
	TokenID     string
	TimestampMs int64
	Feature     string
	Value       float64
	Adjusted    bool // true if taken after safety penalties
}
