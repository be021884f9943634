package domain

// ContractMetadata holds raw contract-level data fetched from a chain explorer.
type ContractMetadata struct {
	Address     string
	Verified    bool
	ABI         string
	SourceCode  string
	Severity    string // explorer-reported severity hint: "", "low", "medium", "high"
	HolderCount int64
	FetchedAt   int64 // Unix timestamp in milliseconds
}

// Safety flag keys set by the safety analyzer and consumed by the safety gate.
const (
	SafetyFlagOwnerCanMint    = "owner_can_mint"
	SafetyFlagUnverified      = "unverified"
	SafetyFlagBlacklist       = "blacklist"
	SafetyFlagProxy           = "upgradeable_proxy"
	SafetyFlagLowHolderCount  = "low_holder_count"
	SafetyFlagMetadataMissing = "metadata_missing"
)

// SafetyFinding is one concrete issue discovered during contract analysis.
type SafetyFinding struct {
	Name     string
	Detail   string
	Severity string // "info", "low", "medium", "high"
	Penalty  float64
}

// SafetyReport is the contract-safety assessment for one token.
// Score is in [0,1], higher is safer.
type SafetyReport struct {
	Score    float64
	Severity string
	Findings []SafetyFinding
	Flags    map[string]bool
}

// Flagged reports whether the named safety flag is set.
func (r *SafetyReport) Flagged(name string) bool {
	if r == nil || r.Flags == nil {
		return false
	}
	return r.Flags[name]
}
