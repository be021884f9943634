// Package safety converts raw contract metadata into a contract-safety
// report: a [0,1] score, a severity class, and the concrete findings that
// produced them.
package safety

import (
	"strings"

	"gemscan/internal/domain"
)

// Penalty weights per finding. The score starts at 1.0 and each finding
// subtracts its penalty; the result is clamped to [0,1].
const (
	penaltyUnverified     = 0.45
	penaltySeverityHigh   = 0.50
	penaltySeverityMedium = 0.25
	penaltyOwnerMint      = 0.20
	penaltyBlacklist      = 0.15
	penaltyProxy          = 0.10
	penaltyLowHolders     = 0.15
)

// minHealthyHolders is the holder count below which distribution is
// considered dangerously concentrated.
const minHealthyHolders = 200

// Analyzer evaluates contract metadata with source-pattern heuristics.
type Analyzer struct{}

// NewAnalyzer creates a contract safety analyzer.
func NewAnalyzer() *Analyzer {
	return &Analyzer{}
}

// Evaluate produces a SafetyReport for the given contract metadata.
func (a *Analyzer) Evaluate(meta *domain.ContractMetadata) *domain.SafetyReport {
	report := &domain.SafetyReport{
		Score: 1.0,
		Flags: make(map[string]bool),
	}

	if !meta.Verified {
		a.addFinding(report, domain.SafetyFlagUnverified,
			"contract source is not verified on the explorer", "high", penaltyUnverified)
	}

	switch strings.ToLower(meta.Severity) {
	case "high":
		a.addFinding(report, "explorer_severity_high",
			"explorer reports high-severity issues", "high", penaltySeverityHigh)
	case "medium":
		a.addFinding(report, "explorer_severity_medium",
			"explorer reports medium-severity issues", "medium", penaltySeverityMedium)
	}

	source := strings.ToLower(meta.SourceCode)
	if source != "" {
		if containsAny(source, "function mint(", "function _mint(", "onlyowner) mint") {
			a.addFinding(report, domain.SafetyFlagOwnerCanMint,
				"owner-controlled mint function present", "high", penaltyOwnerMint)
		}
		if containsAny(source, "blacklist", "_isblacklisted", "blocklist") {
			a.addFinding(report, domain.SafetyFlagBlacklist,
				"transfer blacklist mechanism present", "medium", penaltyBlacklist)
		}
		if containsAny(source, "delegatecall", "upgradeableproxy", "_implementation") {
			a.addFinding(report, domain.SafetyFlagProxy,
				"upgradeable proxy pattern present", "low", penaltyProxy)
		}
	}

	if meta.HolderCount > 0 && meta.HolderCount < minHealthyHolders {
		a.addFinding(report, domain.SafetyFlagLowHolderCount,
			"holder distribution is highly concentrated", "medium", penaltyLowHolders)
	}

	if report.Score < 0 {
		report.Score = 0
	}
	report.Severity = severityFor(report.Score)
	return report
}

func (a *Analyzer) addFinding(report *domain.SafetyReport, name, detail, severity string, penalty float64) {
	report.Findings = append(report.Findings, domain.SafetyFinding{
		Name:     name,
		Detail:   detail,
		Severity: severity,
		Penalty:  penalty,
	})
	report.Flags[name] = true
	report.Score -= penalty
}

func severityFor(score float64) string {
	switch {
	case score >= 0.8:
		return "low"
	case score >= 0.5:
		return "medium"
	default:
		return "high"
	}
}

func containsAny(s string, patterns ...string) bool {
	for _, p := range patterns {
		if strings.Contains(s, p) {
			return true
		}
	}
	return false
}
