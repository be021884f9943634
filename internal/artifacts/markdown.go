// Package artifacts renders scan results into human-readable payloads
// and signs them for provenance.
package artifacts

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"gemscan/internal/domain"
)

// Renderer renders ScanResult artifacts. The zero value is usable.
type Renderer struct{}

// NewRenderer creates an artifact renderer.
func NewRenderer() *Renderer {
	return &Renderer{}
}

// RenderMarkdown renders the scan result as a Markdown report.
func (r *Renderer) RenderMarkdown(res *domain.ScanResult) string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("# Gem Scan: %s (%s)\n\n", res.Token.Name, res.Token.Symbol))
	sb.WriteString(fmt.Sprintf("Scan ID: `%s`\n\n", res.ScanID))
	sb.WriteString(fmt.Sprintf("Completed: %s\n\n", time.UnixMilli(res.CompletedAt).UTC().Format(time.RFC3339)))

	// Verdict
	verdict := "NOT FLAGGED"
	if res.Flagged {
		verdict = "FLAGGED FOR REVIEW"
	}
	sb.WriteString(fmt.Sprintf("## Verdict: %s\n\n", verdict))
	sb.WriteString(fmt.Sprintf("GemScore: **%.2f** / 100 (confidence %.1f)\n\n", res.GemScore.Score, res.GemScore.Confidence))

	// Flag checks
	sb.WriteString("### Flag Checks\n\n")
	sb.WriteString("| Check | Threshold | Actual | Pass |\n")
	sb.WriteString("|-------|-----------|--------|------|\n")
	for _, name := range sortedKeys(res.FlagDebug) {
		c := res.FlagDebug[name]
		pass := "FAIL"
		if c.Pass {
			pass = "PASS"
		}
		sb.WriteString(fmt.Sprintf("| %s | %s | %s | %s |\n", name, c.Threshold, c.Actual, pass))
	}
	sb.WriteString("\n")

	// Market
	if res.Market != nil {
		sb.WriteString("## Market\n\n")
		sb.WriteString("| Metric | Value |\n")
		sb.WriteString("|--------|-------|\n")
		sb.WriteString(fmt.Sprintf("| Price USD | %.6f |\n", res.Market.PriceUSD))
		sb.WriteString(fmt.Sprintf("| Liquidity USD | %.0f |\n", res.Market.LiquidityUSD))
		sb.WriteString(fmt.Sprintf("| Volume 24h USD | %.0f |\n", res.Market.Volume24hUSD))
		sb.WriteString(fmt.Sprintf("| Holders | %d |\n", res.Market.HolderCount))
		sb.WriteString("\n")
	}

	// Safety
	if res.Safety != nil {
		sb.WriteString("## Contract Safety\n\n")
		sb.WriteString(fmt.Sprintf("Score: %.2f | Severity: %s\n\n", res.Safety.Score, res.Safety.Severity))
		if len(res.Safety.Findings) > 0 {
			for _, f := range res.Safety.Findings {
				sb.WriteString(fmt.Sprintf("- **%s** (%s): %s\n", f.Name, f.Severity, f.Detail))
			}
			sb.WriteString("\n")
		}
	}

	// Narrative
	if res.Narrative != nil {
		sb.WriteString("## Narrative\n\n")
		sb.WriteString(fmt.Sprintf("Sentiment: %.2f | Momentum: %.2f | Meme momentum: %.2f\n\n",
			res.Narrative.SentimentScore, res.Narrative.Momentum, res.Narrative.MemeMomentum))
		if len(res.Narrative.Themes) > 0 {
			sb.WriteString(fmt.Sprintf("Themes: %s\n\n", strings.Join(res.Narrative.Themes, ", ")))
		}
	}

	// Feature contributions, largest first.
	sb.WriteString("## Score Contributions\n\n")
	sb.WriteString("| Feature | Raw | Adjusted | Contribution |\n")
	sb.WriteString("|---------|-----|----------|-------------|\n")
	for _, name := range contributionOrder(res.GemScore.Contributions) {
		sb.WriteString(fmt.Sprintf("| %s | %.3f | %.3f | %.2f |\n",
			name,
			res.RawFeatures.Get(name, 0),
			res.AdjustedFeatures.Get(name, 0),
			res.GemScore.Contributions[name]))
	}
	sb.WriteString("\n")

	// News
	if len(res.News) > 0 {
		sb.WriteString("## News\n\n")
		for _, item := range res.News {
			sb.WriteString(fmt.Sprintf("- [%s](%s) - %s\n", item.Title, item.Link, item.Source))
		}
		sb.WriteString("\n")
	}

	return sb.String()
}

func sortedKeys(m map[string]domain.FlagCheck) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// contributionOrder sorts feature names by contribution descending,
// name ascending on ties, for deterministic rendering.
func contributionOrder(contributions map[string]float64) []string {
	names := make([]string, 0, len(contributions))
	for name := range contributions {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool {
		if contributions[names[i]] != contributions[names[j]] {
			return contributions[names[i]] > contributions[names[j]]
		}
		return names[i] < names[j]
	})
	return names
}
