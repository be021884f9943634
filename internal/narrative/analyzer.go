// Package narrative scores collected texts for sentiment, momentum, and
// themes. The heuristic analyzer ships as the default implementation of
// the scan engine's NarrativeAnalyzer contract; an LLM-backed analyzer
// can be swapped in behind the same interface.
package narrative

import (
	"math"
	"sort"
	"strings"

	"gemscan/internal/domain"
)

var positiveLexicon = []string{
	"surge", "rally", "bullish", "breakout", "partnership", "listing",
	"upgrade", "adoption", "growth", "all-time high", "ath", "integration",
	"mainnet", "launch", "accumulation", "inflow",
}

var negativeLexicon = []string{
	"dump", "crash", "bearish", "rug", "exploit", "hack", "lawsuit",
	"delisting", "sell-off", "outflow", "scam", "investigation",
	"vulnerability", "halt", "insolvency",
}

var memeLexicon = []string{
	"meme", "moon", "ape", "degen", "pump", "wagmi", "hodl", "diamond hands",
}

// themeLexicon maps a theme label to the vocabulary that signals it.
var themeLexicon = map[string][]string{
	"ai":      {"ai", "artificial intelligence", "agent", "llm"},
	"defi":    {"defi", "yield", "lending", "dex", "liquidity"},
	"meme":    {"meme", "dog", "frog", "moon"},
	"gaming":  {"gaming", "game", "metaverse", "play-to-earn"},
	"rwa":     {"rwa", "real world asset", "tokenized", "treasury"},
	"l2":      {"l2", "layer 2", "rollup", "zk"},
	"payment": {"payment", "remittance", "stablecoin", "settlement"},
}

// momentumNormHits is the per-text hit density that saturates momentum.
const momentumNormHits = 3.0

// HeuristicAnalyzer is a deterministic lexicon-based narrative analyzer.
type HeuristicAnalyzer struct{}

// NewHeuristicAnalyzer creates the default analyzer.
func NewHeuristicAnalyzer() *HeuristicAnalyzer {
	return &HeuristicAnalyzer{}
}

// Analyze scores the given texts. With no texts the insight is neutral:
// sentiment 0.5, everything else zero.
func (a *HeuristicAnalyzer) Analyze(texts []string) domain.NarrativeInsight {
	if len(texts) == 0 {
		return domain.NarrativeInsight{SentimentScore: 0.5}
	}

	var totalPos, totalNeg, totalMeme int
	perText := make([]float64, 0, len(texts))
	themeHits := make(map[string]int)

	for _, text := range texts {
		lower := strings.ToLower(text)
		pos := countHits(lower, positiveLexicon)
		neg := countHits(lower, negativeLexicon)
		totalPos += pos
		totalNeg += neg
		totalMeme += countHits(lower, memeLexicon)

		// Laplace-smoothed per-text sentiment in (0,1).
		perText = append(perText, float64(pos+1)/float64(pos+neg+2))

		for theme, vocab := range themeLexicon {
			if countHits(lower, vocab) > 0 {
				themeHits[theme]++
			}
		}
	}

	sentiment := float64(totalPos+1) / float64(totalPos+totalNeg+2)
	hitsPerText := float64(totalPos+totalNeg) / float64(len(texts))
	memePerText := float64(totalMeme) / float64(len(texts))

	return domain.NarrativeInsight{
		SentimentScore: sentiment,
		Momentum:       clamp01(hitsPerText / momentumNormHits),
		Themes:         rankThemes(themeHits),
		Volatility:     clamp01(stddev(perText) * 2),
		MemeMomentum:   clamp01(memePerText / momentumNormHits),
	}
}

func countHits(text string, lexicon []string) int {
	hits := 0
	for _, word := range lexicon {
		hits += strings.Count(text, word)
	}
	return hits
}

// rankThemes orders themes by hit count descending, name ascending for
// determinism on ties.
func rankThemes(hits map[string]int) []string {
	themes := make([]string, 0, len(hits))
	for theme := range hits {
		themes = append(themes, theme)
	}
	sort.Slice(themes, func(i, j int) bool {
		if hits[themes[i]] != hits[themes[j]] {
			return hits[themes[i]] > hits[themes[j]]
		}
		return themes[i] < themes[j]
	})
	return themes
}

func stddev(values []float64) float64 {
	if len(values) < 2 {
		return 0
	}
	var mean float64
	for _, v := range values {
		mean += v
	}
	mean /= float64(len(values))

	var variance float64
	for _, v := range values {
		variance += (v - mean) * (v - mean)
	}
	variance /= float64(len(values))
	return math.Sqrt(variance)
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
