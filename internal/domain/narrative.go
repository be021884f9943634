package domain

import "time"

// NarrativeInsight is the sentiment/theme assessment over collected texts.
// All score fields are normalized to [0,1].
type NarrativeInsight struct {
	SentimentScore float64  // 0 bearish .. 1 bullish, 0.5 neutral
	Momentum       float64  // density of narrative hits across texts
	Themes         []string // detected themes, most frequent first
	Volatility     float64  // dispersion of per-text sentiment
	MemeMomentum   float64  // density of meme-adjacent vocabulary
}

// NewsItem is one collected news entry matched against token keywords.
type NewsItem struct {
	Title       string
	Link        string
	Source      string
	Summary     string
	PublishedAt time.Time
}
