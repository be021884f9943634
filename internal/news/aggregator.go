// Package news collects RSS/Atom items matched against token keywords.
// It implements the scan engine's optional NewsAggregator contract.
package news

import (
	"context"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"
	"go.uber.org/zap"

	"gemscan/internal/domain"
)

// DefaultTimeout bounds one feed fetch.
const DefaultTimeout = 15 * time.Second

// Aggregator fetches configured feeds and filters items by keyword.
// Per-feed failures are tolerated: remaining feeds still contribute.
type Aggregator struct {
	parser *gofeed.Parser
	logger *zap.Logger
}

// AggregatorOption configures an Aggregator.
type AggregatorOption func(*Aggregator)

// WithHTTPClient sets a custom HTTP client for feed fetching.
func WithHTTPClient(client *http.Client) AggregatorOption {
	return func(a *Aggregator) {
		a.parser.Client = client
	}
}

// WithLogger sets the logger used for per-feed failure reporting.
func WithLogger(logger *zap.Logger) AggregatorOption {
	return func(a *Aggregator) {
		a.logger = logger
	}
}

// NewAggregator creates a feed aggregator.
func NewAggregator(opts ...AggregatorOption) *Aggregator {
	a := &Aggregator{
		parser: gofeed.NewParser(),
		logger: zap.NewNop(),
	}
	a.parser.Client = &http.Client{Timeout: DefaultTimeout}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Collect fetches all feeds, keeps items whose title or description
// matches any keyword (case-insensitive), sorts newest first, and trims
// to limit. An error is returned only when every feed failed.
func (a *Aggregator) Collect(ctx context.Context, feeds []string, keywords []string, limit int) ([]domain.NewsItem, error) {
	var items []domain.NewsItem
	var lastErr error
	failed := 0

	for _, feedURL := range feeds {
		feed, err := a.parser.ParseURLWithContext(feedURL, ctx)
		if err != nil {
			failed++
			lastErr = err
			a.logger.Warn("feed fetch failed", zap.String("feed", feedURL), zap.Error(err))
			continue
		}
		for _, entry := range feed.Items {
			if !matchesAny(entry, keywords) {
				continue
			}
			items = append(items, toNewsItem(feed, entry))
		}
	}

	if failed == len(feeds) && len(feeds) > 0 {
		return nil, lastErr
	}

	sort.Slice(items, func(i, j int) bool {
		if !items[i].PublishedAt.Equal(items[j].PublishedAt) {
			return items[i].PublishedAt.After(items[j].PublishedAt)
		}
		return items[i].Title < items[j].Title
	})
	if limit > 0 && len(items) > limit {
		items = items[:limit]
	}
	return items, nil
}

// matchesAny reports whether any keyword appears in the item title or
// description. An empty keyword set matches everything.
func matchesAny(entry *gofeed.Item, keywords []string) bool {
	if len(keywords) == 0 {
		return true
	}
	haystack := strings.ToLower(entry.Title + " " + entry.Description)
	for _, kw := range keywords {
		kw = strings.ToLower(strings.TrimSpace(kw))
		if kw != "" && strings.Contains(haystack, kw) {
			return true
		}
	}
	return false
}

func toNewsItem(feed *gofeed.Feed, entry *gofeed.Item) domain.NewsItem {
	item := domain.NewsItem{
		Title:   entry.Title,
		Link:    entry.Link,
		Source:  feed.Title,
		Summary: entry.Description,
	}
	if entry.PublishedParsed != nil {
		item.PublishedAt = entry.PublishedParsed.UTC()
	}
	return item
}
