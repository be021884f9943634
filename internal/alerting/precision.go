package alerting

import (
	"fmt"
	"sort"
	"sync"
)

// FlagRecord is one flagged scan awaiting an outcome verdict.
type FlagRecord struct {
	ScanID    string
	TokenID   string
	Score     float64
	FlaggedAt int64

	// Resolved is true once an outcome has been recorded.
	Resolved bool
	// Hit is true when the flagged token later met the success criterion.
	Hit bool
}

// PrecisionTracker records flag decisions and, once outcomes arrive,
// reports flag precision. Safe for concurrent use.
type PrecisionTracker struct {
	mu      sync.RWMutex
	records map[string]*FlagRecord
}

// NewPrecisionTracker creates an empty tracker.
func NewPrecisionTracker() *PrecisionTracker {
	return &PrecisionTracker{records: make(map[string]*FlagRecord)}
}

// RecordFlag registers a flagged scan. Duplicate scan IDs are ignored so
// re-delivered alerts do not skew precision.
func (t *PrecisionTracker) RecordFlag(scanID, tokenID string, score float64, flaggedAt int64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, ok := t.records[scanID]; ok {
		return
	}
	t.records[scanID] = &FlagRecord{
		ScanID:    scanID,
		TokenID:   tokenID,
		Score:     score,
		FlaggedAt: flaggedAt,
	}
}

// RecordOutcome marks a previous flag as a hit or miss.
func (t *PrecisionTracker) RecordOutcome(scanID string, hit bool) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	rec, ok := t.records[scanID]
	if !ok {
		return fmt.Errorf("no flag recorded for scan %s", scanID)
	}
	rec.Resolved = true
	rec.Hit = hit
	return nil
}

// PrecisionAt returns hit precision over the top-k resolved flags ranked
// by score. k <= 0 means all resolved flags. The bool is false when no
// resolved flags exist.
func (t *PrecisionTracker) PrecisionAt(k int) (float64, bool) {
	t.mu.RLock()
	resolved := make([]*FlagRecord, 0, len(t.records))
	for _, rec := range t.records {
		if rec.Resolved {
			resolved = append(resolved, rec)
		}
	}
	t.mu.RUnlock()

	if len(resolved) == 0 {
		return 0, false
	}
	sort.Slice(resolved, func(i, j int) bool {
		if resolved[i].Score != resolved[j].Score {
			return resolved[i].Score > resolved[j].Score
		}
		return resolved[i].ScanID < resolved[j].ScanID
	})
	if k > 0 && len(resolved) > k {
		resolved = resolved[:k]
	}

	hits := 0
	for _, rec := range resolved {
		if rec.Hit {
			hits++
		}
	}
	return float64(hits) / float64(len(resolved)), true
}

// Pending returns the flags still waiting for an outcome, oldest first.
func (t *PrecisionTracker) Pending() []FlagRecord {
	t.mu.RLock()
	defer t.mu.RUnlock()

	out := make([]FlagRecord, 0)
	for _, rec := range t.records {
		if !rec.Resolved {
			out = append(out, *rec)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].FlaggedAt != out[j].FlaggedAt {
			return out[i].FlaggedAt < out[j].FlaggedAt
		}
		return out[i].ScanID < out[j].ScanID
	})
	return out
}
