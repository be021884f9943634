package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"gemscan/internal/domain"
	"gemscan/internal/storage"
)

// FeatureSnapshotStore is an in-memory implementation of
// storage.FeatureSnapshotStore.
type FeatureSnapshotStore struct {
	mu   sync.RWMutex
	rows []*domain.FeatureSnapshot
	seen map[string]struct{} // "scan_id|feature|adjusted"
}

// NewFeatureSnapshotStore creates a new in-memory feature snapshot store.
func NewFeatureSnapshotStore() *FeatureSnapshotStore {
	return &FeatureSnapshotStore{seen: make(map[string]struct{})}
}

func snapshotKey(r *domain.FeatureSnapshot) string {
	return fmt.Sprintf("%s|%s|%t", r.ScanID, r.Feature, r.Adjusted)
}

// InsertBulk adds multiple rows. Fails the entire batch on any duplicate.
func (s *FeatureSnapshotStore) InsertBulk(_ context.Context, rows []*domain.FeatureSnapshot) error {
	if len(rows) == 0 {
		return nil
	}
	for _, r := range rows {
		if r == nil || r.ScanID == "" || r.Feature == "" {
			return storage.ErrInvalidInput
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// Validate the whole batch before mutating, including intra-batch dups.
	batch := make(map[string]struct{}, len(rows))
	for _, r := range rows {
		key := snapshotKey(r)
		if _, exists := s.seen[key]; exists {
			return storage.ErrDuplicateKey
		}
		if _, exists := batch[key]; exists {
			return storage.ErrDuplicateKey
		}
		batch[key] = struct{}{}
	}

	for _, r := range rows {
		rowCopy := *r
		s.rows = append(s.rows, &rowCopy)
		s.seen[snapshotKey(r)] = struct{}{}
	}
	return nil
}

// GetByScanID retrieves all rows for a scan, ordered by feature ASC.
func (s *FeatureSnapshotStore) GetByScanID(_ context.Context, scanID string) ([]*domain.FeatureSnapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*domain.FeatureSnapshot
	for _, r := range s.rows {
		if r.ScanID != scanID {
			continue
		}
		rowCopy := *r
		out = append(out, &rowCopy)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Feature != out[j].Feature {
			return out[i].Feature < out[j].Feature
		}
		return !out[i].Adjusted && out[j].Adjusted
	})
	return out, nil
}

// GetByTokenFeature retrieves one feature's timeseries for a token within
// [start, end] inclusive, ordered by timestamp ASC.
func (s *FeatureSnapshotStore) GetByTokenFeature(_ context.Context, tokenID, feature string, start, end int64) ([]*domain.FeatureSnapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*domain.FeatureSnapshot
	for _, r := range s.rows {
		if r.TokenID != tokenID || r.Feature != feature {
			continue
		}
		if r.TimestampMs < start || r.TimestampMs > end {
			continue
		}
		rowCopy := *r
		out = append(out, &rowCopy)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].TimestampMs < out[j].TimestampMs })
	return out, nil
}

var _ storage.FeatureSnapshotStore = (*FeatureSnapshotStore)(nil)
