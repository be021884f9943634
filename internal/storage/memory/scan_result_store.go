package memory

import (
	"context"
	"sort"
	"sync"

	"gemscan/internal/domain"
	"gemscan/internal/storage"
)

// ScanResultStore is an in-memory implementation of storage.ScanResultStore.
type ScanResultStore struct {
	mu      sync.RWMutex
	byID    map[string]*domain.ScanResult
	byToken map[string][]*domain.ScanResult // ordered by completed_at ASC
}

// NewScanResultStore creates a new in-memory scan result store.
func NewScanResultStore() *ScanResultStore {
	return &ScanResultStore{
		byID:    make(map[string]*domain.ScanResult),
		byToken: make(map[string][]*domain.ScanResult),
	}
}

// Insert adds a new scan result. Returns ErrDuplicateKey if scan_id exists.
func (s *ScanResultStore) Insert(_ context.Context, r *domain.ScanResult) error {
	if r == nil || r.ScanID == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.byID[r.ScanID]; exists {
		return storage.ErrDuplicateKey
	}

	resCopy := *r
	s.byID[r.ScanID] = &resCopy

	tokenID := r.Token.TokenID
	results := append(s.byToken[tokenID], &resCopy)
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].CompletedAt < results[j].CompletedAt
	})
	s.byToken[tokenID] = results
	return nil
}

// GetByID retrieves a result by its scan ID. Returns ErrNotFound if not exists.
func (s *ScanResultStore) GetByID(_ context.Context, scanID string) (*domain.ScanResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	r, exists := s.byID[scanID]
	if !exists {
		return nil, storage.ErrNotFound
	}

	resCopy := *r
	return &resCopy, nil
}

// GetByToken retrieves all results for a token, ordered by completed_at ASC.
func (s *ScanResultStore) GetByToken(_ context.Context, tokenID string) ([]*domain.ScanResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	results := s.byToken[tokenID]
	out := make([]*domain.ScanResult, 0, len(results))
	for _, r := range results {
		resCopy := *r
		out = append(out, &resCopy)
	}
	return out, nil
}

// GetLatestByToken retrieves the most recent result for a token.
func (s *ScanResultStore) GetLatestByToken(_ context.Context, tokenID string) (*domain.ScanResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	results := s.byToken[tokenID]
	if len(results) == 0 {
		return nil, storage.ErrNotFound
	}

	resCopy := *results[len(results)-1]
	return &resCopy, nil
}

// GetFlagged retrieves flagged results within [start, end] inclusive.
func (s *ScanResultStore) GetFlagged(_ context.Context, start, end int64) ([]*domain.ScanResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*domain.ScanResult
	for _, r := range s.byID {
		if !r.Flagged {
			continue
		}
		if r.CompletedAt < start || r.CompletedAt > end {
			continue
		}
		resCopy := *r
		out = append(out, &resCopy)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CompletedAt != out[j].CompletedAt {
			return out[i].CompletedAt < out[j].CompletedAt
		}
		return out[i].ScanID < out[j].ScanID
	})
	return out, nil
}

var _ storage.ScanResultStore = (*ScanResultStore)(nil)
