package memory

import (
	"context"
	"sort"
	"sync"

	"gemscan/internal/domain"
	"gemscan/internal/storage"
)

// TokenConfigStore is an in-memory implementation of storage.TokenConfigStore.
type TokenConfigStore struct {
	mu   sync.RWMutex
	byID map[string]*domain.TokenConfig
}

// NewTokenConfigStore creates a new in-memory token config store.
func NewTokenConfigStore() *TokenConfigStore {
	return &TokenConfigStore{byID: make(map[string]*domain.TokenConfig)}
}

// Insert adds a new token config. Returns ErrDuplicateKey if token_id exists.
func (s *TokenConfigStore) Insert(_ context.Context, c *domain.TokenConfig) error {
	if c == nil || c.TokenID == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.byID[c.TokenID]; exists {
		return storage.ErrDuplicateKey
	}

	cfgCopy := *c
	s.byID[c.TokenID] = &cfgCopy
	return nil
}

// GetByID retrieves a config by token ID. Returns ErrNotFound if not exists.
func (s *TokenConfigStore) GetByID(_ context.Context, tokenID string) (*domain.TokenConfig, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, exists := s.byID[tokenID]
	if !exists {
		return nil, storage.ErrNotFound
	}

	cfgCopy := *c
	return &cfgCopy, nil
}

// GetAll retrieves all configs, ordered by token_id ASC.
func (s *TokenConfigStore) GetAll(_ context.Context) ([]*domain.TokenConfig, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*domain.TokenConfig, 0, len(s.byID))
	for _, c := range s.byID {
		cfgCopy := *c
		out = append(out, &cfgCopy)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].TokenID < out[j].TokenID })
	return out, nil
}

// GetByChain retrieves all configs for one chain, ordered by token_id ASC.
func (s *TokenConfigStore) GetByChain(_ context.Context, chain domain.Chain) ([]*domain.TokenConfig, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*domain.TokenConfig
	for _, c := range s.byID {
		if c.Chain != chain {
			continue
		}
		cfgCopy := *c
		out = append(out, &cfgCopy)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].TokenID < out[j].TokenID })
	return out, nil
}

var _ storage.TokenConfigStore = (*TokenConfigStore)(nil)
