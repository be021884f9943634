package storage

import (
	"context"

	"gemscan/internal/domain"
)

// ScanResultStore provides access to scan_results storage.
type ScanResultStore interface {
	// Insert adds a new scan result. Returns ErrDuplicateKey if scan_id exists.
	Insert(ctx context.Context, r *domain.ScanResult) error

	// GetByID retrieves a result by its scan ID. Returns ErrNotFound if not exists.
	GetByID(ctx context.Context, scanID string) (*domain.ScanResult, error)

	// GetByToken retrieves all results for a token, ordered by completed_at ASC.
	GetByToken(ctx context.Context, tokenID string) ([]*domain.ScanResult, error)

	// GetLatestByToken retrieves the most recent result for a token.
	// Returns ErrNotFound if the token has never been scanned.
	GetLatestByToken(ctx context.Context, tokenID string) (*domain.ScanResult, error)

	// GetFlagged retrieves results flagged within [start, end] (inclusive,
	// Unix millis), ordered by completed_at ASC.
	GetFlagged(ctx context.Context, start, end int64) ([]*domain.ScanResult, error)
}

// TokenConfigStore provides access to token_configs storage.
type TokenConfigStore interface {
	// Insert adds a new token config. Returns ErrDuplicateKey if token_id exists.
	Insert(ctx context.Context, c *domain.TokenConfig) error

	// GetByID retrieves a config by token ID. Returns ErrNotFound if not exists.
	GetByID(ctx context.Context, tokenID string) (*domain.TokenConfig, error)

	// GetAll retrieves all configs, ordered by token_id ASC.
	GetAll(ctx context.Context) ([]*domain.TokenConfig, error)

	// GetByChain retrieves all configs for one chain, ordered by token_id ASC.
	GetByChain(ctx context.Context, chain domain.Chain) ([]*domain.TokenConfig, error)
}

// FeatureSnapshotStore provides access to feature_snapshots storage.
type FeatureSnapshotStore interface {
	// InsertBulk adds multiple snapshot rows. Fails entire batch on duplicate
	// (scan_id, feature, adjusted).
	InsertBulk(ctx context.Context, rows []*domain.FeatureSnapshot) error

	// GetByScanID retrieves all rows for a scan, ordered by feature ASC.
	GetByScanID(ctx context.Context, scanID string) ([]*domain.FeatureSnapshot, error)

	// GetByTokenFeature retrieves the timeseries of one feature for a token
	// within [start, end] (inclusive), ordered by timestamp ASC.
	GetByTokenFeature(ctx context.Context, tokenID, feature string, start, end int64) ([]*domain.FeatureSnapshot, error)
}
