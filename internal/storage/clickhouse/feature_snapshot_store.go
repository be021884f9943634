package clickhouse

import (
	"context"
	"fmt"

	"gemscan/internal/domain"
	"gemscan/internal/storage"
)

// FeatureSnapshotStore implements storage.FeatureSnapshotStore using
// ClickHouse. Rows form a per-token, per-feature timeseries used for
// backtesting and flag precision tracking.
type FeatureSnapshotStore struct {
	conn *Conn
}

// NewFeatureSnapshotStore creates a new FeatureSnapshotStore.
func NewFeatureSnapshotStore(conn *Conn) *FeatureSnapshotStore {
	return &FeatureSnapshotStore{conn: conn}
}

// Compile-time interface check.
var _ storage.FeatureSnapshotStore = (*FeatureSnapshotStore)(nil)

// InsertBulk adds multiple rows. Fails entire batch on duplicate
// (scan_id, feature, adjusted).
func (s *FeatureSnapshotStore) InsertBulk(ctx context.Context, rows []*domain.FeatureSnapshot) error {
	if len(rows) == 0 {
		return nil
	}
	for _, r := range rows {
		if r == nil || r.ScanID == "" || r.Feature == "" {
			return storage.ErrInvalidInput
		}
	}

	// Check for intra-batch duplicates
	type key struct {
		scanID   string
		feature  string
		adjusted bool
	}
	seen := make(map[key]struct{})
	for _, r := range rows {
		k := key{r.ScanID, r.Feature, r.Adjusted}
		if _, exists := seen[k]; exists {
			return storage.ErrDuplicateKey
		}
		seen[k] = struct{}{}
	}

	// MergeTree does not enforce uniqueness; scans are append-only so a
	// scan_id level check suffices for the whole batch.
	exists, err := s.scanExists(ctx, rows[0].ScanID)
	if err != nil {
		return fmt.Errorf("check exists: %w", err)
	}
	if exists {
		return storage.ErrDuplicateKey
	}

	batch, err := s.conn.PrepareBatch(ctx, `
		INSERT INTO feature_snapshots (
			scan_id, token_id, timestamp_ms, feature, value, adjusted
		)
	`)
	if err != nil {
		return fmt.Errorf("prepare batch: %w", err)
	}

	for _, r := range rows {
		adjusted := uint8(0)
		if r.Adjusted {
			adjusted = 1
		}
		err = batch.Append(r.ScanID, r.TokenID, r.TimestampMs, r.Feature, r.Value, adjusted)
		if err != nil {
			return fmt.Errorf("append to batch: %w", err)
		}
	}

	if err := batch.Send(); err != nil {
		return fmt.Errorf("send batch: %w", err)
	}

	return nil
}

// GetByScanID retrieves all rows for a scan, ordered by feature ASC.
func (s *FeatureSnapshotStore) GetByScanID(ctx context.Context, scanID string) ([]*domain.FeatureSnapshot, error) {
	query := `
		SELECT scan_id, token_id, timestamp_ms, feature, value, adjusted
		FROM feature_snapshots
		WHERE scan_id = ?
		ORDER BY feature ASC, adjusted ASC
	`

	rows, err := s.conn.Query(ctx, query, scanID)
	if err != nil {
		return nil, fmt.Errorf("query by scan id: %w", err)
	}
	defer rows.Close()

	return scanFeatureSnapshots(rows)
}

// GetByTokenFeature retrieves one feature's timeseries for a token within
// [start, end] (inclusive), ordered by timestamp ASC.
func (s *FeatureSnapshotStore) GetByTokenFeature(ctx context.Context, tokenID, feature string, start, end int64) ([]*domain.FeatureSnapshot, error) {
	query := `
		SELECT scan_id, token_id, timestamp_ms, feature, value, adjusted
		FROM feature_snapshots
		WHERE token_id = ? AND feature = ? AND timestamp_ms >= ? AND timestamp_ms <= ?
		ORDER BY timestamp_ms ASC
	`

	rows, err := s.conn.Query(ctx, query, tokenID, feature, start, end)
	if err != nil {
		return nil, fmt.Errorf("query by token feature: %w", err)
	}
	defer rows.Close()

	return scanFeatureSnapshots(rows)
}

// scanExists checks whether any rows exist for a scan ID.
func (s *FeatureSnapshotStore) scanExists(ctx context.Context, scanID string) (bool, error) {
	query := `SELECT count(*) FROM feature_snapshots WHERE scan_id = ?`

	var count uint64
	if err := s.conn.QueryRow(ctx, query, scanID).Scan(&count); err != nil {
		return false, err
	}
	return count > 0, nil
}

// chRows abstracts driver.Rows for scanning helpers.
type chRows interface {
	Next() bool
	Scan(dest ...any) error
	Err() error
	Close() error
}

// scanFeatureSnapshots scans multiple rows.
func scanFeatureSnapshots(rows chRows) ([]*domain.FeatureSnapshot, error) {
	var out []*domain.FeatureSnapshot

	for rows.Next() {
		var (
			r        domain.FeatureSnapshot
			adjusted uint8
		)
		err := rows.Scan(&r.ScanID, &r.TokenID, &r.TimestampMs, &r.Feature, &r.Value, &adjusted)
		if err != nil {
			return nil, fmt.Errorf("scan feature snapshot row: %w", err)
		}
		r.Adjusted = adjusted != 0
		out = append(out, &r)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate feature snapshot rows: %w", err)
	}

	return out, nil
}
