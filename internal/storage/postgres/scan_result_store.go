package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5"

	"gemscan/internal/domain"
	"gemscan/internal/storage"
)

// ScanResultStore implements storage.ScanResultStore using PostgreSQL.
// Scalar decision columns are first-class for querying; nested payloads
// (market, narrative, safety, features) live in JSONB.
type ScanResultStore struct {
	pool *Pool
}

// NewScanResultStore creates a new ScanResultStore.
func NewScanResultStore(pool *Pool) *ScanResultStore {
	return &ScanResultStore{pool: pool}
}

// Compile-time interface check.
var _ storage.ScanResultStore = (*ScanResultStore)(nil)

// resultPayload is the JSONB column carrying the nested result parts.
type resultPayload struct {
	Token            domain.TokenConfig          `json:"token"`
	Market           *domain.MarketSnapshot      `json:"market,omitempty"`
	Narrative        *domain.NarrativeInsight    `json:"narrative,omitempty"`
	News             []domain.NewsItem           `json:"news,omitempty"`
	Safety           *domain.SafetyReport        `json:"safety,omitempty"`
	RawFeatures      domain.FeatureVector        `json:"raw_features"`
	AdjustedFeatures domain.FeatureVector        `json:"adjusted_features"`
	Contributions    map[string]float64          `json:"contributions"`
	FlagDebug        map[string]domain.FlagCheck `json:"flag_debug"`
}

// Insert adds a new scan result. Returns ErrDuplicateKey if scan_id exists.
func (s *ScanResultStore) Insert(ctx context.Context, r *domain.ScanResult) error {
	if r == nil || r.ScanID == "" {
		return storage.ErrInvalidInput
	}

	payload, err := json.Marshal(resultPayload{
		Token:            r.Token,
		Market:           r.Market,
		Narrative:        r.Narrative,
		News:             r.News,
		Safety:           r.Safety,
		RawFeatures:      r.RawFeatures,
		AdjustedFeatures: r.AdjustedFeatures,
		Contributions:    r.GemScore.Contributions,
		FlagDebug:        r.FlagDebug,
	})
	if err != nil {
		return fmt.Errorf("marshal scan result payload: %w", err)
	}

	query := `
		INSERT INTO scan_results (
			scan_id, token_id, completed_at, score, confidence, flagged,
			payload, artifact_markdown, artifact_html, signature
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`

	_, err = s.pool.Exec(ctx, query,
		r.ScanID,
		r.Token.TokenID,
		r.CompletedAt,
		r.GemScore.Score,
		r.GemScore.Confidence,
		r.Flagged,
		payload,
		r.ArtifactMarkdown,
		r.ArtifactHTML,
		r.Signature,
	)
	if err != nil {
		if isDuplicateKeyError(err) {
			return storage.ErrDuplicateKey
		}
		return fmt.Errorf("insert scan result: %w", err)
	}
	return nil
}

const scanResultColumns = `
	scan_id, completed_at, score, confidence, flagged,
	payload, artifact_markdown, artifact_html, signature
`

// GetByID retrieves a result by scan ID. Returns ErrNotFound if not exists.
func (s *ScanResultStore) GetByID(ctx context.Context, scanID string) (*domain.ScanResult, error) {
	query := `SELECT ` + scanResultColumns + ` FROM scan_results WHERE scan_id = $1`

	row := s.pool.QueryRow(ctx, query, scanID)
	r, err := scanScanResult(row)
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get scan result by id: %w", err)
	}
	return r, nil
}

// GetByToken retrieves all results for a token, ordered by completed_at ASC.
func (s *ScanResultStore) GetByToken(ctx context.Context, tokenID string) ([]*domain.ScanResult, error) {
	query := `
		SELECT ` + scanResultColumns + `
		FROM scan_results
		WHERE token_id = $1
		ORDER BY completed_at ASC
	`

	rows, err := s.pool.Query(ctx, query, tokenID)
	if err != nil {
		return nil, fmt.Errorf("get scan results by token: %w", err)
	}
	defer rows.Close()

	return collectScanResults(rows)
}

// GetLatestByToken retrieves the most recent result for a token.
func (s *ScanResultStore) GetLatestByToken(ctx context.Context, tokenID string) (*domain.ScanResult, error) {
	query := `
		SELECT ` + scanResultColumns + `
		FROM scan_results
		WHERE token_id = $1
		ORDER BY completed_at DESC
		LIMIT 1
	`

	row := s.pool.QueryRow(ctx, query, tokenID)
	r, err := scanScanResult(row)
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get latest scan result: %w", err)
	}
	return r, nil
}

// GetFlagged retrieves flagged results within [start, end] inclusive.
func (s *ScanResultStore) GetFlagged(ctx context.Context, start, end int64) ([]*domain.ScanResult, error) {
	query := `
		SELECT ` + scanResultColumns + `
		FROM scan_results
		WHERE flagged = TRUE AND completed_at >= $1 AND completed_at <= $2
		ORDER BY completed_at ASC
	`

	rows, err := s.pool.Query(ctx, query, start, end)
	if err != nil {
		return nil, fmt.Errorf("get flagged scan results: %w", err)
	}
	defer rows.Close()

	return collectScanResults(rows)
}

// scanScanResult scans a single row into a ScanResult.
func scanScanResult(row pgx.Row) (*domain.ScanResult, error) {
	var (
		r       domain.ScanResult
		payload []byte
	)

	err := row.Scan(
		&r.ScanID,
		&r.CompletedAt,
		&r.GemScore.Score,
		&r.GemScore.Confidence,
		&r.Flagged,
		&payload,
		&r.ArtifactMarkdown,
		&r.ArtifactHTML,
		&r.Signature,
	)
	if err != nil {
		return nil, err
	}

	var p resultPayload
	if err := json.Unmarshal(payload, &p); err != nil {
		return nil, fmt.Errorf("unmarshal scan result payload: %w", err)
	}
	r.Token = p.Token
	r.Market = p.Market
	r.Narrative = p.Narrative
	r.News = p.News
	r.Safety = p.Safety
	r.RawFeatures = p.RawFeatures
	r.AdjustedFeatures = p.AdjustedFeatures
	r.GemScore.Contributions = p.Contributions
	r.FlagDebug = p.FlagDebug

	return &r, nil
}

// collectScanResults drains rows into a slice.
func collectScanResults(rows pgx.Rows) ([]*domain.ScanResult, error) {
	var out []*domain.ScanResult
	for rows.Next() {
		r, err := scanScanResult(rows)
		if err != nil {
			return nil, fmt.Errorf("scan result row: %w", err)
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate scan result rows: %w", err)
	}
	return out, nil
}
