package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5"

	"gemscan/internal/domain"
	"gemscan/internal/storage"
)

// TokenConfigStore implements storage.TokenConfigStore using PostgreSQL.
type TokenConfigStore struct {
	pool *Pool
}

// NewTokenConfigStore creates a new TokenConfigStore.
func NewTokenConfigStore(pool *Pool) *TokenConfigStore {
	return &TokenConfigStore{pool: pool}
}

// Compile-time interface check.
var _ storage.TokenConfigStore = (*TokenConfigStore)(nil)

// Insert adds a new token config. Returns ErrDuplicateKey if token_id exists.
func (s *TokenConfigStore) Insert(ctx context.Context, c *domain.TokenConfig) error {
	if c == nil || c.TokenID == "" {
		return storage.ErrInvalidInput
	}

	keywords, err := json.Marshal(c.Keywords)
	if err != nil {
		return fmt.Errorf("marshal keywords: %w", err)
	}
	unlocks, err := json.Marshal(c.Unlocks)
	if err != nil {
		return fmt.Errorf("marshal unlocks: %w", err)
	}

	query := `
		INSERT INTO token_configs (
			token_id, symbol, name, chain, contract_address, keywords, unlocks, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	_, err = s.pool.Exec(ctx, query,
		c.TokenID,
		c.Symbol,
		c.Name,
		string(c.Chain),
		c.ContractAddress,
		keywords,
		unlocks,
		c.CreatedAt,
	)
	if err != nil {
		if isDuplicateKeyError(err) {
			return storage.ErrDuplicateKey
		}
		return fmt.Errorf("insert token config: %w", err)
	}
	return nil
}

const tokenConfigColumns = `
	token_id, symbol, name, chain, contract_address, keywords, unlocks, created_at
`

// GetByID retrieves a config by token ID. Returns ErrNotFound if not exists.
func (s *TokenConfigStore) GetByID(ctx context.Context, tokenID string) (*domain.TokenConfig, error) {
	query := `SELECT ` + tokenConfigColumns + ` FROM token_configs WHERE token_id = $1`

	row := s.pool.QueryRow(ctx, query, tokenID)
	c, err := scanTokenConfig(row)
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get token config by id: %w", err)
	}
	return c, nil
}

// GetAll retrieves all configs, ordered by token_id ASC.
func (s *TokenConfigStore) GetAll(ctx context.Context) ([]*domain.TokenConfig, error) {
	query := `SELECT ` + tokenConfigColumns + ` FROM token_configs ORDER BY token_id ASC`

	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("get all token configs: %w", err)
	}
	defer rows.Close()

	return collectTokenConfigs(rows)
}

// GetByChain retrieves all configs for one chain, ordered by token_id ASC.
func (s *TokenConfigStore) GetByChain(ctx context.Context, chain domain.Chain) ([]*domain.TokenConfig, error) {
	query := `
		SELECT ` + tokenConfigColumns + `
		FROM token_configs
		WHERE chain = $1
		ORDER BY token_id ASC
	`

	rows, err := s.pool.Query(ctx, query, string(chain))
	if err != nil {
		return nil, fmt.Errorf("get token configs by chain: %w", err)
	}
	defer rows.Close()

	return collectTokenConfigs(rows)
}

// scanTokenConfig scans a single row into a TokenConfig.
func scanTokenConfig(row pgx.Row) (*domain.TokenConfig, error) {
	var (
		c        domain.TokenConfig
		chain    string
		keywords []byte
		unlocks  []byte
	)

	err := row.Scan(
		&c.TokenID,
		&c.Symbol,
		&c.Name,
		&chain,
		&c.ContractAddress,
		&keywords,
		&unlocks,
		&c.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	c.Chain = domain.Chain(chain)
	if len(keywords) > 0 {
		if err := json.Unmarshal(keywords, &c.Keywords); err != nil {
			return nil, fmt.Errorf("unmarshal keywords: %w", err)
		}
	}
	if len(unlocks) > 0 {
		if err := json.Unmarshal(unlocks, &c.Unlocks); err != nil {
			return nil, fmt.Errorf("unmarshal unlocks: %w", err)
		}
	}

	return &c, nil
}

// collectTokenConfigs drains rows into a slice.
func collectTokenConfigs(rows pgx.Rows) ([]*domain.TokenConfig, error) {
	var out []*domain.TokenConfig
	for rows.Next() {
		c, err := scanTokenConfig(rows)
		if err != nil {
			return nil, fmt.Errorf("scan token config row: %w", err)
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate token config rows: %w", err)
	}
	return out, nil
}
