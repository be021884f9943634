package scan

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"gemscan/internal/domain"
	"gemscan/internal/score"
)

// Profile is a declarative scan configuration loaded from YAML. It
// carries the token watchlist plus optional overrides for scoring
// weights, flag thresholds and pipeline tuning.
type Profile struct {
	Name   string         `yaml:"name"`
	Tokens []ProfileToken `yaml:"tokens"`

	// Weights override the default scoring table when non-empty.
	Weights map[string]float64 `yaml:"weights,omitempty"`

	Thresholds struct {
		Score       float64 `yaml:"score"`
		Confidence  float64 `yaml:"confidence"`
		SafetyFloor float64 `yaml:"safety_floor"`
	} `yaml:"thresholds"`

	ChartDays       int      `yaml:"chart_days"`
	MinLiquidityUSD float64  `yaml:"min_liquidity_usd"`
	NewsFeeds       []string `yaml:"news_feeds,omitempty"`
	NewsLimit       int      `yaml:"news_limit"`
}

// ProfileToken is one watchlist entry.
type ProfileToken struct {
	TokenID         string          `yaml:"token_id"`
	Symbol          string          `yaml:"symbol"`
	Name            string          `yaml:"name"`
	Chain           string          `yaml:"chain"`
	ContractAddress string          `yaml:"contract_address,omitempty"`
	Keywords        []string        `yaml:"keywords,omitempty"`
	Unlocks         []ProfileUnlock `yaml:"unlocks,omitempty"`
}

// ProfileUnlock is one scheduled supply unlock.
type ProfileUnlock struct {
	Date  time.Time `yaml:"date"`
	Share float64   `yaml:"share"`
}

// LoadProfile reads and validates a scan profile from disk.
func LoadProfile(path string) (*Profile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read profile %s: %w", path, err)
	}
	return ParseProfile(data)
}

// ParseProfile parses and validates YAML profile bytes.
func ParseProfile(data []byte) (*Profile, error) {
	var p Profile
	if err := yaml.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("parse profile: %w", err)
	}
	if len(p.Tokens) == 0 {
		return nil, fmt.Errorf("profile contains no tokens")
	}
	for i, t := range p.Tokens {
		if _, err := t.ToTokenConfig(); err != nil {
			return nil, fmt.Errorf("profile token %d (%s): %w", i, t.TokenID, err)
		}
	}
	if len(p.Weights) > 0 {
		if err := score.ValidateWeights(p.Weights); err != nil {
			return nil, fmt.Errorf("profile weights: %w", err)
		}
	}
	return &p, nil
}

// ToTokenConfig converts one watchlist entry into a validated TokenConfig.
func (t ProfileToken) ToTokenConfig() (domain.TokenConfig, error) {
	cfg := domain.TokenConfig{
		TokenID:         t.TokenID,
		Symbol:          t.Symbol,
		Name:            t.Name,
		Chain:           domain.Chain(t.Chain),
		ContractAddress: t.ContractAddress,
		Keywords:        t.Keywords,
	}
	for _, u := range t.Unlocks {
		cfg.Unlocks = append(cfg.Unlocks, domain.UnlockEvent{Date: u.Date, Share: u.Share})
	}
	if err := cfg.Validate(); err != nil {
		return domain.TokenConfig{}, err
	}
	return cfg, nil
}

// TokenConfigs converts the whole watchlist. Profiles are validated on
// load, so conversion cannot fail here.
func (p *Profile) TokenConfigs() []domain.TokenConfig {
	out := make([]domain.TokenConfig, 0, len(p.Tokens))
	for _, t := range p.Tokens {
		cfg, err := t.ToTokenConfig()
		if err != nil {
			continue
		}
		out = append(out, cfg)
	}
	return out
}

// FlagThresholds returns profile thresholds, falling back to defaults
// for any zero field.
func (p *Profile) FlagThresholds() score.FlagThresholds {
	th := score.DefaultThresholds()
	if p.Thresholds.Score > 0 {
		th.Score = p.Thresholds.Score
	}
	if p.Thresholds.Confidence > 0 {
		th.Confidence = p.Thresholds.Confidence
	}
	if p.Thresholds.SafetyFloor > 0 {
		th.SafetyFloor = p.Thresholds.SafetyFloor
	}
	return th
}

// Engine builds a scoring engine from the profile weights, or the
// default table when no override is present.
func (p *Profile) Engine() (*score.Engine, error) {
	weights := p.Weights
	if len(weights) == 0 {
		weights = score.DefaultWeights()
	}
	return score.NewEngine(weights)
}
