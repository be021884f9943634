package domain

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"
)

// Chain identifies the network a token lives on.
type Chain string

const (
	ChainEthereum Chain = "ethereum"
	ChainSolana   Chain = "solana"
	ChainBSC      Chain = "bsc"
	ChainBase     Chain = "base"
)

// ErrInvalidTokenConfig is returned when a token config fails validation.
var ErrInvalidTokenConfig = errors.New("invalid token config")

var evmAddressRe = regexp.MustCompile(`^0x[0-9a-fA-F]{40}$`)

// TokenConfig describes one token to scan. It is the sole input to a scan.
// Corresponds to token_configs table in PostgreSQL.
type TokenConfig struct {
	TokenID         string        // PRIMARY KEY, market-data identifier (e.g. CoinGecko id)
	Symbol          string        // ticker symbol
	Name            string        // display name
	Chain           Chain         // network the contract lives on
	ContractAddress string        // contract or mint address
	Keywords        []string      // narrative/news matching keywords
	Unlocks         []UnlockEvent // known upcoming supply unlocks
	CreatedAt       int64         // record creation timestamp (ms)
}

// Validate checks identifier and address shape for the configured chain.
func (c *TokenConfig) Validate() error {
	if strings.TrimSpace(c.TokenID) == "" {
		return fmt.Errorf("%w: token_id is required", ErrInvalidTokenConfig)
	}
	if strings.TrimSpace(c.Symbol) == "" {
		return fmt.Errorf("%w: symbol is required", ErrInvalidTokenConfig)
	}
	if c.ContractAddress == "" {
		// Native assets have no contract; contract stages degrade gracefully.
		return nil
	}
	switch c.Chain {
	case ChainSolana:
		if !IsValidSolanaAddress(c.ContractAddress) {
			return fmt.Errorf("%w: %q is not a valid solana address", ErrInvalidTokenConfig, c.ContractAddress)
		}
	case ChainEthereum, ChainBSC, ChainBase:
		if !evmAddressRe.MatchString(c.ContractAddress) {
			return fmt.Errorf("%w: %q is not a valid EVM address", ErrInvalidTokenConfig, c.ContractAddress)
		}
	default:
		return fmt.Errorf("%w: unknown chain %q", ErrInvalidTokenConfig, c.Chain)
	}
	return nil
}

// UnlockEvent is one scheduled token-supply unlock.
type UnlockEvent struct {
	Date  time.Time // unlock date (UTC)
	Share float64   // share of total supply unlocking, in [0,1]
}
