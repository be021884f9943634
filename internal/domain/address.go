package domain

import (
	"filippo.io/edwards25519"
	"github.com/mr-tron/base58"
)

// IsValidSolanaAddress reports whether s decodes to a 32-byte base58 value.
func IsValidSolanaAddress(s string) bool {
	decoded, err := base58.Decode(s)
	if err != nil {
		return false
	}
	return len(decoded) == 32
}

// IsOnCurve reports whether a Solana address is a valid ed25519 curve point.
// Mint and wallet addresses are on-curve; PDAs are deliberately off-curve.
func IsOnCurve(s string) bool {
	decoded, err := base58.Decode(s)
	if err != nil || len(decoded) != 32 {
		return false
	}
	_, err = new(edwards25519.Point).SetBytes(decoded)
	return err == nil
}
