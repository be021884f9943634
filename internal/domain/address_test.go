package domain

import (
	"strings"
	"testing"

	"github.com/mr-tron/base58"
	"github.com/stretchr/testify/assert"
)

// Well-known mainnet addresses used as fixtures.
const (
	wrappedSolMint = "So11111111111111111111111111111111111111112"
	usdcMint       = "EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v"
)

func TestIsValidSolanaAddress(t *testing.T) {
	assert.True(t, IsValidSolanaAddress(wrappedSolMint))
	assert.True(t, IsValidSolanaAddress(usdcMint))

	assert.False(t, IsValidSolanaAddress(""))
	assert.False(t, IsValidSolanaAddress("0x1111111111111111111111111111111111111111"), "0 is not in the base58 alphabet")
	assert.False(t, IsValidSolanaAddress("abc"), "decodes to fewer than 32 bytes")

	// 33 bytes of data is valid base58 but not an address.
	long := base58.Encode(make([]byte, 33))
	assert.False(t, IsValidSolanaAddress(long))
}

func TestIsOnCurve(t *testing.T) {
	// Mint accounts are ordinary ed25519 keys.
	assert.True(t, IsOnCurve(usdcMint))

	assert.False(t, IsOnCurve("not-base58-0OIl"))
	assert.False(t, IsOnCurve(base58.Encode(make([]byte, 16))))
}

func TestIsOnCurveRejectsNonCanonicalPoint(t *testing.T) {
	// All 0xFF is 32 bytes long but not a canonical curve encoding.
	raw := []byte(strings.Repeat("\xff", 32))
	assert.False(t, IsOnCurve(base58.Encode(raw)))
}
