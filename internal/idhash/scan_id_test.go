package idhash

import (
	"crypto/sha256"
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestComputeScanIDDeterministic(t *testing.T) {
	first := ComputeScanID("glowcoin", "0xabc", 1700000000000)
	second := ComputeScanID("glowcoin", "0xabc", 1700000000000)
	assert.Equal(t, first, second)
	assert.Len(t, first, 64)
}

func TestComputeScanIDSensitiveToEveryInput(t *testing.T) {
	base := ComputeScanID("glowcoin", "0xabc", 1700000000000)
	assert.NotEqual(t, base, ComputeScanID("glowcoin2", "0xabc", 1700000000000))
	assert.NotEqual(t, base, ComputeScanID("glowcoin", "0xdef", 1700000000000))
	assert.NotEqual(t, base, ComputeScanID("glowcoin", "0xabc", 1700000000001))
}

func TestComputeScanIDMatchesFormula(t *testing.T) {
	sum := sha256.Sum256([]byte("glowcoin|0xabc|42"))
	assert.Equal(t, hex.EncodeToString(sum[:]), ComputeScanID("glowcoin", "0xabc", 42))
}

func TestComputeScanIDEmptyAddress(t *testing.T) {
	// Tokens without a contract address still get stable IDs.
	assert.Len(t, ComputeScanID("native-coin", "", 42), 64)
	assert.NotEqual(t, ComputeScanID("native-coin", "", 42), ComputeScanID("native-coin", "", 43))
}

func TestComputeArtifactID(t *testing.T) {
	payload := []byte("# Gem Scan: Glowcoin\n")
	id := ComputeArtifactID(payload)
	assert.Len(t, id, 12)
	assert.Equal(t, id, ComputeArtifactID(payload))

	sum := sha256.Sum256(payload)
	assert.Equal(t, hex.EncodeToString(sum[:])[:12], id)
	assert.NotEqual(t, id, ComputeArtifactID([]byte("other payload")))
}
