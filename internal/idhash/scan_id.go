// Package idhash computes deterministic identifiers from domain keys
// using SHA-256, so re-runs over the same inputs produce the same IDs.
package idhash

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// ComputeScanID computes a deterministic scan identifier.
// Formula: SHA256(token_id|contract_address|completed_at_ms).
// Returns hex-encoded hash (64 characters).
func ComputeScanID(tokenID, contractAddress string, completedAtMs int64) string {
	data := fmt.Sprintf("%s|%s|%d", tokenID, contractAddress, completedAtMs)
	hash := sha256.Sum256([]byte(data))
	return hex.EncodeToString(hash[:])
}

// ComputeArtifactID computes a short deterministic artifact identifier
// from the rendered payload. Returns the first 12 hex characters.
func ComputeArtifactID(payload []byte) string {
	hash := sha256.Sum256(payload)
	return hex.EncodeToString(hash[:])[:12]
}
