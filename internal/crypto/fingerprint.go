package crypto

import (
	"crypto/sha256"
	"encoding/hex"

	"whisper/internal/domain/types"
)

// Fingerprint returns a short hex fingerprint of a public key.
//
// It hashes the framed 33-byte key with SHA-256 and truncates to 10 bytes
// (20 hex chars).
func Fingerprint(pub types.X25519Public) types.Fingerprint {
	sum := sha256.Sum256(EncodePublicKey(pub))
	return types.Fingerprint(hex.EncodeToString(sum[:10]))
}
