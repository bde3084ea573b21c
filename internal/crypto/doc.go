// Package crypto exposes the primitives used by the session engine.
//
// Contents
//
//   - X25519 key generation and Diffie–Hellman (GenerateKeyPair, DH)
//   - XEdDSA signing and verification with Curve25519 keys (Sign, Verify)
//   - Public key framing with the 0x05 type header (AppendKeyHeader,
//     RemoveKeyHeader, EncodePublicKey, DecodePublicKey)
//   - HKDF-SHA256 and HMAC-SHA256 (DeriveSecrets, HMACSHA256)
//   - AES-256-CBC with PKCS#7 padding (EncryptCBC, DecryptCBC)
//   - Short public-key fingerprints for display/logging (Fingerprint)
//
// # Notes
//
// Keys use the fixed-size array types from internal/domain/types. Callers
// should treat returned secrets as sensitive and zero them with
// internal/util/memzero when practical.
package crypto
