package crypto

import (
	"fmt"

	"whisper/internal/domain/types"
)

// KeyHeader is the type byte that prefixes serialized Curve25519 public keys.
const KeyHeader byte = 0x05

// AppendKeyHeader returns key framed with KeyHeader. A key that is already
// 33 bytes long is returned as is.
func AppendKeyHeader(key []byte) ([]byte, error) {
	switch len(key) {
	case 33:
		return key, nil
	case 32:
		out := make([]byte, 33)
		out[0] = KeyHeader
		copy(out[1:], key)
		return out, nil
	default:
		return nil, fmt.Errorf("%w: %d", types.ErrInvalidKeySize, len(key))
	}
}

// RemoveKeyHeader strips the type byte from a framed key. A 32-byte key is
// returned as is.
func RemoveKeyHeader(key []byte) ([]byte, error) {
	switch len(key) {
	case 32:
		return key, nil
	case 33:
		out := make([]byte, 32)
		copy(out, key[1:])
		return out, nil
	default:
		return nil, fmt.Errorf("%w: %d", types.ErrInvalidKeySize, len(key))
	}
}

// EncodePublicKey returns the 33-byte framed form of pub.
func EncodePublicKey(pub types.X25519Public) []byte {
	out := make([]byte, 33)
	out[0] = KeyHeader
	copy(out[1:], pub[:])
	return out
}

// DecodePublicKey parses a framed or bare public key.
func DecodePublicKey(b []byte) (types.X25519Public, error) {
	var out types.X25519Public
	if len(b) == 33 && b[0] != KeyHeader {
		return out, fmt.Errorf("%w: bad key type 0x%02x", types.ErrInvalidKeySize, b[0])
	}
	raw, err := RemoveKeyHeader(b)
	if err != nil {
		return out, err
	}
	copy(out[:], raw)
	return out, nil
}
