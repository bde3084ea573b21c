package crypto

import (
	"crypto/rand"

	"golang.org/x/crypto/curve25519"

	"whisper/internal/domain/types"
)

// GenerateKeyPair returns a fresh Curve25519 key pair.
// The private key is clamped per RFC 7748.
func GenerateKeyPair() (types.KeyPair, error) {
	var kp types.KeyPair
	if _, err := rand.Read(kp.Private[:]); err != nil {
		return types.KeyPair{}, err
	}
	clamp(&kp.Private)
	pub, err := curve25519.X25519(kp.Private.Slice(), curve25519.Basepoint)
	if err != nil {
		return types.KeyPair{}, err
	}
	copy(kp.Public[:], pub)
	return kp, nil
}

// PublicKey recomputes the public half of priv.
func PublicKey(priv types.X25519Private) (types.X25519Public, error) {
	var out types.X25519Public
	pub, err := curve25519.X25519(priv.Slice(), curve25519.Basepoint)
	if err != nil {
		return out, err
	}
	copy(out[:], pub)
	return out, nil
}

// DH computes X25519 Diffie–Hellman. It fails on low-order public keys.
func DH(priv types.X25519Private, pub types.X25519Public) (out [32]byte, err error) {
	secret, err := curve25519.X25519(priv.Slice(), pub.Slice())
	if err != nil {
		return out, err
	}
	copy(out[:], secret)
	return out, nil
}

func clamp(k *types.X25519Private) {
	k[0] &= 248
	k[31] &= 127
	k[31] |= 64
}
