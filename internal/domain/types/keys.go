package types

// X25519Public is a Curve25519 public key without its type header.
type X25519Public [32]byte

// Slice returns the key as a []byte.
func (p X25519Public) Slice() []byte { return p[:] }

// IsZero reports whether the key is unset.
func (p X25519Public) IsZero() bool { return p == X25519Public{} }

// X25519Private is a clamped Curve25519 private key.
type X25519Private [32]byte

// Slice returns the key as a []byte.
func (k X25519Private) Slice() []byte { return k[:] }

// KeyPair is a Curve25519 key pair. The same pair type is used for identity,
// pre-key, ratchet and sender signing keys.
type KeyPair struct {
	Private X25519Private `json:"private"`
	Public  X25519Public  `json:"public"`
}

// HasPrivate reports whether the private half is present. Remote sender
// signing keys are stored public-only.
func (kp KeyPair) HasPrivate() bool { return kp.Private != X25519Private{} }
