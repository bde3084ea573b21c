package types

// Identity holds the long-term Curve25519 identity pair and the local
// registration id. The same pair is used for DH and, via XEdDSA, for signing.
type Identity struct {
	KeyPair        KeyPair `json:"key_pair"`
	RegistrationID uint32  `json:"registration_id"`
}
