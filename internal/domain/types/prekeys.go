package types

// PreKeyRecord is a one-time pre-key stored locally.
type PreKeyRecord struct {
	ID      uint32  `json:"id"`
	KeyPair KeyPair `json:"key_pair"`
}

// SignedPreKeyRecord is a medium-term pre-key whose public half is signed by
// the identity key.
type SignedPreKeyRecord struct {
	ID         uint32  `json:"id"`
	KeyPair    KeyPair `json:"key_pair"`
	Signature  []byte  `json:"signature"`
	CreatedUTC int64   `json:"created_utc"`
}

// PreKeyPublic is only the public half of a one-time pre-key.
type PreKeyPublic struct {
	ID     uint32       `json:"id"`
	Public X25519Public `json:"public"`
}

// PreKeyBundle is what an initiator needs to open a session with one remote
// device. PreKey is nil when the responder has run out of one-time pre-keys.
type PreKeyBundle struct {
	Address               SessionAddress `json:"address"`
	RegistrationID        uint32         `json:"registration_id"`
	IdentityKey           X25519Public   `json:"identity_key"`
	SignedPreKeyID        uint32         `json:"signed_pre_key_id"`
	SignedPreKey          X25519Public   `json:"signed_pre_key"`
	SignedPreKeySignature []byte         `json:"signed_pre_key_signature"`
	PreKeyID              uint32         `json:"pre_key_id,omitempty"`
	PreKey                *X25519Public  `json:"pre_key,omitempty"`
}

// PublishedBundle is the set of public keys a device registers with the
// relay. The relay hands out one one-time pre-key per fetched bundle.
type PublishedBundle struct {
	Address               SessionAddress `json:"address"`
	RegistrationID        uint32         `json:"registration_id"`
	IdentityKey           X25519Public   `json:"identity_key"`
	SignedPreKeyID        uint32         `json:"signed_pre_key_id"`
	SignedPreKey          X25519Public   `json:"signed_pre_key"`
	SignedPreKeySignature []byte         `json:"signed_pre_key_signature"`
	PreKeys               []PreKeyPublic `json:"pre_keys,omitempty"`
}

// Take returns a single-use bundle carrying the first one-time pre-key, and
// the remaining published set.
func (b PublishedBundle) Take() (PreKeyBundle, PublishedBundle) {
	out := PreKeyBundle{
		Address:               b.Address,
		RegistrationID:        b.RegistrationID,
		IdentityKey:           b.IdentityKey,
		SignedPreKeyID:        b.SignedPreKeyID,
		SignedPreKey:          b.SignedPreKey,
		SignedPreKeySignature: b.SignedPreKeySignature,
	}
	if len(b.PreKeys) == 0 {
		return out, b
	}
	pk := b.PreKeys[0]
	out.PreKeyID = pk.ID
	out.PreKey = &pk.Public
	b.PreKeys = b.PreKeys[1:]
	return out, b
}
