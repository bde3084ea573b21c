package wire

import (
	"bytes"
	"fmt"

	"whisper/internal/crypto"
	"whisper/internal/domain/types"
)

// PreKeySignalMessage wraps the first SignalMessages of a session with the
// handshake parameters the responder needs. PreKeyID is 0 when no one-time
// pre-key was used.
type PreKeySignalMessage struct {
	RegistrationID uint32
	PreKeyID       uint32
	SignedPreKeyID uint32
	BaseKey        types.X25519Public
	IdentityKey    types.X25519Public
	Message        *SignalMessage

	serialized []byte
}

// NewPreKeySignalMessage builds a handshake message around msg.
func NewPreKeySignalMessage(
	registrationID, preKeyID, signedPreKeyID uint32,
	baseKey, identityKey types.X25519Public,
	msg *SignalMessage,
) *PreKeySignalMessage {
	body := []byte{VersionByte}
	if preKeyID != 0 {
		body = appendVarint(body, 1, preKeyID)
	}
	body = appendBytes(body, 2, crypto.EncodePublicKey(baseKey))
	body = appendBytes(body, 3, crypto.EncodePublicKey(identityKey))
	body = appendBytes(body, 4, msg.Serialize())
	body = appendVarint(body, 5, registrationID)
	body = appendVarint(body, 6, signedPreKeyID)

	return &PreKeySignalMessage{
		RegistrationID: registrationID,
		PreKeyID:       preKeyID,
		SignedPreKeyID: signedPreKeyID,
		BaseKey:        baseKey,
		IdentityKey:    identityKey,
		Message:        msg,
		serialized:     body,
	}
}

// ParsePreKeySignalMessage decodes a serialized PreKeySignalMessage and its
// inner SignalMessage.
func ParsePreKeySignalMessage(b []byte) (*PreKeySignalMessage, error) {
	if err := checkVersion(b, 2); err != nil {
		return nil, err
	}
	out := bytes.Clone(b)
	f, err := parseFields(out[1:])
	if err != nil {
		return nil, err
	}
	baseKey, err := f.publicKey(2)
	if err != nil {
		return nil, err
	}
	identityKey, err := f.publicKey(3)
	if err != nil {
		return nil, err
	}
	inner, ok := f.bytes[4]
	if !ok {
		return nil, fmt.Errorf("%w: missing inner message", types.ErrInvalidMessage)
	}
	msg, err := ParseSignalMessage(inner)
	if err != nil {
		return nil, err
	}
	signedPreKeyID, ok := f.uint32(6)
	if !ok {
		return nil, fmt.Errorf("%w: missing signed pre-key id", types.ErrInvalidMessage)
	}
	registrationID, _ := f.uint32(5)
	preKeyID, _ := f.uint32(1)

	return &PreKeySignalMessage{
		RegistrationID: registrationID,
		PreKeyID:       preKeyID,
		SignedPreKeyID: signedPreKeyID,
		BaseKey:        baseKey,
		IdentityKey:    identityKey,
		Message:        msg,
		serialized:     out,
	}, nil
}

// Serialize returns the version byte and body.
func (m *PreKeySignalMessage) Serialize() []byte { return m.serialized }
