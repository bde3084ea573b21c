package wire

import (
	"bytes"
	"crypto/hmac"
	"fmt"

	"whisper/internal/crypto"
	"whisper/internal/domain/types"
)

// MACSize is the length of the truncated SignalMessage MAC.
const MACSize = 8

// SignalMessage is a ratchet message on an established session.
type SignalMessage struct {
	RatchetKey      types.X25519Public
	Counter         uint32
	PreviousCounter uint32
	Ciphertext      []byte

	serialized []byte
}

// NewSignalMessage builds and MACs a message. The MAC covers the sender and
// receiver identity keys followed by the version byte and body.
func NewSignalMessage(
	ratchetKey types.X25519Public,
	counter, previousCounter uint32,
	ciphertext, macKey []byte,
	senderIdentity, receiverIdentity types.X25519Public,
) *SignalMessage {
	body := []byte{VersionByte}
	body = appendBytes(body, 1, crypto.EncodePublicKey(ratchetKey))
	body = appendVarint(body, 2, counter)
	body = appendVarint(body, 3, previousCounter)
	body = appendBytes(body, 4, ciphertext)

	mac := computeMAC(macKey, senderIdentity, receiverIdentity, body)
	return &SignalMessage{
		RatchetKey:      ratchetKey,
		Counter:         counter,
		PreviousCounter: previousCounter,
		Ciphertext:      ciphertext,
		serialized:      append(body, mac...),
	}
}

// ParseSignalMessage decodes a serialized SignalMessage. The MAC is not
// checked here; see VerifyMAC.
func ParseSignalMessage(b []byte) (*SignalMessage, error) {
	if err := checkVersion(b, 1+MACSize); err != nil {
		return nil, err
	}
	out := bytes.Clone(b)
	f, err := parseFields(out[1 : len(out)-MACSize])
	if err != nil {
		return nil, err
	}
	ratchetKey, err := f.publicKey(1)
	if err != nil {
		return nil, err
	}
	counter, ok := f.uint32(2)
	if !ok {
		return nil, fmt.Errorf("%w: missing counter", types.ErrInvalidMessage)
	}
	previousCounter, _ := f.uint32(3)
	ciphertext, ok := f.bytes[4]
	if !ok {
		return nil, fmt.Errorf("%w: missing ciphertext", types.ErrInvalidMessage)
	}
	return &SignalMessage{
		RatchetKey:      ratchetKey,
		Counter:         counter,
		PreviousCounter: previousCounter,
		Ciphertext:      ciphertext,
		serialized:      out,
	}, nil
}

// Serialize returns the version byte, body and MAC.
func (m *SignalMessage) Serialize() []byte { return m.serialized }

// VerifyMAC recomputes the MAC and compares it in constant time.
func (m *SignalMessage) VerifyMAC(macKey []byte, senderIdentity, receiverIdentity types.X25519Public) bool {
	body := m.serialized[:len(m.serialized)-MACSize]
	want := computeMAC(macKey, senderIdentity, receiverIdentity, body)
	return hmac.Equal(want, m.serialized[len(m.serialized)-MACSize:])
}

func computeMAC(macKey []byte, senderIdentity, receiverIdentity types.X25519Public, body []byte) []byte {
	full := crypto.HMACSHA256(
		macKey,
		crypto.EncodePublicKey(senderIdentity),
		crypto.EncodePublicKey(receiverIdentity),
		body,
	)
	return full[:MACSize]
}
