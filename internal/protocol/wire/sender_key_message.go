package wire

import (
	"bytes"
	"fmt"

	"whisper/internal/crypto"
	"whisper/internal/domain/types"
)

// SenderKeyMessage is one group message, signed with the sender's chain
// signing key.
type SenderKeyMessage struct {
	KeyID      uint32
	Iteration  uint32
	Ciphertext []byte

	serialized []byte
}

// NewSenderKeyMessage builds and signs a group message.
func NewSenderKeyMessage(keyID, iteration uint32, ciphertext []byte, signingKey types.X25519Private) (*SenderKeyMessage, error) {
	body := []byte{VersionByte}
	body = appendVarint(body, 1, keyID)
	body = appendVarint(body, 2, iteration)
	body = appendBytes(body, 3, ciphertext)

	sig, err := crypto.Sign(signingKey, body)
	if err != nil {
		return nil, fmt.Errorf("sign sender key message: %w", err)
	}
	return &SenderKeyMessage{
		KeyID:      keyID,
		Iteration:  iteration,
		Ciphertext: ciphertext,
		serialized: append(body, sig...),
	}, nil
}

// ParseSenderKeyMessage decodes a serialized SenderKeyMessage. The signature
// is not checked here; see VerifySignature.
func ParseSenderKeyMessage(b []byte) (*SenderKeyMessage, error) {
	if err := checkVersion(b, 1+crypto.SignatureSize); err != nil {
		return nil, err
	}
	out := bytes.Clone(b)
	f, err := parseFields(out[1 : len(out)-crypto.SignatureSize])
	if err != nil {
		return nil, err
	}
	keyID, ok := f.uint32(1)
	if !ok {
		return nil, fmt.Errorf("%w: missing key id", types.ErrInvalidMessage)
	}
	iteration, _ := f.uint32(2)
	ciphertext, ok := f.bytes[3]
	if !ok {
		return nil, fmt.Errorf("%w: missing ciphertext", types.ErrInvalidMessage)
	}
	return &SenderKeyMessage{
		KeyID:      keyID,
		Iteration:  iteration,
		Ciphertext: ciphertext,
		serialized: out,
	}, nil
}

// Serialize returns the version byte, body and signature.
func (m *SenderKeyMessage) Serialize() []byte { return m.serialized }

// VerifySignature checks the trailing XEdDSA signature.
func (m *SenderKeyMessage) VerifySignature(signingKey types.X25519Public) bool {
	n := len(m.serialized) - crypto.SignatureSize
	return crypto.Verify(signingKey, m.serialized[:n], m.serialized[n:])
}

// SenderKeyDistributionMessage hands a sender chain to one group member.
type SenderKeyDistributionMessage struct {
	KeyID      uint32
	Iteration  uint32
	ChainKey   []byte
	SigningKey types.X25519Public

	serialized []byte
}

// NewSenderKeyDistributionMessage builds a distribution message.
func NewSenderKeyDistributionMessage(keyID, iteration uint32, chainKey []byte, signingKey types.X25519Public) *SenderKeyDistributionMessage {
	body := []byte{VersionByte}
	body = appendVarint(body, 1, keyID)
	body = appendVarint(body, 2, iteration)
	body = appendBytes(body, 3, chainKey)
	body = appendBytes(body, 4, crypto.EncodePublicKey(signingKey))
	return &SenderKeyDistributionMessage{
		KeyID:      keyID,
		Iteration:  iteration,
		ChainKey:   chainKey,
		SigningKey: signingKey,
		serialized: body,
	}
}

// ParseSenderKeyDistributionMessage decodes a distribution message.
func ParseSenderKeyDistributionMessage(b []byte) (*SenderKeyDistributionMessage, error) {
	if err := checkVersion(b, 2); err != nil {
		return nil, err
	}
	out := bytes.Clone(b)
	f, err := parseFields(out[1:])
	if err != nil {
		return nil, err
	}
	keyID, ok := f.uint32(1)
	if !ok {
		return nil, fmt.Errorf("%w: missing key id", types.ErrInvalidMessage)
	}
	iteration, _ := f.uint32(2)
	chainKey, ok := f.bytes[3]
	if !ok || len(chainKey) != 32 {
		return nil, fmt.Errorf("%w: bad chain key", types.ErrInvalidMessage)
	}
	signingKey, err := f.publicKey(4)
	if err != nil {
		return nil, err
	}
	return &SenderKeyDistributionMessage{
		KeyID:      keyID,
		Iteration:  iteration,
		ChainKey:   chainKey,
		SigningKey: signingKey,
		serialized: out,
	}, nil
}

// Serialize returns the version byte and body.
func (m *SenderKeyDistributionMessage) Serialize() []byte { return m.serialized }
