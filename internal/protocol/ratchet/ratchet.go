package ratchet

import (
	"fmt"

	"whisper/internal/crypto"
	"whisper/internal/domain/types"
	"whisper/internal/protocol/record"
	"whisper/internal/util/memzero"
)

// MaxJump is the largest number of hash-ratchet steps taken in one call.
const MaxJump = 2000

var (
	infoRatchet     = []byte("WhisperRatchet")
	infoMessageKeys = []byte("WhisperMessageKeys")

	messageKeySeed = []byte{0x01}
	chainKeySeed   = []byte{0x02}
)

// MessageSecrets are the per-message keys derived from one message key.
type MessageSecrets struct {
	CipherKey []byte
	MACKey    []byte
	IV        []byte
}

// DeriveMessageSecrets expands a message key into the AES key, MAC key and IV.
func DeriveMessageSecrets(messageKey []byte) (MessageSecrets, error) {
	out, err := crypto.DeriveSecrets(messageKey, nil, infoMessageKeys, 80)
	if err != nil {
		return MessageSecrets{}, err
	}
	return MessageSecrets{CipherKey: out[:32], MACKey: out[32:64], IV: out[64:80]}, nil
}

// ChainStep returns the message key for chainKey and the next chain key.
func ChainStep(chainKey []byte) (messageKey, next []byte) {
	return crypto.HMACSHA256(chainKey, messageKeySeed), crypto.HMACSHA256(chainKey, chainKeySeed)
}

// FillMessageKeys advances c until its counter reaches counter, storing every
// derived message key. It is a no-op when c is already there.
func FillMessageKeys(c *record.SessionChain, counter int64) error {
	if c.Counter >= counter {
		return nil
	}
	if counter-c.Counter > MaxJump {
		return fmt.Errorf("%w: %d steps ahead", types.ErrMessageOverflow, counter-c.Counter)
	}
	if c.Closed() {
		return types.ErrClosedChain
	}
	for c.Counter < counter {
		mk, next := ChainStep(c.Key)
		c.MessageKeys.Put(c.Counter+1, mk)
		memzero.Zero(c.Key)
		c.Key = next
		c.Counter++
	}
	return nil
}

// RootStep mixes DH(priv, pub) into rootKey and returns the new root key and
// chain key.
func RootStep(rootKey []byte, priv types.X25519Private, pub types.X25519Public) (newRoot, chainKey []byte, err error) {
	dh, err := crypto.DH(priv, pub)
	if err != nil {
		return nil, nil, err
	}
	defer memzero.Array(&dh)
	out, err := crypto.DeriveSecrets(dh[:], rootKey, infoRatchet, 64)
	if err != nil {
		return nil, nil, err
	}
	return out[:32], out[32:], nil
}

// CalculateRatchet advances the root key with the local ephemeral and
// remoteKey and installs the resulting chain. A sending chain is keyed by the
// local ephemeral, a receiving chain by remoteKey.
func CalculateRatchet(st *record.SessionState, remoteKey types.X25519Public, sending bool) error {
	root, chainKey, err := RootStep(st.RootKey, st.EphemeralKeyPair.Private, remoteKey)
	if err != nil {
		return fmt.Errorf("ratchet step: %w", err)
	}
	ephemeral := remoteKey
	if sending {
		ephemeral = st.EphemeralKeyPair.Public
	}
	st.AddChain(record.NewSessionChain(ephemeral, chainKey))
	st.RootKey = root
	return nil
}

// MaybeStep performs a DH ratchet step when remoteKey has no chain yet.
//
// The chain of the previous remote ephemeral is filled up to previousCounter
// and closed, a receiving chain for remoteKey is derived, then the local
// ephemeral is replaced and a new sending chain derived from it.
func MaybeStep(st *record.SessionState, remoteKey types.X25519Public, previousCounter uint32) error {
	if st.FindChain(remoteKey) != nil {
		return nil
	}

	if prev := st.FindChain(st.LastRemoteEphemeral); prev != nil && prev.Ephemeral != st.EphemeralKeyPair.Public {
		if err := FillMessageKeys(prev, int64(previousCounter)); err != nil {
			return err
		}
		prev.Close()
	}

	if err := CalculateRatchet(st, remoteKey, false); err != nil {
		return err
	}

	if sending := st.SendingChain(); sending != nil {
		st.PreviousCounter = sending.Counter
		st.RemoveChain(sending.Ephemeral)
	}

	kp, err := crypto.GenerateKeyPair()
	if err != nil {
		return err
	}
	st.EphemeralKeyPair = kp
	if err := CalculateRatchet(st, remoteKey, true); err != nil {
		return err
	}
	st.LastRemoteEphemeral = remoteKey
	return nil
}
