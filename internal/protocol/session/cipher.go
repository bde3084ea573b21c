package session

import (
	"fmt"

	"github.com/sirupsen/logrus"

	"whisper/internal/crypto"
	"whisper/internal/domain"
	"whisper/internal/domain/types"
	"whisper/internal/logging"
	"whisper/internal/protocol/ratchet"
	"whisper/internal/protocol/record"
	"whisper/internal/protocol/wire"
	"whisper/internal/protocol/x3dh"
)

// CiphertextMessage is an encrypted message and the discriminator the
// transport carries next to it.
type CiphertextMessage struct {
	Type           types.MessageType
	Body           []byte
	RegistrationID uint32
}

// Cipher encrypts to and decrypts from one remote address.
type Cipher struct {
	store     domain.KeyStore
	address   types.SessionAddress
	builder   *x3dh.Builder
	maxStates int
	log       *logrus.Entry
}

// Option configures a Cipher.
type Option func(*Cipher)

// WithMaxStates bounds the epochs kept per session.
func WithMaxStates(n int) Option { return func(c *Cipher) { c.maxStates = n } }

// WithLogger sets the logger for cipher events.
func WithLogger(l *logrus.Entry) Option { return func(c *Cipher) { c.log = l } }

// NewCipher returns a Cipher for address backed by store.
func NewCipher(store domain.KeyStore, address types.SessionAddress, opts ...Option) *Cipher {
	c := &Cipher{store: store, address: address, maxStates: record.DefaultMaxStates}
	for _, opt := range opts {
		opt(c)
	}
	c.log = logging.OrDiscard(c.log).WithField("address", address.String())
	c.builder = x3dh.NewBuilder(store, address, x3dh.WithMaxStates(c.maxStates), x3dh.WithLogger(c.log))
	return c
}

// Encrypt seals plaintext on the current epoch's sending chain. Until the
// remote side has replied, the result is a pre-key message.
func (c *Cipher) Encrypt(plaintext []byte) (CiphertextMessage, error) {
	unlock := c.store.LockSession(c.address)
	defer unlock()

	sess, found, err := c.store.FindSessionByAddress(c.address)
	if err != nil {
		return CiphertextMessage{}, err
	}
	if !found || sess.CurrentState() == nil {
		return CiphertextMessage{}, types.ErrSessionNotFound
	}
	sess.SetMaxStates(c.maxStates)
	st := sess.CurrentState()

	trusted, err := c.store.HasTrust(c.address, st.RemoteIdentityKey)
	if err != nil {
		return CiphertextMessage{}, err
	}
	if !trusted {
		return CiphertextMessage{}, types.ErrUntrustedIdentity
	}

	chain := st.SendingChain()
	if chain == nil {
		return CiphertextMessage{}, types.ErrNoSuitableChain
	}
	if err := ratchet.FillMessageKeys(chain, chain.Counter+1); err != nil {
		return CiphertextMessage{}, err
	}
	mk, ok := chain.MessageKeys.Take(chain.Counter)
	if !ok {
		return CiphertextMessage{}, types.ErrKeyAlreadyConsumed
	}
	secrets, err := ratchet.DeriveMessageSecrets(mk)
	if err != nil {
		return CiphertextMessage{}, err
	}
	ciphertext, err := crypto.EncryptCBC(secrets.CipherKey, secrets.IV, plaintext)
	if err != nil {
		return CiphertextMessage{}, err
	}

	msg := wire.NewSignalMessage(
		st.EphemeralKeyPair.Public,
		uint32(chain.Counter),
		uint32(max(st.PreviousCounter, 0)),
		ciphertext,
		secrets.MACKey,
		st.LocalIdentityPublic,
		st.RemoteIdentityKey,
	)

	out := CiphertextMessage{Type: types.MessageTypeWhisper, Body: msg.Serialize(), RegistrationID: st.RemoteRegistrationID}
	if p := st.PendingPreKey; p != nil {
		pre := wire.NewPreKeySignalMessage(st.LocalRegistrationID, p.PreKeyID, p.SignedPreKeyID, p.BaseKey, st.LocalIdentityPublic, msg)
		out.Type = types.MessageTypePreKey
		out.Body = pre.Serialize()
	}

	if err := c.store.AddSession(c.address, sess); err != nil {
		return CiphertextMessage{}, err
	}
	c.log.WithFields(logrus.Fields{"type": out.Type, "counter": chain.Counter}).Debug("encrypted")
	return out, nil
}

// DecryptPreKey handles a session-establishing message: it builds the
// responder state if needed, decrypts the inner message against it and, on
// success, consumes the one-time pre-key the handshake used.
func (c *Cipher) DecryptPreKey(msg *wire.PreKeySignalMessage) ([]byte, error) {
	unlock := c.store.LockSession(c.address)
	defer unlock()

	sess, found, err := c.store.FindSessionByAddress(c.address)
	if err != nil {
		return nil, err
	}
	if !found {
		if msg.RegistrationID == 0 {
			return nil, types.ErrMissingRegistrationID
		}
		sess = record.NewSession(c.maxStates)
	}
	sess.SetMaxStates(c.maxStates)

	preKeyID, fresh, err := c.builder.CreateIncoming(sess, msg)
	if err != nil {
		return nil, err
	}
	st := sess.FindState(record.CurrentVersion, msg.BaseKey)
	if st == nil {
		return nil, types.ErrNoSuitableSession
	}
	plaintext, err := c.decryptWithState(st, msg.Message)
	if err != nil {
		return nil, err
	}

	if err := c.store.SaveIdentity(c.address, msg.IdentityKey); err != nil {
		return nil, err
	}
	if err := c.store.AddSession(c.address, sess); err != nil {
		return nil, err
	}
	if fresh && preKeyID != 0 {
		if err := c.store.RemovePreKey(preKeyID); err != nil {
			return nil, fmt.Errorf("remove pre-key %d: %w", preKeyID, err)
		}
	}
	c.log.WithFields(logrus.Fields{
		"type":       types.MessageTypePreKey,
		"counter":    msg.Message.Counter,
		"pre_key_id": preKeyID,
		"new_state":  fresh,
	}).Debug("decrypted")
	return plaintext, nil
}

// Decrypt handles a message on an established session. Epochs are tried
// newest first, each on a copy; the first that decrypts is committed in
// place.
func (c *Cipher) Decrypt(msg *wire.SignalMessage) ([]byte, error) {
	unlock := c.store.LockSession(c.address)
	defer unlock()

	sess, found, err := c.store.FindSessionByAddress(c.address)
	if err != nil {
		return nil, err
	}
	if !found || sess.IsFresh() {
		return nil, types.ErrSessionNotFound
	}
	sess.SetMaxStates(c.maxStates)

	causes := make([]error, 0, len(sess.States))
	for i, st := range sess.States {
		working := st.Clone()
		plaintext, err := c.decryptWithState(working, msg)
		if err != nil {
			causes = append(causes, fmt.Errorf("state %d: %w", i, err))
			continue
		}
		sess.ReplaceState(i, working)
		if err := c.store.SaveIdentity(c.address, working.RemoteIdentityKey); err != nil {
			return nil, err
		}
		if err := c.store.AddSession(c.address, sess); err != nil {
			return nil, err
		}
		c.log.WithFields(logrus.Fields{
			"type":    types.MessageTypeWhisper,
			"counter": msg.Counter,
			"state":   i,
		}).Debug("decrypted")
		return plaintext, nil
	}

	c.log.WithField("states", len(sess.States)).Debug("no state could decrypt")
	return nil, types.NewNoSuitableSessionError(causes...)
}

// decryptWithState decrypts msg against st, mutating st.
func (c *Cipher) decryptWithState(st *record.SessionState, msg *wire.SignalMessage) ([]byte, error) {
	trusted, err := c.store.HasTrust(c.address, st.RemoteIdentityKey)
	if err != nil {
		return nil, err
	}
	if !trusted {
		return nil, types.ErrUntrustedIdentity
	}
	if msg.RatchetKey == st.EphemeralKeyPair.Public {
		return nil, fmt.Errorf("%w: ratchet key is our sending key", types.ErrInvalidMessage)
	}

	if err := ratchet.MaybeStep(st, msg.RatchetKey, msg.PreviousCounter); err != nil {
		return nil, err
	}
	chain := st.FindChain(msg.RatchetKey)
	if chain == nil {
		return nil, types.ErrNoSuitableChain
	}
	counter := int64(msg.Counter)
	if err := ratchet.FillMessageKeys(chain, counter); err != nil {
		return nil, err
	}
	mk, ok := chain.MessageKeys.Take(counter)
	if !ok {
		return nil, types.ErrKeyAlreadyConsumed
	}
	secrets, err := ratchet.DeriveMessageSecrets(mk)
	if err != nil {
		return nil, err
	}
	if !msg.VerifyMAC(secrets.MACKey, st.RemoteIdentityKey, st.LocalIdentityPublic) {
		return nil, types.ErrAuthenticationFailed
	}
	plaintext, err := crypto.DecryptCBC(secrets.CipherKey, secrets.IV, msg.Ciphertext)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", types.ErrInvalidMessage, err)
	}
	st.PendingPreKey = nil
	return plaintext, nil
}
