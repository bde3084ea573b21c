package group

import (
	"fmt"

	"github.com/sirupsen/logrus"

	"whisper/internal/crypto"
	"whisper/internal/domain"
	"whisper/internal/domain/types"
	"whisper/internal/logging"
	"whisper/internal/protocol/record"
	"whisper/internal/protocol/wire"
)

// Option configures a Builder or Cipher.
type Option func(*options)

type options struct {
	log *logrus.Entry
}

// WithLogger sets the logger for sender key events.
func WithLogger(l *logrus.Entry) Option { return func(o *options) { o.log = l } }

func newOptions(opts []Option) options {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	o.log = logging.OrDiscard(o.log)
	return o
}

// Builder creates and installs sender key chains.
type Builder struct {
	store domain.KeyStore
	log   *logrus.Entry
}

// NewBuilder returns a Builder backed by store.
func NewBuilder(store domain.KeyStore, opts ...Option) *Builder {
	return &Builder{store: store, log: newOptions(opts).log}
}

// CreateOutgoing returns the distribution message for our own chain in name,
// creating the chain on first use.
func (b *Builder) CreateOutgoing(name types.SenderKeyName) (*wire.SenderKeyDistributionMessage, error) {
	unlock := b.store.LockSenderKey(name)
	defer unlock()

	rec, err := b.store.FindSenderKeyByName(name)
	if err != nil {
		return nil, err
	}
	if rec.IsEmpty() {
		id, err := crypto.RandomSenderKeyID()
		if err != nil {
			return nil, err
		}
		seed, err := crypto.RandomBytes(32)
		if err != nil {
			return nil, err
		}
		signing, err := crypto.GenerateKeyPair()
		if err != nil {
			return nil, err
		}
		rec.AddState(&record.SenderKeyState{
			ID:         id,
			ChainKey:   record.SenderChainKey{Iteration: 0, Seed: seed},
			SigningKey: signing,
		})
		if err := b.store.AddSenderKey(name, rec); err != nil {
			return nil, err
		}
		b.log.WithFields(logrus.Fields{"group": name.GroupID, "key_id": id}).Debug("created sender key")
	}

	st := rec.CurrentState()
	return wire.NewSenderKeyDistributionMessage(st.ID, st.ChainKey.Iteration, st.ChainKey.Seed, st.SigningKey.Public), nil
}

// CreateIncoming installs the chain carried by msg under name. Only the
// public signing key is kept. A chain we already hold under the same id and
// signing key is kept as is, with its stored keys, and becomes current.
func (b *Builder) CreateIncoming(name types.SenderKeyName, msg *wire.SenderKeyDistributionMessage) error {
	unlock := b.store.LockSenderKey(name)
	defer unlock()

	rec, err := b.store.FindSenderKeyByName(name)
	if err != nil {
		return err
	}
	if st := rec.StateByID(msg.KeyID); st != nil && st.SigningKey.Public == msg.SigningKey {
		rec.AddState(st)
		b.log.WithFields(logrus.Fields{
			"group":  name.GroupID,
			"sender": name.Sender.String(),
			"key_id": msg.KeyID,
		}).Debug("sender key already installed")
		return b.store.AddSenderKey(name, rec)
	}
	rec.AddState(&record.SenderKeyState{
		ID:         msg.KeyID,
		ChainKey:   record.SenderChainKey{Iteration: msg.Iteration, Seed: append([]byte(nil), msg.ChainKey...)},
		SigningKey: types.KeyPair{Public: msg.SigningKey},
	})
	if err := b.store.AddSenderKey(name, rec); err != nil {
		return err
	}
	b.log.WithFields(logrus.Fields{
		"group":     name.GroupID,
		"sender":    name.Sender.String(),
		"key_id":    msg.KeyID,
		"iteration": msg.Iteration,
	}).Debug("installed sender key")
	return nil
}

// Cipher encrypts and decrypts group messages for one SenderKeyName.
type Cipher struct {
	store domain.KeyStore
	name  types.SenderKeyName
	log   *logrus.Entry
}

// NewCipher returns a Cipher for name backed by store.
func NewCipher(store domain.KeyStore, name types.SenderKeyName, opts ...Option) *Cipher {
	log := newOptions(opts).log.WithFields(logrus.Fields{
		"group":  name.GroupID,
		"sender": name.Sender.String(),
	})
	return &Cipher{store: store, name: name, log: log}
}

// Encrypt seals plaintext on our current chain and returns the signed
// SenderKeyMessage bytes.
func (c *Cipher) Encrypt(plaintext []byte) ([]byte, error) {
	unlock := c.store.LockSenderKey(c.name)
	defer unlock()

	rec, err := c.store.FindSenderKeyByName(c.name)
	if err != nil {
		return nil, err
	}
	st := rec.CurrentState()
	if st == nil {
		return nil, types.ErrNoSenderKey
	}
	if !st.SigningKey.HasPrivate() {
		return nil, fmt.Errorf("%w: chain %d is not ours", types.ErrNoSenderKey, st.ID)
	}

	iteration := st.ChainKey.Iteration
	mk, err := senderKeyFor(st, iteration)
	if err != nil {
		return nil, err
	}
	ciphertext, err := crypto.EncryptCBC(mk.key, mk.iv, plaintext)
	if err != nil {
		return nil, err
	}
	msg, err := wire.NewSenderKeyMessage(st.ID, iteration, ciphertext, st.SigningKey.Private)
	if err != nil {
		return nil, err
	}
	if err := c.store.AddSenderKey(c.name, rec); err != nil {
		return nil, err
	}
	c.log.WithField("iteration", iteration).Debug("encrypted group message")
	return msg.Serialize(), nil
}

// Decrypt verifies and opens a SenderKeyMessage. The record is written back
// only when decryption succeeds.
func (c *Cipher) Decrypt(body []byte) ([]byte, error) {
	msg, err := wire.ParseSenderKeyMessage(body)
	if err != nil {
		return nil, err
	}

	unlock := c.store.LockSenderKey(c.name)
	defer unlock()

	rec, err := c.store.FindSenderKeyByName(c.name)
	if err != nil {
		return nil, err
	}
	st := rec.StateByID(msg.KeyID)
	if st == nil {
		return nil, fmt.Errorf("%w: key id %d", types.ErrNoSenderKey, msg.KeyID)
	}
	if !msg.VerifySignature(st.SigningKey.Public) {
		return nil, types.ErrAuthenticationFailed
	}

	mk, err := senderKeyFor(st, msg.Iteration)
	if err != nil {
		return nil, err
	}
	plaintext, err := crypto.DecryptCBC(mk.key, mk.iv, msg.Ciphertext)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", types.ErrInvalidMessage, err)
	}
	if err := c.store.AddSenderKey(c.name, rec); err != nil {
		return nil, err
	}
	c.log.WithField("iteration", msg.Iteration).Debug("decrypted group message")
	return plaintext, nil
}
