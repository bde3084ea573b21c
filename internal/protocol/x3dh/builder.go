package x3dh

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
)

// Builder establishes session states for one remote address.
type Builder struct {
	store     domain.KeyStore
	address   types.SessionAddress
	maxStates int
	log       *logrus.Entry
}

// Option configures a Builder.
type Option func(*Builder)

// WithMaxStates bounds the epochs kept per session.
func WithMaxStates(n int) Option { return func(b *Builder) { b.maxStates = n } }

// WithLogger sets the logger used for handshake events.
func WithLogger(l *logrus.Entry) Option { return func(b *Builder) { b.log = l } }

// NewBuilder returns a Builder for address backed by store.
func NewBuilder(store domain.KeyStore, address types.SessionAddress, opts ...Option) *Builder {
	b := &Builder{store: store, address: address, maxStates: record.DefaultMaxStates}
	for _, opt := range opts {
		opt(b)
	}
	b.log = logging.OrDiscard(b.log).WithField("address", address.String())
	return b
}

// CreateOutgoing runs the initiator side of X3DH against bundle and installs
// the new state as the front epoch of the address's session.
//
// Steps:
//  1. Check trust for the bundle's identity key and verify the signed
//     pre-key signature.
//  2. Derive the master secret with a fresh base key.
//  3. Run one ratchet step against the signed pre-key to seed the sending
//     chain, and record the pending pre-key reference.
//  4. Trust the identity key and persist the session.
func (b *Builder) CreateOutgoing(bundle types.PreKeyBundle) error {
	unlock := b.store.LockSession(b.address)
	defer unlock()

	trusted, err := b.store.HasTrust(b.address, bundle.IdentityKey)
	if err != nil {
		return err
	}
	if !trusted {
		return types.ErrUntrustedIdentity
	}
	if !crypto.Verify(bundle.IdentityKey, crypto.EncodePublicKey(bundle.SignedPreKey), bundle.SignedPreKeySignature) {
		return types.ErrSignatureMismatch
	}

	ourIdentity, err := b.store.IdentityKeyPair()
	if err != nil {
		return fmt.Errorf("load identity: %w", err)
	}
	registrationID, err := b.store.LocalRegistrationID()
	if err != nil {
		return fmt.Errorf("load registration id: %w", err)
	}

	base, err := crypto.GenerateKeyPair()
	if err != nil {
		return err
	}
	root, _, err := InitiatorMasterSecret(ourIdentity, base, bundle.IdentityKey, bundle.SignedPreKey, bundle.PreKey)
	if err != nil {
		return fmt.Errorf("x3dh initiator: %w", err)
	}
	sendingEphemeral, err := crypto.GenerateKeyPair()
	if err != nil {
		return err
	}

	var preKeyID uint32
	if bundle.PreKey != nil {
		preKeyID = bundle.PreKeyID
	}
	st := &record.SessionState{
		Version:              record.CurrentVersion,
		LocalRegistrationID:  registrationID,
		RemoteRegistrationID: bundle.RegistrationID,
		RootKey:              root,
		LocalIdentityPublic:  ourIdentity.Public,
		RemoteIdentityKey:    bundle.IdentityKey,
		BaseKey:              base.Public,
		EphemeralKeyPair:     sendingEphemeral,
		LastRemoteEphemeral:  bundle.SignedPreKey,
		PendingPreKey: &record.PendingPreKey{
			PreKeyID:       preKeyID,
			SignedPreKeyID: bundle.SignedPreKeyID,
			BaseKey:        base.Public,
		},
	}
	if err := ratchet.CalculateRatchet(st, bundle.SignedPreKey, true); err != nil {
		return err
	}

	session, found, err := b.store.FindSessionByAddress(b.address)
	if err != nil {
		return err
	}
	if !found {
		session = record.NewSession(b.maxStates)
	}
	session.SetMaxStates(b.maxStates)
	session.PromoteState(st)

	if err := b.store.SaveIdentity(b.address, bundle.IdentityKey); err != nil {
		return err
	}
	if err := b.store.AddSession(b.address, session); err != nil {
		return err
	}
	b.log.WithFields(logrus.Fields{
		"pre_key_id":        preKeyID,
		"signed_pre_key_id": bundle.SignedPreKeyID,
		"states":            len(session.States),
	}).Debug("created outgoing session state")
	return nil
}

// CreateIncoming runs the responder side of X3DH for msg and promotes the new
// state onto session, which the caller owns and later persists. It returns
// the one-time pre-key id the state was built from and whether the state is
// new; a retransmitted handshake returns the earlier id and false.
//
// The caller holds the address lock and records the remote identity once the
// inner message decrypts.
func (b *Builder) CreateIncoming(session *record.Session, msg *wire.PreKeySignalMessage) (uint32, bool, error) {
	trusted, err := b.store.HasTrust(b.address, msg.IdentityKey)
	if err != nil {
		return 0, false, err
	}
	if !trusted {
		return 0, false, types.ErrUntrustedIdentity
	}

	if st := session.FindState(record.CurrentVersion, msg.BaseKey); st != nil {
		b.log.Debug("handshake already processed")
		return st.ResolvedPreKeyID, false, nil
	}

	signed, ok, err := b.store.FindSignedKeyPairByID(msg.SignedPreKeyID)
	if err != nil {
		return 0, false, err
	}
	if !ok {
		return 0, false, fmt.Errorf("%w: %d", types.ErrInvalidSignedPreKeyID, msg.SignedPreKeyID)
	}

	var oneTime *types.KeyPair
	if msg.PreKeyID != 0 {
		rec, ok, err := b.store.FindPreKeyByID(msg.PreKeyID)
		if err != nil {
			return 0, false, err
		}
		if !ok {
			return 0, false, fmt.Errorf("%w: %d", types.ErrInvalidPreKeyID, msg.PreKeyID)
		}
		oneTime = &rec.KeyPair
	}

	ourIdentity, err := b.store.IdentityKeyPair()
	if err != nil {
		return 0, false, fmt.Errorf("load identity: %w", err)
	}
	registrationID, err := b.store.LocalRegistrationID()
	if err != nil {
		return 0, false, fmt.Errorf("load registration id: %w", err)
	}

	root, _, err := ResponderMasterSecret(ourIdentity, signed.KeyPair, oneTime, msg.IdentityKey, msg.BaseKey)
	if err != nil {
		return 0, false, fmt.Errorf("x3dh responder: %w", err)
	}

	session.SetMaxStates(b.maxStates)
	session.PromoteState(&record.SessionState{
		Version:              record.CurrentVersion,
		LocalRegistrationID:  registrationID,
		RemoteRegistrationID: msg.RegistrationID,
		RootKey:              root,
		LocalIdentityPublic:  ourIdentity.Public,
		RemoteIdentityKey:    msg.IdentityKey,
		BaseKey:              msg.BaseKey,
		EphemeralKeyPair:     signed.KeyPair,
		LastRemoteEphemeral:  msg.BaseKey,
		ResolvedPreKeyID:     msg.PreKeyID,
	})
	b.log.WithFields(logrus.Fields{
		"pre_key_id":        msg.PreKeyID,
		"signed_pre_key_id": msg.SignedPreKeyID,
	}).Debug("created incoming session state")
	return msg.PreKeyID, true, nil
}
