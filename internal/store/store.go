package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"whisper/internal/domain"
	"whisper/internal/domain/types"
	"whisper/internal/protocol/record"
)

const (
	identityKey      = "identity"
	currentSignedKey = "meta/current_signed_pre_key"
	trustPrefix      = "trust/"
	sessionPrefix    = "session/"
	preKeyPrefix     = "prekey/"
	signedPrefix     = "signed/"
	senderKeyPrefix  = "senderkey/"
)

// ErrNoIdentity is returned when no local identity has been stored yet.
var ErrNoIdentity = errors.New("no local identity")

// Store implements domain.KeyStore over a key/value backend. Records are
// stored as JSON, so every read returns a fresh copy and every write
// snapshots its argument.
type Store struct {
	kv     backend
	locks  *keyLock
	pass   string
	params scryptParams

	mu       sync.Mutex
	identity *types.Identity
}

// Option configures a Store.
type Option func(*Store)

// WithPassphrase sets the passphrase sealing the local identity.
func WithPassphrase(p string) Option { return func(s *Store) { s.pass = p } }

// WithLightKDF lowers the scrypt cost. Intended for tests.
func WithLightKDF() Option { return func(s *Store) { s.params = scryptLight } }

// NewMemoryStore returns a Store that keeps everything in process memory.
func NewMemoryStore(opts ...Option) *Store {
	return newStore(newMemBackend(), opts)
}

// OpenBadgerStore opens or creates a badger database under dir.
func OpenBadgerStore(dir string, opts ...Option) (*Store, error) {
	kv, err := openBadgerBackend(dir)
	if err != nil {
		return nil, fmt.Errorf("open badger store: %w", err)
	}
	return newStore(kv, opts), nil
}

func newStore(kv backend, opts []Option) *Store {
	s := &Store{kv: kv, locks: newKeyLock(), params: scryptDefault}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Close releases the backend.
func (s *Store) Close() error { return s.kv.close() }

// LockSession serialises work on the session with address.
func (s *Store) LockSession(address types.SessionAddress) func() {
	return s.locks.Lock(sessionPrefix + address.String())
}

// LockSenderKey serialises work on the sender key record for name.
func (s *Store) LockSenderKey(name types.SenderKeyName) func() {
	return s.locks.Lock(senderKeyPrefix + name.String())
}

// ---------- Identity ----------

// StoreLocalIdentity seals id with the store passphrase and persists it.
func (s *Store) StoreLocalIdentity(id types.Identity) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	raw, err := json.Marshal(id)
	if err != nil {
		return err
	}
	sealed, err := seal(s.pass, identityKey, raw, s.params)
	if err != nil {
		return err
	}
	if err := s.kv.set(identityKey, sealed); err != nil {
		return err
	}
	s.identity = &id
	return nil
}

// LocalIdentity loads and unseals the local identity.
func (s *Store) LocalIdentity() (types.Identity, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.identity != nil {
		return *s.identity, nil
	}
	sealed, ok, err := s.kv.get(identityKey)
	if err != nil {
		return types.Identity{}, err
	}
	if !ok {
		return types.Identity{}, ErrNoIdentity
	}
	raw, err := open(s.pass, identityKey, sealed)
	if err != nil {
		return types.Identity{}, err
	}
	var id types.Identity
	if err := json.Unmarshal(raw, &id); err != nil {
		return types.Identity{}, err
	}
	s.identity = &id
	return id, nil
}

// IdentityKeyPair returns the local identity key pair.
func (s *Store) IdentityKeyPair() (types.KeyPair, error) {
	id, err := s.LocalIdentity()
	return id.KeyPair, err
}

// LocalRegistrationID returns the local registration id.
func (s *Store) LocalRegistrationID() (uint32, error) {
	id, err := s.LocalIdentity()
	return id.RegistrationID, err
}

// ---------- Trust ----------

// HasTrust accepts the first key seen for an address and afterwards only
// that key.
func (s *Store) HasTrust(address types.SessionAddress, identityKey types.X25519Public) (bool, error) {
	var known types.X25519Public
	ok, err := s.getJSON(trustPrefix+address.String(), &known)
	if err != nil {
		return false, err
	}
	return !ok || known == identityKey, nil
}

// SaveIdentity records identityKey as the trusted key for address.
func (s *Store) SaveIdentity(address types.SessionAddress, identityKey types.X25519Public) error {
	return s.setJSON(trustPrefix+address.String(), identityKey)
}

// ForgetIdentity drops the trusted key for address so the next key seen is
// accepted.
func (s *Store) ForgetIdentity(address types.SessionAddress) error {
	return s.kv.del(trustPrefix + address.String())
}

// ---------- Sessions ----------

// FindSessionByAddress loads the session for address.
func (s *Store) FindSessionByAddress(address types.SessionAddress) (*record.Session, bool, error) {
	var sess record.Session
	ok, err := s.getJSON(sessionPrefix+address.String(), &sess)
	if err != nil || !ok {
		return nil, false, err
	}
	return &sess, true, nil
}

// AddSession persists session for address, replacing any previous record.
func (s *Store) AddSession(address types.SessionAddress, session *record.Session) error {
	return s.setJSON(sessionPrefix+address.String(), session)
}

// ---------- Pre-keys ----------

// FindPreKeyByID loads a one-time pre-key.
func (s *Store) FindPreKeyByID(id uint32) (types.PreKeyRecord, bool, error) {
	var rec types.PreKeyRecord
	ok, err := s.getJSON(preKeyPrefix+idKey(id), &rec)
	return rec, ok, err
}

// StorePreKeys adds or replaces one-time pre-keys.
func (s *Store) StorePreKeys(records []types.PreKeyRecord) error {
	for _, rec := range records {
		if err := s.setJSON(preKeyPrefix+idKey(rec.ID), rec); err != nil {
			return err
		}
	}
	return nil
}

// RemovePreKey deletes a one-time pre-key. Removing an absent id is not an
// error.
func (s *Store) RemovePreKey(id uint32) error {
	return s.kv.del(preKeyPrefix + idKey(id))
}

// ListPreKeys returns the remaining one-time pre-keys in id order.
func (s *Store) ListPreKeys() ([]types.PreKeyRecord, error) {
	vals, err := s.kv.scan(preKeyPrefix)
	if err != nil {
		return nil, err
	}
	out := make([]types.PreKeyRecord, 0, len(vals))
	for _, v := range vals {
		var rec types.PreKeyRecord
		if err := json.Unmarshal(v, &rec); err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, nil
}

// FindSignedKeyPairByID loads a signed pre-key.
func (s *Store) FindSignedKeyPairByID(id uint32) (types.SignedPreKeyRecord, bool, error) {
	var rec types.SignedPreKeyRecord
	ok, err := s.getJSON(signedPrefix+idKey(id), &rec)
	return rec, ok, err
}

// StoreSignedPreKey adds or replaces a signed pre-key.
func (s *Store) StoreSignedPreKey(rec types.SignedPreKeyRecord) error {
	return s.setJSON(signedPrefix+idKey(rec.ID), rec)
}

// SetCurrentSignedPreKeyID records which signed pre-key is published.
func (s *Store) SetCurrentSignedPreKeyID(id uint32) error {
	return s.setJSON(currentSignedKey, id)
}

// CurrentSignedPreKeyID returns the published signed pre-key id.
func (s *Store) CurrentSignedPreKeyID() (uint32, bool, error) {
	var id uint32
	ok, err := s.getJSON(currentSignedKey, &id)
	return id, ok, err
}

// ---------- Sender keys ----------

// FindSenderKeyByName loads the sender key record for name, or an empty one.
func (s *Store) FindSenderKeyByName(name types.SenderKeyName) (*record.SenderKeyRecord, error) {
	rec := &record.SenderKeyRecord{}
	if _, err := s.getJSON(senderKeyPrefix+name.String(), rec); err != nil {
		return nil, err
	}
	return rec, nil
}

// AddSenderKey persists rec for name.
func (s *Store) AddSenderKey(name types.SenderKeyName, rec *record.SenderKeyRecord) error {
	return s.setJSON(senderKeyPrefix+name.String(), rec)
}

// ---------- helpers ----------

// idKey zero-pads ids so prefix scans return them in numeric order.
func idKey(id uint32) string { return fmt.Sprintf("%010d", id) }

func (s *Store) getJSON(key string, out any) (bool, error) {
	b, ok, err := s.kv.get(key)
	if err != nil || !ok {
		return false, err
	}
	if err := json.Unmarshal(b, out); err != nil {
		return false, fmt.Errorf("decode %s: %w", key, err)
	}
	return true, nil
}

func (s *Store) setJSON(key string, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	return s.kv.set(key, b)
}

// Compile-time assertion that Store implements domain.KeyStore.
var _ domain.KeyStore = (*Store)(nil)
