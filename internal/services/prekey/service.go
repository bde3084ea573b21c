package prekey

import (
	"errors"
	"fmt"
	"time"

	"whisper/internal/crypto"
	"whisper/internal/domain"
)

// ErrNoSignedPreKey is returned when a bundle is requested before any signed
// pre-key has been generated.
var ErrNoSignedPreKey = errors.New("no signed pre-key available")

// Store is the slice of the key store the pre-key service touches.
type Store interface {
	domain.LocalIdentityStore
	domain.PreKeyStore
	domain.SignedPreKeyStore
}

// Service generates pre-keys and builds the bundle published to the relay.
type Service struct {
	store Store
	now   func() time.Time
}

// New returns a pre-key service backed by store.
func New(store Store) *Service { return &Service{store: store, now: time.Now} }

// GenerateAndStorePreKeys rotates the signed pre-key and adds count one-time
// pre-keys. Ids continue after the highest ones already stored and never
// use 0, which on the wire means "no pre-key".
func (s *Service) GenerateAndStorePreKeys(count int) (domain.SignedPreKeyRecord, []domain.PreKeyRecord, error) {
	if count < 0 {
		return domain.SignedPreKeyRecord{}, nil, fmt.Errorf("negative pre-key count %d", count)
	}
	id, err := s.store.IdentityKeyPair()
	if err != nil {
		return domain.SignedPreKeyRecord{}, nil, err
	}

	spk, err := s.newSignedPreKey(id)
	if err != nil {
		return domain.SignedPreKeyRecord{}, nil, err
	}
	if err := s.store.StoreSignedPreKey(spk); err != nil {
		return domain.SignedPreKeyRecord{}, nil, err
	}
	if err := s.store.SetCurrentSignedPreKeyID(spk.ID); err != nil {
		return domain.SignedPreKeyRecord{}, nil, err
	}

	existing, err := s.store.ListPreKeys()
	if err != nil {
		return domain.SignedPreKeyRecord{}, nil, err
	}
	next := uint32(1)
	if n := len(existing); n > 0 {
		next = existing[n-1].ID + 1
	}

	records := make([]domain.PreKeyRecord, 0, count)
	for i := 0; i < count; i++ {
		kp, err := crypto.GenerateKeyPair()
		if err != nil {
			return domain.SignedPreKeyRecord{}, nil, err
		}
		records = append(records, domain.PreKeyRecord{ID: next + uint32(i), KeyPair: kp})
	}
	if err := s.store.StorePreKeys(records); err != nil {
		return domain.SignedPreKeyRecord{}, nil, err
	}
	return spk, records, nil
}

func (s *Service) newSignedPreKey(identity domain.KeyPair) (domain.SignedPreKeyRecord, error) {
	current, ok, err := s.store.CurrentSignedPreKeyID()
	if err != nil {
		return domain.SignedPreKeyRecord{}, err
	}
	id := uint32(1)
	if ok {
		id = current + 1
	}

	kp, err := crypto.GenerateKeyPair()
	if err != nil {
		return domain.SignedPreKeyRecord{}, err
	}
	sig, err := crypto.Sign(identity.Private, crypto.EncodePublicKey(kp.Public))
	if err != nil {
		return domain.SignedPreKeyRecord{}, err
	}
	return domain.SignedPreKeyRecord{
		ID:         id,
		KeyPair:    kp,
		Signature:  sig,
		CreatedUTC: s.now().UTC().Unix(),
	}, nil
}

// LoadPreKeyBundle assembles the public bundle for address from the current
// signed pre-key and every unused one-time pre-key.
func (s *Service) LoadPreKeyBundle(address domain.SessionAddress) (domain.PublishedBundle, error) {
	id, err := s.store.IdentityKeyPair()
	if err != nil {
		return domain.PublishedBundle{}, err
	}
	regID, err := s.store.LocalRegistrationID()
	if err != nil {
		return domain.PublishedBundle{}, err
	}

	spkID, ok, err := s.store.CurrentSignedPreKeyID()
	if err != nil {
		return domain.PublishedBundle{}, err
	}
	if !ok {
		return domain.PublishedBundle{}, ErrNoSignedPreKey
	}
	spk, found, err := s.store.FindSignedKeyPairByID(spkID)
	if err != nil {
		return domain.PublishedBundle{}, err
	}
	if !found {
		return domain.PublishedBundle{}, fmt.Errorf("%w: current id %d missing", ErrNoSignedPreKey, spkID)
	}

	records, err := s.store.ListPreKeys()
	if err != nil {
		return domain.PublishedBundle{}, err
	}
	publics := make([]domain.PreKeyPublic, 0, len(records))
	for _, r := range records {
		publics = append(publics, domain.PreKeyPublic{ID: r.ID, Public: r.KeyPair.Public})
	}

	return domain.PublishedBundle{
		Address:               address,
		RegistrationID:        regID,
		IdentityKey:           id.Public,
		SignedPreKeyID:        spk.ID,
		SignedPreKey:          spk.KeyPair.Public,
		SignedPreKeySignature: spk.Signature,
		PreKeys:               publics,
	}, nil
}

// Compile-time assertion that Service implements domain.PreKeyService.
var _ domain.PreKeyService = (*Service)(nil)
