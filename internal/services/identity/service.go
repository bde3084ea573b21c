package identity

import (
	"fmt"
	"unicode"

	"whisper/internal/crypto"
	"whisper/internal/domain"
)

const (
	// minPassphraseLength defines the minimum number of characters required for a passphrase.
	minPassphraseLength = 12
)

var (
	// ErrWeakPassphrase is returned when the passphrase fails the strength policy.
	ErrWeakPassphrase = fmt.Errorf(
		"passphrase is too weak (must be at least %d characters and include upper, lower, "+
			"number, and symbol)",
		minPassphraseLength,
	)
)

// Service creates the local identity and reports its fingerprint.
//
// The identity is a single Curve25519 pair used both for X3DH and, through
// XEdDSA, for signing pre-keys, plus a random registration id.
type Service struct {
	store domain.LocalIdentityStore
}

// New returns an identity service backed by the given store.
func New(s domain.LocalIdentityStore) *Service { return &Service{store: s} }

// GenerateIdentity creates a new identity and saves it. The store seals it
// with the passphrase it was opened with; passphrase is checked here against
// the strength policy and must be that same value.
func (s *Service) GenerateIdentity(
	passphrase string,
) (domain.Identity, domain.Fingerprint, error) {
	if !isSecurePassphrase(passphrase) {
		return domain.Identity{}, "", ErrWeakPassphrase
	}

	kp, err := crypto.GenerateKeyPair()
	if err != nil {
		return domain.Identity{}, "", err
	}
	regID, err := crypto.RandomRegistrationID()
	if err != nil {
		return domain.Identity{}, "", err
	}

	id := domain.Identity{KeyPair: kp, RegistrationID: regID}
	if err := s.store.StoreLocalIdentity(id); err != nil {
		return domain.Identity{}, "", err
	}
	return id, crypto.Fingerprint(kp.Public), nil
}

// FingerprintIdentity returns a short fingerprint of the local identity key.
func (s *Service) FingerprintIdentity() (domain.Fingerprint, error) {
	kp, err := s.store.IdentityKeyPair()
	if err != nil {
		return "", err
	}
	return crypto.Fingerprint(kp.Public), nil
}

// isSecurePassphrase enforces a basic strength policy.
func isSecurePassphrase(passphrase string) bool {
	var hasUpper, hasLower, hasDigit, hasSymbol bool
	if len(passphrase) < minPassphraseLength {
		return false
	}
	for _, r := range passphrase {
		switch {
		case unicode.IsUpper(r):
			hasUpper = true
		case unicode.IsLower(r):
			hasLower = true
		case unicode.IsDigit(r):
			hasDigit = true
		case unicode.IsPunct(r), unicode.IsSymbol(r):
			hasSymbol = true
		}
	}
	return hasUpper && hasLower && hasDigit && hasSymbol
}

// Compile-time assertion that Service implements domain.IdentityService.
var _ domain.IdentityService = (*Service)(nil)
