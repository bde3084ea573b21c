package identity_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"whisper/internal/services/identity"
	"whisper/internal/store"
)

const strong = "Correct-Horse-9"

func TestGenerateIdentity(t *testing.T) {
	s := store.NewMemoryStore(store.WithPassphrase(strong), store.WithLightKDF())
	svc := identity.New(s)

	id, fp, err := svc.GenerateIdentity(strong)
	require.NoError(t, err)
	assert.NotZero(t, id.RegistrationID)
	assert.NotEmpty(t, fp)

	got, err := svc.FingerprintIdentity()
	require.NoError(t, err)
	assert.Equal(t, fp, got)

	kp, err := s.IdentityKeyPair()
	require.NoError(t, err)
	assert.Equal(t, id.KeyPair, kp)
}

func TestGenerateIdentity_WeakPassphrase(t *testing.T) {
	svc := identity.New(store.NewMemoryStore(store.WithLightKDF()))
	for _, p := range []string{"", "short1!A", "alllowercase-123", "NoDigitsHere!!", "NoSymbols12345"} {
		_, _, err := svc.GenerateIdentity(p)
		assert.ErrorIs(t, err, identity.ErrWeakPassphrase, p)
	}
}

func TestFingerprintIdentity_Missing(t *testing.T) {
	_, err := identity.New(store.NewMemoryStore()).FingerprintIdentity()
	assert.ErrorIs(t, err, store.ErrNoIdentity)
}
