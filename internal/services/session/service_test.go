package session_test

import (
	"context"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"whisper/internal/domain"
	"whisper/internal/relay"
	"whisper/internal/services/identity"
	"whisper/internal/services/prekey"
	"whisper/internal/services/session"
	"whisper/internal/store"
)

const pass = "Correct-Horse-9"

func newRelay(t *testing.T) *relay.HTTP {
	t.Helper()
	srv, err := relay.NewServer()
	require.NoError(t, err)
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	c := relay.NewHTTP(ts.URL)
	c.HTTP = ts.Client()
	return c
}

func newDevice(t *testing.T, rc *relay.HTTP, addr domain.SessionAddress, publish bool) *store.Store {
	t.Helper()
	s := store.NewMemoryStore(store.WithPassphrase(pass), store.WithLightKDF())
	_, _, err := identity.New(s).GenerateIdentity(pass)
	require.NoError(t, err)
	if publish {
		pk := prekey.New(s)
		_, _, err = pk.GenerateAndStorePreKeys(2)
		require.NoError(t, err)
		b, err := pk.LoadPreKeyBundle(addr)
		require.NoError(t, err)
		require.NoError(t, rc.RegisterPreKeyBundle(context.Background(), b))
	}
	return s
}

func TestInitiateSession(t *testing.T) {
	rc := newRelay(t)
	alice := domain.SessionAddress{Name: "alice", DeviceID: 1}
	bob := domain.SessionAddress{Name: "bob", DeviceID: 1}
	as := newDevice(t, rc, alice, false)
	newDevice(t, rc, bob, true)

	svc := session.New(as, rc, session.WithMaxStates(2))
	ok, err := svc.HasSession(bob)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, svc.InitiateSession(context.Background(), bob))
	ok, err = svc.HasSession(bob)
	require.NoError(t, err)
	assert.True(t, ok)

	sess, _, err := as.FindSessionByAddress(bob)
	require.NoError(t, err)
	st := sess.CurrentState()
	require.NotNil(t, st.PendingPreKey)
	assert.EqualValues(t, 1, st.PendingPreKey.PreKeyID, "first one-time pre-key is handed out first")
}

func TestInitiateSession_UnknownPeer(t *testing.T) {
	rc := newRelay(t)
	alice := domain.SessionAddress{Name: "alice", DeviceID: 1}
	svc := session.New(newDevice(t, rc, alice, false), rc)

	err := svc.InitiateSession(context.Background(), domain.SessionAddress{Name: "nobody", DeviceID: 1})
	assert.ErrorIs(t, err, relay.ErrNotFound)
}

func TestProcessBundle_BadSignature(t *testing.T) {
	rc := newRelay(t)
	bob := domain.SessionAddress{Name: "bob", DeviceID: 1}
	bs := newDevice(t, rc, bob, false)
	pk := prekey.New(bs)
	_, _, err := pk.GenerateAndStorePreKeys(1)
	require.NoError(t, err)
	published, err := pk.LoadPreKeyBundle(bob)
	require.NoError(t, err)
	bundle, _ := published.Take()
	bundle.SignedPreKeySignature[0] ^= 0xff

	svc := session.New(newDevice(t, rc, domain.SessionAddress{Name: "alice", DeviceID: 1}, false), rc)
	assert.ErrorIs(t, svc.ProcessBundle(bundle), domain.ErrSignatureMismatch)
}
