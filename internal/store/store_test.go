package store_test

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"whisper/internal/domain/types"
	"whisper/internal/protocol/record"
	"whisper/internal/store"
)

func backends(t *testing.T) map[string]func(t *testing.T, pass string) *store.Store {
	dir := t.TempDir()
	return map[string]func(t *testing.T, pass string) *store.Store{
		"memory": func(t *testing.T, pass string) *store.Store {
			return store.NewMemoryStore(store.WithPassphrase(pass), store.WithLightKDF())
		},
		"badger": func(t *testing.T, pass string) *store.Store {
			s, err := store.OpenBadgerStore(dir, store.WithPassphrase(pass), store.WithLightKDF())
			require.NoError(t, err)
			t.Cleanup(func() { _ = s.Close() })
			return s
		},
	}
}

func TestIdentity_SaveLoad(t *testing.T) {
	for name, open := range backends(t) {
		t.Run(name, func(t *testing.T) {
			s := open(t, "pass")
			id := types.Identity{
				KeyPair:        types.KeyPair{Private: types.X25519Private{2}, Public: types.X25519Public{1}},
				RegistrationID: 42,
			}
			require.NoError(t, s.StoreLocalIdentity(id))

			kp, err := s.IdentityKeyPair()
			require.NoError(t, err)
			assert.Equal(t, id.KeyPair, kp)

			reg, err := s.LocalRegistrationID()
			require.NoError(t, err)
			assert.EqualValues(t, 42, reg)
		})
	}
}

func TestIdentity_Missing(t *testing.T) {
	s := store.NewMemoryStore()
	_, err := s.IdentityKeyPair()
	assert.ErrorIs(t, err, store.ErrNoIdentity)
}

func TestIdentity_WrongPassphrase_Fails(t *testing.T) {
	dir := t.TempDir()
	s, err := store.OpenBadgerStore(dir, store.WithPassphrase("correct"), store.WithLightKDF())
	require.NoError(t, err)
	require.NoError(t, s.StoreLocalIdentity(types.Identity{RegistrationID: 7}))
	require.NoError(t, s.Close())

	s, err = store.OpenBadgerStore(dir, store.WithPassphrase("wrong"))
	require.NoError(t, err)
	defer s.Close()

	_, err = s.IdentityKeyPair()
	assert.ErrorIs(t, err, store.ErrWrongPassphrase)
}

func TestTrust_FirstUse(t *testing.T) {
	for name, open := range backends(t) {
		t.Run(name, func(t *testing.T) {
			s := open(t, "")
			bob := types.SessionAddress{Name: "bob", DeviceID: 1}
			first, second := types.X25519Public{1}, types.X25519Public{2}

			ok, err := s.HasTrust(bob, first)
			require.NoError(t, err)
			assert.True(t, ok, "unknown address is trusted")

			require.NoError(t, s.SaveIdentity(bob, first))
			ok, _ = s.HasTrust(bob, first)
			assert.True(t, ok)
			ok, _ = s.HasTrust(bob, second)
			assert.False(t, ok, "changed key is rejected")

			require.NoError(t, s.ForgetIdentity(bob))
			ok, _ = s.HasTrust(bob, second)
			assert.True(t, ok)
		})
	}
}

func TestSession_RoundTripIsCopy(t *testing.T) {
	for name, open := range backends(t) {
		t.Run(name, func(t *testing.T) {
			s := open(t, "")
			addr := types.SessionAddress{Name: "alice", DeviceID: 2}

			_, found, err := s.FindSessionByAddress(addr)
			require.NoError(t, err)
			assert.False(t, found)

			st := &record.SessionState{Version: record.CurrentVersion, RootKey: []byte{1, 2, 3}, BaseKey: types.X25519Public{9}}
			chain := record.NewSessionChain(types.X25519Public{5}, []byte{7})
			chain.MessageKeys.Put(3, []byte{3})
			st.AddChain(chain)
			sess := record.NewSession(0)
			sess.PromoteState(st)
			require.NoError(t, s.AddSession(addr, sess))

			// Mutating the caller's copy must not reach the store.
			st.RootKey[0] = 0xff

			got, found, err := s.FindSessionByAddress(addr)
			require.NoError(t, err)
			require.True(t, found)
			require.Len(t, got.States, 1)
			assert.Equal(t, []byte{1, 2, 3}, got.States[0].RootKey)
			assert.True(t, got.HasState(record.CurrentVersion, types.X25519Public{9}))
			assert.True(t, got.States[0].FindChain(types.X25519Public{5}).MessageKeys.Has(3))
		})
	}
}

func TestPreKeys(t *testing.T) {
	for name, open := range backends(t) {
		t.Run(name, func(t *testing.T) {
			s := open(t, "")
			recs := []types.PreKeyRecord{
				{ID: 10, KeyPair: types.KeyPair{Public: types.X25519Public{10}}},
				{ID: 2, KeyPair: types.KeyPair{Public: types.X25519Public{2}}},
				{ID: 1, KeyPair: types.KeyPair{Public: types.X25519Public{1}}},
			}
			require.NoError(t, s.StorePreKeys(recs))

			list, err := s.ListPreKeys()
			require.NoError(t, err)
			require.Len(t, list, 3)
			assert.Equal(t, []uint32{1, 2, 10}, []uint32{list[0].ID, list[1].ID, list[2].ID})

			got, ok, err := s.FindPreKeyByID(2)
			require.NoError(t, err)
			require.True(t, ok)
			assert.Equal(t, types.X25519Public{2}, got.KeyPair.Public)

			require.NoError(t, s.RemovePreKey(2))
			require.NoError(t, s.RemovePreKey(2))
			_, ok, err = s.FindPreKeyByID(2)
			require.NoError(t, err)
			assert.False(t, ok)
		})
	}
}

func TestSignedPreKeys(t *testing.T) {
	for name, open := range backends(t) {
		t.Run(name, func(t *testing.T) {
			s := open(t, "")
			_, ok, err := s.CurrentSignedPreKeyID()
			require.NoError(t, err)
			assert.False(t, ok)

			rec := types.SignedPreKeyRecord{ID: 3, Signature: []byte{1}, CreatedUTC: 99}
			require.NoError(t, s.StoreSignedPreKey(rec))
			require.NoError(t, s.SetCurrentSignedPreKeyID(3))

			id, ok, err := s.CurrentSignedPreKeyID()
			require.NoError(t, err)
			require.True(t, ok)
			assert.EqualValues(t, 3, id)

			got, ok, err := s.FindSignedKeyPairByID(3)
			require.NoError(t, err)
			require.True(t, ok)
			assert.Equal(t, rec, got)
		})
	}
}

func TestSenderKeys(t *testing.T) {
	for name, open := range backends(t) {
		t.Run(name, func(t *testing.T) {
			s := open(t, "")
			sk := types.SenderKeyName{GroupID: "g", Sender: types.SessionAddress{Name: "a", DeviceID: 1}}

			empty, err := s.FindSenderKeyByName(sk)
			require.NoError(t, err)
			assert.True(t, empty.IsEmpty())

			rec := &record.SenderKeyRecord{}
			rec.AddState(&record.SenderKeyState{ID: 77, ChainKey: record.SenderChainKey{Iteration: 4, Seed: []byte{1}}})
			require.NoError(t, s.AddSenderKey(sk, rec))

			got, err := s.FindSenderKeyByName(sk)
			require.NoError(t, err)
			require.NotNil(t, got.StateByID(77))
			assert.EqualValues(t, 4, got.StateByID(77).ChainKey.Iteration)
		})
	}
}

func TestLock_Serialises(t *testing.T) {
	s := store.NewMemoryStore()

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		holders int
		maxSeen int
	)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock := s.LockSession(types.SessionAddress{Name: "bob", DeviceID: 1})
			defer unlock()

			mu.Lock()
			holders++
			if holders > maxSeen {
				maxSeen = holders
			}
			mu.Unlock()

			time.Sleep(time.Millisecond)

			mu.Lock()
			holders--
			mu.Unlock()
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, maxSeen)

	// Distinct keys do not block each other.
	unlockA := s.LockSession(types.SessionAddress{Name: "a"})
	unlockB := s.LockSession(types.SessionAddress{Name: "b"})
	unlockB()
	unlockA()
	unlockA()
}

func TestLock_SessionAndSenderKeyAreSeparate(t *testing.T) {
	s := store.NewMemoryStore()

	// Both render as "g::bob.1".
	addr := types.SessionAddress{Name: "g::bob", DeviceID: 1}
	name := types.SenderKeyName{GroupID: "g", Sender: types.SessionAddress{Name: "bob", DeviceID: 1}}
	require.Equal(t, addr.String(), name.String())

	unlockSession := s.LockSession(addr)
	defer unlockSession()

	done := make(chan struct{})
	go func() {
		defer close(done)
		s.LockSenderKey(name)()
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("sender key lock waited on a session lock")
	}
}
