package record_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"whisper/internal/domain/types"
	"whisper/internal/protocol/record"
)

func key(b byte) types.X25519Public { return types.X25519Public{b} }

func TestMessageKeys_TakeIsDeleteOnRead(t *testing.T) {
	var mk record.MessageKeys
	mk.Put(4, []byte{4})
	mk.Put(1, []byte{1})

	assert.Equal(t, []int64{1, 4}, mk.Counters())
	got, ok := mk.Take(4)
	require.True(t, ok)
	assert.Equal(t, []byte{4}, got)
	_, ok = mk.Take(4)
	assert.False(t, ok)
	assert.Equal(t, 1, mk.Len())
}

func TestMessageKeys_EvictsOldest(t *testing.T) {
	var mk record.MessageKeys
	for i := int64(0); i < record.MaxMessageKeys+10; i++ {
		mk.Put(i, []byte{byte(i)})
	}
	assert.Equal(t, record.MaxMessageKeys, mk.Len())
	assert.False(t, mk.Has(9))
	assert.True(t, mk.Has(10))
	assert.True(t, mk.Has(record.MaxMessageKeys+9))
}

func TestSessionState_ReceivingChainLimit(t *testing.T) {
	st := &record.SessionState{EphemeralKeyPair: types.KeyPair{Public: key(100)}}
	st.AddChain(record.NewSessionChain(key(100), []byte{1}))
	for i := byte(1); i <= record.MaxReceivingChains+2; i++ {
		st.AddChain(record.NewSessionChain(key(i), []byte{i}))
	}

	require.NotNil(t, st.SendingChain(), "sending chain survives eviction")
	assert.Len(t, st.Chains, record.MaxReceivingChains+1)
	assert.Nil(t, st.FindChain(key(1)))
	assert.Nil(t, st.FindChain(key(2)))
	assert.NotNil(t, st.FindChain(key(3)))
}

func TestSessionChain_Close(t *testing.T) {
	c := record.NewSessionChain(key(1), []byte{9})
	assert.EqualValues(t, -1, c.Counter)
	assert.False(t, c.Closed())
	c.Close()
	assert.True(t, c.Closed())
}

func TestSession_StateBound(t *testing.T) {
	s := record.NewSession(3)
	for i := byte(1); i <= 5; i++ {
		s.PromoteState(&record.SessionState{Version: record.CurrentVersion, BaseKey: key(i)})
	}
	require.Len(t, s.States, 3)
	assert.Equal(t, key(5), s.CurrentState().BaseKey)
	assert.False(t, s.HasState(record.CurrentVersion, key(2)))
	assert.True(t, s.HasState(record.CurrentVersion, key(3)))
	assert.False(t, s.HasState(2, key(3)), "version is part of the lookup")

	s.SetMaxStates(1)
	assert.Len(t, s.States, 1)
}

func TestSession_CloneIsIndependent(t *testing.T) {
	st := &record.SessionState{RootKey: []byte{1}, PendingPreKey: &record.PendingPreKey{PreKeyID: 3}}
	c := record.NewSessionChain(key(1), []byte{2})
	c.MessageKeys.Put(0, []byte{5})
	st.AddChain(c)
	s := record.NewSession(0)
	s.PromoteState(st)

	cp := s.Clone()
	cs := cp.CurrentState()
	cs.RootKey[0] = 9
	cs.PendingPreKey.PreKeyID = 4
	cs.Chains[0].Key[0] = 9
	cs.Chains[0].MessageKeys.Take(0)

	assert.Equal(t, []byte{1}, st.RootKey)
	assert.EqualValues(t, 3, st.PendingPreKey.PreKeyID)
	assert.Equal(t, []byte{2}, c.Key)
	assert.True(t, c.MessageKeys.Has(0))
}

func TestSession_JSON(t *testing.T) {
	st := &record.SessionState{
		Version:             record.CurrentVersion,
		RootKey:             []byte{1, 2},
		BaseKey:             key(7),
		EphemeralKeyPair:    types.KeyPair{Private: types.X25519Private{3}, Public: key(3)},
		LastRemoteEphemeral: key(8),
		PreviousCounter:     -1,
		ResolvedPreKeyID:    11,
	}
	c := record.NewSessionChain(key(8), []byte{4})
	c.MessageKeys.Put(2, []byte{6})
	st.AddChain(c)
	s := record.NewSession(0)
	s.PromoteState(st)

	b, err := json.Marshal(s)
	require.NoError(t, err)
	var got record.Session
	require.NoError(t, json.Unmarshal(b, &got))

	gs := got.CurrentState()
	require.NotNil(t, gs)
	assert.Equal(t, st.RootKey, gs.RootKey)
	assert.Equal(t, st.EphemeralKeyPair, gs.EphemeralKeyPair)
	assert.EqualValues(t, -1, gs.PreviousCounter)
	assert.EqualValues(t, 11, gs.ResolvedPreKeyID)
	assert.Nil(t, gs.PendingPreKey)
	ch := gs.FindChain(key(8))
	require.NotNil(t, ch)
	k, ok := ch.MessageKeys.Take(2)
	require.True(t, ok)
	assert.Equal(t, []byte{6}, k)
}

func TestSenderKeyRecord_History(t *testing.T) {
	var r record.SenderKeyRecord
	assert.True(t, r.IsEmpty())
	for i := uint32(1); i <= record.MaxSenderKeyStates+2; i++ {
		r.AddState(&record.SenderKeyState{ID: i})
	}
	assert.Len(t, r.States, record.MaxSenderKeyStates)
	assert.EqualValues(t, record.MaxSenderKeyStates+2, r.CurrentState().ID)
	assert.Nil(t, r.StateByID(1))

	r.AddState(&record.SenderKeyState{ID: 4, ChainKey: record.SenderChainKey{Iteration: 9}})
	assert.Len(t, r.States, record.MaxSenderKeyStates)
	assert.EqualValues(t, 9, r.StateByID(4).ChainKey.Iteration, "same id replaced")

	cp := r.Clone()
	cp.States[0].ChainKey.Iteration = 100
	assert.EqualValues(t, 9, r.States[0].ChainKey.Iteration)
}
