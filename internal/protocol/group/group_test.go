package group_test

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"whisper/internal/domain/types"
	"whisper/internal/protocol/group"
	"whisper/internal/protocol/wire"
	"whisper/internal/store"
)

func TestMain(m *testing.M) {
	// glog, pulled in through badger's cache, starts its flush loop at init.
	goleak.VerifyTestMain(m, goleak.IgnoreTopFunction("github.com/golang/glog.(*fileSink).flushDaemon"))
}

const groupID = "friends"

type member struct {
	addr  types.SessionAddress
	store *store.Store
}

func members(n int) []member {
	out := make([]member, n)
	for i := range out {
		out[i] = member{
			addr:  types.SessionAddress{Name: fmt.Sprintf("m%d", i), DeviceID: 1},
			store: store.NewMemoryStore(),
		}
	}
	return out
}

func name(sender types.SessionAddress) types.SenderKeyName {
	return types.SenderKeyName{GroupID: groupID, Sender: sender}
}

// distribute hands sender's chain to every other member.
func distribute(t *testing.T, sender member, all []member) *wire.SenderKeyDistributionMessage {
	t.Helper()
	dist, err := group.NewBuilder(sender.store).CreateOutgoing(name(sender.addr))
	require.NoError(t, err)
	parsed, err := wire.ParseSenderKeyDistributionMessage(dist.Serialize())
	require.NoError(t, err)
	for _, m := range all {
		if m.addr == sender.addr {
			continue
		}
		require.NoError(t, group.NewBuilder(m.store).CreateIncoming(name(sender.addr), parsed))
	}
	return parsed
}

func TestGroup_EveryMemberReadsEverySender(t *testing.T) {
	all := members(4)
	ids := map[uint32]bool{}
	for _, sender := range all {
		dist := distribute(t, sender, all)
		ids[dist.KeyID] = true
	}
	assert.Len(t, ids, len(all), "each sender has its own chain")

	for _, sender := range all {
		body, err := group.NewCipher(sender.store, name(sender.addr)).Encrypt([]byte("from " + sender.addr.Name))
		require.NoError(t, err)
		for _, m := range all {
			if m.addr == sender.addr {
				continue
			}
			got, err := group.NewCipher(m.store, name(sender.addr)).Decrypt(body)
			require.NoError(t, err)
			assert.Equal(t, "from "+sender.addr.Name, string(got))
		}
	}
}

func TestGroup_OutOfOrderAndReplay(t *testing.T) {
	all := members(2)
	alice, bob := all[0], all[1]
	distribute(t, alice, all)

	enc := group.NewCipher(alice.store, name(alice.addr))
	dec := group.NewCipher(bob.store, name(alice.addr))

	bodies := make([][]byte, 5)
	for i := range bodies {
		var err error
		bodies[i], err = enc.Encrypt([]byte(fmt.Sprintf("g%d", i+1)))
		require.NoError(t, err)
	}
	for _, n := range []int{5, 3, 1, 4, 2} {
		got, err := dec.Decrypt(bodies[n-1])
		require.NoError(t, err)
		assert.Equal(t, fmt.Sprintf("g%d", n), string(got))
	}

	_, err := dec.Decrypt(bodies[2])
	assert.ErrorIs(t, err, types.ErrKeyAlreadyConsumed)
}

func TestGroup_LateJoinerStartsAtCurrentIteration(t *testing.T) {
	all := members(3)
	alice, bob, carol := all[0], all[1], all[2]
	distribute(t, alice, all[:2])

	enc := group.NewCipher(alice.store, name(alice.addr))
	early, err := enc.Encrypt([]byte("early"))
	require.NoError(t, err)

	dist, err := group.NewBuilder(alice.store).CreateOutgoing(name(alice.addr))
	require.NoError(t, err)
	assert.EqualValues(t, 1, dist.Iteration)
	require.NoError(t, group.NewBuilder(carol.store).CreateIncoming(name(alice.addr), dist))

	late, err := enc.Encrypt([]byte("late"))
	require.NoError(t, err)

	_, err = group.NewCipher(carol.store, name(alice.addr)).Decrypt(early)
	assert.ErrorIs(t, err, types.ErrKeyAlreadyConsumed)
	got, err := group.NewCipher(carol.store, name(alice.addr)).Decrypt(late)
	require.NoError(t, err)
	assert.Equal(t, "late", string(got))

	got, err = group.NewCipher(bob.store, name(alice.addr)).Decrypt(early)
	require.NoError(t, err)
	assert.Equal(t, "early", string(got))
}

func TestGroup_Rejections(t *testing.T) {
	all := members(2)
	alice, bob := all[0], all[1]

	_, err := group.NewCipher(alice.store, name(alice.addr)).Encrypt([]byte("x"))
	assert.ErrorIs(t, err, types.ErrNoSenderKey)

	enc := group.NewCipher(alice.store, name(alice.addr))
	distribute(t, alice, all)
	body, err := enc.Encrypt([]byte("x"))
	require.NoError(t, err)

	// A receiver cannot encrypt on a chain it only holds the public half of.
	_, err = group.NewCipher(bob.store, name(alice.addr)).Encrypt([]byte("y"))
	assert.ErrorIs(t, err, types.ErrNoSenderKey)

	// Unknown sender name.
	_, err = group.NewCipher(bob.store, name(types.SessionAddress{Name: "mallory"})).Decrypt(body)
	assert.ErrorIs(t, err, types.ErrNoSenderKey)

	// Signature over a modified message.
	tampered := append([]byte(nil), body...)
	tampered[len(tampered)-1] ^= 0x01
	_, err = group.NewCipher(bob.store, name(alice.addr)).Decrypt(tampered)
	assert.ErrorIs(t, err, types.ErrAuthenticationFailed)

	got, err := group.NewCipher(bob.store, name(alice.addr)).Decrypt(body)
	require.NoError(t, err)
	assert.Equal(t, "x", string(got))
}

func TestGroup_Overflow(t *testing.T) {
	all := members(2)
	alice, bob := all[0], all[1]
	distribute(t, alice, all)

	enc := group.NewCipher(alice.store, name(alice.addr))
	var last []byte
	for i := 0; i < 2002; i++ {
		var err error
		last, err = enc.Encrypt([]byte("x"))
		require.NoError(t, err)
	}
	_, err := group.NewCipher(bob.store, name(alice.addr)).Decrypt(last)
	assert.ErrorIs(t, err, types.ErrMessageOverflow)
}

func TestGroup_RedistributionKeepsStoredKeys(t *testing.T) {
	all := members(2)
	alice, bob := all[0], all[1]
	first := distribute(t, alice, all)

	enc := group.NewCipher(alice.store, name(alice.addr))
	dec := group.NewCipher(bob.store, name(alice.addr))
	m0, err := enc.Encrypt([]byte("m0"))
	require.NoError(t, err)
	m1, err := enc.Encrypt([]byte("m1"))
	require.NoError(t, err)

	got, err := dec.Decrypt(m1)
	require.NoError(t, err)
	assert.Equal(t, "m1", string(got))

	// Alice re-sends her current chain, now at iteration 2.
	again := distribute(t, alice, all)
	assert.Equal(t, first.KeyID, again.KeyID)
	assert.EqualValues(t, 2, again.Iteration)

	got, err = dec.Decrypt(m0)
	require.NoError(t, err, "in-flight message survives redistribution")
	assert.Equal(t, "m0", string(got))

	// Replaying the original distribution does not rewind the chain.
	require.NoError(t, group.NewBuilder(bob.store).CreateIncoming(name(alice.addr), first))
	_, err = dec.Decrypt(m1)
	assert.ErrorIs(t, err, types.ErrKeyAlreadyConsumed)
}

func TestGroup_NewSigningKeyReplacesChain(t *testing.T) {
	all := members(2)
	alice, bob := all[0], all[1]
	dist := distribute(t, alice, all)

	forged := wire.NewSenderKeyDistributionMessage(dist.KeyID, 0, make([]byte, 32), types.X25519Public{9})
	require.NoError(t, group.NewBuilder(bob.store).CreateIncoming(name(alice.addr), forged))

	rec, err := bob.store.FindSenderKeyByName(name(alice.addr))
	require.NoError(t, err)
	require.Len(t, rec.States, 1)
	assert.Equal(t, types.X25519Public{9}, rec.CurrentState().SigningKey.Public)
}
