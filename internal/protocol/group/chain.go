package group

import (
	"fmt"

	"whisper/internal/crypto"
	"whisper/internal/domain/types"
	"whisper/internal/protocol/ratchet"
	"whisper/internal/protocol/record"
)

var (
	infoGroup = []byte("WhisperGroup")

	messageKeySeed = []byte{0x01}
	chainKeySeed   = []byte{0x02}
)

// senderMessageKey is the AES key and IV for one group message.
type senderMessageKey struct {
	iv  []byte
	key []byte
}

func deriveSenderMessageKey(seed []byte) (senderMessageKey, error) {
	out, err := crypto.DeriveSecrets(seed, nil, infoGroup, 48)
	if err != nil {
		return senderMessageKey{}, err
	}
	return senderMessageKey{iv: out[:16], key: out[16:48]}, nil
}

// messageSeed returns the per-message seed of the chain's current iteration.
func messageSeed(c record.SenderChainKey) []byte {
	return crypto.HMACSHA256(c.Seed, messageKeySeed)
}

// advance returns the chain one iteration further.
func advance(c record.SenderChainKey) record.SenderChainKey {
	return record.SenderChainKey{Iteration: c.Iteration + 1, Seed: crypto.HMACSHA256(c.Seed, chainKeySeed)}
}

// senderKeyFor returns the message key for iteration, storing the keys of
// skipped iterations and moving the chain past iteration.
func senderKeyFor(st *record.SenderKeyState, iteration uint32) (senderMessageKey, error) {
	chain := st.ChainKey
	if chain.Iteration > iteration {
		seed, ok := st.MessageKeys.Take(int64(iteration))
		if !ok {
			return senderMessageKey{}, fmt.Errorf("%w: iteration %d, chain at %d",
				types.ErrKeyAlreadyConsumed, iteration, chain.Iteration)
		}
		return deriveSenderMessageKey(seed)
	}
	if iteration-chain.Iteration > ratchet.MaxJump {
		return senderMessageKey{}, fmt.Errorf("%w: %d steps ahead", types.ErrMessageOverflow, iteration-chain.Iteration)
	}
	for chain.Iteration < iteration {
		st.MessageKeys.Put(int64(chain.Iteration), messageSeed(chain))
		chain = advance(chain)
	}
	seed := messageSeed(chain)
	st.ChainKey = advance(chain)
	return deriveSenderMessageKey(seed)
}
