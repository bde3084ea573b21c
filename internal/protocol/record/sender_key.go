package record

import (
	"whisper/internal/domain/types"
)

// MaxSenderKeyStates bounds the history a SenderKeyRecord keeps.
const MaxSenderKeyStates = 5

// SenderChainKey is the group hash-ratchet position: Seed derives the message
// key for Iteration.
type SenderChainKey struct {
	Iteration uint32 `json:"iteration"`
	Seed      []byte `json:"seed"`
}

// SenderKeyState is one sender chain. SigningKey carries a private half only
// in the sender's own record.
type SenderKeyState struct {
	ID          uint32         `json:"id"`
	ChainKey    SenderChainKey `json:"chain_key"`
	SigningKey  types.KeyPair  `json:"signing_key"`
	MessageKeys MessageKeys    `json:"message_keys"`
}

// Clone returns a deep copy.
func (s *SenderKeyState) Clone() *SenderKeyState {
	return &SenderKeyState{
		ID:          s.ID,
		ChainKey:    SenderChainKey{Iteration: s.ChainKey.Iteration, Seed: cloneBytes(s.ChainKey.Seed)},
		SigningKey:  s.SigningKey,
		MessageKeys: s.MessageKeys.Clone(),
	}
}

// SenderKeyRecord is the newest-first state history for one SenderKeyName.
type SenderKeyRecord struct {
	States []*SenderKeyState `json:"states"`
}

// IsEmpty reports whether the record has no states.
func (r *SenderKeyRecord) IsEmpty() bool { return len(r.States) == 0 }

// CurrentState returns the newest state, or nil.
func (r *SenderKeyRecord) CurrentState() *SenderKeyState {
	if len(r.States) == 0 {
		return nil
	}
	return r.States[0]
}

// StateByID returns the state with the given chain id, or nil.
func (r *SenderKeyRecord) StateByID(id uint32) *SenderKeyState {
	for _, st := range r.States {
		if st.ID == id {
			return st
		}
	}
	return nil
}

// AddState installs st as the newest state. Any other state with the same id
// is dropped, as are the oldest states past MaxSenderKeyStates.
func (r *SenderKeyRecord) AddState(st *SenderKeyState) {
	kept := make([]*SenderKeyState, 0, len(r.States)+1)
	kept = append(kept, st)
	for _, old := range r.States {
		if old.ID != st.ID {
			kept = append(kept, old)
		}
	}
	if len(kept) > MaxSenderKeyStates {
		kept = kept[:MaxSenderKeyStates]
	}
	r.States = kept
}

// Clone returns a deep copy.
func (r *SenderKeyRecord) Clone() *SenderKeyRecord {
	out := &SenderKeyRecord{States: make([]*SenderKeyState, 0, len(r.States))}
	for _, st := range r.States {
		out.States = append(out.States, st.Clone())
	}
	return out
}
