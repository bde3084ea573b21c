package record

import (
	"whisper/internal/domain/types"
)

// DefaultMaxStates is the number of epochs a Session keeps when no limit is
// configured.
const DefaultMaxStates = 5

// Session is the newest-first list of epochs for one address.
type Session struct {
	States []*SessionState `json:"states"`

	maxStates int
}

// NewSession returns an empty session that keeps at most maxStates epochs.
// A non-positive limit selects DefaultMaxStates.
func NewSession(maxStates int) *Session {
	s := &Session{}
	s.SetMaxStates(maxStates)
	return s
}

// SetMaxStates changes the epoch bound. Sessions loaded from storage carry no
// bound until one is set.
func (s *Session) SetMaxStates(n int) {
	s.maxStates = n
	s.trim()
}

func (s *Session) limit() int {
	if s.maxStates <= 0 {
		return DefaultMaxStates
	}
	return s.maxStates
}

func (s *Session) trim() {
	if len(s.States) > s.limit() {
		s.States = s.States[:s.limit()]
	}
}

// IsFresh reports whether the session has no epochs.
func (s *Session) IsFresh() bool { return len(s.States) == 0 }

// CurrentState returns the newest epoch, or nil.
func (s *Session) CurrentState() *SessionState {
	if len(s.States) == 0 {
		return nil
	}
	return s.States[0]
}

// PromoteState installs st as the newest epoch and drops the oldest ones past
// the bound.
func (s *Session) PromoteState(st *SessionState) {
	s.States = append([]*SessionState{st}, s.States...)
	s.trim()
}

// FindState returns the epoch created from the given handshake, or nil.
func (s *Session) FindState(version uint32, baseKey types.X25519Public) *SessionState {
	for _, st := range s.States {
		if st.Version == version && st.BaseKey == baseKey {
			return st
		}
	}
	return nil
}

// HasState reports whether FindState would succeed.
func (s *Session) HasState(version uint32, baseKey types.X25519Public) bool {
	return s.FindState(version, baseKey) != nil
}

// ReplaceState swaps the epoch at index i, keeping its position.
func (s *Session) ReplaceState(i int, st *SessionState) {
	s.States[i] = st
}

// Clone returns a deep copy, bound included.
func (s *Session) Clone() *Session {
	out := &Session{maxStates: s.maxStates, States: make([]*SessionState, 0, len(s.States))}
	for _, st := range s.States {
		out.States = append(out.States, st.Clone())
	}
	return out
}
