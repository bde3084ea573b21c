package record

import (
	"whisper/internal/domain/types"
)

const (
	// CurrentVersion is the only session version this engine speaks.
	CurrentVersion = 3

	// MaxReceivingChains bounds the receiving chains kept per state.
	MaxReceivingChains = 5
)

// SessionChain is one hash-ratchet chain keyed by an ephemeral public key.
// Counter is the index of the last derived message key and starts at -1.
// A nil Key marks a closed chain: stored message keys remain usable but no
// new ones can be derived.
type SessionChain struct {
	Ephemeral   types.X25519Public `json:"ephemeral"`
	Counter     int64              `json:"counter"`
	Key         []byte             `json:"key,omitempty"`
	MessageKeys MessageKeys        `json:"message_keys"`
}

// NewSessionChain returns an open chain with no derived keys.
func NewSessionChain(ephemeral types.X25519Public, key []byte) *SessionChain {
	return &SessionChain{Ephemeral: ephemeral, Counter: -1, Key: key}
}

// Closed reports whether the chain can no longer derive keys.
func (c *SessionChain) Closed() bool { return c.Key == nil }

// Close drops the chain key.
func (c *SessionChain) Close() { c.Key = nil }

// Clone returns a deep copy.
func (c *SessionChain) Clone() *SessionChain {
	return &SessionChain{
		Ephemeral:   c.Ephemeral,
		Counter:     c.Counter,
		Key:         cloneBytes(c.Key),
		MessageKeys: c.MessageKeys.Clone(),
	}
}

// PendingPreKey is the handshake reference an initiator keeps until its first
// reply is decrypted. PreKeyID is 0 when no one-time pre-key was used.
type PendingPreKey struct {
	PreKeyID       uint32             `json:"pre_key_id"`
	SignedPreKeyID uint32             `json:"signed_pre_key_id"`
	BaseKey        types.X25519Public `json:"base_key"`
}

// SessionState is one ratchet epoch.
type SessionState struct {
	Version              uint32             `json:"version"`
	LocalRegistrationID  uint32             `json:"local_registration_id"`
	RemoteRegistrationID uint32             `json:"remote_registration_id"`
	RootKey              []byte             `json:"root_key"`
	LocalIdentityPublic  types.X25519Public `json:"local_identity_public"`
	RemoteIdentityKey    types.X25519Public `json:"remote_identity_key"`
	BaseKey              types.X25519Public `json:"base_key"`
	EphemeralKeyPair     types.KeyPair      `json:"ephemeral_key_pair"`
	LastRemoteEphemeral  types.X25519Public `json:"last_remote_ephemeral"`
	PreviousCounter      int64              `json:"previous_counter"`
	PendingPreKey        *PendingPreKey     `json:"pending_pre_key,omitempty"`
	// ResolvedPreKeyID is the one-time pre-key a responder state was built
	// from, reported again when the same handshake is retransmitted.
	ResolvedPreKeyID uint32          `json:"resolved_pre_key_id,omitempty"`
	Chains           []*SessionChain `json:"chains"`
}

// FindChain returns the chain keyed by ephemeral, or nil.
func (s *SessionState) FindChain(ephemeral types.X25519Public) *SessionChain {
	for _, c := range s.Chains {
		if c.Ephemeral == ephemeral {
			return c
		}
	}
	return nil
}

// SendingChain returns the chain keyed by the local current ephemeral.
func (s *SessionState) SendingChain() *SessionChain {
	return s.FindChain(s.EphemeralKeyPair.Public)
}

// AddChain installs c, replacing any chain with the same ephemeral. When more
// than MaxReceivingChains receiving chains remain, the oldest are dropped.
// The sending chain is never evicted.
func (s *SessionState) AddChain(c *SessionChain) {
	s.RemoveChain(c.Ephemeral)
	s.Chains = append(s.Chains, c)

	receiving := 0
	for _, ch := range s.Chains {
		if ch.Ephemeral != s.EphemeralKeyPair.Public {
			receiving++
		}
	}
	for i := 0; receiving > MaxReceivingChains && i < len(s.Chains); {
		if s.Chains[i].Ephemeral == s.EphemeralKeyPair.Public {
			i++
			continue
		}
		s.Chains = append(s.Chains[:i], s.Chains[i+1:]...)
		receiving--
	}
}

// RemoveChain deletes the chain keyed by ephemeral, if any.
func (s *SessionState) RemoveChain(ephemeral types.X25519Public) {
	for i, c := range s.Chains {
		if c.Ephemeral == ephemeral {
			s.Chains = append(s.Chains[:i], s.Chains[i+1:]...)
			return
		}
	}
}

// Clone returns a deep copy.
func (s *SessionState) Clone() *SessionState {
	out := *s
	out.RootKey = cloneBytes(s.RootKey)
	if s.PendingPreKey != nil {
		pending := *s.PendingPreKey
		out.PendingPreKey = &pending
	}
	out.Chains = make([]*SessionChain, 0, len(s.Chains))
	for _, c := range s.Chains {
		out.Chains = append(out.Chains, c.Clone())
	}
	return &out
}
