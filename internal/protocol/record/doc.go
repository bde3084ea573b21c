// Package record holds the mutable ratchet state owned by the key store.
//
// A Session is a newest-first list of SessionState epochs for one remote
// address. Each state carries one sending chain, keyed by the local current
// ephemeral public key, plus a bounded set of receiving chains keyed by remote
// ephemeral keys. Unconsumed message keys live in MessageKeys, a bounded
// ordered map that evicts the oldest counters first.
//
// SenderKeyRecord is the group counterpart: a short history of hash-ratchet
// states, each with its own signing key.
//
// Everything here is plain data plus invariant-keeping helpers. Key
// derivation lives in internal/protocol/ratchet, and callers must hold the
// key store's per-address lock while mutating a record.
package record
