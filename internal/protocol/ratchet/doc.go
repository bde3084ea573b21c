// Package ratchet implements the symmetric and Diffie–Hellman ratchet steps
// used by pairwise sessions.
//
// The hash ratchet turns a chain key into a message key and the next chain
// key with HMAC-SHA256 (constants 0x01 and 0x02). FillMessageKeys walks a
// chain forward iteratively, storing each skipped key, and refuses to move
// more than MaxJump steps in one call.
//
// The DH ratchet (MaybeStep) runs when a message carries a remote ephemeral
// key with no chain yet: the previous receiving chain is drained and closed,
// the root key is advanced twice through HKDF ("WhisperRatchet"), once for
// the new receiving chain and once for a fresh sending chain.
//
// Concurrency: SessionState is NOT safe for concurrent use. Callers must hold
// the key store's per-address lock.
package ratchet
