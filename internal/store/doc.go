// Package store persists the key material and protocol records behind the
// domain.KeyStore contract.
//
// A Store serialises records as JSON into a key/value backend:
//   - NewMemoryStore keeps them in an ordered in-process tree
//   - OpenBadgerStore writes them to a badger database on disk
//
// The local identity is sealed with a passphrase-derived key (scrypt and
// ChaCha20-Poly1305) before it reaches the backend. Identity keys of peers
// are trusted on first use.
package store
