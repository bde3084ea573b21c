// Package session encrypts and decrypts pairwise messages on Double Ratchet
// sessions established by the x3dh package.
//
// A Cipher is bound to one remote address. All work on that address runs
// under the key store's per-address lock, and a session record is written
// back only after an operation succeeds.
package session
