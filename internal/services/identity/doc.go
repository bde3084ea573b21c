// Package identity creates the local identity and enforces passphrase policy.
//
// The key store seals the identity at rest; this package only generates it
// and derives the fingerprint users compare out of band.
package identity
