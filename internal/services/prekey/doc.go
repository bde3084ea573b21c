// Package prekey manages signed and one-time pre-keys for X3DH.
//
// Each call to GenerateAndStorePreKeys rotates the signed pre-key; older
// signed pre-keys stay in the store so in-flight handshakes still resolve.
// One-time pre-keys are removed by the session cipher once used.
package prekey
