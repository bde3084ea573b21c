// Package session establishes pairwise sessions.
//
// InitiateSession fetches a single-use pre-key bundle from the relay and runs
// the initiator side of X3DH. The responder side needs no service call: it
// happens when the first pre-key message is decrypted.
package session
