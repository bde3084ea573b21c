// Package x3dh implements the X3DH key agreement used to bootstrap a Double
// Ratchet session between two parties.
//
// # Overview
//
// X3DH lets an initiator derive a shared root key with a responder who has
// published a pre-key bundle. The bundle contains:
//   - Identity key (Curve25519)
//   - Signed pre-key and its XEdDSA signature by the identity key
//   - Optional one-time pre-key
//
// # Flows
//
// Initiator (Builder.CreateOutgoing):
//  1. Check trust and verify the signed pre-key signature.
//  2. Generate a base key.
//  3. HKDF("WhisperText") over 0xFF*32 ‖ DH(IKa, SPKb) ‖ DH(EKa, IKb) ‖
//     DH(EKa, SPKb) [‖ DH(EKa, OPKb)].
//  4. Ratchet once against SPKb to seed the sending chain and keep a pending
//     pre-key reference until the first reply decrypts.
//
// Responder (Builder.CreateIncoming):
//  1. Look up the signed pre-key and the one-time pre-key, if named.
//  2. Compute the same transcript with the first two DH terms swapped.
//  3. Promote a state whose ephemeral is the signed pre-key; no chain yet.
//
// # Errors
//
// ErrUntrustedIdentity, ErrSignatureMismatch, ErrInvalidPreKeyID and
// ErrInvalidSignedPreKeyID from internal/domain/types. Other errors wrap
// lower-level crypto or storage failures.
package x3dh
