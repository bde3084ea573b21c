// Package wire encodes and decodes the protocol messages exchanged by peers.
//
// Every message starts with a version byte ((3<<4)|3) followed by a protobuf
// body using the libsignal field numbers:
//
//	SignalMessage                 {1 ratchetKey, 2 counter, 3 previousCounter, 4 ciphertext} ‖ mac[8]
//	PreKeySignalMessage           {5 registrationId, 1 preKeyId, 6 signedPreKeyId, 2 baseKey, 3 identityKey, 4 message}
//	SenderKeyMessage              {1 id, 2 iteration, 3 ciphertext} ‖ signature[64]
//	SenderKeyDistributionMessage  {1 id, 2 iteration, 3 chainKey, 4 signingKey}
//
// Content is the plaintext container carried inside pairwise messages. It has
// no version byte.
//
// Public keys travel framed with the 0x05 type header. Parse failures wrap
// types.ErrInvalidMessage or types.ErrInvalidVersion.
package wire
