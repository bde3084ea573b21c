// Package message sends and receives encrypted messages.
//
// Outbound text is wrapped in a Content container, compressed and padded,
// then sealed by the pairwise session cipher. Inbound envelopes are
// dispatched once on their type: pre-key and whisper messages go to the
// session cipher, group messages to the sender key cipher. A failure costs
// only the unit that failed.
package message
