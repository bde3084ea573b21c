// Package relay is the store-and-forward transport between whisper clients.
//
// Server keeps published pre-key bundles and per-address envelope queues in
// memory. Each bundle fetch hands out and removes one one-time pre-key.
// Envelopes stay queued until the recipient acknowledges them, so a client
// that crashes mid-receive fetches them again.
//
// HTTP is the matching domain.RelayClient. All requests are JSON and take a
// context; a 404 surfaces as ErrNotFound.
package relay
