// Package main runs the in-memory HTTP relay used by whisper during development
// and tests. It stores published pre-key bundles and queues encrypted envelopes
// for recipients until they acknowledge them.
//
// HTTP API
//
//	POST /register
//	    Store a device's published bundle (identity key, signed pre-key + sig,
//	    one-time pre-keys), replacing any earlier one.
//
//	GET /prekey/{address}
//	    Return a single-use bundle for {address} carrying one one-time
//	    pre-key, which is removed from the published set. When none are left
//	    the bundle carries only the signed pre-key.
//
//	POST /msg/{address}
//	    Enqueue an Envelope destined to {address}. The type must be pkmsg, msg
//	    or skmsg. If Timestamp is zero, the server fills it with the current
//	    Unix time.
//
//	GET /msg/{address}?limit=N
//	    Return up to N queued Envelopes for {address} without removing them.
//
//	POST /msg/{address}/ack { "count": N }
//	    Drop the first N queued envelopes for {address}. If N exceeds the queue
//	    length, the queue is cleared.
//
//	GET /metrics
//	    Prometheus metrics.
//
// Addresses are "name.device"; a bare name means device 0.
//
// Behaviour
//
//   - All state is held in memory and lost on process exit.
//   - Responses are JSON. Non-2xx statuses carry a short error message.
//   - A debug-level access log records method, path, remote, status, bytes
//     and duration for each request.
//   - The default listen address is :8080.
//
// The relay is an untrusted middleman. It never sees plaintext or private
// keys; it only stores ciphertext and public bundles.
package main
