// Package commands defines the whisper CLI and wires dependencies for subcommands.
//
// Commands
//
//   - init             Create the local identity and record our address
//   - fingerprint      Print the identity fingerprint
//   - register         Rotate pre-keys and publish the bundle to the relay
//   - start-session    Run X3DH against a peer's bundle
//   - send             Encrypt and send a message
//   - recv             Fetch, decrypt and ack queued messages
//   - group distribute Hand our sender key for a group to its members
//   - group send       Encrypt once and post to every member
//   - trust reset      Forget a peer's identity key
//
// # Implementation
//
// The root command loads config.yaml from the home directory, applies flag
// overrides and builds the app (key store, relay client, services) before any
// subcommand runs. The key store is closed after the subcommand returns.
package commands
