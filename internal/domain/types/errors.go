package types

import (
	"errors"

	"go.uber.org/multierr"
)

var (
	// ErrUntrustedIdentity is returned when a remote identity key differs from
	// the one already trusted for that address.
	ErrUntrustedIdentity = errors.New("untrusted identity key")
	// ErrSignatureMismatch is returned when a signed pre-key signature does not
	// verify under the bundle's identity key.
	ErrSignatureMismatch = errors.New("signed pre-key signature mismatch")
	// ErrInvalidPreKeyID is returned when a handshake names an unknown
	// one-time pre-key.
	ErrInvalidPreKeyID = errors.New("invalid pre-key id")
	// ErrInvalidSignedPreKeyID is returned when a handshake names an unknown
	// signed pre-key.
	ErrInvalidSignedPreKeyID = errors.New("invalid signed pre-key id")
	// ErrMissingRegistrationID is returned when a new session would be created
	// from a handshake that carries no registration id.
	ErrMissingRegistrationID = errors.New("missing registration id")
	// ErrNoSuitableChain is returned when the current state has no sending chain.
	ErrNoSuitableChain = errors.New("no suitable sending chain")
	// ErrNoSuitableSession is matched by NoSuitableSessionError.
	ErrNoSuitableSession = errors.New("no suitable session")
	// ErrMessageOverflow is returned when a counter is too far ahead.
	ErrMessageOverflow = errors.New("message counter too far ahead")
	// ErrKeyAlreadyConsumed is returned for replays and late messages whose
	// key was already used or evicted.
	ErrKeyAlreadyConsumed = errors.New("message key already consumed")
	// ErrAuthenticationFailed is returned when a MAC or sender signature fails.
	ErrAuthenticationFailed = errors.New("message authentication failed")
	// ErrInvalidKeySize is returned by key header framing for bad lengths.
	ErrInvalidKeySize = errors.New("invalid key size")
	// ErrClosedChain is returned when a closed receiving chain would be advanced.
	ErrClosedChain = errors.New("chain is closed")
	// ErrSessionNotFound is returned when encrypting to an address with no session.
	ErrSessionNotFound = errors.New("session not found")
	// ErrNoSenderKey is returned when a group message names an unknown sender key.
	ErrNoSenderKey = errors.New("no sender key state")
	// ErrInvalidMessage is returned for malformed wire messages.
	ErrInvalidMessage = errors.New("invalid message")
	// ErrInvalidVersion is returned for unsupported protocol versions.
	ErrInvalidVersion = errors.New("unsupported message version")
	// ErrInvalidPadding is returned when stripping message padding fails.
	ErrInvalidPadding = errors.New("invalid padding")
)

// NoSuitableSessionError aggregates the per-epoch failures of a decrypt that
// no retained session state could handle.
type NoSuitableSessionError struct {
	Causes error
}

// NewNoSuitableSessionError wraps the combined epoch failures.
func NewNoSuitableSessionError(causes ...error) *NoSuitableSessionError {
	return &NoSuitableSessionError{Causes: multierr.Combine(causes...)}
}

func (e *NoSuitableSessionError) Error() string {
	if e.Causes == nil {
		return ErrNoSuitableSession.Error()
	}
	return ErrNoSuitableSession.Error() + ": " + e.Causes.Error()
}

// Is makes errors.Is(err, ErrNoSuitableSession) hold.
func (e *NoSuitableSessionError) Is(target error) bool {
	return target == ErrNoSuitableSession
}

// Unwrap exposes each epoch failure to errors.Is and errors.As.
func (e *NoSuitableSessionError) Unwrap() []error {
	return multierr.Errors(e.Causes)
}
