package domain

import (
	interfaces "whisper/internal/domain/interfaces"
	types "whisper/internal/domain/types"
)

// Type aliases expose domain types from the types subpackage for compact imports.
type (
	Fingerprint        = types.Fingerprint
	SessionAddress     = types.SessionAddress
	SenderKeyName      = types.SenderKeyName
	X25519Public       = types.X25519Public
	X25519Private      = types.X25519Private
	KeyPair            = types.KeyPair
	Identity           = types.Identity
	PreKeyRecord       = types.PreKeyRecord
	SignedPreKeyRecord = types.SignedPreKeyRecord
	PreKeyPublic       = types.PreKeyPublic
	PreKeyBundle       = types.PreKeyBundle
	PublishedBundle    = types.PublishedBundle
	MessageType        = types.MessageType
	Envelope           = types.Envelope
	DecryptedMessage   = types.DecryptedMessage
)

// Interface aliases expose domain interfaces from the interfaces subpackage.
type (
	IdentityService    = interfaces.IdentityService
	PreKeyService      = interfaces.PreKeyService
	SessionService     = interfaces.SessionService
	MessageService     = interfaces.MessageService
	GroupService       = interfaces.GroupService
	RelayClient        = interfaces.RelayClient
	LocalIdentityStore = interfaces.LocalIdentityStore
	TrustStore         = interfaces.TrustStore
	SessionStore       = interfaces.SessionStore
	PreKeyStore        = interfaces.PreKeyStore
	SignedPreKeyStore  = interfaces.SignedPreKeyStore
	SenderKeyStore     = interfaces.SenderKeyStore
	Locker             = interfaces.Locker
	KeyStore           = interfaces.KeyStore
)

// Message type discriminators.
const (
	MessageTypePreKey    = types.MessageTypePreKey
	MessageTypeWhisper   = types.MessageTypeWhisper
	MessageTypeSenderKey = types.MessageTypeSenderKey
)

// Sentinel errors re-exported for callers that only import domain.
var (
	ErrUntrustedIdentity     = types.ErrUntrustedIdentity
	ErrSignatureMismatch     = types.ErrSignatureMismatch
	ErrInvalidPreKeyID       = types.ErrInvalidPreKeyID
	ErrInvalidSignedPreKeyID = types.ErrInvalidSignedPreKeyID
	ErrMissingRegistrationID = types.ErrMissingRegistrationID
	ErrNoSuitableChain       = types.ErrNoSuitableChain
	ErrNoSuitableSession     = types.ErrNoSuitableSession
	ErrMessageOverflow       = types.ErrMessageOverflow
	ErrKeyAlreadyConsumed    = types.ErrKeyAlreadyConsumed
	ErrAuthenticationFailed  = types.ErrAuthenticationFailed
	ErrInvalidKeySize        = types.ErrInvalidKeySize
	ErrClosedChain           = types.ErrClosedChain
	ErrSessionNotFound       = types.ErrSessionNotFound
	ErrNoSenderKey           = types.ErrNoSenderKey
	ErrInvalidMessage        = types.ErrInvalidMessage
	ErrInvalidVersion        = types.ErrInvalidVersion
	ErrInvalidPadding        = types.ErrInvalidPadding
)

// ParseSessionAddress parses "name" or "name.device".
func ParseSessionAddress(s string) (SessionAddress, error) { return types.ParseSessionAddress(s) }
