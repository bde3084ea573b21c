package interfaces

import (
	domaintypes "whisper/internal/domain/types"
	"whisper/internal/protocol/record"
)

// LocalIdentityStore persists the local identity pair and registration id.
type LocalIdentityStore interface {
	StoreLocalIdentity(id domaintypes.Identity) error
	IdentityKeyPair() (domaintypes.KeyPair, error)
	LocalRegistrationID() (uint32, error)
}

// TrustStore decides whether a remote identity key is acceptable for an
// address and remembers accepted keys.
type TrustStore interface {
	HasTrust(address domaintypes.SessionAddress, identityKey domaintypes.X25519Public) (bool, error)
	SaveIdentity(address domaintypes.SessionAddress, identityKey domaintypes.X25519Public) error
}

// SessionStore persists pairwise session records.
type SessionStore interface {
	FindSessionByAddress(address domaintypes.SessionAddress) (*record.Session, bool, error)
	AddSession(address domaintypes.SessionAddress, session *record.Session) error
}

// PreKeyStore manages one-time pre-keys.
type PreKeyStore interface {
	FindPreKeyByID(id uint32) (domaintypes.PreKeyRecord, bool, error)
	StorePreKeys(records []domaintypes.PreKeyRecord) error
	RemovePreKey(id uint32) error
	ListPreKeys() ([]domaintypes.PreKeyRecord, error)
}

// SignedPreKeyStore manages signed pre-keys.
type SignedPreKeyStore interface {
	FindSignedKeyPairByID(id uint32) (domaintypes.SignedPreKeyRecord, bool, error)
	StoreSignedPreKey(rec domaintypes.SignedPreKeyRecord) error

	// Current signed pre-key selection
	SetCurrentSignedPreKeyID(id uint32) error
	CurrentSignedPreKeyID() (uint32, bool, error)
}

// SenderKeyStore persists group sender key records. A missing record is
// returned empty, not as an error.
type SenderKeyStore interface {
	FindSenderKeyByName(name domaintypes.SenderKeyName) (*record.SenderKeyRecord, error)
	AddSenderKey(name domaintypes.SenderKeyName, rec *record.SenderKeyRecord) error
}

// Locker serialises work on one session or one sender key record. Sessions
// and sender keys lock independently. The returned function releases the
// lock.
type Locker interface {
	LockSession(address domaintypes.SessionAddress) (unlock func())
	LockSenderKey(name domaintypes.SenderKeyName) (unlock func())
}

// KeyStore is everything the protocol layer needs from storage.
type KeyStore interface {
	LocalIdentityStore
	TrustStore
	SessionStore
	PreKeyStore
	SignedPreKeyStore
	SenderKeyStore
	Locker
}
