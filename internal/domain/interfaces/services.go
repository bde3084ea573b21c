package interfaces

import (
	"context"

	domaintypes "whisper/internal/domain/types"
)

// IdentityService creates and inspects the local identity.
type IdentityService interface {
	GenerateIdentity(passphrase string) (domaintypes.Identity, domaintypes.Fingerprint, error)
	FingerprintIdentity() (domaintypes.Fingerprint, error)
}

// PreKeyService generates pre-keys and assembles the published bundle.
type PreKeyService interface {
	GenerateAndStorePreKeys(count int) (
		domaintypes.SignedPreKeyRecord,
		[]domaintypes.PreKeyRecord,
		error,
	)
	LoadPreKeyBundle(address domaintypes.SessionAddress) (domaintypes.PublishedBundle, error)
}

// SessionService establishes pairwise sessions.
type SessionService interface {
	InitiateSession(ctx context.Context, peer domaintypes.SessionAddress) error
	ProcessBundle(bundle domaintypes.PreKeyBundle) error
	HasSession(peer domaintypes.SessionAddress) (bool, error)
}

// MessageService encrypts, sends, fetches and decrypts pairwise and group
// messages.
type MessageService interface {
	SendMessage(ctx context.Context, to domaintypes.SessionAddress, text string) error
	ReceiveMessages(ctx context.Context, limit int) ([]domaintypes.DecryptedMessage, error)
}

// GroupService distributes sender keys and fans group messages out.
type GroupService interface {
	DistributeSenderKey(ctx context.Context, groupID string, members []domaintypes.SessionAddress) error
	SendGroupMessage(ctx context.Context, groupID string, members []domaintypes.SessionAddress, text string) error
}
