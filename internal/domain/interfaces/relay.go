package interfaces

import (
	"context"

	domaintypes "whisper/internal/domain/types"
)

// RelayClient is how we talk to the central relay server, all with context.
type RelayClient interface {
	RegisterPreKeyBundle(ctx context.Context, bundle domaintypes.PublishedBundle) error
	FetchPreKeyBundle(
		ctx context.Context,
		address domaintypes.SessionAddress,
	) (domaintypes.PreKeyBundle, error)

	SendMessage(ctx context.Context, envelope domaintypes.Envelope) error
	FetchMessages(
		ctx context.Context,
		address domaintypes.SessionAddress,
		limit int,
	) ([]domaintypes.Envelope, error)
	AckMessages(ctx context.Context, address domaintypes.SessionAddress, count int) error
}
