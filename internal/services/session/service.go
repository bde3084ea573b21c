package session

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"whisper/internal/domain"
	"whisper/internal/logging"
	"whisper/internal/protocol/record"
	"whisper/internal/protocol/x3dh"
)

// Service establishes pairwise sessions from pre-key bundles.
//
// It fetches the peer's bundle from the relay and hands it to the X3DH
// builder, which verifies the signed pre-key, checks trust and installs a
// pending session. The first message on that session carries the handshake.
type Service struct {
	store     domain.KeyStore
	relay     domain.RelayClient
	maxStates int
	log       *logrus.Entry
}

// Option configures a Service.
type Option func(*Service)

// WithMaxStates bounds the epochs kept per session.
func WithMaxStates(n int) Option { return func(s *Service) { s.maxStates = n } }

// WithLogger sets the logger.
func WithLogger(l *logrus.Entry) Option { return func(s *Service) { s.log = l } }

// New constructs a Session Service with the given store and relay client.
func New(store domain.KeyStore, relay domain.RelayClient, opts ...Option) *Service {
	s := &Service{store: store, relay: relay, maxStates: record.DefaultMaxStates}
	for _, opt := range opts {
		opt(s)
	}
	s.log = logging.OrDiscard(s.log)
	return s
}

// InitiateSession fetches peer's bundle and runs X3DH against it.
func (s *Service) InitiateSession(ctx context.Context, peer domain.SessionAddress) error {
	bundle, err := s.relay.FetchPreKeyBundle(ctx, peer)
	if err != nil {
		return fmt.Errorf("fetch bundle for %s: %w", peer, err)
	}
	if bundle.Address != peer {
		return fmt.Errorf("relay returned bundle for %s, want %s", bundle.Address, peer)
	}
	return s.ProcessBundle(bundle)
}

// ProcessBundle installs an outgoing session from bundle.
func (s *Service) ProcessBundle(bundle domain.PreKeyBundle) error {
	b := x3dh.NewBuilder(s.store, bundle.Address,
		x3dh.WithMaxStates(s.maxStates),
		x3dh.WithLogger(s.log.WithField("address", bundle.Address.String())),
	)
	if err := b.CreateOutgoing(bundle); err != nil {
		return fmt.Errorf("session with %s: %w", bundle.Address, err)
	}
	return nil
}

// HasSession reports whether an established or pending session with peer
// exists.
func (s *Service) HasSession(peer domain.SessionAddress) (bool, error) {
	sess, ok, err := s.store.FindSessionByAddress(peer)
	if err != nil || !ok {
		return false, err
	}
	return sess.CurrentState() != nil, nil
}

// Compile-time assertion that Service implements domain.SessionService.
var _ domain.SessionService = (*Service)(nil)
