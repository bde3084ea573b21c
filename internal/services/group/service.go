package group

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"whisper/internal/domain"
	"whisper/internal/logging"
	"whisper/internal/metrics"
	"whisper/internal/protocol/group"
	"whisper/internal/protocol/wire"
)

// fanOut caps concurrent relay requests per group operation.
const fanOut = 8

// ContentSender delivers a Content container over a pairwise session.
type ContentSender interface {
	SendContent(ctx context.Context, to domain.SessionAddress, c wire.Content) error
}

// Service distributes our sender key and sends group messages. Member lists
// are supplied by the caller on every call.
type Service struct {
	self    domain.SessionAddress
	store   domain.KeyStore
	relay   domain.RelayClient
	sender  ContentSender
	metrics *metrics.Messages
	log     *logrus.Entry
	now     func() time.Time
}

// Option configures a Service.
type Option func(*Service)

// WithMetrics records message counts.
func WithMetrics(m *metrics.Messages) Option { return func(s *Service) { s.metrics = m } }

// WithLogger sets the logger.
func WithLogger(l *logrus.Entry) Option { return func(s *Service) { s.log = l } }

// New constructs a Group Service for the local address self.
func New(
	self domain.SessionAddress,
	store domain.KeyStore,
	relay domain.RelayClient,
	sender ContentSender,
	opts ...Option,
) *Service {
	s := &Service{self: self, store: store, relay: relay, sender: sender, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	s.log = logging.OrDiscard(s.log)
	return s
}

// DistributeSenderKey sends our chain for groupID to every member over
// pairwise sessions, creating the chain on first use.
func (s *Service) DistributeSenderKey(ctx context.Context, groupID string, members []domain.SessionAddress) error {
	name := s.name(groupID)
	dist, err := group.NewBuilder(s.store, group.WithLogger(s.log)).CreateOutgoing(name)
	if err != nil {
		return err
	}
	c := wire.Content{SenderKeyDistribution: &wire.SenderKeyDistribution{
		GroupID: groupID,
		Message: dist.Serialize(),
	}}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(fanOut)
	for _, m := range s.others(members) {
		g.Go(func() error {
			if err := s.sender.SendContent(ctx, m, c); err != nil {
				return fmt.Errorf("distribute to %s: %w", m, err)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	s.log.WithFields(logrus.Fields{
		"group":   groupID,
		"key_id":  dist.KeyID,
		"members": len(members),
	}).Info("distributed sender key")
	return nil
}

// SendGroupMessage encrypts text once on our chain for groupID and posts
// the result to every member. If we have no chain yet it is created and
// distributed first.
func (s *Service) SendGroupMessage(
	ctx context.Context,
	groupID string,
	members []domain.SessionAddress,
	text string,
) error {
	name := s.name(groupID)
	rec, err := s.store.FindSenderKeyByName(name)
	if err != nil {
		return err
	}
	if rec.IsEmpty() {
		if err := s.DistributeSenderKey(ctx, groupID, members); err != nil {
			return err
		}
	}

	plaintext, err := wire.EncodeContent(wire.Content{Conversation: text})
	if err != nil {
		return err
	}
	body, err := group.NewCipher(s.store, name, group.WithLogger(s.log)).Encrypt(plaintext)
	if err != nil {
		return err
	}
	s.metrics.Encrypted(domain.MessageTypeSenderKey)

	ts := s.now().Unix()
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(fanOut)
	for _, m := range s.others(members) {
		g.Go(func() error {
			return s.relay.SendMessage(ctx, domain.Envelope{
				Type:      domain.MessageTypeSenderKey,
				From:      s.self,
				To:        m,
				GroupID:   groupID,
				Payload:   body,
				Timestamp: ts,
			})
		})
	}
	return g.Wait()
}

func (s *Service) name(groupID string) domain.SenderKeyName {
	return domain.SenderKeyName{GroupID: groupID, Sender: s.self}
}

// others drops ourselves and duplicates from members.
func (s *Service) others(members []domain.SessionAddress) []domain.SessionAddress {
	seen := make(map[domain.SessionAddress]bool, len(members))
	out := make([]domain.SessionAddress, 0, len(members))
	for _, m := range members {
		if m == s.self || seen[m] {
			continue
		}
		seen[m] = true
		out = append(out, m)
	}
	return out
}

// Compile-time assertion that Service implements domain.GroupService.
var _ domain.GroupService = (*Service)(nil)
