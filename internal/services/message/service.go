package message

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"whisper/internal/domain"
	"whisper/internal/logging"
	"whisper/internal/metrics"
	"whisper/internal/protocol/group"
	"whisper/internal/protocol/record"
	sessioncipher "whisper/internal/protocol/session"
	"whisper/internal/protocol/wire"
)

// Service sends and receives pairwise messages over the relay and routes
// inbound group messages to the sender key cipher.
//
// High-level flow:
//   - Send: if there is no session with the peer, fetch its bundle and run
//     X3DH first; the first messages are then pre-key messages until the peer
//     replies.
//   - Receive: fetch envelopes, decrypt each by its type, install any sender
//     key distribution it carries, then ack everything fetched. A unit that
//     fails to decrypt is reported on its DecryptedMessage and dropped.
type Service struct {
	self      domain.SessionAddress
	store     domain.KeyStore
	relay     domain.RelayClient
	sessions  domain.SessionService
	metrics   *metrics.Messages
	maxStates int
	log       *logrus.Entry
	now       func() time.Time
}

// Option configures a Service.
type Option func(*Service)

// WithMetrics records message counts.
func WithMetrics(m *metrics.Messages) Option { return func(s *Service) { s.metrics = m } }

// WithLogger sets the logger.
func WithLogger(l *logrus.Entry) Option { return func(s *Service) { s.log = l } }

// WithMaxStates bounds the epochs kept per session.
func WithMaxStates(n int) Option { return func(s *Service) { s.maxStates = n } }

// New constructs a Message Service for the local address self.
func New(
	self domain.SessionAddress,
	store domain.KeyStore,
	relay domain.RelayClient,
	sessions domain.SessionService,
	opts ...Option,
) *Service {
	s := &Service{
		self:      self,
		store:     store,
		relay:     relay,
		sessions:  sessions,
		maxStates: record.DefaultMaxStates,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.log = logging.OrDiscard(s.log)
	return s
}

// SendMessage encrypts text for to and posts it.
func (s *Service) SendMessage(ctx context.Context, to domain.SessionAddress, text string) error {
	return s.SendContent(ctx, to, wire.Content{Conversation: text})
}

// SendContent encrypts c for to and posts it, establishing a session first
// when there is none.
func (s *Service) SendContent(ctx context.Context, to domain.SessionAddress, c wire.Content) error {
	ok, err := s.sessions.HasSession(to)
	if err != nil {
		return err
	}
	if !ok {
		if err := s.sessions.InitiateSession(ctx, to); err != nil {
			return err
		}
	}

	plaintext, err := wire.EncodeContent(c)
	if err != nil {
		return err
	}
	ct, err := s.cipher(to).Encrypt(plaintext)
	if err != nil {
		return fmt.Errorf("encrypt for %s: %w", to, err)
	}
	s.metrics.Encrypted(ct.Type)

	env := domain.Envelope{
		Type:      ct.Type,
		From:      s.self,
		To:        to,
		Payload:   ct.Body,
		Timestamp: s.now().Unix(),
	}
	return s.relay.SendMessage(ctx, env)
}

// ReceiveMessages fetches up to limit envelopes (limit <= 0 means all),
// decrypts them in order and acks them. Envelopes that only carried a sender
// key distribution are installed and not returned.
func (s *Service) ReceiveMessages(ctx context.Context, limit int) ([]domain.DecryptedMessage, error) {
	envs, err := s.relay.FetchMessages(ctx, s.self, limit)
	if err != nil {
		return nil, err
	}

	out := make([]domain.DecryptedMessage, 0, len(envs))
	for _, env := range envs {
		if err := ctx.Err(); err != nil {
			return out, err
		}
		dm, keep := s.receive(env)
		if keep {
			out = append(out, dm)
		}
	}

	if len(envs) > 0 {
		if err := s.relay.AckMessages(ctx, s.self, len(envs)); err != nil {
			return out, fmt.Errorf("ack %d messages: %w", len(envs), err)
		}
	}
	return out, nil
}

// receive decrypts one envelope. keep is false for units with nothing to
// show the caller.
func (s *Service) receive(env domain.Envelope) (dm domain.DecryptedMessage, keep bool) {
	dm = domain.DecryptedMessage{
		From:      env.From,
		Type:      env.Type,
		GroupID:   env.GroupID,
		Timestamp: env.Timestamp,
	}
	log := s.log.WithFields(logrus.Fields{
		"from": env.From.String(),
		"type": env.Type,
	})

	content, err := s.decrypt(env)
	if err == nil {
		err = s.installDistribution(env, content)
	}
	s.metrics.Decrypted(env.Type, err)
	if err != nil {
		dm.Err = err
		dm.Reverify = errors.Is(err, domain.ErrUntrustedIdentity) || errors.Is(err, domain.ErrSignatureMismatch)
		log.WithError(err).Warn("dropping undecryptable message")
		return dm, true
	}

	if content.Conversation == "" {
		log.Debug("received control message")
		return dm, false
	}
	dm.Plaintext = []byte(content.Conversation)
	return dm, true
}

func (s *Service) decrypt(env domain.Envelope) (wire.Content, error) {
	var (
		plaintext []byte
		err       error
	)
	switch env.Type {
	case domain.MessageTypePreKey:
		var msg *wire.PreKeySignalMessage
		if msg, err = wire.ParsePreKeySignalMessage(env.Payload); err == nil {
			plaintext, err = s.cipher(env.From).DecryptPreKey(msg)
		}
	case domain.MessageTypeWhisper:
		var msg *wire.SignalMessage
		if msg, err = wire.ParseSignalMessage(env.Payload); err == nil {
			plaintext, err = s.cipher(env.From).Decrypt(msg)
		}
	case domain.MessageTypeSenderKey:
		if env.GroupID == "" {
			return wire.Content{}, fmt.Errorf("%w: group message without group id", domain.ErrInvalidMessage)
		}
		name := domain.SenderKeyName{GroupID: env.GroupID, Sender: env.From}
		plaintext, err = group.NewCipher(s.store, name, group.WithLogger(s.log)).Decrypt(env.Payload)
	default:
		return wire.Content{}, fmt.Errorf("%w: unknown type %q", domain.ErrInvalidMessage, env.Type)
	}
	if err != nil {
		return wire.Content{}, err
	}
	return wire.DecodeContent(plaintext)
}

// installDistribution stores a sender key carried on a pairwise message.
// Distributions are not accepted inside group messages.
func (s *Service) installDistribution(env domain.Envelope, c wire.Content) error {
	d := c.SenderKeyDistribution
	if d == nil {
		return nil
	}
	if env.Type == domain.MessageTypeSenderKey {
		return fmt.Errorf("%w: sender key distribution inside a group message", domain.ErrInvalidMessage)
	}
	msg, err := wire.ParseSenderKeyDistributionMessage(d.Message)
	if err != nil {
		return err
	}
	name := domain.SenderKeyName{GroupID: d.GroupID, Sender: env.From}
	return group.NewBuilder(s.store, group.WithLogger(s.log)).CreateIncoming(name, msg)
}

func (s *Service) cipher(peer domain.SessionAddress) *sessioncipher.Cipher {
	return sessioncipher.NewCipher(s.store, peer,
		sessioncipher.WithMaxStates(s.maxStates),
		sessioncipher.WithLogger(s.log),
	)
}

// Compile-time assertion that Service implements domain.MessageService.
var _ domain.MessageService = (*Service)(nil)
