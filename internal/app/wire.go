package app

import (
	"fmt"
	"path/filepath"

	"github.com/prometheus/client_golang/prometheus"

	"whisper/internal/logging"
	"whisper/internal/metrics"
	"whisper/internal/relay"
	groupsvc "whisper/internal/services/group"
	identitysvc "whisper/internal/services/identity"
	messagesvc "whisper/internal/services/message"
	prekeysvc "whisper/internal/services/prekey"
	sessionsvc "whisper/internal/services/session"
	"whisper/internal/store"
)

// StoreDir is the badger directory inside the home directory.
const StoreDir = "keystore"

// New constructs the dependency graph from cfg. passphrase seals the local
// identity at rest.
func New(cfg Config, passphrase string) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	log, err := logging.New(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		return nil, err
	}

	storeOpts := []store.Option{store.WithPassphrase(passphrase)}
	var ks *store.Store
	switch cfg.Storage.Backend {
	case BackendMemory:
		ks = store.NewMemoryStore(storeOpts...)
	default:
		ks, err = store.OpenBadgerStore(filepath.Join(cfg.Home, StoreDir), storeOpts...)
		if err != nil {
			return nil, err
		}
	}

	rc := relay.NewHTTP(cfg.RelayURL)
	if cfg.HTTP != nil {
		rc.HTTP = cfg.HTTP
	}

	reg := prometheus.NewRegistry()
	msgMetrics, err := metrics.NewMessages(reg)
	if err != nil {
		_ = ks.Close()
		return nil, fmt.Errorf("register metrics: %w", err)
	}

	entry := log.WithField("self", cfg.Address.String())
	sessions := sessionsvc.New(ks, rc,
		sessionsvc.WithMaxStates(cfg.Session.MaxStates),
		sessionsvc.WithLogger(entry),
	)
	messages := messagesvc.New(cfg.Address, ks, rc, sessions,
		messagesvc.WithMaxStates(cfg.Session.MaxStates),
		messagesvc.WithMetrics(msgMetrics),
		messagesvc.WithLogger(entry),
	)
	groups := groupsvc.New(cfg.Address, ks, rc, messages,
		groupsvc.WithMetrics(msgMetrics),
		groupsvc.WithLogger(entry),
	)

	return &App{
		Config:   cfg,
		Log:      log,
		Store:    ks,
		Registry: reg,
		Identity: identitysvc.New(ks),
		PreKeys:  prekeysvc.New(ks),
		Sessions: sessions,
		Messages: messages,
		Groups:   groups,
		Relay:    rc,
	}, nil
}
