package app

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"
	"go.uber.org/multierr"

	"whisper/internal/domain"
	"whisper/internal/relay"
	"whisper/internal/store"
)

// App bundles the store, services and clients the CLI works with.
type App struct {
	Config   Config
	Log      *logrus.Logger
	Store    *store.Store
	Registry *prometheus.Registry

	Identity domain.IdentityService
	PreKeys  domain.PreKeyService
	Sessions domain.SessionService
	Messages domain.MessageService
	Groups   domain.GroupService
	Relay    *relay.HTTP
}

// Self returns the local device address.
func (a *App) Self() domain.SessionAddress { return a.Config.Address }

// ForgetIdentity drops the trusted identity key for peer so the next
// handshake is accepted on first use again.
func (a *App) ForgetIdentity(peer domain.SessionAddress) error {
	return a.Store.ForgetIdentity(peer)
}

// Close releases the key store.
func (a *App) Close() error {
	var err error
	if a.Store != nil {
		err = multierr.Append(err, a.Store.Close())
	}
	if a.Relay != nil && a.Relay.HTTP != nil {
		a.Relay.HTTP.CloseIdleConnections()
	}
	return err
}
