package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"whisper/internal/logging"
	"whisper/internal/relay"
)

const shutdownTimeout = 5 * time.Second

type options struct {
	addr      string
	logLevel  string
	logFormat string
}

func newRoot() *cobra.Command {
	var opts options
	root := &cobra.Command{
		Use:          "relay",
		Short:        "In-memory store-and-forward relay for whisper clients",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			log, err := logging.New(opts.logLevel, opts.logFormat)
			if err != nil {
				return err
			}
			return serve(cmd.Context(), opts.addr, log)
		},
	}

	root.Flags().StringVar(&opts.addr, "addr", ":8080", "listen address")
	root.Flags().StringVar(&opts.logLevel, "log-level", "info", "log level")
	root.Flags().StringVar(&opts.logFormat, "log-format", "text", "log format (text or json)")
	return root
}

// serve runs the relay on addr until ctx is cancelled.
func serve(ctx context.Context, addr string, log *logrus.Logger) error {
	reg := prometheus.NewRegistry()
	if err := reg.Register(collectors.NewGoCollector()); err != nil {
		return err
	}
	if err := reg.Register(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{})); err != nil {
		return err
	}

	srv, err := relay.NewServer(
		relay.WithServerLogger(log.WithField("component", "relay")),
		relay.WithRegistry(reg),
	)
	if err != nil {
		return err
	}

	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	httpSrv := &http.Server{
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		<-ctx.Done()
		shutdown, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := httpSrv.Shutdown(shutdown); err != nil {
			log.WithError(err).Warn("relay shutdown")
		}
	}()

	log.WithField("addr", ln.Addr().String()).Info("relay listening")
	err = httpSrv.Serve(ln)
	if !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	<-done
	return nil
}
