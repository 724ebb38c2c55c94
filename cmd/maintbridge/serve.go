package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"maintcore/internal/bridge"
)

const shutdownTimeout = 10 * time.Second

func newServeCmd(opts *options) *cobra.Command {
	var listen string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve bridge calls over HTTP against the configured database",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, log, err := opts.load()
			if err != nil {
				return err
			}
			defer func() { _ = log.Sync() }()
			if listen == "" {
				listen = cfg.Bridge.Listen
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			h, err := bridge.OpenHandler(ctx, cfg.Storage.Relational, log)
			if err != nil {
				return err
			}
			defer func() { _ = h.Close() }()
			server := bridge.NewServer(h, log,
				bridge.WithCallMetrics(prometheus.DefaultRegisterer, prometheus.DefaultGatherer, cfg.Metrics.Namespace))

			errc := make(chan error, 1)
			go func() { errc <- server.Start(listen) }()
			log.Info("bridge listening", zap.String("addr", listen), zap.String("dialect", string(h.Dialect())))

			select {
			case err := <-errc:
				if errors.Is(err, http.ErrServerClosed) {
					return nil
				}
				return err
			case <-ctx.Done():
			}
			shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
			defer cancel()
			if err := server.Shutdown(shutdownCtx); err != nil {
				return err
			}
			log.Info("bridge stopped")
			return nil
		},
	}
	cmd.Flags().StringVar(&listen, "listen", "", "listen address (defaults to bridge.listen)")
	return cmd
}
