package main

import (
	"fmt"

	gojson "github.com/goccy/go-json"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"maintcore/internal/bridge"
	"maintcore/internal/core"
	"maintcore/internal/gateway"
)

func newMigrateCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply the schema migrations to the configured database",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, log, err := opts.load()
			if err != nil {
				return err
			}
			h, err := bridge.OpenHandler(cmd.Context(), cfg.Storage.Relational, log)
			if err != nil {
				return err
			}
			defer func() { _ = h.Close() }()
			fmt.Fprintf(cmd.OutOrStdout(), "%s schema is up to date\n", h.Dialect())
			return nil
		},
	}
}

// openService opens the configured storage and hydrates a service from it.
func openService(cmd *cobra.Command, opts *options) (*core.Service, error) {
	cfg, log, err := opts.load()
	if err != nil {
		return nil, err
	}
	metrics, err := gateway.NewPrometheusMetrics(prometheus.DefaultRegisterer, cfg.Metrics.Namespace)
	if err != nil {
		return nil, err
	}
	gw, err := gateway.Open(cmd.Context(), cfg.Storage, log, gateway.WithMetrics(metrics))
	if err != nil {
		return nil, err
	}
	svcOpts, err := core.OptionsFromConfig(cfg.Lifecycle)
	if err != nil {
		_ = gw.Close()
		return nil, err
	}
	svc := core.NewService(gw, append(svcOpts, core.WithLogger(log))...)
	if err := svc.Load(cmd.Context()); err != nil {
		_ = svc.Close()
		return nil, err
	}
	return svc, nil
}

func newSeedCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Install the sample equipment and task into empty storage",
		RunE: func(cmd *cobra.Command, _ []string) error {
			svc, err := openService(cmd, opts)
			if err != nil {
				return err
			}
			defer func() { _ = svc.Close() }()
			seeded, err := svc.Seed(cmd.Context())
			if err != nil {
				return err
			}
			if seeded {
				fmt.Fprintln(cmd.OutOrStdout(), "sample data installed")
			} else {
				fmt.Fprintln(cmd.OutOrStdout(), "storage already holds data")
			}
			return nil
		},
	}
}

func newStatsCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Print dashboard statistics as JSON",
		RunE: func(cmd *cobra.Command, _ []string) error {
			svc, err := openService(cmd, opts)
			if err != nil {
				return err
			}
			defer func() { _ = svc.Close() }()
			out, err := gojson.MarshalIndent(svc.Statistics(), "", "  ")
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(out))
			return nil
		},
	}
}
