// Command maintbridge runs the receiving side of the relational bridge and a
// few maintenance chores against the configured storage.
package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"maintcore/pkg/config"
	"maintcore/pkg/logger"
)

var exitFunc = os.Exit

type options struct {
	configPath string
	stdout     io.Writer
}

func newRootCmd(stdout io.Writer) *cobra.Command {
	opts := &options{stdout: stdout}
	root := &cobra.Command{
		Use:           "maintbridge",
		Short:         "Relational bridge and storage tooling for maintcore",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetOut(stdout)
	root.PersistentFlags().StringVar(&opts.configPath, "config", "", "path to a YAML configuration file")
	root.AddCommand(newServeCmd(opts), newMigrateCmd(opts), newSeedCmd(opts), newStatsCmd(opts))
	return root
}

// load reads the configuration and builds the logger it describes.
func (o *options) load() (*config.Config, *zap.Logger, error) {
	cfg, err := config.Load(o.configPath)
	if err != nil {
		return nil, nil, err
	}
	log, err := logger.New(logger.Options{
		Level:       logger.Level(cfg.Log.Level),
		Format:      logger.Format(cfg.Log.Format),
		OutputPaths: []string{"stderr"},
	})
	if err != nil {
		return nil, nil, err
	}
	return cfg, log, nil
}

func run(args []string, stdout, stderr io.Writer) int {
	root := newRootCmd(stdout)
	root.SetArgs(args)
	if err := root.Execute(); err != nil {
		fmt.Fprintln(stderr, "maintbridge:", err)
		return 1
	}
	return 0
}

func main() {
	exitFunc(run(os.Args[1:], os.Stdout, os.Stderr))
}
