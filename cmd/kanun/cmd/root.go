// Package cmd provides the CLI commands for kanun.
package cmd

import (
	"github.com/spf13/cobra"

	"github.com/kanunlaw/kanun/internal/config"
	"github.com/kanunlaw/kanun/internal/logging"
	"github.com/kanunlaw/kanun/pkg/version"
)

// rootOptions holds flags shared by every subcommand.
type rootOptions struct {
	configPath string
	logLevel   string
}

// NewRootCmd creates the root command for the kanun CLI.
func NewRootCmd() *cobra.Command {
	var opts rootOptions

	cmd := &cobra.Command{
		Use:   "kanun",
		Short: "Hybrid search over statute text",
		Long: `Kanun ingests statute text into structure-aware chunks and serves
hybrid search (BM25 + semantic) with Reciprocal Rank Fusion over them.

Run 'kanun ingest' to build a corpus, then 'kanun search' to query it.`,
		Version:       version.Version,
		SilenceUsage:  true,
		SilenceErrors: false,
	}

	cmd.SetVersionTemplate("kanun version {{.Version}}\n")

	cmd.PersistentFlags().StringVarP(&opts.configPath, "config", "c", "", "Path to config file (YAML)")
	cmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "Log level: debug, info, warn, error")

	cmd.AddCommand(newIngestCmd(&opts))
	cmd.AddCommand(newSearchCmd(&opts))
	cmd.AddCommand(newConfigCmd())
	cmd.AddCommand(newVersionCmd())

	return cmd
}

// Execute runs the root command.
func Execute() error {
	return NewRootCmd().Execute()
}

// loadConfig resolves the effective configuration for a command run and
// installs the structured logger.
func loadConfig(opts *rootOptions) (*config.Config, error) {
	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return nil, err
	}
	if opts.logLevel != "" {
		cfg.Logging.Level = opts.logLevel
	}
	logging.Setup(cfg.Logging.Level, nil)
	return cfg, nil
}
