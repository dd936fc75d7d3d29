package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/wildfunctions/infixast/pkg/config"
	"github.com/wildfunctions/infixast/pkg/telemetry/logging"
)

// globalOptions holds the persistent flags shared by every subcommand.
type globalOptions struct {
	configFile string
	verbose    bool
}

func newRootCmd() *cobra.Command {
	g := &globalOptions{}

	cmd := &cobra.Command{
		Use:   "infix",
		Short: "Render algebraic expression trees as infix text",
		Long: `infix turns algebraic expression trees (parentheses, powers, numbers,
the constants E and PI, variables, SQRT/SQR calls and the four arithmetic
operators) into their infix text form.

Trees are read as JSON or YAML objects tagged with a "type" field, e.g.
  {"type":"POWER","expression":{"type":"NUMBER","value":2},"power":{"type":"NUMBER","value":3}}
renders as 2^3.`,
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVarP(&g.configFile, "config", "c", "", "config file path (defaults are used when empty)")
	cmd.PersistentFlags().BoolVarP(&g.verbose, "verbose", "v", false, "debug logging")

	cmd.AddCommand(
		newRenderCmd(g),
		newGenerateCmd(g),
		newServeCmd(g),
		newReplCmd(g),
		newVersionCmd(),
	)
	return cmd
}

// Execute runs the root command and exits non-zero on error.
func Execute() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

// load reads the configuration named by --config, applying environment
// overrides, and raises the log level for --verbose.
func (g *globalOptions) load() (*config.Config, error) {
	cfg, err := config.LoadConfigWithEnvOverrides(g.configFile)
	if err != nil {
		return nil, err
	}
	if g.verbose {
		cfg.Logging.Level = "debug"
	}
	return cfg, nil
}

// logger builds the process logger writing to w.
func (g *globalOptions) logger(cfg *config.Config, w io.Writer) (*slog.Logger, *slog.LevelVar, error) {
	lc := cfg.Logging
	lc.Writer = w
	return logging.New(lc)
}
