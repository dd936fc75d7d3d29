package main

import (
	"context"
	"log/slog"
	"sync"

	"github.com/spf13/cobra"

	"github.com/wildfunctions/infixast/pkg/config"
	"github.com/wildfunctions/infixast/pkg/engine"
	"github.com/wildfunctions/infixast/pkg/server"
	"github.com/wildfunctions/infixast/pkg/telemetry/logging"
	"github.com/wildfunctions/infixast/pkg/telemetry/metrics"
)

type serveOptions struct {
	listen string
	watch  bool
}

func newServeCmd(g *globalOptions) *cobra.Command {
	o := &serveOptions{}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the HTTP render API",
		Long: `Serve starts the HTTP render service (POST /v1/render, POST /v1/render/batch,
GET /health and Prometheus metrics). It shuts down gracefully on SIGINT or
SIGTERM.

With --watch, changes to the --config file are picked up without a restart:
engine settings and the log level are swapped in for new requests. Server
and metrics settings still need a restart.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd, g, o)
		},
	}

	f := cmd.Flags()
	f.StringVarP(&o.listen, "listen", "l", "", "listen address (overrides config)")
	f.BoolVarP(&o.watch, "watch", "w", false, "reload the config file when it changes")
	return cmd
}

func runServe(cmd *cobra.Command, g *globalOptions, o *serveOptions) error {
	cfg, err := g.load()
	if err != nil {
		return err
	}
	if o.listen != "" {
		cfg.Server.ListenAddress = o.listen
	}

	logger, level, err := g.logger(cfg, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	slog.SetDefault(logger)

	var collector *metrics.Collector
	if cfg.Metrics.Enabled {
		collector = metrics.NewCollector(cfg.Metrics, nil)
		cfg.Server.MetricsPath = cfg.Metrics.Path
	}

	eng, err := engine.New(cfg.Engine, engine.WithLogger(logger), engine.WithMetrics(collector))
	if err != nil {
		return err
	}

	srv, err := server.New(cfg.Server, eng, server.WithLogger(logger), server.WithMetrics(collector))
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	var wg sync.WaitGroup
	if o.watch {
		if g.configFile == "" {
			logger.Warn("--watch needs --config, not watching")
		} else {
			w, err := config.NewWatcher(g.configFile, func(next *config.Config) {
				reloadEngine(srv, next, level, logger, collector, g.verbose)
			}, config.WithWatcherLogger(logger))
			if err != nil {
				return err
			}
			wg.Add(1)
			go func() {
				defer wg.Done()
				if err := w.Run(ctx); err != nil {
					logger.Error("config watcher exited", "error", err)
				}
			}()
		}
	}

	err = srv.Start(ctx)
	cancel()
	wg.Wait()
	return err
}

// reloadEngine applies the reloadable parts of next: engine settings and the
// log level.
func reloadEngine(srv *server.Server, next *config.Config, level *slog.LevelVar, logger *slog.Logger, collector *metrics.Collector, verbose bool) {
	eng, err := engine.New(next.Engine, engine.WithLogger(logger), engine.WithMetrics(collector))
	if err != nil {
		logger.Error("reloaded engine config rejected", "error", err)
		return
	}
	srv.SetEngine(eng)

	if !verbose {
		if lvl, err := logging.ParseLevel(next.Logging.Level); err == nil {
			level.Set(lvl)
		}
	}
	logger.Info("engine settings reloaded",
		"workers", next.Engine.Workers,
		"max_depth", next.Engine.MaxDepth,
		"lenient", next.Engine.Lenient,
		"latex", next.Engine.LaTeX,
	)
}
