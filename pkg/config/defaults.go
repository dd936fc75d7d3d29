package config

import (
	"runtime"

	"github.com/wildfunctions/infixast/pkg/server"
	"github.com/wildfunctions/infixast/pkg/telemetry/logging"
	"github.com/wildfunctions/infixast/pkg/telemetry/metrics"
)

// ApplyDefaults fills zero-valued fields with their defaults. Booleans are
// left alone; LoadConfig decodes on top of Default so absent booleans
// already hold their default.
func ApplyDefaults(cfg *Config) {
	// Engine
	if cfg.Engine.Workers == 0 {
		cfg.Engine.Workers = runtime.NumCPU()
	}

	// Logging
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = string(logging.FormatConsole)
	}

	// Metrics
	md := metrics.DefaultConfig()
	if cfg.Metrics.Namespace == "" {
		cfg.Metrics.Namespace = md.Namespace
	}
	if cfg.Metrics.Subsystem == "" {
		cfg.Metrics.Subsystem = md.Subsystem
	}
	if cfg.Metrics.Path == "" {
		cfg.Metrics.Path = md.Path
	}

	// Server
	if cfg.Server.ListenAddress == "" {
		cfg.Server.ListenAddress = server.DefaultListenAddress
	}
	if cfg.Server.ReadTimeout == 0 {
		cfg.Server.ReadTimeout = server.DefaultReadTimeout
	}
	if cfg.Server.WriteTimeout == 0 {
		cfg.Server.WriteTimeout = server.DefaultWriteTimeout
	}
	if cfg.Server.IdleTimeout == 0 {
		cfg.Server.IdleTimeout = server.DefaultIdleTimeout
	}
	if cfg.Server.ShutdownTimeout == 0 {
		cfg.Server.ShutdownTimeout = server.DefaultShutdownTimeout
	}
	if cfg.Server.MaxBodyBytes == 0 {
		cfg.Server.MaxBodyBytes = server.DefaultMaxBodyBytes
	}
	if cfg.Server.MaxBatchSize == 0 {
		cfg.Server.MaxBatchSize = server.DefaultMaxBatchSize
	}
	if cfg.Server.MetricsPath == "" {
		cfg.Server.MetricsPath = cfg.Metrics.Path
	}
}
