package config

import (
	"github.com/wildfunctions/infixast/pkg/engine"
	"github.com/wildfunctions/infixast/pkg/server"
	"github.com/wildfunctions/infixast/pkg/telemetry/logging"
	"github.com/wildfunctions/infixast/pkg/telemetry/metrics"
)

// Config is the root configuration.
type Config struct {
	Engine  engine.Config  `yaml:"engine"`
	Logging logging.Config `yaml:"logging"`
	Metrics metrics.Config `yaml:"metrics"`
	Server  server.Config  `yaml:"server"`
}

// Default returns a fully defaulted configuration, used when no file is
// given.
func Default() *Config {
	return &Config{
		Engine:  engine.DefaultConfig(),
		Logging: logging.DefaultConfig(),
		Metrics: metrics.DefaultConfig(),
		Server:  server.DefaultConfig(),
	}
}
