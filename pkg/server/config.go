package server

import (
	"fmt"
	"time"
)

// Default values for the HTTP server.
const (
	DefaultListenAddress   = "127.0.0.1:8080"
	DefaultReadTimeout     = 10 * time.Second
	DefaultWriteTimeout    = 30 * time.Second
	DefaultIdleTimeout     = 120 * time.Second
	DefaultShutdownTimeout = 15 * time.Second
	DefaultMaxBodyBytes    = 1 << 20 // 1MB
	DefaultMaxBatchSize    = 1000
	DefaultMetricsPath     = "/metrics"
)

// Config contains HTTP server settings.
type Config struct {
	ListenAddress   string        `yaml:"listen_address"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	IdleTimeout     time.Duration `yaml:"idle_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`

	// MaxBodyBytes caps request bodies; larger bodies get 413.
	MaxBodyBytes int64 `yaml:"max_body_bytes"`

	// MaxBatchSize caps the number of documents in one batch request.
	MaxBatchSize int `yaml:"max_batch_size"`

	// MetricsPath is where Prometheus metrics are served when a collector
	// is configured. Empty disables the route.
	MetricsPath string `yaml:"metrics_path"`
}

// DefaultConfig returns a Config with every field set to its default.
func DefaultConfig() Config {
	return Config{
		ListenAddress:   DefaultListenAddress,
		ReadTimeout:     DefaultReadTimeout,
		WriteTimeout:    DefaultWriteTimeout,
		IdleTimeout:     DefaultIdleTimeout,
		ShutdownTimeout: DefaultShutdownTimeout,
		MaxBodyBytes:    DefaultMaxBodyBytes,
		MaxBatchSize:    DefaultMaxBatchSize,
		MetricsPath:     DefaultMetricsPath,
	}
}

// Validate checks that the limits and timeouts are usable.
func (c Config) Validate() error {
	if c.ListenAddress == "" {
		return fmt.Errorf("listen_address is required")
	}
	if c.MaxBodyBytes <= 0 {
		return fmt.Errorf("max_body_bytes must be positive, got %d", c.MaxBodyBytes)
	}
	if c.MaxBatchSize <= 0 {
		return fmt.Errorf("max_batch_size must be positive, got %d", c.MaxBatchSize)
	}
	if c.ShutdownTimeout < 0 {
		return fmt.Errorf("shutdown_timeout must not be negative")
	}
	return nil
}
