package config

import (
	"fmt"
	"strings"

	"github.com/wildfunctions/infixast/pkg/telemetry/logging"
)

// FieldError is a validation failure for one configuration field.
type FieldError struct {
	// Field is the dotted path, e.g. "server.max_body_bytes".
	Field   string
	Message string
}

func (e FieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidationError collects every FieldError found in a configuration.
type ValidationError struct {
	Errors []FieldError
}

func (e ValidationError) Error() string {
	if len(e.Errors) == 0 {
		return "configuration validation failed"
	}
	if len(e.Errors) == 1 {
		return fmt.Sprintf("configuration validation failed: %s", e.Errors[0].Error())
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "configuration validation failed with %d errors:\n", len(e.Errors))
	for _, err := range e.Errors {
		fmt.Fprintf(&sb, "  - %s\n", err.Error())
	}
	return sb.String()
}

// Validate checks the whole configuration and returns a ValidationError
// listing every problem, or nil.
func Validate(cfg *Config) error {
	var errs []FieldError
	add := func(field, format string, args ...any) {
		errs = append(errs, FieldError{Field: field, Message: fmt.Sprintf(format, args...)})
	}

	if cfg.Engine.Workers < 0 {
		add("engine.workers", "must be >= 0, got %d", cfg.Engine.Workers)
	}
	if cfg.Engine.MaxDepth < 0 {
		add("engine.max_depth", "must be >= 0, got %d", cfg.Engine.MaxDepth)
	}

	if _, err := logging.ParseLevel(cfg.Logging.Level); err != nil {
		add("logging.level", "%v", err)
	}
	if _, err := logging.ParseFormat(cfg.Logging.Format); err != nil {
		add("logging.format", "%v", err)
	}

	if cfg.Metrics.Enabled && !strings.HasPrefix(cfg.Metrics.Path, "/") {
		add("metrics.path", "must start with /, got %q", cfg.Metrics.Path)
	}

	if cfg.Server.ListenAddress == "" {
		add("server.listen_address", "is required")
	}
	if cfg.Server.ReadTimeout < 0 {
		add("server.read_timeout", "must not be negative")
	}
	if cfg.Server.WriteTimeout < 0 {
		add("server.write_timeout", "must not be negative")
	}
	if cfg.Server.ShutdownTimeout < 0 {
		add("server.shutdown_timeout", "must not be negative")
	}
	if cfg.Server.MaxBodyBytes <= 0 {
		add("server.max_body_bytes", "must be positive, got %d", cfg.Server.MaxBodyBytes)
	}
	if cfg.Server.MaxBatchSize <= 0 {
		add("server.max_batch_size", "must be positive, got %d", cfg.Server.MaxBatchSize)
	}
	if p := cfg.Server.MetricsPath; p != "" && !strings.HasPrefix(p, "/") {
		add("server.metrics_path", "must start with /, got %q", p)
	}

	if len(errs) > 0 {
		return ValidationError{Errors: errs}
	}
	return nil
}
