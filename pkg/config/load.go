package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// EnvPrefix starts every environment override.
const EnvPrefix = "INFIX_"

// LoadConfig loads configuration from the YAML file at path, applies
// defaults and validates it. Environment variables are not consulted; use
// LoadConfigWithEnvOverrides for that.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read configuration file %q: %w", path, err)
	}

	cfg, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("configuration file %q: %w", path, err)
	}
	return cfg, nil
}

// Parse decodes YAML on top of Default, applies defaults and validates.
// Unknown keys are rejected.
func Parse(data []byte) (*Config, error) {
	cfg := Default()

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("failed to parse configuration: %w", err)
	}

	ApplyDefaults(cfg)

	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadConfigWithEnvOverrides loads the file at path, or starts from Default
// when path is empty, then applies INFIX_SECTION_FIELD environment
// variables, which always win over the file.
//
// The loading sequence is:
// 1. Load YAML from file
// 2. Apply default values
// 3. Apply environment variable overrides
// 4. Validate final configuration
func LoadConfigWithEnvOverrides(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		var err error
		if cfg, err = LoadConfig(path); err != nil {
			return nil, err
		}
	}

	if err := applyEnvOverrides(cfg); err != nil {
		return nil, err
	}

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("configuration invalid after environment overrides: %w", err)
	}
	return cfg, nil
}

// envSetter parses one environment value into a config field.
type envSetter func(cfg *Config, val string) error

func envString(set func(*Config, string)) envSetter {
	return func(cfg *Config, val string) error {
		set(cfg, val)
		return nil
	}
}

func envInt(set func(*Config, int)) envSetter {
	return func(cfg *Config, val string) error {
		i, err := strconv.Atoi(val)
		if err != nil {
			return err
		}
		set(cfg, i)
		return nil
	}
}

func envBool(set func(*Config, bool)) envSetter {
	return func(cfg *Config, val string) error {
		b, err := strconv.ParseBool(val)
		if err != nil {
			return err
		}
		set(cfg, b)
		return nil
	}
}

func envDuration(set func(*Config, time.Duration)) envSetter {
	return func(cfg *Config, val string) error {
		d, err := time.ParseDuration(val)
		if err != nil {
			return err
		}
		set(cfg, d)
		return nil
	}
}

// envOverrides maps variable names (without EnvPrefix) to setters.
var envOverrides = map[string]envSetter{
	"ENGINE_WORKERS":   envInt(func(c *Config, v int) { c.Engine.Workers = v }),
	"ENGINE_MAX_DEPTH": envInt(func(c *Config, v int) { c.Engine.MaxDepth = v }),
	"ENGINE_LENIENT":   envBool(func(c *Config, v bool) { c.Engine.Lenient = v }),
	"ENGINE_LATEX":     envBool(func(c *Config, v bool) { c.Engine.LaTeX = v }),

	"LOGGING_LEVEL":      envString(func(c *Config, v string) { c.Logging.Level = v }),
	"LOGGING_FORMAT":     envString(func(c *Config, v string) { c.Logging.Format = v }),
	"LOGGING_ADD_SOURCE": envBool(func(c *Config, v bool) { c.Logging.AddSource = v }),

	"METRICS_ENABLED":         envBool(func(c *Config, v bool) { c.Metrics.Enabled = v }),
	"METRICS_NAMESPACE":       envString(func(c *Config, v string) { c.Metrics.Namespace = v }),
	"METRICS_PATH":            envString(func(c *Config, v string) { c.Metrics.Path = v }),
	"METRICS_RUNTIME_METRICS": envBool(func(c *Config, v bool) { c.Metrics.RuntimeMetrics = v }),

	"SERVER_LISTEN_ADDRESS":   envString(func(c *Config, v string) { c.Server.ListenAddress = v }),
	"SERVER_READ_TIMEOUT":     envDuration(func(c *Config, v time.Duration) { c.Server.ReadTimeout = v }),
	"SERVER_WRITE_TIMEOUT":    envDuration(func(c *Config, v time.Duration) { c.Server.WriteTimeout = v }),
	"SERVER_IDLE_TIMEOUT":     envDuration(func(c *Config, v time.Duration) { c.Server.IdleTimeout = v }),
	"SERVER_SHUTDOWN_TIMEOUT": envDuration(func(c *Config, v time.Duration) { c.Server.ShutdownTimeout = v }),
	"SERVER_MAX_BODY_BYTES":   envInt(func(c *Config, v int) { c.Server.MaxBodyBytes = int64(v) }),
	"SERVER_MAX_BATCH_SIZE":   envInt(func(c *Config, v int) { c.Server.MaxBatchSize = v }),
	"SERVER_METRICS_PATH":     envString(func(c *Config, v string) { c.Server.MetricsPath = v }),
}

// applyEnvOverrides applies every set INFIX_* variable. A value that does
// not parse is an error rather than being silently ignored.
func applyEnvOverrides(cfg *Config) error {
	var errs []error
	for name, set := range envOverrides {
		val, ok := os.LookupEnv(EnvPrefix + name)
		if !ok || val == "" {
			continue
		}
		if err := set(cfg, val); err != nil {
			errs = append(errs, fmt.Errorf("%s%s=%q: %w", EnvPrefix, name, val, err))
		}
	}
	return errors.Join(errs...)
}
