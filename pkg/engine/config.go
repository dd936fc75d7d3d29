package engine

import (
	"fmt"
	"runtime"
)

// Config holds all parameters for a render run.
type Config struct {
	Workers  int  `yaml:"workers" json:"workers"`
	MaxDepth int  `yaml:"max_depth" json:"max_depth"` // 0 = unlimited
	Lenient  bool `yaml:"lenient" json:"lenient"`     // "" for unrecognized nodes instead of failing
	LaTeX    bool `yaml:"latex" json:"latex"`         // also produce LaTeX
}

// DefaultConfig returns a config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		Workers:  runtime.NumCPU(),
		MaxDepth: 0,
		Lenient:  false,
		LaTeX:    false,
	}
}

// Validate reports settings that cannot be used.
func (c Config) Validate() error {
	if c.Workers < 0 {
		return fmt.Errorf("workers must be >= 0, got %d", c.Workers)
	}
	if c.MaxDepth < 0 {
		return fmt.Errorf("max_depth must be >= 0, got %d", c.MaxDepth)
	}
	return nil
}
