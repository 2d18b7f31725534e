package executor

import (
	"fmt"
	"time"
)

const (
	DefaultPollInterval    = time.Second
	DefaultShutdownTimeout = 5 * time.Second
)

// Config tunes the worker loop.
type Config struct {
	// PollInterval bounds how long an idle worker sleeps before re-checking
	// the queue and the stop signal.
	PollInterval time.Duration `yaml:"poll_interval" mapstructure:"poll_interval"`
	// ShutdownTimeout bounds how long Shutdown waits for the worker to exit.
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" mapstructure:"shutdown_timeout"`
}

// ApplyDefaults fills zero durations.
func (c *Config) ApplyDefaults() {
	if c.PollInterval <= 0 {
		c.PollInterval = DefaultPollInterval
	}
	if c.ShutdownTimeout <= 0 {
		c.ShutdownTimeout = DefaultShutdownTimeout
	}
}

// Validate checks the configuration after defaults are applied.
func (c *Config) Validate() error {
	if c.PollInterval <= 0 {
		return fmt.Errorf("executor: poll_interval must be positive")
	}
	if c.ShutdownTimeout <= 0 {
		return fmt.Errorf("executor: shutdown_timeout must be positive")
	}
	return nil
}
