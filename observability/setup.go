package observability

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/kbukum/speakline/logger"
)

// Config selects whether OTLP exporters are installed and where they send data.
type Config struct {
	Enabled        bool          `yaml:"enabled" mapstructure:"enabled"`
	Endpoint       string        `yaml:"endpoint" mapstructure:"endpoint"`
	Insecure       bool          `yaml:"insecure" mapstructure:"insecure"`
	SampleRate     float64       `yaml:"sample_rate" mapstructure:"sample_rate" validate:"gte=0,lte=1"`
	MetricInterval time.Duration `yaml:"metric_interval" mapstructure:"metric_interval"`
}

// ApplyDefaults fills unset exporter settings.
func (c *Config) ApplyDefaults() {
	if c.Endpoint == "" {
		c.Endpoint = "localhost:4318"
	}
	if c.SampleRate == 0 {
		c.SampleRate = 1.0
	}
	if c.MetricInterval <= 0 {
		c.MetricInterval = 15 * time.Second
	}
}

// ShutdownFunc flushes and stops the providers installed by Setup.
type ShutdownFunc func(ctx context.Context) error

// Setup installs the global tracer and meter providers when cfg.Enabled.
// When disabled, the OpenTelemetry no-op globals stay in place and the
// returned ShutdownFunc does nothing.
func Setup(ctx context.Context, cfg Config, serviceName, serviceVersion, environment string) (ShutdownFunc, error) {
	if !cfg.Enabled {
		logger.Debug("observability exporters disabled")
		return func(context.Context) error { return nil }, nil
	}
	cfg.ApplyDefaults()

	res, err := serviceResource(serviceName, serviceVersion, environment)
	if err != nil {
		return nil, fmt.Errorf("observability: resource: %w", err)
	}
	tp, err := installTracer(ctx, cfg, res)
	if err != nil {
		return nil, fmt.Errorf("observability: %w", err)
	}
	mp, err := installMeter(ctx, cfg, res)
	if err != nil {
		_ = tp.Shutdown(ctx)
		return nil, fmt.Errorf("observability: %w", err)
	}
	logInstalled(cfg, serviceName)

	return func(ctx context.Context) error {
		return errors.Join(tp.Shutdown(ctx), mp.Shutdown(ctx))
	}, nil
}
