package observability

import (
	"context"
	"errors"
	"time"
)

// Config is the telemetry section of a pipeline configuration.
type Config struct {
	// Tracing enables span export for build, epoch and node execution.
	Tracing bool `yaml:"tracing" mapstructure:"tracing"`
	// Metrics enables metric export.
	Metrics bool `yaml:"metrics" mapstructure:"metrics"`
	// Endpoint is the OTLP HTTP endpoint host:port.
	Endpoint string `yaml:"endpoint" mapstructure:"endpoint"`
	// Insecure disables TLS towards the collector.
	Insecure bool `yaml:"insecure" mapstructure:"insecure"`
	// SampleRate is the trace sampling ratio (0.0 to 1.0).
	SampleRate float64 `yaml:"sample_rate" mapstructure:"sample_rate" validate:"gte=0,lte=1"`
	// Interval is the metric export interval.
	Interval time.Duration `yaml:"interval" mapstructure:"interval"`
}

// ApplyDefaults fills zero-valued fields.
func (c *Config) ApplyDefaults() {
	if c.Endpoint == "" {
		c.Endpoint = "localhost:4318"
	}
	if c.SampleRate == 0 {
		c.SampleRate = 1.0
	}
	if c.Interval <= 0 {
		c.Interval = 15 * time.Second
	}
}

// Setup starts the providers enabled in cfg and returns the pipeline
// metrics, which are nil with metrics disabled. The returned shutdown
// flushes the providers in reverse start order and is safe to call after
// a failed Setup.
func Setup(ctx context.Context, cfg Config, service, version, environment string) (*Metrics, func(context.Context) error, error) {
	cfg.ApplyDefaults()
	var stops []func(context.Context) error
	shutdown := func(ctx context.Context) error {
		var errs []error
		for i := len(stops) - 1; i >= 0; i-- {
			errs = append(errs, stops[i](ctx))
		}
		return errors.Join(errs...)
	}
	if !cfg.Tracing && !cfg.Metrics {
		return nil, shutdown, nil
	}

	res, err := serviceResource(service, version, environment)
	if err != nil {
		return nil, shutdown, err
	}
	if cfg.Tracing {
		tp, err := startTracing(ctx, cfg, res)
		if err != nil {
			return nil, shutdown, err
		}
		stops = append(stops, tp.Shutdown)
	}
	if !cfg.Metrics {
		return nil, shutdown, nil
	}
	mp, err := startMetrics(ctx, cfg, res)
	if err != nil {
		return nil, shutdown, err
	}
	stops = append(stops, mp.Shutdown)
	metrics, err := NewMetrics(mp.Meter(instrumentationName))
	return metrics, shutdown, err
}
