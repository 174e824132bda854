package ingest

import (
	"time"

	"github.com/hugolhafner/go-ingest/logger"
	ingestotel "github.com/hugolhafner/go-ingest/otel"
	"github.com/hugolhafner/go-ingest/pipeline"
)

type Config struct {
	Logger    logger.Logger
	Telemetry *ingestotel.Telemetry

	PipelineOptions    []pipeline.Option
	CoordinatorOptions []pipeline.CoordinatorOption
}

type ConfigOption func(*Config)

func WithLogger(logger logger.Logger) ConfigOption {
	return func(c *Config) {
		c.Logger = logger
	}
}

func WithTelemetry(t *ingestotel.Telemetry) ConfigOption {
	return func(c *Config) {
		if t != nil {
			c.Telemetry = t
		}
	}
}

// WithPipelineOptions appends options applied to every topic pipeline.
func WithPipelineOptions(opts ...pipeline.Option) ConfigOption {
	return func(c *Config) {
		c.PipelineOptions = append(c.PipelineOptions, opts...)
	}
}

func WithOrdered(ordered bool) ConfigOption {
	return func(c *Config) {
		c.CoordinatorOptions = append(c.CoordinatorOptions, pipeline.WithOrdered(ordered))
	}
}

func WithIdleInterval(d time.Duration) ConfigOption {
	return func(c *Config) {
		c.CoordinatorOptions = append(c.CoordinatorOptions, pipeline.WithIdleInterval(d))
	}
}

func defaultConfig() Config {
	return Config{
		Logger:    logger.NewNoopLogger(),
		Telemetry: ingestotel.Noop(),
	}
}
