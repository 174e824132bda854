package pipeline

import (
	"time"

	"github.com/hugolhafner/dskit/backoff"
	"github.com/hugolhafner/go-ingest/errorhandler"
	"github.com/hugolhafner/go-ingest/logger"
	ingestotel "github.com/hugolhafner/go-ingest/otel"
)

type Option interface {
	applyPipeline(*Config)
}

type CoordinatorOption interface {
	applyCoordinator(*CoordinatorConfig)
}

type loggerOption struct {
	logger logger.Logger
}

func (o loggerOption) applyPipeline(c *Config) {
	c.Logger = o.logger
}

func (o loggerOption) applyCoordinator(c *CoordinatorConfig) {
	c.Logger = o.logger
}

func WithLogger(l logger.Logger) loggerOption {
	return loggerOption{logger: l}
}

type telemetryOption struct {
	t *ingestotel.Telemetry
}

func (o telemetryOption) applyPipeline(c *Config) {
	if o.t != nil {
		c.Telemetry = o.t
	}
}

func (o telemetryOption) applyCoordinator(c *CoordinatorConfig) {
	if o.t != nil {
		c.Telemetry = o.t
	}
}

func WithTelemetry(t *ingestotel.Telemetry) telemetryOption {
	return telemetryOption{t: t}
}

type recordHandlerOption struct {
	handler errorhandler.Handler
}

func (o recordHandlerOption) applyPipeline(c *Config) {
	c.RecordHandler = o.handler
}

// WithRecordHandler sets the handler for decode, validate and resolve failures
func WithRecordHandler(h errorhandler.Handler) recordHandlerOption {
	return recordHandlerOption{handler: h}
}

type batchHandlerOption struct {
	handler errorhandler.Handler
}

func (o batchHandlerOption) applyPipeline(c *Config) {
	c.BatchHandler = o.handler
}

// WithBatchHandler sets the handler for write and quarantine failures
func WithBatchHandler(h errorhandler.Handler) batchHandlerOption {
	return batchHandlerOption{handler: h}
}

type quarantineOption struct {
	q Quarantine
}

func (o quarantineOption) applyPipeline(c *Config) {
	if o.q != nil {
		c.Quarantine = o.q
	}
}

func WithQuarantine(q Quarantine) quarantineOption {
	return quarantineOption{q: q}
}

type parallelismOption int

func (o parallelismOption) applyPipeline(c *Config) {
	if o > 0 {
		c.Parallelism = int(o)
	}
}

// WithParallelism bounds the records decoded and validated concurrently
func WithParallelism(n int) parallelismOption {
	return parallelismOption(n)
}

type pollErrorBackoffOption struct {
	b backoff.Backoff
}

func (o pollErrorBackoffOption) applyPipeline(c *Config) {
	if o.b != nil {
		c.PollErrorBackoff = o.b
	}
}

func WithPollErrorBackoff(b backoff.Backoff) pollErrorBackoffOption {
	return pollErrorBackoffOption{b: b}
}

type orderedOption bool

func (o orderedOption) applyCoordinator(c *CoordinatorConfig) {
	c.Ordered = bool(o)
}

// WithOrdered toggles dependency tiers. Unordered, every topic runs in one tier.
func WithOrdered(ordered bool) orderedOption {
	return orderedOption(ordered)
}

type idleIntervalOption time.Duration

func (o idleIntervalOption) applyCoordinator(c *CoordinatorConfig) {
	if o > 0 {
		c.IdleInterval = time.Duration(o)
	}
}

func WithIdleInterval(d time.Duration) idleIntervalOption {
	return idleIntervalOption(d)
}
