package config

import (
	"errors"
	"fmt"
	"slices"

	"github.com/hugolhafner/go-ingest/entity"
	"github.com/hugolhafner/go-ingest/serde"
)

// ConfigError reports an invalid configuration value. It is fatal at startup.
type ConfigError struct {
	Key    string
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("config %s: %s", e.Key, e.Reason)
}

func AsConfigError(err error) (*ConfigError, bool) {
	var ce *ConfigError
	if errors.As(err, &ce) {
		return ce, true
	}
	return nil, false
}

var quarantineModes = []string{"none", "topic", "table"}

// Validate reports every invalid value at once.
func (c *Config) Validate() error {
	var errs []error
	bad := func(key, format string, args ...any) {
		errs = append(errs, &ConfigError{Key: key, Reason: fmt.Sprintf(format, args...)})
	}

	if len(c.Kafka.Brokers) == 0 {
		bad("kafka.brokers", "at least one broker is required")
	}
	if c.Kafka.GroupID == "" {
		bad("kafka.group_id", "is required")
	}

	if c.Database.DSN == "" {
		bad("database.dsn", "is required")
	}
	if c.Database.MaxOpenConns < 1 {
		bad("database.max_open_conns", "must be positive, got %d", c.Database.MaxOpenConns)
	}

	if len(c.Pipeline.Topics) == 0 {
		bad("pipeline.topics", "at least one topic is required")
	}
	seen := make(map[string]bool, len(c.Pipeline.Topics))
	for _, t := range c.Pipeline.Topics {
		if _, ok := entity.ParseKind(t); !ok {
			bad("pipeline.topics", "unknown topic %q", t)
		}
		if seen[t] {
			bad("pipeline.topics", "topic %q listed twice", t)
		}
		seen[t] = true
	}

	if c.Pipeline.BatchSize < 1 {
		bad("pipeline.batch_size", "must be positive, got %d", c.Pipeline.BatchSize)
	}
	if c.Pipeline.WriteTimeout <= 0 {
		bad("pipeline.write_timeout", "must be positive")
	}
	if c.Pipeline.RetryBudget < 1 {
		bad("pipeline.retry_budget", "must be at least 1, got %d", c.Pipeline.RetryBudget)
	}
	if c.Pipeline.RetryBackoff < 0 {
		bad("pipeline.retry_backoff", "must not be negative")
	}
	if c.Pipeline.Parallelism < 1 {
		bad("pipeline.parallelism", "must be positive, got %d", c.Pipeline.Parallelism)
	}
	if !slices.Contains(quarantineModes, c.Pipeline.Quarantine) {
		bad("pipeline.quarantine", "must be one of %v, got %q", quarantineModes, c.Pipeline.Quarantine)
	}
	if c.Pipeline.Quarantine == "topic" && c.Kafka.DLQTopic == "" {
		bad("kafka.dlq_topic", "is required when pipeline.quarantine is topic")
	}
	if _, err := serde.ParseFormat(c.Pipeline.PayloadFormat); err != nil {
		bad("pipeline.payload_format", "%v", err)
	}

	switch c.Log.Format {
	case "json", "console":
	default:
		bad("log.format", "must be json or console, got %q", c.Log.Format)
	}
	switch c.Log.Level {
	case "debug", "info", "warn", "warning", "error":
	default:
		bad("log.level", "unknown level %q", c.Log.Level)
	}

	return errors.Join(errs...)
}
