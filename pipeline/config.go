package pipeline

import (
	"time"

	"github.com/hugolhafner/dskit/backoff"
	"github.com/hugolhafner/go-ingest/errorhandler"
	"github.com/hugolhafner/go-ingest/logger"
	ingestotel "github.com/hugolhafner/go-ingest/otel"
)

// BaseConfig is shared by pipelines and the coordinator
type BaseConfig struct {
	Logger    logger.Logger
	Telemetry *ingestotel.Telemetry
}

func defaultBaseConfig() BaseConfig {
	return BaseConfig{
		Logger:    logger.NewNoopLogger(),
		Telemetry: ingestotel.Noop(),
	}
}

type Config struct {
	BaseConfig
	// RecordHandler decides on decode, validate and resolve failures.
	// Defaults to LogAndContinue.
	RecordHandler errorhandler.Handler
	// BatchHandler decides on write and quarantine failures. Defaults to
	// five attempts one second apart, then LogAndFail.
	BatchHandler     errorhandler.Handler
	Quarantine       Quarantine
	Parallelism      int
	PollErrorBackoff backoff.Backoff
}

func defaultConfig() Config {
	return Config{
		BaseConfig:       defaultBaseConfig(),
		Quarantine:       NoQuarantine{},
		Parallelism:      8,
		PollErrorBackoff: backoff.NewFixed(time.Second),
	}
}

type CoordinatorConfig struct {
	BaseConfig
	// Ordered runs topics in dependency tiers, reference topics first.
	Ordered bool
	// IdleInterval is the pause after a cycle in which no pipeline fetched
	// anything.
	IdleInterval time.Duration
}

func defaultCoordinatorConfig() CoordinatorConfig {
	return CoordinatorConfig{
		BaseConfig:   defaultBaseConfig(),
		Ordered:      true,
		IdleInterval: 100 * time.Millisecond,
	}
}
