// Package config loads process configuration from a yaml file, a .env file
// and INGEST_ prefixed environment variables, in increasing priority.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const EnvPrefix = "INGEST"

type Config struct {
	Kafka    KafkaConfig    `mapstructure:"kafka"`
	Database DatabaseConfig `mapstructure:"database"`
	Pipeline PipelineConfig `mapstructure:"pipeline"`
	Log      LogConfig      `mapstructure:"log"`
	Metrics  MetricsConfig  `mapstructure:"metrics"`
}

type KafkaConfig struct {
	Brokers        []string      `mapstructure:"brokers"`
	GroupID        string        `mapstructure:"group_id"`
	SessionTimeout time.Duration `mapstructure:"session_timeout"`
	PollTimeout    time.Duration `mapstructure:"poll_timeout"`
	VerifyTopics   bool          `mapstructure:"verify_topics"`
	DLQTopic       string        `mapstructure:"dlq_topic"`
	// TopicPrefix is prepended to every pipeline topic, e.g. "football.".
	TopicPrefix string `mapstructure:"topic_prefix"`
}

type DatabaseConfig struct {
	DSN             string        `mapstructure:"dsn"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	AutoMigrate     bool          `mapstructure:"auto_migrate"`
	SlowThreshold   time.Duration `mapstructure:"slow_threshold"`
}

type PipelineConfig struct {
	Topics       []string      `mapstructure:"topics"`
	BatchSize    int           `mapstructure:"batch_size"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	RetryBudget  int           `mapstructure:"retry_budget"`
	RetryBackoff time.Duration `mapstructure:"retry_backoff"`
	Ordered      bool          `mapstructure:"ordered"`
	// Quarantine is one of none, topic or table.
	Quarantine string `mapstructure:"quarantine"`
	// TeamVenueDefault is stored for teams first seen without a venue.
	// Empty leaves the venue null.
	TeamVenueDefault string        `mapstructure:"team_venue_default"`
	Parallelism      int           `mapstructure:"parallelism"`
	PayloadFormat    string        `mapstructure:"payload_format"`
	IdleInterval     time.Duration `mapstructure:"idle_interval"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	// File is an optional append-only log file written next to stdout.
	File string `mapstructure:"file"`
}

type MetricsConfig struct {
	Addr string `mapstructure:"addr"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("kafka.brokers", []string{"localhost:9092"})
	v.SetDefault("kafka.group_id", "go-ingest")
	v.SetDefault("kafka.session_timeout", 45*time.Second)
	v.SetDefault("kafka.poll_timeout", time.Second)
	v.SetDefault("kafka.verify_topics", true)
	v.SetDefault("kafka.dlq_topic", "ingest.dlq")
	v.SetDefault("kafka.topic_prefix", "")

	v.SetDefault("database.dsn", "")
	v.SetDefault("database.max_open_conns", 16)
	v.SetDefault("database.max_idle_conns", 4)
	v.SetDefault("database.conn_max_lifetime", time.Hour)
	v.SetDefault("database.auto_migrate", false)
	v.SetDefault("database.slow_threshold", 500*time.Millisecond)

	v.SetDefault(
		"pipeline.topics", []string{
			"teams", "competitions", "matches", "top_scorers",
			"player_stats", "match_predictions", "team_formations", "betting_odds",
		},
	)
	v.SetDefault("pipeline.batch_size", 500)
	v.SetDefault("pipeline.write_timeout", 30*time.Second)
	v.SetDefault("pipeline.retry_budget", 5)
	v.SetDefault("pipeline.retry_backoff", 2*time.Second)
	v.SetDefault("pipeline.ordered", true)
	v.SetDefault("pipeline.quarantine", "none")
	v.SetDefault("pipeline.team_venue_default", "")
	v.SetDefault("pipeline.parallelism", 8)
	v.SetDefault("pipeline.payload_format", "json")
	v.SetDefault("pipeline.idle_interval", 200*time.Millisecond)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("log.file", "")

	v.SetDefault("metrics.addr", ":9464")
}

// Load reads path, or config.yaml from the working directory or ./config
// when path is empty. A missing default file is not an error.
func Load(path string) (*Config, error) {
	// .env is optional
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}

	overrideFromEnv(&cfg)
	return &cfg, nil
}

// Topics returns the kafka topic of every configured pipeline.
func (c *Config) Topics() []string {
	out := make([]string, len(c.Pipeline.Topics))
	for i, t := range c.Pipeline.Topics {
		out[i] = c.Kafka.TopicPrefix + t
	}
	return out
}

// overrideFromEnv applies secrets that are conventionally set without the
// prefix.
func overrideFromEnv(cfg *Config) {
	if v := os.Getenv("DATABASE_URL"); v != "" && cfg.Database.DSN == "" {
		cfg.Database.DSN = v
	}
}
