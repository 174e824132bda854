//go:build unit

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("INGEST_DATABASE_DSN", "postgres://localhost/football")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, []string{"localhost:9092"}, cfg.Kafka.Brokers)
	assert.Equal(t, "go-ingest", cfg.Kafka.GroupID)
	assert.Equal(t, 5, cfg.Pipeline.RetryBudget)
	assert.Equal(t, 2*time.Second, cfg.Pipeline.RetryBackoff)
	assert.True(t, cfg.Pipeline.Ordered)
	assert.Equal(t, "none", cfg.Pipeline.Quarantine)
	assert.Len(t, cfg.Pipeline.Topics, 8)
	assert.Equal(t, "postgres://localhost/football", cfg.Database.DSN)
	require.NoError(t, cfg.Validate())
}

func TestLoad_FileAndEnvOverride(t *testing.T) {
	t.Chdir(t.TempDir())
	path := writeConfig(
		t, `
kafka:
  brokers: ["k1:9092", "k2:9092"]
  group_id: football
database:
  dsn: postgres://file/football
pipeline:
  topics: [teams, matches]
  retry_budget: 3
  write_timeout: 10s
  quarantine: table
  team_venue_default: TBD
log:
  level: debug
`,
	)
	t.Setenv("INGEST_PIPELINE_RETRY_BUDGET", "7")
	t.Setenv("INGEST_DATABASE_DSN", "postgres://env/football")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.Kafka.Brokers)
	assert.Equal(t, "football", cfg.Kafka.GroupID)
	assert.Equal(t, []string{"teams", "matches"}, cfg.Pipeline.Topics)
	assert.Equal(t, 7, cfg.Pipeline.RetryBudget)
	assert.Equal(t, 10*time.Second, cfg.Pipeline.WriteTimeout)
	assert.Equal(t, "table", cfg.Pipeline.Quarantine)
	assert.Equal(t, "TBD", cfg.Pipeline.TeamVenueDefault)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "postgres://env/football", cfg.Database.DSN)
	require.NoError(t, cfg.Validate())
}

func TestLoad_DatabaseURLFallback(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("DATABASE_URL", "postgres://fallback/football")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "postgres://fallback/football", cfg.Database.DSN)
}

func TestLoad_MissingExplicitFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
}

func TestValidate(t *testing.T) {
	t.Parallel()

	valid := func() *Config {
		return &Config{
			Kafka:    KafkaConfig{Brokers: []string{"k:9092"}, GroupID: "g", DLQTopic: "dlq"},
			Database: DatabaseConfig{DSN: "postgres://x", MaxOpenConns: 4},
			Pipeline: PipelineConfig{
				Topics:        []string{"teams"},
				BatchSize:     100,
				WriteTimeout:  time.Second,
				RetryBudget:   3,
				Parallelism:   2,
				Quarantine:    "none",
				PayloadFormat: "json",
			},
			Log: LogConfig{Level: "info", Format: "json"},
		}
	}

	tests := []struct {
		name   string
		mutate func(*Config)
		key    string
	}{
		{"unknown topic", func(c *Config) { c.Pipeline.Topics = []string{"teams", "referees"} }, "pipeline.topics"},
		{"duplicate topic", func(c *Config) { c.Pipeline.Topics = []string{"teams", "teams"} }, "pipeline.topics"},
		{"no brokers", func(c *Config) { c.Kafka.Brokers = nil }, "kafka.brokers"},
		{"missing dsn", func(c *Config) { c.Database.DSN = "" }, "database.dsn"},
		{"zero budget", func(c *Config) { c.Pipeline.RetryBudget = 0 }, "pipeline.retry_budget"},
		{"bad quarantine", func(c *Config) { c.Pipeline.Quarantine = "s3" }, "pipeline.quarantine"},
		{
			"topic quarantine without dlq", func(c *Config) {
				c.Pipeline.Quarantine = "topic"
				c.Kafka.DLQTopic = ""
			}, "kafka.dlq_topic",
		},
		{"bad format", func(c *Config) { c.Pipeline.PayloadFormat = "avro" }, "pipeline.payload_format"},
		{"bad log level", func(c *Config) { c.Log.Level = "trace" }, "log.level"},
		{"bad log format", func(c *Config) { c.Log.Format = "xml" }, "log.format"},
	}

	require.NoError(t, valid().Validate())

	for _, tt := range tests {
		t.Run(
			tt.name, func(t *testing.T) {
				t.Parallel()
				cfg := valid()
				tt.mutate(cfg)

				err := cfg.Validate()
				require.Error(t, err)
				ce, ok := AsConfigError(err)
				require.True(t, ok)
				assert.Equal(t, tt.key, ce.Key)
			},
		)
	}
}

func TestValidate_ReportsEveryError(t *testing.T) {
	t.Parallel()

	cfg := &Config{Log: LogConfig{Level: "info", Format: "json"}, Pipeline: PipelineConfig{Quarantine: "none"}}
	err := cfg.Validate()
	require.Error(t, err)

	joined, ok := err.(interface{ Unwrap() []error })
	require.True(t, ok)
	assert.Greater(t, len(joined.Unwrap()), 3)
}

func TestConfig_TopicsApplyPrefix(t *testing.T) {
	t.Parallel()

	cfg := &Config{
		Kafka:    KafkaConfig{TopicPrefix: "football."},
		Pipeline: PipelineConfig{Topics: []string{"teams", "matches"}},
	}
	assert.Equal(t, []string{"football.teams", "football.matches"}, cfg.Topics())
}
