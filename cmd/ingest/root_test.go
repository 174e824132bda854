//go:build unit

package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/hugolhafner/go-ingest/config"
	"github.com/hugolhafner/go-ingest/logger"
	"github.com/hugolhafner/go-ingest/pipeline"
	"github.com/hugolhafner/go-ingest/sink"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()

	cmd := NewRootCommand()
	out := &bytes.Buffer{}
	cmd.SetOut(out)
	cmd.SetErr(out)
	cmd.SetArgs(args)

	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestTopicsCommand_ListsTiers(t *testing.T) {
	path := writeConfig(
		t, `
database:
  dsn: postgres://localhost/football
pipeline:
  topics: [matches, teams, competitions, player_stats]
`,
	)

	out, err := execute(t, "topics", "--config", path)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 5)
	assert.Contains(t, lines[0], "TIER")
	assert.Regexp(t, `^0\s+competitions`, lines[1])
	assert.Regexp(t, `^0\s+teams`, lines[2])
	assert.Regexp(t, `^1\s+matches\s+matches\s+id\s+teams,competitions`, lines[3])
	assert.Regexp(t, `^2\s+player_stats\s+player_stats\s+player_id,match_id`, lines[4])
}

func TestTopicsCommand_UnorderedSingleTier(t *testing.T) {
	path := writeConfig(
		t, `
database:
  dsn: postgres://localhost/football
pipeline:
  topics: [matches, teams]
  ordered: false
`,
	)

	out, err := execute(t, "topics", "--config", path)
	require.NoError(t, err)
	assert.NotContains(t, out, "\n1 ")
}

func TestRootCommand_InvalidConfigFailsStartup(t *testing.T) {
	path := writeConfig(
		t, `
database:
  dsn: postgres://localhost/football
pipeline:
  topics: [teams, referees]
`,
	)

	_, err := execute(t, "run", "--config", path)
	require.Error(t, err)

	ce, ok := config.AsConfigError(err)
	require.True(t, ok)
	assert.Equal(t, "pipeline.topics", ce.Key)
}

func TestBuildQuarantine(t *testing.T) {
	t.Parallel()

	cfg := &config.Config{Kafka: config.KafkaConfig{DLQTopic: "ingest.dlq"}}

	cfg.Pipeline.Quarantine = "none"
	q, err := buildQuarantine(cfg, nil, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, "none", q.Name())

	cfg.Pipeline.Quarantine = "table"
	q, err = buildQuarantine(cfg, nil, &sink.DB{}, nil)
	require.NoError(t, err)
	assert.Equal(t, "table", q.Name())

	cfg.Pipeline.Quarantine = "topic"
	_, err = buildQuarantine(cfg, nil, nil, nil)
	require.Error(t, err)

	cfg.Pipeline.Quarantine = "s3"
	_, err = buildQuarantine(cfg, nil, nil, nil)
	_, ok := config.AsConfigError(err)
	assert.True(t, ok)
}

func TestPipelineOptions_QuarantineWrapsRecordHandler(t *testing.T) {
	t.Parallel()

	cfg := &config.Config{Pipeline: config.PipelineConfig{RetryBudget: 3, Parallelism: 2}}
	opts := pipelineOptions(cfg, pipeline.NoQuarantine{}, logger.NewNoopLogger())
	assert.Len(t, opts, 5)
}
