//go:build unit

package ingest_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/hugolhafner/dskit/backoff"
	ingest "github.com/hugolhafner/go-ingest"
	"github.com/hugolhafner/go-ingest/errorhandler"
	"github.com/hugolhafner/go-ingest/kafka"
	mockkafka "github.com/hugolhafner/go-ingest/kafka/mock"
	"github.com/hugolhafner/go-ingest/logger"
	mocklogger "github.com/hugolhafner/go-ingest/logger/mock"
	"github.com/hugolhafner/go-ingest/pipeline"
	"github.com/hugolhafner/go-ingest/schema"
	mocksink "github.com/hugolhafner/go-ingest/sink/mock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type harness struct {
	dispatcher *schema.Dispatcher
	sink       *mocksink.Sink
	log        *mocklogger.MockLogger
	clients    map[string]*mockkafka.Client
}

func newHarness(t *testing.T, topics ...string) *harness {
	t.Helper()

	d, err := schema.NewDispatcher(schema.Default(), topics)
	require.NoError(t, err)

	h := &harness{
		dispatcher: d,
		sink:       mocksink.New(),
		log:        mocklogger.New(),
		clients:    make(map[string]*mockkafka.Client),
	}
	for _, topic := range topics {
		h.clients[topic] = mockkafka.NewClient()
	}
	return h
}

func (h *harness) consumers(topic string) (kafka.Consumer, error) {
	return h.clients[topic], nil
}

func (h *harness) app(t *testing.T, opts ...ingest.ConfigOption) *ingest.Application {
	t.Helper()

	all := append(
		[]ingest.ConfigOption{
			ingest.WithLogger(h.log),
			ingest.WithIdleInterval(5 * time.Millisecond),
			ingest.WithPipelineOptions(
				pipeline.WithBatchHandler(
					errorhandler.WithMaxAttempts(1, backoff.NewFixed(0), errorhandler.LogAndFail(h.log)),
				),
			),
		}, opts...,
	)
	app, err := ingest.NewApplication(h.dispatcher, h.sink, h.consumers, all...)
	require.NoError(t, err)
	return app
}

func runAsync(app *ingest.Application) <-chan error {
	done := make(chan error, 1)
	go func() { done <- app.Run(context.Background()) }()
	return done
}

func TestApplication_IngestsAcrossTopics(t *testing.T) {
	t.Parallel()
	h := newHarness(t, "matches", "teams", "competitions")
	app := h.app(t)

	h.clients["competitions"].AddRecords("competitions", 0, mockkafka.Values(`{"id":2021,"name":"Premier League"}`)...)
	h.clients["teams"].AddRecords(
		"teams", 0, mockkafka.Values(`{"id":57,"name":"Arsenal"}`, `{"id":65,"name":"Manchester City"}`)...,
	)
	h.clients["matches"].AddRecords(
		"matches", 0, mockkafka.Values(
			`{"id":1001,"competition_id":2021,"home_team_id":57,"away_team_id":65,"match_date":"2024-03-31T15:30:00Z","status":"FINISHED"}`,
		)...,
	)

	done := runAsync(app)

	require.Eventually(
		t, func() bool {
			return h.sink.Count("matches") == 1
		}, 2*time.Second, 5*time.Millisecond,
	)
	assert.Equal(t, 2, h.sink.Count("teams"))
	assert.Empty(t, h.sink.Rejections())

	app.Close()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("application did not stop")
	}

	h.clients["matches"].AssertCommittedOffset(t, kafka.TopicPartition{Topic: "matches"}, 1)
	assert.True(t, h.clients["teams"].IsClosed())
	h.log.AssertCalledWithLevelAndMessage(t, logger.InfoLevel, "Application stopped")
}

func TestApplication_RunTwice(t *testing.T) {
	t.Parallel()
	h := newHarness(t, "teams")
	app := h.app(t)

	done := runAsync(app)
	require.Eventually(
		t, func() bool {
			return h.clients["teams"].PollCount() > 0
		}, time.Second, time.Millisecond,
	)

	assert.ErrorIs(t, app.Run(context.Background()), ingest.ErrAlreadyRunning)

	app.Close()
	require.NoError(t, <-done)
	assert.ErrorIs(t, app.Run(context.Background()), ingest.ErrClosed)
}

func TestApplication_ContextCancelStops(t *testing.T) {
	t.Parallel()
	h := newHarness(t, "teams")
	app := h.app(t)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- app.Run(ctx) }()

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("application did not stop")
	}
}

func TestApplication_ReturnsErrHaltedWhenAllHalted(t *testing.T) {
	t.Parallel()
	h := newHarness(t, "teams")
	app := h.app(t)

	h.clients["teams"].AddRecords("teams", 0, mockkafka.Values(`{"id":57,"name":"Arsenal"}`)...)
	h.sink.FailNext("teams", errors.New("relation teams does not exist"))

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	assert.ErrorIs(t, app.Run(ctx), ingest.ErrHalted)
	assert.Equal(t, []string{"teams"}, app.Halted())
	h.clients["teams"].AssertNotCommitted(t, kafka.TopicPartition{Topic: "teams"})
}

func TestApplication_ConsumerFactoryError(t *testing.T) {
	t.Parallel()
	h := newHarness(t, "teams", "competitions")

	opened := make(map[string]*mockkafka.Client)
	factory := func(topic string) (kafka.Consumer, error) {
		if topic == "competitions" {
			return nil, errors.New("broker unreachable")
		}
		c := h.clients[topic]
		opened[topic] = c
		return c, nil
	}

	app, err := ingest.NewApplication(h.dispatcher, h.sink, factory)
	require.NoError(t, err)

	err = app.Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "competitions")
	assert.True(t, opened["teams"].IsClosed())
}

func TestNewApplication_RequiresCollaborators(t *testing.T) {
	t.Parallel()
	h := newHarness(t, "teams")

	_, err := ingest.NewApplication(nil, h.sink, h.consumers)
	assert.Error(t, err)
	_, err = ingest.NewApplication(h.dispatcher, nil, h.consumers)
	assert.Error(t, err)
	_, err = ingest.NewApplication(h.dispatcher, h.sink, nil)
	assert.Error(t, err)
}
