package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/hugolhafner/dskit/backoff"
	ingest "github.com/hugolhafner/go-ingest"
	"github.com/hugolhafner/go-ingest/config"
	"github.com/hugolhafner/go-ingest/errorhandler"
	"github.com/hugolhafner/go-ingest/kafka"
	"github.com/hugolhafner/go-ingest/logger"
	ingestotel "github.com/hugolhafner/go-ingest/otel"
	"github.com/hugolhafner/go-ingest/pipeline"
	"github.com/hugolhafner/go-ingest/plugins/zaplogger"
	"github.com/hugolhafner/go-ingest/schema"
	"github.com/hugolhafner/go-ingest/serde"
	"github.com/hugolhafner/go-ingest/sink"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	otelprom "go.opentelemetry.io/otel/exporters/prometheus"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
)

func buildLogger(cfg config.LogConfig) (logger.Logger, func(), error) {
	opts := zaplogger.Options{Level: cfg.Level, Encoding: cfg.Format}
	if cfg.File != "" {
		opts.Files = []string{cfg.File}
	}

	zl, err := zaplogger.Build(opts)
	if err != nil {
		return nil, nil, err
	}

	return zaplogger.New(zl), func() { _ = zl.Sync() }, nil
}

// buildTelemetry exports metrics in the prometheus format through the
// default registry served by promhttp.
func buildTelemetry() (*ingestotel.Telemetry, func(context.Context) error, error) {
	exporter, err := otelprom.New()
	if err != nil {
		return nil, nil, fmt.Errorf("create prometheus exporter: %w", err)
	}

	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(exporter))
	tel, err := ingestotel.NewTelemetry(nil, mp, nil)
	if err != nil {
		return nil, nil, err
	}
	return tel, mp.Shutdown, nil
}

func serveMetrics(ctx context.Context, addr string, db *sink.DB, l logger.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc(
		"/healthz", func(w http.ResponseWriter, r *http.Request) {
			if err := db.Ping(r.Context()); err != nil {
				http.Error(w, err.Error(), http.StatusServiceUnavailable)
				return
			}
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte("ok"))
		},
	)

	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	go func() {
		l.Info("Metrics server listening", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			l.Error("Metrics server failed", "error", err)
		}
	}()
}

func openSink(cfg config.DatabaseConfig, writeTimeout time.Duration, l logger.Logger) (*sink.DB, error) {
	return sink.Open(
		cfg.DSN,
		sink.WithLogger(l),
		sink.WithWriteTimeout(writeTimeout),
		sink.WithSlowThreshold(cfg.SlowThreshold),
		sink.WithPool(cfg.MaxOpenConns, cfg.MaxIdleConns, cfg.ConnMaxLifetime),
	)
}

func buildDispatcher(cfg *config.Config) (*schema.Dispatcher, error) {
	format, err := serde.ParseFormat(cfg.Pipeline.PayloadFormat)
	if err != nil {
		return nil, err
	}

	opts := []schema.Option{
		schema.WithPayloadFormat(format),
		schema.WithTopicPrefix(cfg.Kafka.TopicPrefix),
	}
	if cfg.Pipeline.TeamVenueDefault != "" {
		opts = append(opts, schema.WithTeamVenueDefault(cfg.Pipeline.TeamVenueDefault))
	}

	return schema.NewDispatcher(schema.Default(opts...), cfg.Topics())
}

// adminClient is a produce-only client used for metadata checks and the
// dead letter topic.
func adminClient(cfg config.KafkaConfig, l logger.Logger) (*kafka.KgoClient, error) {
	return kafka.NewKgoClient(
		kafka.WithBootstrapServers(cfg.Brokers),
		kafka.WithLogger(l),
	)
}

// consumerFactory opens one consumer group per topic so every pipeline
// commits its own position.
func consumerFactory(cfg *config.Config, l logger.Logger) ingest.ConsumerFactory {
	return func(topic string) (kafka.Consumer, error) {
		return kafka.NewKgoClient(
			kafka.WithBootstrapServers(cfg.Kafka.Brokers),
			kafka.WithGroupID(cfg.Kafka.GroupID+"."+topic),
			kafka.WithTopics(topic),
			kafka.WithMaxPollRecords(cfg.Pipeline.BatchSize),
			kafka.WithPollTimeout(cfg.Kafka.PollTimeout),
			kafka.WithSessionTimeout(cfg.Kafka.SessionTimeout),
			kafka.WithLogger(l.With("topic", topic)),
		)
	}
}

func buildQuarantine(
	cfg *config.Config, producer kafka.Producer, db *sink.DB, tel *ingestotel.Telemetry,
) (pipeline.Quarantine, error) {
	switch cfg.Pipeline.Quarantine {
	case "", "none":
		return pipeline.NoQuarantine{}, nil
	case "topic":
		if producer == nil {
			return nil, errors.New("topic quarantine needs a producer")
		}
		return pipeline.NewTopicQuarantine(producer, cfg.Kafka.DLQTopic, tel), nil
	case "table":
		return pipeline.NewTableQuarantine(db), nil
	default:
		return nil, &config.ConfigError{Key: "pipeline.quarantine", Reason: "unknown mode " + cfg.Pipeline.Quarantine}
	}
}

// pipelineOptions turns the retry settings into error handlers. Record
// failures never block the batch: they are logged and, unless quarantine
// is off, routed to the quarantine. Write and commit failures are retried
// with a fixed backoff until the budget is spent, then the topic halts.
func pipelineOptions(cfg *config.Config, q pipeline.Quarantine, l logger.Logger) []pipeline.Option {
	record := errorhandler.LogAndContinue(l)
	if q.Name() != "none" {
		record = errorhandler.WithQuarantine(record)
	}

	return []pipeline.Option{
		pipeline.WithRecordHandler(record),
		pipeline.WithBatchHandler(
			errorhandler.WithMaxAttempts(
				cfg.Pipeline.RetryBudget,
				backoff.NewFixed(cfg.Pipeline.RetryBackoff),
				errorhandler.LogAndFail(l),
			),
		),
		pipeline.WithQuarantine(q),
		pipeline.WithParallelism(cfg.Pipeline.Parallelism),
		pipeline.WithPollErrorBackoff(backoff.NewFixed(cfg.Pipeline.RetryBackoff)),
	}
}
