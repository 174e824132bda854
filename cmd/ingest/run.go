package main

import (
	"context"
	"errors"
	"fmt"

	ingest "github.com/hugolhafner/go-ingest"
	"github.com/hugolhafner/go-ingest/config"
	"github.com/hugolhafner/go-ingest/kafka"
	"github.com/hugolhafner/go-ingest/logger"
	"github.com/spf13/cobra"
)

func newRunCommand(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Consume every configured topic until interrupted",
		Long: `run starts one pipeline per configured topic. Pipelines run in dependency
tiers so teams and competitions are written before the facts that reference
them. A pipeline that exhausts its retry budget halts; the others keep going.
The process exits non-zero once every pipeline has halted.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := root.load()
			if err != nil {
				return err
			}

			l, sync, err := buildLogger(cfg.Log)
			if err != nil {
				return err
			}
			defer sync()

			return run(cmd.Context(), cfg, l)
		},
	}
}

func run(ctx context.Context, cfg *config.Config, l logger.Logger) error {
	tel, shutdown, err := buildTelemetry()
	if err != nil {
		return err
	}
	defer func() { _ = shutdown(context.Background()) }()

	dispatcher, err := buildDispatcher(cfg)
	if err != nil {
		return fmt.Errorf("configure topics: %w", err)
	}

	db, err := openSink(cfg.Database, cfg.Pipeline.WriteTimeout, l)
	if err != nil {
		return err
	}
	defer func() {
		if err := db.Close(); err != nil {
			l.Warn("Failed to close database", "error", err)
		}
	}()

	if cfg.Database.AutoMigrate {
		if err := db.Migrate(ctx); err != nil {
			return err
		}
		l.Info("Database schema migrated")
	}

	admin, err := adminClient(cfg.Kafka, l)
	if err != nil {
		return err
	}
	defer admin.Close()

	if cfg.Kafka.VerifyTopics {
		topics := dispatcher.Topics()
		if cfg.Pipeline.Quarantine == "topic" {
			topics = append(append([]string(nil), topics...), cfg.Kafka.DLQTopic)
		}
		if err := admin.VerifyTopics(ctx, topics); err != nil {
			return err
		}
	}

	var producer kafka.Producer = admin
	q, err := buildQuarantine(cfg, producer, db, tel)
	if err != nil {
		return err
	}

	serveMetrics(ctx, cfg.Metrics.Addr, db, l)

	app, err := ingest.NewApplication(
		dispatcher, db, consumerFactory(cfg, l),
		ingest.WithLogger(l),
		ingest.WithTelemetry(tel),
		ingest.WithPipelineOptions(pipelineOptions(cfg, q, l)...),
		ingest.WithOrdered(cfg.Pipeline.Ordered),
		ingest.WithIdleInterval(cfg.Pipeline.IdleInterval),
	)
	if err != nil {
		return err
	}

	l.Info(
		"Starting ingestion",
		"topics", dispatcher.Topics(),
		"quarantine", q.Name(),
		"ordered", cfg.Pipeline.Ordered,
		"retry_budget", cfg.Pipeline.RetryBudget,
	)

	err = app.Run(ctx)
	if errors.Is(err, ingest.ErrHalted) {
		return fmt.Errorf("every pipeline halted: %v", app.Halted())
	}
	if halted := app.Halted(); len(halted) > 0 {
		l.Warn("Stopped with halted pipelines", "topics", halted)
	}
	return err
}
