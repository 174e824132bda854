package ingest

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/hugolhafner/go-ingest/kafka"
	"github.com/hugolhafner/go-ingest/logger"
	"github.com/hugolhafner/go-ingest/pipeline"
	"github.com/hugolhafner/go-ingest/schema"
)

const Version = "v0.1.0" // x-release-please-version

var (
	ErrAlreadyRunning = errors.New("application is already running")
	ErrClosed         = errors.New("application is closed")
	ErrHalted         = pipeline.ErrHalted
)

// ConsumerFactory opens the consumer for one topic. Each pipeline owns its
// consumer so offsets are committed per topic.
type ConsumerFactory func(topic string) (kafka.Consumer, error)

type Application struct {
	dispatcher *schema.Dispatcher
	store      pipeline.Store
	consumers  ConsumerFactory
	config     Config

	logger logger.Logger

	mu          sync.Mutex
	running     bool
	coordinator *pipeline.Coordinator
	closeOnce   sync.Once
	closedCh    chan struct{}
}

func NewApplication(
	dispatcher *schema.Dispatcher, store pipeline.Store, consumers ConsumerFactory, opts ...ConfigOption,
) (*Application, error) {
	config := defaultConfig()
	for _, opt := range opts {
		opt(&config)
	}

	return NewApplicationWithConfig(dispatcher, store, consumers, config)
}

func NewApplicationWithConfig(
	dispatcher *schema.Dispatcher, store pipeline.Store, consumers ConsumerFactory, config Config,
) (*Application, error) {
	switch {
	case dispatcher == nil:
		return nil, errors.New("dispatcher is required")
	case store == nil:
		return nil, errors.New("store is required")
	case consumers == nil:
		return nil, errors.New("consumer factory is required")
	}

	return &Application{
		dispatcher: dispatcher,
		store:      store,
		consumers:  consumers,
		config:     config,
		logger:     config.Logger,
		closedCh:   make(chan struct{}),
	}, nil
}

// Run ingests every dispatched topic until ctx is cancelled or Close is
// called, returning nil in both cases. It returns ErrHalted once every
// topic pipeline has halted.
func (a *Application) Run(ctx context.Context) error {
	if err := a.startRunning(); err != nil {
		return err
	}
	defer a.Close()

	coordinator, err := a.build()
	if err != nil {
		return err
	}
	defer coordinator.Close()

	a.mu.Lock()
	a.coordinator = coordinator
	a.mu.Unlock()

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	go func() {
		select {
		case <-a.closedCh:
			cancel()
		case <-runCtx.Done():
		}
	}()

	a.logger.Info("Application started", "version", Version, "topics", a.dispatcher.Topics())
	err = coordinator.Run(runCtx)
	a.logger.Info("Application stopped", "halted", coordinator.Halted())
	return err
}

func (a *Application) build() (*pipeline.Coordinator, error) {
	opts := append(
		[]pipeline.Option{pipeline.WithLogger(a.logger), pipeline.WithTelemetry(a.config.Telemetry)},
		a.config.PipelineOptions...,
	)

	pipelines := make([]*pipeline.Pipeline, 0, len(a.dispatcher.Topics()))
	closeAll := func() {
		for _, p := range pipelines {
			p.Close()
		}
	}

	for _, h := range a.dispatcher.Handlers() {
		consumer, err := a.consumers(h.Topic())
		if err != nil {
			closeAll()
			return nil, fmt.Errorf("failed to open consumer for %s: %w", h.Topic(), err)
		}
		pipelines = append(pipelines, pipeline.New(h, consumer, a.store, opts...))
	}

	coordOpts := append(
		[]pipeline.CoordinatorOption{pipeline.WithLogger(a.logger), pipeline.WithTelemetry(a.config.Telemetry)},
		a.config.CoordinatorOptions...,
	)
	coordinator, err := pipeline.NewCoordinator(pipelines, coordOpts...)
	if err != nil {
		closeAll()
		return nil, fmt.Errorf("failed to create coordinator: %w", err)
	}
	return coordinator, nil
}

// Halted returns the topics whose pipelines stopped consuming.
func (a *Application) Halted() []string {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.coordinator == nil {
		return nil
	}
	return a.coordinator.Halted()
}

// Close stops a running application at the next cycle boundary. Batches
// already writing are finished first.
func (a *Application) Close() {
	a.closeOnce.Do(
		func() {
			a.mu.Lock()
			defer a.mu.Unlock()

			a.running = false
			close(a.closedCh)
		},
	)
}

func (a *Application) startRunning() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.running {
		return ErrAlreadyRunning
	}

	select {
	case <-a.closedCh:
		return ErrClosed
	default:
	}

	a.running = true
	return nil
}
