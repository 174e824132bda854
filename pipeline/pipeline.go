// Package pipeline runs one ingestion pipeline per topic and coordinates
// their batch cycles.
package pipeline

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/hugolhafner/dskit/backoff"
	"github.com/hugolhafner/go-ingest/entity"
	"github.com/hugolhafner/go-ingest/errorhandler"
	"github.com/hugolhafner/go-ingest/kafka"
	"github.com/hugolhafner/go-ingest/logger"
	ingestotel "github.com/hugolhafner/go-ingest/otel"
	"github.com/hugolhafner/go-ingest/resolver"
	"github.com/hugolhafner/go-ingest/schema"
	"github.com/hugolhafner/go-ingest/validate"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	semconv "go.opentelemetry.io/otel/semconv/v1.39.0"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"
)

var ErrHalted = errors.New("pipeline halted")

// Store is the sink seen by a pipeline: reference lookups and upserts.
type Store interface {
	resolver.Lookup
	Upsert(ctx context.Context, table entity.Table, recs []entity.Record) (int, error)
}

// Pipeline moves one topic through fetch, validate, resolve, write and
// commit. A batch that is not durably written stays pending and is
// retried on the next cycle; offsets advance only after the write.
type Pipeline struct {
	handler  schema.Handler
	consumer kafka.Consumer
	store    Store
	resolver *resolver.Resolver
	config   Config
	logger   logger.Logger

	state  atomicState
	halted atomic.Bool

	// mu serializes cycles and guards the pending batch.
	mu         sync.Mutex
	pending    []kafka.ConsumerRecord
	batchID    string
	attempt    int
	pollErrors int
}

func New(h schema.Handler, consumer kafka.Consumer, store Store, opts ...Option) *Pipeline {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt.applyPipeline(&cfg)
	}

	l := cfg.Logger.With("component", "pipeline", "topic", h.Topic())
	if cfg.RecordHandler == nil {
		cfg.RecordHandler = errorhandler.LogAndContinue(l)
	}
	if cfg.BatchHandler == nil {
		cfg.BatchHandler = errorhandler.WithMaxAttempts(5, backoff.NewFixed(time.Second), errorhandler.LogAndFail(l))
	}

	return &Pipeline{
		handler:  h,
		consumer: consumer,
		store:    store,
		resolver: resolver.New(store, cfg.Logger),
		config:   cfg,
		logger:   l,
	}
}

func (p *Pipeline) Topic() string {
	return p.handler.Topic()
}

func (p *Pipeline) Handler() schema.Handler {
	return p.handler
}

func (p *Pipeline) State() State {
	return p.state.Load()
}

func (p *Pipeline) Halted() bool {
	return p.halted.Load()
}

// Pending returns the number of fetched records awaiting a durable write.
func (p *Pipeline) Pending() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.pending)
}

func (p *Pipeline) Close() {
	p.consumer.Close()
}

// RunCycle runs one batch cycle: the pending batch if a previous attempt
// failed, otherwise a freshly fetched one. Once fetched, a batch runs to a
// terminal state even if ctx is cancelled; cancellation only cuts a retry
// backoff short. The error is ctx's error or ErrHalted.
func (p *Pipeline) RunCycle(ctx context.Context) (BatchResult, error) {
	idle := BatchResult{Topic: p.Topic(), Table: p.handler.Table().Name, State: StateIdle}

	if p.halted.Load() {
		idle.State = StateHalted
		return idle, ErrHalted
	}
	if err := ctx.Err(); err != nil {
		return idle, err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if len(p.pending) == 0 {
		records, err := p.fetch(ctx)
		if err != nil {
			p.state.Store(StateIdle)
			if ctx.Err() != nil {
				return idle, ctx.Err()
			}

			p.pollErrors++
			p.logger.Error("Failed to poll records", "error", err, "attempt", p.pollErrors)
			select {
			case <-ctx.Done():
			case <-time.After(p.config.PollErrorBackoff.Next(uint(p.pollErrors))):
			}
			idle.Err = err
			return idle, nil
		}
		p.pollErrors = 0

		if len(records) == 0 {
			p.state.Store(StateIdle)
			return idle, nil
		}

		p.pending = records
		p.batchID = uuid.NewString()
		p.attempt = 1
	}

	res := p.process(ctx, p.batchID, p.pending, p.attempt)

	switch res.State {
	case StateCommitted:
		p.pending = nil
		p.attempt = 0
	case StatePartiallyRejected:
		p.attempt++
	case StateHalted:
		return res, ErrHalted
	}

	p.state.Store(StateIdle)
	return res, nil
}

// ProcessBatch runs a single attempt over records outside the pending
// batch bookkeeping of RunCycle.
func (p *Pipeline) ProcessBatch(ctx context.Context, records []kafka.ConsumerRecord) BatchResult {
	p.mu.Lock()
	defer p.mu.Unlock()

	res := p.process(ctx, uuid.NewString(), records, 1)
	if res.State != StateHalted {
		p.state.Store(StateIdle)
	}
	return res
}

func (p *Pipeline) fetch(ctx context.Context) ([]kafka.ConsumerRecord, error) {
	p.state.Store(StateFetching)
	topic := p.Topic()

	fetchStart := time.Now()
	ctx, span := p.config.Telemetry.Tracer.Start(
		ctx, topic+" receive",
		trace.WithSpanKind(trace.SpanKindConsumer),
		trace.WithAttributes(
			semconv.MessagingSystemKafka,
			semconv.MessagingOperationTypeReceive,
			semconv.MessagingDestinationName(topic),
		),
	)
	defer span.End()

	records, err := p.consumer.Poll(ctx)

	status := ingestotel.StatusSuccess
	if err != nil {
		status = ingestotel.StatusError
	}
	p.config.Telemetry.FetchDuration.Record(
		ctx, time.Since(fetchStart).Seconds(), metric.WithAttributes(
			semconv.MessagingDestinationName(topic),
			ingestotel.AttrFetchStatus.String(status),
		),
	)

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	span.SetAttributes(semconv.MessagingBatchMessageCount(len(records)))
	if len(records) > 0 {
		p.config.Telemetry.RecordsConsumed.Add(
			ctx, int64(len(records)), metric.WithAttributes(semconv.MessagingDestinationName(topic)),
		)
	}

	return records, nil
}

type decoded struct {
	record entity.Record
	err    error
	phase  errorhandler.ErrorPhase
	field  string
}

// process runs one attempt. ctx only governs error handler backoff; the
// batch work itself runs on a context that ignores cancellation so a batch
// is never torn down while writing.
func (p *Pipeline) process(
	ctx context.Context, batchID string, records []kafka.ConsumerRecord, attempt int,
) (out BatchResult) {
	start := time.Now()
	table := p.handler.Table()
	topic := p.Topic()

	res := BatchResult{
		BatchID: batchID,
		Topic:   topic,
		Table:   table.Name,
		Size:    len(records),
		Attempt: attempt,
	}

	work, span := p.config.Telemetry.Tracer.Start(
		context.WithoutCancel(ctx), topic+" process",
		trace.WithSpanKind(trace.SpanKindConsumer),
		trace.WithAttributes(
			semconv.MessagingSystemKafka,
			semconv.MessagingOperationTypeProcess,
			semconv.MessagingDestinationName(topic),
			semconv.MessagingBatchMessageCount(len(records)),
			ingestotel.AttrBatchID.String(batchID),
			ingestotel.AttrTable.String(table.Name),
		),
	)
	defer span.End()

	defer func() {
		out.Duration = time.Since(start)
		p.observe(work, span, out)
	}()

	// Validating
	p.state.Store(StateValidating)
	results := p.decodeAll(records)

	valid := make([]entity.Record, 0, len(records))
	sources := make([]kafka.ConsumerRecord, 0, len(records))
	for i, d := range results {
		if d.err == nil {
			valid = append(valid, d.record)
			sources = append(sources, records[i])
			continue
		}

		rej := Rejection{Record: records[i], Phase: d.phase, Field: d.field, Err: d.err}
		if stop := p.reject(ctx, &res, rej); stop != StateIdle {
			return p.abort(res, stop)
		}
	}

	// Resolving
	p.state.Store(StateResolving)
	outcomes, err := p.resolver.ResolveBatch(work, valid)
	if err != nil {
		return p.failBatch(ctx, res, errorhandler.PhaseResolve, err)
	}

	accepted := make([]entity.Record, 0, len(valid))
	for i, o := range outcomes {
		if o.Err == nil {
			accepted = append(accepted, o.Record)
			continue
		}

		rej := Rejection{Record: sources[i], Phase: errorhandler.PhaseResolve, Err: o.Err}
		if oe, ok := resolver.AsOrphanError(o.Err); ok && len(oe.Missing) > 0 {
			rej.Missing = oe.Missing
			rej.Field = oe.Missing[0].Field
		}
		if stop := p.reject(ctx, &res, rej); stop != StateIdle {
			return p.abort(res, stop)
		}
	}

	// Writing
	p.state.Store(StateWriting)
	if len(accepted) > 0 {
		if err := p.write(work, table, accepted); err != nil {
			return p.failBatch(ctx, res, errorhandler.PhaseWrite, err)
		}
	}
	res.Accepted = len(accepted)

	if err := p.quarantine(work, batchID, res.Rejected); err != nil {
		return p.failBatch(ctx, res, errorhandler.PhaseCommit, err)
	}

	p.consumer.MarkRecords(records...)
	if err := p.consumer.Commit(work); err != nil {
		// Rows are durable and idempotent; the marks ride along with the
		// next successful commit.
		res.CommitErr = err
		p.logger.Warn("Failed to commit offsets", "error", err, "batch_id", batchID)
	}

	res.State = StateCommitted
	return res
}

// decodeAll decodes and validates every record concurrently. Results are in
// input order.
func (p *Pipeline) decodeAll(records []kafka.ConsumerRecord) []decoded {
	out := make([]decoded, len(records))

	var g errgroup.Group
	g.SetLimit(p.config.Parallelism)
	for i, rec := range records {
		g.Go(
			func() error {
				out[i] = p.decode(rec)
				return nil
			},
		)
	}
	_ = g.Wait()

	return out
}

func (p *Pipeline) decode(rec kafka.ConsumerRecord) decoded {
	r, err := p.handler.Decode(rec)
	if err != nil {
		d := decoded{err: err, phase: errorhandler.PhaseDecode}
		if de, ok := schema.AsDecodeError(err); ok {
			d.field = de.Field
		}
		return d
	}

	if err := p.handler.Validate(r); err != nil {
		d := decoded{err: err, phase: errorhandler.PhaseValidate}
		if fe, ok := validate.AsFieldError(err); ok {
			d.field = fe.Field
		}
		return d
	}

	return decoded{record: r}
}

// reject consults the record handler. It returns StateIdle when the batch
// goes on, or the state the batch stops in.
func (p *Pipeline) reject(ctx context.Context, res *BatchResult, rej Rejection) State {
	ec := errorhandler.NewErrorContext(rej.Record, rej.Err).
		WithPhase(rej.Phase).
		WithTable(res.Table).
		WithField(rej.Field).
		WithAttempt(res.Attempt)

	action := p.config.RecordHandler.Handle(ctx, ec)
	p.countAction(ctx, action, rej.Phase)

	switch action.Type() {
	case errorhandler.ActionTypeContinue:
	case errorhandler.ActionTypeQuarantine:
		rej.Quarantined = true
	case errorhandler.ActionTypeRetry:
		res.Err = rej.Err
		res.Rejected = append(res.Rejected, rej)
		return StatePartiallyRejected
	default:
		res.Err = rej.Err
		res.Rejected = append(res.Rejected, rej)
		if ctx.Err() != nil {
			return StatePartiallyRejected
		}
		return StateHalted
	}

	res.Rejected = append(res.Rejected, rej)
	return StateIdle
}

func (p *Pipeline) write(ctx context.Context, table entity.Table, recs []entity.Record) error {
	start := time.Now()
	_, err := p.store.Upsert(ctx, table, recs)

	status := ingestotel.StatusSuccess
	if err != nil {
		status = ingestotel.StatusFailed
	}
	p.config.Telemetry.WriteDuration.Record(
		ctx, time.Since(start).Seconds(), metric.WithAttributes(
			ingestotel.AttrTable.String(table.Name),
			ingestotel.AttrWriteStatus.String(status),
		),
	)
	return err
}

func (p *Pipeline) quarantine(ctx context.Context, batchID string, rejected []Rejection) error {
	var keep []Rejection
	for _, r := range rejected {
		if r.Quarantined {
			keep = append(keep, r)
		}
	}
	if len(keep) == 0 {
		return nil
	}

	if err := p.config.Quarantine.Quarantine(ctx, batchID, keep); err != nil {
		return err
	}

	p.config.Telemetry.RecordsQuarantined.Add(
		ctx, int64(len(keep)), metric.WithAttributes(
			semconv.MessagingDestinationName(p.Topic()),
			ingestotel.AttrQuarantine.String(p.config.Quarantine.Name()),
		),
	)
	return nil
}

// failBatch consults the batch handler after a sink or quarantine failure.
func (p *Pipeline) failBatch(ctx context.Context, res BatchResult, phase errorhandler.ErrorPhase, err error) BatchResult {
	res.Err = err

	ec := errorhandler.NewBatchErrorContext(res.Table, err).
		WithPhase(phase).
		WithAttempt(res.Attempt)
	action := p.config.BatchHandler.Handle(ctx, ec)
	p.countAction(ctx, action, phase)

	switch action.Type() {
	case errorhandler.ActionTypeFail:
		if ctx.Err() != nil {
			return p.abort(res, StatePartiallyRejected)
		}
		return p.abort(res, StateHalted)
	case errorhandler.ActionTypeRetry:
		p.config.Telemetry.WriteRetries.Add(
			ctx, 1, metric.WithAttributes(ingestotel.AttrTable.String(res.Table)),
		)
	}

	return p.abort(res, StatePartiallyRejected)
}

func (p *Pipeline) abort(res BatchResult, state State) BatchResult {
	res.State = state
	if state == StateHalted {
		p.halt(res)
	}
	return res
}

func (p *Pipeline) halt(res BatchResult) {
	if !p.halted.CompareAndSwap(false, true) {
		return
	}
	p.state.Store(StateHalted)
	p.config.Telemetry.PipelinesHalted.Add(
		context.Background(), 1, metric.WithAttributes(semconv.MessagingDestinationName(p.Topic())),
	)
	p.consumer.Close()
	p.logger.Error("Pipeline halted, consumption position frozen", "batch_id", res.BatchID, "error", res.Err)
}

func (p *Pipeline) countAction(ctx context.Context, action errorhandler.Action, phase errorhandler.ErrorPhase) {
	p.config.Telemetry.ErrorHandlerActions.Add(
		ctx, 1, metric.WithAttributes(
			ingestotel.AttrErrorAction.String(action.Type().String()),
			semconv.MessagingDestinationName(p.Topic()),
			ingestotel.AttrErrorPhase.String(phase.String()),
		),
	)
}

// observe emits the batch log line, metrics and span status.
func (p *Pipeline) observe(ctx context.Context, span trace.Span, res BatchResult) {
	tel := p.config.Telemetry
	topicAttr := semconv.MessagingDestinationName(res.Topic)

	tel.BatchDuration.Record(
		ctx, res.Duration.Seconds(), metric.WithAttributes(topicAttr, ingestotel.AttrOutcome.String(res.State.String())),
	)
	tel.BatchOutcomes.Add(ctx, 1, metric.WithAttributes(topicAttr, ingestotel.AttrOutcome.String(res.State.String())))

	if res.State == StateCommitted {
		tel.RecordsAccepted.Add(ctx, int64(res.Accepted), metric.WithAttributes(topicAttr))
		for _, rej := range res.Rejected {
			tel.RecordsRejected.Add(
				ctx, 1, metric.WithAttributes(topicAttr, ingestotel.AttrErrorPhase.String(rej.Phase.String())),
			)
		}
	}

	span.SetAttributes(ingestotel.AttrOutcome.String(res.State.String()))
	if res.Err != nil {
		span.RecordError(res.Err)
	}
	if res.State != StateCommitted {
		span.SetStatus(codes.Error, res.State.String())
	}

	kv := []any{
		"batch_id", res.BatchID,
		"state", res.State.String(),
		"size", res.Size,
		"accepted", res.Accepted,
		"rejected", len(res.Rejected),
		"rejections", res.RejectionCounts(),
		"attempt", res.Attempt,
		"duration", res.Duration,
	}
	if res.Err != nil {
		kv = append(kv, "error", res.Err)
	}

	switch res.State {
	case StateCommitted:
		p.logger.Info("Batch processed", kv...)
	case StatePartiallyRejected:
		p.logger.Warn("Batch processed", kv...)
	default:
		p.logger.Error("Batch processed", kv...)
	}
}
