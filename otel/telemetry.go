package otel

import (
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
	traceNoop "go.opentelemetry.io/otel/trace/noop"
)

const scopeName = "github.com/hugolhafner/go-ingest"

// Telemetry holds all OpenTelemetry instruments for the ingestion pipelines
// When no providers are configured, all instruments are noops with zero overhead
type Telemetry struct {
	Tracer     trace.Tracer
	Propagator propagation.TextMapPropagator

	// Consumer metrics
	RecordsConsumed metric.Int64Counter
	FetchDuration   metric.Float64Histogram

	// Batch metrics
	BatchDuration   metric.Float64Histogram
	BatchOutcomes   metric.Int64Counter
	RecordsAccepted metric.Int64Counter
	RecordsRejected metric.Int64Counter

	// Sink metrics
	WriteDuration metric.Float64Histogram
	WriteRetries  metric.Int64Counter

	// Error metrics
	ErrorHandlerActions metric.Int64Counter
	RecordsQuarantined  metric.Int64Counter

	// Pipeline state metrics
	PipelinesHalted metric.Int64UpDownCounter
}

// NewTelemetry creates a Telemetry instance from the given providers.
// all providers are optional and defaulted to noops if nil
func NewTelemetry(tp trace.TracerProvider, mp metric.MeterProvider, prop propagation.TextMapPropagator) (
	*Telemetry, error,
) {
	if tp == nil {
		tp = traceNoop.NewTracerProvider()
	}
	if mp == nil {
		mp = noop.NewMeterProvider()
	}
	if prop == nil {
		prop = propagation.TraceContext{}
	}

	meter := mp.Meter(scopeName)
	t := &Telemetry{
		Tracer:     tp.Tracer(scopeName),
		Propagator: prop,
	}

	var err error

	if t.RecordsConsumed, err = meter.Int64Counter(
		"messaging.consumer.messages",
		metric.WithDescription("Records fetched from source topics"),
	); err != nil {
		return nil, err
	}

	if t.FetchDuration, err = meter.Float64Histogram(
		"ingest.fetch.duration",
		metric.WithDescription("Time per Poll() call"),
		metric.WithUnit("s"),
	); err != nil {
		return nil, err
	}

	if t.BatchDuration, err = meter.Float64Histogram(
		"ingest.batch.duration",
		metric.WithDescription("Time from fetch to offset commit for one micro-batch"),
		metric.WithUnit("s"),
	); err != nil {
		return nil, err
	}

	if t.BatchOutcomes, err = meter.Int64Counter(
		"ingest.batch.outcomes",
		metric.WithDescription("Micro-batches by terminal state"),
	); err != nil {
		return nil, err
	}

	if t.RecordsAccepted, err = meter.Int64Counter(
		"ingest.records.accepted",
		metric.WithDescription("Records written to the sink"),
	); err != nil {
		return nil, err
	}

	if t.RecordsRejected, err = meter.Int64Counter(
		"ingest.records.rejected",
		metric.WithDescription("Records rejected by decode, validation or resolution"),
	); err != nil {
		return nil, err
	}

	if t.WriteDuration, err = meter.Float64Histogram(
		"ingest.write.duration",
		metric.WithDescription("Time per sink transaction"),
		metric.WithUnit("s"),
	); err != nil {
		return nil, err
	}

	if t.WriteRetries, err = meter.Int64Counter(
		"ingest.write.retries",
		metric.WithDescription("Batches retried after a transient failure"),
	); err != nil {
		return nil, err
	}

	if t.ErrorHandlerActions, err = meter.Int64Counter(
		"ingest.error_handler.actions",
		metric.WithDescription("Error handler decisions"),
	); err != nil {
		return nil, err
	}

	if t.RecordsQuarantined, err = meter.Int64Counter(
		"ingest.records.quarantined",
		metric.WithDescription("Rejected records kept for inspection"),
	); err != nil {
		return nil, err
	}

	if t.PipelinesHalted, err = meter.Int64UpDownCounter(
		"ingest.pipelines.halted",
		metric.WithDescription("Pipelines stopped after exhausting their retry budget"),
	); err != nil {
		return nil, err
	}

	return t, nil
}

// Noop returns a Telemetry instance with all noop instruments
func Noop() *Telemetry {
	t, _ := NewTelemetry(nil, nil, nil)
	return t
}
