//go:build unit

package otel

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

func TestNewTelemetry_WithProviders(t *testing.T) {
	t.Parallel()
	tp := sdktrace.NewTracerProvider()
	mp := sdkmetric.NewMeterProvider()
	defer tp.Shutdown(context.Background())
	defer mp.Shutdown(context.Background())

	tel, err := NewTelemetry(tp, mp, nil)
	require.NoError(t, err)
	require.NotNil(t, tel.Tracer)
	require.NotNil(t, tel.Propagator)
	require.NotNil(t, tel.RecordsConsumed)
	require.NotNil(t, tel.FetchDuration)
	require.NotNil(t, tel.BatchDuration)
	require.NotNil(t, tel.BatchOutcomes)
	require.NotNil(t, tel.RecordsAccepted)
	require.NotNil(t, tel.RecordsRejected)
	require.NotNil(t, tel.WriteDuration)
	require.NotNil(t, tel.WriteRetries)
	require.NotNil(t, tel.ErrorHandlerActions)
	require.NotNil(t, tel.RecordsQuarantined)
	require.NotNil(t, tel.PipelinesHalted)
}

func TestNewTelemetry_RecordsIntoReader(t *testing.T) {
	t.Parallel()
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	defer mp.Shutdown(context.Background())

	tel, err := NewTelemetry(nil, mp, nil)
	require.NoError(t, err)

	tel.RecordsAccepted.Add(context.Background(), 3)

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))
	require.Len(t, rm.ScopeMetrics, 1)
	require.Equal(t, scopeName, rm.ScopeMetrics[0].Scope.Name)
	require.Equal(t, "ingest.records.accepted", rm.ScopeMetrics[0].Metrics[0].Name)
}

func TestNoop(t *testing.T) {
	t.Parallel()
	tel := Noop()
	require.NotNil(t, tel)
	require.NotNil(t, tel.Tracer)
}
