package events

import (
	"context"
	"errors"
	"testing"
	"time"

	apperrors "sketch-predictor/internal/common/errors"
	"sketch-predictor/internal/common/logger"
	"sketch-predictor/internal/common/metrics"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func TestMulti_FansOutInOrder(t *testing.T) {
	var order []string
	a := ObserverFunc(func(context.Context, Event) { order = append(order, "a") })
	b := ObserverFunc(func(context.Context, Event) { order = append(order, "b") })

	Emit(context.Background(), Multi(a, nil, b), Event{Type: AttemptStarted})

	assert.Equal(t, []string{"a", "b"}, order)
}

func TestEmit_StampsTimeAndToleratesNil(t *testing.T) {
	rec := &Recorder{}
	Emit(context.Background(), rec, Event{Type: FallbackEngaged})
	Emit(context.Background(), nil, Event{Type: FallbackEngaged})

	got := rec.Events()
	require.Len(t, got, 1)
	assert.False(t, got[0].Time.IsZero())
	assert.Equal(t, []Type{FallbackEngaged}, rec.Types())
}

func TestLogObserver_Levels(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	obs := NewLogObserver(logger.NewZapAdapter(zap.New(core)))
	ctx := context.Background()

	obs.Observe(ctx, Event{Type: AttemptStarted, Endpoint: "primary", AttemptID: "a1"})
	obs.Observe(ctx, Event{
		Type:     AttemptFailed,
		Endpoint: "primary",
		Kind:     apperrors.ErrCodeTimeout,
		Err:      errors.New("deadline"),
		Duration: 2 * time.Second,
	})
	obs.Observe(ctx, Event{Type: SubstituteUsed, Reason: ReasonRemoteFailed})

	entries := logs.All()
	require.Len(t, entries, 3)
	assert.Equal(t, zap.DebugLevel, entries[0].Level)
	assert.Equal(t, zap.WarnLevel, entries[1].Level)
	assert.Equal(t, "PREDICTION_TIMEOUT", entries[1].ContextMap()["kind"])
	assert.EqualValues(t, 2000, entries[1].ContextMap()["durationMs"])
	assert.Equal(t, ReasonRemoteFailed, entries[2].ContextMap()["reason"])
}

func TestMetricsObserver_Counts(t *testing.T) {
	obs := MetricsObserver{}
	ctx := context.Background()

	before := testutil.ToFloat64(metrics.AttemptsFailed.WithLabelValues("metrics-test", string(apperrors.ErrCodeConnectivity)))
	beforeFallback := testutil.ToFloat64(metrics.FallbackEngaged)

	obs.Observe(ctx, Event{Type: AttemptFailed, Endpoint: "metrics-test", Kind: apperrors.ErrCodeConnectivity})
	obs.Observe(ctx, Event{Type: FallbackEngaged, Endpoint: "metrics-test"})

	assert.Equal(t, before+1, testutil.ToFloat64(metrics.AttemptsFailed.WithLabelValues("metrics-test", string(apperrors.ErrCodeConnectivity))))
	assert.Equal(t, beforeFallback+1, testutil.ToFloat64(metrics.FallbackEngaged))
}

func TestTraceObserver_AddsSpanEvent(t *testing.T) {
	exporter := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exporter))
	defer func() { _ = tp.Shutdown(context.Background()) }()

	ctx, span := tp.Tracer("test").Start(context.Background(), "predict")
	TraceObserver{}.Observe(ctx, Event{Type: AttemptFailed, Endpoint: "fallback", IsFallback: true, Kind: apperrors.ErrCodeRemoteProtocol})
	span.End()

	spans := exporter.GetSpans()
	require.Len(t, spans, 1)
	require.Len(t, spans[0].Events, 1)
	assert.Equal(t, string(AttemptFailed), spans[0].Events[0].Name)
}
