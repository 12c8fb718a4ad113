package observability

import (
	"context"
	"log"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/prometheus"
	otelmetric "go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/sdk/metric"
)

type Observability struct {
	meterProvider  *metric.MeterProvider
	tracerProvider shutdowner
	meter          otelmetric.Meter
	predictions    otelmetric.Int64Counter
	duration       otelmetric.Float64Histogram
}

type shutdowner interface {
	Shutdown(ctx context.Context) error
}

// New wires an OpenTelemetry meter backed by the Prometheus exporter, and a
// tracer provider exporting to Jaeger when jaegerEndpoint is set.
func New(serviceName, jaegerEndpoint string) *Observability {
	o := &Observability{}

	if tp, err := newTracerProvider(serviceName, jaegerEndpoint); err != nil {
		log.Printf("Failed to create tracer provider: %v", err)
	} else {
		otel.SetTracerProvider(tp)
		o.tracerProvider = tp
	}

	exporter, err := prometheus.New()
	if err != nil {
		log.Printf("Failed to create Prometheus exporter: %v", err)
		return o
	}

	provider := metric.NewMeterProvider(metric.WithReader(exporter))
	otel.SetMeterProvider(provider)

	meter := provider.Meter(serviceName)

	predictions, _ := meter.Int64Counter(
		"predictions.served",
		otelmetric.WithDescription("Number of ranked prediction lists returned"),
	)

	duration, _ := meter.Float64Histogram(
		"predictions.duration",
		otelmetric.WithDescription("End-to-end prediction duration"),
		otelmetric.WithUnit("ms"),
	)

	o.meterProvider = provider
	o.meter = meter
	o.predictions = predictions
	o.duration = duration
	return o
}

// RecordPrediction counts one completed predict call by source and outcome.
func (o *Observability) RecordPrediction(ctx context.Context, source, status string, d time.Duration) {
	attrs := otelmetric.WithAttributes(
		attribute.String("source", source),
		attribute.String("status", status),
	)
	if o.predictions != nil {
		o.predictions.Add(ctx, 1, attrs)
	}
	if o.duration != nil {
		o.duration.Record(ctx, float64(d.Milliseconds()), attrs)
	}
}

func (o *Observability) Shutdown() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if o.meterProvider != nil {
		_ = o.meterProvider.Shutdown(ctx)
	}
	if o.tracerProvider != nil {
		_ = o.tracerProvider.Shutdown(ctx)
	}
}
