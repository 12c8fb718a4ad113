package events

import (
	"context"
	"strconv"

	"sketch-predictor/internal/common/logger"
	"sketch-predictor/internal/common/metrics"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// LogObserver renders events through the structured logger.
type LogObserver struct {
	log logger.Logger
}

func NewLogObserver(log logger.Logger) *LogObserver {
	return &LogObserver{log: log}
}

func (o *LogObserver) Observe(_ context.Context, e Event) {
	fields := map[string]interface{}{"event": string(e.Type)}
	if e.AttemptID != "" {
		fields["attemptId"] = e.AttemptID
	}
	if e.Endpoint != "" {
		fields["endpoint"] = e.Endpoint
		fields["isFallback"] = e.IsFallback
	}
	if e.Duration > 0 {
		fields["durationMs"] = e.Duration.Milliseconds()
	}

	switch e.Type {
	case AttemptFailed:
		fields["kind"] = string(e.Kind)
		fields["error"] = e.Err
		o.log.Warn("Remote classification attempt failed", fields)
	case FallbackEngaged:
		o.log.Warn("Primary backend failed, trying fallback", fields)
	case SubstituteUsed:
		fields["reason"] = e.Reason
		if e.Err != nil {
			fields["error"] = e.Err
		}
		o.log.Warn("Serving substitute predictions", fields)
	case ProbeCompleted:
		fields["available"] = e.Available
		o.log.Info("Availability probe completed", fields)
	case BackendReset:
		o.log.Info("Backend selector reset to primary", fields)
	case AttemptSucceeded:
		o.log.Info("Remote classification succeeded", fields)
	default:
		o.log.Debug("Remote classification attempt started", fields)
	}
}

// MetricsObserver feeds the prometheus collectors.
type MetricsObserver struct{}

func (MetricsObserver) Observe(_ context.Context, e Event) {
	switch e.Type {
	case AttemptStarted:
		metrics.AttemptsStarted.WithLabelValues(e.Endpoint).Inc()
	case AttemptSucceeded:
		metrics.AttemptDuration.WithLabelValues(e.Endpoint, "success").Observe(e.Duration.Seconds())
	case AttemptFailed:
		metrics.AttemptsFailed.WithLabelValues(e.Endpoint, string(e.Kind)).Inc()
		metrics.AttemptDuration.WithLabelValues(e.Endpoint, "failure").Observe(e.Duration.Seconds())
	case FallbackEngaged:
		metrics.FallbackEngaged.Inc()
	case SubstituteUsed:
		metrics.SubstituteUsed.WithLabelValues(e.Reason).Inc()
	case ProbeCompleted:
		metrics.ProbeResults.WithLabelValues(e.Endpoint, strconv.FormatBool(e.Available)).Inc()
	case BackendReset:
		metrics.BackendResets.Inc()
	}
}

// TraceObserver attaches each event to the span active in ctx.
type TraceObserver struct{}

func (TraceObserver) Observe(ctx context.Context, e Event) {
	span := trace.SpanFromContext(ctx)
	if !span.IsRecording() {
		return
	}

	attrs := []attribute.KeyValue{}
	if e.AttemptID != "" {
		attrs = append(attrs, attribute.String("attempt.id", e.AttemptID))
	}
	if e.Endpoint != "" {
		attrs = append(attrs,
			attribute.String("backend.endpoint", e.Endpoint),
			attribute.Bool("backend.fallback", e.IsFallback),
		)
	}
	if e.Kind != "" {
		attrs = append(attrs, attribute.String("error.kind", string(e.Kind)))
	}
	if e.Reason != "" {
		attrs = append(attrs, attribute.String("substitute.reason", e.Reason))
	}
	if e.Type == ProbeCompleted {
		attrs = append(attrs, attribute.Bool("backend.available", e.Available))
	}
	span.AddEvent(string(e.Type), trace.WithAttributes(attrs...))
}
