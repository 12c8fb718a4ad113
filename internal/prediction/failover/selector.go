// Package failover owns the primary/fallback backend selection.
package failover

import (
	"context"
	"sync"
	"time"

	"sketch-predictor/internal/common/errors"
	"sketch-predictor/internal/common/observability"
	"sketch-predictor/internal/models"
	"sketch-predictor/internal/prediction/events"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

// Classifier runs one remote attempt against one endpoint.
type Classifier interface {
	Classify(ctx context.Context, endpoint models.BackendEndpoint, req models.ClassificationRequest) ([]models.RawPrediction, error)
}

// Status is the read-only view of the selector.
type Status struct {
	Current    models.BackendEndpoint `json:"current"`
	IsFallback bool                   `json:"isFallback"`
}

// Selector tries the primary endpoint first on every call and the fallback
// only after the primary attempt has failed. Once the fallback has been
// engaged the reported status stays on it until ResetToPrimary.
type Selector struct {
	primary  models.BackendEndpoint
	fallback models.BackendEndpoint
	client   Classifier
	observer events.Observer

	mu            sync.RWMutex
	usingFallback bool
}

func New(primary, fallback models.BackendEndpoint, client Classifier, observer events.Observer) *Selector {
	primary.IsFallback = false
	fallback.IsFallback = true
	return &Selector{
		primary:  primary,
		fallback: fallback,
		client:   client,
		observer: observer,
	}
}

// ClassifyWithFailover returns the raw list and the endpoint that produced
// it. When both endpoints fail the error is BOTH_ENDPOINTS_FAILED, with the
// kind of the fallback failure.
func (s *Selector) ClassifyWithFailover(ctx context.Context, req models.ClassificationRequest) ([]models.RawPrediction, models.BackendEndpoint, error) {
	raw, primaryErr := s.attempt(ctx, s.primary, req)
	if primaryErr == nil {
		return raw, s.primary, nil
	}

	s.mu.Lock()
	s.usingFallback = true
	s.mu.Unlock()

	events.Emit(ctx, s.observer, events.Event{
		Type:       events.FallbackEngaged,
		Endpoint:   s.fallback.Name,
		IsFallback: true,
		Kind:       errors.KindOf(primaryErr),
		Err:        primaryErr,
	})

	raw, fallbackErr := s.attempt(ctx, s.fallback, req)
	if fallbackErr == nil {
		return raw, s.fallback, nil
	}
	return nil, s.fallback, errors.NewBothEndpointsFailedError(primaryErr, fallbackErr)
}

func (s *Selector) attempt(ctx context.Context, endpoint models.BackendEndpoint, req models.ClassificationRequest) ([]models.RawPrediction, error) {
	ctx, span := observability.StartSpan(ctx, "classify.attempt",
		attribute.String("backend.endpoint", endpoint.Name),
		attribute.Bool("backend.fallback", endpoint.IsFallback),
	)
	defer span.End()

	ev := events.Event{
		AttemptID:  uuid.NewString(),
		Endpoint:   endpoint.Name,
		IsFallback: endpoint.IsFallback,
	}
	ev.Type = events.AttemptStarted
	events.Emit(ctx, s.observer, ev)

	start := time.Now()
	raw, err := s.client.Classify(ctx, endpoint, req)
	ev.Duration = time.Since(start)

	if err != nil {
		std := errors.Classify("attempt", err)
		span.RecordError(std)
		span.SetStatus(codes.Error, string(std.Code))

		ev.Type = events.AttemptFailed
		ev.Kind = std.Code
		ev.Err = std
		events.Emit(ctx, s.observer, ev)
		return nil, std
	}

	ev.Type = events.AttemptSucceeded
	events.Emit(ctx, s.observer, ev)
	return raw, nil
}

// Status reports the current endpoint and whether it is the fallback.
func (s *Selector) Status() Status {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.usingFallback {
		return Status{Current: s.fallback, IsFallback: true}
	}
	return Status{Current: s.primary}
}

// ResetToPrimary is the only way back from the fallback.
func (s *Selector) ResetToPrimary(ctx context.Context) {
	s.mu.Lock()
	s.usingFallback = false
	s.mu.Unlock()

	events.Emit(ctx, s.observer, events.Event{Type: events.BackendReset, Endpoint: s.primary.Name})
}

