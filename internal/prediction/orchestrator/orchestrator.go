// Package orchestrator is the single entry point of the prediction core. It
// turns canvas output into a ranked prediction list, absorbing every remote
// failure into the local substitute.
package orchestrator

import (
	"context"
	"strings"
	"time"

	"sketch-predictor/internal/common/errors"
	"sketch-predictor/internal/common/observability"
	"sketch-predictor/internal/models"
	"sketch-predictor/internal/prediction/availability"
	"sketch-predictor/internal/prediction/codec"
	"sketch-predictor/internal/prediction/events"
	"sketch-predictor/internal/prediction/failover"
	"sketch-predictor/internal/prediction/normalize"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

type Failover interface {
	ClassifyWithFailover(ctx context.Context, req models.ClassificationRequest) ([]models.RawPrediction, models.BackendEndpoint, error)
	Status() failover.Status
	ResetToPrimary(ctx context.Context)
}

type Prober interface {
	Probe(ctx context.Context, endpoint models.BackendEndpoint) bool
}

// Substitute must still answer when ctx is already done: by the time it runs
// the remote attempts may have used up the caller's whole deadline.
type Substitute interface {
	Generate(ctx context.Context) ([]models.Prediction, error)
}

// Recorder receives one record per completed Predict call.
type Recorder interface {
	RecordPrediction(ctx context.Context, source, status string, d time.Duration)
}

type Deps struct {
	Failover     Failover
	Prober       Prober
	Substitute   Substitute
	Availability availability.Store
	Observer     events.Observer
	Recorder     Recorder
}

type Orchestrator struct {
	topK     int
	failover Failover
	prober   Prober
	sub      Substitute
	store    availability.Store
	observer events.Observer
	recorder Recorder
}

func New(topK int, deps Deps) *Orchestrator {
	if deps.Availability == nil {
		deps.Availability = availability.NewMemoryStore(0)
	}
	return &Orchestrator{
		topK:     topK,
		failover: deps.Failover,
		prober:   deps.Prober,
		sub:      deps.Substitute,
		store:    deps.Availability,
		observer: deps.Observer,
		recorder: deps.Recorder,
	}
}

// Predict encodes the image, tries the remote backends unless they are known
// to be unavailable, and falls back to the substitute on any remote failure.
// The only errors returned are caller misuse (INVALID_INPUT) or a failure of
// the substitute path itself.
func (o *Orchestrator) Predict(ctx context.Context, rawImage, targetWord string) (*models.PredictionResult, error) {
	ctx, span := observability.StartSpan(ctx, "predict")
	defer span.End()
	start := time.Now()

	result, err := o.predict(ctx, rawImage, targetWord)

	source, status := "none", "ok"
	if result != nil {
		source = string(result.Source)
		span.SetAttributes(
			attribute.String("prediction.source", source),
			attribute.String("prediction.backend", result.Backend),
		)
	}
	if err != nil {
		status = string(errors.KindOf(err))
		span.RecordError(err)
		span.SetStatus(codes.Error, status)
	}
	if o.recorder != nil {
		o.recorder.RecordPrediction(ctx, source, status, time.Since(start))
	}
	return result, err
}

func (o *Orchestrator) predict(ctx context.Context, rawImage, targetWord string) (*models.PredictionResult, error) {
	payload := codec.Encode(rawImage)
	if strings.TrimSpace(payload) == "" {
		return nil, errors.NewInvalidInputError("empty image payload")
	}
	req := models.NewClassificationRequest(payload, targetWord, o.topK)

	if o.availabilityState(ctx).KnownFalse() {
		return o.substitute(ctx, events.ReasonMarkedUnavailable, nil)
	}

	raw, endpoint, err := o.failover.ClassifyWithFailover(ctx, req)
	if err != nil {
		o.setAvailability(ctx, false)
		return o.substitute(ctx, events.ReasonRemoteFailed, err)
	}

	preds, err := normalize.Normalize(raw, o.topK)
	if err != nil {
		// The backend answered, so the availability flag stays as it is.
		return o.substitute(ctx, events.ReasonNoValidRemote, err)
	}

	o.setAvailability(ctx, true)
	return &models.PredictionResult{
		Predictions: preds,
		Source:      models.SourceRemote,
		Backend:     endpoint.Name,
	}, nil
}

func (o *Orchestrator) substitute(ctx context.Context, reason string, cause error) (*models.PredictionResult, error) {
	events.Emit(ctx, o.observer, events.Event{
		Type:   events.SubstituteUsed,
		Reason: reason,
		Kind:   errors.KindOf(cause),
		Err:    cause,
	})

	preds, err := o.sub.Generate(ctx)
	if err != nil {
		return nil, errors.Classify("substitute", err)
	}
	preds, err = normalize.Normalize(normalize.FromPredictions(preds), o.topK)
	if err != nil {
		return nil, err
	}
	return &models.PredictionResult{
		Predictions: preds,
		Source:      models.SourceSubstitute,
	}, nil
}

// CheckAvailability probes the current endpoint and records the result as
// the advisory flag.
func (o *Orchestrator) CheckAvailability(ctx context.Context) bool {
	endpoint := o.failover.Status().Current
	available := o.prober.Probe(ctx, endpoint)
	o.setAvailability(ctx, available)
	return available
}

// Availability returns the advisory flag without probing.
func (o *Orchestrator) Availability(ctx context.Context) availability.State {
	return o.availabilityState(ctx)
}

func (o *Orchestrator) BackendStatus() failover.Status {
	return o.failover.Status()
}

func (o *Orchestrator) ResetToPrimary(ctx context.Context) {
	o.failover.ResetToPrimary(ctx)
}

func (o *Orchestrator) availabilityState(ctx context.Context) availability.State {
	st, err := o.store.Get(ctx)
	if err != nil {
		return availability.Unknown
	}
	return st
}

func (o *Orchestrator) setAvailability(ctx context.Context, available bool) {
	// Advisory only; a failed write just leaves the previous hint in place.
	_ = o.store.Set(ctx, available)
}
