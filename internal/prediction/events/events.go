// Package events is the structured observability hook of the prediction path.
// Core components emit Events; the application decides whether they end up in
// logs, metrics or traces.
package events

import (
	"context"
	"sync"
	"time"

	apperrors "sketch-predictor/internal/common/errors"
)

type Type string

const (
	AttemptStarted   Type = "attempt_started"
	AttemptSucceeded Type = "attempt_succeeded"
	AttemptFailed    Type = "attempt_failed"
	FallbackEngaged  Type = "fallback_engaged"
	SubstituteUsed   Type = "substitute_used"
	ProbeCompleted   Type = "probe_completed"
	BackendReset     Type = "backend_reset"
)

// Substitute reasons.
const (
	ReasonMarkedUnavailable = "marked_unavailable"
	ReasonRemoteFailed      = "remote_failed"
	ReasonNoValidRemote     = "no_valid_remote_predictions"
)

type Event struct {
	Type       Type
	Time       time.Time
	AttemptID  string
	Endpoint   string
	IsFallback bool
	Kind       apperrors.ErrorCode
	Reason     string
	Available  bool
	Duration   time.Duration
	Err        error
}

type Observer interface {
	Observe(ctx context.Context, e Event)
}

type ObserverFunc func(ctx context.Context, e Event)

func (f ObserverFunc) Observe(ctx context.Context, e Event) { f(ctx, e) }

// Discard drops every event.
var Discard Observer = ObserverFunc(func(context.Context, Event) {})

type multi []Observer

func (m multi) Observe(ctx context.Context, e Event) {
	for _, o := range m {
		o.Observe(ctx, e)
	}
}

// Multi fans each event out to every non-nil observer in order.
func Multi(observers ...Observer) Observer {
	out := make(multi, 0, len(observers))
	for _, o := range observers {
		if o != nil {
			out = append(out, o)
		}
	}
	return out
}

// Emit stamps the event time when unset and forwards to o. A nil observer is
// allowed.
func Emit(ctx context.Context, o Observer, e Event) {
	if o == nil {
		return
	}
	if e.Time.IsZero() {
		e.Time = time.Now()
	}
	o.Observe(ctx, e)
}

// Recorder keeps every event it sees, for tests and diagnostics.
type Recorder struct {
	mu     sync.Mutex
	events []Event
}

func (r *Recorder) Observe(_ context.Context, e Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
}

// Events returns a copy of what has been recorded.
func (r *Recorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Event, len(r.events))
	copy(out, r.events)
	return out
}

// Types returns the recorded event types in order.
func (r *Recorder) Types() []Type {
	events := r.Events()
	out := make([]Type, len(events))
	for i, e := range events {
		out[i] = e.Type
	}
	return out
}
