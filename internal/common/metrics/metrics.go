// internal/common/metrics/metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	AttemptsStarted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "predictor_attempts_started_total",
			Help: "Remote classification attempts started, per endpoint",
		},
		[]string{"endpoint"},
	)

	AttemptsFailed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "predictor_attempts_failed_total",
			Help: "Remote classification attempts that failed, per endpoint and error kind",
		},
		[]string{"endpoint", "kind"},
	)

	AttemptDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "predictor_attempt_duration_seconds",
			Help:    "Duration of remote classification attempts in seconds",
			Buckets: []float64{0.25, 0.5, 1, 2.5, 5, 10, 30, 60, 120, 300},
		},
		[]string{"endpoint", "outcome"},
	)

	FallbackEngaged = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "predictor_fallback_engaged_total",
			Help: "Times the fallback endpoint was tried after a primary failure",
		},
	)

	SubstituteUsed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "predictor_substitute_used_total",
			Help: "Predictions served by the local substitute, per reason",
		},
		[]string{"reason"},
	)

	ProbeResults = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "predictor_probe_results_total",
			Help: "Availability probe results per endpoint",
		},
		[]string{"endpoint", "available"},
	)

	BackendResets = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "predictor_backend_resets_total",
			Help: "Explicit resets of the backend selector to primary",
		},
	)
)

var (
	JobsHandled = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "predictor_jobs_handled_total",
			Help: "Camunda jobs handled, per task type and outcome",
		},
		[]string{"task_type", "outcome"},
	)

	JobDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "predictor_job_duration_seconds",
			Help:    "Time spent handling one Camunda job",
			Buckets: []float64{0.5, 1, 2.5, 5, 10, 30, 60, 300, 600},
		},
		[]string{"task_type"},
	)

	JobsRemaining = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "predictor_jobs_remaining",
			Help: "Activated jobs not yet handled by the local worker",
		},
		[]string{"task_type"},
	)
)
