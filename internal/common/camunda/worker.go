// internal/common/camunda/worker.go
package camunda

import (
	"context"
	"time"

	"sketch-predictor/internal/common/logger"
	"sketch-predictor/internal/common/metrics"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/camunda/zeebe/clients/go/v8/pkg/zbc"
)

// JobHandler must return an error (required by Zeebe client)
type JobHandler interface {
	Handle(client worker.JobClient, job entities.Job) error
}

// WorkerConfig describes one job subscription.
type WorkerConfig struct {
	TaskType      string
	Name          string
	MaxJobsActive int
	// JobTimeout is how long the broker keeps an activated job locked to this
	// worker. It must outlast the handler's own deadline.
	JobTimeout   time.Duration
	PollInterval time.Duration
	Variables    []string
}

type CamundaWorker struct {
	client zbc.Client
	worker worker.JobWorker
	logger logger.Logger
	config WorkerConfig
}

func NewWorker(client zbc.Client, cfg WorkerConfig, handler JobHandler, log logger.Logger) *CamundaWorker {
	log = log.With(map[string]interface{}{"taskType": cfg.TaskType})

	builder := client.NewJobWorker().
		JobType(cfg.TaskType).
		Handler(instrument(cfg.TaskType, handler, log)).
		Metrics(jobMetrics{})

	if cfg.Name != "" {
		builder = builder.Name(cfg.Name)
	}
	if cfg.MaxJobsActive > 0 {
		builder = builder.MaxJobsActive(cfg.MaxJobsActive)
	}
	if cfg.JobTimeout > 0 {
		builder = builder.Timeout(cfg.JobTimeout)
	}
	if cfg.PollInterval > 0 {
		builder = builder.PollInterval(cfg.PollInterval)
	}
	if len(cfg.Variables) > 0 {
		builder = builder.FetchVariables(cfg.Variables...)
	}

	return &CamundaWorker{
		client: client,
		worker: builder.Open(),
		logger: log,
		config: cfg,
	}
}

// instrument adapts a JobHandler to the client's callback and records how
// each job ended.
func instrument(taskType string, handler JobHandler, log logger.Logger) worker.JobHandler {
	return func(client worker.JobClient, job entities.Job) {
		start := time.Now()
		err := handler.Handle(client, job)

		outcome := "completed"
		if err != nil {
			outcome = "failed"
			log.Error("Handler returned error", map[string]interface{}{
				"error":  err,
				"jobKey": job.Key,
			})
		}
		metrics.JobsHandled.WithLabelValues(taskType, outcome).Inc()
		metrics.JobDuration.WithLabelValues(taskType).Observe(time.Since(start).Seconds())
	}
}

// jobMetrics exports the client's backlog per job type.
type jobMetrics struct{}

func (jobMetrics) SetJobsRemainingCount(jobType string, count int) {
	metrics.JobsRemaining.WithLabelValues(jobType).Set(float64(count))
}

func (w *CamundaWorker) Start() {
	w.logger.Info("worker started", map[string]interface{}{
		"name":          w.config.Name,
		"maxJobsActive": w.config.MaxJobsActive,
		"jobTimeout":    w.config.JobTimeout.String(),
	})
}

// Stop closes the subscription, waiting for in-flight jobs until ctx ends,
// then releases the client.
func (w *CamundaWorker) Stop(ctx context.Context) {
	w.logger.Info("stopping worker", nil)

	done := make(chan struct{})
	go func() {
		w.worker.Close()
		close(done)
	}()

	select {
	case <-done:
	case <-ctx.Done():
		w.logger.Warn("worker did not drain before shutdown deadline", nil)
	}
	_ = w.client.Close()
}
