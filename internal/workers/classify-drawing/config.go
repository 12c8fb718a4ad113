// internal/workers/classify-drawing/config.go
package classifydrawing

import (
	"time"

	"sketch-predictor/internal/common/camunda"
	"sketch-predictor/internal/common/config"
)

type Config struct {
	// Timeout bounds one job's prediction. The substitute still answers when
	// it elapses, so it only decides how long remote attempts may run.
	Timeout       time.Duration
	JobTimeout    time.Duration
	PollInterval  time.Duration
	MaxJobsActive int
	WorkerName    string
}

func LoadConfig(cfg *config.Config) *Config {
	return &Config{
		Timeout:       config.GetDuration(cfg.Camunda.Timeout),
		JobTimeout:    config.GetDuration(cfg.Camunda.JobTimeout),
		PollInterval:  config.GetDuration(cfg.Camunda.PollInterval),
		MaxJobsActive: cfg.Camunda.MaxJobsActive,
		WorkerName:    cfg.Camunda.WorkerName,
	}
}

// Worker returns the job subscription for this task.
func (c *Config) Worker() camunda.WorkerConfig {
	return camunda.WorkerConfig{
		TaskType:      TaskType,
		Name:          c.WorkerName,
		MaxJobsActive: c.MaxJobsActive,
		JobTimeout:    c.JobTimeout,
		PollInterval:  c.PollInterval,
		Variables:     []string{"image", "targetWord"},
	}
}
