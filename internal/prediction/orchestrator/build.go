package orchestrator

import (
	"sketch-predictor/internal/common/config"
	"sketch-predictor/internal/common/httpclient"
	"sketch-predictor/internal/models"
	"sketch-predictor/internal/prediction/availability"
	"sketch-predictor/internal/prediction/events"
	"sketch-predictor/internal/prediction/failover"
	"sketch-predictor/internal/prediction/probe"
	"sketch-predictor/internal/prediction/remote"
	"sketch-predictor/internal/prediction/substitute"
)

// Endpoints returns the configured primary and fallback backends.
func Endpoints(cfg *config.Config) (primary, fallback models.BackendEndpoint) {
	primary = models.BackendEndpoint{
		Name:    cfg.Backends.Primary.Name,
		BaseURL: cfg.Backends.Primary.URL,
	}
	fallback = models.BackendEndpoint{
		Name:       cfg.Backends.Fallback.Name,
		BaseURL:    cfg.Backends.Fallback.URL,
		IsFallback: true,
	}
	return primary, fallback
}

// NewFromConfig wires the real remote client, selector, probe and substitute.
// A nil store means an in-process flag with the configured TTL.
func NewFromConfig(cfg *config.Config, hc *httpclient.Client, store availability.Store, observer events.Observer, recorder Recorder) *Orchestrator {
	if hc == nil {
		hc = httpclient.NewClient()
	}
	if store == nil {
		store = availability.NewMemoryStore(config.GetDuration(cfg.Availability.TTL))
	}

	client := remote.NewClient(hc, remote.Config{
		SubmitPath: cfg.Backends.SubmitPath,
		ResultPath: cfg.Backends.ResultPath,
		Timeout:    cfg.Prediction.RequestTimeout(),
	})
	primary, fallback := Endpoints(cfg)

	return New(cfg.Prediction.TopK, Deps{
		Failover:     failover.New(primary, fallback, client, observer),
		Prober:       probe.New(hc, cfg.Prediction.ProbeTimeoutDuration(), observer),
		Substitute:   substitute.New(substitute.WithDelay(cfg.Prediction.SubstituteDelayDuration())),
		Availability: store,
		Observer:     observer,
		Recorder:     recorder,
	})
}
