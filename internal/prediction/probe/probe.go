// Package probe checks whether a classification backend is reachable at all.
package probe

import (
	"context"
	"net/http"
	"strings"
	"time"

	"sketch-predictor/internal/common/httpclient"
	"sketch-predictor/internal/models"
	"sketch-predictor/internal/prediction/events"
)

const DefaultTimeout = 5 * time.Second

type Prober struct {
	http     *httpclient.Client
	timeout  time.Duration
	observer events.Observer
}

func New(client *httpclient.Client, timeout time.Duration, observer events.Observer) *Prober {
	if client == nil {
		client = httpclient.NewClient()
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Prober{http: client, timeout: timeout, observer: observer}
}

// Probe sends HEAD {base}/ under its own short timeout. Any HTTP response,
// whatever the status, means the backend is reachable. Network errors and
// timeouts report false; Probe never returns an error.
func (p *Prober) Probe(ctx context.Context, endpoint models.BackendEndpoint) bool {
	start := time.Now()
	available := p.head(ctx, endpoint.BaseURL)

	events.Emit(ctx, p.observer, events.Event{
		Type:       events.ProbeCompleted,
		Endpoint:   endpoint.Name,
		IsFallback: endpoint.IsFallback,
		Available:  available,
		Duration:   time.Since(start),
	})
	return available
}

func (p *Prober) head(ctx context.Context, base string) bool {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	req, err := p.http.NewRequest(ctx, http.MethodHead, strings.TrimRight(base, "/")+"/", nil)
	if err != nil {
		return false
	}
	resp, err := p.http.Do(ctx, req)
	if err != nil {
		return false
	}
	resp.Body.Close()
	return true
}
