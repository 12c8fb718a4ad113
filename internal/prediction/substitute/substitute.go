// Package substitute produces plausible predictions without any network
// access, for when the remote backends cannot be used.
package substitute

import (
	"context"
	"math/rand"
	"sort"
	"sync"
	"time"

	"sketch-predictor/internal/models"
)

const (
	DefaultDelay = 1500 * time.Millisecond

	jitter        = 0.1
	minConfidence = 0.01
	maxConfidence = 0.99
)

// Catalog is the fixed label set with base confidences.
var Catalog = []models.Prediction{
	{Label: "cat", Confidence: 0.85},
	{Label: "dog", Confidence: 0.72},
	{Label: "bird", Confidence: 0.58},
	{Label: "fish", Confidence: 0.34},
	{Label: "house", Confidence: 0.12},
}

type Generator struct {
	delay time.Duration

	mu  sync.Mutex
	rng *rand.Rand
}

type Option func(*Generator)

// WithDelay overrides the emulated latency. Zero disables it.
func WithDelay(d time.Duration) Option {
	return func(g *Generator) {
		if d >= 0 {
			g.delay = d
		}
	}
}

// WithSeed makes the jitter reproducible.
func WithSeed(seed int64) Option {
	return func(g *Generator) { g.rng = rand.New(rand.NewSource(seed)) }
}

func New(opts ...Option) *Generator {
	g := &Generator{
		delay: DefaultDelay,
		rng:   rand.New(rand.NewSource(time.Now().UnixNano())),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Generate waits out the emulated latency, then returns every catalog label
// once with jittered confidences in [0.01, 0.99], sorted descending. A done
// context only cuts the wait short; a list is returned either way.
func (g *Generator) Generate(ctx context.Context) ([]models.Prediction, error) {
	if g.delay > 0 && ctx.Err() == nil {
		timer := time.NewTimer(g.delay)
		defer timer.Stop()
		select {
		case <-timer.C:
		case <-ctx.Done():
		}
	}

	out := make([]models.Prediction, len(Catalog))
	g.mu.Lock()
	for i, base := range Catalog {
		c := base.Confidence + (g.rng.Float64()*2-1)*jitter
		out[i] = models.Prediction{Label: base.Label, Confidence: clamp(c)}
	}
	g.mu.Unlock()

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Confidence > out[j].Confidence
	})
	return out, nil
}

func clamp(c float64) float64 {
	if c < minConfidence {
		return minConfidence
	}
	if c > maxConfidence {
		return maxConfidence
	}
	return c
}
