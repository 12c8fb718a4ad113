package substitute

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerate_Shape(t *testing.T) {
	g := New(WithDelay(0))
	want := map[string]bool{"cat": true, "dog": true, "bird": true, "fish": true, "house": true}

	for i := 0; i < 500; i++ {
		got, err := g.Generate(context.Background())
		require.NoError(t, err)
		require.Len(t, got, 5)

		seen := map[string]int{}
		for j, p := range got {
			seen[p.Label]++
			assert.True(t, want[p.Label], "unexpected label %q", p.Label)
			assert.GreaterOrEqual(t, p.Confidence, 0.01)
			assert.LessOrEqual(t, p.Confidence, 0.99)
			if j > 0 {
				assert.GreaterOrEqual(t, got[j-1].Confidence, p.Confidence)
			}
		}
		for label := range want {
			assert.Equal(t, 1, seen[label])
		}
	}
}

func TestGenerate_JitterIsBounded(t *testing.T) {
	g := New(WithDelay(0), WithSeed(42))
	base := map[string]float64{}
	for _, p := range Catalog {
		base[p.Label] = p.Confidence
	}

	for i := 0; i < 200; i++ {
		got, err := g.Generate(context.Background())
		require.NoError(t, err)
		for _, p := range got {
			assert.InDelta(t, base[p.Label], p.Confidence, jitter+1e-9)
		}
	}
}

func TestGenerate_SeedIsReproducible(t *testing.T) {
	a, err := New(WithDelay(0), WithSeed(9)).Generate(context.Background())
	require.NoError(t, err)
	b, err := New(WithDelay(0), WithSeed(9)).Generate(context.Background())
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestGenerate_Delay(t *testing.T) {
	g := New(WithDelay(30 * time.Millisecond))
	start := time.Now()
	_, err := g.Generate(context.Background())
	require.NoError(t, err)
	assert.GreaterOrEqual(t, time.Since(start), 30*time.Millisecond)
}

func TestGenerate_DoneContextSkipsDelay(t *testing.T) {
	g := New(WithDelay(time.Hour))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	got, err := g.Generate(ctx)
	require.NoError(t, err)
	assert.Len(t, got, len(Catalog))
}

func TestGenerate_DeadlineDuringDelay(t *testing.T) {
	g := New(WithDelay(time.Hour))
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	start := time.Now()
	got, err := g.Generate(ctx)
	require.NoError(t, err)
	assert.Len(t, got, len(Catalog))
	assert.Less(t, time.Since(start), time.Second)
}

func TestClamp(t *testing.T) {
	assert.Equal(t, 0.01, clamp(-0.5))
	assert.Equal(t, 0.99, clamp(1.2))
	assert.Equal(t, 0.5, clamp(0.5))
}
