package rng

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func draw(t *testing.T, a *Adapter, name string, seed int64) []float64 {
	t.Helper()
	r, err := a.Stream(context.Background(), name, seed)
	require.NoError(t, err)
	out := make([]float64, 5)
	for i := range out {
		out[i] = r.Float64()
	}
	return out
}

func TestStream_Deterministic(t *testing.T) {
	a := NewAdapter()
	assert.Equal(t, draw(t, a, "pvalues", 42), draw(t, a, "pvalues", 42))
}

func TestStream_NamesAreIndependent(t *testing.T) {
	a := NewAdapter()
	assert.NotEqual(t, draw(t, a, "pvalues", 42), draw(t, a, "heatmap", 42))
	assert.NotEqual(t, draw(t, a, "pvalues", 42), draw(t, a, "pvalues", 43))
}

func TestStream_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewAdapter().Stream(ctx, "pvalues", 1)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestNewSeed_Positive(t *testing.T) {
	a := NewAdapter()
	for i := 0; i < 10; i++ {
		assert.Greater(t, a.NewSeed(), int64(0))
	}
}
