package ports

import (
	"context"
	"math/rand/v2"
)

// RNGPort provides seeded random number generation for deterministic operations
type RNGPort interface {
	// Stream creates a deterministic RNG for a named draw (e.g. "pvalues",
	// "heatmap") of one run. The same run seed and name always yield the
	// same sequence.
	Stream(ctx context.Context, name string, seed int64) (*rand.Rand, error)

	// NewSeed returns a fresh seed for runs that were not given one.
	NewSeed() int64
}
