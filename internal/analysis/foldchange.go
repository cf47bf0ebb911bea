package analysis

import (
	"math"

	"github.com/montanaflynn/stats"
)

// Available drops missing (NaN) values.
func Available(values []float64) []float64 {
	out := make([]float64, 0, len(values))
	for _, v := range values {
		if !math.IsNaN(v) {
			out = append(out, v)
		}
	}
	return out
}

// GroupMean is the mean of the available values; NaN when all are missing.
func GroupMean(values []float64) float64 {
	mean, err := stats.Mean(Available(values))
	if err != nil {
		return math.NaN()
	}
	return mean
}

// Log2FoldChange compares group means with a pseudo-count of 1.
func Log2FoldChange(treatedMean, untreatedMean float64) float64 {
	return math.Log2(treatedMean+1) - math.Log2(untreatedMean+1)
}

// BaseMean is the average of the two group means.
func BaseMean(treatedMean, untreatedMean float64) float64 {
	return (treatedMean + untreatedMean) / 2
}
