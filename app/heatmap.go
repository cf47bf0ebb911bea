package app

import (
	"context"
	"math"

	"gonum.org/v1/gonum/stat/distuv"

	"rnaseqde/domain/core"
	"rnaseqde/domain/expression"
	"rnaseqde/ports"
)

// HeatmapStream is the RNG stream the placeholder heatmap is drawn from.
const HeatmapStream = "heatmap"

// Heatmap value sources
const (
	HeatmapRandom     = "random"
	HeatmapExpression = "expression"
)

// HeatmapBuilder produces the genes x samples matrix behind the heatmap.
type HeatmapBuilder struct {
	rngPort ports.RNGPort
	source  string
}

// NewHeatmapBuilder creates a builder. source is HeatmapRandom or
// HeatmapExpression; anything else falls back to random.
func NewHeatmapBuilder(rngPort ports.RNGPort, source string) *HeatmapBuilder {
	if source != HeatmapExpression {
		source = HeatmapRandom
	}
	return &HeatmapBuilder{rngPort: rngPort, source: source}
}

// Source returns the configured value source
func (b *HeatmapBuilder) Source() string {
	return b.source
}

// Matrix returns one row per gene in the view and one column per sample in
// the table. Random values are Uniform[0, 1) seeded by the run seed, so the
// same view always gets the same picture.
func (b *HeatmapBuilder) Matrix(ctx context.Context, table *expression.ResultsTable, view expression.FilteredView) ([][]float64, error) {
	if table == nil {
		return nil, core.ErrNoResults
	}
	if view.Empty() {
		return nil, core.ErrEmptyView
	}

	samples := len(table.Samples)
	out := make([][]float64, view.Len())

	if b.source == HeatmapExpression {
		for i, idx := range view.Indices {
			row := make([]float64, samples)
			for j := 0; j < samples; j++ {
				row[j] = math.NaN()
				if idx < len(table.Expression) && j < len(table.Expression[idx]) {
					row[j] = math.Log2(table.Expression[idx][j] + 1)
				}
			}
			out[i] = row
		}
		return out, nil
	}

	stream, err := b.rngPort.Stream(ctx, HeatmapStream, table.Seed)
	if err != nil {
		return nil, err
	}
	dist := distuv.Uniform{Min: 0, Max: 1, Src: stream}
	for i := range out {
		row := make([]float64, samples)
		for j := range row {
			row[j] = dist.Rand()
		}
		out[i] = row
	}
	return out, nil
}
