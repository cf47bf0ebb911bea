package visual

import (
	"bytes"
	"context"
	"errors"
	"fmt"

	"github.com/go-echarts/go-echarts/v2/components"
	"golang.org/x/sync/errgroup"

	"rnaseqde/domain/core"
	"rnaseqde/domain/expression"
)

// ReportInput is everything needed to draw the three plots of one run.
type ReportInput struct {
	Title   string
	Table   *expression.ResultsTable
	View    expression.FilteredView
	Heatmap [][]float64
}

// BuildReport renders the heatmap, MA plot and volcano plot onto one HTML
// page. The charts are built concurrently. An empty view drops the heatmap
// and keeps the two scatter plots.
func BuildReport(ctx context.Context, in ReportInput) ([]byte, error) {
	if in.Table == nil {
		return nil, core.ErrNoResults
	}
	cutoff := in.View.Thresholds.FDRCutoff

	var (
		heat    components.Charter
		ma      components.Charter
		volcano components.Charter
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := gctx.Err(); err != nil {
			return err
		}
		hm, err := Heatmap(in.View, in.Table.Samples, in.Heatmap)
		if errors.Is(err, core.ErrEmptyView) {
			return nil
		}
		if err != nil {
			return err
		}
		heat = hm
		return nil
	})
	g.Go(func() error {
		if err := gctx.Err(); err != nil {
			return err
		}
		sc, err := MAPlot(in.Table, cutoff)
		if err != nil {
			return err
		}
		ma = sc
		return nil
	})
	g.Go(func() error {
		if err := gctx.Err(); err != nil {
			return err
		}
		sc, err := VolcanoPlot(in.Table, cutoff)
		if err != nil {
			return err
		}
		volcano = sc
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("failed to build report: %w", err)
	}

	page := components.NewPage()
	if in.Title != "" {
		page.SetPageTitle(in.Title)
	}
	page.SetLayout(components.PageFlexLayout)
	for _, c := range []components.Charter{heat, ma, volcano} {
		if c != nil {
			page.AddCharts(c)
		}
	}

	var buf bytes.Buffer
	if err := page.Render(&buf); err != nil {
		return nil, fmt.Errorf("failed to render report: %w", err)
	}
	return buf.Bytes(), nil
}
