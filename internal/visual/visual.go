// Package visual renders the heatmap, MA and volcano plots with go-echarts.
package visual

import (
	"bytes"
	"fmt"
	"io"
	"math"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"

	"rnaseqde/domain/core"
	"rnaseqde/domain/expression"
)

const (
	colorSignificant    = "#d62728"
	colorNotSignificant = "#7f7f7f"
	colorCoolLow        = "#3b4cc0"
	colorCoolMid        = "#dddddd"
	colorCoolHigh       = "#b40426"

	chartWidth  = "100%"
	chartHeight = "520px"

	seriesSignificant    = "significant"
	seriesNotSignificant = "not significant"
)

// Renderer is satisfied by every go-echarts chart and page.
type Renderer interface {
	Render(w io.Writer) error
}

// RenderHTML renders a chart into a standalone HTML document.
func RenderHTML(r Renderer) ([]byte, error) {
	var buf bytes.Buffer
	if err := r.Render(&buf); err != nil {
		return nil, fmt.Errorf("failed to render chart: %w", err)
	}
	return buf.Bytes(), nil
}

// HeatmapTitle is the title shown above the heatmap.
func HeatmapTitle(genes int) string {
	return fmt.Sprintf("Heatmap of %d Significant Genes", genes)
}

// Heatmap plots one cell per gene in the view and sample. values must be
// row-aligned with the view. An empty view has no heatmap.
func Heatmap(view expression.FilteredView, samples []string, values [][]float64) (*charts.HeatMap, error) {
	if view.Empty() {
		return nil, core.ErrEmptyView
	}
	if len(values) != view.Len() {
		return nil, fmt.Errorf("heatmap has %d rows for %d genes", len(values), view.Len())
	}

	genes := view.Genes()
	data := make([]opts.HeatMapData, 0, len(genes)*len(samples))
	lo, hi := math.Inf(1), math.Inf(-1)
	for i, row := range values {
		for j := range samples {
			if j >= len(row) || math.IsNaN(row[j]) || math.IsInf(row[j], 0) {
				continue
			}
			v := row[j]
			lo = math.Min(lo, v)
			hi = math.Max(hi, v)
			data = append(data, opts.HeatMapData{Value: [3]interface{}{j, i, v}, Name: genes[i]})
		}
	}
	if len(data) == 0 {
		lo, hi = 0, 1
	}
	if lo == hi {
		hi = lo + 1
	}

	hm := charts.NewHeatMap()
	hm.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{Width: chartWidth, Height: heatmapHeight(len(genes))}),
		charts.WithTitleOpts(opts.Title{Title: HeatmapTitle(len(genes))}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithXAxisOpts(opts.XAxis{
			Type:      "category",
			Data:      samples,
			SplitArea: &opts.SplitArea{Show: opts.Bool(true)},
		}),
		charts.WithYAxisOpts(opts.YAxis{
			Type:      "category",
			Data:      genes,
			SplitArea: &opts.SplitArea{Show: opts.Bool(true)},
		}),
		charts.WithVisualMapOpts(opts.VisualMap{
			Calculable: opts.Bool(true),
			Min:        float32(lo),
			Max:        float32(hi),
			InRange:    &opts.VisualMapInRange{Color: []string{colorCoolLow, colorCoolMid, colorCoolHigh}},
		}),
	)
	hm.SetXAxis(samples).AddSeries("expression", data)
	return hm, nil
}

func heatmapHeight(genes int) string {
	px := 120 + 18*genes
	if px < 360 {
		px = 360
	}
	if px > 2400 {
		px = 2400
	}
	return fmt.Sprintf("%dpx", px)
}

// MAPlot draws BaseMean against Log2FoldChange for every gene, split on the
// FDR cutoff.
func MAPlot(table *expression.ResultsTable, fdrCutoff float64) (*charts.Scatter, error) {
	if table == nil {
		return nil, core.ErrNoResults
	}
	sig, rest := splitPoints(table.Rows, fdrCutoff, func(r expression.ResultRow) (float64, float64) {
		return r.BaseMean, r.Log2FoldChange
	})
	return scatter("MA Plot with Significant Genes Highlighted", "BaseMean", "Log2FoldChange", sig, rest), nil
}

// VolcanoPlot draws Log2FoldChange against -log10(pvalue) for every gene.
// Genes with p = 0 have no finite position and are left out.
func VolcanoPlot(table *expression.ResultsTable, fdrCutoff float64) (*charts.Scatter, error) {
	if table == nil {
		return nil, core.ErrNoResults
	}
	sig, rest := splitPoints(table.Rows, fdrCutoff, func(r expression.ResultRow) (float64, float64) {
		return r.Log2FoldChange, -math.Log10(r.PValue)
	})
	return scatter("Volcano Plot with Hover Functionality", "Log2FoldChange", "-log10(pvalue)", sig, rest), nil
}

type pointFunc func(expression.ResultRow) (x, y float64)

func splitPoints(rows []expression.ResultRow, fdrCutoff float64, point pointFunc) (sig, rest []opts.ScatterData) {
	sig = []opts.ScatterData{}
	rest = []opts.ScatterData{}
	for _, r := range rows {
		x, y := point(r)
		if !finite(x) || !finite(y) {
			continue
		}
		d := opts.ScatterData{Name: r.Gene, Value: []interface{}{x, y}}
		if r.Significant(fdrCutoff) {
			sig = append(sig, d)
		} else {
			rest = append(rest, d)
		}
	}
	return sig, rest
}

func scatter(title, xName, yName string, sig, rest []opts.ScatterData) *charts.Scatter {
	sc := charts.NewScatter()
	sc.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{Width: chartWidth, Height: chartHeight}),
		charts.WithTitleOpts(opts.Title{Title: title}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "item"}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true), Right: "10"}),
		charts.WithXAxisOpts(opts.XAxis{Type: "value", Name: xName, Scale: opts.Bool(true)}),
		charts.WithYAxisOpts(opts.YAxis{Type: "value", Name: yName, Scale: opts.Bool(true)}),
	)
	sc.AddSeries(seriesNotSignificant, rest, charts.WithItemStyleOpts(opts.ItemStyle{Color: colorNotSignificant}))
	sc.AddSeries(seriesSignificant, sig, charts.WithItemStyleOpts(opts.ItemStyle{Color: colorSignificant}))
	return sc
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
