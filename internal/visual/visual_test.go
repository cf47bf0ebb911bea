package visual

import (
	"context"
	"math"
	"strings"
	"testing"

	"rnaseqde/domain/core"
	"rnaseqde/domain/expression"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func resultsFixture() *expression.ResultsTable {
	return &expression.ResultsTable{
		Seed:    1,
		Samples: []string{"T1", "T2", "U1", "U2"},
		Rows: []expression.ResultRow{
			{Gene: "BRCA1", BaseMean: 120, Log2FoldChange: 2.5, PValue: 0.0001, FDR: 0.0004},
			{Gene: "TP53", BaseMean: 40, Log2FoldChange: -1.2, PValue: 0.004, FDR: 0.008},
			{Gene: "ACTB", BaseMean: 900, Log2FoldChange: 0.1, PValue: 0.04, FDR: 0.04},
			{Gene: "NOPE", BaseMean: math.NaN(), Log2FoldChange: math.NaN(), PValue: 0.02, FDR: 0.03},
			{Gene: "ZERO", BaseMean: 15, Log2FoldChange: 1, PValue: 0, FDR: 0},
		},
	}
}

func TestHeatmap(t *testing.T) {
	table := resultsFixture()
	view := expression.Filter(table, expression.DefaultThresholds())
	require.Equal(t, 3, view.Len())

	values := [][]float64{{0.1, 0.2, 0.3, 0.4}, {0.5, 0.6, math.NaN(), 0.8}, {0.9, 0, 0.1, 0.2}}
	hm, err := Heatmap(view, table.Samples, values)
	require.NoError(t, err)

	html, err := RenderHTML(hm)
	require.NoError(t, err)
	assert.Contains(t, string(html), HeatmapTitle(3))
	assert.Contains(t, string(html), "BRCA1")
}

func TestHeatmap_Errors(t *testing.T) {
	table := resultsFixture()

	empty := expression.Filter(table, expression.FilterThresholds{FDRCutoff: 0.001, BaseMeanCutoff: 1e9})
	_, err := Heatmap(empty, table.Samples, nil)
	assert.ErrorIs(t, err, core.ErrEmptyView)

	view := expression.Filter(table, expression.DefaultThresholds())
	_, err = Heatmap(view, table.Samples, [][]float64{{1}})
	assert.Error(t, err)
}

func TestScatterPlots(t *testing.T) {
	table := resultsFixture()

	ma, err := MAPlot(table, 0.01)
	require.NoError(t, err)
	html, err := RenderHTML(ma)
	require.NoError(t, err)
	assert.Contains(t, string(html), "MA Plot with Significant Genes Highlighted")
	assert.Contains(t, string(html), "TP53")
	assert.NotContains(t, string(html), "NOPE")

	volcano, err := VolcanoPlot(table, 0.01)
	require.NoError(t, err)
	html, err = RenderHTML(volcano)
	require.NoError(t, err)
	assert.Contains(t, string(html), "Volcano Plot")
	assert.NotContains(t, string(html), "ZERO")

	_, err = MAPlot(nil, 0.01)
	assert.ErrorIs(t, err, core.ErrNoResults)
}

func TestSplitPoints(t *testing.T) {
	sig, rest := splitPoints(resultsFixture().Rows, 0.01, func(r expression.ResultRow) (float64, float64) {
		return r.BaseMean, r.Log2FoldChange
	})

	assert.Len(t, sig, 3)
	assert.Len(t, rest, 1)
	assert.Equal(t, "ACTB", rest[0].Name)
}

func TestBuildReport(t *testing.T) {
	table := resultsFixture()
	view := expression.Filter(table, expression.DefaultThresholds())
	values := [][]float64{{0.1, 0.2, 0.3, 0.4}, {0.5, 0.6, 0.7, 0.8}, {0.9, 0, 0.1, 0.2}}

	html, err := BuildReport(context.Background(), ReportInput{Title: "run report", Table: table, View: view, Heatmap: values})
	require.NoError(t, err)
	page := string(html)
	assert.Contains(t, page, HeatmapTitle(3))
	assert.Contains(t, page, "MA Plot")
	assert.Contains(t, page, "Volcano Plot")
	assert.True(t, strings.Index(page, HeatmapTitle(3)) < strings.Index(page, "MA Plot"))
}

func TestBuildReport_EmptyViewSkipsHeatmap(t *testing.T) {
	table := resultsFixture()
	view := expression.Filter(table, expression.FilterThresholds{FDRCutoff: 0.001, BaseMeanCutoff: 1e9})

	html, err := BuildReport(context.Background(), ReportInput{Table: table, View: view})
	require.NoError(t, err)
	assert.NotContains(t, string(html), "Heatmap of")
	assert.Contains(t, string(html), "MA Plot")
}

func TestBuildReport_NoResults(t *testing.T) {
	_, err := BuildReport(context.Background(), ReportInput{})
	assert.ErrorIs(t, err, core.ErrNoResults)
}
