// Package analysis computes the per-gene differential expression statistics.
package analysis

import (
	"context"
	"fmt"

	"rnaseqde/adapters/datareadiness/coercer"
	"rnaseqde/domain/expression"
)

// Engine turns a validated comparison over a count matrix into result rows.
type Engine struct {
	coercer *coercer.NumericCoercer
}

// NewEngine creates an engine with the given numeric coercion rules
func NewEngine(c *coercer.NumericCoercer) *Engine {
	if c == nil {
		c = coercer.NewNumericCoercer(coercer.DefaultCoercionConfig())
	}
	return &Engine{coercer: c}
}

// Outcome is everything one engine run produces
type Outcome struct {
	Rows []expression.ResultRow
	// Expression is genes x comparison samples, NaN where missing.
	Expression [][]float64
	Coercion   map[string]coercer.ColumnReport
}

// Run coerces the sample columns, computes group means, fold change, base
// mean, p-values and BH-adjusted FDR, one row per matrix row.
func (e *Engine) Run(ctx context.Context, m *expression.CountMatrix, cmp expression.Comparison, pvalues PValueSource) (*Outcome, error) {
	if pvalues == nil {
		return nil, fmt.Errorf("no p-value source configured")
	}

	genes, err := m.Column(cmp.GeneColumn)
	if err != nil {
		return nil, err
	}

	columns := make(map[string][]float64, len(cmp.Samples))
	reports := make(map[string]coercer.ColumnReport, len(cmp.Samples))
	for _, sample := range cmp.Samples {
		raw, err := m.Column(sample)
		if err != nil {
			return nil, err
		}
		columns[sample], reports[sample] = e.coercer.CoerceColumn(raw)
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	n := len(genes)
	groups := make([]GroupValues, n)
	rows := make([]expression.ResultRow, n)
	exprMatrix := make([][]float64, n)
	for i := 0; i < n; i++ {
		treated := gather(columns, cmp.Treated, i)
		untreated := gather(columns, cmp.Untreated, i)
		treatedMean := GroupMean(treated)
		untreatedMean := GroupMean(untreated)

		rows[i] = expression.ResultRow{
			Gene:           genes[i],
			BaseMean:       BaseMean(treatedMean, untreatedMean),
			Log2FoldChange: Log2FoldChange(treatedMean, untreatedMean),
		}
		groups[i] = GroupValues{Treated: Available(treated), Untreated: Available(untreated)}
		exprMatrix[i] = gather(columns, cmp.Samples, i)
	}

	pv := pvalues.PValues(groups)
	if len(pv) != n {
		return nil, fmt.Errorf("p-value source returned %d values for %d genes", len(pv), n)
	}
	fdr := BenjaminiHochberg(pv)
	for i := range rows {
		rows[i].PValue = pv[i]
		rows[i].FDR = fdr[i]
	}

	return &Outcome{Rows: rows, Expression: exprMatrix, Coercion: reports}, nil
}

func gather(columns map[string][]float64, samples []string, row int) []float64 {
	out := make([]float64, len(samples))
	for j, s := range samples {
		out[j] = columns[s][row]
	}
	return out
}
