package expression

// FilteredView is a read-only subset of a ResultsTable.
type FilteredView struct {
	Thresholds FilterThresholds
	Rows       []ResultRow
	// Indices are the positions of Rows in the source table.
	Indices []int
	Total   int
}

// Filter keeps rows with FDR <= cutoff, BaseMean >= cutoff and
// |Log2FoldChange| >= cutoff. The table is not modified.
func Filter(table *ResultsTable, thresholds FilterThresholds) FilteredView {
	view := FilteredView{Thresholds: thresholds, Rows: []ResultRow{}, Indices: []int{}}
	if table == nil {
		return view
	}
	view.Total = len(table.Rows)
	for i, row := range table.Rows {
		if row.Passes(thresholds) {
			view.Rows = append(view.Rows, row)
			view.Indices = append(view.Indices, i)
		}
	}
	return view
}

// Refilter applies thresholds to an existing view, keeping source indices.
func (v FilteredView) Refilter(thresholds FilterThresholds) FilteredView {
	out := FilteredView{Thresholds: thresholds, Rows: []ResultRow{}, Indices: []int{}, Total: v.Total}
	for i, row := range v.Rows {
		if row.Passes(thresholds) {
			out.Rows = append(out.Rows, row)
			if i < len(v.Indices) {
				out.Indices = append(out.Indices, v.Indices[i])
			}
		}
	}
	return out
}

// Len returns the number of rows in the view.
func (v FilteredView) Len() int { return len(v.Rows) }

// Empty reports whether no gene passed.
func (v FilteredView) Empty() bool { return len(v.Rows) == 0 }

// Genes returns the gene identifiers in view order.
func (v FilteredView) Genes() []string {
	genes := make([]string, len(v.Rows))
	for i, row := range v.Rows {
		genes[i] = row.Gene
	}
	return genes
}
