package expression

import (
	"strings"

	"rnaseqde/domain/core"
)

// Labels that take part in the comparison. Any other label is ignored.
const (
	ConditionTreated   = "treated"
	ConditionUntreated = "untreated"
)

// Selection is the user's choice of identifier column and sample columns.
type Selection struct {
	GeneColumn string   `json:"gene_column"`
	Samples    []string `json:"samples"`
}

// ConditionMap maps a sample column to a free-text condition label.
type ConditionMap map[string]string

// Partition splits samples into treated and untreated groups using a
// case-insensitive exact match. Unlabeled samples and other labels are skipped.
func (c ConditionMap) Partition(samples []string) (treated, untreated []string) {
	for _, sample := range samples {
		label, ok := c[sample]
		if !ok || label == "" {
			continue
		}
		switch {
		case strings.EqualFold(label, ConditionTreated):
			treated = append(treated, sample)
		case strings.EqualFold(label, ConditionUntreated):
			untreated = append(untreated, sample)
		}
	}
	return treated, untreated
}

// Comparison is a validated two-group design ready for the pipeline.
type Comparison struct {
	GeneColumn string
	Samples    []string
	Treated    []string
	Untreated  []string
}

// PlanComparison validates a selection and labeling against a matrix.
// It returns a configuration error instead of letting the pipeline compute
// means over an empty group.
func PlanComparison(m *CountMatrix, sel Selection, conditions ConditionMap) (Comparison, error) {
	if m == nil {
		return Comparison{}, core.ErrNoUpload
	}
	if sel.GeneColumn == "" || !m.HasColumn(sel.GeneColumn) {
		return Comparison{}, core.NewConfigurationError("select a gene ID column present in the uploaded file")
	}
	if len(sel.Samples) == 0 {
		return Comparison{}, core.NewConfigurationError("select sample columns containing expression data")
	}
	for _, sample := range sel.Samples {
		if !m.HasColumn(sample) {
			return Comparison{}, core.NewConfigurationError("sample column " + sample + " is not in the uploaded file")
		}
	}

	treated, untreated := conditions.Partition(sel.Samples)
	if len(treated) == 0 || len(untreated) == 0 {
		return Comparison{}, core.NewConfigurationError("ensure at least one sample for both treated and untreated conditions")
	}

	return Comparison{
		GeneColumn: sel.GeneColumn,
		Samples:    append([]string(nil), sel.Samples...),
		Treated:    treated,
		Untreated:  untreated,
	}, nil
}
