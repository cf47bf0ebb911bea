package expression

import (
	"encoding/json"
	"fmt"
	"math"
	"time"

	"rnaseqde/domain/core"
)

// PValueMethod names how per-gene p-values were produced.
type PValueMethod string

const (
	// PValueSimulated draws p-values uniformly from [0, 0.05]. It is a
	// placeholder kept until a real test is signed off.
	PValueSimulated PValueMethod = "simulated"
	// PValueWelch runs a per-gene Welch t-test on the available values.
	PValueWelch PValueMethod = "welch"
)

// ParsePValueMethod validates a configured method name.
func ParsePValueMethod(s string) (PValueMethod, error) {
	switch PValueMethod(s) {
	case PValueSimulated, PValueWelch:
		return PValueMethod(s), nil
	case "":
		return PValueSimulated, nil
	default:
		return "", fmt.Errorf("unknown p-value method %q", s)
	}
}

// ResultRow is one gene of the results table.
type ResultRow struct {
	Gene           string
	BaseMean       float64
	Log2FoldChange float64
	PValue         float64
	FDR            float64
}

// MarshalJSON writes missing values as null.
func (r ResultRow) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Gene           string   `json:"gene"`
		BaseMean       *float64 `json:"base_mean"`
		Log2FoldChange *float64 `json:"log2_fold_change"`
		PValue         *float64 `json:"pvalue"`
		FDR            *float64 `json:"fdr"`
	}{
		Gene:           r.Gene,
		BaseMean:       finiteOrNil(r.BaseMean),
		Log2FoldChange: finiteOrNil(r.Log2FoldChange),
		PValue:         finiteOrNil(r.PValue),
		FDR:            finiteOrNil(r.FDR),
	})
}

func finiteOrNil(v float64) *float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}

// Significant reports whether the gene's FDR passes the cutoff.
func (r ResultRow) Significant(fdrCutoff float64) bool {
	return r.FDR <= fdrCutoff
}

// Passes applies all three thresholds. NaN fields never pass.
func (r ResultRow) Passes(t FilterThresholds) bool {
	return r.FDR <= t.FDRCutoff &&
		r.BaseMean >= t.BaseMeanCutoff &&
		math.Abs(r.Log2FoldChange) >= t.Log2FCCutoff
}

// ResultsTable is the output of one pipeline run. It is never modified after
// the pipeline returns it; filtering produces a separate view.
type ResultsTable struct {
	RunID        core.RunID
	Seed         int64
	CreatedAt    time.Time
	PValueMethod PValueMethod
	Samples      []string
	Treated      []string
	Untreated    []string
	Rows         []ResultRow
	// Expression holds the coerced sample values, row-aligned with Rows and
	// column-aligned with Samples.
	Expression [][]float64
}

// Len returns the number of genes.
func (t *ResultsTable) Len() int {
	if t == nil {
		return 0
	}
	return len(t.Rows)
}

// AllowedFDRCutoffs are the only FDR cutoffs offered by the dashboard.
var AllowedFDRCutoffs = []float64{0.001, 0.01, 0.05}

// FilterThresholds are the user-adjustable filters.
type FilterThresholds struct {
	FDRCutoff      float64 `json:"fdr"`
	BaseMeanCutoff float64 `json:"base_mean"`
	Log2FCCutoff   float64 `json:"log2fc"`
}

// DefaultThresholds returns FDR 0.01, base mean 10 and |log2FC| 0.5.
func DefaultThresholds() FilterThresholds {
	return FilterThresholds{
		FDRCutoff:      0.01,
		BaseMeanCutoff: 10,
		Log2FCCutoff:   0.5,
	}
}

// Validate checks the thresholds against the allowed domain.
func (t FilterThresholds) Validate() error {
	allowed := false
	for _, c := range AllowedFDRCutoffs {
		if t.FDRCutoff == c {
			allowed = true
			break
		}
	}
	if !allowed {
		return fmt.Errorf("%w: FDR cutoff must be one of %v, got %v", core.ErrThresholds, AllowedFDRCutoffs, t.FDRCutoff)
	}
	if math.IsNaN(t.BaseMeanCutoff) || t.BaseMeanCutoff < 0 {
		return fmt.Errorf("%w: minimum base mean must be non-negative", core.ErrThresholds)
	}
	if math.IsNaN(t.Log2FCCutoff) || t.Log2FCCutoff < 0 {
		return fmt.Errorf("%w: minimum |log2 fold change| must be non-negative", core.ErrThresholds)
	}
	return nil
}
