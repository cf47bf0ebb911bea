package api

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"rnaseqde/app"
	"rnaseqde/domain/core"
	"rnaseqde/domain/expression"
	"rnaseqde/internal/errors"

	"github.com/tidwall/gjson"
)

// AnalyzeResponse is the body of POST /v1/analyze
type AnalyzeResponse struct {
	RunID        string                      `json:"run_id"`
	Seed         int64                       `json:"seed"`
	PValueMethod expression.PValueMethod     `json:"pvalue_method"`
	Genes        int                         `json:"genes"`
	Treated      []string                    `json:"treated"`
	Untreated    []string                    `json:"untreated"`
	Thresholds   expression.FilterThresholds `json:"thresholds"`
	Significant  int                         `json:"significant"`
	Results      []expression.ResultRow      `json:"results"`
	Filtered     []expression.ResultRow      `json:"filtered"`
}

func (h *Handler) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes)
	if err := r.ParseMultipartForm(h.maxUploadBytes); err != nil {
		h.writeError(w, r, errors.Wrap(core.NewParseError("expected a multipart upload", err), "analyze rejected"))
		return
	}

	file, fh, err := r.FormFile("file")
	if err != nil {
		h.writeError(w, r, errors.Wrap(core.NewParseError("no count matrix received", err), "analyze rejected"))
		return
	}
	defer file.Close()

	format := expression.FormatFromFilename(fh.Filename)
	if declared := r.FormValue("format"); declared != "" {
		format, err = expression.ParseFormat(declared)
		if err != nil {
			h.writeError(w, r, errors.Wrap(core.NewParseError("unsupported format", err), "analyze rejected"))
			return
		}
	}

	conditions, err := parseConditions(r.FormValue("conditions"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	thresholds, err := parseThresholds(r)
	if err != nil {
		h.writeError(w, r, errors.Wrap(err, "analyze rejected"))
		return
	}
	seed, err := parseSeed(r.FormValue("seed"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	m, err := h.reader.ReadMatrix(file, format)
	h.metrics.ObserveUpload(string(format), err)
	if err != nil {
		h.writeError(w, r, errors.Wrapf(err, "failed to read %s", fh.Filename))
		return
	}

	sel := expression.Selection{
		GeneColumn: r.FormValue("gene_column"),
		Samples:    sampleList(r.MultipartForm.Value["samples"]),
	}
	if len(sel.Samples) == 0 {
		sel.Samples = labeledColumns(m, sel.GeneColumn, conditions)
	}

	table, err := h.service.Run(r.Context(), app.RunRequest{
		Source:     fh.Filename,
		Matrix:     m,
		Selection:  sel,
		Conditions: conditions,
		Seed:       seed,
	})
	if err != nil {
		h.writeError(w, r, errors.Wrap(err, "differential expression failed"))
		return
	}

	view := expression.Filter(table, thresholds)
	writeJSON(w, http.StatusOK, AnalyzeResponse{
		RunID:        table.RunID.String(),
		Seed:         table.Seed,
		PValueMethod: table.PValueMethod,
		Genes:        table.Len(),
		Treated:      table.Treated,
		Untreated:    table.Untreated,
		Thresholds:   thresholds,
		Significant:  view.Len(),
		Results:      table.Rows,
		Filtered:     view.Rows,
	})
}

// parseConditions reads a JSON object of sample name to condition label.
func parseConditions(raw string) (expression.ConditionMap, error) {
	conditions := expression.ConditionMap{}
	if strings.TrimSpace(raw) == "" {
		return conditions, nil
	}
	parsed := gjson.Parse(raw)
	if !gjson.Valid(raw) || !parsed.IsObject() {
		return nil, errors.ValidationError("conditions must be a JSON object of sample to label")
	}

	var err error
	parsed.ForEach(func(key, value gjson.Result) bool {
		if value.Type != gjson.String {
			err = errors.ValidationError(fmt.Sprintf("condition for %s must be a string", key.String()))
			return false
		}
		conditions[key.String()] = value.String()
		return true
	})
	if err != nil {
		return nil, err
	}
	return conditions, nil
}

func parseThresholds(r *http.Request) (expression.FilterThresholds, error) {
	t := expression.DefaultThresholds()
	fields := []struct {
		key string
		dst *float64
	}{
		{"fdr", &t.FDRCutoff},
		{"base_mean", &t.BaseMeanCutoff},
		{"log2fc", &t.Log2FCCutoff},
	}
	for _, f := range fields {
		raw := r.FormValue(f.key)
		if raw == "" {
			continue
		}
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return t, fmt.Errorf("%w: %s must be a number, got %q", core.ErrThresholds, f.key, raw)
		}
		*f.dst = v
	}
	return t, t.Validate()
}

func parseSeed(raw string) (*int64, error) {
	if raw == "" {
		return nil, nil
	}
	seed, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return nil, errors.ValidationError(fmt.Sprintf("seed must be an integer, got %q", raw))
	}
	return &seed, nil
}

// sampleList accepts repeated fields as well as comma separated values.
func sampleList(values []string) []string {
	var out []string
	for _, v := range values {
		for _, s := range strings.Split(v, ",") {
			if s = strings.TrimSpace(s); s != "" {
				out = append(out, s)
			}
		}
	}
	return out
}

// labeledColumns picks every labeled column except the gene column, in
// header order.
func labeledColumns(m *expression.CountMatrix, geneColumn string, conditions expression.ConditionMap) []string {
	var out []string
	for _, h := range m.Headers {
		if h == geneColumn {
			continue
		}
		if _, ok := conditions[h]; ok {
			out = append(out, h)
		}
	}
	return out
}
