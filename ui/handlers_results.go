package ui

import (
	"bytes"
	stderrors "errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"rnaseqde/adapters/excel"
	"rnaseqde/app"
	"rnaseqde/domain/core"
	"rnaseqde/domain/expression"
	"rnaseqde/internal/errors"
	"rnaseqde/internal/visual"

	"github.com/gin-gonic/gin"
)

const (
	csvFilename  = "DE_results.csv"
	xlsxFilename = "DE_results.xlsx"
	xlsxMIME     = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

type runView struct {
	RunID        string                  `json:"run_id"`
	Seed         int64                   `json:"seed"`
	Genes        int                     `json:"genes"`
	Treated      []string                `json:"treated"`
	Untreated    []string                `json:"untreated"`
	PValueMethod expression.PValueMethod `json:"pvalue_method"`
}

type resultsView struct {
	Thresholds  expression.FilterThresholds `json:"thresholds"`
	Total       int                         `json:"total"`
	Significant int                         `json:"significant"`
	Seed        int64                       `json:"seed"`
	Results     []expression.ResultRow      `json:"results"`
	FDRCutoffs  []float64                   `json:"-"`
}

func (s *Server) handleRun(c *gin.Context) {
	sess := currentSession(c)
	snap := sess.Snapshot()
	if snap.Upload == nil {
		s.fail(c, errors.Wrap(core.ErrNoUpload, "nothing to analyze"))
		return
	}

	req := app.RunRequest{
		SessionID:  sess.ID,
		Source:     snap.Upload.Source,
		Matrix:     snap.Upload.Matrix,
		Selection:  snap.Selection,
		Conditions: snap.Conditions,
	}
	if raw := c.PostForm("seed"); raw != "" {
		seed, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			s.fail(c, errors.ValidationError(fmt.Sprintf("seed must be an integer, got %q", raw)))
			return
		}
		req.Seed = &seed
	}

	table, err := s.service.Run(c.Request.Context(), req)
	if err != nil {
		s.fail(c, errors.Wrap(err, "differential expression failed"))
		return
	}
	sess.SetResults(table)

	view := runView{
		RunID:        table.RunID.String(),
		Seed:         table.Seed,
		Genes:        table.Len(),
		Treated:      table.Treated,
		Untreated:    table.Untreated,
		PValueMethod: table.PValueMethod,
	}
	if isHTMX(c) {
		c.Header("HX-Trigger", "resultsUpdated")
	}
	s.respond(c, "run", view, view)
}

// filteredResults applies the thresholds from the query, falling back to the
// session's last thresholds for any that are missing.
func (s *Server) filteredResults(c *gin.Context) (*expression.ResultsTable, expression.FilteredView, error) {
	sess := currentSession(c)
	thresholds, err := parseThresholds(c, sess.Snapshot().Thresholds)
	if err != nil {
		return nil, expression.FilteredView{}, err
	}
	if err := sess.SetThresholds(thresholds); err != nil {
		return nil, expression.FilteredView{}, err
	}
	table, err := sess.Results()
	if err != nil {
		return nil, expression.FilteredView{}, err
	}
	return table, expression.Filter(table, thresholds), nil
}

func parseThresholds(c *gin.Context, current expression.FilterThresholds) (expression.FilterThresholds, error) {
	out := current
	fields := []struct {
		key string
		dst *float64
	}{
		{"fdr", &out.FDRCutoff},
		{"base_mean", &out.BaseMeanCutoff},
		{"log2fc", &out.Log2FCCutoff},
	}
	for _, f := range fields {
		raw, ok := c.GetQuery(f.key)
		if !ok || raw == "" {
			continue
		}
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return current, fmt.Errorf("%w: %s must be a number, got %q", core.ErrThresholds, f.key, raw)
		}
		*f.dst = v
	}
	return out, out.Validate()
}

func (s *Server) handleResults(c *gin.Context) {
	table, view, err := s.filteredResults(c)
	if err != nil {
		s.fail(c, errors.Wrap(err, "cannot show results"))
		return
	}

	body := resultsView{
		Thresholds:  view.Thresholds,
		Total:       view.Total,
		Significant: view.Len(),
		Seed:        table.Seed,
		Results:     view.Rows,
		FDRCutoffs:  expression.AllowedFDRCutoffs,
	}
	s.respond(c, "results", body, body)
}

func (s *Server) handlePlot(c *gin.Context) {
	table, view, err := s.filteredResults(c)
	if err != nil {
		s.fail(c, errors.Wrap(err, "cannot draw plot"))
		return
	}

	var chart visual.Renderer
	switch kind := c.Param("kind"); kind {
	case "heatmap":
		values, err := s.heatmaps.Matrix(c.Request.Context(), table, view)
		if stderrors.Is(err, core.ErrEmptyView) {
			s.renderTemplate(c, http.StatusOK, "empty_plot", view.Thresholds)
			return
		}
		if err != nil {
			s.fail(c, errors.Wrap(err, "heatmap failed"))
			return
		}
		chart, err = visual.Heatmap(view, table.Samples, values)
		if err != nil {
			s.fail(c, errors.Wrap(err, "heatmap failed"))
			return
		}
	case "ma":
		chart, err = visual.MAPlot(table, view.Thresholds.FDRCutoff)
	case "volcano":
		chart, err = visual.VolcanoPlot(table, view.Thresholds.FDRCutoff)
	default:
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": fmt.Sprintf("unknown plot %q", kind)})
		return
	}
	if err != nil {
		s.fail(c, errors.Wrap(err, "plot failed"))
		return
	}

	html, err := visual.RenderHTML(chart)
	if err != nil {
		s.fail(c, errors.Wrap(err, "plot failed"))
		return
	}
	c.Data(http.StatusOK, "text/html; charset=utf-8", html)
}

func (s *Server) handleDownloadCSV(c *gin.Context) {
	s.download(c, "csv", csvFilename, "text/csv; charset=utf-8", excel.WriteCSV)
}

func (s *Server) handleDownloadXLSX(c *gin.Context) {
	s.download(c, "xlsx", xlsxFilename, xlsxMIME, excel.WriteXLSX)
}

func (s *Server) download(c *gin.Context, format, filename, contentType string, write func(w io.Writer, rows []expression.ResultRow) error) {
	_, view, err := s.filteredResults(c)
	if err != nil {
		s.fail(c, errors.Wrap(err, "nothing to download"))
		return
	}

	var buf bytes.Buffer
	if err := write(&buf, view.Rows); err != nil {
		s.fail(c, errors.Wrapf(err, "failed to export %s", format))
		return
	}
	s.metrics.ObserveDownload(format)

	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))
	c.Data(http.StatusOK, contentType, buf.Bytes())
}
