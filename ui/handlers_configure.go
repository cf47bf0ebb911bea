package ui

import (
	"html/template"
	"net/http"

	"rnaseqde/domain/core"
	"rnaseqde/domain/expression"
	"rnaseqde/internal/errors"
	"rnaseqde/internal/session"

	"github.com/gin-gonic/gin"
)

// previewRows is how many rows of an upload are echoed back.
const previewRows = 5

type uploadView struct {
	Source     string                  `json:"source"`
	Format     expression.Format       `json:"format"`
	Columns    []string                `json:"columns"`
	Genes      int                     `json:"genes"`
	Preview    [][]string              `json:"preview"`
	Selection  expression.Selection    `json:"selection"`
	Conditions expression.ConditionMap `json:"conditions"`
}

func newUploadView(snap session.Snapshot) *uploadView {
	if snap.Upload == nil {
		return nil
	}
	m := snap.Upload.Matrix
	return &uploadView{
		Source:     snap.Upload.Source,
		Format:     snap.Upload.Format,
		Columns:    m.Headers,
		Genes:      m.NumGenes(),
		Preview:    m.Preview(previewRows),
		Selection:  snap.Selection,
		Conditions: snap.Conditions,
	}
}

// Selected reports whether a sample column is part of the selection.
func (v *uploadView) Selected(column string) bool {
	for _, s := range v.Selection.Samples {
		if s == column {
			return true
		}
	}
	return false
}

// Label returns the condition label typed for a sample.
func (v *uploadView) Label(sample string) string {
	return v.Conditions[sample]
}

// Partition shows which samples currently count as treated and untreated.
func (v *uploadView) Partition() map[string][]string {
	treated, untreated := v.Conditions.Partition(v.Selection.Samples)
	return map[string][]string{expression.ConditionTreated: treated, expression.ConditionUntreated: untreated}
}

type indexView struct {
	Upload     *uploadView
	Thresholds expression.FilterThresholds
	FDRCutoffs []float64
	HasResults bool
	Help       template.HTML
	PValueNote string
}

func (s *Server) handleIndex(c *gin.Context) {
	snap := currentSession(c).Snapshot()
	note := "p-values are simulated draws from Uniform[0, 0.05] and do not reflect the data."
	if s.service.Method() == expression.PValueWelch {
		note = "p-values come from a per-gene Welch t-test."
	}
	s.renderTemplate(c, http.StatusOK, "index.html", indexView{
		Upload:     newUploadView(snap),
		Thresholds: snap.Thresholds,
		FDRCutoffs: expression.AllowedFDRCutoffs,
		HasResults: snap.Results != nil,
		Help:       s.help,
		PValueNote: note,
	})
}

func (s *Server) handleUpload(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, s.cfg.MaxUploadBytes)

	fh, err := c.FormFile("file")
	if err != nil {
		s.fail(c, errors.Wrap(core.NewParseError("no count matrix received", err), "upload rejected"))
		return
	}

	format := expression.FormatFromFilename(fh.Filename)
	if declared := c.PostForm("format"); declared != "" {
		format, err = expression.ParseFormat(declared)
		if err != nil {
			s.fail(c, errors.Wrap(core.NewParseError("unsupported format", err), "upload rejected"))
			return
		}
	}

	file, err := fh.Open()
	if err != nil {
		s.fail(c, errors.Wrap(core.NewParseError("could not open upload", err), "upload rejected"))
		return
	}
	defer file.Close()

	m, err := s.reader.ReadMatrix(file, format)
	s.metrics.ObserveUpload(string(format), err)
	if err != nil {
		s.fail(c, errors.Wrapf(err, "failed to read %s", fh.Filename))
		return
	}

	sess := currentSession(c)
	sess.SetUpload(&session.Upload{Source: fh.Filename, Format: format, Matrix: m})
	s.logger.Info("session %s uploaded %s (%s, %d genes, %d columns)", sess.ID, fh.Filename, format, m.NumGenes(), len(m.Headers))

	view := newUploadView(sess.Snapshot())
	s.respond(c, "upload", view, view)
}

func (s *Server) handleConfigureColumns(c *gin.Context) {
	sel := expression.Selection{
		GeneColumn: c.PostForm("gene_column"),
		Samples:    c.PostFormArray("samples"),
	}
	sess := currentSession(c)
	if err := sess.SetSelection(sel); err != nil {
		s.fail(c, errors.Wrap(err, "invalid column selection"))
		return
	}

	view := newUploadView(sess.Snapshot())
	s.respond(c, "conditions", view, view)
}

func (s *Server) handleConfigureConditions(c *gin.Context) {
	sess := currentSession(c)
	snap := sess.Snapshot()

	conditions := expression.ConditionMap{}
	for _, sample := range snap.Selection.Samples {
		if label := c.PostForm("condition_" + sample); label != "" {
			conditions[sample] = label
		}
	}
	if err := sess.SetConditions(conditions); err != nil {
		s.fail(c, errors.Wrap(err, "invalid condition labels"))
		return
	}

	view := newUploadView(sess.Snapshot())
	s.respond(c, "mapping", view, view)
}
