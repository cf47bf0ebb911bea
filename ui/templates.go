package ui

import (
	"bytes"
	"fmt"
	"html/template"
	"io/fs"
	"math"
	"net/http"
	"net/url"
	"strconv"

	"rnaseqde/domain/expression"
	"rnaseqde/internal/errors"

	"github.com/gin-gonic/gin"
	"github.com/gomarkdown/markdown"
	mdhtml "github.com/gomarkdown/markdown/html"
	"github.com/gomarkdown/markdown/parser"
)

func templateFuncs() template.FuncMap {
	return template.FuncMap{
		"num": func(v float64) string {
			if math.IsNaN(v) {
				return "NA"
			}
			return strconv.FormatFloat(v, 'f', 3, 64)
		},
		"sci": func(v float64) string {
			if math.IsNaN(v) {
				return "NA"
			}
			return strconv.FormatFloat(v, 'e', 2, 64)
		},
		"thresholdQuery": thresholdQuery,
		"fmtCutoff": func(v float64) string {
			return strconv.FormatFloat(v, 'g', -1, 64)
		},
		"eq64": func(a, b float64) bool { return a == b },
		"add":  func(a, b int) int { return a + b },
	}
}

// thresholdQuery encodes thresholds for plot and download links.
func thresholdQuery(t expression.FilterThresholds) template.URL {
	q := url.Values{}
	q.Set("fdr", strconv.FormatFloat(t.FDRCutoff, 'g', -1, 64))
	q.Set("base_mean", strconv.FormatFloat(t.BaseMeanCutoff, 'g', -1, 64))
	q.Set("log2fc", strconv.FormatFloat(t.Log2FCCutoff, 'g', -1, 64))
	return template.URL(q.Encode())
}

// renderHelp turns the methods note into HTML once at startup.
func renderHelp(fsys fs.FS, name string) (template.HTML, error) {
	md, err := fs.ReadFile(fsys, name)
	if err != nil {
		return "", fmt.Errorf("failed to read %s: %w", name, err)
	}
	p := parser.NewWithExtensions(parser.CommonExtensions | parser.AutoHeadingIDs)
	renderer := mdhtml.NewRenderer(mdhtml.RendererOptions{Flags: mdhtml.CommonFlags | mdhtml.HrefTargetBlank})
	return template.HTML(markdown.Render(p.Parse(md), renderer)), nil
}

// renderTemplate renders to a buffer first so a template error never leaves a
// half-written response.
func (s *Server) renderTemplate(c *gin.Context, status int, name string, data interface{}) {
	var buf bytes.Buffer
	if err := s.templates.ExecuteTemplate(&buf, name, data); err != nil {
		s.logger.Error("template %s failed: %v", name, err)
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "template rendering failed"})
		return
	}
	c.Data(status, "text/html; charset=utf-8", buf.Bytes())
}

// respond renders an HTML fragment for HTMX requests and JSON otherwise.
func (s *Server) respond(c *gin.Context, fragment string, data interface{}, body interface{}) {
	if isHTMX(c) {
		s.renderTemplate(c, http.StatusOK, fragment, data)
		return
	}
	c.JSON(http.StatusOK, body)
}

type errorView struct {
	Code    string
	Message string
}

// fail reports err for the current request only; the session stays usable.
func (s *Server) fail(c *gin.Context, err error) {
	status := errors.HTTPStatus(err)
	code := errors.GetCode(err)
	if status >= http.StatusInternalServerError {
		s.logger.Error("%s %s: %v", c.Request.Method, c.Request.URL.Path, err)
	} else {
		s.logger.Info("%s %s rejected: %v", c.Request.Method, c.Request.URL.Path, err)
	}

	if isHTMX(c) {
		s.renderTemplate(c, status, "error", errorView{Code: code, Message: err.Error()})
		c.Abort()
		return
	}
	c.AbortWithStatusJSON(status, gin.H{"error": err.Error(), "code": code})
}
