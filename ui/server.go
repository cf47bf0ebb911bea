package ui

import (
	"embed"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"

	"rnaseqde/app"
	"rnaseqde/internal"
	"rnaseqde/internal/metrics"
	"rnaseqde/internal/session"
	"rnaseqde/ports"

	"github.com/gin-gonic/gin"
)

//go:embed templates/*.html static/* help.md
var embeddedFiles embed.FS

// Config holds dashboard settings
type Config struct {
	GinMode        string
	CookieName     string
	MaxUploadBytes int64
	SecureCookie   bool
}

// Dependencies are the services the dashboard drives
type Dependencies struct {
	Sessions *session.Manager
	Service  *app.DifferentialExpressionService
	Heatmaps *app.HeatmapBuilder
	Reader   ports.MatrixReader
	Metrics  *metrics.Metrics
	Logger   *internal.Logger
	// API is mounted under /api when set.
	API http.Handler
}

// Server is the dashboard web server
type Server struct {
	router    *gin.Engine
	templates *template.Template
	help      template.HTML
	cfg       Config

	sessions *session.Manager
	service  *app.DifferentialExpressionService
	heatmaps *app.HeatmapBuilder
	reader   ports.MatrixReader
	metrics  *metrics.Metrics
	logger   *internal.Logger
	api      http.Handler
}

// NewServer parses the embedded templates and wires the routes
func NewServer(cfg Config, deps Dependencies) (*Server, error) {
	if cfg.GinMode != "" {
		gin.SetMode(cfg.GinMode)
	}
	if cfg.CookieName == "" {
		cfg.CookieName = "rnaseqde_session"
	}
	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = 64 << 20
	}
	if deps.Logger == nil {
		deps.Logger = internal.DefaultLogger
	}

	templates, err := template.New("").Funcs(templateFuncs()).ParseFS(embeddedFiles, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse templates: %w", err)
	}
	help, err := renderHelp(embeddedFiles, "help.md")
	if err != nil {
		return nil, err
	}

	s := &Server{
		router:    gin.New(),
		templates: templates,
		help:      help,
		cfg:       cfg,
		sessions:  deps.Sessions,
		service:   deps.Service,
		heatmaps:  deps.Heatmaps,
		reader:    deps.Reader,
		metrics:   deps.Metrics,
		logger:    deps.Logger.Named("Dashboard"),
		api:       deps.API,
	}

	if err := s.setupMiddleware(); err != nil {
		return nil, err
	}
	s.setupRoutes()
	return s, nil
}

// Handler returns the root HTTP handler
func (s *Server) Handler() http.Handler {
	return s.router
}

// setupMiddleware configures Gin middleware
func (s *Server) setupMiddleware() error {
	s.router.Use(gin.Recovery())
	s.router.Use(requestLogger(s.logger))

	staticFS, err := fs.Sub(embeddedFiles, "static")
	if err != nil {
		return fmt.Errorf("failed to create static filesystem: %w", err)
	}
	s.router.StaticFS("/static", http.FS(staticFS))
	return nil
}

// setupRoutes configures the application routes. Every control of the page
// has its own endpoint; nothing re-runs the whole page.
func (s *Server) setupRoutes() {
	s.router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	if s.metrics != nil {
		s.router.GET("/metrics", gin.WrapH(s.metrics.Handler()))
	}
	if s.api != nil {
		s.router.Any("/api/*path", gin.WrapH(http.StripPrefix("/api", s.api)))
	}

	dash := s.router.Group("/", s.sessionMiddleware())
	dash.GET("/", s.handleIndex)
	dash.POST("/upload", s.handleUpload)
	dash.POST("/configure/columns", s.handleConfigureColumns)
	dash.POST("/configure/conditions", s.handleConfigureConditions)
	dash.POST("/run", s.handleRun)
	dash.GET("/results", s.handleResults)
	dash.GET("/plots/:kind", s.handlePlot)
	dash.GET("/download.csv", s.handleDownloadCSV)
	dash.GET("/download.xlsx", s.handleDownloadXLSX)
}
