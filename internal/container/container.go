package container

import (
	"context"
	"fmt"
	"time"

	"rnaseqde/adapters/excel"
	"rnaseqde/adapters/memory"
	"rnaseqde/adapters/postgres"
	"rnaseqde/adapters/rng"
	"rnaseqde/app"
	"rnaseqde/internal"
	"rnaseqde/internal/analysis"
	"rnaseqde/internal/config"
	"rnaseqde/internal/errors"
	"rnaseqde/internal/metrics"
	"rnaseqde/internal/migration"
	"rnaseqde/internal/session"
	"rnaseqde/ports"

	"github.com/jmoiron/sqlx"
)

// memoryLedgerCapacity bounds the in-memory run ledger.
const memoryLedgerCapacity = 1000

// Container holds all application dependencies and manages their lifecycle
type Container struct {
	Config *config.Config
	Logger *internal.Logger

	// Infrastructure
	DB      *sqlx.DB
	Ledger  ports.RunLedger
	Metrics *metrics.Metrics
	RNG     *rng.Adapter
	Reader  ports.MatrixReader

	// Pipeline
	Service  *app.DifferentialExpressionService
	Heatmaps *app.HeatmapBuilder

	// Dashboard state
	Sessions *session.Manager
}

// New creates a new dependency injection container
func New(cfg *config.Config, logger *internal.Logger) (*Container, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}
	if logger == nil {
		logger = internal.DefaultLogger
	}
	return &Container{Config: cfg, Logger: logger}, nil
}

// Init builds every component. withRuntimeMetrics adds the Go and process
// collectors, which only long-running servers want.
func (c *Container) Init(ctx context.Context, withRuntimeMetrics bool) error {
	if err := c.initLedger(ctx); err != nil {
		return fmt.Errorf("failed to initialize run ledger: %w", err)
	}

	c.Metrics = metrics.New(withRuntimeMetrics)
	c.RNG = rng.NewAdapter()
	c.Reader = excel.NewDataReader(c.Logger)

	c.Service = app.NewDifferentialExpressionService(
		analysis.NewEngine(nil),
		c.RNG,
		c.Ledger,
		c.Metrics,
		c.Logger,
		app.ServiceConfig{
			PValueMethod: c.Config.Analysis.PValueMethod,
			Seed:         c.Config.Analysis.Seed,
		},
	)
	c.Heatmaps = app.NewHeatmapBuilder(c.RNG, c.Config.Analysis.HeatmapSource)
	c.Sessions = session.NewManager(c.Config.Session.TTL, c.Logger)

	c.Logger.Info("container initialized: %s p-values, %s heatmap, seed %d",
		c.Config.Analysis.PValueMethod, c.Heatmaps.Source(), c.Config.Analysis.Seed)
	return nil
}

// initLedger connects the SQL ledger when DATABASE_URL is set and falls back
// to an in-memory ledger otherwise.
func (c *Container) initLedger(ctx context.Context) error {
	if c.Config.Database.URL == "" {
		c.Ledger = memory.NewRunLedger(memoryLedgerCapacity)
		c.Logger.Info("no DATABASE_URL configured, run ledger kept in memory")
		return nil
	}

	connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	db, err := postgres.Open(connectCtx, c.Config.Database.Driver, c.Config.Database.URL)
	if err != nil {
		return errors.DatabaseError("failed to connect to ledger database", err)
	}

	var migrator migration.Migrator = migration.NewRunner()
	if err := migrator.Run(ctx, db); err != nil {
		db.Close()
		return errors.Wrap(err, "database migration failed")
	}

	c.DB = db
	c.Ledger = postgres.NewRunLedgerRepository(db)
	c.Logger.Info("run ledger on %s (schema %s)", c.Config.Database.Driver, migrator.Version())
	return nil
}

// Shutdown gracefully shuts down all components
func (c *Container) Shutdown(ctx context.Context) error {
	if c.DB != nil {
		return c.DB.Close()
	}
	return nil
}
