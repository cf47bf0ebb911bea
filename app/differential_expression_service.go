package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"rnaseqde/domain/core"
	"rnaseqde/domain/expression"
	"rnaseqde/internal"
	"rnaseqde/internal/analysis"
	"rnaseqde/internal/metrics"
	"rnaseqde/ports"
)

// PValueStream is the RNG stream simulated p-values are drawn from.
const PValueStream = "pvalues"

// DifferentialExpressionService runs the pipeline for one comparison and
// records every attempt in the run ledger.
type DifferentialExpressionService struct {
	engine  *analysis.Engine
	rngPort ports.RNGPort
	ledger  ports.RunLedger
	metrics *metrics.Metrics
	logger  *internal.Logger

	method      expression.PValueMethod
	defaultSeed int64
	now         func() time.Time
}

// ServiceConfig selects the p-value method and the fixed seed. A zero seed
// draws a fresh one per run.
type ServiceConfig struct {
	PValueMethod expression.PValueMethod
	Seed         int64
}

// RunRequest is one pipeline invocation
type RunRequest struct {
	SessionID  core.SessionID
	Source     string
	Matrix     *expression.CountMatrix
	Selection  expression.Selection
	Conditions expression.ConditionMap
	// Seed overrides the configured seed when set.
	Seed *int64
}

// NewDifferentialExpressionService creates the pipeline service. ledger and
// metrics may be nil.
func NewDifferentialExpressionService(engine *analysis.Engine, rngPort ports.RNGPort, ledger ports.RunLedger, m *metrics.Metrics, logger *internal.Logger, cfg ServiceConfig) *DifferentialExpressionService {
	if engine == nil {
		engine = analysis.NewEngine(nil)
	}
	if logger == nil {
		logger = internal.DefaultLogger
	}
	if cfg.PValueMethod == "" {
		cfg.PValueMethod = expression.PValueSimulated
	}
	return &DifferentialExpressionService{
		engine:      engine,
		rngPort:     rngPort,
		ledger:      ledger,
		metrics:     m,
		logger:      logger.Named("DEService"),
		method:      cfg.PValueMethod,
		defaultSeed: cfg.Seed,
		now:         time.Now,
	}
}

// Method returns the configured p-value method
func (s *DifferentialExpressionService) Method() expression.PValueMethod {
	return s.method
}

// Run validates the comparison, runs the pipeline and returns a new results
// table. Nothing is returned on failure, so callers never store partial
// results.
func (s *DifferentialExpressionService) Run(ctx context.Context, req RunRequest) (*expression.ResultsTable, error) {
	start := s.now()
	runID := core.NewRunID()
	seed := s.resolveSeed(req.Seed)

	table, cmp, err := s.run(ctx, runID, seed, req)

	record := ports.RunRecord{
		RunID:        runID.String(),
		SessionID:    req.SessionID.String(),
		Source:       req.Source,
		Treated:      len(cmp.Treated),
		Untreated:    len(cmp.Untreated),
		Seed:         seed,
		PValueMethod: string(s.method),
		DurationMS:   s.now().Sub(start).Milliseconds(),
		Status:       ports.RunStatusSucceeded,
		CreatedAt:    start.UTC(),
	}
	if err != nil {
		record.Status = ports.RunStatusFailed
		record.Error = err.Error()
		if core.IsInputError(err) || core.IsNotFoundError(err) {
			s.logger.Info("run %s rejected: %v", runID, err)
		} else {
			s.logger.Warn("run %s failed: %v", runID, err)
		}
	} else {
		record.Genes = table.Len()
		s.logger.Info("run %s: %d genes, %d treated vs %d untreated, seed %d, %s p-values",
			runID, table.Len(), len(cmp.Treated), len(cmp.Untreated), seed, s.method)
	}
	s.metrics.ObserveRun(record.Genes, err)
	s.recordRun(ctx, record)

	if err != nil {
		return nil, err
	}
	return table, nil
}

func (s *DifferentialExpressionService) run(ctx context.Context, runID core.RunID, seed int64, req RunRequest) (table *expression.ResultsTable, cmp expression.Comparison, err error) {
	cmp, err = expression.PlanComparison(req.Matrix, req.Selection, req.Conditions)
	if err != nil {
		return nil, cmp, err
	}

	source, err := s.pvalueSource(ctx, seed)
	if err != nil {
		return nil, cmp, core.NewComputationError(err)
	}

	defer func() {
		if r := recover(); r != nil {
			table = nil
			err = core.NewComputationError(fmt.Errorf("panic: %v", r))
		}
	}()

	outcome, err := s.engine.Run(ctx, req.Matrix, cmp, source)
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return nil, cmp, err
		}
		return nil, cmp, core.NewComputationError(err)
	}
	for sample, report := range outcome.Coercion {
		if report.Invalid > 0 {
			s.logger.Debug("sample %s: %d of %d cells were not numeric", sample, report.Invalid, report.Total)
		}
	}

	return &expression.ResultsTable{
		RunID:        runID,
		Seed:         seed,
		CreatedAt:    s.now().UTC(),
		PValueMethod: source.Method(),
		Samples:      cmp.Samples,
		Treated:      cmp.Treated,
		Untreated:    cmp.Untreated,
		Rows:         outcome.Rows,
		Expression:   outcome.Expression,
	}, cmp, nil
}

func (s *DifferentialExpressionService) pvalueSource(ctx context.Context, seed int64) (analysis.PValueSource, error) {
	switch s.method {
	case expression.PValueWelch:
		return analysis.WelchPValues{}, nil
	default:
		stream, err := s.rngPort.Stream(ctx, PValueStream, seed)
		if err != nil {
			return nil, err
		}
		return analysis.NewSimulatedPValues(stream), nil
	}
}

func (s *DifferentialExpressionService) resolveSeed(override *int64) int64 {
	switch {
	case override != nil:
		return *override
	case s.defaultSeed != 0:
		return s.defaultSeed
	default:
		return s.rngPort.NewSeed()
	}
}

// recordRun writes the ledger entry. A ledger failure never fails the run.
func (s *DifferentialExpressionService) recordRun(ctx context.Context, record ports.RunRecord) {
	if s.ledger == nil {
		return
	}
	if err := s.ledger.Record(context.WithoutCancel(ctx), record); err != nil {
		s.logger.Error("failed to record run %s: %v", record.RunID, err)
	}
}

// RecentRuns lists the latest ledger entries.
func (s *DifferentialExpressionService) RecentRuns(ctx context.Context, limit int) ([]ports.RunRecord, error) {
	if s.ledger == nil {
		return []ports.RunRecord{}, nil
	}
	return s.ledger.Recent(ctx, limit)
}
