package postgres

import (
	"context"
	"fmt"

	"rnaseqde/ports"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"
)

func init() {
	sqlx.BindDriver("sqlite", sqlx.QUESTION)
}

// Open connects to the ledger database. driver is "postgres" or "sqlite".
func Open(ctx context.Context, driver, url string) (*sqlx.DB, error) {
	db, err := sqlx.ConnectContext(ctx, driver, url)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s: %w", driver, err)
	}
	if driver == "sqlite" {
		// a single connection keeps in-memory databases alive and avoids
		// SQLITE_BUSY on concurrent writes
		db.SetMaxOpenConns(1)
	}
	return db, nil
}

// RunLedgerRepository implements ports.RunLedger on a SQL database
type RunLedgerRepository struct {
	db *sqlx.DB
}

// NewRunLedgerRepository creates a new SQL run ledger
func NewRunLedgerRepository(db *sqlx.DB) ports.RunLedger {
	return &RunLedgerRepository{db: db}
}

// Record appends one run
func (r *RunLedgerRepository) Record(ctx context.Context, record ports.RunRecord) error {
	_, err := r.db.NamedExecContext(ctx, `
		INSERT INTO pipeline_runs (run_id, session_id, source, genes, treated, untreated, seed, pvalue_method, duration_ms, status, error, created_at)
		VALUES (:run_id, :session_id, :source, :genes, :treated, :untreated, :seed, :pvalue_method, :duration_ms, :status, :error, :created_at)
	`, record)
	if err != nil {
		return fmt.Errorf("failed to record run %s: %w", record.RunID, err)
	}
	return nil
}

// Recent returns the latest runs, newest first. limit <= 0 returns all runs.
func (r *RunLedgerRepository) Recent(ctx context.Context, limit int) ([]ports.RunRecord, error) {
	query := `
		SELECT run_id, session_id, source, genes, treated, untreated, seed, pvalue_method, duration_ms, status, error, created_at
		FROM pipeline_runs
		ORDER BY created_at DESC
	`
	args := []interface{}{}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	records := []ports.RunRecord{}
	if err := r.db.SelectContext(ctx, &records, r.db.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	return records, nil
}
