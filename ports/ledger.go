package ports

import (
	"context"
	"time"
)

// Run outcomes recorded in the ledger
const (
	RunStatusSucceeded = "succeeded"
	RunStatusFailed    = "failed"
)

// RunRecord is the audit entry written for every pipeline run. It never
// contains the results themselves.
type RunRecord struct {
	RunID        string    `db:"run_id" json:"run_id"`
	SessionID    string    `db:"session_id" json:"session_id"`
	Source       string    `db:"source" json:"source"`
	Genes        int       `db:"genes" json:"genes"`
	Treated      int       `db:"treated" json:"treated"`
	Untreated    int       `db:"untreated" json:"untreated"`
	Seed         int64     `db:"seed" json:"seed"`
	PValueMethod string    `db:"pvalue_method" json:"pvalue_method"`
	DurationMS   int64     `db:"duration_ms" json:"duration_ms"`
	Status       string    `db:"status" json:"status"`
	Error        string    `db:"error" json:"error,omitempty"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}

// RunLedger is an append-only log of pipeline runs.
type RunLedger interface {
	Record(ctx context.Context, record RunRecord) error
	Recent(ctx context.Context, limit int) ([]RunRecord, error)
}
