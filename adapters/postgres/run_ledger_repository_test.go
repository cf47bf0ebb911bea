package postgres

import (
	"context"
	"fmt"
	"testing"
	"time"

	"rnaseqde/internal/migration"
	"rnaseqde/ports"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newSQLiteLedger(t *testing.T) ports.RunLedger {
	t.Helper()
	ctx := context.Background()
	db, err := Open(ctx, "sqlite", "file:"+t.Name()+"?mode=memory&cache=shared")
	if err != nil {
		t.Skipf("sqlite unavailable: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, migration.NewRunner().Run(ctx, db))
	return NewRunLedgerRepository(db)
}

func TestRunLedgerRepository_RecordAndRecent(t *testing.T) {
	ledger := newSQLiteLedger(t)
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	for i := 0; i < 3; i++ {
		require.NoError(t, ledger.Record(ctx, ports.RunRecord{
			RunID:        fmt.Sprintf("run-%d", i),
			SessionID:    "session-a",
			Source:       "counts.csv",
			Genes:        100 + i,
			Treated:      3,
			Untreated:    3,
			Seed:         int64(42 + i),
			PValueMethod: "simulated",
			DurationMS:   12,
			Status:       ports.RunStatusSucceeded,
			CreatedAt:    base.Add(time.Duration(i) * time.Minute),
		}))
	}

	recent, err := ledger.Recent(ctx, 2)
	require.NoError(t, err)
	require.Len(t, recent, 2)
	assert.Equal(t, "run-2", recent[0].RunID)
	assert.Equal(t, "run-1", recent[1].RunID)
	assert.Equal(t, 102, recent[0].Genes)
	assert.Equal(t, int64(44), recent[0].Seed)
	assert.True(t, recent[0].CreatedAt.Equal(base.Add(2*time.Minute)))

	all, err := ledger.Recent(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func TestRunLedgerRepository_DuplicateRunID(t *testing.T) {
	ledger := newSQLiteLedger(t)
	ctx := context.Background()
	rec := ports.RunRecord{RunID: "dup", Seed: 1, PValueMethod: "simulated", Status: ports.RunStatusFailed, Error: "no treated samples", CreatedAt: time.Now().UTC()}

	require.NoError(t, ledger.Record(ctx, rec))
	assert.Error(t, ledger.Record(ctx, rec))
}

func TestRunLedgerRepository_Empty(t *testing.T) {
	ledger := newSQLiteLedger(t)

	recent, err := ledger.Recent(context.Background(), 10)
	require.NoError(t, err)
	assert.Empty(t, recent)
}
