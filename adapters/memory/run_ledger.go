// Package memory holds in-process implementations of the ports, used when no
// database is configured.
package memory

import (
	"context"
	"sort"
	"sync"

	"rnaseqde/ports"
)

// RunLedger keeps run records in memory, bounded to the most recent capacity
// entries.
type RunLedger struct {
	mu       sync.RWMutex
	records  []ports.RunRecord
	capacity int
}

// NewRunLedger creates an in-memory ledger. capacity <= 0 means unbounded.
func NewRunLedger(capacity int) *RunLedger {
	return &RunLedger{capacity: capacity}
}

func (l *RunLedger) Record(ctx context.Context, record ports.RunRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	l.records = append(l.records, record)
	if l.capacity > 0 && len(l.records) > l.capacity {
		l.records = append([]ports.RunRecord(nil), l.records[len(l.records)-l.capacity:]...)
	}
	return nil
}

func (l *RunLedger) Recent(ctx context.Context, limit int) ([]ports.RunRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	l.mu.RLock()
	out := append([]ports.RunRecord(nil), l.records...)
	l.mu.RUnlock()

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	if out == nil {
		out = []ports.RunRecord{}
	}
	return out, nil
}
