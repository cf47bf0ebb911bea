package memory

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"rnaseqde/ports"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunLedger_RecentNewestFirst(t *testing.T) {
	l := NewRunLedger(0)
	ctx := context.Background()
	base := time.Now()

	require.NoError(t, l.Record(ctx, ports.RunRecord{RunID: "a", CreatedAt: base}))
	require.NoError(t, l.Record(ctx, ports.RunRecord{RunID: "c", CreatedAt: base.Add(2 * time.Second)}))
	require.NoError(t, l.Record(ctx, ports.RunRecord{RunID: "b", CreatedAt: base.Add(time.Second)}))

	recent, err := l.Recent(ctx, 2)
	require.NoError(t, err)
	require.Len(t, recent, 2)
	assert.Equal(t, "c", recent[0].RunID)
	assert.Equal(t, "b", recent[1].RunID)
}

func TestRunLedger_Capacity(t *testing.T) {
	l := NewRunLedger(2)
	ctx := context.Background()
	base := time.Now()
	for i := 0; i < 5; i++ {
		require.NoError(t, l.Record(ctx, ports.RunRecord{RunID: fmt.Sprint(i), CreatedAt: base.Add(time.Duration(i) * time.Second)}))
	}

	all, err := l.Recent(ctx, 0)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "4", all[0].RunID)
	assert.Equal(t, "3", all[1].RunID)
}

func TestRunLedger_ConcurrentRecord(t *testing.T) {
	l := NewRunLedger(0)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_ = l.Record(ctx, ports.RunRecord{RunID: fmt.Sprint(i), CreatedAt: time.Now()})
		}(i)
	}
	wg.Wait()

	all, err := l.Recent(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, all, 50)
}

func TestRunLedger_EmptyAndCanceled(t *testing.T) {
	l := NewRunLedger(0)

	recent, err := l.Recent(context.Background(), 5)
	require.NoError(t, err)
	assert.NotNil(t, recent)
	assert.Empty(t, recent)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, l.Record(ctx, ports.RunRecord{}), context.Canceled)
}
