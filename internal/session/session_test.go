package session

import (
	"context"
	"sync"
	"testing"
	"time"

	"rnaseqde/domain/core"
	"rnaseqde/domain/expression"
	"rnaseqde/internal"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func upload() *Upload {
	return &Upload{
		Source: "counts.csv",
		Format: expression.FormatCSV,
		Matrix: expression.NewCountMatrix(
			[]string{"gene", "S1", "S2"},
			[][]string{{"G1", "1", "2"}},
		),
	}
}

func TestSession_SelectionRequiresUpload(t *testing.T) {
	s := newSession(core.NewSessionID(), time.Now())

	assert.ErrorIs(t, s.SetSelection(expression.Selection{GeneColumn: "gene"}), core.ErrNoUpload)
	assert.ErrorIs(t, s.SetConditions(expression.ConditionMap{"S1": "treated"}), core.ErrNoUpload)
}

func TestSession_SelectionAndConditions(t *testing.T) {
	s := newSession(core.NewSessionID(), time.Now())
	s.SetUpload(upload())

	err := s.SetSelection(expression.Selection{GeneColumn: "missing", Samples: []string{"S1"}})
	assert.ErrorIs(t, err, core.ErrConfiguration)

	require.NoError(t, s.SetSelection(expression.Selection{GeneColumn: "gene", Samples: []string{"S1", "S2"}}))
	require.NoError(t, s.SetConditions(expression.ConditionMap{"S1": "treated", "S2": "untreated", "other": "treated"}))

	snap := s.Snapshot()
	assert.Equal(t, expression.ConditionMap{"S1": "treated", "S2": "untreated"}, snap.Conditions)

	// narrowing the selection drops labels of deselected samples
	require.NoError(t, s.SetSelection(expression.Selection{GeneColumn: "gene", Samples: []string{"S2"}}))
	assert.Equal(t, expression.ConditionMap{"S2": "untreated"}, s.Snapshot().Conditions)
}

func TestSession_NewUploadClearsState(t *testing.T) {
	s := newSession(core.NewSessionID(), time.Now())
	s.SetUpload(upload())
	require.NoError(t, s.SetSelection(expression.Selection{GeneColumn: "gene", Samples: []string{"S1"}}))
	s.SetResults(&expression.ResultsTable{})

	s.SetUpload(upload())

	_, err := s.Results()
	assert.ErrorIs(t, err, core.ErrNoResults)
	assert.Empty(t, s.Snapshot().Selection.Samples)
}

func TestSession_ResultsSlotReplaced(t *testing.T) {
	s := newSession(core.NewSessionID(), time.Now())
	first := &expression.ResultsTable{Seed: 1}
	second := &expression.ResultsTable{Seed: 2}

	s.SetResults(first)
	s.SetResults(second)

	got, err := s.Results()
	require.NoError(t, err)
	assert.Same(t, second, got)
}

func TestSession_Thresholds(t *testing.T) {
	s := newSession(core.NewSessionID(), time.Now())
	assert.Equal(t, expression.DefaultThresholds(), s.Snapshot().Thresholds)

	assert.ErrorIs(t, s.SetThresholds(expression.FilterThresholds{FDRCutoff: 0.2}), core.ErrThresholds)
	require.NoError(t, s.SetThresholds(expression.FilterThresholds{FDRCutoff: 0.05, BaseMeanCutoff: 0, Log2FCCutoff: 1}))
	assert.Equal(t, 0.05, s.Snapshot().Thresholds.FDRCutoff)
}

func TestSession_SnapshotIsolated(t *testing.T) {
	s := newSession(core.NewSessionID(), time.Now())
	s.SetUpload(upload())
	require.NoError(t, s.SetSelection(expression.Selection{GeneColumn: "gene", Samples: []string{"S1", "S2"}}))

	snap := s.Snapshot()
	snap.Selection.Samples[0] = "changed"
	snap.Conditions["S1"] = "treated"

	again := s.Snapshot()
	assert.Equal(t, "S1", again.Selection.Samples[0])
	assert.Empty(t, again.Conditions)
}

func TestManager_ResolveAndExpire(t *testing.T) {
	m := NewManager(time.Minute, internal.NewNopLogger())
	clock := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	m.now = func() time.Time { return clock }

	s, created := m.Resolve("")
	assert.True(t, created)

	again, created := m.Resolve(s.ID.String())
	assert.False(t, created)
	assert.Same(t, s, again)

	_, created = m.Resolve("not-a-uuid")
	assert.True(t, created)
	assert.Equal(t, 2, m.Len())

	clock = clock.Add(2 * time.Minute)
	_, err := m.Get(s.ID)
	assert.ErrorIs(t, err, core.ErrSessionNotFound)
	assert.True(t, core.IsNotFoundError(err))

	assert.Equal(t, 1, m.Sweep())
	assert.Equal(t, 0, m.Len())
}

func TestManager_RunStopsWithContext(t *testing.T) {
	m := NewManager(time.Millisecond, internal.NewNopLogger())
	m.Create()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		m.Run(ctx, time.Millisecond)
		close(done)
	}()

	assert.Eventually(t, func() bool { return m.Len() == 0 }, time.Second, 5*time.Millisecond)
	cancel()
	<-done
}

func TestManager_ConcurrentAccess(t *testing.T) {
	m := NewManager(time.Hour, internal.NewNopLogger())
	s := m.Create()
	s.SetUpload(upload())

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			got, err := m.Get(s.ID)
			if err != nil {
				return
			}
			_ = got.SetSelection(expression.Selection{GeneColumn: "gene", Samples: []string{"S1"}})
			_ = got.Snapshot()
			got.SetResults(&expression.ResultsTable{})
		}()
	}
	wg.Wait()

	_, err := s.Results()
	assert.NoError(t, err)
}
