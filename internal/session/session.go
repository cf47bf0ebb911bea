// Package session holds per-visitor dashboard state: the uploaded matrix, the
// column and condition choices, the current thresholds and at most one
// results table.
package session

import (
	"sync"
	"time"

	"rnaseqde/domain/core"
	"rnaseqde/domain/expression"
)

// Upload is the ingested file of a session
type Upload struct {
	Source string
	Format expression.Format
	Matrix *expression.CountMatrix
}

// Session is safe for concurrent use. The results slot is replaced wholesale
// by each successful run and is never mutated in place.
type Session struct {
	ID core.SessionID

	mu         sync.Mutex
	lastSeen   time.Time
	upload     *Upload
	selection  expression.Selection
	conditions expression.ConditionMap
	thresholds expression.FilterThresholds
	results    *expression.ResultsTable
}

func newSession(id core.SessionID, now time.Time) *Session {
	return &Session{
		ID:         id,
		lastSeen:   now,
		conditions: expression.ConditionMap{},
		thresholds: expression.DefaultThresholds(),
	}
}

// Snapshot is a consistent copy of the session inputs.
type Snapshot struct {
	Upload     *Upload
	Selection  expression.Selection
	Conditions expression.ConditionMap
	Thresholds expression.FilterThresholds
	Results    *expression.ResultsTable
}

// Snapshot copies the current state under the lock.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	conditions := make(expression.ConditionMap, len(s.conditions))
	for k, v := range s.conditions {
		conditions[k] = v
	}
	return Snapshot{
		Upload: s.upload,
		Selection: expression.Selection{
			GeneColumn: s.selection.GeneColumn,
			Samples:    append([]string(nil), s.selection.Samples...),
		},
		Conditions: conditions,
		Thresholds: s.thresholds,
		Results:    s.results,
	}
}

// SetUpload stores a new matrix. The previous selection, labels and results
// refer to the old file and are cleared.
func (s *Session) SetUpload(upload *Upload) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.upload = upload
	s.selection = expression.Selection{}
	s.conditions = expression.ConditionMap{}
	s.results = nil
}

// SetSelection stores the gene column and sample columns. Labels of samples
// that are no longer selected are dropped.
func (s *Session) SetSelection(sel expression.Selection) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.upload == nil {
		return core.ErrNoUpload
	}
	if !s.upload.Matrix.HasColumn(sel.GeneColumn) {
		return core.NewConfigurationError("gene column " + sel.GeneColumn + " is not in the uploaded file")
	}
	for _, sample := range sel.Samples {
		if !s.upload.Matrix.HasColumn(sample) {
			return core.NewConfigurationError("sample column " + sample + " is not in the uploaded file")
		}
	}

	keep := make(expression.ConditionMap, len(sel.Samples))
	for _, sample := range sel.Samples {
		if label, ok := s.conditions[sample]; ok {
			keep[sample] = label
		}
	}
	s.selection = expression.Selection{GeneColumn: sel.GeneColumn, Samples: append([]string(nil), sel.Samples...)}
	s.conditions = keep
	return nil
}

// SetConditions replaces the condition labels of the selected samples.
func (s *Session) SetConditions(conditions expression.ConditionMap) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.upload == nil {
		return core.ErrNoUpload
	}
	next := make(expression.ConditionMap, len(conditions))
	for _, sample := range s.selection.Samples {
		if label, ok := conditions[sample]; ok {
			next[sample] = label
		}
	}
	s.conditions = next
	return nil
}

// SetThresholds stores validated filter thresholds.
func (s *Session) SetThresholds(t expression.FilterThresholds) error {
	if err := t.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	s.thresholds = t
	s.mu.Unlock()
	return nil
}

// SetResults replaces the results slot.
func (s *Session) SetResults(table *expression.ResultsTable) {
	s.mu.Lock()
	s.results = table
	s.mu.Unlock()
}

// Results returns the current results or ErrNoResults.
func (s *Session) Results() (*expression.ResultsTable, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.results == nil {
		return nil, core.ErrNoResults
	}
	return s.results, nil
}

func (s *Session) touch(now time.Time) {
	s.mu.Lock()
	s.lastSeen = now
	s.mu.Unlock()
}

func (s *Session) idleSince(now time.Time) time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return now.Sub(s.lastSeen)
}
