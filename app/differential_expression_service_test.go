package app

import (
	"context"
	"errors"
	"math/rand/v2"
	"testing"

	"rnaseqde/adapters/rng"
	"rnaseqde/domain/core"
	"rnaseqde/domain/expression"
	"rnaseqde/internal"
	"rnaseqde/internal/analysis"
	"rnaseqde/internal/metrics"
	"rnaseqde/ports"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockRunLedger struct {
	mock.Mock
}

func (m *MockRunLedger) Record(ctx context.Context, record ports.RunRecord) error {
	args := m.Called(ctx, record)
	return args.Error(0)
}

func (m *MockRunLedger) Recent(ctx context.Context, limit int) ([]ports.RunRecord, error) {
	args := m.Called(ctx, limit)
	return args.Get(0).([]ports.RunRecord), args.Error(1)
}

// failingRNG fails every stream request
type failingRNG struct{}

func (failingRNG) Stream(ctx context.Context, name string, seed int64) (*rand.Rand, error) {
	return nil, errors.New("entropy exhausted")
}
func (failingRNG) NewSeed() int64 { return 7 }

func fixtureRequest() RunRequest {
	m := expression.NewCountMatrix(
		[]string{"gene", "A", "B", "C", "D"},
		[][]string{
			{"G1", "10", "10", "5", "5"},
			{"G2", "100", "120", "10", "12"},
			{"G3", "1", "2", "3", "4"},
		},
	)
	return RunRequest{
		SessionID: core.NewSessionID(),
		Source:    "counts.csv",
		Matrix:    m,
		Selection: expression.Selection{GeneColumn: "gene", Samples: []string{"A", "B", "C", "D"}},
		Conditions: expression.ConditionMap{
			"A": "Treated", "B": "treated", "C": "untreated", "D": "UNTREATED",
		},
	}
}

func newService(ledger ports.RunLedger, cfg ServiceConfig) *DifferentialExpressionService {
	return NewDifferentialExpressionService(nil, rng.NewAdapter(), ledger, metrics.New(false), internal.NewNopLogger(), cfg)
}

func TestDifferentialExpressionService_Run(t *testing.T) {
	ledger := new(MockRunLedger)
	ledger.On("Record", mock.Anything, mock.MatchedBy(func(r ports.RunRecord) bool {
		return r.Status == ports.RunStatusSucceeded && r.Genes == 3 && r.Treated == 2 && r.Untreated == 2 && r.Seed == 42 && r.Source == "counts.csv"
	})).Return(nil).Once()

	svc := newService(ledger, ServiceConfig{Seed: 42})
	table, err := svc.Run(context.Background(), fixtureRequest())
	require.NoError(t, err)

	assert.Equal(t, 3, table.Len())
	assert.Equal(t, int64(42), table.Seed)
	assert.Equal(t, expression.PValueSimulated, table.PValueMethod)
	assert.Equal(t, []string{"A", "B"}, table.Treated)
	assert.Equal(t, []string{"C", "D"}, table.Untreated)
	assert.False(t, table.RunID.String() == "")
	for _, row := range table.Rows {
		assert.GreaterOrEqual(t, row.PValue, 0.0)
		assert.LessOrEqual(t, row.PValue, analysis.SimulatedPValueMax)
	}
	ledger.AssertExpectations(t)
}

func TestDifferentialExpressionService_SeedReproducible(t *testing.T) {
	svc := newService(nil, ServiceConfig{})
	seed := int64(1234)

	req := fixtureRequest()
	req.Seed = &seed
	first, err := svc.Run(context.Background(), req)
	require.NoError(t, err)
	second, err := svc.Run(context.Background(), req)
	require.NoError(t, err)

	assert.Equal(t, first.Rows, second.Rows)
	assert.NotEqual(t, first.RunID, second.RunID)
}

func TestDifferentialExpressionService_ConfigurationErrorRecorded(t *testing.T) {
	ledger := new(MockRunLedger)
	ledger.On("Record", mock.Anything, mock.MatchedBy(func(r ports.RunRecord) bool {
		return r.Status == ports.RunStatusFailed && r.Error != ""
	})).Return(nil).Once()

	req := fixtureRequest()
	req.Conditions = expression.ConditionMap{"A": "treated", "B": "treated"}

	table, err := newService(ledger, ServiceConfig{Seed: 1}).Run(context.Background(), req)
	assert.Nil(t, table)
	assert.ErrorIs(t, err, core.ErrConfiguration)
	ledger.AssertExpectations(t)
}

func TestDifferentialExpressionService_NoUpload(t *testing.T) {
	req := fixtureRequest()
	req.Matrix = nil

	_, err := newService(nil, ServiceConfig{Seed: 1}).Run(context.Background(), req)
	assert.ErrorIs(t, err, core.ErrNoUpload)
}

func TestDifferentialExpressionService_LedgerFailureDoesNotFailRun(t *testing.T) {
	ledger := new(MockRunLedger)
	ledger.On("Record", mock.Anything, mock.Anything).Return(errors.New("connection refused"))

	table, err := newService(ledger, ServiceConfig{Seed: 5}).Run(context.Background(), fixtureRequest())
	require.NoError(t, err)
	assert.Equal(t, 3, table.Len())
}

func TestDifferentialExpressionService_Welch(t *testing.T) {
	table, err := newService(nil, ServiceConfig{PValueMethod: expression.PValueWelch, Seed: 3}).Run(context.Background(), fixtureRequest())
	require.NoError(t, err)

	assert.Equal(t, expression.PValueWelch, table.PValueMethod)
	// G1 has zero variance in both groups with different means
	assert.Equal(t, 0.0, table.Rows[0].PValue)
}

func TestDifferentialExpressionService_RNGFailure(t *testing.T) {
	svc := NewDifferentialExpressionService(nil, failingRNG{}, nil, nil, internal.NewNopLogger(), ServiceConfig{})

	table, err := svc.Run(context.Background(), fixtureRequest())
	assert.Nil(t, table)
	assert.ErrorIs(t, err, core.ErrComputation)
	assert.Contains(t, err.Error(), "entropy exhausted")
}

func TestDifferentialExpressionService_PanicBecomesComputationError(t *testing.T) {
	ledger := new(MockRunLedger)
	ledger.On("Record", mock.Anything, mock.MatchedBy(func(r ports.RunRecord) bool {
		return r.Status == ports.RunStatusFailed && r.Genes == 0 && r.Error != ""
	})).Return(nil).Once()

	req := fixtureRequest()
	// built by hand so the short row is not padded
	req.Matrix = &expression.CountMatrix{
		Headers: []string{"gene", "A", "B", "C", "D"},
		Rows:    [][]string{{"G1", "10", "10", "5", "5"}, {"G2", "1"}},
	}

	table, err := newService(ledger, ServiceConfig{Seed: 1}).Run(context.Background(), req)
	assert.Nil(t, table)
	require.Error(t, err)
	assert.True(t, errors.Is(err, core.ErrComputation))
	assert.Contains(t, err.Error(), "panic")
	ledger.AssertExpectations(t)
}

func TestDifferentialExpressionService_RecentRuns(t *testing.T) {
	ledger := new(MockRunLedger)
	ledger.On("Recent", mock.Anything, 5).Return([]ports.RunRecord{{RunID: "r1"}}, nil)

	runs, err := newService(ledger, ServiceConfig{}).RecentRuns(context.Background(), 5)
	require.NoError(t, err)
	assert.Len(t, runs, 1)

	empty, err := newService(nil, ServiceConfig{}).RecentRuns(context.Background(), 5)
	require.NoError(t, err)
	assert.Empty(t, empty)
}
