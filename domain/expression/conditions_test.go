package expression

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rnaseqde/domain/core"
)

func testMatrix() *CountMatrix {
	return NewCountMatrix(
		[]string{"gene", "T1", "T2", "U1", "U2", "X1"},
		[][]string{{"G1", "10", "10", "5", "5", "1"}},
	)
}

func TestConditionMap_Partition(t *testing.T) {
	conditions := ConditionMap{
		"T1": "Treated",
		"T2": "TREATED",
		"U1": "untreated",
		"U2": "UnTreated",
		"X1": "control",
	}

	treated, untreated := conditions.Partition([]string{"T1", "T2", "U1", "U2", "X1", "unlabeled"})

	assert.Equal(t, []string{"T1", "T2"}, treated)
	assert.Equal(t, []string{"U1", "U2"}, untreated)
}

func TestConditionMap_PartitionRequiresExactLabel(t *testing.T) {
	conditions := ConditionMap{"T1": " treated", "U1": "untreated cells"}

	treated, untreated := conditions.Partition([]string{"T1", "U1"})

	assert.Empty(t, treated)
	assert.Empty(t, untreated)
}

func TestPlanComparison(t *testing.T) {
	m := testMatrix()
	sel := Selection{GeneColumn: "gene", Samples: []string{"T1", "T2", "U1", "U2"}}
	conditions := ConditionMap{"T1": "treated", "T2": "treated", "U1": "untreated", "U2": "untreated"}

	cmp, err := PlanComparison(m, sel, conditions)
	require.NoError(t, err)
	assert.Equal(t, []string{"T1", "T2"}, cmp.Treated)
	assert.Equal(t, []string{"U1", "U2"}, cmp.Untreated)
	assert.Equal(t, sel.Samples, cmp.Samples)
}

func TestPlanComparison_ConfigurationErrors(t *testing.T) {
	m := testMatrix()
	labels := ConditionMap{"T1": "treated", "U1": "untreated"}

	cases := []struct {
		name       string
		sel        Selection
		conditions ConditionMap
	}{
		{"no samples", Selection{GeneColumn: "gene"}, labels},
		{"unknown gene column", Selection{GeneColumn: "id", Samples: []string{"T1", "U1"}}, labels},
		{"unknown sample", Selection{GeneColumn: "gene", Samples: []string{"T1", "Z9"}}, labels},
		{"no untreated", Selection{GeneColumn: "gene", Samples: []string{"T1", "T2"}}, ConditionMap{"T1": "treated", "T2": "treated"}},
		{"no treated", Selection{GeneColumn: "gene", Samples: []string{"U1"}}, labels},
		{"no labels", Selection{GeneColumn: "gene", Samples: []string{"T1", "U1"}}, ConditionMap{}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := PlanComparison(m, tc.sel, tc.conditions)
			require.Error(t, err)
			assert.ErrorIs(t, err, core.ErrConfiguration)
		})
	}
}

func TestPlanComparison_NoUpload(t *testing.T) {
	_, err := PlanComparison(nil, Selection{}, nil)
	assert.ErrorIs(t, err, core.ErrNoUpload)
}
