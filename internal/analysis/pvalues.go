package analysis

import (
	"math"
	"math/rand/v2"

	"github.com/montanaflynn/stats"
	"gonum.org/v1/gonum/stat/distuv"

	"rnaseqde/domain/expression"
)

// SimulatedPValueMax is the upper bound of simulated p-values.
const SimulatedPValueMax = 0.05

// GroupValues are the available values of one gene in each condition.
type GroupValues struct {
	Treated   []float64
	Untreated []float64
}

// PValueSource produces one p-value per gene.
type PValueSource interface {
	Method() expression.PValueMethod
	PValues(genes []GroupValues) []float64
}

// SimulatedPValues draws every p-value independently from Uniform[0, 0.05].
// The draws ignore the data entirely.
type SimulatedPValues struct {
	dist distuv.Uniform
}

// NewSimulatedPValues binds the draws to a seeded source.
func NewSimulatedPValues(src rand.Source) *SimulatedPValues {
	return &SimulatedPValues{dist: distuv.Uniform{Min: 0, Max: SimulatedPValueMax, Src: src}}
}

func (s *SimulatedPValues) Method() expression.PValueMethod { return expression.PValueSimulated }

func (s *SimulatedPValues) PValues(genes []GroupValues) []float64 {
	out := make([]float64, len(genes))
	for i := range genes {
		out[i] = s.dist.Rand()
	}
	return out
}

// WelchPValues runs a two-sided Welch t-test per gene.
type WelchPValues struct{}

func (WelchPValues) Method() expression.PValueMethod { return expression.PValueWelch }

func (w WelchPValues) PValues(genes []GroupValues) []float64 {
	out := make([]float64, len(genes))
	for i, g := range genes {
		out[i] = WelchTTest(g.Treated, g.Untreated)
	}
	return out
}

// WelchTTest returns the two-sided p-value for a difference in means with
// unequal variances. Genes with fewer than two values in a group cannot be
// tested and get p = 1.
func WelchTTest(a, b []float64) float64 {
	if len(a) < 2 || len(b) < 2 {
		return 1
	}
	meanA, _ := stats.Mean(a)
	meanB, _ := stats.Mean(b)
	varA, _ := stats.SampleVariance(a)
	varB, _ := stats.SampleVariance(b)

	na, nb := float64(len(a)), float64(len(b))
	seA, seB := varA/na, varB/nb
	se2 := seA + seB
	if se2 == 0 {
		if meanA == meanB {
			return 1
		}
		return 0
	}

	t := (meanA - meanB) / math.Sqrt(se2)
	df := se2 * se2 / (seA*seA/(na-1) + seB*seB/(nb-1))
	if math.IsNaN(t) || math.IsNaN(df) {
		return 1
	}

	dist := distuv.StudentsT{Mu: 0, Sigma: 1, Nu: df}
	return clip01(2 * dist.Survival(math.Abs(t)))
}
