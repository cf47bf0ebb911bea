package analysis

import (
	"math"
	"sort"
)

// BenjaminiHochberg returns FDR-adjusted p-values in the input order.
//
// p-values are ranked ascending, each adjusted to p*m/rank, then a running
// minimum is taken from the largest rank down so the adjusted values are
// monotone, and finally clipped to [0, 1]. NaN inputs stay NaN and do not
// count towards m.
func BenjaminiHochberg(pvalues []float64) []float64 {
	adjusted := make([]float64, len(pvalues))
	order := make([]int, 0, len(pvalues))
	for i, p := range pvalues {
		if math.IsNaN(p) {
			adjusted[i] = math.NaN()
			continue
		}
		order = append(order, i)
	}

	m := len(order)
	if m == 0 {
		return adjusted
	}

	sort.SliceStable(order, func(a, b int) bool {
		return pvalues[order[a]] < pvalues[order[b]]
	})

	running := math.Inf(1)
	for rank := m; rank >= 1; rank-- {
		idx := order[rank-1]
		q := pvalues[idx] * float64(m) / float64(rank)
		if q < running {
			running = q
		}
		adjusted[idx] = clip01(running)
	}
	return adjusted
}

func clip01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
