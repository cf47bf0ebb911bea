// Package testkit generates synthetic count matrices for tests and demos.
package testkit

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"math/rand/v2"
	"strconv"

	"gonum.org/v1/gonum/stat/distuv"

	"rnaseqde/domain/expression"
)

// CountsGeneratorConfig configures the count matrix generator
type CountsGeneratorConfig struct {
	Genes     int `json:"genes"`
	Treated   int `json:"treated"`
	Untreated int `json:"untreated"`
	// DifferentialFraction of genes get FoldChange applied to treated samples.
	DifferentialFraction float64 `json:"differential_fraction"`
	FoldChange           float64 `json:"fold_change"`
	BaseMean             float64 `json:"base_mean"`
	// MissingRate blanks out cells at random.
	MissingRate float64 `json:"missing_rate"`
	Seed        uint64  `json:"seed"`
}

// DefaultCountsConfig returns a small balanced design
func DefaultCountsConfig() CountsGeneratorConfig {
	return CountsGeneratorConfig{
		Genes:                200,
		Treated:              3,
		Untreated:            3,
		DifferentialFraction: 0.1,
		FoldChange:           4,
		BaseMean:             100,
		MissingRate:          0,
		Seed:                 42,
	}
}

// CountsGenerator produces Poisson-distributed read counts
type CountsGenerator struct {
	config CountsGeneratorConfig
	rng    *rand.Rand
}

// NewCountsGenerator creates a new generator
func NewCountsGenerator(config CountsGeneratorConfig) *CountsGenerator {
	return &CountsGenerator{
		config: config,
		rng:    rand.New(rand.NewPCG(config.Seed, 0x9e3779b97f4a7c15)),
	}
}

// Samples returns the treated then untreated sample names
func (g *CountsGenerator) Samples() []string {
	out := make([]string, 0, g.config.Treated+g.config.Untreated)
	for i := 1; i <= g.config.Treated; i++ {
		out = append(out, fmt.Sprintf("treated_%d", i))
	}
	for i := 1; i <= g.config.Untreated; i++ {
		out = append(out, fmt.Sprintf("untreated_%d", i))
	}
	return out
}

// Conditions labels every generated sample
func (g *CountsGenerator) Conditions() expression.ConditionMap {
	out := expression.ConditionMap{}
	for i, s := range g.Samples() {
		if i < g.config.Treated {
			out[s] = expression.ConditionTreated
		} else {
			out[s] = expression.ConditionUntreated
		}
	}
	return out
}

// Selection picks the gene column and every sample
func (g *CountsGenerator) Selection() expression.Selection {
	return expression.Selection{GeneColumn: "gene_id", Samples: g.Samples()}
}

// Generate builds the matrix. Differential genes come first.
func (g *CountsGenerator) Generate() *expression.CountMatrix {
	samples := g.Samples()
	headers := append([]string{"gene_id"}, samples...)
	differential := int(float64(g.config.Genes) * g.config.DifferentialFraction)

	rows := make([][]string, g.config.Genes)
	for i := range rows {
		row := make([]string, len(headers))
		row[0] = fmt.Sprintf("GENE%05d", i+1)

		mean := g.config.BaseMean * (0.5 + g.rng.Float64())
		for j := range samples {
			lambda := mean
			if i < differential && j < g.config.Treated {
				lambda *= g.config.FoldChange
			}
			if g.config.MissingRate > 0 && g.rng.Float64() < g.config.MissingRate {
				row[j+1] = ""
				continue
			}
			count := distuv.Poisson{Lambda: lambda, Src: g.rng}.Rand()
			row[j+1] = strconv.Itoa(int(count))
		}
		rows[i] = row
	}
	return expression.NewCountMatrix(headers, rows)
}

// CSV encodes a matrix with the given delimiter.
func CSV(m *expression.CountMatrix, delimiter rune) []byte {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	w.Comma = delimiter
	_ = w.Write(m.Headers)
	_ = w.WriteAll(m.Rows)
	return buf.Bytes()
}
