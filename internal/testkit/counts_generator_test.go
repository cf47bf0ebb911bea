package testkit

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCountsGenerator_Shape(t *testing.T) {
	cfg := DefaultCountsConfig()
	cfg.Genes = 25
	g := NewCountsGenerator(cfg)

	m := g.Generate()
	assert.Equal(t, 25, m.NumGenes())
	assert.Equal(t, []string{"gene_id", "treated_1", "treated_2", "treated_3", "untreated_1", "untreated_2", "untreated_3"}, m.Headers)
	assert.Len(t, g.Conditions(), 6)
	assert.Equal(t, "gene_id", g.Selection().GeneColumn)
}

func TestCountsGenerator_Deterministic(t *testing.T) {
	a := NewCountsGenerator(DefaultCountsConfig()).Generate()
	b := NewCountsGenerator(DefaultCountsConfig()).Generate()
	assert.Equal(t, a.Rows, b.Rows)
}

func TestCountsGenerator_Missing(t *testing.T) {
	cfg := DefaultCountsConfig()
	cfg.MissingRate = 1
	m := NewCountsGenerator(cfg).Generate()

	for _, row := range m.Rows {
		for _, cell := range row[1:] {
			assert.Empty(t, cell)
		}
	}
}

func TestCSV(t *testing.T) {
	cfg := DefaultCountsConfig()
	cfg.Genes = 2
	out := CSV(NewCountsGenerator(cfg).Generate(), '\t')

	lines := bytes.Split(bytes.TrimSpace(out), []byte("\n"))
	require.Len(t, lines, 3)
	assert.True(t, bytes.HasPrefix(lines[0], []byte("gene_id\ttreated_1")))
}
