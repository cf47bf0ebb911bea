// Package expression holds the count matrix, condition labels and the
// differential expression results table shared by every layer.
package expression

import (
	"fmt"
	"path/filepath"
	"strings"
)

// Format is the declared layout of an uploaded count matrix.
type Format string

const (
	FormatCSV  Format = "csv"
	FormatTSV  Format = "tsv"
	FormatXLSX Format = "xlsx"
)

// ParseFormat accepts the format names used by the upload form and the CLI.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "csv", "comma":
		return FormatCSV, nil
	case "tsv", "txt", "tab":
		return FormatTSV, nil
	case "xlsx", "excel":
		return FormatXLSX, nil
	default:
		return "", fmt.Errorf("unsupported format %q", s)
	}
}

// FormatFromFilename guesses the format from an uploaded file name.
// Plain .txt exports from count tools are tab separated.
func FormatFromFilename(name string) Format {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".txt", ".tsv", ".tab":
		return FormatTSV
	case ".xlsx":
		return FormatXLSX
	default:
		return FormatCSV
	}
}

// Delimiter returns the field separator for delimited formats.
func (f Format) Delimiter() rune {
	if f == FormatTSV {
		return '\t'
	}
	return ','
}

// CountMatrix is a parsed upload: one header row and raw string cells.
// Every row has exactly len(Headers) cells; missing trailing cells are empty.
type CountMatrix struct {
	Headers []string
	Rows    [][]string
}

// NewCountMatrix normalizes headers and pads short rows.
// Headers are whitespace-stripped, blank headers become "Unnamed: i" and
// duplicates get ".1", ".2" suffixes so every column is addressable by name.
func NewCountMatrix(headers []string, rows [][]string) *CountMatrix {
	normalized := make([]string, len(headers))
	seen := make(map[string]int, len(headers))
	for i, h := range headers {
		name := strings.TrimSpace(h)
		if name == "" {
			name = fmt.Sprintf("Unnamed: %d", i)
		}
		if n, dup := seen[name]; dup {
			candidate := fmt.Sprintf("%s.%d", name, n)
			for seen[candidate] > 0 {
				n++
				candidate = fmt.Sprintf("%s.%d", name, n)
			}
			seen[name] = n + 1
			name = candidate
		}
		seen[name]++
		normalized[i] = name
	}

	padded := make([][]string, len(rows))
	for i, row := range rows {
		cells := make([]string, len(normalized))
		copy(cells, row)
		padded[i] = cells
	}

	return &CountMatrix{Headers: normalized, Rows: padded}
}

// NumGenes returns the number of data rows.
func (m *CountMatrix) NumGenes() int {
	if m == nil {
		return 0
	}
	return len(m.Rows)
}

// ColumnIndex returns the position of a header or -1.
func (m *CountMatrix) ColumnIndex(name string) int {
	for i, h := range m.Headers {
		if h == name {
			return i
		}
	}
	return -1
}

// HasColumn reports whether the header exists.
func (m *CountMatrix) HasColumn(name string) bool {
	return m.ColumnIndex(name) >= 0
}

// Column returns the raw cells of one column.
func (m *CountMatrix) Column(name string) ([]string, error) {
	idx := m.ColumnIndex(name)
	if idx < 0 {
		return nil, fmt.Errorf("column %q not found", name)
	}
	values := make([]string, len(m.Rows))
	for i, row := range m.Rows {
		values[i] = row[idx]
	}
	return values, nil
}

// Preview returns at most n leading rows.
func (m *CountMatrix) Preview(n int) [][]string {
	if n > len(m.Rows) {
		n = len(m.Rows)
	}
	return m.Rows[:n]
}
