package coercer

import (
	"math"
	"strconv"
	"strings"
)

// NumericCoercer converts raw matrix cells to float64. Anything that does not
// parse becomes NaN, which the pipeline treats as a missing value.
type NumericCoercer struct {
	config CoercionConfig
}

// CoercionConfig defines the coercion rules
type CoercionConfig struct {
	// AllowInfinity keeps "inf"/"-inf" cells as infinite values instead of
	// treating them as missing.
	AllowInfinity bool `json:"allow_infinity"`
	// MissingTokens are recognized as missing without counting as invalid.
	MissingTokens []string `json:"missing_tokens"`
}

// DefaultCoercionConfig returns defaults matching common count-table exports
func DefaultCoercionConfig() CoercionConfig {
	return CoercionConfig{
		AllowInfinity: true,
		MissingTokens: []string{"NA", "N/A", "NaN", "nan", "null", "NULL", "None"},
	}
}

// NewNumericCoercer creates a coercer with the given config
func NewNumericCoercer(config CoercionConfig) *NumericCoercer {
	return &NumericCoercer{config: config}
}

// ColumnReport summarizes a column coercion
type ColumnReport struct {
	Total   int `json:"total"`
	Missing int `json:"missing"`
	// Invalid counts non-empty cells that were not numbers.
	Invalid int `json:"invalid"`
}

// CoerceValue parses one cell. ok is false when the result is missing.
func (c *NumericCoercer) CoerceValue(raw string) (value float64, ok bool) {
	v, state := c.coerce(raw)
	return v, state == cellNumeric
}

// CoerceColumn parses a whole column
func (c *NumericCoercer) CoerceColumn(raw []string) ([]float64, ColumnReport) {
	values := make([]float64, len(raw))
	report := ColumnReport{Total: len(raw)}
	for i, cell := range raw {
		v, state := c.coerce(cell)
		values[i] = v
		switch state {
		case cellMissing:
			report.Missing++
		case cellInvalid:
			report.Missing++
			report.Invalid++
		}
	}
	return values, report
}

type cellState int

const (
	cellNumeric cellState = iota
	cellMissing
	cellInvalid
)

func (c *NumericCoercer) coerce(raw string) (float64, cellState) {
	clean := strings.TrimSpace(raw)
	if clean == "" {
		return math.NaN(), cellMissing
	}
	for _, token := range c.config.MissingTokens {
		if clean == token {
			return math.NaN(), cellMissing
		}
	}

	v, err := strconv.ParseFloat(clean, 64)
	if err != nil {
		// ParseFloat returns ±Inf with ErrRange for overflowing literals
		if numErr, ok := err.(*strconv.NumError); ok && numErr.Err == strconv.ErrRange && c.config.AllowInfinity {
			return v, cellNumeric
		}
		return math.NaN(), cellInvalid
	}
	if math.IsNaN(v) {
		return v, cellMissing
	}
	if math.IsInf(v, 0) && !c.config.AllowInfinity {
		return math.NaN(), cellInvalid
	}
	return v, cellNumeric
}
