package ports

import (
	"io"

	"rnaseqde/domain/expression"
)

// MatrixReader parses an uploaded byte stream into a count matrix.
// Implementations return an error wrapping core.ErrParse for malformed input.
type MatrixReader interface {
	ReadMatrix(r io.Reader, format expression.Format) (*expression.CountMatrix, error)
}
