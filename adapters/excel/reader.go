package excel

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"rnaseqde/domain/core"
	"rnaseqde/domain/expression"
	"rnaseqde/internal"

	"github.com/xuri/excelize/v2"
)

const utf8BOM = "\ufeff"

// DataReader handles reading delimited text and Excel uploads
type DataReader struct {
	logger *internal.Logger
}

// NewDataReader creates a new data reader that handles CSV, TSV and XLSX
func NewDataReader(logger *internal.Logger) *DataReader {
	if logger == nil {
		logger = internal.DefaultLogger
	}
	return &DataReader{logger: logger.Named("DataReader")}
}

// ReadMatrix parses an upload into a count matrix. Only the shape of the file
// is checked here; numeric coercion happens later in the pipeline.
func (r *DataReader) ReadMatrix(in io.Reader, format expression.Format) (*expression.CountMatrix, error) {
	start := time.Now()

	var (
		m   *expression.CountMatrix
		err error
	)
	switch format {
	case expression.FormatCSV, expression.FormatTSV:
		m, err = r.readDelimited(in, format.Delimiter())
	case expression.FormatXLSX:
		m, err = r.readExcel(in)
	default:
		return nil, core.NewParseError(fmt.Sprintf("unsupported file type %q", format), nil)
	}
	if err != nil {
		return nil, err
	}

	r.logger.Debug("%s upload parsed in %.2fms (%d columns, %d rows)",
		strings.ToUpper(string(format)), float64(time.Since(start).Nanoseconds())/1e6, len(m.Headers), len(m.Rows))
	return m, nil
}

// readDelimited reads comma or tab separated text with the first row as header
func (r *DataReader) readDelimited(in io.Reader, delimiter rune) (*expression.CountMatrix, error) {
	reader := csv.NewReader(in)
	reader.Comma = delimiter
	reader.FieldsPerRecord = -1
	// stray quotes inside cells are kept as text, like pandas read_csv
	reader.LazyQuotes = true

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, core.NewParseError("no columns to parse from file", nil)
	}
	if err != nil {
		return nil, core.NewParseError("invalid header row", err)
	}
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], utf8BOM)
	}

	var rows [][]string
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, core.NewParseError("malformed delimited text", err)
		}
		if len(record) > len(header) {
			line, _ := reader.FieldPos(0)
			return nil, core.NewParseError(fmt.Sprintf("expected %d fields in line %d, saw %d", len(header), line, len(record)), nil)
		}
		rows = append(rows, record)
	}

	return expression.NewCountMatrix(header, rows), nil
}

// readExcel reads the first worksheet of an XLSX workbook
func (r *DataReader) readExcel(in io.Reader) (*expression.CountMatrix, error) {
	f, err := excelize.OpenReader(in)
	if err != nil {
		return nil, core.NewParseError("failed to open Excel workbook", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, core.NewParseError("workbook has no sheets", nil)
	}

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, core.NewParseError(fmt.Sprintf("failed to read sheet %s", sheets[0]), err)
	}
	if len(rows) == 0 {
		return nil, core.NewParseError("no columns to parse from file", nil)
	}

	header := rows[0]
	width := len(header)
	for _, row := range rows[1:] {
		if len(row) > width {
			width = len(row)
		}
	}
	// Excel drops trailing empty cells, so a short header row is widened
	// with blank names rather than rejected.
	for len(header) < width {
		header = append(header, "")
	}

	return expression.NewCountMatrix(header, rows[1:]), nil
}
