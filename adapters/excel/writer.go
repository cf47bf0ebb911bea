package excel

import (
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"strconv"

	"rnaseqde/domain/expression"

	"github.com/xuri/excelize/v2"
)

// ResultColumns is the header of every results export
var ResultColumns = []string{"Gene", "BaseMean", "Log2FoldChange", "pvalue", "FDR"}

const resultsSheet = "DE_results"

// WriteCSV writes result rows with a header line and no index column.
// Missing values are written as empty cells.
func WriteCSV(w io.Writer, rows []expression.ResultRow) error {
	writer := csv.NewWriter(w)
	if err := writer.Write(ResultColumns); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}
	for _, row := range rows {
		record := []string{
			row.Gene,
			formatFloat(row.BaseMean),
			formatFloat(row.Log2FoldChange),
			formatFloat(row.PValue),
			formatFloat(row.FDR),
		}
		if err := writer.Write(record); err != nil {
			return fmt.Errorf("failed to write CSV row for %s: %w", row.Gene, err)
		}
	}
	writer.Flush()
	return writer.Error()
}

// WriteXLSX writes result rows to a single-sheet workbook
func WriteXLSX(w io.Writer, rows []expression.ResultRow) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), resultsSheet); err != nil {
		return fmt.Errorf("failed to name results sheet: %w", err)
	}

	header := make([]interface{}, len(ResultColumns))
	for i, col := range ResultColumns {
		header[i] = col
	}
	if err := f.SetSheetRow(resultsSheet, "A1", &header); err != nil {
		return fmt.Errorf("failed to write header row: %w", err)
	}

	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		values := []interface{}{row.Gene, cellValue(row.BaseMean), cellValue(row.Log2FoldChange), cellValue(row.PValue), cellValue(row.FDR)}
		if err := f.SetSheetRow(resultsSheet, cell, &values); err != nil {
			return fmt.Errorf("failed to write row for %s: %w", row.Gene, err)
		}
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}

func formatFloat(v float64) string {
	switch {
	case math.IsNaN(v):
		return ""
	case math.IsInf(v, 1):
		return "inf"
	case math.IsInf(v, -1):
		return "-inf"
	}
	return strconv.FormatFloat(v, 'g', -1, 64)
}

func cellValue(v float64) interface{} {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return v
}
