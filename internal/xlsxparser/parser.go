// =============================================================================
// Grab Sheet Builder - XLSX Table Reader
// =============================================================================
//
// This module reads one worksheet of an XLSX workbook into a types.Table.
// Both inputs of a run (the customer order table and the per-route stop
// table) are usually exported as single-sheet workbooks:
//
//   | id | name  | qty | amount |        | name  | route | stop |
//   |----|-------|-----|--------|        |-------|-------|------|
//   | 1  | Alice | 10  | 120.5  |        | Alice | R1    | 1    |
//   | 2  | Bob   | 5   | 60     |        | Bob   | R1    | 2    |
//
// Cells are read raw (unformatted), so a number stored as 1000 is returned as
// 1000 even when the cell displays "1,000". Each cell keeps the type Excel
// stored for it: number cells become Int or Float, while string cells stay
// Text even when they look numeric, so a route typed as "007" is not read
// back as 7.
//
// =============================================================================

package xlsxparser

import (
	"errors"
	"fmt"
	"strings"

	"github.com/ginjaninja78/grabsheet/internal/types"
	"github.com/xuri/excelize/v2"
)

// ErrSheetNotFound is returned when the requested worksheet does not exist.
var ErrSheetNotFound = errors.New("worksheet not found")

// =============================================================================
// READ OPTIONS
// =============================================================================

// Options controls which sheet is read. The header is always row 1.
type Options struct {
	// Sheet is the worksheet to read. Empty selects the first sheet.
	Sheet string
}

// =============================================================================
// READER FUNCTIONS
// =============================================================================

// ReadTable opens the workbook at path and reads one sheet into a table.
//
// PARAMETERS:
//   - path: The path to the XLSX file.
//   - opts: Sheet selection.
//
// RETURNS:
//   - The table with typed cells (Text, Int, Float or Null).
//   - An error if the workbook cannot be opened or the sheet is missing.
func ReadTable(path string, opts Options) (*types.Table, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer f.Close()

	sheetName, err := resolveSheet(f, opts.Sheet)
	if err != nil {
		return nil, err
	}

	// RawCellValue skips number formats so "1,000" comes back as "1000".
	rows, err := f.GetRows(sheetName, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("failed to read rows of sheet %q: %w", sheetName, err)
	}

	cellType := func(row, col int) (excelize.CellType, error) {
		cell, err := excelize.CoordinatesToCellName(col+1, row+1)
		if err != nil {
			return excelize.CellTypeUnset, err
		}
		return f.GetCellType(sheetName, cell)
	}

	return buildTable(path, rows, cellType)
}

// resolveSheet returns the sheet to read, defaulting to the first one.
func resolveSheet(f *excelize.File, want string) (string, error) {
	if want == "" {
		name := f.GetSheetName(0)
		if name == "" {
			return "", fmt.Errorf("workbook has no sheets: %w", ErrSheetNotFound)
		}
		return name, nil
	}

	for _, name := range f.GetSheetList() {
		if name == want {
			return name, nil
		}
	}
	return "", fmt.Errorf("%q: %w", want, ErrSheetNotFound)
}

// buildTable converts raw rows into a table. Row 0 is the header and fully
// blank rows are skipped. cellType reports the stored type of the cell at a
// 0-based row and column.
func buildTable(path string, rows [][]string, cellType func(row, col int) (excelize.CellType, error)) (*types.Table, error) {
	table := &types.Table{Source: path}
	if len(rows) == 0 {
		return table, nil
	}

	table.Columns = CleanHeaders(rows[0])

	for i := 1; i < len(rows); i++ {
		row := rows[i]
		if IsRowEmpty(row) {
			continue
		}

		record := make(types.Row, len(table.Columns))
		for col := range table.Columns {
			if col >= len(row) || strings.TrimSpace(row[col]) == "" {
				record[col] = types.NullValue()
				continue
			}
			ct, err := cellType(i, col)
			if err != nil {
				return nil, fmt.Errorf("failed to read cell type at row %d: %w", i+1, err)
			}
			record[col] = CellValue(row[col], ct)
		}
		table.Rows = append(table.Rows, record)
	}

	return table, nil
}

// CellValue types a raw cell string by its stored cell type. Number cells,
// and untyped cells (plain numbers and numeric formula results carry no
// type attribute), are parsed as numbers. Strings, booleans, dates and
// errors stay Text.
func CellValue(raw string, cellType excelize.CellType) types.Value {
	s := strings.TrimSpace(raw)
	switch cellType {
	case excelize.CellTypeUnset, excelize.CellTypeNumber:
		if n, ok := types.ParseNumber(s); ok {
			return n
		}
	}
	return types.TextValue(s)
}

// =============================================================================
// HELPER FUNCTIONS
// =============================================================================

// CleanHeaders trims header names and names blank headers Column_<n>.
// Trailing blank headers are dropped.
func CleanHeaders(headers []string) []string {
	last := len(headers)
	for last > 0 && strings.TrimSpace(headers[last-1]) == "" {
		last--
	}

	cleaned := make([]string, last)
	for i := 0; i < last; i++ {
		header := strings.TrimSpace(headers[i])
		if header == "" {
			header = fmt.Sprintf("Column_%d", i+1)
		}
		cleaned[i] = header
	}
	return cleaned
}

// IsRowEmpty checks if a row contains only empty cells.
func IsRowEmpty(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}
