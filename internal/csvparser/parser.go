// =============================================================================
// Grab Sheet Builder - CSV Table Reader
// =============================================================================
//
// This module reads a delimited text export into a types.Table. It exists for
// sites that export the order or stop table as CSV instead of XLSX; the
// resulting table is indistinguishable from one read by xlsxparser.
//
// FEATURES:
//   - Configurable delimiter (comma, pipe, tab, semicolon)
//   - Header on the first row, blank headers named Column_<n>
//   - Ragged rows (short rows are padded with empty cells)
//   - UTF-8 byte order mark stripped from the first header
//
// =============================================================================

package csvparser

import (
	"bufio"
	"encoding/csv"
	"fmt"
	"os"
	"strings"
	"unicode/utf8"

	"github.com/ginjaninja78/grabsheet/internal/types"
)

// =============================================================================
// PARSER FUNCTIONS
// =============================================================================

// ReadTable reads a CSV file and returns its rows as a table.
//
// PARAMETERS:
//   - filePath: The path to the CSV file.
//   - delimiter: The field separator ("," when empty).
//
// RETURNS:
//   - The table with every cell as Text or Null.
//   - An error if the file cannot be read or parsed.
func ReadTable(filePath, delimiter string) (*types.Table, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	csvReader := csv.NewReader(bufio.NewReader(file))
	if err := configureReader(csvReader, delimiter); err != nil {
		return nil, err
	}

	allRows, err := csvReader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV: %w", err)
	}

	table := &types.Table{Source: filePath}
	if len(allRows) == 0 {
		return table, nil
	}

	allRows[0] = stripBOM(allRows[0])
	table.Columns = cleanHeaders(allRows[0])

	for _, row := range allRows[1:] {
		if isRowEmpty(row) {
			continue
		}

		record := make(types.Row, len(table.Columns))
		for colIndex := range table.Columns {
			if colIndex < len(row) {
				record[colIndex] = types.TextValue(strings.TrimSpace(row[colIndex]))
			} else {
				// Column is missing in this row.
				record[colIndex] = types.NullValue()
			}
		}
		table.Rows = append(table.Rows, record)
	}

	return table, nil
}

// Delimiter resolves a configured delimiter to the field separator rune.
// Apart from the named aliases (tab, pipe, semicolon) the delimiter must be
// a single character, which may be multi-byte (e.g. "§"). Empty means comma.
func Delimiter(delimiter string) (rune, error) {
	switch delimiter {
	case "\\t", "tab", "TAB", "\t":
		return '\t', nil
	case "|", "pipe", "PIPE":
		return '|', nil
	case ";", "semicolon":
		return ';', nil
	case "":
		return ',', nil
	}

	r, size := utf8.DecodeRuneInString(delimiter)
	if r == utf8.RuneError || size != len(delimiter) {
		return 0, fmt.Errorf("delimiter %q must be a single character", delimiter)
	}
	return r, nil
}

// configureReader configures the CSV reader for the given delimiter.
func configureReader(reader *csv.Reader, delimiter string) error {
	comma, err := Delimiter(delimiter)
	if err != nil {
		return err
	}
	reader.Comma = comma

	// Allow variable number of fields per row.
	reader.FieldsPerRecord = -1

	// Spreadsheet exports are not always strict about quoting.
	reader.LazyQuotes = true

	reader.TrimLeadingSpace = true
	return nil
}

// =============================================================================
// HELPER FUNCTIONS
// =============================================================================

// cleanHeaders trims header names and names blank headers Column_<n>.
func cleanHeaders(headers []string) []string {
	cleaned := make([]string, len(headers))
	for i, header := range headers {
		header = strings.TrimSpace(header)
		if header == "" {
			header = fmt.Sprintf("Column_%d", i+1)
		}
		cleaned[i] = header
	}
	return cleaned
}

// stripBOM removes a UTF-8 byte order mark from the first header cell.
func stripBOM(row []string) []string {
	if len(row) > 0 {
		row[0] = strings.TrimPrefix(row[0], "\ufeff")
	}
	return row
}

// isRowEmpty checks if a row contains only empty values.
func isRowEmpty(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}
