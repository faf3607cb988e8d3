// =============================================================================
// Grab Sheet Builder - Loader
// =============================================================================
//
// The loader turns the two configured input paths into typed tables:
//
//   orders: id, name, <numeric metric columns...>
//   stops:  name, route, stop, <any other columns...>
//
// The parser is chosen from the file extension (.xlsx/.xlsm via excelize,
// .csv via encoding/csv). Workbook cells keep the type Excel stored for them.
// CSV cells carry no type, so CSV columns whose cells all read as numbers are
// converted to Int or Float. The key columns (id, name, route) are never
// converted: route "007" stays "007" and names the sheet route_007.
//
// FAILURES:
//   - InputNotFoundError: path missing, a directory, unsupported extension,
//     or a file the parser cannot open.
//   - SchemaError: required columns absent, or the configured sheet missing.
//
// Source files are only read, never modified.
//
// =============================================================================

package loader

import (
	"errors"
	"os"
	"path/filepath"
	"strings"

	"github.com/ginjaninja78/grabsheet/internal/apperrors"
	"github.com/ginjaninja78/grabsheet/internal/csvparser"
	"github.com/ginjaninja78/grabsheet/internal/types"
	"github.com/ginjaninja78/grabsheet/internal/xlsxparser"
)

// Column names every run depends on.
const (
	ColumnID    = "id"
	ColumnName  = "name"
	ColumnRoute = "route"
	ColumnStop  = "stop"
)

// Options carries reader settings for both inputs.
type Options struct {
	// OrdersSheet selects the worksheet of the order workbook ("" = first).
	OrdersSheet string

	// StopsSheet selects the worksheet of the stop workbook ("" = first).
	StopsSheet string

	// CSVDelimiter is used when an input is a .csv file.
	CSVDelimiter string
}

// LoadOrders reads the customer order table and checks for id and name.
func LoadOrders(path string, opts Options) (*types.Table, error) {
	table, err := Load(path, opts.OrdersSheet, opts.CSVDelimiter)
	if err != nil {
		return nil, err
	}
	if missing := table.MissingColumns(ColumnID, ColumnName); len(missing) > 0 {
		return nil, apperrors.MissingColumns(path, missing)
	}
	return table, nil
}

// LoadStops reads the per-route stop table and checks for name, route and
// stop.
func LoadStops(path string, opts Options) (*types.Table, error) {
	table, err := Load(path, opts.StopsSheet, opts.CSVDelimiter)
	if err != nil {
		return nil, err
	}
	if missing := table.MissingColumns(ColumnName, ColumnRoute, ColumnStop); len(missing) > 0 {
		return nil, apperrors.MissingColumns(path, missing)
	}
	return table, nil
}

// KeyColumns are identifiers. They are compared as written and never parsed
// as numbers.
var KeyColumns = []string{ColumnID, ColumnName, ColumnRoute}

// Load reads any supported tabular file and types its columns.
//
// PARAMETERS:
//   - path: The input file.
//   - sheet: Worksheet name for workbook inputs; ignored for CSV.
//   - delimiter: Field separator for CSV inputs.
//
// RETURNS:
//   - The typed table.
//   - An *apperrors.Error of kind INPUT_NOT_FOUND or SCHEMA.
func Load(path, sheet, delimiter string) (*types.Table, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, apperrors.InputNotFound(path, err)
	}
	if info.IsDir() {
		return nil, apperrors.InputNotFound(path, errors.New("path is a directory"))
	}

	var (
		table *types.Table
		typed bool
	)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx", ".xlsm", ".xltx", ".xltm":
		table, err = xlsxparser.ReadTable(path, xlsxparser.Options{Sheet: sheet})
		if errors.Is(err, xlsxparser.ErrSheetNotFound) {
			return nil, apperrors.Schema("worksheet not found", err).With("path", path).With("sheet", sheet)
		}
		typed = true
	case ".csv", ".txt":
		table, err = csvparser.ReadTable(path, delimiter)
	default:
		return nil, apperrors.InputNotFound(path, errors.New("unsupported file extension "+filepath.Ext(path)))
	}
	if err != nil {
		return nil, apperrors.InputNotFound(path, err)
	}

	if len(table.Columns) == 0 {
		return nil, apperrors.Schema("input has no header row", nil).With("path", path)
	}

	if typed {
		table.WidenNumericColumns()
	} else {
		table.InferColumnTypes(KeyColumns...)
	}
	return table, nil
}
