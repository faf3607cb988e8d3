// =============================================================================
// Grab Sheet Builder - Batcher / Summarizer
// =============================================================================
//
// The batcher turns one route group into the rows of its output sheet.
//
// LAYOUT:
//   The stop-ordered rows are cut into consecutive batches of BatchSize (6).
//   The last batch holds whatever is left (1-6 rows) and is never dropped.
//   A subtotal row follows every batch:
//
//     row 1 .. row 6, Grab#, row 7 .. row 12, Grab#, row 13, Grab#
//
//   A subtotal row has the label in the name column, the batch sum in every
//   summed column and nothing anywhere else (route and stop included).
//
// COLUMNS:
//   The route column is removed (one sheet is one route) and the stop column
//   moves to the front. Other columns keep their joined order.
//
// NUMERIC SEMANTICS:
//   - A summed column adds up as int64 when every non-empty cell of the batch
//     is a whole number, and as float64 otherwise.
//   - Empty cells contribute nothing; an all-empty batch sums to 0.
//   - Sums that overflow int64 are carried as float64.
//   - MetricColumns picks the summed columns: a column whose filled cells
//     are all non-numeric text (an address, a note) is left out instead of
//     failing the run.
//   - A summed cell that is not a number fails the route with a DataTypeError
//     naming the column and the route. Columns that are not summed are never
//     parsed.
//
// =============================================================================

package batcher

import (
	"sort"

	"github.com/ginjaninja78/grabsheet/internal/apperrors"
	"github.com/ginjaninja78/grabsheet/internal/partitioner"
	"github.com/ginjaninja78/grabsheet/internal/types"
)

const (
	// BatchSize is the number of records summed by one subtotal row.
	BatchSize = 6

	// SubtotalLabel marks subtotal rows in the name column.
	SubtotalLabel = "Grab#"
)

// =============================================================================
// OPTIONS
// =============================================================================

// Options configures Summarize.
type Options struct {
	// BatchSize is the number of rows per batch. Default: 6.
	BatchSize int

	// Label is written to the name column of subtotal rows. Default: "Grab#".
	Label string

	// RouteColumn is dropped from the output.
	RouteColumn string

	// StopColumn becomes the first output column.
	StopColumn string

	// NameColumn receives the subtotal label.
	NameColumn string

	// SumColumns are the columns added up by subtotal rows. Columns not
	// present in the input are ignored; route, stop and name are never summed.
	SumColumns []string
}

// DefaultOptions returns the standard route/stop/name layout with no summed
// columns.
func DefaultOptions() Options {
	return Options{
		BatchSize:   BatchSize,
		Label:       SubtotalLabel,
		RouteColumn: "route",
		StopColumn:  "stop",
		NameColumn:  "name",
	}
}

// =============================================================================
// OUTPUT SHEET
// =============================================================================

// Row is one output row.
type Row struct {
	// Cells are aligned with Sheet.Columns.
	Cells []types.Value

	// Subtotal is true for the synthetic row that follows a batch.
	Subtotal bool
}

// Sheet is the rendered content of one route.
type Sheet struct {
	// Route is the route identifier.
	Route types.Value

	// Columns are the output column names; Columns[0] is the stop column.
	Columns []string

	// Rows are the data rows interleaved with subtotal rows.
	Rows []Row

	// DataRows is the number of non-subtotal rows.
	DataRows int

	// Subtotals is the number of subtotal rows.
	Subtotals int
}

// ColumnIndex returns the output position of a column, or -1.
func (s *Sheet) ColumnIndex(name string) int {
	for i, c := range s.Columns {
		if c == name {
			return i
		}
	}
	return -1
}

// =============================================================================
// SUMMARIZE
// =============================================================================

// MetricColumns returns the candidates that t can sum, in candidate order.
// A column is dropped when it has at least one filled cell and none of its
// filled cells is a number. Columns with no filled cell are kept (their
// subtotals are 0), and so are columns mixing numbers with text, which makes
// the stray text a DataTypeError.
func MetricColumns(t *types.Table, candidates []string) []string {
	var metrics []string
	for _, name := range candidates {
		col := t.Index(name)
		if col < 0 {
			continue
		}
		filled, numeric := 0, 0
		for _, row := range t.Rows {
			if row[col].IsNull() {
				continue
			}
			filled++
			if _, ok := row[col].Number(); ok {
				numeric++
			}
		}
		if filled > 0 && numeric == 0 {
			continue
		}
		metrics = append(metrics, name)
	}
	return metrics
}

// Batches returns the [start, end) bounds of consecutive batches over n rows.
func Batches(n, size int) [][2]int {
	if size <= 0 {
		size = BatchSize
	}
	bounds := make([][2]int, 0, (n+size-1)/size)
	for start := 0; start < n; start += size {
		end := start + size
		if end > n {
			end = n
		}
		bounds = append(bounds, [2]int{start, end})
	}
	return bounds
}

// Summarize builds the output sheet of one route group.
//
// PARAMETERS:
//   - columns: The joined table's column names (group rows align with them).
//   - group: The stop-ordered rows of one route.
//   - opts: Layout and summing rules.
//
// RETURNS:
//   - The sheet with subtotal rows interleaved.
//   - A SchemaError if route, stop or name is missing from columns.
//   - A DataTypeError if a summed cell is not a number.
func Summarize(columns []string, group partitioner.RouteGroup, opts Options) (*Sheet, error) {
	opts = withDefaults(opts)

	routeIdx := indexOf(columns, opts.RouteColumn)
	stopIdx := indexOf(columns, opts.StopColumn)
	nameIdx := indexOf(columns, opts.NameColumn)
	var missing []string
	for name, idx := range map[string]int{opts.RouteColumn: routeIdx, opts.StopColumn: stopIdx, opts.NameColumn: nameIdx} {
		if idx < 0 {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		return nil, apperrors.MissingColumns("", missing).With("route", group.Route.String())
	}

	// layout[out] is the input position rendered at output position out.
	layout := make([]int, 0, len(columns)-1)
	layout = append(layout, stopIdx)
	for i := range columns {
		if i != stopIdx && i != routeIdx {
			layout = append(layout, i)
		}
	}

	sheet := &Sheet{Route: group.Route, Columns: make([]string, len(layout))}
	for out, in := range layout {
		sheet.Columns[out] = columns[in]
	}

	summed := make(map[int]bool)
	for _, name := range opts.SumColumns {
		i := indexOf(columns, name)
		if i < 0 || i == routeIdx || i == stopIdx || i == nameIdx {
			continue
		}
		summed[i] = true
	}

	for _, b := range Batches(len(group.Rows), opts.BatchSize) {
		batch := group.Rows[b[0]:b[1]]

		for _, row := range batch {
			cells := make([]types.Value, len(layout))
			for out, in := range layout {
				cells[out] = row[in]
				if summed[in] {
					if n, ok := row[in].Number(); ok {
						cells[out] = n
					}
				}
			}
			sheet.Rows = append(sheet.Rows, Row{Cells: cells})
			sheet.DataRows++
		}

		subtotal := make([]types.Value, len(layout))
		for out, in := range layout {
			switch {
			case in == nameIdx:
				subtotal[out] = types.TextValue(opts.Label)
			case summed[in]:
				sum, err := sumColumn(batch, in)
				if err != nil {
					return nil, apperrors.DataType(columns[in], group.Route.String(), err.value)
				}
				subtotal[out] = sum
			default:
				subtotal[out] = types.NullValue()
			}
		}
		sheet.Rows = append(sheet.Rows, Row{Cells: subtotal, Subtotal: true})
		sheet.Subtotals++
	}

	return sheet, nil
}

// badCell carries the offending raw value out of sumColumn.
type badCell struct {
	value string
}

// sumColumn adds up column col over rows.
func sumColumn(rows []types.Row, col int) (types.Value, *badCell) {
	var (
		isum  int64
		fsum  float64
		float bool
	)
	for _, row := range rows {
		cell := row[col]
		if cell.IsNull() {
			continue
		}
		n, ok := cell.Number()
		if !ok {
			return types.NullValue(), &badCell{value: cell.String()}
		}
		if n.Kind == types.Float {
			float = true
			fsum += n.Float
			continue
		}
		next := isum + n.Int
		if (n.Int > 0 && next < isum) || (n.Int < 0 && next > isum) {
			// int64 overflow; fsum already holds the widened total.
			float = true
		}
		isum = next
		fsum += float64(n.Int)
	}
	if float {
		return types.FloatValue(fsum), nil
	}
	return types.IntValue(isum), nil
}

func withDefaults(opts Options) Options {
	def := DefaultOptions()
	if opts.BatchSize <= 0 {
		opts.BatchSize = def.BatchSize
	}
	if opts.Label == "" {
		opts.Label = def.Label
	}
	if opts.RouteColumn == "" {
		opts.RouteColumn = def.RouteColumn
	}
	if opts.StopColumn == "" {
		opts.StopColumn = def.StopColumn
	}
	if opts.NameColumn == "" {
		opts.NameColumn = def.NameColumn
	}
	return opts
}

func indexOf(columns []string, name string) int {
	for i, c := range columns {
		if c == name {
			return i
		}
	}
	return -1
}
