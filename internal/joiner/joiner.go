// =============================================================================
// Grab Sheet Builder - Joiner
// =============================================================================
//
// The joiner inner-joins the stop table to the order table on the customer
// name. The result keeps the stop rows in their input order; each stop row is
// followed by its matching order rows in order-table order.
//
// RESULT COLUMNS:
//   stop columns (file order), then order columns minus the join key and the
//   order id. A non-key column present on both sides gets "_x" (stop side)
//   and "_y" (order side) suffixes.
//
// JOIN SEMANTICS:
//   - A stop whose name has no order is dropped. This is expected: unmatched
//     stops produce no output row. The count is reported in Result.Unmatched.
//   - A name repeated on either side is reported in Result.Cardinality.
//     Repeated order names multiply stop rows. The policy decides whether
//     that is a warning (default) or a SchemaError.
//
// Inputs are never mutated.
//
// =============================================================================

package joiner

import (
	"sort"
	"strings"

	"github.com/ginjaninja78/grabsheet/internal/apperrors"
	"github.com/ginjaninja78/grabsheet/internal/types"
)

// =============================================================================
// OPTIONS
// =============================================================================

// DuplicatePolicy decides what happens when a join key is not unique.
type DuplicatePolicy string

const (
	// DuplicatesWarn accepts fan-out and reports it.
	DuplicatesWarn DuplicatePolicy = "warn"

	// DuplicatesReject fails the join with a SchemaError.
	DuplicatesReject DuplicatePolicy = "reject"
)

// Options configures a join.
type Options struct {
	// Key is the column both tables are joined on.
	Key string

	// Drop lists order-side columns left out of the result (the order id).
	Drop []string

	// Duplicates is the policy for non-unique keys.
	Duplicates DuplicatePolicy
}

// =============================================================================
// RESULT
// =============================================================================

// CardinalityWarning lists join keys that are not unique on one side and
// that take part in the join.
type CardinalityWarning struct {
	// OrderNames are names with more than one order row. Each matching stop
	// row is multiplied by the number of order rows.
	OrderNames []string

	// StopNames are names with more than one matched stop row. Their order
	// values are counted once per stop row.
	StopNames []string
}

// Count returns the number of distinct affected names.
func (w CardinalityWarning) Count() int {
	seen := make(map[string]struct{}, len(w.OrderNames)+len(w.StopNames))
	for _, n := range w.OrderNames {
		seen[n] = struct{}{}
	}
	for _, n := range w.StopNames {
		seen[n] = struct{}{}
	}
	return len(seen)
}

// Empty reports whether every join key was unique.
func (w CardinalityWarning) Empty() bool {
	return len(w.OrderNames) == 0 && len(w.StopNames) == 0
}

// Names returns every affected name, sorted and de-duplicated.
func (w CardinalityWarning) Names() []string {
	seen := make(map[string]struct{})
	var names []string
	for _, n := range append(append([]string{}, w.OrderNames...), w.StopNames...) {
		if _, ok := seen[n]; ok {
			continue
		}
		seen[n] = struct{}{}
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Result is the outcome of a join.
type Result struct {
	// Table is the joined table.
	Table *types.Table

	// Unmatched is the number of stop rows without an order.
	Unmatched int

	// UnmatchedNames are the distinct names of those rows, in stop order.
	UnmatchedNames []string

	// Cardinality reports non-unique join keys.
	Cardinality CardinalityWarning
}

// =============================================================================
// JOIN
// =============================================================================

// Join inner-joins stops to orders on opts.Key.
//
// PARAMETERS:
//   - stops: The left table; its row order drives the result order.
//   - orders: The right table.
//   - opts: Join key, dropped order columns, duplicate policy.
//
// RETURNS:
//   - The join result.
//   - A SchemaError when the key column is missing, or when duplicates are
//     found under DuplicatesReject.
func Join(stops, orders *types.Table, opts Options) (*Result, error) {
	stopKey := stops.Index(opts.Key)
	orderKey := orders.Index(opts.Key)
	if stopKey < 0 {
		return nil, apperrors.MissingColumns(stops.Source, []string{opts.Key})
	}
	if orderKey < 0 {
		return nil, apperrors.MissingColumns(orders.Source, []string{opts.Key})
	}

	columns, orderCols := joinColumns(stops.Columns, orders.Columns, opts)

	// Index order rows by key, keeping order-table order per key.
	byKey := make(map[string][]int, len(orders.Rows))
	for i, row := range orders.Rows {
		k := keyOf(row[orderKey])
		if k == "" {
			continue
		}
		byKey[k] = append(byKey[k], i)
	}

	result := &Result{Table: &types.Table{Columns: columns, Source: stops.Source}}
	matchedStops := make(map[string]int)
	unmatchedSeen := make(map[string]struct{})

	for _, stopRow := range stops.Rows {
		k := keyOf(stopRow[stopKey])
		matches := byKey[k]
		if k == "" || len(matches) == 0 {
			result.Unmatched++
			if _, ok := unmatchedSeen[k]; !ok {
				unmatchedSeen[k] = struct{}{}
				result.UnmatchedNames = append(result.UnmatchedNames, stopRow[stopKey].String())
			}
			continue
		}
		matchedStops[k]++

		for _, oi := range matches {
			joined := make(types.Row, 0, len(columns))
			joined = append(joined, stopRow...)
			for _, c := range orderCols {
				joined = append(joined, orders.Rows[oi][c])
			}
			result.Table.Rows = append(result.Table.Rows, joined)
		}
	}

	result.Cardinality = cardinality(byKey, matchedStops, orders, orderKey)

	if opts.Duplicates == DuplicatesReject && !result.Cardinality.Empty() {
		return nil, apperrors.Schema("join key is not unique", nil).
			With("column", opts.Key).
			With("names", strings.Join(result.Cardinality.Names(), ", "))
	}

	return result, nil
}

// joinColumns builds the result header and the order column positions that
// follow the stop columns.
func joinColumns(stopCols, orderCols []string, opts Options) ([]string, []int) {
	drop := make(map[string]bool, len(opts.Drop)+1)
	drop[opts.Key] = true
	for _, d := range opts.Drop {
		drop[d] = true
	}

	onStopSide := make(map[string]bool, len(stopCols))
	for _, c := range stopCols {
		onStopSide[c] = true
	}

	var keep []int
	onOrderSide := make(map[string]bool)
	for i, c := range orderCols {
		if drop[c] {
			continue
		}
		keep = append(keep, i)
		onOrderSide[c] = true
	}

	columns := make([]string, 0, len(stopCols)+len(keep))
	for _, c := range stopCols {
		if c != opts.Key && onOrderSide[c] {
			c += "_x"
		}
		columns = append(columns, c)
	}
	for _, i := range keep {
		c := orderCols[i]
		if onStopSide[c] {
			c += "_y"
		}
		columns = append(columns, c)
	}
	return columns, keep
}

// cardinality collects the keys that fan out.
func cardinality(byKey map[string][]int, matchedStops map[string]int, orders *types.Table, orderKey int) CardinalityWarning {
	var w CardinalityWarning
	for k, rows := range byKey {
		if len(rows) > 1 && matchedStops[k] > 0 {
			w.OrderNames = append(w.OrderNames, orders.Rows[rows[0]][orderKey].String())
		}
	}
	for k, n := range matchedStops {
		if n > 1 {
			w.StopNames = append(w.StopNames, orders.Rows[byKey[k][0]][orderKey].String())
		}
	}
	sort.Strings(w.OrderNames)
	sort.Strings(w.StopNames)
	return w
}

// keyOf normalizes a join key cell. Null keys never match.
func keyOf(v types.Value) string {
	if v.IsNull() {
		return ""
	}
	return strings.TrimSpace(v.String())
}
