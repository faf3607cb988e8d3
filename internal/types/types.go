// =============================================================================
// Grab Sheet Builder - Shared Types
// =============================================================================
//
// This package contains the in-memory relational model shared by every stage
// of the pipeline. Types defined here are used by:
//   - xlsxparser / csvparser (produce tables)
//   - loader                 (types the columns)
//   - joiner / partitioner   (reshape tables)
//   - batcher                (sums numeric cells)
//   - xlsxwriter             (renders cells)
//
// =============================================================================

package types

import (
	"math"
	"strconv"
	"strings"
)

// =============================================================================
// CELL VALUES
// =============================================================================

// Kind identifies what a Value holds.
type Kind int

const (
	// Null is an empty cell.
	Null Kind = iota

	// Text is a free-form string cell.
	Text

	// Int is a whole-number cell.
	Int

	// Float is a floating point cell.
	Float
)

// Value is a single cell of a Table.
type Value struct {
	Kind  Kind
	Str   string
	Int   int64
	Float float64
}

// NullValue returns an empty cell.
func NullValue() Value { return Value{Kind: Null} }

// TextValue returns a text cell. An empty string is stored as Null.
func TextValue(s string) Value {
	if s == "" {
		return NullValue()
	}
	return Value{Kind: Text, Str: s}
}

// IntValue returns a whole-number cell.
func IntValue(i int64) Value { return Value{Kind: Int, Int: i} }

// FloatValue returns a floating point cell.
func FloatValue(f float64) Value { return Value{Kind: Float, Float: f} }

// IsNull reports whether the cell is empty.
func (v Value) IsNull() bool { return v.Kind == Null }

// IsNumber reports whether the cell holds an Int or a Float.
func (v Value) IsNumber() bool { return v.Kind == Int || v.Kind == Float }

// String renders the cell the way it is shown in logs and sheet names.
func (v Value) String() string {
	switch v.Kind {
	case Text:
		return v.Str
	case Int:
		return strconv.FormatInt(v.Int, 10)
	case Float:
		return strconv.FormatFloat(v.Float, 'f', -1, 64)
	default:
		return ""
	}
}

// Interface returns the cell as a value accepted by excelize.SetCellValue.
// Null cells return nil.
func (v Value) Interface() interface{} {
	switch v.Kind {
	case Text:
		return v.Str
	case Int:
		return v.Int
	case Float:
		return v.Float
	default:
		return nil
	}
}

// Number returns the numeric reading of the cell. Text cells are parsed;
// ok is false for Null cells and for text that is not a number.
func (v Value) Number() (Value, bool) {
	switch v.Kind {
	case Int, Float:
		return v, true
	case Text:
		return ParseNumber(v.Str)
	default:
		return v, false
	}
}

// ParseNumber parses a raw cell string as an Int, falling back to a Float.
func ParseNumber(raw string) (Value, bool) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return NullValue(), false
	}
	if i, err := strconv.ParseInt(s, 10, 64); err == nil {
		return IntValue(i), true
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return NullValue(), false
	}
	return FloatValue(f), true
}

// asFloat widens a numeric Value to float64.
func (v Value) asFloat() float64 {
	if v.Kind == Int {
		return float64(v.Int)
	}
	return v.Float
}

// Compare orders two cells. Numbers compare numerically and sort before text;
// text compares lexicographically; nulls sort last.
func Compare(a, b Value) int {
	if a.IsNull() || b.IsNull() {
		switch {
		case a.IsNull() && b.IsNull():
			return 0
		case a.IsNull():
			return 1
		default:
			return -1
		}
	}

	an, aok := a.Number()
	bn, bok := b.Number()
	switch {
	case aok && bok:
		if an.Kind == Int && bn.Kind == Int {
			return cmpInt(an.Int, bn.Int)
		}
		return cmpFloat(an.asFloat(), bn.asFloat())
	case aok:
		return -1
	case bok:
		return 1
	}
	return strings.Compare(a.String(), b.String())
}

func cmpInt(a, b int64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

func cmpFloat(a, b float64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

// =============================================================================
// TABLES
// =============================================================================

// Row is one record of a Table. Cells are positionally aligned with
// Table.Columns.
type Row []Value

// Table is a fully materialized tabular input.
type Table struct {
	// Columns contains the header names in file order.
	Columns []string

	// Rows contains the data rows. Every row has len(Columns) cells.
	Rows []Row

	// Source is the path the table was read from (for error reporting).
	Source string
}

// Index returns the position of the named column, or -1.
func (t *Table) Index(name string) int {
	for i, c := range t.Columns {
		if c == name {
			return i
		}
	}
	return -1
}

// HasColumn reports whether the table has the named column.
func (t *Table) HasColumn(name string) bool {
	return t.Index(name) >= 0
}

// MissingColumns returns the names in required that the table lacks,
// in the order they were asked for.
func (t *Table) MissingColumns(required ...string) []string {
	var missing []string
	for _, name := range required {
		if !t.HasColumn(name) {
			missing = append(missing, name)
		}
	}
	return missing
}

// Cell returns the value at row r of the named column, or Null if the
// column does not exist.
func (t *Table) Cell(r int, name string) Value {
	i := t.Index(name)
	if i < 0 || r < 0 || r >= len(t.Rows) || i >= len(t.Rows[r]) {
		return NullValue()
	}
	return t.Rows[r][i]
}

// InferColumnTypes parses the text cells of every column whose non-empty
// cells all read as numbers. A column with at least one non-integer number
// becomes Float throughout; otherwise it becomes Int. Columns with any
// non-numeric text are left untouched, and so are the columns named in keep.
//
// It is meant for untyped sources such as CSV. Typed sources only need
// WidenNumericColumns.
func (t *Table) InferColumnTypes(keep ...string) {
	for col := range t.Columns {
		if containsName(keep, t.Columns[col]) {
			continue
		}
		allInt := true
		numeric := true
		seen := false
		for _, row := range t.Rows {
			v := row[col]
			if v.IsNull() {
				continue
			}
			n, ok := v.Number()
			if !ok {
				numeric = false
				break
			}
			seen = true
			if n.Kind == Float {
				allInt = false
			}
		}
		if !numeric || !seen {
			continue
		}
		for _, row := range t.Rows {
			if row[col].IsNull() {
				continue
			}
			n, _ := row[col].Number()
			if !allInt && n.Kind == Int {
				n = FloatValue(float64(n.Int))
			}
			row[col] = n
		}
	}
}

// WidenNumericColumns turns the Int cells of a column into Float when every
// non-empty cell is a number and at least one of them is a Float. Text cells
// are never parsed, so a column holding any text is left as it is.
func (t *Table) WidenNumericColumns() {
	for col := range t.Columns {
		hasFloat := false
		numeric := true
		for _, row := range t.Rows {
			switch row[col].Kind {
			case Float:
				hasFloat = true
			case Text:
				numeric = false
			}
		}
		if !numeric || !hasFloat {
			continue
		}
		for _, row := range t.Rows {
			if row[col].Kind == Int {
				row[col] = FloatValue(float64(row[col].Int))
			}
		}
	}
}

func containsName(names []string, name string) bool {
	for _, n := range names {
		if n == name {
			return true
		}
	}
	return false
}
