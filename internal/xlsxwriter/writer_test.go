package xlsxwriter

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/ginjaninja78/grabsheet/internal/batcher"
	"github.com/ginjaninja78/grabsheet/internal/partitioner"
	"github.com/ginjaninja78/grabsheet/internal/types"
)

func routeSheet(t *testing.T, route types.Value, n int) *batcher.Sheet {
	t.Helper()

	g := partitioner.RouteGroup{Route: route}
	for i := 1; i <= n; i++ {
		g.Rows = append(g.Rows, types.Row{
			types.TextValue("customer"),
			route,
			types.IntValue(int64(i)),
			types.IntValue(int64(i * 2)),
		})
	}

	opts := batcher.DefaultOptions()
	opts.SumColumns = []string{"qty"}
	sheet, err := batcher.Summarize([]string{"name", "route", "stop", "qty"}, g, opts)
	require.NoError(t, err)
	return sheet
}

func saveAndOpen(t *testing.T, w *Writer) *excelize.File {
	t.Helper()

	path := filepath.Join(t.TempDir(), "grab.xlsx")
	require.NoError(t, w.Save(path))
	require.NoError(t, w.Close())

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	t.Cleanup(func() { f.Close() })
	return f
}

func TestSheetName(t *testing.T) {
	tests := []struct {
		route types.Value
		want  string
	}{
		{types.TextValue("R1"), "route_R1"},
		{types.IntValue(7), "route_7"},
		{types.TextValue("A/B:C?[x]*"), "route_A_B_C__x__"},
		{types.TextValue("north'"), "route_north"},
		{types.TextValue(strings.Repeat("x", 40)), "route_" + strings.Repeat("x", 25)},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			got := SheetName(tt.route)
			assert.Equal(t, tt.want, got)
			assert.LessOrEqual(t, len([]rune(got)), MaxSheetNameLength)
		})
	}
}

func TestAddSheetUniqueNames(t *testing.T) {
	w, err := New(DefaultOptions())
	require.NoError(t, err)
	defer w.Close()

	long := strings.Repeat("y", 40)
	first, err := w.AddSheet(routeSheet(t, types.TextValue(long+"1"), 1))
	require.NoError(t, err)
	second, err := w.AddSheet(routeSheet(t, types.TextValue(long+"2"), 1))
	require.NoError(t, err)
	third, err := w.AddSheet(routeSheet(t, types.TextValue("A:B"), 1))
	require.NoError(t, err)
	fourth, err := w.AddSheet(routeSheet(t, types.TextValue("a/b"), 1))
	require.NoError(t, err)

	assert.Equal(t, "route_"+strings.Repeat("y", 25), first)
	assert.Equal(t, "route_"+strings.Repeat("y", 23)+"~2", second)
	assert.Equal(t, "route_A_B", third)
	assert.Equal(t, "route_a_b~2", fourth)
	assert.Len(t, []rune(second), MaxSheetNameLength)
	assert.Equal(t, []string{first, second, third, fourth}, w.Sheets())
}

func TestNameSetNext(t *testing.T) {
	names := NewNameSet()

	assert.Equal(t, "route_a_b", names.Next(types.TextValue("a:b")))
	assert.Equal(t, "route_a_b~2", names.Next(types.TextValue("a_b")))
	assert.Equal(t, "route_A_B~3", names.Next(types.TextValue("A/B")))
	assert.Equal(t, "route_007", names.Next(types.TextValue("007")))
	assert.Equal(t, "route_7", names.Next(types.IntValue(7)))
	assert.Equal(t, "route_7~2", names.Next(types.TextValue("7")))
}

func TestWorkbookLayout(t *testing.T) {
	w, err := New(DefaultOptions())
	require.NoError(t, err)

	_, err = w.AddSheet(routeSheet(t, types.TextValue("R1"), 7))
	require.NoError(t, err)
	_, err = w.AddSheet(routeSheet(t, types.TextValue("R2"), 2))
	require.NoError(t, err)

	f := saveAndOpen(t, w)

	assert.Equal(t, []string{"route_R1", "route_R2"}, f.GetSheetList())

	rows, err := f.GetRows("route_R1")
	require.NoError(t, err)
	require.Len(t, rows, 10)
	assert.Equal(t, []string{"R1", "name", "qty"}, rows[0])
	assert.Equal(t, []string{"1", "customer", "2"}, rows[1])
	assert.Equal(t, []string{"", "Grab#", "42"}, rows[7])
	assert.Equal(t, []string{"7", "customer", "14"}, rows[8])
	assert.Equal(t, []string{"", "Grab#", "14"}, rows[9])

	rows, err = f.GetRows("route_R2")
	require.NoError(t, err)
	require.Len(t, rows, 4)
	assert.Equal(t, []string{"", "Grab#", "6"}, rows[3])
}

func TestWorkbookNumericCells(t *testing.T) {
	w, err := New(DefaultOptions())
	require.NoError(t, err)

	_, err = w.AddSheet(routeSheet(t, types.IntValue(12), 1))
	require.NoError(t, err)
	f := saveAndOpen(t, w)

	// Numbers are stored as numeric cells, text goes to the shared strings.
	for _, cell := range []string{"A1", "A2", "C2"} {
		typ, err := f.GetCellType("route_12", cell)
		require.NoError(t, err)
		assert.NotEqual(t, excelize.CellTypeSharedString, typ, cell)
		assert.NotEqual(t, excelize.CellTypeInlineString, typ, cell)
	}

	typ, err := f.GetCellType("route_12", "B2")
	require.NoError(t, err)
	assert.Equal(t, excelize.CellTypeSharedString, typ)
}

func TestWorkbookHighlightRule(t *testing.T) {
	opts := DefaultOptions()
	opts.HighlightMaxRow = 500

	w, err := New(opts)
	require.NoError(t, err)
	_, err = w.AddSheet(routeSheet(t, types.TextValue("R1"), 3))
	require.NoError(t, err)
	f := saveAndOpen(t, w)

	formats, err := f.GetConditionalFormats("route_R1")
	require.NoError(t, err)
	require.Contains(t, formats, "A1:C500")

	rule := formats["A1:C500"]
	require.Len(t, rule, 1)
	assert.Equal(t, "formula", rule[0].Type)
	assert.Equal(t, `$B1="Grab#"`, rule[0].Criteria)
	require.NotNil(t, rule[0].Format)

	style, err := f.GetConditionalStyle(*rule[0].Format)
	require.NoError(t, err)
	require.NotNil(t, style.Font)
	assert.True(t, style.Font.Bold)
	assert.Equal(t, "pattern", style.Fill.Type)
}

func TestWorkbookHighlightCoversLongSheets(t *testing.T) {
	opts := DefaultOptions()
	opts.HighlightMaxRow = 3

	w, err := New(opts)
	require.NoError(t, err)
	_, err = w.AddSheet(routeSheet(t, types.TextValue("R1"), 8))
	require.NoError(t, err)
	f := saveAndOpen(t, w)

	formats, err := f.GetConditionalFormats("route_R1")
	require.NoError(t, err)
	assert.Contains(t, formats, "A1:C11")
}

func TestWorkbookBordersAndHeader(t *testing.T) {
	opts := DefaultOptions()
	opts.HeaderFontSize = 16

	w, err := New(opts)
	require.NoError(t, err)
	_, err = w.AddSheet(routeSheet(t, types.TextValue("R1"), 2))
	require.NoError(t, err)
	f := saveAndOpen(t, w)

	for _, cell := range []string{"A1", "C1", "A2", "B3", "C4", "A4"} {
		id, err := f.GetCellStyle("route_R1", cell)
		require.NoError(t, err)
		style, err := f.GetStyle(id)
		require.NoError(t, err)
		assert.Len(t, style.Border, 4, cell)
	}

	id, err := f.GetCellStyle("route_R1", "B1")
	require.NoError(t, err)
	style, err := f.GetStyle(id)
	require.NoError(t, err)
	require.NotNil(t, style.Font)
	assert.True(t, style.Font.Bold)
	assert.Equal(t, 16.0, style.Font.Size)
}

func TestWorkbookColumnWidths(t *testing.T) {
	w, err := New(DefaultOptions())
	require.NoError(t, err)
	_, err = w.AddSheet(routeSheet(t, types.TextValue("R1"), 1))
	require.NoError(t, err)
	f := saveAndOpen(t, w)

	width, err := f.GetColWidth("route_R1", "B")
	require.NoError(t, err)
	assert.InDelta(t, ColumnWidth(len("customer")), width, 0.01)
}

func TestColumnWidthBounds(t *testing.T) {
	assert.Equal(t, minColumnWidth, ColumnWidth(0))
	assert.Equal(t, maxColumnWidth, ColumnWidth(1000))
	assert.InDelta(t, 14.0, ColumnWidth(10), 0.001)
}

func TestSaveWithoutSheets(t *testing.T) {
	w, err := New(DefaultOptions())
	require.NoError(t, err)
	defer w.Close()

	path := filepath.Join(t.TempDir(), "grab.xlsx")
	assert.True(t, errors.Is(w.Save(path), ErrNoSheets))
	_, statErr := os.Stat(path)
	assert.True(t, os.IsNotExist(statErr))
}

func TestSaveKeepsPreviousFileOnFailure(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "missing", "grab.xlsx")

	w, err := New(DefaultOptions())
	require.NoError(t, err)
	defer w.Close()
	_, err = w.AddSheet(routeSheet(t, types.TextValue("R1"), 1))
	require.NoError(t, err)

	// The parent directory does not exist, so nothing can be written.
	assert.Error(t, w.Save(path))
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestCloseIsIdempotent(t *testing.T) {
	w, err := New(DefaultOptions())
	require.NoError(t, err)

	require.NoError(t, w.Close())
	require.NoError(t, w.Close())

	_, err = w.AddSheet(routeSheet(t, types.TextValue("R1"), 1))
	assert.True(t, errors.Is(err, ErrClosed))
	assert.True(t, errors.Is(w.Save(filepath.Join(t.TempDir(), "x.xlsx")), ErrClosed))
}

func TestHighlightFormula(t *testing.T) {
	assert.Equal(t, `$B1="Grab#"`, HighlightFormula("B", "Grab#"))
	assert.Equal(t, `$C1="say ""hi"""`, HighlightFormula("C", `say "hi"`))
}
