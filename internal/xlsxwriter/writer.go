// =============================================================================
// Grab Sheet Builder - XLSX Sheet Writer
// =============================================================================
//
// This module renders route sheets into one output workbook using excelize.
//
// SHEET LAYOUT:
//   Row 1 is the header. Column A of the header holds the route identifier in
//   place of the "stop" label; the other header cells are the column names.
//   Rows 2.. are the data and subtotal rows produced by the batcher.
//
// FORMATTING:
//   - Header: bold (optionally a larger font), thin border.
//   - Body: thin border on every cell of the populated extent.
//   - Subtotal rows: a conditional format evaluated by the spreadsheet
//     application. Any row whose name cell equals the subtotal label gets a
//     solid fill and bold text, up to HighlightMaxRow.
//   - Columns: widths fitted to the longest rendered value.
//
// SHEET NAMES:
//   "route_<route>", with : \ / ? * [ ] replaced by "_", leading and trailing
//   apostrophes trimmed and the result cut to 31 characters. A name that is
//   already taken (case-insensitively) gets a "~<n>" tail.
//
// LIFECYCLE:
//   New -> AddSheet (one per route, in order) -> Save -> Close.
//   Close must be called on every path; it is safe to call more than once.
//
// =============================================================================

package xlsxwriter

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/xuri/excelize/v2"

	"github.com/ginjaninja78/grabsheet/internal/batcher"
	"github.com/ginjaninja78/grabsheet/internal/types"
	"github.com/ginjaninja78/grabsheet/pkg/utils"
)

const (
	// MaxSheetNameLength is the longest sheet name a workbook accepts.
	MaxSheetNameLength = 31

	// SheetPrefix starts every route sheet name.
	SheetPrefix = "route_"

	// DefaultHighlightColor is the fill of subtotal rows.
	DefaultHighlightColor = "EBF1DE"

	// DefaultHighlightMaxRow is the last row covered by the subtotal highlight.
	DefaultHighlightMaxRow = 10000

	maxColumnWidth = 255.0
	minColumnWidth = 6.0
)

// ErrClosed is returned by a Writer after Close.
var ErrClosed = errors.New("workbook writer is closed")

// ErrNoSheets is returned by Save when no sheet was added.
var ErrNoSheets = errors.New("workbook has no sheets")

// =============================================================================
// OPTIONS
// =============================================================================

// Options controls the look of the output sheets.
type Options struct {
	// HeaderFontSize sets the header font size. 0 keeps the default size.
	HeaderFontSize float64

	// HighlightColor is the hex fill of subtotal rows ("EBF1DE" or "#EBF1DE").
	HighlightColor string

	// HighlightMaxRow is the last row the highlight rule covers. The rule
	// always reaches at least the last written row.
	HighlightMaxRow int

	// Label is the subtotal marker matched by the highlight rule.
	Label string

	// NameColumn is the column holding the label.
	NameColumn string
}

// DefaultOptions returns the standard grab sheet look.
func DefaultOptions() Options {
	return Options{
		HighlightColor:  DefaultHighlightColor,
		HighlightMaxRow: DefaultHighlightMaxRow,
		Label:           batcher.SubtotalLabel,
		NameColumn:      "name",
	}
}

// =============================================================================
// WRITER
// =============================================================================

// Writer owns one output workbook.
type Writer struct {
	file   *excelize.File
	opts   Options
	sheets []string
	names  *NameSet
	closed bool

	headerStyle    int
	bodyStyle      int
	highlightStyle int
}

// New creates an empty workbook and registers its styles.
func New(opts Options) (*Writer, error) {
	opts = withDefaults(opts)

	w := &Writer{
		file: excelize.NewFile(),
		opts:  opts,
		names: NewNameSet(),
	}

	if err := w.createStyles(); err != nil {
		w.file.Close()
		return nil, err
	}

	return w, nil
}

// createStyles registers the header, body and highlight styles.
func (w *Writer) createStyles() error {
	border := thinBorder()

	headerFont := &excelize.Font{Bold: true}
	if w.opts.HeaderFontSize > 0 {
		headerFont.Size = w.opts.HeaderFontSize
	}

	var err error
	w.headerStyle, err = w.file.NewStyle(&excelize.Style{
		Font:   headerFont,
		Border: border,
	})
	if err != nil {
		return fmt.Errorf("failed to create header style: %w", err)
	}

	w.bodyStyle, err = w.file.NewStyle(&excelize.Style{
		Border: border,
	})
	if err != nil {
		return fmt.Errorf("failed to create body style: %w", err)
	}

	w.highlightStyle, err = w.file.NewConditionalStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{
			Type:    "pattern",
			Color:   []string{hexColor(w.opts.HighlightColor)},
			Pattern: 1,
		},
	})
	if err != nil {
		return fmt.Errorf("failed to create highlight style: %w", err)
	}

	return nil
}

// Sheets returns the names of the sheets added so far, in workbook order.
func (w *Writer) Sheets() []string {
	return append([]string(nil), w.sheets...)
}

// AddSheet renders one route sheet and returns the sheet name used.
func (w *Writer) AddSheet(sheet *batcher.Sheet) (string, error) {
	if w.closed {
		return "", ErrClosed
	}
	if len(sheet.Columns) == 0 {
		return "", fmt.Errorf("sheet for route %s has no columns", sheet.Route.String())
	}

	name := w.names.Next(sheet.Route)
	if err := w.createSheet(name); err != nil {
		return "", err
	}

	if err := w.writeHeader(name, sheet); err != nil {
		return "", err
	}
	if err := w.writeBody(name, sheet); err != nil {
		return "", err
	}
	if err := w.applyBorders(name, sheet); err != nil {
		return "", err
	}
	if err := w.applyHighlight(name, sheet); err != nil {
		return "", err
	}
	if err := w.fitColumns(name, sheet); err != nil {
		return "", err
	}

	w.sheets = append(w.sheets, name)
	return name, nil
}

// createSheet reuses the default sheet for the first route so the workbook
// holds route sheets only.
func (w *Writer) createSheet(name string) error {
	if len(w.sheets) == 0 {
		first := w.file.GetSheetName(0)
		if err := w.file.SetSheetName(first, name); err != nil {
			return fmt.Errorf("failed to name sheet %s: %w", name, err)
		}
		return nil
	}
	if _, err := w.file.NewSheet(name); err != nil {
		return fmt.Errorf("failed to create sheet %s: %w", name, err)
	}
	return nil
}

// writeHeader writes row 1.
func (w *Writer) writeHeader(name string, sheet *batcher.Sheet) error {
	header := make([]interface{}, len(sheet.Columns))
	header[0] = sheet.Route.Interface()
	for i := 1; i < len(sheet.Columns); i++ {
		header[i] = sheet.Columns[i]
	}
	if err := w.file.SetSheetRow(name, "A1", &header); err != nil {
		return fmt.Errorf("failed to write header of %s: %w", name, err)
	}
	return nil
}

// writeBody writes the data and subtotal rows. Null cells stay empty.
func (w *Writer) writeBody(name string, sheet *batcher.Sheet) error {
	for r, row := range sheet.Rows {
		for c, cell := range row.Cells {
			if cell.IsNull() {
				continue
			}
			ref, err := excelize.CoordinatesToCellName(c+1, r+2)
			if err != nil {
				return err
			}
			if err := w.file.SetCellValue(name, ref, cell.Interface()); err != nil {
				return fmt.Errorf("failed to write %s!%s: %w", name, ref, err)
			}
		}
	}
	return nil
}

// applyBorders styles the header and the populated body extent.
func (w *Writer) applyBorders(name string, sheet *batcher.Sheet) error {
	lastCol := len(sheet.Columns)

	headerEnd, err := excelize.CoordinatesToCellName(lastCol, 1)
	if err != nil {
		return err
	}
	if err := w.file.SetCellStyle(name, "A1", headerEnd, w.headerStyle); err != nil {
		return fmt.Errorf("failed to style header of %s: %w", name, err)
	}

	if len(sheet.Rows) == 0 {
		return nil
	}
	bodyEnd, err := excelize.CoordinatesToCellName(lastCol, len(sheet.Rows)+1)
	if err != nil {
		return err
	}
	if err := w.file.SetCellStyle(name, "A2", bodyEnd, w.bodyStyle); err != nil {
		return fmt.Errorf("failed to style body of %s: %w", name, err)
	}
	return nil
}

// applyHighlight adds the subtotal row rule.
func (w *Writer) applyHighlight(name string, sheet *batcher.Sheet) error {
	nameIdx := sheet.ColumnIndex(w.opts.NameColumn)
	if nameIdx < 0 {
		return nil
	}

	nameCol, err := excelize.ColumnNumberToName(nameIdx + 1)
	if err != nil {
		return err
	}

	lastRow := w.opts.HighlightMaxRow
	if written := len(sheet.Rows) + 1; written > lastRow {
		lastRow = written
	}
	rangeEnd, err := excelize.CoordinatesToCellName(len(sheet.Columns), lastRow)
	if err != nil {
		return err
	}

	format := w.highlightStyle
	return w.file.SetConditionalFormat(name, "A1:"+rangeEnd, []excelize.ConditionalFormatOptions{
		{
			Type:     "formula",
			Criteria: HighlightFormula(nameCol, w.opts.Label),
			Format:   &format,
		},
	})
}

// HighlightFormula returns the row rule that matches subtotal rows. The row
// reference is relative so the rule is evaluated on every row of the range.
func HighlightFormula(nameCol, label string) string {
	return fmt.Sprintf(`$%s1="%s"`, nameCol, strings.ReplaceAll(label, `"`, `""`))
}

// fitColumns sizes each column to its longest rendered value.
func (w *Writer) fitColumns(name string, sheet *batcher.Sheet) error {
	widths := make([]int, len(sheet.Columns))
	widths[0] = utf8.RuneCountInString(sheet.Route.String())
	for i := 1; i < len(sheet.Columns); i++ {
		widths[i] = utf8.RuneCountInString(sheet.Columns[i])
	}
	for _, row := range sheet.Rows {
		for c, cell := range row.Cells {
			if n := utf8.RuneCountInString(cell.String()); n > widths[c] {
				widths[c] = n
			}
		}
	}

	for c, n := range widths {
		col, err := excelize.ColumnNumberToName(c + 1)
		if err != nil {
			return err
		}
		if err := w.file.SetColWidth(name, col, col, ColumnWidth(n)); err != nil {
			return fmt.Errorf("failed to size column %s of %s: %w", col, name, err)
		}
	}
	return nil
}

// ColumnWidth converts a character count into a column width.
func ColumnWidth(chars int) float64 {
	width := float64(chars)*1.2 + 2
	if width < minColumnWidth {
		width = minColumnWidth
	}
	if width > maxColumnWidth {
		width = maxColumnWidth
	}
	return width
}

// Save writes the workbook to path. The file at path is replaced only when
// the whole workbook was written.
func (w *Writer) Save(path string) error {
	if w.closed {
		return ErrClosed
	}
	if len(w.sheets) == 0 {
		return ErrNoSheets
	}
	w.file.SetActiveSheet(0)

	return utils.AtomicWrite(path, func(out io.Writer) error {
		return w.file.Write(out)
	})
}

// Close releases the workbook. Calls after the first do nothing.
func (w *Writer) Close() error {
	if w.closed {
		return nil
	}
	w.closed = true
	return w.file.Close()
}

// =============================================================================
// SHEET NAMES
// =============================================================================

var sheetNameReplacer = strings.NewReplacer(
	":", "_",
	`\`, "_",
	"/", "_",
	"?", "_",
	"*", "_",
	"[", "_",
	"]", "_",
)

// SheetName derives the sheet name of a route.
func SheetName(route types.Value) string {
	name := sheetNameReplacer.Replace(SheetPrefix + route.String())
	name = strings.Trim(name, "'")
	return truncate(name, MaxSheetNameLength)
}

// NameSet hands out sheet names that are unique within one workbook. Names
// are compared case-insensitively, as Excel does.
type NameSet struct {
	used map[string]bool
}

// NewNameSet returns an empty set.
func NewNameSet() *NameSet {
	return &NameSet{used: make(map[string]bool)}
}

// Next returns the sheet name of route and reserves it. A name already
// handed out gets a "~<n>" suffix, replacing its tail when needed so the
// result stays within MaxSheetNameLength.
func (s *NameSet) Next(route types.Value) string {
	name := SheetName(route)
	if s.used[strings.ToLower(name)] {
		for n := 2; ; n++ {
			suffix := fmt.Sprintf("~%d", n)
			candidate := truncate(name, MaxSheetNameLength-len(suffix)) + suffix
			if !s.used[strings.ToLower(candidate)] {
				name = candidate
				break
			}
		}
	}
	s.used[strings.ToLower(name)] = true
	return name
}

// truncate cuts s to at most n runes.
func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}

// =============================================================================
// HELPER FUNCTIONS
// =============================================================================

func thinBorder() []excelize.Border {
	return []excelize.Border{
		{Type: "left", Color: "000000", Style: 1},
		{Type: "top", Color: "000000", Style: 1},
		{Type: "right", Color: "000000", Style: 1},
		{Type: "bottom", Color: "000000", Style: 1},
	}
}

func hexColor(c string) string {
	return "#" + strings.TrimPrefix(strings.TrimSpace(c), "#")
}

func withDefaults(opts Options) Options {
	def := DefaultOptions()
	if opts.HighlightColor == "" {
		opts.HighlightColor = def.HighlightColor
	}
	if opts.HighlightMaxRow <= 0 {
		opts.HighlightMaxRow = def.HighlightMaxRow
	}
	if opts.Label == "" {
		opts.Label = def.Label
	}
	if opts.NameColumn == "" {
		opts.NameColumn = def.NameColumn
	}
	return opts
}
