// Package testutil builds input fixtures for package tests.
package testutil

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

// WriteWorkbook writes rows (header first) to sheet of a new workbook at
// dir/name and returns its path.
func WriteWorkbook(t *testing.T, dir, name, sheet string, rows [][]interface{}) string {
	t.Helper()

	f := excelize.NewFile()
	defer f.Close()

	if sheet != "" && sheet != "Sheet1" {
		require.NoError(t, f.SetSheetName("Sheet1", sheet))
	} else {
		sheet = "Sheet1"
	}

	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		r := row
		require.NoError(t, f.SetSheetRow(sheet, cell, &r))
	}

	path := filepath.Join(dir, name)
	require.NoError(t, f.SaveAs(path))
	return path
}

// WriteCSV writes records to dir/name and returns its path.
func WriteCSV(t *testing.T, dir, name string, comma rune, records [][]string) string {
	t.Helper()

	path := filepath.Join(dir, name)
	file, err := os.Create(path)
	require.NoError(t, err)
	defer file.Close()

	w := csv.NewWriter(file)
	w.Comma = comma
	require.NoError(t, w.WriteAll(records))
	return path
}

// Orders returns the header and rows of a small order table.
func Orders(rows ...[]interface{}) [][]interface{} {
	return append([][]interface{}{{"id", "name", "qty", "amount"}}, rows...)
}

// Stops returns the header and rows of a small stop table.
func Stops(rows ...[]interface{}) [][]interface{} {
	return append([][]interface{}{{"name", "route", "stop"}}, rows...)
}
