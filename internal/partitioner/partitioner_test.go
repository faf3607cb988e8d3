package partitioner

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ginjaninja78/grabsheet/internal/apperrors"
	"github.com/ginjaninja78/grabsheet/internal/types"
)

func txt(s string) types.Value { return types.TextValue(s) }
func num(i int64) types.Value  { return types.IntValue(i) }

func routesOf(groups []RouteGroup) []types.Value {
	routes := make([]types.Value, len(groups))
	for i, g := range groups {
		routes[i] = g.Route
	}
	return routes
}

func joined(rows ...types.Row) *types.Table {
	return &types.Table{Columns: []string{"name", "route", "stop"}, Rows: rows}
}

func TestPartitionOrdersRoutesAndStops(t *testing.T) {
	table := joined(
		types.Row{txt("c"), txt("R2"), num(3)},
		types.Row{txt("a"), txt("R1"), num(2)},
		types.Row{txt("b"), txt("R2"), num(1)},
		types.Row{txt("d"), txt("R1"), num(1)},
	)

	result, err := Partition(table, "route", "stop")
	require.NoError(t, err)

	require.Len(t, result.Groups, 2)
	assert.Equal(t, []types.Value{txt("R1"), txt("R2")}, routesOf(result.Groups))

	names := func(g RouteGroup) []string {
		var out []string
		for _, r := range g.Rows {
			out = append(out, r[0].String())
		}
		return out
	}
	assert.Equal(t, []string{"d", "a"}, names(result.Groups[0]))
	assert.Equal(t, []string{"b", "c"}, names(result.Groups[1]))
}

func TestPartitionStableOnEqualStops(t *testing.T) {
	table := joined(
		types.Row{txt("first"), txt("R1"), num(1)},
		types.Row{txt("x"), txt("R1"), num(0)},
		types.Row{txt("second"), txt("R1"), num(1)},
		types.Row{txt("third"), txt("R1"), num(1)},
	)

	result, err := Partition(table, "route", "stop")
	require.NoError(t, err)
	require.Len(t, result.Groups, 1)

	rows := result.Groups[0].Rows
	require.Len(t, rows, 4)
	assert.Equal(t, "x", rows[0][0].String())
	assert.Equal(t, "first", rows[1][0].String())
	assert.Equal(t, "second", rows[2][0].String())
	assert.Equal(t, "third", rows[3][0].String())
}

func TestPartitionNumericRoutes(t *testing.T) {
	table := joined(
		types.Row{txt("a"), num(10), num(1)},
		types.Row{txt("b"), num(9), num(1)},
		types.Row{txt("c"), txt("A"), num(1)},
	)

	result, err := Partition(table, "route", "stop")
	require.NoError(t, err)
	assert.Equal(t, []types.Value{num(9), num(10), txt("A")}, routesOf(result.Groups))
}

func TestPartitionSkipsBlankRoutes(t *testing.T) {
	table := joined(
		types.Row{txt("a"), types.NullValue(), num(1)},
		types.Row{txt("b"), txt("R1"), num(1)},
	)

	result, err := Partition(table, "route", "stop")
	require.NoError(t, err)
	assert.Equal(t, 1, result.BlankRoutes)
	require.Len(t, result.Groups, 1)
	assert.Len(t, result.Groups[0].Rows, 1)
}

func TestPartitionEveryGroupNonEmpty(t *testing.T) {
	var rows []types.Row
	for i := 0; i < 30; i++ {
		rows = append(rows, types.Row{txt("n"), num(int64(i % 4)), num(int64(i))})
	}

	result, err := Partition(joined(rows...), "route", "stop")
	require.NoError(t, err)
	require.Len(t, result.Groups, 4)

	total := 0
	for _, g := range result.Groups {
		assert.NotEmpty(t, g.Rows)
		total += len(g.Rows)
	}
	assert.Equal(t, 30, total)
}

func TestPartitionMissingColumns(t *testing.T) {
	table := &types.Table{Columns: []string{"name", "stop"}}

	_, err := Partition(table, "route", "stop")
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrSchema))
}

func TestPartitionKeepsRoutesAsWritten(t *testing.T) {
	table := joined(
		types.Row{txt("a"), txt("07"), num(1)},
		types.Row{txt("b"), txt("7"), num(1)},
		types.Row{txt("c"), num(7), num(1)},
		types.Row{txt("d"), txt("07"), num(2)},
	)

	result, err := Partition(table, "route", "stop")
	require.NoError(t, err)
	require.Len(t, result.Groups, 3)

	// Equal numeric readings keep first-seen order.
	assert.Equal(t, []types.Value{txt("07"), txt("7"), num(7)}, routesOf(result.Groups))
	assert.Len(t, result.Groups[0].Rows, 2)
}
