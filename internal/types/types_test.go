package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseNumber(t *testing.T) {
	tests := []struct {
		raw  string
		want Value
		ok   bool
	}{
		{"10", IntValue(10), true},
		{" -3 ", IntValue(-3), true},
		{"2.5", FloatValue(2.5), true},
		{"1e3", FloatValue(1000), true},
		{"", NullValue(), false},
		{"abc", NullValue(), false},
		{"NaN", NullValue(), false},
		{"Inf", NullValue(), false},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got, ok := ParseNumber(tt.raw)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestTextValueEmptyIsNull(t *testing.T) {
	assert.True(t, TextValue("").IsNull())
	assert.False(t, TextValue("x").IsNull())
}

func TestValueRendering(t *testing.T) {
	assert.Equal(t, "", NullValue().String())
	assert.Equal(t, "R1", TextValue("R1").String())
	assert.Equal(t, "42", IntValue(42).String())
	assert.Equal(t, "2.5", FloatValue(2.5).String())

	assert.Nil(t, NullValue().Interface())
	assert.Equal(t, "R1", TextValue("R1").Interface())
	assert.Equal(t, int64(42), IntValue(42).Interface())
	assert.Equal(t, 2.5, FloatValue(2.5).Interface())
}

func TestCompare(t *testing.T) {
	tests := []struct {
		name string
		a, b Value
		want int
	}{
		{"ints", IntValue(2), IntValue(10), -1},
		{"numeric text", TextValue("10"), TextValue("9"), 1},
		{"int and float", IntValue(2), FloatValue(2.0), 0},
		{"number before text", IntValue(99), TextValue("A"), -1},
		{"text after number", TextValue("A"), IntValue(1), 1},
		{"text", TextValue("R1"), TextValue("R2"), -1},
		{"null last", NullValue(), IntValue(1), 1},
		{"null equal", NullValue(), NullValue(), 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Compare(tt.a, tt.b))
		})
	}
}

func TestTableLookup(t *testing.T) {
	table := &Table{
		Columns: []string{"name", "route"},
		Rows:    []Row{{TextValue("Alice"), TextValue("R1")}},
	}

	assert.Equal(t, 1, table.Index("route"))
	assert.Equal(t, -1, table.Index("stop"))
	assert.True(t, table.HasColumn("name"))
	assert.Equal(t, []string{"stop", "id"}, table.MissingColumns("name", "stop", "id"))
	assert.Equal(t, TextValue("R1"), table.Cell(0, "route"))
	assert.True(t, table.Cell(5, "route").IsNull())
}

func TestInferColumnTypes(t *testing.T) {
	table := &Table{
		Columns: []string{"name", "qty", "amount", "route"},
		Rows: []Row{
			{TextValue("Alice"), TextValue("10"), TextValue("1.5"), TextValue("7")},
			{TextValue("Bob"), NullValue(), TextValue("2"), TextValue("R2")},
		},
	}

	table.InferColumnTypes()

	require.Len(t, table.Rows, 2)
	assert.Equal(t, TextValue("Alice"), table.Rows[0][0])

	assert.Equal(t, IntValue(10), table.Rows[0][1])
	assert.True(t, table.Rows[1][1].IsNull())

	// One fractional value turns the whole column into floats.
	assert.Equal(t, FloatValue(1.5), table.Rows[0][2])
	assert.Equal(t, FloatValue(2), table.Rows[1][2])

	// Mixed columns stay text.
	assert.Equal(t, TextValue("7"), table.Rows[0][3])
	assert.Equal(t, TextValue("R2"), table.Rows[1][3])
}

func TestInferColumnTypesKeepsNamedColumns(t *testing.T) {
	table := &Table{
		Columns: []string{"id", "route", "stop"},
		Rows: []Row{
			{TextValue("001"), TextValue("007"), TextValue("2")},
			{TextValue("002"), TextValue("7"), TextValue("1")},
		},
	}

	table.InferColumnTypes("id", "route")

	assert.Equal(t, TextValue("001"), table.Rows[0][0])
	assert.Equal(t, TextValue("007"), table.Rows[0][1])
	assert.Equal(t, TextValue("7"), table.Rows[1][1])
	assert.Equal(t, IntValue(2), table.Rows[0][2])
}

func TestWidenNumericColumns(t *testing.T) {
	table := &Table{
		Columns: []string{"qty", "amount", "code"},
		Rows: []Row{
			{IntValue(1), FloatValue(2.5), TextValue("10")},
			{IntValue(2), IntValue(1), FloatValue(1.5)},
			{NullValue(), NullValue(), IntValue(3)},
		},
	}

	table.WidenNumericColumns()

	assert.Equal(t, IntValue(1), table.Rows[0][0])
	assert.Equal(t, FloatValue(1), table.Rows[1][1])
	assert.True(t, table.Rows[2][1].IsNull())

	// Text is never parsed, so the column keeps its Int cell.
	assert.Equal(t, TextValue("10"), table.Rows[0][2])
	assert.Equal(t, IntValue(3), table.Rows[2][2])
}
