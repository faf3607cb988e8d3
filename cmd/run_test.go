package cmd

import (
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRunFlags(t *testing.T, args ...string) *cobra.Command {
	t.Helper()

	asOfDate, asOfHour, today = "", 0, false

	c := &cobra.Command{Use: "run"}
	c.Flags().StringVar(&asOfDate, "as-of-date", "", "")
	c.Flags().IntVar(&asOfHour, "as-of-hour", 0, "")
	c.Flags().BoolVar(&today, "today", false, "")
	require.NoError(t, c.Flags().Parse(args))
	return c
}

func TestParseAsOf(t *testing.T) {
	now := time.Date(2024, 5, 1, 14, 30, 0, 0, time.Local)

	asOf, err := parseAsOf(newRunFlags(t), now)
	require.NoError(t, err)
	assert.True(t, asOf.Date.IsZero())
	assert.Nil(t, asOf.Hour)

	asOf, err = parseAsOf(newRunFlags(t, "--today"), now)
	require.NoError(t, err)
	assert.Equal(t, " as of 2024-05-01 @ hour=14", asOf.String())

	asOf, err = parseAsOf(newRunFlags(t, "--as-of-date", "2023-12-31", "--as-of-hour", "0"), now)
	require.NoError(t, err)
	assert.Equal(t, " as of 2023-12-31 @ hour=0", asOf.String())

	asOf, err = parseAsOf(newRunFlags(t, "--today", "--as-of-hour", "3"), now)
	require.NoError(t, err)
	assert.Equal(t, " as of 2024-05-01 @ hour=3", asOf.String())
}

func TestParseAsOfInvalid(t *testing.T) {
	now := time.Now()

	_, err := parseAsOf(newRunFlags(t, "--as-of-date", "01/05/2024"), now)
	assert.Error(t, err)

	_, err = parseAsOf(newRunFlags(t, "--as-of-hour", "24"), now)
	assert.Error(t, err)
}
