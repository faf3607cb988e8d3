// =============================================================================
// Grab Sheet Builder - Run Command
// =============================================================================
//
// This file defines the 'run' command, which builds the grab sheet workbook.
//
// COMMAND USAGE:
//   grabsheet run [flags]
//
// FLAGS:
//   --as-of-date : Business date shown in log messages (YYYY-MM-DD)
//   --as-of-hour : Business hour shown in log messages (0-23)
//   --today      : Stamp the run with the current date and hour
//
// The as-of stamp only labels the log messages; it never changes the output.
//
// =============================================================================

package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/ginjaninja78/grabsheet/internal/job"
)

// =============================================================================
// COMMAND FLAGS
// =============================================================================

var (
	asOfDate string
	asOfHour int
	today    bool
)

// runCmd represents the 'run' command.
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Build the grab sheet workbook",
	Long: `The run command reads the order and stop tables named in the configuration,
joins them on the customer name and writes one sheet per route to the output
workbook.

On success the workbook at output_path is replaced in one step.
On error nothing is written, the failure is logged and the command exits
with a non-zero status.`,

	RunE: func(cmd *cobra.Command, args []string) error {
		asOf, err := parseAsOf(cmd, time.Now())
		if err != nil {
			return err
		}
		return runJob(cmd, asOf)
	},
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringVar(&asOfDate, "as-of-date", "", "Business date for log messages (YYYY-MM-DD)")
	runCmd.Flags().IntVar(&asOfHour, "as-of-hour", 0, "Business hour for log messages (0-23)")
	runCmd.Flags().BoolVar(&today, "today", false, "Stamp the run with the current date and hour")
}

// runJob executes the job and prints the summary.
func runJob(cmd *cobra.Command, asOf job.AsOf) error {
	cfg, logger, closer, err := setup()
	if err != nil {
		return err
	}
	defer closer.Close()

	result, err := job.Run(cmd.Context(), cfg, logger, asOf)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Wrote %s\n", result.OutputPath)
	for _, r := range result.Routes {
		fmt.Fprintf(out, "  %-31s %4d rows %3d subtotals\n", r.Sheet, r.DataRows, r.Subtotals)
	}
	if result.Unmatched > 0 {
		fmt.Fprintf(out, "  %d stop rows had no matching order\n", result.Unmatched)
	}
	return nil
}

// parseAsOf builds the as-of stamp from the flags.
func parseAsOf(cmd *cobra.Command, now time.Time) (job.AsOf, error) {
	var asOf job.AsOf

	if today {
		hour := now.Hour()
		asOf.Date = now
		asOf.Hour = &hour
	}

	if cmd.Flags().Changed("as-of-date") {
		date, err := time.ParseInLocation("2006-01-02", asOfDate, time.Local)
		if err != nil {
			return job.AsOf{}, fmt.Errorf("invalid --as-of-date %q: want YYYY-MM-DD", asOfDate)
		}
		asOf.Date = date
	}

	if cmd.Flags().Changed("as-of-hour") {
		if asOfHour < 0 || asOfHour > 23 {
			return job.AsOf{}, fmt.Errorf("invalid --as-of-hour %d: want 0-23", asOfHour)
		}
		hour := asOfHour
		asOf.Hour = &hour
	}

	return asOf, nil
}
