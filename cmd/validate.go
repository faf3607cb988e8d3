// =============================================================================
// Grab Sheet Builder - Validate Command
// =============================================================================
//
// This file defines the 'validate' command. It runs the job up to the point
// of writing: configuration, both inputs, the join, the route grouping and
// every subtotal are checked, and the planned sheets are listed. The output
// workbook is never touched.
//
// COMMAND USAGE:
//   grabsheet validate [--config job.yaml] [--section GRAB_SHEET]
//
// =============================================================================

package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ginjaninja78/grabsheet/internal/job"
)

// validateCmd represents the 'validate' command.
var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Check configuration and inputs without writing output",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, logger, closer, err := setup()
		if err != nil {
			return err
		}
		defer closer.Close()

		result, err := job.Check(cmd.Context(), cfg, logger, job.AsOf{})
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Configuration OK (section %s)\n", cfg.Section)
		fmt.Fprintf(out, "Output would be written to %s with %d sheets:\n", cfg.OutputPath, len(result.Routes))
		for _, r := range result.Routes {
			fmt.Fprintf(out, "  %-31s %4d rows %3d subtotals\n", r.Sheet, r.DataRows, r.Subtotals)
		}
		if result.Unmatched > 0 {
			fmt.Fprintf(out, "Stops without an order: %d (%s)\n", result.Unmatched, strings.Join(result.UnmatchedNames, ", "))
		}
		if result.BlankRoutes > 0 {
			fmt.Fprintf(out, "Joined rows without a route: %d\n", result.BlankRoutes)
		}
		if !result.Duplicates.Empty() {
			fmt.Fprintf(out, "Duplicate customer names: %s\n", strings.Join(result.Duplicates.Names(), ", "))
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)
}
