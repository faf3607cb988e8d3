// =============================================================================
// Grab Sheet Builder - Job
// =============================================================================
//
// This module is the pipeline entry point. One call to Run is one job run:
//
//   1. Load the order and stop tables
//   2. Inner-join stops to orders on name
//   3. Partition the joined rows by route, sorted by stop
//   4. For each route in ascending order:
//      a. Cut the rows into batches of 6 and add the Grab# subtotal rows
//      b. Render the route sheet
//   5. Save the workbook atomically
//
// Any failure ends the run. It is logged once with the job name, purpose and
// as-of stamp and then returned; the previous output file stays untouched.
//
// The configuration and logger are passed in. The job keeps no state between
// runs.
//
// =============================================================================

package job

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/ginjaninja78/grabsheet/internal/apperrors"
	"github.com/ginjaninja78/grabsheet/internal/batcher"
	"github.com/ginjaninja78/grabsheet/internal/config"
	"github.com/ginjaninja78/grabsheet/internal/joiner"
	"github.com/ginjaninja78/grabsheet/internal/loader"
	"github.com/ginjaninja78/grabsheet/internal/partitioner"
	"github.com/ginjaninja78/grabsheet/internal/xlsxwriter"
	"github.com/ginjaninja78/grabsheet/pkg/utils"
)

const (
	// Name identifies the job in logs.
	Name = "grabSheet_job"

	// Purpose describes the job in start and finish messages.
	Purpose = "Rearrange customer data for grab sheet"

	// staleTempAge is how old an abandoned temporary output must be before
	// it is removed.
	staleTempAge = 24 * time.Hour
)

// =============================================================================
// RUN PARAMETERS AND RESULT
// =============================================================================

// AsOf stamps log messages with the business date and hour of a run. It has
// no effect on the output.
type AsOf struct {
	// Date is the as-of date. The zero value means no date.
	Date time.Time

	// Hour is the as-of hour (0-23). Nil means no hour.
	Hour *int
}

// String renders the stamp, e.g. " as of 2024-05-01 @ hour=6", or "" when
// no date is set. The hour is only shown next to a date.
func (a AsOf) String() string {
	if a.Date.IsZero() {
		return ""
	}
	var b strings.Builder
	b.WriteString(" as of ")
	b.WriteString(a.Date.Format("2006-01-02"))
	if a.Hour != nil {
		fmt.Fprintf(&b, " @ hour=%d", *a.Hour)
	}
	return b.String()
}

// RouteSummary describes one written sheet.
type RouteSummary struct {
	Route     string
	Sheet     string
	DataRows  int
	Subtotals int
}

// Result summarizes a run.
type Result struct {
	// OutputPath is the written workbook. Empty for a check.
	OutputPath string

	// Routes are the route sheets in workbook order.
	Routes []RouteSummary

	// Unmatched counts stop rows dropped because no order has their name.
	Unmatched int

	// UnmatchedNames are the distinct names of those rows.
	UnmatchedNames []string

	// BlankRoutes counts joined rows dropped because their route is empty.
	BlankRoutes int

	// Duplicates lists names that made the join fan out.
	Duplicates joiner.CardinalityWarning
}

// Sheets returns the sheet names in workbook order.
func (r *Result) Sheets() []string {
	names := make([]string, len(r.Routes))
	for i, route := range r.Routes {
		names[i] = route.Sheet
	}
	return names
}

// =============================================================================
// ENTRY POINTS
// =============================================================================

// Run executes the job and writes the output workbook.
//
// PARAMETERS:
//   - ctx: Checked between routes; a cancelled run writes nothing.
//   - cfg: The validated job configuration.
//   - logger: Receives progress, warnings and the failure record.
//   - asOf: Stamp for the start, finish and failure messages.
//
// RETURNS:
//   - The run summary.
//   - The first error met; an *apperrors.Error for every known failure.
func Run(ctx context.Context, cfg config.Job, logger zerolog.Logger, asOf AsOf) (*Result, error) {
	return execute(ctx, cfg, logger, asOf, true)
}

// Check runs every step except writing: inputs are loaded, joined, grouped
// and summed, so schema and data errors surface without touching the output.
func Check(ctx context.Context, cfg config.Job, logger zerolog.Logger, asOf AsOf) (*Result, error) {
	return execute(ctx, cfg, logger, asOf, false)
}

func execute(ctx context.Context, cfg config.Job, logger zerolog.Logger, asOf AsOf, write bool) (*Result, error) {
	logger.Info().Msgf("Start %s operations for %s%s", Name, Purpose, asOf)

	result, err := pipeline(ctx, cfg, logger, write)
	if err != nil {
		logger.Error().
			Err(err).
			Str("error_kind", string(apperrors.KindOf(err))).
			Msgf("Exception is thrown while performing the %s operations for %s%s", Name, Purpose, asOf)
		return nil, err
	}

	logger.Info().Msgf("Finish %s operations for %s%s", Name, Purpose, asOf)
	return result, nil
}

// =============================================================================
// PIPELINE
// =============================================================================

func pipeline(ctx context.Context, cfg config.Job, logger zerolog.Logger, write bool) (*Result, error) {
	loadOpts := loader.Options{
		OrdersSheet:  cfg.OrdersSheet,
		StopsSheet:   cfg.StopsSheet,
		CSVDelimiter: cfg.CSVDelimiter,
	}

	orders, err := loader.LoadOrders(cfg.OrderPath, loadOpts)
	if err != nil {
		return nil, err
	}
	stops, err := loader.LoadStops(cfg.StopPath, loadOpts)
	if err != nil {
		return nil, err
	}
	logger.Debug().
		Int("orders", len(orders.Rows)).
		Int("stops", len(stops.Rows)).
		Msg("Loaded input tables")

	joined, err := joiner.Join(stops, orders, joiner.Options{
		Key:        loader.ColumnName,
		Drop:       []string{loader.ColumnID},
		Duplicates: joiner.DuplicatePolicy(cfg.DuplicateNames),
	})
	if err != nil {
		return nil, err
	}
	reportJoin(logger, joined)

	if len(joined.Table.Rows) == 0 {
		return nil, apperrors.Schema("no stop matched any order", nil).
			With("orders", cfg.OrderPath).
			With("stops", cfg.StopPath)
	}

	parts, err := partitioner.Partition(joined.Table, loader.ColumnRoute, loader.ColumnStop)
	if err != nil {
		return nil, err
	}
	if parts.BlankRoutes > 0 {
		logger.Warn().Int("rows", parts.BlankRoutes).Msg("Skipped joined rows with an empty route")
	}
	if len(parts.Groups) == 0 {
		return nil, apperrors.Schema("no joined row has a route", nil).With("stops", cfg.StopPath)
	}

	result := &Result{
		Unmatched:      joined.Unmatched,
		UnmatchedNames: joined.UnmatchedNames,
		BlankRoutes:    parts.BlankRoutes,
		Duplicates:     joined.Cardinality,
	}

	// Order-side columns follow the stop columns in the joined table. The
	// numeric ones are the metrics a subtotal adds up.
	orderColumns := joined.Table.Columns[len(stops.Columns):]
	sumOpts := batcher.DefaultOptions()
	sumOpts.SumColumns = batcher.MetricColumns(joined.Table, orderColumns)
	if skipped := len(orderColumns) - len(sumOpts.SumColumns); skipped > 0 {
		logger.Debug().
			Strs("summed", sumOpts.SumColumns).
			Int("text_columns", skipped).
			Msg("Order columns without numbers are not subtotalled")
	}

	var writer *xlsxwriter.Writer
	if write {
		writer, err = openWriter(cfg, logger)
		if err != nil {
			return nil, err
		}
		defer func() {
			if err := writer.Close(); err != nil {
				logger.Warn().Err(err).Msg("Failed to release output workbook")
			}
		}()
	}

	names := xlsxwriter.NewNameSet()
	for _, group := range parts.Groups {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		route := group.Route.String()
		logger.Info().Msgf("Transforming data from route%s", route)

		sheet, err := batcher.Summarize(joined.Table.Columns, group, sumOpts)
		if err != nil {
			return nil, err
		}

		summary := RouteSummary{
			Route:     route,
			Sheet:     names.Next(group.Route),
			DataRows:  sheet.DataRows,
			Subtotals: sheet.Subtotals,
		}

		if write {
			logger.Info().Msgf("Writing output file from route%s on sheet %s", route, summary.Sheet)
			name, err := writer.AddSheet(sheet)
			if err != nil {
				return nil, apperrors.Output("failed to render sheet", err).With("route", route)
			}
			summary.Sheet = name
		}

		result.Routes = append(result.Routes, summary)
	}

	if !write {
		return result, nil
	}

	if err := writer.Save(cfg.OutputPath); err != nil {
		return nil, apperrors.Output("failed to save workbook", err).With("path", cfg.OutputPath)
	}
	result.OutputPath = cfg.OutputPath

	logger.Info().
		Str("path", cfg.OutputPath).
		Strs("sheets", writer.Sheets()).
		Msg("Finish transforming data for grab sheet")

	return result, nil
}

// openWriter prepares the output directory and an empty workbook.
func openWriter(cfg config.Job, logger zerolog.Logger) (*xlsxwriter.Writer, error) {
	if err := utils.EnsureParentDir(cfg.OutputPath); err != nil {
		return nil, apperrors.Output("failed to create output directory", err).With("path", cfg.OutputPath)
	}
	if n, err := utils.CleanStaleTemps(cfg.OutputPath, staleTempAge); err == nil && n > 0 {
		logger.Debug().Int("files", n).Msg("Removed stale temporary output files")
	}

	opts := xlsxwriter.DefaultOptions()
	opts.HeaderFontSize = cfg.HeaderFontSize
	opts.HighlightColor = cfg.HighlightColor
	opts.HighlightMaxRow = cfg.HighlightMaxRow

	writer, err := xlsxwriter.New(opts)
	if err != nil {
		return nil, apperrors.Output("failed to create workbook", err)
	}
	return writer, nil
}

// reportJoin logs dropped stops and fan-out.
func reportJoin(logger zerolog.Logger, joined *joiner.Result) {
	if joined.Unmatched > 0 {
		logger.Info().
			Int("rows", joined.Unmatched).
			Strs("names", joined.UnmatchedNames).
			Msg("Dropped stop rows without a matching order")
	}
	if !joined.Cardinality.Empty() {
		logger.Warn().
			Int("names", joined.Cardinality.Count()).
			Strs("order_duplicates", joined.Cardinality.OrderNames).
			Strs("stop_duplicates", joined.Cardinality.StopNames).
			Msg("Customer names are not unique; joined rows were multiplied")
	}
}
