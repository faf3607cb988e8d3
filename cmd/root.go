// =============================================================================
// Grab Sheet Builder - Root Command
// =============================================================================
//
// This file defines the root command for the Cobra CLI. Every other command
// is attached to it.
//
// COBRA CLI STRUCTURE:
//   rootCmd (grabsheet)
//   ├── runCmd      (grabsheet run)
//   ├── validateCmd (grabsheet validate)
//   └── versionCmd  (grabsheet version)
//
// CONFIGURATION:
//   The root command owns the flags shared by all commands and the helper
//   that turns them into a config.Job and a logger.
//
// =============================================================================

package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/ginjaninja78/grabsheet/internal/config"
	"github.com/ginjaninja78/grabsheet/internal/job"
	"github.com/ginjaninja78/grabsheet/internal/logging"
	"github.com/ginjaninja78/grabsheet/pkg/utils"
)

// =============================================================================
// GLOBAL VARIABLES
// =============================================================================

// cfgFile holds the path to the configuration file.
// This can be overridden using the --config flag.
var cfgFile string

// section selects the configuration section.
var section string

// verbose enables debug logging when set to true.
var verbose bool

// =============================================================================
// ROOT COMMAND DEFINITION
// =============================================================================

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "grabsheet",
	Short: "Grab Sheet Builder - Route grab sheets from customer orders",

	Long: `Grab Sheet Builder joins the customer order table with the route stop
table and writes one sheet per route into a single workbook. Within each
route the stops are listed in order and a highlighted "Grab#" subtotal row
follows every batch of six stops.

Example Usage:
  grabsheet run --today                     # Build the workbook, stamped now
  grabsheet run --as-of-date 2024-05-01     # Build with a business date
  grabsheet validate --config ./job.yaml    # Check config and inputs only`,

	SilenceUsage: true,

	Run: func(cmd *cobra.Command, args []string) {
		cmd.Help()
	},
}

// =============================================================================
// EXECUTE FUNCTION
// =============================================================================

// Execute runs the CLI. This is called by main.main().
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// =============================================================================
// INITIALIZATION
// =============================================================================

func init() {
	rootCmd.PersistentFlags().StringVar(
		&cfgFile,
		"config",
		"config.yaml",
		"Path to the job configuration file",
	)

	rootCmd.PersistentFlags().StringVar(
		&section,
		"section",
		config.JobSection,
		"Configuration section to read (falls back to DEFAULT)",
	)

	rootCmd.PersistentFlags().BoolVarP(
		&verbose,
		"verbose",
		"v",
		false,
		"Enable debug logging",
	)
}

// =============================================================================
// SHARED SETUP
// =============================================================================

// setup loads the configuration and builds the logger for a command. The
// returned closer must be closed when the command ends.
func setup() (config.Job, zerolog.Logger, io.Closer, error) {
	path := cfgFile
	// Without an explicit --config a missing default file means environment
	// variables only.
	if !rootCmd.PersistentFlags().Changed("config") && !utils.FileExists(path) {
		path = ""
	}

	cfg, err := config.Load(path, section)
	if err != nil {
		return config.Job{}, zerolog.Nop(), nil, err
	}

	level := cfg.LogLevel
	if verbose {
		level = "debug"
	}

	logger, closer, err := logging.New(logging.Options{
		Job:      job.Name,
		Level:    level,
		Dir:      cfg.LogDirPath,
		FileName: cfg.LogFileName,
		MaxFiles: cfg.LogMaxFiles,
	})
	if err != nil {
		return config.Job{}, zerolog.Nop(), nil, err
	}

	logger.Debug().
		Str("config", path).
		Str("section", cfg.Section).
		Msg("Configuration loaded")

	return cfg, logger, closer, nil
}
