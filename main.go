// =============================================================================
// Grab Sheet Builder - Main Entry Point
// =============================================================================
//
// This is the main entry point for the Grab Sheet Builder CLI application.
// It initializes the Cobra CLI framework and delegates command execution to
// the cmd package.
//
// USAGE:
//   grabsheet run           - Build the grab sheet workbook
//   grabsheet validate      - Check configuration and inputs without writing
//   grabsheet version       - Display the application version
//
// ARCHITECTURE:
//   This application follows a modular design where:
//   - cmd/           : Contains all CLI command definitions (Cobra)
//   - internal/      : Contains core business logic (not for external import)
//   - pkg/           : Contains shared utilities
//   - config.example.yaml : Sample job configuration
//
// =============================================================================

package main

import (
	"github.com/ginjaninja78/grabsheet/cmd"
)

// main is the entry point of the application.
// It simply calls the Execute function from the cmd package, which
// initializes and runs the Cobra CLI.
func main() {
	cmd.Execute()
}
