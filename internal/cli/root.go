// Package cli implements the cobra-based CLI for flux.
//
// Each subcommand (validate, export, run, deplete) is defined in its
// own file within this package. This file defines the root command that
// serves as the parent for all subcommands and handles global flags.
package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/mmr-tortoise/flux/internal/model"
)

// Global flag variables shared across all subcommands. They are bound
// to cobra persistent flags on the root command, which makes them
// available to every subcommand automatically.
var (
	// jsonOutput controls whether command output is formatted as JSON
	// for machine consumption. Default is human-readable text.
	jsonOutput bool

	// verbose enables detailed progress output on stderr.
	verbose bool
)

// Version, Commit, and Date are set at build time via ldflags and
// injected from the main package for the --version flag output.
var (
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"
)

// NewRootCommand creates and configures the root cobra command.
//
// The root command itself performs no action — it provides help text
// and global flags. Functionality lives in the subcommands.
func NewRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "flux",
		Short: "Monte Carlo transport model builder and solver front end",
		Long: `flux assembles Monte Carlo particle-transport models, exports the XML
input suite the transport solver consumes, runs the solver (locally or
in a container), and reads k-effective results back from statepoints.

Model definitions are JSON files (comments allowed); depletion runs add
a YAML schedule of timesteps and power levels.`,

		// We format errors ourselves (text or JSON based on --json), so
		// cobra's automatic usage/error printing is silenced.
		SilenceUsage:  true,
		SilenceErrors: true,

		Version: fmt.Sprintf("%s (commit: %s, built: %s)", Version, Commit, Date),
	}

	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Output in JSON format")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output")

	rootCmd.AddCommand(NewValidateCommand())
	rootCmd.AddCommand(NewExportCommand())
	rootCmd.AddCommand(NewRunCommand())
	rootCmd.AddCommand(NewDepleteCommand())

	return rootCmd
}

// Execute runs the root command and handles exit codes.
//
// Errors carrying a model.CLIError exit with its code; everything else
// exits with the general error code.
func Execute(rootCmd *cobra.Command) {
	if err := rootCmd.Execute(); err != nil {
		if cliErr, ok := err.(*model.CLIError); ok {
			printError(cliErr.Message, cliErr.Err)
			os.Exit(int(cliErr.Code))
		}

		printError(err.Error(), nil)
		os.Exit(int(model.ExitGeneralError))
	}
}

// printError outputs an error in the format selected by --json.
// Errors always go to stderr; stdout is reserved for command output.
func printError(message string, underlying error) {
	if jsonOutput {
		errObj := map[string]interface{}{
			"error": map[string]interface{}{
				"message": message,
			},
		}
		if underlying != nil {
			if errMap, ok := errObj["error"].(map[string]interface{}); ok {
				errMap["detail"] = underlying.Error()
			}
		}
		data, _ := json.MarshalIndent(errObj, "", "  ")
		fmt.Fprintln(os.Stderr, string(data))
	} else {
		if underlying != nil {
			fmt.Fprintf(os.Stderr, "Error: %s: %v\n", message, underlying)
		} else {
			fmt.Fprintf(os.Stderr, "Error: %s\n", message)
		}
	}
}

// VerboseLog prints a message to stderr only when verbose mode is on.
func VerboseLog(format string, args ...interface{}) {
	if verbose {
		fmt.Fprintf(os.Stderr, "[verbose] "+format+"\n", args...)
	}
}

// IsJSONOutput returns whether the --json flag is set.
func IsJSONOutput() bool {
	return jsonOutput
}
