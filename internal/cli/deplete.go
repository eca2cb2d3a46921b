// Package cli — deplete.go implements the "flux deplete" command: couple the
// transport solver to the depletion solver over a schedule of timesteps
// and power levels, producing a k-effective history.
package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/mmr-tortoise/flux/internal/deplete"
	"github.com/mmr-tortoise/flux/internal/model"
	"github.com/mmr-tortoise/flux/internal/solver"
)

// depleteFlags holds the flag values for the deplete command.
type depleteFlags struct {
	schedule string // --schedule: YAML schedule file
	method   string // --method: cecm or predictor
	chain    string // --chain: depletion chain file override
	output   string // --output: run directory
	runner   string // --runner: exec or docker
}

// NewDepleteCommand creates the "deplete" cobra command.
func NewDepleteCommand() *cobra.Command {
	flags := &depleteFlags{}

	cmd := &cobra.Command{
		Use:   "deplete [model-file]",
		Short: "Run a coupled transport-depletion calculation",
		Long: `Advance the model's depletable materials through a schedule of
timesteps and power levels, running a transport solve at each step and
writing the k-effective history to depletion_results.json.

The schedule file is YAML with a list of timestep lengths in seconds
and a power level in watts (a single value applies to every step):

  timesteps: [86400, 86400, 86400]
  power: 1.0e6

The depletion chain file comes from --chain or the FLUX_CHAIN_FILE
environment variable.

Examples:
  flux deplete --schedule burn.yaml
  flux deplete reactor.json --schedule burn.yaml --method predictor
  flux deplete --schedule burn.yaml --chain chain_endfb71.xml`,

		Args: cobra.MaximumNArgs(1),

		RunE: func(cmd *cobra.Command, args []string) error {
			path := model.DefaultFileName
			if len(args) == 1 {
				path = args[0]
			}
			return runDeplete(cmd.Context(), path, flags)
		},
	}

	cmd.Flags().StringVar(&flags.schedule, "schedule", "", "YAML schedule of timesteps and power levels (required)")
	cmd.Flags().StringVar(&flags.method, "method", string(deplete.MethodCECM), "Integration method: cecm or predictor")
	cmd.Flags().StringVar(&flags.chain, "chain", "", "Depletion chain file (overrides FLUX_CHAIN_FILE)")
	cmd.Flags().StringVarP(&flags.output, "output", "o", ".", "Run directory for inputs and results")
	cmd.Flags().StringVar(&flags.runner, "runner", "exec", "How to run the solver: exec or docker")
	_ = cmd.MarkFlagRequired("schedule")

	return cmd
}

// runDeplete is the orchestration function for the deplete command.
func runDeplete(ctx context.Context, path string, flags *depleteFlags) error {
	m, err := model.Load(path)
	if err != nil {
		return err
	}

	method, err := deplete.ParseMethod(flags.method)
	if err != nil {
		return model.WrapCLIError(model.ExitDepletionError, "invalid depletion options", err)
	}

	schedule, err := deplete.LoadSchedule(flags.schedule)
	if err != nil {
		return model.WrapCLIError(model.ExitDepletionError, "invalid depletion schedule", err)
	}

	cfg, err := solver.LoadConfig()
	if err != nil {
		return model.WrapCLIError(model.ExitGeneralError, "invalid solver environment", err)
	}

	runner, cleanup, err := buildRunner(ctx, flags.runner, cfg)
	if err != nil {
		return err
	}
	defer cleanup()

	VerboseLog("Depleting over %d timesteps with the %s method", len(schedule.Timesteps), method)
	results, err := m.Deplete(ctx, flags.output, runner, cfg, schedule, method, flags.chain)
	if err != nil {
		return err
	}

	printDepleteResults(flags.output, results)
	return nil
}

// printDepleteResults outputs the depletion history in text or JSON
// format.
func printDepleteResults(dir string, results *deplete.Results) {
	if IsJSONOutput() {
		data, _ := json.MarshalIndent(results, "", "  ")
		fmt.Println(string(data))
		return
	}

	fmt.Printf("Depletion complete (%s, chain %s)\n", results.Method, results.ChainFile)
	fmt.Printf("  %-6s %-14s %-12s %s\n", "step", "time [s]", "power [W]", "k-effective")
	for _, s := range results.Steps {
		fmt.Printf("  %-6d %-14.6g %-12.6g %s\n", s.Step, s.TimeSeconds, s.PowerWatts, s.K)
	}
	fmt.Printf("History written to %s\n", filepath.Join(dir, deplete.ResultsFileName))
}
