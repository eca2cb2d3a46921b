// Package cli — run.go implements the "flux run" command, the primary operation:
// export the model, invoke the transport solver, and report the
// combined k-effective estimate from the final statepoint.
//
// Orchestration steps:
//  1. Load and validate the model file
//  2. Resolve the solver configuration from the environment
//  3. Build the requested runner (local executable or Docker image)
//  4. Export the XML input suite into the run directory
//  5. Run the solver and read the statepoint back
//  6. Output results (text or JSON)
package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mmr-tortoise/flux/internal/model"
	"github.com/mmr-tortoise/flux/internal/solver"
	"github.com/mmr-tortoise/flux/internal/statepoint"
)

// runFlags holds the flag values for the run command.
type runFlags struct {
	output string // --output: run directory for inputs and results
	runner string // --runner: exec or docker
	digest bool   // --digest: print the result digest as well
}

// NewRunCommand creates the "run" cobra command.
func NewRunCommand() *cobra.Command {
	flags := &runFlags{}

	cmd := &cobra.Command{
		Use:   "run [model-file]",
		Short: "Run the transport solver on a model",
		Long: `Export the model's XML input suite into the run directory, invoke the
transport solver there, and report the combined k-effective estimate
with its uncertainty.

The solver is configured through the environment: FLUX_SOLVER names the
local executable, FLUX_SOLVER_IMAGE the container image, FLUX_THREADS
the thread count, and FLUX_CROSS_SECTIONS the nuclear data location.

Examples:
  flux run
  flux run reactor.json --output ./run1
  flux run reactor.json --runner docker`,

		Args: cobra.MaximumNArgs(1),

		RunE: func(cmd *cobra.Command, args []string) error {
			path := model.DefaultFileName
			if len(args) == 1 {
				path = args[0]
			}
			return runRun(cmd.Context(), path, flags)
		},
	}

	cmd.Flags().StringVarP(&flags.output, "output", "o", ".", "Run directory for inputs and results")
	cmd.Flags().StringVar(&flags.runner, "runner", "exec", "How to run the solver: exec or docker")
	cmd.Flags().BoolVar(&flags.digest, "digest", false, "Also print the SHA-256 digest of the full results")

	return cmd
}

// runRun is the orchestration function for the run command.
func runRun(ctx context.Context, path string, flags *runFlags) error {
	m, err := model.Load(path)
	if err != nil {
		return err
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

	VerboseLog("Running solver in %s", flags.output)
	k, err := m.Run(ctx, flags.output, runner)
	if err != nil {
		return err
	}

	// The digest is read from the same statepoint Run consulted; it is
	// optional because hashing large tally arrays is wasted work in
	// normal use.
	digest := ""
	if flags.digest {
		sp, err := statepoint.Read(
			filepath.Join(flags.output, statepoint.Filename(m.Settings.FinalStatepointBatch())))
		if err != nil {
			return model.WrapCLIError(model.ExitStatepointError, "failed to digest run results", err)
		}
		digest = sp.Digest()
	}

	printRunResult(m, k, digest)
	return nil
}

// buildRunner constructs the requested solver runner. The returned
// cleanup releases runner resources (the Docker client) and is a no-op
// for the exec runner.
func buildRunner(ctx context.Context, kind string, cfg *solver.Config) (solver.Runner, func(), error) {
	switch strings.ToLower(kind) {
	case "exec":
		r := solver.NewExecRunner(cfg)
		if verbose {
			r.Output = os.Stderr
		}
		return r, func() {}, nil

	case "docker":
		r, err := solver.NewDockerRunner(ctx, cfg)
		if err != nil {
			return nil, nil, model.WrapCLIError(model.ExitSolverUnavailable, "docker runner unavailable", err)
		}
		if verbose {
			r.Output = os.Stderr
		}
		return r, func() { _ = r.Close() }, nil

	default:
		return nil, nil, model.NewCLIError(model.ExitGeneralError,
			fmt.Sprintf("invalid runner %q (valid: exec, docker)", kind))
	}
}

// printRunResult outputs the run result in text or JSON format.
func printRunResult(m *model.Model, k statepoint.KEffective, digest string) {
	if IsJSONOutput() {
		result := map[string]interface{}{
			"kCombined": k,
			"batches":   m.Settings.Batches,
			"particles": m.Settings.Particles,
		}
		if digest != "" {
			result["digest"] = digest
		}
		data, _ := json.MarshalIndent(result, "", "  ")
		fmt.Println(string(data))
		return
	}

	fmt.Printf("k-effective (combined): %s\n", k)
	if digest != "" {
		fmt.Printf("results digest:         %s\n", digest)
	}
}
