// operator.go adapts the exported model directory into the
// deplete.TransportOperator contract.
//
// The operator's composition state lives in the materials.xml of the
// model directory: transport solves run against it, and the solver's
// deplete subcommand rewrites it in place after each burn. Snapshot and
// Restore therefore capture and rewind that one file, which is exactly
// the state the CE/CM corrector needs to replay a step.
package model

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/mmr-tortoise/flux/internal/solver"
	"github.com/mmr-tortoise/flux/internal/statepoint"
)

// transportOperator couples the depletion integrators to the external
// solver through the exported model directory.
type transportOperator struct {
	model  *Model
	dir    string
	runner solver.Runner
	chain  string
}

// Solve runs a transport calculation against the directory's current
// materials and returns the combined k-effective from the resulting
// statepoint.
func (op *transportOperator) Solve(ctx context.Context) (statepoint.KEffective, error) {
	if err := op.runner.Run(ctx, op.dir); err != nil {
		return statepoint.KEffective{}, fmt.Errorf("transport solve failed: %w", err)
	}

	spPath := filepath.Join(op.dir, statepoint.Filename(op.model.Settings.FinalStatepointBatch()))
	sp, err := statepoint.Read(spPath)
	if err != nil {
		return statepoint.KEffective{}, err
	}
	return sp.KCombined, nil
}

// Burn advances the compositions by invoking the solver's deplete
// subcommand, which rewrites materials.xml in place using the reaction
// rates of the preceding transport solve.
func (op *transportOperator) Burn(ctx context.Context, dtSeconds, powerWatts float64) error {
	args := []string{
		"deplete",
		"--chain", op.chain,
		"--timestep", strconv.FormatFloat(dtSeconds, 'g', -1, 64),
		"--power", strconv.FormatFloat(powerWatts, 'g', -1, 64),
	}
	if err := op.runner.Run(ctx, op.dir, args...); err != nil {
		return fmt.Errorf("depletion step failed: %w", err)
	}
	return nil
}

// Snapshot captures the current composition state.
func (op *transportOperator) Snapshot() ([]byte, error) {
	data, err := os.ReadFile(filepath.Join(op.dir, "materials.xml"))
	if err != nil {
		return nil, fmt.Errorf("failed to snapshot materials: %w", err)
	}
	return data, nil
}

// Restore rewinds the composition state to a captured snapshot.
func (op *transportOperator) Restore(state []byte) error {
	if err := os.WriteFile(filepath.Join(op.dir, "materials.xml"), state, 0o644); err != nil {
		return fmt.Errorf("failed to restore materials: %w", err)
	}
	return nil
}
