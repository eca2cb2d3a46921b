// Package model defines the Model container that bundles everything a
// transport calculation needs — geometry, materials, settings, tallies,
// CMFD acceleration, and plots — and the operations over the bundle:
// validation, export of the XML input suite, solver runs, and depletion.
//
// The container mirrors the input-file layout one-to-one. Sub-objects
// that are optional in the input suite (tallies, cmfd, plots, mgxs) are
// optional here and only exported when present. The one derived piece
// of state is the materials collection: when a model carries none, the
// exporter builds one from the material references in the geometry.
package model

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/mmr-tortoise/flux/internal/cmfd"
	"github.com/mmr-tortoise/flux/internal/deplete"
	"github.com/mmr-tortoise/flux/internal/geometry"
	"github.com/mmr-tortoise/flux/internal/material"
	"github.com/mmr-tortoise/flux/internal/mgxs"
	"github.com/mmr-tortoise/flux/internal/plot"
	"github.com/mmr-tortoise/flux/internal/settings"
	"github.com/mmr-tortoise/flux/internal/solver"
	"github.com/mmr-tortoise/flux/internal/statepoint"
	"github.com/mmr-tortoise/flux/internal/tally"
)

// Model is the complete description of a transport calculation.
type Model struct {
	// Name is an optional label carried through diagnostics and output.
	Name string `json:"name,omitempty"`

	// Geometry is the constructive solid geometry. Required unless
	// Settings marks the geometry as externally supplied.
	Geometry geometry.Geometry `json:"geometry"`

	// Materials is the material registry. Cells reference into it by
	// ID. When the collection is empty at export time, materials.xml
	// is derived from the geometry's references instead.
	Materials material.Materials `json:"materials"`

	// Settings is the run control. Always exported.
	Settings settings.Settings `json:"settings"`

	// Tallies is the tally configuration. Exported only when non-empty.
	Tallies tally.Tallies `json:"tallies"`

	// CMFD is the optional acceleration configuration. Exported only
	// when non-nil.
	CMFD *cmfd.CMFD `json:"cmfd,omitempty"`

	// Plots is the plot collection. Exported only when non-empty.
	Plots plot.Plots `json:"plots"`

	// MGXS is the optional multi-group cross-section library. Exported
	// only when non-nil; required when Settings selects multi-group
	// energy mode and no cross-section path is set on Materials.
	MGXS *mgxs.Library `json:"mgxs,omitempty"`
}

// Validate checks the whole bundle: each sub-object's own invariants
// plus the cross-object rules only the container can see.
func (m *Model) Validate() error {
	if err := m.Settings.Validate(); err != nil {
		return fmt.Errorf("settings: %w", err)
	}

	if m.Geometry.Empty() && !m.Settings.ExternalGeometry {
		return fmt.Errorf("geometry is empty and settings do not mark it as external")
	}
	if err := m.Geometry.Validate(); err != nil {
		return fmt.Errorf("geometry: %w", err)
	}

	if err := m.Materials.Validate(); err != nil {
		return fmt.Errorf("materials: %w", err)
	}

	// Every material a cell references must exist in the registry —
	// unless the registry is empty, in which case there is nothing to
	// resolve against and export will fail instead.
	if !m.Materials.Empty() {
		for _, id := range m.Geometry.AllMaterialIDs() {
			if m.Materials.ByID(id) == nil {
				return fmt.Errorf("geometry references material %d which is not defined", id)
			}
		}
	}

	if err := m.Tallies.Validate(); err != nil {
		return fmt.Errorf("tallies: %w", err)
	}

	// Material filters must reference materials the model knows about.
	for i := range m.Tallies.Filters {
		f := &m.Tallies.Filters[i]
		if f.Type != tally.FilterMaterial || m.Materials.Empty() {
			continue
		}
		for _, id := range f.MaterialIDs {
			if m.Materials.ByID(id) == nil {
				return fmt.Errorf("tallies: filter %d references material %d which is not defined", f.ID, id)
			}
		}
	}

	if m.CMFD != nil {
		if err := m.CMFD.Validate(); err != nil {
			return err
		}
	}
	if err := m.Plots.Validate(); err != nil {
		return fmt.Errorf("plots: %w", err)
	}

	if m.MGXS != nil {
		if err := m.MGXS.Validate(); err != nil {
			return fmt.Errorf("mgxs: %w", err)
		}
	}
	if m.Settings.EnergyMode == settings.EnergyMultiGroup && m.MGXS == nil && m.Materials.CrossSections == "" {
		return fmt.Errorf("multi-group mode requires an mgxs library or a materials cross_sections path")
	}

	return nil
}

// EffectiveMaterials returns the collection that materials.xml is built
// from: the explicit one when non-empty, otherwise a collection derived
// from the material IDs the geometry references.
//
// Derivation requires a registry to resolve IDs against; with both the
// collection and the geometry references empty the result is empty too,
// which multi-group macro models may legitimately want.
func (m *Model) EffectiveMaterials() (material.Materials, error) {
	if !m.Materials.Empty() {
		return m.Materials, nil
	}

	derived := material.Materials{CrossSections: m.Materials.CrossSections}
	ids := m.Geometry.AllMaterialIDs()
	if len(ids) > 0 {
		return derived, fmt.Errorf("geometry references materials %v but the model defines none", ids)
	}
	return derived, nil
}

// Export writes the model's XML input suite into dir, creating it if
// needed.
//
// settings.xml is always written. geometry.xml is skipped for models
// with externally supplied geometry. materials.xml uses the effective
// collection. tallies.xml, cmfd.xml, plots.xml, and mgxs.xml are
// written only when their sub-objects are present.
func (m *Model) Export(dir string) error {
	if err := m.Validate(); err != nil {
		return WrapCLIError(ExitModelInvalid, "model validation failed", err)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return WrapCLIError(ExitGeneralError, "failed to create model directory", err)
	}

	if err := m.Settings.ExportXML(dir); err != nil {
		return WrapCLIError(ExitGeneralError, "failed to export settings", err)
	}

	if !m.Settings.ExternalGeometry {
		if err := m.Geometry.ExportXML(dir); err != nil {
			return WrapCLIError(ExitGeneralError, "failed to export geometry", err)
		}
	}

	mats, err := m.EffectiveMaterials()
	if err != nil {
		return WrapCLIError(ExitModelInvalid, "cannot derive materials from geometry", err)
	}
	// A multi-group model with an in-tree library always points the
	// materials file at the exported library.
	if m.MGXS != nil && mats.CrossSections == "" {
		mats.CrossSections = mgxs.FileName
	}
	if err := mats.ExportXML(dir); err != nil {
		return WrapCLIError(ExitGeneralError, "failed to export materials", err)
	}

	if !m.Tallies.Empty() {
		if err := m.Tallies.ExportXML(dir); err != nil {
			return WrapCLIError(ExitGeneralError, "failed to export tallies", err)
		}
	}
	if m.CMFD != nil {
		if err := m.CMFD.ExportXML(dir); err != nil {
			return WrapCLIError(ExitGeneralError, "failed to export cmfd", err)
		}
	}
	if !m.Plots.Empty() {
		if err := m.Plots.ExportXML(dir); err != nil {
			return WrapCLIError(ExitGeneralError, "failed to export plots", err)
		}
	}
	if m.MGXS != nil {
		if err := m.MGXS.ExportXML(dir); err != nil {
			return WrapCLIError(ExitGeneralError, "failed to export mgxs library", err)
		}
	}

	return nil
}

// Run exports the model into dir, invokes the solver there, and reads
// back the combined k-effective estimate from the final statepoint.
//
// The statepoint consulted is the one written after the final batch of
// the statepoint schedule when one is set, otherwise after the last
// batch of the run.
func (m *Model) Run(ctx context.Context, dir string, runner solver.Runner) (statepoint.KEffective, error) {
	if err := m.Export(dir); err != nil {
		return statepoint.KEffective{}, err
	}

	if err := runner.Run(ctx, dir); err != nil {
		return statepoint.KEffective{}, WrapCLIError(ExitSolverFailed, "solver run failed", err)
	}

	spPath := filepath.Join(dir, statepoint.Filename(m.Settings.FinalStatepointBatch()))
	sp, err := statepoint.Read(spPath)
	if err != nil {
		return statepoint.KEffective{}, WrapCLIError(ExitStatepointError, "failed to read run results", err)
	}
	return sp.KCombined, nil
}

// Deplete runs a burnup calculation over the schedule with the given
// integration method, writing the history into dir alongside the model
// files. The chain file resolution falls back to the solver
// environment when chainFile is empty.
func (m *Model) Deplete(ctx context.Context, dir string, runner solver.Runner, cfg *solver.Config, s *deplete.Schedule, method deplete.Method, chainFile string) (*deplete.Results, error) {
	chain, err := deplete.ResolveChainFile(chainFile, cfg.ChainFile)
	if err != nil {
		return nil, WrapCLIError(ExitDepletionError, "depletion chain resolution failed", err)
	}
	if !method.IsValid() {
		return nil, WrapCLIError(ExitDepletionError,
			fmt.Sprintf("invalid depletion method %q (valid: cecm, predictor)", method), nil)
	}
	if err := s.Validate(); err != nil {
		return nil, WrapCLIError(ExitDepletionError, "invalid depletion schedule", err)
	}

	// The operator works against the exported directory; the initial
	// export seeds its composition state.
	if err := m.Export(dir); err != nil {
		return nil, err
	}

	op := &transportOperator{
		model:  m,
		dir:    dir,
		runner: runner,
		chain:  chain,
	}

	results, err := deplete.Integrate(ctx, method, op, s, chain)
	if err != nil {
		return nil, WrapCLIError(ExitSolverFailed, "depletion run failed", err)
	}
	if err := results.WriteFile(dir); err != nil {
		return nil, WrapCLIError(ExitGeneralError, "failed to write depletion results", err)
	}
	return results, nil
}
