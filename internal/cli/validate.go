// Package cli — validate.go implements the "flux validate" command: load a model
// file, run full validation, and report the model summary.
package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mmr-tortoise/flux/internal/model"
)

// NewValidateCommand creates the "validate" cobra command.
func NewValidateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "validate [model-file]",
		Short: "Validate a model definition file",
		Long: `Load a model definition file and run the full validation pass:
per-object invariants, ID uniqueness, and cross-references between
geometry, materials, and tallies.

The model file defaults to model.json in the current directory.`,

		Args: cobra.MaximumNArgs(1),

		RunE: func(cmd *cobra.Command, args []string) error {
			path := model.DefaultFileName
			if len(args) == 1 {
				path = args[0]
			}
			return runValidate(path)
		},
	}
}

// runValidate loads the model (Load validates) and prints a summary.
func runValidate(path string) error {
	VerboseLog("Loading model file: %s", path)

	m, err := model.Load(path)
	if err != nil {
		return err
	}

	if IsJSONOutput() {
		summary := map[string]interface{}{
			"valid":     true,
			"name":      m.Name,
			"surfaces":  len(m.Geometry.Surfaces),
			"cells":     len(m.Geometry.Cells),
			"materials": len(m.Materials.List),
			"tallies":   len(m.Tallies.List),
			"plots":     len(m.Plots.List),
			"cmfd":      m.CMFD != nil,
			"mgxs":      m.MGXS != nil,
		}
		data, _ := json.MarshalIndent(summary, "", "  ")
		fmt.Println(string(data))
		return nil
	}

	name := m.Name
	if name == "" {
		name = path
	}
	fmt.Printf("Model %q is valid\n", name)
	fmt.Printf("  Surfaces:  %d\n", len(m.Geometry.Surfaces))
	fmt.Printf("  Cells:     %d\n", len(m.Geometry.Cells))
	fmt.Printf("  Materials: %d\n", len(m.Materials.List))
	fmt.Printf("  Tallies:   %d\n", len(m.Tallies.List))
	if m.CMFD != nil {
		fmt.Println("  CMFD:      enabled")
	}
	if m.MGXS != nil {
		fmt.Printf("  MGXS:      %d datasets, %d groups\n", len(m.MGXS.Datasets), m.MGXS.Groups.Count())
	}
	return nil
}
