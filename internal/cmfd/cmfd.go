// Package cmfd defines the coarse-mesh finite-difference acceleration
// parameters of an eigenvalue calculation.
//
// CMFD accelerates fission-source convergence by solving a low-order
// diffusion problem on a coarse mesh overlaid on the geometry. The
// parameters here only configure the acceleration; the solve itself
// happens in the solver. The configuration is optional: a nil CMFD on
// the model suppresses the cmfd.xml export.
package cmfd

import (
	"encoding/xml"
	"fmt"
	"path/filepath"

	"github.com/mmr-tortoise/flux/internal/xmlio"
)

// CMFD holds the acceleration configuration serialized to cmfd.xml.
type CMFD struct {
	// Dimension is the coarse-mesh bin count along each axis (1-3 entries).
	Dimension []int `json:"dimension"`

	// LowerLeft and UpperRight bound the coarse mesh. Must have the
	// same length as Dimension.
	LowerLeft  []float64 `json:"lowerLeft"`
	UpperRight []float64 `json:"upperRight"`

	// Begin is the batch at which CMFD feedback starts. Must be at
	// least 1.
	Begin int `json:"begin"`

	// TallyResetBatches lists batches at which the CMFD tallies are
	// zeroed, discarding poorly converged early statistics.
	TallyResetBatches []int `json:"tallyReset,omitempty"`

	// Norm is the source normalization factor. Zero means 1.0.
	Norm float64 `json:"norm,omitempty"`
}

// Validate checks the coarse-mesh definition and batch schedule.
func (c *CMFD) Validate() error {
	n := len(c.Dimension)
	if n < 1 || n > 3 {
		return fmt.Errorf("cmfd: dimension needs 1-3 entries, got %d", n)
	}
	for i, d := range c.Dimension {
		if d <= 0 {
			return fmt.Errorf("cmfd: dimension[%d]=%d must be positive", i, d)
		}
	}
	if len(c.LowerLeft) != n || len(c.UpperRight) != n {
		return fmt.Errorf("cmfd: lower_left and upper_right must each have %d entries", n)
	}
	for i := 0; i < n; i++ {
		if c.LowerLeft[i] >= c.UpperRight[i] {
			return fmt.Errorf("cmfd: lower_left[%d]=%g must be below upper_right[%d]=%g",
				i, c.LowerLeft[i], i, c.UpperRight[i])
		}
	}
	if c.Begin < 1 {
		return fmt.Errorf("cmfd: begin batch %d must be at least 1", c.Begin)
	}
	for _, b := range c.TallyResetBatches {
		if b < c.Begin {
			return fmt.Errorf("cmfd: tally reset batch %d precedes begin batch %d", b, c.Begin)
		}
	}
	return nil
}

// xmlCMFDMesh mirrors the <mesh> element of cmfd.xml.
type xmlCMFDMesh struct {
	Dimension  string `xml:"dimension"`
	LowerLeft  string `xml:"lower_left"`
	UpperRight string `xml:"upper_right"`
}

// xmlCMFD is the document root of cmfd.xml.
type xmlCMFD struct {
	XMLName    xml.Name    `xml:"cmfd"`
	Mesh       xmlCMFDMesh `xml:"mesh"`
	Begin      int         `xml:"begin"`
	TallyReset string      `xml:"tally_reset,omitempty"`
	Norm       float64     `xml:"norm,omitempty"`
}

// ExportXML writes the configuration as cmfd.xml into dir.
func (c *CMFD) ExportXML(dir string) error {
	doc := xmlCMFD{
		Mesh: xmlCMFDMesh{
			Dimension:  xmlio.Ints(c.Dimension),
			LowerLeft:  xmlio.Floats(c.LowerLeft),
			UpperRight: xmlio.Floats(c.UpperRight),
		},
		Begin:      c.Begin,
		TallyReset: xmlio.Ints(c.TallyResetBatches),
		Norm:       c.Norm,
	}
	return xmlio.WriteFile(filepath.Join(dir, "cmfd.xml"), &doc)
}
