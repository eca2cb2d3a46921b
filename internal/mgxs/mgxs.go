// Package mgxs defines multi-group cross-section data: energy group
// structures, per-material datasets, and the library collection the
// solver reads in multi-group mode.
//
// A dataset carries the macroscopic group constants (total, absorption,
// scatter matrix, nu-fission, chi); every array is shape-checked
// against the group structure before export. The library is serialized
// to mgxs.xml alongside the rest of the input suite, and the materials
// collection points at it through its cross_sections path.
package mgxs

import (
	"encoding/xml"
	"fmt"
	"path/filepath"

	"github.com/mmr-tortoise/flux/internal/xmlio"
)

// EnergyGroups is an energy group structure defined by its bin edges.
type EnergyGroups struct {
	// Edges are the group boundaries in eV, strictly ascending,
	// from the lowest energy up to the cutoff (e.g. [0, 0.625, 20e6]
	// for a two-group thermal/fast split).
	Edges []float64 `json:"edges"`
}

// NewEnergyGroups builds a group structure from ascending edges.
func NewEnergyGroups(edges []float64) (*EnergyGroups, error) {
	g := &EnergyGroups{Edges: edges}
	if err := g.Validate(); err != nil {
		return nil, err
	}
	return g, nil
}

// Validate checks the edge list for shape and ordering.
func (g *EnergyGroups) Validate() error {
	if len(g.Edges) < 2 {
		return fmt.Errorf("energy groups need at least two edges, got %d", len(g.Edges))
	}
	for i := 1; i < len(g.Edges); i++ {
		if g.Edges[i] <= g.Edges[i-1] {
			return fmt.Errorf("energy group edges must be strictly ascending, got %v", g.Edges)
		}
	}
	return nil
}

// Count returns the number of energy groups the structure defines.
func (g *EnergyGroups) Count() int {
	if len(g.Edges) < 2 {
		return 0
	}
	return len(g.Edges) - 1
}

// XSData is the group-constant dataset for one material.
//
// Array shapes are fixed by the group count G and the Legendre scatter
// order L: the vectors have G entries and the scatter matrix is
// G x G x (L+1) — outgoing group, incoming group, Legendre moment.
type XSData struct {
	// Name identifies the dataset; materials reference it by nuclide
	// name in multi-group mode.
	Name string `json:"name"`

	// Order is the Legendre expansion order of the scatter matrix.
	Order int `json:"order"`

	// Total is the total cross section per group [1/cm].
	Total []float64 `json:"total"`

	// Absorption is the absorption cross section per group [1/cm].
	Absorption []float64 `json:"absorption"`

	// NuFission is nu times the fission cross section per group [1/cm].
	// May be empty for non-fissionable datasets.
	NuFission []float64 `json:"nuFission,omitempty"`

	// Chi is the fission spectrum per group. Required exactly when
	// NuFission is present.
	Chi []float64 `json:"chi,omitempty"`

	// Scatter is the scatter matrix indexed [outgoing][incoming][moment].
	Scatter [][][]float64 `json:"scatter"`
}

// Validate shape-checks every array against the group structure.
func (x *XSData) Validate(groups *EnergyGroups) error {
	if x.Name == "" {
		return fmt.Errorf("xsdata name must not be empty")
	}
	if x.Order < 0 {
		return fmt.Errorf("xsdata %s: scatter order %d must be non-negative", x.Name, x.Order)
	}

	ng := groups.Count()
	if len(x.Total) != ng {
		return fmt.Errorf("xsdata %s: total needs %d groups, got %d", x.Name, ng, len(x.Total))
	}
	if len(x.Absorption) != ng {
		return fmt.Errorf("xsdata %s: absorption needs %d groups, got %d", x.Name, ng, len(x.Absorption))
	}

	// Fission data comes as a pair: nu-fission and the spectrum chi.
	if (len(x.NuFission) == 0) != (len(x.Chi) == 0) {
		return fmt.Errorf("xsdata %s: nu-fission and chi must be given together", x.Name)
	}
	if len(x.NuFission) > 0 {
		if len(x.NuFission) != ng {
			return fmt.Errorf("xsdata %s: nu-fission needs %d groups, got %d", x.Name, ng, len(x.NuFission))
		}
		if len(x.Chi) != ng {
			return fmt.Errorf("xsdata %s: chi needs %d groups, got %d", x.Name, ng, len(x.Chi))
		}
	}

	if len(x.Scatter) != ng {
		return fmt.Errorf("xsdata %s: scatter matrix needs %d outgoing groups, got %d", x.Name, ng, len(x.Scatter))
	}
	for gOut, row := range x.Scatter {
		if len(row) != ng {
			return fmt.Errorf("xsdata %s: scatter[%d] needs %d incoming groups, got %d", x.Name, gOut, ng, len(row))
		}
		for gIn, moments := range row {
			if len(moments) != x.Order+1 {
				return fmt.Errorf("xsdata %s: scatter[%d][%d] needs %d moments for order %d, got %d",
					x.Name, gOut, gIn, x.Order+1, x.Order, len(moments))
			}
		}
	}
	return nil
}

// Fissionable reports whether the dataset carries fission data.
func (x *XSData) Fissionable() bool {
	return len(x.NuFission) > 0
}

// Library is a collection of datasets over one group structure,
// serialized to mgxs.xml.
type Library struct {
	// Groups is the shared energy group structure.
	Groups EnergyGroups `json:"groups"`

	// Datasets lists the per-material datasets.
	Datasets []XSData `json:"datasets"`
}

// Add appends a dataset after shape-checking it against the library's
// group structure.
func (l *Library) Add(x XSData) error {
	if err := x.Validate(&l.Groups); err != nil {
		return err
	}
	for i := range l.Datasets {
		if l.Datasets[i].Name == x.Name {
			return fmt.Errorf("duplicate xsdata name %q", x.Name)
		}
	}
	l.Datasets = append(l.Datasets, x)
	return nil
}

// Validate checks the group structure and every dataset.
func (l *Library) Validate() error {
	if err := l.Groups.Validate(); err != nil {
		return err
	}
	seen := make(map[string]bool, len(l.Datasets))
	for i := range l.Datasets {
		if err := l.Datasets[i].Validate(&l.Groups); err != nil {
			return err
		}
		if seen[l.Datasets[i].Name] {
			return fmt.Errorf("duplicate xsdata name %q", l.Datasets[i].Name)
		}
		seen[l.Datasets[i].Name] = true
	}
	return nil
}

// Names returns the dataset names in definition order. Tallies scoring
// per-nuclide in multi-group mode use these as their nuclide list.
func (l *Library) Names() []string {
	names := make([]string, 0, len(l.Datasets))
	for i := range l.Datasets {
		names = append(names, l.Datasets[i].Name)
	}
	return names
}

// xmlScatterRow is one outgoing-group row of the flattened scatter
// matrix: the incoming-group moments laid out moment-major per group.
type xmlScatterRow struct {
	Outgoing int    `xml:"outgoing,attr"`
	Values   string `xml:",chardata"`
}

// xmlXSData mirrors the <xsdata> element of mgxs.xml.
type xmlXSData struct {
	Name       string          `xml:"name,attr"`
	Order      int             `xml:"order,attr"`
	Total      string          `xml:"total"`
	Absorption string          `xml:"absorption"`
	NuFission  string          `xml:"nu_fission,omitempty"`
	Chi        string          `xml:"chi,omitempty"`
	Scatter    []xmlScatterRow `xml:"scatter>row"`
}

// xmlLibrary is the document root of mgxs.xml.
type xmlLibrary struct {
	XMLName    xml.Name    `xml:"mgxs_library"`
	GroupEdges string      `xml:"group_structure"`
	GroupCount int         `xml:"groups"`
	XSDatasets []xmlXSData `xml:"xsdata"`
}

// FileName is the library file written into the model directory and
// referenced from materials.xml via cross_sections.
const FileName = "mgxs.xml"

// ExportXML writes the library as mgxs.xml into dir.
func (l *Library) ExportXML(dir string) error {
	doc := xmlLibrary{
		GroupEdges: xmlio.Floats(l.Groups.Edges),
		GroupCount: l.Groups.Count(),
	}

	for i := range l.Datasets {
		x := &l.Datasets[i]
		xd := xmlXSData{
			Name:       x.Name,
			Order:      x.Order,
			Total:      xmlio.Floats(x.Total),
			Absorption: xmlio.Floats(x.Absorption),
			NuFission:  xmlio.Floats(x.NuFission),
			Chi:        xmlio.Floats(x.Chi),
		}
		for gOut, row := range x.Scatter {
			// Flatten incoming-group moments into one row per outgoing
			// group: g0m0 g0m1 ... g1m0 g1m1 ...
			flat := make([]float64, 0, len(row)*(x.Order+1))
			for _, moments := range row {
				flat = append(flat, moments...)
			}
			xd.Scatter = append(xd.Scatter, xmlScatterRow{Outgoing: gOut + 1, Values: xmlio.Floats(flat)})
		}
		doc.XSDatasets = append(doc.XSDatasets, xd)
	}

	return xmlio.WriteFile(filepath.Join(dir, FileName), &doc)
}
