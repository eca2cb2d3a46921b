// Package plot defines geometry plot requests: 2D slices and 3D voxel
// dumps rendered by the solver for visual verification of a model.
//
// Plot definitions are pure configuration. The collection is optional;
// when empty, plots.xml is not exported.
package plot

import (
	"encoding/xml"
	"fmt"
	"path/filepath"

	"github.com/mmr-tortoise/flux/internal/xmlio"
)

// Type enumerates the plot kinds.
type Type string

const (
	// TypeSlice renders a 2D slice image through the geometry.
	TypeSlice Type = "slice"

	// TypeVoxel dumps a 3D voxel grid for external visualization.
	TypeVoxel Type = "voxel"
)

// IsValid checks whether the Type is a known plot kind.
func (t Type) IsValid() bool {
	return t == TypeSlice || t == TypeVoxel
}

// Basis enumerates the slice planes for 2D plots.
type Basis string

const (
	BasisXY Basis = "xy"
	BasisXZ Basis = "xz"
	BasisYZ Basis = "yz"
)

// IsValid checks whether the Basis is a known slice plane.
func (b Basis) IsValid() bool {
	switch b {
	case BasisXY, BasisXZ, BasisYZ:
		return true
	default:
		return false
	}
}

// ColorBy enumerates what a plot colors its pixels by.
type ColorBy string

const (
	// ColorByCell assigns one color per cell.
	ColorByCell ColorBy = "cell"

	// ColorByMaterial assigns one color per material.
	ColorByMaterial ColorBy = "material"
)

// IsValid checks whether the ColorBy is a known mode.
func (c ColorBy) IsValid() bool {
	return c == ColorByCell || c == ColorByMaterial
}

// Plot is a single plot request.
type Plot struct {
	// ID is the unique positive plot identifier, used in the output
	// image filename.
	ID int `json:"id"`

	// Name is an optional label for diagnostics.
	Name string `json:"name,omitempty"`

	// Type selects slice or voxel output. Empty means slice.
	Type Type `json:"type,omitempty"`

	// Origin is the plot centre (3 coordinates).
	Origin []float64 `json:"origin"`

	// Width is the plotted extent along each axis: 2 entries for a
	// slice, 3 for a voxel plot.
	Width []float64 `json:"width"`

	// Pixels is the image resolution, matching Width in length.
	Pixels []int `json:"pixels"`

	// Basis is the slice plane for slice plots. Empty means xy.
	Basis Basis `json:"basis,omitempty"`

	// ColorBy selects cell or material coloring. Empty means cell.
	ColorBy ColorBy `json:"colorBy,omitempty"`
}

// Validate checks the plot geometry for the selected type.
func (p *Plot) Validate() error {
	if p.ID <= 0 {
		return fmt.Errorf("plot id %d must be positive", p.ID)
	}
	typ := p.Type
	if typ == "" {
		typ = TypeSlice
	}
	if !typ.IsValid() {
		return fmt.Errorf("plot %d: invalid type %q", p.ID, p.Type)
	}
	if len(p.Origin) != 3 {
		return fmt.Errorf("plot %d: origin needs 3 coordinates, got %d", p.ID, len(p.Origin))
	}

	want := 2
	if typ == TypeVoxel {
		want = 3
	}
	if len(p.Width) != want {
		return fmt.Errorf("plot %d: %s plots need %d width entries, got %d", p.ID, typ, want, len(p.Width))
	}
	if len(p.Pixels) != want {
		return fmt.Errorf("plot %d: %s plots need %d pixel entries, got %d", p.ID, typ, want, len(p.Pixels))
	}
	for i, px := range p.Pixels {
		if px <= 0 {
			return fmt.Errorf("plot %d: pixels[%d]=%d must be positive", p.ID, i, px)
		}
	}
	for i, w := range p.Width {
		if w <= 0 {
			return fmt.Errorf("plot %d: width[%d]=%g must be positive", p.ID, i, w)
		}
	}
	if p.Basis != "" && !p.Basis.IsValid() {
		return fmt.Errorf("plot %d: invalid basis %q (valid: xy, xz, yz)", p.ID, p.Basis)
	}
	if p.ColorBy != "" && !p.ColorBy.IsValid() {
		return fmt.Errorf("plot %d: invalid color_by %q (valid: cell, material)", p.ID, p.ColorBy)
	}
	return nil
}

// Plots is the plot collection serialized to plots.xml.
type Plots struct {
	// List holds the plot requests in export order.
	List []Plot `json:"list,omitempty"`
}

// Empty reports whether no plots are defined. An empty collection
// suppresses the plots.xml export.
func (ps *Plots) Empty() bool {
	return len(ps.List) == 0
}

// Validate checks every plot and enforces ID uniqueness.
func (ps *Plots) Validate() error {
	seen := make(map[int]bool, len(ps.List))
	for i := range ps.List {
		if err := ps.List[i].Validate(); err != nil {
			return err
		}
		if seen[ps.List[i].ID] {
			return fmt.Errorf("duplicate plot id %d", ps.List[i].ID)
		}
		seen[ps.List[i].ID] = true
	}
	return nil
}

// xmlPlot mirrors the <plot> element of plots.xml.
type xmlPlot struct {
	ID      int    `xml:"id,attr"`
	Name    string `xml:"name,attr,omitempty"`
	Type    string `xml:"type,attr"`
	ColorBy string `xml:"color_by,attr"`
	Basis   string `xml:"basis,attr,omitempty"`
	Origin  string `xml:"origin"`
	Width   string `xml:"width"`
	Pixels  string `xml:"pixels"`
}

// xmlPlots is the document root of plots.xml.
type xmlPlots struct {
	XMLName xml.Name  `xml:"plots"`
	Plots   []xmlPlot `xml:"plot"`
}

// ExportXML writes the collection as plots.xml into dir.
func (ps *Plots) ExportXML(dir string) error {
	doc := xmlPlots{}

	for i := range ps.List {
		p := &ps.List[i]

		typ := p.Type
		if typ == "" {
			typ = TypeSlice
		}
		colorBy := p.ColorBy
		if colorBy == "" {
			colorBy = ColorByCell
		}
		xp := xmlPlot{
			ID:      p.ID,
			Name:    p.Name,
			Type:    string(typ),
			ColorBy: string(colorBy),
			Origin:  xmlio.Floats(p.Origin),
			Width:   xmlio.Floats(p.Width),
			Pixels:  xmlio.Ints(p.Pixels),
		}
		// Voxel plots have no slice plane; only slices carry a basis.
		if typ == TypeSlice {
			basis := p.Basis
			if basis == "" {
				basis = BasisXY
			}
			xp.Basis = string(basis)
		}
		doc.Plots = append(doc.Plots, xp)
	}

	return xmlio.WriteFile(filepath.Join(dir, "plots.xml"), &doc)
}
