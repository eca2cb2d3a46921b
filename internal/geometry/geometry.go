// Package geometry defines the constructive solid geometry description
// of a transport model: surfaces, cells, and universes.
//
// A surface is a quadric with a boundary condition; a cell binds a
// region (a signed-surface expression) to a material; a universe groups
// cells. The geometry is serialized to geometry.xml and is also the
// source of truth for the set of materials a model actually uses —
// when no explicit materials collection is supplied, the exporter
// derives one from the material references found here.
package geometry

import (
	"encoding/xml"
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/mmr-tortoise/flux/internal/xmlio"
)

// SurfaceType enumerates the supported quadric surface kinds.
type SurfaceType string

const (
	SurfaceXPlane    SurfaceType = "x-plane"
	SurfaceYPlane    SurfaceType = "y-plane"
	SurfaceZPlane    SurfaceType = "z-plane"
	SurfacePlane     SurfaceType = "plane"
	SurfaceSphere    SurfaceType = "sphere"
	SurfaceXCylinder SurfaceType = "x-cylinder"
	SurfaceYCylinder SurfaceType = "y-cylinder"
	SurfaceZCylinder SurfaceType = "z-cylinder"
)

// coefficientCount maps each surface type to the number of coefficients
// its equation requires. An axis-aligned plane needs one (the
// intercept), a general plane four (A B C D), a sphere four
// (x0 y0 z0 r), and an axis-aligned cylinder three (two centre
// coordinates and a radius).
var coefficientCount = map[SurfaceType]int{
	SurfaceXPlane:    1,
	SurfaceYPlane:    1,
	SurfaceZPlane:    1,
	SurfacePlane:     4,
	SurfaceSphere:    4,
	SurfaceXCylinder: 3,
	SurfaceYCylinder: 3,
	SurfaceZCylinder: 3,
}

// IsValid checks whether the SurfaceType is one of the supported kinds.
func (s SurfaceType) IsValid() bool {
	_, ok := coefficientCount[s]
	return ok
}

// ParseSurfaceType converts a string to a SurfaceType.
func ParseSurfaceType(s string) (SurfaceType, error) {
	st := SurfaceType(strings.ToLower(s))
	if !st.IsValid() {
		return "", fmt.Errorf("invalid surface type: %q", s)
	}
	return st, nil
}

// BoundaryType enumerates surface boundary conditions.
type BoundaryType string

const (
	// BoundaryTransmission is the default: particles cross freely.
	BoundaryTransmission BoundaryType = "transmission"

	// BoundaryVacuum kills particles that cross the surface.
	BoundaryVacuum BoundaryType = "vacuum"

	// BoundaryReflective reflects particles specularly.
	BoundaryReflective BoundaryType = "reflective"

	// BoundaryPeriodic translates particles to the paired surface.
	BoundaryPeriodic BoundaryType = "periodic"
)

// IsValid checks whether the BoundaryType is a known condition.
func (b BoundaryType) IsValid() bool {
	switch b {
	case BoundaryTransmission, BoundaryVacuum, BoundaryReflective, BoundaryPeriodic:
		return true
	default:
		return false
	}
}

// Surface is a single quadric surface definition.
type Surface struct {
	// ID is the unique positive identifier referenced by cell regions.
	ID int `json:"id"`

	// Name is an optional label for diagnostics.
	Name string `json:"name,omitempty"`

	// Type selects the quadric kind and fixes the coefficient count.
	Type SurfaceType `json:"type"`

	// Coefficients are the equation coefficients in the order fixed by
	// the surface type (see coefficientCount).
	Coefficients []float64 `json:"coefficients"`

	// Boundary is the boundary condition. Empty means transmission.
	Boundary BoundaryType `json:"boundary,omitempty"`
}

// Validate checks the surface type, coefficient count, and boundary.
func (s *Surface) Validate() error {
	if s.ID <= 0 {
		return fmt.Errorf("surface id %d must be positive", s.ID)
	}
	want, ok := coefficientCount[s.Type]
	if !ok {
		return fmt.Errorf("surface %d: invalid type %q", s.ID, s.Type)
	}
	if len(s.Coefficients) != want {
		return fmt.Errorf("surface %d: type %s requires %d coefficients, got %d",
			s.ID, s.Type, want, len(s.Coefficients))
	}
	if s.Boundary != "" && !s.Boundary.IsValid() {
		return fmt.Errorf("surface %d: invalid boundary %q", s.ID, s.Boundary)
	}
	return nil
}

// Cell binds a region of space to its fill.
//
// The region is a space-separated list of signed surface IDs using the
// conventional halfspace notation: "-1 2" means the negative halfspace
// of surface 1 intersected with the positive halfspace of surface 2.
type Cell struct {
	// ID is the unique positive cell identifier.
	ID int `json:"id"`

	// Name is an optional label for diagnostics.
	Name string `json:"name,omitempty"`

	// Universe is the universe this cell belongs to. Zero means the
	// root universe.
	Universe int `json:"universe,omitempty"`

	// MaterialID references the material filling this cell. Zero means
	// the cell is void.
	MaterialID int `json:"material,omitempty"`

	// Fill references a universe filling this cell instead of a
	// material. A cell carries either MaterialID or Fill, not both.
	Fill int `json:"fill,omitempty"`

	// Region is the signed-surface halfspace expression.
	Region string `json:"region"`
}

// Validate checks the cell definition against the set of known
// surface IDs.
func (c *Cell) Validate(surfaces map[int]bool) error {
	if c.ID <= 0 {
		return fmt.Errorf("cell id %d must be positive", c.ID)
	}
	if c.MaterialID != 0 && c.Fill != 0 {
		return fmt.Errorf("cell %d: material and fill are mutually exclusive", c.ID)
	}
	for _, tok := range strings.Fields(c.Region) {
		id, err := parseSignedSurface(tok)
		if err != nil {
			return fmt.Errorf("cell %d: %w", c.ID, err)
		}
		if !surfaces[id] {
			return fmt.Errorf("cell %d: region references unknown surface %d", c.ID, id)
		}
	}
	return nil
}

// parseSignedSurface parses one region token ("-3", "+2", "7") into the
// absolute surface ID it references.
func parseSignedSurface(tok string) (int, error) {
	t := strings.TrimPrefix(strings.TrimPrefix(tok, "+"), "-")
	var id int
	if _, err := fmt.Sscanf(t, "%d", &id); err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid region token %q", tok)
	}
	return id, nil
}

// Geometry is the full model geometry serialized to geometry.xml.
type Geometry struct {
	// Surfaces lists every surface definition.
	Surfaces []Surface `json:"surfaces"`

	// Cells lists every cell definition.
	Cells []Cell `json:"cells"`
}

// Empty reports whether no geometry has been defined.
func (g *Geometry) Empty() bool {
	return len(g.Surfaces) == 0 && len(g.Cells) == 0
}

// Validate checks every surface and cell, enforcing ID uniqueness and
// referential integrity of cell regions.
func (g *Geometry) Validate() error {
	surfaceIDs := make(map[int]bool, len(g.Surfaces))
	for i := range g.Surfaces {
		if err := g.Surfaces[i].Validate(); err != nil {
			return err
		}
		if surfaceIDs[g.Surfaces[i].ID] {
			return fmt.Errorf("duplicate surface id %d", g.Surfaces[i].ID)
		}
		surfaceIDs[g.Surfaces[i].ID] = true
	}

	cellIDs := make(map[int]bool, len(g.Cells))
	for i := range g.Cells {
		if err := g.Cells[i].Validate(surfaceIDs); err != nil {
			return err
		}
		if cellIDs[g.Cells[i].ID] {
			return fmt.Errorf("duplicate cell id %d", g.Cells[i].ID)
		}
		cellIDs[g.Cells[i].ID] = true
	}
	return nil
}

// AllMaterialIDs returns the sorted set of material IDs referenced by
// cells. Void cells (material 0) are excluded.
//
// This is the basis for deriving a materials collection when the model
// does not carry an explicit one: the exporter looks up each returned
// ID in the material registry and builds materials.xml from the result.
func (g *Geometry) AllMaterialIDs() []int {
	set := make(map[int]bool)
	for i := range g.Cells {
		if g.Cells[i].MaterialID != 0 {
			set[g.Cells[i].MaterialID] = true
		}
	}
	ids := make([]int, 0, len(set))
	for id := range set {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}

// xmlSurface mirrors the <surface> element of geometry.xml.
type xmlSurface struct {
	ID       int    `xml:"id,attr"`
	Name     string `xml:"name,attr,omitempty"`
	Type     string `xml:"type,attr"`
	Coeffs   string `xml:"coeffs,attr"`
	Boundary string `xml:"boundary,attr,omitempty"`
}

// xmlCell mirrors the <cell> element of geometry.xml.
type xmlCell struct {
	ID       int    `xml:"id,attr"`
	Name     string `xml:"name,attr,omitempty"`
	Universe int    `xml:"universe,attr,omitempty"`
	Material string `xml:"material,attr,omitempty"`
	Fill     int    `xml:"fill,attr,omitempty"`
	Region   string `xml:"region,attr"`
}

// xmlGeometry is the document root of geometry.xml.
type xmlGeometry struct {
	XMLName  xml.Name     `xml:"geometry"`
	Surfaces []xmlSurface `xml:"surface"`
	Cells    []xmlCell    `xml:"cell"`
}

// ExportXML writes the geometry as geometry.xml into dir.
func (g *Geometry) ExportXML(dir string) error {
	doc := xmlGeometry{}

	for i := range g.Surfaces {
		s := &g.Surfaces[i]
		doc.Surfaces = append(doc.Surfaces, xmlSurface{
			ID:       s.ID,
			Name:     s.Name,
			Type:     string(s.Type),
			Coeffs:   xmlio.Floats(s.Coefficients),
			Boundary: string(s.Boundary),
		})
	}

	for i := range g.Cells {
		c := &g.Cells[i]
		xc := xmlCell{
			ID:       c.ID,
			Name:     c.Name,
			Universe: c.Universe,
			Fill:     c.Fill,
			Region:   c.Region,
		}
		// Void cells are written with the literal "void" marker rather
		// than a numeric id.
		if c.MaterialID != 0 {
			xc.Material = fmt.Sprintf("%d", c.MaterialID)
		} else if c.Fill == 0 {
			xc.Material = "void"
		}
		doc.Cells = append(doc.Cells, xc)
	}

	return xmlio.WriteFile(filepath.Join(dir, "geometry.xml"), &doc)
}
