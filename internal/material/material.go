// Package material defines material compositions for a transport model.
//
// A Material is a named mixture of nuclides at a given density. Materials
// are referenced from geometry cells by ID, collected into a Materials
// list, and serialized to materials.xml as part of the solver input suite.
//
// In multi-group mode the collection can carry a cross-section library
// path that the solver resolves relative to the model directory.
package material

import (
	"encoding/xml"
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/mmr-tortoise/flux/internal/xmlio"
)

// DensityUnits enumerates the supported density unit specifications.
// The solver interprets the density value according to these units.
type DensityUnits string

const (
	// DensityGramPerCC is grams per cubic centimetre, the most common
	// specification for solid materials.
	DensityGramPerCC DensityUnits = "g/cm3"

	// DensityAtomPerBarnCM is atoms per barn-centimetre, the natural
	// unit for atom-density driven compositions.
	DensityAtomPerBarnCM DensityUnits = "atom/b-cm"

	// DensitySum indicates the density is the sum of the nuclide
	// densities; no explicit value is given.
	DensitySum DensityUnits = "sum"

	// DensityMacroscopic is used in multi-group mode where the material
	// carries a single macroscopic dataset rather than nuclides.
	DensityMacroscopic DensityUnits = "macro"
)

// IsValid checks whether the DensityUnits value is one of the
// predefined unit specifications.
func (u DensityUnits) IsValid() bool {
	switch u {
	case DensityGramPerCC, DensityAtomPerBarnCM, DensitySum, DensityMacroscopic:
		return true
	default:
		return false
	}
}

// ParseDensityUnits converts a string to a DensityUnits value.
// Returns an error if the string does not match any supported units.
func ParseDensityUnits(s string) (DensityUnits, error) {
	u := DensityUnits(strings.ToLower(s))
	if !u.IsValid() {
		return "", fmt.Errorf("invalid density units: %q (valid: g/cm3, atom/b-cm, sum, macro)", s)
	}
	return u, nil
}

// PercentType indicates how a nuclide fraction is expressed.
type PercentType string

const (
	// AtomPercent means the fraction is an atom fraction ("ao").
	AtomPercent PercentType = "ao"

	// WeightPercent means the fraction is a weight fraction ("wo").
	WeightPercent PercentType = "wo"
)

// IsValid checks whether the PercentType is a known value.
func (p PercentType) IsValid() bool {
	return p == AtomPercent || p == WeightPercent
}

// Nuclide is a single component of a material composition.
type Nuclide struct {
	// Name is the nuclide identifier (e.g., "U235", "H1"). In multi-group
	// mode this names a dataset in the cross-section library instead.
	Name string `json:"name"`

	// Fraction is the atom or weight fraction of this nuclide.
	// Must be positive.
	Fraction float64 `json:"fraction"`

	// Percent selects atom ("ao") or weight ("wo") fraction semantics.
	// Defaults to atom percent when empty.
	Percent PercentType `json:"percent,omitempty"`
}

// Material is a single material definition referenced by geometry cells.
type Material struct {
	// ID is the unique positive identifier used by cells and tally
	// filters to reference this material.
	ID int `json:"id"`

	// Name is an optional human-readable label carried through to the
	// input file for diagnostics.
	Name string `json:"name,omitempty"`

	// Density is the material density value. Ignored when Units is "sum".
	Density float64 `json:"density"`

	// Units selects the interpretation of Density.
	// Defaults to g/cm3 when empty.
	Units DensityUnits `json:"units,omitempty"`

	// Nuclides lists the composition. Must be non-empty unless Units is
	// "macro", in which case exactly one macroscopic dataset is expected.
	Nuclides []Nuclide `json:"nuclides"`

	// Temperature is the material temperature in kelvin. Zero means the
	// solver default.
	Temperature float64 `json:"temperature,omitempty"`

	// Volume is the material volume in cm^3. Required for depletable
	// materials so reaction rates can be normalized to power. For 2D
	// problems this may be an area in cm^2 with power given per unit
	// length.
	Volume float64 `json:"volume,omitempty"`

	// Depletable marks the material as evolving during depletion.
	Depletable bool `json:"depletable,omitempty"`
}

// Validate checks a single material definition for internal consistency.
func (m *Material) Validate() error {
	if m.ID <= 0 {
		return fmt.Errorf("material id %d must be positive", m.ID)
	}
	units := m.Units
	if units == "" {
		units = DensityGramPerCC
	}
	if !units.IsValid() {
		return fmt.Errorf("material %d: invalid density units %q", m.ID, m.Units)
	}
	if units != DensitySum && m.Density <= 0 {
		return fmt.Errorf("material %d: density %g must be positive", m.ID, m.Density)
	}
	if len(m.Nuclides) == 0 {
		return fmt.Errorf("material %d: at least one nuclide is required", m.ID)
	}
	for _, n := range m.Nuclides {
		if n.Name == "" {
			return fmt.Errorf("material %d: nuclide name must not be empty", m.ID)
		}
		if n.Fraction <= 0 {
			return fmt.Errorf("material %d: nuclide %s fraction %g must be positive", m.ID, n.Name, n.Fraction)
		}
		if n.Percent != "" && !n.Percent.IsValid() {
			return fmt.Errorf("material %d: nuclide %s has invalid percent type %q (valid: ao, wo)", m.ID, n.Name, n.Percent)
		}
	}
	if m.Depletable && m.Volume <= 0 {
		return fmt.Errorf("material %d: depletable materials require a positive volume", m.ID)
	}
	return nil
}

// NuclideNames returns the names of all nuclides in the material,
// in definition order.
func (m *Material) NuclideNames() []string {
	names := make([]string, 0, len(m.Nuclides))
	for _, n := range m.Nuclides {
		names = append(names, n.Name)
	}
	return names
}

// Materials is the ordered collection serialized to materials.xml.
type Materials struct {
	// CrossSections is an optional path to the cross-section library
	// used in multi-group mode. Written as a <cross_sections> element.
	CrossSections string `json:"crossSections,omitempty"`

	// List holds the material definitions in export order.
	List []Material `json:"list"`
}

// Validate checks every material and enforces ID uniqueness across
// the collection.
func (ms *Materials) Validate() error {
	seen := make(map[int]bool, len(ms.List))
	for i := range ms.List {
		if err := ms.List[i].Validate(); err != nil {
			return err
		}
		if seen[ms.List[i].ID] {
			return fmt.Errorf("duplicate material id %d", ms.List[i].ID)
		}
		seen[ms.List[i].ID] = true
	}
	return nil
}

// Empty reports whether the collection contains no materials.
// An empty collection triggers derivation from geometry at export time.
func (ms *Materials) Empty() bool {
	return len(ms.List) == 0
}

// ByID returns the material with the given ID, or nil if absent.
func (ms *Materials) ByID(id int) *Material {
	for i := range ms.List {
		if ms.List[i].ID == id {
			return &ms.List[i]
		}
	}
	return nil
}

// IDs returns the sorted list of material IDs in the collection.
func (ms *Materials) IDs() []int {
	ids := make([]int, 0, len(ms.List))
	for i := range ms.List {
		ids = append(ids, ms.List[i].ID)
	}
	sort.Ints(ids)
	return ids
}

// AllNuclideNames returns the union of nuclide names across all
// materials, sorted for deterministic output. Used by tallies that
// score per-nuclide without an explicit nuclide list.
func (ms *Materials) AllNuclideNames() []string {
	set := make(map[string]bool)
	for i := range ms.List {
		for _, n := range ms.List[i].Nuclides {
			set[n.Name] = true
		}
	}
	names := make([]string, 0, len(set))
	for name := range set {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// xmlNuclide is the materials.xml serialization form of a Nuclide.
type xmlNuclide struct {
	Name string  `xml:"name,attr"`
	AO   float64 `xml:"ao,attr,omitempty"`
	WO   float64 `xml:"wo,attr,omitempty"`
}

// xmlDensity is the <density> element of a material.
type xmlDensity struct {
	Value float64 `xml:"value,attr,omitempty"`
	Units string  `xml:"units,attr"`
}

// xmlMaterial mirrors the <material> element layout.
type xmlMaterial struct {
	ID          int          `xml:"id,attr"`
	Name        string       `xml:"name,attr,omitempty"`
	Depletable  bool         `xml:"depletable,attr,omitempty"`
	Volume      float64      `xml:"volume,attr,omitempty"`
	Temperature float64      `xml:"temperature,omitempty"`
	Density     xmlDensity   `xml:"density"`
	Nuclides    []xmlNuclide `xml:"nuclide"`
}

// xmlMaterials is the document root of materials.xml.
type xmlMaterials struct {
	XMLName       xml.Name      `xml:"materials"`
	CrossSections string        `xml:"cross_sections,omitempty"`
	Materials     []xmlMaterial `xml:"material"`
}

// ExportXML writes the collection as materials.xml into dir.
//
// The domain structs are mapped onto serialization-only structs first,
// keeping the xml field layout independent of the JSON model file layout.
func (ms *Materials) ExportXML(dir string) error {
	doc := xmlMaterials{CrossSections: ms.CrossSections}

	for i := range ms.List {
		m := &ms.List[i]

		units := m.Units
		if units == "" {
			units = DensityGramPerCC
		}
		xm := xmlMaterial{
			ID:          m.ID,
			Name:        m.Name,
			Depletable:  m.Depletable,
			Volume:      m.Volume,
			Temperature: m.Temperature,
			Density:     xmlDensity{Units: string(units)},
		}
		// "sum" densities carry no explicit value; every other unit does.
		if units != DensitySum {
			xm.Density.Value = m.Density
		}

		for _, n := range m.Nuclides {
			xn := xmlNuclide{Name: n.Name}
			if n.Percent == WeightPercent {
				xn.WO = n.Fraction
			} else {
				xn.AO = n.Fraction
			}
			xm.Nuclides = append(xm.Nuclides, xn)
		}

		doc.Materials = append(doc.Materials, xm)
	}

	return xmlio.WriteFile(filepath.Join(dir, "materials.xml"), &doc)
}
