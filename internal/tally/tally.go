// Package tally defines the tally system of a transport model: meshes,
// filters, and the tallies that bind filters to scores.
//
// A tally accumulates reaction-rate scores over the phase-space bins
// selected by its filters. Filters reference meshes and materials by ID;
// referential integrity across the collection is checked by Validate.
// The collection is serialized to tallies.xml.
package tally

import (
	"encoding/xml"
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/mmr-tortoise/flux/internal/xmlio"
)

// Estimator enumerates the tally estimator kinds.
type Estimator string

const (
	// EstimatorAnalog scores at collision sites using the analog weight.
	EstimatorAnalog Estimator = "analog"

	// EstimatorTracklength scores along particle tracks. Incompatible
	// with outgoing-energy filters, which only make sense at collisions.
	EstimatorTracklength Estimator = "tracklength"

	// EstimatorCollision scores at collision sites weighted by the
	// inverse total cross section.
	EstimatorCollision Estimator = "collision"
)

// IsValid checks whether the Estimator is a known kind.
func (e Estimator) IsValid() bool {
	switch e {
	case EstimatorAnalog, EstimatorTracklength, EstimatorCollision:
		return true
	default:
		return false
	}
}

// ParseEstimator converts a string to an Estimator.
func ParseEstimator(s string) (Estimator, error) {
	e := Estimator(strings.ToLower(s))
	if !e.IsValid() {
		return "", fmt.Errorf("invalid estimator: %q (valid: analog, tracklength, collision)", s)
	}
	return e, nil
}

// validScores is the set of reaction-rate scores a tally may request.
var validScores = map[string]bool{
	"flux":       true,
	"total":      true,
	"absorption": true,
	"fission":    true,
	"nu-fission": true,
	"scatter":    true,
	"nu-scatter": true,
	"events":     true,
}

// ValidScore reports whether the named score is supported.
func ValidScore(score string) bool {
	return validScores[strings.ToLower(score)]
}

// Scores returns the sorted list of supported score names, for error
// messages and CLI help output.
func Scores() []string {
	names := make([]string, 0, len(validScores))
	for s := range validScores {
		names = append(names, s)
	}
	sort.Strings(names)
	return names
}

// Mesh is a regular structured mesh overlaid on the geometry for
// spatial tally binning.
type Mesh struct {
	// ID is the unique positive mesh identifier referenced by mesh filters.
	ID int `json:"id"`

	// Dimension is the number of bins along each axis (1-3 entries).
	Dimension []int `json:"dimension"`

	// LowerLeft and UpperRight are the mesh bounding-box corners.
	// Must have the same length as Dimension.
	LowerLeft  []float64 `json:"lowerLeft"`
	UpperRight []float64 `json:"upperRight"`
}

// Validate checks the mesh dimensions and bounding box.
func (m *Mesh) Validate() error {
	if m.ID <= 0 {
		return fmt.Errorf("mesh id %d must be positive", m.ID)
	}
	n := len(m.Dimension)
	if n < 1 || n > 3 {
		return fmt.Errorf("mesh %d: dimension needs 1-3 entries, got %d", m.ID, n)
	}
	for i, d := range m.Dimension {
		if d <= 0 {
			return fmt.Errorf("mesh %d: dimension[%d]=%d must be positive", m.ID, i, d)
		}
	}
	if len(m.LowerLeft) != n || len(m.UpperRight) != n {
		return fmt.Errorf("mesh %d: lower_left and upper_right must each have %d entries", m.ID, n)
	}
	for i := 0; i < n; i++ {
		if m.LowerLeft[i] >= m.UpperRight[i] {
			return fmt.Errorf("mesh %d: lower_left[%d]=%g must be below upper_right[%d]=%g",
				m.ID, i, m.LowerLeft[i], i, m.UpperRight[i])
		}
	}
	return nil
}

// Bins returns the total number of spatial bins the mesh defines.
func (m *Mesh) Bins() int {
	bins := 1
	for _, d := range m.Dimension {
		bins *= d
	}
	return bins
}

// FilterType enumerates the tally filter kinds.
type FilterType string

const (
	// FilterMesh bins scores by the spatial bins of a mesh.
	FilterMesh FilterType = "mesh"

	// FilterMaterial bins scores by the material of the collision site.
	FilterMaterial FilterType = "material"

	// FilterEnergy bins scores by incident particle energy [eV].
	FilterEnergy FilterType = "energy"

	// FilterEnergyOut bins scores by outgoing particle energy [eV].
	// Forces the analog estimator on any tally that carries it.
	FilterEnergyOut FilterType = "energyout"
)

// IsValid checks whether the FilterType is a known kind.
func (t FilterType) IsValid() bool {
	switch t {
	case FilterMesh, FilterMaterial, FilterEnergy, FilterEnergyOut:
		return true
	default:
		return false
	}
}

// Filter selects the phase-space bins a tally accumulates into.
// Exactly one of the bin fields is populated depending on Type:
// MeshID for mesh filters, MaterialIDs for material filters, and
// Energies (bin edges, ascending) for the energy filters.
type Filter struct {
	// ID is the unique positive filter identifier referenced by tallies.
	ID int `json:"id"`

	// Type selects the filter kind.
	Type FilterType `json:"type"`

	// MeshID references a mesh for mesh filters.
	MeshID int `json:"mesh,omitempty"`

	// MaterialIDs lists the material bins for material filters.
	MaterialIDs []int `json:"materials,omitempty"`

	// Energies lists the bin edges in eV, ascending, for energy and
	// energyout filters. N+1 edges define N bins.
	Energies []float64 `json:"energies,omitempty"`
}

// Validate checks the filter against the known mesh IDs.
func (f *Filter) Validate(meshes map[int]bool) error {
	if f.ID <= 0 {
		return fmt.Errorf("filter id %d must be positive", f.ID)
	}
	switch f.Type {
	case FilterMesh:
		if !meshes[f.MeshID] {
			return fmt.Errorf("filter %d: references unknown mesh %d", f.ID, f.MeshID)
		}
	case FilterMaterial:
		if len(f.MaterialIDs) == 0 {
			return fmt.Errorf("filter %d: material filter needs at least one material id", f.ID)
		}
	case FilterEnergy, FilterEnergyOut:
		if len(f.Energies) < 2 {
			return fmt.Errorf("filter %d: energy filter needs at least two bin edges", f.ID)
		}
		for i := 1; i < len(f.Energies); i++ {
			if f.Energies[i] <= f.Energies[i-1] {
				return fmt.Errorf("filter %d: energy edges must be strictly ascending, got %v", f.ID, f.Energies)
			}
		}
	default:
		return fmt.Errorf("filter %d: invalid type %q", f.ID, f.Type)
	}
	return nil
}

// Bins returns the number of bins the filter defines. Mesh filters need
// the mesh registry to resolve their spatial bin count.
func (f *Filter) Bins(meshes map[int]*Mesh) int {
	switch f.Type {
	case FilterMesh:
		if m, ok := meshes[f.MeshID]; ok {
			return m.Bins()
		}
		return 0
	case FilterMaterial:
		return len(f.MaterialIDs)
	case FilterEnergy, FilterEnergyOut:
		return len(f.Energies) - 1
	default:
		return 0
	}
}

// Tally binds a set of filters to the scores accumulated over their bins.
type Tally struct {
	// ID is the unique positive tally identifier carried through to the
	// statepoint results.
	ID int `json:"id"`

	// Name is an optional label for diagnostics.
	Name string `json:"name,omitempty"`

	// FilterIDs references the filters whose bin product forms the
	// tally phase space. May be empty for a global tally.
	FilterIDs []int `json:"filters,omitempty"`

	// Scores lists the reaction rates to accumulate. Must be non-empty.
	Scores []string `json:"scores"`

	// Nuclides optionally restricts scoring to the named nuclides.
	// Empty means total material rates.
	Nuclides []string `json:"nuclides,omitempty"`

	// Estimator selects how scores are accumulated. Empty lets the
	// solver pick (tracklength where possible, analog otherwise).
	Estimator Estimator `json:"estimator,omitempty"`
}

// Validate checks scores, estimator, and filter references. The filter
// registry is needed to enforce the energyout/analog constraint.
func (t *Tally) Validate(filters map[int]*Filter) error {
	if t.ID <= 0 {
		return fmt.Errorf("tally id %d must be positive", t.ID)
	}
	if len(t.Scores) == 0 {
		return fmt.Errorf("tally %d: at least one score is required", t.ID)
	}
	for _, s := range t.Scores {
		if !ValidScore(s) {
			return fmt.Errorf("tally %d: invalid score %q (valid: %s)", t.ID, s, strings.Join(Scores(), ", "))
		}
	}
	if t.Estimator != "" && !t.Estimator.IsValid() {
		return fmt.Errorf("tally %d: invalid estimator %q", t.ID, t.Estimator)
	}

	hasEnergyOut := false
	for _, fid := range t.FilterIDs {
		f, ok := filters[fid]
		if !ok {
			return fmt.Errorf("tally %d: references unknown filter %d", t.ID, fid)
		}
		if f.Type == FilterEnergyOut {
			hasEnergyOut = true
		}
	}

	// Outgoing energy is only known at collisions, so a tally binning
	// on it cannot use the tracklength or collision estimators.
	if hasEnergyOut && t.Estimator != "" && t.Estimator != EstimatorAnalog {
		return fmt.Errorf("tally %d: energyout filter requires the analog estimator, got %q", t.ID, t.Estimator)
	}
	return nil
}

// Tallies is the full tally configuration serialized to tallies.xml.
type Tallies struct {
	// Meshes lists the spatial meshes referenced by mesh filters.
	Meshes []Mesh `json:"meshes,omitempty"`

	// Filters lists the filter definitions referenced by tallies.
	Filters []Filter `json:"filters,omitempty"`

	// List holds the tally definitions in export order.
	List []Tally `json:"list,omitempty"`
}

// Empty reports whether no tallies are defined. An empty collection
// suppresses the tallies.xml export entirely.
func (ts *Tallies) Empty() bool {
	return len(ts.List) == 0
}

// Append adds a tally, assigning the next free ID when the tally
// carries none.
func (ts *Tallies) Append(t Tally) {
	if t.ID == 0 {
		maxID := 0
		for i := range ts.List {
			if ts.List[i].ID > maxID {
				maxID = ts.List[i].ID
			}
		}
		t.ID = maxID + 1
	}
	ts.List = append(ts.List, t)
}

// MeshRegistry returns a lookup map from mesh ID to mesh.
func (ts *Tallies) MeshRegistry() map[int]*Mesh {
	reg := make(map[int]*Mesh, len(ts.Meshes))
	for i := range ts.Meshes {
		reg[ts.Meshes[i].ID] = &ts.Meshes[i]
	}
	return reg
}

// FilterRegistry returns a lookup map from filter ID to filter.
func (ts *Tallies) FilterRegistry() map[int]*Filter {
	reg := make(map[int]*Filter, len(ts.Filters))
	for i := range ts.Filters {
		reg[ts.Filters[i].ID] = &ts.Filters[i]
	}
	return reg
}

// Validate checks meshes, filters, and tallies with full referential
// integrity: filters must reference known meshes, tallies known filters.
func (ts *Tallies) Validate() error {
	meshIDs := make(map[int]bool, len(ts.Meshes))
	for i := range ts.Meshes {
		if err := ts.Meshes[i].Validate(); err != nil {
			return err
		}
		if meshIDs[ts.Meshes[i].ID] {
			return fmt.Errorf("duplicate mesh id %d", ts.Meshes[i].ID)
		}
		meshIDs[ts.Meshes[i].ID] = true
	}

	filterIDs := make(map[int]bool, len(ts.Filters))
	for i := range ts.Filters {
		if err := ts.Filters[i].Validate(meshIDs); err != nil {
			return err
		}
		if filterIDs[ts.Filters[i].ID] {
			return fmt.Errorf("duplicate filter id %d", ts.Filters[i].ID)
		}
		filterIDs[ts.Filters[i].ID] = true
	}

	filters := ts.FilterRegistry()
	tallyIDs := make(map[int]bool, len(ts.List))
	for i := range ts.List {
		if err := ts.List[i].Validate(filters); err != nil {
			return err
		}
		if tallyIDs[ts.List[i].ID] {
			return fmt.Errorf("duplicate tally id %d", ts.List[i].ID)
		}
		tallyIDs[ts.List[i].ID] = true
	}
	return nil
}

// TallyBins returns the total phase-space bin count of a tally: the
// product of its filter bin counts (1 for a global tally).
func (ts *Tallies) TallyBins(t *Tally) int {
	meshes := ts.MeshRegistry()
	filters := ts.FilterRegistry()
	bins := 1
	for _, fid := range t.FilterIDs {
		if f, ok := filters[fid]; ok {
			bins *= f.Bins(meshes)
		}
	}
	return bins
}

// xmlMesh mirrors the <mesh> element of tallies.xml.
type xmlMesh struct {
	ID         int    `xml:"id,attr"`
	Type       string `xml:"type,attr"`
	Dimension  string `xml:"dimension"`
	LowerLeft  string `xml:"lower_left"`
	UpperRight string `xml:"upper_right"`
}

// xmlFilter mirrors the <filter> element of tallies.xml. The bins
// attribute carries mesh id, material ids, or energy edges depending
// on the filter type.
type xmlFilter struct {
	ID   int    `xml:"id,attr"`
	Type string `xml:"type,attr"`
	Bins string `xml:"bins,attr"`
}

// xmlTally mirrors the <tally> element of tallies.xml.
type xmlTally struct {
	ID        int    `xml:"id,attr"`
	Name      string `xml:"name,attr,omitempty"`
	Filters   string `xml:"filters,omitempty"`
	Nuclides  string `xml:"nuclides,omitempty"`
	Scores    string `xml:"scores"`
	Estimator string `xml:"estimator,omitempty"`
}

// xmlTallies is the document root of tallies.xml.
type xmlTallies struct {
	XMLName xml.Name    `xml:"tallies"`
	Meshes  []xmlMesh   `xml:"mesh"`
	Filters []xmlFilter `xml:"filter"`
	Tallies []xmlTally  `xml:"tally"`
}

// ExportXML writes the tally configuration as tallies.xml into dir.
func (ts *Tallies) ExportXML(dir string) error {
	doc := xmlTallies{}

	for i := range ts.Meshes {
		m := &ts.Meshes[i]
		doc.Meshes = append(doc.Meshes, xmlMesh{
			ID:         m.ID,
			Type:       "regular",
			Dimension:  xmlio.Ints(m.Dimension),
			LowerLeft:  xmlio.Floats(m.LowerLeft),
			UpperRight: xmlio.Floats(m.UpperRight),
		})
	}

	for i := range ts.Filters {
		f := &ts.Filters[i]
		xf := xmlFilter{ID: f.ID, Type: string(f.Type)}
		switch f.Type {
		case FilterMesh:
			xf.Bins = fmt.Sprintf("%d", f.MeshID)
		case FilterMaterial:
			xf.Bins = xmlio.Ints(f.MaterialIDs)
		case FilterEnergy, FilterEnergyOut:
			xf.Bins = xmlio.Floats(f.Energies)
		}
		doc.Filters = append(doc.Filters, xf)
	}

	for i := range ts.List {
		t := &ts.List[i]
		doc.Tallies = append(doc.Tallies, xmlTally{
			ID:        t.ID,
			Name:      t.Name,
			Filters:   xmlio.Ints(t.FilterIDs),
			Nuclides:  strings.Join(t.Nuclides, " "),
			Scores:    strings.Join(t.Scores, " "),
			Estimator: string(t.Estimator),
		})
	}

	return xmlio.WriteFile(filepath.Join(dir, "tallies.xml"), &doc)
}
