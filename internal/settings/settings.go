// Package settings defines the run-control parameters of a transport
// model: batching, particle counts, run and energy mode, the external
// source, and the statepoint schedule.
//
// Settings is always exported (settings.xml is the one mandatory input
// file), and it also decides whether geometry.xml is written at all —
// models using externally supplied geometry skip it.
package settings

import (
	"encoding/xml"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/mmr-tortoise/flux/internal/xmlio"
)

// RunMode selects the top-level solver mode.
type RunMode string

const (
	// ModeEigenvalue runs a k-eigenvalue calculation with inactive and
	// active batches. This is the default.
	ModeEigenvalue RunMode = "eigenvalue"

	// ModeFixedSource runs a fixed-source calculation driven entirely
	// by the external source definition.
	ModeFixedSource RunMode = "fixed source"
)

// IsValid checks whether the RunMode is a known mode.
func (m RunMode) IsValid() bool {
	return m == ModeEigenvalue || m == ModeFixedSource
}

// ParseRunMode converts a string to a RunMode.
func ParseRunMode(s string) (RunMode, error) {
	m := RunMode(strings.ToLower(s))
	if !m.IsValid() {
		return "", fmt.Errorf("invalid run mode: %q (valid: eigenvalue, fixed source)", s)
	}
	return m, nil
}

// EnergyMode selects continuous-energy or multi-group physics.
type EnergyMode string

const (
	// EnergyContinuous uses pointwise continuous-energy data.
	EnergyContinuous EnergyMode = "continuous-energy"

	// EnergyMultiGroup uses a multi-group cross-section library; the
	// materials collection must then carry a cross-section path.
	EnergyMultiGroup EnergyMode = "multi-group"
)

// IsValid checks whether the EnergyMode is a known mode.
func (m EnergyMode) IsValid() bool {
	return m == EnergyContinuous || m == EnergyMultiGroup
}

// ParseEnergyMode converts a string to an EnergyMode.
func ParseEnergyMode(s string) (EnergyMode, error) {
	m := EnergyMode(strings.ToLower(s))
	if !m.IsValid() {
		return "", fmt.Errorf("invalid energy mode: %q (valid: continuous-energy, multi-group)", s)
	}
	return m, nil
}

// Source defines the external particle source.
type Source struct {
	// Strength is the relative source strength. Defaults to 1.
	Strength float64 `json:"strength,omitempty"`

	// LowerLeft and UpperRight bound the spatial box the source samples
	// uniformly. Both must have three components when present.
	LowerLeft  []float64 `json:"lowerLeft,omitempty"`
	UpperRight []float64 `json:"upperRight,omitempty"`

	// OnlyFissionable restricts sampled sites to fissionable material.
	OnlyFissionable bool `json:"onlyFissionable,omitempty"`
}

// Validate checks the source box dimensions.
func (s *Source) Validate() error {
	if len(s.LowerLeft) == 0 && len(s.UpperRight) == 0 {
		return nil
	}
	if len(s.LowerLeft) != 3 || len(s.UpperRight) != 3 {
		return fmt.Errorf("source box requires 3 lower-left and 3 upper-right coordinates")
	}
	for i := 0; i < 3; i++ {
		if s.LowerLeft[i] >= s.UpperRight[i] {
			return fmt.Errorf("source box: lower_left[%d]=%g must be below upper_right[%d]=%g",
				i, s.LowerLeft[i], i, s.UpperRight[i])
		}
	}
	return nil
}

// Statepoint controls which batches emit a statepoint file.
type Statepoint struct {
	// Batches lists batch numbers after which a statepoint is written.
	// Must be ascending; the final entry decides which statepoint file
	// a run reads its results from.
	Batches []int `json:"batches,omitempty"`
}

// Settings holds all run-control parameters serialized to settings.xml.
type Settings struct {
	// RunMode selects eigenvalue or fixed-source mode.
	// Empty means eigenvalue.
	RunMode RunMode `json:"runMode,omitempty"`

	// Batches is the total number of batches. Must be positive.
	Batches int `json:"batches"`

	// Inactive is the number of inactive batches discarded before
	// tally accumulation starts. Only meaningful in eigenvalue mode.
	Inactive int `json:"inactive,omitempty"`

	// Particles is the number of particles per batch. Must be positive.
	Particles int `json:"particles"`

	// EnergyMode selects continuous-energy or multi-group physics.
	// Empty means continuous-energy.
	EnergyMode EnergyMode `json:"energyMode,omitempty"`

	// Seed is the pseudorandom number seed. Zero means solver default.
	Seed int64 `json:"seed,omitempty"`

	// Source is the external source definition.
	Source *Source `json:"source,omitempty"`

	// Statepoint is the statepoint write schedule. When nil, the solver
	// writes a single statepoint after the final batch.
	Statepoint *Statepoint `json:"statepoint,omitempty"`

	// Verbosity is the solver console verbosity (1-10, 0 = default).
	Verbosity int `json:"verbosity,omitempty"`

	// ExternalGeometry marks the geometry as supplied outside the XML
	// suite (e.g. a CAD file placed in the model directory). When set,
	// geometry.xml is not exported.
	ExternalGeometry bool `json:"externalGeometry,omitempty"`
}

// Validate checks ranges and mode values.
func (s *Settings) Validate() error {
	if s.RunMode != "" && !s.RunMode.IsValid() {
		return fmt.Errorf("invalid run mode %q", s.RunMode)
	}
	if s.Batches <= 0 {
		return fmt.Errorf("batches %d must be positive", s.Batches)
	}
	if s.Inactive < 0 || s.Inactive >= s.Batches {
		return fmt.Errorf("inactive batches %d must be in [0, batches)", s.Inactive)
	}
	if s.Particles <= 0 {
		return fmt.Errorf("particles %d must be positive", s.Particles)
	}
	if s.EnergyMode != "" && !s.EnergyMode.IsValid() {
		return fmt.Errorf("invalid energy mode %q", s.EnergyMode)
	}
	if s.Verbosity < 0 || s.Verbosity > 10 {
		return fmt.Errorf("verbosity %d must be in [0, 10]", s.Verbosity)
	}
	if s.Source != nil {
		if err := s.Source.Validate(); err != nil {
			return err
		}
	}
	if s.Statepoint != nil {
		prev := 0
		for _, b := range s.Statepoint.Batches {
			if b <= prev {
				return fmt.Errorf("statepoint batches must be ascending and positive, got %v", s.Statepoint.Batches)
			}
			if b > s.Batches {
				return fmt.Errorf("statepoint batch %d exceeds total batches %d", b, s.Batches)
			}
			prev = b
		}
	}
	return nil
}

// FinalStatepointBatch returns the batch number of the statepoint file
// a completed run produces last. When a statepoint schedule is present
// its final entry wins; otherwise the total batch count is used.
func (s *Settings) FinalStatepointBatch() int {
	if s.Statepoint != nil && len(s.Statepoint.Batches) > 0 {
		return s.Statepoint.Batches[len(s.Statepoint.Batches)-1]
	}
	return s.Batches
}

// xmlSpace is the <space> element of a source definition.
type xmlSpace struct {
	Type       string `xml:"type,attr"`
	LowerLeft  string `xml:"lower_left,attr"`
	UpperRight string `xml:"upper_right,attr"`
}

// xmlSource mirrors the <source> element.
type xmlSource struct {
	Strength        float64   `xml:"strength,attr,omitempty"`
	OnlyFissionable bool      `xml:"only_fissionable,attr,omitempty"`
	Space           *xmlSpace `xml:"space,omitempty"`
}

// xmlStatepoint mirrors the <state_point> element.
type xmlStatepoint struct {
	Batches string `xml:"batches,attr"`
}

// xmlSettings is the document root of settings.xml.
type xmlSettings struct {
	XMLName    xml.Name       `xml:"settings"`
	RunMode    string         `xml:"run_mode"`
	Batches    int            `xml:"batches"`
	Inactive   int            `xml:"inactive,omitempty"`
	Particles  int            `xml:"particles"`
	EnergyMode string         `xml:"energy_mode,omitempty"`
	Seed       int64          `xml:"seed,omitempty"`
	Source     *xmlSource     `xml:"source,omitempty"`
	Statepoint *xmlStatepoint `xml:"state_point,omitempty"`
	Verbosity  int            `xml:"verbosity,omitempty"`
}

// ExportXML writes the settings as settings.xml into dir.
func (s *Settings) ExportXML(dir string) error {
	mode := s.RunMode
	if mode == "" {
		mode = ModeEigenvalue
	}

	doc := xmlSettings{
		RunMode:    string(mode),
		Batches:    s.Batches,
		Inactive:   s.Inactive,
		Particles:  s.Particles,
		EnergyMode: string(s.EnergyMode),
		Seed:       s.Seed,
		Verbosity:  s.Verbosity,
	}

	if s.Source != nil {
		src := &xmlSource{
			Strength:        s.Source.Strength,
			OnlyFissionable: s.Source.OnlyFissionable,
		}
		if len(s.Source.LowerLeft) == 3 {
			src.Space = &xmlSpace{
				Type:       "box",
				LowerLeft:  xmlio.Floats(s.Source.LowerLeft),
				UpperRight: xmlio.Floats(s.Source.UpperRight),
			}
		}
		doc.Source = src
	}

	if s.Statepoint != nil && len(s.Statepoint.Batches) > 0 {
		doc.Statepoint = &xmlStatepoint{Batches: xmlio.Ints(s.Statepoint.Batches)}
	}

	return xmlio.WriteFile(filepath.Join(dir, "settings.xml"), &doc)
}
