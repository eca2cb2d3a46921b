// Package deplete orchestrates burnup calculations: it drives a
// transport operator through a schedule of timesteps and power levels
// using one of the supported integration methods.
//
// The physics lives behind the TransportOperator interface — transport
// solves and composition updates are performed by the external solver.
// This package owns the schedule, the integrator sequencing (predictor
// and CE/CM), and the results history written after a run.
package deplete

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// PowerSchedule is the reactor power specification: either a single
// level held over all timesteps or one level per timestep.
//
// In YAML both forms are accepted:
//
//	power: 174.0
//	power: [174.0, 170.0, 0.0]
//
// For 2D problems the level may be W/cm provided depletable material
// volumes are areas in cm^2.
type PowerSchedule []float64

// UnmarshalYAML accepts both the scalar and the sequence form.
func (p *PowerSchedule) UnmarshalYAML(value *yaml.Node) error {
	switch value.Kind {
	case yaml.ScalarNode:
		var single float64
		if err := value.Decode(&single); err != nil {
			return fmt.Errorf("invalid power level: %w", err)
		}
		*p = PowerSchedule{single}
		return nil
	case yaml.SequenceNode:
		var levels []float64
		if err := value.Decode(&levels); err != nil {
			return fmt.Errorf("invalid power list: %w", err)
		}
		*p = PowerSchedule(levels)
		return nil
	default:
		return fmt.Errorf("power must be a number or a list of numbers")
	}
}

// Schedule is the depletion timeline loaded from a YAML schedule file.
type Schedule struct {
	// Timesteps are the step durations in seconds. Values are not
	// cumulative: [86400, 86400] is two one-day steps.
	Timesteps []float64 `yaml:"timesteps"`

	// Power is the power level in watts: one entry held constant, or
	// exactly one entry per timestep.
	Power PowerSchedule `yaml:"power"`
}

// Validate checks step durations and the power/timestep shape rule.
func (s *Schedule) Validate() error {
	if len(s.Timesteps) == 0 {
		return fmt.Errorf("schedule needs at least one timestep")
	}
	for i, dt := range s.Timesteps {
		if dt <= 0 {
			return fmt.Errorf("timestep[%d]=%g must be positive seconds", i, dt)
		}
	}
	if len(s.Power) != 1 && len(s.Power) != len(s.Timesteps) {
		return fmt.Errorf("power needs 1 or %d entries, got %d", len(s.Timesteps), len(s.Power))
	}
	for i, p := range s.Power {
		if p < 0 {
			return fmt.Errorf("power[%d]=%g must be non-negative watts", i, p)
		}
	}
	return nil
}

// PowerAt returns the power level for timestep i, resolving the
// constant-power shorthand.
func (s *Schedule) PowerAt(i int) float64 {
	if len(s.Power) == 1 {
		return s.Power[0]
	}
	return s.Power[i]
}

// LoadSchedule reads and validates a YAML schedule file.
func LoadSchedule(path string) (*Schedule, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read schedule file: %w", err)
	}

	var s Schedule
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("failed to parse schedule file %s: %w", path, err)
	}
	if err := s.Validate(); err != nil {
		return nil, fmt.Errorf("invalid schedule %s: %w", path, err)
	}
	return &s, nil
}

// ResolveChainFile picks the depletion chain file: the explicit path
// when given, otherwise the fallback from the solver environment.
// The chosen file must exist.
func ResolveChainFile(explicit, fallback string) (string, error) {
	chain := explicit
	if chain == "" {
		chain = fallback
	}
	if chain == "" {
		return "", fmt.Errorf("no depletion chain file: pass one explicitly or set FLUX_CHAIN_FILE")
	}
	if _, err := os.Stat(chain); err != nil {
		return "", fmt.Errorf("depletion chain file %s not readable: %w", chain, err)
	}
	return chain, nil
}
