package deplete

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/mmr-tortoise/flux/internal/statepoint"
)

// Method enumerates the supported depletion integration methods.
type Method string

const (
	// MethodCECM is the CE/CM midpoint predictor-corrector: each step
	// burns to its midpoint, re-solves transport there, then burns the
	// full step from the beginning using the midpoint reaction rates.
	// Two transport solves per step, second-order accurate. This is
	// the default.
	MethodCECM Method = "cecm"

	// MethodPredictor is the explicit Euler scheme: one transport
	// solve per step, beginning-of-step rates held constant.
	MethodPredictor Method = "predictor"
)

// IsValid checks whether the Method is a known integration method.
func (m Method) IsValid() bool {
	return m == MethodCECM || m == MethodPredictor
}

// ParseMethod converts a string to a Method. Unknown names are an
// error carrying the valid set.
func ParseMethod(s string) (Method, error) {
	m := Method(strings.ToLower(s))
	if !m.IsValid() {
		return "", fmt.Errorf("invalid depletion method: %q (valid: cecm, predictor)", s)
	}
	return m, nil
}

// TransportOperator is the black-box coupling to the transport and
// depletion solvers. Implementations hold the material compositions as
// internal state; the integrators only sequence calls.
type TransportOperator interface {
	// Solve runs a transport calculation at the current compositions,
	// caching reaction rates for the next Burn, and returns the
	// combined k-effective estimate.
	Solve(ctx context.Context) (statepoint.KEffective, error)

	// Burn advances the compositions over dt seconds at the given
	// power using the reaction rates of the most recent Solve.
	Burn(ctx context.Context, dtSeconds, powerWatts float64) error

	// Snapshot captures the current compositions as an opaque blob;
	// Restore rewinds to a captured state. Used by predictor-corrector
	// methods that must re-burn a step from its beginning.
	Snapshot() ([]byte, error)
	Restore(state []byte) error
}

// StepResult is one entry of the depletion history.
type StepResult struct {
	// Step is the zero-based timestep index; the final entry carries
	// the end-of-life state and has Step == len(timesteps).
	Step int `json:"step"`

	// TimeSeconds is the cumulative time at the beginning of the step.
	TimeSeconds float64 `json:"timeSeconds"`

	// PowerWatts is the power level applied over the step (zero on the
	// final entry).
	PowerWatts float64 `json:"powerWatts"`

	// K is the combined k-effective at TimeSeconds.
	K statepoint.KEffective `json:"k"`
}

// Results is the full depletion history.
type Results struct {
	// Method is the integration method that produced the history.
	Method Method `json:"method"`

	// ChainFile is the depletion chain the operator used.
	ChainFile string `json:"chainFile"`

	// Steps holds one entry per timestep plus the end-of-life entry.
	Steps []StepResult `json:"steps"`
}

// ResultsFileName is the history file written into the model directory.
const ResultsFileName = "depletion_results.json"

// WriteFile writes the history as indented JSON into dir.
func (r *Results) WriteFile(dir string) error {
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to serialize depletion results: %w", err)
	}
	data = append(data, '\n')
	path := filepath.Join(dir, ResultsFileName)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}

// Integrate runs the schedule through the named method.
func Integrate(ctx context.Context, method Method, op TransportOperator, s *Schedule, chainFile string) (*Results, error) {
	if err := s.Validate(); err != nil {
		return nil, err
	}

	var steps []StepResult
	var err error
	switch method {
	case MethodPredictor:
		steps, err = Predictor(ctx, op, s)
	case MethodCECM:
		steps, err = CECM(ctx, op, s)
	default:
		return nil, fmt.Errorf("invalid depletion method: %q (valid: cecm, predictor)", method)
	}
	if err != nil {
		return nil, err
	}

	return &Results{Method: method, ChainFile: chainFile, Steps: steps}, nil
}

// Predictor integrates the schedule with the explicit Euler scheme:
// solve at the beginning of each step, then burn the whole step with
// those rates held constant.
func Predictor(ctx context.Context, op TransportOperator, s *Schedule) ([]StepResult, error) {
	results := make([]StepResult, 0, len(s.Timesteps)+1)
	t := 0.0

	for i, dt := range s.Timesteps {
		power := s.PowerAt(i)

		k, err := op.Solve(ctx)
		if err != nil {
			return nil, fmt.Errorf("transport solve at step %d: %w", i, err)
		}
		results = append(results, StepResult{Step: i, TimeSeconds: t, PowerWatts: power, K: k})

		if err := op.Burn(ctx, dt, power); err != nil {
			return nil, fmt.Errorf("burn over step %d: %w", i, err)
		}
		t += dt
	}

	// End-of-life solve so the history carries the final state.
	k, err := op.Solve(ctx)
	if err != nil {
		return nil, fmt.Errorf("final transport solve: %w", err)
	}
	results = append(results, StepResult{Step: len(s.Timesteps), TimeSeconds: t, K: k})

	return results, nil
}

// CECM integrates the schedule with the CE/CM predictor-corrector.
//
// Per step: solve at the beginning, burn to the midpoint, solve there,
// rewind the compositions to the beginning of the step, and burn the
// full step with the midpoint rates.
func CECM(ctx context.Context, op TransportOperator, s *Schedule) ([]StepResult, error) {
	results := make([]StepResult, 0, len(s.Timesteps)+1)
	t := 0.0

	for i, dt := range s.Timesteps {
		power := s.PowerAt(i)

		k, err := op.Solve(ctx)
		if err != nil {
			return nil, fmt.Errorf("transport solve at step %d: %w", i, err)
		}
		results = append(results, StepResult{Step: i, TimeSeconds: t, PowerWatts: power, K: k})

		begin, err := op.Snapshot()
		if err != nil {
			return nil, fmt.Errorf("snapshot at step %d: %w", i, err)
		}

		// Predictor half-step to the midpoint.
		if err := op.Burn(ctx, dt/2, power); err != nil {
			return nil, fmt.Errorf("midpoint burn at step %d: %w", i, err)
		}
		if _, err := op.Solve(ctx); err != nil {
			return nil, fmt.Errorf("midpoint transport solve at step %d: %w", i, err)
		}

		// Corrector: full step from the beginning with midpoint rates.
		if err := op.Restore(begin); err != nil {
			return nil, fmt.Errorf("restore at step %d: %w", i, err)
		}
		if err := op.Burn(ctx, dt, power); err != nil {
			return nil, fmt.Errorf("corrector burn at step %d: %w", i, err)
		}
		t += dt
	}

	k, err := op.Solve(ctx)
	if err != nil {
		return nil, fmt.Errorf("final transport solve: %w", err)
	}
	results = append(results, StepResult{Step: len(s.Timesteps), TimeSeconds: t, K: k})

	return results, nil
}
