package deplete

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmr-tortoise/flux/internal/statepoint"
)

// fakeOperator records the call sequence the integrators make so the
// tests can assert the exact solve/burn/rewind ordering.
type fakeOperator struct {
	calls    []string
	state    int // incremented by Burn, rewound by Restore
	solveErr error
	burnErr  error
}

func (f *fakeOperator) Solve(ctx context.Context) (statepoint.KEffective, error) {
	f.calls = append(f.calls, "solve")
	if f.solveErr != nil {
		return statepoint.KEffective{}, f.solveErr
	}
	// Derive k from the composition state so results reflect burnup.
	return statepoint.KEffective{Value: 1.2 - 0.01*float64(f.state), StdDev: 0.001}, nil
}

func (f *fakeOperator) Burn(ctx context.Context, dtSeconds, powerWatts float64) error {
	f.calls = append(f.calls, fmt.Sprintf("burn(%g,%g)", dtSeconds, powerWatts))
	if f.burnErr != nil {
		return f.burnErr
	}
	f.state++
	return nil
}

func (f *fakeOperator) Snapshot() ([]byte, error) {
	f.calls = append(f.calls, "snapshot")
	return []byte{byte(f.state)}, nil
}

func (f *fakeOperator) Restore(state []byte) error {
	f.calls = append(f.calls, "restore")
	f.state = int(state[0])
	return nil
}

// TestParseMethod verifies method parsing, including case
// normalization and the error case.
func TestParseMethod(t *testing.T) {
	tests := []struct {
		input    string
		expected Method
		hasError bool
	}{
		{"cecm", MethodCECM, false},
		{"predictor", MethodPredictor, false},
		{"CECM", MethodCECM, false}, // case insensitive
		{"euler", "", true},
		{"", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			result, err := ParseMethod(tt.input)
			if tt.hasError {
				assert.Error(t, err)
			} else {
				require.NoError(t, err)
				assert.Equal(t, tt.expected, result)
			}
		})
	}
}

// TestPredictor_CallSequence verifies the explicit Euler sequencing:
// one solve and one full-step burn per timestep, plus the end-of-life
// solve.
func TestPredictor_CallSequence(t *testing.T) {
	op := &fakeOperator{}
	s := &Schedule{Timesteps: []float64{100, 200}, Power: PowerSchedule{50}}

	steps, err := Predictor(context.Background(), op, s)
	require.NoError(t, err)

	assert.Equal(t, []string{
		"solve", "burn(100,50)",
		"solve", "burn(200,50)",
		"solve",
	}, op.calls)

	require.Len(t, steps, 3)
	assert.Equal(t, 0, steps[0].Step)
	assert.Equal(t, 0.0, steps[0].TimeSeconds)
	assert.Equal(t, 100.0, steps[1].TimeSeconds)
	assert.Equal(t, 2, steps[2].Step)
	assert.Equal(t, 300.0, steps[2].TimeSeconds)
	assert.Zero(t, steps[2].PowerWatts)
}

// TestCECM_CallSequence verifies the CE/CM sequencing: per step a
// beginning-of-step solve, a snapshot, a half-step burn, a midpoint
// solve, a rewind, and the full-step corrector burn.
func TestCECM_CallSequence(t *testing.T) {
	op := &fakeOperator{}
	s := &Schedule{Timesteps: []float64{100}, Power: PowerSchedule{50}}

	steps, err := CECM(context.Background(), op, s)
	require.NoError(t, err)

	assert.Equal(t, []string{
		"solve", "snapshot", "burn(50,50)", "solve", "restore", "burn(100,50)",
		"solve",
	}, op.calls)

	require.Len(t, steps, 2)
	assert.Equal(t, 0, steps[0].Step)
	assert.Equal(t, 1, steps[1].Step)
	assert.Equal(t, 100.0, steps[1].TimeSeconds)

	// The rewind means only the corrector burns advance the state: one
	// composition update per timestep.
	assert.Equal(t, 1, op.state)
}

// TestCECM_PerStepPower verifies per-timestep power resolution reaches
// both the midpoint and corrector burns.
func TestCECM_PerStepPower(t *testing.T) {
	op := &fakeOperator{}
	s := &Schedule{Timesteps: []float64{100, 100}, Power: PowerSchedule{80, 0}}

	_, err := CECM(context.Background(), op, s)
	require.NoError(t, err)

	assert.Contains(t, op.calls, "burn(50,80)")
	assert.Contains(t, op.calls, "burn(100,80)")
	assert.Contains(t, op.calls, "burn(50,0)")
	assert.Contains(t, op.calls, "burn(100,0)")
}

// TestIntegrate verifies dispatch, schedule validation, and the
// assembled results.
func TestIntegrate(t *testing.T) {
	op := &fakeOperator{}
	s := &Schedule{Timesteps: []float64{100}, Power: PowerSchedule{50}}

	results, err := Integrate(context.Background(), MethodPredictor, op, s, "chain.xml")
	require.NoError(t, err)

	assert.Equal(t, MethodPredictor, results.Method)
	assert.Equal(t, "chain.xml", results.ChainFile)
	assert.Len(t, results.Steps, 2)

	_, err = Integrate(context.Background(), Method("euler"), op, s, "chain.xml")
	assert.Error(t, err)

	_, err = Integrate(context.Background(), MethodCECM, op, &Schedule{}, "chain.xml")
	assert.Error(t, err)
}

// TestIntegrate_OperatorErrors verifies solver failures are surfaced
// with their step context.
func TestIntegrate_OperatorErrors(t *testing.T) {
	s := &Schedule{Timesteps: []float64{100}, Power: PowerSchedule{50}}

	op := &fakeOperator{solveErr: fmt.Errorf("boom")}
	_, err := Integrate(context.Background(), MethodCECM, op, s, "chain.xml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "step 0")

	op = &fakeOperator{burnErr: fmt.Errorf("boom")}
	_, err = Integrate(context.Background(), MethodPredictor, op, s, "chain.xml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "step 0")
}

// TestResults_WriteFile verifies the history file round-trips through
// JSON.
func TestResults_WriteFile(t *testing.T) {
	dir := t.TempDir()
	results := &Results{
		Method:    MethodCECM,
		ChainFile: "chain.xml",
		Steps: []StepResult{
			{Step: 0, TimeSeconds: 0, PowerWatts: 50, K: statepoint.KEffective{Value: 1.2, StdDev: 0.001}},
			{Step: 1, TimeSeconds: 100, K: statepoint.KEffective{Value: 1.19, StdDev: 0.001}},
		},
	}

	require.NoError(t, results.WriteFile(dir))

	data, err := os.ReadFile(filepath.Join(dir, ResultsFileName))
	require.NoError(t, err)

	var got Results
	require.NoError(t, json.Unmarshal(data, &got))
	assert.Equal(t, results, &got)
}
