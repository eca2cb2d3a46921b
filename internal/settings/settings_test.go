package settings

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestParseRunMode verifies string-to-mode conversion, including case
// normalization and error cases.
func TestParseRunMode(t *testing.T) {
	tests := []struct {
		input    string
		expected RunMode
		hasError bool
	}{
		{"eigenvalue", ModeEigenvalue, false},
		{"fixed source", ModeFixedSource, false},
		{"Eigenvalue", ModeEigenvalue, false}, // case insensitive
		{"fixed-source", "", true},            // hyphen is not accepted
		{"", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			result, err := ParseRunMode(tt.input)
			if tt.hasError {
				assert.Error(t, err)
			} else {
				require.NoError(t, err)
				assert.Equal(t, tt.expected, result)
			}
		})
	}
}

// TestSettings_Validate checks batch and particle ranges, mode values,
// verbosity bounds, and the statepoint schedule ordering rules.
func TestSettings_Validate(t *testing.T) {
	valid := Settings{Batches: 10, Inactive: 5, Particles: 1000}

	tests := []struct {
		name     string
		mutate   func(s *Settings)
		hasError bool
	}{
		{"valid settings", func(s *Settings) {}, false},
		{"zero batches", func(s *Settings) { s.Batches = 0 }, true},
		{"zero particles", func(s *Settings) { s.Particles = 0 }, true},
		{"inactive equals batches", func(s *Settings) { s.Inactive = 10 }, true},
		{"negative inactive", func(s *Settings) { s.Inactive = -1 }, true},
		{"invalid run mode", func(s *Settings) { s.RunMode = "criticality" }, true},
		{"multi-group mode", func(s *Settings) { s.EnergyMode = EnergyMultiGroup }, false},
		{"invalid energy mode", func(s *Settings) { s.EnergyMode = "hybrid" }, true},
		{"verbosity too high", func(s *Settings) { s.Verbosity = 11 }, true},
		{"ascending statepoints", func(s *Settings) {
			s.Statepoint = &Statepoint{Batches: []int{5, 10}}
		}, false},
		{"unordered statepoints", func(s *Settings) {
			s.Statepoint = &Statepoint{Batches: []int{10, 5}}
		}, true},
		{"statepoint beyond batches", func(s *Settings) {
			s.Statepoint = &Statepoint{Batches: []int{15}}
		}, true},
		{"source box mismatch", func(s *Settings) {
			s.Source = &Source{LowerLeft: []float64{0, 0}, UpperRight: []float64{1, 1, 1}}
		}, true},
		{"inverted source box", func(s *Settings) {
			s.Source = &Source{LowerLeft: []float64{1, 0, 0}, UpperRight: []float64{0, 1, 1}}
		}, true},
		{"valid source box", func(s *Settings) {
			s.Source = &Source{LowerLeft: []float64{-1, -1, -1}, UpperRight: []float64{1, 1, 1}}
		}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := valid
			tt.mutate(&s)

			err := s.Validate()
			if tt.hasError {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

// TestSettings_FinalStatepointBatch verifies the batch selection for
// the statepoint a run reads its results from.
func TestSettings_FinalStatepointBatch(t *testing.T) {
	s := Settings{Batches: 10, Particles: 100}
	assert.Equal(t, 10, s.FinalStatepointBatch())

	s.Statepoint = &Statepoint{Batches: []int{3, 7}}
	assert.Equal(t, 7, s.FinalStatepointBatch())

	s.Statepoint = &Statepoint{}
	assert.Equal(t, 10, s.FinalStatepointBatch())
}

// TestSettings_ExportXML exercises serialization to settings.xml,
// including the eigenvalue default, the source box, and the statepoint
// schedule.
func TestSettings_ExportXML(t *testing.T) {
	dir := t.TempDir()
	s := Settings{
		Batches:   10,
		Inactive:  5,
		Particles: 1000,
		Seed:      1,
		Source: &Source{
			LowerLeft:       []float64{-0.63, -0.63, -1},
			UpperRight:      []float64{0.63, 0.63, 1},
			OnlyFissionable: true,
		},
		Statepoint: &Statepoint{Batches: []int{5, 10}},
	}

	require.NoError(t, s.ExportXML(dir))

	data, err := os.ReadFile(filepath.Join(dir, "settings.xml"))
	require.NoError(t, err)
	content := string(data)

	// Empty run mode is exported as the eigenvalue default.
	assert.Contains(t, content, "<run_mode>eigenvalue</run_mode>")
	assert.Contains(t, content, "<batches>10</batches>")
	assert.Contains(t, content, "<inactive>5</inactive>")
	assert.Contains(t, content, "<particles>1000</particles>")
	assert.Contains(t, content, "<seed>1</seed>")
	assert.Contains(t, content, `only_fissionable="true"`)
	assert.Contains(t, content, `type="box" lower_left="-0.63 -0.63 -1" upper_right="0.63 0.63 1"`)
	assert.Contains(t, content, `<state_point batches="5 10">`)
}
