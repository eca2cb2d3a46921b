package solver

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestLoadConfig_Defaults verifies the defaults used when no FLUX_*
// variables are set.
func TestLoadConfig_Defaults(t *testing.T) {
	t.Setenv("FLUX_SOLVER", "")
	t.Setenv("FLUX_SOLVER_IMAGE", "")
	t.Setenv("FLUX_CHAIN_FILE", "")
	t.Setenv("FLUX_CROSS_SECTIONS", "")
	t.Setenv("FLUX_THREADS", "")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "flux-solver", cfg.Executable)
	assert.Equal(t, "fluxproject/solver:latest", cfg.Image)
	assert.Empty(t, cfg.ChainFile)
	assert.Zero(t, cfg.Threads)
}

// TestLoadConfig_FromEnvironment verifies every variable is picked up.
func TestLoadConfig_FromEnvironment(t *testing.T) {
	t.Setenv("FLUX_SOLVER", "/opt/solver/bin/solver")
	t.Setenv("FLUX_SOLVER_IMAGE", "example.com/solver:v2")
	t.Setenv("FLUX_CHAIN_FILE", "/data/chain_endfb71.xml")
	t.Setenv("FLUX_CROSS_SECTIONS", "/data/endfb71_hdf5")
	t.Setenv("FLUX_THREADS", "8")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "/opt/solver/bin/solver", cfg.Executable)
	assert.Equal(t, "example.com/solver:v2", cfg.Image)
	assert.Equal(t, "/data/chain_endfb71.xml", cfg.ChainFile)
	assert.Equal(t, "/data/endfb71_hdf5", cfg.CrossSections)
	assert.Equal(t, 8, cfg.Threads)
}

// TestLoadConfig_Invalid covers unparsable and out-of-range values.
func TestLoadConfig_Invalid(t *testing.T) {
	t.Setenv("FLUX_THREADS", "lots")
	_, err := LoadConfig()
	assert.Error(t, err)

	t.Setenv("FLUX_THREADS", "-2")
	_, err = LoadConfig()
	assert.Error(t, err)
}

// TestExecRunner_MissingExecutable verifies that a solver binary that
// cannot be started surfaces as an error naming the executable.
func TestExecRunner_MissingExecutable(t *testing.T) {
	r := NewExecRunner(&Config{Executable: "flux-solver-that-does-not-exist"})

	err := r.Run(context.Background(), t.TempDir())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "flux-solver-that-does-not-exist")
}
