// Package solver invokes the external transport solver over an
// exported model directory.
//
// The solver itself is a black box: it consumes the XML input suite
// (geometry.xml, materials.xml, settings.xml, ...) from its working
// directory and emits statepoint files. This package provides two ways
// to run it — a local executable and a containerized image via the
// Docker Engine API — behind one Runner interface, plus the
// environment-driven configuration both share.
package solver

import (
	"fmt"

	"github.com/caarlos0/env/v11"
)

// Config is the solver environment contract. Every knob comes from a
// FLUX_* environment variable so models stay portable across machines:
// the model directory describes the physics, the environment describes
// the installation.
type Config struct {
	// Executable is the solver binary invoked by the exec runner.
	Executable string `env:"FLUX_SOLVER" envDefault:"flux-solver"`

	// Image is the solver container image used by the Docker runner.
	Image string `env:"FLUX_SOLVER_IMAGE" envDefault:"fluxproject/solver:latest"`

	// ChainFile is the default depletion chain file consulted when a
	// depletion run does not name one explicitly.
	ChainFile string `env:"FLUX_CHAIN_FILE"`

	// CrossSections is the continuous-energy cross-section directory
	// passed through to the solver process.
	CrossSections string `env:"FLUX_CROSS_SECTIONS"`

	// Threads is the solver thread count. Zero lets the solver decide.
	Threads int `env:"FLUX_THREADS"`
}

// LoadConfig resolves the solver configuration from the process
// environment.
func LoadConfig() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse solver environment: %w", err)
	}
	if cfg.Threads < 0 {
		return nil, fmt.Errorf("FLUX_THREADS must be non-negative, got %d", cfg.Threads)
	}
	return cfg, nil
}
