package solver

import (
	"context"
	"fmt"
	"io"
	"os/exec"
	"strconv"
	"strings"
)

// Runner executes the transport solver against a model directory that
// already contains the exported XML input suite. Implementations must
// leave the files the solver produced in that directory.
type Runner interface {
	// Run blocks until the solver exits. With no args the solver
	// performs a transport run and writes statepoint files; subcommand
	// args (e.g. a depletion step) are passed through verbatim. A
	// non-nil error means the solver did not complete; the model
	// directory may then hold partial output.
	Run(ctx context.Context, dir string, args ...string) error
}

// ExecRunner runs the solver binary as a local subprocess.
type ExecRunner struct {
	// Config supplies the executable name, thread count, and
	// cross-section environment.
	Config *Config

	// Output receives the solver's stdout when non-nil. Stderr is
	// always captured separately for error reporting.
	Output io.Writer
}

// NewExecRunner creates an ExecRunner over the given configuration.
func NewExecRunner(cfg *Config) *ExecRunner {
	return &ExecRunner{Config: cfg}
}

// Run invokes the solver executable with the model directory as its
// working directory.
//
// Stderr is captured and folded into the returned error so a failing
// run surfaces the solver's own diagnostics. exec.CommandContext ties
// the child process lifetime to ctx: cancellation kills the solver.
func (r *ExecRunner) Run(ctx context.Context, dir string, args ...string) error {
	full := make([]string, 0, len(args)+2)
	full = append(full, args...)
	if r.Config.Threads > 0 {
		full = append(full, "-s", strconv.Itoa(r.Config.Threads))
	}

	// #nosec G204: the executable comes from the solver configuration,
	// not from model input
	cmd := exec.CommandContext(ctx, r.Config.Executable, full...)
	cmd.Dir = dir

	// Pass the cross-section location through without requiring the
	// caller to have exported it under the solver's own variable name.
	if r.Config.CrossSections != "" {
		cmd.Env = append(cmd.Environ(), "FLUX_CROSS_SECTIONS="+r.Config.CrossSections)
	}

	var stderr strings.Builder
	cmd.Stderr = &stderr
	if r.Output != nil {
		cmd.Stdout = r.Output
	}

	if err := cmd.Run(); err != nil {
		msg := fmt.Sprintf("solver %s failed", r.Config.Executable)
		if s := strings.TrimSpace(stderr.String()); s != "" {
			msg = fmt.Sprintf("%s: %s", msg, s)
		}
		return fmt.Errorf("%s: %w", msg, err)
	}
	return nil
}
