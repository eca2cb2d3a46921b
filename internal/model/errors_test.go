package model

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestCLIError_Error verifies message formatting with and without an
// underlying error.
func TestCLIError_Error(t *testing.T) {
	plain := NewCLIError(ExitModelInvalid, "model validation failed")
	assert.Equal(t, "model validation failed", plain.Error())

	wrapped := WrapCLIError(ExitSolverFailed, "solver run failed", fmt.Errorf("exit status 1"))
	assert.Equal(t, "solver run failed: exit status 1", wrapped.Error())
}

// TestCLIError_Unwrap verifies errors.Is sees through the wrapper.
func TestCLIError_Unwrap(t *testing.T) {
	underlying := fmt.Errorf("boom")
	wrapped := WrapCLIError(ExitGeneralError, "context", underlying)

	assert.True(t, errors.Is(wrapped, underlying))
	assert.Nil(t, NewCLIError(ExitGeneralError, "no cause").Unwrap())
}

// TestCLIError_As verifies the exit code is recoverable from a wrapped
// error chain, which is how the CLI maps failures to exit statuses.
func TestCLIError_As(t *testing.T) {
	err := fmt.Errorf("outer: %w", WrapCLIError(ExitStatepointError, "failed to read run results", fmt.Errorf("bad magic")))

	var cliErr *CLIError
	require.True(t, errors.As(err, &cliErr))
	assert.Equal(t, ExitStatepointError, cliErr.Code)
}

// TestExitCodes pins the published exit code values.
func TestExitCodes(t *testing.T) {
	assert.Equal(t, 0, int(ExitSuccess))
	assert.Equal(t, 1, int(ExitGeneralError))
	assert.Equal(t, 2, int(ExitModelInvalid))
	assert.Equal(t, 3, int(ExitSolverUnavailable))
	assert.Equal(t, 4, int(ExitSolverFailed))
	assert.Equal(t, 5, int(ExitStatepointError))
	assert.Equal(t, 6, int(ExitDepletionError))
}
