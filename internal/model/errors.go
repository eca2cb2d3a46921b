package model

import "fmt"

// ExitCode defines the CLI exit codes. Scripts and CI pipelines use
// these to determine programmatically how a command ended.
type ExitCode int

const (
	// ExitSuccess indicates the command completed successfully.
	ExitSuccess ExitCode = 0

	// ExitGeneralError indicates an unspecified error occurred.
	ExitGeneralError ExitCode = 1

	// ExitModelInvalid indicates the model file was not found or
	// failed validation.
	ExitModelInvalid ExitCode = 2

	// ExitSolverUnavailable indicates the solver binary or Docker
	// daemon could not be reached.
	ExitSolverUnavailable ExitCode = 3

	// ExitSolverFailed indicates the solver started but did not
	// complete successfully.
	ExitSolverFailed ExitCode = 4

	// ExitStatepointError indicates the expected statepoint file was
	// missing or corrupt after a run.
	ExitStatepointError ExitCode = 5

	// ExitDepletionError indicates an invalid depletion schedule,
	// method, or chain file.
	ExitDepletionError ExitCode = 6
)

// CLIError is an error that carries an exit code, letting the CLI
// layer translate domain failures into proper process exit statuses.
type CLIError struct {
	// Code is the exit code to return to the OS.
	Code ExitCode

	// Message is the human-readable error description.
	Message string

	// Err is the underlying error, if any.
	Err error
}

// Error satisfies the error interface, including the underlying error
// when present.
func (e *CLIError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the underlying error for errors.Is/errors.As.
func (e *CLIError) Unwrap() error {
	return e.Err
}

// NewCLIError creates a CLIError with the given exit code and message.
func NewCLIError(code ExitCode, message string) *CLIError {
	return &CLIError{Code: code, Message: message}
}

// WrapCLIError creates a CLIError that wraps an existing error.
func WrapCLIError(code ExitCode, message string, err error) *CLIError {
	return &CLIError{Code: code, Message: message, Err: err}
}
