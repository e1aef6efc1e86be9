package errors

import (
	"fmt"

	crdb "github.com/cockroachdb/errors"
)

// Exit codes for CLI applications.
const (
	// ExitSuccess indicates the command completed successfully.
	ExitSuccess = 0

	// ExitUser indicates a user-related error (invalid input, unknown pid, etc.).
	ExitUser = 1

	// ExitSystem indicates a system-related error (spawn, ports, permissions, etc.).
	ExitSystem = 2
)

// Sentinel errors for common failure conditions.
var (
	// ErrNotFound indicates the requested resource was not found.
	ErrNotFound = crdb.New("resource not found")

	// ErrInvalidConfig indicates configuration validation failed.
	ErrInvalidConfig = crdb.New("invalid configuration")

	// ErrServerNotFound indicates the named server is not in the servers config.
	ErrServerNotFound = crdb.New("server not found in configuration")

	// ErrPortExhausted indicates no free port was found in the bounded probe range.
	ErrPortExhausted = crdb.New("no available port")

	// ErrSpawn indicates the OS failed to create the child process.
	ErrSpawn = crdb.New("failed to start process")

	// ErrProcessNotFound indicates the target pid has no live OS process.
	ErrProcessNotFound = crdb.New("process not found")

	// ErrPermissionDenied indicates the OS refused to deliver a signal.
	ErrPermissionDenied = crdb.New("permission denied")

	// ErrCorruptRegistry indicates the persisted registry could not be parsed.
	ErrCorruptRegistry = crdb.New("process registry is corrupt")
)

// Re-exported helpers so callers only import this package.
var (
	New          = crdb.New
	Newf         = crdb.Newf
	Wrap         = crdb.Wrap
	Wrapf        = crdb.Wrapf
	Is           = crdb.Is
	As           = crdb.As
	Mark         = crdb.Mark
	WithHint     = crdb.WithHint
	WithHintf    = crdb.WithHintf
	FlattenHints = crdb.FlattenHints
	Join         = crdb.Join
)

// ExitError wraps an error with an exit code and optional suggestion for CLI applications.
// It implements the error interface and supports unwrapping via errors.Unwrap.
type ExitError struct {
	// Err is the underlying error that caused the exit.
	Err error

	// Code is the exit code to return to the operating system.
	Code int

	// Suggestion is an optional actionable suggestion for the user.
	Suggestion string
}

// NewExitError creates an ExitError with the given underlying error and exit code.
// If err is nil, the returned ExitError will have a nil Err field.
func NewExitError(err error, code int) *ExitError {
	return &ExitError{
		Err:  err,
		Code: code,
	}
}

// NewUserError creates an ExitError with ExitUser code and a suggestion.
func NewUserError(err error, suggestion string) *ExitError {
	return &ExitError{
		Err:        err,
		Code:       ExitUser,
		Suggestion: suggestion,
	}
}

// NewSystemError creates an ExitError with ExitSystem code and a suggestion.
func NewSystemError(err error, suggestion string) *ExitError {
	return &ExitError{
		Err:        err,
		Code:       ExitSystem,
		Suggestion: suggestion,
	}
}

// NewConfigError creates an ExitError with ExitUser code and a standard suggestion.
func NewConfigError(err error) *ExitError {
	return &ExitError{
		Err:        err,
		Code:       ExitUser,
		Suggestion: "Check ~/.config/mcphub/config.yaml or run: mcphub config",
	}
}

// FromError classifies err into an ExitError using the process-management
// taxonomy. An error that already carries an ExitError is returned as is.
func FromError(err error) *ExitError {
	if err == nil {
		return nil
	}

	var exitErr *ExitError
	if crdb.As(err, &exitErr) {
		return exitErr
	}

	switch {
	case crdb.Is(err, ErrProcessNotFound):
		return NewUserError(err, "Use 'mcphub ps' to see running MCP servers")
	case crdb.Is(err, ErrServerNotFound):
		return NewUserError(err, "Use 'mcphub list' to see available servers")
	case crdb.Is(err, ErrPermissionDenied):
		return NewSystemError(err, "Try running with sudo if you have permission")
	case crdb.Is(err, ErrCorruptRegistry):
		return NewSystemError(err, "Inspect or move the registry file aside; it is never reset automatically")
	case crdb.Is(err, ErrPortExhausted):
		return NewSystemError(err, "Free a port or pass --port explicitly")
	case crdb.Is(err, ErrSpawn):
		return NewSystemError(err, "Check that the server command is installed and on PATH")
	case crdb.Is(err, ErrInvalidConfig):
		return NewConfigError(err)
	default:
		return NewExitError(err, ExitUser)
	}
}

// Error returns the error message from the underlying error.
// If the underlying error is nil, it returns a generic message with the exit code.
func (e *ExitError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("exit code %d", e.Code)
	}
	return e.Err.Error()
}

// Unwrap returns the underlying error, enabling errors.Is and errors.As
// to examine the error chain.
func (e *ExitError) Unwrap() error {
	return e.Err
}
