package cli

import (
	"errors"
	"fmt"
)

// errHistoryDisabled is returned by history commands when history.enabled is false.
var errHistoryDisabled = errors.New("session history is disabled (set history.enabled or REHEARSE_HISTORY_ENABLED)")

// ExitError carries a non-zero exit code out of a Cobra RunE function.
//
// Commands report their failure on the [output.Printer] and then return
// NewExitError(code). [RunWithConfig] extracts the code with [IsExitError],
// and only [Execute] calls os.Exit, so tests can assert on exit codes.
type ExitError struct {
	// Code is the exit code to return to the shell.
	// 1 = command failure, 2 = invalid input.
	Code int
}

// Error returns "exit status N", matching os/exec.
func (e *ExitError) Error() string {
	return fmt.Sprintf("exit status %d", e.Code)
}

// NewExitError creates an [ExitError] with the given exit code.
func NewExitError(code int) *ExitError {
	return &ExitError{Code: code}
}

// IsExitError reports whether err is an [ExitError] and returns its code.
// It returns (0, false) for nil and for any other error.
func IsExitError(err error) (int, bool) {
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code, true
	}
	return 0, false
}

// fail prints err and returns the matching exit error.
func (app *App) fail(code int, err error) error {
	app.Printer.PrintError(err)
	return NewExitError(code)
}
