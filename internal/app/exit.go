package app

import (
	"errors"

	"github.com/flarebyte/shiftlog/internal/export"
	"github.com/flarebyte/shiftlog/internal/form"
)

// Process exit codes.
const (
	ExitOK       = 0
	ExitExecErr  = 1
	ExitDeclined = 2
	ExitRejected = 3
)

// ExitError carries a specific exit code through cobra.
type ExitError struct {
	Code int
	Err  error
}

func (e ExitError) Error() string { return e.Err.Error() }
func (e ExitError) ExitCode() int { return e.Code }
func (e ExitError) Unwrap() error { return e.Err }

// ClassifyExit maps domain errors to their exit code.
func ClassifyExit(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, export.ErrNotConfirmed):
		return ExitError{Code: ExitDeclined, Err: err}
	case errors.Is(err, form.ErrRejected), errors.Is(err, form.ErrMissingEmployee):
		return ExitError{Code: ExitRejected, Err: err}
	default:
		return err
	}
}
