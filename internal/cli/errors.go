// Package cli provides error handling utilities for CLI output.
package cli

import (
	stderrors "errors"
	"fmt"
	"os"

	packerrors "github.com/randalmurphal/packlint/internal/errors"
	"github.com/randalmurphal/packlint/internal/layout"
	"github.com/randalmurphal/packlint/internal/scanner"
	"github.com/randalmurphal/packlint/internal/validator"
)

// PrintError prints an error to stderr with appropriate formatting.
// If the error is a LintError, it uses the user-friendly format.
// Otherwise, it prints a simple error message.
func PrintError(err error) {
	if lintErr := packerrors.AsLintError(err); lintErr != nil {
		fmt.Fprintln(os.Stderr, lintErr.UserMessage())
		if verbose {
			// In verbose mode, also print the error code and cause
			fmt.Fprintf(os.Stderr, "\nCode: %s\n", lintErr.Code)
			if lintErr.Cause != nil {
				fmt.Fprintf(os.Stderr, "Cause: %v\n", lintErr.Cause)
			}
		}
		return
	}
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
}

// ExitCode maps an error to the process exit status: 0 clean, 1 validation
// failed, 2 everything else.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	if lintErr := packerrors.AsLintError(err); lintErr != nil {
		return lintErr.ExitCode()
	}
	return 2
}

// wrapRunError translates typed engine errors into their user-facing form.
// Errors without a known type pass through unchanged.
func wrapRunError(err error) error {
	if err == nil {
		return nil
	}

	var noRoots layout.ErrNoRoots
	if stderrors.As(err, &noRoots) {
		return packerrors.ErrLayoutInvalid(noRoots.Base).WithCause(err)
	}

	var badPattern scanner.BadPatternError
	if stderrors.As(err, &badPattern) {
		return packerrors.ErrBadExcludePattern(badPattern.Pattern).WithCause(err)
	}

	var unknown validator.UnknownValidatorError
	if stderrors.As(err, &unknown) {
		return packerrors.ErrUnknownValidator(unknown.ID).WithCause(err)
	}

	if stderrors.Is(err, validator.ErrNoValidators) {
		return packerrors.ErrNoValidators().WithCause(err)
	}

	return err
}
