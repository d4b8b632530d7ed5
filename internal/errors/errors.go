// Package errors provides structured error types for packlint.
package errors

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Code represents a unique error code.
type Code string

// Error codes for packlint.
const (
	// Configuration errors
	CodeConfigInvalid Code = "CONFIG_INVALID"
	CodeConfigMissing Code = "CONFIG_MISSING"

	// Layout errors
	CodeLayoutInvalid Code = "LAYOUT_INVALID"

	// Build plan errors
	CodePlanUnreadable Code = "PLAN_UNREADABLE"
	CodePlanInvalid    Code = "PLAN_INVALID"

	// Validator errors
	CodeNoValidators     Code = "NO_VALIDATORS"
	CodeValidationFailed Code = "VALIDATION_FAILED"

	// State store errors
	CodeStateUnavailable Code = "STATE_UNAVAILABLE"
)

// Category groups error codes for exit status mapping.
type Category int

const (
	CategoryUnknown Category = iota
	CategoryUsage
	CategoryValidation
	CategoryInternal
)

// codeCategories maps error codes to their categories.
var codeCategories = map[Code]Category{
	CodeConfigInvalid:    CategoryUsage,
	CodeConfigMissing:    CategoryUsage,
	CodeLayoutInvalid:    CategoryUsage,
	CodePlanUnreadable:   CategoryUsage,
	CodePlanInvalid:      CategoryUsage,
	CodeNoValidators:     CategoryUsage,
	CodeValidationFailed: CategoryValidation,
	CodeStateUnavailable: CategoryInternal,
}

// ExitCode returns the process exit code for a category.
func (c Category) ExitCode() int {
	switch c {
	case CategoryValidation:
		return 1
	case CategoryUsage:
		return 2
	default:
		return 2
	}
}

// LintError is the structured error type for packlint.
type LintError struct {
	Code    Code   `json:"code"`
	What    string `json:"what"`
	Why     string `json:"why,omitempty"`
	Fix     string `json:"fix,omitempty"`
	DocsURL string `json:"docs_url,omitempty"`
	Cause   error  `json:"-"`
}

// Error implements the error interface.
func (e *LintError) Error() string {
	var b strings.Builder
	b.WriteString(e.What)
	if e.Why != "" {
		b.WriteString(": ")
		b.WriteString(e.Why)
	}
	if e.Cause != nil {
		b.WriteString(": ")
		b.WriteString(e.Cause.Error())
	}
	return b.String()
}

// Unwrap returns the underlying cause.
func (e *LintError) Unwrap() error {
	return e.Cause
}

// UserMessage returns a user-friendly message for CLI output.
func (e *LintError) UserMessage() string {
	var b strings.Builder
	b.WriteString("Error: ")
	b.WriteString(e.What)
	if e.Why != "" {
		b.WriteString("\n\nWhy: ")
		b.WriteString(e.Why)
	}
	if e.Fix != "" {
		b.WriteString("\n\nFix: ")
		b.WriteString(e.Fix)
	}
	if e.DocsURL != "" {
		b.WriteString("\n\nDocs: ")
		b.WriteString(e.DocsURL)
	}
	return b.String()
}

// Category returns the error category for exit status mapping.
func (e *LintError) Category() Category {
	if cat, ok := codeCategories[e.Code]; ok {
		return cat
	}
	return CategoryUnknown
}

// ExitCode returns the appropriate process exit code for this error.
func (e *LintError) ExitCode() int {
	return e.Category().ExitCode()
}

// MarshalJSON implements json.Marshaler.
func (e *LintError) MarshalJSON() ([]byte, error) {
	type alias LintError
	aux := struct {
		*alias
		CauseMsg string `json:"cause,omitempty"`
	}{
		alias: (*alias)(e),
	}
	if e.Cause != nil {
		aux.CauseMsg = e.Cause.Error()
	}
	return json.Marshal(aux)
}

// Is reports whether target is a LintError with the same code.
func (e *LintError) Is(target error) bool {
	t, ok := target.(*LintError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// WithCause returns a copy of the error with the given cause.
func (e *LintError) WithCause(err error) *LintError {
	return &LintError{
		Code:    e.Code,
		What:    e.What,
		Why:     e.Why,
		Fix:     e.Fix,
		DocsURL: e.DocsURL,
		Cause:   err,
	}
}

// --- Error constructors ---

// ErrConfigInvalid returns an error for invalid configuration.
func ErrConfigInvalid(field, reason string) *LintError {
	return &LintError{
		Code:    CodeConfigInvalid,
		What:    fmt.Sprintf("invalid configuration: %s", field),
		Why:     reason,
		Fix:     "Check .packlint/config.yaml and fix the invalid field",
		DocsURL: "https://github.com/randalmurphal/packlint#configuration",
	}
}

// ErrConfigMissing returns an error for missing configuration.
func ErrConfigMissing(field string) *LintError {
	return &LintError{
		Code:    CodeConfigMissing,
		What:    fmt.Sprintf("missing required configuration: %s", field),
		Why:     "This field is required but not set in configuration",
		Fix:     fmt.Sprintf("Add '%s' to .packlint/config.yaml", field),
		DocsURL: "https://github.com/randalmurphal/packlint#configuration",
	}
}

// ErrBadExcludePattern returns an error for a malformed exclude glob.
func ErrBadExcludePattern(pattern string) *LintError {
	return &LintError{
		Code:    CodeConfigInvalid,
		What:    fmt.Sprintf("invalid exclude pattern '%s'", pattern),
		Why:     "The pattern is not a valid glob expression",
		Fix:     "Fix the pattern in the excludes list; see doublestar syntax for ** and {a,b} forms",
		DocsURL: "https://github.com/randalmurphal/packlint#excludes",
	}
}

// ErrUnknownValidator returns an error for a validator ID with no registration.
func ErrUnknownValidator(id string) *LintError {
	return &LintError{
		Code:    CodeConfigInvalid,
		What:    fmt.Sprintf("unknown validator '%s'", id),
		Why:     "The validators section names an ID that is not registered",
		Fix:     "Run 'packlint validators' to list registered validator IDs",
		DocsURL: "https://github.com/randalmurphal/packlint#validators",
	}
}

// ErrLayoutInvalid returns an error when no package roots exist.
func ErrLayoutInvalid(base string) *LintError {
	return &LintError{
		Code:    CodeLayoutInvalid,
		What:    "no content package roots found",
		Why:     fmt.Sprintf("None of the configured metadata or content directories exist under %s", base),
		Fix:     "Run packlint from the package project root, or set metadata_dirs/content_dirs in config",
		DocsURL: "https://github.com/randalmurphal/packlint#project-layout",
	}
}

// ErrPlanUnreadable returns an error when the build plan file cannot be read.
func ErrPlanUnreadable(path string) *LintError {
	return &LintError{
		Code:    CodePlanUnreadable,
		What:    fmt.Sprintf("cannot read build plan %s", path),
		Why:     "The pipeline file is missing or unreadable",
		Fix:     "Check the pipeline_file path in config, or unset it to disable plan-based skipping",
		DocsURL: "https://github.com/randalmurphal/packlint#build-plans",
	}
}

// ErrPlanInvalid returns an error for a malformed build plan.
func ErrPlanInvalid(path, reason string) *LintError {
	return &LintError{
		Code:    CodePlanInvalid,
		What:    fmt.Sprintf("invalid build plan %s", path),
		Why:     reason,
		Fix:     "Fix the plan file; every step needs component+task or a resolvable goal ref",
		DocsURL: "https://github.com/randalmurphal/packlint#build-plans",
	}
}

// ErrNoValidators returns an error when the validator chain is empty.
func ErrNoValidators() *LintError {
	return &LintError{
		Code:    CodeNoValidators,
		What:    "no registered validators found",
		Why:     "Every validator is disabled in configuration, so validation would silently check nothing",
		Fix:     "Enable at least one validator in the validators section of .packlint/config.yaml",
		DocsURL: "https://github.com/randalmurphal/packlint#validators",
	}
}

// ErrValidationFailed returns an error when finalize crosses the failure threshold.
func ErrValidationFailed(errorCount, warningCount int, failOnWarnings bool) *LintError {
	why := fmt.Sprintf("Found %d error(s) and %d warning(s)", errorCount, warningCount)
	if failOnWarnings && errorCount == 0 {
		why += " (warnings fail the build because fail_on_warnings is set)"
	}
	return &LintError{
		Code:    CodeValidationFailed,
		What:    "validation failed",
		Why:     why,
		Fix:     "Fix the reported violations, or adjust validator settings if a finding is intentional",
		DocsURL: "https://github.com/randalmurphal/packlint#violations",
	}
}

// ErrStateUnavailable returns an error when the run store cannot be opened.
func ErrStateUnavailable(path string) *LintError {
	return &LintError{
		Code:    CodeStateUnavailable,
		What:    fmt.Sprintf("cannot open state database %s", path),
		Why:     "The sqlite store could not be opened or migrated",
		Fix:     "Check permissions on .packlint/, or disable state in config; validation runs without it",
		DocsURL: "https://github.com/randalmurphal/packlint#state",
	}
}

// AsLintError attempts to convert an error to a LintError.
// Returns nil if the error is not a LintError.
func AsLintError(err error) *LintError {
	var lintErr *LintError
	if As(err, &lintErr) {
		return lintErr
	}
	return nil
}

// As is a convenience wrapper for errors.As.
func As(err error, target any) bool {
	return asError(err, target)
}

// asError implements errors.As behavior.
func asError(err error, target any) bool {
	if err == nil {
		return false
	}
	if lintErr, ok := err.(*LintError); ok {
		if t, ok := target.(**LintError); ok {
			*t = lintErr
			return true
		}
	}
	// Check unwrapped error
	if unwrapper, ok := err.(interface{ Unwrap() error }); ok {
		return asError(unwrapper.Unwrap(), target)
	}
	return false
}

// Wrap wraps a generic error into a LintError with unknown code.
func Wrap(err error, what string) *LintError {
	return &LintError{
		Code:  Code("UNKNOWN"),
		What:  what,
		Cause: err,
	}
}
