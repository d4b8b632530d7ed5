// Package validator implements the pluggable validation chain.
//
// A validator registers an ID and one or more capabilities: metadata file
// validation, content file validation, folder validation, and completion
// checks that run once after every root has been scanned. The executor
// fans a resource out to every enabled validator with the matching
// capability and aggregates violations. One validator failing never stops
// the chain; its failure is recorded as an error-severity violation and
// the remaining validators still run.
package validator

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sort"

	"github.com/randalmurphal/packlint/internal/layout"
	"github.com/randalmurphal/packlint/internal/scanner"
)

// Severity grades a violation.
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
	SeverityInfo    Severity = "info"
)

// ParseSeverity converts a config string to a Severity.
func ParseSeverity(s string) (Severity, error) {
	switch Severity(s) {
	case SeverityError, SeverityWarning, SeverityInfo:
		return Severity(s), nil
	}
	return "", fmt.Errorf("unknown severity %q (want error, warning or info)", s)
}

// Rank orders severities: error > warning > info.
func (s Severity) Rank() int {
	switch s {
	case SeverityError:
		return 3
	case SeverityWarning:
		return 2
	case SeverityInfo:
		return 1
	}
	return 0
}

// Violation is one finding against one resource.
type Violation struct {
	// Path is the project-relative slash path of the resource.
	Path string `json:"path"`
	// Validator is the ID of the validator that emitted the finding.
	Validator string   `json:"validator"`
	Severity  Severity `json:"severity"`
	Message   string   `json:"message"`
}

// Resource is one scanned entry bound to its root.
type Resource struct {
	Root layout.Root
	// Rel is the slash path relative to the root.
	Rel  string
	Kind scanner.Kind
}

// Display returns the project-relative slash path of the resource.
func (r Resource) Display() string {
	return r.Root.DisplayPath(r.Rel)
}

// Validator is the base interface all validators implement. Capabilities
// are separate interfaces the executor type-asserts.
type Validator interface {
	ID() string
}

// MetadataValidator validates files under a metadata root.
type MetadataValidator interface {
	Validator
	ValidateMetadata(ctx context.Context, res Resource, r io.Reader) ([]Violation, error)
}

// ContentValidator validates files under the content root.
type ContentValidator interface {
	Validator
	ValidateContent(ctx context.Context, res Resource, r io.Reader) ([]Violation, error)
}

// FolderValidator validates directories in either area.
type FolderValidator interface {
	Validator
	ValidateFolder(ctx context.Context, res Resource) ([]Violation, error)
}

// CompletionValidator runs once after all roots have been scanned, for
// checks that need the whole picture (required files, coverage).
type CompletionValidator interface {
	Validator
	Complete(ctx context.Context) ([]Violation, error)
}

// ErrNoValidators means configuration disabled every validator. Running
// with an empty chain would report success while checking nothing, so
// the executor refuses to start.
var ErrNoValidators = errors.New("no registered validators found")

// UnknownValidatorError reports a settings key with no registration.
type UnknownValidatorError struct {
	ID string
}

func (e UnknownValidatorError) Error() string {
	return fmt.Sprintf("unknown validator %q", e.ID)
}

// Setting configures one validator.
type Setting struct {
	Enabled bool
	// Severity overrides the validator's default severity when set.
	Severity Severity
}

// Options maps validator IDs to settings. IDs absent from the map run
// with their defaults.
type Options map[string]Setting

// deps is what a validator factory receives.
type deps struct {
	log      *slog.Logger
	layout   *layout.Layout
	severity Severity // override, zero means validator default
}

type factory func(d deps) Validator

// registry holds the built-in validators.
var registry = map[string]factory{
	"properties": newPropertiesValidator,
	"filter":     newFilterValidator,
	"names":      newNamesValidator,
	"xmlwf":      newXMLValidator,
	"jsonwf":     newJSONValidator,
}

// IDs returns the registered validator IDs, sorted.
func IDs() []string {
	ids := make([]string, 0, len(registry))
	for id := range registry {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Executor drives the enabled validators over scanned resources.
type Executor struct {
	log        *slog.Logger
	validators []Validator
}

// NewExecutor builds the chain for one run. Settings naming an
// unregistered ID fail construction, and so does a chain with every
// validator disabled.
func NewExecutor(log *slog.Logger, l *layout.Layout, opts Options) (*Executor, error) {
	if log == nil {
		log = slog.Default()
	}
	for id := range opts {
		if _, ok := registry[id]; !ok {
			return nil, UnknownValidatorError{ID: id}
		}
	}

	e := &Executor{log: log}
	for _, id := range IDs() {
		s, configured := opts[id]
		if configured && !s.Enabled {
			continue
		}
		d := deps{log: log.With("validator", id), layout: l}
		if configured {
			d.severity = s.Severity
		}
		e.validators = append(e.validators, registry[id](d))
	}
	if len(e.validators) == 0 {
		return nil, ErrNoValidators
	}
	return e, nil
}

// ValidatorIDs returns the IDs of the enabled validators, in chain order.
func (e *Executor) ValidatorIDs() []string {
	ids := make([]string, len(e.validators))
	for i, v := range e.validators {
		ids[i] = v.ID()
	}
	return ids
}

// PackageID returns the group:name:version of the package once the
// properties descriptor has been validated, or "" when unknown.
func (e *Executor) PackageID() string {
	for _, v := range e.validators {
		if p, ok := v.(*propertiesValidator); ok {
			return p.packageID()
		}
	}
	return ""
}

// ValidateMetadataResource runs every metadata-capable validator over a
// file from a metadata root. The reader is consumed once and re-served
// to each validator from memory.
func (e *Executor) ValidateMetadataResource(ctx context.Context, res Resource, r io.Reader) ([]Violation, error) {
	data, err := readAll(r)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", res.Display(), err)
	}
	var out []Violation
	for _, v := range e.validators {
		mv, ok := v.(MetadataValidator)
		if !ok {
			continue
		}
		out = e.collect(out, res, v, func() ([]Violation, error) {
			return mv.ValidateMetadata(ctx, res, bytes.NewReader(data))
		})
	}
	return out, nil
}

// ValidateContentResource runs every content-capable validator over a
// file from the content root.
func (e *Executor) ValidateContentResource(ctx context.Context, res Resource, r io.Reader) ([]Violation, error) {
	data, err := readAll(r)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", res.Display(), err)
	}
	var out []Violation
	for _, v := range e.validators {
		cv, ok := v.(ContentValidator)
		if !ok {
			continue
		}
		out = e.collect(out, res, v, func() ([]Violation, error) {
			return cv.ValidateContent(ctx, res, bytes.NewReader(data))
		})
	}
	return out, nil
}

// ValidateFolderResource runs every folder-capable validator over a
// directory entry.
func (e *Executor) ValidateFolderResource(ctx context.Context, res Resource) []Violation {
	var out []Violation
	for _, v := range e.validators {
		fv, ok := v.(FolderValidator)
		if !ok {
			continue
		}
		out = e.collect(out, res, v, func() ([]Violation, error) {
			return fv.ValidateFolder(ctx, res)
		})
	}
	return out
}

// Complete runs the completion checks after all roots have been scanned.
func (e *Executor) Complete(ctx context.Context) []Violation {
	var out []Violation
	for _, v := range e.validators {
		cv, ok := v.(CompletionValidator)
		if !ok {
			continue
		}
		vs, err := cv.Complete(ctx)
		if err != nil {
			e.log.Error("validator completion failed", "validator", v.ID(), "error", err)
			out = append(out, Violation{
				Validator: v.ID(),
				Severity:  SeverityError,
				Message:   fmt.Sprintf("validator failed: %v", err),
			})
			continue
		}
		out = append(out, stamp(vs, "", v.ID())...)
	}
	return out
}

// collect invokes one validator and folds its result into out, turning a
// validator error into an error-severity violation so the chain keeps
// going.
func (e *Executor) collect(out []Violation, res Resource, v Validator, fn func() ([]Violation, error)) []Violation {
	vs, err := fn()
	if err != nil {
		e.log.Error("validator failed", "validator", v.ID(), "path", res.Display(), "error", err)
		return append(out, Violation{
			Path:      res.Display(),
			Validator: v.ID(),
			Severity:  SeverityError,
			Message:   fmt.Sprintf("validator failed: %v", err),
		})
	}
	return append(out, stamp(vs, res.Display(), v.ID())...)
}

// stamp fills in attribution fields the validator left blank.
func stamp(vs []Violation, path, id string) []Violation {
	for i := range vs {
		if vs[i].Path == "" {
			vs[i].Path = path
		}
		if vs[i].Validator == "" {
			vs[i].Validator = id
		}
		if vs[i].Severity == "" {
			vs[i].Severity = SeverityError
		}
	}
	return vs
}

func readAll(r io.Reader) ([]byte, error) {
	if r == nil {
		return nil, nil
	}
	return io.ReadAll(r)
}

// sev returns the override when set, else the default.
func (d deps) sev(def Severity) Severity {
	if d.severity != "" {
		return d.severity
	}
	return def
}
