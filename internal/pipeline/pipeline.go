// Package pipeline reads build plans and decides whether a validation run
// is superseded by a later full-validation step.
package pipeline

import (
	"fmt"
	"log/slog"
	"os"

	"gopkg.in/yaml.v3"
)

const (
	// ComponentID names this tool in build plan steps.
	ComponentID = "packlint"
	// FullValidationTask is the plan task that performs full validation
	// during packaging. When it is planned, a standalone run is
	// redundant and skips.
	FullValidationTask = "validate-package"
	// DefaultFile is where the build plan lives unless configured
	// otherwise.
	DefaultFile = ".packlint/pipeline.yaml"
)

// Step is one entry of a build plan: either a concrete component+task,
// or a reference to a named goal list that expands recursively.
type Step struct {
	Component string `yaml:"component,omitempty"`
	Task      string `yaml:"task,omitempty"`
	Ref       string `yaml:"ref,omitempty"`
}

// Plan is the YAML build plan. Goals are named step lists that steps can
// reference via ref.
type Plan struct {
	Version int               `yaml:"version"`
	Steps   []Step            `yaml:"steps"`
	Goals   map[string][]Step `yaml:"goals,omitempty"`
}

// Errors
var (
	ErrUnknownGoal   = planError("plan references an unknown goal")
	ErrGoalCycle     = planError("plan goal references form a cycle")
	ErrMalformedStep = planError("plan step needs either component+task or ref")
)

type planError string

func (e planError) Error() string { return string(e) }

// Source yields the fully expanded steps of the build plan.
type Source interface {
	Steps() ([]Step, error)
}

// StaticSource serves a fixed step list. Used by tests and by callers
// that already hold an expanded plan.
type StaticSource []Step

func (s StaticSource) Steps() ([]Step, error) {
	return []Step(s), nil
}

// FileSource loads and expands a YAML plan file on demand.
type FileSource struct {
	Path string
}

func (f FileSource) Steps() ([]Step, error) {
	p, err := Load(f.Path)
	if err != nil {
		return nil, err
	}
	return p.Expand()
}

// Load reads a plan file from disk.
func Load(path string) (*Plan, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read plan %s: %w", path, err)
	}

	var p Plan
	if err := yaml.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("parse plan %s: %w", path, err)
	}
	return &p, nil
}

// Expand resolves every goal reference into its concrete steps,
// depth-first in plan order. Unknown goals, reference cycles and steps
// that are neither a ref nor a component+task pair fail expansion.
func (p *Plan) Expand() ([]Step, error) {
	return p.expand(p.Steps, make(map[string]bool))
}

func (p *Plan) expand(steps []Step, visiting map[string]bool) ([]Step, error) {
	var out []Step
	for _, s := range steps {
		switch {
		case s.Ref != "":
			if s.Component != "" || s.Task != "" {
				return nil, fmt.Errorf("step with ref '%s' also names component/task: %w", s.Ref, ErrMalformedStep)
			}
			if visiting[s.Ref] {
				return nil, fmt.Errorf("goal '%s': %w", s.Ref, ErrGoalCycle)
			}
			goal, ok := p.Goals[s.Ref]
			if !ok {
				return nil, fmt.Errorf("goal '%s': %w", s.Ref, ErrUnknownGoal)
			}
			visiting[s.Ref] = true
			expanded, err := p.expand(goal, visiting)
			if err != nil {
				return nil, err
			}
			delete(visiting, s.Ref)
			out = append(out, expanded...)
		case s.Component != "" && s.Task != "":
			out = append(out, s)
		default:
			return nil, fmt.Errorf("step %+v: %w", s, ErrMalformedStep)
		}
	}
	return out, nil
}

// ShouldSkip reports whether this run is redundant because the build plan
// already schedules the full-validation task.
//
// Incremental runs never skip: they exist to give feedback right now.
// A plan that cannot be resolved is warned about and validation proceeds,
// since skipping on a broken plan would silently validate nothing.
func ShouldSkip(log *slog.Logger, incremental bool, src Source) bool {
	if incremental || src == nil {
		return false
	}
	steps, err := src.Steps()
	if err != nil {
		log.Warn("could not determine build plan, proceeding with validation", "error", err)
		return false
	}
	for _, s := range steps {
		if s.Component == ComponentID && s.Task == FullValidationTask {
			log.Info("skipping validation, full validation is planned later",
				"component", s.Component,
				"task", s.Task)
			return true
		}
	}
	return false
}
