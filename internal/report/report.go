// Package report aggregates violations into a run outcome.
//
// The reporter keys violations by the resource's project-relative path.
// Clearing prior findings before re-validating a resource makes repeated
// runs over the same tree replace results instead of duplicating them,
// which is what incremental and watch runs rely on.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"text/tabwriter"
	"time"

	"github.com/google/uuid"

	"github.com/randalmurphal/packlint/internal/validator"
)

const (
	ansiDim    = "\033[2m"
	ansiRed    = "\033[31m"
	ansiGreen  = "\033[32m"
	ansiYellow = "\033[33m"
	ansiCyan   = "\033[36m"
	ansiReset  = "\033[0m"
)

// Sink receives violations as they are recorded, for persistence.
// Sink failures are logged and never fail the run.
type Sink interface {
	ClearResource(runID, path string) error
	RecordViolations(runID string, vs []validator.Violation) error
	RecordOutcome(o Outcome) error
}

// Options configures a reporter.
type Options struct {
	// Out receives the streamed rendering. nil silences output.
	Out io.Writer
	// JSON switches rendering to line-delimited JSON objects.
	JSON bool
	// Color enables ANSI coloring of text output.
	Color bool
	// Verbose adds the per-validator summary table.
	Verbose bool
	// Sink persists violations and outcomes. Optional.
	Sink Sink
}

// Outcome is the final result of one validation run.
type Outcome struct {
	RunID    string    `json:"run_id"`
	Started  time.Time `json:"started"`
	Finished time.Time `json:"finished"`
	// Totals counts violations by severity.
	Totals map[validator.Severity]int `json:"totals"`
	// ByValidator counts violations by emitting validator.
	ByValidator map[string]int `json:"by_validator"`
	// Highest is the highest severity recorded, "" when clean.
	Highest validator.Severity `json:"highest,omitempty"`
	// Skipped means validation never ran because a full validation is
	// planned later. A skipped run is not a clean run.
	Skipped    bool   `json:"skipped"`
	SkipReason string `json:"skip_reason,omitempty"`
	Failed     bool   `json:"failed"`
	// Violations holds every finding in scan order.
	Violations []validator.Violation `json:"violations,omitempty"`
}

// Reporter collects violations for one run.
type Reporter struct {
	log     *slog.Logger
	opts    Options
	runID   string
	started time.Time

	order      []string
	byPath     map[string][]validator.Violation
	skipped    bool
	skipReason string
}

// New creates a reporter with a fresh run ID.
func New(log *slog.Logger, opts Options) *Reporter {
	if log == nil {
		log = slog.Default()
	}
	return &Reporter{
		log:     log,
		opts:    opts,
		runID:   uuid.NewString(),
		started: time.Now(),
		byPath:  make(map[string][]validator.Violation),
	}
}

// RunID returns this run's identifier.
func (r *Reporter) RunID() string { return r.runID }

// ClearPrior drops previously recorded findings for a resource. Called
// before the resource is re-validated so stale findings never survive
// into the new result.
func (r *Reporter) ClearPrior(path string) {
	if _, ok := r.byPath[path]; ok {
		delete(r.byPath, path)
		for i, p := range r.order {
			if p == path {
				r.order = append(r.order[:i], r.order[i+1:]...)
				break
			}
		}
	}
	if r.opts.Sink != nil {
		if err := r.opts.Sink.ClearResource(r.runID, path); err != nil {
			r.log.Warn("state sink clear failed", "path", path, "error", err)
		}
	}
}

// Record appends violations in scan order and streams their rendering.
func (r *Reporter) Record(vs []validator.Violation) {
	if len(vs) == 0 {
		return
	}
	for _, v := range vs {
		if _, ok := r.byPath[v.Path]; !ok {
			r.order = append(r.order, v.Path)
		}
		r.byPath[v.Path] = append(r.byPath[v.Path], v)
		r.render(v)
	}
	if r.opts.Sink != nil {
		if err := r.opts.Sink.RecordViolations(r.runID, vs); err != nil {
			r.log.Warn("state sink record failed", "error", err)
		}
	}
}

// MarkSkipped flags the run as skipped. Skipped is a distinct outcome:
// nothing was checked, so it must not read as "no violations".
func (r *Reporter) MarkSkipped(reason string) {
	r.skipped = true
	r.skipReason = reason
}

// Finalize computes the outcome. The run fails on any error-severity
// violation, or on any warning when failOnWarnings is set.
func (r *Reporter) Finalize(failOnWarnings bool) Outcome {
	o := Outcome{
		RunID:       r.runID,
		Started:     r.started,
		Finished:    time.Now(),
		Totals:      make(map[validator.Severity]int),
		ByValidator: make(map[string]int),
		Skipped:     r.skipped,
		SkipReason:  r.skipReason,
	}

	for _, path := range r.order {
		for _, v := range r.byPath[path] {
			o.Violations = append(o.Violations, v)
			o.Totals[v.Severity]++
			o.ByValidator[v.Validator]++
			if v.Severity.Rank() > o.Highest.Rank() {
				o.Highest = v.Severity
			}
		}
	}

	if !o.Skipped {
		o.Failed = o.Totals[validator.SeverityError] > 0 ||
			(failOnWarnings && o.Totals[validator.SeverityWarning] > 0)
	}

	r.renderSummary(o)

	if r.opts.Sink != nil {
		if err := r.opts.Sink.RecordOutcome(o); err != nil {
			r.log.Warn("state sink outcome failed", "error", err)
		}
	}
	return o
}

func (r *Reporter) render(v validator.Violation) {
	if r.opts.Out == nil {
		return
	}
	if r.opts.JSON {
		data, err := json.Marshal(v)
		if err != nil {
			return
		}
		fmt.Fprintln(r.opts.Out, string(data))
		return
	}

	label := string(v.Severity)
	if r.opts.Color {
		label = severityColor(v.Severity) + label + ansiReset
	}
	suffix := fmt.Sprintf("(%s)", v.Validator)
	if r.opts.Color {
		suffix = ansiDim + suffix + ansiReset
	}
	fmt.Fprintf(r.opts.Out, "%s %s: %s %s\n", label, v.Path, v.Message, suffix)
}

func (r *Reporter) renderSummary(o Outcome) {
	if r.opts.Out == nil {
		return
	}
	if r.opts.JSON {
		// Violations already streamed line by line.
		summary := o
		summary.Violations = nil
		if data, err := json.Marshal(summary); err == nil {
			fmt.Fprintln(r.opts.Out, string(data))
		}
		return
	}

	switch {
	case o.Skipped:
		msg := "validation skipped"
		if o.SkipReason != "" {
			msg += ": " + o.SkipReason
		}
		fmt.Fprintln(r.opts.Out, r.paint(ansiYellow, msg))
	case o.Failed:
		fmt.Fprintln(r.opts.Out, r.paint(ansiRed, fmt.Sprintf(
			"validation failed: %d error(s), %d warning(s)",
			o.Totals[validator.SeverityError], o.Totals[validator.SeverityWarning])))
	case len(o.Violations) > 0:
		fmt.Fprintln(r.opts.Out, r.paint(ansiGreen, fmt.Sprintf(
			"validation passed with %d warning(s)", o.Totals[validator.SeverityWarning])))
	default:
		fmt.Fprintln(r.opts.Out, r.paint(ansiGreen, "validation passed: no violations"))
	}

	if r.opts.Verbose && len(o.ByValidator) > 0 {
		w := tabwriter.NewWriter(r.opts.Out, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "VALIDATOR\tFINDINGS")
		for _, id := range sortedKeys(o.ByValidator) {
			fmt.Fprintf(w, "%s\t%d\n", id, o.ByValidator[id])
		}
		w.Flush()
	}
}

func (r *Reporter) paint(color, s string) string {
	if !r.opts.Color {
		return s
	}
	return color + s + ansiReset
}

func severityColor(s validator.Severity) string {
	switch s {
	case validator.SeverityError:
		return ansiRed
	case validator.SeverityWarning:
		return ansiYellow
	default:
		return ansiCyan
	}
}

func sortedKeys(m map[string]int) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
