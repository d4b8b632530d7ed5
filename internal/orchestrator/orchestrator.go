// Package orchestrator runs one validation pass end to end: skip gate,
// layout resolution, scan, dispatch, completion checks, adjudication.
package orchestrator

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/randalmurphal/packlint/internal/config"
	"github.com/randalmurphal/packlint/internal/dispatch"
	"github.com/randalmurphal/packlint/internal/layout"
	"github.com/randalmurphal/packlint/internal/pipeline"
	"github.com/randalmurphal/packlint/internal/report"
	"github.com/randalmurphal/packlint/internal/scanner"
	"github.com/randalmurphal/packlint/internal/validator"
)

// Options configures an engine beyond what the config file carries.
type Options struct {
	Base        string // project base directory (default ".")
	Incremental bool   // incremental runs never skip

	// Reporting
	Out     io.Writer // violation and summary rendering, nil for quiet
	JSON    bool
	Color   bool
	Verbose bool

	// Sink receives run bookkeeping, nil disables persistence.
	Sink report.Sink

	// Plan overrides the build plan source. Nil derives it from the
	// configured pipeline file.
	Plan pipeline.Source
}

// Engine executes validation runs for one loaded configuration. It is
// reusable: watch mode calls Run once per change burst.
type Engine struct {
	log  *slog.Logger
	cfg  *config.Config
	opts Options
}

// New creates an engine.
func New(log *slog.Logger, cfg *config.Config, opts Options) *Engine {
	if log == nil {
		log = slog.Default()
	}
	if cfg == nil {
		cfg = config.Default()
	}
	if opts.Base == "" {
		opts.Base = "."
	}
	return &Engine{log: log, cfg: cfg, opts: opts}
}

// Run executes one validation pass. The returned outcome carries the
// pass/fail adjudication; the error covers mechanical failures only
// (bad configuration, unresolvable layout, cancellation).
func (e *Engine) Run(ctx context.Context) (report.Outcome, error) {
	rep := report.New(e.log, report.Options{
		Out:     e.opts.Out,
		JSON:    e.opts.JSON,
		Color:   e.opts.Color,
		Verbose: e.opts.Verbose,
		Sink:    e.opts.Sink,
	})

	if e.shouldSkip() {
		rep.MarkSkipped("full validation is planned later in the build")
		return rep.Finalize(e.cfg.FailOnWarnings), nil
	}

	l, err := layout.Resolve(e.log, e.opts.Base, layout.Options{
		MetadataDirs: e.cfg.MetadataDirs,
		ContentDirs:  e.cfg.ContentDirs,
		WorkDir:      e.cfg.WorkDir,
		Classifier:   e.cfg.Classifier,
	})
	if err != nil {
		return report.Outcome{}, err
	}

	vOpts, err := validatorOptions(e.cfg)
	if err != nil {
		return report.Outcome{}, err
	}
	exec, err := validator.NewExecutor(e.log, l, vOpts)
	if err != nil {
		return report.Outcome{}, err
	}

	sc, err := scanner.New(e.log, e.cfg.Excludes)
	if err != nil {
		return report.Outcome{}, err
	}

	e.log.Info("validating package",
		"base", e.opts.Base,
		"roots", len(l.Roots),
		"validators", exec.ValidatorIDs())

	d := dispatch.New(e.log, exec, rep)
	for _, root := range l.Roots {
		entries, err := sc.Scan(ctx, root.Path)
		if err != nil {
			if ctx.Err() != nil {
				return report.Outcome{}, ctx.Err()
			}
			// A root that vanished mid-run is a per-root problem,
			// the remaining roots still get checked.
			e.log.Error("could not scan root", "root", root.Path, "error", err)
			continue
		}
		if err := d.DispatchRoot(ctx, root, entries); err != nil {
			return report.Outcome{}, err
		}
	}

	rep.Record(exec.Complete(ctx))

	o := rep.Finalize(e.cfg.FailOnWarnings)
	e.log.Info("validation finished",
		"run_id", o.RunID,
		"package", exec.PackageID(),
		"errors", o.Totals[validator.SeverityError],
		"warnings", o.Totals[validator.SeverityWarning],
		"failed", o.Failed)
	return o, nil
}

// shouldSkip evaluates the skip gate against the build plan.
func (e *Engine) shouldSkip() bool {
	if !e.cfg.SkipIfPlanned {
		return false
	}
	src := e.opts.Plan
	if src == nil {
		src = e.planFromConfig()
	}
	return pipeline.ShouldSkip(e.log, e.opts.Incremental, src)
}

// planFromConfig derives the plan source from configuration. An
// explicitly configured file is always consulted, so a missing one gets
// warned about; the default location is consulted only when present.
func (e *Engine) planFromConfig() pipeline.Source {
	if e.cfg.PipelineFile != "" {
		return pipeline.FileSource{Path: filepath.Join(e.opts.Base, e.cfg.PipelineFile)}
	}
	def := filepath.Join(e.opts.Base, filepath.FromSlash(pipeline.DefaultFile))
	if _, err := os.Stat(def); err != nil {
		return nil
	}
	return pipeline.FileSource{Path: def}
}

// validatorOptions translates config toggles into executor settings.
func validatorOptions(cfg *config.Config) (validator.Options, error) {
	if len(cfg.Validators) == 0 {
		return nil, nil
	}
	opts := make(validator.Options, len(cfg.Validators))
	for id, vc := range cfg.Validators {
		s := validator.Setting{Enabled: vc.On()}
		if vc.Severity != "" {
			sev, err := validator.ParseSeverity(vc.Severity)
			if err != nil {
				return nil, fmt.Errorf("validator %s: %w", id, err)
			}
			s.Severity = sev
		}
		opts[id] = s
	}
	return opts, nil
}
