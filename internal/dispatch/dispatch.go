// Package dispatch routes scanned entries through the validator chain.
//
// Routing is a function of the root an entry came from: metadata roots
// feed the metadata entry point, the content root feeds the content
// entry point. Directories are validated as structural nodes, never as
// byte content. One unreadable resource is logged and skipped; it does
// not abort the batch.
package dispatch

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/randalmurphal/packlint/internal/layout"
	"github.com/randalmurphal/packlint/internal/report"
	"github.com/randalmurphal/packlint/internal/scanner"
	"github.com/randalmurphal/packlint/internal/validator"
)

// Dispatcher feeds one run's scan entries to the executor and forwards
// findings to the reporter.
type Dispatcher struct {
	log      *slog.Logger
	exec     *validator.Executor
	reporter *report.Reporter
}

func New(log *slog.Logger, exec *validator.Executor, rep *report.Reporter) *Dispatcher {
	return &Dispatcher{log: log, exec: exec, reporter: rep}
}

// DispatchRoot validates every entry scanned under one root, in order.
func (d *Dispatcher) DispatchRoot(ctx context.Context, root layout.Root, entries []scanner.Entry) error {
	for _, e := range entries {
		if err := ctx.Err(); err != nil {
			return err
		}
		d.dispatch(ctx, root, e)
	}
	return nil
}

func (d *Dispatcher) dispatch(ctx context.Context, root layout.Root, e scanner.Entry) {
	res := validator.Resource{Root: root, Rel: e.RelPath, Kind: e.Kind}

	// Prior findings for this path are stale the moment we revalidate.
	d.reporter.ClearPrior(res.Display())

	if e.Kind == scanner.KindDir {
		d.reporter.Record(d.exec.ValidateFolderResource(ctx, res))
		return
	}

	abs := filepath.Join(root.Path, filepath.FromSlash(e.RelPath))
	f, err := os.Open(abs)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			d.log.Error("file disappeared during scan", "path", res.Display())
		} else {
			d.log.Error("could not read file", "path", res.Display(), "error", err)
		}
		return
	}
	defer f.Close()

	var vs []validator.Violation
	var verr error
	if root.Area == layout.AreaMetadata {
		vs, verr = d.exec.ValidateMetadataResource(ctx, res, f)
	} else {
		vs, verr = d.exec.ValidateContentResource(ctx, res, f)
	}
	if verr != nil {
		d.log.Error("could not read file", "path", res.Display(), "error", verr)
		return
	}
	d.reporter.Record(vs)
}
