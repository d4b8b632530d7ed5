// Package scanner walks package roots and yields their resources in a
// deterministic order.
//
// Exclusion uses doublestar glob patterns matched against slash-normalized
// paths relative to the scanned root. An excluded directory prunes its
// whole subtree. Within a directory, files are yielded before
// subdirectories, both in lexicographic order, so runs are reproducible
// across platforms.
package scanner

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"

	"github.com/bmatcuk/doublestar/v4"
)

// DefaultExcludes are always active, on top of any configured patterns.
// Directory patterns name the directory itself; the scanner prunes the
// subtree of an excluded directory.
var DefaultExcludes = []string{
	"**/.vlt",
	"**/.vltignore",
	"**/.git",
	"**/.svn",
	"**/.hg",
	"**/.bzr",
	"**/CVS",
	"**/.DS_Store",
	"**/*~",
	"**/#*#",
	"**/.#*",
}

// Kind distinguishes files from directories in scan results.
type Kind string

const (
	KindFile Kind = "file"
	KindDir  Kind = "dir"
)

// Entry is one scanned resource, identified by its slash-normalized path
// relative to the scanned root.
type Entry struct {
	RelPath string
	Kind    Kind
}

// BadPatternError reports a malformed exclude glob.
type BadPatternError struct {
	Pattern string
}

func (e BadPatternError) Error() string {
	return fmt.Sprintf("invalid exclude pattern %q", e.Pattern)
}

// Scanner walks roots applying a fixed exclude set.
type Scanner struct {
	log      *slog.Logger
	excludes []string
}

// New builds a scanner from the configured excludes, unioned with
// DefaultExcludes. Every pattern is validated up front so a typo in
// config fails the run instead of silently matching nothing.
func New(log *slog.Logger, excludes []string) (*Scanner, error) {
	all := make([]string, 0, len(DefaultExcludes)+len(excludes))
	all = append(all, DefaultExcludes...)
	for _, p := range excludes {
		if !doublestar.ValidatePattern(p) {
			return nil, BadPatternError{Pattern: p}
		}
		all = append(all, p)
	}
	if log == nil {
		log = slog.Default()
	}
	return &Scanner{log: log, excludes: all}, nil
}

// Excludes returns the effective pattern set, defaults included.
func (s *Scanner) Excludes() []string {
	out := make([]string, len(s.excludes))
	copy(out, s.excludes)
	return out
}

// Scan walks root and returns its entries in scan order: within each
// directory files first, then subdirectories, each sorted by name. The
// root itself is not an entry; a subdirectory's entry precedes its
// children. Unreadable directories are logged and skipped so one bad
// subtree does not abort the run.
func (s *Scanner) Scan(ctx context.Context, root string) ([]Entry, error) {
	var entries []Entry
	err := s.walk(ctx, root, "", func(e Entry) {
		entries = append(entries, e)
	})
	if err != nil {
		return nil, err
	}
	return entries, nil
}

func (s *Scanner) walk(ctx context.Context, root, rel string, emit func(Entry)) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	dirents, err := os.ReadDir(filepath.Join(root, filepath.FromSlash(rel)))
	if err != nil {
		if rel == "" {
			return fmt.Errorf("reading root %s: %w", root, err)
		}
		s.log.Error("skipping unreadable directory", "path", rel, "error", err)
		return nil
	}

	var files, dirs []string
	for _, de := range dirents {
		if de.IsDir() {
			dirs = append(dirs, de.Name())
		} else {
			files = append(files, de.Name())
		}
	}
	sort.Strings(files)
	sort.Strings(dirs)

	for _, name := range files {
		childRel := join(rel, name)
		if s.Excluded(childRel) {
			continue
		}
		emit(Entry{RelPath: childRel, Kind: KindFile})
	}
	for _, name := range dirs {
		childRel := join(rel, name)
		if s.Excluded(childRel) {
			continue
		}
		emit(Entry{RelPath: childRel, Kind: KindDir})
		if err := s.walk(ctx, root, childRel, emit); err != nil {
			return err
		}
	}
	return nil
}

// Excluded reports whether the slash-relative path matches any exclude
// pattern. Patterns are pre-validated, so Match cannot fail here. The watch
// command uses this to filter change events against the same pattern set the
// scan applies.
func (s *Scanner) Excluded(rel string) bool {
	for _, p := range s.excludes {
		if ok, _ := doublestar.Match(p, rel); ok {
			return true
		}
	}
	return false
}

func join(rel, name string) string {
	if rel == "" {
		return name
	}
	return rel + "/" + name
}
