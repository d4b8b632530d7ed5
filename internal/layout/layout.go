// Package layout resolves the directory layout of a content package project.
//
// A package project keeps its metadata under a META-INF/vault directory and
// its content under a jcr_root serialization tree, but both live at
// project-specific locations. Resolution walks a configured candidate list
// and picks the first directory that exists, plus the generated metadata
// twin under the build work directory.
package layout

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

// Area classifies a root as metadata or content. Validators are routed
// by area.
type Area string

const (
	AreaMetadata Area = "metadata"
	AreaContent  Area = "content"
)

// Root is one scannable directory of the project.
type Root struct {
	// Path is the absolute path of the root directory.
	Path string
	// RelBase is the project-relative slash path of the root, used as the
	// prefix for display paths. Roots outside the project base keep an
	// absolute slash path here.
	RelBase string
	// Area routes resources under this root to metadata or content
	// validators.
	Area Area
}

// DisplayPath returns the project-relative slash path for a resource at
// rel (slash-separated, relative to the root).
func (r Root) DisplayPath(rel string) string {
	if rel == "" || rel == "." {
		return r.RelBase
	}
	if r.RelBase == "" {
		return rel
	}
	return r.RelBase + "/" + rel
}

// Layout is the resolved set of roots for one validation run.
type Layout struct {
	// Base is the absolute project base directory.
	Base string
	// Roots are the existing roots in scan order: metadata, generated
	// metadata, content. Missing roots are absent, not empty entries.
	Roots []Root
}

// MetadataRoots returns the roots in the metadata area.
func (l *Layout) MetadataRoots() []Root {
	var out []Root
	for _, r := range l.Roots {
		if r.Area == AreaMetadata {
			out = append(out, r)
		}
	}
	return out
}

// ContentRoot returns the content root, or nil if the project has none.
func (l *Layout) ContentRoot() *Root {
	for i := range l.Roots {
		if l.Roots[i].Area == AreaContent {
			return &l.Roots[i]
		}
	}
	return nil
}

// Options configures layout resolution. Candidate lists are tried in
// order, relative to the base directory.
type Options struct {
	// MetadataDirs are candidate paths of the META-INF/vault directory.
	MetadataDirs []string
	// ContentDirs are candidate paths of the jcr_root directory.
	ContentDirs []string
	// WorkDir is the build work directory holding generated metadata.
	WorkDir string
	// Classifier suffixes the work directory (WorkDir-Classifier).
	Classifier string
}

// FirstExistingDir returns the first candidate (joined against base) that
// exists and is a directory, or "" when none does. Entries that exist but
// are not directories are skipped.
func FirstExistingDir(base string, candidates []string) string {
	for _, c := range candidates {
		p := filepath.Join(base, c)
		if info, err := os.Stat(p); err == nil && info.IsDir() {
			return p
		}
	}
	return ""
}

// WorkDir returns the effective work directory for the given classifier.
// A blank classifier yields def unchanged. Otherwise the classifier is
// appended as def-classifier; when the directory is only read
// (forWriting=false) and the suffixed path does not exist, resolution
// warns and falls back to def so builds without per-classifier output
// keep working. Writers always get the suffixed path.
func WorkDir(log *slog.Logger, def, classifier string, forWriting bool) string {
	if classifier == "" {
		return def
	}
	suffixed := def + "-" + classifier
	if forWriting {
		return suffixed
	}
	if info, err := os.Stat(suffixed); err == nil && info.IsDir() {
		return suffixed
	}
	log.Warn("classifier work directory does not exist, falling back to default",
		"classifier", classifier,
		"missing", suffixed,
		"fallback", def)
	return def
}

// Resolve computes the project layout under base. The metadata root is the
// META-INF directory containing the first existing vault candidate; the
// generated metadata root is the META-INF directory under the work dir;
// the content root is the first existing content candidate. Roots that do
// not exist are omitted. A project with no roots at all is not a package
// project and resolution fails.
func Resolve(log *slog.Logger, base string, opts Options) (*Layout, error) {
	absBase, err := filepath.Abs(base)
	if err != nil {
		return nil, fmt.Errorf("resolving base directory: %w", err)
	}

	l := &Layout{Base: absBase}
	seen := make(map[string]bool)

	add := func(p string, area Area) {
		abs := filepath.Clean(p)
		if seen[abs] {
			return
		}
		seen[abs] = true
		l.Roots = append(l.Roots, Root{
			Path:    abs,
			RelBase: relBase(absBase, abs),
			Area:    area,
		})
	}

	// Metadata: the scanned root is the META-INF directory, one level
	// above the vault candidate.
	if vaultDir := FirstExistingDir(absBase, opts.MetadataDirs); vaultDir != "" {
		add(filepath.Dir(vaultDir), AreaMetadata)
	}

	// Generated metadata lives under the (possibly classifier-suffixed)
	// work directory.
	if opts.WorkDir != "" {
		workDir := WorkDir(log, filepath.Join(absBase, opts.WorkDir), opts.Classifier, false)
		generated := filepath.Join(workDir, "META-INF")
		if info, err := os.Stat(generated); err == nil && info.IsDir() {
			add(generated, AreaMetadata)
		}
	}

	if contentDir := FirstExistingDir(absBase, opts.ContentDirs); contentDir != "" {
		add(contentDir, AreaContent)
	}

	if len(l.Roots) == 0 {
		return nil, ErrNoRoots{Base: absBase}
	}
	return l, nil
}

// ErrNoRoots reports a base directory with no package roots.
type ErrNoRoots struct {
	Base string
}

func (e ErrNoRoots) Error() string {
	return fmt.Sprintf("no package roots found under %s", e.Base)
}

// relBase computes the project-relative slash path of a root, falling
// back to the absolute slash path for roots outside the base.
func relBase(base, p string) string {
	rel, err := filepath.Rel(base, p)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return filepath.ToSlash(p)
	}
	if rel == "." {
		return ""
	}
	return filepath.ToSlash(rel)
}
