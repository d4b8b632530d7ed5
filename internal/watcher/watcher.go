// Package watcher reports filesystem changes under the package roots so that
// validation can be re-run while sources are being edited.
//
// Events are coalesced through a debouncer and rewrites that leave file
// content unchanged are suppressed by comparing SHA256 hashes, so editors
// that rewrite files on save do not cause useless validation runs.
package watcher

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"
)

// Config holds watcher configuration.
type Config struct {
	// Roots are the directories to watch recursively. At least one is
	// required.
	Roots []string

	// OnChange receives each debounced batch of changed paths. Required.
	OnChange func(paths []string)

	// Ignore reports whether a path should neither be watched nor trigger
	// OnChange. Optional.
	Ignore func(path string) bool

	// DebounceMs is the quiet interval in milliseconds before a batch is
	// reported. Defaults to 400.
	DebounceMs int

	// Logger for watch events. Defaults to slog.Default().
	Logger *slog.Logger
}

// Watcher watches package roots for changes and reports them in debounced
// batches.
type Watcher struct {
	roots     []string
	ignore    func(string) bool
	log       *slog.Logger
	fsWatcher *fsnotify.Watcher
	debouncer *Debouncer

	mu     sync.Mutex
	hashes map[string]string

	done     chan struct{}
	stopOnce sync.Once
}

// New creates a watcher from the given configuration.
func New(cfg Config) (*Watcher, error) {
	if cfg.OnChange == nil {
		return nil, fmt.Errorf("watcher: OnChange callback is required")
	}
	if len(cfg.Roots) == 0 {
		return nil, fmt.Errorf("watcher: at least one root is required")
	}
	log := cfg.Logger
	if log == nil {
		log = slog.Default()
	}
	w := &Watcher{
		roots:  cfg.Roots,
		ignore: cfg.Ignore,
		log:    log,
		hashes: make(map[string]string),
		done:   make(chan struct{}),
	}
	w.debouncer = NewDebouncer(cfg.DebounceMs, cfg.OnChange)
	return w, nil
}

// Start begins watching all roots. It returns once the watch loop is running;
// the loop ends when ctx is cancelled or Stop is called.
func (w *Watcher) Start(ctx context.Context) error {
	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create filesystem watcher: %w", err)
	}
	w.fsWatcher = fsWatcher

	for _, root := range w.roots {
		if err := w.addWatchRecursive(root); err != nil {
			fsWatcher.Close()
			return fmt.Errorf("watch %s: %w", root, err)
		}
	}

	go w.watchLoop(ctx)

	w.log.Info("watching for changes", "roots", len(w.roots))
	return nil
}

// Stop ends the watch loop and releases all watches. Safe to call more than
// once.
func (w *Watcher) Stop() {
	w.stopOnce.Do(func() {
		close(w.done)
		w.debouncer.Stop()
		if w.fsWatcher != nil {
			w.fsWatcher.Close()
		}
	})
}

func (w *Watcher) watchLoop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.done:
			return
		case event, ok := <-w.fsWatcher.Events:
			if !ok {
				return
			}
			w.handleEvent(event)
		case err, ok := <-w.fsWatcher.Errors:
			if !ok {
				return
			}
			w.log.Error("watch error", "error", err)
		}
	}
}

func (w *Watcher) handleEvent(event fsnotify.Event) {
	path := event.Name
	if w.ignore != nil && w.ignore(path) {
		return
	}

	switch {
	case event.Op&fsnotify.Create != 0:
		if info, err := os.Stat(path); err == nil && info.IsDir() {
			// A directory moved or created under a watched root brings its
			// whole subtree with it, so watch it before events get lost.
			if err := w.addWatchRecursive(path); err != nil {
				w.log.Warn("could not watch new directory", "path", path, "error", err)
			}
			w.debouncer.Trigger(path)
			return
		}
		if !w.contentChanged(path) {
			return
		}
		w.debouncer.Trigger(path)
	case event.Op&fsnotify.Write != 0:
		if !w.contentChanged(path) {
			return
		}
		w.debouncer.Trigger(path)
	case event.Op&(fsnotify.Remove|fsnotify.Rename) != 0:
		w.forgetHash(path)
		w.debouncer.Trigger(path)
	}
}

// contentChanged reports whether the file content differs from the last
// observed hash, updating the stored hash when it does. Paths that cannot be
// hashed count as changed.
func (w *Watcher) contentChanged(path string) bool {
	sum, err := hashFile(path)
	if err != nil {
		w.forgetHash(path)
		return true
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	if w.hashes[path] == sum {
		return false
	}
	w.hashes[path] = sum
	return true
}

func (w *Watcher) forgetHash(path string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	delete(w.hashes, path)
}

// addWatchRecursive watches dir and every subdirectory below it. Subtrees the
// ignore function rejects are pruned; directories that vanish mid-walk are
// skipped.
func (w *Watcher) addWatchRecursive(dir string) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == dir {
				return err
			}
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if w.ignore != nil && w.ignore(path) {
			return filepath.SkipDir
		}
		if err := w.fsWatcher.Add(path); err != nil {
			w.log.Warn("could not watch directory", "path", path, "error", err)
		}
		return nil
	})
}

func hashFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
