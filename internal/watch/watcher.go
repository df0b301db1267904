// SPDX-License-Identifier: MPL-2.0

// Package watch re-runs a callback when project files change.
//
// Events are filtered by doublestar patterns relative to the watched
// directory and coalesced over a debounce window. The callback runs on the
// event loop itself, so rebuilds never overlap; changes made while a rebuild
// runs are picked up by the next window.
package watch

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"maps"
	"path/filepath"
	"slices"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce is the quiet period used when Config.Debounce is zero.
const DefaultDebounce = 300 * time.Millisecond

// defaultIgnores exclude VCS metadata, cargo output and editor droppings.
var defaultIgnores = []string{
	"**/.git/**",
	"target/**",
	"**/*.swp",
	"**/*~",
	"**/.DS_Store",
}

// ErrInvalidPattern is returned by New for a malformed glob.
var ErrInvalidPattern = errors.New("invalid watch pattern")

type (
	// Config configures a Watcher.
	Config struct {
		// Dir is the watched root. Patterns are matched against paths
		// relative to it, with forward slashes.
		Dir string
		// Patterns select the files that trigger OnChange. Empty matches all.
		Patterns []string
		// Ignore is merged with the built-in ignores.
		Ignore []string
		// Debounce is the quiet period before OnChange fires.
		Debounce time.Duration
		// OnChange receives the sorted set of changed relative paths. An error
		// is logged and watching continues.
		OnChange func(ctx context.Context, changed []string) error
		Logger   *slog.Logger
	}

	// Watcher watches a directory tree.
	Watcher struct {
		cfg     Config
		dir     string
		ignores []string
		fsw     *fsnotify.Watcher
		log     *slog.Logger
	}
)

// New validates cfg and registers every non-ignored directory under Dir.
func New(cfg Config) (*Watcher, error) {
	for _, pat := range slices.Concat(cfg.Patterns, cfg.Ignore) {
		if !doublestar.ValidatePattern(pat) {
			return nil, fmt.Errorf("%w: %q", ErrInvalidPattern, pat)
		}
	}
	dir, err := filepath.Abs(cfg.Dir)
	if err != nil {
		return nil, fmt.Errorf("watch: resolve %s: %w", cfg.Dir, err)
	}
	if cfg.Debounce <= 0 {
		cfg.Debounce = DefaultDebounce
	}
	log := cfg.Logger
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("watch: create watcher: %w", err)
	}
	w := &Watcher{
		cfg:     cfg,
		dir:     dir,
		ignores: slices.Concat(defaultIgnores, cfg.Ignore),
		fsw:     fsw,
		log:     log,
	}
	if err := w.addTree(dir); err != nil {
		_ = fsw.Close() // Best-effort cleanup
		return nil, err
	}
	return w, nil
}

// Run processes events until ctx is cancelled. It returns nil on
// cancellation and an error when the underlying watcher breaks.
func (w *Watcher) Run(ctx context.Context) error {
	defer func() {
		if err := w.fsw.Close(); err != nil {
			w.log.Warn("watch: close", "error", err)
		}
	}()

	pending := make(map[string]struct{})
	timer := time.NewTimer(time.Hour)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case evt, ok := <-w.fsw.Events:
			if !ok {
				return errors.New("watch: event channel closed")
			}
			if evt.Has(fsnotify.Create) {
				w.maybeAddDir(evt.Name)
			}
			rel, ok := w.relevant(evt.Name)
			if !ok {
				continue
			}
			pending[rel] = struct{}{}
			timer.Reset(w.cfg.Debounce)

		case <-timer.C:
			if len(pending) == 0 {
				continue
			}
			changed := slices.Sorted(maps.Keys(pending))
			clear(pending)
			w.log.Debug("watch: change detected", "paths", changed)
			if w.cfg.OnChange != nil {
				if err := w.cfg.OnChange(ctx, changed); err != nil {
					w.log.Warn("watch: callback failed", "error", err)
				}
			}

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return errors.New("watch: error channel closed")
			}
			if isFatalFsnotifyError(err) {
				return fmt.Errorf("watch: fatal fsnotify error: %w", err)
			}
			w.log.Warn("watch: fsnotify error", "error", err)
		}
	}
}

// relevant maps an absolute event path to its relative form and reports
// whether it passes the ignore and pattern filters.
func (w *Watcher) relevant(name string) (string, bool) {
	rel, err := filepath.Rel(w.dir, name)
	if err != nil {
		return "", false
	}
	rel = filepath.ToSlash(rel)
	if matchAny(w.ignores, rel) {
		return "", false
	}
	if len(w.cfg.Patterns) > 0 && !matchAny(w.cfg.Patterns, rel) {
		return "", false
	}
	return rel, true
}

func (w *Watcher) addTree(root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			w.log.Debug("watch: skipping inaccessible path", "path", path, "error", err)
			return nil //nolint:nilerr // unreadable directories are not watched
		}
		if !d.IsDir() {
			return nil
		}
		if w.ignoredDir(path) {
			return filepath.SkipDir
		}
		if err := w.fsw.Add(path); err != nil {
			return fmt.Errorf("watch: add %s: %w", path, err)
		}
		return nil
	})
}

func (w *Watcher) maybeAddDir(path string) {
	if w.ignoredDir(path) {
		return
	}
	if err := w.addTree(path); err != nil {
		w.log.Warn("watch: add new directory", "path", path, "error", err)
	}
}

// ignoredDir checks rel with a trailing slash too, so "target/**" prunes
// the target directory itself.
func (w *Watcher) ignoredDir(path string) bool {
	rel, err := filepath.Rel(w.dir, path)
	if err != nil || rel == "." {
		return false
	}
	rel = filepath.ToSlash(rel)
	return matchAny(w.ignores, rel) || matchAny(w.ignores, rel+"/")
}

func matchAny(patterns []string, rel string) bool {
	for _, pat := range patterns {
		if ok, _ := doublestar.Match(pat, rel); ok {
			return true
		}
	}
	return false
}
