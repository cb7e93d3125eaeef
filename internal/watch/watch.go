// Package watch feeds file system changes into the analysis database.
package watch

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/leapstack-labs/rustle/internal/engine"
)

// DefaultDebounce is used when Config.Debounce is zero.
const DefaultDebounce = 100 * time.Millisecond

// Config configures a Watcher.
type Config struct {
	// Root is the project directory; file paths are relative to it.
	Root string
	// Debounce delays re-analysis until changes have settled.
	Debounce time.Duration
	// Logger is the structured logger (optional, uses discard if nil)
	Logger *slog.Logger
}

// Batch lists the files applied to the database in one debounce window,
// relative to the root and sorted.
type Batch struct {
	Changed []string
	Removed []string
}

// Watcher applies .rs file changes below a root to a Database.
type Watcher struct {
	db       *engine.Database
	root     string
	debounce time.Duration
	logger   *slog.Logger

	mu      sync.Mutex
	pending map[string]bool
	timer   *time.Timer
}

// New creates a Watcher for db.
func New(db *engine.Database, cfg Config) *Watcher {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	debounce := cfg.Debounce
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	return &Watcher{
		db:       db,
		root:     cfg.Root,
		debounce: debounce,
		logger:   logger,
		pending:  make(map[string]bool),
	}
}

// Run watches the root until ctx is done. onBatch is called after every
// debounced batch has been applied; calls never overlap.
func (w *Watcher) Run(ctx context.Context, onBatch func(Batch)) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer func() { _ = watcher.Close() }()

	if err := w.watchDir(watcher, w.root); err != nil {
		return fmt.Errorf("failed to watch %s: %w", w.root, err)
	}
	w.logger.Info("watching for changes", slog.String("root", w.root), slog.Duration("debounce", w.debounce))

	var flushMu sync.Mutex
	flush := func() {
		flushMu.Lock()
		defer flushMu.Unlock()
		if batch := w.flush(); len(batch.Changed)+len(batch.Removed) > 0 && onBatch != nil {
			onBatch(batch)
		}
	}

	for {
		select {
		case <-ctx.Done():
			w.mu.Lock()
			if w.timer != nil {
				w.timer.Stop()
			}
			w.mu.Unlock()
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if event.Has(fsnotify.Create) {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					if err := w.watchDir(watcher, event.Name); err != nil {
						w.logger.Warn("failed to watch new directory", slog.String("dir", event.Name), slog.String("error", err.Error()))
					}
					continue
				}
			}
			if filepath.Ext(event.Name) != ".rs" || event.Op == fsnotify.Chmod {
				continue
			}

			w.mu.Lock()
			w.pending[event.Name] = true
			if w.timer != nil {
				w.timer.Stop()
			}
			w.timer = time.AfterFunc(w.debounce, flush)
			w.mu.Unlock()

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("watcher error", slog.String("error", err.Error()))
		}
	}
}

// watchDir recursively adds a directory to the watcher.
func (w *Watcher) watchDir(watcher *fsnotify.Watcher, dir string) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if path != dir && (strings.HasPrefix(d.Name(), ".") || d.Name() == "target") {
			return filepath.SkipDir
		}
		return watcher.Add(path)
	})
}

func (w *Watcher) flush() Batch {
	w.mu.Lock()
	paths := make([]string, 0, len(w.pending))
	for p := range w.pending {
		paths = append(paths, p)
	}
	w.pending = make(map[string]bool)
	w.mu.Unlock()

	return w.Apply(paths)
}

// Apply reads the given absolute paths and updates the database. Files
// that no longer exist are emptied, which drops their items.
func (w *Watcher) Apply(paths []string) Batch {
	sort.Strings(paths)
	var batch Batch
	for _, abs := range paths {
		rel, err := filepath.Rel(w.root, abs)
		if err != nil {
			w.logger.Warn("ignoring change outside root", slog.String("path", abs))
			continue
		}
		rel = filepath.ToSlash(rel)

		data, err := os.ReadFile(abs)
		switch {
		case errors.Is(err, fs.ErrNotExist):
			if id, ok := w.db.Files().Lookup(rel); ok {
				w.db.SetFileText(id, "")
				batch.Removed = append(batch.Removed, rel)
			}
		case err != nil:
			w.logger.Warn("failed to read changed file", slog.String("path", rel), slog.String("error", err.Error()))
		default:
			w.db.UpsertFile(rel, string(data))
			batch.Changed = append(batch.Changed, rel)
		}
	}
	w.logger.Debug("applied changes", slog.Int("changed", len(batch.Changed)), slog.Int("removed", len(batch.Removed)))
	return batch
}
