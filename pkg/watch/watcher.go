// Package watch rebuilds story and component files as they change on disk.
package watch

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/fsnotify/fsnotify"
)

// Rebuilder is the build side of the watcher.
type Rebuilder interface {
	Root() string
	Includes(path string) bool
	Excludes(path string) bool
	BuildFile(ctx context.Context, path string) (string, error)
	RemoveFile(path string) error
}

// Options configures file watching.
type Options struct {
	// Debounce groups rapid changes to one file into a single rebuild.
	// Zero means 200ms.
	Debounce time.Duration

	// IgnorePatterns are globs matched against base names.
	IgnorePatterns []string

	// OnBuild, when set, is called after every rebuild attempt.
	OnBuild func(path, output string, err error)
}

// DefaultOptions returns recommended watch options.
func DefaultOptions() Options {
	return Options{
		Debounce:       200 * time.Millisecond,
		IgnorePatterns: []string{"*.swp", "*.tmp", "*~", ".#*"},
	}
}

// ignoredDirs are never watched.
var ignoredDirs = map[string]bool{
	"node_modules": true,
	".git":         true,
	"dist":         true,
	".vuestories":  true,
}

// Watcher rebuilds files on change.
//
//	w, err := watch.New(builder, watch.DefaultOptions(), logger)
//	if err != nil {
//	    return err
//	}
//	defer w.Stop()
//	err = w.Start(ctx)
type Watcher struct {
	watcher *fsnotify.Watcher
	builder Rebuilder
	options Options
	logger  *slog.Logger

	debounceTimers map[string]*time.Timer
	debounceMu     sync.Mutex

	ctx      context.Context
	stopChan chan struct{}
	stopped  bool
	mu       sync.Mutex
}

// New creates a Watcher.
func New(builder Rebuilder, options Options, logger *slog.Logger) (*Watcher, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if options.Debounce <= 0 {
		options.Debounce = 200 * time.Millisecond
	}
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}
	return &Watcher{
		watcher:        w,
		builder:        builder,
		options:        options,
		logger:         logger,
		debounceTimers: make(map[string]*time.Timer),
		ctx:            context.Background(),
		stopChan:       make(chan struct{}),
	}, nil
}

// Start watches every directory under the builder root and processes
// events in the background until ctx ends or Stop is called.
func (w *Watcher) Start(ctx context.Context) error {
	w.mu.Lock()
	if w.stopped {
		w.mu.Unlock()
		return fmt.Errorf("watcher already stopped")
	}
	w.ctx = ctx
	w.mu.Unlock()

	root := w.builder.Root()
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil || !d.IsDir() {
			return nil
		}
		if path != root && w.ignoredDir(path) {
			return filepath.SkipDir
		}
		if err := w.watcher.Add(path); err != nil {
			w.logger.Warn("failed to watch directory", "path", path, "error", err)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to set up watches: %w", err)
	}

	w.logger.Info("file watcher started", "root", root)
	go w.eventLoop(ctx)
	return nil
}

// Stop stops the watcher. Idempotent.
func (w *Watcher) Stop() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.stopped {
		return nil
	}
	w.stopped = true
	close(w.stopChan)

	w.debounceMu.Lock()
	for _, timer := range w.debounceTimers {
		timer.Stop()
	}
	w.debounceTimers = make(map[string]*time.Timer)
	w.debounceMu.Unlock()

	err := w.watcher.Close()
	w.logger.Info("file watcher stopped")
	return err
}

func (w *Watcher) eventLoop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			_ = w.Stop()
			return
		case <-w.stopChan:
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			w.handleEvent(event)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Error("file watcher error", "error", err)
		}
	}
}

func (w *Watcher) handleEvent(event fsnotify.Event) {
	path := event.Name
	if w.ignored(path) {
		return
	}

	if event.Has(fsnotify.Create) && w.isDir(path) {
		if !w.ignoredDir(path) {
			if err := w.watcher.Add(path); err != nil {
				w.logger.Warn("failed to watch directory", "path", path, "error", err)
			}
		}
		return
	}
	if !w.builder.Includes(path) {
		return
	}

	w.logger.Debug("file event", "op", event.Op.String(), "file", path)
	switch {
	case event.Has(fsnotify.Write), event.Has(fsnotify.Create):
		w.debounceRebuild(path)
	case event.Has(fsnotify.Remove), event.Has(fsnotify.Rename):
		w.cancelPending(path)
		if err := w.builder.RemoveFile(path); err != nil {
			w.logger.Warn("failed to remove outputs", "file", path, "error", err)
		}
	}
}

// debounceRebuild schedules a rebuild of path, replacing any pending one.
func (w *Watcher) debounceRebuild(path string) {
	w.debounceMu.Lock()
	defer w.debounceMu.Unlock()

	if timer, exists := w.debounceTimers[path]; exists {
		timer.Stop()
	}
	w.debounceTimers[path] = time.AfterFunc(w.options.Debounce, func() {
		w.debounceMu.Lock()
		delete(w.debounceTimers, path)
		w.debounceMu.Unlock()
		w.rebuild(path)
	})
}

func (w *Watcher) cancelPending(path string) {
	w.debounceMu.Lock()
	defer w.debounceMu.Unlock()
	if timer, exists := w.debounceTimers[path]; exists {
		timer.Stop()
		delete(w.debounceTimers, path)
	}
}

func (w *Watcher) rebuild(path string) {
	start := time.Now()
	out, err := w.builder.BuildFile(w.ctx, path)
	if err != nil {
		w.logger.Warn("rebuild failed", "file", path, "error", err)
	} else {
		w.logger.Info("rebuilt", "file", path, "output", out, "duration", time.Since(start))
	}
	if w.options.OnBuild != nil {
		w.options.OnBuild(path, out, err)
	}
}

func (w *Watcher) isDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}

func (w *Watcher) ignoredDir(path string) bool {
	return ignoredDirs[filepath.Base(path)] || w.builder.Excludes(path)
}

func (w *Watcher) ignored(path string) bool {
	base := filepath.Base(path)
	for _, pattern := range w.options.IgnorePatterns {
		if matched, _ := doublestar.Match(pattern, base); matched {
			return true
		}
	}
	return false
}

// Stats returns watcher statistics.
func (w *Watcher) Stats() Stats {
	w.debounceMu.Lock()
	pending := len(w.debounceTimers)
	w.debounceMu.Unlock()

	w.mu.Lock()
	defer w.mu.Unlock()
	return Stats{PendingRebuilds: pending, IsRunning: !w.stopped}
}

// Stats contains watcher statistics.
type Stats struct {
	PendingRebuilds int
	IsRunning       bool
}
