// Package watcher reloads the record file when it changes on disk.
package watcher

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/brianfmorissette/chatgpt-champion/pkg/logger"
)

// DefaultDebounce coalesces the burst of events editors and exporters emit
// for a single save.
const DefaultDebounce = 500 * time.Millisecond

// ReloadFunc re-reads the watched file.
type ReloadFunc func(ctx context.Context) error

// Watcher observes a single file through its parent directory so that
// atomic replace-by-rename is seen as a Create.
type Watcher struct {
	path     string
	reload   ReloadFunc
	debounce time.Duration
	logger   logger.Logger

	mu    sync.Mutex
	timer *time.Timer
}

// Option configures a Watcher.
type Option func(*Watcher)

// WithLogger sets the watcher's logger.
func WithLogger(l logger.Logger) Option {
	return func(w *Watcher) {
		if l != nil {
			w.logger = l
		}
	}
}

// WithDebounce sets the quiet period before a reload fires.
func WithDebounce(d time.Duration) Option {
	return func(w *Watcher) {
		if d > 0 {
			w.debounce = d
		}
	}
}

// New creates a watcher for path.
func New(path string, reload ReloadFunc, opts ...Option) (*Watcher, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, ErrNoPath
	}
	if reload == nil {
		return nil, ErrNoReload
	}
	if abs, err := filepath.Abs(path); err == nil {
		path = abs
	}
	w := &Watcher{
		path:     filepath.Clean(path),
		reload:   reload,
		debounce: DefaultDebounce,
	}
	for _, opt := range opts {
		opt(w)
	}
	if w.logger == nil {
		w.logger = logger.Nop()
	}
	return w, nil
}

// Path returns the absolute path being watched.
func (w *Watcher) Path() string { return w.path }

// Run watches until ctx is cancelled. It returns nil on cancellation and an
// error only if the underlying watch cannot be established.
func (w *Watcher) Run(ctx context.Context) error {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("watcher: %w", err)
	}
	defer fsw.Close()

	if err := fsw.Add(filepath.Dir(w.path)); err != nil {
		return fmt.Errorf("watcher: add %s: %w", filepath.Dir(w.path), err)
	}
	w.logger.Info(ctx, "watching record file", logger.String("path", w.path))

	defer w.cancelPending()
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-fsw.Events:
			if !ok {
				return nil
			}
			if w.relevant(ev) {
				w.schedule(ctx)
			}
		case err, ok := <-fsw.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn(ctx, "watcher error", logger.Error(err))
		}
	}
}

func (w *Watcher) relevant(ev fsnotify.Event) bool {
	if ev.Op&(fsnotify.Write|fsnotify.Create) == 0 {
		return false
	}
	return filepath.Clean(ev.Name) == w.path
}

func (w *Watcher) schedule(ctx context.Context) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.debounce, func() {
		if ctx.Err() != nil {
			return
		}
		start := time.Now()
		if err := w.reload(ctx); err != nil {
			w.logger.Error(ctx, "reload after file change failed", logger.String("path", w.path), logger.Error(err))
			return
		}
		w.logger.Info(ctx, "reloaded record file", logger.String("path", w.path), logger.Duration("took", time.Since(start)))
	})
}

func (w *Watcher) cancelPending() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.timer != nil {
		w.timer.Stop()
		w.timer = nil
	}
}
