package adapter

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	m "github.com/mouse-blink/gorewrite/internal/model"
)

// DefaultDebounce is the quiet period a WatchSource waits for after a change
// before it reloads.
const DefaultDebounce = 100 * time.Millisecond

// WatchSource presents a new round every time a Go file below the source
// directory changes. Files that did not change are presented again; the
// collector drops them. Cancelling the context ends the sequence with an
// empty final round.
type WatchSource struct {
	mu       sync.Mutex
	source   *PackagesSource
	debounce time.Duration
	logger   *slog.Logger
	watcher  *fsnotify.Watcher
	round    int
	done     bool
}

// WatchOption configures a WatchSource.
type WatchOption func(*WatchSource)

// WithDebounce sets the quiet period after a change.
func WithDebounce(d time.Duration) WatchOption {
	return func(w *WatchSource) { w.debounce = d }
}

// WithWatchLogger sets the logger used for watcher errors.
func WithWatchLogger(logger *slog.Logger) WatchOption {
	return func(w *WatchSource) {
		if logger != nil {
			w.logger = logger
		}
	}
}

// NewWatchSource wraps source in a file watcher.
func NewWatchSource(source *PackagesSource, opts ...WatchOption) *WatchSource {
	w := &WatchSource{
		source:   source,
		debounce: DefaultDebounce,
		logger:   slog.New(slog.DiscardHandler),
	}

	for _, opt := range opts {
		opt(w)
	}

	return w
}

// Next returns the initial load on the first call and then blocks until
// the next change.
func (w *WatchSource) Next(ctx context.Context) (m.Round, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.done {
		return m.Round{}, io.EOF
	}

	if w.watcher == nil {
		if err := w.start(); err != nil {
			return m.Round{}, err
		}
	} else if !w.wait(ctx) {
		return w.finish(), nil
	}

	units, err := w.source.Load(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return w.finish(), nil
		}

		return m.Round{}, err
	}

	w.round++

	return m.Round{Number: w.round, Units: units}, nil
}

// Close stops watching.
func (w *WatchSource) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.finish()

	return nil
}

func (w *WatchSource) start() error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating watcher: %w", err)
	}

	if err := watchDirRecursive(watcher, w.source.Dir()); err != nil {
		_ = watcher.Close()
		return fmt.Errorf("watching %s: %w", w.source.Dir(), err)
	}

	w.watcher = watcher

	return nil
}

// wait blocks until a Go file changed and the debounce period passed
// without further changes. It returns false when ctx is done.
func (w *WatchSource) wait(ctx context.Context) bool {
	var quiet <-chan time.Time

	for {
		select {
		case <-ctx.Done():
			return false

		case event, ok := <-w.watcher.Events:
			if !ok {
				return false
			}

			if event.Op.Has(fsnotify.Create) {
				w.watchNewDir(event.Name)
			}

			if filepath.Ext(event.Name) != ".go" {
				continue
			}

			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}

			w.logger.Debug("file changed", slog.String("file", event.Name), slog.String("op", event.Op.String()))
			quiet = time.After(w.debounce)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return false
			}

			w.logger.Error("watcher error", slog.String("error", err.Error()))

		case <-quiet:
			return true
		}
	}
}

func (w *WatchSource) watchNewDir(path string) {
	if skipDir(filepath.Base(path)) {
		return
	}

	if err := watchDirRecursive(w.watcher, path); err != nil {
		w.logger.Debug("not watching", slog.String("path", path), slog.String("error", err.Error()))
	}
}

func (w *WatchSource) finish() m.Round {
	if w.watcher != nil {
		_ = w.watcher.Close()
	}

	w.done = true
	w.round++

	return m.Round{Number: w.round, Final: true}
}

// watchDirRecursive adds dir and its source subdirectories to the watcher.
func watchDirRecursive(watcher *fsnotify.Watcher, dir string) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		if !d.IsDir() {
			return nil
		}

		if path != dir && skipDir(d.Name()) {
			return filepath.SkipDir
		}

		return watcher.Add(path)
	})
}

// skipDir reports whether a directory holds no sources worth watching.
func skipDir(name string) bool {
	return strings.HasPrefix(name, ".") || strings.HasPrefix(name, "_") || name == "testdata" || name == "vendor"
}
