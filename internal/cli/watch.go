package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Watcher signals when any source file of a deck changes. Directories are watched instead
// of files so editors that replace a file on save keep triggering reloads.
type Watcher struct {
	delay  time.Duration
	logger *slog.Logger

	mu    sync.Mutex
	files map[string]bool
	dirs  map[string]bool
	fsw   *fsnotify.Watcher
}

// WatchOption configures a Watcher.
type WatchOption func(*Watcher)

// WithDebounce sets how long the watcher waits for writes to settle.
func WithDebounce(d time.Duration) WatchOption {
	return func(w *Watcher) {
		w.delay = d
	}
}

// WithWatchLogger sets the watcher logger.
func WithWatchLogger(logger *slog.Logger) WatchOption {
	return func(w *Watcher) {
		w.logger = logger
	}
}

// NewWatcher creates a watcher over files.
func NewWatcher(files []string, opts ...WatchOption) *Watcher {
	w := &Watcher{
		delay:  100 * time.Millisecond,
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
		files:  map[string]bool{},
		dirs:   map[string]bool{},
	}
	for _, opt := range opts {
		opt(w)
	}
	w.setFiles(files)
	return w
}

// SetFiles replaces the watched files, typically with the sources of a reloaded deck.
func (w *Watcher) SetFiles(files []string) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.setFiles(files)
	return w.addDirs()
}

func (w *Watcher) setFiles(files []string) {
	w.files = map[string]bool{}
	for _, f := range files {
		abs, err := filepath.Abs(f)
		if err != nil {
			continue
		}
		w.files[abs] = true
	}
}

func (w *Watcher) addDirs() error {
	if w.fsw == nil {
		return nil
	}
	for f := range w.files {
		dir := filepath.Dir(f)
		if w.dirs[dir] {
			continue
		}
		if err := w.fsw.Add(dir); err != nil {
			return fmt.Errorf("failed to watch %s: %w", dir, err)
		}
		w.dirs[dir] = true
	}
	return nil
}

func (w *Watcher) watched(name string) bool {
	abs, err := filepath.Abs(name)
	if err != nil {
		return false
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.files[abs]
}

// Watch implements ports.Watchable. The channel is closed when ctx is done.
func (w *Watcher) Watch(ctx context.Context) (<-chan struct{}, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create watcher: %w", err)
	}
	w.mu.Lock()
	w.fsw = fsw
	err = w.addDirs()
	w.mu.Unlock()
	if err != nil {
		fsw.Close()
		return nil, err
	}

	ch := make(chan struct{}, 1)
	go w.loop(ctx, fsw, ch)
	return ch, nil
}

func (w *Watcher) loop(ctx context.Context, fsw *fsnotify.Watcher, ch chan<- struct{}) {
	defer close(ch)
	defer fsw.Close()

	timer := time.NewTimer(w.delay)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-fsw.Events:
			if !ok {
				return
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}
			if !w.watched(event.Name) {
				continue
			}
			w.logger.Debug("source changed", "file", event.Name, "op", event.Op.String())
			timer.Reset(w.delay)
		case err, ok := <-fsw.Errors:
			if !ok {
				return
			}
			w.logger.Warn("watcher error", "err", err)
		case <-timer.C:
			select {
			case ch <- struct{}{}:
			default:
				// a reload is already pending
			}
		}
	}
}
