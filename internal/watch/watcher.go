// Package watch re-analyzes the manuscript whenever it changes on disk.
package watch

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"git.home.luguber.info/inful/scenetrack/internal/logfields"
)

// Watcher monitors a single manuscript file and invokes a callback after
// changes settle. Editors save through temp-file renames, so the watch is on
// the containing directory with events filtered down to the manuscript name.
type Watcher struct {
	path       string
	onChange   func(context.Context)
	watcher    *fsnotify.Watcher
	mu         sync.Mutex
	stopChan   chan struct{}
	changeChan chan struct{}
	debounce   time.Duration
	started    bool
}

// NewWatcher creates a watcher for the manuscript at path. onChange runs on a
// watcher goroutine after each debounced burst of file events.
func NewWatcher(path string, debounce time.Duration, onChange func(context.Context)) (*Watcher, error) {
	if onChange == nil {
		return nil, fmt.Errorf("nil onChange callback")
	}
	if debounce <= 0 {
		debounce = 400 * time.Millisecond
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create file watcher: %w", err)
	}

	absPath, err := filepath.Abs(path)
	if err != nil {
		_ = fsw.Close()
		return nil, fmt.Errorf("resolve manuscript path: %w", err)
	}

	return &Watcher{
		path:       absPath,
		onChange:   onChange,
		watcher:    fsw,
		stopChan:   make(chan struct{}),
		changeChan: make(chan struct{}, 1),
		debounce:   debounce,
	}, nil
}

// Path returns the absolute manuscript path under watch.
func (w *Watcher) Path() string { return w.path }

// Start begins monitoring. It returns immediately; events are handled on
// background goroutines until Stop or context cancellation.
func (w *Watcher) Start(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.started {
		return fmt.Errorf("watcher already started")
	}

	dir := filepath.Dir(w.path)
	if err := w.watcher.Add(dir); err != nil {
		return fmt.Errorf("watch directory %s: %w", dir, err)
	}
	w.started = true

	slog.Info("Watching manuscript", logfields.Path(w.path))

	go w.watchLoop(ctx)
	go w.debounceLoop(ctx)

	return nil
}

// Stop stops the watcher and releases the inotify handle.
func (w *Watcher) Stop() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	select {
	case <-w.stopChan:
		return nil
	default:
	}
	close(w.stopChan)
	return w.watcher.Close()
}

// Trigger queues a re-analysis as if the file had changed. The polling
// fallback uses this for filesystems that do not deliver inotify events.
func (w *Watcher) Trigger() {
	select {
	case w.changeChan <- struct{}{}:
	default:
		// Change already pending
	}
}

func (w *Watcher) watchLoop(ctx context.Context) {
	name := filepath.Base(w.path)

	for {
		select {
		case <-ctx.Done():
			return
		case <-w.stopChan:
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if filepath.Base(event.Name) != name {
				continue
			}
			switch {
			case event.Op.Has(fsnotify.Write), event.Op.Has(fsnotify.Create), event.Op.Has(fsnotify.Rename):
				slog.Debug("Manuscript change detected", logfields.Path(event.Name))
				w.Trigger()
			case event.Op.Has(fsnotify.Remove):
				slog.Warn("Manuscript removed", logfields.Path(event.Name))
			}
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			slog.Error("Manuscript watcher error", logfields.Error(err))
		}
	}
}

func (w *Watcher) debounceLoop(ctx context.Context) {
	var timer *time.Timer

	for {
		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			return
		case <-w.stopChan:
			if timer != nil {
				timer.Stop()
			}
			return
		case <-w.changeChan:
			if timer != nil {
				timer.Stop()
			}
			timer = time.AfterFunc(w.debounce, func() {
				w.onChange(ctx)
			})
		}
	}
}
