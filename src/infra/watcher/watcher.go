package watcher

import (
	"context"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Watcher monitors the media root for file changes and triggers a callback
// after a debounce window, so a burst of writes (a whole album copied in)
// collapses into one trigger.
type Watcher struct {
	watcher       *fsnotify.Watcher
	watchPath     string
	supports      func(path string) bool
	debounce      time.Duration
	trigger       func()
	debounceTimer *time.Timer
	debounceMutex sync.Mutex
	running       bool
	stopChan      chan struct{}
}

// NewWatcher creates a new file system watcher. supports filters events to
// relevant files; trigger fires once per quiet debounce window.
func NewWatcher(supports func(path string) bool, debounce time.Duration, trigger func()) (*Watcher, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	return &Watcher{
		watcher:  watcher,
		supports: supports,
		debounce: debounce,
		trigger:  trigger,
		stopChan: make(chan struct{}),
	}, nil
}

// Start begins watching watchPath and all its subdirectories.
func (w *Watcher) Start(ctx context.Context, watchPath string) error {
	w.watchPath = watchPath
	slog.Info("Starting file watcher", "path", watchPath)

	// fsnotify watches are not recursive; register every subdirectory.
	err := filepath.WalkDir(watchPath, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == watchPath {
				return err
			}
			slog.Warn("File watcher: skipping unreadable entry", "path", path, "error", err)
			return nil
		}
		if d.IsDir() {
			if err := w.watcher.Add(path); err != nil {
				slog.Warn("File watcher: failed to watch directory", "path", path, "error", err)
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	w.running = true
	go w.watchLoop(ctx)

	slog.Info("File watcher started successfully")
	return nil
}

// Stop stops the file watcher.
func (w *Watcher) Stop() {
	if !w.running {
		return
	}

	slog.Info("Stopping file watcher")
	w.running = false
	close(w.stopChan)

	w.debounceMutex.Lock()
	if w.debounceTimer != nil {
		w.debounceTimer.Stop()
		w.debounceTimer = nil
	}
	w.debounceMutex.Unlock()

	w.watcher.Close()
}

func (w *Watcher) watchLoop(ctx context.Context) {
	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			w.handleEvent(event)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			slog.Error("File watcher error", "error", err)

		case <-w.stopChan:
			return

		case <-ctx.Done():
			return
		}
	}
}

func (w *Watcher) handleEvent(event fsnotify.Event) {
	// New directories must be registered so their contents are seen too.
	if event.Op&fsnotify.Create == fsnotify.Create {
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
			if err := w.watcher.Add(event.Name); err != nil {
				slog.Warn("File watcher: failed to watch new directory", "path", event.Name, "error", err)
			}
		}
	}

	if event.Op&(fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
		return
	}
	if !w.supports(event.Name) {
		return
	}

	slog.Info("Detected media file change", "file", event.Name, "op", event.Op.String())

	w.debounceMutex.Lock()
	defer w.debounceMutex.Unlock()

	if w.debounceTimer != nil {
		w.debounceTimer.Stop()
	}
	w.debounceTimer = time.AfterFunc(w.debounce, func() {
		slog.Info("File watcher: debounce window elapsed, triggering")
		w.trigger()
	})
}
