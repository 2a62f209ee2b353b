package indexing

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"fermata/src/features/config"
)

// Watcher is a filesystem monitor that triggers re-indexing after changes
// under the media root settle.
type Watcher interface {
	Start(ctx context.Context, watchPath string) error
	Stop()
}

// WatcherFactory builds a watcher wired to a trigger callback. A stopped
// watcher cannot be restarted, so enabling constructs a fresh one.
type WatcherFactory func(trigger func()) (Watcher, error)

// WatchManager owns the lifecycle of the media root watcher and converts
// its triggers into indexing runs.
type WatchManager struct {
	service    *Service
	config     *config.Manager
	newWatcher WatcherFactory

	mu      sync.Mutex
	watcher Watcher
}

// NewWatchManager creates a new watch manager.
func NewWatchManager(service *Service, cfg *config.Manager, factory WatcherFactory) *WatchManager {
	return &WatchManager{
		service:    service,
		config:     cfg,
		newWatcher: factory,
	}
}

// Enabled reports whether the watcher is currently active.
func (m *WatchManager) Enabled() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.watcher != nil
}

// Enable starts watching the media root. No-op when already enabled.
func (m *WatchManager) Enable(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.watcher != nil {
		return nil
	}

	watcher, err := m.newWatcher(m.onTrigger)
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	if err := watcher.Start(ctx, m.config.Get().MediaPath); err != nil {
		return fmt.Errorf("failed to start watcher: %w", err)
	}
	m.watcher = watcher
	return nil
}

// Disable stops the watcher. No-op when already disabled.
func (m *WatchManager) Disable() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.watcher == nil {
		return
	}
	m.watcher.Stop()
	m.watcher = nil
}

// onTrigger starts an indexing run in response to filesystem changes. A run
// already in flight picks up nothing new, so the trigger is simply skipped;
// the next quiet window fires again.
func (m *WatchManager) onTrigger() {
	events, err := m.service.Start()
	if err != nil {
		if errors.Is(err, ErrRunInProgress) {
			slog.Debug("WatchManager: indexing already running, skipping trigger")
		} else {
			slog.Error("WatchManager: failed to start indexing run", "error", err)
		}
		return
	}
	go func() {
		for range events {
		}
	}()
}
