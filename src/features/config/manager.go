package config

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"sync"

	"gopkg.in/yaml.v3"
)

// Manager holds the application configuration and provides thread-safe access to it.
type Manager struct {
	mu     sync.RWMutex
	config *Config
}

// NewManager creates a new Manager.
func NewManager(config *Config) *Manager {
	return &Manager{config: config}
}

// Get returns the current configuration.
func (m *Manager) Get() *Config {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.config
}

// Update updates the configuration.
func (m *Manager) Update(config *Config) {
	m.mu.Lock()
	defer m.mu.Unlock()

	oldConfig := m.config
	m.config = config

	if oldConfig != nil {
		slog.Debug("Configuration updated",
			"media_path_changed", oldConfig.MediaPath != config.MediaPath,
			"watch_changed", oldConfig.Indexing.Watch != config.Indexing.Watch,
			"auth_enabled_changed", oldConfig.Auth.Enabled != config.Auth.Enabled,
		)
	}
}

// Save writes the current configuration to the specified file path.
func (m *Manager) Save(path string) error {
	m.mu.RLock()
	defer m.mu.RUnlock()

	file, err := os.Create(path)
	if err != nil {
		slog.Error("failed to create config file", "path", path, "error", err)
		return err
	}
	defer file.Close()

	encoder := yaml.NewEncoder(file)
	encoder.SetIndent(2)
	if err := encoder.Encode(m.config); err != nil {
		slog.Error("failed to encode config", "path", path, "error", err)
		return err
	}

	slog.Info("Configuration saved successfully", "path", path)
	return nil
}

// EnsureDirectories creates the media and job log directories if they don't exist.
func (m *Manager) EnsureDirectories() error {
	m.mu.RLock()
	cfg := m.config
	m.mu.RUnlock()

	if err := os.MkdirAll(cfg.MediaPath, 0755); err != nil {
		return fmt.Errorf("failed to create media directory %s: %w", cfg.MediaPath, err)
	}

	if cfg.Jobs.Log && cfg.Jobs.LogPath != "" {
		if err := os.MkdirAll(cfg.Jobs.LogPath, 0755); err != nil {
			return fmt.Errorf("failed to create job log directory %s: %w", cfg.Jobs.LogPath, err)
		}
	}

	slog.Info("Required directories created/verified", "media", cfg.MediaPath)
	return nil
}

// GetJSON returns the current configuration as a JSON string.
func (m *Manager) GetJSON() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	jsonBytes, err := json.Marshal(m.config)
	if err != nil {
		slog.Error("failed to marshal config to JSON", "error", err)
		return err.Error()
	}
	return string(jsonBytes)
}
