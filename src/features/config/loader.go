package config

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// Load reads a YAML file from the given path and returns a new Manager.
// If the file doesn't exist, creates a default configuration.
func Load(path string) (*Manager, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		slog.Info("Config file not found, creating default configuration", "path", path)
		defaultCfg := createDefaultConfig()

		if err := saveDefaultConfig(path, defaultCfg); err != nil {
			return nil, fmt.Errorf("failed to create default config: %w", err)
		}

		applyEnvOverrides(defaultCfg)
		manager := NewManager(defaultCfg)
		if err := manager.EnsureDirectories(); err != nil {
			return nil, err
		}
		return manager, nil
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var cfg Config
	if err := yaml.NewDecoder(f).Decode(&cfg); err != nil {
		return nil, err
	}

	validate := validator.New()
	if err := validate.Struct(cfg); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	applyEnvOverrides(&cfg)

	manager := NewManager(&cfg)
	if err := manager.EnsureDirectories(); err != nil {
		return nil, err
	}

	return manager, nil
}

// applyEnvOverrides pulls secrets and deployment overrides from the
// environment so they never land in the config file.
func applyEnvOverrides(cfg *Config) {
	if secret := os.Getenv("FERMATA_AUTH_SECRET"); secret != "" {
		cfg.Auth.Secret = &secret
	}
	if mediaPath := os.Getenv("FERMATA_MEDIA_PATH"); mediaPath != "" {
		cfg.MediaPath = mediaPath
	}
}

// createDefaultConfig creates a new Config with sensible default values
func createDefaultConfig() *Config {
	return &Config{
		MediaPath: "./music",
		Logger: Logger{
			Enabled: true,
			Level:   "info",
			Format:  "text",
		},
		Server: Server{
			PrintRoutes: false,
			Port:        3636,
		},
		Database: Database{
			Path: "./catalog.db",
		},
		Auth: Auth{
			Enabled: false,
		},
		Indexing: Indexing{
			Extensions:    []string{},
			Watch:         false,
			WatchDebounce: 5,
		},
		Streaming: Streaming{
			ChunkSize: 64 * 1024,
		},
		Jobs: Jobs{
			Log:     true,
			LogPath: "./logs/jobs",
			Webhooks: WebhookConfig{
				Enabled:  false,
				JobTypes: []string{},
				Command:  "",
			},
		},
	}
}

// saveDefaultConfig saves the default configuration to the specified file path
func saveDefaultConfig(path string, cfg *Config) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}
	defer file.Close()
	encoder := yaml.NewEncoder(file)
	encoder.SetIndent(2)
	if err := encoder.Encode(cfg); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	slog.Info("Default configuration saved", "path", path)
	return nil
}
