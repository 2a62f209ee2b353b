package config

// Config holds the application configuration.
type Config struct {
	MediaPath string    `yaml:"mediaPath" validate:"required"`
	Logger    Logger    `yaml:"logger"`
	Server    Server    `yaml:"server"`
	Database  Database  `yaml:"database"`
	Auth      Auth      `yaml:"auth"`
	Indexing  Indexing  `yaml:"indexing"`
	Streaming Streaming `yaml:"streaming"`
	Jobs      Jobs      `yaml:"jobs"`
}

// Database holds the configuration for the database
type Database struct {
	Path string `yaml:"path" validate:"required"`
}

// Server holds the configuration for the Fiber server
type Server struct {
	PrintRoutes bool   `yaml:"show_routes"`
	Port        uint32 `yaml:"port"`
}

// Logger holds the configuration for the app logging
type Logger struct {
	Enabled bool   `yaml:"enabled"`
	Level   string `yaml:"level"`
	Format  string `yaml:"format"`
}

// Auth holds the configuration for the admin gate. The token secret is never
// written to disk; it is taken from the FERMATA_AUTH_SECRET environment
// variable at load time.
type Auth struct {
	Enabled bool    `yaml:"enabled"`
	Secret  *string `yaml:"-"`
}

// Indexing holds the configuration for the media library indexer.
type Indexing struct {
	// Extensions supplements the built-in audio extension set, entries
	// without a leading dot are accepted.
	Extensions []string `yaml:"extensions"`
	// Watch starts the filesystem watcher at boot, re-indexing on changes.
	Watch bool `yaml:"watch"`
	// WatchDebounce is how long to wait after the last filesystem event
	// before triggering a re-index, in seconds.
	WatchDebounce int `yaml:"watch_debounce"`
}

// Streaming holds the configuration for the range stream server.
type Streaming struct {
	// ChunkSize is the read buffer size for file delivery, in bytes.
	ChunkSize int `yaml:"chunk_size"`
}

// Jobs holds the configuration for background run tracking.
type Jobs struct {
	Log      bool          `yaml:"log"`
	LogPath  string        `yaml:"log_path"`
	Webhooks WebhookConfig `yaml:"webhooks"`
}

// WebhookConfig configures the shell command executed when a job finishes.
type WebhookConfig struct {
	Enabled  bool     `yaml:"enabled"`
	JobTypes []string `yaml:"job_types"`
	Command  string   `yaml:"command"`
}
