package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoad_CreatesDefaultConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")

	// Keep generated directories inside the temp dir.
	cwd, err := os.Getwd()
	if err != nil {
		t.Fatalf("getwd failed: %v", err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("chdir failed: %v", err)
	}
	t.Cleanup(func() { os.Chdir(cwd) })

	manager, err := Load(path)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}

	if _, err := os.Stat(path); err != nil {
		t.Errorf("expected default config file to be written: %v", err)
	}

	cfg := manager.Get()
	if cfg.Server.Port != 3636 {
		t.Errorf("expected default port 3636, got %d", cfg.Server.Port)
	}
	if cfg.MediaPath == "" {
		t.Error("expected a default media path")
	}
	if cfg.Auth.Enabled {
		t.Error("auth must default to disabled")
	}
}

func TestLoad_ReadsExistingConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	mediaPath := filepath.Join(dir, "music")
	dbPath := filepath.Join(dir, "catalog.db")

	content := "mediaPath: " + mediaPath + "\n" +
		"database:\n  path: " + dbPath + "\n" +
		"server:\n  port: 9000\n"
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write failed: %v", err)
	}

	manager, err := Load(path)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}

	cfg := manager.Get()
	if cfg.Server.Port != 9000 {
		t.Errorf("expected port 9000, got %d", cfg.Server.Port)
	}
	if cfg.MediaPath != mediaPath {
		t.Errorf("expected media path %s, got %s", mediaPath, cfg.MediaPath)
	}
	if _, err := os.Stat(mediaPath); err != nil {
		t.Errorf("expected media directory to be created: %v", err)
	}
}

func TestLoad_RejectsInvalidConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")

	// mediaPath is required.
	if err := os.WriteFile(path, []byte("server:\n  port: 9000\n"), 0644); err != nil {
		t.Fatalf("write failed: %v", err)
	}

	if _, err := Load(path); err == nil {
		t.Fatal("expected validation error for config without mediaPath")
	}
}

func TestLoad_EnvSecretOverride(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	mediaPath := filepath.Join(dir, "music")
	dbPath := filepath.Join(dir, "catalog.db")

	content := "mediaPath: " + mediaPath + "\n" +
		"database:\n  path: " + dbPath + "\n" +
		"auth:\n  enabled: true\n"
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write failed: %v", err)
	}

	t.Setenv("FERMATA_AUTH_SECRET", "from-env")

	manager, err := Load(path)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}

	cfg := manager.Get()
	if cfg.Auth.Secret == nil || *cfg.Auth.Secret != "from-env" {
		t.Error("expected auth secret from environment")
	}
}
