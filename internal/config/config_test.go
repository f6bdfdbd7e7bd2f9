package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/scarab-term/scarab/internal/protocol"
)

func TestDefaultConfig(t *testing.T) {
	cfg, err := DefaultConfig()
	if err != nil {
		t.Fatalf("DefaultConfig: %v", err)
	}
	if cfg.SocketPath != protocol.DefaultSocketPath {
		t.Errorf("socket = %q", cfg.SocketPath)
	}
	if cfg.ShmemPath != protocol.DefaultShmemPath {
		t.Errorf("shmem = %q", cfg.ShmemPath)
	}
	if cfg.Cols != protocol.DefaultGridWidth || cfg.Rows != protocol.DefaultGridHeight {
		t.Errorf("grid = %dx%d", cfg.Cols, cfg.Rows)
	}
	if cfg.LogLevel != "info" {
		t.Errorf("log level = %q", cfg.LogLevel)
	}
}

func TestApplyFileOverrides(t *testing.T) {
	cfg, err := DefaultConfig()
	if err != nil {
		t.Fatalf("DefaultConfig: %v", err)
	}
	err = cfg.applyFile([]byte(`{"socket_path":"/tmp/x.sock","cols":132,"log_level":"debug"}`))
	if err != nil {
		t.Fatalf("applyFile: %v", err)
	}
	if cfg.SocketPath != "/tmp/x.sock" {
		t.Errorf("socket = %q", cfg.SocketPath)
	}
	if cfg.Cols != 132 {
		t.Errorf("cols = %d", cfg.Cols)
	}
	if cfg.LogLevel != "debug" {
		t.Errorf("log level = %q", cfg.LogLevel)
	}
	// Untouched fields keep their defaults.
	if cfg.Rows != protocol.DefaultGridHeight {
		t.Errorf("rows = %d, want default", cfg.Rows)
	}
}

func TestApplyFileRejectsBadJSON(t *testing.T) {
	cfg, err := DefaultConfig()
	if err != nil {
		t.Fatalf("DefaultConfig: %v", err)
	}
	if err := cfg.applyFile([]byte("{nope")); err == nil {
		t.Errorf("expected parse error")
	}
}

func TestEnvOverridesWinOverFile(t *testing.T) {
	t.Setenv(protocol.EnvSocketPath, "/tmp/env.sock")
	t.Setenv(protocol.EnvShmemPath, "/dev/shm/env_shm")
	t.Setenv("SCARAB_COLS", "90")
	t.Setenv("SCARAB_ROWS", "33")
	t.Setenv("SCARAB_LOG_LEVEL", "warn")

	cfg, err := DefaultConfig()
	if err != nil {
		t.Fatalf("DefaultConfig: %v", err)
	}
	if err := cfg.applyFile([]byte(`{"socket_path":"/tmp/file.sock","cols":132}`)); err != nil {
		t.Fatalf("applyFile: %v", err)
	}
	cfg.applyEnv()

	if cfg.SocketPath != "/tmp/env.sock" {
		t.Errorf("socket = %q, env should win", cfg.SocketPath)
	}
	if cfg.ShmemPath != "/dev/shm/env_shm" {
		t.Errorf("shmem = %q", cfg.ShmemPath)
	}
	if cfg.Cols != 90 || cfg.Rows != 33 {
		t.Errorf("grid = %dx%d, want 90x33", cfg.Cols, cfg.Rows)
	}
	if cfg.LogLevel != "warn" {
		t.Errorf("log level = %q", cfg.LogLevel)
	}
}

func TestLoadFromExplicitPath(t *testing.T) {
	path := filepath.Join(t.TempDir(), "alt.json")
	if err := os.WriteFile(path, []byte(`{"cols":90,"log_level":"debug"}`), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := LoadFrom(path)
	if err != nil {
		t.Fatalf("LoadFrom: %v", err)
	}
	if cfg.Cols != 90 || cfg.LogLevel != "debug" {
		t.Errorf("cols = %d, log level = %q", cfg.Cols, cfg.LogLevel)
	}
	// The watcher follows the chosen file.
	if cfg.Paths.ConfigPath != path {
		t.Errorf("config path = %q, want %q", cfg.Paths.ConfigPath, path)
	}
}

func TestLoadFromMissingExplicitFileFails(t *testing.T) {
	if _, err := LoadFrom(filepath.Join(t.TempDir(), "nope.json")); err == nil {
		t.Errorf("explicitly named config file must exist")
	}
}

func TestEnvIgnoresInvalidNumbers(t *testing.T) {
	t.Setenv("SCARAB_COLS", "many")
	t.Setenv("SCARAB_ROWS", "-4")

	cfg, err := DefaultConfig()
	if err != nil {
		t.Fatalf("DefaultConfig: %v", err)
	}
	cfg.applyEnv()
	if cfg.Cols != protocol.DefaultGridWidth || cfg.Rows != protocol.DefaultGridHeight {
		t.Errorf("grid = %dx%d, invalid env values should be ignored", cfg.Cols, cfg.Rows)
	}
}
