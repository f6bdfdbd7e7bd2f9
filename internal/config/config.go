package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"

	"github.com/scarab-term/scarab/internal/protocol"
)

// Config holds the daemon configuration.
type Config struct {
	SocketPath string `json:"socket_path,omitempty"`
	ShmemPath  string `json:"shmem_path,omitempty"`
	Shell      string `json:"shell,omitempty"`
	Cols       int    `json:"cols,omitempty"`
	Rows       int    `json:"rows,omitempty"`
	LogLevel   string `json:"log_level,omitempty"`

	Paths *Paths `json:"-"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() (*Config, error) {
	paths, err := DefaultPaths()
	if err != nil {
		return nil, err
	}

	return &Config{
		SocketPath: protocol.DefaultSocketPath,
		ShmemPath:  protocol.DefaultShmemPath,
		Shell:      "",
		Cols:       protocol.DefaultGridWidth,
		Rows:       protocol.DefaultGridHeight,
		LogLevel:   "info",
		Paths:      paths,
	}, nil
}

// Load builds the effective configuration: defaults, then overrides
// from ~/.scarab/config.json if present, then environment variables.
func Load() (*Config, error) {
	return LoadFrom("")
}

// LoadFrom is Load with an explicit config file path. An empty path
// uses the default location, where a missing file is fine; a named
// file must exist.
func LoadFrom(path string) (*Config, error) {
	cfg, err := DefaultConfig()
	if err != nil {
		return nil, err
	}
	if path != "" {
		cfg.Paths.ConfigPath = path
	}

	data, err := os.ReadFile(cfg.Paths.ConfigPath)
	if err != nil {
		if os.IsNotExist(err) && path == "" {
			cfg.applyEnv()
			return cfg, nil
		}
		return nil, err
	}
	if err := cfg.applyFile(data); err != nil {
		return nil, fmt.Errorf("parse %s: %w", cfg.Paths.ConfigPath, err)
	}

	cfg.applyEnv()
	return cfg, nil
}

func (c *Config) applyFile(data []byte) error {
	var user Config
	if err := json.Unmarshal(data, &user); err != nil {
		return err
	}
	if user.SocketPath != "" {
		c.SocketPath = user.SocketPath
	}
	if user.ShmemPath != "" {
		c.ShmemPath = user.ShmemPath
	}
	if user.Shell != "" {
		c.Shell = user.Shell
	}
	if user.Cols > 0 {
		c.Cols = user.Cols
	}
	if user.Rows > 0 {
		c.Rows = user.Rows
	}
	if user.LogLevel != "" {
		c.LogLevel = user.LogLevel
	}
	return nil
}

// applyEnv applies environment overrides. Environment wins over the
// config file so scripts can redirect a single daemon instance.
func (c *Config) applyEnv() {
	if v := os.Getenv(protocol.EnvSocketPath); v != "" {
		c.SocketPath = v
	}
	if v := os.Getenv(protocol.EnvShmemPath); v != "" {
		c.ShmemPath = v
	}
	if v := os.Getenv("SCARAB_SHELL"); v != "" {
		c.Shell = v
	}
	if v := os.Getenv("SCARAB_LOG_LEVEL"); v != "" {
		c.LogLevel = v
	}
	if v := os.Getenv(protocol.EnvCols); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			c.Cols = n
		}
	}
	if v := os.Getenv(protocol.EnvRows); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			c.Rows = n
		}
	}
}
