package config

import (
	"os"
	"path/filepath"
)

// Paths holds the file system paths used by the daemon.
type Paths struct {
	Home       string // ~/.scarab
	DataRoot   string // ~/.scarab/data
	LogRoot    string // ~/.scarab/logs
	ConfigPath string // ~/.scarab/config.json
	DBPath     string // ~/.scarab/data/sessions.db
}

// DefaultPaths returns the default paths configuration.
func DefaultPaths() (*Paths, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, err
	}

	scarabHome := filepath.Join(home, ".scarab")

	return &Paths{
		Home:       scarabHome,
		DataRoot:   filepath.Join(scarabHome, "data"),
		LogRoot:    filepath.Join(scarabHome, "logs"),
		ConfigPath: filepath.Join(scarabHome, "config.json"),
		DBPath:     filepath.Join(scarabHome, "data", "sessions.db"),
	}, nil
}

// EnsureDirectories creates all required directories if they don't exist.
func (p *Paths) EnsureDirectories() error {
	dirs := []string{
		p.Home,
		p.DataRoot,
		p.LogRoot,
	}

	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return err
		}
	}

	return nil
}
