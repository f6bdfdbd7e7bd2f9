package config

import (
	"context"
	"os"
	"path/filepath"

	"github.com/fsnotify/fsnotify"

	"github.com/scarab-term/scarab/internal/logging"
)

// Watch observes the config file and applies the settings that can
// change at runtime (currently the log level) without a restart. It
// watches the containing directory so editors that replace the file
// via rename are picked up. Blocks until ctx is cancelled.
func Watch(ctx context.Context, cfg *Config) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	dir := filepath.Dir(cfg.Paths.ConfigPath)
	if err := watcher.Add(dir); err != nil {
		return err
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if event.Name != cfg.Paths.ConfigPath {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			reload(cfg)
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logging.Warn("config watcher: %v", err)
		}
	}
}

func reload(cfg *Config) {
	data, err := os.ReadFile(cfg.Paths.ConfigPath)
	if err != nil {
		logging.Warn("config reload: %v", err)
		return
	}
	var user Config
	if err := user.applyFile(data); err != nil {
		logging.Warn("config reload: %v", err)
		return
	}
	if user.LogLevel != "" && user.LogLevel != cfg.LogLevel {
		cfg.LogLevel = user.LogLevel
		logging.SetLevel(logging.ParseLevel(user.LogLevel))
		logging.Info("log level changed to %s", user.LogLevel)
	}
}
