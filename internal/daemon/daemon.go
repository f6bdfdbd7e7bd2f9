// Package daemon wires the pieces of scarabd together: shared-memory
// output, the session manager with its sqlite store, the frame
// compositor, and the control socket.
package daemon

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/scarab-term/scarab/internal/config"
	"github.com/scarab-term/scarab/internal/control"
	"github.com/scarab-term/scarab/internal/logging"
	"github.com/scarab-term/scarab/internal/safego"
	"github.com/scarab-term/scarab/internal/session"
	"github.com/scarab-term/scarab/internal/shm"
)

// Run starts the daemon and blocks until ctx is cancelled or SIGINT /
// SIGTERM arrives. All resources are released before it returns.
func Run(ctx context.Context, cfg *config.Config) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := cfg.Paths.EnsureDirectories(); err != nil {
		return fmt.Errorf("create directories: %w", err)
	}
	if err := logging.Initialize(cfg.Paths.LogRoot, logging.ParseLevel(cfg.LogLevel)); err != nil {
		return fmt.Errorf("initialize logging: %w", err)
	}
	defer logging.Close()
	logging.Info("scarabd starting: socket=%s shmem=%s grid=%dx%d",
		cfg.SocketPath, cfg.ShmemPath, cfg.Cols, cfg.Rows)

	region, err := shm.Create(cfg.ShmemPath, cfg.Cols, cfg.Rows)
	if err != nil {
		return fmt.Errorf("create shared memory: %w", err)
	}
	defer region.Remove()
	writer, err := shm.NewWriter(region)
	if err != nil {
		return fmt.Errorf("shared memory writer: %w", err)
	}

	store, err := session.OpenStore(ctx, cfg.Paths.DBPath)
	if err != nil {
		return fmt.Errorf("open session store: %w", err)
	}
	defer store.Close()

	manager := session.NewManager(cfg.Shell, cfg.Cols, cfg.Rows, store)
	defer manager.Shutdown()
	if err := manager.Restore(ctx); err != nil {
		logging.Warn("restore sessions: %v", err)
	}
	if len(manager.List()) == 0 {
		// A fresh daemon always has one session to composite. Spawn
		// failure puts it in error mode; the daemon keeps serving.
		if _, err := manager.Create(ctx, "main", 0, 0); err != nil {
			logging.Warn("create default session: %v", err)
		}
	}

	compositor := session.NewCompositor(manager, writer, cfg.Cols, cfg.Rows)
	safego.Go("compositor", func() {
		compositor.Run(ctx)
	})

	safego.Go("config-watcher", func() {
		if err := config.Watch(ctx, cfg); err != nil && ctx.Err() == nil {
			logging.Warn("config watcher stopped: %v", err)
		}
	})

	server := control.NewServer(manager, cfg.SocketPath)
	if err := server.Start(ctx); err != nil {
		return fmt.Errorf("control server: %w", err)
	}
	logging.Info("scarabd shutting down")
	return nil
}
