package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/scarab-term/scarab/internal/config"
	"github.com/scarab-term/scarab/internal/daemon"
)

// Version info set by GoReleaser via ldflags
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	showVersion := flag.Bool("version", false, "print version and exit")
	configPath := flag.String("config", "", "config file path (default ~/.scarab/config.json)")
	socketPath := flag.String("socket", "", "control socket path")
	shmemPath := flag.String("shmem", "", "shared memory path")
	shell := flag.String("shell", "", "shell to spawn in sessions")
	cols := flag.Int("cols", 0, "terminal grid columns")
	rows := flag.Int("rows", 0, "terminal grid rows")
	logLevel := flag.String("log-level", "", "log level (debug, info, warn, error)")
	flag.Parse()

	if *showVersion {
		fmt.Printf("scarabd %s (commit: %s, built: %s)\n", version, commit, date)
		return
	}

	cfg, err := config.LoadFrom(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "scarabd: %v\n", err)
		os.Exit(1)
	}
	if *socketPath != "" {
		cfg.SocketPath = *socketPath
	}
	if *shmemPath != "" {
		cfg.ShmemPath = *shmemPath
	}
	if *shell != "" {
		cfg.Shell = *shell
	}
	if *cols > 0 {
		cfg.Cols = *cols
	}
	if *rows > 0 {
		cfg.Rows = *rows
	}
	if *logLevel != "" {
		cfg.LogLevel = *logLevel
	}

	if err := daemon.Run(context.Background(), cfg); err != nil {
		fmt.Fprintf(os.Stderr, "scarabd: %v\n", err)
		os.Exit(1)
	}
}
