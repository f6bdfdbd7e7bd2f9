// Package pty spawns shell processes on pseudo-terminals. Spawning honors a
// failure-injection switch so the error-mode path can be exercised without a
// broken system.
package pty

import (
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"sync"

	"github.com/creack/pty"

	"github.com/scarab-term/scarab/internal/protocol"
)

// ErrSpawnForced is the injected failure returned when the force-fail
// environment switch is set.
var ErrSpawnForced = errors.New("pty: spawn failure forced by " + protocol.EnvForcePtyFail)

// Terminal wraps a PTY with its shell process.
type Terminal struct {
	mu      sync.Mutex
	ptyFile *os.File
	cmd     *exec.Cmd
	closed  bool
}

// New starts shell on a fresh PTY sized cols x rows. When the force-fail
// environment variable is "1" the spawn fails deterministically.
func New(shell string, cols, rows int) (*Terminal, error) {
	if os.Getenv(protocol.EnvForcePtyFail) == "1" {
		return nil, ErrSpawnForced
	}
	if shell == "" {
		shell = os.Getenv("SHELL")
	}
	if shell == "" {
		shell = "/bin/sh"
	}

	cmd := exec.Command(shell)
	cmd.Env = append(os.Environ(), "TERM=xterm-256color")

	ptmx, err := pty.StartWithSize(cmd, &pty.Winsize{
		Cols: uint16(cols),
		Rows: uint16(rows),
	})
	if err != nil {
		return nil, fmt.Errorf("pty: start %s: %w", shell, err)
	}

	return &Terminal{ptyFile: ptmx, cmd: cmd}, nil
}

// SetSize resizes the PTY.
func (t *Terminal) SetSize(cols, rows int) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.closed || t.ptyFile == nil {
		return nil
	}
	return pty.Setsize(t.ptyFile, &pty.Winsize{
		Cols: uint16(cols),
		Rows: uint16(rows),
	})
}

// Write sends input bytes to the shell.
func (t *Terminal) Write(p []byte) (int, error) {
	t.mu.Lock()
	closed := t.closed
	ptyFile := t.ptyFile
	t.mu.Unlock()

	if closed || ptyFile == nil {
		return 0, io.ErrClosedPipe
	}
	return ptyFile.Write(p)
}

// Read reads shell output. The mutex is not held during the blocking read.
func (t *Terminal) Read(p []byte) (int, error) {
	t.mu.Lock()
	closed := t.closed
	ptyFile := t.ptyFile
	t.mu.Unlock()

	if closed || ptyFile == nil {
		return 0, io.EOF
	}
	return ptyFile.Read(p)
}

// Close tears down the PTY and kills the shell.
func (t *Terminal) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.closed {
		return nil
	}
	t.closed = true

	if t.ptyFile != nil {
		t.ptyFile.Close()
	}
	if t.cmd != nil && t.cmd.Process != nil {
		t.cmd.Process.Kill()
		t.cmd.Wait()
	}
	return nil
}

// Running reports whether the shell process is still alive.
func (t *Terminal) Running() bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.closed || t.cmd == nil {
		return false
	}
	return t.cmd.ProcessState == nil
}
