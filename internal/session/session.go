// Package session manages terminal session lifecycle: creation, attach and
// detach, PTY pumping, persistence, and shared-memory publication. A session
// whose PTY could not be spawned still exists; it carries an error banner
// instead of a live grid.
package session

import (
	"fmt"
	"sync"
	"time"

	"github.com/scarab-term/scarab/internal/images"
	"github.com/scarab-term/scarab/internal/logging"
	"github.com/scarab-term/scarab/internal/protocol"
	"github.com/scarab-term/scarab/internal/pty"
	"github.com/scarab-term/scarab/internal/safego"
	"github.com/scarab-term/scarab/internal/vte"
)

// Session is one terminal: a PTY, the escape-sequence engine consuming its
// output, and the clients currently attached.
type Session struct {
	ID        string
	Name      string
	CreatedAt time.Time

	mu           sync.Mutex
	lastAttached time.Time
	cols, rows   int
	clients      map[string]struct{}

	engine *vte.Engine
	term   *pty.Terminal
	imgs   *images.Handler

	// errorMsg is non-empty when the session is in error mode: its PTY
	// failed to spawn or died. The grid shows a banner instead of content.
	errorMsg string

	closed bool
}

func newSession(id, name, shell string, cols, rows int) *Session {
	s := &Session{
		ID:        id,
		Name:      name,
		CreatedAt: time.Now(),
		cols:      cols,
		rows:      rows,
		clients:   make(map[string]struct{}),
		engine:    vte.New(cols, rows),
		imgs:      images.NewHandler(),
	}

	s.engine.SetGraphicsHandler(func(payload []byte) {
		if err := s.imgs.HandleGraphics(payload); err != nil {
			logging.Debug("session %s: graphics sequence dropped: %v", id, err)
		}
	})
	s.engine.SetInlineImageHandler(func(body string) {
		if err := s.imgs.HandleInline(body); err != nil {
			logging.Debug("session %s: inline image dropped: %v", id, err)
		}
	})

	term, err := pty.New(shell, cols, rows)
	if err != nil {
		logging.Error("session %s: pty spawn failed: %v", id, err)
		s.errorMsg = fmt.Sprintf("ERROR: PTY spawn failed: %v", err)
		return s
	}
	s.term = term
	s.engine.SetResponseWriter(func(data []byte) {
		term.Write(data)
	})

	safego.Go("session-pump-"+id, s.pump)
	return s
}

// pump moves PTY output into the engine until the PTY closes.
func (s *Session) pump() {
	buf := make([]byte, 4096)
	for {
		n, err := s.term.Read(buf)
		if n > 0 {
			s.mu.Lock()
			s.engine.Write(buf[:n])
			s.mu.Unlock()
		}
		if err != nil {
			break
		}
	}

	s.mu.Lock()
	if !s.closed && s.errorMsg == "" {
		s.errorMsg = "ERROR: PTY process exited"
	}
	s.mu.Unlock()
	logging.Info("session %s: pty pump ended", s.ID)
}

// WriteInput sends input bytes to the shell. Input to an error-mode session
// is discarded.
func (s *Session) WriteInput(data []byte) error {
	s.mu.Lock()
	term := s.term
	errored := s.errorMsg != ""
	s.mu.Unlock()

	if errored || term == nil {
		return nil
	}
	_, err := term.Write(data)
	return err
}

// Resize changes the grid and PTY dimensions.
func (s *Session) Resize(cols, rows int) error {
	if cols <= 0 || rows <= 0 {
		return fmt.Errorf("invalid size %dx%d", cols, rows)
	}
	s.mu.Lock()
	s.cols, s.rows = cols, rows
	s.engine.Resize(cols, rows)
	term := s.term
	s.mu.Unlock()

	if term != nil {
		return term.SetSize(cols, rows)
	}
	return nil
}

// Snapshot packs the current grid for publication. In error mode the banner
// snapshot is produced by the compositor instead.
func (s *Session) Snapshot(w, h int) *protocol.Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.engine.Snapshot(w, h)
}

// ErrorState returns the error banner message, empty when the session is
// healthy.
func (s *Session) ErrorState() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.errorMsg
}

// Images exposes the session's image registry.
func (s *Session) Images() *images.Registry {
	return s.imgs.Registry()
}

func (s *Session) attach(clientID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.clients[clientID]; ok {
		return ErrAlreadyAttached
	}
	s.clients[clientID] = struct{}{}
	s.lastAttached = time.Now()
	return nil
}

func (s *Session) detach(clientID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.clients[clientID]; !ok {
		return ErrNotAttached
	}
	delete(s.clients, clientID)
	return nil
}

// Info summarizes the session for list responses.
func (s *Session) Info() protocol.SessionInfo {
	s.mu.Lock()
	defer s.mu.Unlock()
	return protocol.SessionInfo{
		ID:              s.ID,
		Name:            s.Name,
		CreatedAt:       s.CreatedAt,
		LastAttached:    s.lastAttached,
		AttachedClients: len(s.clients),
		Cols:            s.cols,
		Rows:            s.rows,
		ErrorMode:       s.errorMsg != "",
	}
}

// Close tears down the PTY. The session is unusable afterwards.
func (s *Session) Close() error {
	s.mu.Lock()
	s.closed = true
	term := s.term
	s.mu.Unlock()

	if term != nil {
		return term.Close()
	}
	return nil
}
