package session

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/scarab-term/scarab/internal/logging"
	"github.com/scarab-term/scarab/internal/protocol"
)

// Manager owns the session table. All lifecycle operations go through it.
type Manager struct {
	mu       sync.Mutex
	sessions map[string]*Session
	active   string

	shell      string
	cols, rows int

	store *Store // optional persistence, nil disables it
}

// NewManager creates a manager that spawns shell for new sessions at the
// given default grid size. store may be nil.
func NewManager(shell string, cols, rows int, store *Store) *Manager {
	return &Manager{
		sessions: make(map[string]*Session),
		shell:    shell,
		cols:     cols,
		rows:     rows,
		store:    store,
	}
}

// Create makes a new session and starts its PTY at the given grid size;
// zero cols or rows fall back to the manager's defaults. A PTY spawn
// failure does not fail the create: the session is registered in error
// mode and the caller still receives it.
func (m *Manager) Create(ctx context.Context, name string, cols, rows int) (*Session, error) {
	id := uuid.NewString()
	if name == "" {
		name = "session-" + id[:8]
	}
	if cols <= 0 || rows <= 0 {
		cols, rows = m.cols, m.rows
	}

	s := newSession(id, name, m.shell, cols, rows)

	m.mu.Lock()
	m.sessions[id] = s
	if m.active == "" {
		m.active = id
	}
	m.mu.Unlock()

	if m.store != nil {
		if err := m.store.SaveSession(ctx, s.Info()); err != nil {
			logging.Warn("persist session %s: %v", id, err)
		}
	}
	logging.Info("created session %s (%s)", id, name)
	return s, nil
}

// Get returns the session with the given ID.
func (m *Manager) Get(id string) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return s, nil
}

// List returns session summaries sorted by creation time.
func (m *Manager) List() []protocol.SessionInfo {
	m.mu.Lock()
	sessions := make([]*Session, 0, len(m.sessions))
	for _, s := range m.sessions {
		sessions = append(sessions, s)
	}
	m.mu.Unlock()

	out := make([]protocol.SessionInfo, 0, len(sessions))
	for _, s := range sessions {
		out = append(out, s.Info())
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out
}

// Attach registers a client on a session and makes it the active one.
func (m *Manager) Attach(ctx context.Context, id, clientID string) error {
	s, err := m.Get(id)
	if err != nil {
		return err
	}
	if err := s.attach(clientID); err != nil {
		return err
	}

	m.mu.Lock()
	m.active = id
	m.mu.Unlock()

	if m.store != nil {
		if err := m.store.SaveSession(ctx, s.Info()); err != nil {
			logging.Warn("persist session %s: %v", id, err)
		}
	}
	return nil
}

// Detach removes a client from a session.
func (m *Manager) Detach(id, clientID string) error {
	s, err := m.Get(id)
	if err != nil {
		return err
	}
	return s.detach(clientID)
}

// DetachAll removes a client from every session it is attached to. Used when
// a control connection drops.
func (m *Manager) DetachAll(clientID string) {
	m.mu.Lock()
	sessions := make([]*Session, 0, len(m.sessions))
	for _, s := range m.sessions {
		sessions = append(sessions, s)
	}
	m.mu.Unlock()

	for _, s := range sessions {
		s.detach(clientID)
	}
}

// Rename changes a session's display name.
func (m *Manager) Rename(ctx context.Context, id, newName string) error {
	s, err := m.Get(id)
	if err != nil {
		return err
	}
	if newName == "" {
		return fmt.Errorf("empty session name")
	}

	s.mu.Lock()
	s.Name = newName
	s.mu.Unlock()

	if m.store != nil {
		if err := m.store.SaveSession(ctx, s.Info()); err != nil {
			logging.Warn("persist session %s: %v", id, err)
		}
	}
	return nil
}

// Delete closes a session and removes it from the table.
func (m *Manager) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	s, ok := m.sessions[id]
	if !ok {
		m.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	delete(m.sessions, id)
	if m.active == id {
		m.active = ""
		for other := range m.sessions {
			m.active = other
			break
		}
	}
	m.mu.Unlock()

	s.Close()
	if m.store != nil {
		if err := m.store.DeleteSession(ctx, id); err != nil {
			logging.Warn("delete persisted session %s: %v", id, err)
		}
	}
	logging.Info("deleted session %s", id)
	return nil
}

// WriteInput forwards input bytes to a session's shell.
func (m *Manager) WriteInput(id string, data []byte) error {
	s, err := m.Get(id)
	if err != nil {
		return err
	}
	return s.WriteInput(data)
}

// Resize changes a session's grid and PTY size.
func (m *Manager) Resize(ctx context.Context, id string, cols, rows int) error {
	s, err := m.Get(id)
	if err != nil {
		return err
	}
	if err := s.Resize(cols, rows); err != nil {
		return err
	}
	if m.store != nil {
		if err := m.store.SaveSession(ctx, s.Info()); err != nil {
			logging.Warn("persist session %s: %v", id, err)
		}
	}
	return nil
}

// Active returns the session whose grid is being published, or nil.
func (m *Manager) Active() *Session {
	m.mu.Lock()
	id := m.active
	m.mu.Unlock()
	if id == "" {
		return nil
	}
	s, err := m.Get(id)
	if err != nil {
		return nil
	}
	return s
}

// Restore recreates sessions recorded by a previous daemon run. Each gets a
// fresh PTY; scrollback does not survive a restart.
func (m *Manager) Restore(ctx context.Context) error {
	if m.store == nil {
		return nil
	}
	infos, err := m.store.ListSessions(ctx)
	if err != nil {
		return err
	}
	for _, info := range infos {
		cols, rows := info.Cols, info.Rows
		if cols <= 0 || rows <= 0 {
			cols, rows = m.cols, m.rows
		}
		s := newSession(info.ID, info.Name, m.shell, cols, rows)
		s.CreatedAt = info.CreatedAt

		m.mu.Lock()
		m.sessions[info.ID] = s
		if m.active == "" {
			m.active = info.ID
		}
		m.mu.Unlock()
		logging.Info("restored session %s (%s)", info.ID, info.Name)
	}
	return nil
}

// Shutdown closes every session.
func (m *Manager) Shutdown() {
	m.mu.Lock()
	sessions := make([]*Session, 0, len(m.sessions))
	for _, s := range m.sessions {
		sessions = append(sessions, s)
	}
	m.sessions = make(map[string]*Session)
	m.active = ""
	m.mu.Unlock()

	for _, s := range sessions {
		s.Close()
	}
}
