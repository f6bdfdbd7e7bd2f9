package session

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/scarab-term/scarab/internal/protocol"
)

// Store persists session metadata so a restarted daemon can recreate its
// sessions. Grid contents are not persisted.
type Store struct {
	db *sql.DB
}

// OpenStore opens (creating if needed) the session database at path.
func OpenStore(ctx context.Context, path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("create db dir: %w", err)
	}
	dsn := fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}

	if _, err := db.ExecContext(ctx, `
CREATE TABLE IF NOT EXISTS sessions (
	id TEXT PRIMARY KEY,
	name TEXT NOT NULL,
	created_at TEXT NOT NULL,
	last_attached TEXT,
	cols INTEGER NOT NULL,
	rows INTEGER NOT NULL
)`); err != nil {
		db.Close()
		return nil, fmt.Errorf("create sessions table: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the database.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// SaveSession inserts or updates one session row.
func (s *Store) SaveSession(ctx context.Context, info protocol.SessionInfo) error {
	var lastAttached any
	if !info.LastAttached.IsZero() {
		lastAttached = ts(info.LastAttached)
	}
	_, err := s.db.ExecContext(ctx, `
INSERT INTO sessions(id, name, created_at, last_attached, cols, rows)
VALUES (?, ?, ?, ?, ?, ?)
ON CONFLICT(id) DO UPDATE SET
	name=excluded.name,
	last_attached=excluded.last_attached,
	cols=excluded.cols,
	rows=excluded.rows
`, info.ID, info.Name, ts(info.CreatedAt), lastAttached, info.Cols, info.Rows)
	if err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	return nil
}

// DeleteSession removes one session row. Unknown IDs are not an error.
func (s *Store) DeleteSession(ctx context.Context, id string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM sessions WHERE id = ?`, id); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

// ListSessions returns all persisted sessions ordered by creation time.
func (s *Store) ListSessions(ctx context.Context) ([]protocol.SessionInfo, error) {
	rows, err := s.db.QueryContext(ctx, `
SELECT id, name, created_at, last_attached, cols, rows
FROM sessions
ORDER BY created_at ASC
`)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	defer rows.Close()

	out := make([]protocol.SessionInfo, 0)
	for rows.Next() {
		var (
			info         protocol.SessionInfo
			createdAt    string
			lastAttached sql.NullString
		)
		if err := rows.Scan(&info.ID, &info.Name, &createdAt, &lastAttached, &info.Cols, &info.Rows); err != nil {
			return nil, fmt.Errorf("scan session: %w", err)
		}
		info.CreatedAt, err = parseTS(createdAt)
		if err != nil {
			return nil, fmt.Errorf("parse session created_at: %w", err)
		}
		if lastAttached.Valid {
			v, err := parseTS(lastAttached.String)
			if err != nil {
				return nil, fmt.Errorf("parse session last_attached: %w", err)
			}
			info.LastAttached = v
		}
		out = append(out, info)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iter sessions: %w", err)
	}
	return out, nil
}

// GetSession returns one persisted session.
func (s *Store) GetSession(ctx context.Context, id string) (protocol.SessionInfo, error) {
	row := s.db.QueryRowContext(ctx, `
SELECT id, name, created_at, last_attached, cols, rows
FROM sessions
WHERE id = ?
`, id)
	var (
		info         protocol.SessionInfo
		createdAt    string
		lastAttached sql.NullString
	)
	if err := row.Scan(&info.ID, &info.Name, &createdAt, &lastAttached, &info.Cols, &info.Rows); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return protocol.SessionInfo{}, ErrNotFound
		}
		return protocol.SessionInfo{}, fmt.Errorf("get session: %w", err)
	}
	var err error
	info.CreatedAt, err = parseTS(createdAt)
	if err != nil {
		return protocol.SessionInfo{}, fmt.Errorf("parse session created_at: %w", err)
	}
	if lastAttached.Valid {
		v, err := parseTS(lastAttached.String)
		if err != nil {
			return protocol.SessionInfo{}, fmt.Errorf("parse session last_attached: %w", err)
		}
		info.LastAttached = v
	}
	return info, nil
}

func ts(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTS(s string) (time.Time, error) {
	return time.Parse(time.RFC3339Nano, s)
}
