// Package storage persists exported conversation sessions to a local
// SQLite database. Export is an explicit user action; the live conversation
// stays in memory and nothing is written automatically.
package storage

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/archan-project/archan/internal/chat"
)

// SessionRecord describes one exported session.
type SessionRecord struct {
	ID         string
	Model      string
	ExportedAt time.Time
	TurnCount  int
}

// SessionStore handles session persistence.
type SessionStore struct {
	db *sql.DB
}

// NewSessionStore opens (creating if needed) the sessions database under
// dataDir.
func NewSessionStore(dataDir string) (*SessionStore, error) {
	// 0700: exported conversations are private to the user
	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	db, err := sql.Open("sqlite", filepath.Join(dataDir, "sessions.db"))
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	store := &SessionStore{db: db}
	if err := store.initialize(); err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}
	return store, nil
}

func (s *SessionStore) initialize() error {
	schema := `
	CREATE TABLE IF NOT EXISTS sessions (
		id TEXT PRIMARY KEY,
		model TEXT NOT NULL,
		exported_at DATETIME NOT NULL
	);
	CREATE TABLE IF NOT EXISTS turns (
		id TEXT PRIMARY KEY,
		session_id TEXT NOT NULL REFERENCES sessions(id) ON DELETE CASCADE,
		position INTEGER NOT NULL,
		role TEXT NOT NULL,
		content TEXT NOT NULL,
		created_at DATETIME NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_turns_session ON turns(session_id, position);
	`

	_, err := s.db.Exec(schema)
	return err
}

// Export writes the given turns as the session's content, replacing any
// previous export of the same session. The write is transactional; a failed
// export leaves the previous state intact.
func (s *SessionStore) Export(sessionID, model string, turns []chat.Turn) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.Exec(`
		INSERT INTO sessions (id, model, exported_at) VALUES (?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET model = excluded.model, exported_at = excluded.exported_at`,
		sessionID, model, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("failed to upsert session: %w", err)
	}

	if _, err := tx.Exec(`DELETE FROM turns WHERE session_id = ?`, sessionID); err != nil {
		return fmt.Errorf("failed to clear previous turns: %w", err)
	}

	stmt, err := tx.Prepare(`
		INSERT INTO turns (id, session_id, position, role, content, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	for i, turn := range turns {
		if _, err := stmt.Exec(turn.ID, sessionID, i, string(turn.Role), turn.Content, turn.Timestamp.UTC()); err != nil {
			return fmt.Errorf("failed to insert turn %d: %w", i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit export: %w", err)
	}
	return nil
}

// Sessions lists exported sessions, newest first.
func (s *SessionStore) Sessions() ([]SessionRecord, error) {
	rows, err := s.db.Query(`
		SELECT s.id, s.model, s.exported_at, COUNT(t.id)
		FROM sessions s LEFT JOIN turns t ON t.session_id = s.id
		GROUP BY s.id ORDER BY s.exported_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}
	defer rows.Close()

	var records []SessionRecord
	for rows.Next() {
		var r SessionRecord
		if err := rows.Scan(&r.ID, &r.Model, &r.ExportedAt, &r.TurnCount); err != nil {
			return nil, fmt.Errorf("failed to scan session: %w", err)
		}
		records = append(records, r)
	}
	return records, rows.Err()
}

// Turns loads the exported turns of one session in conversation order.
func (s *SessionStore) Turns(sessionID string) ([]chat.Turn, error) {
	rows, err := s.db.Query(`
		SELECT id, role, content, created_at FROM turns
		WHERE session_id = ? ORDER BY position`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to load turns: %w", err)
	}
	defer rows.Close()

	var turns []chat.Turn
	for rows.Next() {
		var t chat.Turn
		var role string
		if err := rows.Scan(&t.ID, &role, &t.Content, &t.Timestamp); err != nil {
			return nil, fmt.Errorf("failed to scan turn: %w", err)
		}
		t.Role = chat.Role(role)
		turns = append(turns, t)
	}
	return turns, rows.Err()
}

func (s *SessionStore) Close() error {
	return s.db.Close()
}
