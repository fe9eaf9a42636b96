package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"

	"github.com/janssja/happy2align/internal/dialogue"
)

// openDB is a package-level var to allow test injection.
var openDB = sql.Open

// DBFile is the database file name inside the data directory.
const DBFile = "sessions.db"

// SQLiteStore persists sessions in a SQLite database. Each session is one
// row holding the JSON-encoded Progress plus indexed summary columns.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens (and creates if needed) dataDir/sessions.db with WAL
// mode and runs migrations.
func NewSQLite(dataDir string) (*SQLiteStore, error) {
	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return nil, fmt.Errorf("store: create data dir: %w", err)
	}

	db, err := openDB("sqlite", filepath.Join(dataDir, DBFile))
	if err != nil {
		return nil, fmt.Errorf("store: open database: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA synchronous = NORMAL",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("store: pragma %q: %w", p, err)
		}
	}

	s := &SQLiteStore{db: db}
	if err := s.migrate(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("store: migration: %w", err)
	}
	return s, nil
}

// Close closes the underlying database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// ─── Migrations ──────────────────────────────────────────────────────────────

func (s *SQLiteStore) migrate() error {
	schema := `
		CREATE TABLE IF NOT EXISTS sessions (
			session_key TEXT PRIMARY KEY,
			phase       TEXT NOT NULL,
			goal        TEXT NOT NULL DEFAULT '',
			turns       INTEGER NOT NULL DEFAULT 0,
			progress    TEXT NOT NULL,
			created_at  TEXT NOT NULL,
			updated_at  TEXT NOT NULL
		);

		CREATE INDEX IF NOT EXISTS idx_sessions_updated ON sessions(updated_at DESC);
	`
	_, err := s.db.Exec(schema)
	return err
}

// ─── Sessions ────────────────────────────────────────────────────────────────

// Get implements Store.
func (s *SQLiteStore) Get(ctx context.Context, key string) (*dialogue.Progress, error) {
	if err := checkKey(key); err != nil {
		return nil, err
	}

	var raw string
	err := s.db.QueryRowContext(ctx, `SELECT progress FROM sessions WHERE session_key = ?`, key).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("store: get session %q: %w", key, err)
	}

	var p dialogue.Progress
	if err := json.Unmarshal([]byte(raw), &p); err != nil {
		return nil, fmt.Errorf("store: decode session %q: %w", key, err)
	}
	if err := checkProgress(key, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// Put implements Store.
func (s *SQLiteStore) Put(ctx context.Context, key string, p *dialogue.Progress) error {
	if err := checkPut(key, p); err != nil {
		return err
	}

	raw, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("store: encode session %q: %w", key, err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO sessions (session_key, phase, goal, turns, progress, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(session_key) DO UPDATE SET
			phase      = excluded.phase,
			goal       = excluded.goal,
			turns      = excluded.turns,
			progress   = excluded.progress,
			updated_at = excluded.updated_at`,
		key, string(p.Phase), p.Goal, p.Turns, string(raw), p.CreatedAt, p.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("store: put session %q: %w", key, err)
	}
	return nil
}

// Delete implements Store.
func (s *SQLiteStore) Delete(ctx context.Context, key string) error {
	if err := checkKey(key); err != nil {
		return err
	}
	if _, err := s.db.ExecContext(ctx, `DELETE FROM sessions WHERE session_key = ?`, key); err != nil {
		return fmt.Errorf("store: delete session %q: %w", key, err)
	}
	return nil
}

// List implements Store.
func (s *SQLiteStore) List(ctx context.Context) ([]Summary, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT session_key, phase, goal, turns, updated_at FROM sessions ORDER BY updated_at DESC, session_key ASC`)
	if err != nil {
		return nil, fmt.Errorf("store: list sessions: %w", err)
	}
	defer rows.Close()

	var out []Summary
	for rows.Next() {
		var (
			sum   Summary
			phase string
		)
		if err := rows.Scan(&sum.Key, &phase, &sum.Goal, &sum.Turns, &sum.UpdatedAt); err != nil {
			return nil, fmt.Errorf("store: scan session: %w", err)
		}
		sum.Phase = dialogue.Phase(phase)
		out = append(out, sum)
	}
	return out, rows.Err()
}
