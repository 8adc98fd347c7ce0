// Package store handles SQLite persistence.
package store

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // SQLite driver.
)

// timeLayout is fixed width and always UTC, so stored timestamps sort as text.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

// SessionSummary describes the stored history of one session.
type SessionSummary struct {
	Session  string
	Entries  int
	LastSeen time.Time
}

// Store wraps SQLite access for preferences and navigation history.
type Store struct {
	db  *sql.DB
	now func() time.Time
}

// Open opens or creates the SQLite database and applies migrations.
func Open(path string) (*Store, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	// A single connection serializes writers from concurrent loaders.
	db.SetMaxOpenConns(1)
	store := &Store{db: db, now: time.Now}
	if err := store.migrate(); err != nil {
		if cerr := db.Close(); cerr != nil {
			// Best-effort close on migration failure.
			_ = cerr
		}
		return nil, err
	}
	return store, nil
}

func (s *Store) timestamp() string {
	return s.now().UTC().Format(timeLayout)
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS preferences (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL,
			updated_at TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS navigation_history (
			session_id TEXT NOT NULL,
			seq INTEGER NOT NULL,
			entry TEXT NOT NULL,
			recorded_at TEXT NOT NULL,
			PRIMARY KEY (session_id, seq)
		);`,
		`CREATE INDEX IF NOT EXISTS idx_navigation_history_recorded_at ON navigation_history(recorded_at);`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

// GetPreference returns the stored value for key and whether it exists.
func (s *Store) GetPreference(ctx context.Context, key string) (string, bool, error) {
	var value string
	err := s.db.QueryRowContext(ctx, `SELECT value FROM preferences WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return value, true, nil
}

// SetPreference stores value under key, replacing any previous value.
func (s *Store) SetPreference(ctx context.Context, key, value string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO preferences (key, value, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		key, value, s.timestamp())
	return err
}

// LoadHistory returns the session's entries in visit order.
func (s *Store) LoadHistory(ctx context.Context, session string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT entry FROM navigation_history WHERE session_id = ? ORDER BY seq ASC`, session)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			// Best-effort rows close.
			_ = cerr
		}
	}()

	var entries []string
	for rows.Next() {
		var entry string
		if err := rows.Scan(&entry); err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return entries, nil
}

// AppendHistory adds entry to the end of the session's history.
func (s *Store) AppendHistory(ctx context.Context, session, entry string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO navigation_history (session_id, seq, entry, recorded_at)
		 VALUES (?, (SELECT COALESCE(MAX(seq), 0) + 1 FROM navigation_history WHERE session_id = ?), ?, ?)`,
		session, session, entry, s.timestamp())
	return err
}

// ResetHistory replaces the session's history with a single entry.
func (s *Store) ResetHistory(ctx context.Context, session, entry string) (err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			if rerr := tx.Rollback(); rerr != nil {
				// Best-effort rollback.
				_ = rerr
			}
		}
	}()

	if _, err = tx.ExecContext(ctx, `DELETE FROM navigation_history WHERE session_id = ?`, session); err != nil {
		return err
	}
	if _, err = tx.ExecContext(ctx,
		`INSERT INTO navigation_history (session_id, seq, entry, recorded_at) VALUES (?, 1, ?, ?)`,
		session, entry, s.timestamp()); err != nil {
		return err
	}
	return tx.Commit()
}

// ClearSession removes all history for the session.
func (s *Store) ClearSession(ctx context.Context, session string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM navigation_history WHERE session_id = ?`, session)
	return err
}

// PruneSessions drops the history of sessions whose last entry is older than ttl.
func (s *Store) PruneSessions(ctx context.Context, ttl time.Duration) (int64, error) {
	if ttl <= 0 {
		return 0, nil
	}
	cutoff := s.now().Add(-ttl).UTC().Format(timeLayout)
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM navigation_history WHERE session_id IN (
			SELECT session_id FROM navigation_history
			GROUP BY session_id
			HAVING MAX(recorded_at) < ?
		)`, cutoff)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// ListSessions summarizes every stored session, most recently active first.
func (s *Store) ListSessions(ctx context.Context) ([]SessionSummary, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT session_id, COUNT(*), MAX(recorded_at) FROM navigation_history
		 GROUP BY session_id ORDER BY MAX(recorded_at) DESC, session_id ASC`)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			// Best-effort rows close.
			_ = cerr
		}
	}()

	var out []SessionSummary
	for rows.Next() {
		var summary SessionSummary
		var lastSeen string
		if err := rows.Scan(&summary.Session, &summary.Entries, &lastSeen); err != nil {
			return nil, err
		}
		if summary.LastSeen, err = time.Parse(timeLayout, lastSeen); err != nil {
			return nil, err
		}
		out = append(out, summary)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
