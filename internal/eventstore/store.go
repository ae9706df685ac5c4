// Package eventstore keeps the build history in SQLite so watch mode can
// answer "what happened while I wasn't looking".
package eventstore

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "modernc.org/sqlite"
)

// BuildEvent is one completed build.
type BuildEvent struct {
	ID                 int64     `json:"id"`
	BuildID            string    `json:"build_id"`
	Trigger            string    `json:"trigger"`
	Outcome            string    `json:"outcome"`
	Chapters           int       `json:"chapters"`
	DiagnosticErrors   int       `json:"diagnostic_errors"`
	DiagnosticWarnings int       `json:"diagnostic_warnings"`
	Pages              int       `json:"pages"`
	Fingerprint        string    `json:"fingerprint,omitempty"`
	DurationMS         int64     `json:"duration_ms"`
	StartedAt          time.Time `json:"started_at"`
}

// Store records builds in a SQLite database. Safe for concurrent use.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

// Open opens (and if needed creates) the build history database. Use
// ":memory:" for an ephemeral store.
func Open(path string) (*Store, error) {
	if path != ":memory:" {
		if dir := filepath.Dir(path); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("ensure history dir: %w", err)
			}
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open history database: %w", err)
	}

	s := &Store{db: db}
	if err := s.initialize(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("initialize schema: %w", err)
	}
	return s, nil
}

func (s *Store) initialize() error {
	schema := `
	CREATE TABLE IF NOT EXISTS builds (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		build_id TEXT NOT NULL,
		triggered_by TEXT NOT NULL,
		outcome TEXT NOT NULL,
		chapters INTEGER NOT NULL,
		diagnostic_errors INTEGER NOT NULL,
		diagnostic_warnings INTEGER NOT NULL,
		pages INTEGER NOT NULL,
		fingerprint TEXT NOT NULL DEFAULT '',
		duration_ms INTEGER NOT NULL,
		started_at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_builds_build_id ON builds(build_id);
	CREATE INDEX IF NOT EXISTS idx_builds_started_at ON builds(started_at);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Record appends a completed build.
func (s *Store) Record(ctx context.Context, ev BuildEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO builds
		 (build_id, triggered_by, outcome, chapters, diagnostic_errors,
		  diagnostic_warnings, pages, fingerprint, duration_ms, started_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		ev.BuildID, ev.Trigger, ev.Outcome, ev.Chapters, ev.DiagnosticErrors,
		ev.DiagnosticWarnings, ev.Pages, ev.Fingerprint, ev.DurationMS,
		ev.StartedAt.Unix(),
	)
	if err != nil {
		return fmt.Errorf("insert build: %w", err)
	}
	return nil
}

// Recent returns up to limit builds, newest first.
func (s *Store) Recent(ctx context.Context, limit int) ([]BuildEvent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, build_id, triggered_by, outcome, chapters,
		        diagnostic_errors, diagnostic_warnings, pages, fingerprint,
		        duration_ms, started_at
		 FROM builds ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query builds: %w", err)
	}
	defer rows.Close()

	return scanBuilds(rows)
}

// LastFingerprint returns the content fingerprint of the most recent
// build, or "" when there is no history.
func (s *Store) LastFingerprint(ctx context.Context) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var fp string
	err := s.db.QueryRowContext(ctx,
		"SELECT fingerprint FROM builds ORDER BY id DESC LIMIT 1").Scan(&fp)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("query last fingerprint: %w", err)
	}
	return fp, nil
}

func scanBuilds(rows *sql.Rows) ([]BuildEvent, error) {
	var events []BuildEvent
	for rows.Next() {
		var ev BuildEvent
		var startedUnix int64
		if err := rows.Scan(&ev.ID, &ev.BuildID, &ev.Trigger, &ev.Outcome,
			&ev.Chapters, &ev.DiagnosticErrors, &ev.DiagnosticWarnings,
			&ev.Pages, &ev.Fingerprint, &ev.DurationMS, &startedUnix); err != nil {
			return nil, fmt.Errorf("scan build: %w", err)
		}
		ev.StartedAt = time.Unix(startedUnix, 0).UTC()
		events = append(events, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rows: %w", err)
	}
	return events, nil
}

// Close closes the database.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.db.Close()
}
