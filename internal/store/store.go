package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"reeler/internal/config"
)

// Record is one session's persisted bookkeeping row.
type Record struct {
	ID              string
	SourceURL       string
	CaptureStrategy string
	PlaybackRate    float64
	State           string
	BytesCaptured   int64
	ProgressPercent float64
	OutputPath      string
	OutputURL       string
	ErrorMessage    string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// ErrNotFound is returned when a session row does not exist.
var ErrNotFound = errors.New("session not found")

// Store manages session persistence backed by SQLite.
type Store struct {
	db   *sql.DB
	path string
}

const schema = `
CREATE TABLE IF NOT EXISTS sessions (
    id TEXT PRIMARY KEY,
    source_url TEXT NOT NULL,
    capture_strategy TEXT NOT NULL,
    playback_rate REAL NOT NULL,
    state TEXT NOT NULL,
    bytes_captured INTEGER NOT NULL DEFAULT 0,
    progress_percent REAL NOT NULL DEFAULT 0,
    output_path TEXT NOT NULL DEFAULT '',
    output_url TEXT NOT NULL DEFAULT '',
    error_message TEXT NOT NULL DEFAULT '',
    created_at TEXT NOT NULL,
    updated_at TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_sessions_state ON sessions(state);
`

// Open initializes or connects to the session database.
func Open(cfg *config.Config) (*Store, error) {
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("ensure directories: %w", err)
	}

	dbPath := filepath.Join(cfg.LogDir(), "sessions.db")
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}

	return &Store{db: db, path: dbPath}, nil
}

// Path returns the database file location.
func (s *Store) Path() string { return s.path }

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Insert records a newly created session.
func (s *Store) Insert(ctx context.Context, rec *Record) error {
	now := time.Now().UTC()
	rec.CreatedAt = now
	rec.UpdatedAt = now
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO sessions (
            id, source_url, capture_strategy, playback_rate, state,
            bytes_captured, progress_percent, output_path, output_url,
            error_message, created_at, updated_at
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.SourceURL, rec.CaptureStrategy, rec.PlaybackRate, rec.State,
		rec.BytesCaptured, rec.ProgressPercent, rec.OutputPath, rec.OutputURL,
		rec.ErrorMessage, now.Format(time.RFC3339Nano), now.Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("insert session: %w", err)
	}
	return nil
}

// UpdateProgress persists mid-flight state, byte count, and percent.
func (s *Store) UpdateProgress(ctx context.Context, id, state string, bytesCaptured int64, percent float64) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE sessions SET state = ?, bytes_captured = ?, progress_percent = ?, updated_at = ? WHERE id = ?`,
		state, bytesCaptured, percent, time.Now().UTC().Format(time.RFC3339Nano), id,
	)
	if err != nil {
		return fmt.Errorf("update session progress: %w", err)
	}
	return requireRow(res)
}

// Finish records the terminal state of a session.
func (s *Store) Finish(ctx context.Context, id, state, outputPath, outputURL, errorMessage string) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE sessions SET state = ?, output_path = ?, output_url = ?, error_message = ?, updated_at = ? WHERE id = ?`,
		state, outputPath, outputURL, errorMessage, time.Now().UTC().Format(time.RFC3339Nano), id,
	)
	if err != nil {
		return fmt.Errorf("finish session: %w", err)
	}
	return requireRow(res)
}

// GetByID fetches one session row.
func (s *Store) GetByID(ctx context.Context, id string) (*Record, error) {
	row := s.db.QueryRowContext(ctx, selectColumns+` WHERE id = ?`, id)
	rec, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return rec, err
}

// List returns the most recent sessions, newest first.
func (s *Store) List(ctx context.Context, limit int) ([]*Record, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx, selectColumns+` ORDER BY created_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	defer rows.Close()

	var records []*Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

const selectColumns = `SELECT id, source_url, capture_strategy, playback_rate, state,
    bytes_captured, progress_percent, output_path, output_url, error_message,
    created_at, updated_at FROM sessions`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row rowScanner) (*Record, error) {
	var rec Record
	var createdAt, updatedAt string
	err := row.Scan(
		&rec.ID, &rec.SourceURL, &rec.CaptureStrategy, &rec.PlaybackRate, &rec.State,
		&rec.BytesCaptured, &rec.ProgressPercent, &rec.OutputPath, &rec.OutputURL,
		&rec.ErrorMessage, &createdAt, &updatedAt,
	)
	if err != nil {
		return nil, err
	}
	if ts, parseErr := time.Parse(time.RFC3339Nano, createdAt); parseErr == nil {
		rec.CreatedAt = ts
	}
	if ts, parseErr := time.Parse(time.RFC3339Nano, updatedAt); parseErr == nil {
		rec.UpdatedAt = ts
	}
	return &rec, nil
}

func requireRow(res sql.Result) error {
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}
