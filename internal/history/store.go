// Package history stores translations and camera preferences in SQLite.
package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/rbright/signa/internal/history/migrations"
)

const prefFacing = "camera.facing"

// Entry is one successful translation.
type Entry struct {
	ID                   string
	TranslatedText       string
	UnrecognizedGestures int
	ProcessingTime       float64
	Facing               string
	CreatedAt            time.Time
}

// Store persists history in one SQLite file.
type Store struct {
	db  *sql.DB
	now func() time.Time
}

// Open creates the database directory if needed and applies migrations.
func Open(ctx context.Context, path string) (*Store, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, errors.New("history path is required")
	}
	path = filepath.Clean(path)
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("create history dir: %w", err)
	}

	dsn := "file:" + path + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if err := applyMigrations(ctx, db, migrations.FS); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return &Store{db: db, now: time.Now}, nil
}

// Close closes the database handle.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Save inserts entry, filling ID and CreatedAt when unset.
func (s *Store) Save(ctx context.Context, entry Entry) (Entry, error) {
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = s.now()
	}
	entry.CreatedAt = entry.CreatedAt.UTC()

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO translations (
		   id, translated_text, unrecognized_gestures, processing_time, facing, created_at
		 ) VALUES (?, ?, ?, ?, ?, ?)`,
		entry.ID,
		entry.TranslatedText,
		entry.UnrecognizedGestures,
		entry.ProcessingTime,
		entry.Facing,
		entry.CreatedAt.UnixMilli(),
	)
	if err != nil {
		return Entry{}, fmt.Errorf("insert translation: %w", err)
	}
	return entry, nil
}

// List returns up to limit entries, newest first.
func (s *Store) List(ctx context.Context, limit int) ([]Entry, error) {
	if limit <= 0 {
		return nil, fmt.Errorf("limit must be > 0")
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, translated_text, unrecognized_gestures, processing_time, facing, created_at
		   FROM translations
		  ORDER BY created_at DESC, rowid DESC
		  LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("query translations: %w", err)
	}
	defer rows.Close()

	entries := make([]Entry, 0, limit)
	for rows.Next() {
		var (
			entry     Entry
			createdAt int64
		)
		if err := rows.Scan(
			&entry.ID,
			&entry.TranslatedText,
			&entry.UnrecognizedGestures,
			&entry.ProcessingTime,
			&entry.Facing,
			&createdAt,
		); err != nil {
			return nil, fmt.Errorf("scan translation: %w", err)
		}
		entry.CreatedAt = time.UnixMilli(createdAt).UTC()
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate translations: %w", err)
	}
	return entries, nil
}

// Facing returns the persisted camera facing, or "" when none was saved.
func (s *Store) Facing(ctx context.Context) (string, error) {
	var value string
	err := s.db.QueryRowContext(ctx, `SELECT value FROM preferences WHERE key = ?`, prefFacing).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("read facing preference: %w", err)
	}
	return value, nil
}

// SetFacing persists the camera facing.
func (s *Store) SetFacing(ctx context.Context, facing string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO preferences (key, value, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		prefFacing, facing, s.now().UTC().UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("write facing preference: %w", err)
	}
	return nil
}
