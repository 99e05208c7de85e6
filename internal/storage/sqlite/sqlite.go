// Package sqlite keeps calculator state in a single local database file,
// the closest server-side analogue of browser local storage.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/fdg312/insulin-calc/internal/storage"
	"github.com/google/uuid"

	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS kv_entries (
  key        TEXT PRIMARY KEY,
  value      TEXT NOT NULL,
  updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);
CREATE TABLE IF NOT EXISTS dose_exports (
  id         TEXT PRIMARY KEY,
  format     TEXT NOT NULL CHECK (format IN ('pdf','csv')),
  language   TEXT NOT NULL DEFAULT 'en',
  object_key TEXT,
  size_bytes INTEGER NOT NULL DEFAULT 0,
  data       BLOB,
  created_at DATETIME NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_dose_exports_created ON dose_exports(created_at);
`

type SQLiteStorage struct {
	db *sql.DB
}

// Open opens (or creates) the database at path and ensures the schema exists.
func Open(path string) (*SQLiteStorage, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, fmt.Errorf("sqlite path is empty")
	}

	dsn := "file:" + path + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create sqlite schema: %w", err)
	}

	return &SQLiteStorage{db: db}, nil
}

func (s *SQLiteStorage) KV() storage.KVStore {
	return s
}

func (s *SQLiteStorage) Exports() storage.ExportsStorage {
	return s
}

func (s *SQLiteStorage) Close() error {
	return s.db.Close()
}

func (s *SQLiteStorage) Get(ctx context.Context, key string) (string, bool, error) {
	var value string
	err := s.db.QueryRowContext(ctx, `SELECT value FROM kv_entries WHERE key = ?`, strings.TrimSpace(key)).Scan(&value)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("failed to get kv entry: %w", err)
	}
	return value, true, nil
}

func (s *SQLiteStorage) Set(ctx context.Context, key string, value string) error {
	_, err := s.db.ExecContext(ctx, `
INSERT INTO kv_entries (key, value, updated_at) VALUES (?, ?, CURRENT_TIMESTAMP)
ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = CURRENT_TIMESTAMP`,
		strings.TrimSpace(key), value)
	if err != nil {
		return fmt.Errorf("failed to set kv entry: %w", err)
	}
	return nil
}

func (s *SQLiteStorage) Remove(ctx context.Context, key string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM kv_entries WHERE key = ?`, strings.TrimSpace(key)); err != nil {
		return fmt.Errorf("failed to remove kv entry: %w", err)
	}
	return nil
}

func (s *SQLiteStorage) CreateExport(ctx context.Context, export *storage.ExportMeta) error {
	if export.ID == uuid.Nil {
		export.ID = uuid.New()
	}
	export.CreatedAt = time.Now().UTC()

	_, err := s.db.ExecContext(ctx, `
INSERT INTO dose_exports (id, format, language, object_key, size_bytes, data, created_at)
VALUES (?, ?, ?, ?, ?, ?, ?)`,
		export.ID.String(),
		export.Format,
		export.Language,
		export.ObjectKey,
		export.SizeBytes,
		export.Data,
		export.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create export: %w", err)
	}
	return nil
}

func (s *SQLiteStorage) GetExport(ctx context.Context, id uuid.UUID) (*storage.ExportMeta, error) {
	row := s.db.QueryRowContext(ctx, `
SELECT id, format, language, object_key, size_bytes, data, created_at
FROM dose_exports WHERE id = ?`, id.String())

	export, err := scanExport(row, true)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get export: %w", err)
	}
	return export, nil
}

func (s *SQLiteStorage) ListExports(ctx context.Context, limit, offset int) ([]storage.ExportMeta, error) {
	rows, err := s.db.QueryContext(ctx, `
SELECT id, format, language, object_key, size_bytes, created_at
FROM dose_exports ORDER BY created_at DESC LIMIT ? OFFSET ?`, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list exports: %w", err)
	}
	defer rows.Close()

	out := []storage.ExportMeta{}
	for rows.Next() {
		export, err := scanExport(rows, false)
		if err != nil {
			return nil, fmt.Errorf("failed to scan export: %w", err)
		}
		out = append(out, *export)
	}
	return out, rows.Err()
}

func (s *SQLiteStorage) DeleteExport(ctx context.Context, id uuid.UUID) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM dose_exports WHERE id = ?`, id.String())
	if err != nil {
		return fmt.Errorf("failed to delete export: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to delete export: %w", err)
	}
	if n == 0 {
		return storage.ErrNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanExport(row rowScanner, withData bool) (*storage.ExportMeta, error) {
	var (
		export    storage.ExportMeta
		id        string
		objectKey sql.NullString
	)

	dest := []any{&id, &export.Format, &export.Language, &objectKey, &export.SizeBytes}
	if withData {
		dest = append(dest, &export.Data)
	}
	dest = append(dest, &export.CreatedAt)

	if err := row.Scan(dest...); err != nil {
		return nil, err
	}

	parsed, err := uuid.Parse(id)
	if err != nil {
		return nil, fmt.Errorf("invalid export id %q: %w", id, err)
	}
	export.ID = parsed
	if objectKey.Valid {
		key := objectKey.String
		export.ObjectKey = &key
	}
	return &export, nil
}
