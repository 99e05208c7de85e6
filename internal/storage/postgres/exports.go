package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/fdg312/insulin-calc/internal/storage"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresExportsStorage — Postgres storage для экспортов.
// Inline data is stored in a bytea column when no blob store is used.
type PostgresExportsStorage struct {
	pool *pgxpool.Pool
}

func NewPostgresExportsStorage(pool *pgxpool.Pool) *PostgresExportsStorage {
	return &PostgresExportsStorage{pool: pool}
}

func (s *PostgresExportsStorage) CreateExport(ctx context.Context, export *storage.ExportMeta) error {
	query := `
		INSERT INTO dose_exports (id, format, language, object_key, size_bytes, data, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, NOW())
		RETURNING created_at
	`

	if export.ID == uuid.Nil {
		export.ID = uuid.New()
	}

	err := s.pool.QueryRow(ctx, query,
		export.ID,
		export.Format,
		export.Language,
		export.ObjectKey,
		export.SizeBytes,
		export.Data,
	).Scan(&export.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create export: %w", err)
	}

	return nil
}

func (s *PostgresExportsStorage) GetExport(ctx context.Context, id uuid.UUID) (*storage.ExportMeta, error) {
	query := `
		SELECT id, format, language, object_key, size_bytes, data, created_at
		FROM dose_exports
		WHERE id = $1
	`

	var export storage.ExportMeta
	err := s.pool.QueryRow(ctx, query, id).Scan(
		&export.ID,
		&export.Format,
		&export.Language,
		&export.ObjectKey,
		&export.SizeBytes,
		&export.Data,
		&export.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get export: %w", err)
	}

	return &export, nil
}

func (s *PostgresExportsStorage) ListExports(ctx context.Context, limit, offset int) ([]storage.ExportMeta, error) {
	query := `
		SELECT id, format, language, object_key, size_bytes, created_at
		FROM dose_exports
		ORDER BY created_at DESC
		LIMIT $1 OFFSET $2
	`

	rows, err := s.pool.Query(ctx, query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list exports: %w", err)
	}
	defer rows.Close()

	exports := []storage.ExportMeta{}
	for rows.Next() {
		var e storage.ExportMeta
		if err := rows.Scan(
			&e.ID,
			&e.Format,
			&e.Language,
			&e.ObjectKey,
			&e.SizeBytes,
			&e.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan export: %w", err)
		}
		exports = append(exports, e)
	}

	return exports, rows.Err()
}

func (s *PostgresExportsStorage) DeleteExport(ctx context.Context, id uuid.UUID) error {
	result, err := s.pool.Exec(ctx, `DELETE FROM dose_exports WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete export: %w", err)
	}
	if result.RowsAffected() == 0 {
		return storage.ErrNotFound
	}
	return nil
}
