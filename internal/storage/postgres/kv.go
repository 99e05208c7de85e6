package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PostgresKVStorage struct {
	pool *pgxpool.Pool
}

func NewPostgresKVStorage(pool *pgxpool.Pool) *PostgresKVStorage {
	return &PostgresKVStorage{pool: pool}
}

func (s *PostgresKVStorage) Get(ctx context.Context, key string) (string, bool, error) {
	key = strings.TrimSpace(key)

	const query = `SELECT value FROM kv_entries WHERE key = $1`

	var value string
	err := s.pool.QueryRow(ctx, query, key).Scan(&value)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("failed to get kv entry: %w", err)
	}

	return value, true, nil
}

func (s *PostgresKVStorage) Set(ctx context.Context, key string, value string) error {
	key = strings.TrimSpace(key)

	const query = `
		INSERT INTO kv_entries (key, value, created_at, updated_at)
		VALUES ($1, $2, NOW(), NOW())
		ON CONFLICT (key) DO UPDATE SET
			value = EXCLUDED.value,
			updated_at = NOW()
	`

	if _, err := s.pool.Exec(ctx, query, key, value); err != nil {
		return fmt.Errorf("failed to set kv entry: %w", err)
	}
	return nil
}

func (s *PostgresKVStorage) Remove(ctx context.Context, key string) error {
	key = strings.TrimSpace(key)

	if _, err := s.pool.Exec(ctx, `DELETE FROM kv_entries WHERE key = $1`, key); err != nil {
		return fmt.Errorf("failed to remove kv entry: %w", err)
	}
	return nil
}
