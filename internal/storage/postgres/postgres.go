package postgres

import (
	"context"

	"github.com/fdg312/insulin-calc/internal/storage"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresStorage — Postgres реализация storage.Backend.
// Tables are created by goose migrations (see cmd/migrate).
type PostgresStorage struct {
	pool    *pgxpool.Pool
	kv      *PostgresKVStorage
	exports *PostgresExportsStorage
}

// New подключается к Postgres и проверяет соединение
func New(ctx context.Context, databaseURL string) (*PostgresStorage, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, err
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, err
	}

	return &PostgresStorage{
		pool:    pool,
		kv:      NewPostgresKVStorage(pool),
		exports: NewPostgresExportsStorage(pool),
	}, nil
}

func (p *PostgresStorage) KV() storage.KVStore {
	return p.kv
}

func (p *PostgresStorage) Exports() storage.ExportsStorage {
	return p.exports
}

func (p *PostgresStorage) Close() error {
	p.pool.Close()
	return nil
}
