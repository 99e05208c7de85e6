package storage

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	// ErrNotFound is returned by lookups of records that do not exist.
	ErrNotFound = errors.New("not found")
)

// KVStore — узкий интерфейс долговременного key-value хранилища.
// Calculator state is persisted only through it.
type KVStore interface {
	// Get returns the value for key. bool=false means the key is absent.
	Get(ctx context.Context, key string) (string, bool, error)

	// Set creates or overwrites the value for key.
	Set(ctx context.Context, key string, value string) error

	// Remove deletes key. Removing a missing key is not an error.
	Remove(ctx context.Context, key string) error
}

// ExportsStorage — интерфейс для метаданных экспортов таблицы доз
type ExportsStorage interface {
	// CreateExport сохраняет метаданные (и данные в memory-режиме)
	CreateExport(ctx context.Context, export *ExportMeta) error

	// GetExport returns ErrNotFound when the export does not exist.
	GetExport(ctx context.Context, id uuid.UUID) (*ExportMeta, error)

	// ListExports возвращает экспорты, новые первыми
	ListExports(ctx context.Context, limit, offset int) ([]ExportMeta, error)

	// DeleteExport returns ErrNotFound when the export does not exist.
	DeleteExport(ctx context.Context, id uuid.UUID) error
}

// ExportMeta — метаданные экспорта
type ExportMeta struct {
	ID        uuid.UUID
	Format    string  // "pdf" or "csv"
	Language  string  // "en" or "th"
	ObjectKey *string // blob object key (NULL when data is kept inline)
	SizeBytes int64
	CreatedAt time.Time
	Data      []byte // only used when no blob store is configured
}

// Backend bundles the stores a storage mode provides.
type Backend interface {
	KV() KVStore
	Exports() ExportsStorage

	// Close закрывает соединение (для Postgres/SQLite)
	Close() error
}
