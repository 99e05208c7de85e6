// Package objectkv stores each key as one object in a blob store.
package objectkv

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strings"

	"github.com/fdg312/insulin-calc/internal/blob"
	"github.com/fdg312/insulin-calc/internal/storage"
	"github.com/fdg312/insulin-calc/internal/storage/memory"
)

const defaultPrefix = "kv"

// ObjectKVStorage implements storage.Backend. Export metadata is kept in
// memory; export bytes go to the same blob store.
type ObjectKVStorage struct {
	store   blob.Store
	prefix  string
	exports *memory.ExportsMemoryStorage
}

func New(store blob.Store, prefix string) *ObjectKVStorage {
	prefix = strings.Trim(strings.TrimSpace(prefix), "/")
	if prefix == "" {
		prefix = defaultPrefix
	}
	return &ObjectKVStorage{
		store:   store,
		prefix:  prefix,
		exports: memory.NewExportsMemoryStorage(),
	}
}

func (s *ObjectKVStorage) KV() storage.KVStore {
	return s
}

func (s *ObjectKVStorage) Exports() storage.ExportsStorage {
	return s.exports
}

func (s *ObjectKVStorage) Close() error {
	return nil
}

func (s *ObjectKVStorage) objectKey(key string) string {
	return path.Join(s.prefix, strings.TrimSpace(key)+".json")
}

func (s *ObjectKVStorage) Get(ctx context.Context, key string) (string, bool, error) {
	data, err := s.store.GetObject(ctx, s.objectKey(key))
	if err != nil {
		if errors.Is(err, blob.ErrObjectNotFound) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("failed to get kv object: %w", err)
	}
	return string(data), true, nil
}

func (s *ObjectKVStorage) Set(ctx context.Context, key string, value string) error {
	if _, err := s.store.PutObject(ctx, s.objectKey(key), []byte(value), "application/json"); err != nil {
		return fmt.Errorf("failed to set kv object: %w", err)
	}
	return nil
}

func (s *ObjectKVStorage) Remove(ctx context.Context, key string) error {
	if err := s.store.DeleteObject(ctx, s.objectKey(key)); err != nil {
		return fmt.Errorf("failed to remove kv object: %w", err)
	}
	return nil
}
