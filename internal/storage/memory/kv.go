package memory

import (
	"context"
	"strings"
	"sync"
)

type KVMemoryStorage struct {
	mu     sync.RWMutex
	values map[string]string
}

func NewKVMemoryStorage() *KVMemoryStorage {
	return &KVMemoryStorage{
		values: make(map[string]string),
	}
}

func (s *KVMemoryStorage) Get(ctx context.Context, key string) (string, bool, error) {
	_ = ctx
	key = strings.TrimSpace(key)

	s.mu.RLock()
	defer s.mu.RUnlock()

	v, ok := s.values[key]
	return v, ok, nil
}

func (s *KVMemoryStorage) Set(ctx context.Context, key string, value string) error {
	_ = ctx
	key = strings.TrimSpace(key)

	s.mu.Lock()
	defer s.mu.Unlock()

	s.values[key] = value
	return nil
}

func (s *KVMemoryStorage) Remove(ctx context.Context, key string) error {
	_ = ctx
	key = strings.TrimSpace(key)

	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.values, key)
	return nil
}
