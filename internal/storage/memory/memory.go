package memory

import (
	"github.com/fdg312/insulin-calc/internal/storage"
)

// MemoryStorage — in-memory реализация storage.Backend
type MemoryStorage struct {
	kv      *KVMemoryStorage
	exports *ExportsMemoryStorage
}

// New создаёт пустое in-memory хранилище
func New() *MemoryStorage {
	return &MemoryStorage{
		kv:      NewKVMemoryStorage(),
		exports: NewExportsMemoryStorage(),
	}
}

func (m *MemoryStorage) KV() storage.KVStore {
	return m.kv
}

func (m *MemoryStorage) Exports() storage.ExportsStorage {
	return m.exports
}

func (m *MemoryStorage) Close() error {
	// no-op для memory
	return nil
}
