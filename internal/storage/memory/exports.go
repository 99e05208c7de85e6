package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/fdg312/insulin-calc/internal/storage"
	"github.com/google/uuid"
)

// ExportsMemoryStorage — in-memory storage для экспортов
type ExportsMemoryStorage struct {
	mu      sync.RWMutex
	exports map[uuid.UUID]*storage.ExportMeta
}

func NewExportsMemoryStorage() *ExportsMemoryStorage {
	return &ExportsMemoryStorage{
		exports: make(map[uuid.UUID]*storage.ExportMeta),
	}
}

func (s *ExportsMemoryStorage) CreateExport(ctx context.Context, export *storage.ExportMeta) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if export.ID == uuid.Nil {
		export.ID = uuid.New()
	}
	if export.CreatedAt.IsZero() {
		export.CreatedAt = time.Now()
	}

	copied := *export
	s.exports[export.ID] = &copied
	return nil
}

func (s *ExportsMemoryStorage) GetExport(ctx context.Context, id uuid.UUID) (*storage.ExportMeta, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	export, exists := s.exports[id]
	if !exists {
		return nil, storage.ErrNotFound
	}

	copied := *export
	return &copied, nil
}

func (s *ExportsMemoryStorage) ListExports(ctx context.Context, limit, offset int) ([]storage.ExportMeta, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	all := make([]storage.ExportMeta, 0, len(s.exports))
	for _, e := range s.exports {
		meta := *e
		meta.Data = nil
		all = append(all, meta)
	}

	// created_at DESC
	sort.Slice(all, func(i, j int) bool {
		return all[i].CreatedAt.After(all[j].CreatedAt)
	})

	start := offset
	if start > len(all) {
		return []storage.ExportMeta{}, nil
	}
	end := start + limit
	if end > len(all) {
		end = len(all)
	}

	return all[start:end], nil
}

func (s *ExportsMemoryStorage) DeleteExport(ctx context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.exports[id]; !exists {
		return storage.ErrNotFound
	}

	delete(s.exports, id)
	return nil
}
