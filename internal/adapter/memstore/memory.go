package memstore

import (
	"context"
	"fmt"
	"sync"

	"github.com/Sahil13Singh/Mini-Rag-Assesment/internal/adapter/store"
	"github.com/Sahil13Singh/Mini-Rag-Assesment/internal/domain"
	"github.com/Sahil13Singh/Mini-Rag-Assesment/internal/port"
)

// MemoryStore is a process-local VectorStore. Contents are lost on exit.
type MemoryStore struct {
	mu        sync.RWMutex
	dimension int
	vectors   map[string]store.Candidate
}

func NewMemoryStore(dimension int) *MemoryStore {
	return &MemoryStore{
		dimension: dimension,
		vectors:   make(map[string]store.Candidate),
	}
}

func (s *MemoryStore) Upsert(ctx context.Context, items []port.VectorItem) error {
	for _, item := range items {
		if len(item.Vector) != s.dimension {
			return fmt.Errorf("upsert %s: %w", item.ID, domain.DimensionError(s.dimension, len(item.Vector)))
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, item := range items {
		meta := make(map[string]string, len(item.Metadata))
		for k, v := range item.Metadata {
			meta[k] = v
		}
		s.vectors[item.ID] = store.Candidate{
			ID:       item.ID,
			Vector:   append([]float32(nil), item.Vector...),
			Metadata: meta,
		}
	}
	return nil
}

func (s *MemoryStore) Query(ctx context.Context, vector []float32, topK int, includeMetadata bool) ([]port.VectorResult, error) {
	if len(vector) != s.dimension {
		return nil, fmt.Errorf("query: %w", domain.DimensionError(s.dimension, len(vector)))
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	candidates := make([]store.Candidate, 0, len(s.vectors))
	for _, c := range s.vectors {
		candidates = append(candidates, c)
	}
	return store.Rank(vector, candidates, topK, includeMetadata), nil
}

func (s *MemoryStore) Delete(ctx context.Context, ids []string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	removed := 0
	for _, id := range ids {
		if _, ok := s.vectors[id]; ok {
			delete(s.vectors, id)
			removed++
		}
	}
	return removed, nil
}

func (s *MemoryStore) Count(ctx context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.vectors), nil
}

func (s *MemoryStore) Dimension() int {
	return s.dimension
}

func (s *MemoryStore) Close() error {
	return nil
}
