package store

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"sync"

	"go.etcd.io/bbolt"

	"github.com/Sahil13Singh/Mini-Rag-Assesment/internal/domain"
	"github.com/Sahil13Singh/Mini-Rag-Assesment/internal/port"
)

// BoltVectorStore implements VectorStore using BoltDB for persistence.
// Uses brute-force search over an in-memory copy of the vectors.
type BoltVectorStore struct {
	db        *bbolt.DB
	dimension int
	mu        sync.RWMutex
	vectors   map[string]vectorEntry
}

type vectorEntry struct {
	vector   []float32
	metadata map[string]string
}

type storedVector struct {
	Vector   []float32         `json:"v"`
	Metadata map[string]string `json:"m,omitempty"`
}

func newBoltVectorStore(db *bbolt.DB, dimension int) (*BoltVectorStore, error) {
	store := &BoltVectorStore{
		db:        db,
		dimension: dimension,
		vectors:   make(map[string]vectorEntry),
	}

	if err := store.loadVectors(); err != nil {
		return nil, fmt.Errorf("failed to load vectors: %w", err)
	}

	return store, nil
}

// loadVectors loads all vectors from BoltDB into memory.
func (s *BoltVectorStore) loadVectors() error {
	return s.db.View(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketVectors).ForEach(func(k, v []byte) error {
			var stored storedVector
			if err := json.Unmarshal(v, &stored); err != nil {
				return nil // Skip corrupted entries
			}
			s.vectors[string(k)] = vectorEntry{
				vector:   stored.Vector,
				metadata: stored.Metadata,
			}
			return nil
		})
	})
}

// Upsert adds or overwrites vectors. The batch is written in a single bolt
// transaction, so it is applied entirely or not at all.
func (s *BoltVectorStore) Upsert(ctx context.Context, items []port.VectorItem) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	for _, item := range items {
		if len(item.Vector) != s.dimension {
			return fmt.Errorf("upsert %s: %w", item.ID, domain.DimensionError(s.dimension, len(item.Vector)))
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	err := s.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket(bucketVectors)
		for _, item := range items {
			data, err := json.Marshal(storedVector{Vector: item.Vector, Metadata: item.Metadata})
			if err != nil {
				return err
			}
			if err := b.Put([]byte(item.ID), data); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrStoreUnavailable, err)
	}

	for _, item := range items {
		s.vectors[item.ID] = vectorEntry{
			vector:   item.Vector,
			metadata: copyMetadata(item.Metadata),
		}
	}
	return nil
}

// Query finds the topK nearest vectors using cosine similarity.
func (s *BoltVectorStore) Query(ctx context.Context, vector []float32, topK int, includeMetadata bool) ([]port.VectorResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(vector) != s.dimension {
		return nil, fmt.Errorf("query: %w", domain.DimensionError(s.dimension, len(vector)))
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	candidates := make([]Candidate, 0, len(s.vectors))
	for id, entry := range s.vectors {
		candidates = append(candidates, Candidate{ID: id, Vector: entry.vector, Metadata: entry.metadata})
	}
	return Rank(vector, candidates, topK, includeMetadata), nil
}

// Delete removes vectors by their IDs.
func (s *BoltVectorStore) Delete(ctx context.Context, ids []string) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	err := s.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket(bucketVectors)
		for _, id := range ids {
			key := []byte(id)
			if b.Get(key) == nil {
				continue
			}
			if err := b.Delete(key); err != nil {
				return err
			}
			removed++
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("%w: %v", domain.ErrStoreUnavailable, err)
	}
	for _, id := range ids {
		delete(s.vectors, id)
	}
	return removed, nil
}

// Count returns the number of vectors in the store.
func (s *BoltVectorStore) Count(ctx context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.vectors), nil
}

func (s *BoltVectorStore) Dimension() int {
	return s.dimension
}

func (s *BoltVectorStore) Close() error {
	return s.db.Close()
}

// Candidate is one stored vector considered by Rank.
type Candidate struct {
	ID       string
	Vector   []float32
	Metadata map[string]string
}

// Rank scores candidates against query by cosine similarity and returns the
// topK best, highest first. Equal scores are ordered by ID.
func Rank(query []float32, candidates []Candidate, topK int, includeMetadata bool) []port.VectorResult {
	if topK <= 0 || len(candidates) == 0 {
		return []port.VectorResult{}
	}

	results := make([]port.VectorResult, len(candidates))
	for i, c := range candidates {
		results[i] = port.VectorResult{ID: c.ID, Score: CosineSimilarity(query, c.Vector)}
		if includeMetadata {
			results[i].Metadata = copyMetadata(c.Metadata)
		}
	}

	sort.Slice(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		return results[i].ID < results[j].ID
	})

	if topK < len(results) {
		results = results[:topK]
	}
	return results
}

// CosineSimilarity calculates the cosine similarity between two vectors.
func CosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) {
		return 0
	}

	var dotProduct, normA, normB float64
	for i := range a {
		dotProduct += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}

	if normA == 0 || normB == 0 {
		return 0
	}

	return dotProduct / (math.Sqrt(normA) * math.Sqrt(normB))
}

func copyMetadata(m map[string]string) map[string]string {
	if m == nil {
		return nil
	}
	out := make(map[string]string, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
