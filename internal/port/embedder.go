package port

import (
	"context"

	"github.com/Sahil13Singh/Mini-Rag-Assesment/internal/domain"
)

// Embedder generates vector embeddings for text.
type Embedder interface {
	// Embed returns the embedding of text. The intent selects the
	// document- or query-side representation for asymmetric models.
	Embed(ctx context.Context, text string, intent domain.Intent) ([]float32, error)

	// Dimension returns the embedding vector dimension.
	Dimension() int

	// ModelName returns the name of the embedding model.
	ModelName() string
}

// VectorStore stores and searches embedding vectors.
type VectorStore interface {
	// Upsert adds or overwrites vectors by ID. A batch that is only partly
	// applied fails with *domain.PartialUpsertError.
	Upsert(ctx context.Context, items []VectorItem) error

	// Query returns up to topK nearest vectors, most similar first.
	Query(ctx context.Context, vector []float32, topK int, includeMetadata bool) ([]VectorResult, error)

	// Delete removes vectors by their IDs and returns how many of them
	// were present. Unknown IDs are ignored.
	Delete(ctx context.Context, ids []string) (int, error)

	// Count returns the number of vectors in the store.
	Count(ctx context.Context) (int, error)

	// Dimension returns the dimensionality the store was provisioned with.
	Dimension() int

	Close() error
}

// VectorItem represents a vector to be stored.
type VectorItem struct {
	ID       string            // Chunk ID
	Vector   []float32         // Embedding vector
	Metadata map[string]string // text and source
}

// VectorResult represents a search result.
type VectorResult struct {
	ID       string            // Chunk ID
	Score    float64           // Cosine similarity (higher is better)
	Metadata map[string]string // Nil unless requested
}
