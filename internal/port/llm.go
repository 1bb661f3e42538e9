package port

import "context"

// LLM represents a language model for text generation.
type LLM interface {
	// Generate returns the model's completion for prompt.
	Generate(ctx context.Context, prompt string) (string, error)

	// ModelName returns the name of the model.
	ModelName() string
}

// Reranker scores query-document pairs for relevance.
type Reranker interface {
	// Rerank scores documents against query and returns at most topN
	// results sorted by relevance score (highest first).
	Rerank(ctx context.Context, query string, documents []string, topN int) ([]RerankedResult, error)

	// ModelName returns the name of the reranking model.
	ModelName() string
}

// RerankedResult represents a reranked document.
type RerankedResult struct {
	Index int     // Original index in the input slice
	Score float64 // Relevance score (higher is better)
}
