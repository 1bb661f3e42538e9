package embedding

import (
	"context"
	"fmt"
	"strings"
	"time"

	"google.golang.org/genai"

	"github.com/Sahil13Singh/Mini-Rag-Assesment/internal/adapter/remote"
	"github.com/Sahil13Singh/Mini-Rag-Assesment/internal/domain"
)

// geminiModels is the part of genai.Models the embedder uses.
type geminiModels interface {
	EmbedContent(ctx context.Context, model string, contents []*genai.Content, config *genai.EmbedContentConfig) (*genai.EmbedContentResponse, error)
}

// GeminiEmbedder embeds through the Gemini API. The intent maps onto the
// RETRIEVAL_DOCUMENT and RETRIEVAL_QUERY task types.
type GeminiEmbedder struct {
	models    geminiModels
	model     string
	dimension int
}

func NewGeminiEmbedder(ctx context.Context, apiKey, model, baseURL string, dimension int, timeout time.Duration) (*GeminiEmbedder, error) {
	client, err := remote.NewGenAIClient(ctx, apiKey, baseURL, timeout)
	if err != nil {
		return nil, err
	}
	return newGeminiEmbedder(client.Models, model, dimension), nil
}

func newGeminiEmbedder(models geminiModels, model string, dimension int) *GeminiEmbedder {
	if model == "" {
		model = "text-embedding-004"
	}
	if dimension <= 0 {
		dimension = 768
	}
	return &GeminiEmbedder{
		models:    models,
		model:     strings.TrimPrefix(model, "models/"),
		dimension: dimension,
	}
}

func (e *GeminiEmbedder) Embed(ctx context.Context, text string, intent domain.Intent) ([]float32, error) {
	cfg := &genai.EmbedContentConfig{TaskType: taskType(intent)}
	if e.dimension != 768 {
		cfg.OutputDimensionality = genai.Ptr(int32(e.dimension))
	}

	resp, err := e.models.EmbedContent(ctx, e.model, genai.Text(text), cfg)
	if err != nil {
		return nil, remote.GenAIError(ctx, domain.ErrEmbeddingUnavailable, err)
	}
	if resp == nil || len(resp.Embeddings) == 0 || resp.Embeddings[0] == nil || len(resp.Embeddings[0].Values) == 0 {
		return nil, fmt.Errorf("%w: empty embedding returned", domain.ErrEmbeddingUnavailable)
	}

	vec := resp.Embeddings[0].Values
	if len(vec) != e.dimension {
		return nil, fmt.Errorf("model %s: %w", e.model, domain.DimensionError(e.dimension, len(vec)))
	}
	return vec, nil
}

func (e *GeminiEmbedder) Dimension() int {
	return e.dimension
}

func (e *GeminiEmbedder) ModelName() string {
	return e.model
}

func taskType(intent domain.Intent) string {
	if intent == domain.IntentQuery {
		return "RETRIEVAL_QUERY"
	}
	return "RETRIEVAL_DOCUMENT"
}
