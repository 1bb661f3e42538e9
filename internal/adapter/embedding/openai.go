package embedding

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	openai "github.com/sashabaranov/go-openai"

	"github.com/Sahil13Singh/Mini-Rag-Assesment/internal/domain"
)

// OpenAIEmbedder embeds text through any OpenAI-compatible embeddings API
// (OpenAI, Ollama, and others). Models without native task types get the
// intent through optional text prefixes.
type OpenAIEmbedder struct {
	client         *openai.Client
	model          string
	dimension      int
	documentPrefix string
	queryPrefix    string
}

type OpenAIOptions struct {
	APIKey         string
	BaseURL        string // Empty for api.openai.com
	Model          string
	Dimension      int
	DocumentPrefix string
	QueryPrefix    string
}

func NewOpenAIEmbedder(opts OpenAIOptions) (*OpenAIEmbedder, error) {
	if opts.APIKey == "" {
		return nil, fmt.Errorf("%w: OpenAI API key is required", domain.ErrInvalidConfig)
	}
	if opts.Model == "" {
		opts.Model = string(openai.SmallEmbedding3)
	}
	if opts.Dimension <= 0 {
		opts.Dimension = defaultOpenAIDimension(opts.Model)
	}

	cfg := openai.DefaultConfig(opts.APIKey)
	if opts.BaseURL != "" {
		cfg.BaseURL = strings.TrimRight(opts.BaseURL, "/")
	}

	return &OpenAIEmbedder{
		client:         openai.NewClientWithConfig(cfg),
		model:          opts.Model,
		dimension:      opts.Dimension,
		documentPrefix: opts.DocumentPrefix,
		queryPrefix:    opts.QueryPrefix,
	}, nil
}

// NewOllamaEmbedder talks to a local Ollama server through its OpenAI-compatible endpoint.
func NewOllamaEmbedder(model, baseURL string, dimension int) (*OpenAIEmbedder, error) {
	if baseURL == "" {
		baseURL = "http://localhost:11434/v1"
	}
	if model == "" {
		model = "nomic-embed-text"
	}
	opts := OpenAIOptions{
		APIKey:    "ollama",
		BaseURL:   baseURL,
		Model:     model,
		Dimension: dimension,
	}
	// nomic-embed-text is trained with task prefixes.
	if model == "nomic-embed-text" {
		opts.DocumentPrefix = "search_document: "
		opts.QueryPrefix = "search_query: "
	}
	return NewOpenAIEmbedder(opts)
}

func (e *OpenAIEmbedder) Embed(ctx context.Context, text string, intent domain.Intent) ([]float32, error) {
	input := text
	switch intent {
	case domain.IntentQuery:
		input = e.queryPrefix + text
	case domain.IntentDocument:
		input = e.documentPrefix + text
	}

	req := openai.EmbeddingRequestStrings{
		Input: []string{input},
		Model: openai.EmbeddingModel(e.model),
	}
	// text-embedding-3-* return their full width unless asked to shorten.
	if strings.HasPrefix(e.model, "text-embedding-3") {
		req.Dimensions = e.dimension
	}

	resp, err := e.client.CreateEmbeddings(ctx, req)
	if err != nil {
		return nil, classifyOpenAIError(domain.ErrEmbeddingUnavailable, err)
	}
	if len(resp.Data) == 0 {
		return nil, fmt.Errorf("%w: no embeddings returned", domain.ErrEmbeddingUnavailable)
	}

	vec := resp.Data[0].Embedding
	if len(vec) != e.dimension {
		return nil, fmt.Errorf("model %s: %w", e.model, domain.DimensionError(e.dimension, len(vec)))
	}
	return vec, nil
}

func (e *OpenAIEmbedder) Dimension() int {
	return e.dimension
}

func (e *OpenAIEmbedder) ModelName() string {
	return e.model
}

func defaultOpenAIDimension(model string) int {
	switch model {
	case "text-embedding-3-large":
		return 3072
	case "nomic-embed-text":
		return 768
	case "mxbai-embed-large":
		return 1024
	case "all-minilm":
		return 384
	default:
		return 1536
	}
}

// classifyOpenAIError wraps err in sentinel and marks rate limits, server
// errors and transport failures as retryable.
func classifyOpenAIError(sentinel, err error) error {
	wrapped := fmt.Errorf("%w: %v", sentinel, err)

	status := 0
	var apiErr *openai.APIError
	var reqErr *openai.RequestError
	switch {
	case errors.As(err, &apiErr):
		status = apiErr.HTTPStatusCode
	case errors.As(err, &reqErr):
		status = reqErr.HTTPStatusCode
	}

	if errors.Is(err, context.Canceled) {
		return wrapped
	}
	if status == 0 || status == http.StatusTooManyRequests || status >= 500 {
		return domain.Retryable(wrapped)
	}
	return wrapped
}
