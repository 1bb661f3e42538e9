package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	openai "github.com/sashabaranov/go-openai"

	"github.com/Sahil13Singh/Mini-Rag-Assesment/internal/domain"
)

// DefaultChatModel is the default model for OpenAI chat completions.
const DefaultChatModel = "gpt-4o-mini"

// OpenAIGenerator generates answers with an OpenAI-compatible chat completion API.
type OpenAIGenerator struct {
	client      *openai.Client
	model       string
	temperature float32
}

func NewOpenAIGenerator(apiKey, model, baseURL string, temperature float32) (*OpenAIGenerator, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("%w: OpenAI API key is required", domain.ErrInvalidConfig)
	}
	if model == "" {
		model = DefaultChatModel
	}

	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = strings.TrimRight(baseURL, "/")
	}

	return &OpenAIGenerator{
		client:      openai.NewClientWithConfig(cfg),
		model:       model,
		temperature: temperature,
	}, nil
}

// NewOllamaGenerator talks to a local Ollama server through its OpenAI-compatible endpoint.
func NewOllamaGenerator(model, baseURL string, temperature float32) (*OpenAIGenerator, error) {
	if baseURL == "" {
		baseURL = "http://localhost:11434/v1"
	}
	if model == "" {
		model = "llama3.2"
	}
	return NewOpenAIGenerator("ollama", model, baseURL, temperature)
}

func (g *OpenAIGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	resp, err := g.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: g.model,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleUser,
				Content: prompt,
			},
		},
		Temperature: g.temperature,
	})
	if err != nil {
		return "", classify(err)
	}

	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("%w: no completion choices returned", domain.ErrGenerationUnavailable)
	}

	return resp.Choices[0].Message.Content, nil
}

func (g *OpenAIGenerator) ModelName() string {
	return g.model
}

func classify(err error) error {
	wrapped := fmt.Errorf("%w: %v", domain.ErrGenerationUnavailable, err)

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
