package llm

import (
	"context"
	"fmt"
	"strings"
	"time"

	"google.golang.org/genai"

	"github.com/Sahil13Singh/Mini-Rag-Assesment/internal/adapter/remote"
	"github.com/Sahil13Singh/Mini-Rag-Assesment/internal/domain"
)

// geminiModels is the part of genai.Models the generator uses.
type geminiModels interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// GeminiGenerator generates answers through the Gemini API.
type GeminiGenerator struct {
	models      geminiModels
	model       string
	temperature float32
}

func NewGeminiGenerator(ctx context.Context, apiKey, model, baseURL string, temperature float32, timeout time.Duration) (*GeminiGenerator, error) {
	client, err := remote.NewGenAIClient(ctx, apiKey, baseURL, timeout)
	if err != nil {
		return nil, err
	}
	return newGeminiGenerator(client.Models, model, temperature), nil
}

func newGeminiGenerator(models geminiModels, model string, temperature float32) *GeminiGenerator {
	if model == "" {
		model = "gemini-2.5-flash"
	}
	return &GeminiGenerator{
		models:      models,
		model:       strings.TrimPrefix(model, "models/"),
		temperature: temperature,
	}
}

func (g *GeminiGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	resp, err := g.models.GenerateContent(ctx, g.model, genai.Text(prompt), &genai.GenerateContentConfig{
		Temperature: genai.Ptr(g.temperature),
	})
	if err != nil {
		return "", remote.GenAIError(ctx, domain.ErrGenerationUnavailable, err)
	}

	if resp.PromptFeedback != nil && resp.PromptFeedback.BlockReason != "" {
		return "", fmt.Errorf("%w: prompt blocked (%s)", domain.ErrGenerationUnavailable, resp.PromptFeedback.BlockReason)
	}
	if len(resp.Candidates) == 0 {
		return "", fmt.Errorf("%w: no candidates returned", domain.ErrGenerationUnavailable)
	}
	return resp.Text(), nil
}

func (g *GeminiGenerator) ModelName() string {
	return g.model
}
