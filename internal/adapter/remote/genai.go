package remote

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"google.golang.org/genai"

	"github.com/Sahil13Singh/Mini-Rag-Assesment/internal/domain"
)

// NewGenAIClient builds a Gemini API client. baseURL is optional and only
// needed for proxies or tests.
func NewGenAIClient(ctx context.Context, apiKey, baseURL string, timeout time.Duration) (*genai.Client, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("%w: Gemini API key is required", domain.ErrInvalidConfig)
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	cfg := &genai.ClientConfig{
		APIKey:     apiKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: &http.Client{Timeout: timeout},
	}
	if baseURL != "" {
		cfg.HTTPOptions.BaseURL = strings.TrimRight(baseURL, "/") + "/"
	}

	client, err := genai.NewClient(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidConfig, err)
	}
	return client, nil
}

// GenAIError wraps a Gemini SDK error in sentinel. Rate limits, server
// errors and transport failures are marked retryable, the same as Do.
func GenAIError(ctx context.Context, sentinel, err error) error {
	if status, ok := genAIStatus(err); ok {
		wrapped := fmt.Errorf("%w: %w", sentinel, err)
		if status == http.StatusTooManyRequests || status >= 500 {
			return domain.Retryable(wrapped)
		}
		return wrapped
	}
	if ctx.Err() != nil && !errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return fmt.Errorf("%w: %v", sentinel, ctx.Err())
	}
	return domain.Retryable(fmt.Errorf("%w: request failed: %v", sentinel, err))
}

func genAIStatus(err error) (int, bool) {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return apiErr.Code, true
	}
	var apiErrPtr *genai.APIError
	if errors.As(err, &apiErrPtr) {
		return apiErrPtr.Code, true
	}
	return 0, false
}
