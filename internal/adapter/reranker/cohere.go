package reranker

import (
	"context"
	"fmt"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/Sahil13Singh/Mini-Rag-Assesment/internal/adapter/remote"
	"github.com/Sahil13Singh/Mini-Rag-Assesment/internal/domain"
	"github.com/Sahil13Singh/Mini-Rag-Assesment/internal/port"
)

const defaultCohereBaseURL = "https://api.cohere.ai/v1"

// CohereReranker implements cross-encoder reranking using Cohere's API.
type CohereReranker struct {
	baseURL string
	model   string
	client  *remote.Client
}

// Cohere API types
type cohereRerankRequest struct {
	Query     string   `json:"query"`
	Documents []string `json:"documents"`
	Model     string   `json:"model"`
	TopN      int      `json:"top_n,omitempty"`
}

type cohereRerankResponse struct {
	Results []cohereRerankResult `json:"results"`
}

type cohereRerankResult struct {
	Index          int     `json:"index"`
	RelevanceScore float64 `json:"relevance_score"`
}

// NewCohereReranker creates a new Cohere reranker.
func NewCohereReranker(apiKey, model, baseURL string, timeout time.Duration) (*CohereReranker, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("%w: Cohere API key is required", domain.ErrInvalidConfig)
	}
	if model == "" {
		model = "rerank-english-v3.0"
	}
	if baseURL == "" {
		baseURL = defaultCohereBaseURL
	}

	return &CohereReranker{
		baseURL: strings.TrimRight(baseURL, "/"),
		model:   model,
		client:  remote.NewClient(timeout, domain.ErrRerankUnavailable, map[string]string{"Authorization": "Bearer " + apiKey}),
	}, nil
}

// Rerank scores and reorders documents based on query relevance.
func (r *CohereReranker) Rerank(ctx context.Context, query string, documents []string, topN int) ([]port.RerankedResult, error) {
	if len(documents) == 0 || topN <= 0 {
		return []port.RerankedResult{}, nil
	}

	// Cohere has a limit of 1000 documents per request
	const maxDocs = 1000
	if len(documents) > maxDocs {
		documents = documents[:maxDocs]
	}
	if topN > len(documents) {
		topN = len(documents)
	}

	var resp cohereRerankResponse
	err := r.client.Do(ctx, http.MethodPost, r.baseURL+"/rerank", cohereRerankRequest{
		Query:     query,
		Documents: documents,
		Model:     r.model,
		TopN:      topN,
	}, &resp)
	if err != nil {
		return nil, err
	}

	results := make([]port.RerankedResult, 0, len(resp.Results))
	for _, res := range resp.Results {
		if res.Index < 0 || res.Index >= len(documents) {
			return nil, fmt.Errorf("%w: result index %d out of range", domain.ErrRerankUnavailable, res.Index)
		}
		results = append(results, port.RerankedResult{
			Index: res.Index,
			Score: res.RelevanceScore,
		})
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})
	if len(results) > topN {
		results = results[:topN]
	}

	return results, nil
}

// ModelName returns the model name.
func (r *CohereReranker) ModelName() string {
	return r.model
}
