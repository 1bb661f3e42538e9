package reranker

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/Sahil13Singh/Mini-Rag-Assesment/internal/domain"
)

func TestBM25RerankerOrdersByRelevance(t *testing.T) {
	r := NewBM25Reranker(nil, 0, 0.75)

	docs := []string{
		"Database connection pooling and query optimization",
		"User authentication with JWT tokens and OAuth",
		"This is a test document about authentication and login",
		"Bananas are rich in potassium",
	}

	results, err := r.Rerank(context.Background(), "JWT authentication", docs, 3)
	if err != nil {
		t.Fatal(err)
	}

	if len(results) != 3 {
		t.Fatalf("expected 3 results, got %d", len(results))
	}
	if results[0].Index != 1 {
		t.Errorf("expected JWT document first, got index %d", results[0].Index)
	}
	if results[1].Index != 2 {
		t.Errorf("expected login document second, got index %d", results[1].Index)
	}
	for i := 1; i < len(results); i++ {
		if results[i].Score > results[i-1].Score {
			t.Errorf("results not sorted by score at %d", i)
		}
	}
}

func TestBM25RerankerLengthBound(t *testing.T) {
	r := NewBM25Reranker(nil, 1.2, 0.75)
	ctx := context.Background()

	results, err := r.Rerank(ctx, "anything", []string{"one", "two"}, 3)
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 2 {
		t.Errorf("expected min(top_n, len(docs)) = 2 results, got %d", len(results))
	}

	results, err = r.Rerank(ctx, "anything", nil, 3)
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 0 {
		t.Errorf("expected empty result for no documents, got %d", len(results))
	}
}

func TestBM25RerankerTiesKeepRetrievalOrder(t *testing.T) {
	r := NewBM25Reranker(nil, 1.2, 0.75)
	results, err := r.Rerank(context.Background(), "zebra", []string{"alpha", "beta", "gamma"}, 3)
	if err != nil {
		t.Fatal(err)
	}
	for i, res := range results {
		if res.Index != i {
			t.Errorf("position %d: expected index %d, got %d", i, i, res.Index)
		}
	}
}

func TestCohereReranker(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/rerank" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if r.Header.Get("Authorization") != "Bearer key" {
			t.Errorf("missing bearer token")
		}
		var req cohereRerankRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatal(err)
		}
		if req.TopN != 2 || req.Model != "rerank-english-v3.0" || len(req.Documents) != 3 {
			t.Errorf("unexpected request: %+v", req)
		}
		json.NewEncoder(w).Encode(cohereRerankResponse{Results: []cohereRerankResult{
			{Index: 0, RelevanceScore: 0.2},
			{Index: 2, RelevanceScore: 0.9},
		}})
	}))
	defer srv.Close()

	r, err := NewCohereReranker("key", "", srv.URL, time.Second)
	if err != nil {
		t.Fatal(err)
	}

	results, err := r.Rerank(context.Background(), "q", []string{"a", "b", "c"}, 2)
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 2 || results[0].Index != 2 || results[1].Index != 0 {
		t.Errorf("unexpected results: %+v", results)
	}
}

func TestCohereRerankerEmptyInputSkipsCall(t *testing.T) {
	called := false
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))
	defer srv.Close()

	r, _ := NewCohereReranker("key", "", srv.URL, time.Second)
	results, err := r.Rerank(context.Background(), "q", nil, 3)
	if err != nil || len(results) != 0 {
		t.Errorf("expected empty result, got %v, %v", results, err)
	}
	if called {
		t.Error("no request should be made for empty input")
	}
}

func TestCohereRerankerFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad key", http.StatusUnauthorized)
	}))
	defer srv.Close()

	r, _ := NewCohereReranker("key", "", srv.URL, time.Second)
	_, err := r.Rerank(context.Background(), "q", []string{"a"}, 1)
	if !errors.Is(err, domain.ErrRerankUnavailable) {
		t.Errorf("expected ErrRerankUnavailable, got %v", err)
	}
	if domain.IsRetryable(err) {
		t.Error("auth failures should not be retried")
	}
}
