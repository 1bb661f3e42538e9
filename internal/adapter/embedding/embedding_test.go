package embedding

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"google.golang.org/genai"

	"github.com/Sahil13Singh/Mini-Rag-Assesment/internal/adapter/store"
	"github.com/Sahil13Singh/Mini-Rag-Assesment/internal/domain"
)

// fakeGeminiModels records embed calls and answers with a fixed vector or error.
type fakeGeminiModels struct {
	configs []*genai.EmbedContentConfig
	texts   []string
	values  []float32
	err     error
}

func (f *fakeGeminiModels) EmbedContent(ctx context.Context, model string, contents []*genai.Content, config *genai.EmbedContentConfig) (*genai.EmbedContentResponse, error) {
	f.configs = append(f.configs, config)
	f.texts = append(f.texts, contents[0].Parts[0].Text)
	if f.err != nil {
		return nil, f.err
	}
	return &genai.EmbedContentResponse{Embeddings: []*genai.ContentEmbedding{{Values: f.values}}}, nil
}

func TestGeminiEmbedderTaskTypes(t *testing.T) {
	models := &fakeGeminiModels{values: make([]float32, 768)}
	e := newGeminiEmbedder(models, "models/text-embedding-004", 0)

	ctx := context.Background()
	if _, err := e.Embed(ctx, "chunk text", domain.IntentDocument); err != nil {
		t.Fatal(err)
	}
	if _, err := e.Embed(ctx, "what is this?", domain.IntentQuery); err != nil {
		t.Fatal(err)
	}

	if e.ModelName() != "text-embedding-004" || e.Dimension() != 768 {
		t.Errorf("unexpected model %s dim %d", e.ModelName(), e.Dimension())
	}
	if models.configs[0].TaskType != "RETRIEVAL_DOCUMENT" || models.configs[1].TaskType != "RETRIEVAL_QUERY" {
		t.Errorf("unexpected task types %q, %q", models.configs[0].TaskType, models.configs[1].TaskType)
	}
	if models.configs[0].OutputDimensionality != nil {
		t.Error("default dimension should not request output dimensionality")
	}
	if models.texts[1] != "what is this?" {
		t.Errorf("unexpected text sent %q", models.texts[1])
	}
}

func TestGeminiEmbedderRequestsReducedDimension(t *testing.T) {
	models := &fakeGeminiModels{values: make([]float32, 256)}
	e := newGeminiEmbedder(models, "", 256)

	if _, err := e.Embed(context.Background(), "x", domain.IntentDocument); err != nil {
		t.Fatal(err)
	}
	if d := models.configs[0].OutputDimensionality; d == nil || *d != 256 {
		t.Errorf("expected output dimensionality 256, got %v", d)
	}
}

func TestGeminiEmbedderDimensionMismatch(t *testing.T) {
	e := newGeminiEmbedder(&fakeGeminiModels{values: []float32{0.1, 0.2}}, "", 768)
	_, err := e.Embed(context.Background(), "x", domain.IntentDocument)
	if !errors.Is(err, domain.ErrDimensionMismatch) {
		t.Errorf("expected ErrDimensionMismatch, got %v", err)
	}
}

func TestGeminiEmbedderErrors(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		retryable bool
	}{
		{"rate limited", genai.APIError{Code: 429, Message: "quota"}, true},
		{"server error", genai.APIError{Code: 503, Message: "overloaded"}, true},
		{"bad key", genai.APIError{Code: 400, Message: "API key not valid"}, false},
		{"transport", errors.New("connection reset"), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newGeminiEmbedder(&fakeGeminiModels{err: tt.err}, "", 768)
			_, err := e.Embed(context.Background(), "x", domain.IntentQuery)
			if !errors.Is(err, domain.ErrEmbeddingUnavailable) {
				t.Errorf("expected ErrEmbeddingUnavailable, got %v", err)
			}
			if domain.IsRetryable(err) != tt.retryable {
				t.Errorf("IsRetryable = %v, want %v", domain.IsRetryable(err), tt.retryable)
			}
		})
	}
}

func TestGeminiEmbedderRequiresKey(t *testing.T) {
	if _, err := NewGeminiEmbedder(context.Background(), "", "", "", 0, 0); !errors.Is(err, domain.ErrInvalidConfig) {
		t.Errorf("expected ErrInvalidConfig, got %v", err)
	}
}

func TestOpenAIEmbedderPrefixesByIntent(t *testing.T) {
	var inputs []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/embeddings" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		var req struct {
			Input []string `json:"input"`
		}
		json.NewDecoder(r.Body).Decode(&req)
		inputs = append(inputs, req.Input...)
		json.NewEncoder(w).Encode(map[string]any{
			"object": "list",
			"data":   []map[string]any{{"object": "embedding", "index": 0, "embedding": []float32{0.6, 0.8, 0}}},
			"model":  "test",
		})
	}))
	defer srv.Close()

	e, err := NewOpenAIEmbedder(OpenAIOptions{
		APIKey:         "k",
		BaseURL:        srv.URL,
		Model:          "test",
		Dimension:      3,
		DocumentPrefix: "doc: ",
		QueryPrefix:    "q: ",
	})
	if err != nil {
		t.Fatal(err)
	}

	ctx := context.Background()
	vec, err := e.Embed(ctx, "hello", domain.IntentDocument)
	if err != nil {
		t.Fatal(err)
	}
	if len(vec) != 3 {
		t.Errorf("expected 3 dims, got %d", len(vec))
	}
	if _, err := e.Embed(ctx, "hello", domain.IntentQuery); err != nil {
		t.Fatal(err)
	}

	if len(inputs) != 2 || inputs[0] != "doc: hello" || inputs[1] != "q: hello" {
		t.Errorf("unexpected inputs sent: %q", inputs)
	}
}

func TestOpenAIEmbedderRequestsConfiguredDimensions(t *testing.T) {
	var gotDims []int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Model      string `json:"model"`
			Dimensions int    `json:"dimensions"`
		}
		json.NewDecoder(r.Body).Decode(&req)
		gotDims = append(gotDims, req.Dimensions)
		json.NewEncoder(w).Encode(map[string]any{
			"object": "list",
			"data":   []map[string]any{{"object": "embedding", "index": 0, "embedding": make([]float32, 768)}},
			"model":  req.Model,
		})
	}))
	defer srv.Close()

	ctx := context.Background()
	v3, _ := NewOpenAIEmbedder(OpenAIOptions{APIKey: "k", BaseURL: srv.URL, Model: "text-embedding-3-small", Dimension: 768})
	if _, err := v3.Embed(ctx, "hello", domain.IntentDocument); err != nil {
		t.Fatal(err)
	}
	older, _ := NewOpenAIEmbedder(OpenAIOptions{APIKey: "k", BaseURL: srv.URL, Model: "nomic-embed-text", Dimension: 768})
	if _, err := older.Embed(ctx, "hello", domain.IntentDocument); err != nil {
		t.Fatal(err)
	}

	if len(gotDims) != 2 || gotDims[0] != 768 || gotDims[1] != 0 {
		t.Errorf("expected dimensions [768 0], got %v", gotDims)
	}
}

func TestOpenAIEmbedderServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		w.Write([]byte(`{"error":{"message":"upstream","type":"server_error"}}`))
	}))
	defer srv.Close()

	e, _ := NewOpenAIEmbedder(OpenAIOptions{APIKey: "k", BaseURL: srv.URL, Model: "test", Dimension: 3})
	_, err := e.Embed(context.Background(), "hello", domain.IntentDocument)
	if !errors.Is(err, domain.ErrEmbeddingUnavailable) || !domain.IsRetryable(err) {
		t.Errorf("expected retryable ErrEmbeddingUnavailable, got %v", err)
	}
}

func TestHashEmbedder(t *testing.T) {
	e := NewHashEmbedder(256)
	ctx := context.Background()

	a, _ := e.Embed(ctx, "vector databases store embeddings", domain.IntentDocument)
	b, _ := e.Embed(ctx, "Vector databases store embeddings.", domain.IntentQuery)
	c, _ := e.Embed(ctx, "bananas are yellow fruit", domain.IntentDocument)

	if len(a) != 256 {
		t.Fatalf("expected 256 dims, got %d", len(a))
	}
	if sim := store.CosineSimilarity(a, b); sim < 0.999 {
		t.Errorf("identical vocabulary should embed identically, got %f", sim)
	}
	if store.CosineSimilarity(a, c) >= store.CosineSimilarity(a, b) {
		t.Error("unrelated text should be less similar than related text")
	}

	empty, _ := e.Embed(ctx, "", domain.IntentQuery)
	for _, v := range empty {
		if v != 0 {
			t.Fatal("empty text should embed to the zero vector")
		}
	}
}
