package cli

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/Sahil13Singh/Mini-Rag-Assesment/config"
	"github.com/Sahil13Singh/Mini-Rag-Assesment/internal/adapter/analyzer"
	"github.com/Sahil13Singh/Mini-Rag-Assesment/internal/adapter/cache"
	"github.com/Sahil13Singh/Mini-Rag-Assesment/internal/adapter/chunker"
	"github.com/Sahil13Singh/Mini-Rag-Assesment/internal/adapter/embedding"
	"github.com/Sahil13Singh/Mini-Rag-Assesment/internal/adapter/llm"
	"github.com/Sahil13Singh/Mini-Rag-Assesment/internal/adapter/memstore"
	"github.com/Sahil13Singh/Mini-Rag-Assesment/internal/adapter/qdrant"
	"github.com/Sahil13Singh/Mini-Rag-Assesment/internal/adapter/reranker"
	"github.com/Sahil13Singh/Mini-Rag-Assesment/internal/adapter/store"
	"github.com/Sahil13Singh/Mini-Rag-Assesment/internal/port"
	"github.com/Sahil13Singh/Mini-Rag-Assesment/internal/usecase"
	"github.com/Sahil13Singh/Mini-Rag-Assesment/internal/util"
)

// BM25 parameters for the offline reranker.
const (
	bm25K1 = 1.2
	bm25B  = 0.75
)

// buildPipeline wires the configured providers into a pipeline. The returned
// store must be closed by the caller.
func buildPipeline(ctx context.Context, cfg *config.Config, dir string) (*usecase.Pipeline, port.VectorStore, error) {
	chk, err := chunker.NewWordChunker(cfg.Chunk.Size, cfg.Chunk.Overlap)
	if err != nil {
		return nil, nil, err
	}

	emb, err := newEmbedder(ctx, cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create embedder: %w", err)
	}

	emb = withQueryCache(emb, cfg)

	rr, err := newReranker(cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create reranker: %w", err)
	}

	gen, err := newGenerator(ctx, cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create generator: %w", err)
	}

	vs, err := openStore(ctx, cfg, dir)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open vector store: %w", err)
	}

	p, err := usecase.NewPipeline(usecase.Deps{
		Chunker:  chk,
		Embedder: emb,
		Store:    vs,
		Reranker: rr,
		LLM:      gen,
	}, usecase.Options{
		TopK:             cfg.Retrieve.TopK,
		TopN:             cfg.Retrieve.TopN,
		EmbedConcurrency: cfg.Retrieve.EmbedConcurrency,
		Retry: util.RetryPolicy{
			MaxAttempts: cfg.Retry.MaxAttempts,
			BaseDelay:   cfg.Retry.BaseDelay,
			Timeout:     cfg.Retrieve.CallTimeout,
		},
		Verbose: cfg.Logging.Level == "debug",
	})
	if err != nil {
		vs.Close()
		return nil, nil, err
	}

	log.Printf("[Pipeline] chunk=%d/%d embedder=%s store=%s reranker=%s llm=%s dim=%d",
		chk.Size(), chk.Overlap(), emb.ModelName(), cfg.Store.Provider, rr.ModelName(), gen.ModelName(), emb.Dimension())
	return p, vs, nil
}

// withQueryCache wraps emb in a query embedding cache when
// retrieve.query_cache_size is set. Off by default: every query is embedded.
func withQueryCache(emb port.Embedder, cfg *config.Config) port.Embedder {
	if cfg.Retrieve.QueryCacheSize <= 0 {
		return emb
	}
	return cache.NewCachedEmbedder(emb, cache.NewEmbeddingCache(cfg.Retrieve.QueryCacheSize, cfg.Retrieve.QueryCacheTTL))
}

func newEmbedder(ctx context.Context, cfg *config.Config) (port.Embedder, error) {
	e := cfg.Embedding
	switch e.Provider {
	case "gemini":
		return embedding.NewGeminiEmbedder(ctx, os.Getenv(e.APIKeyEnv), e.Model, e.BaseURL, e.Dimension, cfg.Retrieve.CallTimeout)
	case "openai":
		return embedding.NewOpenAIEmbedder(embedding.OpenAIOptions{
			APIKey:         os.Getenv(e.APIKeyEnv),
			BaseURL:        e.BaseURL,
			Model:          e.Model,
			Dimension:      e.Dimension,
			DocumentPrefix: e.DocumentPrefix,
			QueryPrefix:    e.QueryPrefix,
		})
	case "ollama":
		return embedding.NewOllamaEmbedder(e.Model, e.BaseURL, e.Dimension)
	case "hash":
		return embedding.NewHashEmbedder(e.Dimension), nil
	default:
		return nil, fmt.Errorf("unsupported embedding provider: %s", e.Provider)
	}
}

func newReranker(cfg *config.Config) (port.Reranker, error) {
	r := cfg.Rerank
	switch r.Provider {
	case "cohere":
		return reranker.NewCohereReranker(os.Getenv(r.APIKeyEnv), r.Model, r.BaseURL, cfg.Retrieve.CallTimeout)
	case "bm25":
		return reranker.NewBM25Reranker(analyzer.NewTokenizer(), bm25K1, bm25B), nil
	default:
		return nil, fmt.Errorf("unsupported rerank provider: %s", r.Provider)
	}
}

func newGenerator(ctx context.Context, cfg *config.Config) (port.LLM, error) {
	g := cfg.Generate
	switch g.Provider {
	case "gemini":
		return llm.NewGeminiGenerator(ctx, os.Getenv(g.APIKeyEnv), g.Model, g.BaseURL, g.Temperature, cfg.Retrieve.CallTimeout)
	case "openai":
		return llm.NewOpenAIGenerator(os.Getenv(g.APIKeyEnv), g.Model, g.BaseURL, g.Temperature)
	case "ollama":
		return llm.NewOllamaGenerator(g.Model, g.BaseURL, g.Temperature)
	default:
		return nil, fmt.Errorf("unsupported generate provider: %s", g.Provider)
	}
}

func openStore(ctx context.Context, cfg *config.Config, dir string) (port.VectorStore, error) {
	dim := cfg.Embedding.Dimension
	switch cfg.Store.Provider {
	case "bolt":
		if err := cfg.EnsureIndexDir(dir); err != nil {
			return nil, fmt.Errorf("failed to create index directory: %w", err)
		}
		return store.Open(cfg.IndexPath(dir), dim, cfg.Store.Metric)
	case "memory":
		return memstore.NewMemoryStore(dim), nil
	case "qdrant":
		q := cfg.Store.Qdrant
		return qdrant.New(ctx, qdrant.Config{
			URL:        q.URL,
			APIKey:     os.Getenv(q.APIKeyEnv),
			Collection: q.Collection,
			Dimension:  dim,
			BatchSize:  q.BatchSize,
			Timeout:    cfg.Retrieve.CallTimeout,
		})
	default:
		return nil, fmt.Errorf("unsupported store provider: %s", cfg.Store.Provider)
	}
}
