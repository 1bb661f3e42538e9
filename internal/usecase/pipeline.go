package usecase

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/Sahil13Singh/Mini-Rag-Assesment/internal/domain"
	"github.com/Sahil13Singh/Mini-Rag-Assesment/internal/port"
	"github.com/Sahil13Singh/Mini-Rag-Assesment/internal/util"
)

// Deps are the collaborators a Pipeline drives.
type Deps struct {
	Chunker  port.Chunker
	Embedder port.Embedder
	Store    port.VectorStore
	Reranker port.Reranker
	LLM      port.LLM
}

// Options tune retrieval and remote-call behavior.
type Options struct {
	TopK             int
	TopN             int
	EmbedConcurrency int
	Retry            util.RetryPolicy
	Verbose          bool
}

func DefaultOptions() Options {
	return Options{
		TopK:             10,
		TopN:             3,
		EmbedConcurrency: 4,
		Retry: util.RetryPolicy{
			MaxAttempts: 3,
			BaseDelay:   500 * time.Millisecond,
			Timeout:     30 * time.Second,
		},
	}
}

// Pipeline orchestrates ingest (chunk, embed, upsert) and query
// (embed, retrieve, rerank, compose). It holds no per-request state and is
// safe for concurrent use.
type Pipeline struct {
	deps     Deps
	opts     Options
	composer *Composer
}

// NewPipeline validates deps and opts. The embedder and store must agree on
// vector dimension.
func NewPipeline(deps Deps, opts Options) (*Pipeline, error) {
	switch {
	case deps.Chunker == nil:
		return nil, fmt.Errorf("%w: chunker is required", domain.ErrInvalidConfig)
	case deps.Embedder == nil:
		return nil, fmt.Errorf("%w: embedder is required", domain.ErrInvalidConfig)
	case deps.Store == nil:
		return nil, fmt.Errorf("%w: vector store is required", domain.ErrInvalidConfig)
	case deps.Reranker == nil:
		return nil, fmt.Errorf("%w: reranker is required", domain.ErrInvalidConfig)
	case deps.LLM == nil:
		return nil, fmt.Errorf("%w: llm is required", domain.ErrInvalidConfig)
	}
	if opts.TopK <= 0 || opts.TopN <= 0 {
		return nil, fmt.Errorf("%w: top_k and top_n must be positive", domain.ErrInvalidConfig)
	}
	if opts.EmbedConcurrency <= 0 {
		opts.EmbedConcurrency = 1
	}
	if want, got := deps.Store.Dimension(), deps.Embedder.Dimension(); want != got {
		return nil, fmt.Errorf("embedder %s: %w", deps.Embedder.ModelName(), domain.DimensionError(want, got))
	}

	return &Pipeline{
		deps:     deps,
		opts:     opts,
		composer: NewComposer(deps.LLM),
	}, nil
}

// Ingest chunks doc, embeds every chunk and stores them in one upsert.
// Chunk ids are <source>_<index>, so ingesting the same source again
// overwrites the earlier chunks in place and drops any left over.
func (p *Pipeline) Ingest(ctx context.Context, doc domain.Document) (domain.IngestResult, error) {
	start := time.Now()

	if strings.TrimSpace(doc.Text) == "" {
		return domain.IngestResult{}, domain.ErrNoContent
	}
	source := doc.Source
	if source == "" {
		source = domain.ManualSource
	}

	texts, err := p.deps.Chunker.Chunk(doc.Text)
	if err != nil {
		return domain.IngestResult{}, err
	}
	if len(texts) == 0 {
		return domain.IngestResult{}, domain.ErrNoContent
	}

	chunks := make([]domain.Chunk, len(texts))
	for i, text := range texts {
		chunks[i] = domain.Chunk{
			ID:     domain.ChunkID(source, i),
			Source: source,
			Index:  i,
			Text:   text,
		}
	}
	p.debugf("[Pipeline] %s: %d chunks", source, len(chunks))

	vectors, err := p.embedChunks(ctx, chunks)
	if err != nil {
		return domain.IngestResult{}, err
	}

	items := make([]port.VectorItem, len(chunks))
	for i, c := range chunks {
		items[i] = port.VectorItem{
			ID:     c.ID,
			Vector: vectors[i],
			Metadata: map[string]string{
				domain.MetaText:   c.Text,
				domain.MetaSource: c.Source,
			},
		}
	}

	err = util.Retry(ctx, p.opts.Retry, func(ctx context.Context) error {
		return p.deps.Store.Upsert(ctx, items)
	})
	if err != nil {
		return domain.IngestResult{}, unavailable(domain.ErrStoreUnavailable, err)
	}

	pruned, err := p.pruneStale(ctx, source, len(chunks))
	if err != nil {
		return domain.IngestResult{}, err
	}
	if pruned > 0 {
		log.Printf("[Pipeline] %s: removed %d stale chunks", source, pruned)
	}

	log.Printf("[Pipeline] Ingested %s: %d chunks in %v", source, len(chunks), time.Since(start).Round(time.Millisecond))
	return domain.IngestResult{Status: "success", Chunks: len(chunks), Source: source}, nil
}

// staleBatch is how many chunk ids pruneStale deletes per store call.
const staleBatch = 64

// pruneStale deletes <source>_<from> onwards, the tail left by a longer
// earlier version of source. Chunk ids of a source are contiguous, so it
// stops at the first batch that was not fully present.
func (p *Pipeline) pruneStale(ctx context.Context, source string, from int) (int, error) {
	removed := 0
	for start := from; ; start += staleBatch {
		ids := make([]string, staleBatch)
		for i := range ids {
			ids[i] = domain.ChunkID(source, start+i)
		}

		var n int
		err := util.Retry(ctx, p.opts.Retry, func(ctx context.Context) error {
			var err error
			n, err = p.deps.Store.Delete(ctx, ids)
			return err
		})
		if err != nil {
			return removed, unavailable(domain.ErrStoreUnavailable, err)
		}
		removed += n
		if n < len(ids) {
			return removed, nil
		}
	}
}

// embedChunks embeds chunks concurrently. The result is positional: vectors[i]
// belongs to chunks[i]. Any failure cancels the remaining calls.
func (p *Pipeline) embedChunks(ctx context.Context, chunks []domain.Chunk) ([][]float32, error) {
	vectors := make([][]float32, len(chunks))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.opts.EmbedConcurrency)
	for i := range chunks {
		g.Go(func() error {
			var vec []float32
			err := util.Retry(gctx, p.opts.Retry, func(ctx context.Context) error {
				var err error
				vec, err = p.deps.Embedder.Embed(ctx, chunks[i].Text, domain.IntentDocument)
				return err
			})
			if err != nil {
				return fmt.Errorf("chunk %s: %w", chunks[i].ID, err)
			}
			vectors[i] = vec
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, unavailable(domain.ErrEmbeddingUnavailable, err)
	}
	return vectors, nil
}

// Query answers q from the indexed chunks. When retrieval finds nothing the
// fixed no-context answer is returned without calling the reranker or LLM.
func (p *Pipeline) Query(ctx context.Context, q string) (domain.Answer, error) {
	start := time.Now()

	if strings.TrimSpace(q) == "" {
		return domain.Answer{}, domain.ErrEmptyQuery
	}

	var qvec []float32
	err := util.Retry(ctx, p.opts.Retry, func(ctx context.Context) error {
		var err error
		qvec, err = p.deps.Embedder.Embed(ctx, q, domain.IntentQuery)
		return err
	})
	if err != nil {
		return domain.Answer{}, unavailable(domain.ErrEmbeddingUnavailable, err)
	}

	var matches []port.VectorResult
	err = util.Retry(ctx, p.opts.Retry, func(ctx context.Context) error {
		var err error
		matches, err = p.deps.Store.Query(ctx, qvec, p.opts.TopK, true)
		return err
	})
	if err != nil {
		return domain.Answer{}, unavailable(domain.ErrStoreUnavailable, err)
	}

	candidates := make([]string, 0, len(matches))
	for _, m := range matches {
		if text := m.Metadata[domain.MetaText]; text != "" {
			candidates = append(candidates, text)
		}
	}
	p.debugf("[Pipeline] retrieved %d candidates", len(candidates))

	if len(candidates) == 0 {
		log.Printf("[Pipeline] No context for query (%v)", time.Since(start).Round(time.Millisecond))
		return domain.Answer{Text: domain.NoContextAnswer, Sources: []string{}}, nil
	}

	ranked, err := p.rerank(ctx, q, candidates)
	if err != nil {
		return domain.Answer{}, err
	}

	var answer domain.Answer
	err = util.Retry(ctx, p.opts.Retry, func(ctx context.Context) error {
		var err error
		answer, err = p.composer.Compose(ctx, q, ranked)
		return err
	})
	if err != nil {
		return domain.Answer{}, unavailable(domain.ErrGenerationUnavailable, err)
	}

	log.Printf("[Pipeline] Answered query with %d sources in %v", len(answer.Sources), time.Since(start).Round(time.Millisecond))
	return answer, nil
}

// rerank returns at most TopN candidates in reranker order.
func (p *Pipeline) rerank(ctx context.Context, q string, candidates []string) ([]string, error) {
	var results []port.RerankedResult
	err := util.Retry(ctx, p.opts.Retry, func(ctx context.Context) error {
		var err error
		results, err = p.deps.Reranker.Rerank(ctx, q, candidates, p.opts.TopN)
		return err
	})
	if err != nil {
		return nil, unavailable(domain.ErrRerankUnavailable, err)
	}

	limit := min(p.opts.TopN, len(candidates))
	ranked := make([]string, 0, limit)
	for _, r := range results {
		if len(ranked) == limit {
			break
		}
		if r.Index < 0 || r.Index >= len(candidates) {
			return nil, fmt.Errorf("%w: result index %d out of range", domain.ErrRerankUnavailable, r.Index)
		}
		ranked = append(ranked, candidates[r.Index])
	}
	p.debugf("[Pipeline] reranked to %d chunks", len(ranked))
	return ranked, nil
}

// Count reports the number of indexed chunks.
func (p *Pipeline) Count(ctx context.Context) (int, error) {
	n, err := p.deps.Store.Count(ctx)
	if err != nil {
		return 0, unavailable(domain.ErrStoreUnavailable, err)
	}
	return n, nil
}

func (p *Pipeline) debugf(format string, args ...any) {
	if p.opts.Verbose {
		log.Printf(format, args...)
	}
}

// unavailable tags err with sentinel unless it already carries a more
// specific domain error. Retryable marks survive the wrap.
func unavailable(sentinel, err error) error {
	switch {
	case errors.Is(err, sentinel),
		errors.Is(err, domain.ErrDimensionMismatch),
		errors.Is(err, context.Canceled):
		return err
	}
	return fmt.Errorf("%w: %w", sentinel, err)
}
