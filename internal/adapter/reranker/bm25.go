package reranker

import (
	"context"
	"math"
	"sort"

	"github.com/Sahil13Singh/Mini-Rag-Assesment/internal/adapter/analyzer"
	"github.com/Sahil13Singh/Mini-Rag-Assesment/internal/port"
)

// BM25Reranker rescores candidates lexically with Okapi BM25. Corpus
// statistics are computed over the candidate set itself, so no index is
// needed and it runs fully offline.
type BM25Reranker struct {
	tokenizer port.Tokenizer
	k1        float64
	b         float64
}

// NewBM25Reranker uses the default analyzer tokenizer when tokenizer is nil.
func NewBM25Reranker(tokenizer port.Tokenizer, k1, b float64) *BM25Reranker {
	if tokenizer == nil {
		tokenizer = analyzer.NewTokenizer()
	}
	if k1 <= 0 {
		k1 = 1.2
	}
	if b < 0 || b > 1 {
		b = 0.75
	}
	return &BM25Reranker{tokenizer: tokenizer, k1: k1, b: b}
}

func (r *BM25Reranker) Rerank(ctx context.Context, query string, documents []string, topN int) ([]port.RerankedResult, error) {
	if len(documents) == 0 || topN <= 0 {
		return []port.RerankedResult{}, nil
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	docTF := make([]map[string]int, len(documents))
	docLen := make([]int, len(documents))
	df := make(map[string]int)
	totalLen := 0
	for i, doc := range documents {
		tokens := r.tokenizer.Tokenize(doc)
		docTF[i] = analyzer.TermFrequencies(tokens)
		docLen[i] = len(tokens)
		totalLen += len(tokens)
		for term := range docTF[i] {
			df[term]++
		}
	}

	n := float64(len(documents))
	avgDl := float64(totalLen) / n
	if avgDl == 0 {
		avgDl = 1
	}

	queryTerms := analyzer.TermFrequencies(r.tokenizer.Tokenize(query))

	results := make([]port.RerankedResult, len(documents))
	for i := range documents {
		var score float64
		dl := float64(docLen[i])
		for term := range queryTerms {
			tf := float64(docTF[i][term])
			if tf == 0 {
				continue
			}
			nq := float64(df[term])
			idf := math.Log((n-nq+0.5)/(nq+0.5) + 1)
			score += idf * (tf * (r.k1 + 1)) / (tf + r.k1*(1-r.b+r.b*dl/avgDl))
		}
		results[i] = port.RerankedResult{Index: i, Score: score}
	}

	// Stable so ties keep the retrieval order.
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})

	if topN < len(results) {
		results = results[:topN]
	}
	return results, nil
}

func (r *BM25Reranker) ModelName() string {
	return "bm25"
}
