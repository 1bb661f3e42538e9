package embedding

import (
	"context"
	"hash/fnv"
	"math"
	"strings"

	"github.com/Sahil13Singh/Mini-Rag-Assesment/internal/domain"
)

// HashEmbedder is an offline embedder based on signed feature hashing of
// lowercase words. Texts sharing vocabulary land close together, which is
// enough for local runs and tests. Intent is ignored.
type HashEmbedder struct {
	dimension int
}

func NewHashEmbedder(dimension int) *HashEmbedder {
	if dimension <= 0 {
		dimension = 768
	}
	return &HashEmbedder{dimension: dimension}
}

func (e *HashEmbedder) Embed(ctx context.Context, text string, intent domain.Intent) ([]float32, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	vec := make([]float32, e.dimension)
	for _, word := range strings.Fields(strings.ToLower(text)) {
		word = strings.TrimFunc(word, isPunct)
		if word == "" {
			continue
		}
		h := fnv.New64a()
		h.Write([]byte(word))
		sum := h.Sum64()
		idx := int(sum % uint64(e.dimension))
		if sum&(1<<63) != 0 {
			vec[idx]--
		} else {
			vec[idx]++
		}
	}

	var norm float64
	for _, v := range vec {
		norm += float64(v) * float64(v)
	}
	if norm > 0 {
		scale := float32(1 / math.Sqrt(norm))
		for i := range vec {
			vec[i] *= scale
		}
	}
	return vec, nil
}

func (e *HashEmbedder) Dimension() int {
	return e.dimension
}

func (e *HashEmbedder) ModelName() string {
	return "hash"
}

func isPunct(r rune) bool {
	return strings.ContainsRune(".,;:!?\"'()[]{}<>", r)
}
