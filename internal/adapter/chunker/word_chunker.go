package chunker

import (
	"fmt"
	"strings"

	"github.com/Sahil13Singh/Mini-Rag-Assesment/internal/domain"
)

// WordChunker splits text into windows of whitespace-delimited words.
// Consecutive windows share exactly overlap words; the last window may be
// shorter than size.
type WordChunker struct {
	size    int
	overlap int
}

func NewWordChunker(size, overlap int) (*WordChunker, error) {
	if err := validate(size, overlap); err != nil {
		return nil, err
	}
	return &WordChunker{size: size, overlap: overlap}, nil
}

func (c *WordChunker) Chunk(text string) ([]string, error) {
	return Split(text, c.size, c.overlap)
}

// Size returns the window length in words.
func (c *WordChunker) Size() int { return c.size }

// Overlap returns the number of words shared by consecutive windows.
func (c *WordChunker) Overlap() int { return c.overlap }

// Split is the stateless form of WordChunker.Chunk.
func Split(text string, size, overlap int) ([]string, error) {
	if err := validate(size, overlap); err != nil {
		return nil, err
	}

	words := strings.Fields(text)
	if len(words) == 0 {
		return []string{}, nil
	}

	stride := size - overlap
	chunks := make([]string, 0, (len(words)+stride-1)/stride)
	for start := 0; start < len(words); start += stride {
		end := start + size
		if end > len(words) {
			end = len(words)
		}
		chunks = append(chunks, strings.Join(words[start:end], " "))
	}

	return chunks, nil
}

func validate(size, overlap int) error {
	if size <= 0 || overlap <= 0 {
		return fmt.Errorf("%w: chunk size and overlap must be positive (size=%d, overlap=%d)", domain.ErrInvalidConfig, size, overlap)
	}
	if overlap >= size {
		return fmt.Errorf("%w: overlap %d must be smaller than chunk size %d", domain.ErrInvalidConfig, overlap, size)
	}
	return nil
}
