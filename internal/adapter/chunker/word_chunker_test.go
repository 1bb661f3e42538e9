package chunker

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/Sahil13Singh/Mini-Rag-Assesment/internal/domain"
)

func words(n int) string {
	parts := make([]string, n)
	for i := range parts {
		parts[i] = fmt.Sprintf("w%d", i)
	}
	return strings.Join(parts, " ")
}

func TestWordChunkerSmallExample(t *testing.T) {
	c, err := NewWordChunker(4, 1)
	if err != nil {
		t.Fatal(err)
	}

	chunks, err := c.Chunk("A B C D E F G H")
	if err != nil {
		t.Fatal(err)
	}

	want := []string{"A B C D", "D E F G", "G H"}
	if len(chunks) != len(want) {
		t.Fatalf("expected %d chunks, got %d: %q", len(want), len(chunks), chunks)
	}
	for i := range want {
		if chunks[i] != want[i] {
			t.Errorf("chunk %d: expected %q, got %q", i, want[i], chunks[i])
		}
	}
}

func TestWordChunkerDeterministic(t *testing.T) {
	text := words(1000)
	a, err := Split(text, 200, 20)
	if err != nil {
		t.Fatal(err)
	}
	b, err := Split(text, 200, 20)
	if err != nil {
		t.Fatal(err)
	}
	if len(a) != len(b) {
		t.Fatalf("chunk counts differ: %d vs %d", len(a), len(b))
	}
	for i := range a {
		if a[i] != b[i] {
			t.Errorf("chunk %d differs between runs", i)
		}
	}
}

func TestWordChunkerCoverage(t *testing.T) {
	text := words(457)
	chunks, err := Split(text, 200, 20)
	if err != nil {
		t.Fatal(err)
	}

	seen := make(map[string]bool)
	for _, c := range chunks {
		for _, w := range strings.Fields(c) {
			seen[w] = true
		}
	}
	for _, w := range strings.Fields(text) {
		if !seen[w] {
			t.Errorf("word %s missing from every chunk", w)
		}
	}
}

func TestWordChunkerOverlapStride(t *testing.T) {
	tokens := strings.Fields(words(1000))
	chunks, err := Split(strings.Join(tokens, " "), 200, 20)
	if err != nil {
		t.Fatal(err)
	}

	for k, c := range chunks {
		first := strings.Fields(c)[0]
		if first != tokens[180*k] {
			t.Errorf("chunk %d starts at %s, expected %s", k, first, tokens[180*k])
		}
	}

	for k := 0; k+1 < len(chunks); k++ {
		cur := strings.Fields(chunks[k])
		next := strings.Fields(chunks[k+1])
		if len(cur) < 200 {
			continue
		}
		tail := strings.Join(cur[len(cur)-20:], " ")
		head := strings.Join(next[:20], " ")
		if tail != head {
			t.Errorf("chunks %d and %d do not share 20 words", k, k+1)
		}
	}
}

func TestWordChunkerShortLastChunk(t *testing.T) {
	chunks, err := Split(words(250), 200, 20)
	if err != nil {
		t.Fatal(err)
	}
	if len(chunks) != 2 {
		t.Fatalf("expected 2 chunks, got %d", len(chunks))
	}
	if n := len(strings.Fields(chunks[1])); n != 70 {
		t.Errorf("expected last chunk of 70 words, got %d", n)
	}
}

func TestWordChunkerEmptyInput(t *testing.T) {
	for _, text := range []string{"", "   ", "\n\t  \n"} {
		chunks, err := Split(text, 200, 20)
		if err != nil {
			t.Errorf("Split(%q) returned error: %v", text, err)
		}
		if len(chunks) != 0 {
			t.Errorf("Split(%q) = %d chunks, want 0", text, len(chunks))
		}
	}
}

func TestWordChunkerNormalizesWhitespace(t *testing.T) {
	chunks, err := Split("alpha\n\nbeta\t gamma", 10, 2)
	if err != nil {
		t.Fatal(err)
	}
	if len(chunks) != 1 || chunks[0] != "alpha beta gamma" {
		t.Errorf("unexpected chunks: %q", chunks)
	}
}

func TestWordChunkerInvalidConfig(t *testing.T) {
	tests := []struct {
		size, overlap int
	}{
		{0, 0},
		{10, 0},
		{-1, 1},
		{10, 10},
		{10, 15},
		{10, -2},
	}

	for _, tt := range tests {
		if _, err := NewWordChunker(tt.size, tt.overlap); !errors.Is(err, domain.ErrInvalidConfig) {
			t.Errorf("NewWordChunker(%d, %d) error = %v, want ErrInvalidConfig", tt.size, tt.overlap, err)
		}
		if _, err := Split("a b c", tt.size, tt.overlap); !errors.Is(err, domain.ErrInvalidConfig) {
			t.Errorf("Split(_, %d, %d) error = %v, want ErrInvalidConfig", tt.size, tt.overlap, err)
		}
	}
}
