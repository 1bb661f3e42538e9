package port

// Chunker splits raw text into ordered chunk texts.
type Chunker interface {
	Chunk(text string) ([]string, error)
}
