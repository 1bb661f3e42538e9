package domain

import "fmt"

// ManualSource names documents ingested from raw text rather than a file.
const ManualSource = "Manual Input"

// NoContextAnswer is returned when retrieval finds nothing to ground an answer on.
const NoContextAnswer = "I don't have enough context."

type Intent int

const (
	IntentDocument Intent = iota
	IntentQuery
)

func (i Intent) String() string {
	switch i {
	case IntentDocument:
		return "document"
	case IntentQuery:
		return "query"
	default:
		return fmt.Sprintf("intent(%d)", int(i))
	}
}

type Document struct {
	Source string
	Text   string
}

type Chunk struct {
	ID     string
	Source string
	Index  int
	Text   string
}

// ChunkID derives the stable identifier of the index-th chunk of source.
func ChunkID(source string, index int) string {
	return fmt.Sprintf("%s_%d", source, index)
}

type Answer struct {
	Text    string   `json:"answer"`
	Sources []string `json:"sources"`
}

type IngestResult struct {
	Status string `json:"status"`
	Chunks int    `json:"chunks"`
	Source string `json:"source"`
}

// Metadata keys stored alongside every vector.
const (
	MetaText   = "text"
	MetaSource = "source"
)
