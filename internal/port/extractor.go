package port

// Extractor turns the raw bytes of an uploaded file into plain text.
type Extractor interface {
	Extract(data []byte) (string, error)
}
