package port

// FileInfo describes a file selected for ingestion.
type FileInfo struct {
	Path    string
	ModTime int64
	Size    int64
}
