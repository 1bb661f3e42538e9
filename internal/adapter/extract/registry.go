package extract

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/Sahil13Singh/Mini-Rag-Assesment/internal/domain"
	"github.com/Sahil13Singh/Mini-Rag-Assesment/internal/port"
)

// Registry maps lowercase file extensions to extractors.
type Registry struct {
	extractors map[string]port.Extractor
}

// NewRegistry returns a registry with the built-in formats registered.
func NewRegistry() *Registry {
	r := &Registry{extractors: make(map[string]port.Extractor)}
	r.Register(".pdf", PDF{})
	r.Register(".docx", DOCX{})
	r.Register(".xlsx", XLSX{})
	for _, ext := range []string{".txt", ".md", ".markdown", ".csv", ".log"} {
		r.Register(ext, PlainText{})
	}
	return r
}

func (r *Registry) Register(ext string, e port.Extractor) {
	r.extractors[strings.ToLower(ext)] = e
}

// Supports reports whether filename has a registered extension.
func (r *Registry) Supports(filename string) bool {
	_, ok := r.extractors[strings.ToLower(filepath.Ext(filename))]
	return ok
}

// Extensions lists the registered extensions in sorted order.
func (r *Registry) Extensions() []string {
	exts := make([]string, 0, len(r.extractors))
	for ext := range r.extractors {
		exts = append(exts, ext)
	}
	sort.Strings(exts)
	return exts
}

// Extract picks the extractor by the extension of filename.
func (r *Registry) Extract(filename string, data []byte) (string, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	e, ok := r.extractors[ext]
	if !ok {
		return "", fmt.Errorf("%w: %q", domain.ErrUnsupportedFormat, ext)
	}
	text, err := e.Extract(data)
	if err != nil {
		return "", fmt.Errorf("extract %s: %w", filename, err)
	}
	return text, nil
}

// PlainText decodes UTF-8 text, dropping invalid byte sequences.
type PlainText struct{}

func (PlainText) Extract(data []byte) (string, error) {
	if utf8.Valid(data) {
		return string(data), nil
	}
	return strings.ToValidUTF8(string(data), ""), nil
}
