package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/Sahil13Singh/Mini-Rag-Assesment/internal/adapter/extract"
	"github.com/Sahil13Singh/Mini-Rag-Assesment/internal/domain"
)

const maxQueryBodyBytes = 1 << 20

// Service is the part of the pipeline the HTTP API drives.
type Service interface {
	Ingest(ctx context.Context, doc domain.Document) (domain.IngestResult, error)
	Query(ctx context.Context, q string) (domain.Answer, error)
	Count(ctx context.Context) (int, error)
}

// Options configure the HTTP surface.
type Options struct {
	MaxUploadBytes int64
	StaticDir      string // Served at / when set
}

// Server exposes /upload, /query and /health over a Service.
type Server struct {
	svc       Service
	extractor *extract.Registry
	opts      Options
}

func NewServer(svc Service, extractor *extract.Registry, opts Options) *Server {
	if opts.MaxUploadBytes <= 0 {
		opts.MaxUploadBytes = 32 << 20
	}
	return &Server{svc: svc, extractor: extractor, opts: opts}
}

// Handler returns the routed handler wrapped in request id, logging and CORS
// middleware.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /upload", s.handleUpload)
	mux.HandleFunc("POST /query", s.handleQuery)
	mux.HandleFunc("GET /health", s.handleHealth)
	if s.opts.StaticDir != "" {
		mux.Handle("/", http.FileServer(http.Dir(s.opts.StaticDir)))
	}
	return withRequestID(withLogging(withCORS(mux)))
}

type queryRequest struct {
	Query string `json:"query"`
}

type errorResponse struct {
	Error string `json:"error"`
}

type healthResponse struct {
	Status string `json:"status"`
	Chunks int    `json:"chunks"`
}

// handleUpload ingests a multipart upload. A non-empty file wins over the
// text field; the text field is used when no file was sent or the file
// yielded no text.
func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.opts.MaxUploadBytes)
	if err := r.ParseMultipartForm(s.opts.MaxUploadBytes); err != nil && !errors.Is(err, http.ErrNotMultipart) {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) || errors.Is(err, multipart.ErrMessageTooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, "upload exceeds size limit")
			return
		}
		writeError(w, http.StatusBadRequest, "invalid form: "+err.Error())
		return
	}

	doc := domain.Document{Source: domain.ManualSource}
	var fileErr error

	file, header, err := r.FormFile("file")
	switch {
	case err == nil:
		defer file.Close()
		name := extract.SecureFilename(header.Filename)
		if name != "" {
			doc, fileErr = s.extractUpload(name, file)
		}
	case errors.Is(err, http.ErrMissingFile), errors.Is(err, http.ErrNotMultipart):
	default:
		writeError(w, http.StatusBadRequest, "invalid file field: "+err.Error())
		return
	}

	if strings.TrimSpace(doc.Text) == "" {
		doc = domain.Document{Source: domain.ManualSource, Text: r.FormValue("text")}
		if src := strings.TrimSpace(r.FormValue("source")); src != "" {
			doc.Source = src
		}
	}

	// An unreadable or unsupported file with no text left to fall back on
	// means no content was provided.
	if strings.TrimSpace(doc.Text) == "" && fileErr != nil {
		writeError(w, http.StatusBadRequest, fileErr.Error())
		return
	}

	result, err := s.svc.Ingest(r.Context(), doc)
	if err != nil {
		s.writeFailure(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) extractUpload(name string, file io.Reader) (domain.Document, error) {
	data, err := io.ReadAll(file)
	if err != nil {
		return domain.Document{}, err
	}
	text, err := s.extractor.Extract(name, data)
	if err != nil {
		return domain.Document{}, err
	}
	return domain.Document{Source: name, Text: text}, nil
}

func (s *Server) handleQuery(w http.ResponseWriter, r *http.Request) {
	var req queryRequest
	dec := json.NewDecoder(io.LimitReader(r.Body, maxQueryBodyBytes))
	if err := dec.Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}

	answer, err := s.svc.Query(r.Context(), req.Query)
	if err != nil {
		s.writeFailure(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, answer)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	n, err := s.svc.Count(r.Context())
	if err != nil {
		s.writeFailure(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, healthResponse{Status: "ok", Chunks: n})
}

func (s *Server) writeFailure(w http.ResponseWriter, r *http.Request, err error) {
	status := StatusFor(err)
	if status >= http.StatusInternalServerError {
		log.Printf("[HTTP] %s %s failed (id=%s): %v", r.Method, r.URL.Path, RequestID(r.Context()), err)
	}
	writeError(w, status, err.Error())
}

// StatusFor maps pipeline errors to HTTP status codes. Input errors are 400,
// a dimension mismatch is a deployment fault (500), transient collaborator
// failures are 503 and the rest are 502.
func StatusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrNoContent),
		errors.Is(err, domain.ErrEmptyQuery),
		errors.Is(err, domain.ErrInvalidConfig):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrUnsupportedFormat):
		return http.StatusUnsupportedMediaType
	case errors.Is(err, domain.ErrDimensionMismatch):
		return http.StatusInternalServerError
	case errors.Is(err, context.Canceled):
		return 499
	case domain.IsRetryable(err):
		return http.StatusServiceUnavailable
	case errors.Is(err, domain.ErrEmbeddingUnavailable),
		errors.Is(err, domain.ErrStoreUnavailable),
		errors.Is(err, domain.ErrRerankUnavailable),
		errors.Is(err, domain.ErrGenerationUnavailable):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("[HTTP] failed to write response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}
