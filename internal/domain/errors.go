package domain

import (
	"context"
	"errors"
	"fmt"
)

var (
	ErrInvalidConfig         = errors.New("invalid configuration")
	ErrNoContent             = errors.New("no content provided")
	ErrEmptyQuery            = errors.New("no query")
	ErrUnsupportedFormat     = errors.New("unsupported document format")
	ErrEmbeddingUnavailable  = errors.New("embedding service unavailable")
	ErrDimensionMismatch     = errors.New("vector dimension mismatch")
	ErrStoreUnavailable      = errors.New("vector store unavailable")
	ErrRerankUnavailable     = errors.New("rerank service unavailable")
	ErrGenerationUnavailable = errors.New("generation service unavailable")
)

type retryableError struct {
	err error
}

func (e *retryableError) Error() string { return e.err.Error() }
func (e *retryableError) Unwrap() error { return e.err }

// Retryable marks err as a transient failure worth another attempt.
func Retryable(err error) error {
	if err == nil {
		return nil
	}
	return &retryableError{err: err}
}

// IsRetryable reports whether err is transient. Per-call deadlines count as
// transient; cancellation of the caller's context does not.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	var re *retryableError
	if errors.As(err, &re) {
		return true
	}
	return errors.Is(err, context.DeadlineExceeded)
}

// PartialUpsertError reports a batch upsert that was only partly applied.
// Re-ingesting the same source overwrites by id, so retrying the whole
// document is safe.
type PartialUpsertError struct {
	Stored int
	Total  int
	Err    error
}

func (e *PartialUpsertError) Error() string {
	return fmt.Sprintf("upsert stored %d of %d records: %v", e.Stored, e.Total, e.Err)
}

func (e *PartialUpsertError) Unwrap() error { return e.Err }

// DimensionError builds an ErrDimensionMismatch with both sizes.
func DimensionError(want, got int) error {
	return fmt.Errorf("%w: expected %d, got %d", ErrDimensionMismatch, want, got)
}
