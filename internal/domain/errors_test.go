package domain

import (
	"context"
	"errors"
	"fmt"
	"testing"
)

func TestIsRetryable(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"plain", errors.New("bad request"), false},
		{"marked", Retryable(errors.New("503")), true},
		{"marked and wrapped", fmt.Errorf("%w: %w", ErrStoreUnavailable, Retryable(errors.New("timeout"))), true},
		{"deadline", fmt.Errorf("call: %w", context.DeadlineExceeded), true},
		{"canceled", context.Canceled, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsRetryable(tt.err); got != tt.want {
				t.Errorf("IsRetryable(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}

func TestRetryableKeepsSentinel(t *testing.T) {
	err := Retryable(fmt.Errorf("%w: 429", ErrEmbeddingUnavailable))
	if !errors.Is(err, ErrEmbeddingUnavailable) {
		t.Error("Retryable should not hide the wrapped sentinel")
	}
	if Retryable(nil) != nil {
		t.Error("Retryable(nil) should be nil")
	}
}

func TestPartialUpsertError(t *testing.T) {
	var err error = &PartialUpsertError{Stored: 2, Total: 5, Err: ErrStoreUnavailable}
	if !errors.Is(err, ErrStoreUnavailable) {
		t.Error("expected PartialUpsertError to unwrap to its cause")
	}
	if err.Error() != "upsert stored 2 of 5 records: vector store unavailable" {
		t.Errorf("unexpected message %q", err.Error())
	}
}

func TestChunkID(t *testing.T) {
	if got := ChunkID("notes.txt", 3); got != "notes.txt_3" {
		t.Errorf("ChunkID = %q", got)
	}
	if got := ChunkID(ManualSource, 0); got != "Manual Input_0" {
		t.Errorf("ChunkID = %q", got)
	}
}
