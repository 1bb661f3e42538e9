package util

import (
	"context"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/Sahil13Singh/Mini-Rag-Assesment/internal/domain"
)

// CalculateBackoff returns exponential backoff with jitter.
// Base delay is doubled each attempt, with random jitter up to 25%.
func CalculateBackoff(baseDelay time.Duration, attempt int) time.Duration {
	if attempt <= 0 || baseDelay <= 0 {
		return 0
	}
	// Cap attempt to avoid overflow in bit shift
	if attempt > 30 {
		attempt = 30
	}
	backoff := baseDelay * time.Duration(1<<uint(attempt))
	if backoff > 30*time.Second || backoff <= 0 {
		backoff = 30 * time.Second
	}
	half := int64(backoff) / 2
	if half <= 0 {
		return backoff
	}
	jitter := time.Duration(rand.Int64N(half)) - backoff/4
	return backoff + jitter
}

// RetryPolicy bounds the attempts made for one remote call.
type RetryPolicy struct {
	MaxAttempts int
	BaseDelay   time.Duration
	// Timeout applies to each attempt separately. Zero means no per-attempt deadline.
	Timeout time.Duration
}

// Retry runs fn until it succeeds, returns a non-retryable error, or the
// policy's attempts are used up. Each attempt gets its own deadline derived
// from ctx.
func Retry(ctx context.Context, p RetryPolicy, fn func(ctx context.Context) error) error {
	attempts := p.MaxAttempts
	if attempts <= 0 {
		attempts = 1
	}

	var lastErr error
	for attempt := 0; attempt < attempts; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return fmt.Errorf("%w (last error: %v)", ctx.Err(), lastErr)
			case <-time.After(CalculateBackoff(p.BaseDelay, attempt)):
			}
		}

		err := runAttempt(ctx, p.Timeout, fn)
		if err == nil {
			return nil
		}
		lastErr = err

		if ctx.Err() != nil || !domain.IsRetryable(err) {
			return err
		}
	}

	if attempts == 1 {
		return lastErr
	}
	return fmt.Errorf("giving up after %d attempts: %w", attempts, lastErr)
}

func runAttempt(ctx context.Context, timeout time.Duration, fn func(ctx context.Context) error) error {
	if timeout <= 0 {
		return fn(ctx)
	}
	attemptCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return fn(attemptCtx)
}
