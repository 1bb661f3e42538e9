// Package remote holds the plumbing shared by the network adapters: a
// JSON-over-HTTP client for Cohere and Qdrant, and the Gemini SDK client.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/Sahil13Singh/Mini-Rag-Assesment/internal/domain"
)

// StatusError is returned for non-2xx responses.
type StatusError struct {
	Method string
	URL    string
	Status int
	Body   string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s %s returned status %d: %s", e.Method, e.URL, e.Status, e.Body)
}

// Client sends JSON requests and decodes JSON responses. Failures are
// wrapped in the Client's sentinel; rate limiting, server errors and
// transport failures are additionally marked retryable.
type Client struct {
	HTTP     *http.Client
	Headers  map[string]string
	Sentinel error
}

func NewClient(timeout time.Duration, sentinel error, headers map[string]string) *Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		HTTP:     &http.Client{Timeout: timeout},
		Headers:  headers,
		Sentinel: sentinel,
	}
}

// Do sends body (if non-nil) as JSON and decodes the response into out (if non-nil).
func (c *Client) Do(ctx context.Context, method, url string, body, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return fmt.Errorf("%w: failed to create request: %v", c.Sentinel, err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range c.Headers {
		req.Header.Set(k, v)
	}

	resp, err := c.HTTP.Do(req)
	if err != nil {
		if ctx.Err() != nil && !errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return fmt.Errorf("%w: %v", c.Sentinel, ctx.Err())
		}
		return domain.Retryable(fmt.Errorf("%w: request failed: %v", c.Sentinel, err))
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return domain.Retryable(fmt.Errorf("%w: failed to read response: %v", c.Sentinel, err))
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		serr := &StatusError{Method: method, URL: url, Status: resp.StatusCode, Body: truncate(string(data), 512)}
		wrapped := fmt.Errorf("%w: %w", c.Sentinel, serr)
		if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
			return domain.Retryable(wrapped)
		}
		return wrapped
	}

	if out != nil && len(data) > 0 {
		if err := json.Unmarshal(data, out); err != nil {
			return fmt.Errorf("%w: failed to parse response: %v", c.Sentinel, err)
		}
	}
	return nil
}

// HasStatus reports whether err carries an HTTP status code equal to status.
func HasStatus(err error, status int) bool {
	var se *StatusError
	return errors.As(err, &se) && se.Status == status
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
