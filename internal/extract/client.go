package extract

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"go-contact-pipeline/internal/model"
)

// ExtractError represents a failed extraction attempt. Transient errors
// (timeout, connection failure, 5xx) may be retried by the orchestrator;
// permanent ones (4xx, malformed body) must not be.
type ExtractError struct {
	StatusCode int // 0 when no HTTP response was received
	Message    string
	Transient  bool
}

func (e *ExtractError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("extract: HTTP %d: %s", e.StatusCode, e.Message)
	}
	return "extract: " + e.Message
}

// IsTransient reports whether err is a retryable extraction failure.
func IsTransient(err error) bool {
	var ee *ExtractError
	return errors.As(err, &ee) && ee.Transient
}

// Client fetches raw records from one upstream source over HTTP.
// It performs a single attempt per call; retry policy belongs to the caller.
type Client struct {
	httpClient *http.Client
}

// Option configures Client behavior.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client, mainly for tests.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// NewClient creates a source client with no default timeout of its own;
// the per-call timeout bounds every request.
func NewClient(opts ...Option) *Client {
	c := &Client{
		httpClient: &http.Client{},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Fetch GETs the endpoint and decodes the response as a JSON array of
// record objects. The timeout bounds the whole call; there are no
// unbounded waits. The returned slice preserves source order.
func (c *Client) Fetch(ctx context.Context, endpoint string, timeout time.Duration) ([]model.RawRecord, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, &ExtractError{Message: fmt.Sprintf("invalid endpoint %q: %v", endpoint, err)}
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &ExtractError{Message: describeNetErr(err), Transient: true}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, &ExtractError{
			StatusCode: resp.StatusCode,
			Message:    string(body),
			Transient:  resp.StatusCode >= 500,
		}
	}

	var items []map[string]interface{}
	if err := json.NewDecoder(resp.Body).Decode(&items); err != nil {
		return nil, &ExtractError{Message: fmt.Sprintf("decoding JSON array: %v", err)}
	}

	records := make([]model.RawRecord, len(items))
	for i, item := range items {
		records[i] = model.RawRecord(item)
	}
	return records, nil
}

func describeNetErr(err error) string {
	var ne net.Error
	if errors.As(err, &ne) && ne.Timeout() {
		return "request timed out: " + err.Error()
	}
	return "request failed: " + err.Error()
}
