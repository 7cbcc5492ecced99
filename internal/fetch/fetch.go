// Package fetch provides generic HTTP fetching helpers shared by the listing
// provider, the sticker source, and the gateway adapter.
package fetch

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

// DefaultTimeout is the default HTTP request timeout.
const DefaultTimeout = 30 * time.Second

// DefaultUserAgent is the user agent string for HTTP requests.
const DefaultUserAgent = "kenbot-inventory-sync/1.0"

// Result holds the response from a fetch.
type Result struct {
	URL         string
	Body        []byte
	ContentType string
	StatusCode  int
}

// Error represents an error during URL fetching. Transient is set for
// failures worth retrying: request/transport errors, timeouts, rate limits,
// and server-side statuses.
type Error struct {
	URL        string
	Message    string
	StatusCode int
	Transient  bool
	Cause      error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("fetch error for %s: %s: %v", e.URL, e.Message, e.Cause)
	}
	return fmt.Sprintf("fetch error for %s: %s", e.URL, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// Options configures the fetch behavior.
type Options struct {
	Timeout   time.Duration
	UserAgent string
	Headers   map[string]string
}

// DefaultOptions returns sensible defaults for fetching.
func DefaultOptions() *Options {
	return &Options{
		Timeout:   DefaultTimeout,
		UserAgent: DefaultUserAgent,
	}
}

// Bytes retrieves the raw body from a URL.
func Bytes(ctx context.Context, urlStr string, opts *Options) (*Result, error) {
	return do(ctx, http.MethodGet, urlStr, nil, opts)
}

// JSON retrieves a URL and decodes the JSON response into v.
func JSON(ctx context.Context, urlStr string, opts *Options, v any) error {
	res, err := Bytes(ctx, urlStr, opts)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(res.Body, v); err != nil {
		return &Error{URL: urlStr, Message: "failed to decode JSON response", Cause: err}
	}
	return nil
}

// PostJSON sends body as JSON and decodes the response into v (when non-nil).
func PostJSON(ctx context.Context, urlStr string, opts *Options, body, v any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return &Error{URL: urlStr, Message: "failed to encode request body", Cause: err}
	}
	res, err := do(ctx, http.MethodPost, urlStr, payload, opts)
	if err != nil {
		return err
	}
	if v == nil {
		return nil
	}
	if err := json.Unmarshal(res.Body, v); err != nil {
		return &Error{URL: urlStr, Message: "failed to decode JSON response", Cause: err}
	}
	return nil
}

func do(ctx context.Context, method, urlStr string, payload []byte, opts *Options) (*Result, error) {
	if opts == nil {
		opts = DefaultOptions()
	}
	if opts.Timeout == 0 {
		opts.Timeout = DefaultTimeout
	}

	parsedURL, err := url.Parse(urlStr)
	if err != nil || parsedURL.Scheme == "" || parsedURL.Host == "" {
		return nil, &Error{URL: urlStr, Message: "invalid URL", Cause: err}
	}

	client := &http.Client{
		Timeout: opts.Timeout,
	}

	var reqBody io.Reader
	if payload != nil {
		reqBody = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, urlStr, reqBody)
	if err != nil {
		return nil, &Error{URL: urlStr, Message: "failed to create request", Cause: err}
	}

	ua := opts.UserAgent
	if ua == "" {
		ua = DefaultUserAgent
	}
	req.Header.Set("User-Agent", ua)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for key, value := range opts.Headers {
		req.Header.Set(key, value)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, &Error{URL: urlStr, Message: "HTTP request failed", Transient: true, Cause: err}
	}
	defer func() { _ = resp.Body.Close() }()

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &Error{URL: urlStr, Message: "failed to read response body", Cause: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &Error{
			URL:        urlStr,
			Message:    fmt.Sprintf("unexpected status %d", resp.StatusCode),
			StatusCode: resp.StatusCode,
			Transient:  IsRetryableStatus(resp.StatusCode),
		}
	}

	return &Result{
		URL:         urlStr,
		Body:        bodyBytes,
		ContentType: resp.Header.Get("Content-Type"),
		StatusCode:  resp.StatusCode,
	}, nil
}

// IsRetryableStatus reports whether an HTTP status indicates a transient
// condition (rate limiting or a server-side failure).
func IsRetryableStatus(code int) bool {
	return code == http.StatusTooManyRequests || code == http.StatusRequestTimeout || code >= 500
}
