// Package storage talks to the remote image storage service.
package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"
)

const (
	uploadPath        = "/upload"
	listPath          = "/uploads"
	paginatedListPath = "/uploads/paginated"

	defaultTimeout = 30 * time.Second
	// error bodies are only read for their message
	maxErrorBodyBytes = 64 << 10
)

var ErrMalformedResponse = errors.New("malformed response from storage service")

// APIError is a non-2xx answer of the storage service
type APIError struct {
	StatusCode int
	// Message is the service's "error" text, empty when it sent none
	Message string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("storage service returned status %d", e.StatusCode)
	}
	return fmt.Sprintf("storage service returned status %d: %s", e.StatusCode, e.Message)
}

// ResponseCache stores raw listing responses
type ResponseCache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte) error
	Clear(ctx context.Context) error
}

// Client is an HTTP client for the storage service
type Client struct {
	baseURL    string
	httpClient *http.Client
	cache      ResponseCache
}

// ClientOption configures a Client
type ClientOption func(*Client)

// WithHTTPClient replaces the default HTTP client
func WithHTTPClient(httpClient *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// WithTimeout sets the timeout of the default HTTP client
func WithTimeout(timeout time.Duration) ClientOption {
	return func(c *Client) {
		if timeout > 0 {
			c.httpClient.Timeout = timeout
		}
	}
}

// WithResponseCache caches listing responses; uploads clear the cache
func WithResponseCache(cache ResponseCache) ClientOption {
	return func(c *Client) {
		c.cache = cache
	}
}

// NewClient creates a client for the service at baseURL
func NewClient(baseURL string, opts ...ClientOption) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: defaultTimeout,
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BaseURL returns the configured service URL
func (c *Client) BaseURL() string {
	return c.baseURL
}

type errorBody struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

func readAPIError(resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodyBytes))
	apiErr := &APIError{StatusCode: resp.StatusCode}

	var parsed errorBody
	if err := json.Unmarshal(body, &parsed); err == nil {
		apiErr.Message = strings.TrimSpace(parsed.Error)
	}
	return apiErr
}

func closeBody(resp *http.Response) {
	if err := resp.Body.Close(); err != nil {
		slog.Debug("failed to close response body", "error", err)
	}
}
