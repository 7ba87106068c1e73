// Package carclient is the HTTP transport for the /cars collection.
package carclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/getmockd/carshop/pkg/car"
	"github.com/getmockd/carshop/pkg/logging"
	"github.com/google/uuid"
)

// CollectionPath is the fixed path of the collection under the base URL.
const CollectionPath = "/cars"

// RequestIDHeader carries a per-request id for log correlation.
const RequestIDHeader = "X-Request-ID"

// DefaultTimeout is used when no timeout option is given.
const DefaultTimeout = 30 * time.Second

// maxBodySize caps how much of a response body is read.
const maxBodySize = 10 << 20

// Client talks to a server exposing the /cars collection.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
	strict     bool
}

// Option configures a Client.
type Option func(*Client)

// WithTimeout sets the HTTP timeout.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		c.httpClient.Timeout = timeout
	}
}

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// WithLogger sets the logger used for request tracing.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithStrictEnvelope makes a collection body without _embedded.cars a
// ShapeError instead of an empty list.
func WithStrictEnvelope() Option {
	return func(c *Client) {
		c.strict = true
	}
}

// New creates a client for the server at baseURL (e.g. "http://localhost:8080").
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: DefaultTimeout,
		},
		logger: logging.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BaseURL returns the server base URL.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// List fetches the full collection.
func (c *Client) List(ctx context.Context) ([]car.Car, error) {
	resp, err := c.do(ctx, http.MethodGet, CollectionPath, nil)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, c.parseError(resp)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, &TransportError{Op: http.MethodGet, URL: c.baseURL + CollectionPath, Err: err}
	}

	cars, err := car.DecodeCollection(body, car.DecodeOptions{Strict: c.strict})
	if err != nil {
		return nil, &ShapeError{Reason: err.Error(), Err: err}
	}
	return cars, nil
}

// Create posts a new record. The response body is ignored; callers reload
// to learn the assigned id.
func (c *Client) Create(ctx context.Context, draft car.Draft) error {
	resp, err := c.do(ctx, http.MethodPost, CollectionPath, draft)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return c.parseError(resp)
	}
	return nil
}

// Update replaces record id with draft.
func (c *Client) Update(ctx context.Context, id string, draft car.Draft) error {
	resp, err := c.do(ctx, http.MethodPut, itemPath(id), draft)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	switch resp.StatusCode {
	case http.StatusOK, http.StatusCreated, http.StatusNoContent:
		return nil
	}
	return c.parseError(resp)
}

// Delete removes record id.
func (c *Client) Delete(ctx context.Context, id string) error {
	resp, err := c.do(ctx, http.MethodDelete, itemPath(id), nil)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusNoContent {
		return c.parseError(resp)
	}
	return nil
}

func itemPath(id string) string {
	return CollectionPath + "/" + url.PathEscape(id)
}

func (c *Client) do(ctx context.Context, method, path string, body interface{}) (*http.Response, error) {
	fullURL := c.baseURL + path

	var bodyReader io.Reader
	if body != nil {
		var buf bytes.Buffer
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			return nil, &TransportError{Op: method, URL: fullURL, Err: fmt.Errorf("encode body: %w", err)}
		}
		bodyReader = &buf
	}

	req, err := http.NewRequestWithContext(ctx, method, fullURL, bodyReader)
	if err != nil {
		return nil, &TransportError{Op: method, URL: fullURL, Err: err}
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/hal+json, application/json")
	requestID := uuid.NewString()
	req.Header.Set(RequestIDHeader, requestID)

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Debug("request failed", "method", method, "url", fullURL, "requestId", requestID, "error", err)
		return nil, &TransportError{Op: method, URL: fullURL, Err: err}
	}
	c.logger.Debug("request done",
		"method", method,
		"url", fullURL,
		"status", resp.StatusCode,
		"requestId", requestID,
		"duration", time.Since(start))
	return resp, nil
}

// parseError builds a ServerError, reading {error, message} from the body
// when the server sent one.
func (c *Client) parseError(resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))

	var errResp struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(body, &errResp); err == nil && (errResp.Message != "" || errResp.Error != "") {
		return &ServerError{
			StatusCode: resp.StatusCode,
			Code:       errResp.Error,
			Message:    errResp.Message,
		}
	}

	return &ServerError{
		StatusCode: resp.StatusCode,
		Message:    strings.TrimSpace(string(body)),
	}
}
