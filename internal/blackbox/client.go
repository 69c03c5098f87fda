package blackbox

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/charmbracelet/x/ansi"
	"github.com/marcus/atelier/internal/models"
)

// DefaultBaseURL is the generation service address.
const DefaultBaseURL = "http://98.71.171.3:8002"

// maxResponseBytes caps how much of a reply is read.
const maxResponseBytes = 4 << 20

// Client calls the generation service.
type Client struct {
	baseURL string
	http    *http.Client
	logger  *slog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

// WithTimeout bounds each request. Zero means no timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.http.Timeout = d
	}
}

// WithLogger sets the logger used for request diagnostics.
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.logger = l
		}
	}
}

// NewClient returns a Client for the service at baseURL.
func NewClient(baseURL string, opts ...Option) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{},
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BaseURL returns the service address.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Result is the outcome of a successful generation call.
type Result struct {
	Function Function
	Content  string
	// Updated is false when the reply carried nothing to display and the
	// previous content should be kept.
	Updated bool
}

// Generate validates cfg, posts its request built from criteria and parses
// the reply.
func (c *Client) Generate(ctx context.Context, cfg Config, criteria *models.Criteria) (Result, error) {
	fn := cfg.Function()
	if err := Validate(cfg); err != nil {
		return Result{}, err
	}

	body, err := c.post(ctx, fn.Endpoint(), cfg.Request(criteria))
	if err != nil {
		return Result{}, err
	}

	content, ok, err := cfg.Parse(body)
	if err != nil {
		return Result{}, fmt.Errorf("%s: %w", fn, err)
	}
	return Result{Function: fn, Content: content, Updated: ok}, nil
}

func (c *Client) post(ctx context.Context, endpoint string, payload any) ([]byte, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encode %s request: %w", endpoint, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+endpoint, bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("build %s request: %w", endpoint, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("post %s: %w", endpoint, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("read %s response: %w", endpoint, err)
	}

	c.logger.Debug("blackbox request",
		"endpoint", endpoint,
		"status", resp.StatusCode,
		"bytes", len(body),
		"duration", time.Since(start),
	)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &StatusError{Endpoint: endpoint, StatusCode: resp.StatusCode, Body: snippet(body)}
	}
	if !json.Valid(body) {
		return nil, fmt.Errorf("decode %s response: invalid JSON", endpoint)
	}
	return body, nil
}

// StatusError is returned when the service answers with a non-2xx status.
type StatusError struct {
	Endpoint   string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("API request to %s failed with status %d", e.Endpoint, e.StatusCode)
	}
	return fmt.Sprintf("API request to %s failed with status %d: %s", e.Endpoint, e.StatusCode, e.Body)
}

// snippet trims body to at most 200 cells for error messages without
// splitting a character.
func snippet(body []byte) string {
	return ansi.Truncate(strings.TrimSpace(string(body)), 200, "...")
}
