// Package jeux is the client side of the submission API: it records a
// verified answer for a dimension and reads back whether one exists.
package jeux

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/marcus/atelier/internal/models"
)

// DefaultURL is the address `atelier serve` listens on by default.
const DefaultURL = "http://127.0.0.1:8003"

// ErrAlreadyVerified is returned when the dimension already has a record.
var ErrAlreadyVerified = errors.New("dimension already verified")

// Client posts verification records.
type Client struct {
	baseURL string
	http    *http.Client
	logger  *slog.Logger
}

// NewClient returns a Client for the submission API at baseURL.
func NewClient(baseURL string, timeout time.Duration, logger *slog.Logger) *Client {
	if baseURL == "" {
		baseURL = DefaultURL
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
		logger:  logger,
	}
}

// envelope mirrors the API response wrapper.
type envelope struct {
	OK    bool            `json:"ok"`
	Data  json.RawMessage `json:"data,omitempty"`
	Error *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// Submit records req. A conflict is reported as ErrAlreadyVerified.
func (c *Client) Submit(ctx context.Context, req models.VerifyRequest) (*models.Verification, error) {
	data, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("encode verification: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/jeux", bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("build submit request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	var v models.Verification
	status, err := c.do(httpReq, &v)
	if err != nil {
		if status == http.StatusConflict {
			return nil, fmt.Errorf("dimension %d: %w", req.DimensionID, ErrAlreadyVerified)
		}
		return nil, err
	}

	c.logger.Info("verification submitted", "dimension_id", req.DimensionID, "id", v.ID)
	return &v, nil
}

// Status returns the stored verification for dimensionID, or nil when the
// dimension has not been verified.
func (c *Client) Status(ctx context.Context, dimensionID int) (*models.Verification, error) {
	url := c.baseURL + "/v1/jeux/" + strconv.Itoa(dimensionID)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build status request: %w", err)
	}

	var v models.Verification
	status, err := c.do(httpReq, &v)
	if status == http.StatusNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &v, nil
}

// do sends req and decodes the envelope data into out. The HTTP status is
// returned even on error.
func (c *Client) do(req *http.Request, out any) (int, error) {
	resp, err := c.http.Do(req)
	if err != nil {
		return 0, fmt.Errorf("%s %s: %w", req.Method, req.URL.Path, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return resp.StatusCode, fmt.Errorf("read response: %w", err)
	}

	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		if resp.StatusCode < 200 || resp.StatusCode > 299 {
			return resp.StatusCode, &StatusError{StatusCode: resp.StatusCode, Message: strings.TrimSpace(string(body))}
		}
		return resp.StatusCode, fmt.Errorf("decode response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 || !env.OK {
		se := &StatusError{StatusCode: resp.StatusCode}
		if env.Error != nil {
			se.Code = env.Error.Code
			se.Message = env.Error.Message
		}
		return resp.StatusCode, se
	}
	if out != nil && len(env.Data) > 0 {
		if err := json.Unmarshal(env.Data, out); err != nil {
			return resp.StatusCode, fmt.Errorf("decode data: %w", err)
		}
	}
	return resp.StatusCode, nil
}

// StatusError is a failed submission API call.
type StatusError struct {
	StatusCode int
	Code       string
	Message    string
}

func (e *StatusError) Error() string {
	msg := e.Message
	if msg == "" {
		msg = http.StatusText(e.StatusCode)
	}
	if e.Code != "" {
		return fmt.Sprintf("submission API: %d %s: %s", e.StatusCode, e.Code, msg)
	}
	return fmt.Sprintf("submission API: %d: %s", e.StatusCode, msg)
}
