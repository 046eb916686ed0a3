// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// =============================================================================
// ERROR TYPES
// =============================================================================

// ClientError represents an error from the backend client.
type ClientError struct {
	Type    ErrorType
	Message string
	Status  int
	Cause   error
}

func (e *ClientError) Error() string {
	if e.Cause != nil {
		return e.Message + ": " + e.Cause.Error()
	}
	return e.Message
}

func (e *ClientError) Unwrap() error {
	return e.Cause
}

// Is matches any ClientError of the same Type, so callers can test against
// the sentinels below regardless of message or cause.
func (e *ClientError) Is(target error) bool {
	var t *ClientError
	if !errors.As(target, &t) {
		return false
	}
	return t.Type == e.Type
}

// ErrorType categorizes client errors for handling.
type ErrorType int

const (
	ErrTypeUnknown ErrorType = iota
	ErrTypeConnection
	ErrTypeTimeout
	ErrTypeStatus
	ErrTypeNotFound
	ErrTypeMalformed
)

// String returns a short name for logs.
func (t ErrorType) String() string {
	switch t {
	case ErrTypeConnection:
		return "connection"
	case ErrTypeTimeout:
		return "timeout"
	case ErrTypeStatus:
		return "status"
	case ErrTypeNotFound:
		return "not_found"
	case ErrTypeMalformed:
		return "malformed"
	default:
		return "unknown"
	}
}

// Sentinel errors for easy checking.
var (
	ErrUnreachable = &ClientError{Type: ErrTypeConnection, Message: "backend is not reachable"}
	ErrTimeout     = &ClientError{Type: ErrTypeTimeout, Message: "request timed out"}
	ErrStatus      = &ClientError{Type: ErrTypeStatus, Message: "unexpected response status"}
	ErrNotFound    = &ClientError{Type: ErrTypeNotFound, Message: "not found"}
	ErrMalformed   = &ClientError{Type: ErrTypeMalformed, Message: "malformed response"}
)

func malformed(msg string, cause error) *ClientError {
	return &ClientError{Type: ErrTypeMalformed, Message: msg, Cause: cause}
}

// =============================================================================
// CLIENT CONFIGURATION
// =============================================================================

const (
	// DefaultBaseURL is where the development backend listens.
	DefaultBaseURL = "http://localhost:8000/"

	// maxResponseBytes bounds how much of a response body is read.
	maxResponseBytes = 16 << 20
)

// ClientConfig holds configuration options for the backend client.
type ClientConfig struct {
	// BaseURL is the backend root; endpoint paths are appended to it.
	BaseURL string

	// Timeout bounds each request (default: 60s). Mapping answers are slow.
	Timeout time.Duration

	// RequestsPerSecond limits outgoing calls. Zero means unlimited.
	RequestsPerSecond float64

	// Burst is the limiter bucket size (default: 1).
	Burst int

	// Logger receives request diagnostics (default: no-op).
	Logger *zap.Logger

	// HTTPClient overrides the transport, mainly for tests.
	HTTPClient *http.Client
}

// DefaultConfig returns the default client configuration.
func DefaultConfig() *ClientConfig {
	return &ClientConfig{
		BaseURL: DefaultBaseURL,
		Timeout: 60 * time.Second,
		Burst:   1,
	}
}

// =============================================================================
// CLIENT
// =============================================================================

// Client talks to the chat backend: the cache/store endpoints and the
// answer pipeline behind save-to-cache.
//
// The Client is safe for concurrent use.
//
// Example:
//
//	client := backend.NewClient()
//	resp, err := client.SaveToCache(ctx, model.ToEntries(transcript), model.ModeMapping)
type Client struct {
	config     *ClientConfig
	httpClient *http.Client
	limiter    *rate.Limiter
	log        *zap.Logger
}

// NewClient creates a client with default configuration.
func NewClient() *Client {
	return NewClientWithConfig(DefaultConfig())
}

// NewClientWithConfig creates a client with custom configuration.
func NewClientWithConfig(config *ClientConfig) *Client {
	if config == nil {
		config = DefaultConfig()
	}

	// Fill in defaults for any zero values
	if config.BaseURL == "" {
		config.BaseURL = DefaultBaseURL
	}
	if !strings.HasSuffix(config.BaseURL, "/") {
		config.BaseURL += "/"
	}
	if config.Timeout == 0 {
		config.Timeout = 60 * time.Second
	}
	if config.Burst <= 0 {
		config.Burst = 1
	}
	if config.Logger == nil {
		config.Logger = zap.NewNop()
	}

	limit := rate.Inf
	if config.RequestsPerSecond > 0 {
		limit = rate.Limit(config.RequestsPerSecond)
	}

	httpClient := config.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: config.Timeout}
	}

	return &Client{
		config:     config,
		httpClient: httpClient,
		limiter:    rate.NewLimiter(limit, config.Burst),
		log:        config.Logger.Named("backend"),
	}
}

// BaseURL returns the configured backend root.
func (c *Client) BaseURL() string {
	return c.config.BaseURL
}

// CheckReachable verifies the backend answers HTTP at all. Any status counts;
// only transport failures are errors.
func (c *Client) CheckReachable(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.config.BaseURL, nil)
	if err != nil {
		return &ClientError{Type: ErrTypeConnection, Message: "failed to create request", Cause: err}
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return transportError(err)
	}
	resp.Body.Close()
	return nil
}

// do sends a request and returns the body of a 2xx response.
func (c *Client) do(ctx context.Context, method, path string, body any) ([]byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, transportError(err)
	}

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, &ClientError{Type: ErrTypeUnknown, Message: "failed to encode request", Cause: err}
		}
		reader = bytes.NewReader(data)
	}

	url := c.config.BaseURL + strings.TrimPrefix(path, "/")
	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return nil, &ClientError{Type: ErrTypeConnection, Message: "failed to create request", Cause: err}
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.log.Warn("request failed", zap.String("op", path), zap.Error(err))
		return nil, transportError(err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, &ClientError{Type: ErrTypeConnection, Message: "failed to read response", Cause: err}
	}

	c.log.Debug("request",
		zap.String("op", path),
		zap.String("method", method),
		zap.Int("status", resp.StatusCode),
		zap.Duration("elapsed", time.Since(start)))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, statusError(resp, data)
	}
	return data, nil
}

func transportError(err error) *ClientError {
	if errors.Is(err, context.DeadlineExceeded) {
		return &ClientError{Type: ErrTypeTimeout, Message: ErrTimeout.Message, Cause: err}
	}
	var netErr interface{ Timeout() bool }
	if errors.As(err, &netErr) && netErr.Timeout() {
		return &ClientError{Type: ErrTypeTimeout, Message: ErrTimeout.Message, Cause: err}
	}
	return &ClientError{Type: ErrTypeConnection, Message: ErrUnreachable.Message, Cause: err}
}

// statusError builds an error for a non-2xx response, using the backend's
// {"error": "..."} message when present.
func statusError(resp *http.Response, body []byte) *ClientError {
	var payload struct {
		Error  string `json:"error"`
		Detail string `json:"detail"`
	}
	msg := resp.Status
	if json.Unmarshal(body, &payload) == nil {
		switch {
		case payload.Error != "":
			msg = fmt.Sprintf("%s: %s", resp.Status, payload.Error)
		case payload.Detail != "":
			msg = fmt.Sprintf("%s: %s", resp.Status, payload.Detail)
		}
	}
	typ := ErrTypeStatus
	if resp.StatusCode == http.StatusNotFound {
		typ = ErrTypeNotFound
	}
	return &ClientError{Type: typ, Message: msg, Status: resp.StatusCode}
}
