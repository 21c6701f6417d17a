// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package recommend

import (
	"context"
	"errors"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"
)

// =============================================================================
// ERROR TYPES
// =============================================================================

// ClientError represents an error from the recommendation client.
type ClientError struct {
	Type    ErrorType
	Message string
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

// Is matches any ClientError of the same Type.
func (e *ClientError) Is(target error) bool {
	t, ok := target.(*ClientError)
	if !ok {
		return false
	}
	return e.Type == t.Type
}

// ErrorType categorizes client errors for handling.
type ErrorType int

const (
	ErrTypeUnknown ErrorType = iota
	ErrTypeConnection
	ErrTypeTimeout
	ErrTypeInvalidResponse
	ErrTypeUnsupportedStream
	ErrTypeCancelled
)

// Sentinel errors for easy checking.
var (
	ErrUnavailable       = &ClientError{Type: ErrTypeConnection, Message: "recommendation service is not reachable"}
	ErrTimeout           = &ClientError{Type: ErrTypeTimeout, Message: "request timed out"}
	ErrInvalidResponse   = &ClientError{Type: ErrTypeInvalidResponse, Message: "invalid response"}
	ErrUnsupportedStream = &ClientError{Type: ErrTypeUnsupportedStream, Message: "response has no readable body"}
	ErrCancelled         = &ClientError{Type: ErrTypeCancelled, Message: "request cancelled"}
)

// IsCancelled reports whether err came from the caller cancelling ctx.
func IsCancelled(err error) bool {
	return errors.Is(err, ErrCancelled)
}

// IsUnavailable reports whether the service could not be reached at all.
func IsUnavailable(err error) bool {
	return errors.Is(err, ErrUnavailable) || errors.Is(err, ErrTimeout)
}

// =============================================================================
// CLIENT CONFIGURATION
// =============================================================================

// Config holds configuration options for the client.
type Config struct {
	// BaseURL of the recommendation API (default: http://localhost:8000)
	BaseURL string

	// ConnectTimeout bounds dialing and waiting for response headers.
	// The body itself is streamed without a deadline; cancel the context to
	// abandon it. (default: 10s)
	ConnectTimeout time.Duration

	// UserAgent sent with every request.
	UserAgent string

	// Logger receives request diagnostics. (default: no-op)
	Logger *zap.Logger
}

// DefaultConfig returns the default client configuration.
func DefaultConfig() *Config {
	return &Config{
		BaseURL:        "http://localhost:8000",
		ConnectTimeout: 10 * time.Second,
		UserAgent:      "flome-cli",
		Logger:         zap.NewNop(),
	}
}

// =============================================================================
// CLIENT
// =============================================================================

// Client talks to the recommendation API. It is safe for concurrent use.
type Client struct {
	config     *Config
	logger     *zap.Logger
	httpClient *http.Client
}

// NewClient creates a client. Zero fields in config take their defaults.
func NewClient(config *Config) *Client {
	def := DefaultConfig()
	if config == nil {
		config = def
	}
	if config.BaseURL == "" {
		config.BaseURL = def.BaseURL
	}
	config.BaseURL = strings.TrimRight(config.BaseURL, "/")
	if config.ConnectTimeout == 0 {
		config.ConnectTimeout = def.ConnectTimeout
	}
	if config.UserAgent == "" {
		config.UserAgent = def.UserAgent
	}
	if config.Logger == nil {
		config.Logger = def.Logger
	}

	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.DialContext = (&net.Dialer{Timeout: config.ConnectTimeout}).DialContext
	transport.ResponseHeaderTimeout = config.ConnectTimeout

	return &Client{
		config: config,
		logger: config.Logger.Named("recommend"),
		// No Client.Timeout: it would cut off long streams.
		httpClient: &http.Client{Transport: transport},
	}
}

// BaseURL returns the configured API base URL.
func (c *Client) BaseURL() string {
	return c.config.BaseURL
}

// =============================================================================
// HEALTH CHECK
// =============================================================================

// Health checks that the API answers on its root path.
func (c *Client) Health(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.config.BaseURL+"/", nil)
	if err != nil {
		return &ClientError{Type: ErrTypeConnection, Message: "failed to create request", Cause: err}
	}
	req.Header.Set("User-Agent", c.config.UserAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return classify(ctx, err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))

	if resp.StatusCode != http.StatusOK {
		return &ClientError{Type: ErrTypeInvalidResponse, Message: "unexpected status: " + resp.Status}
	}
	return nil
}

// =============================================================================
// RECOMMENDATION
// =============================================================================

// Recommend starts a recommendation for situation and returns the streaming
// response body. The caller must close it. Cancelling ctx aborts the request
// and unblocks any pending read on the body.
func (c *Client) Recommend(ctx context.Context, situation string) (io.ReadCloser, error) {
	endpoint := c.config.BaseURL + "/api/recommend?" + url.Values{"situation": {situation}}.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, nil)
	if err != nil {
		return nil, &ClientError{Type: ErrTypeConnection, Message: "failed to create request", Cause: err}
	}
	req.Header.Set("Accept", "application/x-ndjson")
	req.Header.Set("User-Agent", c.config.UserAgent)

	c.logger.Debug("requesting recommendation", zap.Int("situation_runes", len([]rune(situation))))
	resp, err := c.httpClient.Do(req)
	if err != nil {
		cerr := classify(ctx, err)
		if !IsCancelled(cerr) {
			c.logger.Error("recommendation request failed", zap.Error(cerr))
		}
		return nil, cerr
	}

	if resp.StatusCode != http.StatusOK {
		defer resp.Body.Close()
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		msg := "recommendation failed: " + resp.Status
		if d := strings.TrimSpace(string(detail)); d != "" {
			msg += " (" + d + ")"
		}
		c.logger.Error("recommendation rejected", zap.Int("status", resp.StatusCode))
		return nil, &ClientError{Type: ErrTypeInvalidResponse, Message: msg}
	}

	if resp.Body == nil || resp.Body == http.NoBody {
		c.logger.Error("recommendation response has no body")
		return nil, ErrUnsupportedStream
	}
	return resp.Body, nil
}

// classify maps a transport error to a ClientError.
func classify(ctx context.Context, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		if errors.Is(ctxErr, context.DeadlineExceeded) {
			return &ClientError{Type: ErrTypeTimeout, Message: ErrTimeout.Message, Cause: err}
		}
		return &ClientError{Type: ErrTypeCancelled, Message: ErrCancelled.Message, Cause: err}
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return &ClientError{Type: ErrTypeTimeout, Message: ErrTimeout.Message, Cause: err}
	}
	return &ClientError{Type: ErrTypeConnection, Message: ErrUnavailable.Message, Cause: err}
}
