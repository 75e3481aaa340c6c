// Package api provides a pooled, resilient HTTP client for the Turbo API.
//
// The client retries transient failures with exponential backoff and trips a
// circuit breaker after consecutive failures so a downed API fails fast
// instead of stalling every tool call.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/turbohq/turbo-agent/internal/config"
	"github.com/turbohq/turbo-agent/internal/retry"
)

// Retry and circuit breaker defaults.
const (
	DefaultMaxRetries       = 3
	DefaultBackoffBase      = time.Second
	DefaultBreakerThreshold = 5
	DefaultBreakerRecovery  = 30 * time.Second

	maxBackoff   = 30 * time.Second
	maxErrorBody = 500
)

// retryableStatus reports whether an HTTP status is worth retrying.
func retryableStatus(status int) bool {
	switch status {
	case http.StatusTooManyRequests, http.StatusBadGateway,
		http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		return true
	}
	return false
}

// ClientConfig configures a Client. Field values are honoured as given, so a
// zero MaxRetries means no retries and a zero BackoffBase means no delay
// between attempts. Use DefaultClientConfig for production defaults.
type ClientConfig struct {
	BaseURL          string
	APIKey           string
	MaxRetries       int
	BackoffBase      time.Duration
	BreakerThreshold int
	BreakerRecovery  time.Duration
	Logger           *slog.Logger
}

// DefaultClientConfig returns the production configuration, reading the base
// URL and API key from the environment.
func DefaultClientConfig() ClientConfig {
	cfg := config.FromEnv()
	return ClientConfig{
		BaseURL:          cfg.APIURL,
		APIKey:           cfg.APIKey,
		MaxRetries:       DefaultMaxRetries,
		BackoffBase:      DefaultBackoffBase,
		BreakerThreshold: DefaultBreakerThreshold,
		BreakerRecovery:  DefaultBreakerRecovery,
	}
}

// Client is a pooled HTTP client for the Turbo API with retry and a circuit
// breaker. It is safe for concurrent use.
type Client struct {
	baseURL          string
	apiKey           string
	maxRetries       int
	backoffBase      time.Duration
	breakerThreshold int
	breakerRecovery  time.Duration
	logger           *slog.Logger

	mu                  sync.Mutex
	httpClient          *http.Client
	consecutiveFailures int
	circuitOpenUntil    time.Time
	now                 func() time.Time
}

// NewClient creates a Client from cfg.
func NewClient(cfg ClientConfig) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = config.DefaultAPIURL
	}
	if cfg.BreakerThreshold <= 0 {
		cfg.BreakerThreshold = DefaultBreakerThreshold
	}
	if cfg.BreakerRecovery <= 0 {
		cfg.BreakerRecovery = DefaultBreakerRecovery
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}
	return &Client{
		baseURL:          strings.TrimSuffix(cfg.BaseURL, "/"),
		apiKey:           cfg.APIKey,
		maxRetries:       cfg.MaxRetries,
		backoffBase:      cfg.BackoffBase,
		breakerThreshold: cfg.BreakerThreshold,
		breakerRecovery:  cfg.BreakerRecovery,
		logger:           cfg.Logger.With("component", "api"),
		now:              time.Now,
	}
}

// BaseURL returns the normalised base URL.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Get issues a GET request. Path is relative to the base URL.
func (c *Client) Get(ctx context.Context, path string, query url.Values) (json.RawMessage, error) {
	return c.do(ctx, http.MethodGet, path, query, nil)
}

// Post issues a POST request with a JSON body.
func (c *Client) Post(ctx context.Context, path string, body any) (json.RawMessage, error) {
	return c.do(ctx, http.MethodPost, path, nil, body)
}

// Patch issues a PATCH request with a JSON body.
func (c *Client) Patch(ctx context.Context, path string, body any) (json.RawMessage, error) {
	return c.do(ctx, http.MethodPatch, path, nil, body)
}

// Close releases pooled connections. Safe to call more than once, and before
// any request was made.
func (c *Client) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.httpClient != nil {
		c.httpClient.CloseIdleConnections()
		c.httpClient = nil
	}
}

// getClient lazily creates the pooled http.Client.
func (c *Client) getClient() *http.Client {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.httpClient == nil {
		c.httpClient = &http.Client{
			Timeout: 30 * time.Second,
			Transport: &http.Transport{
				DialContext: (&net.Dialer{
					Timeout: 5 * time.Second,
				}).DialContext,
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		}
	}
	return c.httpClient
}

// checkCircuit returns a circuit_open error while the breaker is open. When
// the recovery deadline has passed it moves to half-open and admits a probe.
func (c *Client) checkCircuit() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.circuitOpenUntil.IsZero() {
		return nil
	}
	now := c.now()
	if now.Before(c.circuitOpenUntil) {
		remaining := c.circuitOpenUntil.Sub(now)
		return &Error{
			Kind:     KindCircuitOpen,
			Endpoint: "(circuit breaker)",
			msg:      fmt.Sprintf("Circuit breaker open. API calls paused for %.0fs.", remaining.Seconds()),
		}
	}
	c.circuitOpenUntil = time.Time{}
	c.consecutiveFailures = 0
	c.logger.Info("circuit breaker half-open, allowing probe request")
	return nil
}

func (c *Client) recordSuccess() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.consecutiveFailures = 0
	c.circuitOpenUntil = time.Time{}
}

func (c *Client) recordFailure() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.consecutiveFailures++
	if c.consecutiveFailures >= c.breakerThreshold {
		c.circuitOpenUntil = c.now().Add(c.breakerRecovery)
		c.logger.Warn("circuit breaker opened",
			"consecutive_failures", c.consecutiveFailures,
			"recovery", c.breakerRecovery)
	}
}

// ensureTrailingSlash avoids 307 redirects from the backing service.
func ensureTrailingSlash(path string) string {
	if strings.HasSuffix(path, "/") {
		return path
	}
	return path + "/"
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, body any) (json.RawMessage, error) {
	if err := c.checkCircuit(); err != nil {
		return nil, err
	}

	endpoint := method + " " + path
	reqURL := c.baseURL + ensureTrailingSlash(path)
	if len(query) > 0 {
		reqURL += "?" + query.Encode()
	}

	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("encode %s body: %w", endpoint, err)
		}
	}

	var raw json.RawMessage
	var lastErr *Error

	result := retry.Do(ctx, retry.Config{
		MaxAttempts:  c.maxRetries + 1,
		InitialDelay: c.backoffBase,
		MaxDelay:     maxBackoff,
		Factor:       2.0,
	}, func() error {
		req, err := http.NewRequestWithContext(ctx, method, reqURL, bytes.NewReader(payload))
		if err != nil {
			return retry.Permanent(fmt.Errorf("build %s request: %w", endpoint, err))
		}
		req.Header.Set("Content-Type", "application/json")
		if c.apiKey != "" {
			req.Header.Set("Authorization", "Bearer "+c.apiKey)
		}

		resp, err := c.getClient().Do(req)
		if err != nil {
			c.recordFailure()
			lastErr = c.transportError(endpoint, err)
			c.logger.Warn("request failed", "endpoint", endpoint, "error", err)
			return lastErr
		}
		defer resp.Body.Close()

		if resp.StatusCode >= 400 {
			data, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
			c.recordFailure()
			lastErr = httpError(endpoint, resp.StatusCode, string(data))
			if retryableStatus(resp.StatusCode) {
				c.logger.Warn("retryable status", "endpoint", endpoint, "status", resp.StatusCode)
				return lastErr
			}
			return retry.Permanent(lastErr)
		}

		data, err := io.ReadAll(resp.Body)
		if err != nil {
			c.recordFailure()
			lastErr = c.transportError(endpoint, err)
			return lastErr
		}
		c.recordSuccess()
		raw = json.RawMessage(data)
		return nil
	})

	if result.Err == nil {
		return raw, nil
	}
	var apiErr *Error
	if errors.As(result.Err, &apiErr) {
		return nil, apiErr
	}
	if lastErr != nil && (errors.Is(result.Err, context.Canceled) || errors.Is(result.Err, context.DeadlineExceeded)) {
		return nil, lastErr
	}
	return nil, result.Err
}

// transportError classifies a network-level failure. Dial failures (refused
// connections, DNS errors, connect timeouts) read as connectivity; everything
// else that timed out reads as a timeout.
func (c *Client) transportError(endpoint string, err error) *Error {
	var opErr *net.OpError
	if errors.As(err, &opErr) && opErr.Op == "dial" {
		return &Error{
			Kind:     KindConnectivity,
			Endpoint: endpoint,
			Body:     err.Error(),
			msg:      fmt.Sprintf("Cannot connect to Turbo API at %s", c.baseURL),
		}
	}
	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
		return &Error{
			Kind:     KindTimeout,
			Endpoint: endpoint,
			Body:     "Request timed out",
			msg:      fmt.Sprintf("Timeout on %s after %d attempts", endpoint, c.maxRetries+1),
		}
	}
	return &Error{
		Kind:     KindConnectivity,
		Endpoint: endpoint,
		Body:     err.Error(),
		msg:      fmt.Sprintf("Cannot connect to Turbo API at %s", c.baseURL),
	}
}
