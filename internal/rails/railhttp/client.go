// Package railhttp is the JSON-over-HTTP client shared by the rail adapters.
// Every call is paced by a token bucket, guarded by a circuit breaker and
// reported to the rail metrics.
package railhttp

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

	"github.com/SscSPs/btc_momo_exchange/internal/core/ports/rails"
	"github.com/SscSPs/btc_momo_exchange/internal/observability"
	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"
)

const maxErrorBody = 512

// Config describes one upstream.
type Config struct {
	Rail    string
	BaseURL string
	APIKey  string
	Timeout time.Duration
	// RequestsPerSecond <= 0 disables pacing.
	RequestsPerSecond float64
	Burst             int
	// FailureThreshold consecutive failures open the breaker for OpenTimeout.
	FailureThreshold uint32
	OpenTimeout      time.Duration
}

// Client calls one upstream API.
type Client struct {
	cfg     Config
	http    *http.Client
	limiter *rate.Limiter
	breaker *gobreaker.CircuitBreaker
	metrics *observability.Metrics
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithMetrics reports every call to m.
func WithMetrics(m *observability.Metrics) Option {
	return func(c *Client) { c.metrics = m }
}

// New builds a client for cfg.
func New(cfg Config, opts ...Option) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.Burst <= 0 {
		cfg.Burst = 5
	}
	if cfg.FailureThreshold == 0 {
		cfg.FailureThreshold = 5
	}
	if cfg.OpenTimeout <= 0 {
		cfg.OpenTimeout = 30 * time.Second
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")

	c := &Client{
		cfg:  cfg,
		http: &http.Client{Timeout: cfg.Timeout},
	}
	if cfg.RequestsPerSecond > 0 {
		c.limiter = rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), cfg.Burst)
	}
	threshold := cfg.FailureThreshold
	c.breaker = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:    cfg.Rail,
		Timeout: cfg.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= threshold
		},
		// Upstream 4xx answers mean the upstream is healthy.
		IsSuccessful: func(err error) bool {
			var railErr *rails.Error
			if errors.As(err, &railErr) && railErr.StatusCode >= 400 && railErr.StatusCode < 500 {
				return true
			}
			return err == nil
		},
	})
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Rail is the rail name errors and metrics are labelled with.
func (c *Client) Rail() string { return c.cfg.Rail }

// Do sends body as JSON to path and decodes a 2xx response into out.
// path may be an absolute URL, in which case BaseURL and the API key are not used.
// Failures are returned as *rails.Error.
func (c *Client) Do(ctx context.Context, operation, method, path string, body, out any) error {
	start := time.Now()
	_, err := c.breaker.Execute(func() (interface{}, error) {
		return nil, c.do(ctx, operation, method, path, body, out)
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		err = rails.NewError(c.cfg.Rail, operation, 0, err)
	}
	c.metrics.RailRequest(c.cfg.Rail, operation, time.Since(start), err)
	return err
}

func (c *Client) do(ctx context.Context, operation, method, path string, body, out any) error {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return rails.NewError(c.cfg.Rail, operation, 0, err)
		}
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return rails.NewError(c.cfg.Rail, operation, 0, fmt.Errorf("encode request: %w", err))
		}
		reader = bytes.NewReader(payload)
	}

	absolute := strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://")
	url := path
	if !absolute {
		url = c.cfg.BaseURL + path
	}
	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return rails.NewError(c.cfg.Rail, operation, 0, err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.cfg.APIKey != "" && !absolute {
		req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return rails.NewError(c.cfg.Rail, operation, 0, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return rails.NewError(c.cfg.Rail, operation, resp.StatusCode,
			fmt.Errorf("%s: %s", http.StatusText(resp.StatusCode), strings.TrimSpace(string(snippet))))
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return rails.NewError(c.cfg.Rail, operation, resp.StatusCode, fmt.Errorf("decode response: %w", err))
	}
	return nil
}
