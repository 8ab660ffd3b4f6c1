// Package apiclient is the typed HTTP client for the remote cost API. Every
// request carries the workspace's current bearer token, read fresh from a
// TokenSource, and every 401 response fires the OnUnauthorized hook exactly
// once before the error is returned to the caller.
package apiclient

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

	"golang.org/x/time/rate"
)

// maxErrorBody caps how much of an error response is read for its detail.
const maxErrorBody = 64 << 10

// TokenSource yields the bearer token to attach to the next request. An
// empty token means the request goes out unauthenticated.
type TokenSource interface {
	Token(ctx context.Context) (string, error)
}

// TokenSourceFunc adapts a function to TokenSource.
type TokenSourceFunc func(ctx context.Context) (string, error)

// Token implements TokenSource.
func (f TokenSourceFunc) Token(ctx context.Context) (string, error) {
	return f(ctx)
}

// Recorder receives one observation per outbound request. Implemented by
// metrics.Collector.
type Recorder interface {
	RecordAPIRequest(endpoint string, status int, d time.Duration)
}

// Options configures a Client.
type Options struct {
	// BaseURL is the API root, e.g. "http://localhost:8000".
	BaseURL string

	// Timeout bounds each request. Zero leaves the caller's context in charge.
	Timeout time.Duration

	// RateLimit and RateBurst throttle outbound calls. Zero disables throttling.
	RateLimit float64
	RateBurst int

	// HTTPClient defaults to a client with no overall timeout.
	HTTPClient *http.Client

	Tokens TokenSource

	// OnUnauthorized runs once for every 401 response, before the call
	// returns. It must not call back into the client.
	OnUnauthorized func(ctx context.Context)

	Recorder Recorder
}

// Client is the single configured channel to the remote cost API.
type Client struct {
	baseURL        string
	timeout        time.Duration
	httpClient     *http.Client
	limiter        *rate.Limiter
	tokens         TokenSource
	onUnauthorized func(ctx context.Context)
	recorder       Recorder
}

// New creates a Client from opts.
func New(opts Options) *Client {
	c := &Client{
		baseURL:        strings.TrimRight(opts.BaseURL, "/"),
		timeout:        opts.Timeout,
		httpClient:     opts.HTTPClient,
		tokens:         opts.Tokens,
		onUnauthorized: opts.OnUnauthorized,
		recorder:       opts.Recorder,
	}
	if c.httpClient == nil {
		c.httpClient = &http.Client{}
	}
	if opts.RateLimit > 0 {
		burst := opts.RateBurst
		if burst < 1 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(opts.RateLimit), burst)
	}
	return c
}

// BaseURL returns the API root the client talks to.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// call describes one outbound request. route is the path template used as
// the metrics label so ids do not explode label cardinality.
type call struct {
	method string
	route  string
	path   string
	query  url.Values
	body   any
}

// do executes the call and decodes a 2xx JSON response into out (if non-nil).
func (c *Client) do(ctx context.Context, cl call, out any) error {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return fmt.Errorf("waiting for rate limiter: %w", err)
		}
	}

	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	req, err := c.newRequest(ctx, cl)
	if err != nil {
		return err
	}

	endpoint := cl.method + " " + cl.route
	start := time.Now()

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.record(endpoint, 0, time.Since(start))
		slog.Warn("cost api request failed",
			slog.String("endpoint", endpoint),
			slog.Any("error", err),
		)
		return fmt.Errorf("%s: %w", endpoint, err)
	}
	defer resp.Body.Close()

	c.record(endpoint, resp.StatusCode, time.Since(start))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := readAPIError(resp, endpoint)
		if resp.StatusCode == http.StatusUnauthorized && c.onUnauthorized != nil {
			c.onUnauthorized(ctx)
		}
		slog.Debug("cost api returned error status",
			slog.String("endpoint", endpoint),
			slog.Int("status", resp.StatusCode),
			slog.String("detail", apiErr.Detail),
		)
		return apiErr
	}

	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%s: decoding response: %w", endpoint, err)
	}
	return nil
}

func (c *Client) newRequest(ctx context.Context, cl call) (*http.Request, error) {
	target := c.baseURL + cl.path
	if len(cl.query) > 0 {
		target += "?" + cl.query.Encode()
	}

	var body io.Reader
	if cl.body != nil {
		buf, err := json.Marshal(cl.body)
		if err != nil {
			return nil, fmt.Errorf("encoding %s body: %w", cl.route, err)
		}
		body = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, cl.method, target, body)
	if err != nil {
		return nil, fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	if c.tokens != nil {
		token, err := c.tokens.Token(ctx)
		if err != nil {
			return nil, fmt.Errorf("reading access token: %w", err)
		}
		if token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}
	return req, nil
}

func (c *Client) record(endpoint string, status int, d time.Duration) {
	if c.recorder != nil {
		c.recorder.RecordAPIRequest(endpoint, status, d)
	}
}
