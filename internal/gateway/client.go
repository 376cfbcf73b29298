// Package gateway is the HTTP client for the recommendation service's REST API.
// Authentication rides on the backend's session cookie, which the client keeps
// in its own cookie jar for the lifetime of the process.
package gateway

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"golang.org/x/time/rate"

	"moodflix-client/internal/metrics"
	"moodflix-client/pkg/apierror"
)

const maxErrorBody = 64 << 10

type Options struct {
	BaseURL   string
	Timeout   time.Duration
	RateLimit float64 // requests per second, 0 disables throttling
	Burst     int
	Transport http.RoundTripper
}

type Client struct {
	baseURL *url.URL
	http    *http.Client
	jar     *sessionJar
	limiter *rate.Limiter
}

func New(opts Options) (*Client, error) {
	base, err := url.Parse(opts.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse api base url: %w", err)
	}
	if base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("api base url must be absolute: %q", opts.BaseURL)
	}
	if !strings.HasSuffix(base.Path, "/") {
		base.Path += "/"
	}

	jar, err := newSessionJar()
	if err != nil {
		return nil, err
	}

	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}

	limiter := rate.NewLimiter(rate.Inf, 0)
	if opts.RateLimit > 0 {
		burst := opts.Burst
		if burst <= 0 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(opts.RateLimit), burst)
	}

	return &Client{
		baseURL: base,
		http: &http.Client{
			Jar:       jar,
			Timeout:   timeout,
			Transport: opts.Transport,
		},
		jar:     jar,
		limiter: limiter,
	}, nil
}

// HasSessionCookie reports whether the jar currently holds any cookie for the API host.
func (c *Client) HasSessionCookie() bool {
	return len(c.jar.Cookies(c.baseURL)) > 0
}

// ClearCookies drops every cookie the backend has set, so a later resolution
// cannot revive a session the user asked to end.
func (c *Client) ClearCookies() {
	if err := c.jar.Reset(); err != nil {
		slog.Error("failed to reset cookie jar", "error", err)
	}
}

type request struct {
	method      string
	path        string
	endpoint    string // metrics label, stable across ids
	query       url.Values
	body        any
	rawBody     io.Reader
	contentType string
}

func (c *Client) do(ctx context.Context, req request, out any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return transportError(req, err)
	}

	target := c.baseURL.ResolveReference(&url.URL{Path: req.path})
	if len(req.query) > 0 {
		target.RawQuery = req.query.Encode()
	}

	var body io.Reader
	contentType := req.contentType
	switch {
	case req.rawBody != nil:
		body = req.rawBody
	case req.body != nil:
		payload, err := json.Marshal(req.body)
		if err != nil {
			return fmt.Errorf("encode %s request: %w", req.endpoint, err)
		}
		body = bytes.NewReader(payload)
		contentType = "application/json"
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.method, target.String(), body)
	if err != nil {
		return fmt.Errorf("build %s request: %w", req.endpoint, err)
	}
	httpReq.Header.Set("Accept", "application/json")
	if contentType != "" {
		httpReq.Header.Set("Content-Type", contentType)
	}

	started := time.Now()
	resp, err := c.http.Do(httpReq)
	if err != nil {
		metrics.RecordGatewayRequest(req.method, req.endpoint, 0, time.Since(started))
		return transportError(req, err)
	}
	defer resp.Body.Close()
	metrics.RecordGatewayRequest(req.method, req.endpoint, resp.StatusCode, time.Since(started))

	slog.Debug("gateway request", "method", req.method, "endpoint", req.endpoint, "status", resp.StatusCode,
		"duration_ms", time.Since(started).Milliseconds())

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return decodeError(resp.StatusCode, raw)
	}

	if out == nil || resp.StatusCode == http.StatusNoContent {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return fmt.Errorf("decode %s response: %w", req.endpoint, err)
	}

	return nil
}

func transportError(req request, err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%s %s: %w", req.method, req.endpoint, err)
	}
	apiErr := apierror.New("UPSTREAM_UNAVAILABLE", "recommendation service unreachable", err.Error(), http.StatusBadGateway)
	return apiErr.WithReason(apierror.ReasonTransport)
}
