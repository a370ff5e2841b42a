// Olapic Go SDK - Media Curation API Client
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/olapic-go

/*
client.go - Olapic REST transport

The transport performs every HTTP exchange of the SDK:

  - GET returning decoded JSON (map[string]any / []any / scalars)
  - GET returning raw bytes (image renditions)
  - multipart POST returning decoded JSON, with upload progress

Each request carries the customer auth token and API version as query
parameters, an X-Request-ID header, and is paced by a token-bucket limiter
and guarded by a circuit breaker. HTTP 429 responses are retried with
exponential backoff (honoring Retry-After); nothing else is retried.

Failures are *apierr.Error values:

  - no response: KindNetwork
  - non-2xx: KindHTTPStatus (KindNotFound for 404)
  - undecodable 2xx body: KindMalformedResponse
*/

//nolint:staticcheck // File documentation, not package doc
package rest

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"github.com/goccy/go-json"
	"golang.org/x/time/rate"

	"github.com/tomtom215/olapic-go/internal/apierr"
	"github.com/tomtom215/olapic-go/internal/config"
	"github.com/tomtom215/olapic-go/internal/logging"
	"github.com/tomtom215/olapic-go/internal/metrics"
)

const (
	// maxErrorBodySize bounds how much of an error body is read.
	maxErrorBodySize = 64 * 1024

	// maxErrorExcerpt bounds the body excerpt kept in error messages.
	maxErrorExcerpt = 256

	// Query parameter names the API authenticates and versions with.
	authParam    = "auth_token"
	versionParam = "version"
)

// ProgressFunc receives the uploaded fraction of a request body, 0.0 to 1.0.
type ProgressFunc func(fraction float64)

// Part is one field of a multipart POST. Parts with Data or a FileName are
// sent as files; the others as plain form values.
type Part struct {
	Name        string
	Value       string
	FileName    string
	ContentType string
	Data        []byte
}

// Transport is the HTTP boundary the handlers and media lists depend on.
type Transport interface {
	Get(ctx context.Context, rawURL string, params url.Values) (any, error)
	GetBinary(ctx context.Context, rawURL string, params url.Values) ([]byte, error)
	Post(ctx context.Context, rawURL string, params url.Values, parts []Part, onProgress ProgressFunc) (any, error)
}

// Client is the production Transport.
type Client struct {
	client         *http.Client
	authKey        string
	version        string
	userAgent      string
	maxRetries     int
	retryBaseDelay time.Duration
	limiter        *rate.Limiter
	breaker        *breaker
	logURLs        atomic.Bool
}

var _ Transport = (*Client)(nil)

// Option customizes a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying *http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.client = hc
		}
	}
}

// New builds a transport from the API and resilience settings of cfg.
func New(cfg *config.Config, opts ...Option) *Client {
	c := &Client{
		client:         &http.Client{Timeout: cfg.API.Timeout},
		authKey:        cfg.API.AuthKey,
		version:        cfg.API.Version,
		userAgent:      cfg.API.UserAgent,
		maxRetries:     cfg.Resilience.MaxRetries,
		retryBaseDelay: cfg.Resilience.RetryBaseDelay,
	}
	if cfg.Resilience.RateLimitRPS > 0 {
		c.limiter = rate.NewLimiter(rate.Limit(cfg.Resilience.RateLimitRPS), cfg.Resilience.RateLimitBurst)
	}
	if cfg.Resilience.BreakerEnabled {
		c.breaker = newBreaker("olapic-api", &cfg.Resilience)
	}
	c.logURLs.Store(cfg.Logging.LogURLs)
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// SetLogURLs switches per-request URL logging at info level on or off.
func (c *Client) SetLogURLs(enabled bool) {
	c.logURLs.Store(enabled)
}

// Get fetches rawURL and decodes the JSON body.
func (c *Client) Get(ctx context.Context, rawURL string, params url.Values) (any, error) {
	body, target, err := c.execute(ctx, request{method: http.MethodGet, rawURL: rawURL, params: params})
	if err != nil {
		return nil, err
	}
	return decodeJSON(target, body)
}

// GetBinary fetches rawURL and returns the body unchanged.
func (c *Client) GetBinary(ctx context.Context, rawURL string, params url.Values) ([]byte, error) {
	body, _, err := c.execute(ctx, request{method: http.MethodGet, rawURL: rawURL, params: params})
	return body, err
}

// Post sends parts as multipart/form-data and decodes the JSON answer.
// onProgress may be nil; it never sees a fraction lower than the previous one.
func (c *Client) Post(ctx context.Context, rawURL string, params url.Values, parts []Part, onProgress ProgressFunc) (any, error) {
	payload, contentType, err := encodeMultipart(parts)
	if err != nil {
		return nil, fmt.Errorf("failed to encode multipart body: %w", err)
	}
	body, target, err := c.execute(ctx, request{
		method:      http.MethodPost,
		rawURL:      rawURL,
		params:      params,
		payload:     payload,
		contentType: contentType,
		progress:    newProgress(onProgress),
	})
	if err != nil {
		return nil, err
	}
	return decodeJSON(target, body)
}

type request struct {
	method      string
	rawURL      string
	params      url.Values
	payload     []byte
	contentType string
	progress    *progress
}

// execute runs one logical request: URL building, pacing, the breaker and
// the 429 retry loop. It returns the body of a 2xx response.
func (c *Client) execute(ctx context.Context, r request) ([]byte, string, error) {
	target, err := c.buildURL(r.rawURL, r.params)
	if err != nil {
		return nil, r.rawURL, apierr.NewNetworkError(r.rawURL, err)
	}
	redacted := logging.RedactURL(target)
	endpoint := endpointLabel(target)

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, redacted, apierr.NewNetworkError(redacted, err)
		}
	}

	c.logStart(ctx, r.method, redacted)
	start := time.Now()
	status := 0

	call := func() ([]byte, error) {
		body, code, err := c.doRequestWithRateLimit(ctx, r, target, redacted, endpoint)
		status = code
		return body, err
	}

	var body []byte
	if c.breaker != nil {
		body, err = c.breaker.execute(redacted, call)
	} else {
		body, err = call()
	}

	duration := time.Since(start)
	metrics.RecordAPIRequest(r.method, endpoint, status, duration)
	c.logDone(ctx, r.method, redacted, status, duration, err)

	return body, redacted, err
}

// doRequestWithRateLimit sends the request, retrying HTTP 429 responses
// with exponential backoff. It returns the final status code (0 when no
// response was received).
func (c *Client) doRequestWithRateLimit(ctx context.Context, r request, target, redacted, endpoint string) ([]byte, int, error) {
	for attempt := 0; ; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, 0, apierr.NewNetworkError(redacted, err)
		}

		req, err := c.newRequest(ctx, r, target)
		if err != nil {
			return nil, 0, apierr.NewNetworkError(redacted, err)
		}

		resp, err := c.client.Do(req)
		if err != nil {
			return nil, 0, apierr.NewNetworkError(redacted, err)
		}

		if resp.StatusCode == http.StatusTooManyRequests && attempt < c.maxRetries {
			delay := c.retryDelay(attempt, resp.Header.Get("Retry-After"))
			_ = resp.Body.Close() // the response is discarded and retried
			metrics.RecordRateLimitRetry(endpoint)
			logging.Ctx(ctx).Warn().
				Str("url", redacted).
				Int("attempt", attempt+1).
				Dur("delay", delay).
				Msg("Rate limited by the Olapic API, backing off")

			select {
			case <-time.After(delay):
				continue
			case <-ctx.Done():
				return nil, 0, apierr.NewNetworkError(redacted, ctx.Err())
			}
		}

		body, err := readResponse(resp, redacted)
		return body, resp.StatusCode, err
	}
}

func (c *Client) newRequest(ctx context.Context, r request, target string) (*http.Request, error) {
	var body io.Reader = http.NoBody
	if r.payload != nil {
		body = r.progress.reader(bytes.NewReader(r.payload), int64(len(r.payload)))
	}
	req, err := http.NewRequestWithContext(ctx, r.method, target, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	if r.payload != nil {
		req.ContentLength = int64(len(r.payload))
		req.Header.Set("Content-Type", r.contentType)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", logging.GenerateRequestID())
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}
	return req, nil
}

// retryDelay doubles the base delay per attempt; a Retry-After value in
// seconds takes precedence.
func (c *Client) retryDelay(attempt int, retryAfter string) time.Duration {
	delay := c.retryBaseDelay * time.Duration(1<<uint(attempt))
	if retryAfter != "" {
		if seconds, err := strconv.Atoi(strings.TrimSpace(retryAfter)); err == nil && seconds >= 0 {
			delay = time.Duration(seconds) * time.Second
		}
	}
	return delay
}

// buildURL merges params into rawURL's query and adds the credentials.
// Protocol-relative URLs get https.
func (c *Client) buildURL(rawURL string, params url.Values) (string, error) {
	if strings.HasPrefix(rawURL, "//") {
		rawURL = "https:" + rawURL
	}
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("invalid URL %q: %w", rawURL, err)
	}
	if !u.IsAbs() || u.Host == "" {
		return "", fmt.Errorf("URL %q is not absolute", rawURL)
	}

	q := u.Query()
	for key, values := range params {
		q[key] = append([]string(nil), values...)
	}
	if c.authKey != "" {
		q.Set(authParam, c.authKey)
	}
	if c.version != "" && q.Get(versionParam) == "" {
		q.Set(versionParam, c.version)
	}
	u.RawQuery = q.Encode()
	return u.String(), nil
}

func readResponse(resp *http.Response, redacted string) ([]byte, error) {
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		excerpt := strings.TrimSpace(string(readBodyForError(resp.Body)))
		if len(excerpt) > maxErrorExcerpt {
			excerpt = excerpt[:maxErrorExcerpt] + "..."
		}
		return nil, apierr.NewHTTPStatusError(redacted, resp.StatusCode, excerpt)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, apierr.NewNetworkError(redacted, fmt.Errorf("failed to read response body: %w", err))
	}
	return body, nil
}

// readBodyForError reads at most maxErrorBodySize bytes of an error body.
func readBodyForError(r io.Reader) []byte {
	body, err := io.ReadAll(io.LimitReader(r, maxErrorBodySize))
	if err != nil {
		return []byte("(failed to read response body)")
	}
	return body
}

func decodeJSON(redacted string, body []byte) (any, error) {
	if len(bytes.TrimSpace(body)) == 0 {
		return nil, nil
	}
	var v any
	if err := json.Unmarshal(body, &v); err != nil {
		return nil, apierr.NewMalformedResponseError(redacted, "response is not valid JSON", err)
	}
	return v, nil
}

// endpointLabel reduces a URL to its first path segment for metric labels.
func endpointLabel(target string) string {
	u, err := url.Parse(target)
	if err != nil {
		return "invalid"
	}
	path := strings.Trim(u.Path, "/")
	if path == "" {
		return "root"
	}
	if i := strings.IndexByte(path, '/'); i >= 0 {
		path = path[:i]
	}
	return path
}

func (c *Client) logStart(ctx context.Context, method, redacted string) {
	if c.logURLs.Load() {
		logging.Ctx(ctx).Info().Str("method", method).Str("url", redacted).Msg("Request started")
	}
}

func (c *Client) logDone(ctx context.Context, method, redacted string, status int, d time.Duration, err error) {
	logger := logging.Ctx(ctx)
	event := logger.Debug()
	if c.logURLs.Load() {
		event = logger.Info()
	}
	if err != nil && !errors.Is(err, context.Canceled) {
		event = logger.Warn().Err(err)
	}
	event.Str("method", method).
		Str("url", redacted).
		Int("status", status).
		Dur("duration", d).
		Msg("Request finished")
}
