package client

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"nmc-mcp/internal/api"
	"nmc-mcp/internal/auth"
	"nmc-mcp/internal/metrics"
	"nmc-mcp/pkg/logging"
	pkgstrings "nmc-mcp/pkg/strings"

	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"
	"github.com/hashicorp/go-cleanhttp"
)

const (
	// maxBodyBytes caps how much of a response body is read.
	maxBodyBytes = 32 << 20

	// RequestIDHeader carries a per-attempt correlation id.
	RequestIDHeader = "X-Request-ID"

	defaultUserAgent = "nmc-mcp"
)

// Config configures the HTTP client.
type Config struct {
	BaseURL    string
	Timeout    time.Duration
	VerifySSL  bool
	AuthScheme string
	// MaxConcurrency sizes the per-host connection pool.
	MaxConcurrency int
	// RetryMaxAttempts is the total number of attempts for idempotent
	// requests that fail transiently. Non-idempotent requests get one.
	RetryMaxAttempts int
	RetryBaseDelay   time.Duration
	RetryMaxDelay    time.Duration
	UserAgent        string
}

// TokenSource supplies tokens for authenticated requests. *auth.Manager
// implements it.
type TokenSource interface {
	EnsureValid(ctx context.Context) (auth.Token, error)
	RefreshRejected(ctx context.Context, rejected string) (auth.Token, error)
}

// Limiter paces attempts. *ratelimit.Limiter implements it.
type Limiter interface {
	Acquire(ctx context.Context) error
}

// Doer executes API requests. API clients depend on this rather than on
// *Client so they can be tested against fakes.
type Doer interface {
	Do(ctx context.Context, req *Request) (*Response, error)
}

// Request is one logical API call.
type Request struct {
	Method string
	// Path is relative to the base URL and starts with a slash.
	Path  string
	Query url.Values
	// Body is JSON-encoded when non-nil.
	Body         interface{}
	RequiresAuth bool
}

// Response is a successful (2xx) API response.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
	// Data is the decoded JSON body, the raw text for non-JSON bodies, or
	// nil for an empty body.
	Data interface{}
}

// Decode unmarshals the JSON body into out.
func (r *Response) Decode(out interface{}) error {
	if len(bytes.TrimSpace(r.Body)) == 0 {
		return &api.ParseError{Message: "empty response body"}
	}
	if err := json.Unmarshal(r.Body, out); err != nil {
		return &api.ParseError{Message: "unexpected response shape", Snippet: snippet(r.Body), Err: err}
	}
	return nil
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the pooled HTTP client.
func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// WithMetrics records attempts, retries and limiter waits.
func WithMetrics(m *metrics.Metrics) Option {
	return func(c *Client) {
		c.metrics = m
	}
}

// WithTokenSource sets the token source at construction time.
func WithTokenSource(ts TokenSource) Option {
	return func(c *Client) {
		c.tokens = ts
	}
}

// Client executes NMC API requests.
//
// Every attempt, retries included, passes through the shared limiter.
// Authenticated requests carry the current token; a 401/403 triggers exactly
// one reactive refresh and one retry. Idempotent requests that fail with a
// connection error or 5xx are retried with capped exponential backoff.
type Client struct {
	cfg        Config
	baseURL    string
	httpClient *http.Client
	limiter    Limiter
	metrics    *metrics.Metrics

	mu     sync.RWMutex
	tokens TokenSource
}

// New creates a client with a pooled transport sized for cfg.MaxConcurrency.
func New(cfg Config, limiter Limiter, opts ...Option) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.AuthScheme == "" {
		cfg.AuthScheme = "Token"
	}
	if cfg.MaxConcurrency <= 0 {
		cfg.MaxConcurrency = 10
	}
	if cfg.RetryMaxAttempts < 1 {
		cfg.RetryMaxAttempts = 1
	}
	if cfg.RetryBaseDelay <= 0 {
		cfg.RetryBaseDelay = time.Second
	}
	if cfg.RetryMaxDelay < cfg.RetryBaseDelay {
		cfg.RetryMaxDelay = cfg.RetryBaseDelay
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = defaultUserAgent
	}

	c := &Client{
		cfg:     cfg,
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		limiter: limiter,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.httpClient == nil {
		c.httpClient = newPooledHTTPClient(cfg)
	}
	return c
}

func newPooledHTTPClient(cfg Config) *http.Client {
	transport := cleanhttp.DefaultPooledTransport()
	transport.MaxIdleConnsPerHost = cfg.MaxConcurrency
	transport.MaxConnsPerHost = cfg.MaxConcurrency
	transport.TLSClientConfig = &tls.Config{
		MinVersion:         tls.VersionTLS12,
		InsecureSkipVerify: !cfg.VerifySSL, //nolint:gosec // NMC appliances commonly use self-signed certificates
	}
	return &http.Client{
		Transport: transport,
		Timeout:   cfg.Timeout,
	}
}

// UseTokenSource installs the token source. The auth manager logs in through
// this same client, so it is usually wired after both exist.
func (c *Client) UseTokenSource(ts TokenSource) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.tokens = ts
}

func (c *Client) tokenSource() TokenSource {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.tokens
}

// BaseURL returns the API root the client talks to.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Close releases idle pooled connections.
func (c *Client) Close() {
	c.httpClient.CloseIdleConnections()
}

// Do executes req and returns the 2xx response or a classified error:
// *api.AuthError, *api.TransientError, *api.RequestError or *api.ParseError.
func (c *Client) Do(ctx context.Context, req *Request) (*Response, error) {
	if !req.RequiresAuth {
		resp, err := c.send(ctx, req, "")
		var rejected *rejectedError
		if errors.As(err, &rejected) {
			return nil, &api.AuthError{Message: rejected.Error(), StatusCode: rejected.status}
		}
		return resp, err
	}

	tokens := c.tokenSource()
	if tokens == nil {
		return nil, &api.AuthError{Message: "no token source configured"}
	}

	tok, err := tokens.EnsureValid(ctx)
	if err != nil {
		return nil, err
	}

	resp, err := c.send(ctx, req, tok.Value)
	var rejected *rejectedError
	if !errors.As(err, &rejected) {
		return resp, err
	}

	logging.Info("HTTPClient", "%s %s returned %d, refreshing token and retrying once", req.Method, req.Path, rejected.status)
	c.metrics.IncRetry("auth")

	tok, err = tokens.RefreshRejected(ctx, tok.Value)
	if err != nil {
		return nil, err
	}

	resp, err = c.send(ctx, req, tok.Value)
	if errors.As(err, &rejected) {
		return nil, &api.AuthError{
			Message:    fmt.Sprintf("%s %s rejected after token refresh: %s", req.Method, req.Path, rejected.message),
			StatusCode: rejected.status,
		}
	}
	return resp, err
}

// send runs the transient-retry loop for one token.
func (c *Client) send(ctx context.Context, req *Request, token string) (*Response, error) {
	var body []byte
	if req.Body != nil {
		var err error
		body, err = json.Marshal(req.Body)
		if err != nil {
			return nil, fmt.Errorf("failed to encode request body: %w", err)
		}
	}

	maxAttempts := 1
	if isIdempotent(req.Method) {
		maxAttempts = c.cfg.RetryMaxAttempts
	}

	attempt := 0
	var resp *Response
	operation := func() error {
		attempt++
		r, err := c.attempt(ctx, req, token, body)
		if err == nil {
			resp = r
			return nil
		}
		if api.IsTransient(err) && attempt < maxAttempts {
			return err
		}
		return backoff.Permanent(err)
	}
	notify := func(err error, wait time.Duration) {
		c.metrics.IncRetry("transient")
		logging.Warn("HTTPClient", "%s %s attempt %d/%d failed, retrying in %v: %v",
			req.Method, req.Path, attempt, maxAttempts, wait.Round(time.Millisecond), err)
	}

	err := backoff.RetryNotify(operation, c.newBackOff(ctx, maxAttempts), notify)
	if err != nil {
		var transient *api.TransientError
		if errors.As(err, &transient) {
			transient.Attempts = attempt
		}
		return nil, err
	}
	return resp, nil
}

func (c *Client) newBackOff(ctx context.Context, maxAttempts int) backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = c.cfg.RetryBaseDelay
	b.MaxInterval = c.cfg.RetryMaxDelay
	b.Multiplier = 2
	b.RandomizationFactor = 0.2
	b.MaxElapsedTime = 0
	b.Reset()
	return backoff.WithContext(backoff.WithMaxRetries(b, uint64(maxAttempts-1)), ctx)
}

// attempt sends one HTTP request after acquiring a rate-limit slot.
func (c *Client) attempt(ctx context.Context, req *Request, token string, body []byte) (*Response, error) {
	waitStart := time.Now()
	if c.limiter != nil {
		if err := c.limiter.Acquire(ctx); err != nil {
			return nil, err
		}
	}
	c.metrics.ObserveRateLimitWait(time.Since(waitStart))

	var bodyReader io.Reader
	if body != nil {
		bodyReader = bytes.NewReader(body)
	}
	httpReq, err := http.NewRequestWithContext(ctx, req.Method, c.url(req), bodyReader)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	requestID := uuid.NewString()
	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set("User-Agent", c.cfg.UserAgent)
	httpReq.Header.Set(RequestIDHeader, requestID)
	if body != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		auth.Token{Value: token}.OAuth2(c.cfg.AuthScheme).SetAuthHeader(httpReq)
	}

	logging.Debug("HTTPClient", "%s %s (request %s)", req.Method, req.Path, requestID)
	start := time.Now()
	httpResp, err := c.httpClient.Do(httpReq)
	if err != nil {
		c.metrics.ObserveRequest(req.Method, 0, time.Since(start))
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, &api.TransientError{Message: fmt.Sprintf("%s %s: connection error", req.Method, req.Path), Err: err}
	}
	defer httpResp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(httpResp.Body, maxBodyBytes))
	c.metrics.ObserveRequest(req.Method, httpResp.StatusCode, time.Since(start))
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, &api.TransientError{Message: fmt.Sprintf("%s %s: reading response", req.Method, req.Path), Err: err}
	}

	status := httpResp.StatusCode
	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return nil, &rejectedError{status: status, message: errorMessage(data)}
	case status >= 500:
		return nil, &api.TransientError{
			Message:    fmt.Sprintf("%s %s: server error", req.Method, req.Path),
			StatusCode: status,
		}
	case status >= 300:
		return nil, &api.RequestError{Method: req.Method, Path: req.Path, StatusCode: status, Message: errorMessage(data)}
	}

	resp := &Response{StatusCode: status, Header: httpResp.Header, Body: data}
	if err := resp.parse(); err != nil {
		return nil, err
	}
	return resp, nil
}

func (c *Client) url(req *Request) string {
	u := c.baseURL + req.Path
	if len(req.Query) > 0 {
		u += "?" + req.Query.Encode()
	}
	return u
}

func (r *Response) parse() error {
	trimmed := bytes.TrimSpace(r.Body)
	if len(trimmed) == 0 {
		return nil
	}
	contentType := strings.ToLower(r.Header.Get("Content-Type"))
	looksJSON := trimmed[0] == '{' || trimmed[0] == '['
	if !strings.Contains(contentType, "json") && !looksJSON {
		r.Data = string(r.Body)
		return nil
	}

	var data interface{}
	if err := json.Unmarshal(trimmed, &data); err != nil {
		return &api.ParseError{Message: "malformed JSON response", Snippet: snippet(r.Body), Err: err}
	}
	r.Data = data
	return nil
}

// rejectedError marks a 401/403 so Do can run the reactive refresh.
type rejectedError struct {
	status  int
	message string
}

func (e *rejectedError) Error() string {
	msg := fmt.Sprintf("request rejected with HTTP %d", e.status)
	if e.message != "" {
		msg += ": " + e.message
	}
	return msg
}

func isIdempotent(method string) bool {
	switch strings.ToUpper(method) {
	case http.MethodGet, http.MethodHead, http.MethodOptions:
		return true
	default:
		return false
	}
}

// errorMessage extracts a human-readable message from an NMC error body.
func errorMessage(body []byte) string {
	var payload map[string]interface{}
	if err := json.Unmarshal(body, &payload); err == nil {
		for _, key := range []string{"detail", "message", "error", "non_field_errors"} {
			switch v := payload[key].(type) {
			case string:
				if v != "" {
					return v
				}
			case []interface{}:
				if len(v) > 0 {
					return fmt.Sprint(v[0])
				}
			}
		}
	}
	return snippet(body)
}

func snippet(body []byte) string {
	return pkgstrings.TruncateDescription(string(body), 200)
}
