// Package upstream is the HTTP client every provider adapter talks through.
// It owns credentials, per-call timeouts, tracing and failure classification
// so adapters only describe paths and payloads.
package upstream

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/oauth2"

	"opsconsole/internal/account/models"
	"opsconsole/internal/platform/metrics"
	"opsconsole/internal/providers"
)

const (
	defaultTimeout  = 15 * time.Second
	maxResponseBody = 1 << 20
)

// AuthKind selects how the static credential is presented.
type AuthKind string

const (
	AuthNone   AuthKind = "none"
	AuthAPIKey AuthKind = "api_key"
	AuthBasic  AuthKind = "basic"
	AuthBearer AuthKind = "bearer"
)

// Auth is a credential supplied by process configuration. It is never
// renegotiated at runtime.
type Auth struct {
	Kind     AuthKind
	Header   string // header name for api_key, defaults to X-API-Key
	APIKey   string
	Username string
	Password string
	Token    string
}

// Config describes one upstream.
type Config struct {
	Provider    models.Provider
	BaseURL     string
	Timeout     time.Duration
	Auth        Auth
	BusyMarkers []string
}

// Client performs JSON requests against a single upstream.
type Client struct {
	provider    models.Provider
	baseURL     string
	timeout     time.Duration
	auth        Auth
	busyMarkers []string
	httpClient  *http.Client
	tracer      trace.Tracer
	metrics     *metrics.Metrics
}

type Option func(*Client)

// WithHTTPClient replaces the underlying transport client. Bearer credentials
// are still layered on top of its transport.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(c *Client) {
		c.metrics = m
	}
}

func WithTracer(t trace.Tracer) Option {
	return func(c *Client) {
		c.tracer = t
	}
}

// New validates cfg and builds a client.
func New(cfg Config, opts ...Option) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("upstream %s: base URL is required", cfg.Provider)
	}
	if _, err := url.ParseRequestURI(cfg.BaseURL); err != nil {
		return nil, fmt.Errorf("upstream %s: invalid base URL: %w", cfg.Provider, err)
	}
	c := &Client{
		provider:    cfg.Provider,
		baseURL:     strings.TrimRight(cfg.BaseURL, "/"),
		timeout:     cfg.Timeout,
		auth:        cfg.Auth,
		busyMarkers: cfg.BusyMarkers,
		httpClient:  &http.Client{},
		tracer:      otel.Tracer("opsconsole/providers/upstream"),
	}
	if c.timeout <= 0 {
		c.timeout = defaultTimeout
	}
	if len(c.busyMarkers) == 0 {
		c.busyMarkers = providers.DefaultBusyMarkers
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.auth.Kind == AuthBearer {
		c.httpClient = bearerClient(c.httpClient, c.auth.Token)
	}
	return c, nil
}

func bearerClient(base *http.Client, token string) *http.Client {
	transport := base.Transport
	if transport == nil {
		transport = http.DefaultTransport
	}
	wrapped := *base
	wrapped.Transport = &oauth2.Transport{
		Source: oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token, TokenType: "Bearer"}),
		Base:   transport,
	}
	return &wrapped
}

// Provider returns the tag of the upstream this client talks to.
func (c *Client) Provider() models.Provider {
	return c.provider
}

// Get issues a GET and decodes the JSON body into out.
func (c *Client) Get(ctx context.Context, op, path string, out any) error {
	return c.Do(ctx, op, http.MethodGet, path, nil, out)
}

// Do issues one request. Any failure comes back as *providers.ProviderError;
// transport errors never escape unclassified. out may be nil, and an empty
// success body leaves it untouched.
func (c *Client) Do(ctx context.Context, op, method, path string, body, out any) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	ctx, span := c.tracer.Start(ctx, "upstream."+op,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("provider", string(c.provider)),
			attribute.String("http.method", method),
		))
	defer span.End()

	start := time.Now()
	err := c.do(ctx, op, method, path, body, out)
	result := "ok"
	if err != nil {
		result = string(providers.Classify(err))
		span.RecordError(err)
		span.SetStatus(codes.Error, result)
	}
	c.metrics.ObserveUpstream(string(c.provider), op, result, time.Since(start))
	return err
}

func (c *Client) do(ctx context.Context, op, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return c.fail(models.FailureValidation, op, 0, "encode request body", err, false)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return c.fail(models.FailureValidation, op, 0, "build request", err, false)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	c.applyAuth(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return c.fail(providers.ClassifyTransport(err), op, 0, "request failed", err, !providers.IsDialFailure(err))
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBody))
	if err != nil {
		return c.fail(models.FailureUpstreamDown, op, resp.StatusCode, "read response body", err, true)
	}

	if kind := providers.ClassifyResponse(resp.StatusCode, raw, c.busyMarkers); kind != models.FailureNone {
		return c.fail(kind, op, resp.StatusCode, fmt.Sprintf("upstream returned HTTP %d", resp.StatusCode), nil, true)
	}

	if out == nil || len(bytes.TrimSpace(raw)) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return c.fail(models.FailureUnknown, op, resp.StatusCode, "malformed response body", err, true)
	}
	return nil
}

func (c *Client) applyAuth(req *http.Request) {
	switch c.auth.Kind {
	case AuthAPIKey:
		header := c.auth.Header
		if header == "" {
			header = "X-API-Key"
		}
		req.Header.Set(header, c.auth.APIKey)
	case AuthBasic:
		req.SetBasicAuth(c.auth.Username, c.auth.Password)
	}
}

func (c *Client) fail(kind models.FailureKind, op string, status int, msg string, cause error, reached bool) error {
	pe := providers.NewProviderError(kind, c.provider, msg, cause)
	pe.Op = op
	pe.StatusCode = status
	pe.Reached = reached
	return pe
}

// Health issues a lightweight GET against path and reports only reachability.
func (c *Client) Health(ctx context.Context, path string) error {
	err := c.Do(ctx, "health", http.MethodGet, path, nil, nil)
	if err == nil || providers.Classify(err) == models.FailureNotFound {
		return nil
	}
	return err
}

// PathEscape escapes one path segment.
func PathEscape(s string) string {
	return url.PathEscape(s)
}
