package apiclient

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/kinance/kinance-go/internal/client/credstore"
	"github.com/kinance/kinance-go/internal/infra/buildinfo"
	"github.com/kinance/kinance-go/internal/telemetry/logger"
	"github.com/kinance/kinance-go/internal/telemetry/metric"
)

// Defaults for Config.
const (
	DefaultBaseURL    = "http://localhost:8080"
	DefaultAPIVersion = "v1"
	DefaultTimeout    = 10 * time.Second
)

// maxResponseSize bounds how much of a response body is read.
const maxResponseSize = 10 << 20

// Config configures a Client.
type Config struct {
	// BaseURL is the server address; "http://" is assumed without a scheme.
	BaseURL string

	// APIVersion selects the /api/<version> prefix.
	APIVersion string

	// Timeout bounds each HTTP exchange. A timeout is a network error.
	Timeout time.Duration

	// RateLimit caps outbound requests per second. Zero disables it.
	RateLimit float64
	Burst     int

	// UserAgent defaults to buildinfo.UserAgent().
	UserAgent string

	// TLS replaces the transport's TLS settings when set, for private
	// roots or a client certificate.
	TLS *tls.Config
}

// Client is the HTTP client core. It is safe for concurrent use; concurrent
// 401s may each refresh independently (last write wins in the store).
type Client struct {
	baseURL   string
	prefix    string
	userAgent string
	http      *http.Client
	store     credstore.Store
	limiter   *rate.Limiter
	logger    logger.Logger
	metrics   *metric.Registry

	// entry is the head of the pipeline; the refresh stage resubmits here.
	entry Handler
}

// Option configures optional Client dependencies.
type Option func(*Client)

// WithLogger sets the client logger.
func WithLogger(l logger.Logger) Option {
	return func(c *Client) {
		c.logger = l
	}
}

// WithMetrics records request and refresh metrics.
func WithMetrics(m *metric.Registry) Option {
	return func(c *Client) {
		c.metrics = m
	}
}

// WithHTTPClient replaces the underlying *http.Client. Its Timeout is kept.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.http = hc
	}
}

// New creates a Client reading and writing credentials through store.
func New(cfg Config, store credstore.Store, opts ...Option) *Client {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if !strings.HasPrefix(baseURL, "http://") && !strings.HasPrefix(baseURL, "https://") {
		baseURL = "http://" + baseURL
	}
	version := cfg.APIVersion
	if version == "" {
		version = DefaultAPIVersion
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	userAgent := cfg.UserAgent
	if userAgent == "" {
		userAgent = buildinfo.UserAgent()
	}

	hc := &http.Client{Timeout: timeout}
	if cfg.TLS != nil {
		transport := http.DefaultTransport.(*http.Transport).Clone()
		transport.TLSClientConfig = cfg.TLS
		hc.Transport = transport
	}

	c := &Client{
		baseURL:   strings.TrimRight(baseURL, "/"),
		prefix:    "/api/" + version,
		userAgent: userAgent,
		http:      hc,
		store:     store,
		logger:    logger.Default(),
	}
	if cfg.RateLimit > 0 {
		burst := cfg.Burst
		if burst <= 0 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(cfg.RateLimit), burst)
	}

	for _, opt := range opts {
		opt(c)
	}

	c.entry = Chain(c.send,
		withRequestID,
		normalize,
		c.observe,
		c.throttle,
		c.refreshOnUnauthorized,
		c.attachToken,
	)
	return c
}

// BaseURL returns the server address.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// URL returns the absolute URL of an API path.
func (c *Client) URL(path string, query url.Values) string {
	u := c.baseURL + c.prefix + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	return u
}

// Do runs req through the pipeline.
func (c *Client) Do(ctx context.Context, req *Request) (*Envelope, error) {
	if req.Header == nil {
		req.Header = make(http.Header)
	}
	return c.entry(ctx, req)
}

// Get performs a GET request.
func (c *Client) Get(ctx context.Context, path string, query url.Values) (*Envelope, error) {
	return c.Do(ctx, &Request{Method: http.MethodGet, Path: path, Query: query})
}

// Post performs a POST request with JSON body.
func (c *Client) Post(ctx context.Context, path string, body any) (*Envelope, error) {
	return c.Do(ctx, &Request{Method: http.MethodPost, Path: path, Body: body})
}

// Put performs a PUT request with JSON body.
func (c *Client) Put(ctx context.Context, path string, body any) (*Envelope, error) {
	return c.Do(ctx, &Request{Method: http.MethodPut, Path: path, Body: body})
}

// Patch performs a PATCH request with JSON body.
func (c *Client) Patch(ctx context.Context, path string, body any) (*Envelope, error) {
	return c.Do(ctx, &Request{Method: http.MethodPatch, Path: path, Body: body})
}

// Delete performs a DELETE request.
func (c *Client) Delete(ctx context.Context, path string) (*Envelope, error) {
	return c.Do(ctx, &Request{Method: http.MethodDelete, Path: path})
}

// Upload performs a multipart POST request.
func (c *Client) Upload(ctx context.Context, path string, form *Form) (*Envelope, error) {
	return c.Do(ctx, &Request{Method: http.MethodPost, Path: path, Form: form})
}

// send is the transport: one HTTP exchange, no retries.
func (c *Client) send(ctx context.Context, req *Request) (*Envelope, error) {
	body, contentType, err := req.body()
	if err != nil {
		return nil, err
	}

	var bodyReader io.Reader
	if body != nil {
		bodyReader = bytes.NewReader(body)
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.Method, c.URL(req.Path, req.Query), bodyReader)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	for k, vs := range req.Header {
		httpReq.Header[k] = vs
	}
	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set("User-Agent", c.userAgent)
	if contentType != "" {
		httpReq.Header.Set("Content-Type", contentType)
	}

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	req.statusCode = resp.StatusCode

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &StatusError{StatusCode: resp.StatusCode, Body: data}
	}

	env := &Envelope{Success: true}
	if len(bytes.TrimSpace(data)) == 0 {
		return env, nil
	}
	if err := json.Unmarshal(data, env); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return env, nil
}
