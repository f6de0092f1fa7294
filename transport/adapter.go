package transport

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"golang.org/x/net/http2"

	"github.com/kbukum/resourcekit/resilience"
	"github.com/kbukum/resourcekit/version"
)

// Doer sends one request and returns the raw response.
type Doer interface {
	Do(ctx context.Context, req Request) (*Response, error)
}

// DoerFunc adapts a function to Doer.
type DoerFunc func(ctx context.Context, req Request) (*Response, error)

// Do calls f.
func (f DoerFunc) Do(ctx context.Context, req Request) (*Response, error) {
	return f(ctx, req)
}

// Option configures an Adapter.
type Option func(*Adapter)

// WithHTTPClient replaces the underlying *http.Client. Timeout and TLS
// settings from Config are not applied to it.
func WithHTTPClient(c *http.Client) Option {
	return func(a *Adapter) { a.httpClient = c }
}

// WithMiddleware wraps every request. The first middleware is outermost.
func WithMiddleware(mw ...Middleware) Option {
	return func(a *Adapter) { a.middleware = append(a.middleware, mw...) }
}

// Adapter is the HTTP transport used by the resource client.
type Adapter struct {
	httpClient *http.Client
	config     Config
	base       *url.URL
	breaker    *resilience.Breaker
	limiter    *resilience.Limiter
	middleware []Middleware
	handler    Doer
}

// New creates an adapter from cfg.
func New(cfg Config, opts ...Option) (*Adapter, error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = version.UserAgent("resourcekit")
	}

	a := &Adapter{config: cfg, base: cfg.baseURL()}
	for _, opt := range opts {
		opt(a)
	}

	if a.httpClient == nil {
		client, err := newHTTPClient(cfg)
		if err != nil {
			return nil, err
		}
		a.httpClient = client
	}
	if cfg.CircuitBreaker.Enabled {
		a.breaker = resilience.NewBreaker(cfg.CircuitBreaker)
	}
	if cfg.RateLimiter.Enabled {
		a.limiter = resilience.NewLimiter(cfg.RateLimiter)
	}

	a.handler = Chain(a.middleware...)(DoerFunc(a.send))
	return a, nil
}

func newHTTPClient(cfg Config) (*http.Client, error) {
	tr := http.DefaultTransport.(*http.Transport).Clone()

	tlsCfg, err := cfg.TLS.Build()
	if err != nil {
		return nil, err
	}
	if tlsCfg != nil {
		tr.TLSClientConfig = tlsCfg
	}
	if cfg.HTTP2 {
		if err := http2.ConfigureTransport(tr); err != nil {
			return nil, fmt.Errorf("transport: enable http2: %w", err)
		}
	}
	return &http.Client{Transport: tr, Timeout: cfg.Timeout}, nil
}

// Do sends req through the middleware chain, the retry policy, the rate
// limiter and the circuit breaker. A non-nil error is always *Error or a
// context error from the limiter.
func (a *Adapter) Do(ctx context.Context, req Request) (*Response, error) {
	return a.handler.Do(ctx, req)
}

// Resolve turns a relative reference into an absolute URL using BaseURL.
func (a *Adapter) Resolve(ref string) (string, error) {
	u, err := url.Parse(ref)
	if err != nil {
		return "", err
	}
	if u.IsAbs() || a.base == nil {
		return u.String(), nil
	}
	return a.base.ResolveReference(u).String(), nil
}

// Available reports whether the breaker currently lets calls through.
func (a *Adapter) Available() bool {
	return a.breaker == nil || a.breaker.State() != resilience.StateOpen
}

// Close releases idle connections.
func (a *Adapter) Close() error {
	a.httpClient.CloseIdleConnections()
	return nil
}

// Config returns the adapter's configuration.
func (a *Adapter) Config() Config {
	return a.config
}

func (a *Adapter) send(ctx context.Context, req Request) (*Response, error) {
	if a.config.Retry == nil || !req.Idempotent() {
		return a.attempt(ctx, req)
	}
	return resilience.Retry(ctx, *a.config.Retry, func(int) (*Response, error) {
		return a.attempt(ctx, req)
	})
}

func (a *Adapter) attempt(ctx context.Context, req Request) (*Response, error) {
	if a.limiter != nil {
		if err := a.limiter.Wait(ctx); err != nil {
			return nil, classify(ctx, err)
		}
	}
	if a.breaker == nil {
		return a.execute(ctx, req)
	}
	resp, err := resilience.Run(a.breaker, func() (*Response, error) {
		return a.execute(ctx, req)
	})
	if errors.Is(err, resilience.ErrCircuitOpen) {
		return nil, &Error{Code: ErrCodeCircuitOpen, Method: req.Method, URL: req.URL, Err: err}
	}
	return resp, err
}

func (a *Adapter) execute(ctx context.Context, req Request) (*Response, error) {
	httpReq, err := a.buildRequest(ctx, req)
	if err != nil {
		return nil, err
	}

	resp, err := a.httpClient.Do(httpReq)
	if err != nil {
		e := classify(ctx, err)
		e.Method, e.URL = req.Method, httpReq.URL.String()
		return nil, e
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		e := NewConnectionError(fmt.Errorf("read response body: %w", err))
		e.Method, e.URL = req.Method, httpReq.URL.String()
		return nil, e
	}

	return &Response{
		StatusCode: resp.StatusCode,
		Headers:    flattenHeaders(resp.Header),
		Body:       body,
	}, nil
}

func (a *Adapter) buildRequest(ctx context.Context, req Request) (*http.Request, error) {
	target, err := a.Resolve(req.URL)
	if err != nil {
		return nil, NewInvalidRequestError(fmt.Errorf("parse url %q: %w", req.URL, err))
	}

	var body io.Reader
	if req.Body != nil {
		body = bytes.NewReader(req.Body)
	}
	httpReq, err := http.NewRequestWithContext(ctx, req.Method, target, body)
	if err != nil {
		return nil, NewInvalidRequestError(err)
	}

	httpReq.Header.Set("User-Agent", a.config.UserAgent)
	for k, v := range a.config.Headers {
		httpReq.Header.Set(k, v)
	}
	for k, v := range req.Headers {
		httpReq.Header.Set(k, v)
	}

	if err := a.config.Auth.apply(httpReq); err != nil {
		return nil, NewInvalidRequestError(err)
	}
	return httpReq, nil
}
