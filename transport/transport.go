package transport

import (
	"bytes"
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sync/atomic"
	"time"

	"github.com/kbukum/gs2kit/errors"
	"github.com/kbukum/gs2kit/logger"
	"github.com/kbukum/gs2kit/resilience"
)

// Transport sends requests over a per-destination connection pool.
// It is safe for concurrent use.
type Transport struct {
	config   Config
	pool     *pool
	breakers *resilience.Breakers
	observer Observer
	log      *logger.Logger
	closed   atomic.Bool
}

// Option configures a Transport beyond its Config.
type Option func(*options)

type options struct {
	factory  ConnFactory
	observer Observer
	log      *logger.Logger
}

// WithConnFactory replaces the function that opens pooled connections.
func WithConnFactory(f ConnFactory) Option {
	return func(o *options) { o.factory = f }
}

// WithObserver registers an observer for pool and exchange events.
func WithObserver(obs Observer) Option {
	return func(o *options) {
		if o.observer == nil {
			o.observer = obs
			return
		}
		o.observer = Observers{o.observer, obs}
	}
}

// WithLogger sets the logger. Defaults to logger.Get("gs2.transport").
func WithLogger(l *logger.Logger) Option {
	return func(o *options) { o.log = l }
}

// New creates a Transport.
func New(cfg Config, opts ...Option) (*Transport, error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	o := &options{factory: NewHTTPConn}
	for _, opt := range opts {
		opt(o)
	}
	if o.observer == nil {
		o.observer = NopObserver{}
	}
	if o.log == nil {
		o.log = logger.Get("gs2.transport")
	}

	tlsCfg, err := cfg.TLS.Build()
	if err != nil {
		return nil, err
	}

	t := &Transport{
		config:   cfg,
		pool:     newPool(o.factory, tlsCfg, o.observer),
		observer: o.observer,
		log:      o.log,
	}
	if cfg.CircuitBreaker != nil {
		template := *cfg.CircuitBreaker
		if template.IsFailure == nil {
			template.IsFailure = IsTransportError
		}
		t.breakers = resilience.NewBreakers(template)
	}
	return t, nil
}

// Get sends a GET request. Body and JSON are ignored.
func (t *Transport) Get(ctx context.Context, req Request) (*Response, error) {
	return t.Do(ctx, http.MethodGet, req)
}

// Post sends a POST request.
func (t *Transport) Post(ctx context.Context, req Request) (*Response, error) {
	return t.Do(ctx, http.MethodPost, req)
}

// Put sends a PUT request.
func (t *Transport) Put(ctx context.Context, req Request) (*Response, error) {
	return t.Do(ctx, http.MethodPut, req)
}

// Delete sends a DELETE request. Body and JSON are ignored.
func (t *Transport) Delete(ctx context.Context, req Request) (*Response, error) {
	return t.Do(ctx, http.MethodDelete, req)
}

// Do sends a request with the given method, retrying transport failures.
// Malformed requests fail with an INVALID_INPUT AppError without being sent.
// Transport failures are returned as *Error once every attempt has failed.
func (t *Transport) Do(ctx context.Context, method string, req Request) (*Response, error) {
	if t.closed.Load() {
		return nil, errors.InvalidInput("", "transport is closed")
	}

	rawURL := NormalizeURL(req.URL)
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, errors.InvalidInput("url", "malformed url").WithCause(err)
	}
	dest, err := destinationOf(u)
	if err != nil {
		return nil, err
	}
	fullURL := withQuery(rawURL, req.Query)

	body, contentType, err := encodeBody(method, req)
	if err != nil {
		return nil, errors.InvalidInput("json", "body could not be encoded").WithCause(err)
	}

	timeout := req.Timeout
	if timeout <= 0 {
		timeout = t.config.Timeout
	}

	ex := &exchange{
		t:           t,
		method:      method,
		url:         fullURL,
		host:        hostHeader(u, dest),
		dest:        dest,
		headers:     req.Headers,
		body:        body,
		contentType: contentType,
		timeout:     timeout,
	}

	log := t.log.WithContext(ctx)
	resp, err := resilience.Retry(ctx, resilience.RetryConfig{
		MaxAttempts:    t.config.MaxAttempts,
		InitialBackoff: t.config.RetryBackoff,
		BackoffFactor:  2.0,
		RetryIf: func(err error) bool {
			return ctx.Err() == nil && IsTransportError(err) && !IsCircuitOpen(err)
		},
		OnRetry: func(attempt int, err error, backoff time.Duration) {
			log.Debug("retrying request", logger.Fields(
				logger.FieldMethod, method,
				logger.FieldDestination, dest.String(),
				logger.FieldAttempt, attempt,
				logger.FieldError, err.Error(),
				"backoff_ms", backoff.Milliseconds(),
			))
		},
	}, func() (*Response, error) {
		return ex.attempt(ctx)
	})
	if err != nil {
		var te *Error
		if !stderrors.As(err, &te) {
			if errors.IsAppError(err) {
				return nil, err
			}
			te = &Error{Err: err}
		}
		te.Method, te.URL, te.Destination, te.Attempts = method, fullURL, dest, ex.attempts
		return nil, te
	}
	return resp, nil
}

// Close closes every pooled connection. Requests made after Close fail.
func (t *Transport) Close() {
	t.closed.Store(true)
	t.pool.closeAll()
}

// Len returns the number of pooled connections.
func (t *Transport) Len() int {
	return t.pool.len()
}

// OpenCircuits returns the destinations whose circuit breaker is open. It is
// always empty when no breaker is configured.
func (t *Transport) OpenCircuits() []string {
	if t.breakers == nil {
		return nil
	}
	return t.breakers.Open()
}

// Has reports whether a connection to dest is pooled.
func (t *Transport) Has(dest Destination) bool {
	return t.pool.has(dest)
}

// exchange is one logical request and its attempts.
type exchange struct {
	t           *Transport
	method      string
	url         string
	host        string
	dest        Destination
	headers     map[string]string
	body        []byte
	contentType string
	timeout     time.Duration
	attempts    int
}

func (ex *exchange) attempt(ctx context.Context) (*Response, error) {
	ex.attempts++
	n := ex.attempts
	if ex.t.breakers == nil {
		return ex.send(ctx, n)
	}

	var resp *Response
	err := ex.t.breakers.Get(ex.dest.String()).Execute(func() error {
		var sendErr error
		resp, sendErr = ex.send(ctx, n)
		return sendErr
	})
	if err != nil {
		if IsCircuitOpen(err) {
			ex.t.observer.Attempt(ex.dest, n, err)
			return nil, &Error{Err: err}
		}
		return nil, err
	}
	return resp, nil
}

func (ex *exchange) send(ctx context.Context, n int) (*Response, error) {
	conn, err := ex.t.pool.acquire(ex.dest)
	if err != nil {
		ex.t.observer.Attempt(ex.dest, n, err)
		return nil, &Error{Err: fmt.Errorf("open connection: %w", err)}
	}

	attemptCtx, cancel := context.WithTimeout(ctx, ex.timeout)
	defer cancel()

	httpReq, err := ex.build(attemptCtx)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	resp, err := conn.Do(httpReq)
	if err != nil {
		return nil, ex.fail(conn, n, err)
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, ex.fail(conn, n, fmt.Errorf("read response body: %w", err))
	}

	elapsed := time.Since(start)
	ex.t.observer.Attempt(ex.dest, n, nil)
	ex.t.observer.Response(ex.dest, resp.StatusCode, elapsed)
	return &Response{
		StatusCode: resp.StatusCode,
		Headers:    flattenHeaders(resp.Header),
		Body:       data,
	}, nil
}

// fail evicts the connection that produced err.
func (ex *exchange) fail(conn Conn, n int, err error) error {
	ex.t.observer.Attempt(ex.dest, n, err)
	if ex.t.pool.evict(ex.dest, conn, err) {
		ex.t.log.Warn("evicted connection", logger.Fields(
			logger.FieldDestination, ex.dest.String(),
			logger.FieldAttempt, n,
			logger.FieldError, err.Error(),
		))
	}
	return &Error{Err: err}
}

func (ex *exchange) build(ctx context.Context) (*http.Request, error) {
	var body io.Reader
	if ex.body != nil {
		body = bytes.NewReader(ex.body)
	}
	httpReq, err := http.NewRequestWithContext(ctx, ex.method, ex.url, body)
	if err != nil {
		return nil, errors.InvalidInput("url", "request could not be built").WithCause(err)
	}

	for k, v := range ex.headers {
		httpReq.Header.Set(k, v)
	}
	if ex.contentType != "" && httpReq.Header.Get("Content-Type") == "" {
		httpReq.Header.Set("Content-Type", ex.contentType)
	}
	httpReq.Host = ex.host
	httpReq.Header.Set("Connection", "keep-alive")
	return httpReq, nil
}

// encodeBody picks the request body: JSON first, then raw Body. GET and
// DELETE never carry one.
func encodeBody(method string, req Request) ([]byte, string, error) {
	if method != http.MethodPost && method != http.MethodPut {
		return nil, "", nil
	}
	if req.JSON != nil {
		data, err := json.Marshal(req.JSON)
		if err != nil {
			return nil, "", err
		}
		return data, "application/json", nil
	}
	if req.Body != nil {
		return req.Body, "", nil
	}
	return []byte{}, "", nil
}
