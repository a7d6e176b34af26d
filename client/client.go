package client

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"github.com/kbukum/gs2kit/component"
	"github.com/kbukum/gs2kit/credential"
	"github.com/kbukum/gs2kit/envelope"
	"github.com/kbukum/gs2kit/errors"
	"github.com/kbukum/gs2kit/logger"
	"github.com/kbukum/gs2kit/observability"
	"github.com/kbukum/gs2kit/response"
	"github.com/kbukum/gs2kit/transport"
	"github.com/kbukum/gs2kit/validation"
	"github.com/kbukum/gs2kit/version"
)

// DefaultName is the component name of a Client unless WithName is given.
const DefaultName = "gs2-client"

const headerUserAgent = "User-Agent"

// Client is the shared core of GS2 service clients. It is safe for
// concurrent use.
type Client struct {
	name          string
	region        string
	cred          credential.Credential
	transport     *transport.Transport
	ownsTransport bool
	metrics       *observability.Metrics
	log           *logger.Logger
	now           func() time.Time
	userAgent     string
	stopped       atomic.Bool
}

// Compile-time interface checks.
var (
	_ component.Component   = (*Client)(nil)
	_ component.Describable = (*Client)(nil)
)

// Option configures a Client.
type Option func(*options)

type options struct {
	name          string
	transport     *transport.Transport
	transportCfg  transport.Config
	transportOpts []transport.Option
	metrics       *observability.Metrics
	log           *logger.Logger
	now           func() time.Time
	userAgent     string
}

// WithTransport shares an existing transport. The client does not close it.
func WithTransport(t *transport.Transport) Option {
	return func(o *options) { o.transport = t }
}

// WithTransportConfig configures the transport the client creates.
func WithTransportConfig(cfg transport.Config) Option {
	return func(o *options) { o.transportCfg = cfg }
}

// WithTransportOptions passes options to the transport the client creates.
func WithTransportOptions(opts ...transport.Option) Option {
	return func(o *options) { o.transportOpts = append(o.transportOpts, opts...) }
}

// WithMetrics records call metrics.
func WithMetrics(m *observability.Metrics) Option {
	return func(o *options) { o.metrics = m }
}

// WithLogger sets the logger. Defaults to logger.Get("gs2.client").
func WithLogger(l *logger.Logger) Option {
	return func(o *options) { o.log = l }
}

// WithClock replaces the clock used to timestamp signatures.
func WithClock(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

// WithName sets the component name.
func WithName(name string) Option {
	return func(o *options) { o.name = name }
}

// WithUserAgent overrides the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(o *options) { o.userAgent = ua }
}

type regionField struct {
	Region string `mapstructure:"region" validate:"required,region"`
}

// New creates a client that signs every call with cred and targets region.
func New(cred credential.Credential, region string, opts ...Option) (*Client, error) {
	if cred == nil {
		return nil, errors.InvalidCredential("credential is required")
	}
	if err := validation.ValidateAs(errors.ErrCodeInvalidConfig, regionField{Region: region}); err != nil {
		return nil, err
	}

	o := &options{
		name:      DefaultName,
		now:       time.Now,
		userAgent: version.UserAgent(),
	}
	for _, opt := range opts {
		opt(o)
	}
	if o.log == nil {
		o.log = logger.Get("gs2.client")
	}

	c := &Client{
		name:      o.name,
		region:    region,
		cred:      cred,
		transport: o.transport,
		metrics:   o.metrics,
		log:       o.log,
		now:       o.now,
		userAgent: o.userAgent,
	}
	if c.transport == nil {
		t, err := transport.New(o.transportCfg, o.transportOpts...)
		if err != nil {
			return nil, err
		}
		c.transport = t
		c.ownsTransport = true
	}
	return c, nil
}

// NewFromConfig validates cfg and creates a client from it. Transport
// settings from cfg apply unless WithTransportConfig or WithTransport is
// also given.
func NewFromConfig(cfg Config, opts ...Option) (*Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	cred, err := cfg.Credential()
	if err != nil {
		return nil, err
	}
	opts = append([]Option{WithTransportConfig(*cfg.transport())}, opts...)
	return New(cred, cfg.Region, opts...)
}

// Region returns the region the client targets.
func (c *Client) Region() string { return c.region }

// Credential returns the credential the client signs with.
func (c *Client) Credential() credential.Credential { return c.cred }

// Call describes one API function invocation.
type Call struct {
	// URL may contain {service} and {region} placeholders.
	URL string
	// Service fills {service} and names the span.
	Service string
	// Module and Function are signed by a shared-secret credential.
	Module   string
	Function string
	// Query parameters for GET and DELETE.
	Query map[string]string
	// Body is JSON-encoded by POST and PUT. A []byte is sent as is.
	Body any
	// Headers are sent alongside the authentication headers. The map is
	// not modified.
	Headers map[string]string
}

// DoGet sends a GET call and returns the decoded payload.
func (c *Client) DoGet(ctx context.Context, call Call) (response.Payload, error) {
	return c.doPayload(ctx, http.MethodGet, call)
}

// DoPost sends a POST call with call.Body.
func (c *Client) DoPost(ctx context.Context, call Call) (response.Payload, error) {
	return c.doPayload(ctx, http.MethodPost, call)
}

// DoPut sends a PUT call with call.Body.
func (c *Client) DoPut(ctx context.Context, call Call) (response.Payload, error) {
	return c.doPayload(ctx, http.MethodPut, call)
}

// DoDelete sends a DELETE call.
func (c *Client) DoDelete(ctx context.Context, call Call) (response.Payload, error) {
	return c.doPayload(ctx, http.MethodDelete, call)
}

func (c *Client) doPayload(ctx context.Context, method string, call Call) (response.Payload, error) {
	var payload response.Payload
	err := c.do(ctx, method, call, func(resp *transport.Response) error {
		var err error
		payload, err = response.Parse(resp)
		return err
	})
	if err != nil {
		return nil, err
	}
	return payload, nil
}

func (c *Client) do(ctx context.Context, method string, call Call, decode func(*transport.Response) error) error {
	if c.stopped.Load() {
		return errors.InvalidInput("", "client is stopped")
	}
	if call.URL == "" {
		return errors.InvalidInput("url", "url is required")
	}

	req := transport.Request{
		URL:     c.resolveURL(call),
		Query:   call.Query,
		Headers: c.headers(call),
	}
	if method == http.MethodPost || method == http.MethodPut {
		if raw, ok := call.Body.([]byte); ok {
			req.Body = raw
		} else {
			req.JSON = call.Body
		}
	}

	cc := observability.NewCallContext(call.Service, call.Module, call.Function, c.region, method, c.metrics)
	cc.RequestID = req.Headers[envelope.KeyRequestID]
	ctx, span := cc.Start(ctx)

	err := c.exchange(ctx, method, req, decode)
	status := callStatus(err)
	cc.End(ctx, span, status, err)

	log := c.log.WithContext(ctx)
	fields := logger.Fields(
		logger.FieldService, call.Service,
		logger.FieldFunction, call.Function,
		logger.FieldMethod, method,
		logger.FieldRegion, c.region,
		logger.FieldStatus, status,
	)
	fields = logger.MergeWithDuration(fields, cc.Duration())
	if err != nil {
		log.WithError(err).Debug("gs2 call failed", fields)
		return err
	}
	log.Debug("gs2 call", fields)
	return nil
}

func (c *Client) exchange(ctx context.Context, method string, req transport.Request, decode func(*transport.Response) error) error {
	resp, err := c.transport.Do(ctx, method, req)
	if err != nil {
		return err
	}
	return decode(resp)
}

func (c *Client) resolveURL(call Call) string {
	return strings.NewReplacer("{service}", call.Service, "{region}", c.region).Replace(call.URL)
}

// headers copies the caller's headers and stamps them once. Every transport
// retry of the call reuses the result.
func (c *Client) headers(call Call) map[string]string {
	h := make(map[string]string, len(call.Headers)+4)
	hasUA := false
	for k, v := range call.Headers {
		h[k] = v
		if strings.EqualFold(k, headerUserAgent) {
			hasUA = true
		}
	}
	if !hasUA && c.userAgent != "" {
		h[headerUserAgent] = c.userAgent
	}
	c.cred.Authorize(call.Module, call.Function, h, c.now().Unix())
	return h
}

// callStatus names the outcome of a call for spans, metrics and logs.
func callStatus(err error) string {
	if err == nil {
		return observability.StatusOK
	}
	if kind, ok := response.KindOf(err); ok {
		return kind.String()
	}
	if transport.IsTimeout(err) {
		return "timeout"
	}
	if transport.IsCircuitOpen(err) {
		return "circuit_open"
	}
	if transport.IsTransportError(err) {
		return "transport_error"
	}
	if appErr, ok := errors.AsAppError(err); ok {
		return strings.ToLower(string(appErr.Code))
	}
	return "error"
}

// --- component.Component ---

// Name returns the component name.
func (c *Client) Name() string { return c.name }

// Start is a no-op; connections open on first use.
func (c *Client) Start(context.Context) error { return nil }

// Stop rejects further calls and closes the pool if the client created it.
func (c *Client) Stop(context.Context) error {
	if c.stopped.Swap(true) {
		return nil
	}
	if c.ownsTransport {
		c.transport.Close()
	}
	return nil
}

// Health reports whether the client accepts calls.
func (c *Client) Health(context.Context) component.Health {
	if c.stopped.Load() {
		return component.Health{Name: c.name, Status: component.StatusUnhealthy, Message: "stopped"}
	}
	msg := "pooled=" + strconv.Itoa(c.transport.Len())
	if open := c.transport.OpenCircuits(); len(open) > 0 {
		return component.Health{
			Name:    c.name,
			Status:  component.StatusDegraded,
			Message: msg + " open_circuits=" + strings.Join(open, ","),
		}
	}
	return component.Health{Name: c.name, Status: component.StatusHealthy, Message: msg}
}

// Describe reports the region and credential kind.
func (c *Client) Describe() component.Description {
	return component.Description{
		Name:    c.name,
		Type:    DefaultName,
		Details: "region=" + c.region + " credential=" + string(c.cred.Kind()),
	}
}
