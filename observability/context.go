package observability

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// StatusOK is the status recorded for calls that returned a payload.
const StatusOK = "ok"

// CallContext tracks one client call across its span and metrics.
type CallContext struct {
	Service   string
	Module    string
	Function  string
	Region    string
	Method    string
	RequestID string
	StartTime time.Time
	Metrics   *Metrics
}

// NewCallContext creates a call context. If metrics is nil, metric recording
// is skipped.
func NewCallContext(service, module, function, region, method string, metrics *Metrics) *CallContext {
	return &CallContext{
		Service:   service,
		Module:    module,
		Function:  function,
		Region:    region,
		Method:    method,
		StartTime: time.Now(),
		Metrics:   metrics,
	}
}

type callContextKey struct{}

// WithCallContext stores a CallContext in the context.
func WithCallContext(ctx context.Context, cc *CallContext) context.Context {
	return context.WithValue(ctx, callContextKey{}, cc)
}

// CallContextFromContext retrieves the CallContext from context, or nil.
func CallContextFromContext(ctx context.Context) *CallContext {
	if cc, ok := ctx.Value(callContextKey{}).(*CallContext); ok {
		return cc
	}
	return nil
}

// Start opens the call span and records the call start. The returned context
// carries both the span and the CallContext.
func (cc *CallContext) Start(ctx context.Context) (context.Context, trace.Span) {
	ctx, span := StartSpan(ctx, SpanName(cc.Service, cc.Function),
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String(AttrService, cc.Service),
			attribute.String(AttrModule, cc.Module),
			attribute.String(AttrFunction, cc.Function),
			attribute.String(AttrRegion, cc.Region),
			attribute.String(AttrHTTPMethod, cc.Method),
		),
	)
	if cc.RequestID != "" {
		span.SetAttributes(attribute.String(AttrRequestID, cc.RequestID))
	}
	if cc.Metrics != nil {
		cc.Metrics.RecordCallStart(ctx)
	}
	return WithCallContext(ctx, cc), span
}

// End closes the span and records the call. status is StatusOK or the kind of
// the error that ended the call.
func (cc *CallContext) End(ctx context.Context, span trace.Span, status string, err error) {
	duration := cc.Duration()

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.SetAttributes(
		attribute.String(AttrStatus, status),
		attribute.Int64(AttrDurationMs, duration.Milliseconds()),
	)
	span.End()

	if cc.Metrics != nil {
		cc.Metrics.RecordCall(ctx, cc.Service, cc.Function, status, duration)
		if err != nil {
			cc.Metrics.RecordError(ctx, status, cc.Service)
		}
	}
}

// Duration returns the elapsed time since the call started.
func (cc *CallContext) Duration() time.Duration {
	return time.Since(cc.StartTime)
}
