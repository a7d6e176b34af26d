// Package resilience provides the retry and circuit breaker primitives used
// by the gs2kit transport.
//
// Retry re-runs an operation while RetryIf accepts its error. A zero
// InitialBackoff retries immediately, which is how the transport replays a
// request after evicting a broken connection:
//
//	resp, err := resilience.Retry(ctx, resilience.RetryConfig{
//	    MaxAttempts: 3,
//	    RetryIf:     isTransportFailure,
//	}, send)
//
// Breakers hands out one CircuitBreaker per destination so an unreachable
// endpoint fails fast without affecting the others.
package resilience
