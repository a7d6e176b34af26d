package resilience

import (
	"context"
	"errors"
	"math"
	"math/rand/v2"
	"time"
)

// DefaultMaxAttempts is used when RetryConfig.MaxAttempts is not positive.
const DefaultMaxAttempts = 3

// RetryConfig configures Retry.
type RetryConfig struct {
	// MaxAttempts counts the first try. Values below 1 mean DefaultMaxAttempts.
	MaxAttempts int
	// InitialBackoff is the delay before the first retry. Zero retries
	// immediately.
	InitialBackoff time.Duration
	// MaxBackoff caps the delay. Zero means no cap.
	MaxBackoff time.Duration
	// BackoffFactor multiplies the delay after each retry. Values below 1
	// mean 2.
	BackoffFactor float64
	// Jitter spreads each delay by up to this fraction (0.0 to 1.0).
	Jitter float64
	// RetryIf decides whether an error is worth another attempt. Defaults to
	// DefaultRetryIf.
	RetryIf func(error) bool
	// OnRetry runs before each retry with the attempt that just failed.
	OnRetry func(attempt int, err error, backoff time.Duration)
}

// DefaultRetryConfig returns the transport defaults: three attempts without
// delay.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{MaxAttempts: DefaultMaxAttempts}.withDefaults()
}

// DefaultRetryIf retries everything except context cancellation and expiry.
func DefaultRetryIf(err error) bool {
	return !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded)
}

func (c RetryConfig) withDefaults() RetryConfig {
	if c.MaxAttempts <= 0 {
		c.MaxAttempts = DefaultMaxAttempts
	}
	if c.BackoffFactor < 1 {
		c.BackoffFactor = 2
	}
	if c.RetryIf == nil {
		c.RetryIf = DefaultRetryIf
	}
	return c
}

// Backoff returns the delay after the given failed attempt (1-based):
// InitialBackoff * BackoffFactor^(attempt-1), jittered and capped.
func (c RetryConfig) Backoff(attempt int) time.Duration {
	if c.InitialBackoff <= 0 {
		return 0
	}
	factor := c.BackoffFactor
	if factor < 1 {
		factor = 2
	}

	d := float64(c.InitialBackoff) * math.Pow(factor, float64(attempt-1))
	if c.Jitter > 0 {
		d += (rand.Float64()*2 - 1) * d * c.Jitter
	}
	if c.MaxBackoff > 0 && d > float64(c.MaxBackoff) {
		d = float64(c.MaxBackoff)
	}
	if d < 0 {
		d = float64(c.InitialBackoff)
	}
	return time.Duration(d)
}

// Retry calls fn until it succeeds, RetryIf rejects its error, the attempts
// run out or ctx is done. It returns the last error fn produced, or the
// context error when ctx ended the loop.
func Retry[T any](ctx context.Context, cfg RetryConfig, fn func() (T, error)) (T, error) {
	cfg = cfg.withDefaults()

	var zero T
	for attempt := 1; ; attempt++ {
		if err := ctx.Err(); err != nil {
			return zero, err
		}

		result, err := fn()
		if err == nil {
			return result, nil
		}
		if attempt >= cfg.MaxAttempts || !cfg.RetryIf(err) {
			return zero, err
		}

		backoff := cfg.Backoff(attempt)
		if cfg.OnRetry != nil {
			cfg.OnRetry(attempt, err, backoff)
		}
		if err := sleep(ctx, backoff); err != nil {
			return zero, err
		}
	}
}

// RetryFunc is Retry for functions without a result.
func RetryFunc(ctx context.Context, cfg RetryConfig, fn func() error) error {
	_, err := Retry(ctx, cfg, func() (struct{}, error) {
		return struct{}{}, fn()
	})
	return err
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
