package transport

import (
	"time"

	"github.com/kbukum/gs2kit/errors"
	"github.com/kbukum/gs2kit/resilience"
	"github.com/kbukum/gs2kit/security"
)

const (
	// DefaultTimeout bounds each attempt when neither the request nor the
	// config sets a timeout.
	DefaultTimeout = 60 * time.Second
	// DefaultMaxAttempts is the number of tries per request.
	DefaultMaxAttempts = 3
)

// Config configures a Transport.
type Config struct {
	// Timeout bounds each attempt. Defaults to 60s.
	Timeout time.Duration `yaml:"timeout" mapstructure:"timeout"`

	// MaxAttempts is the total number of tries on transport failure.
	// Defaults to 3.
	MaxAttempts int `yaml:"max_attempts" mapstructure:"max_attempts"`

	// RetryBackoff is the delay before the first retry, doubling after.
	// Zero retries immediately.
	RetryBackoff time.Duration `yaml:"retry_backoff" mapstructure:"retry_backoff"`

	// TLS configures HTTPS connections.
	TLS *security.TLSConfig `yaml:"tls" mapstructure:"tls"`

	// CircuitBreaker enables a breaker per destination. Nil disables it.
	CircuitBreaker *resilience.CircuitBreakerConfig `yaml:"-" mapstructure:"-"`
}

// ApplyDefaults fills in zero-value fields.
func (c *Config) ApplyDefaults() {
	if c.Timeout <= 0 {
		c.Timeout = DefaultTimeout
	}
	if c.MaxAttempts <= 0 {
		c.MaxAttempts = DefaultMaxAttempts
	}
}

// Validate checks that the configuration is usable.
func (c *Config) Validate() error {
	if c.Timeout <= 0 {
		return errors.InvalidConfig("timeout", "timeout must be positive")
	}
	if c.MaxAttempts <= 0 {
		return errors.InvalidConfig("max_attempts", "max_attempts must be positive")
	}
	if c.RetryBackoff < 0 {
		return errors.InvalidConfig("retry_backoff", "retry_backoff must not be negative")
	}
	return c.TLS.Validate()
}
