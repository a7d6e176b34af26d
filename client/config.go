package client

import (
	"time"

	"github.com/kbukum/gs2kit/config"
	"github.com/kbukum/gs2kit/credential"
	"github.com/kbukum/gs2kit/encryption"
	"github.com/kbukum/gs2kit/errors"
	"github.com/kbukum/gs2kit/security"
	"github.com/kbukum/gs2kit/transport"
	"github.com/kbukum/gs2kit/validation"
)

// Config configures a Client. Exactly one of ClientSecret and OnetimeToken
// must be set.
type Config struct {
	// Region is the GS2 region, e.g. "ap-northeast-1".
	Region string `yaml:"region" mapstructure:"region" validate:"required,region"`

	// ClientID identifies a shared-secret credential.
	ClientID string `yaml:"client_id" mapstructure:"client_id" validate:"required_with=ClientSecret"`

	// ClientSecret is the base64 shared secret. A "sealed:" value is opened
	// with SealKey.
	ClientSecret string `yaml:"client_secret" mapstructure:"client_secret" validate:"required_without=OnetimeToken,excluded_with=OnetimeToken"`

	// OnetimeToken is a one-time token credential.
	OnetimeToken string `yaml:"onetime_token" mapstructure:"onetime_token"`

	// SealKey opens a sealed ClientSecret.
	SealKey string `yaml:"seal_key" mapstructure:"seal_key"`

	// Timeout bounds each attempt. Defaults to 60s.
	Timeout time.Duration `yaml:"timeout" mapstructure:"timeout"`

	// MaxAttempts is the number of tries on transport failure. Defaults to 3.
	MaxAttempts int `yaml:"max_attempts" mapstructure:"max_attempts" validate:"min=0,max=10"`

	// RetryBackoff is the delay before the first retry. Zero retries at once.
	RetryBackoff time.Duration `yaml:"retry_backoff" mapstructure:"retry_backoff"`

	// TLS configures HTTPS connections.
	TLS *security.TLSConfig `yaml:"tls" mapstructure:"tls"`
}

// Validate checks the configuration and reports problems as INVALID_CONFIG.
func (c *Config) Validate() error {
	if err := validation.ValidateAs(errors.ErrCodeInvalidConfig, c); err != nil {
		return err
	}
	return c.transport().Validate()
}

// Credential builds the credential the configuration describes.
func (c *Config) Credential() (credential.Credential, error) {
	if c.OnetimeToken != "" {
		return credential.NewOnetime(c.OnetimeToken)
	}
	secret, err := encryption.OpenSecret(c.ClientSecret, c.SealKey)
	if err != nil {
		return nil, err
	}
	return credential.NewBasic(c.ClientID, secret)
}

func (c *Config) transport() *transport.Config {
	cfg := &transport.Config{
		Timeout:      c.Timeout,
		MaxAttempts:  c.MaxAttempts,
		RetryBackoff: c.RetryBackoff,
		TLS:          c.TLS,
	}
	cfg.ApplyDefaults()
	return cfg
}

// LoadConfig reads a Config from gs2.yml, .env files and GS2_* environment
// variables (GS2_REGION, GS2_CLIENT_ID, GS2_CLIENT_SECRET, ...) and
// validates it.
func LoadConfig(opts ...config.LoaderOption) (Config, error) {
	var cfg Config
	opts = append([]config.LoaderOption{config.WithEnvPrefix("GS2")}, opts...)
	if err := config.LoadConfig("gs2", &cfg, opts...); err != nil {
		return Config{}, errors.InvalidConfig("", "configuration could not be loaded").WithCause(err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}
