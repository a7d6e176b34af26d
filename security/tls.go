package security

import (
	"crypto/tls"
	"crypto/x509"
	"os"

	"github.com/kbukum/gs2kit/errors"
)

var tlsVersions = map[string]uint16{
	"1.2": tls.VersionTLS12,
	"1.3": tls.VersionTLS13,
}

// TLSConfig holds client-side TLS settings for HTTPS destinations. It is
// loaded from configuration, so every field is a plain string or bool:
//
//	tls:
//	  ca_file: /etc/gs2/ca.pem
//	  min_version: "1.3"
type TLSConfig struct {
	// SkipVerify disables server certificate verification. Only meant for
	// local fakes.
	SkipVerify bool `yaml:"skip_verify" mapstructure:"skip_verify"`

	// CAFile is a PEM bundle of trusted roots.
	CAFile string `yaml:"ca_file" mapstructure:"ca_file"`

	// CAPEM is an inline PEM bundle, for roots passed through the
	// environment. It is combined with CAFile.
	CAPEM string `yaml:"ca_pem" mapstructure:"ca_pem"`

	// SystemRoots keeps the system roots trusted alongside CAFile and CAPEM.
	// Without it the configured roots replace them.
	SystemRoots bool `yaml:"system_roots" mapstructure:"system_roots"`

	// CertFile and KeyFile hold a client certificate for mutual TLS.
	CertFile string `yaml:"cert_file" mapstructure:"cert_file"`
	KeyFile  string `yaml:"key_file" mapstructure:"key_file"`

	// ServerName overrides the name checked against the server certificate.
	ServerName string `yaml:"server_name" mapstructure:"server_name"`

	// MinVersion is "1.2" or "1.3". Defaults to "1.2".
	MinVersion string `yaml:"min_version" mapstructure:"min_version"`
}

// Build returns the *tls.Config for HTTPS connections, or nil when nothing
// is configured so Go's defaults apply.
func (c *TLSConfig) Build() (*tls.Config, error) {
	if !c.IsEnabled() {
		return nil, nil
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}

	cfg := &tls.Config{
		InsecureSkipVerify: c.SkipVerify, //nolint:gosec // opt-in for local fakes
		ServerName:         c.ServerName,
		MinVersion:         c.minVersion(),
	}

	roots, err := c.roots()
	if err != nil {
		return nil, err
	}
	cfg.RootCAs = roots

	if c.CertFile != "" {
		cert, err := tls.LoadX509KeyPair(c.CertFile, c.KeyFile)
		if err != nil {
			return nil, errors.InvalidConfig("tls.cert_file", "failed to load client certificate").WithCause(err)
		}
		cfg.Certificates = []tls.Certificate{cert}
	}
	return cfg, nil
}

// Validate checks that the settings are consistent. A nil config is valid.
func (c *TLSConfig) Validate() error {
	if c == nil {
		return nil
	}
	if (c.CertFile == "") != (c.KeyFile == "") {
		return errors.InvalidConfig("tls", "cert_file and key_file must be provided together")
	}
	if _, ok := tlsVersions[c.MinVersion]; c.MinVersion != "" && !ok {
		return errors.InvalidConfig("tls.min_version", "min_version must be 1.2 or 1.3")
	}
	return nil
}

// IsEnabled reports whether any setting is configured.
func (c *TLSConfig) IsEnabled() bool {
	return c != nil && *c != TLSConfig{}
}

func (c *TLSConfig) minVersion() uint16 {
	if v, ok := tlsVersions[c.MinVersion]; ok {
		return v
	}
	return tls.VersionTLS12
}

// roots returns nil when no roots are configured.
func (c *TLSConfig) roots() (*x509.CertPool, error) {
	if c.CAFile == "" && c.CAPEM == "" {
		return nil, nil
	}

	pool := x509.NewCertPool()
	if c.SystemRoots {
		sys, err := x509.SystemCertPool()
		if err != nil {
			return nil, errors.InvalidConfig("tls.system_roots", "system roots are unavailable").WithCause(err)
		}
		pool = sys
	}

	if c.CAFile != "" {
		pem, err := os.ReadFile(c.CAFile)
		if err != nil {
			return nil, errors.InvalidConfig("tls.ca_file", "failed to read CA file").WithCause(err)
		}
		if !pool.AppendCertsFromPEM(pem) {
			return nil, errors.InvalidConfig("tls.ca_file", "no certificate could be parsed")
		}
	}
	if c.CAPEM != "" && !pool.AppendCertsFromPEM([]byte(c.CAPEM)) {
		return nil, errors.InvalidConfig("tls.ca_pem", "no certificate could be parsed")
	}
	return pool, nil
}
