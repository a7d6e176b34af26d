package encryption

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"io"
	"strings"

	"golang.org/x/crypto/chacha20poly1305"

	"github.com/kbukum/gs2kit/errors"
)

// SealedPrefix marks a configuration value as sealed.
const SealedPrefix = "sealed:"

// Sealer seals and opens short secrets.
type Sealer interface {
	Seal(plaintext string) (string, error)
	Open(sealed string) (string, error)
}

// Algorithm represents supported encryption algorithms.
type Algorithm string

const (
	// AlgorithmAESGCM is AES-256-GCM.
	AlgorithmAESGCM Algorithm = "aes-256-gcm"
	// AlgorithmChaCha20 is ChaCha20-Poly1305.
	AlgorithmChaCha20 Algorithm = "chacha20-poly1305"
)

// Option configures a Sealer.
type Option func(*options)

type options struct {
	algorithm Algorithm
}

// WithAlgorithm selects the cipher (default: AES-256-GCM).
func WithAlgorithm(alg Algorithm) Option {
	return func(o *options) { o.algorithm = alg }
}

// aeadSealer implements Sealer over any AEAD cipher.
type aeadSealer struct {
	aead cipher.AEAD
}

// New creates a Sealer for the passphrase key.
func New(key string, opts ...Option) (Sealer, error) {
	o := &options{algorithm: AlgorithmAESGCM}
	for _, opt := range opts {
		opt(o)
	}
	if key == "" {
		return nil, errors.InvalidConfig("seal_key", "seal key is empty")
	}

	sum := sha256.Sum256([]byte(key))
	var (
		aead cipher.AEAD
		err  error
	)
	switch o.algorithm {
	case AlgorithmChaCha20:
		aead, err = chacha20poly1305.New(sum[:])
	case AlgorithmAESGCM:
		var block cipher.Block
		block, err = aes.NewCipher(sum[:])
		if err == nil {
			aead, err = cipher.NewGCM(block)
		}
	default:
		return nil, errors.InvalidConfig("algorithm", fmt.Sprintf("unsupported algorithm %q", o.algorithm))
	}
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", o.algorithm, err)
	}
	return &aeadSealer{aead: aead}, nil
}

// Seal encrypts plaintext and returns the base64 of nonce followed by
// ciphertext, without the sealed prefix.
func (s *aeadSealer) Seal(plaintext string) (string, error) {
	nonce := make([]byte, s.aead.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", fmt.Errorf("generate nonce: %w", err)
	}
	out := s.aead.Seal(nonce, nonce, []byte(plaintext), nil)
	return base64.StdEncoding.EncodeToString(out), nil
}

// Open reverses Seal.
func (s *aeadSealer) Open(sealed string) (string, error) {
	data, err := base64.StdEncoding.DecodeString(sealed)
	if err != nil {
		return "", fmt.Errorf("decode base64: %w", err)
	}

	nonceSize := s.aead.NonceSize()
	if len(data) < nonceSize {
		return "", fmt.Errorf("ciphertext too short")
	}

	plaintext, err := s.aead.Open(nil, data[:nonceSize], data[nonceSize:], nil)
	if err != nil {
		return "", fmt.Errorf("decrypt: %w", err)
	}
	return string(plaintext), nil
}

// IsSealed reports whether value carries the sealed prefix.
func IsSealed(value string) bool {
	return strings.HasPrefix(value, SealedPrefix)
}

// SealSecret seals plaintext with key and adds the sealed prefix.
func SealSecret(plaintext, key string, opts ...Option) (string, error) {
	s, err := New(key, opts...)
	if err != nil {
		return "", err
	}
	body, err := s.Seal(plaintext)
	if err != nil {
		return "", err
	}
	return SealedPrefix + body, nil
}

// OpenSecret returns value unchanged unless it is sealed, in which case it
// is opened with key. Sealed values that cannot be opened are reported as
// INVALID_CONFIG.
func OpenSecret(value, key string, opts ...Option) (string, error) {
	if !IsSealed(value) {
		return value, nil
	}
	if key == "" {
		return "", errors.InvalidConfig("seal_key", "value is sealed but no seal key is configured")
	}
	s, err := New(key, opts...)
	if err != nil {
		return "", err
	}
	plain, err := s.Open(strings.TrimPrefix(value, SealedPrefix))
	if err != nil {
		return "", errors.InvalidConfig("", "sealed value could not be opened").WithCause(err)
	}
	return plain, nil
}
