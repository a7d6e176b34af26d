package gs2test

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	gojwt "github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/kbukum/gs2kit/credential"
	"github.com/kbukum/gs2kit/response"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// Auth names how a recorded request authenticated.
type Auth string

const (
	AuthNone    Auth = "none"
	AuthBasic   Auth = "basic"
	AuthOnetime Auth = "onetime"
)

// Request is a request received by the fake, recorded before authentication.
type Request struct {
	Method   string
	Path     string
	RawQuery string
	Host     string
	Header   http.Header
	Body     []byte
	Module   string
	Function string
	Auth     Auth
}

// Server is a fake GS2 endpoint backed by httptest.Server.
type Server struct {
	engine *gin.Engine
	ts     *httptest.Server

	tokenKey []byte
	skew     time.Duration
	now      func() time.Time

	mu       sync.Mutex
	secrets  map[string][]byte
	used     map[string]bool
	requests []Request
}

// Option configures a Server.
type Option func(*Server)

// WithClient registers a client id and its base64 shared secret.
func WithClient(clientID, secretBase64 string) Option {
	return func(s *Server) {
		secret, err := base64.StdEncoding.DecodeString(secretBase64)
		if err != nil {
			panic(fmt.Sprintf("gs2test: secret for %q is not base64: %v", clientID, err))
		}
		s.secrets[clientID] = secret
	}
}

// WithSkew sets the accepted timestamp window. Zero disables the check.
// Defaults to five minutes.
func WithSkew(d time.Duration) Option {
	return func(s *Server) { s.skew = d }
}

// WithClock sets the clock used for timestamp and token expiry checks.
func WithClock(now func() time.Time) Option {
	return func(s *Server) { s.now = now }
}

// New starts a fake endpoint. It is closed when the test ends.
func New(t testing.TB, opts ...Option) *Server {
	t.Helper()
	s := &Server{
		engine:   gin.New(),
		tokenKey: []byte(uuid.NewString()),
		skew:     5 * time.Minute,
		now:      time.Now,
		secrets:  make(map[string][]byte),
		used:     make(map[string]bool),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.engine.Use(gin.Recovery())
	s.ts = httptest.NewServer(s.engine)
	t.Cleanup(s.Close)
	return s
}

// URL returns the base URL of the fake, e.g. "http://127.0.0.1:PORT".
func (s *Server) URL() string {
	return s.ts.URL
}

// Close shuts the fake down. It is safe to call more than once.
func (s *Server) Close() {
	s.ts.Close()
}

// Handle registers a handler for method and path. Requests to it must be
// authenticated for module and function.
func (s *Server) Handle(method, path, module, function string, handler gin.HandlerFunc) {
	s.engine.Handle(method, path, s.record(module, function), s.authenticate(module, function), handler)
}

// Requests returns a copy of every request received so far.
func (s *Server) Requests() []Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Request, len(s.requests))
	copy(out, s.requests)
	return out
}

// IssueOnetimeToken issues a single-use token for subject valid for ttl.
func (s *Server) IssueOnetimeToken(subject string, ttl time.Duration) (string, error) {
	now := s.now()
	claims := gojwt.RegisteredClaims{
		ID:        uuid.NewString(),
		Subject:   subject,
		Issuer:    "gs2test",
		IssuedAt:  gojwt.NewNumericDate(now),
		ExpiresAt: gojwt.NewNumericDate(now.Add(ttl)),
	}
	signed, err := gojwt.NewWithClaims(gojwt.SigningMethodHS256, claims).SignedString(s.tokenKey)
	if err != nil {
		return "", fmt.Errorf("gs2test: sign token: %w", err)
	}
	return signed, nil
}

func (s *Server) record(module, function string) gin.HandlerFunc {
	return func(c *gin.Context) {
		body, err := io.ReadAll(c.Request.Body)
		if err != nil {
			Fail(c, http.StatusBadRequest, "unreadable request body: "+err.Error())
			c.Abort()
			return
		}
		c.Request.Body = io.NopCloser(bytes.NewReader(body))

		auth := AuthNone
		switch {
		case c.GetHeader(credential.HeaderOnetimeToken) != "":
			auth = AuthOnetime
		case c.GetHeader(credential.HeaderSign) != "":
			auth = AuthBasic
		}

		s.mu.Lock()
		s.requests = append(s.requests, Request{
			Method:   c.Request.Method,
			Path:     c.Request.URL.Path,
			RawQuery: c.Request.URL.RawQuery,
			Host:     c.Request.Host,
			Header:   c.Request.Header.Clone(),
			Body:     body,
			Module:   module,
			Function: function,
			Auth:     auth,
		})
		s.mu.Unlock()
		c.Next()
	}
}

func (s *Server) authenticate(module, function string) gin.HandlerFunc {
	return func(c *gin.Context) {
		var err error
		if token := c.GetHeader(credential.HeaderOnetimeToken); token != "" {
			err = s.verifyOnetime(token)
		} else {
			err = s.verifyBasic(c, module, function)
		}
		if err != nil {
			Fail(c, http.StatusUnauthorized, err.Error())
			c.Abort()
			return
		}
		c.Next()
	}
}

func (s *Server) verifyBasic(c *gin.Context, module, function string) error {
	headers := map[string]string{
		credential.HeaderClientID:  c.GetHeader(credential.HeaderClientID),
		credential.HeaderTimestamp: c.GetHeader(credential.HeaderTimestamp),
		credential.HeaderSign:      c.GetHeader(credential.HeaderSign),
	}
	s.mu.Lock()
	secret, ok := s.secrets[headers[credential.HeaderClientID]]
	s.mu.Unlock()
	if !ok {
		if headers[credential.HeaderClientID] == "" {
			return credential.ErrMissingHeader
		}
		return fmt.Errorf("unknown client id %q", headers[credential.HeaderClientID])
	}
	return credential.Verify(headers, secret, module, function, s.now(), s.skew)
}

func (s *Server) verifyOnetime(token string) error {
	var claims gojwt.RegisteredClaims
	_, err := gojwt.ParseWithClaims(token, &claims, func(*gojwt.Token) (interface{}, error) {
		return s.tokenKey, nil
	}, gojwt.WithValidMethods([]string{gojwt.SigningMethodHS256.Alg()}), gojwt.WithTimeFunc(s.now))
	if err != nil {
		return fmt.Errorf("invalid one-time token: %w", err)
	}
	if claims.ID == "" {
		return fmt.Errorf("one-time token has no id")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.used[claims.ID] {
		return fmt.Errorf("one-time token already used")
	}
	s.used[claims.ID] = true
	return nil
}

// Fail writes the single-message error envelope.
func Fail(c *gin.Context, status int, message string) {
	c.JSON(status, gin.H{"message": message})
}

// FailWith writes the multi-error envelope: the message field holds the
// JSON-encoded list of request errors.
func FailWith(c *gin.Context, status int, errs ...response.RequestError) {
	encoded, err := json.Marshal(errs)
	if err != nil {
		c.AbortWithStatus(http.StatusInternalServerError)
		return
	}
	Fail(c, status, string(encoded))
}
