package transport

import (
	"crypto/tls"
	"net"
	"net/http"
	"sync"
	"time"
)

// Conn is one pooled connection to a destination.
type Conn interface {
	// Do performs a single exchange.
	Do(req *http.Request) (*http.Response, error)
	// Close releases the underlying network connection.
	Close()
}

// ConnFactory opens a connection to dest. tlsConfig is nil for plain http
// destinations and when no TLS settings are configured.
type ConnFactory func(dest Destination, tlsConfig *tls.Config) (Conn, error)

// httpConn is an http.Client over a dedicated http.Transport limited to one
// connection.
type httpConn struct {
	client    *http.Client
	transport *http.Transport
}

// NewHTTPConn is the default ConnFactory. Redirects are not followed and
// proxy settings are not read from the environment.
func NewHTTPConn(dest Destination, tlsConfig *tls.Config) (Conn, error) {
	tr := &http.Transport{
		DialContext: (&net.Dialer{
			Timeout:   30 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		MaxConnsPerHost:       1,
		MaxIdleConns:          1,
		MaxIdleConnsPerHost:   1,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ExpectContinueTimeout: time.Second,
	}
	if dest.Scheme == "https" && tlsConfig != nil {
		tr.TLSClientConfig = tlsConfig.Clone()
	}
	return &httpConn{
		transport: tr,
		client: &http.Client{
			Transport: tr,
			CheckRedirect: func(*http.Request, []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
	}, nil
}

func (c *httpConn) Do(req *http.Request) (*http.Response, error) {
	return c.client.Do(req)
}

func (c *httpConn) Close() {
	c.transport.CloseIdleConnections()
}

// pool maps each destination to its single live connection.
type pool struct {
	factory   ConnFactory
	tlsConfig *tls.Config
	observer  Observer

	mu    sync.Mutex
	conns map[Destination]Conn
}

func newPool(factory ConnFactory, tlsConfig *tls.Config, observer Observer) *pool {
	return &pool{
		factory:   factory,
		tlsConfig: tlsConfig,
		observer:  observer,
		conns:     make(map[Destination]Conn),
	}
}

// acquire returns the pooled connection for dest, opening one if needed.
func (p *pool) acquire(dest Destination) (Conn, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if c, ok := p.conns[dest]; ok {
		return c, nil
	}
	c, err := p.factory(dest, p.tlsConfig)
	if err != nil {
		return nil, err
	}
	p.conns[dest] = c
	p.observer.Opened(dest)
	return c, nil
}

// evict closes and drops conn if it is still the pooled connection for dest.
// It reports whether an entry was removed.
func (p *pool) evict(dest Destination, conn Conn, cause error) bool {
	p.mu.Lock()
	current, ok := p.conns[dest]
	if !ok || current != conn {
		p.mu.Unlock()
		return false
	}
	delete(p.conns, dest)
	p.mu.Unlock()

	conn.Close()
	p.observer.Closed(dest, cause)
	return true
}

func (p *pool) closeAll() {
	p.mu.Lock()
	conns := p.conns
	p.conns = make(map[Destination]Conn)
	p.mu.Unlock()

	for dest, c := range conns {
		c.Close()
		p.observer.Closed(dest, nil)
	}
}

func (p *pool) len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.conns)
}

func (p *pool) has(dest Destination) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	_, ok := p.conns[dest]
	return ok
}
