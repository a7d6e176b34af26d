package resilience

import (
	"errors"
	"sort"
	"sync"
	"time"
)

// State is the position of a CircuitBreaker.
type State int

const (
	// StateClosed lets every call through.
	StateClosed State = iota
	// StateOpen rejects calls until the cool-down elapses.
	StateOpen
	// StateHalfOpen lets a bounded number of probe calls through.
	StateHalfOpen
)

var stateNames = [...]string{
	StateClosed:   "closed",
	StateOpen:     "open",
	StateHalfOpen: "half-open",
}

func (s State) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return "unknown"
	}
	return stateNames[s]
}

// ErrCircuitOpen is returned by Execute while the breaker rejects calls.
var ErrCircuitOpen = errors.New("circuit breaker is open")

const (
	defaultMaxFailures = 5
	defaultCoolDown    = 30 * time.Second
)

// CircuitBreakerConfig configures a circuit breaker.
type CircuitBreakerConfig struct {
	// Name identifies the breaker, usually the destination it guards.
	Name string
	// MaxFailures is the number of consecutive failures that opens the circuit.
	MaxFailures int
	// Timeout is the cool-down before an open circuit admits probes.
	Timeout time.Duration
	// HalfOpenMaxCalls is both the number of probes admitted and the number
	// of successful probes needed to close again.
	HalfOpenMaxCalls int
	// IsFailure decides which errors count against the breaker. Defaults to
	// every non-nil error.
	IsFailure func(error) bool
	// OnStateChange runs on every transition, with the breaker lock held.
	OnStateChange func(name string, from, to State)
	// Now is the clock used for the cool-down. Defaults to time.Now.
	Now func() time.Time
}

// DefaultCircuitBreakerConfig returns the defaults for a named breaker.
func DefaultCircuitBreakerConfig(name string) CircuitBreakerConfig {
	return CircuitBreakerConfig{Name: name}.withDefaults()
}

func (c CircuitBreakerConfig) withDefaults() CircuitBreakerConfig {
	if c.MaxFailures <= 0 {
		c.MaxFailures = defaultMaxFailures
	}
	if c.Timeout <= 0 {
		c.Timeout = defaultCoolDown
	}
	if c.HalfOpenMaxCalls <= 0 {
		c.HalfOpenMaxCalls = 1
	}
	if c.IsFailure == nil {
		c.IsFailure = func(err error) bool { return err != nil }
	}
	if c.Now == nil {
		c.Now = time.Now
	}
	return c
}

// CircuitBreaker fails fast while a destination keeps failing.
type CircuitBreaker struct {
	cfg CircuitBreakerConfig

	mu       sync.Mutex
	state    State
	failures int       // consecutive failures while closed
	openedAt time.Time // start of the current cool-down
	probes   int       // probes admitted in half-open
	passed   int       // probes that succeeded in half-open
}

// NewCircuitBreaker creates a closed breaker.
func NewCircuitBreaker(cfg CircuitBreakerConfig) *CircuitBreaker {
	return &CircuitBreaker{cfg: cfg.withDefaults()}
}

// Name returns the breaker name.
func (cb *CircuitBreaker) Name() string { return cb.cfg.Name }

// Execute runs fn unless the circuit is open, and feeds its result back into
// the breaker. A rejected call returns ErrCircuitOpen without running fn.
func (cb *CircuitBreaker) Execute(fn func() error) error {
	if !cb.admit() {
		return ErrCircuitOpen
	}
	err := fn()
	cb.record(cb.cfg.IsFailure(err))
	return err
}

// State returns the current state, moving an expired open circuit to
// half-open.
func (cb *CircuitBreaker) State() State {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.settle()
}

// Failures returns the consecutive failure count.
func (cb *CircuitBreaker) Failures() int {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.failures
}

// Reset closes the circuit and forgets all failures.
func (cb *CircuitBreaker) Reset() {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	cb.moveTo(StateClosed)
	cb.failures = 0
}

func (cb *CircuitBreaker) admit() bool {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	switch cb.settle() {
	case StateClosed:
		return true
	case StateHalfOpen:
		if cb.probes >= cb.cfg.HalfOpenMaxCalls {
			return false
		}
		cb.probes++
		return true
	}
	return false
}

func (cb *CircuitBreaker) record(failed bool) {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	state := cb.settle()
	switch {
	case failed && state == StateHalfOpen:
		cb.open()
	case failed && state == StateClosed:
		cb.failures++
		if cb.failures >= cb.cfg.MaxFailures {
			cb.open()
		}
	case !failed && state == StateHalfOpen:
		cb.passed++
		if cb.passed >= cb.cfg.HalfOpenMaxCalls {
			cb.moveTo(StateClosed)
		}
	case !failed && state == StateClosed:
		cb.failures = 0
	}
}

// settle expires the cool-down. Callers hold cb.mu.
func (cb *CircuitBreaker) settle() State {
	if cb.state == StateOpen && !cb.cfg.Now().Before(cb.openedAt.Add(cb.cfg.Timeout)) {
		cb.moveTo(StateHalfOpen)
	}
	return cb.state
}

func (cb *CircuitBreaker) open() {
	cb.openedAt = cb.cfg.Now()
	cb.moveTo(StateOpen)
}

func (cb *CircuitBreaker) moveTo(to State) {
	from := cb.state
	if from == to {
		return
	}
	cb.state = to
	cb.probes, cb.passed = 0, 0
	if to == StateClosed {
		cb.failures = 0
	}
	if cb.cfg.OnStateChange != nil {
		cb.cfg.OnStateChange(cb.cfg.Name, from, to)
	}
}

// Breakers hands out one CircuitBreaker per key, all built from the same
// template.
type Breakers struct {
	template CircuitBreakerConfig

	mu  sync.Mutex
	set map[string]*CircuitBreaker
}

// NewBreakers creates an empty breaker set. Each breaker is named after the
// key it was requested for.
func NewBreakers(template CircuitBreakerConfig) *Breakers {
	return &Breakers{template: template, set: make(map[string]*CircuitBreaker)}
}

// Get returns the breaker for key, creating it on first use.
func (b *Breakers) Get(key string) *CircuitBreaker {
	b.mu.Lock()
	defer b.mu.Unlock()

	cb, ok := b.set[key]
	if !ok {
		cfg := b.template
		cfg.Name = key
		cb = NewCircuitBreaker(cfg)
		b.set[key] = cb
	}
	return cb
}

// Len returns the number of breakers created so far.
func (b *Breakers) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.set)
}

// Open returns the keys whose breakers currently reject calls.
func (b *Breakers) Open() []string {
	b.mu.Lock()
	defer b.mu.Unlock()

	var keys []string
	for key, cb := range b.set {
		if cb.State() == StateOpen {
			keys = append(keys, key)
		}
	}
	sort.Strings(keys)
	return keys
}
