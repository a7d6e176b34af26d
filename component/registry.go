package component

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/kbukum/gs2kit/logger"
)

// StopTimeout bounds each component's Stop during StopAll unless the
// registry is created WithStopTimeout.
const StopTimeout = 10 * time.Second

// RegistryOption configures a Registry.
type RegistryOption func(*Registry)

// WithStopTimeout sets the per-component Stop deadline.
func WithStopTimeout(d time.Duration) RegistryOption {
	return func(r *Registry) { r.stopTimeout = d }
}

// Registry owns the lifecycle of a set of clients. Components start in
// registration order and stop in reverse. A failed StartAll stops whatever
// it had already started.
type Registry struct {
	mu          sync.RWMutex
	components  []Component
	byName      map[string]int
	running     int // components[:running] are started
	stopTimeout time.Duration
	log         *logger.Logger
}

// NewRegistry creates an empty registry.
func NewRegistry(opts ...RegistryOption) *Registry {
	r := &Registry{
		byName:      make(map[string]int),
		stopTimeout: StopTimeout,
		log:         logger.Get("gs2.component"),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Register appends c. Names must be unique.
func (r *Registry) Register(c Component) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	name := c.Name()
	if _, dup := r.byName[name]; dup {
		return fmt.Errorf("component %s already registered", name)
	}
	r.byName[name] = len(r.components)
	r.components = append(r.components, c)
	r.log.Debug("component registered", logger.Fields(logger.FieldComponent, name))
	return nil
}

// StartAll starts every component not yet running.
func (r *Registry) StartAll(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for r.running < len(r.components) {
		c := r.components[r.running]
		if err := c.Start(ctx); err != nil {
			r.log.Error("component start failed", logger.Fields(logger.FieldComponent, c.Name(), logger.FieldError, err.Error()))
			startErr := fmt.Errorf("start %s: %w", c.Name(), err)
			if stopErr := r.stopRunning(ctx); stopErr != nil {
				return errors.Join(startErr, stopErr)
			}
			return startErr
		}
		r.running++
		r.log.Debug("component started", logger.Fields(logger.FieldComponent, c.Name()))
	}
	return nil
}

// StopAll stops running components in reverse order and joins their errors.
func (r *Registry) StopAll(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.stopRunning(ctx)
}

func (r *Registry) stopRunning(ctx context.Context) error {
	var errs []error
	for ; r.running > 0; r.running-- {
		c := r.components[r.running-1]
		if err := r.stopOne(ctx, c); err != nil {
			r.log.Error("component stop failed", logger.Fields(logger.FieldComponent, c.Name(), logger.FieldError, err.Error()))
			errs = append(errs, fmt.Errorf("stop %s: %w", c.Name(), err))
			continue
		}
		r.log.Debug("component stopped", logger.Fields(logger.FieldComponent, c.Name()))
	}
	return errors.Join(errs...)
}

func (r *Registry) stopOne(ctx context.Context, c Component) error {
	if r.stopTimeout <= 0 {
		return c.Stop(ctx)
	}
	stopCtx, cancel := context.WithTimeout(ctx, r.stopTimeout)
	defer cancel()
	return c.Stop(stopCtx)
}

// HealthAll returns the health of every component in registration order.
func (r *Registry) HealthAll(ctx context.Context) []Health {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Health, len(r.components))
	for i, c := range r.components {
		out[i] = c.Health(ctx)
	}
	return out
}

// Ready returns an error naming every component that is not healthy.
func (r *Registry) Ready(ctx context.Context) error {
	var bad []string
	for _, h := range r.HealthAll(ctx) {
		if h.Status == StatusHealthy {
			continue
		}
		detail := h.Name + "=" + string(h.Status)
		if h.Message != "" {
			detail += "(" + h.Message + ")"
		}
		bad = append(bad, detail)
	}
	if len(bad) > 0 {
		return fmt.Errorf("unhealthy components: %s", strings.Join(bad, ", "))
	}
	return nil
}

// Describe summarises every component. Components that do not implement
// Describable are reported by name only.
func (r *Registry) Describe() []Description {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Description, len(r.components))
	for i, c := range r.components {
		var d Description
		if dc, ok := c.(Describable); ok {
			d = dc.Describe()
		}
		if d.Name == "" {
			d.Name = c.Name()
		}
		out[i] = d
	}
	return out
}

// Get returns the component registered under name, or nil.
func (r *Registry) Get(name string) Component {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if i, ok := r.byName[name]; ok {
		return r.components[i]
	}
	return nil
}

// All returns the components in registration order.
func (r *Registry) All() []Component {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]Component(nil), r.components...)
}
