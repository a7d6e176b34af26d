// Package metrics exports transport pool and exchange events as Prometheus
// metrics.
//
//	reg := prometheus.NewRegistry()
//	tr, err := transport.New(cfg, transport.WithObserver(metrics.NewCollector(reg)))
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/kbukum/gs2kit/transport"
)

// Attempt outcomes.
const (
	OutcomeOK          = "ok"
	OutcomeError       = "error"
	OutcomeTimeout     = "timeout"
	OutcomeCircuitOpen = "circuit_open"
)

// Collector implements transport.Observer on Prometheus metrics.
type Collector struct {
	AttemptsTotal    *prometheus.CounterVec
	EvictionsTotal   *prometheus.CounterVec
	ResponsesTotal   *prometheus.CounterVec
	ResponseDuration *prometheus.HistogramVec
	PoolSize         prometheus.Gauge
}

var _ transport.Observer = (*Collector)(nil)

// NewCollector creates the transport metrics and registers them on reg.
// It panics if the metrics are already registered on reg.
func NewCollector(reg prometheus.Registerer) *Collector {
	factory := promauto.With(reg)
	return &Collector{
		AttemptsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "gs2_transport_attempts_total",
			Help: "Total exchange attempts by destination and outcome.",
		}, []string{"destination", "outcome"}),

		EvictionsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "gs2_transport_evictions_total",
			Help: "Total pooled connections evicted after a failed exchange.",
		}, []string{"destination"}),

		ResponsesTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "gs2_transport_responses_total",
			Help: "Total responses received by destination and status code.",
		}, []string{"destination", "code"}),

		ResponseDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "gs2_transport_response_duration_seconds",
			Help:    "Time from sending a request to reading its full response.",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
		}, []string{"destination"}),

		PoolSize: factory.NewGauge(prometheus.GaugeOpts{
			Name: "gs2_transport_pool_size",
			Help: "Number of pooled connections.",
		}),
	}
}

// Opened implements transport.Observer.
func (c *Collector) Opened(transport.Destination) {
	c.PoolSize.Inc()
}

// Closed implements transport.Observer. Only closes with a cause count as
// evictions.
func (c *Collector) Closed(dest transport.Destination, cause error) {
	c.PoolSize.Dec()
	if cause != nil {
		c.EvictionsTotal.WithLabelValues(dest.String()).Inc()
	}
}

// Attempt implements transport.Observer.
func (c *Collector) Attempt(dest transport.Destination, _ int, err error) {
	c.AttemptsTotal.WithLabelValues(dest.String(), outcome(err)).Inc()
}

// Response implements transport.Observer.
func (c *Collector) Response(dest transport.Destination, statusCode int, elapsed time.Duration) {
	d := dest.String()
	c.ResponsesTotal.WithLabelValues(d, strconv.Itoa(statusCode)).Inc()
	c.ResponseDuration.WithLabelValues(d).Observe(elapsed.Seconds())
}

func outcome(err error) string {
	switch {
	case err == nil:
		return OutcomeOK
	case transport.IsCircuitOpen(err):
		return OutcomeCircuitOpen
	case isTimeout(err):
		return OutcomeTimeout
	default:
		return OutcomeError
	}
}

// isTimeout checks the raw exchange error the observer receives before it is
// wrapped into a transport.Error.
func isTimeout(err error) bool {
	return (&transport.Error{Err: err}).Timeout()
}
