package oauth

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Outcomes recorded by the handlers.
const (
	OutcomeRedirected    = "redirected"
	OutcomeDropped       = "dropped"
	OutcomeStored        = "stored"
	OutcomeProviderError = "provider_error"
	OutcomeNoToken       = "no_token"
	OutcomeError         = "error"
)

// MetricsCollector records handler outcomes per integration.
type MetricsCollector interface {
	// RecordAuthorize records an authorize request
	RecordAuthorize(integration, outcome string, duration time.Duration)
	// RecordExchange records a callback and its token exchange
	RecordExchange(integration, outcome string, duration time.Duration)
}

// NoopCollector discards everything.
type NoopCollector struct{}

func (NoopCollector) RecordAuthorize(string, string, time.Duration) {}
func (NoopCollector) RecordExchange(string, string, time.Duration)  {}

// PrometheusCollector exports counters and latency histograms.
type PrometheusCollector struct {
	requests *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

// NewPrometheusCollector registers its metrics with reg. A nil reg means
// prometheus.DefaultRegisterer.
func NewPrometheusCollector(reg prometheus.Registerer) (*PrometheusCollector, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	c := &PrometheusCollector{
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "beaver_connect",
			Name:      "requests_total",
			Help:      "Authorize and callback requests by integration, phase and outcome.",
		}, []string{"integration", "phase", "outcome"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "beaver_connect",
			Name:      "request_duration_seconds",
			Help:      "Time spent handling authorize and callback requests.",
			Buckets:   []float64{.005, .01, .05, .1, .25, .5, 1, 2.5, 5, 10},
		}, []string{"integration", "phase"}),
	}

	for _, col := range []prometheus.Collector{c.requests, c.duration} {
		if err := reg.Register(col); err != nil {
			return nil, err
		}
	}
	return c, nil
}

func (c *PrometheusCollector) RecordAuthorize(integration, outcome string, d time.Duration) {
	c.record(integration, "authorize", outcome, d)
}

func (c *PrometheusCollector) RecordExchange(integration, outcome string, d time.Duration) {
	c.record(integration, "callback", outcome, d)
}

func (c *PrometheusCollector) record(integration, phase, outcome string, d time.Duration) {
	c.requests.WithLabelValues(integration, phase, outcome).Inc()
	c.duration.WithLabelValues(integration, phase).Observe(d.Seconds())
}
