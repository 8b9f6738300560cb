package api

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics instruments the gateway. A nil *Metrics records nothing.
type Metrics struct {
	requests      *prometheus.CounterVec
	duration      *prometheus.HistogramVec
	forcedLogouts prometheus.Counter
}

// NewMetrics creates the gateway collectors and registers them on reg.
// A nil reg leaves them unregistered.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "mycraft",
			Subsystem: "api",
			Name:      "requests_total",
			Help:      "API requests by method and response code (0 for transport failures).",
		}, []string{"method", "code"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "mycraft",
			Subsystem: "api",
			Name:      "request_duration_seconds",
			Help:      "API request latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method"}),
		forcedLogouts: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "mycraft",
			Subsystem: "api",
			Name:      "forced_logouts_total",
			Help:      "Sessions torn down because of an authorization-failure response.",
		}),
	}
	if reg != nil {
		reg.MustRegister(m.requests, m.duration, m.forcedLogouts)
	}
	return m
}

func (m *Metrics) observe(method string, status int, d time.Duration) {
	if m == nil {
		return
	}
	m.requests.WithLabelValues(method, strconv.Itoa(status)).Inc()
	m.duration.WithLabelValues(method).Observe(d.Seconds())
}

func (m *Metrics) forcedLogout() {
	if m == nil {
		return
	}
	m.forcedLogouts.Inc()
}
