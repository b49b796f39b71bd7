package observability

import (
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

type apiMetrics struct {
	requests    *prometheus.CounterVec
	latency     *prometheus.HistogramVec
	throttles   *prometheus.CounterVec
	subscribers prometheus.Gauge
	dropped     prometheus.Counter
}

var (
	apiMetricsOnce sync.Once
	apiRegistry    *apiMetrics
)

// API returns the lazily registered metrics of the HTTP and websocket surface.
func API() *apiMetrics {
	apiMetricsOnce.Do(func() {
		apiRegistry = &apiMetrics{
			requests: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: "nftstaking",
				Subsystem: "api",
				Name:      "requests_total",
				Help:      "API requests by route pattern and status code.",
			}, []string{"route", "status"}),
			latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
				Namespace: "nftstaking",
				Subsystem: "api",
				Name:      "request_duration_seconds",
				Help:      "Handler latency by route pattern.",
				Buckets:   prometheus.DefBuckets,
			}, []string{"route"}),
			throttles: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: "nftstaking",
				Subsystem: "api",
				Name:      "throttles_total",
				Help:      "Requests rejected before reaching a handler.",
			}, []string{"reason"}),
			subscribers: prometheus.NewGauge(prometheus.GaugeOpts{
				Namespace: "nftstaking",
				Subsystem: "stream",
				Name:      "subscribers",
				Help:      "Connected event stream clients.",
			}),
			dropped: prometheus.NewCounter(prometheus.CounterOpts{
				Namespace: "nftstaking",
				Subsystem: "stream",
				Name:      "dropped_events_total",
				Help:      "Events skipped because a stream client lagged behind.",
			}),
		}
		prometheus.MustRegister(
			apiRegistry.requests,
			apiRegistry.latency,
			apiRegistry.throttles,
			apiRegistry.subscribers,
			apiRegistry.dropped,
		)
	})
	return apiRegistry
}

// Observe records one served request. route should be the router pattern, not
// the raw path, to keep label cardinality bounded.
func (m *apiMetrics) Observe(route string, status int, took time.Duration) {
	if m == nil {
		return
	}
	if route == "" {
		route = "unmatched"
	}
	m.requests.WithLabelValues(route, strconv.Itoa(status)).Inc()
	m.latency.WithLabelValues(route).Observe(took.Seconds())
}

func (m *apiMetrics) RecordThrottle(reason string) {
	if m == nil {
		return
	}
	if reason == "" {
		reason = "unspecified"
	}
	m.throttles.WithLabelValues(reason).Inc()
}

// StreamOpened tracks a websocket client and returns the matching close hook.
func (m *apiMetrics) StreamOpened() func() {
	if m == nil {
		return func() {}
	}
	m.subscribers.Inc()
	return m.subscribers.Dec
}

func (m *apiMetrics) StreamDropped() {
	if m == nil {
		return
	}
	m.dropped.Inc()
}
