package observability

import (
	"strings"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

type eventMetrics struct {
	transfers *prometheus.CounterVec
	events    *prometheus.CounterVec
}

var (
	eventMetricsOnce sync.Once
	eventRegistry    *eventMetrics
)

// Events returns the metrics registry tracking structured ledger events.
func Events() *eventMetrics {
	eventMetricsOnce.Do(func() {
		eventRegistry = &eventMetrics{
			transfers: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: "nftstaking",
				Subsystem: "events",
				Name:      "transfers_total",
				Help:      "Count of ledger transfers segmented by asset kind.",
			}, []string{"kind"}),
			events: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: "nftstaking",
				Subsystem: "events",
				Name:      "published_total",
				Help:      "Count of published events segmented by type.",
			}, []string{"type"}),
		}
		prometheus.MustRegister(eventRegistry.transfers, eventRegistry.events)
	})
	return eventRegistry
}

// RecordTransfer increments the transfer counter. NFT movements are grouped
// under a single label to keep cardinality bounded.
func (m *eventMetrics) RecordTransfer(asset string) {
	if m == nil {
		return
	}
	normalized := strings.TrimSpace(strings.ToUpper(asset))
	switch {
	case normalized == "":
		normalized = "UNKNOWN"
	case strings.HasPrefix(normalized, "NFT1"):
		normalized = "NFT"
	}
	m.transfers.WithLabelValues(normalized).Inc()
}

// RecordEvent increments the published counter for eventType.
func (m *eventMetrics) RecordEvent(eventType string) {
	if m == nil {
		return
	}
	if eventType == "" {
		eventType = "unknown"
	}
	m.events.WithLabelValues(eventType).Inc()
}
