package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// WebhookLatencyName is the fully qualified histogram name for webhook
// processing latency; the dashboard reads it back out of the registry.
const WebhookLatencyName = "callpilot_webhook_latency_seconds"

// WebhookMetrics exposes counters/histograms for webhook processing.
type WebhookMetrics struct {
	eventsTotal    *prometheus.CounterVec
	toolCallsTotal *prometheus.CounterVec
	latency        *prometheus.HistogramVec
}

func NewWebhookMetrics(reg prometheus.Registerer) *WebhookMetrics {
	m := &WebhookMetrics{
		eventsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "callpilot",
			Subsystem: "webhook",
			Name:      "events_total",
			Help:      "Total inbound webhook events",
		}, []string{"event_type", "status"}),
		toolCallsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "callpilot",
			Subsystem: "webhook",
			Name:      "tool_calls_total",
			Help:      "Total dispatched tool calls",
		}, []string{"function"}),
		latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "callpilot",
			Subsystem: "webhook",
			Name:      "latency_seconds",
			Help:      "Latency of webhook event processing",
			Buckets:   prometheus.DefBuckets,
		}, []string{"event_type"}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.eventsTotal, m.toolCallsTotal, m.latency)
	return m
}

func (m *WebhookMetrics) ObserveEvent(eventType, status string) {
	if m == nil {
		return
	}
	m.eventsTotal.WithLabelValues(eventType, status).Inc()
}

func (m *WebhookMetrics) ObserveToolCall(function string) {
	if m == nil {
		return
	}
	m.toolCallsTotal.WithLabelValues(function).Inc()
}

func (m *WebhookMetrics) ObserveLatency(eventType string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.latency.WithLabelValues(eventType).Observe(elapsed.Seconds())
}
