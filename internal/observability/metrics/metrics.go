package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
)

// WebhookMetrics exposes counters/histograms for the ingestion pipeline.
type WebhookMetrics struct {
	inboundTotal      *prometheus.CounterVec
	processingLatency prometheus.Histogram
	parserTierTotal   *prometheus.CounterVec
	stepFailures      *prometheus.CounterVec
}

func NewWebhookMetrics(reg prometheus.Registerer) *WebhookMetrics {
	m := &WebhookMetrics{
		inboundTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "astra",
			Subsystem: "lead_webhook",
			Name:      "inbound_total",
			Help:      "Total inbound post-call webhooks",
		}, []string{"status"}),
		processingLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "astra",
			Subsystem: "lead_webhook",
			Name:      "processing_latency_seconds",
			Help:      "Latency of full webhook pipeline processing",
			Buckets:   prometheus.DefBuckets,
		}),
		parserTierTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "astra",
			Subsystem: "lead_webhook",
			Name:      "analytics_parser_tier_total",
			Help:      "Which parser tier produced the analytics record",
		}, []string{"tier"}),
		stepFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "astra",
			Subsystem: "lead_webhook",
			Name:      "side_effect_failures_total",
			Help:      "Non-fatal side-effect step failures",
		}, []string{"step"}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.inboundTotal, m.processingLatency, m.parserTierTotal, m.stepFailures)
	return m
}

func (m *WebhookMetrics) ObserveInbound(status string) {
	if m == nil {
		return
	}
	m.inboundTotal.WithLabelValues(status).Inc()
}

func (m *WebhookMetrics) ObserveLatency(seconds float64) {
	if m == nil {
		return
	}
	m.processingLatency.Observe(seconds)
}

func (m *WebhookMetrics) ObserveParserTier(tier int) {
	if m == nil {
		return
	}
	m.parserTierTotal.WithLabelValues(strconv.Itoa(tier)).Inc()
}

func (m *WebhookMetrics) ObserveStepFailure(step string) {
	if m == nil {
		return
	}
	m.stepFailures.WithLabelValues(step).Inc()
}
