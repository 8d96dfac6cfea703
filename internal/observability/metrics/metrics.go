package metrics

import "github.com/prometheus/client_golang/prometheus"

// ConversationMetrics exposes counters/histograms for the chat engine.
type ConversationMetrics struct {
	turnsTotal       *prometheus.CounterVec
	llmFallbackTotal prometheus.Counter
	leadsTotal       *prometheus.CounterVec
	turnLatency      prometheus.Histogram
	synthesisLatency prometheus.Histogram
}

func NewConversationMetrics(reg prometheus.Registerer) *ConversationMetrics {
	m := &ConversationMetrics{
		turnsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "leadpilot",
			Subsystem: "convo",
			Name:      "turns_total",
			Help:      "Total processed conversation turns",
		}, []string{"intent", "reply_source"}),
		llmFallbackTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "leadpilot",
			Subsystem: "convo",
			Name:      "llm_fallback_total",
			Help:      "Turns answered by the rule-based fallback",
		}),
		leadsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "leadpilot",
			Subsystem: "convo",
			Name:      "leads_total",
			Help:      "Leads emitted by the qualifier",
		}, []string{"status"}),
		turnLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "leadpilot",
			Subsystem: "convo",
			Name:      "turn_latency_seconds",
			Help:      "End-to-end latency of a conversation turn",
			Buckets:   prometheus.DefBuckets,
		}),
		synthesisLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "leadpilot",
			Subsystem: "voice",
			Name:      "synthesis_latency_seconds",
			Help:      "Latency of speech synthesis calls",
			Buckets:   prometheus.DefBuckets,
		}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.turnsTotal, m.llmFallbackTotal, m.leadsTotal, m.turnLatency, m.synthesisLatency)
	return m
}

func (m *ConversationMetrics) ObserveTurn(intent, replySource string, seconds float64) {
	if m == nil {
		return
	}
	m.turnsTotal.WithLabelValues(intent, replySource).Inc()
	m.turnLatency.Observe(seconds)
}

func (m *ConversationMetrics) ObserveLLMFallback() {
	if m == nil {
		return
	}
	m.llmFallbackTotal.Inc()
}

func (m *ConversationMetrics) ObserveLead(status string) {
	if m == nil {
		return
	}
	m.leadsTotal.WithLabelValues(status).Inc()
}

func (m *ConversationMetrics) ObserveSynthesis(seconds float64) {
	if m == nil {
		return
	}
	m.synthesisLatency.Observe(seconds)
}
