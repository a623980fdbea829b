package metrics

import "github.com/prometheus/client_golang/prometheus"

// ChatMetrics exposes counters/histograms for the chat pipeline.
type ChatMetrics struct {
	turnsTotal       *prometheus.CounterVec
	turnLatency      *prometheus.HistogramVec
	leadPromptsTotal prometheus.Counter
	saveConflicts    prometheus.Counter
}

func NewChatMetrics(reg prometheus.Registerer) *ChatMetrics {
	m := &ChatMetrics{
		turnsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "webcraft",
			Subsystem: "chat",
			Name:      "turns_total",
			Help:      "Processed chat turns by outcome",
		}, []string{"outcome"}),
		turnLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "webcraft",
			Subsystem: "chat",
			Name:      "turn_latency_seconds",
			Help:      "End-to-end latency of a chat turn",
			Buckets:   prometheus.DefBuckets,
		}, []string{"mode"}),
		leadPromptsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "webcraft",
			Subsystem: "chat",
			Name:      "lead_prompts_total",
			Help:      "Turns where the lead capture prompt fired",
		}),
		saveConflicts: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "webcraft",
			Subsystem: "chat",
			Name:      "save_conflicts_total",
			Help:      "Revision conflicts hit while persisting context",
		}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.turnsTotal, m.turnLatency, m.leadPromptsTotal, m.saveConflicts)
	return m
}

func (m *ChatMetrics) ObserveTurn(outcome string) {
	if m == nil {
		return
	}
	m.turnsTotal.WithLabelValues(outcome).Inc()
}

func (m *ChatMetrics) ObserveTurnLatency(mode string, seconds float64) {
	if m == nil {
		return
	}
	m.turnLatency.WithLabelValues(mode).Observe(seconds)
}

func (m *ChatMetrics) ObserveLeadPrompt() {
	if m == nil {
		return
	}
	m.leadPromptsTotal.Inc()
}

func (m *ChatMetrics) ObserveSaveConflict() {
	if m == nil {
		return
	}
	m.saveConflicts.Inc()
}
