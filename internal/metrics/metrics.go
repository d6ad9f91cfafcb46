// Package metrics defines the Prometheus metrics exported on /metrics.
//
// All Record* methods are safe on a nil *Metrics so components can run
// without instrumentation in tests and in the policycheck CLI.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics
type Metrics struct {
	// Front end metrics
	UpdatesTotal    *prometheus.CounterVec
	SendErrorsTotal *prometheus.CounterVec

	// Turn metrics
	TurnsTotal          *prometheus.CounterVec
	TurnDurationSeconds *prometheus.HistogramVec

	// Completion metrics
	CompletionTotal           *prometheus.CounterVec
	CompletionDurationSeconds *prometheus.HistogramVec
	CompletionRetriesTotal    *prometheus.CounterVec
	CompletionFallbackTotal   *prometheus.CounterVec

	// Policy metrics
	SensitiveMessagesTotal    prometheus.Counter
	LanguageDetectionsTotal   *prometheus.CounterVec
	ActiveConversations       prometheus.Gauge
	HistoryTurns              prometheus.Histogram
	ConversationsEvictedTotal prometheus.Counter
}

// New creates a new Metrics instance with all metrics registered
func New(registry *prometheus.Registry) *Metrics {
	factory := promauto.With(registry)

	return &Metrics{
		UpdatesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "codered_updates_total",
				Help: "Total inbound updates by platform and kind",
			},
			[]string{"platform", "kind"}, // kind: text, command, ignored
		),

		SendErrorsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "codered_send_errors_total",
				Help: "Total failed reply deliveries by platform and reason",
			},
			[]string{"platform", "reason"}, // reason: markdown, transport
		),

		TurnsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "codered_turns_total",
				Help: "Total processed turns by outcome",
			},
			[]string{"outcome"}, // outcome: success, error, command, too_long, panic
		),

		TurnDurationSeconds: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "codered_turn_duration_seconds",
				Help:    "End-to-end turn duration in seconds by outcome",
				Buckets: []float64{0.01, 0.1, 0.5, 1, 2, 5, 10, 20, 30}, // Matches 30s completion timeout
			},
			[]string{"outcome"},
		),

		CompletionTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "codered_completion_total",
				Help: "Total completion calls by provider and status",
			},
			[]string{"provider", "status"}, // status: success, error type
		),

		CompletionDurationSeconds: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "codered_completion_duration_seconds",
				Help:    "Completion call duration in seconds by provider",
				Buckets: []float64{0.25, 0.5, 1, 2, 4, 8, 15, 30},
			},
			[]string{"provider"},
		),

		CompletionRetriesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "codered_completion_retries_total",
				Help: "Total completion retries by provider",
			},
			[]string{"provider"},
		),

		CompletionFallbackTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "codered_completion_fallback_total",
				Help: "Total provider fallbacks by source and target provider",
			},
			[]string{"from", "to"},
		),

		SensitiveMessagesTotal: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "codered_sensitive_messages_total",
				Help: "Total messages classified as sensitive",
			},
		),

		LanguageDetectionsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "codered_language_detections_total",
				Help: "Total language detections by result",
			},
			[]string{"result"}, // result: regional, other, fallback
		),

		ActiveConversations: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "codered_active_conversations",
				Help: "Number of users with an in-memory conversation history",
			},
		),

		HistoryTurns: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "codered_history_turns",
				Help:    "Number of turns sent to the provider per completion",
				Buckets: []float64{1, 3, 5, 11, 21, 41, 81},
			},
		),

		ConversationsEvictedTotal: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "codered_conversations_evicted_total",
				Help: "Total conversation histories evicted after idling",
			},
		),
	}
}

// RecordUpdate records an inbound update
func (m *Metrics) RecordUpdate(platform, kind string) {
	if m == nil {
		return
	}
	m.UpdatesTotal.WithLabelValues(platform, kind).Inc()
}

// RecordSendError records a failed reply delivery
func (m *Metrics) RecordSendError(platform, reason string) {
	if m == nil {
		return
	}
	m.SendErrorsTotal.WithLabelValues(platform, reason).Inc()
}

// RecordTurn records a finished turn with its outcome
func (m *Metrics) RecordTurn(outcome string, duration float64) {
	if m == nil {
		return
	}
	m.TurnsTotal.WithLabelValues(outcome).Inc()
	m.TurnDurationSeconds.WithLabelValues(outcome).Observe(duration)
}

// RecordCompletion records one provider call
func (m *Metrics) RecordCompletion(provider, status string, duration float64) {
	if m == nil {
		return
	}
	m.CompletionTotal.WithLabelValues(provider, status).Inc()
	m.CompletionDurationSeconds.WithLabelValues(provider).Observe(duration)
}

// RecordCompletionRetry records a retry against the same provider
func (m *Metrics) RecordCompletionRetry(provider string) {
	if m == nil {
		return
	}
	m.CompletionRetriesTotal.WithLabelValues(provider).Inc()
}

// RecordFallback records a switch to the next provider
func (m *Metrics) RecordFallback(from, to string) {
	if m == nil {
		return
	}
	m.CompletionFallbackTotal.WithLabelValues(from, to).Inc()
}

// RecordSensitive records a message that matched the keyword table
func (m *Metrics) RecordSensitive() {
	if m == nil {
		return
	}
	m.SensitiveMessagesTotal.Inc()
}

// RecordLanguageDetection records a detector result
func (m *Metrics) RecordLanguageDetection(result string) {
	if m == nil {
		return
	}
	m.LanguageDetectionsTotal.WithLabelValues(result).Inc()
}

// SetActiveConversations sets the tracked conversation count
func (m *Metrics) SetActiveConversations(n int) {
	if m == nil {
		return
	}
	m.ActiveConversations.Set(float64(n))
}

// ObserveHistoryTurns records how many turns were sent to the provider
func (m *Metrics) ObserveHistoryTurns(n int) {
	if m == nil {
		return
	}
	m.HistoryTurns.Observe(float64(n))
}

// RecordEvictions records idle conversations removed by cleanup
func (m *Metrics) RecordEvictions(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.ConversationsEvictedTotal.Add(float64(n))
}
