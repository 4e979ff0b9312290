// Package metrics provides Prometheus metrics instrumentation.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RequestDuration tracks HTTP request duration.
	RequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "api_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{"method", "path", "status"},
	)

	// RequestsTotal tracks total HTTP requests.
	RequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_requests_total",
			Help: "Total HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	// LLMCallDuration tracks model call duration.
	LLMCallDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "llm_call_duration_seconds",
			Help:    "LLM call duration",
			Buckets: []float64{.5, 1, 2, 5, 10, 20, 30, 45, 60},
		},
		[]string{"model", "operation", "status"},
	)

	// LLMTokensTotal tracks total LLM tokens processed.
	LLMTokensTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "llm_tokens_total",
			Help: "Total LLM tokens processed",
		},
		[]string{"model", "direction"},
	)

	// ConversationsTotal tracks total conversations created.
	ConversationsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "conversations_total",
			Help: "Total conversations created",
		},
	)

	// MessagesTotal tracks total messages appended.
	MessagesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "messages_total",
			Help: "Total messages appended",
		},
		[]string{"role"},
	)

	// DraftsTotal tracks orchestrated drafts by outcome.
	DraftsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "drafts_total",
			Help: "Drafts produced by the orchestrator",
		},
		[]string{"outcome"},
	)

	// StopDecisionsTotal tracks conversations stopped by reason.
	StopDecisionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "stop_decisions_total",
			Help: "Conversations stopped by the analyzer",
		},
		[]string{"reason"},
	)

	// CreditsChargedTotal tracks credits debited.
	CreditsChargedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "credits_charged_total",
			Help: "Credits debited for model usage",
		},
	)

	// UsageRecordFailures tracks best-effort usage recording failures.
	UsageRecordFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "usage_record_failures_total",
			Help: "Usage recordings that failed after a draft was persisted",
		},
	)

	// EventsPublished tracks outreach events sent to the stream.
	EventsPublished = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "outreach_events_published_total",
			Help: "Outreach events published to NATS",
		},
		[]string{"type", "status"},
	)
)

// Draft outcomes.
const (
	OutcomeContinued           = "continued"
	OutcomeStopped             = "stopped"
	OutcomeInsufficientCredits = "insufficient_credits"
	OutcomeError               = "error"
)

// RecordRequest records metrics for an HTTP request.
func RecordRequest(method, path, status string, duration float64) {
	RequestDuration.WithLabelValues(method, path, status).Observe(duration)
	RequestsTotal.WithLabelValues(method, path, status).Inc()
}

// RecordLLMCall records metrics for one model call.
func RecordLLMCall(model, operation, status string, duration float64, tokensIn, tokensOut int) {
	LLMCallDuration.WithLabelValues(model, operation, status).Observe(duration)
	LLMTokensTotal.WithLabelValues(model, "in").Add(float64(tokensIn))
	LLMTokensTotal.WithLabelValues(model, "out").Add(float64(tokensOut))
}

// RecordDraft records an orchestrator outcome.
func RecordDraft(outcome string) {
	DraftsTotal.WithLabelValues(outcome).Inc()
}
