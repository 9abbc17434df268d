// Package metrics defines Prometheus metrics for the CMS backend. Metrics
// are registered via promauto and exposed on /metrics by the API server.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// HTTP request metrics for the API server
var (
	// HTTPRequestDuration tracks the duration of HTTP requests
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests by method, path, and status",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)

	// HTTPRequestsTotal counts the total number of HTTP requests
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests by method, path, and status",
		},
		[]string{"method", "path", "status"},
	)
)

// Chatbot pipeline metrics
var (
	// ChatRequestsTotal counts chat requests by final outcome
	ChatRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chat_requests_total",
			Help: "Total chat requests by outcome (answered, rate_limited, validation_error)",
		},
		[]string{"outcome"},
	)

	// ChatAnswerSource counts served answers by where they came from
	ChatAnswerSource = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chat_answer_source_total",
			Help: "Served chat answers by source (cache, kb_exact, kb_semantic, generated, fallback, budget_fallback)",
		},
		[]string{"source"},
	)

	// ChatRateLimited counts rejected requests by limiter scope
	ChatRateLimited = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chat_rate_limited_total",
			Help: "Chat requests rejected by rate limiting, by scope (ip, session, session_cap)",
		},
		[]string{"scope"},
	)

	// ChatSpamDetected counts honeypot hits
	ChatSpamDetected = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "chat_spam_detected_total",
			Help: "Chat requests rejected by the honeypot field",
		},
	)

	// GenerationDuration tracks external generation API call latency
	GenerationDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "chat_generation_duration_seconds",
			Help:    "Duration of external generation API calls",
			Buckets: prometheus.ExponentialBuckets(0.1, 2, 10), // 100ms to ~51s
		},
	)

	// GenerationFailures counts failed generation API calls
	GenerationFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "chat_generation_failures_total",
			Help: "External generation API calls that failed and fell back",
		},
	)

	// MonthlySpend reports the current month's estimated spend in USD
	MonthlySpend = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "chatbot_monthly_spend_usd",
			Help: "Estimated external API spend for the current calendar month",
		},
	)

	// BudgetAlertsTotal counts budget-exceeded alerts sent to operators
	BudgetAlertsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "chatbot_budget_alerts_total",
			Help: "Budget-exceeded operator alerts sent",
		},
	)
)

// Lead intake metrics
var (
	// LeadsReceived counts accepted lead form submissions
	LeadsReceived = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "leads_received_total",
			Help: "Accepted lead form submissions",
		},
	)
)

// RecordHTTPRequest records one handled HTTP request
func RecordHTTPRequest(method, path, status string, duration time.Duration) {
	HTTPRequestDuration.WithLabelValues(method, path, status).Observe(duration.Seconds())
	HTTPRequestsTotal.WithLabelValues(method, path, status).Inc()
}

// RecordChatOutcome records a chat request's final outcome
func RecordChatOutcome(outcome string) {
	ChatRequestsTotal.WithLabelValues(outcome).Inc()
}

// RecordAnswerSource records where a served answer came from
func RecordAnswerSource(source string) {
	ChatAnswerSource.WithLabelValues(source).Inc()
}

// RecordRateLimited records a rate-limit rejection
func RecordRateLimited(scope string) {
	ChatRateLimited.WithLabelValues(scope).Inc()
}

// RecordGeneration records one generation API call
func RecordGeneration(duration time.Duration, failed bool) {
	GenerationDuration.Observe(duration.Seconds())
	if failed {
		GenerationFailures.Inc()
	}
}

// SetMonthlySpend updates the monthly spend gauge
func SetMonthlySpend(usd float64) {
	MonthlySpend.Set(usd)
}

// RecordBudgetAlert records an operator alert being sent
func RecordBudgetAlert() {
	BudgetAlertsTotal.Inc()
}

// RecordLeadReceived records an accepted lead form submission
func RecordLeadReceived() {
	LeadsReceived.Inc()
}
