package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	DispatchEventsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dispatch_events_total",
			Help: "Total number of change events handled by the dispatch pipeline (count)",
		},
		[]string{"outcome"},
	)

	DispatchProcessingDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "dispatch_processing_duration_ms",
			Help:    "End-to-end processing duration per change event in milliseconds",
			Buckets: []float64{1, 5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000},
		},
		[]string{"outcome"},
	)

	DedupChecksTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dedup_checks_total",
			Help: "Total number of dedup-store admission checks (count)",
		},
		[]string{"status"},
	)

	DedupCheckDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "dedup_check_duration_ms",
			Help:    "Dedup-store admission check duration in milliseconds",
			Buckets: []float64{1, 5, 10, 25, 50, 100, 250, 500, 1000},
		},
		[]string{"status"},
	)

	NotificationsWrittenTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "notifications_written_total",
			Help: "Notification rows written by the direct-write fallback (count)",
		},
		[]string{"status"},
	)

	NotificationWriteFailuresTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "notification_write_failures_total",
			Help: "Per-recipient notification insert failures (count)",
		},
	)

	PreferenceDecisionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "preference_decisions_total",
			Help: "Preference engine decisions by outcome (count)",
		},
		[]string{"outcome"},
	)

	ProviderRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "provider_requests_total",
			Help: "Push provider trigger calls by result (count)",
		},
		[]string{"status"},
	)

	ProviderRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "provider_request_duration_ms",
			Help:    "Push provider trigger call duration in milliseconds",
			Buckets: []float64{10, 25, 50, 100, 250, 500, 1000, 2500, 5000},
		},
		[]string{"status"},
	)

	FallbackUsageTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fallback_usage_total",
			Help: "Fail-open and fallback decisions by component (count)",
		},
		[]string{"component", "fallback", "reason"},
	)

	CacheRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cache_requests_total",
			Help: "Read-through cache requests by outcome (count)",
		},
		[]string{"cache", "status"},
	)
)

var (
	BrokerMessagesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "broker_messages_total",
			Help: "Messages consumed from the change-event stream by status (count)",
		},
		[]string{"topic", "status"},
	)

	RetryAttemptsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "broker_retry_attempts_total",
			Help: "Message processing retry attempts (count)",
		},
		[]string{"service", "topic"},
	)

	DLQMessagesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "broker_dlq_messages_total",
			Help: "Messages published to the dead-letter topic (count)",
		},
		[]string{"service", "topic", "reason"},
	)
)

var (
	RateLimitRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ratelimit_requests_total",
			Help: "Requests seen by the rate limiter by status (count)",
		},
		[]string{"status"},
	)

	CircuitBreakerState = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)
)

func RegisterDispatchMetrics() {
	prometheus.MustRegister(
		DispatchEventsTotal,
		DispatchProcessingDuration,
		DedupChecksTotal,
		DedupCheckDuration,
		NotificationsWrittenTotal,
		NotificationWriteFailuresTotal,
		PreferenceDecisionsTotal,
		ProviderRequestsTotal,
		ProviderRequestDuration,
		FallbackUsageTotal,
		CacheRequestsTotal,
	)
}

func RegisterBrokerMetrics() {
	prometheus.MustRegister(
		BrokerMessagesTotal,
		RetryAttemptsTotal,
		DLQMessagesTotal,
	)
}

func RegisterRateLimitMetrics() {
	prometheus.MustRegister(RateLimitRequestsTotal)
}

func RegisterCircuitBreakerMetrics() {
	prometheus.MustRegister(CircuitBreakerState)
}

func ObserveDispatchDuration(d time.Duration, outcome string) {
	DispatchProcessingDuration.WithLabelValues(outcome).Observe(durationMs(d))
}

func ObserveDedupDuration(d time.Duration, status string) {
	DedupCheckDuration.WithLabelValues(status).Observe(durationMs(d))
}

func ObserveProviderDuration(d time.Duration, status string) {
	ProviderRequestDuration.WithLabelValues(status).Observe(durationMs(d))
}

func durationMs(d time.Duration) float64 {
	return float64(d.Nanoseconds()) / float64(time.Millisecond)
}

// SetCircuitBreakerState records a breaker state transition.
func SetCircuitBreakerState(name string, state int) {
	CircuitBreakerState.WithLabelValues(name).Set(float64(state))
}

// FormatLabel keeps label cardinality bounded for error-derived labels.
func FormatLabel(v interface{}, max int) string {
	s := fmt.Sprintf("%v", v)
	if len(s) > max {
		return s[:max]
	}
	return s
}
