package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RedisErrorRate counts Redis errors by operation type.
	RedisErrorRate = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "referral_redis_error_rate_total",
		Help: "Total number of Redis errors by operation type",
	}, []string{"operation"})

	// DatabaseQueryLatency records database query latency by operation and table.
	DatabaseQueryLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "referral_database_query_latency_seconds",
		Help:    "Database query latency in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation", "table"})

	// ReferralCodesIssued counts codes written to a user row, by reason (issued, rotated, redeemed).
	ReferralCodesIssued = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "referral_codes_issued_total",
		Help: "Total number of referral codes assigned to users",
	}, []string{"reason"})

	// ReferralCodeCollisions counts generated codes rejected by the uniqueness constraint.
	ReferralCodeCollisions = promauto.NewCounter(prometheus.CounterOpts{
		Name: "referral_code_collisions_total",
		Help: "Total number of referral code collisions during generation",
	})

	// ReferralsRecorded counts successful referral attributions.
	ReferralsRecorded = promauto.NewCounter(prometheus.CounterOpts{
		Name: "referral_attributions_total",
		Help: "Total number of recorded referrals",
	})

	// MatchRequestTransitions counts match request lifecycle events by resulting status.
	MatchRequestTransitions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "referral_match_request_transitions_total",
		Help: "Total number of match request state transitions",
	}, []string{"status"})

	// ChatGateChecks counts chat eligibility checks by answer source and result.
	ChatGateChecks = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "referral_chat_gate_checks_total",
		Help: "Total number of chat gate checks",
	}, []string{"source", "result"})

	// NotificationsDispatched counts notification attempts by event type and outcome.
	NotificationsDispatched = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "referral_notifications_total",
		Help: "Total number of notification dispatch attempts",
	}, []string{"event_type", "outcome"})
)

// Outcome labels shared by counters.
const (
	OutcomeSent   = "sent"
	OutcomeFailed = "failed"
)

// ObserveQuery records the latency of a database query.
func ObserveQuery(operation, table string, start time.Time) {
	DatabaseQueryLatency.WithLabelValues(operation, table).Observe(time.Since(start).Seconds())
}

// TrackQuery returns a function that records query latency when called (e.g. defer).
func TrackQuery(operation, table string) func() {
	start := time.Now()
	return func() {
		ObserveQuery(operation, table, start)
	}
}

// RecordChatGate counts one chat gate answer.
func RecordChatGate(source string, allowed bool) {
	result := "denied"
	if allowed {
		result = "allowed"
	}
	ChatGateChecks.WithLabelValues(source, result).Inc()
}
