package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	EventsEvaluated = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "argus_events_evaluated_total",
			Help: "Total number of security events evaluated",
		},
	)

	AnomaliesDetected = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "argus_anomalies_detected_total",
			Help: "Total number of anomalies detected",
		},
		[]string{"pattern", "severity"},
	)

	PatternEvaluationErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "argus_pattern_evaluation_errors_total",
			Help: "Total number of isolated per-pattern evaluation failures",
		},
		[]string{"pattern"},
	)

	AlertsGenerated = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "argus_alerts_generated_total",
			Help: "Total number of alerts generated",
		},
		[]string{"severity"},
	)

	AlertsSuppressed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "argus_alerts_suppressed_total",
			Help: "Total number of alert firings suppressed by cooldown",
		},
		[]string{"rule"},
	)

	RuleEvaluationErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "argus_rule_evaluation_errors_total",
			Help: "Total number of isolated alert rule condition failures",
		},
		[]string{"rule"},
	)

	DispatchFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "argus_dispatch_failures_total",
			Help: "Total number of notification dispatch failures",
		},
		[]string{"kind"},
	)

	EvaluationDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "argus_event_evaluation_duration_seconds",
			Help:    "Time taken to evaluate one event against all patterns",
			Buckets: prometheus.DefBuckets,
		},
	)

	TickDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "argus_scheduler_tick_duration_seconds",
			Help:    "Time taken by one alert scheduler tick",
			Buckets: prometheus.DefBuckets,
		},
	)
)
