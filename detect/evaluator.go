package detect

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"argus/core"
	"argus/history"
	"argus/metrics"
	"argus/notify"
)

// Confidence weights per matched sub-condition. Confidence accumulates
// additively and feeds the risk score via (1 + confidence).
const (
	confidenceUserAgent  = 0.3
	confidenceEndpoint   = 0.2
	confidenceThreshold  = 0.5
	confidenceAttributes = 0.8
)

// AnomalyEvaluator consumes incoming security events and matches them
// against the pattern registry using the event correlator. It sits on
// the caller's request-handling path, so per-event work is bounded by
// the pattern count and the correlator's bucket cap, with no blocking
// I/O.
type AnomalyEvaluator struct {
	registry   *PatternRegistry
	correlator *EventCorrelator
	ledger     *history.AnomalyLedger
	dispatcher notify.Dispatcher
	logger     *zap.SugaredLogger
}

// NewAnomalyEvaluator wires the evaluator. dispatcher may be nil for
// callers that only read results.
func NewAnomalyEvaluator(
	registry *PatternRegistry,
	correlator *EventCorrelator,
	ledger *history.AnomalyLedger,
	dispatcher notify.Dispatcher,
	logger *zap.SugaredLogger,
) *AnomalyEvaluator {
	return &AnomalyEvaluator{
		registry:   registry,
		correlator: correlator,
		ledger:     ledger,
		dispatcher: dispatcher,
		logger:     logger,
	}
}

// Evaluate records the event and evaluates it against every enabled
// pattern, returning one result per pattern. Callers filter on
// IsAnomaly. A failure while evaluating a single pattern is isolated:
// it is logged, scored as "no anomaly" for that pattern, and the
// remaining patterns still run.
func (e *AnomalyEvaluator) Evaluate(ctx context.Context, event *core.SecurityEvent) ([]core.AnomalyDetectionResult, error) {
	if event == nil {
		return nil, core.ErrNilEvent
	}

	start := time.Now()
	metrics.EventsEvaluated.Inc()

	// Record once per evaluate call, not once per pattern, so the
	// event counts itself exactly once toward window thresholds.
	e.correlator.Record(event)

	patterns := e.registry.GetAll()
	results := make([]core.AnomalyDetectionResult, 0, len(patterns))

	for _, pattern := range patterns {
		if !pattern.Enabled {
			continue
		}
		result := e.evaluatePattern(event, pattern)
		results = append(results, result)

		if result.IsAnomaly {
			metrics.AnomaliesDetected.WithLabelValues(pattern.ID, pattern.Severity.String()).Inc()
			e.ledger.Append(result)
			e.dispatchAnomaly(ctx, result, event)
		}
	}

	metrics.EvaluationDuration.Observe(time.Since(start).Seconds())
	return results, nil
}

// evaluatePattern matches one event against one pattern. Panics from a
// single pattern must never take down the reactive path, so they are
// recovered here and treated as "no anomaly".
func (e *AnomalyEvaluator) evaluatePattern(event *core.SecurityEvent, pattern *core.AnomalyPattern) (result core.AnomalyDetectionResult) {
	result = core.AnomalyDetectionResult{
		ResultID: uuid.New().String(),
		EventID:  event.EventID,
		Pattern:  pattern,
		Details: core.AnomalyDetails{
			DetectedAt: time.Now().UTC(),
		},
	}

	defer func() {
		if r := recover(); r != nil {
			metrics.PatternEvaluationErrors.WithLabelValues(pattern.ID).Inc()
			e.logger.Errorw("pattern evaluation failed",
				"pattern", pattern.ID,
				"event", event.EventID,
				"panic", r)
			result.IsAnomaly = false
			result.Confidence = 0
		}
	}()

	criteria := pattern.Criteria

	if criteria.EventType != "" && criteria.EventType != event.Type {
		return result
	}

	if re := pattern.UserAgentRegexp(); re != nil {
		if event.UserAgent == "" || !re.MatchString(event.UserAgent) {
			return result
		}
		result.Confidence += confidenceUserAgent
	}

	if re := pattern.EndpointRegexp(); re != nil {
		if event.Endpoint == "" || !re.MatchString(event.Endpoint) {
			return result
		}
		result.Confidence += confidenceEndpoint
	}

	occurrences := 0
	if pattern.IsTimeBased() {
		occurrences = e.correlator.CountInWindow(event, pattern.Window())
		result.Details.Occurrences = occurrences
		result.Details.WindowMinutes = criteria.WindowMinutes
		if occurrences >= criteria.Threshold {
			result.IsAnomaly = true
			result.Confidence += confidenceThreshold
		}
	} else {
		// Pure attribute-match rule: the attributes alone are anomalous.
		result.IsAnomaly = true
		result.Confidence += confidenceAttributes
	}

	result.Details.RiskScore = core.ComputeRiskScore(event.BaseScore, pattern.Severity, result.Confidence, occurrences)
	return result
}

// dispatchAnomaly forwards a detected anomaly. Delivery failure is
// logged and never rolls back recording.
func (e *AnomalyEvaluator) dispatchAnomaly(ctx context.Context, result core.AnomalyDetectionResult, event *core.SecurityEvent) {
	if e.dispatcher == nil {
		return
	}
	if err := e.dispatcher.DispatchAnomaly(ctx, &result, event); err != nil {
		metrics.DispatchFailures.WithLabelValues("anomaly").Inc()
		e.logger.Errorw("anomaly dispatch failed",
			"pattern", result.Pattern.ID,
			"event", event.EventID,
			"error", err)
	}
}
