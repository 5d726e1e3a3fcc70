package detect

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"argus/core"
	"argus/history"
	"argus/notify"
)

func newTestEvaluator(t *testing.T, patterns []*core.AnomalyPattern, dispatcher notify.Dispatcher) (*AnomalyEvaluator, *history.AnomalyLedger) {
	t.Helper()
	logger := zap.NewNop().Sugar()

	registry, err := NewPatternRegistry(patterns, logger)
	require.NoError(t, err)
	correlator, err := NewEventCorrelator(100, 100)
	require.NoError(t, err)
	ledger := history.NewAnomalyLedger(100, logger)

	return NewAnomalyEvaluator(registry, correlator, ledger, dispatcher, logger), ledger
}

func resultFor(t *testing.T, results []core.AnomalyDetectionResult, patternID string) core.AnomalyDetectionResult {
	t.Helper()
	for _, r := range results {
		if r.Pattern != nil && r.Pattern.ID == patternID {
			return r
		}
	}
	t.Fatalf("no result for pattern %s", patternID)
	return core.AnomalyDetectionResult{}
}

func TestEvaluate_NilEvent(t *testing.T) {
	e, _ := newTestEvaluator(t, BuiltinPatterns(), nil)
	_, err := e.Evaluate(context.Background(), nil)
	assert.ErrorIs(t, err, core.ErrNilEvent)
}

func TestEvaluate_FailedLoginBurstFiresOnFifthEvent(t *testing.T) {
	dispatcher := notify.NewMockDispatcher()
	e, ledger := newTestEvaluator(t, BuiltinPatterns(), dispatcher)

	base := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	ctx := context.Background()

	for i := 0; i < 4; i++ {
		ev := &core.SecurityEvent{
			EventID:   core.NewSecurityEvent(core.EventLoginFailed, "192.168.1.50", core.SeverityHigh).EventID,
			Type:      core.EventLoginFailed,
			IPAddress: "192.168.1.50",
			Timestamp: base.Add(time.Duration(i) * time.Minute),
			Severity:  core.SeverityHigh,
			BaseScore: 0.7,
		}
		results, err := e.Evaluate(ctx, ev)
		require.NoError(t, err)
		r := resultFor(t, results, "multiple_failed_logins")
		assert.False(t, r.IsAnomaly, "event %d should not trigger", i+1)
		assert.Equal(t, i+1, r.Details.Occurrences)
	}

	fifth := &core.SecurityEvent{
		EventID:   "ev-5",
		Type:      core.EventLoginFailed,
		IPAddress: "192.168.1.50",
		Timestamp: base.Add(4 * time.Minute),
		Severity:  core.SeverityHigh,
		BaseScore: 0.7,
	}
	results, err := e.Evaluate(ctx, fifth)
	require.NoError(t, err)

	r := resultFor(t, results, "multiple_failed_logins")
	assert.True(t, r.IsAnomaly)
	assert.Equal(t, 5, r.Details.Occurrences)
	assert.Equal(t, 15, r.Details.WindowMinutes)
	assert.InDelta(t, 0.5, r.Confidence, 1e-9)
	assert.Equal(t, "ev-5", r.EventID)
	assert.NotEmpty(t, r.ResultID)
	// 0.7 * 2.0 * 1.5 * 1.5 = 3.15, clamped.
	assert.Equal(t, 1.0, r.Details.RiskScore)

	assert.Equal(t, 1, ledger.Len())
	require.Len(t, dispatcher.Anomalies(), 1)
	assert.Equal(t, "multiple_failed_logins", dispatcher.Anomalies()[0].Result.Pattern.ID)
}

func TestEvaluate_SuspiciousUserAgentSingleEvent(t *testing.T) {
	e, ledger := newTestEvaluator(t, BuiltinPatterns(), nil)

	ev := &core.SecurityEvent{
		EventID:   "ev-ua",
		Type:      core.EventLoginSuccess,
		IPAddress: "10.0.0.7",
		UserAgent: "python-requests curl-test",
		Timestamp: time.Now().UTC(),
		Severity:  core.SeverityLow,
		BaseScore: 0.2,
	}
	results, err := e.Evaluate(context.Background(), ev)
	require.NoError(t, err)

	r := resultFor(t, results, "suspicious_user_agent")
	assert.True(t, r.IsAnomaly)
	// 0.3 for the user agent match plus 0.8 for a pure attribute rule.
	assert.InDelta(t, 1.1, r.Confidence, 1e-9)
	assert.Equal(t, 0, r.Details.Occurrences)
	// 0.2 * 1.5 * 2.1 * 1 = 0.63, under the clamp.
	assert.InDelta(t, 0.63, r.Details.RiskScore, 1e-9)

	assert.Equal(t, 1, ledger.Len())
}

func TestEvaluate_UserAgentCaseInsensitive(t *testing.T) {
	e, _ := newTestEvaluator(t, BuiltinPatterns(), nil)

	ev := &core.SecurityEvent{
		EventID:   "ev-ua-upper",
		Type:      core.EventLoginSuccess,
		IPAddress: "10.0.0.7",
		UserAgent: "GoogleBot/2.1",
		Timestamp: time.Now().UTC(),
		Severity:  core.SeverityLow,
		BaseScore: 0.2,
	}
	results, err := e.Evaluate(context.Background(), ev)
	require.NoError(t, err)
	assert.True(t, resultFor(t, results, "suspicious_user_agent").IsAnomaly)
}

func TestEvaluate_CSRFViolationIsPureAttributeMatch(t *testing.T) {
	e, _ := newTestEvaluator(t, BuiltinPatterns(), nil)

	ev := &core.SecurityEvent{
		EventID:   "ev-csrf",
		Type:      core.EventCSRFViolation,
		IPAddress: "10.0.0.8",
		Timestamp: time.Now().UTC(),
		Severity:  core.SeverityCritical,
		BaseScore: 0.9,
	}
	results, err := e.Evaluate(context.Background(), ev)
	require.NoError(t, err)

	r := resultFor(t, results, "csrf_violation_detected")
	assert.True(t, r.IsAnomaly)
	assert.InDelta(t, 0.8, r.Confidence, 1e-9)
}

func TestEvaluate_EventTypeMismatchIsNotAnomalous(t *testing.T) {
	e, _ := newTestEvaluator(t, BuiltinPatterns(), nil)

	ev := &core.SecurityEvent{
		EventID:   "ev-ok",
		Type:      core.EventLoginSuccess,
		IPAddress: "10.0.0.9",
		UserAgent: "Mozilla/5.0",
		Timestamp: time.Now().UTC(),
		Severity:  core.SeverityLow,
		BaseScore: 0.2,
	}
	results, err := e.Evaluate(context.Background(), ev)
	require.NoError(t, err)
	for _, r := range results {
		assert.False(t, r.IsAnomaly, "pattern %s", r.Pattern.ID)
		assert.Zero(t, r.Confidence)
	}
}

func TestEvaluate_DisabledPatternsAreSkipped(t *testing.T) {
	e, _ := newTestEvaluator(t, BuiltinPatterns(), nil)
	require.NoError(t, e.registry.SetEnabled("suspicious_user_agent", false))

	ev := &core.SecurityEvent{
		EventID:   "ev-disabled",
		Type:      core.EventLoginSuccess,
		IPAddress: "10.0.0.10",
		UserAgent: "curl/8.0",
		Timestamp: time.Now().UTC(),
		Severity:  core.SeverityLow,
		BaseScore: 0.2,
	}
	results, err := e.Evaluate(context.Background(), ev)
	require.NoError(t, err)
	for _, r := range results {
		assert.NotEqual(t, "suspicious_user_agent", r.Pattern.ID)
	}
}

func TestEvaluate_DispatchFailureStillRecordsAnomaly(t *testing.T) {
	dispatcher := notify.NewMockDispatcher()
	dispatcher.FailWith = errors.New("webhook down")
	e, ledger := newTestEvaluator(t, BuiltinPatterns(), dispatcher)

	ev := &core.SecurityEvent{
		EventID:   "ev-fail",
		Type:      core.EventCSRFViolation,
		IPAddress: "10.0.0.11",
		Timestamp: time.Now().UTC(),
		Severity:  core.SeverityCritical,
		BaseScore: 0.9,
	}
	results, err := e.Evaluate(context.Background(), ev)
	require.NoError(t, err)

	assert.True(t, resultFor(t, results, "csrf_violation_detected").IsAnomaly)
	assert.Equal(t, 1, ledger.Len(), "delivery failure must not roll back recording")
}

func TestEvaluate_AdminEndpointProbing(t *testing.T) {
	e, _ := newTestEvaluator(t, BuiltinPatterns(), nil)

	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	ctx := context.Background()
	var last core.AnomalyDetectionResult
	for i := 0; i < 10; i++ {
		ev := &core.SecurityEvent{
			EventID:   "ev-probe",
			Type:      core.EventSuspiciousActivity,
			IPAddress: "10.0.0.12",
			Endpoint:  "/api/admin/users",
			Timestamp: base.Add(time.Duration(i) * 30 * time.Second),
			Severity:  core.SeverityMedium,
			BaseScore: 0.4,
		}
		results, err := e.Evaluate(ctx, ev)
		require.NoError(t, err)
		last = resultFor(t, results, "admin_endpoint_probing")
	}

	assert.True(t, last.IsAnomaly)
	assert.Equal(t, 10, last.Details.Occurrences)
	// 0.2 endpoint match plus 0.5 threshold.
	assert.InDelta(t, 0.7, last.Confidence, 1e-9)
}

func TestEvaluate_ConcurrentWithPatternToggle(t *testing.T) {
	e, _ := newTestEvaluator(t, BuiltinPatterns(), nil)
	ctx := context.Background()

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		for i := 0; i < 500; i++ {
			ev := &core.SecurityEvent{
				EventID:   fmt.Sprintf("ev-%d", i),
				Type:      core.EventLoginFailed,
				IPAddress: "10.0.0.99",
				Timestamp: time.Now().UTC(),
				Severity:  core.SeverityHigh,
				BaseScore: 0.7,
			}
			if _, err := e.Evaluate(ctx, ev); err != nil {
				t.Error(err)
				return
			}
		}
	}()
	go func() {
		defer wg.Done()
		for i := 0; i < 500; i++ {
			_ = e.registry.SetEnabled("multiple_failed_logins", i%2 == 0)
		}
	}()
	wg.Wait()
}

func TestEvaluate_EndpointPatternRequiresEndpoint(t *testing.T) {
	e, _ := newTestEvaluator(t, BuiltinPatterns(), nil)

	ev := &core.SecurityEvent{
		EventID:   "ev-noendpoint",
		Type:      core.EventSuspiciousActivity,
		IPAddress: "10.0.0.13",
		Timestamp: time.Now().UTC(),
		Severity:  core.SeverityMedium,
		BaseScore: 0.4,
	}
	results, err := e.Evaluate(context.Background(), ev)
	require.NoError(t, err)
	assert.False(t, resultFor(t, results, "admin_endpoint_probing").IsAnomaly)
}
