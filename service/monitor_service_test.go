package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"argus/alerting"
	"argus/core"
	"argus/detect"
	"argus/history"
)

func newTestService(t *testing.T) (*MonitorService, *history.AlertLedger, *history.AnomalyLedger) {
	t.Helper()
	logger := zap.NewNop().Sugar()

	patterns, err := detect.NewPatternRegistry(detect.BuiltinPatterns(), logger)
	require.NoError(t, err)

	rule := &core.AlertRule{
		ID:       "high_error_rate",
		Name:     "High Error Rate",
		Enabled:  true,
		Severity: core.SeverityHigh,
		Message:  "errors up",
		Cooldown: time.Minute,
		Condition: func(ctx context.Context) (bool, error) {
			return false, nil
		},
	}
	rules, err := alerting.NewRuleRegistry([]*core.AlertRule{rule}, logger)
	require.NoError(t, err)

	alerts := history.NewAlertLedger(100, logger)
	anomalies := history.NewAnomalyLedger(100, logger)

	return NewMonitorService(patterns, rules, alerts, anomalies, logger), alerts, anomalies
}

func TestNewMonitorService_PanicsOnNilDependency(t *testing.T) {
	logger := zap.NewNop().Sugar()
	assert.Panics(t, func() {
		NewMonitorService(nil, nil, nil, nil, logger)
	})
}

func TestMonitorService_AlertQueries(t *testing.T) {
	s, alerts, _ := newTestService(t)

	now := time.Now().UTC()
	alerts.Append(&core.Alert{ID: "a1", RuleID: "r1", Severity: core.SeverityHigh, Timestamp: now})
	alerts.Append(&core.Alert{ID: "a2", RuleID: "r2", Severity: core.SeverityMedium, Timestamp: now})

	assert.Len(t, s.AllAlerts(), 2)
	assert.Len(t, s.ActiveAlerts(), 2)
	assert.Len(t, s.AlertsBySeverity(core.SeverityHigh), 1)

	assert.True(t, s.ResolveAlert("a1"))
	assert.False(t, s.ResolveAlert("missing"))
	assert.Len(t, s.ActiveAlerts(), 1)
	assert.Len(t, s.AllAlerts(), 2, "resolved alerts stay in history")
}

func TestMonitorService_AnomalyQueries(t *testing.T) {
	s, _, anomalies := newTestService(t)

	now := time.Now().UTC()
	anomalies.Append(core.AnomalyDetectionResult{
		ResultID:  "res-1",
		IsAnomaly: true,
		Pattern:   &core.AnomalyPattern{ID: "multiple_failed_logins", Severity: core.SeverityHigh},
		Details:   core.AnomalyDetails{DetectedAt: now},
	})

	require.Len(t, s.AnomalyHistory(10), 1)
	stats := s.AnomalyStats()
	assert.Equal(t, 1, stats.Total)
	assert.Equal(t, 1, stats.ByPattern["multiple_failed_logins"])
}

func TestMonitorService_RegistrySnapshots(t *testing.T) {
	s, _, _ := newTestService(t)
	assert.Len(t, s.Patterns(), len(detect.BuiltinPatterns()))
	assert.Len(t, s.AlertRules(), 1)
}

func TestMonitorService_Prune(t *testing.T) {
	s, alerts, anomalies := newTestService(t)

	now := time.Now().UTC()
	alerts.Append(&core.Alert{ID: "old", RuleID: "r1", Severity: core.SeverityLow, Timestamp: now.Add(-48 * time.Hour)})
	alerts.Append(&core.Alert{ID: "fresh", RuleID: "r1", Severity: core.SeverityLow, Timestamp: now})
	anomalies.Append(core.AnomalyDetectionResult{
		ResultID: "stale",
		Pattern:  &core.AnomalyPattern{ID: "p", Severity: core.SeverityLow},
		Details:  core.AnomalyDetails{DetectedAt: now.Add(-48 * time.Hour)},
	})

	removed := s.Prune(24 * time.Hour)
	assert.Equal(t, 2, removed)
	assert.Len(t, s.AllAlerts(), 1)
	assert.Empty(t, s.AnomalyHistory(0))
}
