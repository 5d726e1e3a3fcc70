// Package service exposes the read-only query surface consumed by the
// surrounding admin/API layer. All read paths are side-effect-free
// snapshots; the only mutations are the explicit resolve and prune
// operations.
package service

import (
	"time"

	"go.uber.org/zap"

	"argus/alerting"
	"argus/core"
	"argus/detect"
	"argus/history"
)

// MonitorService is the query facade over the engine's registries and
// ledgers. It holds no state of its own.
type MonitorService struct {
	patterns  *detect.PatternRegistry
	rules     *alerting.RuleRegistry
	alerts    *history.AlertLedger
	anomalies *history.AnomalyLedger
	logger    *zap.SugaredLogger
}

// NewMonitorService creates the facade. All dependencies are required.
func NewMonitorService(
	patterns *detect.PatternRegistry,
	rules *alerting.RuleRegistry,
	alerts *history.AlertLedger,
	anomalies *history.AnomalyLedger,
	logger *zap.SugaredLogger,
) *MonitorService {
	if patterns == nil || rules == nil || alerts == nil || anomalies == nil {
		panic("monitor service requires all dependencies")
	}
	return &MonitorService{
		patterns:  patterns,
		rules:     rules,
		alerts:    alerts,
		anomalies: anomalies,
		logger:    logger,
	}
}

// ActiveAlerts returns all unresolved alerts.
func (s *MonitorService) ActiveAlerts() []*core.Alert {
	return s.alerts.Active()
}

// AllAlerts returns the full bounded alert history.
func (s *MonitorService) AllAlerts() []*core.Alert {
	return s.alerts.All()
}

// AlertsBySeverity returns alerts filtered by severity.
func (s *MonitorService) AlertsBySeverity(severity core.Severity) []*core.Alert {
	return s.alerts.BySeverity(severity)
}

// ResolveAlert resolves an alert by id. Unknown ids and repeat
// resolutions are safe no-ops; the return value reports whether the
// alert was found.
func (s *MonitorService) ResolveAlert(alertID string) bool {
	return s.alerts.Resolve(alertID)
}

// AnomalyHistory returns up to limit recent anomalies, newest first.
func (s *MonitorService) AnomalyHistory(limit int) []core.AnomalyDetectionResult {
	return s.anomalies.Recent(limit)
}

// AnomalyStats returns aggregate anomaly counts.
func (s *MonitorService) AnomalyStats() history.AnomalyStats {
	return s.anomalies.Stats()
}

// Patterns returns a snapshot of the registered anomaly patterns.
func (s *MonitorService) Patterns() []*core.AnomalyPattern {
	return s.patterns.GetAll()
}

// AlertRules returns a snapshot of the registered alert rules.
func (s *MonitorService) AlertRules() []*core.AlertRule {
	return s.rules.GetAll()
}

// Prune applies age-based retention to both ledgers and returns the
// total number of entries removed. The ledger does not schedule this
// itself; the composition root calls it periodically.
func (s *MonitorService) Prune(maxAge time.Duration) int {
	removed := s.alerts.PruneOlderThan(maxAge) + s.anomalies.PruneOlderThan(maxAge)
	if removed > 0 {
		s.logger.Infow("retention prune complete", "removed", removed)
	}
	return removed
}
