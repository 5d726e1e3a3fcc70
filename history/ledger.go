// Package history keeps the engine's bounded in-memory records of
// detected anomalies and fired alerts, and exposes the query and
// aggregation surface consumed by the admin layer. Persistence to a
// durable store is deliberately out of scope; callers that need it sit
// behind the dispatcher boundary.
package history

import (
	"time"

	"go.uber.org/zap"

	"argus/core"
)

// AlertLedger is the bounded history of fired alerts. Alerts are never
// deleted individually; they age out via PruneOlderThan.
type AlertLedger struct {
	store  *core.BoundedHistory[*core.Alert]
	logger *zap.SugaredLogger
	now    func() time.Time
}

// NewAlertLedger creates a ledger capped at max alerts.
func NewAlertLedger(max int, logger *zap.SugaredLogger) *AlertLedger {
	if max <= 0 {
		max = core.DefaultAlertHistorySize
	}
	return &AlertLedger{
		store:  core.NewBoundedHistory(max, func(a *core.Alert) time.Time { return a.Timestamp }),
		logger: logger,
		now:    time.Now,
	}
}

// Append records a fired alert.
func (l *AlertLedger) Append(alert *core.Alert) {
	l.store.Append(alert)
}

// All returns the full bounded history, oldest first.
func (l *AlertLedger) All() []*core.Alert {
	return l.store.Snapshot()
}

// Active returns all alerts that have not been resolved.
func (l *AlertLedger) Active() []*core.Alert {
	return l.store.Filter(func(a *core.Alert) bool { return !a.Resolved })
}

// BySeverity returns all alerts with the given severity.
func (l *AlertLedger) BySeverity(severity core.Severity) []*core.Alert {
	return l.store.Filter(func(a *core.Alert) bool { return a.Severity == severity })
}

// Resolve marks the alert with the given id resolved. It is
// idempotent: resolving an unknown id is a safe no-op and resolving
// twice keeps the first resolution time. The return value reports
// whether the alert was found.
func (l *AlertLedger) Resolve(alertID string) bool {
	found := false
	now := l.now().UTC()
	l.store.Locked(func(alerts []*core.Alert) {
		for _, a := range alerts {
			if a.ID == alertID {
				a.Resolve(now)
				found = true
				return
			}
		}
	})
	if !found && l.logger != nil {
		l.logger.Debugw("resolve requested for unknown alert", "alert_id", alertID)
	}
	return found
}

// PruneOlderThan removes alerts older than maxAge. A non-positive
// maxAge falls back to the default 24h retention. Returns the number
// removed.
func (l *AlertLedger) PruneOlderThan(maxAge time.Duration) int {
	if maxAge <= 0 {
		maxAge = core.DefaultRetention
	}
	removed := l.store.PruneOlderThan(l.now().Add(-maxAge))
	if removed > 0 && l.logger != nil {
		l.logger.Infow("pruned alert history", "removed", removed, "max_age", maxAge)
	}
	return removed
}

// Len returns the number of stored alerts.
func (l *AlertLedger) Len() int {
	return l.store.Len()
}

// AnomalyStats summarizes the anomaly history in a single pass.
type AnomalyStats struct {
	Total      int                   `json:"total"`
	BySeverity map[core.Severity]int `json:"by_severity"`
	ByPattern  map[string]int        `json:"by_pattern"`
	// Recent counts anomalies detected within the last 24 hours.
	Recent int `json:"recent"`
}

// AnomalyLedger is the bounded history of anomaly detection results.
// Only results with IsAnomaly=true are recorded.
type AnomalyLedger struct {
	store  *core.BoundedHistory[core.AnomalyDetectionResult]
	logger *zap.SugaredLogger
	now    func() time.Time
}

// NewAnomalyLedger creates a ledger capped at max results.
func NewAnomalyLedger(max int, logger *zap.SugaredLogger) *AnomalyLedger {
	if max <= 0 {
		max = core.DefaultAnomalyHistorySize
	}
	return &AnomalyLedger{
		store: core.NewBoundedHistory(max, func(r core.AnomalyDetectionResult) time.Time {
			return r.Details.DetectedAt
		}),
		logger: logger,
		now:    time.Now,
	}
}

// Append records a detected anomaly.
func (l *AnomalyLedger) Append(result core.AnomalyDetectionResult) {
	l.store.Append(result)
}

// Recent returns up to limit of the most recent anomalies, newest
// first. A non-positive limit returns the whole history.
func (l *AnomalyLedger) Recent(limit int) []core.AnomalyDetectionResult {
	all := l.store.Snapshot()
	// Reverse so the newest entry comes first.
	for i, j := 0, len(all)-1; i < j; i, j = i+1, j-1 {
		all[i], all[j] = all[j], all[i]
	}
	if limit > 0 && len(all) > limit {
		all = all[:limit]
	}
	return all
}

// Stats computes counts by severity, by pattern id, and a recent count
// restricted to the last 24 hours. Computed in one pass, not cached.
func (l *AnomalyLedger) Stats() AnomalyStats {
	stats := AnomalyStats{
		BySeverity: make(map[core.Severity]int),
		ByPattern:  make(map[string]int),
	}
	cutoff := l.now().Add(-24 * time.Hour)
	for _, r := range l.store.Snapshot() {
		stats.Total++
		if r.Pattern != nil {
			stats.BySeverity[r.Pattern.Severity]++
			stats.ByPattern[r.Pattern.ID]++
		}
		if !r.Details.DetectedAt.Before(cutoff) {
			stats.Recent++
		}
	}
	return stats
}

// PruneOlderThan removes anomalies older than maxAge, defaulting to
// the 24h retention. Returns the number removed.
func (l *AnomalyLedger) PruneOlderThan(maxAge time.Duration) int {
	if maxAge <= 0 {
		maxAge = core.DefaultRetention
	}
	removed := l.store.PruneOlderThan(l.now().Add(-maxAge))
	if removed > 0 && l.logger != nil {
		l.logger.Infow("pruned anomaly history", "removed", removed, "max_age", maxAge)
	}
	return removed
}

// Len returns the number of stored anomalies.
func (l *AnomalyLedger) Len() int {
	return l.store.Len()
}
