package core

import "time"

const (
	// MaxEventsPerKey caps the correlator bucket for a single correlation
	// key. Oldest entries are dropped first so memory stays bounded under
	// sustained attack traffic from one source.
	MaxEventsPerKey = 1000

	// MaxTrackedKeys bounds the number of correlation keys held at once.
	// Least recently active keys are evicted beyond this.
	MaxTrackedKeys = 10000

	// DefaultAnomalyHistorySize caps the anomaly ledger.
	DefaultAnomalyHistorySize = 1000

	// DefaultAlertHistorySize caps the alert ledger.
	DefaultAlertHistorySize = 1000

	// DefaultTickInterval is the alert scheduler's evaluation period.
	DefaultTickInterval = 30 * time.Second

	// DefaultRetention is the default prune age for both ledgers.
	DefaultRetention = 24 * time.Hour
)
