package notify

import (
	"context"
	"sync"

	"argus/core"
)

// CapturedAnomaly pairs an anomaly result with the event that produced
// it, as seen by a mock dispatcher.
type CapturedAnomaly struct {
	Result *core.AnomalyDetectionResult
	Event  *core.SecurityEvent
}

// MockDispatcher captures dispatched notifications for tests. It can
// be told to fail to exercise the fire-and-forget error handling at
// the call sites.
type MockDispatcher struct {
	mu        sync.Mutex
	alerts    []*core.Alert
	anomalies []CapturedAnomaly
	// FailWith, when non-nil, is returned from every dispatch call.
	FailWith error
}

// NewMockDispatcher creates an empty capture dispatcher.
func NewMockDispatcher() *MockDispatcher {
	return &MockDispatcher{}
}

func (m *MockDispatcher) DispatchAlert(ctx context.Context, alert *core.Alert) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailWith != nil {
		return m.FailWith
	}
	m.alerts = append(m.alerts, alert)
	return nil
}

func (m *MockDispatcher) DispatchAnomaly(ctx context.Context, result *core.AnomalyDetectionResult, event *core.SecurityEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailWith != nil {
		return m.FailWith
	}
	m.anomalies = append(m.anomalies, CapturedAnomaly{Result: result, Event: event})
	return nil
}

// Alerts returns the captured alerts.
func (m *MockDispatcher) Alerts() []*core.Alert {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*core.Alert, len(m.alerts))
	copy(out, m.alerts)
	return out
}

// Anomalies returns the captured anomalies.
func (m *MockDispatcher) Anomalies() []CapturedAnomaly {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]CapturedAnomaly, len(m.anomalies))
	copy(out, m.anomalies)
	return out
}

// Reset clears the captured notifications.
func (m *MockDispatcher) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.alerts = nil
	m.anomalies = nil
}
