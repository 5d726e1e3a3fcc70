package core

import (
	"time"

	"github.com/google/uuid"
)

// EventType identifies the kind of security event being reported.
// It is an open string type: callers may submit types outside the
// built-in set and patterns may match on them.
type EventType string

const (
	EventLoginSuccess       EventType = "login_success"
	EventLoginFailed        EventType = "login_failed"
	EventLogout             EventType = "logout"
	EventPasswordChange     EventType = "password_change"
	EventPasswordReset      EventType = "password_reset"
	EventAccountLocked      EventType = "account_locked"
	EventSuspiciousActivity EventType = "suspicious_activity"
	EventAdminAction        EventType = "admin_action"
	EventRateLimitExceeded  EventType = "rate_limit_exceeded"
	EventCSRFViolation      EventType = "csrf_violation"
)

// Severity classifies events, patterns, rules and alerts.
type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

// severityOrder ranks severities for min-severity filtering.
var severityOrder = map[Severity]int{
	SeverityLow:      1,
	SeverityMedium:   2,
	SeverityHigh:     3,
	SeverityCritical: 4,
}

// Rank returns the numeric order of the severity. Unknown severities
// rank as low so that filtering degrades permissively.
func (s Severity) Rank() int {
	if r, ok := severityOrder[s]; ok {
		return r
	}
	return 1
}

// AtLeast reports whether s is at or above min.
func (s Severity) AtLeast(min Severity) bool {
	return s.Rank() >= min.Rank()
}

// IsValid checks if the severity is one of the known levels.
func (s Severity) IsValid() bool {
	_, ok := severityOrder[s]
	return ok
}

// String returns the string representation.
func (s Severity) String() string {
	return string(s)
}

// SecurityEvent is one observed occurrence pushed into the engine by a
// caller. Events are immutable once created; the correlator keeps its
// own reference and never mutates them.
type SecurityEvent struct {
	EventID   string                 `json:"event_id"`
	Type      EventType              `json:"type"`
	UserID    string                 `json:"user_id,omitempty"`
	Email     string                 `json:"email,omitempty"`
	IPAddress string                 `json:"ip_address"`
	UserAgent string                 `json:"user_agent,omitempty"`
	Endpoint  string                 `json:"endpoint,omitempty"`
	Details   map[string]interface{} `json:"details,omitempty"`
	Timestamp time.Time              `json:"timestamp"`

	// Severity is the event's intrinsic classification and BaseScore its
	// numeric baseline in [0,1], both attached by the producer before
	// pattern weighting is applied.
	Severity  Severity `json:"severity"`
	BaseScore float64  `json:"base_score"`
}

// NewSecurityEvent creates an event with a generated ID and the current
// UTC timestamp. Callers on the hot path may construct the struct
// directly as long as IPAddress and Timestamp are set.
func NewSecurityEvent(eventType EventType, ipAddress string, severity Severity) *SecurityEvent {
	return &SecurityEvent{
		EventID:   uuid.New().String(),
		Type:      eventType,
		IPAddress: ipAddress,
		Timestamp: time.Now().UTC(),
		Severity:  severity,
		BaseScore: defaultBaseScore(severity),
	}
}

// defaultBaseScore maps a severity to a baseline score for producers
// that do not compute their own.
func defaultBaseScore(s Severity) float64 {
	switch s {
	case SeverityCritical:
		return 0.9
	case SeverityHigh:
		return 0.7
	case SeverityMedium:
		return 0.4
	default:
		return 0.2
	}
}
