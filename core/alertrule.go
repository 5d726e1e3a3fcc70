package core

import (
	"context"
	"fmt"
	"time"
)

// ConditionFunc is a poll-based rule's health check. It typically
// closes over a MetricsProvider handle injected at rule construction.
// Implementations may block on external reads; the scheduler bounds
// them with its tick context. Errors are attributed to the rule id and
// never abort sibling rules.
type ConditionFunc func(ctx context.Context) (bool, error)

// AlertRule is a declarative, poll-triggered health-condition rule.
// LastTriggered is the only mutable field and is written only by the
// scheduler after a firing.
type AlertRule struct {
	ID       string
	Name     string
	Enabled  bool
	Severity Severity
	Message  string
	Cooldown time.Duration

	Condition ConditionFunc

	// LastTriggered is zero when the rule has never fired.
	LastTriggered time.Time
}

// Validate checks the rule's structural invariants at registry load.
func (r *AlertRule) Validate() error {
	if r.ID == "" {
		return fmt.Errorf("%w: missing id", ErrInvalidRule)
	}
	if r.Condition == nil {
		return fmt.Errorf("%w: rule %s has no condition", ErrInvalidRule, r.ID)
	}
	if !r.Severity.IsValid() {
		return fmt.Errorf("%w: rule %s has invalid severity %q", ErrInvalidRule, r.ID, r.Severity)
	}
	if r.Cooldown <= 0 {
		return fmt.Errorf("%w: rule %s has non-positive cooldown", ErrInvalidRule, r.ID)
	}
	return nil
}

// Alert is one firing instance of an alert rule. Alerts are mutated
// only by an explicit resolve and removed only by bulk age pruning.
type Alert struct {
	ID         string     `json:"id"`
	RuleID     string     `json:"rule_id"`
	Severity   Severity   `json:"severity"`
	Message    string     `json:"message"`
	Timestamp  time.Time  `json:"timestamp"`
	Resolved   bool       `json:"resolved"`
	ResolvedAt *time.Time `json:"resolved_at,omitempty"`
}

// NewAlert creates an alert for a rule firing at the given instant.
// The id is derived from the rule id and creation time so repeated
// firings of one rule stay distinguishable.
func NewAlert(rule *AlertRule, now time.Time) *Alert {
	return &Alert{
		ID:        fmt.Sprintf("%s-%d", rule.ID, now.UnixNano()),
		RuleID:    rule.ID,
		Severity:  rule.Severity,
		Message:   rule.Message,
		Timestamp: now,
	}
}

// Resolve marks the alert resolved at the given time. Resolving an
// already-resolved alert is a no-op: the first resolution time wins.
func (a *Alert) Resolve(now time.Time) {
	if a.Resolved {
		return
	}
	a.Resolved = true
	t := now
	a.ResolvedAt = &t
}
