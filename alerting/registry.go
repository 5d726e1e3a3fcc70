// Package alerting implements the proactive half of the engine: a
// registry of poll-triggered health rules and the scheduler that
// evaluates them on a fixed interval with per-rule cooldowns.
package alerting

import (
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"argus/core"
)

// RuleRegistry owns the set of alert rules. Rules are loaded once at
// construction and validated fail-fast; LastTriggered is mutated only
// through MarkTriggered, called by the scheduler after a firing.
type RuleRegistry struct {
	mu     sync.RWMutex
	rules  []*core.AlertRule
	byID   map[string]*core.AlertRule
	logger *zap.SugaredLogger
}

// NewRuleRegistry validates and indexes the given rules.
func NewRuleRegistry(rules []*core.AlertRule, logger *zap.SugaredLogger) (*RuleRegistry, error) {
	byID := make(map[string]*core.AlertRule, len(rules))
	for _, r := range rules {
		if err := r.Validate(); err != nil {
			return nil, err
		}
		if _, exists := byID[r.ID]; exists {
			return nil, fmt.Errorf("%w: alert rule %s", core.ErrDuplicateID, r.ID)
		}
		byID[r.ID] = r
	}

	logger.Infow("alert rule registry loaded", "rules", len(rules))

	return &RuleRegistry{
		rules:  rules,
		byID:   byID,
		logger: logger,
	}, nil
}

// GetAll returns a snapshot of the registered rules. Each entry is a
// copy taken under the registry lock: Enabled and LastTriggered are
// written under the same lock by SetEnabled and MarkTriggered, so
// handing out live pointers would race with the scheduler and the
// query surface reading them.
func (r *RuleRegistry) GetAll() []*core.AlertRule {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*core.AlertRule, len(r.rules))
	for i, rule := range r.rules {
		c := *rule
		out[i] = &c
	}
	return out
}

// Get returns a copy of the rule with the given id.
func (r *RuleRegistry) Get(id string) (*core.AlertRule, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	rule, ok := r.byID[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", core.ErrUnknownRule, id)
	}
	c := *rule
	return &c, nil
}

// SetEnabled toggles a rule on or off.
func (r *RuleRegistry) SetEnabled(id string, enabled bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	rule, ok := r.byID[id]
	if !ok {
		return fmt.Errorf("%w: %s", core.ErrUnknownRule, id)
	}
	rule.Enabled = enabled
	r.logger.Infow("alert rule toggled", "rule", id, "enabled", enabled)
	return nil
}

// MarkTriggered records a firing time on the rule.
func (r *RuleRegistry) MarkTriggered(id string, t time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	rule, ok := r.byID[id]
	if !ok {
		return fmt.Errorf("%w: %s", core.ErrUnknownRule, id)
	}
	rule.LastTriggered = t
	return nil
}

// Len returns the number of registered rules.
func (r *RuleRegistry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.rules)
}
