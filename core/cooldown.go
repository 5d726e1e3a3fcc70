package core

import (
	"sync"
	"time"
)

// CooldownGate tracks the last firing time per rule identifier and
// answers whether a rule may fire again. It suppresses alert storms:
// a rule whose condition stays true fires once per cooldown period.
type CooldownGate struct {
	mu        sync.Mutex
	lastFired map[string]time.Time
}

// NewCooldownGate creates an empty gate.
func NewCooldownGate() *CooldownGate {
	return &CooldownGate{
		lastFired: make(map[string]time.Time),
	}
}

// Allow reports whether the rule may fire at now, i.e. it has never
// fired or its cooldown has fully elapsed since the last firing.
func (g *CooldownGate) Allow(ruleID string, cooldown time.Duration, now time.Time) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	last, ok := g.lastFired[ruleID]
	if !ok {
		return true
	}
	return now.Sub(last) >= cooldown
}

// MarkFired records a firing for the rule at now.
func (g *CooldownGate) MarkFired(ruleID string, now time.Time) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.lastFired[ruleID] = now
}

// LastFired returns the last firing time for the rule, if any.
func (g *CooldownGate) LastFired(ruleID string) (time.Time, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	t, ok := g.lastFired[ruleID]
	return t, ok
}

// Reset clears all tracked firings.
func (g *CooldownGate) Reset() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.lastFired = make(map[string]time.Time)
}
