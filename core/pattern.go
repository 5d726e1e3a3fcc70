package core

import (
	"fmt"
	"regexp"
	"time"
)

// PatternCriteria is the match specification of an anomaly pattern.
// All fields are optional, but WindowMinutes and Threshold are paired:
// time-based rules always require a count threshold and vice versa.
// A pattern with neither is a pure attribute-match rule.
type PatternCriteria struct {
	EventType        EventType `json:"event_type,omitempty" yaml:"event_type"`
	UserAgentPattern string    `json:"user_agent_pattern,omitempty" yaml:"user_agent_pattern"`
	EndpointPattern  string    `json:"endpoint_pattern,omitempty" yaml:"endpoint_pattern"`
	WindowMinutes    int       `json:"window_minutes,omitempty" yaml:"window_minutes" validate:"gte=0"`
	Threshold        int       `json:"threshold,omitempty" yaml:"threshold" validate:"gte=0"`
}

// AnomalyPattern is a declarative, event-triggered detection rule.
// Patterns are created once at registry load and never mutated at
// runtime except for the Enabled flag, toggled via the registry.
type AnomalyPattern struct {
	ID          string          `json:"id" yaml:"id" validate:"required"`
	Name        string          `json:"name" yaml:"name" validate:"required"`
	Description string          `json:"description,omitempty" yaml:"description"`
	Severity    Severity        `json:"severity" yaml:"severity" validate:"required"`
	Enabled     bool            `json:"enabled" yaml:"enabled"`
	Criteria    PatternCriteria `json:"criteria" yaml:"criteria"`

	// Compiled once at registry load; nil when the corresponding
	// source pattern is empty.
	userAgentRe *regexp.Regexp
	endpointRe  *regexp.Regexp
}

// Window returns the pattern's sliding window as a duration, or zero
// for pure attribute-match patterns.
func (p *AnomalyPattern) Window() time.Duration {
	return time.Duration(p.Criteria.WindowMinutes) * time.Minute
}

// IsTimeBased reports whether the pattern counts occurrences over a
// sliding window.
func (p *AnomalyPattern) IsTimeBased() bool {
	return p.Criteria.WindowMinutes > 0
}

// Validate checks the pattern's structural invariants. Regex safety is
// checked separately by the registry before compilation.
func (p *AnomalyPattern) Validate() error {
	if p.ID == "" {
		return fmt.Errorf("%w: missing id", ErrInvalidPattern)
	}
	if !p.Severity.IsValid() {
		return fmt.Errorf("%w: pattern %s has invalid severity %q", ErrInvalidPattern, p.ID, p.Severity)
	}
	// Paired-field invariant: threshold without a window (or the
	// reverse) would silently misbehave at evaluation time.
	if (p.Criteria.WindowMinutes > 0) != (p.Criteria.Threshold > 0) {
		return fmt.Errorf("%w: pattern %s sets window_minutes and threshold inconsistently", ErrInvalidPattern, p.ID)
	}
	if p.Criteria.WindowMinutes < 0 || p.Criteria.Threshold < 0 {
		return fmt.Errorf("%w: pattern %s has negative window or threshold", ErrInvalidPattern, p.ID)
	}
	return nil
}

// CompileRegexes compiles the pattern's regular expressions using the
// supplied compiler and caches the results. Called once at registry
// load so malformed patterns fail fast, not at first use.
func (p *AnomalyPattern) CompileRegexes(compile func(string) (*regexp.Regexp, error)) error {
	if p.Criteria.UserAgentPattern != "" {
		re, err := compile(p.Criteria.UserAgentPattern)
		if err != nil {
			return fmt.Errorf("%w: pattern %s user_agent regex: %v", ErrInvalidPattern, p.ID, err)
		}
		p.userAgentRe = re
	}
	if p.Criteria.EndpointPattern != "" {
		re, err := compile(p.Criteria.EndpointPattern)
		if err != nil {
			return fmt.Errorf("%w: pattern %s endpoint regex: %v", ErrInvalidPattern, p.ID, err)
		}
		p.endpointRe = re
	}
	return nil
}

// UserAgentRegexp returns the compiled user agent matcher, or nil.
func (p *AnomalyPattern) UserAgentRegexp() *regexp.Regexp { return p.userAgentRe }

// EndpointRegexp returns the compiled endpoint matcher, or nil.
func (p *AnomalyPattern) EndpointRegexp() *regexp.Regexp { return p.endpointRe }

// AnomalyDetails carries the computed context attached to a detection
// result.
type AnomalyDetails struct {
	DetectedAt    time.Time `json:"detected_at"`
	Occurrences   int       `json:"occurrences"`
	WindowMinutes int       `json:"window_minutes"`
	RiskScore     float64   `json:"risk_score"`
}

// AnomalyDetectionResult is the outcome of evaluating one event against
// one pattern. Confidence accumulates additively per matched
// sub-condition and is deliberately not clamped; only the risk score is.
type AnomalyDetectionResult struct {
	ResultID   string          `json:"result_id"`
	EventID    string          `json:"event_id"`
	IsAnomaly  bool            `json:"is_anomaly"`
	Confidence float64         `json:"confidence"`
	Pattern    *AnomalyPattern `json:"pattern"`
	Details    AnomalyDetails  `json:"details"`
}
