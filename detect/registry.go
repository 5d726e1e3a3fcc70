package detect

import (
	"fmt"
	"sync"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"argus/core"
	"argus/util"
)

// PatternRegistry holds the set of anomaly patterns. Patterns are
// loaded once at construction, validated fail-fast, and their regexes
// compiled up front. The only runtime mutation is per-pattern
// enable/disable.
type PatternRegistry struct {
	mu       sync.RWMutex
	patterns []*core.AnomalyPattern
	byID     map[string]*core.AnomalyPattern
	logger   *zap.SugaredLogger
}

var patternValidate = validator.New()

// NewPatternRegistry validates, compiles and indexes the given
// patterns. A single invalid pattern fails the whole load: a silently
// dropped rule is worse than a startup error.
func NewPatternRegistry(patterns []*core.AnomalyPattern, logger *zap.SugaredLogger) (*PatternRegistry, error) {
	rv := util.NewRegexValidator()
	byID := make(map[string]*core.AnomalyPattern, len(patterns))

	for _, p := range patterns {
		if err := patternValidate.Struct(p); err != nil {
			return nil, fmt.Errorf("%w: pattern %q: %v", core.ErrInvalidPattern, p.ID, err)
		}
		if err := p.Validate(); err != nil {
			return nil, err
		}
		if _, exists := byID[p.ID]; exists {
			return nil, fmt.Errorf("%w: pattern %s", core.ErrDuplicateID, p.ID)
		}
		if err := p.CompileRegexes(rv.Compile); err != nil {
			return nil, err
		}
		byID[p.ID] = p
	}

	logger.Infow("pattern registry loaded", "patterns", len(patterns))

	return &PatternRegistry{
		patterns: patterns,
		byID:     byID,
		logger:   logger,
	}, nil
}

// GetAll returns a snapshot of the registered patterns. Each entry is
// a copy taken under the registry lock: the Enabled flag is written by
// SetEnabled under the same lock, so handing out live pointers would
// race with the evaluator reading it.
func (r *PatternRegistry) GetAll() []*core.AnomalyPattern {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*core.AnomalyPattern, len(r.patterns))
	for i, p := range r.patterns {
		c := *p
		out[i] = &c
	}
	return out
}

// Get returns a copy of the pattern with the given id.
func (r *PatternRegistry) Get(id string) (*core.AnomalyPattern, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.byID[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", core.ErrUnknownPattern, id)
	}
	c := *p
	return &c, nil
}

// SetEnabled toggles a pattern on or off.
func (r *PatternRegistry) SetEnabled(id string, enabled bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.byID[id]
	if !ok {
		return fmt.Errorf("%w: %s", core.ErrUnknownPattern, id)
	}
	p.Enabled = enabled
	r.logger.Infow("pattern toggled", "pattern", id, "enabled", enabled)
	return nil
}

// Len returns the number of registered patterns.
func (r *PatternRegistry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.patterns)
}
