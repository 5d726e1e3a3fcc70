package alerting

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"argus/core"
	"argus/history"
	"argus/metrics"
	"argus/notify"
	"argus/util/goroutine"
)

// Scheduler drives the proactive alerting path: a recurring timer
// that, on each tick, evaluates every enabled rule's condition,
// consults the cooldown gate, and emits alerts. Rules are evaluated
// sequentially; one rule's failure or slowness never fails its
// siblings, and no two ticks run concurrently.
type Scheduler struct {
	registry   *RuleRegistry
	gate       *core.CooldownGate
	ledger     *history.AlertLedger
	dispatcher notify.Dispatcher
	logger     *zap.SugaredLogger

	interval time.Duration
	now      func() time.Time

	ticking atomic.Bool

	mu      sync.Mutex
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	started bool
}

// SchedulerOption customizes a Scheduler.
type SchedulerOption func(*Scheduler)

// WithInterval overrides the default 30s tick interval.
func WithInterval(d time.Duration) SchedulerOption {
	return func(s *Scheduler) {
		if d > 0 {
			s.interval = d
		}
	}
}

// WithClock injects the time source, letting tests drive cooldown
// windows without waiting on the wall clock.
func WithClock(now func() time.Time) SchedulerOption {
	return func(s *Scheduler) {
		if now != nil {
			s.now = now
		}
	}
}

// NewScheduler wires the scheduler. It does not start ticking until
// Start is called.
func NewScheduler(
	registry *RuleRegistry,
	gate *core.CooldownGate,
	ledger *history.AlertLedger,
	dispatcher notify.Dispatcher,
	logger *zap.SugaredLogger,
	opts ...SchedulerOption,
) *Scheduler {
	s := &Scheduler{
		registry:   registry,
		gate:       gate,
		ledger:     ledger,
		dispatcher: dispatcher,
		logger:     logger,
		interval:   core.DefaultTickInterval,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start launches the recurring evaluation loop. Calling Start on a
// running scheduler is a no-op.
func (s *Scheduler) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.started {
		return
	}
	s.started = true

	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel

	s.wg.Add(1)
	go s.run(ctx)

	s.logger.Infow("alert scheduler started", "interval", s.interval, "rules", s.registry.Len())
}

func (s *Scheduler) run(ctx context.Context) {
	defer s.wg.Done()
	defer goroutine.Recover("alert-scheduler", s.logger)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.RunTick(ctx)
		case <-ctx.Done():
			return
		}
	}
}

// RunTick evaluates all enabled rules once. Exported so tests and the
// composition root can drive evaluation without the timer. If a
// previous tick is still evaluating, the call is skipped rather than
// allowed to re-enter.
func (s *Scheduler) RunTick(ctx context.Context) {
	if !s.ticking.CompareAndSwap(false, true) {
		s.logger.Warn("alert scheduler tick skipped: previous tick still running")
		return
	}
	defer s.ticking.Store(false)

	start := time.Now()
	for _, rule := range s.registry.GetAll() {
		if !rule.Enabled {
			continue
		}
		s.evaluateRule(ctx, rule)
	}
	metrics.TickDuration.Observe(time.Since(start).Seconds())
}

// evaluateRule runs one rule's condition with full isolation: both
// returned errors and panics are confined to this rule for this tick,
// logged with the rule id, and retried naturally on the next tick.
func (s *Scheduler) evaluateRule(ctx context.Context, rule *core.AlertRule) {
	defer func() {
		if r := recover(); r != nil {
			metrics.RuleEvaluationErrors.WithLabelValues(rule.ID).Inc()
			s.logger.Errorw("alert rule condition panicked", "rule", rule.ID, "panic", r)
		}
	}()

	triggered, err := rule.Condition(ctx)
	if err != nil {
		metrics.RuleEvaluationErrors.WithLabelValues(rule.ID).Inc()
		s.logger.Errorw("alert rule condition failed", "rule", rule.ID, "error", err)
		return
	}
	if !triggered {
		return
	}

	now := s.now().UTC()
	if !s.gate.Allow(rule.ID, rule.Cooldown, now) {
		metrics.AlertsSuppressed.WithLabelValues(rule.ID).Inc()
		return
	}

	alert := core.NewAlert(rule, now)
	s.ledger.Append(alert)
	s.gate.MarkFired(rule.ID, now)
	if err := s.registry.MarkTriggered(rule.ID, now); err != nil {
		s.logger.Errorw("failed to record rule trigger time", "rule", rule.ID, "error", err)
	}
	metrics.AlertsGenerated.WithLabelValues(alert.Severity.String()).Inc()

	s.logger.Warnw("alert fired",
		"alert_id", alert.ID,
		"rule", rule.ID,
		"severity", alert.Severity,
		"message", alert.Message)

	if s.dispatcher != nil {
		if err := s.dispatcher.DispatchAlert(ctx, alert); err != nil {
			metrics.DispatchFailures.WithLabelValues("alert").Inc()
			s.logger.Errorw("alert dispatch failed", "alert_id", alert.ID, "error", err)
		}
	}
}

// Stop cancels the timer and waits for an in-flight tick to finish.
// All state is in-memory; nothing else is released.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if !s.started {
		s.mu.Unlock()
		return
	}
	s.started = false
	cancel := s.cancel
	s.mu.Unlock()

	cancel()

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		s.logger.Info("alert scheduler stopped")
	case <-time.After(10 * time.Second):
		s.logger.Warn("alert scheduler shutdown timed out after 10s")
	}
}
