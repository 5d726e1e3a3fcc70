// Package bootstrap is the composition root: it builds and owns the
// engine. The engine is instantiated once here and passed by handle to
// callers; nothing is reachable through global lookups.
package bootstrap

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"argus/alerting"
	"argus/config"
	"argus/core"
	"argus/detect"
	"argus/history"
	"argus/metrics"
	"argus/notify"
	"argus/service"
	"argus/util/goroutine"
)

// App owns every engine component and their lifecycles.
type App struct {
	cfg    *config.Config
	logger *zap.SugaredLogger

	correlator *detect.EventCorrelator
	patterns   *detect.PatternRegistry
	evaluator  *detect.AnomalyEvaluator
	rules      *alerting.RuleRegistry
	scheduler  *alerting.Scheduler
	monitor    *service.MonitorService

	mu          sync.Mutex
	pruneCancel context.CancelFunc
	pruneWg     sync.WaitGroup
	started     bool
}

// Option customizes App construction.
type Option func(*options)

type options struct {
	logger     *zap.SugaredLogger
	provider   core.MetricsProvider
	dispatcher notify.Dispatcher
	rules      []*core.AlertRule
}

// WithLogger supplies a logger instead of building one from config.
func WithLogger(logger *zap.SugaredLogger) Option {
	return func(o *options) { o.logger = logger }
}

// WithMetricsProvider injects the metrics snapshot the alert rule
// conditions read. Defaults to the process-wide prometheus registry.
func WithMetricsProvider(p core.MetricsProvider) Option {
	return func(o *options) { o.provider = p }
}

// WithDispatcher replaces the dispatcher built from the notification
// config.
func WithDispatcher(d notify.Dispatcher) Option {
	return func(o *options) { o.dispatcher = d }
}

// WithAlertRules replaces the built-in alert rule set.
func WithAlertRules(rules []*core.AlertRule) Option {
	return func(o *options) { o.rules = rules }
}

// NewApp builds the engine from configuration. Construction is
// fail-fast: an invalid pattern, rule or config aborts startup.
func NewApp(cfg *config.Config, opts ...Option) (*App, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	logger := o.logger
	if logger == nil {
		built, err := buildLogger(cfg.Logging)
		if err != nil {
			return nil, fmt.Errorf("build logger: %w", err)
		}
		logger = built
	}

	dispatcher := o.dispatcher
	if dispatcher == nil {
		built, err := buildDispatcher(cfg.Notifications, logger)
		if err != nil {
			return nil, err
		}
		dispatcher = built
	}

	provider := o.provider
	if provider == nil {
		provider = metrics.NewSnapshotProvider(prometheus.DefaultGatherer)
	}

	correlator, err := detect.NewEventCorrelator(cfg.Engine.MaxTrackedKeys, cfg.Engine.MaxEventsPerKey)
	if err != nil {
		return nil, fmt.Errorf("build correlator: %w", err)
	}

	patternList := detect.BuiltinPatterns()
	if cfg.Engine.PatternsFile != "" {
		extra, err := detect.LoadPatternsFile(cfg.Engine.PatternsFile, logger)
		if err != nil {
			return nil, err
		}
		patternList = detect.MergePatterns(patternList, extra)
	}
	patterns, err := detect.NewPatternRegistry(patternList, logger)
	if err != nil {
		return nil, err
	}

	anomalyLedger := history.NewAnomalyLedger(cfg.Engine.AnomalyHistorySize, logger)
	alertLedger := history.NewAlertLedger(cfg.Engine.AlertHistorySize, logger)

	evaluator := detect.NewAnomalyEvaluator(patterns, correlator, anomalyLedger, dispatcher, logger)

	ruleList := o.rules
	if ruleList == nil {
		ruleList = alerting.BuiltinRules(provider)
	}
	rules, err := alerting.NewRuleRegistry(ruleList, logger)
	if err != nil {
		return nil, err
	}

	scheduler := alerting.NewScheduler(
		rules,
		core.NewCooldownGate(),
		alertLedger,
		dispatcher,
		logger,
		alerting.WithInterval(cfg.Engine.TickInterval),
	)

	monitor := service.NewMonitorService(patterns, rules, alertLedger, anomalyLedger, logger)

	return &App{
		cfg:        cfg,
		logger:     logger,
		correlator: correlator,
		patterns:   patterns,
		evaluator:  evaluator,
		rules:      rules,
		scheduler:  scheduler,
		monitor:    monitor,
	}, nil
}

// buildLogger builds a zap logger from the logging config.
func buildLogger(cfg config.LoggingConfig) (*zap.SugaredLogger, error) {
	var zcfg zap.Config
	if cfg.Development {
		zcfg = zap.NewDevelopmentConfig()
	} else {
		zcfg = zap.NewProductionConfig()
	}
	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return nil, err
	}
	zcfg.Level = zap.NewAtomicLevelAt(level)
	logger, err := zcfg.Build()
	if err != nil {
		return nil, err
	}
	return logger.Sugar(), nil
}

// buildDispatcher assembles the dispatch fan-out from the notification
// config: the structured log always receives notifications, plus one
// webhook channel per enabled entry.
func buildDispatcher(configs []config.WebhookNotification, logger *zap.SugaredLogger) (notify.Dispatcher, error) {
	dispatchers := []notify.Dispatcher{notify.NewLogDispatcher(logger)}
	for i, nc := range configs {
		if !nc.Enabled {
			continue
		}
		wh, err := notify.NewWebhookDispatcher(notify.WebhookConfig{
			URL:           nc.URL,
			Method:        nc.Method,
			Headers:       nc.Headers,
			MinSeverity:   core.Severity(nc.MinSeverity),
			Timeout:       nc.Timeout,
			RatePerMinute: nc.RatePerMinute,
		}, logger)
		if err != nil {
			return nil, fmt.Errorf("notifications[%d]: %w", i, err)
		}
		dispatchers = append(dispatchers, wh)
	}
	if len(dispatchers) == 1 {
		return dispatchers[0], nil
	}
	return notify.NewMultiDispatcher(logger, dispatchers...), nil
}

// Evaluator returns the reactive path entry point.
func (a *App) Evaluator() *detect.AnomalyEvaluator { return a.evaluator }

// Monitor returns the read-only query surface.
func (a *App) Monitor() *service.MonitorService { return a.monitor }

// Scheduler returns the proactive path's scheduler.
func (a *App) Scheduler() *alerting.Scheduler { return a.scheduler }

// Logger returns the app logger.
func (a *App) Logger() *zap.SugaredLogger { return a.logger }

// Start launches the scheduler and the retention prune loop.
func (a *App) Start() {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.started {
		return
	}
	a.started = true

	a.scheduler.Start()

	ctx, cancel := context.WithCancel(context.Background())
	a.pruneCancel = cancel
	a.pruneWg.Add(1)
	go a.runPruneLoop(ctx)

	a.logger.Info("argus engine started")
}

// runPruneLoop applies retention periodically. The ledgers do not
// schedule pruning themselves; the app is the caller.
func (a *App) runPruneLoop(ctx context.Context) {
	defer a.pruneWg.Done()
	defer goroutine.Recover("retention-prune", a.logger)

	interval := a.cfg.Engine.PruneInterval
	if interval <= 0 {
		interval = time.Hour
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			a.monitor.Prune(a.cfg.Engine.Retention)
			a.correlator.PruneOlderThan(time.Now().Add(-a.cfg.Engine.Retention))
		case <-ctx.Done():
			return
		}
	}
}

// Shutdown stops the scheduler and prune loop. All state is
// in-memory; nothing else needs releasing.
func (a *App) Shutdown() {
	a.mu.Lock()
	if !a.started {
		a.mu.Unlock()
		return
	}
	a.started = false
	cancel := a.pruneCancel
	a.mu.Unlock()

	a.scheduler.Stop()
	cancel()
	a.pruneWg.Wait()
	_ = a.logger.Sync()
	a.logger.Info("argus engine stopped")
}

// WaitForShutdown blocks until SIGINT or SIGTERM.
func (a *App) WaitForShutdown() {
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	s := <-sig
	a.logger.Infow("shutdown signal received", "signal", s)
}
