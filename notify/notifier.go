package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"argus/core"
)

// Dispatcher is the collaborator boundary through which the engine
// forwards created alerts and detected anomalies to external channels.
// Dispatch is fire-and-forget from the engine's point of view:
// failures are logged by the call site and never propagate back to
// abort alert creation or anomaly recording.
type Dispatcher interface {
	DispatchAlert(ctx context.Context, alert *core.Alert) error
	DispatchAnomaly(ctx context.Context, result *core.AnomalyDetectionResult, event *core.SecurityEvent) error
}

// LogDispatcher writes notifications to the structured log. It is the
// default channel when no webhook is configured.
type LogDispatcher struct {
	logger *zap.SugaredLogger
}

// NewLogDispatcher creates a dispatcher logging through the given
// logger.
func NewLogDispatcher(logger *zap.SugaredLogger) *LogDispatcher {
	return &LogDispatcher{logger: logger}
}

func (d *LogDispatcher) DispatchAlert(ctx context.Context, alert *core.Alert) error {
	d.logger.Warnw("ALERT",
		"alert_id", alert.ID,
		"rule", alert.RuleID,
		"severity", alert.Severity,
		"message", alert.Message)
	return nil
}

func (d *LogDispatcher) DispatchAnomaly(ctx context.Context, result *core.AnomalyDetectionResult, event *core.SecurityEvent) error {
	d.logger.Warnw("ANOMALY",
		"pattern", result.Pattern.ID,
		"severity", result.Pattern.Severity,
		"event", event.EventID,
		"ip", event.IPAddress,
		"confidence", result.Confidence,
		"risk_score", result.Details.RiskScore,
		"occurrences", result.Details.Occurrences)
	return nil
}

// WebhookConfig configures a webhook dispatch channel.
type WebhookConfig struct {
	URL     string            `mapstructure:"url"`
	Method  string            `mapstructure:"method"`
	Headers map[string]string `mapstructure:"headers"`
	// MinSeverity filters out notifications below the given level.
	MinSeverity core.Severity `mapstructure:"min_severity"`
	Timeout     time.Duration `mapstructure:"timeout"`
	// RatePerMinute caps outbound notifications so a detection storm
	// cannot flood the receiving endpoint. Zero disables the limit.
	RatePerMinute int `mapstructure:"rate_per_minute"`
}

// WebhookDispatcher posts notifications as JSON to a single endpoint.
// A circuit breaker backs off while the endpoint is failing and a rate
// limiter drops excess notifications during storms; both degrade to
// "this notification was not delivered", never to an engine failure.
type WebhookDispatcher struct {
	config  WebhookConfig
	client  *http.Client
	breaker *core.CircuitBreaker
	limiter *rate.Limiter
	logger  *zap.SugaredLogger
}

// NewWebhookDispatcher creates a dispatcher for the configured
// endpoint.
func NewWebhookDispatcher(config WebhookConfig, logger *zap.SugaredLogger) (*WebhookDispatcher, error) {
	if config.URL == "" {
		return nil, fmt.Errorf("webhook dispatcher requires a url")
	}
	if config.Method == "" {
		config.Method = http.MethodPost
	}
	if config.Timeout <= 0 {
		config.Timeout = 10 * time.Second
	}

	var limiter *rate.Limiter
	if config.RatePerMinute > 0 {
		limiter = rate.NewLimiter(rate.Every(time.Minute/time.Duration(config.RatePerMinute)), config.RatePerMinute)
	}

	return &WebhookDispatcher{
		config:  config,
		client:  &http.Client{Timeout: config.Timeout},
		breaker: core.NewCircuitBreaker(3, 60*time.Second),
		limiter: limiter,
		logger:  logger,
	}, nil
}

// webhookPayload is the wire shape of a webhook notification.
type webhookPayload struct {
	Kind      string      `json:"kind"`
	Timestamp time.Time   `json:"timestamp"`
	Body      interface{} `json:"body"`
}

func (d *WebhookDispatcher) DispatchAlert(ctx context.Context, alert *core.Alert) error {
	if !alert.Severity.AtLeast(d.config.MinSeverity) {
		return nil
	}
	return d.send(ctx, webhookPayload{Kind: "alert", Timestamp: time.Now().UTC(), Body: alert})
}

func (d *WebhookDispatcher) DispatchAnomaly(ctx context.Context, result *core.AnomalyDetectionResult, event *core.SecurityEvent) error {
	if !result.Pattern.Severity.AtLeast(d.config.MinSeverity) {
		return nil
	}
	body := struct {
		Result *core.AnomalyDetectionResult `json:"result"`
		Event  *core.SecurityEvent          `json:"event"`
	}{result, event}
	return d.send(ctx, webhookPayload{Kind: "anomaly", Timestamp: time.Now().UTC(), Body: body})
}

func (d *WebhookDispatcher) send(ctx context.Context, payload webhookPayload) error {
	if d.limiter != nil && !d.limiter.Allow() {
		d.logger.Warnw("webhook notification dropped by rate limit", "url", d.config.URL, "kind", payload.Kind)
		return nil
	}
	if err := d.breaker.Allow(); err != nil {
		return fmt.Errorf("webhook %s: %w", d.config.URL, err)
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal webhook payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, d.config.Method, d.config.URL, bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("build webhook request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range d.config.Headers {
		req.Header.Set(k, v)
	}

	resp, err := d.client.Do(req)
	if err != nil {
		d.breaker.RecordFailure()
		return fmt.Errorf("webhook %s: %w", d.config.URL, err)
	}
	defer func() {
		io.Copy(io.Discard, resp.Body)
		resp.Body.Close()
	}()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		d.breaker.RecordFailure()
		return fmt.Errorf("webhook %s returned status %d", d.config.URL, resp.StatusCode)
	}

	d.breaker.RecordSuccess()
	return nil
}

// MultiDispatcher fans a notification out to several channels. Each
// channel's failure is logged and the remaining channels still
// receive the notification; the engine sees success.
type MultiDispatcher struct {
	dispatchers []Dispatcher
	logger      *zap.SugaredLogger
}

// NewMultiDispatcher creates a fan-out over the given dispatchers.
func NewMultiDispatcher(logger *zap.SugaredLogger, dispatchers ...Dispatcher) *MultiDispatcher {
	return &MultiDispatcher{dispatchers: dispatchers, logger: logger}
}

func (d *MultiDispatcher) DispatchAlert(ctx context.Context, alert *core.Alert) error {
	for _, inner := range d.dispatchers {
		if err := inner.DispatchAlert(ctx, alert); err != nil {
			d.logger.Errorw("alert dispatch channel failed", "alert_id", alert.ID, "error", err)
		}
	}
	return nil
}

func (d *MultiDispatcher) DispatchAnomaly(ctx context.Context, result *core.AnomalyDetectionResult, event *core.SecurityEvent) error {
	for _, inner := range d.dispatchers {
		if err := inner.DispatchAnomaly(ctx, result, event); err != nil {
			d.logger.Errorw("anomaly dispatch channel failed", "pattern", result.Pattern.ID, "error", err)
		}
	}
	return nil
}
