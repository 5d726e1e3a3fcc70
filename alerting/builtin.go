package alerting

import (
	"context"
	"time"

	"argus/core"
)

// Thresholds for the built-in health rules.
const (
	errorRateThreshold    = 0.05
	errorRateMinRequests  = 20
	slowResponseThreshold = 1.0 // seconds, average
	memoryThresholdBytes  = 1 << 30
	goroutineThreshold    = 10000
)

// BuiltinRules returns the built-in health rule set. Conditions close
// over the injected metrics provider rather than reaching for a global
// registry, so each rule is independently testable against a fake
// provider. A missing series reads as "signal absent", not a failure.
func BuiltinRules(provider core.MetricsProvider) []*core.AlertRule {
	return []*core.AlertRule{
		{
			ID:        "high_error_rate",
			Name:      "High Error Rate",
			Enabled:   true,
			Severity:  core.SeverityHigh,
			Message:   "request error rate exceeded 5%",
			Cooldown:  300 * time.Second,
			Condition: highErrorRate(provider),
		},
		{
			ID:        "slow_response_time",
			Name:      "Slow Response Time",
			Enabled:   true,
			Severity:  core.SeverityMedium,
			Message:   "average request duration exceeded 1s",
			Cooldown:  300 * time.Second,
			Condition: slowResponseTime(provider),
		},
		{
			ID:        "high_memory_usage",
			Name:      "High Memory Usage",
			Enabled:   true,
			Severity:  core.SeverityMedium,
			Message:   "resident memory exceeded 1GiB",
			Cooldown:  600 * time.Second,
			Condition: gaugeAbove(provider, "process_resident_memory_bytes", memoryThresholdBytes),
		},
		{
			ID:        "high_goroutine_count",
			Name:      "High Goroutine Count",
			Enabled:   true,
			Severity:  core.SeverityHigh,
			Message:   "goroutine count exceeded 10000",
			Cooldown:  180 * time.Second,
			Condition: gaugeAbove(provider, "go_goroutines", goroutineThreshold),
		},
		{
			ID:        "notification_failures_rising",
			Name:      "Notification Failures Rising",
			Enabled:   true,
			Severity:  core.SeverityHigh,
			Message:   "notification dispatch failures increased since the last check",
			Cooldown:  180 * time.Second,
			Condition: counterRising(provider, "argus_dispatch_failures_total"),
		},
	}
}

// highErrorRate fires when errors/requests exceeds the threshold with
// a minimum request floor so quiet periods do not alert on noise.
func highErrorRate(provider core.MetricsProvider) core.ConditionFunc {
	return func(ctx context.Context) (bool, error) {
		requests, ok, err := provider.Series(ctx, "app_requests_total")
		if err != nil || !ok {
			return false, err
		}
		errors, ok, err := provider.Series(ctx, "app_errors_total")
		if err != nil || !ok {
			return false, err
		}
		total := requests.Sum()
		if total < errorRateMinRequests {
			return false, nil
		}
		return errors.Sum()/total > errorRateThreshold, nil
	}
}

// slowResponseTime fires when the average request duration, derived
// from the histogram's sum and count samples, exceeds the threshold.
func slowResponseTime(provider core.MetricsProvider) core.ConditionFunc {
	return func(ctx context.Context) (bool, error) {
		series, ok, err := provider.Series(ctx, "http_request_duration_seconds")
		if err != nil || !ok {
			return false, err
		}
		sum := series.SumWhere(map[string]string{"__stat__": "sum"})
		count := series.SumWhere(map[string]string{"__stat__": "count"})
		if count == 0 {
			return false, nil
		}
		return sum/count > slowResponseThreshold, nil
	}
}

// gaugeAbove fires when the summed gauge value exceeds the threshold.
func gaugeAbove(provider core.MetricsProvider, name string, threshold float64) core.ConditionFunc {
	return func(ctx context.Context) (bool, error) {
		series, ok, err := provider.Series(ctx, name)
		if err != nil || !ok {
			return false, err
		}
		return series.Sum() > threshold, nil
	}
}

// counterRising fires when a cumulative counter grew since the
// previous poll. The closure carries the last observed value; the
// scheduler evaluates rules sequentially, so no further
// synchronization is needed.
func counterRising(provider core.MetricsProvider, name string) core.ConditionFunc {
	var last float64
	var seen bool
	return func(ctx context.Context) (bool, error) {
		series, ok, err := provider.Series(ctx, name)
		if err != nil || !ok {
			return false, err
		}
		current := series.Sum()
		rising := seen && current > last
		last = current
		seen = true
		return rising, nil
	}
}
