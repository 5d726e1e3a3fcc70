package core

import "context"

// MetricSample is one observed value of a series with its label set.
type MetricSample struct {
	Value  float64
	Labels map[string]string
}

// MetricSeries is a named collection of samples.
type MetricSeries struct {
	Name    string
	Samples []MetricSample
}

// Sum returns the sum of all sample values.
func (s MetricSeries) Sum() float64 {
	var total float64
	for _, sample := range s.Samples {
		total += sample.Value
	}
	return total
}

// SumWhere returns the sum of samples whose labels include all of the
// given key/value pairs.
func (s MetricSeries) SumWhere(labels map[string]string) float64 {
	var total float64
	for _, sample := range s.Samples {
		if sampleHasLabels(sample, labels) {
			total += sample.Value
		}
	}
	return total
}

func sampleHasLabels(sample MetricSample, labels map[string]string) bool {
	for k, v := range labels {
		if sample.Labels[k] != v {
			return false
		}
	}
	return true
}

// MetricsProvider is the external metrics snapshot abstraction read by
// alert rule conditions. The engine treats it as an opaque injected
// dependency; conditions close over a handle rather than importing a
// global registry.
type MetricsProvider interface {
	// Series looks up a named series. ok is false when the series does
	// not exist in the current snapshot, which conditions treat as
	// "signal absent", not an error.
	Series(ctx context.Context, name string) (series MetricSeries, ok bool, err error)
}
