package metrics

import (
	"context"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"

	"argus/core"
)

// SnapshotProvider implements core.MetricsProvider on top of a
// prometheus Gatherer. Each Series call gathers a fresh snapshot; the
// scheduler polls at a coarse interval so the gather cost is
// negligible next to the rule conditions reading it.
type SnapshotProvider struct {
	gatherer prometheus.Gatherer
}

// NewSnapshotProvider creates a provider reading from the given
// gatherer. Pass prometheus.DefaultGatherer to read the process-wide
// registry.
func NewSnapshotProvider(gatherer prometheus.Gatherer) *SnapshotProvider {
	return &SnapshotProvider{gatherer: gatherer}
}

// Series looks up a metric family by name and flattens it into a
// core.MetricSeries. Histograms and summaries expose their sample sum
// and count as two labelled samples so conditions can derive averages.
func (p *SnapshotProvider) Series(ctx context.Context, name string) (core.MetricSeries, bool, error) {
	if err := ctx.Err(); err != nil {
		return core.MetricSeries{}, false, err
	}

	families, err := p.gatherer.Gather()
	if err != nil {
		return core.MetricSeries{}, false, fmt.Errorf("gather metrics: %w", err)
	}

	for _, family := range families {
		if family.GetName() != name {
			continue
		}
		return flattenFamily(family), true, nil
	}
	return core.MetricSeries{}, false, nil
}

func flattenFamily(family *dto.MetricFamily) core.MetricSeries {
	series := core.MetricSeries{Name: family.GetName()}
	for _, m := range family.GetMetric() {
		labels := make(map[string]string, len(m.GetLabel()))
		for _, lp := range m.GetLabel() {
			labels[lp.GetName()] = lp.GetValue()
		}

		switch {
		case m.GetCounter() != nil:
			series.Samples = append(series.Samples, core.MetricSample{
				Value:  m.GetCounter().GetValue(),
				Labels: labels,
			})
		case m.GetGauge() != nil:
			series.Samples = append(series.Samples, core.MetricSample{
				Value:  m.GetGauge().GetValue(),
				Labels: labels,
			})
		case m.GetHistogram() != nil:
			h := m.GetHistogram()
			series.Samples = append(series.Samples,
				core.MetricSample{Value: h.GetSampleSum(), Labels: withStat(labels, "sum")},
				core.MetricSample{Value: float64(h.GetSampleCount()), Labels: withStat(labels, "count")},
			)
		case m.GetSummary() != nil:
			s := m.GetSummary()
			series.Samples = append(series.Samples,
				core.MetricSample{Value: s.GetSampleSum(), Labels: withStat(labels, "sum")},
				core.MetricSample{Value: float64(s.GetSampleCount()), Labels: withStat(labels, "count")},
			)
		case m.GetUntyped() != nil:
			series.Samples = append(series.Samples, core.MetricSample{
				Value:  m.GetUntyped().GetValue(),
				Labels: labels,
			})
		}
	}
	return series
}

func withStat(labels map[string]string, stat string) map[string]string {
	out := make(map[string]string, len(labels)+1)
	for k, v := range labels {
		out[k] = v
	}
	out["__stat__"] = stat
	return out
}
