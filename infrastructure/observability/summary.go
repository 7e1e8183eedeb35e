package observability

import (
	"context"
	"fmt"
	"io"
	"slices"
	"sort"
	"strings"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

// Series is one attribute set of a metric.
type Series struct {
	Labels string
	Value  float64
	Count  uint64
}

// Summary is a point-in-time reading of every metric recorded so far.
type Summary struct {
	// Metrics maps metric name to its series, sorted by labels.
	Metrics map[string][]Series
}

// Summary collects the in-process reader.
func (p *Provider) Summary(ctx context.Context) (Summary, error) {
	var rm metricdata.ResourceMetrics
	if err := p.reader.Collect(ctx, &rm); err != nil {
		return Summary{}, fmt.Errorf("collect metrics: %w", err)
	}

	s := Summary{Metrics: make(map[string][]Series)}
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			var series []Series
			switch data := m.Data.(type) {
			case metricdata.Sum[int64]:
				for _, dp := range data.DataPoints {
					series = append(series, Series{Labels: labels(dp.Attributes), Value: float64(dp.Value)})
				}
			case metricdata.Sum[float64]:
				for _, dp := range data.DataPoints {
					series = append(series, Series{Labels: labels(dp.Attributes), Value: dp.Value})
				}
			case metricdata.Histogram[float64]:
				for _, dp := range data.DataPoints {
					series = append(series, Series{Labels: labels(dp.Attributes), Value: dp.Sum, Count: dp.Count})
				}
			default:
				continue
			}
			sort.Slice(series, func(i, j int) bool { return series[i].Labels < series[j].Labels })
			s.Metrics[m.Name] = series
		}
	}
	return s, nil
}

// Total returns the sum of a metric across all series.
func (s Summary) Total(name string) float64 {
	var total float64
	for _, series := range s.Metrics[name] {
		total += series.Value
	}
	return total
}

// Value returns the value of the series carrying key=value.
func (s Summary) Value(name, key, value string) float64 {
	want := key + "=" + value
	var total float64
	for _, series := range s.Metrics[name] {
		if containsLabel(series.Labels, want) {
			total += series.Value
		}
	}
	return total
}

// WriteTo prints the summary, one series per line, sorted by metric name.
func (s Summary) WriteTo(w io.Writer) (int64, error) {
	names := make([]string, 0, len(s.Metrics))
	for name := range s.Metrics {
		names = append(names, name)
	}
	sort.Strings(names)

	var written int64
	for _, name := range names {
		for _, series := range s.Metrics[name] {
			line := fmt.Sprintf("%-28s %-40s %g", name, series.Labels, series.Value)
			if series.Count > 0 {
				line += fmt.Sprintf(" (n=%d)", series.Count)
			}
			n, err := fmt.Fprintln(w, line)
			written += int64(n)
			if err != nil {
				return written, err
			}
		}
	}
	return written, nil
}

func labels(set attribute.Set) string {
	parts := make([]string, 0, set.Len())
	iter := set.Iter()
	for iter.Next() {
		kv := iter.Attribute()
		parts = append(parts, string(kv.Key)+"="+kv.Value.Emit())
	}
	return strings.Join(parts, ",")
}

func containsLabel(labels, want string) bool {
	return slices.Contains(strings.Split(labels, ","), want)
}
