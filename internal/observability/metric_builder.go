package observability

import (
	"fmt"

	"go.opentelemetry.io/otel/metric"
)

// metricNamespace prefixes every rbbench instrument name.
const metricNamespace = "rbbench."

// durationBucketBoundaries covers 100µs to 10 minutes: small rounds finish in
// microseconds, the largest ones take minutes.
var durationBucketBoundaries = []float64{0.0001, 0.001, 0.01, 0.1, 0.5, 1, 5, 10, 30, 60, 300, 600}

// metricBuilder creates the instruments behind BenchMetrics under the
// rbbench namespace. It keeps the first creation error, so NewBenchMetrics
// checks once after building the whole set.
type metricBuilder struct {
	meter metric.Meter
	err   error
}

func newMetricBuilder(mt metric.Meter) *metricBuilder {
	return &metricBuilder{meter: mt}
}

// count creates a monotonic counter of unit, e.g. keys or rounds.
func (b *metricBuilder) count(name, desc, unit string) metric.Int64Counter {
	c, err := b.meter.Int64Counter(metricNamespace+name, metric.WithDescription(desc), metric.WithUnit(unit))
	b.setErr(name, err)

	return c
}

// phaseSeconds creates a histogram of phase durations in seconds.
func (b *metricBuilder) phaseSeconds(name, desc string) metric.Float64Histogram {
	h, err := b.meter.Float64Histogram(metricNamespace+name,
		metric.WithDescription(desc),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(durationBucketBoundaries...),
	)
	b.setErr(name, err)

	return h
}

// level creates a synchronous gauge for sizes sampled once per container.
func (b *metricBuilder) level(name, desc, unit string) metric.Int64Gauge {
	g, err := b.meter.Int64Gauge(metricNamespace+name, metric.WithDescription(desc), metric.WithUnit(unit))
	b.setErr(name, err)

	return g
}

func (b *metricBuilder) setErr(name string, err error) {
	if err != nil && b.err == nil {
		b.err = fmt.Errorf("create %s%s: %w", metricNamespace, name, err)
	}
}
