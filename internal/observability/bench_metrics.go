package observability

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Instrument names below metricNamespace.
const (
	metricOpDuration   = "op.duration.seconds"
	metricKeysTotal    = "keys.total"
	metricRoundsTotal  = "rounds.total"
	metricArenaBytes   = "arena.hibernated.bytes"
	metricContainerLen = "container.size"

	attrContainer = "container"
	attrPhase     = "phase"
)

// BenchMetrics holds the OTel instruments for benchmark rounds.
type BenchMetrics struct {
	opDuration   metric.Float64Histogram
	keysTotal    metric.Int64Counter
	roundsTotal  metric.Int64Counter
	arenaBytes   metric.Int64Gauge
	containerLen metric.Int64Gauge
}

// PhaseSample is one timed phase of one container in one round.
type PhaseSample struct {
	Container string
	Phase     string
	Keys      int
	Duration  time.Duration
}

// NewBenchMetrics creates benchmark metric instruments from the given meter.
func NewBenchMetrics(mt metric.Meter) (*BenchMetrics, error) {
	b := newMetricBuilder(mt)

	bm := &BenchMetrics{
		opDuration:   b.phaseSeconds(metricOpDuration, "Duration of one benchmark phase in seconds"),
		keysTotal:    b.count(metricKeysTotal, "Keys processed by benchmark phases", "{key}"),
		roundsTotal:  b.count(metricRoundsTotal, "Completed benchmark rounds", "{round}"),
		arenaBytes:   b.level(metricArenaBytes, "Compressed tree arena size after hibernation", "By"),
		containerLen: b.level(metricContainerLen, "Entries held by a container after insertion", "{entry}"),
	}

	if b.err != nil {
		return nil, b.err
	}

	return bm, nil
}

// RecordPhase records one timed phase. Safe to call on a nil receiver (no-op).
func (bm *BenchMetrics) RecordPhase(ctx context.Context, sample PhaseSample) {
	if bm == nil {
		return
	}

	attrs := metric.WithAttributes(
		attribute.String(attrContainer, sample.Container),
		attribute.String(attrPhase, sample.Phase),
	)

	bm.opDuration.Record(ctx, sample.Duration.Seconds(), attrs)
	bm.keysTotal.Add(ctx, int64(sample.Keys), attrs)
}

// RecordSize records a container's entry count and, when positive, its hibernated arena size.
func (bm *BenchMetrics) RecordSize(ctx context.Context, container string, entries, arenaBytes int) {
	if bm == nil {
		return
	}

	attrs := metric.WithAttributes(attribute.String(attrContainer, container))
	bm.containerLen.Record(ctx, int64(entries), attrs)

	if arenaBytes > 0 {
		bm.arenaBytes.Record(ctx, int64(arenaBytes), attrs)
	}
}

// RecordRound counts a completed round. Safe to call on a nil receiver (no-op).
func (bm *BenchMetrics) RecordRound(ctx context.Context) {
	if bm == nil {
		return
	}

	bm.roundsTotal.Add(ctx, 1)
}
