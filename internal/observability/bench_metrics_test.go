package observability_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"

	"github.com/Sumatoshi-tech/rbbench/internal/observability"
)

func collect(t *testing.T, reader *sdkmetric.ManualReader) map[string]metricdata.Metrics {
	t.Helper()

	var rm metricdata.ResourceMetrics

	require.NoError(t, reader.Collect(context.Background(), &rm))

	out := map[string]metricdata.Metrics{}

	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			out[m.Name] = m
		}
	}

	return out
}

func TestBenchMetrics_RecordPhase(t *testing.T) {
	t.Parallel()

	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))

	bm, err := observability.NewBenchMetrics(mp.Meter("test"))
	require.NoError(t, err)

	ctx := context.Background()
	bm.RecordPhase(ctx, observability.PhaseSample{Container: "rbtree", Phase: "insert", Keys: 1024, Duration: time.Millisecond})
	bm.RecordPhase(ctx, observability.PhaseSample{Container: "rbtree", Phase: "lookup", Keys: 1000, Duration: 2 * time.Millisecond})
	bm.RecordRound(ctx)
	bm.RecordSize(ctx, "rbtree", 1024, 4096)

	metrics := collect(t, reader)

	hist, ok := metrics["rbbench.op.duration.seconds"].Data.(metricdata.Histogram[float64])
	require.True(t, ok)
	assert.Len(t, hist.DataPoints, 2)

	keys, ok := metrics["rbbench.keys.total"].Data.(metricdata.Sum[int64])
	require.True(t, ok)

	var total int64
	for _, dp := range keys.DataPoints {
		total += dp.Value
	}

	assert.Equal(t, int64(2024), total)

	rounds, ok := metrics["rbbench.rounds.total"].Data.(metricdata.Sum[int64])
	require.True(t, ok)
	require.Len(t, rounds.DataPoints, 1)
	assert.Equal(t, int64(1), rounds.DataPoints[0].Value)

	arena, ok := metrics["rbbench.arena.hibernated.bytes"].Data.(metricdata.Gauge[int64])
	require.True(t, ok)
	require.Len(t, arena.DataPoints, 1)
	assert.Equal(t, int64(4096), arena.DataPoints[0].Value)
}

func TestBenchMetrics_NilReceiverIsNoop(t *testing.T) {
	t.Parallel()

	var bm *observability.BenchMetrics

	assert.NotPanics(t, func() {
		bm.RecordPhase(context.Background(), observability.PhaseSample{Container: "map"})
		bm.RecordRound(context.Background())
		bm.RecordSize(context.Background(), "map", 1, 0)
	})
}
