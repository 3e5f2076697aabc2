package bench_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sumatoshi-tech/rbbench/internal/bench"
)

// Self-check test constants.
const (
	selfCheckKeys = 300

	// sweepKeys and sweepSeeds size the many-seed sweep.
	sweepKeys  = 200
	sweepSeeds = 50
)

func TestSelfCheck_Passes(t *testing.T) {
	t.Parallel()

	for _, seed := range []uint64{1, 7, 42} {
		stats, err := bench.SelfCheck(context.Background(), selfCheckKeys, seed)
		require.NoError(t, err, "seed %d", seed)

		assert.Equal(t, selfCheckKeys+selfCheckKeys/2, stats.Inserts)
		assert.Equal(t, selfCheckKeys/2, stats.Removes)
		assert.Equal(t, selfCheckKeys/2, stats.Misses)
		assert.Positive(t, stats.Duplicates)
		assert.Equal(t, stats.Inserts+stats.Removes+1, stats.Verifies)
		assert.Equal(t, stats.Inserts, stats.Released)
	}
}

func TestSelfCheck_SeedSweep(t *testing.T) {
	t.Parallel()

	for seed := range uint64(sweepSeeds) {
		stats, err := bench.SelfCheck(context.Background(), sweepKeys, seed)
		require.NoError(t, err, "seed %d", seed)
		assert.Equal(t, stats.Inserts, stats.Released, "seed %d", seed)
	}
}

func TestSelfCheck_SingleKey(t *testing.T) {
	t.Parallel()

	stats, err := bench.SelfCheck(context.Background(), 1, 3)
	require.NoError(t, err)

	assert.Equal(t, 1, stats.Inserts)
	assert.Zero(t, stats.Removes)
	assert.Equal(t, 1, stats.Released)
}

func TestSelfCheck_Cancelled(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := bench.SelfCheck(ctx, selfCheckKeys, 1)
	require.ErrorIs(t, err, context.Canceled)
}
