package hashutil_test

import (
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Sumatoshi-tech/rbbench/internal/hashutil"
)

func TestString_MatchesFNVThenMix(t *testing.T) {
	t.Parallel()

	for _, s := range []string{"", "a", "1023", "hashtable vs rbtree"} {
		assert.Equal(t, hashutil.Mix64(hashutil.FNV64a([]byte(s))), hashutil.String(s), "input %q", s)
	}
}

func TestMix64_Deterministic(t *testing.T) {
	t.Parallel()

	assert.Equal(t, hashutil.Mix64(12345), hashutil.Mix64(12345))
	assert.NotEqual(t, hashutil.Mix64(1), hashutil.Mix64(2))
	assert.Zero(t, hashutil.Mix64(0))
}

// TestString_SpreadsSequentialKeys checks that decimal keys fill low buckets evenly.
func TestString_SpreadsSequentialKeys(t *testing.T) {
	t.Parallel()

	const (
		keys    = 10000
		buckets = 16
	)

	counts := make([]int, buckets)
	for i := range keys {
		counts[hashutil.String(strconv.Itoa(i))%buckets]++
	}

	for b, c := range counts {
		assert.InDelta(t, keys/buckets, c, keys/buckets/4, "bucket %d", b)
	}
}

func BenchmarkString(b *testing.B) {
	for i := range b.N {
		hashutil.String(strconv.Itoa(i))
	}
}
