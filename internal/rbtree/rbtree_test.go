package rbtree_test

import (
	"slices"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sumatoshi-tech/rbbench/internal/rbtree"
)

// Tree test constants.
const (
	// scenarioKeys is the number of sequential keys in the lookup scenario.
	scenarioKeys = 1024

	// propertyKeys is the number of distinct keys in each random permutation.
	propertyKeys = 600

	// propertySeeds is the number of random permutations checked.
	propertySeeds = 5

	// benchKeys is the tree size used by benchmarks.
	benchKeys = 100000
)

// splitmix is a splitmix64 PRNG for deterministic permutations.
type splitmix struct {
	state uint64
}

func (r *splitmix) next() uint64 {
	r.state += 0x9e3779b97f4a7c15

	z := r.state
	z = (z ^ (z >> 30)) * 0xbf58476d1ce4e5b9
	z = (z ^ (z >> 27)) * 0x94d049bb133111eb

	return z ^ (z >> 31)
}

// permutation returns the decimal keys "0".."n-1" in a seed-determined order.
func permutation(n int, seed uint64) []string {
	keys := make([]string, n)
	for i := range keys {
		keys[i] = strconv.Itoa(i)
	}

	rng := &splitmix{state: seed}
	for i := n - 1; i > 0; i-- {
		j := int(rng.next() % uint64(i+1))
		keys[i], keys[j] = keys[j], keys[i]
	}

	return keys
}

func collect[K, V any](tree *rbtree.Tree[K, V]) ([]K, []V) {
	var (
		keys   []K
		values []V
	)

	for k, v := range tree.All() {
		keys = append(keys, k)
		values = append(values, v)
	}

	return keys, values
}

func mustInsert[K, V any](t *testing.T, tree *rbtree.Tree[K, V], key K, value V) {
	t.Helper()

	res, err := tree.Insert(key, value)
	require.NoError(t, err)
	require.Equal(t, rbtree.Success, res)
	require.NoError(t, tree.Verify())
}

func TestTree_Empty(t *testing.T) {
	t.Parallel()

	tree := rbtree.NewOrdered[string, int]()

	assert.Zero(t, tree.Len())
	require.NoError(t, tree.Verify())

	_, found := tree.At("a")
	assert.False(t, found)

	keys, _ := collect(tree)
	assert.Empty(t, keys)
	assert.Equal(t, rbtree.Missing, tree.Remove("a"))
}

func TestTree_InsertTraversesAscending(t *testing.T) {
	t.Parallel()

	tree := rbtree.NewOrdered[string, string]()

	mustInsert(t, tree, "b", "marker-b")
	mustInsert(t, tree, "a", "marker-a")
	mustInsert(t, tree, "c", "marker-c")

	keys, values := collect(tree)
	assert.Equal(t, []string{"a", "b", "c"}, keys)
	assert.Equal(t, []string{"marker-a", "marker-b", "marker-c"}, values)
}

func TestTree_DuplicateInsertIsNoop(t *testing.T) {
	t.Parallel()

	released := 0
	tree := rbtree.NewOrdered(rbtree.WithRelease[string](func(int) { released++ }))

	mustInsert(t, tree, "k", 1)
	mustInsert(t, tree, "z", 2)

	res, err := tree.Insert("k", 99)
	require.NoError(t, err)
	assert.Equal(t, rbtree.DuplicateOrMissing, res)

	got, found := tree.At("k")
	require.True(t, found)
	assert.Equal(t, 1, got)
	assert.Equal(t, 2, tree.Len())
	assert.Zero(t, released, "the rejected value belongs to the caller")

	keys, values := collect(tree)
	assert.Equal(t, []string{"k", "z"}, keys)
	assert.Equal(t, []int{1, 2}, values)
}

func TestTree_RemoveAbsentLeavesTreeUnchanged(t *testing.T) {
	t.Parallel()

	tree := rbtree.NewOrdered[string, int]()
	for i, key := range []string{"m", "c", "x", "a"} {
		mustInsert(t, tree, key, i)
	}

	before, _ := collect(tree)

	assert.Equal(t, rbtree.Missing, tree.Remove("q"))
	require.NoError(t, tree.Verify())

	after, _ := collect(tree)
	assert.Equal(t, before, after)
	assert.Equal(t, 4, tree.Len())
}

func TestTree_StoredZeroValueIsPresent(t *testing.T) {
	t.Parallel()

	tree := rbtree.NewOrdered[string, int]()
	mustInsert(t, tree, "zero", 0)

	got, found := tree.At("zero")
	assert.True(t, found)
	assert.Zero(t, got)

	_, found = tree.At("none")
	assert.False(t, found)
}

func TestTree_SequentialScenario(t *testing.T) {
	t.Parallel()

	tree := rbtree.NewOrdered[string, int]()
	for i := range scenarioKeys {
		mustInsert(t, tree, strconv.Itoa(i), i)
	}

	count := 0
	tree.Trav(func(string, int) { count++ })
	assert.Equal(t, scenarioKeys, count)

	for i := range scenarioKeys {
		got, found := tree.At(strconv.Itoa(i))
		require.True(t, found, "key %d", i)
		assert.Equal(t, i, got)
	}

	_, found := tree.At(strconv.Itoa(scenarioKeys))
	assert.False(t, found)
}

func TestTree_RandomPermutationsKeepInvariants(t *testing.T) {
	t.Parallel()

	for seed := range uint64(propertySeeds) {
		tree := rbtree.NewOrdered[string, int]()
		live := 0

		for _, key := range permutation(propertyKeys, seed) {
			res, err := tree.Insert(key, len(key))
			require.NoError(t, err)
			require.Equal(t, rbtree.Success, res)

			live++

			require.NoError(t, tree.Verify(), "seed %d after inserting %s", seed, key)
			require.Equal(t, live, tree.Len())
		}

		for _, key := range permutation(propertyKeys, seed+propertySeeds) {
			require.Equal(t, rbtree.Success, tree.Remove(key))

			live--

			require.NoError(t, tree.Verify(), "seed %d after removing %s", seed, key)

			count := 0
			for range tree.All() {
				count++
			}

			require.Equal(t, live, count)
		}

		keys, _ := collect(tree)
		assert.Empty(t, keys)
		assert.Zero(t, tree.Len())
	}
}

func TestTree_InterleavedMutations(t *testing.T) {
	t.Parallel()

	tree := rbtree.NewOrdered[int, int]()
	rng := &splitmix{state: 42}
	present := map[int]bool{}

	for range 5000 {
		key := int(rng.next() % 300)

		if rng.next()%3 == 0 {
			want := rbtree.Missing
			if present[key] {
				want = rbtree.Success
			}

			assert.Equal(t, want, tree.Remove(key))
			delete(present, key)
		} else {
			want := rbtree.DuplicateOrMissing
			if !present[key] {
				want = rbtree.Success
			}

			res, err := tree.Insert(key, key*2)
			require.NoError(t, err)
			assert.Equal(t, want, res)

			present[key] = true
		}

		require.NoError(t, tree.Verify())
		require.Equal(t, len(present), tree.Len())
	}

	for k, v := range tree.All() {
		assert.True(t, present[k])
		assert.Equal(t, k*2, v)
	}
}

func TestTree_CustomComparator(t *testing.T) {
	t.Parallel()

	descending := func(a, b string) int { return strings.Compare(b, a) }
	tree := rbtree.New[string, int](descending)

	for i, key := range []string{"b", "a", "c"} {
		mustInsert(t, tree, key, i)
	}

	keys, _ := collect(tree)
	assert.Equal(t, []string{"c", "b", "a"}, keys)
}

func TestTree_ReleaseOncePerDiscardedValue(t *testing.T) {
	t.Parallel()

	const keys = 200

	sorted := permutation(keys, 0)
	slices.Sort(sorted)

	reversed := slices.Clone(sorted)
	slices.Reverse(reversed)

	orders := map[string][]string{
		"ascending":  sorted,
		"descending": reversed,
	}

	for seed := range uint64(propertySeeds) {
		orders["permutation_"+strconv.FormatUint(seed, 10)] = permutation(keys, seed)
	}

	for name, order := range orders {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			released := map[string]int{}
			tree := rbtree.NewOrdered(rbtree.WithRelease[string](func(v string) { released[v]++ }))

			for _, key := range order {
				mustInsert(t, tree, key, "v"+key)
			}

			for _, key := range order[:keys/2] {
				require.Equal(t, rbtree.Success, tree.Remove(key))
			}

			assert.Len(t, released, keys/2)

			tree.Deinit()

			require.Len(t, released, keys)

			for v, times := range released {
				assert.Equal(t, 1, times, "value %s", v)
			}
		})
	}
}

func TestTree_DeinitReleasesLeftOnlyChild(t *testing.T) {
	t.Parallel()

	released := map[string]int{}
	tree := rbtree.NewOrdered(rbtree.WithRelease[string](func(v string) { released[v]++ }))

	mustInsert(t, tree, "b", "vb")
	mustInsert(t, tree, "a", "va")

	tree.Deinit()

	assert.Equal(t, map[string]int{"va": 1, "vb": 1}, released)
}

func TestTree_UseAfterDeinitPanics(t *testing.T) {
	t.Parallel()

	tree := rbtree.NewOrdered[string, int]()
	mustInsert(t, tree, "a", 1)
	tree.Deinit()

	assert.PanicsWithValue(t, "rbtree: use of deinitialized tree", func() {
		tree.At("a")
	})
}

func TestTree_AllStopsEarly(t *testing.T) {
	t.Parallel()

	tree := rbtree.NewOrdered[int, int]()
	for i := range 10 {
		mustInsert(t, tree, i, i)
	}

	var seen []int

	for k := range tree.All() {
		if k == 3 {
			break
		}

		seen = append(seen, k)
	}

	assert.Equal(t, []int{0, 1, 2}, seen)

	// A new walk starts from the beginning.
	first, _ := collect(tree)
	assert.Len(t, first, 10)
}

func TestTravWithContext(t *testing.T) {
	t.Parallel()

	tree := rbtree.NewOrdered[string, int]()
	for i, key := range []string{"q", "w", "e"} {
		mustInsert(t, tree, key, i+1)
	}

	type acc struct {
		keys []string
		sum  int
	}

	state := &acc{}
	rbtree.TravWithContext(tree, func(k string, v int, a *acc) {
		a.keys = append(a.keys, k)
		a.sum += v
	}, state)

	assert.Equal(t, []string{"e", "q", "w"}, state.keys)
	assert.Equal(t, 6, state.sum)
}

func TestTree_HibernateBoot(t *testing.T) {
	t.Parallel()

	tree := rbtree.NewOrdered(rbtree.WithHibernationThreshold[string, int](16))
	for _, key := range permutation(2000, 7) {
		mustInsert(t, tree, key, len(key))
	}

	for i := 0; i < 2000; i += 3 {
		require.Equal(t, rbtree.Success, tree.Remove(strconv.Itoa(i)))
	}

	wantKeys, wantValues := collect(tree)

	require.NoError(t, tree.Hibernate())
	assert.True(t, tree.Allocator().Hibernated())
	assert.Positive(t, tree.HibernatedSize())

	_, err := tree.Insert("new", 1)
	require.ErrorIs(t, err, rbtree.ErrHibernated)

	assert.PanicsWithValue(t, "rbtree: hibernated trees cannot be used", func() {
		tree.At("1")
	})

	require.NoError(t, tree.Boot())
	assert.False(t, tree.Allocator().Hibernated())
	require.NoError(t, tree.Verify())

	gotKeys, gotValues := collect(tree)
	assert.Equal(t, wantKeys, gotKeys)
	assert.Equal(t, wantValues, gotValues)

	// Freed slots survive the round trip and are reused.
	size := tree.Allocator().Size()
	mustInsert(t, tree, "0", 1)
	assert.Equal(t, size, tree.Allocator().Size())
}

func TestTree_HibernateBelowThresholdIsNoop(t *testing.T) {
	t.Parallel()

	tree := rbtree.NewOrdered(rbtree.WithHibernationThreshold[int, int](1000))
	mustInsert(t, tree, 1, 1)

	require.NoError(t, tree.Hibernate())
	assert.False(t, tree.Allocator().Hibernated())
	assert.Zero(t, tree.HibernatedSize())
}

func TestModifyResult_String(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "success", rbtree.Success.String())
	assert.Equal(t, "duplicate or missing", rbtree.Missing.String())
	assert.Equal(t, "ModifyResult(7)", rbtree.ModifyResult(7).String())
}

func BenchmarkTree_Insert(b *testing.B) {
	keys := permutation(benchKeys, 1)

	b.ResetTimer()

	for range b.N {
		tree := rbtree.NewOrdered[string, int]()
		for _, key := range keys {
			_, _ = tree.Insert(key, 0)
		}
	}
}

func BenchmarkTree_At(b *testing.B) {
	keys := permutation(benchKeys, 1)
	tree := rbtree.NewOrdered[string, int]()

	for _, key := range keys {
		_, _ = tree.Insert(key, 0)
	}

	b.ResetTimer()

	for i := range b.N {
		tree.At(keys[i%len(keys)])
	}
}
