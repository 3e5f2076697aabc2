package bench

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"

	"github.com/Sumatoshi-tech/rbbench/internal/rbtree"
)

// ErrSelfCheck is returned when the tree disagrees with the reference model.
var ErrSelfCheck = errors.New("self-check failed")

// SelfCheckStats summarizes a self-check run.
type SelfCheckStats struct {
	Inserts    int
	Removes    int
	Duplicates int
	Misses     int
	Verifies   int
	Released   int
}

type selfChecker struct {
	tree     *rbtree.Tree[string, int]
	model    map[string]int
	released int
	stats    SelfCheckStats
}

// SelfCheck inserts n keys in a seeded random order, removes a random half,
// re-inserts it and tears the tree down. Tree invariants are verified after
// every mutation and every answer is compared with a Go map.
func SelfCheck(ctx context.Context, n int, seed uint64) (SelfCheckStats, error) {
	sc := &selfChecker{model: make(map[string]int, n)}
	sc.tree = rbtree.NewOrdered(rbtree.WithRelease[string](func(int) { sc.released++ }))

	rng := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	keys := Keys(n)

	steps := []func() error{
		func() error { return sc.insertAll(ctx, keys, rng.Perm(n)) },
		func() error { return sc.duplicates(keys, rng) },
		func() error { return sc.removeHalf(ctx, keys, rng.Perm(n)) },
		func() error { return sc.insertAll(ctx, keys, rng.Perm(n)) },
		sc.hibernateCycle,
		sc.teardown,
	}

	for _, step := range steps {
		err := step()
		if err != nil {
			return sc.stats, err
		}
	}

	return sc.stats, nil
}

func (sc *selfChecker) verify(op string, key string) error {
	sc.stats.Verifies++

	err := sc.tree.Verify()
	if err != nil {
		return fmt.Errorf("%w: after %s %q: %w", ErrSelfCheck, op, key, err)
	}

	if sc.tree.Len() != len(sc.model) {
		return fmt.Errorf("%w: after %s %q: len %d, model %d", ErrSelfCheck, op, key, sc.tree.Len(), len(sc.model))
	}

	return nil
}

func (sc *selfChecker) insertAll(ctx context.Context, keys []string, order []int) error {
	for _, i := range order {
		key := keys[i]

		if _, ok := sc.model[key]; ok {
			continue
		}

		err := ctx.Err()
		if err != nil {
			return err
		}

		res, err := sc.tree.Insert(key, i)
		if err != nil {
			return err
		}

		if res != rbtree.Success {
			return fmt.Errorf("%w: insert %q: %s", ErrSelfCheck, key, res)
		}

		sc.model[key] = i
		sc.stats.Inserts++

		err = sc.verify("insert", key)
		if err != nil {
			return err
		}
	}

	return nil
}

func (sc *selfChecker) duplicates(keys []string, rng *rand.Rand) error {
	for range min(len(keys), 64) {
		key := keys[rng.IntN(len(keys))]

		res, err := sc.tree.Insert(key, -1)
		if err != nil {
			return err
		}

		if res != rbtree.DuplicateOrMissing {
			return fmt.Errorf("%w: duplicate insert %q: %s", ErrSelfCheck, key, res)
		}

		v, ok := sc.tree.At(key)
		if !ok || v != sc.model[key] {
			return fmt.Errorf("%w: duplicate insert %q replaced value", ErrSelfCheck, key)
		}

		sc.stats.Duplicates++
	}

	return nil
}

func (sc *selfChecker) removeHalf(ctx context.Context, keys []string, order []int) error {
	for _, i := range order[:len(order)/2] {
		key := keys[i]

		err := ctx.Err()
		if err != nil {
			return err
		}

		if sc.tree.Remove(key) != rbtree.Success {
			return fmt.Errorf("%w: remove %q reported missing", ErrSelfCheck, key)
		}

		delete(sc.model, key)
		sc.stats.Removes++

		err = sc.verify("remove", key)
		if err != nil {
			return err
		}

		if _, ok := sc.tree.At(key); ok {
			return fmt.Errorf("%w: %q still present after remove", ErrSelfCheck, key)
		}

		if sc.tree.Remove(key) != rbtree.Missing {
			return fmt.Errorf("%w: second remove of %q succeeded", ErrSelfCheck, key)
		}

		sc.stats.Misses++
	}

	return sc.compareTraversal()
}

func (sc *selfChecker) compareTraversal() error {
	prev, seen := "", 0

	for key, value := range sc.tree.All() {
		if seen > 0 && key <= prev {
			return fmt.Errorf("%w: traversal out of order at %q", ErrSelfCheck, key)
		}

		want, ok := sc.model[key]
		if !ok || want != value {
			return fmt.Errorf("%w: traversal yielded %q=%d", ErrSelfCheck, key, value)
		}

		prev = key
		seen++
	}

	if seen != len(sc.model) {
		return fmt.Errorf("%w: traversal yielded %d entries, model %d", ErrSelfCheck, seen, len(sc.model))
	}

	return nil
}

func (sc *selfChecker) hibernateCycle() error {
	err := sc.tree.Hibernate()
	if err != nil {
		return err
	}

	err = sc.tree.Boot()
	if err != nil {
		return err
	}

	err = sc.verify("boot", "")
	if err != nil {
		return err
	}

	return sc.compareTraversal()
}

func (sc *selfChecker) teardown() error {
	discarded := sc.stats.Removes + len(sc.model)

	sc.tree.Deinit()

	if sc.released != discarded {
		return fmt.Errorf("%w: released %d values, want %d", ErrSelfCheck, sc.released, discarded)
	}

	sc.stats.Released = sc.released

	return nil
}
