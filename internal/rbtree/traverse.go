package rbtree

import "iter"

// All returns the entries in ascending key order. Every call starts a fresh
// walk. The tree must not be modified while the sequence is being consumed.
func (t *Tree[K, V]) All() iter.Seq2[K, V] {
	return func(yield func(K, V) bool) {
		t.alloc.mustBeLive()

		s := t.alloc.storage
		stack := make([]uint32, 0, stackHint(t.count))
		n := t.root

		for n != sentinel || len(stack) > 0 {
			for n != sentinel {
				stack = append(stack, n)
				n = s[n].left
			}

			n = stack[len(stack)-1]
			stack = stack[:len(stack)-1]

			if !yield(s[n].key, s[n].value) {
				return
			}

			n = s[n].right
		}
	}
}

// Trav calls visit for every entry in ascending key order.
func (t *Tree[K, V]) Trav(visit func(key K, value V)) {
	for k, v := range t.All() {
		visit(k, v)
	}
}

// TravWithContext calls visit for every entry of t in ascending key order,
// handing it the caller's context value each time.
func TravWithContext[K, V, C any](t *Tree[K, V], visit func(key K, value V, ctx C), ctx C) {
	for k, v := range t.All() {
		visit(k, v, ctx)
	}
}

// stackHint approximates the red-black height bound 2*log2(n+1).
func stackHint(n int) int {
	h := 0
	for n > 0 {
		h++
		n >>= 1
	}

	return 2 * h
}
