// Package hashtable provides the separate-chaining hash table the tree is
// benchmarked against. The bucket count is fixed at creation unless a maximum
// load factor is configured.
package hashtable

import (
	"github.com/Sumatoshi-tech/rbbench/internal/hashutil"
	"github.com/Sumatoshi-tech/rbbench/pkg/safeconv"
)

// DefaultCapacity is the bucket count used when Create is given a non-positive capacity.
const DefaultCapacity = 300

// growthFactor multiplies the bucket count when the load factor is exceeded.
const growthFactor = 2

type entry[V any] struct {
	key   string
	value V
	next  *entry[V]
}

// Option configures a Table.
type Option func(*options)

type options struct {
	maxLoadFactor float64
}

// WithMaxLoadFactor makes the table double its buckets once entries/buckets
// exceeds f. Zero keeps the bucket count fixed.
func WithMaxLoadFactor(f float64) Option {
	return func(o *options) {
		o.maxLoadFactor = f
	}
}

// Table maps string keys to values. It is not safe for concurrent use.
type Table[V any] struct {
	buckets []*entry[V]
	count   int
	opts    options
}

// Create allocates a table with capacity buckets.
func Create[V any](capacity int, opts ...Option) *Table[V] {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}

	table := &Table[V]{buckets: make([]*entry[V], capacity)}
	for _, opt := range opts {
		opt(&table.opts)
	}

	return table
}

// Put stores value under key and returns the value it replaced, if any.
func (t *Table[V]) Put(key string, value V) (V, bool) {
	idx := t.index(key)

	for e := t.buckets[idx]; e != nil; e = e.next {
		if e.key == key {
			prev := e.value
			e.value = value

			return prev, true
		}
	}

	t.buckets[idx] = &entry[V]{key: key, value: value, next: t.buckets[idx]}
	t.count++

	if t.opts.maxLoadFactor > 0 && float64(t.count) > t.opts.maxLoadFactor*float64(len(t.buckets)) {
		t.resize(len(t.buckets) * growthFactor)
	}

	var zero V

	return zero, false
}

// Get returns the value stored under key.
func (t *Table[V]) Get(key string) (V, bool) {
	for e := t.buckets[t.index(key)]; e != nil; e = e.next {
		if e.key == key {
			return e.value, true
		}
	}

	var zero V

	return zero, false
}

// Len returns the number of stored entries.
func (t *Table[V]) Len() int {
	return t.count
}

// Buckets returns the current bucket count.
func (t *Table[V]) Buckets() int {
	return len(t.buckets)
}

// Destroy drops every entry. The table must not be used afterwards.
func (t *Table[V]) Destroy() {
	clear(t.buckets)
	t.buckets = nil
	t.count = 0
}

func (t *Table[V]) index(key string) int {
	return safeconv.MustUint64ToInt(hashutil.String(key) % safeconv.MustIntToUint64(len(t.buckets)))
}

func (t *Table[V]) resize(capacity int) {
	old := t.buckets
	t.buckets = make([]*entry[V], capacity)

	for _, head := range old {
		for e := head; e != nil; {
			next := e.next
			idx := t.index(e.key)
			e.next = t.buckets[idx]
			t.buckets[idx] = e
			e = next
		}
	}
}
