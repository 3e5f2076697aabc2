package rbtree

import (
	"errors"
	"math"
	"slices"
	"sync"

	"github.com/Sumatoshi-tech/rbbench/pkg/safeconv"
)

// sentinel is the reserved arena slot standing in for every leaf and for the
// parent of the root. It is always black and never holds payload.
const sentinel uint32 = 0

// maxNodes is the largest arena size; math.MaxUint32 itself is never handed out.
const maxNodes = math.MaxUint32 - 1

// noSlot is an index no arena slot can hold.
const noSlot uint32 = math.MaxUint32

// Allocation errors.
var (
	// ErrArenaExhausted is returned when the arena cannot address another node.
	ErrArenaExhausted = errors.New("rbtree arena exhausted")
	// ErrHibernated is returned when a hibernated arena is asked to allocate.
	ErrHibernated = errors.New("rbtree arena is hibernated")
)

type color uint8

const (
	red color = iota
	black
)

type node[K, V any] struct {
	key                 K
	value               V
	parent, left, right uint32
	color               color
}

// hibernation column order.
const (
	colLeft = iota
	colRight
	colParent
	colColor
	colGaps
	columnCount
)

// Allocator is the node arena of one Tree. Slot 0 is the sentinel.
type Allocator[K, V any] struct {
	// HibernationThreshold is the minimum arena size Hibernate bothers compressing.
	HibernationThreshold int

	storage []node[K, V]
	gaps    []uint32

	hibernated *hibernatedArena[K, V]
}

type hibernatedArena[K, V any] struct {
	columns [columnCount][]byte
	keys    []K
	values  []V
	size    int
	gapsLen int
}

// NewAllocator creates an arena holding only the sentinel.
func NewAllocator[K, V any]() *Allocator[K, V] {
	return &Allocator[K, V]{
		storage: []node[K, V]{{color: black}},
	}
}

// Size returns the number of arena slots, the sentinel included.
func (a *Allocator[K, V]) Size() int {
	if a.hibernated != nil {
		return a.hibernated.size
	}

	return len(a.storage)
}

// Used returns the number of live nodes, the sentinel excluded.
func (a *Allocator[K, V]) Used() int {
	return a.Size() - 1 - a.freeCount()
}

func (a *Allocator[K, V]) freeCount() int {
	if a.hibernated != nil {
		return a.hibernated.gapsLen
	}

	return len(a.gaps)
}

// Hibernated reports whether the arena is currently compressed.
func (a *Allocator[K, V]) Hibernated() bool {
	return a.hibernated != nil
}

// HibernatedSize returns the compressed size of the structural columns in bytes,
// or 0 when the arena is live.
func (a *Allocator[K, V]) HibernatedSize() int {
	if a.hibernated == nil {
		return 0
	}

	total := 0
	for _, col := range a.hibernated.columns {
		total += len(col)
	}

	return total
}

func (a *Allocator[K, V]) mustBeLive() {
	if a.storage == nil && a.hibernated == nil {
		panic("rbtree: use of deinitialized tree")
	}

	if a.hibernated != nil {
		panic("rbtree: hibernated trees cannot be used")
	}
}

func (a *Allocator[K, V]) malloc() (uint32, error) {
	if a.hibernated != nil {
		return 0, ErrHibernated
	}

	if last := len(a.gaps) - 1; last >= 0 {
		n := a.gaps[last]
		a.gaps = a.gaps[:last]

		return n, nil
	}

	if int64(len(a.storage)) >= maxNodes {
		return 0, ErrArenaExhausted
	}

	n := safeconv.MustIntToUint32(len(a.storage))
	a.storage = append(a.storage, node[K, V]{})

	return n, nil
}

func (a *Allocator[K, V]) free(n uint32) {
	if n == sentinel {
		panic("rbtree: the sentinel cannot be deallocated")
	}

	a.storage[n] = node[K, V]{}
	a.gaps = append(a.gaps, n)
}

// Hibernate compresses the structural columns of the arena. Keys and values
// stay in plain slices. Arenas smaller than HibernationThreshold are left alone.
func (a *Allocator[K, V]) Hibernate() error {
	if a.hibernated != nil || len(a.storage) < a.HibernationThreshold {
		return nil
	}

	size := len(a.storage)
	buffers := [columnCount - 1][]uint32{}

	for i := range buffers {
		buffers[i] = make([]uint32, size)
	}

	h := &hibernatedArena[K, V]{
		keys:    make([]K, size),
		values:  make([]V, size),
		size:    size,
		gapsLen: len(a.gaps),
	}

	// Deinterleave to get runs LZ4 can exploit.
	for i, n := range a.storage {
		buffers[colLeft][i] = n.left
		buffers[colRight][i] = n.right
		buffers[colParent][i] = n.parent
		buffers[colColor][i] = uint32(n.color)
		h.keys[i] = n.key
		h.values[i] = n.value
	}

	gaps := slices.Clone(a.gaps)
	slices.Sort(gaps)
	DeltaEncodeUInt32Slice(gaps)

	errs := make([]error, columnCount)
	wg := sync.WaitGroup{}
	wg.Add(columnCount)

	for i, buffer := range buffers {
		go func() {
			defer wg.Done()

			h.columns[i], errs[i] = CompressUInt32Slice(buffer)
		}()
	}

	go func() {
		defer wg.Done()

		h.columns[colGaps], errs[colGaps] = CompressUInt32Slice(gaps)
	}()

	wg.Wait()

	err := errors.Join(errs...)
	if err != nil {
		return err
	}

	a.hibernated = h
	a.storage = nil
	a.gaps = nil

	return nil
}

// Boot performs the opposite of Hibernate: it decompresses and restores the arena.
func (a *Allocator[K, V]) Boot() error {
	h := a.hibernated
	if h == nil {
		return nil
	}

	buffers := [columnCount][]uint32{}
	errs := make([]error, columnCount)
	wg := sync.WaitGroup{}
	wg.Add(columnCount)

	for i := range buffers {
		n := h.size
		if i == colGaps {
			n = h.gapsLen
		}

		go func() {
			defer wg.Done()

			buffers[i], errs[i] = DecompressUInt32Slice(h.columns[i], n)
		}()
	}

	wg.Wait()

	err := errors.Join(errs...)
	if err != nil {
		return err
	}

	storage := make([]node[K, V], h.size, h.size+h.size/2)
	for i := range storage {
		n := &storage[i]
		n.left = buffers[colLeft][i]
		n.right = buffers[colRight][i]
		n.parent = buffers[colParent][i]
		n.color = color(buffers[colColor][i])
		n.key = h.keys[i]
		n.value = h.values[i]
	}

	DeltaDecodeUInt32Slice(buffers[colGaps])

	a.storage = storage
	a.gaps = buffers[colGaps]
	a.hibernated = nil

	return nil
}
