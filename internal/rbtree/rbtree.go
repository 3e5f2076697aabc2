package rbtree

import (
	"cmp"
	"fmt"
)

// ModifyResult is the outcome of Insert and Remove.
type ModifyResult int

const (
	// Success means the tree was modified.
	Success ModifyResult = iota
	// DuplicateOrMissing means Insert found the key already present, or Remove
	// did not find it. The tree is left unchanged.
	DuplicateOrMissing
)

// Missing is the Remove spelling of DuplicateOrMissing.
const Missing = DuplicateOrMissing

func (r ModifyResult) String() string {
	switch r {
	case Success:
		return "success"
	case DuplicateOrMissing:
		return "duplicate or missing"
	default:
		return fmt.Sprintf("ModifyResult(%d)", int(r))
	}
}

// Option configures a Tree.
type Option[K, V any] func(*Tree[K, V])

// WithRelease sets the function invoked exactly once for every value the tree
// discards, on Remove and on Deinit. Values rejected by a duplicate Insert are
// never passed to it: they still belong to the caller.
func WithRelease[K, V any](release func(V)) Option[K, V] {
	return func(t *Tree[K, V]) {
		t.release = release
	}
}

// WithHibernationThreshold sets the minimum arena size that Hibernate compresses.
func WithHibernationThreshold[K, V any](threshold int) Option[K, V] {
	return func(t *Tree[K, V]) {
		t.alloc.HibernationThreshold = threshold
	}
}

// Tree is a red-black tree whose nodes live in an index-addressed arena.
//
// A Tree is not safe for concurrent use. Keys are compared with the function
// given to New, which must stay a consistent total order for the tree's life.
type Tree[K, V any] struct {
	root    uint32
	count   int
	compare func(a, b K) int
	release func(V)
	alloc   *Allocator[K, V]
}

// New creates an empty tree ordered by compare, which returns a negative
// number, zero or a positive number when a sorts before, equal to or after b.
func New[K, V any](compare func(a, b K) int, opts ...Option[K, V]) *Tree[K, V] {
	tree := &Tree[K, V]{
		compare: compare,
		alloc:   NewAllocator[K, V](),
	}

	for _, opt := range opts {
		opt(tree)
	}

	return tree
}

// NewOrdered creates an empty tree ordered by cmp.Compare. For strings this is
// the byte-wise lexicographic order.
func NewOrdered[K cmp.Ordered, V any](opts ...Option[K, V]) *Tree[K, V] {
	return New(cmp.Compare[K], opts...)
}

// Len returns the number of entries in the tree.
func (t *Tree[K, V]) Len() int {
	return t.count
}

// Allocator returns the bound node arena.
func (t *Tree[K, V]) Allocator() *Allocator[K, V] {
	return t.alloc
}

// Deinit releases every value in post-order, children before their parent,
// then drops the arena. A hibernated arena is booted first; if it cannot be
// restored its values are dropped without release. The tree must not be used
// afterwards.
func (t *Tree[K, V]) Deinit() {
	if t.alloc.hibernated != nil && t.alloc.Boot() != nil {
		t.alloc.hibernated = nil
		t.dropArena()

		return
	}

	t.alloc.mustBeLive()

	s := t.alloc.storage

	if t.release != nil && t.root != sentinel {
		stack := make([]uint32, 1, stackHint(t.count)+1)
		stack[0] = t.root

		// No slot holds noSlot, so the first descent cannot mistake a
		// sentinel child for an already released subtree.
		last := noSlot

		for len(stack) > 0 {
			n := stack[len(stack)-1]
			left, right := s[n].left, s[n].right

			switch {
			case left != sentinel && last != left && last != right:
				stack = append(stack, left)
			case right != sentinel && last != right:
				stack = append(stack, right)
			default:
				t.release(s[n].value)
				last = n
				stack = stack[:len(stack)-1]
			}
		}
	}

	t.dropArena()
}

func (t *Tree[K, V]) dropArena() {
	t.root = sentinel
	t.count = 0
	t.alloc.storage = nil
	t.alloc.gaps = nil
}

// At returns the value stored under key. The boolean is false when the key is absent.
func (t *Tree[K, V]) At(key K) (V, bool) {
	t.alloc.mustBeLive()

	n := t.find(key)
	if n == sentinel {
		var zero V

		return zero, false
	}

	return t.alloc.storage[n].value, true
}

// Insert adds key with value. An existing key leaves the tree unchanged and
// yields DuplicateOrMissing. The error is non-nil only when the arena cannot
// provide a node.
func (t *Tree[K, V]) Insert(key K, value V) (ModifyResult, error) {
	if t.alloc.hibernated != nil {
		return DuplicateOrMissing, ErrHibernated
	}

	t.alloc.mustBeLive()

	parent := sentinel
	x := t.root
	diff := 0
	s := t.alloc.storage

	for x != sentinel {
		parent = x
		diff = t.compare(key, s[x].key)

		switch {
		case diff < 0:
			x = s[x].left
		case diff > 0:
			x = s[x].right
		default:
			return DuplicateOrMissing, nil
		}
	}

	z, err := t.alloc.malloc()
	if err != nil {
		return DuplicateOrMissing, fmt.Errorf("insert: %w", err)
	}

	s = t.alloc.storage
	s[z] = node[K, V]{
		key:    key,
		value:  value,
		parent: parent,
		left:   sentinel,
		right:  sentinel,
		color:  red,
	}

	switch {
	case parent == sentinel:
		t.root = z
	case diff < 0:
		s[parent].left = z
	default:
		s[parent].right = z
	}

	t.count++
	t.insertFixup(z)

	return Success, nil
}

// Remove deletes key and releases its value. It yields Missing when the key is absent.
func (t *Tree[K, V]) Remove(key K) ModifyResult {
	t.alloc.mustBeLive()

	z := t.find(key)
	if z == sentinel {
		return Missing
	}

	t.deleteNode(z)

	return Success
}

// Hibernate compresses the arena while the tree is idle. Until Boot, Insert
// fails with ErrHibernated and every other operation panics.
func (t *Tree[K, V]) Hibernate() error {
	t.alloc.mustBeLive()

	err := t.alloc.Hibernate()
	if err != nil {
		return fmt.Errorf("hibernate: %w", err)
	}

	return nil
}

// Boot restores a hibernated arena. It is a no-op on a live tree.
func (t *Tree[K, V]) Boot() error {
	err := t.alloc.Boot()
	if err != nil {
		return fmt.Errorf("boot: %w", err)
	}

	return nil
}

// HibernatedSize returns the compressed arena size in bytes, or 0 on a live tree.
func (t *Tree[K, V]) HibernatedSize() int {
	return t.alloc.HibernatedSize()
}

func (t *Tree[K, V]) find(key K) uint32 {
	s := t.alloc.storage
	x := t.root

	for x != sentinel {
		diff := t.compare(key, s[x].key)

		switch {
		case diff < 0:
			x = s[x].left
		case diff > 0:
			x = s[x].right
		default:
			return x
		}
	}

	return sentinel
}

func (t *Tree[K, V]) insertFixup(z uint32) {
	s := t.alloc.storage

	for s[s[z].parent].color == red {
		p := s[z].parent
		g := s[p].parent

		if p == s[g].left {
			uncle := s[g].right
			if s[uncle].color == red {
				s[p].color = black
				s[uncle].color = black
				s[g].color = red
				z = g

				continue
			}

			if z == s[p].right {
				z = p
				t.rotateLeft(z)
				p = s[z].parent
			}

			s[p].color = black
			s[g].color = red
			t.rotateRight(g)
		} else {
			uncle := s[g].left
			if s[uncle].color == red {
				s[p].color = black
				s[uncle].color = black
				s[g].color = red
				z = g

				continue
			}

			if z == s[p].left {
				z = p
				t.rotateRight(z)
				p = s[z].parent
			}

			s[p].color = black
			s[g].color = red
			t.rotateLeft(g)
		}
	}

	s[t.root].color = black
}

// transplant puts the subtree rooted at v in u's place. v may be the sentinel,
// whose parent slot is then written; deleteFixup relies on it.
func (t *Tree[K, V]) transplant(u, v uint32) {
	s := t.alloc.storage
	up := s[u].parent

	switch {
	case up == sentinel:
		t.root = v
	case u == s[up].left:
		s[up].left = v
	default:
		s[up].right = v
	}

	s[v].parent = up
}

func (t *Tree[K, V]) minimum(n uint32) uint32 {
	s := t.alloc.storage
	for s[n].left != sentinel {
		n = s[n].left
	}

	return n
}

func (t *Tree[K, V]) deleteNode(z uint32) {
	s := t.alloc.storage
	y := z
	removedColor := s[y].color

	var x uint32

	switch {
	case s[z].left == sentinel:
		x = s[z].right
		t.transplant(z, x)
	case s[z].right == sentinel:
		x = s[z].left
		t.transplant(z, x)
	default:
		y = t.minimum(s[z].right)
		removedColor = s[y].color
		x = s[y].right

		if s[y].parent == z {
			s[x].parent = y
		} else {
			t.transplant(y, x)
			s[y].right = s[z].right
			s[s[y].right].parent = y
		}

		t.transplant(z, y)
		s[y].left = s[z].left
		s[s[y].left].parent = y
		s[y].color = s[z].color
	}

	if removedColor == black {
		t.deleteFixup(x)
	}

	s[sentinel].parent = sentinel

	if t.release != nil {
		t.release(s[z].value)
	}

	t.alloc.free(z)
	t.count--
}

func (t *Tree[K, V]) deleteFixup(x uint32) {
	s := t.alloc.storage

	for x != t.root && s[x].color == black {
		p := s[x].parent

		if x == s[p].left {
			w := s[p].right
			if s[w].color == red {
				s[w].color = black
				s[p].color = red
				t.rotateLeft(p)
				w = s[p].right
			}

			if s[s[w].left].color == black && s[s[w].right].color == black {
				s[w].color = red
				x = p

				continue
			}

			if s[s[w].right].color == black {
				s[s[w].left].color = black
				s[w].color = red
				t.rotateRight(w)
				w = s[p].right
			}

			s[w].color = s[p].color
			s[p].color = black
			s[s[w].right].color = black
			t.rotateLeft(p)
			x = t.root
		} else {
			w := s[p].left
			if s[w].color == red {
				s[w].color = black
				s[p].color = red
				t.rotateRight(p)
				w = s[p].left
			}

			if s[s[w].left].color == black && s[s[w].right].color == black {
				s[w].color = red
				x = p

				continue
			}

			if s[s[w].left].color == black {
				s[s[w].right].color = black
				s[w].color = red
				t.rotateLeft(w)
				w = s[p].left
			}

			s[w].color = s[p].color
			s[p].color = black
			s[s[w].left].color = black
			t.rotateRight(p)
			x = t.root
		}
	}

	s[x].color = black
}

// rotateLeft lifts x's right child into x's place:
//
//	  X              Y
//	A   Y    =>    X   C
//	   B C        A B
func (t *Tree[K, V]) rotateLeft(x uint32) {
	s := t.alloc.storage
	y := s[x].right

	s[x].right = s[y].left
	if s[y].left != sentinel {
		s[s[y].left].parent = x
	}

	t.replaceChild(x, y)

	s[y].left = x
	s[x].parent = y
}

// rotateRight is the mirror of rotateLeft:
//
//	   Y          X
//	 X   C  =>  A   Y
//	A B            B C
func (t *Tree[K, V]) rotateRight(y uint32) {
	s := t.alloc.storage
	x := s[y].left

	s[y].left = s[x].right
	if s[x].right != sentinel {
		s[s[x].right].parent = y
	}

	t.replaceChild(y, x)

	s[x].right = y
	s[y].parent = x
}

// replaceChild hangs newTop where oldTop was attached.
func (t *Tree[K, V]) replaceChild(oldTop, newTop uint32) {
	s := t.alloc.storage
	p := s[oldTop].parent
	s[newTop].parent = p

	switch {
	case p == sentinel:
		t.root = newTop
	case oldTop == s[p].left:
		s[p].left = newTop
	default:
		s[p].right = newTop
	}
}
