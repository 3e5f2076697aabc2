package rbtree

import (
	"errors"
	"fmt"
)

// Verification errors returned by Verify.
var (
	ErrSentinelNotBlack = errors.New("sentinel is not black")
	ErrRootNotBlack     = errors.New("root is not black")
	ErrRedViolation     = errors.New("red node has a red child")
	ErrBlackHeight      = errors.New("black heights differ")
	ErrOrder            = errors.New("keys are not strictly ascending")
	ErrBrokenLink       = errors.New("parent link does not match child link")
	ErrCount            = errors.New("node count mismatch")
)

// Verify checks the red-black and search-tree invariants. It walks the whole
// tree and is meant for tests and self-checks, not for production call paths.
func (t *Tree[K, V]) Verify() error {
	t.alloc.mustBeLive()

	s := t.alloc.storage

	if s[sentinel].color != black {
		return ErrSentinelNotBlack
	}

	if t.root == sentinel {
		if t.count != 0 {
			return fmt.Errorf("%w: empty tree counts %d", ErrCount, t.count)
		}

		return nil
	}

	if s[t.root].color != black {
		return ErrRootNotBlack
	}

	if s[t.root].parent != sentinel {
		return fmt.Errorf("%w: root %d has parent %d", ErrBrokenLink, t.root, s[t.root].parent)
	}

	err := t.verifyLinksAndColors()
	if err != nil {
		return err
	}

	if t.blackHeight(t.root) < 0 {
		return ErrBlackHeight
	}

	return t.verifyOrder()
}

// verifyLinksAndColors scans in pre-order.
func (t *Tree[K, V]) verifyLinksAndColors() error {
	s := t.alloc.storage
	stack := []uint32{t.root}
	seen := 0

	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		seen++

		for _, child := range [2]uint32{s[n].left, s[n].right} {
			if child == sentinel {
				continue
			}

			if s[child].parent != n {
				return fmt.Errorf("%w: node %d has parent %d, expected %d", ErrBrokenLink, child, s[child].parent, n)
			}

			if s[n].color == red && s[child].color == red {
				return fmt.Errorf("%w: node %d", ErrRedViolation, n)
			}

			stack = append(stack, child)
		}
	}

	if seen != t.count {
		return fmt.Errorf("%w: reached %d nodes, counted %d", ErrCount, seen, t.count)
	}

	return nil
}

// blackHeight returns the black height below n, or -1 when two paths disagree.
func (t *Tree[K, V]) blackHeight(n uint32) int {
	if n == sentinel {
		return 0
	}

	s := t.alloc.storage
	left := t.blackHeight(s[n].left)
	right := t.blackHeight(s[n].right)

	if left < 0 || right < 0 || left != right {
		return -1
	}

	if s[n].color == black {
		return left + 1
	}

	return left
}

func (t *Tree[K, V]) verifyOrder() error {
	var (
		prev    K
		hasPrev bool
	)

	for k := range t.All() {
		if hasPrev && t.compare(prev, k) >= 0 {
			return fmt.Errorf("%w: %v then %v", ErrOrder, prev, k)
		}

		prev = k
		hasPrev = true
	}

	return nil
}
