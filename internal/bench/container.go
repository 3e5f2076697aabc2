// Package bench times bulk insertion and lookup across key containers at
// doubling sizes.
package bench

import (
	"errors"
	"fmt"

	"github.com/Sumatoshi-tech/rbbench/internal/hashtable"
	"github.com/Sumatoshi-tech/rbbench/internal/rbtree"
)

// Container names.
const (
	Hashtable = "hashtable"
	RBTree    = "rbtree"
	Map       = "map"
)

// ContainerNames lists every name NewContainer accepts.
func ContainerNames() []string {
	return []string{Hashtable, RBTree, Map}
}

var (
	// ErrUnknownContainer is returned by NewContainer for an unregistered name.
	ErrUnknownContainer = errors.New("unknown container")

	// ErrDuplicateKey is returned by Add when the container already holds the key.
	ErrDuplicateKey = errors.New("duplicate key")
)

// Container is a string-keyed store under measurement.
type Container interface {
	Name() string
	Add(key string, value int) error
	Find(key string) bool
	Len() int
	Close()
}

// Hibernator is implemented by containers that can compress themselves while idle.
type Hibernator interface {
	Hibernate() error
	Boot() error
	HibernatedSize() int
}

// ContainerOptions tunes container construction.
type ContainerOptions struct {
	HashCapacity int
	HashMaxLoad  float64
}

// NewContainer builds an empty container by name.
func NewContainer(name string, opts ContainerOptions) (Container, error) {
	switch name {
	case Hashtable:
		var tableOpts []hashtable.Option
		if opts.HashMaxLoad > 0 {
			tableOpts = append(tableOpts, hashtable.WithMaxLoadFactor(opts.HashMaxLoad))
		}

		return &tableContainer{table: hashtable.Create[int](opts.HashCapacity, tableOpts...)}, nil
	case RBTree:
		return &treeContainer{tree: rbtree.NewOrdered[string, int]()}, nil
	case Map:
		return &mapContainer{m: make(map[string]int)}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownContainer, name)
	}
}

type treeContainer struct {
	tree *rbtree.Tree[string, int]
}

func (c *treeContainer) Name() string { return RBTree }

func (c *treeContainer) Add(key string, value int) error {
	res, err := c.tree.Insert(key, value)
	if err != nil {
		return err
	}

	if res != rbtree.Success {
		return fmt.Errorf("%w: %q", ErrDuplicateKey, key)
	}

	return nil
}

func (c *treeContainer) Find(key string) bool {
	_, ok := c.tree.At(key)

	return ok
}

// Len counts entries by folding over the in-order traversal rather than
// trusting the tree's own counter.
func (c *treeContainer) Len() int {
	count := 0
	rbtree.TravWithContext(c.tree, func(_ string, _ int, n *int) { *n++ }, &count)

	return count
}

// Close tears the tree down even while it is hibernated.
func (c *treeContainer) Close() { c.tree.Deinit() }

func (c *treeContainer) Hibernate() error { return c.tree.Hibernate() }

func (c *treeContainer) Boot() error { return c.tree.Boot() }

func (c *treeContainer) HibernatedSize() int { return c.tree.HibernatedSize() }

type tableContainer struct {
	table *hashtable.Table[int]
}

func (c *tableContainer) Name() string { return Hashtable }

func (c *tableContainer) Add(key string, value int) error {
	_, existed := c.table.Put(key, value)
	if existed {
		return fmt.Errorf("%w: %q", ErrDuplicateKey, key)
	}

	return nil
}

func (c *tableContainer) Find(key string) bool {
	_, ok := c.table.Get(key)

	return ok
}

func (c *tableContainer) Len() int { return c.table.Len() }

func (c *tableContainer) Close() { c.table.Destroy() }

type mapContainer struct {
	m map[string]int
}

func (c *mapContainer) Name() string { return Map }

func (c *mapContainer) Add(key string, value int) error {
	if _, ok := c.m[key]; ok {
		return fmt.Errorf("%w: %q", ErrDuplicateKey, key)
	}

	c.m[key] = value

	return nil
}

func (c *mapContainer) Find(key string) bool {
	_, ok := c.m[key]

	return ok
}

func (c *mapContainer) Len() int { return len(c.m) }

func (c *mapContainer) Close() { clear(c.m) }
