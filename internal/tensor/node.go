package tensor

import (
	"fmt"
	"slices"
)

// Node is a handle on one node of a Tensor hierarchy.
//
// A handle becomes stale once its node is removed from the hierarchy (for
// example when writing zero empties it); using a stale handle panics.
type Node[T any] struct {
	t   *Tensor[T]
	id  int32
	gen uint32
}

func (n Node[T]) node() *node[T] {
	if n.t == nil || int(n.id) >= len(n.t.nodes) {
		panic("tensor: use of an invalid node handle")
	}
	nd := &n.t.nodes[n.id]
	if !nd.live || nd.gen != n.gen {
		panic("tensor: use of a stale node handle")
	}
	return nd
}

// Tensor returns the hierarchy this node belongs to.
func (n Node[T]) Tensor() *Tensor[T] {
	return n.t
}

// Rank returns the depth from this node to its scalar leaves.
func (n Node[T]) Rank() int {
	return n.node().rank
}

// Dim returns the dimension of the rank this node indexes.
func (n Node[T]) Dim() int {
	n.node()
	return n.t.dim(n.id)
}

// Shape returns the substructure of this node. It aliases the tensor's shape.
func (n Node[T]) Shape() Shape {
	return n.t.shape.Sub(n.node().rank)
}

// Len returns the number of direct entries.
func (n Node[T]) Len() int {
	return n.node().keys.Len()
}

// Count returns the number of scalar entries reachable from this node.
func (n Node[T]) Count() int {
	n.node()
	return n.t.count(n.id)
}

// IsRoot reports whether n is the top-level node.
func (n Node[T]) IsRoot() bool {
	return n.node().parent == noNode
}

// Keys returns the indices of the direct entries in ascending order.
func (n Node[T]) Keys() []int {
	return n.node().keys.keys()
}

// Child returns the subordinate stored at index.
func (n Node[T]) Child(index int) (Node[T], bool) {
	if n.node().isVector() {
		return Node[T]{}, false
	}
	c, ok := n.t.child(n.id, index)
	if !ok {
		return Node[T]{}, false
	}
	return Node[T]{t: n.t, id: c, gen: n.t.nodes[c].gen}, true
}

// Parent returns the superior node, or false for the root.
func (n Node[T]) Parent() (Node[T], bool) {
	p := n.node().parent
	if p == noNode {
		return Node[T]{}, false
	}
	return Node[T]{t: n.t, id: p, gen: n.t.nodes[p].gen}, true
}

// Path returns the index path from the root to this node.
func (n Node[T]) Path() []int {
	var path []int
	for nd := n.node(); nd.parent != noNode; nd = &n.t.nodes[nd.parent] {
		path = append(path, nd.key)
	}
	slices.Reverse(path)
	return path
}

// Subtree returns the node reached by following path. Unlike Get it requires
// every step to be populated.
func (n Node[T]) Subtree(path ...int) (Node[T], error) {
	if len(path) >= n.Rank() {
		return Node[T]{}, fmt.Errorf("%w: path of length %d from a rank %d node does not end at a node",
			ErrInvalidRank, len(path), n.Rank())
	}
	cur := n
	for depth, idx := range path {
		next, ok := cur.Child(idx)
		if !ok {
			return Node[T]{}, fmt.Errorf("%w: no entry at index %d of path %v", ErrMissingSubordinate, depth, path)
		}
		cur = next
	}
	return cur, nil
}

// Subordinate returns the node stored at index, creating an empty one with the
// given capacity when absent. A created subordinate must be populated by the
// caller; Tensor.Compact removes any that stay empty.
func (n Node[T]) Subordinate(index, capacity int) (Node[T], error) {
	nd := n.node()
	if nd.isVector() {
		return Node[T]{}, fmt.Errorf("%w: a vector has no subordinate nodes", ErrInvalidRank)
	}
	if dim := n.t.dim(n.id); index < 0 || index >= dim {
		return Node[T]{}, fmt.Errorf("%w: index %d for dimension %d", ErrIndexOutOfRange, index, dim)
	}
	if c, ok := n.t.child(n.id, index); ok {
		return Node[T]{t: n.t, id: c, gen: n.t.nodes[c].gen}, nil
	}
	c := n.t.alloc(nd.rank-1, n.id, index, capacity)
	n.t.attach(n.id, index, c)
	return Node[T]{t: n.t, id: c, gen: n.t.nodes[c].gen}, nil
}

// checkPath panics unless path addresses a scalar below node id.
func (t *Tensor[T]) checkPath(id int32, path []int) {
	rank := t.nodes[id].rank
	if len(path) != rank {
		panic(fmt.Sprintf("expected %d indices, got %d", rank, len(path)))
	}
	sub := t.shape.Sub(rank)
	for i, idx := range path {
		if idx < 0 || idx >= sub[i] {
			panic(fmt.Sprintf("index %d out of bounds for dimension %d (size %d)", idx, i, sub[i]))
		}
	}
}

// Get returns the value at path below n, or the arithmetic zero when any step
// is absent. Get never allocates nodes.
// Panics if the path length differs from the node's rank or an index is out of bounds.
func (n Node[T]) Get(path ...int) T {
	n.node()
	t := n.t
	t.checkPath(n.id, path)

	id := n.id
	for _, idx := range path[:len(path)-1] {
		c, ok := t.child(id, idx)
		if !ok {
			return t.ar.Zero()
		}
		id = c
	}
	v, ok := t.value(id, path[len(path)-1])
	if !ok {
		return t.ar.Zero()
	}
	return v
}

// Set writes value at path below n, creating missing intermediate nodes.
//
// Writing the arithmetic zero removes the entry instead; if that empties the
// vector, the removal propagates upward until a non-empty ancestor or the root
// is reached. Handles on removed nodes, possibly including n, become stale.
// Panics if the path length differs from the node's rank or an index is out of bounds.
func (n Node[T]) Set(value T, path ...int) {
	n.node()
	t := n.t
	t.checkPath(n.id, path)
	last := path[len(path)-1]

	id := n.id
	if t.isZero(value) {
		for _, idx := range path[:len(path)-1] {
			c, ok := t.child(id, idx)
			if !ok {
				return
			}
			id = c
		}
		if t.removeEntry(id, last) {
			t.prune(id)
		}
		return
	}

	for _, idx := range path[:len(path)-1] {
		id = t.childOrInsert(id, idx, DefaultCapacity)
	}
	t.store(id, last, value)
}

// Copy relocates the subtree rooted at n into a new top-level tensor whose
// rank and shape are those of n.
func (n Node[T]) Copy(mode CopyMode) *Tensor[T] {
	nd := n.node()
	shape := n.t.shape.Sub(nd.rank)
	if !mode.ShareShape {
		shape = shape.Clone()
	}
	capacity := nd.keys.Len()
	if nd.isVector() {
		capacity += mode.Capacity
	}
	out := newTensor(shape, n.t.ar, capacity)
	if mode.Values {
		copyInto(out, rootID, n.t, n.id, nil, mode.Capacity)
	}
	return out
}
