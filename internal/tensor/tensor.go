// Package tensor implements a sparse, arbitrary-rank tensor engine.
//
// A Tensor is an arena owning every node of one hierarchy. A node of rank
// R > 1 maps indices to subordinate nodes of rank R-1; a node of rank 1 (a
// vector) maps indices to scalar values. Only non-zero values are stored, and
// no reachable node other than the root is ever empty.
//
// Values are combined exclusively through an injected arith.Arithmetic[T], so
// the same structural code serves float, integer and optional values.
package tensor

import (
	"slices"

	"github.com/sparsefem/sparsefem/internal/arith"
)

// DefaultCapacity is the entry capacity reserved for intermediate nodes
// created on demand by Set.
const DefaultCapacity = 4

const (
	rootID int32 = 0
	noNode int32 = -1
)

// node is a single level of the hierarchy. It is tagged by rank: rank 1 nodes
// use vals, higher ranks use kids. Both are aligned to keys' slots.
type node[T any] struct {
	rank   int
	parent int32
	key    int
	gen    uint32
	live   bool
	keys   keySet
	kids   []int32
	vals   []T
}

func (n *node[T]) isVector() bool {
	return n.rank == 1
}

// Tensor is a sparse tensor of arbitrary rank with values of type T.
//
// The zero value is not usable; construct tensors with New, FromFlatValues or
// Copy. A nil *Tensor is accepted by the algebra functions as an absent
// operand.
type Tensor[T any] struct {
	shape Shape
	ar    arith.Arithmetic[T]
	nodes []node[T]
	free  []int32
}

func newTensor[T any](shape Shape, ar arith.Arithmetic[T], capacity int) *Tensor[T] {
	t := &Tensor[T]{
		shape: shape,
		ar:    ar,
		nodes: make([]node[T], 0, 1+capacity),
	}
	t.alloc(len(shape), noNode, 0, capacity)
	return t
}

// Shape returns the tensor's shape. The returned slice may be shared with
// other tensors and must not be modified.
func (t *Tensor[T]) Shape() Shape {
	return t.shape
}

// Rank returns the number of ranks (len of the shape).
func (t *Tensor[T]) Rank() int {
	return len(t.shape)
}

// Arithmetic returns the strategy used to combine values.
func (t *Tensor[T]) Arithmetic() arith.Arithmetic[T] {
	return t.ar
}

// Root returns a handle on the top-level node.
func (t *Tensor[T]) Root() Node[T] {
	return Node[T]{t: t, id: rootID, gen: t.nodes[rootID].gen}
}

// IsEmpty reports whether the tensor is absent or stores no entries.
func (t *Tensor[T]) IsEmpty() bool {
	return t == nil || t.nodes[rootID].keys.Len() == 0
}

// Get returns the value at path, or the arithmetic zero if absent.
func (t *Tensor[T]) Get(path ...int) T {
	return t.Root().Get(path...)
}

// Set writes value at path. See Node.Set.
func (t *Tensor[T]) Set(value T, path ...int) {
	t.Root().Set(value, path...)
}

// Count returns the number of stored scalar entries.
func (t *Tensor[T]) Count() int {
	return t.count(rootID)
}

// Compact removes subordinates that were created by Node.Subordinate but never
// populated. Algebra operations never leave such nodes behind.
func (t *Tensor[T]) Compact() {
	t.compact(rootID)
}

// alloc returns a fresh empty node, reusing a released slot when possible.
// It may grow t.nodes, so callers must not hold *node pointers across it.
func (t *Tensor[T]) alloc(rank int, parent int32, key, capacity int) int32 {
	var id int32
	if n := len(t.free); n > 0 {
		id = t.free[n-1]
		t.free = t.free[:n-1]
	} else {
		id = int32(len(t.nodes))
		t.nodes = append(t.nodes, node[T]{})
	}

	nd := &t.nodes[id]
	nd.rank = rank
	nd.parent = parent
	nd.key = key
	nd.live = true
	nd.keys.reset()
	if rank == 1 {
		if cap(nd.vals) < capacity {
			nd.vals = make([]T, 0, capacity)
		}
	} else if cap(nd.kids) < capacity {
		nd.kids = make([]int32, 0, capacity)
	}
	return id
}

// release frees the subtree rooted at id. Handles on released nodes become stale.
func (t *Tensor[T]) release(id int32) {
	nd := &t.nodes[id]
	for _, c := range nd.kids {
		t.release(c)
	}
	clear(nd.vals) // drop references held by pointer-typed values
	nd.vals = nd.vals[:0]
	nd.kids = nd.kids[:0]
	nd.keys.reset()
	nd.parent = noNode
	nd.live = false
	nd.gen++
	t.free = append(t.free, id)
}

func (t *Tensor[T]) isZero(v T) bool {
	return arith.IsZero(t.ar, v)
}

func (t *Tensor[T]) dim(id int32) int {
	return t.shape[len(t.shape)-t.nodes[id].rank]
}

func (t *Tensor[T]) child(id int32, key int) (int32, bool) {
	nd := &t.nodes[id]
	slot, ok := nd.keys.find(key)
	if !ok {
		return noNode, false
	}
	return nd.kids[slot], true
}

func (t *Tensor[T]) value(id int32, key int) (T, bool) {
	nd := &t.nodes[id]
	slot, ok := nd.keys.find(key)
	if !ok {
		var zero T
		return zero, false
	}
	return nd.vals[slot], true
}

// attach wires child under parent at key. The key must be absent.
func (t *Tensor[T]) attach(parent int32, key int, child int32) {
	nd := &t.nodes[parent]
	slot, _ := nd.keys.insert(key)
	nd.kids = slices.Insert(nd.kids, slot, child)
	c := &t.nodes[child]
	c.parent = parent
	c.key = key
}

// attachOrRelease attaches child when it holds entries and frees it otherwise.
func (t *Tensor[T]) attachOrRelease(parent int32, key int, child int32) {
	if t.nodes[child].keys.Len() == 0 {
		t.release(child)
		return
	}
	t.attach(parent, key, child)
}

// childOrInsert returns the subordinate at key, creating it if missing.
func (t *Tensor[T]) childOrInsert(id int32, key, capacity int) int32 {
	if c, ok := t.child(id, key); ok {
		return c
	}
	c := t.alloc(t.nodes[id].rank-1, id, key, capacity)
	t.attach(id, key, c)
	return c
}

// store writes a non-zero value into vector id.
func (t *Tensor[T]) store(id int32, key int, v T) {
	nd := &t.nodes[id]
	slot, inserted := nd.keys.insert(key)
	if inserted {
		nd.vals = slices.Insert(nd.vals, slot, v)
		return
	}
	nd.vals[slot] = v
}

// put stores v, or removes the entry when v is the arithmetic zero.
func (t *Tensor[T]) put(id int32, key int, v T) {
	if t.isZero(v) {
		t.removeEntry(id, key)
		return
	}
	t.store(id, key, v)
}

// removeEntry deletes the entry at key from node id, freeing any subtree.
func (t *Tensor[T]) removeEntry(id int32, key int) bool {
	nd := &t.nodes[id]
	slot, ok := nd.keys.remove(key)
	if !ok {
		return false
	}
	if nd.isVector() {
		nd.vals = slices.Delete(nd.vals, slot, slot+1)
		return true
	}
	c := nd.kids[slot]
	nd.kids = slices.Delete(nd.kids, slot, slot+1)
	t.release(c)
	return true
}

// prune removes id and its emptied ancestors, stopping at the first
// non-empty ancestor or the root.
func (t *Tensor[T]) prune(id int32) {
	for id != rootID && t.nodes[id].keys.Len() == 0 {
		parent, key := t.nodes[id].parent, t.nodes[id].key
		t.removeEntry(parent, key)
		id = parent
	}
}

func (t *Tensor[T]) count(id int32) int {
	nd := &t.nodes[id]
	if nd.isVector() {
		return nd.keys.Len()
	}
	n := 0
	for _, c := range nd.kids {
		n += t.count(c)
	}
	return n
}

func (t *Tensor[T]) compact(id int32) {
	nd := &t.nodes[id]
	if nd.isVector() {
		return
	}
	var empty []int
	for slot, key := range nd.keys.all() {
		c := t.nodes[id].kids[slot]
		t.compact(c)
		if t.nodes[c].keys.Len() == 0 {
			empty = append(empty, key)
		}
	}
	for _, key := range empty {
		t.removeEntry(id, key)
	}
}
