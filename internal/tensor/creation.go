package tensor

import (
	"fmt"

	"github.com/sparsefem/sparsefem/internal/arith"
)

// CopyMode selects what a copy carries over from its source.
type CopyMode struct {
	// Values copies the stored entries. Without it the copy is an empty tensor
	// of the same shape.
	Values bool
	// ShareShape makes the copy alias the source's shape instead of cloning it.
	// Sharing is cheaper but couples the two tensors' shape lifetimes.
	ShareShape bool
	// Capacity is extra entry capacity reserved in every copied vector.
	Capacity int
}

// DeepCopy copies values and clones the shape.
var DeepCopy = CopyMode{Values: true}

// New creates an empty top-level tensor of the given shape. The shape is taken
// by reference. capacity is the entry capacity reserved for the root node.
//
// Example:
//
//	m, err := tensor.New(tensor.Shape{3, 3}, arith.Float64, 3)
//	m.Set(2.0, 1, 1)
func New[T any](shape Shape, ar arith.Arithmetic[T], capacity int) (*Tensor[T], error) {
	if err := shape.Validate(); err != nil {
		return nil, err
	}
	if ar == nil {
		return nil, fmt.Errorf("tensor: nil arithmetic")
	}
	return newTensor(shape, ar, capacity), nil
}

// FromFlatValues builds a tensor from values laid out in row-major order.
// Zero values are omitted, so the result is sparse from the start.
func FromFlatValues[T any](values []T, shape Shape, ar arith.Arithmetic[T]) (*Tensor[T], error) {
	if err := shape.Validate(); err != nil {
		return nil, err
	}
	if ar == nil {
		return nil, fmt.Errorf("tensor: nil arithmetic")
	}
	if shape.NumElements() != len(values) {
		return nil, fmt.Errorf("%w: shape %v requires %d elements, but got %d",
			ErrMismatchedStructure, shape, shape.NumElements(), len(values))
	}

	t := newTensor(shape, ar, DefaultCapacity)
	t.fill(rootID, values, shape.ComputeStrides(), 0, 0)
	return t, nil
}

func (t *Tensor[T]) fill(id int32, values []T, strides []int, depth, offset int) {
	dim := t.shape[depth]
	if t.nodes[id].isVector() {
		for k := 0; k < dim; k++ {
			if v := values[offset+k]; !t.isZero(v) {
				t.store(id, k, v)
			}
		}
		return
	}
	for k := 0; k < dim; k++ {
		c := t.alloc(t.nodes[id].rank-1, id, k, DefaultCapacity)
		t.fill(c, values, strides, depth+1, offset+k*strides[depth])
		t.attachOrRelease(id, k, c)
	}
}

// FlatValues returns the dense row-major contents of the tensor, with the
// arithmetic zero in every absent position.
func (t *Tensor[T]) FlatValues() []T {
	out := make([]T, t.shape.NumElements())
	zero := t.ar.Zero()
	for i := range out {
		out[i] = zero
	}
	strides := t.shape.ComputeStrides()
	for path, v := range t.All() {
		offset := 0
		for i, idx := range path {
			offset += idx * strides[i]
		}
		out[offset] = v
	}
	return out
}

// Copy returns a new top-level tensor copied from src according to mode.
// A nil src yields nil.
func Copy[T any](src *Tensor[T], mode CopyMode) *Tensor[T] {
	if src == nil {
		return nil
	}
	return src.Root().Copy(mode)
}

// Clone returns a deep copy of t.
func (t *Tensor[T]) Clone() *Tensor[T] {
	return Copy(t, DeepCopy)
}

// copyInto fills the empty node dstID with the entries of src's node srcID,
// passing every value through f (identity when nil) and dropping zero
// results. Both nodes must have the same rank. extra is added to the capacity
// of every vector created.
func copyInto[T any](dst *Tensor[T], dstID int32, src *Tensor[T], srcID int32, f func(T) T, extra int) {
	if src.nodes[srcID].isVector() {
		if f == nil {
			sn, dn := &src.nodes[srcID], &dst.nodes[dstID]
			dn.keys = sn.keys.clone()
			dn.vals = append(dn.vals[:0], sn.vals...)
			return
		}
		for slot, key := range src.nodes[srcID].keys.all() {
			v := src.nodes[srcID].vals[slot]
			if f != nil {
				v = f(v)
				if dst.isZero(v) {
					continue
				}
			}
			dst.store(dstID, key, v)
		}
		return
	}

	for slot, key := range src.nodes[srcID].keys.all() {
		sc := src.nodes[srcID].kids[slot]
		capacity := src.nodes[sc].keys.Len()
		if src.nodes[sc].isVector() {
			capacity += extra
		}
		dc := dst.alloc(dst.nodes[dstID].rank-1, dstID, key, capacity)
		copyInto(dst, dc, src, sc, f, extra)
		dst.attachOrRelease(dstID, key, dc)
	}
}
