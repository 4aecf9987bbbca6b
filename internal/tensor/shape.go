package tensor

import (
	"fmt"
	"math"
	"math/bits"
)

// Shape represents the per-rank dimensions of a tensor, outermost rank first.
//
// A Shape is shared by reference across every node of a hierarchy and across
// copies made with ShareShape. Treat a shape that is in use as read-only.
type Shape []int

// NumElements returns the number of elements a dense tensor of this shape holds.
// The result is only meaningful for shapes that pass Validate.
func (s Shape) NumElements() int {
	n, _ := s.checkedElements()
	return n
}

// checkedElements multiplies the dimensions, reporting false when a dimension
// is negative or the product does not fit in an int.
func (s Shape) checkedElements() (int, bool) {
	var n uint64 = 1
	for _, dim := range s {
		if dim < 0 {
			return 0, false
		}
		hi, lo := bits.Mul64(n, uint64(dim))
		if hi != 0 || lo > math.MaxInt {
			return 0, false
		}
		n = lo
	}
	return int(n), true
}

// Validate checks that the shape has at least one rank and all dimensions are > 0.
func (s Shape) Validate() error {
	if len(s) == 0 {
		return fmt.Errorf("%w: rank must be at least 1", ErrInvalidShape)
	}
	for i, dim := range s {
		if dim <= 0 {
			return fmt.Errorf("%w: dimension at index %d: %d (must be > 0)", ErrInvalidShape, i, dim)
		}
	}
	if _, ok := s.checkedElements(); !ok {
		return fmt.Errorf("%w: %v has more elements than an int can count", ErrInvalidShape, []int(s))
	}
	return nil
}

// Equal checks if two shapes are equal.
func (s Shape) Equal(other Shape) bool {
	if len(s) != len(other) {
		return false
	}
	for i := range s {
		if s[i] != other[i] {
			return false
		}
	}
	return true
}

// Clone returns a copy of the shape.
func (s Shape) Clone() Shape {
	clone := make(Shape, len(s))
	copy(clone, s)
	return clone
}

// Concat returns a new shape holding the dimensions of s followed by other.
func (s Shape) Concat(other Shape) Shape {
	out := make(Shape, 0, len(s)+len(other))
	out = append(out, s...)
	return append(out, other...)
}

// Without returns a new shape with the dimension at rankIndex removed.
func (s Shape) Without(rankIndex int) Shape {
	out := make(Shape, 0, len(s)-1)
	out = append(out, s[:rankIndex]...)
	return append(out, s[rankIndex+1:]...)
}

// Sub returns the substructure of a node with the given rank: the innermost
// rank dimensions. The result aliases s.
func (s Shape) Sub(rank int) Shape {
	return s[len(s)-rank:]
}

// ComputeStrides calculates row-major strides for the shape.
// Strides define memory layout: stride[i] = product of all dimensions after i.
func (s Shape) ComputeStrides() []int {
	strides := make([]int, len(s))
	if len(s) == 0 {
		return strides
	}

	strides[len(s)-1] = 1
	for i := len(s) - 2; i >= 0; i-- {
		strides[i] = strides[i+1] * s[i+1]
	}
	return strides
}

// slotRank converts a 1-based slot (rank as written) into a 0-based rank
// index counted from the top of the hierarchy.
func slotRank(slot int) int {
	return slot - 1
}
