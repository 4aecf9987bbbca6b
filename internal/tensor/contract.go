package tensor

import "fmt"

// Rank indices count from the top of the hierarchy starting at 0. Slots are
// the 1-based "as written" positions used by Contract and SelfContract:
// slot s addresses rank index s-1.

// ReduceRank eliminates rank rankIndex by fixing its index to elem. The
// result has rank rank(t)-1 and the shape of t without that rank.
//
// Every node directly above the eliminated rank keeps only the subordinate
// stored at elem, spliced into its own place; siblings are discarded. A nil t
// yields nil. Reducing a vector yields a scalar and is rejected with
// ErrScalarResult; use Get instead.
func ReduceRank[T any](t *Tensor[T], rankIndex, elem int) (*Tensor[T], error) {
	if t == nil {
		return nil, nil
	}
	rank := t.Rank()
	if rankIndex < 0 || rankIndex >= rank {
		return nil, fmt.Errorf("%w: %d not in [0, %d)", ErrInvalidRank, rankIndex, rank)
	}
	if dim := t.shape[rankIndex]; elem < 0 || elem >= dim {
		return nil, fmt.Errorf("%w: element %d for rank %d of dimension %d",
			ErrIndexOutOfRange, elem, rankIndex, dim)
	}
	if rank == 1 {
		return nil, fmt.Errorf("%w: reducing the only rank of a vector, use Get", ErrScalarResult)
	}

	out := newTensor(t.shape.Without(rankIndex), t.ar, DefaultCapacity)
	if rankIndex == 0 {
		// The top rank: the chosen subordinate becomes the whole result.
		if c, ok := t.child(rootID, elem); ok {
			copyInto(out, rootID, t, c, nil, 0)
		}
		return out, nil
	}
	out.reduce(rootID, t, rootID, 0, rankIndex, elem)
	return out, nil
}

// reduce copies src's node sID (at depth) into t's node id, eliminating the
// rank at target. depth is always above target.
func (t *Tensor[T]) reduce(id int32, src *Tensor[T], sID int32, depth, target, elem int) {
	rank := t.nodes[id].rank - 1

	switch {
	case depth < target-1:
		// Above the splice point: copy the rank unchanged and descend.
		for slot, key := range src.nodes[sID].keys.all() {
			sc := src.nodes[sID].kids[slot]
			c := t.alloc(rank, id, key, src.nodes[sc].keys.Len())
			t.reduce(c, src, sc, depth+1, target, elem)
			t.attachOrRelease(id, key, c)
		}

	case target == src.Rank()-1:
		// The eliminated rank is the vector rank. Vectors hold scalars, so
		// the node above becomes a vector assembled from the scalar at elem
		// of each of its subordinate vectors.
		for slot, key := range src.nodes[sID].keys.all() {
			if v, ok := src.value(src.nodes[sID].kids[slot], elem); ok {
				t.store(id, key, v)
			}
		}

	default:
		// Interior rank: splice the grandchild at elem into the child's place.
		for slot, key := range src.nodes[sID].keys.all() {
			g, ok := src.child(src.nodes[sID].kids[slot], elem)
			if !ok {
				continue
			}
			c := t.alloc(rank, id, key, src.nodes[g].keys.Len())
			copyInto(t, c, src, g, nil, 0)
			t.attachOrRelease(id, key, c)
		}
	}
}

// Contract sums the tensor product of a and b over one matched slot pair:
//
//	result = Σ_i ReduceRank(a, slotA-1, i) ⊗ ReduceRank(b, slotB-1, i)
//
// The dimensions at slotA and slotB must agree. The result's shape is a's
// shape without slotA followed by b's shape without slotB. Indices for which
// either reduction is empty contribute nothing. A vector operand degenerates
// to scalar-weighted accumulation of the other operand's reductions.
//
// Contracting two vectors yields a scalar and is rejected with
// ErrScalarResult; use Dot. A nil operand yields nil.
func Contract[T any](a *Tensor[T], slotA int, b *Tensor[T], slotB int) (*Tensor[T], error) {
	if a == nil || b == nil {
		return nil, nil
	}
	ra, rb := slotRank(slotA), slotRank(slotB)
	if ra < 0 || ra >= a.Rank() {
		return nil, fmt.Errorf("contract: %w: slot %d of a rank %d tensor", ErrInvalidRank, slotA, a.Rank())
	}
	if rb < 0 || rb >= b.Rank() {
		return nil, fmt.Errorf("contract: %w: slot %d of a rank %d tensor", ErrInvalidRank, slotB, b.Rank())
	}
	dim := a.shape[ra]
	if dim != b.shape[rb] {
		return nil, fmt.Errorf("contract: %w: slot %d has dimension %d, slot %d has dimension %d",
			ErrMismatchedStructure, slotA, dim, slotB, b.shape[rb])
	}
	if a.Rank() == 1 && b.Rank() == 1 {
		return nil, fmt.Errorf("contract: %w: both operands are vectors, use Dot", ErrScalarResult)
	}

	out := newTensor(a.shape.Without(ra).Concat(b.shape.Without(rb)), a.ar, DefaultCapacity)
	for i := 0; i < dim; i++ {
		var term *Tensor[T]
		switch {
		case a.Rank() == 1:
			s, ok := a.value(rootID, i)
			if !ok {
				continue
			}
			term = weighted(s, b, rb, i, true)
		case b.Rank() == 1:
			s, ok := b.value(rootID, i)
			if !ok {
				continue
			}
			term = weighted(s, a, ra, i, false)
		default:
			ta, _ := ReduceRank(a, ra, i)
			if ta.IsEmpty() {
				continue
			}
			tb, _ := ReduceRank(b, rb, i)
			if tb.IsEmpty() {
				continue
			}
			term = TensorProduct(ta, tb)
		}
		if term.IsEmpty() {
			continue
		}
		out.merge(rootID, term, rootID, false)
	}
	return out, nil
}

// weighted returns s times the reduction of t at rank r, element i. left
// tells whether s multiplies from the left.
func weighted[T any](s T, t *Tensor[T], r, i int, left bool) *Tensor[T] {
	red, _ := ReduceRank(t, r, i)
	if red.IsEmpty() {
		return nil
	}
	red.transform(rootID, func(v T) T {
		if left {
			return red.ar.Multiply(s, v)
		}
		return red.ar.Multiply(v, s)
	})
	return red
}

// Dot returns the inner product of two vectors of equal dimension.
func Dot[T any](a, b *Tensor[T]) (T, error) {
	var zero T
	if a == nil || b == nil {
		return zero, nil
	}
	if a.Rank() != 1 || b.Rank() != 1 {
		return zero, fmt.Errorf("dot: %w: operands have ranks %d and %d", ErrInvalidRank, a.Rank(), b.Rank())
	}
	if !a.shape.Equal(b.shape) {
		return zero, fmt.Errorf("dot: %w: dimensions %d and %d", ErrMismatchedStructure, a.shape[0], b.shape[0])
	}

	// Walk the sparser operand and probe the other.
	x, y := a, b
	if y.nodes[rootID].keys.Len() < x.nodes[rootID].keys.Len() {
		x, y = y, x
	}
	acc := a.ar.Zero()
	for slot, key := range x.nodes[rootID].keys.all() {
		w, ok := y.value(rootID, key)
		if !ok {
			continue
		}
		v := x.nodes[rootID].vals[slot]
		if x == a {
			acc = a.ar.Sum(acc, a.ar.Multiply(v, w))
		} else {
			acc = a.ar.Sum(acc, a.ar.Multiply(w, v))
		}
	}
	return acc, nil
}

// SelfContract sums t over the diagonal of two of its slots:
//
//	result = Σ_i t with slot1 and slot2 both fixed to i
//
// Only the diagonal is summed, never the cross product of two independent
// indices. t must have rank ≥ 3; the rank 2 case is a scalar, see Trace.
func SelfContract[T any](t *Tensor[T], slot1, slot2 int) (*Tensor[T], error) {
	if t == nil {
		return nil, nil
	}
	r1, r2 := slotRank(slot1), slotRank(slot2)
	rank := t.Rank()
	if r1 < 0 || r1 >= rank || r2 < 0 || r2 >= rank || r1 == r2 {
		return nil, fmt.Errorf("self-contract: %w: slots %d and %d of a rank %d tensor", ErrInvalidRank, slot1, slot2, rank)
	}
	dim := t.shape[r1]
	if dim != t.shape[r2] {
		return nil, fmt.Errorf("self-contract: %w: slot %d has dimension %d, slot %d has dimension %d",
			ErrMismatchedStructure, slot1, dim, slot2, t.shape[r2])
	}
	if rank == 2 {
		return nil, fmt.Errorf("self-contract: %w: rank 2 contraction is a trace, use Trace", ErrScalarResult)
	}

	lo, hi := min(r1, r2), max(r1, r2)
	out := newTensor(t.shape.Without(hi).Without(lo), t.ar, DefaultCapacity)
	for i := 0; i < dim; i++ {
		// Eliminate the higher rank first so lo still addresses the same rank.
		x, _ := ReduceRank(t, hi, i)
		if x.IsEmpty() {
			continue
		}
		y, _ := ReduceRank(x, lo, i)
		if y.IsEmpty() {
			continue
		}
		out.merge(rootID, y, rootID, false)
	}
	return out, nil
}

// Trace returns Σ_i t[i, i] for a square rank 2 tensor.
func Trace[T any](t *Tensor[T]) (T, error) {
	var zero T
	if t == nil {
		return zero, nil
	}
	if t.Rank() != 2 {
		return zero, fmt.Errorf("trace: %w: rank %d", ErrInvalidRank, t.Rank())
	}
	if t.shape[0] != t.shape[1] {
		return zero, fmt.Errorf("trace: %w: shape %v is not square", ErrMismatchedStructure, t.shape)
	}
	acc := t.ar.Zero()
	for slot, key := range t.nodes[rootID].keys.all() {
		if v, ok := t.value(t.nodes[rootID].kids[slot], key); ok {
			acc = t.ar.Sum(acc, v)
		}
	}
	return acc, nil
}
