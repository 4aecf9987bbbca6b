package tensor

import "fmt"

// Elementwise algebra comes in two flavors. The Into forms mutate and return
// their first operand and are meant for iterative assembly; the plain forms
// copy first and leave their operands untouched.
//
// A nil operand is absent and behaves algebraically: it is the identity of
// Sum and Sub, and ScaleInto by zero produces an empty tensor.

func checkSameShape[T any](op string, a, b *Tensor[T]) error {
	if !a.shape.Equal(b.shape) {
		return fmt.Errorf("%s: %w: shapes %v and %v", op, ErrMismatchedStructure, a.shape, b.shape)
	}
	return nil
}

// SumInto adds src into dst and returns dst. SumInto(nil, src) returns a copy
// of src; SumInto(dst, nil) returns dst unchanged.
func SumInto[T any](dst, src *Tensor[T]) (*Tensor[T], error) {
	return combineInto("sum", dst, src, false)
}

// SubInto subtracts src from dst and returns dst. SubInto(nil, src) returns a
// negated copy of src; SubInto(dst, nil) returns dst unchanged.
func SubInto[T any](dst, src *Tensor[T]) (*Tensor[T], error) {
	return combineInto("sub", dst, src, true)
}

func combineInto[T any](op string, dst, src *Tensor[T], negate bool) (*Tensor[T], error) {
	switch {
	case src == nil:
		return dst, nil
	case dst == nil:
		out := src.Clone()
		if negate {
			NegateInto(out)
		}
		return out, nil
	}
	if err := checkSameShape(op, dst, src); err != nil {
		return nil, err
	}
	if dst == src {
		// Iterating src while mutating it is undefined, so combine with a snapshot.
		src = src.Clone()
	}
	dst.merge(rootID, src, rootID, negate)
	return dst, nil
}

// merge combines src's node sID into t's node id (same rank). Subtrees that
// become empty are removed; unmatched src subtrees are copied over.
func (t *Tensor[T]) merge(id int32, src *Tensor[T], sID int32, negate bool) {
	var f func(T) T
	if negate {
		f = t.ar.Negate
	}

	if t.nodes[id].isVector() {
		for slot, key := range src.nodes[sID].keys.all() {
			v := src.nodes[sID].vals[slot]
			if cur, ok := t.value(id, key); ok {
				if negate {
					t.put(id, key, t.ar.Sub(cur, v))
				} else {
					t.put(id, key, t.ar.Sum(cur, v))
				}
				continue
			}
			if f != nil {
				v = f(v)
			}
			if !t.isZero(v) {
				t.store(id, key, v)
			}
		}
		return
	}

	for slot, key := range src.nodes[sID].keys.all() {
		sc := src.nodes[sID].kids[slot]
		if c, ok := t.child(id, key); ok {
			t.merge(c, src, sc, negate)
			if t.nodes[c].keys.Len() == 0 {
				t.removeEntry(id, key)
			}
			continue
		}
		c := t.alloc(t.nodes[id].rank-1, id, key, src.nodes[sc].keys.Len())
		copyInto(t, c, src, sc, f, 0)
		t.attachOrRelease(id, key, c)
	}
}

// NegateInto negates every entry of t in place and returns t.
func NegateInto[T any](t *Tensor[T]) *Tensor[T] {
	if t == nil {
		return nil
	}
	t.transform(rootID, t.ar.Negate)
	return t
}

// ScaleInto multiplies every entry of t by s in place and returns t. Scaling by
// the arithmetic zero empties t.
func ScaleInto[T any](t *Tensor[T], s T) *Tensor[T] {
	if t == nil {
		return nil
	}
	if t.isZero(s) {
		t.clear()
		return t
	}
	t.transform(rootID, func(v T) T { return t.ar.Multiply(v, s) })
	return t
}

// Chop removes, in place, every entry whose absolute value is at most eps and
// returns t. Exact-zero pruning leaves rounding residues behind after
// cancellation; Chop is the explicit way to discard them.
func Chop[T any](t *Tensor[T], eps T) *Tensor[T] {
	if t == nil {
		return nil
	}
	zero := t.ar.Zero()
	t.transform(rootID, func(v T) T {
		if t.ar.Compare(t.ar.Absolute(v), eps) <= 0 {
			return zero
		}
		return v
	})
	return t
}

// transform replaces every value below id with f(value), removing entries that
// become zero and subtrees that become empty.
func (t *Tensor[T]) transform(id int32, f func(T) T) {
	var drop []int
	if t.nodes[id].isVector() {
		nd := &t.nodes[id]
		for slot, key := range nd.keys.all() {
			v := f(nd.vals[slot])
			if t.isZero(v) {
				drop = append(drop, key)
				continue
			}
			nd.vals[slot] = v
		}
	} else {
		for slot, key := range t.nodes[id].keys.all() {
			c := t.nodes[id].kids[slot]
			t.transform(c, f)
			if t.nodes[c].keys.Len() == 0 {
				drop = append(drop, key)
			}
		}
	}
	for _, key := range drop {
		t.removeEntry(id, key)
	}
}

// clear removes every entry, keeping the root.
func (t *Tensor[T]) clear() {
	for _, key := range t.nodes[rootID].keys.keys() {
		t.removeEntry(rootID, key)
	}
}

// Sum returns a+b without modifying either operand.
func Sum[T any](a, b *Tensor[T]) (*Tensor[T], error) {
	if a != nil && b != nil {
		if err := checkSameShape("sum", a, b); err != nil {
			return nil, err
		}
	}
	return SumInto(Copy(a, DeepCopy), b)
}

// Sub returns a-b without modifying either operand.
func Sub[T any](a, b *Tensor[T]) (*Tensor[T], error) {
	if a != nil && b != nil {
		if err := checkSameShape("sub", a, b); err != nil {
			return nil, err
		}
	}
	return SubInto(Copy(a, DeepCopy), b)
}

// Negate returns -t without modifying t.
func Negate[T any](t *Tensor[T]) *Tensor[T] {
	return NegateInto(Copy(t, DeepCopy))
}

// Scale returns s*t without modifying t.
func Scale[T any](t *Tensor[T], s T) *Tensor[T] {
	return ScaleInto(Copy(t, DeepCopy), s)
}

// NormSquared returns the sum of the squares of all entries.
func NormSquared[T any](t *Tensor[T]) T {
	if t == nil {
		var zero T
		return zero
	}
	acc := t.ar.Zero()
	for _, v := range t.All() {
		acc = t.ar.Sum(acc, t.ar.Multiply(v, v))
	}
	return acc
}
