package tensor

// TensorProduct returns the outer product of a and b: a tensor of rank
// rank(a)+rank(b) whose shape is the concatenation of both shapes, with
// entry [i..., j...] = a[i...] * b[j...].
//
// a's hierarchy is copied down to its vectors and every scalar s of a is
// replaced by a copy of b scaled by s, so the cost is proportional to
// count(a) * count(b). A nil operand yields nil; an empty operand yields an
// empty tensor of the combined shape.
func TensorProduct[T any](a, b *Tensor[T]) *Tensor[T] {
	if a == nil || b == nil {
		return nil
	}
	out := newTensor(a.shape.Concat(b.shape), a.ar, a.nodes[rootID].keys.Len())
	if a.IsEmpty() || b.IsEmpty() {
		return out
	}
	out.product(rootID, a, rootID, b)
	return out
}

// product fills t's node id with the product of a's node aID and all of b.
func (t *Tensor[T]) product(id int32, a *Tensor[T], aID int32, b *Tensor[T]) {
	rank := t.nodes[id].rank - 1
	if a.nodes[aID].isVector() {
		for slot, key := range a.nodes[aID].keys.all() {
			s := a.nodes[aID].vals[slot]
			c := t.alloc(rank, id, key, b.nodes[rootID].keys.Len())
			copyInto(t, c, b, rootID, func(v T) T { return t.ar.Multiply(s, v) }, 0)
			t.attachOrRelease(id, key, c)
		}
		return
	}
	for slot, key := range a.nodes[aID].keys.all() {
		ac := a.nodes[aID].kids[slot]
		c := t.alloc(rank, id, key, a.nodes[ac].keys.Len())
		t.product(c, a, ac, b)
		t.attachOrRelease(id, key, c)
	}
}
