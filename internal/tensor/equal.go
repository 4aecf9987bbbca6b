package tensor

// Equal reports whether a and b have the same shape, the same sparsity
// pattern at every level and exactly equal values. Two nil tensors are equal.
func Equal[T any](a, b *Tensor[T]) bool {
	return equal(a, b, func(x, y T) bool { return a.ar.Compare(x, y) == 0 })
}

// EqualWithin is like Equal but accepts values with |x-y| <= eps.
// The sparsity patterns must still match exactly.
func EqualWithin[T any](a, b *Tensor[T], eps T) bool {
	return equal(a, b, func(x, y T) bool {
		return a.ar.Compare(a.ar.Absolute(a.ar.Sub(x, y)), eps) <= 0
	})
}

func equal[T any](a, b *Tensor[T], same func(x, y T) bool) bool {
	if a == nil || b == nil {
		return a == b
	}
	if !a.shape.Equal(b.shape) {
		return false
	}
	return equalNodes(a, rootID, b, rootID, same)
}

func equalNodes[T any](a *Tensor[T], aID int32, b *Tensor[T], bID int32, same func(x, y T) bool) bool {
	na, nb := &a.nodes[aID], &b.nodes[bID]
	if !na.keys.equal(&nb.keys) {
		return false
	}
	if na.isVector() {
		for i := range na.vals {
			if !same(na.vals[i], nb.vals[i]) {
				return false
			}
		}
		return true
	}
	for i := range na.kids {
		if !equalNodes(a, na.kids[i], b, nb.kids[i], same) {
			return false
		}
	}
	return true
}
