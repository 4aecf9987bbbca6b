package tensor

import (
	"slices"
	"testing"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/stretchr/testify/require"

	"github.com/sparsefem/sparsefem/internal/arith"
)

const seed = 1234567890

// randomTensor returns a float tensor whose non-zero entries are small
// integers, so sums and products stay exact.
func randomTensor(t *testing.T, fake *gofakeit.Faker, shape Shape, density float64) *Tensor[float64] {
	t.Helper()
	values := make([]float64, shape.NumElements())
	for i := range values {
		if fake.Float64Range(0, 1) < density {
			v := fake.IntRange(1, 9)
			if fake.Bool() {
				v = -v
			}
			values[i] = float64(v)
		}
	}
	x, err := FromFlatValues(values, shape, arith.Float64)
	require.NoError(t, err)
	return x
}

func randomShape(fake *gofakeit.Faker, rank int) Shape {
	shape := make(Shape, rank)
	for i := range shape {
		shape[i] = fake.IntRange(1, 5)
	}
	return shape
}

func mustNew(t *testing.T, shape Shape) *Tensor[float64] {
	t.Helper()
	x, err := New(shape, arith.Float64, 0)
	require.NoError(t, err)
	return x
}

func vector(t *testing.T, values ...float64) *Tensor[float64] {
	t.Helper()
	x, err := FromFlatValues(values, Shape{len(values)}, arith.Float64)
	require.NoError(t, err)
	return x
}

// requireSparse checks the structural invariants of every reachable node:
// no empty non-root node, no stored zero, consistent back-references.
func requireSparse[T any](t *testing.T, x *Tensor[T]) {
	t.Helper()
	if x == nil {
		return
	}
	var check func(id int32, rank int)
	check = func(id int32, rank int) {
		nd := &x.nodes[id]
		require.True(t, nd.live, "reachable node %d is released", id)
		require.Equal(t, rank, nd.rank)
		if id != rootID {
			require.NotZero(t, nd.keys.Len(), "empty subtree reachable at node %d", id)
		}
		if nd.isVector() {
			require.Len(t, nd.vals, nd.keys.Len())
			for _, v := range nd.vals {
				require.False(t, x.isZero(v), "stored zero at node %d", id)
			}
			return
		}
		require.Len(t, nd.kids, nd.keys.Len())
		for slot, key := range nd.keys.all() {
			c := nd.kids[slot]
			require.Equal(t, id, x.nodes[c].parent)
			require.Equal(t, key, x.nodes[c].key)
			check(c, rank-1)
		}
	}
	check(rootID, x.Rank())
}

// forEachIndex calls f with every index tuple of shape in row-major order.
func forEachIndex(shape Shape, f func(idx []int)) {
	idx := make([]int, len(shape))
	for {
		f(slices.Clone(idx))
		i := len(shape) - 1
		for ; i >= 0; i-- {
			idx[i]++
			if idx[i] < shape[i] {
				break
			}
			idx[i] = 0
		}
		if i < 0 {
			return
		}
	}
}

// insertAt returns a copy of idx with v inserted at position pos.
func insertAt(idx []int, pos, v int) []int {
	return slices.Insert(slices.Clone(idx), pos, v)
}

// denseContract computes Contract by brute force over every index.
func denseContract(t *testing.T, a *Tensor[float64], ra int, b *Tensor[float64], rb int) *Tensor[float64] {
	t.Helper()
	shape := a.Shape().Without(ra).Concat(b.Shape().Without(rb))
	out := mustNew(t, shape)
	split := a.Rank() - 1
	forEachIndex(shape, func(idx []int) {
		sum := 0.0
		for i := 0; i < a.Shape()[ra]; i++ {
			sum += a.Get(insertAt(idx[:split], ra, i)...) * b.Get(insertAt(idx[split:], rb, i)...)
		}
		out.Set(sum, idx...)
	})
	return out
}
