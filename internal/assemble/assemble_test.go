package assemble

import (
	"strings"
	"testing"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sparsefem/sparsefem/internal/arith"
	"github.com/sparsefem/sparsefem/internal/loader"
	"github.com/sparsefem/sparsefem/internal/parallel"
	"github.com/sparsefem/sparsefem/internal/tensor"
)

func barElement(t *testing.T) *tensor.Tensor[float64] {
	t.Helper()
	k, err := tensor.FromFlatValues([]float64{1, -1, -1, 1}, tensor.Shape{2, 2}, arith.Float64)
	require.NoError(t, err)
	return k
}

func TestScatter(t *testing.T) {
	a := New(barElement(t))
	global, err := tensor.New(tensor.Shape{3, 3}, arith.Float64, 2)
	require.NoError(t, err)

	require.NoError(t, a.Scatter(global, []int{0, 1}))
	require.NoError(t, a.Scatter(global, []int{1, 2}))

	assert.Equal(t, 1.0, global.Get(0, 0))
	assert.Equal(t, 2.0, global.Get(1, 1))
	assert.Equal(t, -1.0, global.Get(2, 1))
	assert.Equal(t, 0.0, global.Get(0, 2))
	assert.Equal(t, 7, global.Count())
}

func TestScatter_Vector(t *testing.T) {
	f, err := tensor.FromFlatValues([]float64{0.5, 0.5}, tensor.Shape{2}, arith.Float64)
	require.NoError(t, err)
	global, err := tensor.New(tensor.Shape{4}, arith.Float64, 2)
	require.NoError(t, err)

	a := New(f)
	require.NoError(t, a.Scatter(global, []int{3, 1}))
	require.NoError(t, a.Scatter(global, []int{1, 2}))

	assert.Equal(t, "{{1,1}, {2,0.5}, {3,0.5}}", global.String())
}

func TestScatter_CancellationPrunes(t *testing.T) {
	a := New(barElement(t))
	global, err := tensor.New(tensor.Shape{2, 2}, arith.Float64, 2)
	require.NoError(t, err)

	require.NoError(t, a.Scatter(global, []int{0, 1}))
	neg := New(tensor.Negate(barElement(t)))
	require.NoError(t, neg.Scatter(global, []int{0, 1}))

	assert.True(t, global.IsEmpty())
	assert.Equal(t, "{}", global.String())
}

func TestScatter_Errors(t *testing.T) {
	a := New(barElement(t))
	matrix, err := tensor.New(tensor.Shape{3, 3}, arith.Float64, 2)
	require.NoError(t, err)
	vec, err := tensor.New(tensor.Shape{3}, arith.Float64, 2)
	require.NoError(t, err)

	assert.ErrorIs(t, a.Scatter(vec, []int{0, 1}), ErrRankMismatch)
	assert.ErrorIs(t, a.Scatter(matrix, []int{0}), ErrDofCount)
	assert.ErrorIs(t, a.Scatter(matrix, []int{0, 3}), ErrDofOutOfRange)
	assert.ErrorIs(t, a.Scatter(matrix, []int{-1, 0}), ErrDofOutOfRange)
	assert.True(t, matrix.IsEmpty(), "failed scatter must not write")
}

func TestAssembleAll_Bar(t *testing.T) {
	a := New(barElement(t))
	k, err := a.AssembleAll(4, [][]int{{0, 1}, {1, 2}, {2, 3}})
	require.NoError(t, err)

	want, err := tensor.FromFlatValues([]float64{
		1, -1, 0, 0,
		-1, 2, -1, 0,
		0, -1, 2, -1,
		0, 0, -1, 1,
	}, tensor.Shape{4, 4}, arith.Float64)
	require.NoError(t, err)
	assert.True(t, tensor.Equal(want, k), "got %s", k)
}

func TestAssembleAll_ParallelMatchesSequential(t *testing.T) {
	fake := gofakeit.New(1234567890)
	const size, elements = 40, 500

	local, err := tensor.New(tensor.Shape{3, 3}, arith.Float64, 3)
	require.NoError(t, err)
	for i := range 3 {
		for j := range 3 {
			local.Set(float64(fake.IntRange(-4, 4)), i, j)
		}
	}

	conn := make([][]int, elements)
	for e := range conn {
		conn[e] = []int{fake.IntRange(0, size-1), fake.IntRange(0, size-1), fake.IntRange(0, size-1)}
	}

	seq := &Assembler{Local: local, Config: Config{Parallel: parallel.Sequential()}}
	par := &Assembler{Local: local, Config: Config{
		Parallel: parallel.Config{Enabled: true, NumWorkers: 4, MinChunkSize: 16},
	}}

	want, err := seq.AssembleAll(size, conn)
	require.NoError(t, err)
	got, err := par.AssembleAll(size, conn)
	require.NoError(t, err)

	assert.True(t, tensor.Equal(want, got))
	assert.False(t, want.IsEmpty())
}

func TestAssembleAll_Errors(t *testing.T) {
	a := New(barElement(t))

	_, err := a.AssembleAll(0, nil)
	assert.ErrorIs(t, err, tensor.ErrInvalidShape)

	_, err = a.AssembleAll(3, [][]int{{0, 1}, {1, 5}})
	assert.ErrorIs(t, err, ErrDofOutOfRange)
	assert.ErrorContains(t, err, "element 1")

	empty, err := a.AssembleAll(3, nil)
	require.NoError(t, err)
	assert.True(t, empty.IsEmpty())
}

func TestConnectivity(t *testing.T) {
	tbl, err := loader.Load(strings.NewReader("3 2\n0 1\n1 2\n2 3\n"))
	require.NoError(t, err)

	conn, err := Connectivity(tbl)
	require.NoError(t, err)
	assert.Equal(t, [][]int{{0, 1}, {1, 2}, {2, 3}}, conn)

	vec, err := loader.Load(strings.NewReader("2\n0 1\n"))
	require.NoError(t, err)
	_, err = Connectivity(vec)
	assert.ErrorIs(t, err, loader.ErrMalformedTable)
}
