package tensor

import (
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestString(t *testing.T) {
	tests := []struct {
		name  string
		build func() *Tensor[float64]
		want  string
	}{
		{"empty", func() *Tensor[float64] { return mustNew(t, Shape{3}) }, "{}"},
		{"vector", func() *Tensor[float64] { return vector(t, 2, 0, 5) }, "{{0,2}, {2,5}}"},
		{"matrix", func() *Tensor[float64] {
			m := mustNew(t, Shape{2, 2})
			m.Set(2, 1, 1)
			m.Set(1, 0, 0)
			m.Set(1.5, 1, 0)
			return m
		}, "{{0,{{0,1}}}, {1,{{0,1.5}, {1,2}}}}"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.build().String())
		})
	}

	var none *Tensor[float64]
	assert.Equal(t, "<nil>", none.String())
}

func TestNodeString(t *testing.T) {
	m := mustNew(t, Shape{2, 3})
	m.Set(4, 1, 2)

	row, err := m.Root().Subtree(1)
	require.NoError(t, err)
	assert.Equal(t, "{{2,4}}", row.String())
}

func TestAllAscending(t *testing.T) {
	m := mustNew(t, Shape{3, 70})
	m.Set(1, 2, 69)
	m.Set(2, 0, 64)
	m.Set(3, 0, 1)

	var paths [][]int
	var values []float64
	for path, v := range m.All() {
		paths = append(paths, slices.Clone(path))
		values = append(values, v)
	}

	assert.Equal(t, [][]int{{0, 1}, {0, 64}, {2, 69}}, paths)
	assert.Equal(t, []float64{3, 2, 1}, values)
}

func TestAllStopsEarly(t *testing.T) {
	v := vector(t, 1, 2, 3)
	n := 0
	for range v.All() {
		n++
		if n == 2 {
			break
		}
	}
	assert.Equal(t, 2, n)
}
