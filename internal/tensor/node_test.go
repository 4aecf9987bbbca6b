package tensor

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetSet(t *testing.T) {
	x := mustNew(t, Shape{3, 4, 5})

	x.Set(1.5, 0, 1, 2)
	x.Set(-2, 2, 3, 4)

	assert.Equal(t, 1.5, x.Get(0, 1, 2))
	assert.Equal(t, -2.0, x.Get(2, 3, 4))
	assert.Equal(t, 0.0, x.Get(1, 1, 1))
	assert.Equal(t, 2, x.Count())
	requireSparse(t, x)

	x.Set(3, 0, 1, 2)
	assert.Equal(t, 3.0, x.Get(0, 1, 2))
	assert.Equal(t, 2, x.Count())
}

func TestGetDoesNotAllocate(t *testing.T) {
	x := mustNew(t, Shape{4, 4})
	before := len(x.nodes)

	assert.Equal(t, 0.0, x.Get(3, 2))
	assert.Equal(t, before, len(x.nodes))
	assert.True(t, x.IsEmpty())
}

func TestSetZeroRemovesEmptyBranch(t *testing.T) {
	x := mustNew(t, Shape{2, 3, 4})
	x.Set(7, 1, 2, 3)
	x.Set(5, 0, 0, 0)

	x.Set(0, 1, 2, 3)

	assert.Equal(t, 1, x.Count())
	_, ok := x.Root().Child(1)
	assert.False(t, ok, "branch emptied by a zero write must be removed")
	assert.Equal(t, []int{0}, x.Root().Keys())
	requireSparse(t, x)

	// Writing zero where nothing is stored is a no-op.
	x.Set(0, 1, 1, 1)
	assert.Equal(t, 1, x.Count())
}

func TestSetZeroStopsAtNonEmptyAncestor(t *testing.T) {
	x := mustNew(t, Shape{2, 2, 2})
	x.Set(1, 0, 0, 0)
	x.Set(2, 0, 1, 1)

	x.Set(0, 0, 0, 0)

	top, ok := x.Root().Child(0)
	require.True(t, ok)
	assert.Equal(t, []int{1}, top.Keys())
	assert.Equal(t, 2.0, x.Get(0, 1, 1))
	requireSparse(t, x)
}

func TestSetPanicsOnBadPath(t *testing.T) {
	x := mustNew(t, Shape{2, 3})

	assert.Panics(t, func() { x.Set(1, 0) })
	assert.Panics(t, func() { x.Set(1, 0, 3) })
	assert.Panics(t, func() { x.Get(-1, 0) })
	assert.Panics(t, func() { x.Get(0, 0, 0) })
}

func TestNodeNavigation(t *testing.T) {
	x := mustNew(t, Shape{3, 4, 5})
	x.Set(1, 2, 3, 4)

	n, err := x.Root().Subtree(2, 3)
	require.NoError(t, err)

	assert.Equal(t, 1, n.Rank())
	assert.Equal(t, 5, n.Dim())
	assert.Equal(t, Shape{5}, n.Shape())
	assert.Equal(t, []int{2, 3}, n.Path())
	assert.Equal(t, 1.0, n.Get(4))
	assert.False(t, n.IsRoot())

	p, ok := n.Parent()
	require.True(t, ok)
	assert.Equal(t, []int{2}, p.Path())

	root, ok := p.Parent()
	require.True(t, ok)
	assert.True(t, root.IsRoot())
	_, ok = root.Parent()
	assert.False(t, ok)
}

func TestSubtreeMissing(t *testing.T) {
	x := mustNew(t, Shape{3, 4, 5})
	x.Set(1, 2, 3, 4)

	_, err := x.Root().Subtree(1)
	assert.ErrorIs(t, err, ErrMissingSubordinate)

	_, err = x.Root().Subtree(2, 3, 4)
	assert.ErrorIs(t, err, ErrInvalidRank)
}

func TestNodeSetThroughSubtree(t *testing.T) {
	x := mustNew(t, Shape{3, 4})
	x.Set(1, 1, 0)

	row, err := x.Root().Subtree(1)
	require.NoError(t, err)
	row.Set(2, 3)

	assert.Equal(t, 2.0, x.Get(1, 3))
	assert.Equal(t, 2, row.Count())
}

func TestSubordinate(t *testing.T) {
	x := mustNew(t, Shape{3, 4})

	row, err := x.Root().Subordinate(2, 8)
	require.NoError(t, err)
	assert.Equal(t, []int{2}, row.Path())
	assert.Equal(t, 1, row.Rank())

	again, err := x.Root().Subordinate(2, 8)
	require.NoError(t, err)
	assert.Equal(t, row, again)

	row.Set(5, 1)
	assert.Equal(t, 5.0, x.Get(2, 1))

	_, err = row.Subordinate(0, 1)
	assert.ErrorIs(t, err, ErrInvalidRank)

	_, err = x.Root().Subordinate(3, 1)
	assert.ErrorIs(t, err, ErrIndexOutOfRange)
}

func TestCompactRemovesUnpopulatedSubordinates(t *testing.T) {
	x := mustNew(t, Shape{3, 4, 2})
	_, err := x.Root().Subordinate(0, 1)
	require.NoError(t, err)
	x.Set(1, 1, 1, 1)

	x.Compact()

	assert.Equal(t, []int{1}, x.Root().Keys())
	requireSparse(t, x)
}

func TestStaleHandlePanics(t *testing.T) {
	x := mustNew(t, Shape{2, 2})
	x.Set(1, 0, 1)

	row, err := x.Root().Subtree(0)
	require.NoError(t, err)

	x.Set(0, 0, 1)
	assert.Panics(t, func() { row.Get(1) })

	// The released slot is reused by the next allocation.
	x.Set(3, 1, 0)
	assert.Panics(t, func() { row.Count() })
	assert.Equal(t, 3.0, x.Get(1, 0))
}

func TestNodeCopyRelocatesSubtree(t *testing.T) {
	x := mustNew(t, Shape{2, 3, 4})
	x.Set(1, 1, 0, 3)
	x.Set(2, 1, 2, 0)
	x.Set(9, 0, 0, 0)

	sub, err := x.Root().Subtree(1)
	require.NoError(t, err)

	c := sub.Copy(DeepCopy)
	assert.Equal(t, Shape{3, 4}, c.Shape())
	assert.Equal(t, 2, c.Count())
	assert.Equal(t, 1.0, c.Get(0, 3))
	assert.Equal(t, 2.0, c.Get(2, 0))
	requireSparse(t, c)

	c.Set(5, 0, 0)
	assert.Equal(t, 0.0, x.Get(1, 0, 0), "copy must be independent")
}
