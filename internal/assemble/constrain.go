package assemble

import (
	"fmt"
	"slices"

	"github.com/sparsefem/sparsefem/internal/tensor"
)

// Constrain imposes fixed values on dofs of the linear system k·u = f.
//
// For every fixed dof d with value g, the column k[:, d] times g is moved to
// the right-hand side, row and column d are cleared, k[d, d] is set to 1 and
// f[d] to g. The result stays symmetric, so it remains a valid input for
// conjugate gradients.
func Constrain(k, f *tensor.Tensor[float64], fixed map[int]float64) error {
	if k.Rank() != 2 || f.Rank() != 1 {
		return fmt.Errorf("%w: need a rank 2 matrix and a rank 1 vector, got %d and %d",
			ErrRankMismatch, k.Rank(), f.Rank())
	}
	n := f.Shape()[0]
	if k.Shape()[0] != n || k.Shape()[1] != n {
		return fmt.Errorf("%w: matrix %v, vector %v", ErrRankMismatch, k.Shape(), f.Shape())
	}
	for d := range fixed {
		if d < 0 || d >= n {
			return fmt.Errorf("%w: fixed dof %d, dimension %d", ErrDofOutOfRange, d, n)
		}
	}

	// Collect touched entries first; k must not change while it is iterated.
	type entry struct {
		row, col int
		v        float64
	}
	var touched []entry
	for path, v := range k.All() {
		_, rowFixed := fixed[path[0]]
		_, colFixed := fixed[path[1]]
		if rowFixed || colFixed {
			touched = append(touched, entry{path[0], path[1], v})
		}
	}

	for _, e := range touched {
		if g, ok := fixed[e.col]; ok {
			if _, rowFixed := fixed[e.row]; !rowFixed {
				f.Set(f.Get(e.row)-e.v*g, e.row)
			}
		}
		k.Set(0, e.row, e.col)
	}

	dofs := make([]int, 0, len(fixed))
	for d := range fixed {
		dofs = append(dofs, d)
	}
	slices.Sort(dofs)
	for _, d := range dofs {
		k.Set(1, d, d)
		f.Set(fixed[d], d)
	}
	return nil
}
