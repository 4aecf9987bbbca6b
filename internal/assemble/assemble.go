// Package assemble scatters element coefficient tensors into global tensors.
//
// An element contributes a local tensor of rank r whose every dimension equals
// the element's number of degrees of freedom. A dof map sends each local index
// to a global one, and the local entry at (i1..ir) is added to the global entry
// at (dofs[i1]..dofs[ir]). Global nodes are created on demand, so only the
// coupled entries of the global tensor are ever stored.
package assemble

import (
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/sparsefem/sparsefem/internal/arith"
	"github.com/sparsefem/sparsefem/internal/loader"
	"github.com/sparsefem/sparsefem/internal/parallel"
	"github.com/sparsefem/sparsefem/internal/tensor"
)

// Errors returned by assembly.
var (
	ErrRankMismatch  = errors.New("assemble: local and global ranks differ")
	ErrDofCount      = errors.New("assemble: dof map length does not match local dimension")
	ErrDofOutOfRange = errors.New("assemble: dof outside global dimension")
)

// Config controls global assembly.
type Config struct {
	// Parallel splits the element list across workers. Each worker owns a
	// partial global tensor; partials are summed at the end.
	Parallel parallel.Config
	// Capacity is the entry capacity of global nodes created on demand.
	Capacity int
	Logger   *zap.Logger
}

// DefaultConfig returns parallel assembly with a nop logger.
func DefaultConfig() Config {
	return Config{
		Parallel: parallel.DefaultConfig(),
		Capacity: tensor.DefaultCapacity,
		Logger:   zap.NewNop(),
	}
}

// Assembler adds one element tensor into global tensors.
type Assembler struct {
	Local  *tensor.Tensor[float64]
	Config Config
}

// New returns an assembler for local with DefaultConfig.
func New(local *tensor.Tensor[float64]) *Assembler {
	return &Assembler{Local: local, Config: DefaultConfig()}
}

// Scatter adds Local into global through the dof map.
// The global tensor is left untouched when an error is returned.
func (a *Assembler) Scatter(global *tensor.Tensor[float64], dofs []int) error {
	if err := a.check(global.Shape(), dofs); err != nil {
		return err
	}

	gpath := make([]int, a.Local.Rank())
	for path, v := range a.Local.All() {
		for i, li := range path {
			gpath[i] = dofs[li]
		}
		global.Set(global.Get(gpath...)+v, gpath...)
	}
	return nil
}

func (a *Assembler) check(global tensor.Shape, dofs []int) error {
	local := a.Local.Shape()
	if len(local) != len(global) {
		return fmt.Errorf("%w: local %d, global %d", ErrRankMismatch, len(local), len(global))
	}
	for r, dim := range local {
		if dim != len(dofs) {
			return fmt.Errorf("%w: local dimension %d at rank %d, %d dofs", ErrDofCount, dim, r, len(dofs))
		}
		for i, d := range dofs {
			if d < 0 || d >= global[r] {
				return fmt.Errorf("%w: dof %d (local %d) at rank %d, dimension %d",
					ErrDofOutOfRange, d, i, r, global[r])
			}
		}
	}
	return nil
}

// AssembleAll builds a global tensor of shape [size]*r from every element in
// connectivity, each row being one element's dof map.
func (a *Assembler) AssembleAll(size int, connectivity [][]int) (*tensor.Tensor[float64], error) {
	shape := make(tensor.Shape, a.Local.Rank())
	for i := range shape {
		shape[i] = size
	}
	if err := shape.Validate(); err != nil {
		return nil, err
	}

	capacity := a.Config.Capacity
	if capacity <= 0 {
		capacity = tensor.DefaultCapacity
	}
	logger := a.Config.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	n := len(connectivity)
	chunks := max(parallel.NumChunks(n, a.Config.Parallel), 1)
	partials := make([]*tensor.Tensor[float64], chunks)
	errs := make([]error, chunks)

	for c := range partials {
		// Shape validated above, New cannot fail.
		partials[c], _ = tensor.New(shape, arith.Float64, capacity)
	}

	parallel.ForChunks(n, func(c, start, end int) {
		for e := start; e < end; e++ {
			if err := a.Scatter(partials[c], connectivity[e]); err != nil {
				errs[c] = fmt.Errorf("element %d: %w", e, err)
				return
			}
		}
	}, a.Config.Parallel)

	if err := errors.Join(errs...); err != nil {
		return nil, err
	}

	global := partials[0]
	for _, p := range partials[1:] {
		if _, err := tensor.SumInto(global, p); err != nil {
			return nil, err
		}
	}

	logger.Debug("assembled global tensor",
		zap.Int("elements", n),
		zap.Int("chunks", chunks),
		zap.Int("entries", global.Count()),
	)
	return global, nil
}

// Connectivity reads element dof maps from a rank 2 table, one element per row.
func Connectivity(tbl *loader.Table) ([][]int, error) {
	if len(tbl.Shape) != 2 {
		return nil, fmt.Errorf("%w: connectivity table must have rank 2, got %d",
			loader.ErrMalformedTable, len(tbl.Shape))
	}
	ints, err := tbl.Ints()
	if err != nil {
		return nil, err
	}
	width := tbl.Shape[1]
	rows := make([][]int, tbl.Shape[0])
	for i := range rows {
		rows[i] = ints[i*width : (i+1)*width : (i+1)*width]
	}
	return rows, nil
}
