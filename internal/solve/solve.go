// Package solve implements the conjugate gradient method on sparse tensors.
package solve

import (
	"errors"
	"fmt"
	"math"

	"go.uber.org/zap"

	"github.com/sparsefem/sparsefem/internal/arith"
	"github.com/sparsefem/sparsefem/internal/tensor"
)

// Errors returned by Solve.
var (
	ErrInvalidSystem = errors.New("solve: invalid system")
	ErrBreakdown     = errors.New("solve: matrix is not positive definite")
	ErrNotConverged  = errors.New("solve: not converged")
)

// Config controls the iteration.
type Config struct {
	MaxIterations int     // Upper bound on iterations; <= 0 means the system dimension.
	Tolerance     float64 // Stop when ||r|| <= Tolerance * ||b||.
	// ChopTolerance drops residual entries below ChopTolerance * ||b|| after
	// every update so cancellation noise does not fill in the residual.
	ChopTolerance float64
	Logger        *zap.Logger
}

// DefaultConfig returns the defaults used by the CLI.
func DefaultConfig() Config {
	return Config{
		MaxIterations: 1000,
		Tolerance:     1e-10,
		ChopTolerance: 1e-15,
		Logger:        zap.NewNop(),
	}
}

// Result reports how the iteration ended.
type Result struct {
	Iterations int
	Residual   float64 // Final ||r|| relative to ||b||.
	Converged  bool
}

// Solve returns x with A·x = b for a symmetric positive definite rank 2 A.
// x0 is the starting guess; nil starts from zero. Neither A, b nor x0 is
// modified. On ErrNotConverged the last iterate is returned with the result.
func Solve(a, b, x0 *tensor.Tensor[float64], cfg Config) (*tensor.Tensor[float64], Result, error) {
	if err := check(a, b, x0); err != nil {
		return nil, Result{}, err
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	n := b.Shape()[0]
	maxIter := cfg.MaxIterations
	if maxIter <= 0 {
		maxIter = n
	}

	x := tensor.Copy(x0, tensor.DeepCopy)
	if x == nil {
		x, _ = tensor.New(b.Shape(), arith.Float64, tensor.DefaultCapacity)
	}

	bnorm := math.Sqrt(tensor.NormSquared(b))
	if bnorm == 0 {
		x, _ = tensor.New(b.Shape(), arith.Float64, 0)
		return x, Result{Converged: true}, nil
	}
	target := cfg.Tolerance * bnorm
	chop := cfg.ChopTolerance * bnorm

	r := b.Clone()
	if !x.IsEmpty() {
		ax, err := matVec(a, x)
		if err != nil {
			return nil, Result{}, err
		}
		if _, err := tensor.SubInto(r, ax); err != nil {
			return nil, Result{}, err
		}
		tensor.Chop(r, chop)
	}

	rs := tensor.NormSquared(r)
	res := Result{Residual: math.Sqrt(rs) / bnorm}
	if math.Sqrt(rs) <= target {
		res.Converged = true
		return x, res, nil
	}

	p := r.Clone()
	for res.Iterations < maxIter {
		res.Iterations++

		ap, err := matVec(a, p)
		if err != nil {
			return nil, res, err
		}
		pap, err := tensor.Dot(p, ap)
		if err != nil {
			return nil, res, err
		}
		if pap <= 0 {
			return x, res, fmt.Errorf("%w: p·Ap = %g at iteration %d", ErrBreakdown, pap, res.Iterations)
		}

		alpha := rs / pap
		if _, err := tensor.SumInto(x, tensor.Scale(p, alpha)); err != nil {
			return nil, res, err
		}
		if _, err := tensor.SubInto(r, tensor.ScaleInto(ap, alpha)); err != nil {
			return nil, res, err
		}
		tensor.Chop(r, chop)

		rsNew := tensor.NormSquared(r)
		res.Residual = math.Sqrt(rsNew) / bnorm
		logger.Debug("cg iteration",
			zap.Int("iteration", res.Iterations),
			zap.Float64("residual", res.Residual),
			zap.Int("residual_entries", r.Count()),
		)

		if math.Sqrt(rsNew) <= target {
			res.Converged = true
			logger.Info("cg converged",
				zap.Int("iterations", res.Iterations),
				zap.Float64("residual", res.Residual),
			)
			return x, res, nil
		}

		// p = r + beta*p
		if _, err := tensor.SumInto(tensor.ScaleInto(p, rsNew/rs), r); err != nil {
			return nil, res, err
		}
		rs = rsNew
	}

	logger.Warn("cg did not converge",
		zap.Int("iterations", res.Iterations),
		zap.Float64("residual", res.Residual),
	)
	return x, res, fmt.Errorf("%w: residual %g after %d iterations", ErrNotConverged, res.Residual, res.Iterations)
}

// matVec returns A·v. A is symmetric, so contracting its first slot reads rows
// instead of columns.
func matVec(a, v *tensor.Tensor[float64]) (*tensor.Tensor[float64], error) {
	return tensor.Contract(a, 1, v, 1)
}

func check(a, b, x0 *tensor.Tensor[float64]) error {
	if a == nil || b == nil {
		return fmt.Errorf("%w: matrix and right-hand side are required", ErrInvalidSystem)
	}
	if a.Rank() != 2 || a.Shape()[0] != a.Shape()[1] {
		return fmt.Errorf("%w: matrix shape %v is not square", ErrInvalidSystem, a.Shape())
	}
	if b.Rank() != 1 || b.Shape()[0] != a.Shape()[0] {
		return fmt.Errorf("%w: right-hand side shape %v for matrix %v", ErrInvalidSystem, b.Shape(), a.Shape())
	}
	if x0 != nil && !x0.Shape().Equal(b.Shape()) {
		return fmt.Errorf("%w: initial guess shape %v for right-hand side %v", ErrInvalidSystem, x0.Shape(), b.Shape())
	}
	return nil
}
