// Package flow solves fully developed pressure-driven flow in a channel.
//
// The axial velocity u satisfies -Δu = G in the channel with u = 0 on both
// walls, where G is the pressure gradient over the viscosity. The inlet and
// outlet carry natural boundary conditions, so the solution is the Poiseuille
// profile u(y) = G/2 · y · (H - y).
package flow

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/sparsefem/sparsefem/internal/assemble"
	"github.com/sparsefem/sparsefem/internal/mesh"
	"github.com/sparsefem/sparsefem/internal/solve"
	"github.com/sparsefem/sparsefem/internal/tensor"
)

// Config controls a channel flow solve.
type Config struct {
	Assemble assemble.Config
	Solve    solve.Config
	Logger   *zap.Logger
}

// DefaultConfig returns the assembly and solver defaults.
func DefaultConfig() Config {
	return Config{
		Assemble: assemble.DefaultConfig(),
		Solve:    solve.DefaultConfig(),
		Logger:   zap.NewNop(),
	}
}

// Solution is the nodal velocity field on a channel mesh.
type Solution struct {
	Channel  mesh.Channel
	Velocity *tensor.Tensor[float64]
	Result   solve.Result
}

// Poiseuille assembles and solves the channel problem for pressure gradient g.
func Poiseuille(c mesh.Channel, g float64, cfg Config) (*Solution, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	ke, err := c.Stiffness()
	if err != nil {
		return nil, err
	}
	fe, err := c.Load(g)
	if err != nil {
		return nil, err
	}

	conn := c.Connectivity()
	k, err := (&assemble.Assembler{Local: ke, Config: cfg.Assemble}).AssembleAll(c.Nodes(), conn)
	if err != nil {
		return nil, fmt.Errorf("assemble stiffness: %w", err)
	}
	f, err := (&assemble.Assembler{Local: fe, Config: cfg.Assemble}).AssembleAll(c.Nodes(), conn)
	if err != nil {
		return nil, fmt.Errorf("assemble load: %w", err)
	}

	fixed := make(map[int]float64)
	for _, d := range c.Walls() {
		fixed[d] = 0
	}
	if err := assemble.Constrain(k, f, fixed); err != nil {
		return nil, err
	}
	logger.Debug("channel system assembled",
		zap.Int("dofs", c.Nodes()),
		zap.Int("elements", len(conn)),
		zap.Int("matrix_entries", k.Count()),
	)

	u, res, err := solve.Solve(k, f, nil, cfg.Solve)
	if err != nil {
		return nil, err
	}
	return &Solution{Channel: c, Velocity: u, Result: res}, nil
}

// Profile returns (y, u) at the nodes of column i, bottom wall first.
func (s *Solution) Profile(i int) (ys, us []float64) {
	c := s.Channel
	for j := range c.NY + 1 {
		d := c.Dof(i, j)
		_, y := c.Coordinates(d)
		ys = append(ys, y)
		us = append(us, s.Velocity.Get(d))
	}
	return ys, us
}

// FlowRate integrates u over the outlet with the trapezoidal rule.
func (s *Solution) FlowRate() float64 {
	ys, us := s.Profile(s.Channel.NX)
	q := 0.0
	for j := 1; j < len(ys); j++ {
		q += (ys[j] - ys[j-1]) * (us[j] + us[j-1]) / 2
	}
	return q
}

// Exact returns the analytic velocity at height y.
func Exact(c mesh.Channel, g, y float64) float64 {
	return g / 2 * y * (c.Height - y)
}
