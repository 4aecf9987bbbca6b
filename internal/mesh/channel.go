// Package mesh builds structured meshes of a straight channel.
//
// The channel [0, Length] × [0, Height] is split into NX × NY equal bilinear
// quadrilaterals. Node (i, j) sits at (i·hx, j·hy) and has dof j·(NX+1)+i.
// Element corners are listed counter-clockwise from the lower left.
package mesh

import (
	"errors"
	"fmt"

	"github.com/sparsefem/sparsefem/internal/arith"
	"github.com/sparsefem/sparsefem/internal/tensor"
)

// ErrInvalidChannel is returned for non-positive sizes or element counts.
var ErrInvalidChannel = errors.New("mesh: invalid channel")

// Channel is a rectangular channel with walls at y = 0 and y = Height.
type Channel struct {
	Length, Height float64
	NX, NY         int
}

// Validate checks that the channel can be meshed.
func (c Channel) Validate() error {
	if c.Length <= 0 || c.Height <= 0 {
		return fmt.Errorf("%w: size %g × %g", ErrInvalidChannel, c.Length, c.Height)
	}
	if c.NX < 1 || c.NY < 1 {
		return fmt.Errorf("%w: %d × %d elements", ErrInvalidChannel, c.NX, c.NY)
	}
	return nil
}

// Spacing returns the element width and height.
func (c Channel) Spacing() (hx, hy float64) {
	return c.Length / float64(c.NX), c.Height / float64(c.NY)
}

// Nodes returns the number of nodes, one dof each.
func (c Channel) Nodes() int {
	return (c.NX + 1) * (c.NY + 1)
}

// Dof returns the dof of node (i, j).
func (c Channel) Dof(i, j int) int {
	return j*(c.NX+1) + i
}

// Connectivity returns the corner dofs of every element, row by row.
func (c Channel) Connectivity() [][]int {
	conn := make([][]int, 0, c.NX*c.NY)
	for j := range c.NY {
		for i := range c.NX {
			conn = append(conn, []int{
				c.Dof(i, j), c.Dof(i+1, j), c.Dof(i+1, j+1), c.Dof(i, j+1),
			})
		}
	}
	return conn
}

// Walls returns the dofs on y = 0 and y = Height.
func (c Channel) Walls() []int {
	walls := make([]int, 0, 2*(c.NX+1))
	for _, j := range []int{0, c.NY} {
		for i := range c.NX + 1 {
			walls = append(walls, c.Dof(i, j))
		}
	}
	return walls
}

// Stiffness returns the bilinear element matrix of the Laplacian,
// ∫ ∇φa·∇φb over one element.
func (c Channel) Stiffness() (*tensor.Tensor[float64], error) {
	hx, hy := c.Spacing()
	ax, ay := hy/(6*hx), hx/(6*hy)
	kx := [16]float64{
		2, -2, -1, 1,
		-2, 2, 1, -1,
		-1, 1, 2, -2,
		1, -1, -2, 2,
	}
	ky := [16]float64{
		2, 1, -1, -2,
		1, 2, -2, -1,
		-1, -2, 2, 1,
		-2, -1, 1, 2,
	}
	values := make([]float64, 16)
	for i := range values {
		values[i] = ax*kx[i] + ay*ky[i]
	}
	return tensor.FromFlatValues(values, tensor.Shape{4, 4}, arith.Float64)
}

// Load returns the element vector of a uniform source g, ∫ g·φa.
func (c Channel) Load(g float64) (*tensor.Tensor[float64], error) {
	hx, hy := c.Spacing()
	q := g * hx * hy / 4
	return tensor.FromFlatValues([]float64{q, q, q, q}, tensor.Shape{4}, arith.Float64)
}

// Coordinates returns the position of dof d.
func (c Channel) Coordinates(d int) (x, y float64) {
	hx, hy := c.Spacing()
	i, j := d%(c.NX+1), d/(c.NX+1)
	return float64(i) * hx, float64(j) * hy
}
