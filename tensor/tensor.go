// Copyright 2026 sparsefem authors. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package tensor

import (
	"github.com/sparsefem/sparsefem/internal/arith"
	"github.com/sparsefem/sparsefem/internal/tensor"
)

// Type aliases for public API

// Shape represents the per-rank dimensions of a tensor, outermost first.
// Example: Shape{2, 3, 4} is a rank 3 tensor with dimensions 2×3×4.
type Shape = tensor.Shape

// Tensor is a sparse tensor with values of type T.
type Tensor[T any] = tensor.Tensor[T]

// Node is a handle on one node of a tensor hierarchy.
type Node[T any] = tensor.Node[T]

// CopyMode selects what Copy carries over.
type CopyMode = tensor.CopyMode

// Arithmetic is the value strategy a tensor is generic over.
type Arithmetic[T any] = arith.Arithmetic[T]

// Optional lifts an Arithmetic[T] to optional *T values where nil is zero.
type Optional[T any] = arith.Optional[T]

// Predefined arithmetic strategies.
var (
	Float64 = arith.Float64
	Float32 = arith.Float32
	Int     = arith.Int
	Int64   = arith.Int64
)

// DeepCopy copies values and clones the shape.
var DeepCopy = tensor.DeepCopy

// DefaultCapacity is the capacity of nodes created on demand by Set.
const DefaultCapacity = tensor.DefaultCapacity

// Errors returned by tensor operations.
var (
	ErrInvalidShape        = tensor.ErrInvalidShape
	ErrInvalidRank         = tensor.ErrInvalidRank
	ErrIndexOutOfRange     = tensor.ErrIndexOutOfRange
	ErrMismatchedStructure = tensor.ErrMismatchedStructure
	ErrMissingSubordinate  = tensor.ErrMissingSubordinate
	ErrScalarResult        = tensor.ErrScalarResult
)

// NewOptional returns an Optional strategy over inner.
func NewOptional[T any](inner Arithmetic[T]) Optional[T] {
	return arith.NewOptional(inner)
}

// New creates an empty tensor of the given shape.
func New[T any](shape Shape, ar Arithmetic[T], capacity int) (*Tensor[T], error) {
	return tensor.New(shape, ar, capacity)
}

// FromFlatValues builds a tensor from row-major values, omitting zeros.
func FromFlatValues[T any](values []T, shape Shape, ar Arithmetic[T]) (*Tensor[T], error) {
	return tensor.FromFlatValues(values, shape, ar)
}

// Copy returns a copy of src according to mode.
func Copy[T any](src *Tensor[T], mode CopyMode) *Tensor[T] {
	return tensor.Copy(src, mode)
}
