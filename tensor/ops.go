// Copyright 2026 sparsefem authors. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package tensor

import "github.com/sparsefem/sparsefem/internal/tensor"

// SumInto adds src into dst and returns dst.
func SumInto[T any](dst, src *Tensor[T]) (*Tensor[T], error) {
	return tensor.SumInto(dst, src)
}

// SubInto subtracts src from dst and returns dst.
func SubInto[T any](dst, src *Tensor[T]) (*Tensor[T], error) {
	return tensor.SubInto(dst, src)
}

// NegateInto negates t in place.
func NegateInto[T any](t *Tensor[T]) *Tensor[T] {
	return tensor.NegateInto(t)
}

// ScaleInto multiplies t by s in place.
func ScaleInto[T any](t *Tensor[T], s T) *Tensor[T] {
	return tensor.ScaleInto(t, s)
}

// Sum returns a+b.
func Sum[T any](a, b *Tensor[T]) (*Tensor[T], error) {
	return tensor.Sum(a, b)
}

// Sub returns a-b.
func Sub[T any](a, b *Tensor[T]) (*Tensor[T], error) {
	return tensor.Sub(a, b)
}

// Negate returns -t.
func Negate[T any](t *Tensor[T]) *Tensor[T] {
	return tensor.Negate(t)
}

// Scale returns s*t.
func Scale[T any](t *Tensor[T], s T) *Tensor[T] {
	return tensor.Scale(t, s)
}

// Chop removes entries with |v| <= eps in place.
func Chop[T any](t *Tensor[T], eps T) *Tensor[T] {
	return tensor.Chop(t, eps)
}

// NormSquared returns the sum of squared entries.
func NormSquared[T any](t *Tensor[T]) T {
	return tensor.NormSquared(t)
}

// TensorProduct returns the outer product of a and b.
func TensorProduct[T any](a, b *Tensor[T]) *Tensor[T] {
	return tensor.TensorProduct(a, b)
}

// ReduceRank eliminates rank rankIndex (0-based from the top) by fixing it to elem.
func ReduceRank[T any](t *Tensor[T], rankIndex, elem int) (*Tensor[T], error) {
	return tensor.ReduceRank(t, rankIndex, elem)
}

// Contract sums the product of a and b over slotA and slotB (1-based).
func Contract[T any](a *Tensor[T], slotA int, b *Tensor[T], slotB int) (*Tensor[T], error) {
	return tensor.Contract(a, slotA, b, slotB)
}

// Dot returns the inner product of two vectors.
func Dot[T any](a, b *Tensor[T]) (T, error) {
	return tensor.Dot(a, b)
}

// SelfContract sums t over the diagonal of two of its slots (1-based).
func SelfContract[T any](t *Tensor[T], slot1, slot2 int) (*Tensor[T], error) {
	return tensor.SelfContract(t, slot1, slot2)
}

// Trace returns the trace of a square rank 2 tensor.
func Trace[T any](t *Tensor[T]) (T, error) {
	return tensor.Trace(t)
}

// Equal reports exact equality of shape, sparsity and values.
func Equal[T any](a, b *Tensor[T]) bool {
	return tensor.Equal(a, b)
}

// EqualWithin reports equality with values compared within eps.
func EqualWithin[T any](a, b *Tensor[T], eps T) bool {
	return tensor.EqualWithin(a, b, eps)
}
