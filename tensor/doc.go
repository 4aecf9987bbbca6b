// Copyright 2026 sparsefem authors. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package tensor provides sparse, arbitrary-rank tensors for finite-element
// assembly.
//
// # Overview
//
// A Tensor stores only its non-zero entries in a recursive hierarchy: a node of
// rank R > 1 maps indices to nodes of rank R-1, and a rank 1 node (a vector)
// maps indices to values. Tensors are generic over their value type and over
// an Arithmetic strategy, so the same code serves float64, int and optional
// values.
//
// # Basic Usage
//
//	import "github.com/sparsefem/sparsefem/tensor"
//
//	func main() {
//	    k, _ := tensor.New(tensor.Shape{4, 4}, tensor.Float64, 4)
//	    k.Set(2.0, 0, 0)    // creates row 0 on demand
//	    k.Set(-1.0, 0, 1)
//	    k.Set(0, 0, 1)      // writing zero removes the entry
//
//	    u, _ := tensor.FromFlatValues([]float64{1, 0, 0, 2}, tensor.Shape{4}, tensor.Float64)
//	    ku, _ := tensor.Contract(k, 2, u, 1) // matrix-vector product
//	    fmt.Println(ku)                      // {{0,2}}
//	}
//
// # Destructive and Pure Operations
//
// Elementwise operations come in pairs. SumInto, SubInto, NegateInto and
// ScaleInto mutate and return their first operand, which avoids copies during
// iterative assembly. Sum, Sub, Negate and Scale copy first.
//
// A nil *Tensor is an absent operand: it is the identity of Sum and Sub, and
// products and contractions with it are absent as well.
//
// # Ranks and Slots
//
// ReduceRank takes a 0-based rank index counted from the top of the
// hierarchy. Contract and SelfContract take 1-based slots, the positions as
// written in index notation: slot s is rank index s-1.
//
// # Sparsity
//
// Zero results are pruned by exact comparison with the arithmetic zero. Use
// Chop to discard rounding residues below a tolerance.
package tensor
