// Package arith defines the arithmetic capability the sparse tensor engine is
// generic over.
//
// An Arithmetic[T] is a stateless strategy: the tensor code never inspects
// concrete values, it only combines them through the strategy. The same
// structural algorithms therefore work for floating-point, integer and
// optional (pointer) values.
package arith

// Arithmetic is the set of pure operations the tensor engine needs on values
// of type T.
type Arithmetic[T any] interface {
	// Zero returns the additive identity. Entries equal to Zero are never stored.
	Zero() T
	Sum(a, b T) T
	Sub(a, b T) T
	Negate(a T) T
	Multiply(a, b T) T
	Absolute(a T) T
	// Compare returns -1, 0 or +1 when a is less than, equal to or greater than b.
	Compare(a, b T) int
}

// IsZero reports whether v equals the arithmetic zero of ar.
func IsZero[T any](ar Arithmetic[T], v T) bool {
	return ar.Compare(v, ar.Zero()) == 0
}

// Within reports whether |a-b| <= eps under ar.
func Within[T any](ar Arithmetic[T], a, b, eps T) bool {
	return ar.Compare(ar.Absolute(ar.Sub(a, b)), eps) <= 0
}
