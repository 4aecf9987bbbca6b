package arith

// Real is a constraint for the built-in numeric types with native operators.
type Real interface {
	~float32 | ~float64 | ~int | ~int32 | ~int64
}

// Number implements Arithmetic for any Real type using Go's native operators.
type Number[T Real] struct{}

// Predefined strategies for the common value types.
var (
	Float64 Arithmetic[float64] = Number[float64]{}
	Float32 Arithmetic[float32] = Number[float32]{}
	Int     Arithmetic[int]     = Number[int]{}
	Int64   Arithmetic[int64]   = Number[int64]{}
)

// Zero returns 0.
func (Number[T]) Zero() T { return 0 }

// Sum returns a+b.
func (Number[T]) Sum(a, b T) T { return a + b }

// Sub returns a-b.
func (Number[T]) Sub(a, b T) T { return a - b }

// Negate returns -a. A zero input yields an exact zero (never -0).
func (Number[T]) Negate(a T) T {
	if a == 0 {
		return 0
	}
	return -a
}

// Multiply returns a*b.
func (Number[T]) Multiply(a, b T) T { return a * b }

// Absolute returns |a|.
func (Number[T]) Absolute(a T) T {
	if a < 0 {
		return -a
	}
	return a
}

// Compare orders a and b. NaN compares unequal to everything, including zero,
// so a NaN entry is kept rather than silently pruned.
func (Number[T]) Compare(a, b T) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	case a == b:
		return 0
	default:
		return 1
	}
}
