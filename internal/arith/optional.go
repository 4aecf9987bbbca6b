package arith

// Optional lifts an Arithmetic[T] to optional values represented as *T.
//
// A nil pointer is the zero. Any result equal to the inner zero is returned as
// nil, so zero entries keep a single canonical form. Results are always freshly
// allocated; operands are never mutated.
type Optional[T any] struct {
	Inner Arithmetic[T]
}

// NewOptional returns an Optional strategy over inner.
func NewOptional[T any](inner Arithmetic[T]) Optional[T] {
	return Optional[T]{Inner: inner}
}

// Some returns a pointer to a copy of v.
func Some[T any](v T) *T {
	return &v
}

func (o Optional[T]) value(p *T) T {
	if p == nil {
		return o.Inner.Zero()
	}
	return *p
}

func (o Optional[T]) wrap(v T) *T {
	if IsZero(o.Inner, v) {
		return nil
	}
	return &v
}

// Zero returns nil.
func (o Optional[T]) Zero() *T { return nil }

// Sum returns a+b.
func (o Optional[T]) Sum(a, b *T) *T {
	return o.wrap(o.Inner.Sum(o.value(a), o.value(b)))
}

// Sub returns a-b.
func (o Optional[T]) Sub(a, b *T) *T {
	return o.wrap(o.Inner.Sub(o.value(a), o.value(b)))
}

// Negate returns -a.
func (o Optional[T]) Negate(a *T) *T {
	return o.wrap(o.Inner.Negate(o.value(a)))
}

// Multiply returns a*b.
func (o Optional[T]) Multiply(a, b *T) *T {
	if a == nil || b == nil {
		return nil
	}
	return o.wrap(o.Inner.Multiply(*a, *b))
}

// Absolute returns |a|.
func (o Optional[T]) Absolute(a *T) *T {
	return o.wrap(o.Inner.Absolute(o.value(a)))
}

// Compare compares the pointed-to values, treating nil as the inner zero.
func (o Optional[T]) Compare(a, b *T) int {
	return o.Inner.Compare(o.value(a), o.value(b))
}
