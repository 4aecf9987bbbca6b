package tensor

import (
	"fmt"
	"iter"
	"reflect"
	"strings"
)

// All yields every stored entry as (index path, value) in ascending key
// order. The path slice is reused between iterations; clone it to retain it.
func (t *Tensor[T]) All() iter.Seq2[[]int, T] {
	return func(yield func([]int, T) bool) {
		if t == nil {
			return
		}
		path := make([]int, 0, t.Rank())
		t.walk(rootID, path, yield)
	}
}

func (t *Tensor[T]) walk(id int32, path []int, yield func([]int, T) bool) bool {
	nd := &t.nodes[id]
	for slot, key := range nd.keys.all() {
		p := append(path, key)
		if nd.isVector() {
			if !yield(p, nd.vals[slot]) {
				return false
			}
			continue
		}
		if !t.walk(nd.kids[slot], p, yield) {
			return false
		}
	}
	return true
}

// String returns the nested-brace dump of the tensor, ordered by key:
//
//	{{k1,v1}, {k2,v2}, ...}
//
// where each v of a rank > 1 node is itself a dump. An empty tensor is "{}".
func (t *Tensor[T]) String() string {
	if t == nil {
		return "<nil>"
	}
	var sb strings.Builder
	t.format(&sb, rootID)
	return sb.String()
}

// String returns the nested-brace dump of the subtree rooted at n.
func (n Node[T]) String() string {
	n.node()
	var sb strings.Builder
	n.t.format(&sb, n.id)
	return sb.String()
}

func (t *Tensor[T]) format(sb *strings.Builder, id int32) {
	nd := &t.nodes[id]
	sb.WriteByte('{')
	for slot, key := range nd.keys.all() {
		if slot > 0 {
			sb.WriteString(", ")
		}
		fmt.Fprintf(sb, "{%d,", key)
		if nd.isVector() {
			sb.WriteString(formatValue(nd.vals[slot]))
		} else {
			t.format(sb, nd.kids[slot])
		}
		sb.WriteByte('}')
	}
	sb.WriteByte('}')
}

// formatValue prints pointer-typed (optional) values by what they point to.
func formatValue(v any) string {
	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.Pointer && !rv.IsNil() {
		return fmt.Sprint(rv.Elem().Interface())
	}
	return fmt.Sprint(v)
}
